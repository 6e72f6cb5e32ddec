package interp

import (
	"github.com/pkg/errors"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

// evalOne returns n's value, evaluating and memoizing it in st.values on
// first reference. Run drops the memoized values of a Block's nodes each
// time control enters that Block, so values inside a loop are recomputed
// on every iteration.
func (it *Interp) evalOne(st *State, n graph.Id) (mode.Tarval, error) {
	if v, ok := st.values[n]; ok {
		return v, nil
	}
	g := it.g
	node := g.Node(n)

	switch node.Op() {
	case graph.OpConst:
		v := node.Attr().(graph.ConstAttr).Value
		st.values[n] = v
		return v, nil

	case graph.OpAdd, graph.OpSub, graph.OpMul, graph.OpDiv, graph.OpMod,
		graph.OpShl, graph.OpShr, graph.OpShrs, graph.OpAnd, graph.OpOr, graph.OpEor:
		a, err := it.evalOne(st, node.In(0))
		if err != nil {
			return mode.Tarval{}, err
		}
		b, err := it.evalOne(st, node.In(1))
		if err != nil {
			return mode.Tarval{}, err
		}
		v, err := binop(node.Op(), a, b)
		if err != nil {
			return mode.Tarval{}, err
		}
		st.values[n] = v
		return v, nil

	case graph.OpNot, graph.OpMinus:
		a, err := it.evalOne(st, node.In(0))
		if err != nil {
			return mode.Tarval{}, err
		}
		var v mode.Tarval
		if node.Op() == graph.OpNot {
			v = a.Not()
		} else {
			v = a.Minus()
		}
		st.values[n] = v
		return v, nil

	case graph.OpConv:
		a, err := it.evalOne(st, node.In(0))
		if err != nil {
			return mode.Tarval{}, err
		}
		v := a.Convert(node.Mode())
		st.values[n] = v
		return v, nil

	case graph.OpCmp:
		a, err := it.evalOne(st, node.In(0))
		if err != nil {
			return mode.Tarval{}, err
		}
		b, err := it.evalOne(st, node.In(1))
		if err != nil {
			return mode.Tarval{}, err
		}
		attr := node.Attr().(graph.CmpAttr)
		satisfied := a.Cmp(b)&attr.Rel != 0
		v := mode.Bool(satisfied)
		st.values[n] = v
		return v, nil

	case graph.OpMux:
		sel, err := it.evalOne(st, node.In(0))
		if err != nil {
			return mode.Tarval{}, err
		}
		var v mode.Tarval
		if sel.IsNull() {
			v, err = it.evalOne(st, node.In(1))
		} else {
			v, err = it.evalOne(st, node.In(2))
		}
		if err != nil {
			return mode.Tarval{}, err
		}
		st.values[n] = v
		return v, nil

	case graph.OpLoad:
		addr, err := it.evalOne(st, node.In(1))
		if err != nil {
			return mode.Tarval{}, err
		}
		attr, _ := node.Attr().(graph.LoadStoreAttr)
		v := st.memory[addr.Int64()+attr.Offset]
		st.values[n] = v
		return v, nil

	case graph.OpStore:
		addr, err := it.evalOne(st, node.In(1))
		if err != nil {
			return mode.Tarval{}, err
		}
		val, err := it.evalOne(st, node.In(2))
		if err != nil {
			return mode.Tarval{}, err
		}
		attr, _ := node.Attr().(graph.LoadStoreAttr)
		st.memory[addr.Int64()+attr.Offset] = val
		st.values[n] = val
		return val, nil

	case graph.OpProj:
		return it.evalProj(st, n, node)

	case graph.OpCall:
		return mode.Tarval{}, errors.Errorf("interp: Call %d has no result Proj", n)

	case graph.OpSync, graph.OpDummy, graph.OpBad, graph.OpKeep:
		return mode.Tarval{}, nil
	}

	return mode.Tarval{}, errors.Wrapf(ErrUnsupportedOp, "op %s", node.Op())
}

func (it *Interp) evalProj(st *State, n graph.Id, node *graph.Node) (mode.Tarval, error) {
	producer := node.In(0)
	pnode := it.g.Node(producer)
	attr := node.Attr().(graph.ProjAttr)

	if pnode.Op() == graph.OpStart {
		// unbound parameter proj: Run's bindParams should have already
		// populated this; an unbound reference evaluates to the mode's
		// zero value rather than erroring, matching Const's default.
		return mode.Int(node.Mode(), 0), nil
	}

	if pnode.Op() == graph.OpCall {
		results, err := it.evalCall(st, producer, pnode)
		if err != nil {
			return mode.Tarval{}, err
		}
		idx := attr.Num - graph.ProjRes
		if idx < 0 || idx >= len(results) {
			return mode.Tarval{}, errors.Errorf("interp: call %d has no result %d", producer, attr.Num)
		}
		return results[idx], nil
	}

	// pass-through Proj over a single-result producer (Load/Store's ProjRes)
	return it.evalOne(st, producer)
}

func (it *Interp) evalCall(st *State, callID graph.Id, call *graph.Node) ([]mode.Tarval, error) {
	if results, ok := st.callResults(callID); ok {
		return results, nil
	}
	if it.resolver == nil {
		return nil, errors.Errorf("interp: call %d but no Resolver configured", callID)
	}
	attr, ok := call.Attr().(graph.CallAttr)
	if !ok {
		return nil, errors.Errorf("interp: call %d has no CallAttr", callID)
	}
	fn, ok := it.resolver.Resolve(attr.Callee)
	if !ok {
		return nil, errors.Errorf("interp: call %d: unresolved callee", callID)
	}
	var args []mode.Tarval
	for _, in := range call.Ins() {
		if it.g.Node(in).Mode() == mode.M {
			continue
		}
		v, err := it.evalOne(st, in)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	results, err := fn(args)
	if err != nil {
		return nil, err
	}
	st.setCallResults(callID, results)
	return results, nil
}

func binop(op graph.Op, a, b mode.Tarval) (mode.Tarval, error) {
	switch op {
	case graph.OpAdd:
		return a.Add(b), nil
	case graph.OpSub:
		return a.Sub(b), nil
	case graph.OpMul:
		return a.Mul(b), nil
	case graph.OpDiv:
		return a.Div(b), nil
	case graph.OpMod:
		return a.Mod(b), nil
	case graph.OpAnd:
		return a.And(b), nil
	case graph.OpOr:
		return a.Or(b), nil
	case graph.OpEor:
		return a.Eor(b), nil
	case graph.OpShl:
		return a.Shl(uint(b.Int64())), nil
	case graph.OpShr:
		return a.Shr(uint(b.Int64())), nil
	case graph.OpShrs:
		return a.Shrs(uint(b.Int64())), nil
	}
	return mode.Tarval{}, errors.Errorf("interp: unsupported binop %s", op)
}
