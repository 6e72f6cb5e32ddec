// Package interp is a reference tree-walking evaluator over a *graph.Graph,
// adapted from the register-state/Exec switch style of this codebase's
// Z80 instruction evaluator: one Value per node instead of one State per
// CPU, one switch over graph.Op instead of one switch over inst.OpCode. It
// exists only to make the properties the core and its passes promise
// (§8's doubleword-add and loop-unroll semantic-equivalence scenarios)
// checkable from tests, never from production code.
package interp

import (
	"github.com/pkg/errors"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

var (
	// ErrNoStart is returned when the graph has no Start/End pair set.
	ErrNoStart = errors.New("interp: graph has no start/end")
	// ErrUnsupportedOp is returned for an opcode this evaluator does not
	// implement; Sel and any target-specific ASM node fall in this bucket.
	// A Call whose callee the Resolver does not know yields its own error.
	ErrUnsupportedOp = errors.New("interp: unsupported opcode")
	// ErrBudgetExceeded guards against a runaway loop never reaching End
	// (e.g. a malformed or adversarial graph under fuzzing).
	ErrBudgetExceeded = errors.New("interp: step budget exceeded")
)

// ExternFunc evaluates one Call whose CallAttr.Callee this Resolver
// recognizes.
type ExternFunc func(args []mode.Tarval) ([]mode.Tarval, error)

// Resolver looks up the ExternFunc backing a Call's opaque Callee payload —
// this package's analogue of dw.IntrinsicFactory, the one external
// collaborator an evaluator needs.
type Resolver interface {
	Resolve(callee interface{}) (ExternFunc, bool)
}

// State is the evaluator's mutable run state: one Tarval per already-
// evaluated node (mirroring cpu.State's flat register fields, except keyed
// by node id instead of register name) plus a flat address-keyed memory
// for Load/Store.
type State struct {
	values map[graph.Id]mode.Tarval
	memory map[int64]mode.Tarval
	calls  map[graph.Id][]mode.Tarval
	steps  int
}

func newState() *State {
	return &State{
		values: map[graph.Id]mode.Tarval{},
		memory: map[int64]mode.Tarval{},
		calls:  map[graph.Id][]mode.Tarval{},
	}
}

func (st *State) callResults(call graph.Id) ([]mode.Tarval, bool) {
	v, ok := st.calls[call]
	return v, ok
}

func (st *State) setCallResults(call graph.Id, results []mode.Tarval) {
	st.calls[call] = results
}

// Interp evaluates one *graph.Graph against concrete arguments.
type Interp struct {
	g         *graph.Graph
	resolver  Resolver
	stepBudget int
}

// New returns an Interp over g. resolver may be nil if the graph has no
// Call nodes. stepBudget bounds the number of Blocks visited before
// ErrBudgetExceeded is returned; zero selects a default of 10000.
func New(g *graph.Graph, resolver Resolver, stepBudget int) *Interp {
	if stepBudget <= 0 {
		stepBudget = 10000
	}
	return &Interp{g: g, resolver: resolver, stepBudget: stepBudget}
}

// Run evaluates the graph starting at Start with args bound, in order, to
// the graph's parameter values (every OpProj of Start past the mandatory
// memory projection, in Num order), and returns the values flowing into
// the OpReturn that is ultimately reached.
func (it *Interp) Run(args []mode.Tarval) ([]mode.Tarval, error) {
	g := it.g
	if g.Start() < 0 || g.End() < 0 {
		return nil, ErrNoStart
	}
	st := newState()
	it.bindParams(st, args)

	block := g.Node(g.Start()).Block()
	for {
		it.evalBlock(st, block)
		st.steps++
		if st.steps > it.stepBudget {
			return nil, ErrBudgetExceeded
		}

		term, err := it.terminator(st, block)
		if err != nil {
			return nil, err
		}
		if term.isReturn {
			return it.evalIns(st, term.node, term.returnIns)
		}
		block = term.next
		// Forget the values computed on an earlier visit to block, so a
		// loop body re-entered on the next iteration is evaluated afresh.
		for i := 0; i < g.NumNodes(); i++ {
			if g.Node(graph.Id(i)).Block() == block {
				delete(st.values, graph.Id(i))
				delete(st.calls, graph.Id(i))
			}
		}
		it.bindPhis(st, block, term.pos)
	}
}

type terminatorResult struct {
	isReturn  bool
	node      graph.Id
	returnIns []graph.Id
	next      graph.Id
	pos       int // predecessor index of next that this edge corresponds to
}

// terminator evaluates block's exit: either an OpReturn reachable directly
// through block's sole control-flow-producing chain, or an OpCond whose
// Proj(1)/Proj(0) select the true/false successor Block.
func (it *Interp) terminator(st *State, block graph.Id) (terminatorResult, error) {
	g := it.g
	var exit graph.Id = -1
	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(graph.Id(i))
		if n.Block() != block {
			continue
		}
		switch n.Op() {
		case graph.OpReturn:
			return terminatorResult{isReturn: true, node: graph.Id(i), returnIns: n.Ins()}, nil
		case graph.OpCond:
			exit = graph.Id(i)
		}
	}
	if exit >= 0 {
		cnode := g.Node(exit)
		cond, err := it.evalOne(st, cnode.In(1))
		if err != nil {
			return terminatorResult{}, err
		}
		want := 0
		if !cond.IsNull() {
			want = 1
		}
		for i := 0; i < g.NumNodes(); i++ {
			pn := g.Node(graph.Id(i))
			if pn.Op() != graph.OpProj || pn.In(0) != exit {
				continue
			}
			attr := pn.Attr().(graph.ProjAttr)
			if attr.Num != want {
				continue
			}
			for bi := 0; bi < g.NumNodes(); bi++ {
				bn := g.Node(graph.Id(bi))
				if bn.Op() != graph.OpBlock {
					continue
				}
				for pos, p := range bn.Ins() {
					if p == graph.Id(i) {
						return terminatorResult{next: graph.Id(bi), pos: pos}, nil
					}
				}
			}
		}
		return terminatorResult{}, errors.Errorf("interp: Cond %d has no matching successor", exit)
	}

	// unconditional: find the single control-flow-producing node owned by
	// block (a Proj of the block itself, or of Start) and follow it to the
	// Block that lists it as a predecessor entry.
	succs := graph.Successors(g, block)
	if len(succs) != 1 {
		return terminatorResult{}, errors.Errorf("interp: block %d has no unique unconditional successor", block)
	}
	next := succs[0]
	nb := g.Node(next)
	for pos, p := range nb.Ins() {
		if g.Node(p).Block() == block {
			return terminatorResult{next: next, pos: pos}, nil
		}
	}
	return terminatorResult{next: next, pos: 0}, nil
}

// evalBlock evaluates every value-producing node owned by block (everything
// but Block/Phi/control nodes, which are handled by bindPhis/terminator),
// in id order — sufficient since this graph's construction rule never
// forward-references a same-block value.
func (it *Interp) evalBlock(st *State, block graph.Id) {
	g := it.g
	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(graph.Id(i))
		if n.Block() != block || n.Mode() == mode.X {
			continue
		}
		switch n.Op() {
		case graph.OpBlock, graph.OpPhi, graph.OpStart, graph.OpEnd, graph.OpCond, graph.OpReturn:
			continue
		}
		it.evalOne(st, graph.Id(i))
	}
}

// bindPhis evaluates every Phi owned by block, selecting input index pos —
// the predecessor index this control transfer arrived through.
func (it *Interp) bindPhis(st *State, block graph.Id, pos int) {
	g := it.g
	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(graph.Id(i))
		if n.Op() == graph.OpPhi && n.Block() == block {
			v, err := it.evalOne(st, n.In(pos))
			if err != nil {
				continue
			}
			st.values[graph.Id(i)] = v
		}
	}
}

func (it *Interp) bindParams(st *State, args []mode.Tarval) {
	g := it.g
	startBlock := g.Node(g.Start()).Block()
	var projs []graph.Id
	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(graph.Id(i))
		if n.Op() == graph.OpProj && n.In(0) == g.Start() && n.Block() == startBlock {
			attr, ok := n.Attr().(graph.ProjAttr)
			if ok && attr.Num >= graph.ProjRes {
				projs = append(projs, graph.Id(i))
			}
		}
	}
	for idx, p := range projs {
		if idx < len(args) {
			st.values[p] = args[idx]
		}
	}
}

func (it *Interp) evalIns(st *State, node graph.Id, ins []graph.Id) ([]mode.Tarval, error) {
	out := make([]mode.Tarval, len(ins))
	for i, v := range ins {
		val, err := it.evalOne(st, v)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}
