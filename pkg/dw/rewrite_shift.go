package dw

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

// substituteRotl implements the Rotl row's "general Or(Shl,Shr) substitution":
// Rotl(x, c) becomes Or(Shl(x, c), Shr(x, W-c)), both at the original
// doubleword width, so the ordinary Shl/Shr/Or lowering handles the rest
// (including the constant-shift special case below, which is what actually
// makes a rotate-by-half-width degenerate into a cheap lo/hi swap with no
// generated shift instructions).
func (l *lowerer) substituteRotl(n graph.Id) error {
	node := l.g.Node(n)
	x, c := node.In(0), node.In(1)
	block := node.Block()
	m := node.Mode()

	width := mode.Int(l.g.Node(c).Mode(), int64(m.Bits()))
	var complement graph.Id
	if attr, ok := l.g.Node(c).Attr().(graph.ConstAttr); ok {
		complement = l.g.NewNode(graph.OpConst, block, l.g.Node(c).Mode(),
			nil, graph.ConstAttr{Value: width.Sub(attr.Value)})
	} else {
		complement = l.g.NewNode(graph.OpSub, block, l.g.Node(c).Mode(), []graph.Id{
			l.g.NewNode(graph.OpConst, block, l.g.Node(c).Mode(), nil, graph.ConstAttr{Value: width}),
			c,
		}, nil)
	}

	shl := l.g.NewNode(graph.OpShl, block, m, []graph.Id{x, c}, nil)
	shr := l.g.NewNode(graph.OpShr, block, m, []graph.Id{x, complement}, nil)
	or := l.g.NewNode(graph.OpOr, block, m, []graph.Id{shl, shr}, nil)

	l.g.ReplaceBy(n, or)
	return nil
}

type shiftKind int

const (
	shiftLogicalLeft shiftKind = iota
	shiftLogicalRight
	shiftArithRight
)

// lowerShift implements the Shl/Shr/Shrs row: a compile-time-constant shift
// amount is rewritten directly into half-width shifts/ors per the standard
// cross-half formulas (no runtime call needed); a dynamic amount is routed
// through an intrinsic call taking the operand's low/high halves and the
// (unsplit) amount, returning the shifted low/high halves.
func (l *lowerer) lowerShift(n graph.Id) {
	opMode := l.operationalMode(n)
	if !l.isDoubleword(opMode) {
		return
	}
	if l.pairReady(n) {
		return
	}
	node := l.g.Node(n)
	x, amount := node.In(0), node.In(1)
	if !l.pairReady(x) {
		l.enqueue(n)
		return
	}
	xp := l.pairFor(x)
	block := node.Block()
	hm := l.highHalfMode(opMode)
	half := uint8(l.quad.Lu.Bits())

	kind := shiftLogicalLeft
	switch node.Op() {
	case graph.OpShr:
		kind = shiftLogicalRight
	case graph.OpShrs:
		kind = shiftArithRight
	}

	if attr, ok := l.g.Node(amount).Attr().(graph.ConstAttr); ok {
		c := attr.Value.Int64()
		lo, hi := l.constShift(kind, xp.Lo, xp.Hi, uint(c), half, block, hm)
		l.setPair(n, lo, hi)
		return
	}

	entity := resolveIntrinsic(l.params.Intrinsics, node.Op(), opMode, opMode)
	mem := l.anchorMem()
	call := l.g.NewNode(graph.OpCall, block, mode.T, []graph.Id{mem, xp.Lo, xp.Hi, amount}, graph.CallAttr{Callee: entity})
	newMem := l.g.NewNode(graph.OpProj, block, mode.M, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjMem})
	l.curMem = newMem
	lo := l.g.NewNode(graph.OpProj, block, l.quad.Lu, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjRes})
	hi := l.g.NewNode(graph.OpProj, block, hm, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjRes + 1})
	l.setPair(n, lo, hi)
}

// constShift builds the half-width replacement for a shift by the
// compile-time constant c, 0 <= c < 2*half (values outside that range wrap
// per the mode's width, same as any other shift-count overflow).
func (l *lowerer) constShift(kind shiftKind, lo, hi graph.Id, c uint, half uint8, block graph.Id, hm mode.Mode) (graph.Id, graph.Id) {
	full := uint(half) * 2
	c %= full
	zeroLu := l.g.NewNode(graph.OpConst, block, l.quad.Lu, nil, graph.ConstAttr{Value: mode.Int(l.quad.Lu, 0)})
	zeroHm := l.g.NewNode(graph.OpConst, block, hm, nil, graph.ConstAttr{Value: mode.Int(hm, 0)})

	switch kind {
	case shiftLogicalLeft:
		switch {
		case c == 0:
			return lo, hi
		case c < uint(half):
			newLo := l.g.NewNode(graph.OpShl, block, l.quad.Lu, []graph.Id{lo, l.constOf(l.quad.Lu, int64(c), block)}, nil)
			crossLo := l.g.NewNode(graph.OpShr, block, l.quad.Lu, []graph.Id{lo, l.constOf(l.quad.Lu, int64(half)-int64(c), block)}, nil)
			crossLoHm := l.g.NewNode(graph.OpConv, block, hm, []graph.Id{crossLo}, nil)
			shiftedHi := l.g.NewNode(graph.OpShl, block, hm, []graph.Id{hi, l.constOf(hm, int64(c), block)}, nil)
			newHi := l.g.NewNode(graph.OpOr, block, hm, []graph.Id{shiftedHi, crossLoHm}, nil)
			return newLo, newHi
		case c == uint(half):
			newHi := l.g.NewNode(graph.OpConv, block, hm, []graph.Id{lo}, nil)
			return zeroLu, newHi
		default:
			rest := c - uint(half)
			loConv := l.g.NewNode(graph.OpConv, block, hm, []graph.Id{lo}, nil)
			newHi := l.g.NewNode(graph.OpShl, block, hm, []graph.Id{loConv, l.constOf(hm, int64(rest), block)}, nil)
			return zeroLu, newHi
		}
	case shiftLogicalRight:
		switch {
		case c == 0:
			return lo, hi
		case c < uint(half):
			newHi := l.g.NewNode(graph.OpShr, block, hm, []graph.Id{hi, l.constOf(hm, int64(c), block)}, nil)
			shiftedLo := l.g.NewNode(graph.OpShr, block, l.quad.Lu, []graph.Id{lo, l.constOf(l.quad.Lu, int64(c), block)}, nil)
			hiConv := l.g.NewNode(graph.OpConv, block, l.quad.Lu, []graph.Id{hi}, nil)
			crossHi := l.g.NewNode(graph.OpShl, block, l.quad.Lu, []graph.Id{hiConv, l.constOf(l.quad.Lu, int64(half)-int64(c), block)}, nil)
			newLo := l.g.NewNode(graph.OpOr, block, l.quad.Lu, []graph.Id{shiftedLo, crossHi}, nil)
			return newLo, newHi
		case c == uint(half):
			newLo := l.g.NewNode(graph.OpConv, block, l.quad.Lu, []graph.Id{hi}, nil)
			return newLo, zeroHm
		default:
			rest := c - uint(half)
			hiConv := l.g.NewNode(graph.OpConv, block, l.quad.Lu, []graph.Id{hi}, nil)
			newLo := l.g.NewNode(graph.OpShr, block, l.quad.Lu, []graph.Id{hiConv, l.constOf(l.quad.Lu, int64(rest), block)}, nil)
			return newLo, zeroHm
		}
	default: // shiftArithRight
		switch {
		case c == 0:
			return lo, hi
		case c < uint(half):
			newHi := l.g.NewNode(graph.OpShrs, block, hm, []graph.Id{hi, l.constOf(hm, int64(c), block)}, nil)
			shiftedLo := l.g.NewNode(graph.OpShr, block, l.quad.Lu, []graph.Id{lo, l.constOf(l.quad.Lu, int64(c), block)}, nil)
			hiConv := l.g.NewNode(graph.OpConv, block, l.quad.Lu, []graph.Id{hi}, nil)
			crossHi := l.g.NewNode(graph.OpShl, block, l.quad.Lu, []graph.Id{hiConv, l.constOf(l.quad.Lu, int64(half)-int64(c), block)}, nil)
			newLo := l.g.NewNode(graph.OpOr, block, l.quad.Lu, []graph.Id{shiftedLo, crossHi}, nil)
			return newLo, newHi
		case c == uint(half):
			newLo := l.g.NewNode(graph.OpConv, block, l.quad.Lu, []graph.Id{hi}, nil)
			signFill := l.g.NewNode(graph.OpShrs, block, hm, []graph.Id{hi, l.constOf(hm, int64(half)-1, block)}, nil)
			return newLo, signFill
		default:
			rest := c - uint(half)
			hiConv := l.g.NewNode(graph.OpConv, block, l.quad.Lu, []graph.Id{hi}, nil)
			newLo := l.g.NewNode(graph.OpShrs, block, l.quad.Lu, []graph.Id{hiConv, l.constOf(l.quad.Lu, int64(rest), block)}, nil)
			signFill := l.g.NewNode(graph.OpShrs, block, hm, []graph.Id{hi, l.constOf(hm, int64(half)-1, block)}, nil)
			return newLo, signFill
		}
	}
}

func (l *lowerer) constOf(m mode.Mode, v int64, block graph.Id) graph.Id {
	return l.g.NewNode(graph.OpConst, block, m, nil, graph.ConstAttr{Value: mode.Int(m, v)})
}
