package dw

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

func isEqOrNe(rel mode.Relation) bool {
	return rel == mode.RelEqual || rel == notEqual()
}

func notEqual() mode.Relation { return mode.RelEqual | mode.RelLess | mode.RelGreater }

// strictPart drops the "or-equal" bit from an ordering relation, giving the
// relation that, applied to the high halves alone, already decides the
// doubleword comparison without needing the low halves at all.
func strictPart(rel mode.Relation) mode.Relation { return rel &^ mode.RelEqual }

func (l *lowerer) isZeroConst(p *pair) bool {
	lo, okLo := l.g.Node(p.Lo).Attr().(graph.ConstAttr)
	hi, okHi := l.g.Node(p.Hi).Attr().(graph.ConstAttr)
	return okLo && okHi && lo.Value.IsNull() && hi.Value.IsNull()
}

// lowerCmp implements the Cmp row as a pure boolean tree over the two
// halves: equality is an And of both halves' equality, "not equal" is an
// Or of both halves' inequality, and the remaining ordered relations
// compare the high halves first and only fall through to the low-half
// comparison when the high halves are equal. Comparing against an
// all-zero operand is special-cased to a single Or-then-compare, since
// Eq/Ne against zero don't need the high/low split at all.
func (l *lowerer) lowerCmp(n graph.Id) {
	opMode := l.operationalMode(n)
	if !l.isDoubleword(opMode) {
		return
	}
	node := l.g.Node(n)
	a, b := node.In(0), node.In(1)
	if !l.pairReady(a) || !l.pairReady(b) {
		l.enqueue(n)
		return
	}
	ap, bp := l.pairFor(a), l.pairFor(b)
	rel := node.Attr().(graph.CmpAttr).Rel
	block := node.Block()
	resultMode := node.Mode()

	if isEqOrNe(rel) && l.isZeroConst(bp) {
		hiAsLu := l.g.NewNode(graph.OpConv, block, l.quad.Lu, []graph.Id{ap.Hi}, nil)
		or := l.g.NewNode(graph.OpOr, block, l.quad.Lu, []graph.Id{ap.Lo, hiAsLu}, nil)
		zero := l.constOf(l.quad.Lu, 0, block)
		cmp := l.g.NewNode(graph.OpCmp, block, resultMode, []graph.Id{or, zero}, graph.CmpAttr{Rel: rel})
		l.g.ReplaceBy(n, cmp)
		return
	}

	hiEq := l.g.NewNode(graph.OpCmp, block, resultMode, []graph.Id{ap.Hi, bp.Hi}, graph.CmpAttr{Rel: mode.RelEqual})

	var result graph.Id
	switch {
	case rel == mode.RelEqual:
		loEq := l.g.NewNode(graph.OpCmp, block, resultMode, []graph.Id{ap.Lo, bp.Lo}, graph.CmpAttr{Rel: mode.RelEqual})
		result = l.g.NewNode(graph.OpAnd, block, resultMode, []graph.Id{hiEq, loEq}, nil)
	case rel == notEqual():
		hiNe := l.g.NewNode(graph.OpCmp, block, resultMode, []graph.Id{ap.Hi, bp.Hi}, graph.CmpAttr{Rel: notEqual()})
		loNe := l.g.NewNode(graph.OpCmp, block, resultMode, []graph.Id{ap.Lo, bp.Lo}, graph.CmpAttr{Rel: notEqual()})
		result = l.g.NewNode(graph.OpOr, block, resultMode, []graph.Id{hiNe, loNe}, nil)
	default:
		hiStrict := l.g.NewNode(graph.OpCmp, block, resultMode, []graph.Id{ap.Hi, bp.Hi}, graph.CmpAttr{Rel: strictPart(rel)})
		loFull := l.g.NewNode(graph.OpCmp, block, resultMode, []graph.Id{ap.Lo, bp.Lo}, graph.CmpAttr{Rel: rel})
		tail := l.g.NewNode(graph.OpAnd, block, resultMode, []graph.Id{hiEq, loFull}, nil)
		result = l.g.NewNode(graph.OpOr, block, resultMode, []graph.Id{hiStrict, tail}, nil)
	}
	l.g.ReplaceBy(n, result)
}
