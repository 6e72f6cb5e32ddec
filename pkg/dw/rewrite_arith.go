package dw

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

// lowerArithCall implements the Add/Sub/Mul row of §4.2's policy table: a
// doubleword add/sub/mul cannot be split per-half (the carry/borrow/partial
// products cross the half boundary), so it is replaced by a call to a
// runtime intrinsic that takes both operands' low/high halves and returns
// the result's low/high halves as two consecutive Proj results.
func (l *lowerer) lowerArithCall(n graph.Id) {
	opMode := l.operationalMode(n)
	if !l.isDoubleword(opMode) {
		return
	}
	if l.pairReady(n) {
		return
	}
	node := l.g.Node(n)
	a, b := node.In(0), node.In(1)
	if !l.pairReady(a) || !l.pairReady(b) {
		l.enqueue(n)
		return
	}
	ap, bp := l.pairFor(a), l.pairFor(b)
	entity := resolveIntrinsic(l.params.Intrinsics, node.Op(), opMode, opMode)
	mem := l.anchorMem()
	block := node.Block()

	call := l.g.NewNode(graph.OpCall, block, mode.T, []graph.Id{mem, ap.Lo, ap.Hi, bp.Lo, bp.Hi}, graph.CallAttr{Callee: entity})
	newMem := l.g.NewNode(graph.OpProj, block, mode.M, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjMem})
	l.curMem = newMem
	lo := l.g.NewNode(graph.OpProj, block, l.quad.Lu, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjRes})
	hm := l.highHalfMode(opMode)
	hi := l.g.NewNode(graph.OpProj, block, hm, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjRes + 1})
	l.setPair(n, lo, hi)
}

// lowerMinus replaces a doubleword negation with the same intrinsic-call
// machinery as Add/Sub/Mul: two's-complement negation carries out of the
// low half into the high half just like subtraction does, so it cannot be
// done per-half either.
func (l *lowerer) lowerMinus(n graph.Id) {
	opMode := l.operationalMode(n)
	if !l.isDoubleword(opMode) {
		return
	}
	if l.pairReady(n) {
		return
	}
	node := l.g.Node(n)
	a := node.In(0)
	if !l.pairReady(a) {
		l.enqueue(n)
		return
	}
	ap := l.pairFor(a)
	entity := resolveIntrinsic(l.params.Intrinsics, graph.OpMinus, opMode, opMode)
	mem := l.anchorMem()
	block := node.Block()

	call := l.g.NewNode(graph.OpCall, block, mode.T, []graph.Id{mem, ap.Lo, ap.Hi}, graph.CallAttr{Callee: entity})
	newMem := l.g.NewNode(graph.OpProj, block, mode.M, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjMem})
	l.curMem = newMem
	lo := l.g.NewNode(graph.OpProj, block, l.quad.Lu, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjRes})
	hi := l.g.NewNode(graph.OpProj, block, l.highHalfMode(opMode), []graph.Id{call}, graph.ProjAttr{Num: graph.ProjRes + 1})
	l.setPair(n, lo, hi)
}

// lowerDivModCall implements the Div/Mod/DivMod row: routed through a
// memory-effectful intrinsic call (libFirm's "memory routed" phrasing)
// since division's runtime implementation may trap, unlike the arithmetic
// ops above. DivMod's call yields four Proj results: quotient low/high
// then remainder low/high; Div and Mod each take only the half they need.
func (l *lowerer) lowerDivModCall(n graph.Id) {
	node := l.g.Node(n)
	opMode := l.operationalMode(n)
	if !l.isDoubleword(opMode) {
		return
	}
	if l.pairReady(n) {
		return
	}
	a, b := node.In(0), node.In(1)
	if !l.pairReady(a) || !l.pairReady(b) {
		l.enqueue(n)
		return
	}
	ap, bp := l.pairFor(a), l.pairFor(b)
	entity := resolveIntrinsic(l.params.Intrinsics, node.Op(), opMode, opMode)
	mem := l.anchorMem()
	block := node.Block()
	hm := l.highHalfMode(opMode)

	call := l.g.NewNode(graph.OpCall, block, mode.T, []graph.Id{mem, ap.Lo, ap.Hi, bp.Lo, bp.Hi}, graph.CallAttr{Callee: entity})
	newMem := l.g.NewNode(graph.OpProj, block, mode.M, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjMem})
	l.curMem = newMem

	quoLo := l.g.NewNode(graph.OpProj, block, l.quad.Lu, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjRes})
	quoHi := l.g.NewNode(graph.OpProj, block, hm, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjRes + 1})
	remLo := l.g.NewNode(graph.OpProj, block, l.quad.Lu, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjRes + 2})
	remHi := l.g.NewNode(graph.OpProj, block, hm, []graph.Id{call}, graph.ProjAttr{Num: graph.ProjRes + 3})

	switch node.Op() {
	case graph.OpDiv:
		l.setPair(n, quoLo, quoHi)
	case graph.OpMod:
		l.setPair(n, remLo, remHi)
	case graph.OpDivMod:
		if quoProj := findProjByNum(l.g, n, 0); quoProj >= 0 {
			l.setPair(quoProj, quoLo, quoHi)
		}
		if remProj := findProjByNum(l.g, n, 1); remProj >= 0 {
			l.setPair(remProj, remLo, remHi)
		}
	}
}
