package dw

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

// dummyFor returns a single placeholder Const of mode m, shared across
// every Phi a lowering pass creates, so a not-yet-patched Phi input slot
// holds something well-formed instead of an invalid id (§4.2: "a dummy is
// used as placeholder" for Phi, deferred until the real value's pair is
// ready).
func (l *lowerer) dummyFor(m mode.Mode) graph.Id {
	if id, ok := l.dummies[m]; ok {
		return id
	}
	start := l.findStart()
	id := l.g.NewNode(graph.OpConst, l.g.Node(start).Block(), m, nil, graph.ConstAttr{Value: mode.Int(m, 0)})
	l.dummies[m] = id
	return id
}

// lowerPhi implements the Phi row: one new Phi per half, created with dummy
// inputs at every position up front (this is what lets the pair for n be
// marked ready immediately, breaking the cycle a loop-carried doubleword
// Phi would otherwise create), then patched position by position as each
// original input's own pair becomes ready.
func (l *lowerer) lowerPhi(n graph.Id) {
	opMode := l.operationalMode(n)
	if !l.isDoubleword(opMode) {
		return
	}
	if !l.pairReady(n) {
		node := l.g.Node(n)
		block := node.Block()
		hm := l.highHalfMode(opMode)
		arity := node.Arity()
		loIns := make([]graph.Id, arity)
		hiIns := make([]graph.Id, arity)
		dLo, dHi := l.dummyFor(l.quad.Lu), l.dummyFor(hm)
		for i := range loIns {
			loIns[i] = dLo
			hiIns[i] = dHi
		}
		loPhi := l.g.NewNode(graph.OpPhi, block, l.quad.Lu, loIns, nil)
		hiPhi := l.g.NewNode(graph.OpPhi, block, hm, hiIns, nil)
		l.setPair(n, loPhi, hiPhi)
	}
	l.patchPhiInputs(n)
}

// patchPhiInputs fills in every input slot of n's lo/hi Phis whose source
// value's pair has become ready since the last visit, and re-enqueues n if
// any slot is still waiting.
func (l *lowerer) patchPhiInputs(n graph.Id) {
	node := l.g.Node(n)
	pp := l.pairFor(n)
	dLo := l.g.Node(pp.Lo)
	allReady := true
	for i, v := range node.Ins() {
		if dLo.In(i) != l.dummies[l.quad.Lu] {
			continue // already patched
		}
		if !l.pairReady(v) {
			allReady = false
			continue
		}
		vp := l.pairFor(v)
		l.g.SetInput(pp.Lo, i, vp.Lo)
		l.g.SetInput(pp.Hi, i, vp.Hi)
	}
	if !allReady {
		l.enqueue(n)
	}
}

// lowerMux implements the Mux row: both arms and the result split the same
// way a doubleword value always does, with a single shared selector feeding
// two muxes (one per half).
func (l *lowerer) lowerMux(n graph.Id) {
	opMode := l.operationalMode(n)
	if !l.isDoubleword(opMode) {
		return
	}
	if l.pairReady(n) {
		return
	}
	node := l.g.Node(n)
	sel, a, b := node.In(0), node.In(1), node.In(2)
	if !l.pairReady(a) || !l.pairReady(b) {
		l.enqueue(n)
		return
	}
	ap, bp := l.pairFor(a), l.pairFor(b)
	block := node.Block()
	hm := l.highHalfMode(opMode)
	lo := l.g.NewNode(graph.OpMux, block, l.quad.Lu, []graph.Id{sel, ap.Lo, bp.Lo}, nil)
	hi := l.g.NewNode(graph.OpMux, block, hm, []graph.Id{sel, ap.Hi, bp.Hi}, nil)
	l.setPair(n, lo, hi)
}
