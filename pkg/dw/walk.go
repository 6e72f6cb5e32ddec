package dw

import "github.com/oisee/irgraph/pkg/graph"

// prepare implements §4.2 step 1 + 2: allocate a pair entry for every
// doubleword-operational-mode node, reserve the graph's ResPhiList resource
// token, and substitute every Rotl with Or(Shl, Shr) (or the W/2 swap
// special case) up front so the lower walk only ever sees primitive
// shifts. No Proj chains or Proj->Block mappings are recorded; Projs are
// found through out-edges when needed.
func (l *lowerer) prepare() error {
	graph.AssureOuts(l.g)
	l.g.Reserve(graph.ResPhiList)
	// Reserve starts every Block's Phi list empty: Graph.NewNode attaches
	// only the Phis created from here on, not the ones already in the graph.

	n := l.g.NumNodes()
	for i := 0; i < n; i++ {
		id := graph.Id(i)
		node := l.g.Node(id)
		if node.Op() == graph.OpBad {
			continue
		}
		if l.isDoubleword(l.operationalMode(id)) {
			l.pairFor(id)
		}
	}

	// Substitute Rotl after the initial scan so newly created Or/Shl/Shr
	// nodes (appended to the arena) are picked up by the main lower walk,
	// which iterates node ids up to the graph's current NumNodes().
	for i := 0; i < n; i++ {
		id := graph.Id(i)
		node := l.g.Node(id)
		if node.Op() != graph.OpRotl {
			continue
		}
		if !l.isDoubleword(l.operationalMode(id)) {
			continue
		}
		if err := l.substituteRotl(id); err != nil {
			return err
		}
	}

	return nil
}

// lowerAll implements §4.2 step 3: a graph walk invoking the per-opcode
// function for every node (including ones created by prepare's Rotl
// substitution). Nodes whose inputs are not yet resolved are enqueued.
func (l *lowerer) lowerAll() {
	total := l.g.NumNodes()
	for i := 0; i < total; i++ {
		l.lowerOne(graph.Id(i))
		// substituteRotl and per-opcode handlers may append nodes; make
		// sure the walk also covers those.
		total = l.g.NumNodes()
	}
}

// drain implements §4.2 step 4: repeatedly pop from the work deque (FIFO,
// §5 "Ordering") and retry lowering until it empties. If a full pass over
// the deque makes no progress, every remaining node is permanently
// unresolvable — an internal invariant break (§7).
func (l *lowerer) drain() error {
	for len(l.deque) > 0 {
		progressed := false
		pending := l.deque
		l.deque = nil
		for _, id := range pending {
			l.onDeque[id] = false
			l.lowerOne(id)
			// A node that re-enqueues itself (e.g. a Phi still waiting on a
			// dummy-patched input, or a Store still waiting on its value's
			// pair) is not progress by itself; progress is a node that
			// stops needing another round.
			if !l.onDeque[id] {
				progressed = true
			}
		}
		if !progressed && len(l.deque) > 0 {
			return ErrStalledDrain
		}
	}
	return nil
}

// finalize implements §4.2 step 5: invalidate outs always, and invalidate
// dominance/loop info only if control flow was rewritten. No per-opcode
// rewrite sets rewroteControlFlow (Cmp is always lowered to a boolean
// tree), so in practice only outs are invalidated.
func (l *lowerer) finalize() {
	l.g.Free(graph.ResPhiList)
	graph.ClearOuts(l.g)
	if l.rewroteControlFlow {
		graph.InvalidateDominance(l.g)
		graph.InvalidateLoops(l.g)
	}
}

// lowerOne dispatches to the per-opcode rewrite function for n (§4.2's
// "Per-opcode policy" table). Opcodes with nothing doubleword about them
// are left untouched.
func (l *lowerer) lowerOne(n graph.Id) {
	node := l.g.Node(n)
	switch node.Op() {
	case graph.OpConst:
		l.lowerConst(n)
	case graph.OpLoad:
		l.lowerLoad(n)
	case graph.OpStore:
		l.lowerStore(n)
	case graph.OpAdd, graph.OpSub, graph.OpMul:
		l.lowerArithCall(n)
	case graph.OpDiv, graph.OpMod, graph.OpDivMod:
		l.lowerDivModCall(n)
	case graph.OpAnd, graph.OpOr, graph.OpEor:
		l.lowerBitwise(n)
	case graph.OpNot:
		l.lowerNot(n)
	case graph.OpMinus:
		l.lowerMinus(n)
	case graph.OpShl, graph.OpShr, graph.OpShrs:
		l.lowerShift(n)
	case graph.OpConv:
		l.lowerConv(n)
	case graph.OpCmp:
		l.lowerCmp(n)
	case graph.OpPhi:
		l.lowerPhi(n)
	case graph.OpMux:
		l.lowerMux(n)
	case graph.OpCall:
		l.lowerCall(n)
	case graph.OpReturn:
		l.lowerReturn(n)
	case graph.OpStart:
		l.lowerStart(n)
	case graph.OpProj:
		l.lowerProj(n)
	case graph.OpSel:
		l.lowerSel(n)
	case graph.OpCond:
		l.lowerCond(n)
	case graph.OpASM:
		l.checkASM(n)
	}
}
