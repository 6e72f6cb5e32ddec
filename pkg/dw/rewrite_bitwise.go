package dw

import "github.com/oisee/irgraph/pkg/graph"

// lowerBitwise implements the And/Or/Eor row: bitwise ops don't carry
// between halves, so each becomes two same-opcode half-width ops.
func (l *lowerer) lowerBitwise(n graph.Id) {
	if !l.isDoubleword(l.operationalMode(n)) {
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
	block := node.Block()
	hm := l.highHalfMode(l.operationalMode(n))
	lo := l.g.NewNode(node.Op(), block, l.quad.Lu, []graph.Id{ap.Lo, bp.Lo}, nil)
	hi := l.g.NewNode(node.Op(), block, hm, []graph.Id{ap.Hi, bp.Hi}, nil)
	l.setPair(n, lo, hi)
}

// lowerNot implements the Not row: bitwise complement distributes over the
// half split same as And/Or/Eor.
func (l *lowerer) lowerNot(n graph.Id) {
	if !l.isDoubleword(l.operationalMode(n)) {
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
	block := node.Block()
	hm := l.highHalfMode(l.operationalMode(n))
	lo := l.g.NewNode(graph.OpNot, block, l.quad.Lu, []graph.Id{ap.Lo}, nil)
	hi := l.g.NewNode(graph.OpNot, block, hm, []graph.Id{ap.Hi}, nil)
	l.setPair(n, lo, hi)
}
