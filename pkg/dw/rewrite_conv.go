package dw

import "github.com/oisee/irgraph/pkg/graph"

// lowerConv implements the Conv row. Three shapes appear: narrowing a
// doubleword value down to (or below) half width just keeps its low half;
// reinterpreting Hs<->Hu at the same width leaves the low half untouched
// and reconverts the high half's sign; widening a narrower value up to
// doubleword width builds the low half directly and fills the high half
// with either zero (unsigned source) or the source's replicated sign bit
// (signed source, via the same "shift right by width-1" trick the
// constant-shift special case uses for Shrs's sign fill).
func (l *lowerer) lowerConv(n graph.Id) {
	node := l.g.Node(n)
	x := node.In(0)
	outMode := node.Mode()
	inMode := l.g.Node(x).Mode()
	outDW := l.isDoubleword(outMode)
	inDW := l.isDoubleword(inMode)
	if !outDW && !inDW {
		return
	}
	if l.pairReady(n) {
		return
	}
	block := node.Block()

	switch {
	case inDW && outDW:
		if !l.pairReady(x) {
			l.enqueue(n)
			return
		}
		xp := l.pairFor(x)
		hm := l.highHalfMode(outMode)
		hi := l.g.NewNode(graph.OpConv, block, hm, []graph.Id{xp.Hi}, nil)
		l.setPair(n, xp.Lo, hi)

	case inDW && !outDW:
		if !l.pairReady(x) {
			l.enqueue(n)
			return
		}
		xp := l.pairFor(x)
		result := l.g.NewNode(graph.OpConv, block, outMode, []graph.Id{xp.Lo}, nil)
		l.g.ReplaceBy(n, result)

	default: // !inDW && outDW
		hm := l.highHalfMode(outMode)
		lo := l.g.NewNode(graph.OpConv, block, l.quad.Lu, []graph.Id{x}, nil)
		var hi graph.Id
		if inMode.Signed() {
			signBits := l.g.NewNode(graph.OpShrs, block, inMode, []graph.Id{x, l.constOf(inMode, int64(inMode.Bits())-1, block)}, nil)
			hi = l.g.NewNode(graph.OpConv, block, hm, []graph.Id{signBits}, nil)
		} else {
			hi = l.constOf(hm, 0, block)
		}
		l.setPair(n, lo, hi)
	}
}
