package dw

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

// highHalfMode returns the half-width mode a doubleword value's high half
// takes: Ls if the original node's mode is signed (Hs), Lu if unsigned
// (Hu).
func (l *lowerer) highHalfMode(originalMode mode.Mode) mode.Mode {
	if originalMode.Equal(l.quad.Hs) {
		return l.quad.Ls
	}
	return l.quad.Lu
}

// lowerConst implements the Const row of §4.2's per-opcode policy table:
// low = convert to Lu; high = arithmetic shift right by W/2 then convert to
// the signed/unsigned high half mode.
func (l *lowerer) lowerConst(n graph.Id) {
	node := l.g.Node(n)
	if !l.isDoubleword(node.Mode()) {
		return
	}
	attr, ok := node.Attr().(graph.ConstAttr)
	if !ok {
		return
	}
	v := attr.Value
	hm := l.highHalfMode(node.Mode())
	lo := v.SplitLow(l.quad)
	hi := v.SplitHigh(l.quad, hm)

	loId := l.g.NewNode(graph.OpConst, node.Block(), l.quad.Lu, nil, graph.ConstAttr{Value: lo})
	hiId := l.g.NewNode(graph.OpConst, node.Block(), hm, nil, graph.ConstAttr{Value: hi})
	l.setPair(n, loId, hiId)
}
