package unroll

import "github.com/oisee/irgraph/pkg/graph"

// fullyUnrollCleanup implements §4.3's "Full unrolling cleanup": once the
// chain of factor-1 copies has been built by duplicator.run and the
// recognized trip count exactly equals factor, the loop's final back-edge
// (now pointing from the last copy's header back to the original header,
// closing the chain for another round that will never happen) is severed
// and redirected to the after-loop Block instead, and that predecessor is
// dropped from the original header so it stops looking like a loop at all.
func fullyUnrollCleanup(g *graph.Graph, loop *graph.Loop, header graph.Id, backPos int) {
	afterLoop := exitSuccessor(g, loop, header)
	if afterLoop < 0 {
		return
	}

	tailCtrl := g.Node(header).In(backPos)
	pos := g.AppendInput(afterLoop, tailCtrl)

	for _, phi := range phisOfBlock(g, afterLoop) {
		def := g.Node(phi).In(0)
		newVal := def
		if dn := g.Node(def); dn.Op() == graph.OpPhi && dn.Block() == header {
			newVal = dn.In(backPos)
		}
		// AppendInput grew every Phi's arity identically when the block
		// gained its predecessor above only if Phi already had the block's
		// prior arity; align explicitly by index rather than assuming.
		for len(g.Node(phi).Ins()) <= pos {
			g.AppendInput(phi, newVal)
		}
	}

	g.RemoveInput(header, backPos)
	for _, phi := range headerPhis(g, header) {
		g.RemoveInput(phi, backPos)
	}
}

// exitSuccessor returns the Block reachable from header's control-flow
// outputs that does not belong to loop — the "after-loop Block (the
// control successor of the header not inside the loop)" of §4.3.
func exitSuccessor(g *graph.Graph, loop *graph.Loop, header graph.Id) graph.Id {
	for _, c := range graph.Successors(g, header) {
		if !loop.Blocks.Has(c) {
			return c
		}
	}
	return -1
}
