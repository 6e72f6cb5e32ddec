package unroll

import (
	"sort"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

// duplicator performs the §4.3 "Per-iteration duplication" of one loop,
// factor-1 times. Each iteration clones the loop's Blocks and nodes fresh
// from the originals (never from a previous copy), pairing original with
// copy through the link resource token (here backed by a per-iteration Go
// map in addition to Graph.SetLink, since the chaining logic below needs
// to read a copy's partner after the next iteration has already
// overwritten the link slot with its own pairing).
type duplicator struct {
	g       *graph.Graph
	loop    *graph.Loop
	header  graph.Id
	backPos int

	blocks []graph.Id
	nodes  []graph.Id
}

// run performs factor-1 duplications of the loop body.
func (d *duplicator) run(factor int) {
	d.collectMembers()

	for j := 1; j < factor; j++ {
		copyOf := d.cloneOnce()
		d.patchGeneric(copyOf)
		d.rewireHeader(copyOf)
		d.extendExitUses(copyOf)
		d.extendKeepAlive(copyOf)
	}
}

// collectMembers snapshots the loop's Block and non-Block node ids once,
// in id order (§5 "deterministic... pre-order by input index" — id order
// is this pass's analogue for a flat per-iteration clone pass).
func (d *duplicator) collectMembers() {
	d.blocks = append(d.blocks, d.loop.Blocks.Elements()...)
	sort.Slice(d.blocks, func(i, j int) bool { return d.blocks[i] < d.blocks[j] })

	g := d.g
	for i := 0; i < g.NumNodes(); i++ {
		id := graph.Id(i)
		n := g.Node(id)
		if n.Op() != graph.OpBlock && d.loop.Blocks.Has(n.Block()) {
			d.nodes = append(d.nodes, id)
		}
	}
}

// cloneOnce implements §4.3 step 1 ("Duplicate"): clone every Block in the
// loop and every node owned by one of those Blocks, linking original to
// copy. Inputs are copied verbatim from the original at this point;
// patchGeneric fixes them up afterward once every clone exists.
func (d *duplicator) cloneOnce() map[graph.Id]graph.Id {
	g := d.g
	copyOf := make(map[graph.Id]graph.Id, len(d.blocks)+len(d.nodes))

	for _, b := range d.blocks {
		bn := g.Node(b)
		nb := g.NewNode(graph.OpBlock, -1, mode.X, append([]graph.Id(nil), bn.Ins()...), nil)
		g.SetLink(b, nb)
		copyOf[b] = nb
	}
	for _, n := range d.nodes {
		nn := g.Node(n)
		newBlock := copyOf[nn.Block()]
		id := g.NewNode(nn.Op(), newBlock, nn.Mode(), append([]graph.Id(nil), nn.Ins()...), nn.Attr())
		g.SetLink(n, id)
		copyOf[n] = id
	}
	return copyOf
}

// patchGeneric implements §4.3's "Otherwise: replace each input that has a
// copy by that copy" rule, applied to every cloned Block and node.
func (d *duplicator) patchGeneric(copyOf map[graph.Id]graph.Id) {
	g := d.g
	for _, b := range d.blocks {
		patchIns(g, copyOf[b], copyOf)
	}
	for _, n := range d.nodes {
		patchIns(g, copyOf[n], copyOf)
	}
}

func patchIns(g *graph.Graph, n graph.Id, copyOf map[graph.Id]graph.Id) {
	ins := append([]graph.Id(nil), g.Node(n).Ins()...)
	for i, v := range ins {
		if cv, ok := copyOf[v]; ok {
			g.SetInput(n, i, cv)
		}
	}
}

// rewireHeader implements the header-specific partition of §4.3: the
// original header's in-loop ("back-edge") predecessor is redirected so
// this iteration's copy becomes the new link in the chain (preheader ->
// header -> body -> header_copy1 -> body_copy1 -> header_copy2 -> ... ->
// back to header), and the copy's own header/Phis receive the value that
// used to flow along that edge, so they act as the entry point for this
// iteration's body. This keeps each copy's header a faithful clone of the
// loop test (the general, non-full-unroll case duplicates the exit test
// itself, so a partially-unrolled loop still exits correctly on any
// iteration); fullyUnrollCleanup removes the chain's final link when the
// trip count is exact.
func (d *duplicator) rewireHeader(copyOf map[graph.Id]graph.Id) graph.Id {
	g := d.g
	newHeader := copyOf[d.header]

	backSrc := g.Node(d.header).In(d.backPos)
	if cv, ok := copyOf[backSrc]; ok {
		g.SetInput(d.header, d.backPos, cv)
	}
	g.SetInput(newHeader, d.backPos, backSrc)

	for _, phi := range headerPhis(g, d.header) {
		cphi, ok := copyOf[phi]
		if !ok {
			continue
		}
		backVal := g.Node(phi).In(d.backPos)
		g.SetInput(cphi, d.backPos, backVal)
		if cv, ok := copyOf[backVal]; ok {
			g.SetInput(phi, d.backPos, cv)
		}
	}
	return newHeader
}

// extendExitUses implements "If its original n has a use in an out-of-loop
// Block, append the copy as an extra predecessor of that Block's input
// chain; for Phis of that Block, replicate the corresponding input
// pointing to the new producer." It is run once per iteration, scanning
// the current (pre-this-iteration) exit edges so a control-flow-producing
// loop node that feeds an outside Block gains one more incoming edge per
// copy, with every Phi of that Block growing an input to match.
func (d *duplicator) extendExitUses(copyOf map[graph.Id]graph.Id) {
	g := d.g
	for _, exitBlock := range outOfLoopBlocks(g, d.loop) {
		bn := g.Node(exitBlock)
		for i, p := range append([]graph.Id(nil), bn.Ins()...) {
			if !d.loop.Blocks.Has(g.Node(p).Block()) {
				continue
			}
			cp, ok := copyOf[p]
			if !ok {
				continue
			}
			g.AppendInput(exitBlock, cp)
			for _, phi := range phisOfBlock(g, exitBlock) {
				orig := g.Node(phi).In(i)
				newVal := orig
				if cv, ok := copyOf[orig]; ok {
					newVal = cv
				}
				g.AppendInput(phi, newVal)
			}
		}
	}
}

// extendKeepAlive implements "If n has a use in the End node's keep-alive
// list, add the copy to End's keep-alive": every loop-owned node currently
// wired directly into End gets its copy appended as an additional End
// input, since End's arity is not Phi-constrained.
func (d *duplicator) extendKeepAlive(copyOf map[graph.Id]graph.Id) {
	g := d.g
	end := g.End()
	if end < 0 {
		return
	}
	for _, v := range append([]graph.Id(nil), g.Node(end).Ins()...) {
		if cv, ok := copyOf[v]; ok {
			g.AppendInput(end, cv)
		}
	}
}

// headerPhis returns the Phi nodes attached to block by a direct scan
// (used instead of Graph.PhisOf since this pass does not reserve
// ResPhiList — it only needs link, per §4.3's precondition list).
func headerPhis(g *graph.Graph, block graph.Id) []graph.Id {
	return phisOfBlock(g, block)
}

func phisOfBlock(g *graph.Graph, block graph.Id) []graph.Id {
	var out []graph.Id
	for i := 0; i < g.NumNodes(); i++ {
		id := graph.Id(i)
		n := g.Node(id)
		if n.Op() == graph.OpPhi && n.Block() == block {
			out = append(out, id)
		}
	}
	return out
}

// outOfLoopBlocks returns every Block node not in loop whose Ins() include
// at least one entry produced inside the loop, i.e. every exit target.
func outOfLoopBlocks(g *graph.Graph, loop *graph.Loop) []graph.Id {
	var out []graph.Id
	for i := 0; i < g.NumNodes(); i++ {
		id := graph.Id(i)
		n := g.Node(id)
		if n.Op() != graph.OpBlock || loop.Blocks.Has(id) {
			continue
		}
		for _, p := range n.Ins() {
			if loop.Blocks.Has(g.Node(p).Block()) {
				out = append(out, id)
				break
			}
		}
	}
	return out
}
