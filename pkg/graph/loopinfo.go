package graph

import "golang.org/x/tools/container/intsets"

// BlockSet is the Id-set backing Loop.Blocks. Loop membership is tested far
// more often than it's enumerated, and loop bodies are usually a small,
// dense run of ids, which is exactly the case intsets.Sparse's bitmap
// representation is for.
type BlockSet struct {
	s intsets.Sparse
}

func newBlockSet(ids ...Id) *BlockSet {
	bs := &BlockSet{}
	for _, id := range ids {
		bs.s.Insert(int(id))
	}
	return bs
}

// Has reports whether id is a member of bs. A nil BlockSet has no members.
func (bs *BlockSet) Has(id Id) bool { return bs != nil && bs.s.Has(int(id)) }

// Insert adds id to bs.
func (bs *BlockSet) Insert(id Id) { bs.s.Insert(int(id)) }

// Len returns the number of members.
func (bs *BlockSet) Len() int {
	if bs == nil {
		return 0
	}
	return bs.s.Len()
}

// Elements returns bs's members in ascending order.
func (bs *BlockSet) Elements() []Id {
	if bs == nil {
		return nil
	}
	ints := bs.s.AppendTo(nil)
	out := make([]Id, len(ints))
	for i, v := range ints {
		out[i] = Id(v)
	}
	return out
}

// Loop is the tree-shaped object spec.md §3 describes: elements are either
// Blocks or nested Loops, and it has a unique header Block iff some Block
// inside dominates all other Blocks and sub-loops.
type Loop struct {
	Header   Id
	Blocks   *BlockSet // every block belonging to this loop, including nested loops' blocks
	Children []*Loop
	Parent   *Loop
}

// Elements returns the direct (non-recursive) Block members of l, i.e. the
// blocks that belong to l but to none of l's children.
func (l *Loop) Elements() []Id {
	var out []Id
	for _, b := range l.Blocks.Elements() {
		owned := true
		for _, c := range l.Children {
			if c.Blocks.Has(b) {
				owned = false
				break
			}
		}
		if owned {
			out = append(out, b)
		}
	}
	return out
}

// Size is the sum of Block out-counts across the loop tree (§4.3 "unroll
// factor selection" node-count heuristic): every block in l or a
// descendant, weighted by its number of nodes.
func (l *Loop) Size(g *Graph) int {
	n := 0
	for _, b := range l.Blocks.Elements() {
		n += countNodesInBlock(g, b)
	}
	return n
}

func countNodesInBlock(g *Graph, block Id) int {
	n := 0
	for i := 0; i < g.NumNodes(); i++ {
		if g.Node(Id(i)).Block() == block {
			n++
		}
	}
	return n
}

// LoopInfo is the computed loop forest: the top-level loops (those with no
// parent) plus a block->innermost-loop index.
type LoopInfo struct {
	Top   []*Loop
	ofBlk map[Id]*Loop
}

// LoopOf returns the innermost loop containing block, or nil if block is
// not in any loop.
func (li *LoopInfo) LoopOf(block Id) *Loop { return li.ofBlk[block] }

// ComputeLoops finds natural loops from back edges identified via the
// dominator tree (an edge p->h is a back edge iff h dominates p), merges
// back edges that share a header into one loop, and nests loops whose
// block sets are contained in another's. Marks PropConsistentLoops.
func ComputeLoops(g *Graph, dom *DomTree) *LoopInfo {
	headerLoops := map[Id]*Loop{}

	for _, b := range dom.RPO() {
		for _, p := range Preds(g, b) {
			predBlock := g.Node(p).Block()
			if !dom.Dominates(b, predBlock) {
				continue
			}
			// b is a loop header; p->b (via predBlock) is a back edge.
			l, ok := headerLoops[b]
			if !ok {
				l = &Loop{Header: b, Blocks: newBlockSet(b)}
				headerLoops[b] = l
			}
			collectLoopBody(g, l, predBlock)
		}
	}

	loops := make([]*Loop, 0, len(headerLoops))
	for _, l := range headerLoops {
		loops = append(loops, l)
	}

	// Nest: a loop A is a child of the smallest loop B != A whose block set
	// is a strict superset of A's.
	var top []*Loop
	for _, a := range loops {
		var parent *Loop
		for _, b := range loops {
			if a == b || !supersetOf(b.Blocks, a.Blocks) {
				continue
			}
			if parent == nil || b.Blocks.Len() < parent.Blocks.Len() {
				parent = b
			}
		}
		if parent == nil {
			top = append(top, a)
		} else {
			parent.Children = append(parent.Children, a)
			a.Parent = parent
		}
	}

	ofBlk := map[Id]*Loop{}
	for _, l := range loops {
		for _, b := range l.Blocks.Elements() {
			cur, ok := ofBlk[b]
			if !ok || l.Blocks.Len() < cur.Blocks.Len() {
				ofBlk[b] = l
			}
		}
	}

	g.SetProperty(PropConsistentLoops)
	return &LoopInfo{Top: top, ofBlk: ofBlk}
}

func collectLoopBody(g *Graph, l *Loop, from Id) {
	if l.Blocks.Has(from) {
		return
	}
	stack := []Id{from}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if l.Blocks.Has(b) {
			continue
		}
		l.Blocks.Insert(b)
		for _, p := range Preds(g, b) {
			pb := g.Node(p).Block()
			if !l.Blocks.Has(pb) {
				stack = append(stack, pb)
			}
		}
	}
}

func supersetOf(a, b *BlockSet) bool {
	if a.Len() <= b.Len() {
		return false
	}
	for _, k := range b.Elements() {
		if !a.Has(k) {
			return false
		}
	}
	return true
}

// FindHeader re-derives a loop's header the way §4.3 specifies: walk up
// the immediate-dominator chain from any loop-member Block while still
// inside the loop, then verify the candidate dominates every element.
// Returns invalidId if no such Block exists (the loop has no unique
// header — unrolling of it must be refused).
func FindHeader(g *Graph, dom *DomTree, l *Loop) Id {
	members := l.Blocks.Elements()
	if len(members) == 0 {
		return invalidId
	}
	candidate := members[0]
	for {
		idom := dom.IDom(candidate)
		if idom < 0 || !l.Blocks.Has(idom) {
			break
		}
		candidate = idom
	}
	for _, b := range members {
		if !dom.Dominates(candidate, b) {
			return invalidId
		}
	}
	return candidate
}

// InvalidateLoops clears the consistent-loops property.
func InvalidateLoops(g *Graph) {
	g.ClearProperty(PropConsistentLoops)
}
