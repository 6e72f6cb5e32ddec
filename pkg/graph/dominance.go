package graph

import "golang.org/x/tools/container/intsets"

// DomTree is the immediate-dominator relation over a graph's Blocks,
// computed by the standard iterative (Cooper/Harvey/Kennedy) fixpoint
// algorithm rather than Lengauer-Tarjan — simpler, and fast enough at the
// scale this core operates on (§1 non-goals: not production quality).
type DomTree struct {
	idom     map[Id]Id
	order    []Id   // reverse postorder, the order the fixpoint visits Blocks in
	rpoIndex map[Id]int
}

// ComputeDominance builds the dominator tree of g and marks
// PropConsistentDominance. Any control-flow-mutating pass must
// InvalidateDominance when it rewires edges.
func ComputeDominance(g *Graph) *DomTree {
	var rpo []Id
	var seen intsets.Sparse
	var visit func(Id)
	visit = func(b Id) {
		if b < 0 || seen.Has(int(b)) {
			return
		}
		seen.Insert(int(b))
		for _, succ := range successors(g, b) {
			visit(succ)
		}
		rpo = append(rpo, b)
	}
	visit(g.Node(g.Start()).Block())
	// reverse to get reverse-postorder
	for i, j := 0, len(rpo)-1; i < j; i, j = i+1, j-1 {
		rpo[i], rpo[j] = rpo[j], rpo[i]
	}

	idx := map[Id]int{}
	for i, b := range rpo {
		idx[b] = i
	}

	idom := map[Id]Id{}
	entry := rpo[0]
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == entry {
				continue
			}
			var newIdom Id = invalidId
			for _, p := range Preds(g, b) {
				predBlock := g.Node(p).Block()
				if _, ok := idom[predBlock]; !ok {
					continue
				}
				if newIdom < 0 {
					newIdom = predBlock
					continue
				}
				newIdom = intersect(idom, idx, newIdom, predBlock)
			}
			if newIdom >= 0 && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	g.SetProperty(PropConsistentDominance)
	return &DomTree{idom: idom, order: rpo, rpoIndex: idx}
}

func intersect(idom map[Id]Id, idx map[Id]int, a, b Id) Id {
	for a != b {
		for idx[a] > idx[b] {
			a = idom[a]
		}
		for idx[b] > idx[a] {
			b = idom[b]
		}
	}
	return a
}

// successors returns the Blocks directly reachable from b's control-flow
// output users (the inverse of Preds).
func successors(g *Graph, b Id) []Id {
	return Successors(g, b)
}

// Successors returns every Block directly reachable from block's
// control-flow outputs, looking through any chain of intervening
// control-flow-producing nodes (Cond, then Proj of Cond; a plain Proj for
// an unconditional jump) rather than assuming exactly one such node
// between a Block and its successor Block.
func Successors(g *Graph, block Id) []Id {
	AssureOuts(g)
	var out []Id
	var seen intsets.Sparse
	var walk func(Id)
	walk = func(n Id) {
		for _, e := range g.Node(n).Outs() {
			if seen.Has(int(e.User)) {
				continue
			}
			seen.Insert(int(e.User))
			if g.Node(e.User).Op() == OpBlock {
				out = append(out, e.User)
				continue
			}
			walk(e.User)
		}
	}
	walk(block)
	return out
}

// IDom returns b's immediate dominator, or invalidId if b is unreachable
// or is the entry block.
func (d *DomTree) IDom(b Id) Id {
	idom, ok := d.idom[b]
	if !ok || idom == b {
		return invalidId
	}
	return idom
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (d *DomTree) Dominates(a, b Id) bool {
	for cur := b; ; {
		if cur == a {
			return true
		}
		idom, ok := d.idom[cur]
		if !ok || idom == cur {
			return cur == a
		}
		cur = idom
	}
}

// RPO returns the reverse-postorder block sequence the tree was built from.
func (d *DomTree) RPO() []Id { return d.order }

// InvalidateDominance clears the consistent-dominance property; callers
// that mutate control flow must call this (spec.md §4.2 Finalize, §4.3).
func InvalidateDominance(g *Graph) {
	g.ClearProperty(PropConsistentDominance)
}
