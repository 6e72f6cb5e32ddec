package graph

import "github.com/pkg/errors"

// Preds returns the control-flow-entry nodes of a Block: its inputs,
// positionally corresponding to Phi inputs in that block (§3).
func Preds(g *Graph, block Id) []Id {
	return g.Node(block).Ins()
}

// PredBlock returns the owning Block of the control-flow-entry node that is
// predecessor i of block.
func PredBlock(g *Graph, block Id, i int) Id {
	entry := Preds(g, block)[i]
	return g.Node(entry).Block()
}

// CheckPhiArity reports an error if phi's arity does not match its Block's
// predecessor arity — the one invariant spec.md §3/§8 singles out as a hard
// consistency error the verifier must report, never silently repair.
func CheckPhiArity(g *Graph, phi Id) error {
	n := g.Node(phi)
	if n.Op() != OpPhi {
		return errors.Errorf("graph: node %d is not a Phi", phi)
	}
	block := g.Node(n.Block())
	if n.Arity() != block.Arity() {
		return errors.Errorf("graph: phi %d has arity %d, block %d has arity %d",
			phi, n.Arity(), n.Block(), block.Arity())
	}
	return nil
}

// BlocksOf returns every Block node in the graph, in id order, by scanning
// the arena — used by analyses that need "all blocks" rather than only
// those reachable by a control-flow walk (e.g. before a reachability GC has
// run).
func BlocksOf(g *Graph) []Id {
	var blocks []Id
	for i := 0; i < g.NumNodes(); i++ {
		if g.Node(Id(i)).Op() == OpBlock {
			blocks = append(blocks, Id(i))
		}
	}
	return blocks
}
