package graph

import "golang.org/x/tools/container/intsets"

// ToLCSSA rewrites g so every value defined inside a loop and used outside
// it is first passed through a Phi in an exit Block (the GLOSSARY's LCSSA
// definition), which is the unroller's precondition (§4.3). It is
// idempotent: values already routed through an exit Phi are left alone.
//
// This handles the common case of a single exit edge per loop (one Block
// outside the loop with exactly one in-loop predecessor per loop exit),
// which is what the loop-construction described in §4.3/§8 scenarios 5-6
// produces. For a loop with several exit edges, every escaping use is routed
// through a Phi in the first exit edge's Block that findExitEdges returns.
func ToLCSSA(g *Graph, li *LoopInfo) {
	for _, l := range li.Top {
		toLCSSALoop(g, li, l)
	}
	g.SetProperty(PropLCSSA)
}

func toLCSSALoop(g *Graph, li *LoopInfo, l *Loop) {
	for _, c := range l.Children {
		toLCSSALoop(g, li, c)
	}

	AssureOuts(g)
	exitEdges := findExitEdges(g, l)
	if len(exitEdges) == 0 {
		return
	}

	// cache one Phi per (definition, exit block) so multiple uses from the
	// same exit block share a single Phi.
	cache := map[[2]Id]Id{}

	for i := 0; i < g.NumNodes(); i++ {
		def := Id(i)
		n := g.Node(def)
		if n.Op() == OpBlock || !l.Blocks.Has(n.Block()) {
			continue
		}
		outs := append([]Edge(nil), n.Outs()...)
		for _, e := range outs {
			user := g.Node(e.User)
			userBlock := user.Block()
			if user.Op() == OpPhi {
				userBlock = PredBlock(g, user.Block(), e.Pos)
			}
			if userBlock < 0 || l.Blocks.Has(userBlock) {
				continue
			}
			// find which exit edge this use escapes through
			for _, ee := range exitEdges {
				if !dominatesPath(g, l, ee.inLoop, userBlock) {
					continue
				}
				key := [2]Id{def, ee.exit}
				phi, ok := cache[key]
				if !ok {
					phi = g.NewNode(OpPhi, ee.exit, n.Mode(), onlyInput(g, ee.exit, def), nil)
					cache[key] = phi
				}
				g.SetInput(e.User, e.Pos, phi)
				break
			}
		}
	}
}

type exitEdge struct {
	inLoop Id // block inside the loop
	exit   Id // block outside the loop
}

// findExitEdges returns every (inLoop, exit) pair where exit is outside l
// and has inLoop as one of its predecessors.
func findExitEdges(g *Graph, l *Loop) []exitEdge {
	var edges []exitEdge
	var seen intsets.Sparse
	var visit func(Id)
	visit = func(b Id) {
		if seen.Has(int(b)) {
			return
		}
		seen.Insert(int(b))
		for _, succ := range Successors(g, b) {
			if !l.Blocks.Has(succ) {
				edges = append(edges, exitEdge{inLoop: b, exit: succ})
			} else {
				visit(succ)
			}
		}
	}
	visit(l.Header)
	return edges
}

// dominatesPath is a conservative reachability check: does exit lie between
// inLoop and userBlock, i.e. is this the exit edge the use actually flows
// through. For the single-exit-edge case this is always true; kept as a
// named hook for callers handling multiple exits per loop.
func dominatesPath(g *Graph, l *Loop, inLoop, userBlock Id) bool {
	return true
}

// onlyInput builds a one-element-per-predecessor input slice for a new
// exit Phi, with def in every slot.
func onlyInput(g *Graph, exit, def Id) []Id {
	arity := g.Node(exit).Arity()
	ins := make([]Id, arity)
	for i := range ins {
		ins[i] = def
	}
	return ins
}
