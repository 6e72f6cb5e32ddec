package unroll

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

// induction is the recognized linear induction variable of a loop header,
// per §4.3 "Unroll factor selection": a Phi in the header whose outside-
// loop input is a static base and whose single in-loop input is an
// increment binop against another static base, compared in the header by
// a Cmp with an ordering relation.
type induction struct {
	phi         graph.Id
	baseStatic  bool
	base        int64
	step        int64
	limitStatic bool
	limit       int64
	rel         mode.Relation
}

// findLinearInduction looks for a Cmp in header with an ordering relation
// where one operand is a header Phi recognized as a linear induction
// variable by analyzePhi. Only Const static bases are recognized (the
// fuller "pure Load, pure Call result with non-aliased arguments, Conv of
// a base, Phi of bases" classes of §4.3 are not implemented — see
// DESIGN.md); a loop whose initial value or limit is one of those is
// treated the same as "induction recognized but not statically countable"
// (ok=true, baseStatic/limitStatic=false), which still permits a
// conservative (non-full) unroll. The step must be a Const; any other step
// is not recognized.
func findLinearInduction(g *graph.Graph, loop *graph.Loop, header graph.Id) (induction, bool) {
	cmp := findHeaderCmp(g, header)
	if cmp < 0 {
		return induction{}, false
	}
	cnode := g.Node(cmp)
	attr, ok := cnode.Attr().(graph.CmpAttr)
	if !ok || !isOrdering(attr.Rel) {
		return induction{}, false
	}
	a, b := cnode.In(0), cnode.In(1)
	for _, cand := range [2]graph.Id{a, b} {
		if g.Node(cand).Op() != graph.OpPhi || g.Node(cand).Block() != header {
			continue
		}
		other := a
		if cand == a {
			other = b
		}
		ind, ok := analyzePhi(g, loop, header, cand)
		if !ok {
			continue
		}
		ind.rel = attr.Rel
		if lconst, ok := asConst(g, other); ok {
			ind.limitStatic = true
			ind.limit = lconst
		}
		return ind, true
	}
	return induction{}, false
}

func isOrdering(rel mode.Relation) bool {
	switch rel {
	case mode.RelLess, mode.RelLess | mode.RelEqual, mode.RelGreater, mode.RelGreater | mode.RelEqual:
		return true
	}
	return false
}

// analyzePhi classifies phi (a Phi in header) as a linear induction
// variable: its input from outside the loop is the base, its single
// in-loop input must be an Add/Sub of phi itself against another operand
// (the step); §4.3 requires "exactly one increment binop" — a header Phi
// with more than one in-loop input (multiple back-edges) was already
// rejected by unrollLoop's backEdgePositions check before this is called.
func analyzePhi(g *graph.Graph, loop *graph.Loop, header, phi graph.Id) (induction, bool) {
	node := g.Node(phi)
	var baseIn, incIn graph.Id = -1, -1
	for i, v := range node.Ins() {
		predBlock := graph.PredBlock(g, header, i)
		if loop.Blocks.Has(predBlock) {
			if incIn >= 0 {
				return induction{}, false
			}
			incIn = v
		} else {
			baseIn = v
		}
	}
	if baseIn < 0 || incIn < 0 {
		return induction{}, false
	}
	incNode := g.Node(incIn)
	if incNode.Op() != graph.OpAdd && incNode.Op() != graph.OpSub {
		return induction{}, false
	}
	in0, in1 := incNode.In(0), incNode.In(1)
	var stepOperand graph.Id
	switch phi {
	case in0:
		stepOperand = in1
	case in1:
		if incNode.Op() == graph.OpSub {
			// phi - step is still linear but loses the simple sign
			// convention below; treat as unsupported to keep the
			// recognizer's step sign unambiguous.
			return induction{}, false
		}
		stepOperand = in0
	default:
		return induction{}, false
	}
	stepVal, ok := asConst(g, stepOperand)
	if !ok {
		return induction{}, false
	}
	if incNode.Op() == graph.OpSub {
		stepVal = -stepVal
	}

	ind := induction{phi: phi, step: stepVal}
	if baseVal, ok := asConst(g, baseIn); ok {
		ind.baseStatic = true
		ind.base = baseVal
	}
	return ind, true
}

func asConst(g *graph.Graph, n graph.Id) (int64, bool) {
	attr, ok := g.Node(n).Attr().(graph.ConstAttr)
	if !ok {
		return 0, false
	}
	return attr.Value.Int64(), true
}

func findHeaderCmp(g *graph.Graph, header graph.Id) graph.Id {
	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(graph.Id(i))
		if n.Op() == graph.OpCmp && n.Block() == header {
			return graph.Id(i)
		}
	}
	return -1
}

// tripCount returns the statically derivable iteration count of ind, or
// (0, false) if it cannot be determined from the recognized base/step/limit
// (e.g. the step would never reach the limit).
func (ind induction) tripCount() (int64, bool) {
	if !ind.baseStatic || !ind.limitStatic || ind.step == 0 {
		return 0, false
	}
	span := ind.limit - ind.base
	switch ind.rel {
	case mode.RelLess:
		if ind.step > 0 && span > 0 {
			n := span / ind.step
			if span%ind.step != 0 {
				n++
			}
			return n, true
		}
	case mode.RelLess | mode.RelEqual:
		if ind.step > 0 && span >= 0 {
			return span/ind.step + 1, true
		}
	case mode.RelGreater:
		if ind.step < 0 && span < 0 {
			n := span / ind.step
			if span%ind.step != 0 {
				n++
			}
			return n, true
		}
	case mode.RelGreater | mode.RelEqual:
		if ind.step < 0 && span <= 0 {
			return span/ind.step + 1, true
		}
	}
	return 0, false
}

// selectFactor implements §4.3's "Unroll factor selection": when the trip
// count is statically derivable, the largest power-of-two divisor not
// exceeding maxFactor (full unroll if that divisor equals the count
// itself); otherwise a conservative factor of 2 when budget allows.
// Unlike the libFirm source this is grounded on, find_suitable_factor's
// documented dead early return (§9 Open Questions) is NOT carried over —
// this path is live, per the SPEC_FULL.md Open Question decision.
func selectFactor(ind induction, recognized bool, maxFactor int) (factor int, fullUnroll bool) {
	if !recognized {
		return 0, false
	}
	if n, ok := ind.tripCount(); ok && n > 0 {
		f := largestPow2DivisorUpTo(n, maxFactor)
		if f == n {
			return int(f), true
		}
		if f >= 2 {
			return int(f), false
		}
		return 0, false
	}
	if maxFactor >= 2 {
		return 2, false
	}
	return 0, false
}

func largestPow2DivisorUpTo(n int64, maxFactor int) int64 {
	best := int64(1)
	for p := int64(1); p <= n && p <= int64(maxFactor); p *= 2 {
		if n%p == 0 {
			best = p
		}
	}
	return best
}

// hasOpaqueCall implements the safer is_aliased contract the SPEC_FULL.md
// §4.3 Open Question decision adopts: any Call reachable inside the loop
// whose CallAttr marks it Opaque (side effects not statically known)
// refuses unrolling of that loop outright, rather than conservatively
// aliasing every parameter.
func hasOpaqueCall(g *graph.Graph, loop *graph.Loop) bool {
	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(graph.Id(i))
		if n.Op() != graph.OpCall || !loop.Blocks.Has(n.Block()) {
			continue
		}
		if attr, ok := n.Attr().(graph.CallAttr); ok && attr.Opaque {
			return true
		}
	}
	return false
}
