// Package unroll implements the LCSSA-based loop-unrolling pass of spec.md
// §4.3: it duplicates an innermost loop's body factor-1 times, rewiring
// Phis and back-edges through the link resource token, and fully unwinds
// the loop out of existence when the trip count is statically derivable.
package unroll

import (
	"go.uber.org/zap"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/pkg/errors"
)

// SkipReason is the typed precondition-failure taxonomy of spec.md §7:
// "the pass returns without mutation for that loop" is an expected, non-
// fatal outcome, not a Go error.
type SkipReason uint8

const (
	SkipNone SkipReason = iota
	SkipNoHeader
	SkipMultipleBackedges
	SkipTooLarge
	SkipNonlinearInduction
	SkipAliasing
	SkipNoBudget
)

func (r SkipReason) String() string {
	switch r {
	case SkipNoHeader:
		return "no unique header"
	case SkipMultipleBackedges:
		return "more than one back-edge path"
	case SkipTooLarge:
		return "loop exceeds the size cap"
	case SkipNonlinearInduction:
		return "induction is not linear"
	case SkipAliasing:
		return "an opaque call is reachable from the loop"
	case SkipNoBudget:
		return "no power-of-two factor of at least 2 within the max factor"
	default:
		return "none"
	}
}

// Sentinel errors matching the SkipReason taxonomy, for a caller that wants
// a Go error instead of the typed (unrolled, reason) result this package's
// own API returns. Nothing in this module returns or wraps them.
var (
	ErrNoHeader            = errors.New("unroll: loop has no unique header")
	ErrMultipleBackedges   = errors.New("unroll: loop has more than one back-edge path")
	ErrNonlinearInduction  = errors.New("unroll: induction is not linear or aliases a store")
	ErrAliasing            = errors.New("unroll: an opaque call reachable from the loop blocks alias analysis")
)

// Params configures unroll_loops (§6 pass entry point).
type Params struct {
	MaxFactor int
	MaxSize   int
	Log       *zap.SugaredLogger
}

// LoopOutcome records what happened to one candidate loop.
type LoopOutcome struct {
	Header      graph.Id
	Unrolled    bool
	Factor      int
	FullyUnrolled bool
	Reason      SkipReason
}

// Report is the driver-visible summary of one unroll_loops run: spec.md §6
// names "emits a debug counter of loops unrolled".
type Report struct {
	Loops []LoopOutcome
}

// LoopsUnrolled is the "debug counter of loops unrolled" spec.md §6 names.
func (r *Report) LoopsUnrolled() int {
	n := 0
	for _, o := range r.Loops {
		if o.Unrolled {
			n++
		}
	}
	return n
}

// UnrollLoops runs unroll_loops over g (§6): it (re-)computes dominance and
// loop info, brings g to LCSSA form if it is not already, then attempts to
// unroll every innermost loop up to maxFactor copies, each bounded by
// maxSize nodes. It mutates g in place and always clears
// PropConsistentDominance/PropConsistentLoops on return, since any
// successful unroll rewires control flow (§6 "Backend contract").
func UnrollLoops(g *graph.Graph, params Params) *Report {
	report := &Report{}

	dom := graph.ComputeDominance(g)
	li := graph.ComputeLoops(g, dom)
	if !g.HasProperty(graph.PropLCSSA) {
		graph.ToLCSSA(g, li)
	}

	g.Reserve(graph.ResLink)
	defer g.Free(graph.ResLink)

	var innermost []*graph.Loop
	var collect func(*graph.Loop)
	collect = func(l *graph.Loop) {
		if len(l.Children) == 0 {
			innermost = append(innermost, l)
			return
		}
		for _, c := range l.Children {
			collect(c)
		}
	}
	for _, top := range li.Top {
		collect(top)
	}

	for _, loop := range innermost {
		outcome := unrollLoop(g, dom, loop, params)
		report.Loops = append(report.Loops, outcome)
		if params.Log != nil {
			if outcome.Unrolled {
				params.Log.Infow("unroll: loop unrolled", "header", outcome.Header,
					"factor", outcome.Factor, "full", outcome.FullyUnrolled)
			} else {
				params.Log.Infow("unroll: loop skipped", "header", outcome.Header,
					"reason", outcome.Reason.String())
			}
		}
	}

	graph.InvalidateDominance(g)
	graph.InvalidateLoops(g)
	return report
}

func unrollLoop(g *graph.Graph, dom *graph.DomTree, loop *graph.Loop, params Params) LoopOutcome {
	header := graph.FindHeader(g, dom, loop)
	if header < 0 {
		return LoopOutcome{Reason: SkipNoHeader}
	}
	outcome := LoopOutcome{Header: header}

	if loop.Size(g) > params.MaxSize {
		outcome.Reason = SkipTooLarge
		return outcome
	}

	backPositions := backEdgePositions(g, loop, header)
	if len(backPositions) != 1 {
		outcome.Reason = SkipMultipleBackedges
		return outcome
	}
	backPos := backPositions[0]

	if hasOpaqueCall(g, loop) {
		outcome.Reason = SkipAliasing
		return outcome
	}

	ind, ok := findLinearInduction(g, loop, header)
	factor, fullUnroll := selectFactor(ind, ok, params.MaxFactor)
	if factor < 2 {
		if !ok {
			outcome.Reason = SkipNonlinearInduction
		} else {
			outcome.Reason = SkipNoBudget
		}
		return outcome
	}

	dup := &duplicator{g: g, loop: loop, header: header, backPos: backPos}
	dup.run(factor)

	if fullUnroll {
		fullyUnrollCleanup(g, loop, header, backPos)
	}

	outcome.Unrolled = true
	outcome.Factor = factor
	outcome.FullyUnrolled = fullUnroll
	return outcome
}

// backEdgePositions returns the predecessor indices of header whose source
// block lies inside loop — the "back-edges" half of §4.3's header
// partition. A result of length > 1 is the "more than one back-edge path"
// bound that refuses unrolling.
func backEdgePositions(g *graph.Graph, loop *graph.Loop, header graph.Id) []int {
	var pos []int
	for i, p := range graph.Preds(g, header) {
		if loop.Blocks.Has(g.Node(p).Block()) {
			pos = append(pos, i)
		}
	}
	return pos
}
