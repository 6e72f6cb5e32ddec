// Package driver sequences the core's passes into one run over a graph (or
// many, in parallel), grounded on this codebase's search orchestration:
// Pipeline plays the role the superoptimizer's WorkerPool.RunTasks played
// for instruction sequences, and Report/Checkpoint generalize its
// Table/Rule and Checkpoint to the (graph, pass) outcomes of spec.md §6.
package driver

import (
	"go.uber.org/zap"

	"github.com/oisee/irgraph/pkg/dw"
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/unroll"
	"github.com/oisee/irgraph/pkg/verify"
)

// Params configures one Pipeline call: the lowering width/intrinsics and
// the unrolling budget, plus the logger every pass shares (§1's ambient
// stack requirement carried through to the driver boundary).
type Params struct {
	DoubleWord dw.Params
	Unroll     unroll.Params
	Log        *zap.SugaredLogger
}

// Pipeline runs verify -> lower_dw_ops -> verify -> unroll_loops -> verify
// over one graph, recording one Outcome per pass into report under label.
// It stops at the first pass that returns a Go error (an "unsupported
// construct" or "internal invariant break" per spec.md §7); a verify
// failure is not itself a Go error — violations are counted in the
// Outcome and the pipeline continues, matching §7's "consistency
// violations never propagate as an error across a pass boundary".
func Pipeline(g *graph.Graph, label string, params Params, report *Report) error {
	runVerify := func(pass string) {
		before := g.NumNodes()
		res := verify.Graph(g, params.Log)
		report.Add(Outcome{
			Graph: label, Pass: pass,
			NodesBefore: before, NodesAfter: g.NumNodes(),
			Violations: len(res.Violations),
		})
	}

	runVerify("verify:initial")

	before := g.NumNodes()
	if err := dw.LowerGraph(g, params.DoubleWord); err != nil {
		return err
	}
	report.Add(Outcome{Graph: label, Pass: "lower_dw_ops", NodesBefore: before, NodesAfter: g.NumNodes()})

	runVerify("verify:post-lower")

	before = g.NumNodes()
	unrollReport := unroll.UnrollLoops(g, params.Unroll)
	report.Add(Outcome{
		Graph: label, Pass: "unroll_loops",
		NodesBefore: before, NodesAfter: g.NumNodes(),
		LoopsUnrolled: unrollReport.LoopsUnrolled(),
	})

	runVerify("verify:final")

	return nil
}
