package unroll_test

import (
	"testing"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/unroll"
	"github.com/stretchr/testify/require"
)

// loopFixture builds a single-loop graph shaped like §8 scenario 5/6's
// `for (i=0; i<limit; i++) s += step`: a header Block testing i against
// limit, a body Block incrementing i and s and jumping back to the header,
// and an after-loop Block returning s. limitIsConst selects between the
// statically-countable scenario 5 case (limit is a Const) and the
// runtime-bound scenario 6 case (limit is an opaque value).
func loopFixture(t *testing.T, limitIsConst bool) (*graph.Graph, graph.Id) {
	t.Helper()
	g := graph.New()

	startBlock := g.NewNode(graph.OpBlock, -1, mode.X, nil, nil)
	start := g.NewNode(graph.OpStart, startBlock, mode.T, nil, nil)
	entryProj := g.NewNode(graph.OpProj, startBlock, mode.X, []graph.Id{startBlock}, graph.ProjAttr{Num: 0})

	header := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{entryProj, entryProj}, nil)

	zeroI := g.NewNode(graph.OpConst, startBlock, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 0)})
	zeroS := g.NewNode(graph.OpConst, startBlock, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 0)})
	phiI := g.NewNode(graph.OpPhi, header, mode.Is, []graph.Id{zeroI, zeroI}, nil)
	phiS := g.NewNode(graph.OpPhi, header, mode.Is, []graph.Id{zeroS, zeroS}, nil)

	var limit graph.Id
	if limitIsConst {
		limit = g.NewNode(graph.OpConst, startBlock, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 8)})
	} else {
		limit = g.NewNode(graph.OpUnknown, startBlock, mode.Is, nil, nil)
	}
	cmp := g.NewNode(graph.OpCmp, header, mode.Bu, []graph.Id{phiI, limit}, graph.CmpAttr{Rel: mode.RelLess})

	headerSelf := g.NewNode(graph.OpProj, header, mode.X, []graph.Id{header}, graph.ProjAttr{Num: 0})
	cond := g.NewNode(graph.OpCond, header, mode.T, []graph.Id{headerSelf, cmp}, nil)
	trueProj := g.NewNode(graph.OpProj, header, mode.X, []graph.Id{cond}, graph.ProjAttr{Num: 1})
	falseProj := g.NewNode(graph.OpProj, header, mode.X, []graph.Id{cond}, graph.ProjAttr{Num: 0})

	body := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{trueProj}, nil)
	after := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{falseProj}, nil)

	step := g.NewNode(graph.OpConst, body, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 5)})
	one := g.NewNode(graph.OpConst, body, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 1)})
	iNext := g.NewNode(graph.OpAdd, body, mode.Is, []graph.Id{phiI, one}, nil)
	sNext := g.NewNode(graph.OpAdd, body, mode.Is, []graph.Id{phiS, step}, nil)
	bodyExit := g.NewNode(graph.OpProj, body, mode.X, []graph.Id{body}, graph.ProjAttr{Num: 0})

	g.SetInput(header, 1, bodyExit)
	g.SetInput(phiI, 1, iNext)
	g.SetInput(phiS, 1, sNext)

	ret := g.NewNode(graph.OpReturn, after, mode.X, []graph.Id{phiS}, nil)
	g.SetStartEnd(start, ret)

	return g, header
}

func allPhisHaveMatchingArity(t *testing.T, g *graph.Graph) {
	t.Helper()
	for i := 0; i < g.NumNodes(); i++ {
		id := graph.Id(i)
		if g.Node(id).Op() == graph.OpPhi {
			require.NoErrorf(t, graph.CheckPhiArity(g, id), "phi %d", id)
		}
	}
}

func TestUnrollFullyUnrollsStaticTripCount(t *testing.T) {
	g, header := loopFixture(t, true)
	before := g.NumNodes()

	report := unroll.UnrollLoops(g, unroll.Params{MaxFactor: 8, MaxSize: 1000})

	require.Len(t, report.Loops, 1)
	outcome := report.Loops[0]
	require.Equal(t, header, outcome.Header)
	require.True(t, outcome.Unrolled)
	require.Equal(t, 8, outcome.Factor)
	require.True(t, outcome.FullyUnrolled)
	require.Greater(t, g.NumNodes(), before)
	allPhisHaveMatchingArity(t, g)

	require.False(t, g.HasProperty(graph.PropConsistentDominance))
	require.False(t, g.HasProperty(graph.PropConsistentLoops))
}

func TestUnrollConservativeFactorOnUnknownTripCount(t *testing.T) {
	g, header := loopFixture(t, false)
	before := g.NumNodes()

	report := unroll.UnrollLoops(g, unroll.Params{MaxFactor: 8, MaxSize: 1000})

	require.Len(t, report.Loops, 1)
	outcome := report.Loops[0]
	require.Equal(t, header, outcome.Header)
	require.True(t, outcome.Unrolled)
	require.Equal(t, 2, outcome.Factor)
	require.False(t, outcome.FullyUnrolled)
	require.Greater(t, g.NumNodes(), before)
	allPhisHaveMatchingArity(t, g)
}

func TestUnrollRefusesMultipleBackedges(t *testing.T) {
	g, header := loopFixture(t, true)
	// Fabricate a second in-loop predecessor on the header to trigger the
	// "more than one back-edge path" bound of §4.3.
	bodyExit := g.Node(header).In(1)
	g.AppendInput(header, bodyExit)
	phiI := findPhi(g, header, 0)
	phiS := findPhi(g, header, 1)
	g.AppendInput(phiI, g.Node(phiI).In(1))
	g.AppendInput(phiS, g.Node(phiS).In(1))

	report := unroll.UnrollLoops(g, unroll.Params{MaxFactor: 8, MaxSize: 1000})
	require.Len(t, report.Loops, 1)
	require.False(t, report.Loops[0].Unrolled)
	require.Equal(t, unroll.SkipMultipleBackedges, report.Loops[0].Reason)
}

func findPhi(g *graph.Graph, block graph.Id, nth int) graph.Id {
	count := 0
	for i := 0; i < g.NumNodes(); i++ {
		id := graph.Id(i)
		if g.Node(id).Op() == graph.OpPhi && g.Node(id).Block() == block {
			if count == nth {
				return id
			}
			count++
		}
	}
	return -1
}
