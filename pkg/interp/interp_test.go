package interp_test

import (
	"testing"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/interp"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/stretchr/testify/require"
)

// straightLineGraph builds start -> block -> return computing (a+b)*2 over
// two Start parameters, the evaluator's simplest single-block case.
func straightLineGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	block := g.NewNode(graph.OpBlock, -1, mode.X, nil, nil)
	start := g.NewNode(graph.OpStart, block, mode.T, nil, nil)
	a := g.NewNode(graph.OpProj, block, mode.Is, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjRes})
	b := g.NewNode(graph.OpProj, block, mode.Is, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjRes + 1})
	sum := g.NewNode(graph.OpAdd, block, mode.Is, []graph.Id{a, b}, nil)
	two := g.NewNode(graph.OpConst, block, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 2)})
	doubled := g.NewNode(graph.OpMul, block, mode.Is, []graph.Id{sum, two}, nil)
	ret := g.NewNode(graph.OpReturn, block, mode.X, []graph.Id{doubled}, nil)
	g.SetStartEnd(start, ret)
	return g
}

func TestInterpStraightLineArithmetic(t *testing.T) {
	g := straightLineGraph(t)
	it := interp.New(g, nil, 0)

	out, err := it.Run([]mode.Tarval{mode.Int(mode.Is, 3), mode.Int(mode.Is, 4)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, int64(14), out[0].Int64())
}

// branchingGraph builds start -> header(cond) -> {trueBlk, falseBlk} ->
// afterBlk, returning a Phi of two Consts selected at run time by the
// boolean Start parameter passed to Run.
func branchingGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	startBlock := g.NewNode(graph.OpBlock, -1, mode.X, nil, nil)
	start := g.NewNode(graph.OpStart, startBlock, mode.T, nil, nil)
	entry := g.NewNode(graph.OpProj, startBlock, mode.X, []graph.Id{startBlock}, graph.ProjAttr{Num: 0})

	header := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{entry}, nil)
	flagProj := g.NewNode(graph.OpProj, startBlock, mode.Bu, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjRes})
	headerSelf := g.NewNode(graph.OpProj, header, mode.X, []graph.Id{header}, graph.ProjAttr{Num: 0})
	cond := g.NewNode(graph.OpCond, header, mode.T, []graph.Id{headerSelf, flagProj}, nil)
	trueProj := g.NewNode(graph.OpProj, header, mode.X, []graph.Id{cond}, graph.ProjAttr{Num: 1})
	falseProj := g.NewNode(graph.OpProj, header, mode.X, []graph.Id{cond}, graph.ProjAttr{Num: 0})

	trueBlk := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{trueProj}, nil)
	falseBlk := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{falseProj}, nil)
	trueExit := g.NewNode(graph.OpProj, trueBlk, mode.X, []graph.Id{trueBlk}, graph.ProjAttr{Num: 0})
	falseExit := g.NewNode(graph.OpProj, falseBlk, mode.X, []graph.Id{falseBlk}, graph.ProjAttr{Num: 0})

	after := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{trueExit, falseExit}, nil)
	oneVal := g.NewNode(graph.OpConst, trueBlk, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 111)})
	zeroVal := g.NewNode(graph.OpConst, falseBlk, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 222)})
	phi := g.NewNode(graph.OpPhi, after, mode.Is, []graph.Id{oneVal, zeroVal}, nil)
	ret := g.NewNode(graph.OpReturn, after, mode.X, []graph.Id{phi}, nil)
	g.SetStartEnd(start, ret)

	return g
}

func TestInterpFollowsCondBranches(t *testing.T) {
	g := branchingGraph(t)
	it := interp.New(g, nil, 0)

	out, err := it.Run([]mode.Tarval{mode.Bool(true)})
	require.NoError(t, err)
	require.Equal(t, int64(111), out[0].Int64())

	g2 := branchingGraph(t)
	it2 := interp.New(g2, nil, 0)
	out2, err := it2.Run([]mode.Tarval{mode.Bool(false)})
	require.NoError(t, err)
	require.Equal(t, int64(222), out2[0].Int64())
}
