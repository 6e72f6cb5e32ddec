package graph_test

import (
	"testing"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/stretchr/testify/require"
)

func twoBlockGraph(t *testing.T) (*graph.Graph, graph.Id, graph.Id) {
	t.Helper()
	g := graph.New()
	start := g.NewNode(graph.OpBlock, -1, mode.X, nil, nil)
	startEntry := g.NewNode(graph.OpProj, start, mode.X, []graph.Id{start}, graph.ProjAttr{Num: 0})
	body := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{startEntry}, nil)
	g.SetStartEnd(start, body)
	return g, start, body
}

func TestPhiArity(t *testing.T) {
	g, _, body := twoBlockGraph(t)
	c := g.NewNode(graph.OpConst, body, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 1)})
	phi := g.NewNode(graph.OpPhi, body, mode.Is, []graph.Id{c}, nil)
	require.NoError(t, graph.CheckPhiArity(g, phi))

	// A second predecessor without a matching Phi input is a hard
	// consistency error, not silently repaired.
	g.AppendInput(body, c)
	require.Error(t, graph.CheckPhiArity(g, phi))
}

func TestReplaceByRewiresUses(t *testing.T) {
	g, _, body := twoBlockGraph(t)
	a := g.NewNode(graph.OpConst, body, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 1)})
	b := g.NewNode(graph.OpConst, body, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 2)})
	add := g.NewNode(graph.OpAdd, body, mode.Is, []graph.Id{a, a}, nil)
	g.SetStartEnd(g.Start(), add)

	graph.AssureOuts(g)
	require.NoError(t, g.ReplaceBy(a, b))

	require.Equal(t, b, g.Node(add).In(0))
	require.Equal(t, b, g.Node(add).In(1))
	require.Empty(t, g.Node(a).Outs())
}

func TestWalkVisitsEachNodeOnce(t *testing.T) {
	g, _, body := twoBlockGraph(t)
	a := g.NewNode(graph.OpConst, body, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 1)})
	add := g.NewNode(graph.OpAdd, body, mode.Is, []graph.Id{a, a}, nil)
	g.SetStartEnd(g.Start(), add)

	counts := map[graph.Id]int{}
	graph.Walk(g, func(_ *graph.Graph, n graph.Id, _ interface{}) {
		counts[n]++
	}, nil, nil)

	for id, c := range counts {
		require.Equalf(t, 1, c, "node %d visited %d times", id, c)
	}
	require.Contains(t, counts, a)
	require.Contains(t, counts, add)
}

func TestResourceReservationNonReentrant(t *testing.T) {
	g := graph.New()
	g.Reserve(graph.ResLink)
	require.Panics(t, func() { g.Reserve(graph.ResLink) })
	g.Free(graph.ResLink)
	require.Panics(t, func() { g.Free(graph.ResLink) })
}
