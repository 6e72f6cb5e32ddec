package dw

import (
	"testing"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/typeent"
	"github.com/stretchr/testify/require"
)

// stubIntrinsics hands out one fabricated method entity per
// (op, inMode, outMode) triple so lowering has something to call without
// needing a real backend.
type stubIntrinsics struct{}

func (stubIntrinsics) Intrinsic(op graph.Op, inMode, outMode mode.Mode) *typeent.Entity {
	t := typeent.NewMethod(
		[]*typeent.Type{typeent.NewPrimitive(inMode), typeent.NewPrimitive(inMode)},
		[]*typeent.Type{typeent.NewPrimitive(outMode)},
	)
	t.Lowered = true
	return typeent.NewMethodEntity(intrinsicName(op, inMode.Bits()), t, nil)
}

func newParams() Params {
	return Params{
		Width:        64,
		LittleEndian: true,
		Intrinsics:   stubIntrinsics{},
	}
}

// newBlock returns a fresh Block node id to use as every test node's block;
// these tests never exercise control flow, so one shared block suffices.
func newBlock(g *graph.Graph) graph.Id {
	return g.NewNode(graph.OpBlock, -1, mode.X, nil, nil)
}

// buildAddGraph builds Start -> Proj(mem) -> { two Hu64 Const operands } ->
// Add -> Return, exercising the "doubleword add lowers to an intrinsic
// call" scenario.
func buildAddGraph(t *testing.T, q mode.Quad) (*graph.Graph, graph.Id) {
	t.Helper()
	g := graph.New()
	block := newBlock(g)

	start := g.NewNode(graph.OpStart, block, mode.T, nil, nil)
	mem := g.NewNode(graph.OpProj, block, mode.M, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjMem})

	a := g.NewNode(graph.OpConst, block, q.Hu, nil, graph.ConstAttr{Value: mode.Int(q.Hu, 0x1_0000_0005)})
	b := g.NewNode(graph.OpConst, block, q.Hu, nil, graph.ConstAttr{Value: mode.Int(q.Hu, 0x2_0000_0007)})
	add := g.NewNode(graph.OpAdd, block, q.Hu, []graph.Id{a, b}, nil)
	ret := g.NewNode(graph.OpReturn, block, mode.X, []graph.Id{mem, add}, nil)

	g.SetStartEnd(start, ret)
	return g, add
}

func TestLowerGraphDoublewordAdd(t *testing.T) {
	q := mode.QuadFor(64)
	g, add := buildAddGraph(t, q)
	originalOuts := len(g.Node(add).Outs())
	_ = originalOuts

	err := LowerGraph(g, newParams())
	require.NoError(t, err)

	for i := 0; i < g.NumNodes(); i++ {
		n := g.Node(i)
		require.NotEqual(t, q.Hu, n.Mode(), "node %d still carries the doubleword mode after lowering", i)
		require.NotEqual(t, q.Hs, n.Mode(), "node %d still carries the doubleword mode after lowering", i)
	}

	sawCall := false
	for i := 0; i < g.NumNodes(); i++ {
		if g.Node(i).Op() == graph.OpCall {
			sawCall = true
		}
	}
	require.True(t, sawCall, "doubleword Add should lower to an intrinsic call")
}

// buildStoreGraph wires value (a doubleword-valued node already present in
// g) through a Store, so a test can inspect how its lowered pair ended up
// in memory without needing the Call/Return/Start param-mapping machinery.
func buildStoreGraph(g *graph.Graph, block, start, mem, addr, value graph.Id) graph.Id {
	store := g.NewNode(graph.OpStore, block, mode.T, []graph.Id{mem, addr, value}, graph.LoadStoreAttr{})
	storeMem := g.NewNode(graph.OpProj, block, mode.M, []graph.Id{store}, graph.ProjAttr{Num: graph.ProjMem})
	ret := g.NewNode(graph.OpReturn, block, mode.X, []graph.Id{storeMem}, nil)
	g.SetStartEnd(start, ret)
	return store
}

// newStoresAfter returns every OpStore node appended to g at or after
// floor, in creation order — the Store row always builds exactly two.
func newStoresAfter(g *graph.Graph, floor int) []graph.Id {
	var stores []graph.Id
	for i := floor; i < g.NumNodes(); i++ {
		id := graph.Id(i)
		if g.Node(id).Op() == graph.OpStore {
			stores = append(stores, id)
		}
	}
	return stores
}

// buildConstGraph exercises the Const row in isolation: a single Hu64
// constant should split into two Lu32 consts with no call involved.
func buildConstGraph(t *testing.T, q mode.Quad, value int64) (*graph.Graph, graph.Id) {
	t.Helper()
	g := graph.New()
	block := newBlock(g)
	start := g.NewNode(graph.OpStart, block, mode.T, nil, nil)
	mem := g.NewNode(graph.OpProj, block, mode.M, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjMem})
	addr := g.NewNode(graph.OpConst, block, mode.P, nil, graph.ConstAttr{Value: mode.Int(mode.P, 0x4000)})
	c := g.NewNode(graph.OpConst, block, q.Hu, nil, graph.ConstAttr{Value: mode.Int(q.Hu, value)})
	buildStoreGraph(g, block, start, mem, addr, c)
	return g, c
}

func TestLowerGraphConstantSplit(t *testing.T) {
	q := mode.QuadFor(64)
	g, _ := buildConstGraph(t, q, 0x1_0000_0005)
	floor := g.NumNodes()

	err := LowerGraph(g, newParams())
	require.NoError(t, err)

	stores := newStoresAfter(g, floor)
	require.Len(t, stores, 2, "a doubleword Store should split into two half-width stores")

	lo := g.Node(g.Node(stores[0]).In(2))
	hi := g.Node(g.Node(stores[1]).In(2))
	require.Equal(t, graph.OpConst, lo.Op())
	require.Equal(t, graph.OpConst, hi.Op())
	require.Equal(t, q.Lu, lo.Mode())
	require.Equal(t, q.Lu, hi.Mode())

	loVal := lo.Attr().(graph.ConstAttr).Value
	hiVal := hi.Attr().(graph.ConstAttr).Value
	require.Equal(t, int64(5), loVal.Int64())
	require.Equal(t, int64(1), hiVal.Int64())
}

// buildShiftGraph builds a doubleword logical shift-left by a constant
// amount greater than half the width, the case whose formula routes
// entirely through the low half.
func buildShiftGraph(t *testing.T, q mode.Quad, amount int64) *graph.Graph {
	t.Helper()
	g := graph.New()
	block := newBlock(g)
	start := g.NewNode(graph.OpStart, block, mode.T, nil, nil)
	mem := g.NewNode(graph.OpProj, block, mode.M, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjMem})
	addr := g.NewNode(graph.OpConst, block, mode.P, nil, graph.ConstAttr{Value: mode.Int(mode.P, 0x4000)})
	x := g.NewNode(graph.OpConst, block, q.Hu, nil, graph.ConstAttr{Value: mode.Int(q.Hu, 1)})
	amt := g.NewNode(graph.OpConst, block, q.Lu, nil, graph.ConstAttr{Value: mode.Int(q.Lu, amount)})
	shl := g.NewNode(graph.OpShl, block, q.Hu, []graph.Id{x, amt}, nil)
	buildStoreGraph(g, block, start, mem, addr, shl)
	return g
}

func TestLowerGraphShiftByMoreThanHalfWidth(t *testing.T) {
	q := mode.QuadFor(64)
	g := buildShiftGraph(t, q, 40)
	floor := g.NumNodes()

	err := LowerGraph(g, newParams())
	require.NoError(t, err)

	stores := newStoresAfter(g, floor)
	require.Len(t, stores, 2)
	lo := g.Node(g.Node(stores[0]).In(2))
	hi := g.Node(g.Node(stores[1]).In(2))

	require.Equal(t, graph.OpConst, lo.Op(), "low half of a >=half-width left shift is always zero")
	require.Equal(t, int64(0), lo.Attr().(graph.ConstAttr).Value.Int64())
	require.Equal(t, graph.OpShl, hi.Op(), "high half carries the remaining shift amount")
}

// buildCmpZeroGraph exercises the Eq-against-zero special case in lowerCmp.
func buildCmpZeroGraph(t *testing.T, q mode.Quad) *graph.Graph {
	t.Helper()
	g := graph.New()
	block := newBlock(g)
	start := g.NewNode(graph.OpStart, block, mode.T, nil, nil)
	mem := g.NewNode(graph.OpProj, block, mode.M, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjMem})
	x := g.NewNode(graph.OpConst, block, q.Hu, nil, graph.ConstAttr{Value: mode.Int(q.Hu, 0)})
	zero := g.NewNode(graph.OpConst, block, q.Hu, nil, graph.ConstAttr{Value: mode.Int(q.Hu, 0)})
	cmp := g.NewNode(graph.OpCmp, block, mode.Bu, []graph.Id{x, zero}, graph.CmpAttr{Rel: mode.RelEqual})
	ret := g.NewNode(graph.OpReturn, block, mode.X, []graph.Id{mem, cmp}, nil)
	g.SetStartEnd(start, ret)
	return g
}

func TestLowerGraphEqualityWithZero(t *testing.T) {
	q := mode.QuadFor(64)
	g := buildCmpZeroGraph(t, q)

	err := LowerGraph(g, newParams())
	require.NoError(t, err)

	ret := g.Node(g.End())
	require.Len(t, ret.Ins(), 2, "Bu-moded Cmp result is never itself split")
	cmp := g.Node(ret.In(1))
	require.Equal(t, graph.OpCmp, cmp.Op())
	require.Equal(t, mode.RelEqual, cmp.Attr().(graph.CmpAttr).Rel)

	or := g.Node(cmp.In(0))
	require.Equal(t, graph.OpOr, or.Op(), "zero-equality special case ORs the two halves before a single comparison")
}

func TestLowerGraphRejectsASMOperand(t *testing.T) {
	q := mode.QuadFor(64)
	g := graph.New()
	block := newBlock(g)
	start := g.NewNode(graph.OpStart, block, mode.T, nil, nil)
	mem := g.NewNode(graph.OpProj, block, mode.M, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjMem})
	x := g.NewNode(graph.OpConst, block, q.Hu, nil, graph.ConstAttr{Value: mode.Int(q.Hu, 1)})
	asm := g.NewNode(graph.OpASM, block, mode.T, []graph.Id{mem, x}, nil)
	retMem := g.NewNode(graph.OpProj, block, mode.M, []graph.Id{asm}, graph.ProjAttr{Num: graph.ProjMem})
	ret := g.NewNode(graph.OpReturn, block, mode.X, []graph.Id{retMem}, nil)
	g.SetStartEnd(start, ret)

	err := LowerGraph(g, newParams())
	require.ErrorIs(t, err, ErrASMOperand)
}
