package main

import (
	"sort"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/typeent"
)

// sampleBuilder constructs one demo *graph.Graph, the CLI's stand-in for the
// frontend this codebase deliberately has none of: every subcommand needs a
// graph to run passes over, so --sample picks one of these named builders
// instead of parsing a source file, the same way the superoptimizer's
// "target" command took an assembly string in lieu of a real compiler.
type sampleBuilder func() *graph.Graph

var samples = map[string]sampleBuilder{
	"dwadd": buildDoubleWordAdd,
	"loop":  buildCountedLoop,
}

func sortedSampleNames() []string {
	names := make([]string, 0, len(samples))
	for n := range samples {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// debugIntrinsics hands out one fabricated method entity per lowered
// opcode/mode triple, standing in for a real backend's intrinsic library so
// `iropt lower` has something to wire calls to.
type debugIntrinsics struct{}

func (debugIntrinsics) Intrinsic(op graph.Op, inMode, outMode mode.Mode) *typeent.Entity {
	t := typeent.NewMethod(
		[]*typeent.Type{typeent.NewPrimitive(inMode), typeent.NewPrimitive(inMode)},
		[]*typeent.Type{typeent.NewPrimitive(outMode)},
	)
	t.Lowered = true
	return typeent.NewMethodEntity(op.String()+"_"+inMode.String(), t, nil)
}

// buildDoubleWordAdd builds Start -> Proj(mem), two Hu64 params -> Add ->
// Return, the canonical shape lower_dw_ops rewrites into one intrinsic
// call returning the low and high halves.
func buildDoubleWordAdd() *graph.Graph {
	g := graph.New()
	block := g.NewNode(graph.OpBlock, -1, mode.X, nil, nil)

	q := mode.QuadFor(64)
	start := g.NewNode(graph.OpStart, block, mode.T, nil, nil)
	mem := g.NewNode(graph.OpProj, block, mode.M, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjMem})
	a := g.NewNode(graph.OpProj, block, q.Hu, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjRes})
	b := g.NewNode(graph.OpProj, block, q.Hu, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjRes + 1})
	sum := g.NewNode(graph.OpAdd, block, q.Hu, []graph.Id{a, b}, nil)
	ret := g.NewNode(graph.OpReturn, block, mode.X, []graph.Id{mem, sum}, nil)

	g.SetStartEnd(start, ret)
	return g
}

// buildCountedLoop builds `func sum8(step Is) Is { s := 0; for i := 0; i <
// 8; i++ { s += step }; return s }`, shaped like the loop-unroll tests: a
// statically-countable header so `iropt unroll` has something to fully
// unwind.
func buildCountedLoop() *graph.Graph {
	g := graph.New()

	startBlock := g.NewNode(graph.OpBlock, -1, mode.X, nil, nil)
	start := g.NewNode(graph.OpStart, startBlock, mode.T, nil, nil)
	entryProj := g.NewNode(graph.OpProj, startBlock, mode.X, []graph.Id{startBlock}, graph.ProjAttr{Num: 0})

	header := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{entryProj, entryProj}, nil)

	step := g.NewNode(graph.OpProj, startBlock, mode.Is, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjRes})
	zeroI := g.NewNode(graph.OpConst, startBlock, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 0)})
	zeroS := g.NewNode(graph.OpConst, startBlock, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 0)})
	phiI := g.NewNode(graph.OpPhi, header, mode.Is, []graph.Id{zeroI, zeroI}, nil)
	phiS := g.NewNode(graph.OpPhi, header, mode.Is, []graph.Id{zeroS, zeroS}, nil)

	limit := g.NewNode(graph.OpConst, startBlock, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 8)})
	cmp := g.NewNode(graph.OpCmp, header, mode.Bu, []graph.Id{phiI, limit}, graph.CmpAttr{Rel: mode.RelLess})

	headerSelf := g.NewNode(graph.OpProj, header, mode.X, []graph.Id{header}, graph.ProjAttr{Num: 0})
	cond := g.NewNode(graph.OpCond, header, mode.T, []graph.Id{headerSelf, cmp}, nil)
	trueProj := g.NewNode(graph.OpProj, header, mode.X, []graph.Id{cond}, graph.ProjAttr{Num: 1})
	falseProj := g.NewNode(graph.OpProj, header, mode.X, []graph.Id{cond}, graph.ProjAttr{Num: 0})

	body := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{trueProj}, nil)
	after := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{falseProj}, nil)

	one := g.NewNode(graph.OpConst, body, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 1)})
	iNext := g.NewNode(graph.OpAdd, body, mode.Is, []graph.Id{phiI, one}, nil)
	sNext := g.NewNode(graph.OpAdd, body, mode.Is, []graph.Id{phiS, step}, nil)
	bodyExit := g.NewNode(graph.OpProj, body, mode.X, []graph.Id{body}, graph.ProjAttr{Num: 0})

	g.SetInput(header, 1, bodyExit)
	g.SetInput(phiI, 1, iNext)
	g.SetInput(phiS, 1, sNext)

	ret := g.NewNode(graph.OpReturn, after, mode.X, []graph.Id{phiS}, nil)
	g.SetStartEnd(start, ret)
	return g
}
