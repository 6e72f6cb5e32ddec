package verify_test

import (
	"testing"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/typeent"
	"github.com/oisee/irgraph/pkg/verify"
	"github.com/stretchr/testify/require"
)

func TestProgramFlagsOrphanedCompoundMember(t *testing.T) {
	compound := typeent.NewCompound()
	orphan := &typeent.Member{Name: "bad", Type: typeent.NewPrimitive(mode.Is), Owner: nil}
	compound.Members = append(compound.Members, orphan)

	p := &typeent.Program{}
	p.AddType(compound)

	res := verify.Program(p, nil)
	require.False(t, res.OK())
	require.Len(t, res.Violations, 1)
}

func TestProgramFlagsArrayWithoutBounds(t *testing.T) {
	arr := &typeent.Type{Kind: typeent.KindArray, Elem: typeent.NewPrimitive(mode.Is)}
	p := &typeent.Program{}
	p.AddType(arr)

	res := verify.Program(p, nil)
	require.False(t, res.OK())
}

func TestProgramAcceptsConsistentConstructor(t *testing.T) {
	ctor := typeent.NewMethodEntity("__ctor", typeent.NewMethod(nil, nil), nil)
	ctor.Linkage = typeent.LinkageHiddenUser

	p := &typeent.Program{}
	p.AddEntity(ctor)

	res := verify.Program(p, nil)
	require.True(t, res.OK())
}

func TestProgramFlagsConstructorWithWrongLinkage(t *testing.T) {
	ctor := typeent.NewMethodEntity("__ctor", typeent.NewMethod(nil, nil), nil)

	p := &typeent.Program{}
	p.AddEntity(ctor)

	res := verify.Program(p, nil)
	require.False(t, res.OK())
}

func TestGraphFlagsPhiArityMismatch(t *testing.T) {
	g := graph.New()
	start := g.NewNode(graph.OpBlock, -1, mode.X, nil, nil)
	entry := g.NewNode(graph.OpProj, start, mode.X, []graph.Id{start}, graph.ProjAttr{Num: 0})
	body := g.NewNode(graph.OpBlock, -1, mode.X, []graph.Id{entry}, nil)
	c := g.NewNode(graph.OpConst, body, mode.Is, nil, graph.ConstAttr{Value: mode.Int(mode.Is, 1)})
	phi := g.NewNode(graph.OpPhi, body, mode.Is, []graph.Id{c}, nil)
	g.AppendInput(body, entry) // now body has arity 2, phi still has arity 1
	g.SetStartEnd(start, phi)

	res := verify.Graph(g, nil)
	require.False(t, res.OK())
}
