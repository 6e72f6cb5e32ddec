package typeent_test

import (
	"testing"

	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/typeent"
	"github.com/stretchr/testify/require"
)

func TestCompoundMemberOwnership(t *testing.T) {
	compound := typeent.NewCompound()
	member := compound.AddMember("x", typeent.NewPrimitive(mode.Is), 0)
	require.Same(t, compound, member.Owner)
}

func TestArrayRequiresAtLeastOneBound(t *testing.T) {
	arr := typeent.NewArray(typeent.NewPrimitive(mode.Is), 4)
	require.NotEmpty(t, arr.Bounds)
}

func TestPrimitiveAndPointerHaveMode(t *testing.T) {
	require.True(t, typeent.NewPrimitive(mode.Is).HasMode())
	require.True(t, typeent.NewPointer(typeent.NewPrimitive(mode.Is)).HasMode())
	require.False(t, typeent.NewCompound().HasMode())
}

func TestProgramWalkVisitsEverything(t *testing.T) {
	p := &typeent.Program{}
	ty := typeent.NewPrimitive(mode.Is)
	ent := typeent.NewNormal("g", ty)
	p.AddType(ty)
	p.AddEntity(ent)

	var types []*typeent.Type
	var ents []*typeent.Entity
	p.Walk(func(t *typeent.Type) { types = append(types, t) }, func(e *typeent.Entity) { ents = append(ents, e) })

	require.Equal(t, []*typeent.Type{ty}, types)
	require.Equal(t, []*typeent.Entity{ent}, ents)
}
