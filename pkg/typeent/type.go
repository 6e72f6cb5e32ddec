// Package typeent implements the type and entity model spec.md §2 names
// ("Type & Entity ≈10%") but leaves unspecified: method types, compound
// types, entity kinds and their linkage/visibility, and initializers,
// sized to exactly what the verifier (pkg/verify) and the double-word
// method-type lowering (pkg/dw) need.
package typeent

import "github.com/oisee/irgraph/pkg/mode"

// Kind is the closed set of type kinds.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindPointer
	KindMethod
	KindCompound
	KindArray
)

// Type is a tagged union over the kinds above; only the fields relevant to
// Kind are meaningful.
type Type struct {
	Kind Kind

	// KindPrimitive
	Mode mode.Mode

	// KindPointer
	Points *Type

	// KindMethod
	Params  []*Type
	Results []*Type
	Lowered bool // §4.2 "is lowered" marker, makes lowering idempotent

	// KindCompound
	Members []*Member

	// KindArray
	Elem   *Type
	Bounds []int64 // at least one bound, per §4.4's verifier check
}

// Member is one named field of a compound type; Owner is set when the
// member is attached via AddMember, enforcing "compound members owned by
// the compound" (§4.4).
type Member struct {
	Name   string
	Type   *Type
	Owner  *Type
	Offset int64
}

// NewPrimitive builds a primitive type of mode m.
func NewPrimitive(m mode.Mode) *Type { return &Type{Kind: KindPrimitive, Mode: m} }

// NewPointer builds a pointer/reference type to elem.
func NewPointer(elem *Type) *Type { return &Type{Kind: KindPointer, Points: elem} }

// NewMethod builds a method type with the given parameter/result type
// lists, in order.
func NewMethod(params, results []*Type) *Type {
	return &Type{Kind: KindMethod, Params: append([]*Type(nil), params...), Results: append([]*Type(nil), results...)}
}

// NewCompound builds an empty compound type; members are attached with
// AddMember.
func NewCompound() *Type { return &Type{Kind: KindCompound} }

// AddMember attaches a named member to a compound type, setting the
// member's Owner to t so the verifier's ownership check is satisfiable by
// construction.
func (t *Type) AddMember(name string, mt *Type, offset int64) *Member {
	m := &Member{Name: name, Type: mt, Owner: t, Offset: offset}
	t.Members = append(t.Members, m)
	return m
}

// NewArray builds an array type of elem with the given dimension bounds.
// bounds must be non-empty (§4.4: "array dimensions have at least one
// bound").
func NewArray(elem *Type, bounds ...int64) *Type {
	return &Type{Kind: KindArray, Elem: elem, Bounds: append([]int64(nil), bounds...)}
}

// HasMode reports whether t is a primitive or pointer type, both of which
// must carry a mode per §4.4 ("primitives and pointers have a mode").
func (t *Type) HasMode() bool {
	return t.Kind == KindPrimitive || t.Kind == KindPointer
}

// EffectiveMode returns the mode backing a primitive or pointer type.
func (t *Type) EffectiveMode() mode.Mode {
	if t.Kind == KindPointer {
		return mode.P
	}
	return t.Mode
}
