package typeent

import "github.com/oisee/irgraph/pkg/mode"

// EntityKind is the closed set spec.md §3/§4.4 checks: normal, method,
// parameter, alias, label, compound member.
type EntityKind uint8

const (
	EntityNormal EntityKind = iota
	EntityMethod
	EntityParameter
	EntityAlias
	EntityLabel
	EntityCompoundMember
)

// Linkage is the combination of storage linkage the verifier checks
// (§4.4): constructors/destructors need HiddenUser with an empty LdName;
// NoCodegen implies the entity must be externally visible if it has a
// body.
type Linkage uint8

const (
	LinkageDefault Linkage = iota
	LinkageHiddenUser
	LinkageNoCodegen
)

// Visibility is external or local; NoCodegen linkage on a defined method
// requires External (§4.4).
type Visibility uint8

const (
	VisibilityLocal Visibility = iota
	VisibilityExternal
)

// Segment says which program segment an entity lives in; ThreadLocal
// segments may contain no methods and no constants (§4.4).
type Segment uint8

const (
	SegmentNone Segment = iota
	SegmentData
	SegmentThreadLocal
)

// Initializer is a tarval/const initializer or a compound initializer; the
// verifier checks mode compatibility for the former and arity bounds for
// the latter (§4.4).
type Initializer struct {
	Const     *mode.Tarval // non-nil for a scalar/tarval initializer
	Compound  []*Initializer
	IsCompound bool
}

// Entity is a named, typed, owned program object.
type Entity struct {
	Name       string
	Kind       EntityKind
	Type       *Type
	Owner      *Type // compound type owning this entity, if Kind == EntityCompoundMember
	Frame      *Type // frame type owning this entity, if Kind == EntityParameter
	Linkage    Linkage
	Visibility Visibility
	Segment    Segment
	LdName     string
	Init       *Initializer
	Graph      interface{} // *graph.Graph; interface{} to avoid an import cycle
	IsConstant bool
}

// NewNormal builds a normal (data) entity.
func NewNormal(name string, t *Type) *Entity {
	return &Entity{Name: name, Kind: EntityNormal, Type: t}
}

// NewMethodEntity builds a method entity of method type t. g is the
// *graph.Graph implementing its body, or nil for a declaration with no body.
func NewMethodEntity(name string, t *Type, g interface{}) *Entity {
	return &Entity{Name: name, Kind: EntityMethod, Type: t, Graph: g}
}

// NewParameter builds a parameter entity owned by frame.
func NewParameter(name string, t *Type, frame *Type) *Entity {
	return &Entity{Name: name, Kind: EntityParameter, Type: t, Frame: frame}
}

// NewCompoundMember builds an entity representing one member of a compound
// type, mirroring AddMember but at the entity (not Type.Member) level for
// compound types modeled as entity owners (e.g. a class whose fields are
// full Entities with their own linkage).
func NewCompoundMember(name string, t *Type, owner *Type) *Entity {
	return &Entity{Name: name, Kind: EntityCompoundMember, Type: t, Owner: owner}
}

// ScalarInit builds a tarval initializer.
func ScalarInit(v mode.Tarval) *Initializer { return &Initializer{Const: &v} }

// CompoundInit builds a compound initializer from member initializers.
func CompoundInit(members ...*Initializer) *Initializer {
	return &Initializer{Compound: members, IsCompound: true}
}
