package typeent

// Program is the registry of every type and entity the verifier and the
// double-word lowering pass operate over (spec.md §4.1's "type/entity walk:
// for each type and entity in the program, invoke a callback").
type Program struct {
	Types    []*Type
	Entities []*Entity
	// ConstCodeGraph is the designated "const-code" graph a Const used as an
	// initializer value must live in (§3 invariant). interface{} to avoid
	// importing pkg/graph from here (graph, in turn, references typeent only
	// through interface{} fields, keeping the two packages independent).
	ConstCodeGraph interface{}
}

// AddType registers t (and is a no-op if t is already registered, a cheap
// linear scan acceptable at the program sizes this core targets).
func (p *Program) AddType(t *Type) {
	for _, existing := range p.Types {
		if existing == t {
			return
		}
	}
	p.Types = append(p.Types, t)
}

// AddEntity registers e.
func (p *Program) AddEntity(e *Entity) {
	p.Entities = append(p.Entities, e)
}

// WalkTypeFunc and WalkEntityFunc are the type/entity walk callbacks.
type WalkTypeFunc func(t *Type)
type WalkEntityFunc func(e *Entity)

// Walk invokes onType for every registered type and onEntity for every
// registered entity, in registration order. Either callback may be nil.
func (p *Program) Walk(onType WalkTypeFunc, onEntity WalkEntityFunc) {
	if onType != nil {
		for _, t := range p.Types {
			onType(t)
		}
	}
	if onEntity != nil {
		for _, e := range p.Entities {
			onEntity(e)
		}
	}
}
