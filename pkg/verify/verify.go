// Package verify implements the IR verifier of spec.md §4.4: it walks all
// types and entities (and, per graph, the Phi-arity/Block-ownership graph
// invariants of §3) and checks every invariant named there. It never
// mutates; each violation is one line on the warning channel, and the
// overall result is success/failure aggregated across all checks.
package verify

import (
	"fmt"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/typeent"
	"go.uber.org/zap"
)

// Violation is a single reported inconsistency. The verifier collects these
// instead of returning a Go error (spec.md §7: consistency violations are
// "reported once per violation on the warning channel; aggregate success
// flag", never propagated as an error across a pass boundary).
type Violation struct {
	Subject string // e.g. "entity foo", "phi 12"
	Message string
}

func (v Violation) String() string { return fmt.Sprintf("%s: %s", v.Subject, v.Message) }

// Result is the aggregated outcome of a Run.
type Result struct {
	Violations []Violation
}

func (r *Result) OK() bool { return len(r.Violations) == 0 }

func (r *Result) report(log *zap.SugaredLogger, subject, format string, args ...interface{}) {
	v := Violation{Subject: subject, Message: fmt.Sprintf(format, args...)}
	r.Violations = append(r.Violations, v)
	if log != nil {
		log.Warnw("verify: consistency violation", "subject", v.Subject, "message", v.Message)
	}
}

// Program verifies every type and entity in p against the rules of §4.4.
func Program(p *typeent.Program, log *zap.SugaredLogger) *Result {
	r := &Result{}
	p.Walk(func(t *typeent.Type) { checkType(r, log, t) }, func(e *typeent.Entity) { checkEntity(r, log, e) })
	return r
}

func checkType(r *Result, log *zap.SugaredLogger, t *typeent.Type) {
	subject := fmt.Sprintf("type %p", t)
	switch t.Kind {
	case typeent.KindCompound:
		for _, m := range t.Members {
			if m.Owner != t {
				r.report(log, subject, "member %q owner is not its compound", m.Name)
			}
		}
	case typeent.KindArray:
		if len(t.Bounds) == 0 {
			r.report(log, subject, "array has no dimension bounds")
		}
	case typeent.KindPrimitive, typeent.KindPointer:
		if !t.HasMode() {
			r.report(log, subject, "primitive/pointer type has no mode")
		}
	}
}

func checkEntity(r *Result, log *zap.SugaredLogger, e *typeent.Entity) {
	subject := fmt.Sprintf("entity %q", e.Name)

	switch e.Kind {
	case typeent.EntityCompoundMember:
		if e.Owner == nil {
			r.report(log, subject, "compound member has no owning compound")
		}
	case typeent.EntityAlias:
		if e.Segment == typeent.SegmentNone {
			r.report(log, subject, "alias entity must live in a segment")
		}
	case typeent.EntityParameter:
		if e.Frame == nil {
			r.report(log, subject, "parameter entity has no owning frame")
		}
	case typeent.EntityLabel:
		if e.Type == nil || e.Type.Kind != typeent.KindPointer {
			// label-typed entities are represented as a pointer-to-code
			// placeholder in this model; anything else is a mismatch.
			if e.Type != nil {
				r.report(log, subject, "label entity does not have a code type")
			}
		}
	case typeent.EntityMethod:
		if e.Type == nil || e.Type.Kind != typeent.KindMethod {
			r.report(log, subject, "method entity does not have a method type")
		}
		checkMethodEntity(r, log, e, subject)
	}

	checkLinkage(r, log, e, subject)
	checkInitializer(r, log, e, subject)

	if e.Segment == typeent.SegmentThreadLocal {
		if e.Kind == typeent.EntityMethod {
			r.report(log, subject, "thread-local segment contains a method")
		}
		if e.IsConstant {
			r.report(log, subject, "thread-local segment contains a constant")
		}
	}
}

func checkMethodEntity(r *Result, log *zap.SugaredLogger, e *typeent.Entity, subject string) {
	if e.Graph == nil {
		return // method declaration without a body
	}
	type hasEntity interface{ Entity() interface{} }
	g, ok := e.Graph.(hasEntity)
	if !ok {
		return
	}
	if g.Entity() != interface{}(e) {
		r.report(log, subject, "method's graph.Entity() does not point back to the method")
	}
}

func checkLinkage(r *Result, log *zap.SugaredLogger, e *typeent.Entity, subject string) {
	isCtorDtor := e.Kind == typeent.EntityMethod && (e.Name == "__ctor" || e.Name == "__dtor" ||
		e.LdName == "__ctor" || e.LdName == "__dtor")
	if isCtorDtor {
		if e.Linkage != typeent.LinkageHiddenUser {
			r.report(log, subject, "constructor/destructor must have hidden-user linkage")
		}
		if e.LdName != "" {
			r.report(log, subject, "constructor/destructor must have empty ld_name")
		}
	}
	if e.Linkage == typeent.LinkageNoCodegen && e.Kind == typeent.EntityMethod && e.Graph != nil {
		if e.Visibility != typeent.VisibilityExternal {
			r.report(log, subject, "no-codegen linkage on a defined method requires external visibility")
		}
	}
}

func checkInitializer(r *Result, log *zap.SugaredLogger, e *typeent.Entity, subject string) {
	if e.Init == nil || e.Type == nil {
		return
	}
	if e.Init.IsCompound {
		if e.Type.Kind != typeent.KindCompound && e.Type.Kind != typeent.KindArray {
			r.report(log, subject, "compound initializer on a non-compound/array type")
			return
		}
		if e.Type.Kind == typeent.KindCompound && len(e.Init.Compound) > len(e.Type.Members) {
			r.report(log, subject, "compound initializer has more elements than the type has members")
		}
		return
	}
	if e.Init.Const != nil && e.Type.HasMode() {
		if !e.Init.Const.Mode.Equal(e.Type.EffectiveMode()) {
			r.report(log, subject, "initializer tarval mode does not match target type mode")
		}
	}
}

// Graph verifies the invariants of §3/§8 on one graph: every non-Block node
// has a Block, Blocks own no Block, and every Phi's arity matches its
// Block's predecessor arity.
func Graph(g *graph.Graph, log *zap.SugaredLogger) *Result {
	r := &Result{}
	for i := 0; i < g.NumNodes(); i++ {
		id := graph.Id(i)
		n := g.Node(id)
		subject := fmt.Sprintf("%s %d", n.Op(), id)

		if n.Op() == graph.OpBlock {
			if n.Block() >= 0 {
				r.report(log, subject, "Block node is owned by a Block")
			}
			continue
		}
		if n.Block() < 0 {
			r.report(log, subject, "non-Block node has no owning Block")
		}
		if n.Op() == graph.OpPhi {
			if err := graph.CheckPhiArity(g, id); err != nil {
				r.report(log, subject, "%s", err)
			}
		}
	}
	return r
}
