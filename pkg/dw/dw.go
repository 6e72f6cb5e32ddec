// Package dw implements the double-word lowering pass of spec.md §4.2:
// given a doubleword bit width W and its signed/unsigned modes, it rewrites
// a graph so no node has operational mode Hs/Hu, replacing each such value
// with a pair of half-width Ls/Lu values threaded through every consumer,
// including through Phi/Load/Store/Call/Conv/Cond control flow.
package dw

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/typeent"
)

// Params configures lower_dw_ops (§6 pass entry point).
type Params struct {
	Width        uint8 // doubleword bit size, e.g. 64
	LittleEndian bool
	Intrinsics   IntrinsicFactory
	Context      interface{}
}

// pair is the (low, high) replacement for one original doubleword-valued
// node. Lo/Hi are -1 until resolved.
type pair struct {
	Lo, Hi graph.Id
}

func emptyPair() pair { return pair{Lo: -1, Hi: -1} }
func (p pair) ready() bool { return p.Lo >= 0 && p.Hi >= 0 }

// lowerer holds one graph's in-progress lowering state: the per-node
// replacement table, the work deque, and the quad of modes this width
// derives (§4.2 "Per-node replacement table", "Fixpoint algorithm").
type lowerer struct {
	g      *graph.Graph
	quad   mode.Quad
	params Params

	pairs   map[graph.Id]*pair
	dummies map[mode.Mode]graph.Id // Phi placeholder, §4.2 "A dummy is used as placeholder"

	deque   []graph.Id
	onDeque map[graph.Id]bool

	rewroteControlFlow bool

	curMem  graph.Id // lazily-anchored memory chain for introduced intrinsic calls
	startId graph.Id

	// skipRewrite marks Call/Return nodes this pass itself constructed (an
	// intrinsic call, or the rebuilt form of a user call/return) so the
	// forward walk picking them back up as freshly-appended ids doesn't
	// try to lower them a second time.
	skipRewrite map[graph.Id]bool

	asmErr error
}

// LowerGraph runs lower_dw_ops over a single graph (§6: "in-place rewrite
// of every graph in the program" — callers iterate LowerGraph across a
// program's graphs; see LowerProgram for the convenience wrapper).
func LowerGraph(g *graph.Graph, params Params) error {
	l := &lowerer{
		g:       g,
		quad:    mode.QuadFor(params.Width),
		params:  params,
		pairs:   map[graph.Id]*pair{},
		dummies: map[mode.Mode]graph.Id{},
		onDeque: map[graph.Id]bool{},
		curMem:  -1,
		startId: -1,
		skipRewrite: map[graph.Id]bool{},
	}
	if l.quad.Hs.Equal(l.quad.Hu) {
		return ErrModeWidthCollision
	}

	if err := l.prepare(); err != nil {
		return err
	}
	graph.AssureOuts(g)
	l.lowerAll()
	if l.asmErr != nil {
		return l.asmErr
	}
	if err := l.drain(); err != nil {
		return err
	}
	if l.asmErr != nil {
		return l.asmErr
	}
	l.finalize()
	return nil
}

// LowerProgram applies lower_dw_ops to every graph reachable from the
// method entities registered in p, and lowers every method type those
// entities carry (§4.2 "Method-type lowering"), matching the "effect:
// in-place rewrite of every graph in the program" line of §6.
func LowerProgram(p *typeent.Program, graphs []*graph.Graph, params Params) error {
	q := mode.QuadFor(params.Width)
	sites := &callSiteInfo{
		params:  map[*typeent.Entity][]ParamMapping{},
		results: map[*typeent.Entity][]ParamMapping{},
	}
	// Mappings must be computed against each entity's original param/result
	// list before LowerMethodType overwrites it, so a later call site's
	// lowering (which only ever sees the now-lowered callee type) can still
	// ask "which original indices were split, and where did they land".
	for _, e := range p.Entities {
		if e.Kind == typeent.EntityMethod && e.Type != nil && !e.Type.Lowered {
			sites.params[e] = MapParams(e.Type.Params, q)
			sites.results[e] = MapParams(e.Type.Results, q)
			e.Type = LowerMethodType(e.Type, q)
		}
	}
	params.Context = sites
	for _, g := range graphs {
		if err := LowerGraph(g, params); err != nil {
			return err
		}
	}
	return nil
}

// operationalMode returns the mode §4.2 calls "operational": for
// arithmetic/compare/load/store nodes it is the mode of the arguments, not
// of the node itself.
func (l *lowerer) operationalMode(n graph.Id) mode.Mode {
	node := l.g.Node(n)
	switch node.Op() {
	case graph.OpCmp, graph.OpAdd, graph.OpSub, graph.OpMul, graph.OpDiv, graph.OpMod,
		graph.OpDivMod, graph.OpAnd, graph.OpOr, graph.OpEor, graph.OpNot, graph.OpMinus,
		graph.OpShl, graph.OpShr, graph.OpShrs, graph.OpRotl:
		if node.Arity() > 0 {
			return l.g.Node(node.In(0)).Mode()
		}
	}
	return node.Mode()
}

func (l *lowerer) isDoubleword(m mode.Mode) bool {
	return m.Equal(l.quad.Hs) || m.Equal(l.quad.Hu)
}

func (l *lowerer) enqueue(n graph.Id) {
	if !l.onDeque[n] {
		l.onDeque[n] = true
		l.deque = append(l.deque, n)
	}
}

// pairFor returns the pair slot for n, creating an empty one if absent.
func (l *lowerer) pairFor(n graph.Id) *pair {
	p, ok := l.pairs[n]
	if !ok {
		empty := emptyPair()
		p = &empty
		l.pairs[n] = p
	}
	return p
}

func (l *lowerer) pairReady(n graph.Id) bool {
	p, ok := l.pairs[n]
	return ok && p.ready()
}

func (l *lowerer) setPair(n, lo, hi graph.Id) {
	l.pairFor(n).Lo = lo
	l.pairFor(n).Hi = hi
}
