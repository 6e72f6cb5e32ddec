// Package graph implements the IR graph substrate: the node pool, edges,
// blocks, resource tokens, dominance/loop analyses and graph walks spec.md
// §3/§4.1 specify as the shared data model of the two transformation passes.
package graph

import (
	"fmt"

	"github.com/oisee/irgraph/pkg/mode"
	"github.com/pkg/errors"
)

// Property is one of the per-graph boolean flags spec.md §3/§6 names:
// consistent dominance, consistent out-edges, consistent loops, no-bads,
// LCSSA.
type Property uint8

const (
	PropConsistentDominance Property = 1 << iota
	PropConsistentOuts
	PropConsistentLoops
	PropNoBads
	PropLCSSA
)

// Resource is a token gating exclusive use of a per-node scratch field.
// Reservation is non-reentrant (§4.1, §5): a pass that needs the link slot
// or a fresh visited epoch must Reserve it and Free it on every exit path.
type Resource uint8

const (
	ResLink Resource = iota
	ResVisited
	ResPhiList
	resourceCount
)

// Graph owns all its nodes and the per-graph state spec.md §3 "Graph"
// describes: visited counter, reserved-resources bitmask, Start/End,
// entity, frame type, property flags.
type Graph struct {
	nodes     []*Node
	visited   uint32
	reserved  [resourceCount]bool
	props     Property
	start     Id
	end       Id
	entity    interface{} // *typeent.Entity; interface{} to avoid an import cycle
	phiLists  map[Id][]Id // Block -> Phis attached to it, valid while ResPhiList held
	frameType interface{}
}

// New creates an empty graph. Callers build Start/End via NewNode and then
// call SetStartEnd.
func New() *Graph {
	return &Graph{start: invalidId, end: invalidId}
}

func (g *Graph) Entity() interface{}        { return g.entity }
func (g *Graph) SetEntity(e interface{})    { g.entity = e }
func (g *Graph) Start() Id                  { return g.start }
func (g *Graph) End() Id                    { return g.end }
func (g *Graph) SetStartEnd(start, end Id)  { g.start, g.end = start, end }
func (g *Graph) NumNodes() int              { return len(g.nodes) }
func (g *Graph) HasProperty(p Property) bool { return g.props&p != 0 }
func (g *Graph) SetProperty(p Property)      { g.props |= p }
func (g *Graph) ClearProperty(p Property)    { g.props &^= p }

// grow appends n to the node arena, growing capacity by 12.5% on overflow
// (spec.md §9 "Dense graph indices") rather than leaving it to Go's default
// append growth policy.
func (g *Graph) grow(n *Node) Id {
	if len(g.nodes) == cap(g.nodes) {
		newCap := cap(g.nodes) + cap(g.nodes)/8 + 1
		grown := make([]*Node, len(g.nodes), newCap)
		copy(grown, g.nodes)
		g.nodes = grown
	}
	id := Id(len(g.nodes))
	n.id = id
	g.nodes = append(g.nodes, n)
	return id
}

// NewNode creates a node of opcode op in block, with the given mode and
// inputs (copied), and installs it in the graph's arena. attr may be nil.
func (g *Graph) NewNode(op Op, block Id, m mode.Mode, ins []Id, attr Attr) Id {
	n := &Node{op: op, mode: m, block: block, link: invalidId, attr: attr}
	n.ins = append(n.ins, ins...)
	id := g.grow(n)
	if g.HasProperty(PropConsistentOuts) {
		for pos, in := range n.ins {
			g.addOut(in, id, pos)
		}
	}
	if op == OpPhi && g.phiLists != nil {
		g.phiLists[block] = append(g.phiLists[block], id)
	}
	return id
}

// Node returns the node for id. Panics on an out-of-range id: every Id a
// caller holds was handed out by this graph and must still be live (nodes
// are never freed individually, per §3 "Lifecycle").
func (g *Graph) Node(id Id) *Node {
	return g.nodes[id]
}

// SetInput sets input i of n to v, maintaining back-edges if outs are
// currently consistent (§4.1).
func (g *Graph) SetInput(n Id, i int, v Id) {
	node := g.nodes[n]
	old := node.ins[i]
	node.ins[i] = v
	if g.HasProperty(PropConsistentOuts) {
		g.removeOut(old, n, i)
		g.addOut(v, n, i)
	}
}

// AppendInput appends a new input to n (used when extending a Block's or
// Phi's arity, e.g. when the unroller adds a new predecessor edge).
func (g *Graph) AppendInput(n Id, v Id) int {
	node := g.nodes[n]
	pos := len(node.ins)
	node.ins = append(node.ins, v)
	if g.HasProperty(PropConsistentOuts) {
		g.addOut(v, n, pos)
	}
	return pos
}

// RemoveInput drops input pos from n, shifting later inputs down one
// position and fixing up their cached back-edges. Used by loop-unrolling's
// full-unroll cleanup (§4.3 "removes that predecessor from the header")
// where a Block or Phi's arity must shrink by exactly one edge that no
// longer exists, rather than being replaced by something else.
func (g *Graph) RemoveInput(n Id, pos int) {
	node := g.nodes[n]
	old := node.ins[pos]
	if g.HasProperty(PropConsistentOuts) {
		g.removeOut(old, n, pos)
		for i := pos + 1; i < len(node.ins); i++ {
			g.removeOut(node.ins[i], n, i)
		}
	}
	node.ins = append(node.ins[:pos], node.ins[pos+1:]...)
	if g.HasProperty(PropConsistentOuts) {
		for i := pos; i < len(node.ins); i++ {
			g.addOut(node.ins[i], n, i)
		}
	}
}

func (g *Graph) addOut(of, user Id, pos int) {
	if of < 0 {
		return
	}
	n := g.nodes[of]
	n.outs = append(n.outs, Edge{User: user, Pos: pos})
}

func (g *Graph) removeOut(of, user Id, pos int) {
	if of < 0 {
		return
	}
	n := g.nodes[of]
	for i, e := range n.outs {
		if e.User == user && e.Pos == pos {
			n.outs = append(n.outs[:i], n.outs[i+1:]...)
			return
		}
	}
}

// ReplaceBy rewires every use of a to point at b instead; a becomes
// unreachable (spec.md §4.1). Requires consistent outs to find a's uses
// without a full graph walk — callers should AssureOuts first.
func (g *Graph) ReplaceBy(a, b Id) error {
	if !g.HasProperty(PropConsistentOuts) {
		return errors.New("graph: ReplaceBy requires consistent out-edges")
	}
	na := g.nodes[a]
	outs := append([]Edge(nil), na.outs...)
	for _, e := range outs {
		g.SetInput(e.User, e.Pos, b)
	}
	na.outs = nil
	return nil
}

// Reserve acquires r exclusively. Reservation is non-reentrant: reserving
// an already-held token is a programming error (§5), reported by panic
// since it can only arise from a bug in pass sequencing, never from
// program input.
func (g *Graph) Reserve(r Resource) {
	if g.reserved[r] {
		panic(fmt.Sprintf("graph: resource %d already reserved", r))
	}
	g.reserved[r] = true
	if r == ResPhiList {
		g.phiLists = make(map[Id][]Id)
	}
}

// Free releases r. Calling Free on a token not held is a programming error.
func (g *Graph) Free(r Resource) {
	if !g.reserved[r] {
		panic(fmt.Sprintf("graph: resource %d not reserved", r))
	}
	g.reserved[r] = false
	if r == ResPhiList {
		g.phiLists = nil
	}
}

// Reserved reports whether r is currently held, for passes composing with
// others that may have already reserved it.
func (g *Graph) Reserved(r Resource) bool { return g.reserved[r] }

// Link returns/sets the current node's link-slot partner, valid only while
// ResLink is reserved.
func (g *Graph) Link(n Id) Id        { return g.nodes[n].link }
func (g *Graph) SetLink(n, v Id)     { g.nodes[n].link = v }

// PhisOf returns the Phis attached to block, valid only while ResPhiList
// is reserved.
func (g *Graph) PhisOf(block Id) []Id { return g.phiLists[block] }

// NextVisited advances and returns the graph's visited epoch, used by a
// walk to mark nodes without resetting every node's visited field.
func (g *Graph) NextVisited() uint32 {
	g.visited++
	return g.visited
}

// Visited reports the graph's current epoch (the "per-graph counter" of
// §3's visited invariant: visited[n] <= visited[graph]).
func (g *Graph) Visited() uint32 { return g.visited }

// MarkVisited stamps n with the graph's current epoch.
func (g *Graph) MarkVisited(n Id) { g.nodes[n].visited = g.visited }

// IsVisited reports whether n carries the graph's current epoch.
func (g *Graph) IsVisited(n Id) bool { return g.nodes[n].visited == g.visited }
