package graph

import (
	"fmt"

	"github.com/oisee/irgraph/pkg/mode"
)

// Edge is a cached back-edge (use, input-position) pair maintained by the
// outs analysis. It is only valid while the owning Graph's outs are
// consistent (§4.1: "may be stale outside a consistent-outs region").
type Edge struct {
	User Id
	Pos  int
}

// Attr is the per-opcode attribute payload. Concrete payload types are
// defined alongside the opcodes that use them (ConstAttr, LoadStoreAttr,
// CmpAttr, CallAttr, ProjAttr, ...).
type Attr interface{ isAttr() }

// ConstAttr is Const's attribute: the constant value it produces.
type ConstAttr struct{ Value mode.Tarval }

func (ConstAttr) isAttr() {}

// ProjAttr is Proj's attribute: which result of its tuple-mode predecessor
// it selects.
type ProjAttr struct{ Num int }

func (ProjAttr) isAttr() {}

// CmpAttr is Cmp's attribute: the relation it tests for.
type CmpAttr struct{ Rel mode.Relation }

func (CmpAttr) isAttr() {}

// LoadStoreAttr is Load/Store's attribute payload: an optional immediate
// offset added to the address. Double-word lowering leaves it zero and
// addresses its second load/store through an explicit Add instead.
type LoadStoreAttr struct {
	Offset int64
	Volatile bool
}

func (LoadStoreAttr) isAttr() {}

// CallAttr is Call's attribute: the callee entity reference (nil for an
// indirect call) and whether the callee is opaque to alias analysis (used
// by the unroller's is_aliased check, §4.3/§9 Open Questions).
type CallAttr struct {
	Callee interface{} // *typeent.Entity; interface{} to avoid an import cycle
	Opaque bool
}

func (CallAttr) isAttr() {}

// SelAttr is Sel's attribute: the member/parameter entity it selects.
type SelAttr struct {
	Entity interface{} // *typeent.Entity; interface{} to avoid an import cycle
}

func (SelAttr) isAttr() {}

// Id is a dense, monotonically increasing node identifier, unique within
// one Graph.
type Id int32

// Node is the uniform record described in spec.md §3. Every field the
// spec names is present; opcode-specific data lives in Attr.
type Node struct {
	id      Id
	op      Op
	mode    mode.Mode
	block   Id // invalid for OpBlock itself; see Node.Block
	ins     []Id
	outs    []Edge
	visited uint32
	link    Id // resource-token-guarded temporary; see Graph.Reserve(ResLink)
	dbgInfo string
	pinned  bool
	attr    Attr
}

const invalidId Id = -1

func (n *Node) Id() Id          { return n.id }
func (n *Node) Op() Op          { return n.op }
func (n *Node) Mode() mode.Mode { return n.mode }
func (n *Node) Block() Id       { return n.block }
func (n *Node) Ins() []Id       { return n.ins }
func (n *Node) Arity() int      { return len(n.ins) }
func (n *Node) In(i int) Id     { return n.ins[i] }
func (n *Node) Outs() []Edge    { return n.outs }
func (n *Node) Attr() Attr      { return n.attr }
func (n *Node) Pinned() bool    { return n.pinned }
func (n *Node) DbgInfo() string { return n.dbgInfo }
func (n *Node) SetDbgInfo(s string) { n.dbgInfo = s }
func (n *Node) SetPinned(p bool)    { n.pinned = p }

// SetAttr replaces n's attribute payload, used by Proj renumbering when a
// doubleword parameter/result split shifts every later Proj's index (§4.2
// Call/Return/Start).
func (n *Node) SetAttr(a Attr) { n.attr = a }

func (n *Node) String() string {
	return fmt.Sprintf("%s%d[%s]", n.op, n.id, n.mode)
}
