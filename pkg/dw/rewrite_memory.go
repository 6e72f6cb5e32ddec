package dw

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

func findProjByNum(g *graph.Graph, producer graph.Id, num int) graph.Id {
	for _, e := range g.Node(producer).Outs() {
		user := g.Node(e.User)
		if user.Op() != graph.OpProj {
			continue
		}
		if attr, ok := user.Attr().(graph.ProjAttr); ok && attr.Num == num {
			return e.User
		}
	}
	return -1
}

// addrPlus builds addr+offset (or returns addr unchanged for offset 0),
// matching the Load/Store row's "addr and (addr + W/8)".
func (l *lowerer) addrPlus(addr graph.Id, offset int64, block graph.Id) graph.Id {
	if offset == 0 {
		return addr
	}
	addrMode := l.g.Node(addr).Mode()
	off := l.g.NewNode(graph.OpConst, block, addrMode, nil, graph.ConstAttr{Value: mode.Int(addrMode, offset)})
	return l.g.NewNode(graph.OpAdd, block, addrMode, []graph.Id{addr, off}, nil)
}

// lowerLoad implements the Load row of §4.2's per-opcode policy table: two
// loads sharing the memory chain, low-addr and (addr + W/8) for
// little-endian (reversed for big-endian); the original memory Proj is
// re-parented to the second load, the result Proj fans out to two
// low/high result Projs, and the exception Proj attaches to the first
// load.
func (l *lowerer) lowerLoad(n graph.Id) {
	resProj := findProjByNum(l.g, n, graph.ProjRes)
	if resProj < 0 || !l.isDoubleword(l.g.Node(resProj).Mode()) {
		return
	}
	if l.pairReady(resProj) {
		return
	}
	node := l.g.Node(n)
	mem, addr := node.In(0), node.In(1)
	block := node.Block()
	halfBytes := int64(l.quad.Lu.Bits() / 8)

	firstOffset, secondOffset := int64(0), halfBytes
	if !l.params.LittleEndian {
		firstOffset, secondOffset = halfBytes, 0
	}
	addr1 := l.addrPlus(addr, firstOffset, block)
	addr2 := l.addrPlus(addr, secondOffset, block)

	// Only the addresses swap with endianness; which load produces the low
	// half and which produces the high half never does — load1/res1 is
	// always Lo, load2/res2 is always Hi, regardless of which address each
	// reads from.
	load1 := l.g.NewNode(graph.OpLoad, block, mode.T, []graph.Id{mem, addr1}, graph.LoadStoreAttr{})
	mem1 := l.g.NewNode(graph.OpProj, block, mode.M, []graph.Id{load1}, graph.ProjAttr{Num: graph.ProjMem})
	exc1 := l.g.NewNode(graph.OpProj, block, mode.X, []graph.Id{load1}, graph.ProjAttr{Num: graph.ProjException})
	res1 := l.g.NewNode(graph.OpProj, block, l.quad.Lu, []graph.Id{load1}, graph.ProjAttr{Num: graph.ProjRes})

	load2 := l.g.NewNode(graph.OpLoad, block, mode.T, []graph.Id{mem1, addr2}, graph.LoadStoreAttr{})
	mem2 := l.g.NewNode(graph.OpProj, block, mode.M, []graph.Id{load2}, graph.ProjAttr{Num: graph.ProjMem})
	res2 := l.g.NewNode(graph.OpProj, block, l.highHalfMode(l.g.Node(resProj).Mode()), []graph.Id{load2}, graph.ProjAttr{Num: graph.ProjRes})

	if origMem := findProjByNum(l.g, n, graph.ProjMem); origMem >= 0 {
		l.g.ReplaceBy(origMem, mem2)
	}
	if origExc := findProjByNum(l.g, n, graph.ProjException); origExc >= 0 {
		l.g.ReplaceBy(origExc, exc1)
	}

	l.setPair(resProj, res1, res2)
}

// lowerStore implements the Store row: two dependent stores, the second
// carrying the memory-Proj, the first the exception-Proj.
func (l *lowerer) lowerStore(n graph.Id) {
	node := l.g.Node(n)
	mem, addr, val := node.In(0), node.In(1), node.In(2)
	if !l.isDoubleword(l.g.Node(val).Mode()) {
		return
	}
	if !l.pairReady(val) {
		l.enqueue(n)
		return
	}
	vp := l.pairFor(val)
	block := node.Block()
	halfBytes := int64(l.quad.Lu.Bits() / 8)

	firstOffset, secondOffset := int64(0), halfBytes
	if !l.params.LittleEndian {
		firstOffset, secondOffset = halfBytes, 0
	}
	addr1 := l.addrPlus(addr, firstOffset, block)
	addr2 := l.addrPlus(addr, secondOffset, block)

	// Only the addresses swap with endianness; store1 always carries the
	// low half and store2 always carries the high half, regardless of
	// which address each writes to.
	store1 := l.g.NewNode(graph.OpStore, block, mode.T, []graph.Id{mem, addr1, vp.Lo}, graph.LoadStoreAttr{})
	mem1 := l.g.NewNode(graph.OpProj, block, mode.M, []graph.Id{store1}, graph.ProjAttr{Num: graph.ProjMem})
	exc1 := l.g.NewNode(graph.OpProj, block, mode.X, []graph.Id{store1}, graph.ProjAttr{Num: graph.ProjException})

	store2 := l.g.NewNode(graph.OpStore, block, mode.T, []graph.Id{mem1, addr2, vp.Hi}, graph.LoadStoreAttr{})
	mem2 := l.g.NewNode(graph.OpProj, block, mode.M, []graph.Id{store2}, graph.ProjAttr{Num: graph.ProjMem})

	if origMem := findProjByNum(l.g, n, graph.ProjMem); origMem >= 0 {
		l.g.ReplaceBy(origMem, mem2)
	}
	if origExc := findProjByNum(l.g, n, graph.ProjException); origExc >= 0 {
		l.g.ReplaceBy(origExc, exc1)
	}
}
