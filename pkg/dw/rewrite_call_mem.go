package dw

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
)

// anchorMem returns a memory value usable as the sequencing input for an
// intrinsic call introduced in place of a pure arithmetic node. Pure
// arithmetic nodes (Add, Sub, Mul, ...) carry no memory edge of their own,
// so the first call lowering on a graph borrows the Start node's initial
// memory Proj; every call after that threads through the previous call's
// memory Proj, keeping the introduced calls in the order lowerAll visits
// them.
func (l *lowerer) anchorMem() graph.Id {
	if l.curMem >= 0 {
		return l.curMem
	}
	start := l.findStart()
	if start < 0 {
		return -1
	}
	if m := findProjByNum(l.g, start, graph.ProjMem); m >= 0 {
		l.curMem = m
		return m
	}
	m := l.g.NewNode(graph.OpProj, l.g.Node(start).Block(), mode.M, []graph.Id{start}, graph.ProjAttr{Num: graph.ProjMem})
	l.curMem = m
	return m
}

func (l *lowerer) findStart() graph.Id {
	if l.startId >= 0 {
		return l.startId
	}
	for i := 0; i < l.g.NumNodes(); i++ {
		id := graph.Id(i)
		if l.g.Node(id).Op() == graph.OpStart {
			l.startId = id
			return id
		}
	}
	return -1
}
