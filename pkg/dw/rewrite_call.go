package dw

import (
	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/typeent"
)

// rewireProjNumbering implements the shared half of the Start/Call result
// row: given the ParamMapping list for producer's original param/result
// list, every split entry gets a brand-new low/high Proj pair (recorded
// under the original Proj's id, the same deferred-pair trick Load uses),
// and every unsplit entry just gets its existing Proj renumbered to its
// new position.
func (l *lowerer) rewireProjNumbering(producer graph.Id, mappings []ParamMapping) {
	node := l.g.Node(producer)
	block := node.Block()
	for i, m := range mappings {
		origProj := findProjByNum(l.g, producer, graph.ProjRes+i)
		if origProj < 0 {
			continue
		}
		if !m.Split {
			l.g.Node(origProj).SetAttr(graph.ProjAttr{Num: graph.ProjRes + m.NewIndex})
			continue
		}
		origMode := l.g.Node(origProj).Mode()
		hm := l.highHalfMode(origMode)
		lo := l.g.NewNode(graph.OpProj, block, l.quad.Lu, []graph.Id{producer}, graph.ProjAttr{Num: graph.ProjRes + m.NewIndex})
		hi := l.g.NewNode(graph.OpProj, block, hm, []graph.Id{producer}, graph.ProjAttr{Num: graph.ProjRes + m.NewIndex + 1})
		l.setPair(origProj, lo, hi)
	}
}

// lowerStart implements the Start half of the Call/Return/Start row: the
// graph's own entity's parameter list is mapped and every split parameter's
// Proj gets the Load-style deferred low/high pair.
func (l *lowerer) lowerStart(n graph.Id) {
	ent, ok := l.g.Entity().(*typeent.Entity)
	if !ok || ent == nil || ent.Type == nil {
		return
	}
	sites, ok := l.params.Context.(*callSiteInfo)
	if !ok {
		return
	}
	mappings, ok := sites.params[ent]
	if !ok {
		return
	}
	l.rewireProjNumbering(n, mappings)
}

// lowerCall implements the Call half: doubleword arguments are expanded
// into two consecutive operands in the rebuilt call, and doubleword results
// get the same deferred low/high Proj treatment as Start's parameters.
// Calls this pass introduced for intrinsic emulation are already in their
// final lowered form and are left untouched; calls through an unresolved
// (indirect, or non-method) callee are left untouched too, since there is
// no static parameter list to map against.
func (l *lowerer) lowerCall(n graph.Id) {
	if l.skipRewrite[n] {
		return
	}
	node := l.g.Node(n)
	attr, ok := node.Attr().(graph.CallAttr)
	if !ok || attr.Callee == nil {
		return
	}
	callee, ok := attr.Callee.(*typeent.Entity)
	if !ok || callee.Type == nil {
		return
	}
	sites, ok := l.params.Context.(*callSiteInfo)
	if !ok {
		return
	}
	pm, ok := sites.params[callee]
	if !ok {
		return
	}

	origArgs := node.Ins()[1:]
	for i, m := range pm {
		if m.Split && !l.pairReady(origArgs[i]) {
			l.enqueue(n)
			return
		}
	}

	newIns := []graph.Id{node.In(0)}
	for i, m := range pm {
		if m.Split {
			ap := l.pairFor(origArgs[i])
			newIns = append(newIns, ap.Lo, ap.Hi)
		} else {
			newIns = append(newIns, origArgs[i])
		}
	}
	newCall := l.g.NewNode(graph.OpCall, node.Block(), node.Mode(), newIns, graph.CallAttr{Callee: callee})
	l.skipRewrite[newCall] = true
	l.g.ReplaceBy(n, newCall)

	if rm, ok := sites.results[callee]; ok {
		l.rewireProjNumbering(newCall, rm)
	}
}

// lowerReturn implements the Return half: the current graph's own entity's
// result list tells us which of Return's value operands are doubleword and
// need expanding into two consecutive operands.
func (l *lowerer) lowerReturn(n graph.Id) {
	if l.skipRewrite[n] {
		return
	}
	ent, ok := l.g.Entity().(*typeent.Entity)
	if !ok || ent == nil || ent.Type == nil {
		return
	}
	sites, ok := l.params.Context.(*callSiteInfo)
	if !ok {
		return
	}
	rm, ok := sites.results[ent]
	if !ok {
		return
	}
	node := l.g.Node(n)
	origVals := node.Ins()[1:]
	for i, m := range rm {
		if m.Split && !l.pairReady(origVals[i]) {
			l.enqueue(n)
			return
		}
	}

	newIns := []graph.Id{node.In(0)}
	for i, m := range rm {
		if m.Split {
			vp := l.pairFor(origVals[i])
			newIns = append(newIns, vp.Lo, vp.Hi)
		} else {
			newIns = append(newIns, origVals[i])
		}
	}
	newReturn := l.g.NewNode(graph.OpReturn, node.Block(), node.Mode(), newIns, nil)
	l.skipRewrite[newReturn] = true
	l.g.ReplaceBy(n, newReturn)
}

// lowerProj is deliberately a no-op: every Proj this pass needs to rewrite
// is handled from its producer's side (Load, Store, the intrinsic-call
// handlers, Start, Call), since only the producer knows whether a given Num
// was split and where the replacement pair's halves live.
func (l *lowerer) lowerProj(n graph.Id) {}

// lowerSel covers compound-member selection. Sel itself always produces a
// reference (mode P) to the member, never the member's value, so a
// doubleword member is only ever seen through the Load/Store that reads or
// writes via that reference — those already go through lowerLoad/lowerStore.
// Splitting a doubleword struct field into two half-width fields at the
// type/layout level is out of scope here.
func (l *lowerer) lowerSel(n graph.Id) {}

// lowerCond never sees a doubleword value directly: its selector is always
// the Bu-moded result of a (by now already-lowered) Cmp.
func (l *lowerer) lowerCond(n graph.Id) {}

// checkASM implements the ASM row's hard failure: a doubleword operand or
// result on inline assembly can't be mechanically split, since the pass has
// no way to know what the assembly text does with it.
func (l *lowerer) checkASM(n graph.Id) {
	if l.asmErr != nil {
		return
	}
	node := l.g.Node(n)
	if l.isDoubleword(node.Mode()) {
		l.asmErr = ErrASMOperand
		return
	}
	for _, in := range node.Ins() {
		if l.isDoubleword(l.g.Node(in).Mode()) {
			l.asmErr = ErrASMOperand
			return
		}
	}
}
