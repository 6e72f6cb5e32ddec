package graph

// AssureOuts rebuilds the outs (def-use) edges for every node by a full
// walk, and marks them consistent. Passes call this before relying on
// Node.Outs(); §4.1 requires any operation needing outs to "assure" them
// first.
func AssureOuts(g *Graph) {
	if g.HasProperty(PropConsistentOuts) {
		return
	}
	for _, n := range g.nodes {
		n.outs = nil
	}
	Walk(g, func(gr *Graph, id Id, _ interface{}) {
		node := gr.Node(id)
		for pos, in := range node.ins {
			gr.addOut(in, id, pos)
		}
	}, nil, nil)
	g.SetProperty(PropConsistentOuts)
}

// ClearOuts invalidates the outs analysis, as required after any input
// mutation performed without going through SetInput/AppendInput (e.g. a
// bulk rewrite that edits Node.ins directly).
func ClearOuts(g *Graph) {
	g.ClearProperty(PropConsistentOuts)
}
