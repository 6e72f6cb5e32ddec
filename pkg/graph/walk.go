package graph

// WalkFunc is a pre/post-order walk callback. env is threaded through
// unchanged so callers can accumulate state without a closure per node.
type WalkFunc func(g *Graph, n Id, env interface{})

// Walk performs a combined pre/post-order, input-index-ordered walk
// starting at g.End(), calling pre before descending into n's inputs and
// post after. Each node is visited at most once per walk (§4.1), tracked
// via a dedicated visited epoch so callers don't need to reserve
// ResVisited themselves — Walk reserves it only if it isn't already held.
func Walk(g *Graph, pre, post WalkFunc, env interface{}) {
	ownsVisited := !g.Reserved(ResVisited)
	if ownsVisited {
		g.Reserve(ResVisited)
		defer g.Free(ResVisited)
	}
	g.NextVisited()
	walkNode(g, g.End(), pre, post, env)
}

func walkNode(g *Graph, n Id, pre, post WalkFunc, env interface{}) {
	if n < 0 || g.IsVisited(n) {
		return
	}
	g.MarkVisited(n)
	if pre != nil {
		pre(g, n, env)
	}
	node := g.Node(n)
	if node.block >= 0 {
		walkNode(g, node.block, pre, post, env)
	}
	for _, in := range node.ins {
		walkNode(g, in, pre, post, env)
	}
	if post != nil {
		post(g, n, env)
	}
}

// WalkBlocks walks only Block nodes, reachable via control-flow inputs from
// End backward through Return/Call/Cond predecessors, in predecessor-index
// order. Dominance and loop construction do not use it; they follow
// Successors/Preds instead.
func WalkBlocks(g *Graph, visit func(b Id)) {
	ownsVisited := !g.Reserved(ResVisited)
	if ownsVisited {
		g.Reserve(ResVisited)
		defer g.Free(ResVisited)
	}
	g.NextVisited()
	var walk func(Id)
	walk = func(b Id) {
		if b < 0 || g.IsVisited(b) {
			return
		}
		g.MarkVisited(b)
		node := g.Node(b)
		for _, in := range node.ins {
			pred := g.Node(in)
			walk(pred.block)
		}
		visit(b)
	}
	walk(g.End())
}

// Reachable returns the set of all node ids reachable from End, as built by
// a full Walk. Passes that collect garbage (§3 "Lifecycle") call this and
// drop everything not present.
func Reachable(g *Graph) map[Id]bool {
	seen := make(map[Id]bool, g.NumNodes())
	Walk(g, func(_ *Graph, n Id, _ interface{}) { seen[n] = true }, nil, nil)
	return seen
}
