package driver

import (
	"sort"
	"sync"
)

// Outcome is one pass's effect on one graph, the driver's analogue of the
// superoptimizer's Source/Replacement byte-savings rule.
type Outcome struct {
	Graph        string // caller-supplied label, e.g. a function name
	Pass         string
	NodesBefore  int
	NodesAfter   int
	LoopsUnrolled int
	Violations   int
}

// NodesSaved is negative when a pass grows the graph (lowering and
// unrolling both do), which is expected and not itself a failure signal.
func (o Outcome) NodesSaved() int { return o.NodesBefore - o.NodesAfter }

// Report collects every pass Outcome across a pipeline run, guarded by a
// mutex so RunAll's worker goroutines can append concurrently.
type Report struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func NewReport() *Report { return &Report{} }

func (r *Report) Add(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

// Outcomes returns a copy of every recorded outcome, sorted by graph label
// then pass order of insertion (stable).
func (r *Report) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Graph < out[j].Graph })
	return out
}

// Len returns the number of recorded outcomes.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// TotalViolations sums every recorded Violations count, the aggregate
// pass/fail signal cmd/iropt's exit code is derived from.
func (r *Report) TotalViolations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		n += o.Violations
	}
	return n
}
