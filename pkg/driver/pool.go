package driver

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/oisee/irgraph/pkg/graph"
)

// NamedGraph pairs a graph with the label RunAll reports outcomes and
// checkpoints under.
type NamedGraph struct {
	Label string
	Graph *graph.Graph
}

// Pool runs Pipeline over many graphs concurrently, the driver's analogue
// of the superoptimizer's WorkerPool: a fixed goroutine count pulling from
// a shared channel, one shared Report instead of one shared Table.
type Pool struct {
	NumWorkers int
	Report     *Report

	completed atomic.Int64
	failed    atomic.Int64
}

// NewPool returns a Pool with numWorkers goroutines, defaulting to
// runtime.NumCPU() when numWorkers <= 0.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{NumWorkers: numWorkers, Report: NewReport()}
}

// Stats returns the number of graphs completed and failed so far.
func (p *Pool) Stats() (completed, failed int64) {
	return p.completed.Load(), p.failed.Load()
}

// RunAll runs the pipeline over every graph not already in resume's
// Completed list (resume may be nil to start fresh), appending each
// finished label to resume.Completed as it lands so a caller can
// checkpoint resume to disk between batches. It returns the labels that
// failed with a Go error, paired with that error.
func RunAll(graphs []NamedGraph, params Params, pool *Pool, resume *Checkpoint) map[string]error {
	if resume == nil {
		resume = &Checkpoint{}
	}
	pending := resume.Pending(labelsOf(graphs))
	byLabel := make(map[string]*graph.Graph, len(graphs))
	for _, ng := range graphs {
		byLabel[ng.Label] = ng.Graph
	}

	ch := make(chan string, len(pending))
	for _, l := range pending {
		ch <- l
	}
	close(ch)

	var mu sync.Mutex
	errs := map[string]error{}

	var wg sync.WaitGroup
	for i := 0; i < pool.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for label := range ch {
				g := byLabel[label]
				if err := Pipeline(g, label, params, pool.Report); err != nil {
					pool.failed.Add(1)
					mu.Lock()
					errs[label] = err
					mu.Unlock()
					if params.Log != nil {
						params.Log.Errorw("driver: pipeline failed", "graph", label, "error", err)
					}
					continue
				}
				pool.completed.Add(1)
				mu.Lock()
				resume.Completed = append(resume.Completed, label)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	resume.Outcomes = pool.Report.Outcomes()
	return errs
}

func labelsOf(graphs []NamedGraph) []string {
	labels := make([]string, len(graphs))
	for i, ng := range graphs {
		labels[i] = ng.Label
	}
	return labels
}

// DefaultLogger builds the zap.SugaredLogger the CLI uses when the caller
// does not supply one, matching the teacher's plain production config
// (JSON encoding at Info level) rather than its own development preset.
func DefaultLogger() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	return l.Sugar()
}
