package dw

import (
	"fmt"
	"sync"

	"github.com/oisee/irgraph/pkg/graph"
	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/typeent"
)

// IntrinsicFactory is the caller-provided collaborator that produces the
// entity representing a runtime emulation function for one
// (opcode, input-mode, output-mode) triple (§4.2 "Intrinsic resolution").
// It is the only external collaborator this pass needs, matching spec.md
// §1's "treated as consumers of the graph" boundary for backends.
type IntrinsicFactory interface {
	Intrinsic(op graph.Op, inMode, outMode mode.Mode) *typeent.Entity
}

type intrinsicKey struct {
	op      graph.Op
	inMode  mode.Mode
	outMode mode.Mode
}

// intrinsicCache is the process-global cache spec.md §9 requires ("must be
// initialized on first use and must tolerate repeated lookups without
// duplicate creation"), guarded by a mutex rather than sync.Once since it
// grows one entry per distinct triple rather than being built once.
var (
	intrinsicCacheMu sync.Mutex
	intrinsicCache   = map[intrinsicKey]*typeent.Entity{}
)

func resolveIntrinsic(factory IntrinsicFactory, op graph.Op, inMode, outMode mode.Mode) *typeent.Entity {
	key := intrinsicKey{op, inMode, outMode}
	intrinsicCacheMu.Lock()
	defer intrinsicCacheMu.Unlock()
	if e, ok := intrinsicCache[key]; ok {
		return e
	}
	e := factory.Intrinsic(op, inMode, outMode)
	intrinsicCache[key] = e
	return e
}

// intrinsicName is a human-readable fallback name for a default factory /
// debug logging; production callers supply their own IntrinsicFactory with
// target-specific names (e.g. "__ladd_ll" in §8 scenario 1).
func intrinsicName(op graph.Op, width uint8) string {
	base := map[graph.Op]string{
		graph.OpAdd:   "add",
		graph.OpSub:   "sub",
		graph.OpMul:   "mul",
		graph.OpDiv:   "div",
		graph.OpMod:   "mod",
		graph.OpDivMod: "divmod",
		graph.OpMinus: "neg",
		graph.OpShl:   "shl",
		graph.OpShr:   "shr",
		graph.OpShrs:  "shrs",
		graph.OpConv:  "conv",
	}[op]
	return fmt.Sprintf("__l%s_%d", base, width)
}
