package dw

import (
	"sync"

	"github.com/oisee/irgraph/pkg/mode"
	"github.com/oisee/irgraph/pkg/typeent"
)

// loweredTypeCache is the process-global original->lowered method type
// cache of spec.md §9; keyed by the original type's pointer identity since
// two distinct *typeent.Type values are never meant to be interchangeable.
var (
	loweredTypeCacheMu sync.Mutex
	loweredTypeCache   = map[*typeent.Type]*typeent.Type{}
)

// LowerMethodType expands every parameter/result of mode Hs/Hu in t into
// two consecutive entries (unsigned-low, signed-or-unsigned-high),
// preserving order, and marks the result "is lowered" (§4.2). Idempotent:
// calling it again on an already-lowered type, or on the same original
// type twice, returns the same cached result.
func LowerMethodType(t *typeent.Type, q mode.Quad) *typeent.Type {
	if t.Lowered {
		return t
	}
	loweredTypeCacheMu.Lock()
	defer loweredTypeCacheMu.Unlock()
	if cached, ok := loweredTypeCache[t]; ok {
		return cached
	}

	lowered := &typeent.Type{
		Kind:    typeent.KindMethod,
		Params:  lowerTypeList(t.Params, q),
		Results: lowerTypeList(t.Results, q),
		Lowered: true,
	}
	loweredTypeCache[t] = lowered
	return lowered
}

func lowerTypeList(list []*typeent.Type, q mode.Quad) []*typeent.Type {
	out := make([]*typeent.Type, 0, len(list))
	for _, p := range list {
		if p.Kind == typeent.KindPrimitive && p.Mode.Equal(q.Hu) {
			out = append(out, typeent.NewPrimitive(q.Lu), typeent.NewPrimitive(q.Lu))
			continue
		}
		if p.Kind == typeent.KindPrimitive && p.Mode.Equal(q.Hs) {
			out = append(out, typeent.NewPrimitive(q.Lu), typeent.NewPrimitive(q.Ls))
			continue
		}
		out = append(out, p)
	}
	return out
}

// callSiteInfo carries the param/result ParamMapping lists computed against
// every method entity's pre-lowering type, threaded through Params.Context
// by LowerProgram so Call/Return/Start lowering can still answer "was
// original index i split, and where did it land" after the entity's own
// Type field has already been overwritten with its lowered form.
type callSiteInfo struct {
	params  map[*typeent.Entity][]ParamMapping
	results map[*typeent.Entity][]ParamMapping
}

// ParamMapping describes where original parameter/result index i landed in
// the lowered type: either unchanged at NewIndex, or split into two
// consecutive entries starting at NewIndex.
type ParamMapping struct {
	NewIndex int
	Split    bool
}

// MapParams returns, for each entry of an original param/result list, its
// placement in the lowered list — used by Call/Return/Start Proj
// renumbering (§4.2's per-opcode policy for those ops).
func MapParams(original []*typeent.Type, q mode.Quad) []ParamMapping {
	mappings := make([]ParamMapping, len(original))
	next := 0
	for i, p := range original {
		mappings[i] = ParamMapping{NewIndex: next}
		if p.Kind == typeent.KindPrimitive && (p.Mode.Equal(q.Hu) || p.Mode.Equal(q.Hs)) {
			mappings[i].Split = true
			next += 2
		} else {
			next++
		}
	}
	return mappings
}
