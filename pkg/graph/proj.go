package graph

// Proj-number convention shared by every tuple-mode producer (Load, Store,
// Call, DivMod): memory first, then the exception control edge, then
// results — stable across rewrites per spec.md §9's "Proj-number space
// must stay stable across rewrites" note. Call's renumbering in §4.2
// documents the mapping explicitly when a doubleword result is split into
// two consecutive Proj numbers.
const (
	ProjMem       = 0
	ProjException = 1
	ProjRes       = 2 // first result; further results at ProjRes+1, ProjRes+2, ...
)
