package dw

import "github.com/pkg/errors"

// Sentinel errors for the "unsupported construct" and "internal invariant
// break" categories of spec.md §7 — both fatal, never retried.
var (
	ErrASMOperand         = errors.New("dw: doubleword operand or result on an ASM node is unsupported")
	ErrModeWidthCollision = errors.New("dw: multiple doubleword modes of the same bit width")
	ErrStalledDrain       = errors.New("dw: work deque drained with nodes still not ready")
	ErrUnexpectedProj     = errors.New("dw: unexpected Proj number on a lowered tuple")
)
