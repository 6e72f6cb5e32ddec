package mode

import "math/big"

// Relation is a comparison relation between two tarvals, as produced by a
// Cmp node's attribute payload.
type Relation uint8

const (
	RelEqual Relation = 1 << iota
	RelLess
	RelGreater
	RelUnordered // reserved for float NaN results; unused by the int algebra here
)

func (r Relation) String() string {
	switch r {
	case RelEqual:
		return "=="
	case RelEqual | RelLess | RelGreater:
		return "!="
	case RelLess:
		return "<"
	case RelLess | RelEqual:
		return "<="
	case RelGreater:
		return ">"
	case RelGreater | RelEqual:
		return ">="
	default:
		return "?"
	}
}

// Tarval is a mode-tagged constant value. Integers of any width, including
// doubleword widths, are held in a big.Int so arithmetic is exact before
// truncation to the mode's bit width.
type Tarval struct {
	Mode Mode
	i    *big.Int // KindInt
	f    float64  // KindFloat
	b    bool     // KindBoolean
}

// Int builds an integer tarval of mode m, truncating/sign-extending v to
// m's bit width.
func Int(m Mode, v int64) Tarval {
	t := Tarval{Mode: m, i: big.NewInt(v)}
	return t.truncated()
}

// FromBig builds an integer tarval from an arbitrary-precision value,
// truncating to the mode's width.
func FromBig(m Mode, v *big.Int) Tarval {
	return Tarval{Mode: m, i: new(big.Int).Set(v)}.truncated()
}

// Float builds a float tarval.
func Float(m Mode, v float64) Tarval { return Tarval{Mode: m, f: v} }

// Bool builds a boolean tarval.
func Bool(v bool) Tarval { return Tarval{Mode: Bu, b: v} }

func (t Tarval) mask() *big.Int {
	one := big.NewInt(1)
	width := big.NewInt(int64(t.Mode.Bits()))
	return new(big.Int).Sub(new(big.Int).Lsh(one, uint(width.Int64())), one)
}

// truncated returns t with its integer value masked/sign-extended to
// Mode.Bits(), matching two's-complement wraparound.
func (t Tarval) truncated() Tarval {
	if t.Mode.kind != KindInt {
		return t
	}
	v := new(big.Int).And(t.i, t.mask())
	if t.Mode.Signed() {
		signBit := new(big.Int).Lsh(big.NewInt(1), uint(t.Mode.Bits()-1))
		if v.Cmp(signBit) >= 0 {
			full := new(big.Int).Lsh(big.NewInt(1), uint(t.Mode.Bits()))
			v.Sub(v, full)
		}
	}
	return Tarval{Mode: t.Mode, i: v}
}

// Int64 returns the integer value; only valid for KindInt tarvals.
func (t Tarval) Int64() int64 { return t.i.Int64() }

// Big returns the arbitrary-precision integer value.
func (t Tarval) Big() *big.Int { return new(big.Int).Set(t.i) }

// IsNull reports whether t is the additive identity of its mode.
func (t Tarval) IsNull() bool {
	switch t.Mode.kind {
	case KindInt:
		return t.i.Sign() == 0
	case KindFloat:
		return t.f == 0
	case KindBoolean:
		return !t.b
	default:
		return false
	}
}

func (t Tarval) binop(o Tarval, f func(a, b *big.Int) *big.Int) Tarval {
	return Tarval{Mode: t.Mode, i: f(t.i, o.i)}.truncated()
}

func (t Tarval) Add(o Tarval) Tarval { return t.binop(o, func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }) }
func (t Tarval) Sub(o Tarval) Tarval { return t.binop(o, func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }) }
func (t Tarval) Mul(o Tarval) Tarval { return t.binop(o, func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }) }

// Div and Mod implement truncated (toward-zero) integer division, matching
// the target architecture's DIV instruction rather than Go's floored %.
func (t Tarval) Div(o Tarval) Tarval {
	return t.binop(o, func(a, b *big.Int) *big.Int { q, _ := quoRem(a, b); return q })
}
func (t Tarval) Mod(o Tarval) Tarval {
	return t.binop(o, func(a, b *big.Int) *big.Int { _, r := quoRem(a, b); return r })
}
func quoRem(a, b *big.Int) (*big.Int, *big.Int) {
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(a, b, r)
	return q, r
}

func (t Tarval) And(o Tarval) Tarval { return t.binop(o, func(a, b *big.Int) *big.Int { return new(big.Int).And(a, b) }) }
func (t Tarval) Or(o Tarval) Tarval  { return t.binop(o, func(a, b *big.Int) *big.Int { return new(big.Int).Or(a, b) }) }
func (t Tarval) Eor(o Tarval) Tarval { return t.binop(o, func(a, b *big.Int) *big.Int { return new(big.Int).Xor(a, b) }) }

func (t Tarval) Not() Tarval   { return Tarval{Mode: t.Mode, i: new(big.Int).Not(t.i)}.truncated() }
func (t Tarval) Minus() Tarval { return Tarval{Mode: t.Mode, i: new(big.Int).Neg(t.i)}.truncated() }

func (t Tarval) Shl(n uint) Tarval { return Tarval{Mode: t.Mode, i: new(big.Int).Lsh(t.i, n)}.truncated() }

// Shr is the logical (unsigned) right shift.
func (t Tarval) Shr(n uint) Tarval {
	u := new(big.Int).And(t.i, t.mask())
	return Tarval{Mode: t.Mode, i: new(big.Int).Rsh(u, n)}.truncated()
}

// Shrs is the arithmetic (sign-propagating) right shift.
func (t Tarval) Shrs(n uint) Tarval {
	return Tarval{Mode: t.Mode, i: new(big.Int).Rsh(t.i, n)}.truncated()
}

// Cmp returns the relation of t to o: RelEqual, RelLess or RelGreater
// combined as appropriate, mirroring the Relation bitset.
func (t Tarval) Cmp(o Tarval) Relation {
	switch t.Mode.kind {
	case KindFloat:
		switch {
		case t.f < o.f:
			return RelLess
		case t.f > o.f:
			return RelGreater
		default:
			return RelEqual
		}
	default:
		switch t.i.Cmp(o.i) {
		case -1:
			return RelLess
		case 1:
			return RelGreater
		default:
			return RelEqual
		}
	}
}

// Convert reproduces §4.2 Const's split semantics and the general narrowing
// rules of Conv: an integer tarval converted to a narrower mode truncates
// (optionally sign-extending on widen); converted between int/float/bool
// follows the straightforward numeric coercions.
func (t Tarval) Convert(to Mode) Tarval {
	switch {
	case t.Mode.kind == KindInt && to.kind == KindInt:
		return Tarval{Mode: to, i: new(big.Int).Set(t.i)}.truncated()
	case t.Mode.kind == KindInt && to.kind == KindFloat:
		f := new(big.Float).SetInt(t.i)
		v, _ := f.Float64()
		return Tarval{Mode: to, f: v}
	case t.Mode.kind == KindFloat && to.kind == KindInt:
		bi, _ := big.NewFloat(t.f).Int(nil)
		return Tarval{Mode: to, i: bi}.truncated()
	case to.kind == KindBoolean:
		return Bool(!t.IsNull())
	default:
		return Tarval{Mode: to, i: t.i, f: t.f, b: t.b}
	}
}

// SplitLow returns the low half (mode Lu) of a doubleword tarval.
func (t Tarval) SplitLow(q Quad) Tarval {
	return t.Convert(q.Lu)
}

// SplitHigh returns the high half of a doubleword tarval: the value
// arithmetic-shifted right by half the width, then converted to
// `highMode`, the half-width mode the caller picks (Ls or Lu); Convert
// truncates to highMode's width and sign-extends when highMode is signed.
func (t Tarval) SplitHigh(q Quad, highMode Mode) Tarval {
	shifted := t.Shrs(uint(q.Lu.Bits()))
	return shifted.Convert(highMode)
}

// JoinHalves reassembles a doubleword tarval from its low/high halves.
func JoinHalves(lo, hi Tarval, full Mode) Tarval {
	loBig := new(big.Int).And(lo.i, lo.mask())
	hiBig := new(big.Int).Lsh(hi.i, uint(lo.Mode.Bits()))
	return FromBig(full, new(big.Int).Or(hiBig, loBig))
}
