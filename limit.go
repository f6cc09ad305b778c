package gocalculus

import (
	"errors"
	"fmt"
	"math"
)

// ============================================================
// Limits
// ============================================================

// Direction selects which side(s) a limit approaches from.
type Direction int

const (
	Both Direction = iota
	FromLeft
	FromRight
)

func (d Direction) String() string {
	switch d {
	case FromLeft:
		return "-"
	case FromRight:
		return "+"
	}
	return "+-"
}

// ParseDirection maps "" (or "+-") to Both, "-" to FromLeft and "+" to
// FromRight.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "+-", "both":
		return Both, nil
	case "-", "left":
		return FromLeft, nil
	case "+", "right":
		return FromRight, nil
	}
	return Both, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// LimitKind says whether a limit is finite, unbounded, or does not exist.
type LimitKind int

const (
	LimitFinite LimitKind = iota
	LimitPosInf
	LimitNegInf
	LimitUndefined
)

// LimitResult is the outcome of Limit. Value is meaningful only for
// LimitFinite.
type LimitResult struct {
	Kind  LimitKind
	Value float64
}

func finiteLimit(v float64) LimitResult { return LimitResult{Kind: LimitFinite, Value: v} }

// Float returns the limit as a float64: the value, ±Inf, or NaN.
func (r LimitResult) Float() float64 {
	switch r.Kind {
	case LimitFinite:
		return r.Value
	case LimitPosInf:
		return math.Inf(1)
	case LimitNegInf:
		return math.Inf(-1)
	}
	return math.NaN()
}

func (r LimitResult) String() string {
	switch r.Kind {
	case LimitFinite:
		return formatFloat(r.Value)
	case LimitPosInf:
		return "inf"
	case LimitNegInf:
		return "-inf"
	}
	return "undefined"
}

func (r LimitResult) LaTeX() string {
	switch r.Kind {
	case LimitFinite:
		return N(r.Value).LaTeX()
	case LimitPosInf:
		return "\\infty"
	case LimitNegInf:
		return "-\\infty"
	}
	return "\\text{undefined}"
}

// Limit approximates the limit of f as x approaches a. Each side is probed
// at a ± h*10^-k (h = max(1, |a|), k = 1..LimitSteps), skipping points where
// f is undefined. A side whose samples grow without bound with a fixed sign
// is ±Inf; otherwise its estimate is the extrapolated term that moved least
// from its predecessor, provided that move is within tolerance. When f(a)
// exists and matches the side estimates it is returned as is. Two-sided
// limits require both sides to agree.
func Limit(f Expr, a float64, dir Direction, opts Options) LimitResult {
	opts = opts.withDefaults()
	if !isFinite(a) {
		return LimitResult{Kind: LimitUndefined}
	}
	direct, derr := f.Eval(a)

	var side LimitResult
	switch dir {
	case FromLeft:
		side = sideLimit(f, a, -1, opts)
	case FromRight:
		side = sideLimit(f, a, 1, opts)
	default:
		left := sideLimit(f, a, -1, opts)
		right := sideLimit(f, a, 1, opts)
		if !agree(left, right, opts.LimitTolerance) {
			return LimitResult{Kind: LimitUndefined}
		}
		side = left
		if left.Kind == LimitFinite {
			side = finiteLimit(snap((left.Value + right.Value) / 2))
		}
	}
	if derr == nil && side.Kind == LimitFinite && near(direct, side.Value, opts.LimitTolerance) {
		return finiteLimit(direct)
	}
	return side
}

func sideLimit(f Expr, a, sign float64, opts Options) LimitResult {
	scale := math.Max(1, math.Abs(a))
	vals := make([]float64, 0, opts.LimitSteps)
	h := 0.1 * scale
	overflow := false
	closest := h
	for k := 0; k < opts.LimitSteps; k++ {
		x := a + sign*h
		closest = h
		h /= 10
		if x == a {
			break
		}
		v, err := f.Eval(x)
		if err == nil {
			vals = append(vals, v)
			continue
		}
		// Past an overflow every closer sample overflows too.
		if overflowed(err) && len(vals) > 0 {
			overflow = true
			break
		}
	}
	if overflow {
		if kind, ok := escaping(vals, opts.DivergenceThreshold); ok {
			return LimitResult{Kind: kind}
		}
	}
	if len(vals) < 2 {
		return LimitResult{Kind: LimitUndefined}
	}
	if kind, ok := divergence(vals, opts.DivergenceThreshold); ok {
		return LimitResult{Kind: kind}
	}
	est := accelerate(vals)
	best, bestStep := 0, math.Inf(1)
	for i := 1; i < len(est); i++ {
		if step := math.Abs(est[i] - est[i-1]); step < bestStep {
			best, bestStep = i, step
		}
	}
	v := est[best]
	if bestStep > opts.LimitTolerance*(1+math.Abs(v)) {
		return LimitResult{Kind: LimitUndefined}
	}
	if vanishing(vals, v, closest, opts.LimitTolerance) {
		return finiteLimit(0)
	}
	return finiteLimit(snap(v))
}

// overflowed reports whether err is a domain error caused by an infinite
// intermediate value rather than by leaving the domain.
func overflowed(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Reason == reasonNonFinite
}

// escaping decides a side whose samples overflowed: the last finite sample
// must already be past threshold and, when it has a predecessor, keep its
// sign and grow.
func escaping(vals []float64, threshold float64) (LimitKind, bool) {
	n := len(vals)
	if n == 0 {
		return 0, false
	}
	last := vals[n-1]
	if math.Abs(last) < threshold {
		return 0, false
	}
	if n >= 2 {
		prev := vals[n-2]
		if (prev > 0) != (last > 0) || math.Abs(prev) >= math.Abs(last) {
			return 0, false
		}
	}
	if last < 0 {
		return LimitNegInf, true
	}
	return LimitPosInf, true
}

// vanishing reports whether the side tends to 0: the raw samples shrink
// toward zero and the estimate v is within an order of magnitude of the
// closest sample or probe offset h. Extrapolating such tails leaves residue
// of that size.
func vanishing(vals []float64, v, h, tol float64) bool {
	n := len(vals)
	if n < 3 || math.Abs(v) > tol {
		return false
	}
	last := math.Abs(vals[n-1])
	peak := math.Max(math.Abs(vals[n-3]), math.Abs(vals[n-2]))
	return last <= peak/2 && math.Abs(v) <= 10*math.Max(last, h)
}

// accelerate applies Aitken's delta-squared process to the probe sequence.
// Offsets shrink geometrically, so the error of a smooth f does too and the
// extrapolated terms settle long before the raw samples lose precision.
// Sequences too short to extrapolate are returned unchanged.
func accelerate(vals []float64) []float64 {
	if len(vals) < 3 {
		return vals
	}
	out := make([]float64, 0, len(vals)-2)
	for i := 2; i < len(vals); i++ {
		d1 := vals[i] - vals[i-1]
		d2 := d1 - (vals[i-1] - vals[i-2])
		v := vals[i]
		if d2 != 0 {
			if a := vals[i] - d1*d1/d2; isFinite(a) {
				v = a
			}
		}
		out = append(out, v)
	}
	if len(out) < 2 {
		return vals
	}
	return out
}

// divergence detects unbounded growth in the tail of vals: either the last
// three (or only two) samples are past threshold with one sign and growing, or the last
// four grow monotonically with one sign and steps that do not contract
// (which also catches logarithmic blow-up).
func divergence(vals []float64, threshold float64) (LimitKind, bool) {
	n := len(vals)
	last := vals[n-1]
	kind := LimitPosInf
	if last < 0 {
		kind = LimitNegInf
	}
	sameSign := func(tail []float64) bool {
		for _, v := range tail {
			if v == 0 || (v > 0) != (last > 0) {
				return false
			}
		}
		return true
	}
	growing := func(tail []float64) bool {
		for i := 1; i < len(tail); i++ {
			if math.Abs(tail[i]) <= math.Abs(tail[i-1]) {
				return false
			}
		}
		return true
	}
	if n >= 2 {
		tail := vals[max(0, n-3):]
		if sameSign(tail) && growing(tail) && math.Abs(last) >= threshold {
			return kind, true
		}
	}
	if n >= 4 {
		tail := vals[n-4:]
		if sameSign(tail) && growing(tail) && math.Abs(last) > 1 {
			steady := true
			for i := 2; i < len(tail); i++ {
				if math.Abs(tail[i]-tail[i-1]) < 0.9*math.Abs(tail[i-1]-tail[i-2]) {
					steady = false
				}
			}
			if steady {
				return kind, true
			}
		}
	}
	return 0, false
}

func agree(l, r LimitResult, tol float64) bool {
	if l.Kind != r.Kind || l.Kind == LimitUndefined {
		return false
	}
	return l.Kind != LimitFinite || near(l.Value, r.Value, tol)
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*(1+math.Max(math.Abs(a), math.Abs(b)))
}

// snap rounds v to 8 decimals when it is already that close, so 0.9999999999
// reports as 1.
func snap(v float64) float64 {
	r := math.Round(v*1e8) / 1e8
	if math.Abs(v-r) <= 1e-9*math.Max(1, math.Abs(v)) {
		return r
	}
	return v
}
