package gocalculus

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// ============================================================
// Critical points
// ============================================================

// PointKind classifies a stationary point by the sign of f''.
type PointKind int

const (
	Minimum PointKind = iota
	Maximum
	Inflection
)

var kindNames = [...]string{Minimum: "minimum", Maximum: "maximum", Inflection: "inflection"}

func (k PointKind) String() string { return kindNames[k] }

func (k PointKind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func (k *PointKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for i, name := range kindNames {
		if name == s {
			*k = PointKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown point kind %q", s)
}

// CriticalPoint is a zero of f' in the scanned range.
type CriticalPoint struct {
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Kind PointKind `json:"type"`
}

// FindCriticalPoints returns the stationary points of f in [start, end],
// sorted by x. Roots of f' are isolated numerically: a uniform grid is
// scanned for sign changes, each bracket is refined by bisection, and
// touching zeros (no sign change) are caught by a golden-section search on
// |f'|. Candidates that fail to converge, or where f or f'' are undefined,
// are dropped.
func FindCriticalPoints(f Expr, start, end float64, opts Options) ([]CriticalPoint, error) {
	return findCriticalPoints(f, start, end, opts, nil)
}

// dropFunc observes candidates that were discarded.
type dropFunc func(x float64, err error)

func findCriticalPoints(f Expr, start, end float64, opts Options, onDrop dropFunc) ([]CriticalPoint, error) {
	if !isFinite(start) || !isFinite(end) || start > end {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidBounds, start, end)
	}
	opts = opts.withDefaults()
	if onDrop == nil {
		onDrop = func(float64, error) {}
	}
	d1 := Differentiate(f)
	if _, constant := d1.(*Num); constant {
		return nil, nil
	}
	d2 := Differentiate(d1)

	roots := derivativeRoots(d1, start, end, opts, onDrop)
	points := make([]CriticalPoint, 0, len(roots))
	for _, x0 := range roots {
		y, err := f.Eval(x0)
		if err != nil {
			onDrop(x0, err)
			continue
		}
		curv, err := d2.Eval(x0)
		if err != nil {
			onDrop(x0, err)
			continue
		}
		kind := Inflection
		switch {
		case curv > opts.ClassifyTolerance:
			kind = Minimum
		case curv < -opts.ClassifyTolerance:
			kind = Maximum
		}
		points = append(points, CriticalPoint{X: x0, Y: y, Kind: kind})
	}
	return points, nil
}

type gridSample struct {
	x, y float64
	ok   bool
}

// derivativeRoots returns the sorted, merged zeros of d in [start, end].
func derivativeRoots(d Expr, start, end float64, opts Options, onDrop dropFunc) []float64 {
	n := opts.RootGrid
	if start == end {
		n = 0
	}
	grid := make([]gridSample, n+1)
	for i := range grid {
		x := start
		if n > 0 {
			x = start + (end-start)*float64(i)/float64(n)
		}
		y, err := d.Eval(x)
		grid[i] = gridSample{x: x, y: y, ok: err == nil}
	}

	var roots []float64
	for i, g := range grid {
		if g.ok && g.y == 0 {
			roots = append(roots, g.x)
		}
		if i == 0 {
			continue
		}
		prev := grid[i-1]
		if !prev.ok || !g.ok {
			continue
		}
		if prev.y*g.y < 0 {
			x0, err := bisect(d, prev, g, opts)
			if err != nil {
				onDrop(x0, err)
				continue
			}
			roots = append(roots, x0)
		}
		if i+1 < len(grid) && touching(prev, g, grid[i+1]) {
			if x0, ok := goldenMinAbs(d, prev.x, grid[i+1].x, opts); ok {
				roots = append(roots, x0)
			}
		}
	}
	return mergeRoots(roots, opts.RootMergeDistance)
}

// bisect refines a sign-change bracket. A bracket whose refined |d| does not
// shrink below its endpoints straddles a pole or jump, not a zero.
func bisect(d Expr, lo, hi gridSample, opts Options) (float64, error) {
	a, b := lo.x, hi.x
	fa := lo.y
	for i := 0; i < opts.RootMaxIterations; i++ {
		m := a + (b-a)/2
		fm, err := d.Eval(m)
		if err != nil {
			return m, fmt.Errorf("%w: %v", ErrUnsolvable, err)
		}
		if fm == 0 {
			return m, nil
		}
		if fa*fm < 0 {
			b = m
		} else {
			a, fa = m, fm
		}
		if b-a <= opts.RootTolerance {
			m = a + (b-a)/2
			fm, err = d.Eval(m)
			if err != nil {
				return m, fmt.Errorf("%w: %v", ErrUnsolvable, err)
			}
			if math.Abs(fm) <= opts.RootResidual || math.Abs(fm) < math.Min(math.Abs(lo.y), math.Abs(hi.y)) {
				return m, nil
			}
			return m, fmt.Errorf("%w: |f'| = %g at bracket end", ErrUnsolvable, math.Abs(fm))
		}
	}
	return a + (b-a)/2, fmt.Errorf("%w: %d iterations", ErrUnsolvable, opts.RootMaxIterations)
}

// touching reports a local minimum of |d| at mid with no sign change around
// it: the signature of a zero that d touches without crossing.
func touching(prev, mid, next gridSample) bool {
	if !prev.ok || !mid.ok || !next.ok || mid.y == 0 {
		return false
	}
	if prev.y*mid.y <= 0 || mid.y*next.y <= 0 {
		return false
	}
	am := math.Abs(mid.y)
	return am <= math.Abs(prev.y) && am <= math.Abs(next.y)
}

var invPhi = (math.Sqrt(5) - 1) / 2

// goldenMinAbs minimizes |d| over [a, b] and reports whether the minimum is
// a zero.
func goldenMinAbs(d Expr, a, b float64, opts Options) (float64, bool) {
	g := func(x float64) float64 {
		v, err := d.Eval(x)
		if err != nil {
			return math.Inf(1)
		}
		return math.Abs(v)
	}
	c := b - invPhi*(b-a)
	e := a + invPhi*(b-a)
	gc, ge := g(c), g(e)
	for i := 0; i < opts.RootMaxIterations && b-a > opts.RootTolerance; i++ {
		if gc < ge {
			b, e, ge = e, c, gc
			c = b - invPhi*(b-a)
			gc = g(c)
		} else {
			a, c, gc = c, e, ge
			e = a + invPhi*(b-a)
			ge = g(e)
		}
	}
	x := a + (b-a)/2
	return x, g(x) <= opts.TangentTolerance
}

func mergeRoots(roots []float64, dist float64) []float64 {
	if len(roots) == 0 {
		return nil
	}
	sort.Float64s(roots)
	out := roots[:1]
	for _, r := range roots[1:] {
		if r-out[len(out)-1] > dist {
			out = append(out, r)
		}
	}
	return out
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
