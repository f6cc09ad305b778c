package gocalculus

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ============================================================
// Request-level operations
// ============================================================

// Calculator runs the four request-level operations. It holds only
// immutable settings and is safe for concurrent use.
type Calculator struct {
	opts   Options
	parse  []ParseOption
	logger *zap.Logger
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithOptions replaces the numeric tolerances. Zero fields keep their
// defaults.
func WithOptions(o Options) Option {
	return func(c *Calculator) { c.opts = o.withDefaults() }
}

// WithLogger sets the logger used to report absorbed failures such as
// omitted samples and dropped roots.
func WithLogger(l *zap.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithParseOptions applies opts to every expression the Calculator parses.
func WithParseOptions(opts ...ParseOption) Option {
	return func(c *Calculator) { c.parse = append(c.parse, opts...) }
}

// New returns a Calculator with DefaultOptions and a no-op logger.
func New(opts ...Option) *Calculator {
	c := &Calculator{opts: DefaultOptions(), logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Options returns the effective tolerances.
func (c *Calculator) Options() Options { return c.opts }

// IntegralResult is the response of ComputeIntegral.
type IntegralResult struct {
	Expression      string  `json:"expression"`
	LaTeXExpression string  `json:"latex_expression"`
	Area            float64 `json:"area"`
	ErrorEstimate   float64 `json:"error_estimate"`
	FunctionPoints  []Point `json:"function_points"`
	Error           string  `json:"error,omitempty"`
}

// DerivativeResult is the response of ComputeDerivative.
type DerivativeResult struct {
	Expression       string   `json:"expression"`
	LaTeXExpression  string   `json:"latex_expression"`
	Derivative       string   `json:"derivative"`
	DerivativeLaTeX  string   `json:"derivative_latex"`
	DerivativeValue  *float64 `json:"derivative_value,omitempty"`
	FunctionPoints   []Point  `json:"function_points"`
	DerivativePoints []Point  `json:"derivative_points"`
}

// CriticalPointsResult is the response of ComputeCriticalPoints.
type CriticalPointsResult struct {
	Expression      string          `json:"expression"`
	LaTeXExpression string          `json:"latex_expression"`
	CriticalPoints  []CriticalPoint `json:"critical_points"`
	FunctionPoints  []Point         `json:"function_points"`
}

// LimitResponse is the response of ComputeLimit. LimitValue is set only for
// finite limits; LimitRepr is the number, "inf", "-inf" or "undefined".
type LimitResponse struct {
	Expression      string      `json:"expression"`
	LaTeXExpression string      `json:"latex_expression"`
	LimitValue      *float64    `json:"limit_value,omitempty"`
	LimitRepr       string      `json:"limit_repr"`
	LimitLaTeX      string      `json:"limit_latex"`
	Result          LimitResult `json:"-"`
}

func (c *Calculator) parseExpr(text string) (Expr, error) {
	e, err := Parse(text, c.parse...)
	if err != nil {
		c.logger.Debug("parse failed", zap.String("expression", text), zap.Error(err))
		return nil, err
	}
	return e, nil
}

func checkBounds(start, end float64) error {
	if !isFinite(start) || !isFinite(end) {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidBounds, start, end)
	}
	return nil
}

func (c *Calculator) sample(name string, f Expr, start, end float64) []Point {
	n := c.opts.SamplePoints
	pts := SamplePoints(f, start, end, n)
	if omitted := n - len(pts); omitted > 0 {
		c.logger.Debug("omitted undefined samples",
			zap.String("curve", name),
			zap.String("expression", String(f)),
			zap.Int("omitted", omitted),
			zap.Int("requested", n))
	}
	return pts
}

// ComputeIntegral integrates expr over [start, end] and samples it for
// plotting. A numerically unstable integral is not an error: the best-effort
// area is returned with Error set.
func (c *Calculator) ComputeIntegral(expr string, start, end float64) (*IntegralResult, error) {
	f, err := c.parseExpr(expr)
	if err != nil {
		return nil, err
	}
	if err := checkBounds(start, end); err != nil {
		return nil, err
	}
	res := &IntegralResult{Expression: String(f), LaTeXExpression: f.LaTeX()}

	var (
		g        errgroup.Group
		integral Integral
	)
	g.Go(func() error {
		var err error
		integral, err = Integrate(f, start, end, c.opts)
		return err
	})
	g.Go(func() error {
		res.FunctionPoints = c.sample("function", f, start, end)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Area = integral.Area
	res.ErrorEstimate = integral.ErrorEstimate
	if integral.Warning != nil {
		res.Error = integral.Warning.Error()
		c.logger.Warn("integral is numerically unstable",
			zap.String("expression", res.Expression),
			zap.Float64("start", start),
			zap.Float64("end", end),
			zap.Float64("error_estimate", integral.ErrorEstimate),
			zap.Int("skipped_intervals", integral.Skipped))
	}
	return res, nil
}

// ComputeDerivative differentiates expr symbolically, optionally evaluates
// the derivative at *at, and samples both curves over [*start, *end]
// (DefaultStart..DefaultEnd when either is nil).
func (c *Calculator) ComputeDerivative(expr string, at, start, end *float64) (*DerivativeResult, error) {
	f, err := c.parseExpr(expr)
	if err != nil {
		return nil, err
	}
	lo, hi := c.opts.DefaultStart, c.opts.DefaultEnd
	if start != nil && end != nil {
		lo, hi = *start, *end
	}
	if err := checkBounds(lo, hi); err != nil {
		return nil, err
	}
	if at != nil && !isFinite(*at) {
		return nil, fmt.Errorf("%w: evaluation point %g", ErrInvalidBounds, *at)
	}

	d := Differentiate(f)
	res := &DerivativeResult{
		Expression:      String(f),
		LaTeXExpression: f.LaTeX(),
		Derivative:      String(d),
		DerivativeLaTeX: d.LaTeX(),
	}
	if at != nil {
		if v, err := d.Eval(*at); err == nil {
			res.DerivativeValue = &v
		} else {
			c.logger.Debug("derivative undefined at point",
				zap.String("derivative", res.Derivative),
				zap.Float64("x", *at),
				zap.Error(err))
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		res.FunctionPoints = c.sample("function", f, lo, hi)
		return nil
	})
	g.Go(func() error {
		res.DerivativePoints = c.sample("derivative", d, lo, hi)
		return nil
	})
	_ = g.Wait()
	return res, nil
}

// ComputeCriticalPoints finds and classifies the stationary points of expr
// in [start, end]. Reversed bounds are swapped.
func (c *Calculator) ComputeCriticalPoints(expr string, start, end float64) (*CriticalPointsResult, error) {
	f, err := c.parseExpr(expr)
	if err != nil {
		return nil, err
	}
	if err := checkBounds(start, end); err != nil {
		return nil, err
	}
	if start > end {
		start, end = end, start
	}
	res := &CriticalPointsResult{Expression: String(f), LaTeXExpression: f.LaTeX()}

	onDrop := func(x float64, err error) {
		level := c.logger.Debug
		if !errors.Is(err, ErrUnsolvable) && !IsDomainError(err) {
			level = c.logger.Warn
		}
		level("dropped critical point candidate",
			zap.String("expression", res.Expression),
			zap.Float64("x", x),
			zap.Error(err))
	}

	var g errgroup.Group
	g.Go(func() error {
		pts, err := findCriticalPoints(f, start, end, c.opts, onDrop)
		if err != nil {
			return err
		}
		if pts == nil {
			pts = []CriticalPoint{}
		}
		res.CriticalPoints = pts
		return nil
	})
	g.Go(func() error {
		res.FunctionPoints = c.sample("function", f, start, end)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// ComputeLimit evaluates the limit of expr as x approaches approach.
// direction is "" for two-sided, "+" from the right or "-" from the left.
func (c *Calculator) ComputeLimit(expr string, approach float64, direction string) (*LimitResponse, error) {
	f, err := c.parseExpr(expr)
	if err != nil {
		return nil, err
	}
	dir, err := ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	if !isFinite(approach) {
		return nil, fmt.Errorf("%w: approach point %g", ErrInvalidBounds, approach)
	}

	lim := Limit(f, approach, dir, c.opts)
	res := &LimitResponse{
		Expression:      String(f),
		LaTeXExpression: f.LaTeX(),
		LimitRepr:       lim.String(),
		LimitLaTeX:      lim.LaTeX(),
		Result:          lim,
	}
	if lim.Kind == LimitFinite {
		v := lim.Value
		res.LimitValue = &v
	}
	if lim.Kind == LimitUndefined {
		c.logger.Debug("limit does not exist",
			zap.String("expression", res.Expression),
			zap.Float64("approach", approach),
			zap.Stringer("direction", dir))
	}
	return res, nil
}
