package gocalculus_test

import (
	"errors"
	"math"
	"testing"

	gc "github.com/njchilds90/gocalculus"
)

func TestEvaluate_Values(t *testing.T) {
	cases := []struct {
		in   string
		x    float64
		want float64
	}{
		{"x^2", 3, 9},
		{"abs(x)", -2, 2},
		{"sqrt(x)", 0, 0},
		{"sqrt(x)", 9, 3},
		{"0^2", 0, 0},
		{"x^0", 0, 1},
		{"(-2)^3", 0, -8},
		{"x^(1/2)", 4, 2},
		{"ln(e)", 0, 1},
		{"exp(0)", 0, 1},
		{"cos(pi)", 0, -1},
		{"tan(0)", 0, 0},
		{"1/x", 4, 0.25},
	}
	for _, c := range cases {
		got, err := gc.Evaluate(gc.MustParse(c.in), c.x)
		if err != nil {
			t.Errorf("%q at %g: unexpected error %v", c.in, c.x, err)
			continue
		}
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("%q at %g = %v, want %v", c.in, c.x, got, c.want)
		}
	}
}

func TestEvaluate_DomainErrors(t *testing.T) {
	cases := []struct {
		in     string
		x      float64
		reason string
	}{
		{"1/x", 0, "division by zero"},
		{"1/(x-1)", 1, "division by zero"},
		{"ln(x)", 0, "argument must be positive"},
		{"log(x)", -1, "argument must be positive"},
		{"sqrt(x)", -1, "argument must be non-negative"},
		{"x^(1/3)", -8, "negative base with non-integer exponent"},
		{"x^-1", 0, "division by zero"},
		{"exp(x)", 1000, "non-finite result"},
		{"x*x", 1e200, "non-finite result"},
		{"sqrt(1/x)", 0, "division by zero"},
	}
	for _, c := range cases {
		_, err := gc.Evaluate(gc.MustParse(c.in), c.x)
		var de *gc.DomainError
		if !errors.As(err, &de) {
			t.Errorf("%q at %g: want *DomainError, got %v", c.in, c.x, err)
			continue
		}
		if de.Reason != c.reason {
			t.Errorf("%q at %g: reason %q, want %q", c.in, c.x, de.Reason, c.reason)
		}
		if de.X != c.x {
			t.Errorf("%q: error reports x=%g, want %g", c.in, de.X, c.x)
		}
		if !gc.IsDomainError(err) {
			t.Errorf("IsDomainError(%v) = false", err)
		}
	}
}

func TestEvaluate_NeverReturnsNonFinite(t *testing.T) {
	exprs := []string{"1/x", "ln(x)", "tan(x)", "exp(x^2)", "x^x", "sqrt(x)/x", "1/sin(x)"}
	xs := []float64{-1e308, -50, -1, -1e-300, 0, 1e-300, 1, math.Pi / 2, 50, 1e308}
	for _, in := range exprs {
		e := gc.MustParse(in)
		for _, x := range xs {
			v, err := e.Eval(x)
			if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
				t.Errorf("%q at %g returned %v without error", in, x, v)
			}
		}
	}
}

func TestDomainError_Message(t *testing.T) {
	_, err := gc.MustParse("1/x").Eval(0)
	if err == nil || err.Error() != "domain error in / at x=0: division by zero" {
		t.Errorf("unexpected message: %v", err)
	}
}
