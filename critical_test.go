package gocalculus_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	gc "github.com/njchilds90/gocalculus"
)

func TestFindCriticalPoints(t *testing.T) {
	cases := []struct {
		name       string
		f          string
		start, end float64
		want       []gc.CriticalPoint
	}{
		{
			name: "parabola", f: "x^2 - 4x + 3", start: -1, end: 5,
			want: []gc.CriticalPoint{{X: 2, Y: -1, Kind: gc.Minimum}},
		},
		{
			name: "cubic", f: "x^3 - 3x", start: -3, end: 3,
			want: []gc.CriticalPoint{
				{X: -1, Y: 2, Kind: gc.Maximum},
				{X: 1, Y: -2, Kind: gc.Minimum},
			},
		},
		{
			name: "flat inflection on grid", f: "x^3", start: -1, end: 1,
			want: []gc.CriticalPoint{{X: 0, Y: 0, Kind: gc.Inflection}},
		},
		{
			name: "flat inflection between grid points", f: "(x-1)^3", start: -1, end: 5,
			want: []gc.CriticalPoint{{X: 1, Y: 0, Kind: gc.Inflection}},
		},
		{
			name: "sine", f: "sin(x)", start: 0, end: 7,
			want: []gc.CriticalPoint{
				{X: math.Pi / 2, Y: 1, Kind: gc.Maximum},
				{X: 3 * math.Pi / 2, Y: -1, Kind: gc.Minimum},
			},
		},
		{name: "pole", f: "1/x", start: -1, end: 1},
		{name: "kink", f: "abs(x)", start: -1, end: 1.1},
		{name: "constant", f: "5", start: -1, end: 1},
		{name: "line", f: "3x + 1", start: -1, end: 1},
	}
	approx := cmpopts.EquateApprox(0, 1e-6)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := gc.FindCriticalPoints(gc.MustParse(c.f), c.start, c.end, gc.DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(c.want, got, approx, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("critical points of %s mismatch (-want +got):\n%s", c.f, diff)
			}
		})
	}
}

func TestFindCriticalPoints_SortedAndInRange(t *testing.T) {
	pts, err := gc.FindCriticalPoints(gc.MustParse("sin(3x) + x/2"), -5, 5, gc.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) == 0 {
		t.Fatal("expected stationary points")
	}
	for i, p := range pts {
		if p.X < -5 || p.X > 5 {
			t.Errorf("point %d at %g is outside the range", i, p.X)
		}
		if i > 0 && p.X <= pts[i-1].X {
			t.Errorf("points not strictly increasing: %g then %g", pts[i-1].X, p.X)
		}
	}
}

func TestFindCriticalPoints_InvalidBounds(t *testing.T) {
	f := gc.MustParse("x^2")
	for _, b := range [][2]float64{{1, -1}, {math.NaN(), 1}, {0, math.Inf(1)}} {
		_, err := gc.FindCriticalPoints(f, b[0], b[1], gc.DefaultOptions())
		if !errors.Is(err, gc.ErrInvalidBounds) {
			t.Errorf("[%g, %g]: want ErrInvalidBounds, got %v", b[0], b[1], err)
		}
	}
}

func TestPointKind_JSON(t *testing.T) {
	b, err := json.Marshal(gc.CriticalPoint{X: 1, Y: 2, Kind: gc.Maximum})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"x":1,"y":2,"type":"maximum"}` {
		t.Errorf("marshal = %s", b)
	}

	var p gc.CriticalPoint
	if err := json.Unmarshal([]byte(`{"x":0,"y":0,"type":"inflection"}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Kind != gc.Inflection {
		t.Errorf("kind = %v, want inflection", p.Kind)
	}
	if err := json.Unmarshal([]byte(`{"type":"saddle"}`), &p); err == nil {
		t.Error("unknown kind should not unmarshal")
	}
}
