package gocalculus

// Point is one sample of a curve.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SamplePoints evaluates f at n evenly spaced abscissas from start to end,
// both included. Abscissas where f is undefined are left out, so the result
// may be shorter than n.
func SamplePoints(f Expr, start, end float64, n int) []Point {
	if n <= 0 {
		return nil
	}
	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		x := start
		switch {
		case i == n-1 && n > 1:
			x = end
		case n > 1:
			x = start + (end-start)*float64(i)/float64(n-1)
		}
		y, err := f.Eval(x)
		if err != nil {
			continue
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	return pts
}
