package gocalculus

import "math"

// Evaluate returns the value of e at x. It fails with a *DomainError when e
// has no real value there: division by zero, a negative or zero logarithm
// argument, a negative square root argument, a negative base under a
// non-integer exponent, or any non-finite intermediate result.
func Evaluate(e Expr, x float64) (float64, error) {
	return e.Eval(x)
}

const reasonNonFinite = "non-finite result"

// finite rejects NaN and ±Inf produced by op.
func finite(op string, x, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &DomainError{Op: op, X: x, Reason: reasonNonFinite}
	}
	return v, nil
}

func (n *Num) Eval(float64) (float64, error) { return n.val, nil }

func (v *Var) Eval(x float64) (float64, error) { return x, nil }

func (n *Neg) Eval(x float64) (float64, error) {
	a, err := n.arg.Eval(x)
	if err != nil {
		return 0, err
	}
	return -a, nil
}

func (b *BinOp) Eval(x float64) (float64, error) {
	l, err := b.left.Eval(x)
	if err != nil {
		return 0, err
	}
	r, err := b.right.Eval(x)
	if err != nil {
		return 0, err
	}
	switch b.op {
	case OpAdd:
		return finite("+", x, l+r)
	case OpSub:
		return finite("-", x, l-r)
	case OpMul:
		return finite("*", x, l*r)
	case OpDiv:
		if r == 0 {
			return 0, &DomainError{Op: "/", X: x, Reason: "division by zero"}
		}
		return finite("/", x, l/r)
	}
	return powReal(x, l, r)
}

func powReal(x, base, exp float64) (float64, error) {
	integral := exp == math.Trunc(exp)
	switch {
	case base == 0 && exp < 0:
		return 0, &DomainError{Op: "^", X: x, Reason: "division by zero"}
	case base < 0 && !integral:
		return 0, &DomainError{Op: "^", X: x, Reason: "negative base with non-integer exponent"}
	}
	return finite("^", x, math.Pow(base, exp))
}

func (c *Call) Eval(x float64) (float64, error) {
	a, err := c.arg.Eval(x)
	if err != nil {
		return 0, err
	}
	name := c.fn.String()
	switch c.fn {
	case FnSin:
		return math.Sin(a), nil
	case FnCos:
		return math.Cos(a), nil
	case FnTan:
		return finite(name, x, math.Tan(a))
	case FnExp:
		return finite(name, x, math.Exp(a))
	case FnLn:
		if a <= 0 {
			return 0, &DomainError{Op: name, X: x, Reason: "argument must be positive"}
		}
		return math.Log(a), nil
	case FnSqrt:
		if a < 0 {
			return 0, &DomainError{Op: name, X: x, Reason: "argument must be non-negative"}
		}
		return math.Sqrt(a), nil
	case FnAbs:
		return math.Abs(a), nil
	}
	return 0, &DomainError{Op: name, X: x, Reason: "unknown function"}
}
