package gocalculus

import "fmt"

// ============================================================
// Differentiation
// ============================================================

// Differentiate returns d/dx of e as a new, simplified tree. It never fails
// and never modifies e.
func Differentiate(e Expr) Expr { return e.Diff().Simplify() }

// DiffN returns the n-th derivative of e. DiffN(e, 0) is a copy of e.
func DiffN(e Expr, n int) Expr {
	out := e.Clone()
	for i := 0; i < n; i++ {
		out = Differentiate(out)
	}
	return out
}

// DiffNBounded is DiffN with a node budget. It stops with
// ErrExpressionTooLarge as soon as an unsimplified derivative has more than
// maxNodes nodes.
func DiffNBounded(e Expr, n, maxNodes int) (Expr, error) {
	out := e.Clone()
	for i := 1; i <= n; i++ {
		raw := out.Diff()
		if size := Size(raw); size > maxNodes {
			return nil, fmt.Errorf("%w: order %d derivative has %d nodes (limit %d)", ErrExpressionTooLarge, i, size, maxNodes)
		}
		out = raw.Simplify()
	}
	return out, nil
}

// Diff methods return raw (unsimplified) derivative trees. Operands reused
// in the result are cloned so the output shares no nodes with the input.

func (n *Num) Diff() Expr { return N(0) }

func (v *Var) Diff() Expr { return N(1) }

func (n *Neg) Diff() Expr { return NegOf(n.arg.Diff()) }

func (b *BinOp) Diff() Expr {
	u, v := b.left, b.right
	switch b.op {
	case OpAdd:
		return AddOf(u.Diff(), v.Diff())
	case OpSub:
		return SubOf(u.Diff(), v.Diff())
	case OpMul:
		return AddOf(MulOf(u.Diff(), v.Clone()), MulOf(u.Clone(), v.Diff()))
	case OpDiv:
		return DivOf(
			SubOf(MulOf(u.Diff(), v.Clone()), MulOf(u.Clone(), v.Diff())),
			PowOf(v.Clone(), N(2)),
		)
	}
	return powDiff(u, v)
}

// powDiff differentiates u^v. A variable-free exponent takes the power rule,
// a variable-free base the exponential rule, anything else the general
// u^v * (v'*ln(u) + v*u'/u).
func powDiff(u, v Expr) Expr {
	switch {
	case !hasVar(v):
		return MulOf(
			MulOf(v.Clone(), PowOf(u.Clone(), SubOf(v.Clone(), N(1)))),
			u.Diff(),
		)
	case !hasVar(u):
		return MulOf(MulOf(PowOf(u.Clone(), v.Clone()), LnOf(u.Clone())), v.Diff())
	}
	return MulOf(
		PowOf(u.Clone(), v.Clone()),
		AddOf(
			MulOf(v.Diff(), LnOf(u.Clone())),
			DivOf(MulOf(v.Clone(), u.Diff()), u.Clone()),
		),
	)
}

func (c *Call) Diff() Expr {
	u := c.arg
	var outer Expr
	switch c.fn {
	case FnSin:
		outer = CosOf(u.Clone())
	case FnCos:
		outer = NegOf(SinOf(u.Clone()))
	case FnTan:
		outer = DivOf(N(1), PowOf(CosOf(u.Clone()), N(2)))
	case FnExp:
		outer = ExpOf(u.Clone())
	case FnLn:
		outer = DivOf(N(1), u.Clone())
	case FnSqrt:
		outer = DivOf(N(1), MulOf(N(2), SqrtOf(u.Clone())))
	case FnAbs:
		outer = DivOf(u.Clone(), AbsOf(u.Clone()))
	}
	return MulOf(outer, u.Diff())
}
