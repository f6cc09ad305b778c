package gocalculus

import "strings"

// ============================================================
// LaTeX rendering
// ============================================================

func (n *Num) LaTeX() string {
	switch n.name {
	case "pi":
		return "\\pi"
	case "e":
		return "e"
	}
	s := formatFloat(n.val)
	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	exp = strings.TrimPrefix(exp, "+")
	exp = strings.TrimLeft(exp, "0")
	if strings.HasPrefix(exp, "-") {
		exp = "-" + strings.TrimLeft(exp[1:], "0")
	}
	return mant + " \\times 10^{" + exp + "}"
}

func (v *Var) LaTeX() string { return v.name }

func (n *Neg) LaTeX() string {
	return "-" + latexWrap(n.arg, latexPrec(n.arg) <= precNeg)
}

func (b *BinOp) LaTeX() string {
	l, r := b.left, b.right
	switch b.op {
	case OpAdd:
		return l.LaTeX() + " + " + latexWrap(r, latexPrec(r) == precNeg)
	case OpSub:
		return l.LaTeX() + " - " + latexWrap(r, latexPrec(r) <= precAdd || latexPrec(r) == precNeg)
	case OpMul:
		ls := latexWrap(l, latexPrec(l) < precMul)
		rs := latexWrap(r, latexPrec(r) < precMul || latexPrec(r) == precNeg)
		if _, lnum := l.(*Num); lnum {
			if _, rnum := r.(*Num); !rnum {
				return ls + " " + rs
			}
		}
		return ls + " \\cdot " + rs
	case OpDiv:
		return "\\frac{" + l.LaTeX() + "}{" + r.LaTeX() + "}"
	}
	return latexWrap(l, latexPrec(l) <= precPow) + "^{" + r.LaTeX() + "}"
}

func (c *Call) LaTeX() string {
	arg := c.arg.LaTeX()
	switch c.fn {
	case FnSqrt:
		return "\\sqrt{" + arg + "}"
	case FnAbs:
		return "\\left|" + arg + "\\right|"
	case FnExp:
		return "e^{" + arg + "}"
	}
	return "\\" + c.fn.String() + "\\left(" + arg + "\\right)"
}

// latexPrec differs from prec where LaTeX notation groups by itself:
// fractions, roots and absolute values never need parentheses, and exp
// renders as a power of e.
func latexPrec(e Expr) int {
	switch v := e.(type) {
	case *BinOp:
		if v.op == OpDiv {
			return precAtom
		}
	case *Call:
		if v.fn == FnExp {
			return precPow
		}
	}
	return e.prec()
}

func latexWrap(e Expr, paren bool) string {
	if paren {
		return "\\left(" + e.LaTeX() + "\\right)"
	}
	return e.LaTeX()
}
