package gocalculus

// ============================================================
// Simplification
// ============================================================
//
// Simplify is a readability pass: constant folding plus identity
// elimination. Every rewrite preserves the function the tree computes,
// including where it is undefined: folds that would raise a domain error are
// skipped, and rewrites that drop an operand (0*u, u^0) only fire when the
// dropped operand cannot fail.

// Simplify returns a simplified copy of e.
func Simplify(e Expr) Expr { return e.Simplify() }

func (n *Num) Simplify() Expr { return n.Clone() }

func (v *Var) Simplify() Expr { return v.Clone() }

func (n *Neg) Simplify() Expr { return negate(n.arg.Simplify()) }

func (b *BinOp) Simplify() Expr {
	return simplifyBin(b.op, b.left.Simplify(), b.right.Simplify())
}

func (c *Call) Simplify() Expr {
	a := c.arg.Simplify()
	if n, ok := plainNum(a); ok {
		if v, err := callOf(c.fn, n).Eval(0); err == nil {
			return N(v)
		}
	}
	return callOf(c.fn, a)
}

// plainNum returns e as an unnamed constant. Named constants are left alone
// so pi and e survive in display output.
func plainNum(e Expr) (*Num, bool) {
	n, ok := e.(*Num)
	if !ok || n.name != "" {
		return nil, false
	}
	return n, true
}

// negate builds -e from an already simplified e.
func negate(e Expr) Expr {
	if n, ok := plainNum(e); ok {
		return N(-n.val)
	}
	switch v := e.(type) {
	case *Neg:
		return v.arg
	case *BinOp:
		if v.op == OpSub {
			return simplifyBin(OpSub, v.right, v.left)
		}
	}
	return NegOf(e)
}

// simplifyBin applies the rewrite rules to l op r, whose operands are
// already simplified.
func simplifyBin(op Op, l, r Expr) Expr {
	ln, lnum := plainNum(l)
	rn, rnum := plainNum(r)
	if lnum && rnum {
		if v, err := binOf(op, ln, rn).Eval(0); err == nil {
			return N(v)
		}
		return binOf(op, l, r)
	}
	lneg, lIsNeg := l.(*Neg)
	rneg, rIsNeg := r.(*Neg)

	switch op {
	case OpAdd:
		switch {
		case lnum && ln.isZero():
			return r
		case rnum && rn.isZero():
			return l
		case rnum && rn.val < 0:
			return simplifyBin(OpSub, l, N(-rn.val))
		case rIsNeg:
			return simplifyBin(OpSub, l, rneg.arg)
		case lIsNeg:
			return simplifyBin(OpSub, r, lneg.arg)
		}
	case OpSub:
		switch {
		case rnum && rn.isZero():
			return l
		case lnum && ln.isZero():
			return negate(r)
		case rnum && rn.val < 0:
			return simplifyBin(OpAdd, l, N(-rn.val))
		case rIsNeg:
			return simplifyBin(OpAdd, l, rneg.arg)
		case l.Equal(r) && total(l):
			return N(0)
		}
	case OpMul:
		switch {
		case lnum && ln.isZero() && total(r), rnum && rn.isZero() && total(l):
			return N(0)
		case lnum && ln.isOne():
			return r
		case rnum && rn.isOne():
			return l
		case lnum && ln.val == -1:
			return negate(r)
		case rnum && rn.val == -1:
			return negate(l)
		case rnum:
			return simplifyBin(OpMul, r, l)
		case lIsNeg:
			return negate(simplifyBin(OpMul, lneg.arg, r))
		case rIsNeg:
			return negate(simplifyBin(OpMul, l, rneg.arg))
		case l.Equal(r):
			return binOf(OpPow, l, N(2))
		}
		if lnum {
			if m, ok := r.(*BinOp); ok && m.op == OpMul {
				// An overflowing product would turn finite values into Inf.
				if mn, ok := plainNum(m.left); ok && isFinite(ln.val*mn.val) {
					return simplifyBin(OpMul, N(ln.val*mn.val), m.right)
				}
			}
		}
	case OpDiv:
		switch {
		case rnum && rn.isOne():
			return l
		case rnum && rn.val == -1:
			return negate(l)
		case lIsNeg:
			return negate(simplifyBin(OpDiv, lneg.arg, r))
		case rIsNeg:
			return negate(simplifyBin(OpDiv, l, rneg.arg))
		}
	case OpPow:
		switch {
		case rnum && rn.isZero() && total(l):
			return N(1)
		case rnum && rn.isOne():
			return l
		case lnum && ln.isOne() && total(r):
			return N(1)
		}
	}
	return binOf(op, l, r)
}
