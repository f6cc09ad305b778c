// Package gocalculus is a calculus engine for single-variable real functions.
//
// Design goals:
//   - Text in, immutable expression tree out (Parse)
//   - One evaluator shared by every numeric routine (Evaluate)
//   - Symbolic derivatives over the tree (Differentiate)
//   - Numeric stationary points, limits and definite integrals with hard
//     iteration caps, so every call finishes in bounded time
//   - Domain failures are values (*DomainError), never panics
package gocalculus

import (
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is a node of an expression tree. The set of implementations is closed:
// *Num, *Var, *Neg, *BinOp and *Call. Trees are never mutated after
// construction; transforms build new trees.
type Expr interface {
	Eval(x float64) (float64, error)
	Diff() Expr
	Simplify() Expr
	Clone() Expr
	Equal(other Expr) bool
	String() string
	LaTeX() string
	prec() int
}

// Binding strength used when printing.
const (
	precAdd = iota + 1
	precMul
	precNeg
	precPow
	precAtom
)

// ============================================================
// Num: float constant
// ============================================================

// Num is a constant. Named constants (pi, e) keep their name for display.
type Num struct {
	val  float64
	name string
}

// N returns the constant v.
func N(v float64) *Num { return &Num{val: v} }

// Pi returns the named constant pi.
func Pi() *Num { return &Num{val: math.Pi, name: "pi"} }

// E returns the named constant e.
func E() *Num { return &Num{val: math.E, name: "e"} }

func (n *Num) Value() float64 { return n.val }
func (n *Num) Name() string   { return n.name }
func (n *Num) Clone() Expr    { c := *n; return &c }
func (n *Num) isZero() bool   { return n.val == 0 }
func (n *Num) isOne() bool    { return n.val == 1 }

func (n *Num) Equal(other Expr) bool {
	o, ok := other.(*Num)
	return ok && n.val == o.val
}

func (n *Num) String() string {
	if n.name != "" {
		return n.name
	}
	return formatFloat(n.val)
}

func (n *Num) prec() int {
	if n.name == "" && math.Signbit(n.val) {
		return precNeg
	}
	return precAtom
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// ============================================================
// Var: the free variable
// ============================================================

// Var is the single free symbol of an expression.
type Var struct{ name string }

// V returns the variable called name.
func V(name string) *Var { return &Var{name: name} }

// X returns the default variable.
func X() *Var { return V(DefaultVariable) }

func (v *Var) Name() string   { return v.name }
func (v *Var) Clone() Expr    { return &Var{name: v.name} }
func (v *Var) String() string { return v.name }
func (v *Var) prec() int      { return precAtom }

func (v *Var) Equal(other Expr) bool {
	o, ok := other.(*Var)
	return ok && v.name == o.name
}

// ============================================================
// Neg: unary minus
// ============================================================

// Neg is -arg.
type Neg struct{ arg Expr }

func NegOf(arg Expr) *Neg { return &Neg{arg: arg} }

func (n *Neg) Arg() Expr   { return n.arg }
func (n *Neg) Clone() Expr { return &Neg{arg: n.arg.Clone()} }
func (n *Neg) prec() int   { return precNeg }

func (n *Neg) Equal(other Expr) bool {
	o, ok := other.(*Neg)
	return ok && n.arg.Equal(o.arg)
}

func (n *Neg) String() string {
	return "-" + wrap(n.arg.String(), n.arg.prec() <= precNeg)
}

// ============================================================
// BinOp: binary arithmetic
// ============================================================

// Op is a binary operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
)

var opSymbols = [...]string{OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpPow: "^"}

func (o Op) String() string { return opSymbols[o] }

func (o Op) prec() int {
	switch o {
	case OpAdd, OpSub:
		return precAdd
	case OpMul, OpDiv:
		return precMul
	}
	return precPow
}

// BinOp is left op right.
type BinOp struct {
	op          Op
	left, right Expr
}

func binOf(op Op, left, right Expr) *BinOp { return &BinOp{op: op, left: left, right: right} }

func AddOf(l, r Expr) *BinOp { return binOf(OpAdd, l, r) }
func SubOf(l, r Expr) *BinOp { return binOf(OpSub, l, r) }
func MulOf(l, r Expr) *BinOp { return binOf(OpMul, l, r) }
func DivOf(l, r Expr) *BinOp { return binOf(OpDiv, l, r) }
func PowOf(l, r Expr) *BinOp { return binOf(OpPow, l, r) }

func (b *BinOp) Op() Op      { return b.op }
func (b *BinOp) Left() Expr  { return b.left }
func (b *BinOp) Right() Expr { return b.right }
func (b *BinOp) prec() int   { return b.op.prec() }

func (b *BinOp) Clone() Expr {
	return &BinOp{op: b.op, left: b.left.Clone(), right: b.right.Clone()}
}

func (b *BinOp) Equal(other Expr) bool {
	o, ok := other.(*BinOp)
	return ok && b.op == o.op && b.left.Equal(o.left) && b.right.Equal(o.right)
}

// String prints with the minimal parentheses that make Parse rebuild the
// same tree. ^ is right-associative, so for it the rules mirror: the left
// operand wraps when it binds no tighter and the right only when it binds
// looser. A negation on the right always wraps.
func (b *BinOp) String() string {
	p := b.op.prec()
	lp, rp := b.left.prec(), b.right.prec()
	var l, r string
	if b.op == OpPow {
		l = wrap(b.left.String(), lp <= p)
		r = wrap(b.right.String(), rp < p || rp == precNeg)
	} else {
		l = wrap(b.left.String(), lp < p)
		r = wrap(b.right.String(), rp <= p || rp == precNeg)
	}
	switch b.op {
	case OpAdd, OpSub:
		return l + " " + b.op.String() + " " + r
	}
	return l + b.op.String() + r
}

// ============================================================
// Call: named function application
// ============================================================

// FuncID identifies one of the supported functions.
type FuncID int

const (
	FnSin FuncID = iota
	FnCos
	FnTan
	FnExp
	FnLn
	FnSqrt
	FnAbs
)

var funcNames = [...]string{
	FnSin: "sin", FnCos: "cos", FnTan: "tan", FnExp: "exp",
	FnLn: "ln", FnSqrt: "sqrt", FnAbs: "abs",
}

func (f FuncID) String() string { return funcNames[f] }

// Call is fn(arg).
type Call struct {
	fn  FuncID
	arg Expr
}

func callOf(fn FuncID, arg Expr) *Call { return &Call{fn: fn, arg: arg} }

func SinOf(arg Expr) *Call  { return callOf(FnSin, arg) }
func CosOf(arg Expr) *Call  { return callOf(FnCos, arg) }
func TanOf(arg Expr) *Call  { return callOf(FnTan, arg) }
func ExpOf(arg Expr) *Call  { return callOf(FnExp, arg) }
func LnOf(arg Expr) *Call   { return callOf(FnLn, arg) }
func SqrtOf(arg Expr) *Call { return callOf(FnSqrt, arg) }
func AbsOf(arg Expr) *Call  { return callOf(FnAbs, arg) }

func (c *Call) Func() FuncID   { return c.fn }
func (c *Call) Arg() Expr      { return c.arg }
func (c *Call) Clone() Expr    { return &Call{fn: c.fn, arg: c.arg.Clone()} }
func (c *Call) String() string { return c.fn.String() + "(" + c.arg.String() + ")" }
func (c *Call) prec() int      { return precAtom }

func (c *Call) Equal(other Expr) bool {
	o, ok := other.(*Call)
	return ok && c.fn == o.fn && c.arg.Equal(o.arg)
}

// ============================================================
// Helpers
// ============================================================

func wrap(s string, paren bool) string {
	if paren {
		return "(" + s + ")"
	}
	return s
}

// hasVar reports whether e depends on the free variable.
func hasVar(e Expr) bool {
	switch v := e.(type) {
	case *Var:
		return true
	case *Neg:
		return hasVar(v.arg)
	case *BinOp:
		return hasVar(v.left) || hasVar(v.right)
	case *Call:
		return hasVar(v.arg)
	}
	return false
}

// total reports whether evaluating e can only fail through overflow: no
// division, no log, sqrt or tan, and powers only with non-negative integer
// constant exponents.
func total(e Expr) bool {
	switch v := e.(type) {
	case *Num, *Var:
		return true
	case *Neg:
		return total(v.arg)
	case *BinOp:
		switch v.op {
		case OpDiv:
			return false
		case OpPow:
			n, ok := v.right.(*Num)
			return ok && n.val >= 0 && n.val == float64(int64(n.val)) && total(v.left)
		}
		return total(v.left) && total(v.right)
	case *Call:
		switch v.fn {
		case FnTan, FnLn, FnSqrt:
			return false
		}
		return total(v.arg)
	}
	return false
}

// Size returns the number of nodes in e.
func Size(e Expr) int {
	switch v := e.(type) {
	case *Neg:
		return 1 + Size(v.arg)
	case *BinOp:
		return 1 + Size(v.left) + Size(v.right)
	case *Call:
		return 1 + Size(v.arg)
	}
	return 1
}

// String returns the plain-text form of e, which Parse accepts.
func String(e Expr) string { return strings.TrimSpace(e.String()) }

// LaTeX returns the LaTeX form of e.
func LaTeX(e Expr) string { return e.LaTeX() }
