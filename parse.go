package gocalculus

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultVariable is the free variable name used unless WithVariable says
// otherwise.
const DefaultVariable = "x"

// maxNesting bounds parenthesis depth so hostile input cannot exhaust the
// stack.
const maxNesting = 256

// ============================================================
// Tokens
// ============================================================

type tokenKind int

const (
	tokNum tokenKind = iota
	tokVar
	tokConst
	tokFunc
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	pos  int
	text string
	num  float64
	fn   FuncID
	op   Op
}

// names recognized inside identifier runs, besides the variable.
var funcByName = map[string]FuncID{
	"sin": FnSin, "cos": FnCos, "tan": FnTan, "exp": FnExp,
	"ln": FnLn, "log": FnLn, "sqrt": FnSqrt, "abs": FnAbs,
}

var constByName = map[string]func() *Num{"pi": Pi, "e": E}

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct{ variable string }

// WithVariable sets the name of the free variable (default "x"). The name
// must be alphabetic and must not shadow a function or constant name.
func WithVariable(name string) ParseOption {
	return func(c *parseConfig) { c.variable = name }
}

func validVariable(name string) error {
	if name == "" {
		return fmt.Errorf("variable name is empty")
	}
	for _, r := range name {
		if !isLetter(byte(r)) || r > 0x7f {
			return fmt.Errorf("variable name %q must be alphabetic", name)
		}
	}
	if _, ok := funcByName[name]; ok {
		return fmt.Errorf("variable name %q is a function name", name)
	}
	if _, ok := constByName[name]; ok {
		return fmt.Errorf("variable name %q is a constant name", name)
	}
	return nil
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

// ============================================================
// Lexer
// ============================================================

type lexer struct {
	src      string
	pos      int
	variable string
	toks     []token
}

func tokenize(src, variable string) ([]token, error) {
	lx := &lexer{src: src, variable: variable}
	for lx.pos < len(src) {
		c := src[lx.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			lx.pos++
		case isDigit(c) || (c == '.' && lx.pos+1 < len(src) && isDigit(src[lx.pos+1])):
			if err := lx.number(); err != nil {
				return nil, err
			}
		case isLetter(c) || c == '_':
			if err := lx.identifiers(); err != nil {
				return nil, err
			}
		case c == '*' && strings.HasPrefix(src[lx.pos:], "**"):
			lx.emit(token{kind: tokOp, op: OpPow, text: "**"})
			lx.pos += 2
		case strings.IndexByte("+-*/^", c) >= 0:
			lx.emit(token{kind: tokOp, op: opFromByte(c), text: string(c)})
			lx.pos++
		case c == '(':
			lx.emit(token{kind: tokLParen, text: "("})
			lx.pos++
		case c == ')':
			lx.emit(token{kind: tokRParen, text: ")"})
			lx.pos++
		default:
			return nil, &ParseError{Pos: lx.pos, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	lx.toks = append(lx.toks, token{kind: tokEOF, pos: len(src)})
	return lx.toks, nil
}

func opFromByte(c byte) Op {
	switch c {
	case '+':
		return OpAdd
	case '-':
		return OpSub
	case '*':
		return OpMul
	case '/':
		return OpDiv
	}
	return OpPow
}

func (lx *lexer) emit(t token) {
	if t.pos == 0 {
		t.pos = lx.pos
	}
	lx.toks = append(lx.toks, t)
}

// number scans digits, an optional fraction and an optional exponent. An
// 'e' only starts an exponent when a digit (optionally signed) follows, so
// "2e" still reads as 2 times the constant e.
func (lx *lexer) number() error {
	start := lx.pos
	src := lx.src
	for lx.pos < len(src) && isDigit(src[lx.pos]) {
		lx.pos++
	}
	if lx.pos < len(src) && src[lx.pos] == '.' {
		lx.pos++
		for lx.pos < len(src) && isDigit(src[lx.pos]) {
			lx.pos++
		}
	}
	if lx.pos < len(src) && (src[lx.pos] == 'e' || src[lx.pos] == 'E') {
		j := lx.pos + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			lx.pos = j
		}
	}
	if lx.pos < len(src) && src[lx.pos] == '.' {
		return &ParseError{Pos: lx.pos, Msg: "malformed number " + strconv.Quote(src[start:lx.pos+1])}
	}
	text := src[start:lx.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return &ParseError{Pos: start, Msg: "malformed number " + strconv.Quote(text)}
	}
	lx.toks = append(lx.toks, token{kind: tokNum, pos: start, text: text, num: v})
	return nil
}

// identifiers splits a run of letters into known names, longest match
// first, so "xsinx" yields x, sin, x.
func (lx *lexer) identifiers() error {
	start := lx.pos
	end := start
	for end < len(lx.src) && (isLetter(lx.src[end]) || lx.src[end] == '_') {
		end++
	}
	run := lx.src[start:end]
	for i := 0; i < len(run); {
		t, n := lx.longestName(run[i:])
		if n == 0 {
			return &ParseError{Pos: start, Msg: fmt.Sprintf("unknown identifier %q", run)}
		}
		t.pos = start + i
		t.text = run[i : i+n]
		lx.toks = append(lx.toks, t)
		i += n
	}
	lx.pos = end
	return nil
}

func (lx *lexer) longestName(s string) (token, int) {
	best, bestLen := token{}, 0
	try := func(name string, t token) {
		if len(name) > bestLen && strings.HasPrefix(s, name) {
			best, bestLen = t, len(name)
		}
	}
	try(lx.variable, token{kind: tokVar})
	for name, fn := range funcByName {
		try(name, token{kind: tokFunc, fn: fn})
	}
	for name, mk := range constByName {
		try(name, token{kind: tokConst, num: mk().val})
	}
	return best, bestLen
}

// insertImplicitMul adds a '*' wherever an operand is directly followed by
// something that starts another operand: "2x", "3sin(x)", "x(x+1)",
// "(x+1)(x-1)", "(x)2".
func insertImplicitMul(toks []token) []token {
	out := make([]token, 0, len(toks)+len(toks)/2)
	for i, t := range toks {
		if i > 0 && endsOperand(toks[i-1]) && startsOperand(t) {
			out = append(out, token{kind: tokOp, op: OpMul, pos: t.pos, text: "*"})
		}
		out = append(out, t)
	}
	return out
}

func endsOperand(t token) bool {
	switch t.kind {
	case tokNum, tokVar, tokConst, tokRParen:
		return true
	}
	return false
}

func startsOperand(t token) bool {
	switch t.kind {
	case tokNum, tokVar, tokConst, tokFunc, tokLParen:
		return true
	}
	return false
}

// ============================================================
// Parser
// ============================================================

// Parse reads a single-variable expression. It accepts implicit
// multiplication ("2x", "3sin x", "(x+1)(x-1)"), both ^ and ** for powers,
// the functions sin, cos, tan, exp, ln (alias log), sqrt and abs, and the
// constants pi and e. Precedence, loosest first: + -, * /, unary minus, ^.
// ^ is right-associative. Malformed input yields a *ParseError.
func Parse(text string, opts ...ParseOption) (Expr, error) {
	cfg := parseConfig{variable: DefaultVariable}
	for _, o := range opts {
		o(&cfg)
	}
	if err := validVariable(cfg.variable); err != nil {
		return nil, &ParseError{Pos: -1, Msg: err.Error()}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Pos: 0, Msg: "empty expression"}
	}
	toks, err := tokenize(text, cfg.variable)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: insertImplicitMul(toks), variable: cfg.variable}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		if t.kind == tokRParen {
			return nil, &ParseError{Pos: t.pos, Msg: "unbalanced parenthesis: unexpected ')'"}
		}
		return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}
	return e, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(text string, opts ...ParseOption) Expr {
	e, err := Parse(text, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	toks     []token
	pos      int
	depth    int
	variable string
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...Op) (Op, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return 0, false
	}
	for _, o := range ops {
		if t.op == o {
			return o, true
		}
	}
	return 0, false
}

// expr := term (('+' | '-') term)*
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp(OpAdd, OpSub)
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binOf(op, left, right)
	}
}

// term := unary (('*' | '/') unary)*
func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp(OpMul, OpDiv)
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binOf(op, left, right)
	}
}

// unary := ('-' | '+') unary | power
//
// A minus applied directly to a numeric literal folds into the constant.
func (p *parser) parseUnary() (Expr, error) {
	op, ok := p.isOp(OpSub, OpAdd)
	if !ok {
		return p.parsePower()
	}
	p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if op == OpAdd {
		return operand, nil
	}
	if n, ok := plainNum(operand); ok {
		return N(-n.val), nil
	}
	return NegOf(operand), nil
}

// power := primary ('^' unary)?
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.isOp(OpPow); !ok {
		return base, nil
	}
	p.advance()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return PowOf(base, exp), nil
}

// primary := number | variable | constant | function arg | '(' expr ')'
// arg     := '(' expr ')' | power
func (p *parser) parsePrimary() (Expr, error) {
	t := p.advance()
	switch t.kind {
	case tokNum:
		return N(t.num), nil
	case tokVar:
		return V(p.variable), nil
	case tokConst:
		return constByName[t.text](), nil
	case tokFunc:
		next := p.peek()
		if !startsOperand(next) {
			return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("function %s requires an argument", t.text)}
		}
		// sin(x)^2 powers the call; sin x^2 powers the argument.
		argParser := p.parsePower
		if next.kind == tokLParen {
			argParser = p.parsePrimary
		}
		arg, err := argParser()
		if err != nil {
			return nil, err
		}
		return callOf(t.fn, arg), nil
	case tokLParen:
		p.depth++
		if p.depth > maxNesting {
			return nil, &ParseError{Pos: t.pos, Msg: "expression nested too deeply"}
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, &ParseError{Pos: t.pos, Msg: "unbalanced parenthesis: missing ')'"}
		}
		p.advance()
		p.depth--
		return e, nil
	case tokRParen:
		return nil, &ParseError{Pos: t.pos, Msg: "unexpected ')'"}
	case tokEOF:
		return nil, &ParseError{Pos: t.pos, Msg: "unexpected end of input"}
	}
	return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unexpected operator %q", t.text)}
}
