package brain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrNotExpression marks input that does not reduce to arithmetic.
// It is a fallthrough signal for the resolver, never a failure.
var ErrNotExpression = errors.New("not an arithmetic expression")

var framingWords = []string{"what is", "calculate", "solve", "math"}

// Spoken operator vocabulary, replaced in order. Multi-word forms come
// before their single-word prefixes so "multiplied by" never decays
// into a stray "by".
var spokenOps = [][2]string{
	{"multiplied by", "*"},
	{"divided by", "/"},
	{"square root of", "sqrt"},
	{"plus", "+"},
	{"minus", "-"},
	{"times", "*"},
	{"over", "/"},
	{"x", "*"},
}

// Evaluate normalizes a spoken or typed arithmetic phrase and evaluates
// it with a restricted recursive-descent parser. The grammar reaches
// numbers, + - * / ^, unary minus, parentheses, sqrt and pi — nothing
// else. Anything outside it yields ErrNotExpression.
func Evaluate(raw string) (float64, error) {
	toks, err := lex(normalize(raw))
	if err != nil || len(toks) == 0 {
		return 0, ErrNotExpression
	}

	p := &parser{toks: toks}
	v, err := p.parseExpr()
	if err != nil || p.pos != len(p.toks) {
		return 0, ErrNotExpression
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotExpression
	}

	// Round half away from zero on the 5th decimal.
	return math.Round(v*10000) / 10000, nil
}

func normalize(raw string) string {
	s := strings.ToLower(raw)
	for _, w := range framingWords {
		s = strings.ReplaceAll(s, w, "")
	}
	for _, op := range spokenOps {
		s = strings.ReplaceAll(s, op[0], op[1])
	}
	return strings.TrimSpace(s)
}

type tokKind int

const (
	tokNumber tokKind = iota
	tokOp             // one of + - * / ^ ( )
	tokIdent          // sqrt or pi
)

type token struct {
	kind tokKind
	op   byte
	num  float64
	id   string
}

// lex enforces the allow-list: digits, the operator characters, decimal
// point, whitespace, and the identifiers sqrt and pi. Any other rune
// rejects the whole phrase — the string came from untrusted speech.
func lex(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case strings.IndexByte("+-*/^()", c) >= 0:
			toks = append(toks, token{kind: tokOp, op: c})
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				j++
			}
			n, err := strconv.ParseFloat(s[i:j], 64)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNumber, num: n})
			i = j
		case unicode.IsLetter(rune(c)):
			j := i
			for j < len(s) && unicode.IsLetter(rune(s[j])) {
				j++
			}
			id := s[i:j]
			if id != "sqrt" && id != "pi" {
				return nil, fmt.Errorf("unknown identifier %q", id)
			}
			toks = append(toks, token{kind: tokIdent, id: id})
			i = j
		default:
			return nil, fmt.Errorf("disallowed character %q", c)
		}
	}
	return toks, nil
}

// Grammar:
//
//	expr   = term   { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = "-" factor | power
//	power  = base [ "^" factor ]
//	base   = number | "pi" | "sqrt" factor | "(" expr ")"
type parser struct {
	toks []token
	pos  int
}

func (p *parser) peekOp() (byte, bool) {
	if p.pos >= len(p.toks) || p.toks[p.pos].kind != tokOp {
		return 0, false
	}
	return p.toks[p.pos].op, true
}

func (p *parser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peekOp()
		if !ok || (op != '+' && op != '-') {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peekOp()
		if !ok || (op != '*' && op != '/') {
			return v, nil
		}
		p.pos++
		rhs, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			v *= rhs
		} else {
			v /= rhs
		}
	}
}

func (p *parser) parseFactor() (float64, error) {
	if op, ok := p.peekOp(); ok && op == '-' {
		p.pos++
		v, err := p.parseFactor()
		return -v, err
	}
	return p.parsePower()
}

func (p *parser) parsePower() (float64, error) {
	base, err := p.parseBase()
	if err != nil {
		return 0, err
	}
	if op, ok := p.peekOp(); ok && op == '^' {
		p.pos++
		exp, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *parser) parseBase() (float64, error) {
	if p.pos >= len(p.toks) {
		return 0, errors.New("unexpected end of expression")
	}
	t := p.toks[p.pos]
	switch t.kind {
	case tokNumber:
		p.pos++
		return t.num, nil
	case tokIdent:
		p.pos++
		if t.id == "pi" {
			return math.Pi, nil
		}
		// sqrt binds to the following factor, so both "sqrt 16"
		// and "sqrt(9+7)" work.
		arg, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return math.Sqrt(arg), nil
	case tokOp:
		if t.op == '(' {
			p.pos++
			v, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			if op, ok := p.peekOp(); !ok || op != ')' {
				return 0, errors.New("missing closing parenthesis")
			}
			p.pos++
			return v, nil
		}
	}
	return 0, fmt.Errorf("unexpected token at %d", p.pos)
}
