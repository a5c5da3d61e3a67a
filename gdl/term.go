package gdl

import (
	"errors"
	"fmt"
	"strings"
)

// Reserved names that carry meaning for a propnet.
const (
	Init     = "INIT"
	Terminal = "terminal"
	Does     = "does"
	Legal    = "legal"
	Goal     = "goal"
	True     = "true"
	Next     = "next"
)

var ErrSyntax = errors.New("term syntax error")

// Term is a ground GDL term: either a constant or a function applied to
// argument terms. Terms are immutable values.
type Term struct {
	name string
	args []Term
	fn   bool
}

func Const(name string) Term {
	return Term{name: name}
}

func Func(name string, args ...Term) Term {
	return Term{name: name, args: args, fn: true}
}

// Name returns the constant value or the function's functor.
func (t Term) Name() string {
	return t.name
}

func (t Term) IsConstant() bool {
	return !t.fn
}

func (t Term) Arity() int {
	return len(t.args)
}

// Arg returns the ith argument, or the zero Term when out of range.
func (t Term) Arg(i int) Term {
	if i < 0 || i >= len(t.args) {
		return Term{}
	}
	return t.args[i]
}

func (t Term) Args() []Term {
	out := make([]Term, len(t.args))
	copy(out, t.args)
	return out
}

func (t Term) IsZero() bool {
	return t.name == "" && !t.fn
}

// Is reports whether t is the constant or functor named name.
func (t Term) Is(name string) bool {
	return t.name == name
}

func (t Term) Equal(o Term) bool {
	if t.name != o.name || t.fn != o.fn || len(t.args) != len(o.args) {
		return false
	}
	for i := range t.args {
		if !t.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

// Body returns the canonical string of the argument list, used to pair
// terms like (legal r m) and (does r m) that share their arguments.
func (t Term) Body() string {
	var sb strings.Builder
	for i, a := range t.args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		a.write(&sb)
	}
	return sb.String()
}

func (t Term) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Term) write(sb *strings.Builder) {
	if !t.fn {
		sb.WriteString(t.name)
		return
	}
	sb.WriteByte('(')
	sb.WriteString(t.name)
	for _, a := range t.args {
		sb.WriteByte(' ')
		a.write(sb)
	}
	sb.WriteByte(')')
}

// Parse reads a term in s-expression form, e.g. "terminal" or
// "(does red (mark 1 1))".
func Parse(s string) (Term, error) {
	p := parser{tokens: tokenize(s)}
	if len(p.tokens) == 0 {
		return Term{}, fmt.Errorf("%w: empty input", ErrSyntax)
	}
	t, err := p.term()
	if err != nil {
		return Term{}, fmt.Errorf("parse %q: %w", s, err)
	}
	if p.pos != len(p.tokens) {
		return Term{}, fmt.Errorf("parse %q: %w: trailing %q", s, ErrSyntax, p.tokens[p.pos])
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Intended for literals.
func MustParse(s string) Term {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func tokenize(s string) []string {
	var tokens []string
	start := -1
	flush := func(i int) {
		if start >= 0 {
			tokens = append(tokens, s[start:i])
			start = -1
		}
	}
	for i, r := range s {
		switch {
		case r == '(' || r == ')':
			flush(i)
			tokens = append(tokens, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush(i)
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(s))
	return tokens
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) term() (Term, error) {
	if p.pos >= len(p.tokens) {
		return Term{}, fmt.Errorf("%w: unexpected end of input", ErrSyntax)
	}
	tok := p.tokens[p.pos]
	p.pos++
	switch tok {
	case ")":
		return Term{}, fmt.Errorf("%w: unexpected ')'", ErrSyntax)
	case "(":
	default:
		return Const(tok), nil
	}

	if p.pos >= len(p.tokens) || p.tokens[p.pos] == "(" || p.tokens[p.pos] == ")" {
		return Term{}, fmt.Errorf("%w: expected functor after '('", ErrSyntax)
	}
	name := p.tokens[p.pos]
	p.pos++

	var args []Term
	for {
		if p.pos >= len(p.tokens) {
			return Term{}, fmt.Errorf("%w: missing ')'", ErrSyntax)
		}
		if p.tokens[p.pos] == ")" {
			p.pos++
			return Func(name, args...), nil
		}
		arg, err := p.term()
		if err != nil {
			return Term{}, err
		}
		args = append(args, arg)
	}
}
