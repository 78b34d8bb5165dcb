package typing

import (
	"fmt"
	"strings"
	"unicode"
)

// #region render
// String renders the type with the fewest parentheses that parse back to it:
// "*" binds tighter than "+", and "->" is loosest and right-associative.
func (t *Type) String() string {
	return render(t, 0)
}

func render(t *Type, ctx int) string {
	if t == nil {
		return "⊥"
	}
	wrap := func(prec int, s string) string {
		if ctx > prec {
			return "(" + s + ")"
		}
		return s
	}
	switch t.Kind {
	case KindUnit:
		return "unit"
	case KindBase:
		if t.Name == "" {
			return "_"
		}
		return t.Name
	case KindHole:
		return "?"
	case KindArrow:
		return wrap(1, render(t.Left, 2)+" -> "+render(t.Right, 1))
	case KindSum:
		return wrap(2, render(t.Left, 2)+" + "+render(t.Right, 3))
	case KindProduct:
		return wrap(3, render(t.Left, 3)+" * "+render(t.Right, 4))
	}
	return fmt.Sprintf("Kind(%d)", t.Kind)
}

// Equal compares two type terms structurally.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind == b.Kind && a.Name == b.Name && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
}

// #endregion render

// #region parse
// Parse reads the text form: unit, a base name (letters, digits, "_", "."; a
// lone "_" is the wildcard base), A * B, A + B, A -> B and parentheses.
func Parse(s string) (*Type, error) {
	p := &parser{src: s}
	p.next()
	t, err := p.arrow()
	if err != nil {
		return nil, err
	}
	if p.tok != "" {
		return nil, fmt.Errorf("unexpected %q at %d: %w", p.tok, p.pos, ErrSyntax)
	}
	return t, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) *Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	off int
	pos int // offset of tok
	tok string
}

func (p *parser) next() {
	for p.off < len(p.src) && unicode.IsSpace(rune(p.src[p.off])) {
		p.off++
	}
	p.pos = p.off
	if p.off >= len(p.src) {
		p.tok = ""
		return
	}
	rest := p.src[p.off:]
	switch {
	case strings.HasPrefix(rest, "->"):
		p.tok = "->"
	case strings.ContainsRune("*+()", rune(rest[0])):
		p.tok = rest[:1]
	default:
		n := 0
		for n < len(rest) && isIdent(rest[n]) {
			n++
		}
		if n == 0 {
			n = 1 // surface the bad character as its own token
		}
		p.tok = rest[:n]
	}
	p.off += len(p.tok)
}

func isIdent(c byte) bool {
	return c == '_' || c == '.' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func (p *parser) arrow() (*Type, error) {
	left, err := p.sum()
	if err != nil {
		return nil, err
	}
	if p.tok != "->" {
		return left, nil
	}
	p.next()
	right, err := p.arrow()
	if err != nil {
		return nil, err
	}
	return Arrow(left, right), nil
}

func (p *parser) sum() (*Type, error) {
	left, err := p.product()
	if err != nil {
		return nil, err
	}
	for p.tok == "+" {
		p.next()
		right, err := p.product()
		if err != nil {
			return nil, err
		}
		left = Sum(left, right)
	}
	return left, nil
}

func (p *parser) product() (*Type, error) {
	left, err := p.atom()
	if err != nil {
		return nil, err
	}
	for p.tok == "*" {
		p.next()
		right, err := p.atom()
		if err != nil {
			return nil, err
		}
		left = Product(left, right)
	}
	return left, nil
}

func (p *parser) atom() (*Type, error) {
	switch tok := p.tok; {
	case tok == "":
		return nil, fmt.Errorf("unexpected end of input: %w", ErrSyntax)
	case tok == "(":
		p.next()
		t, err := p.arrow()
		if err != nil {
			return nil, err
		}
		if p.tok != ")" {
			return nil, fmt.Errorf("expected ) at %d: %w", p.pos, ErrSyntax)
		}
		p.next()
		return t, nil
	case tok == "unit":
		p.next()
		return Unit(), nil
	case tok == "_":
		p.next()
		return Base(""), nil
	case isIdent(tok[0]):
		p.next()
		return Base(tok), nil
	}
	return nil, fmt.Errorf("unexpected %q at %d: %w", p.tok, p.pos, ErrSyntax)
}

// #endregion parse
