package layout

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mamba-lang/mamba/pkg/nucleus/errs"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokEquals
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	src  []rune
	pos  int
	line int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1}
}

func (l *lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *lexer) skipTrivia() {
	for l.pos < len(l.src) {
		r := l.peekRune()
		if unicode.IsSpace(r) {
			l.advance()
			continue
		}
		if r == '#' {
			for l.pos < len(l.src) && l.peekRune() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

func (l *lexer) next() (token, error) {
	l.skipTrivia()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}, nil
	}
	line := l.line
	r := l.peekRune()

	switch r {
	case '=':
		l.advance()
		return token{kind: tokEquals, text: "=", line: line}, nil
	case '{':
		l.advance()
		return token{kind: tokLBrace, text: "{", line: line}, nil
	case '}':
		l.advance()
		return token{kind: tokRBrace, text: "}", line: line}, nil
	case '(':
		l.advance()
		return token{kind: tokLParen, text: "(", line: line}, nil
	case ')':
		l.advance()
		return token{kind: tokRParen, text: ")", line: line}, nil
	}

	if unicode.IsDigit(r) {
		start := l.pos
		for l.pos < len(l.src) && (unicode.IsDigit(l.peekRune()) || isHexLetter(l.peekRune()) || l.peekRune() == 'x' || l.peekRune() == 'X') {
			l.advance()
		}
		return token{kind: tokNumber, text: string(l.src[start:l.pos]), line: line}, nil
	}

	if unicode.IsLetter(r) || r == '_' || r == '.' {
		start := l.pos
		for l.pos < len(l.src) && (unicode.IsLetter(l.peekRune()) || unicode.IsDigit(l.peekRune()) || l.peekRune() == '_' || l.peekRune() == '.') {
			l.advance()
		}
		return token{kind: tokIdent, text: string(l.src[start:l.pos]), line: line}, nil
	}

	return token{}, fmt.Errorf("%w: line %d: unexpected character %q", errs.ErrParse, line, r)
}

func isHexLetter(r rune) bool {
	return (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// Parse parses the MEMORY-block layout grammar into a Layout.
func Parse(src string) (*Layout, error) {
	l := newLexer(src)
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrLayout, err)
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			break
		}
	}

	p := &parser{toks: toks}
	lay, err := p.parseLayout()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrLayout, err)
	}
	return lay, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expectIdent(want string) error {
	t := p.cur()
	if t.kind != tokIdent || !strings.EqualFold(t.text, want) {
		return fmt.Errorf("%w: line %d: expected %q, got %q", errs.ErrParse, t.line, want, t.text)
	}
	p.advance()
	return nil
}

func (p *parser) expect(kind tokenKind, desc string) (token, error) {
	t := p.cur()
	if t.kind != kind {
		return token{}, fmt.Errorf("%w: line %d: expected %s, got %q", errs.ErrParse, t.line, desc, t.text)
	}
	p.advance()
	return t, nil
}

func (p *parser) parseLayout() (*Layout, error) {
	out := &Layout{}
	for p.cur().kind != tokEOF {
		region, err := p.parseRegion()
		if err != nil {
			return nil, err
		}
		out.Regions = append(out.Regions, *region)
	}
	return out, nil
}

func (p *parser) parseRegion() (*Region, error) {
	if err := p.expectIdent("MEMORY"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokIdent, "region name")
	if err != nil {
		return nil, err
	}
	r := &Region{Name: nameTok.text}

	if err := p.expectIdent("LOCATION"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokEquals, "'='"); err != nil {
		return nil, err
	}
	loc, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	r.Location = loc

	if err := p.expectIdent("SIZE"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokEquals, "'='"); err != nil {
		return nil, err
	}
	size, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	r.Size = size

	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	for p.cur().kind != tokRBrace {
		d, err := p.parseDirective()
		if err != nil {
			return nil, err
		}
		r.Directives = append(r.Directives, *d)
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return r, nil
}

func (p *parser) parseDirective() (*Directive, error) {
	t := p.cur()
	if t.kind != tokIdent {
		return nil, fmt.Errorf("%w: line %d: expected SECTION or ALIGN, got %q", errs.ErrParse, t.line, t.text)
	}
	switch strings.ToUpper(t.text) {
	case "SECTION":
		p.advance()
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return nil, err
		}
		name, err := p.expect(tokIdent, "section name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return &Directive{Kind: "SECTION", Name: name.text}, nil
	case "ALIGN":
		p.advance()
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return nil, err
		}
		n, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return &Directive{Kind: "ALIGN", Value: n}, nil
	default:
		return nil, fmt.Errorf("%w: line %d: unknown directive %q", errs.ErrParse, t.line, t.text)
	}
}

func (p *parser) parseNumber() (uint64, error) {
	t, err := p.expect(tokNumber, "number")
	if err != nil {
		return 0, err
	}
	text := t.text
	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		text = text[2:]
	}
	v, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: invalid number %q", errs.ErrParse, t.line, t.text)
	}
	return v, nil
}
