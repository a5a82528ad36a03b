package rxml

import (
	"fmt"
	"strings"

	"github.com/hbakke/go-rxml/tape"
)

// parser is a single forward pass over the input. It dispatches on the
// current character, feeds structural events to a tape.Builder and never
// backtracks; quoted values and comments are consumed without re-reading.
type parser struct {
	src  string
	pos  int
	line int
	col  int

	b       *tape.Builder
	sawTag  bool
	sawDecl bool
}

func newParser(src string) *parser {
	return &parser{src: src, line: 1, col: 1, b: tape.NewBuilder()}
}

func (p *parser) parse() (*tape.Tape, error) {
	for {
		if p.b.Depth() == 0 {
			p.skipPadding()
		} else if err := p.readContent(); err != nil {
			return nil, err
		}
		if p.eof() {
			if p.b.Depth() > 0 {
				return nil, p.errorf("unexpected end of input: tag %q is not closed", p.b.OpenName())
			}
			break
		}
		if p.ch() != '<' {
			return nil, p.errorf("unexpected character %q: expected '<'", p.ch())
		}
		if p.pos+1 >= len(p.src) {
			return nil, p.errorf("unexpected end of input after '<'")
		}
		var err error
		switch p.src[p.pos+1] {
		case '!':
			err = p.skipComment()
		case '?':
			if p.sawTag || p.sawDecl {
				return nil, p.errorf("declaration is only allowed before the first tag")
			}
			err = p.skipDeclaration()
		case '/':
			err = p.parseClosingTag()
		default:
			err = p.parseOpeningTag()
		}
		if err != nil {
			return nil, err
		}
	}
	if !p.sawTag {
		return nil, p.errorf("unexpected end of input: expected tag")
	}
	t, err := p.b.Finish()
	if err != nil {
		return nil, p.fail(err)
	}
	return t, nil
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) ch() byte { return p.src[p.pos] }

func (p *parser) advance() {
	if p.src[p.pos] == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	p.pos++
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Line: p.line, Column: p.col, Message: fmt.Sprintf(format, args...)}
}

// fail converts a builder error into a positional parse error.
func (p *parser) fail(err error) *ParseError {
	return &ParseError{Line: p.line, Column: p.col, Message: err.Error(), Err: err}
}

// skipPadding consumes insignificant whitespace between tags.
func (p *parser) skipPadding() {
	for !p.eof() {
		switch p.ch() {
		case ' ', '\t', '\r', '\n':
			p.advance()
		default:
			return
		}
	}
}

// skipDeclaration discards a leading <? ... ?> declaration. Its content is
// not validated and not stored.
func (p *parser) skipDeclaration() error {
	p.advance() // '<'
	p.advance() // '?'
	for !p.eof() {
		if p.ch() == '?' && strings.HasPrefix(p.src[p.pos:], "?>") {
			p.advance()
			p.advance()
			p.sawDecl = true
			return nil
		}
		p.advance()
	}
	return p.errorf("unterminated declaration: missing %q", "?>")
}

// skipComment discards a <!-- ... --> comment. The terminator is the first
// literal "-->".
func (p *parser) skipComment() error {
	if !strings.HasPrefix(p.src[p.pos:], "<!--") {
		return p.errorf("malformed comment: expected %q", "<!--")
	}
	for i := 0; i < 4; i++ {
		p.advance()
	}
	for !p.eof() {
		if p.ch() == '-' && strings.HasPrefix(p.src[p.pos:], "-->") {
			p.advance()
			p.advance()
			p.advance()
			return nil
		}
		p.advance()
	}
	return p.errorf("unterminated comment: missing %q", "-->")
}

func (p *parser) parseOpeningTag() error {
	p.advance() // '<'
	name := p.readName()
	if name == "" {
		if p.eof() {
			return p.errorf("unexpected end of input in tag")
		}
		return p.errorf("unexpected character %q: expected tag name", p.ch())
	}
	p.b.OpenTag(name)
	p.sawTag = true
	for {
		p.skipPadding()
		if p.eof() {
			return p.errorf("unexpected end of input: tag %q is not terminated", name)
		}
		switch c := p.ch(); {
		case c == '>':
			p.advance()
			return nil
		case c == '/':
			p.advance()
			if p.eof() || p.ch() != '>' {
				return p.errorf("expected '>' after '/' in tag %q", name)
			}
			p.advance()
			return p.closeTag("")
		case isNameByte(c):
			if err := p.parseAttribute(name); err != nil {
				return err
			}
		default:
			return p.errorf("unexpected character %q in tag %q: expected attribute, '>' or %q", c, name, "/>")
		}
	}
}

func (p *parser) parseClosingTag() error {
	p.advance() // '<'
	p.advance() // '/'
	name := p.readName()
	if name == "" {
		return p.errorf("expected tag name after %q", "</")
	}
	p.skipPadding()
	if p.eof() || p.ch() != '>' {
		return p.errorf("expected '>' to terminate closing tag %q", name)
	}
	p.advance()
	return p.closeTag(name)
}

func (p *parser) closeTag(name string) error {
	if err := p.b.CloseTag(name); err != nil {
		return p.fail(err)
	}
	return nil
}

func (p *parser) parseAttribute(tag string) error {
	key := p.readName()
	p.skipPadding()
	if p.eof() || p.ch() != '=' {
		return p.errorf("expected '=' after attribute %q in tag %q", key, tag)
	}
	p.advance()
	p.skipPadding()
	if p.eof() || (p.ch() != '"' && p.ch() != '\'') {
		return p.errorf("expected quoted value for attribute %q in tag %q", key, tag)
	}
	value, err := p.readQuotedValue()
	if err != nil {
		return err
	}
	p.b.AddAttributeKey(key)
	p.b.AddAttributeValue(value)
	return nil
}

// readQuotedValue consumes a single- or double-quoted attribute value. A
// backslash escapes the next character; only \" and \\ are legal escapes.
// The returned string slices the input unless an escape forced a copy.
func (p *parser) readQuotedValue() (string, error) {
	quote := p.ch()
	p.advance()
	start := p.pos
	var buf *strings.Builder
	for !p.eof() {
		c := p.ch()
		if c == quote {
			p.advance()
			if buf == nil {
				return p.src[start : p.pos-1], nil
			}
			return buf.String(), nil
		}
		if c == '\\' {
			if buf == nil {
				buf = &strings.Builder{}
				buf.WriteString(p.src[start:p.pos])
			}
			p.advance()
			if p.eof() {
				break
			}
			switch e := p.ch(); e {
			case '"', '\\':
				buf.WriteByte(e)
			default:
				return "", p.errorf("invalid escape sequence %q in attribute value", "\\"+string(e))
			}
			p.advance()
			continue
		}
		if buf != nil {
			buf.WriteByte(c)
		}
		p.advance()
	}
	return "", p.errorf("unterminated attribute value: missing closing %q", string(quote))
}

// readContent captures character data between '>' and the next '<'. Leading
// and trailing whitespace runs are trimmed; content that is whitespace only
// is treated as absent and leaves the tag empty.
func (p *parser) readContent() error {
	start := p.pos
	for !p.eof() && p.ch() != '<' {
		p.advance()
	}
	raw := strings.Trim(p.src[start:p.pos], " \t\r\n")
	if raw == "" {
		return nil
	}
	text, err := p.unescapeContent(raw)
	if err != nil {
		return err
	}
	if err := p.b.AddContent(text); err != nil {
		return p.fail(err)
	}
	return nil
}

// The five predefined entities. Content uses entity escaping while
// attribute values use backslash escaping; the two schemes are distinct and
// never interchangeable.
var entities = map[string]string{
	"quot": `"`,
	"apos": "'",
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
}

func (p *parser) unescapeContent(s string) (string, error) {
	if !strings.ContainsRune(s, '&') {
		return s, nil
	}
	var buf strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '&' {
			buf.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return "", p.errorf("unterminated entity reference in content")
		}
		name := s[i+1 : i+end]
		lit, ok := entities[name]
		if !ok {
			return "", p.errorf("unknown entity reference %q in content", "&"+name+";")
		}
		buf.WriteString(lit)
		i += end + 1
	}
	return buf.String(), nil
}

func (p *parser) readName() string {
	start := p.pos
	for !p.eof() && isNameByte(p.ch()) {
		p.advance()
	}
	return p.src[start:p.pos]
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == '.' || c == ':'
}
