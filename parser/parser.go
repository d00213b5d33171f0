// Package parser parses annotations found in doc comments. The grammar is a
// small subset of Go composite literals:
//
//	@Name
//	@pkg.Name
//	@pkg.Name("value")
//	@pkg.Name{Key: "value", Other: 123, Flag: true, Ref: pkg.Const}
//
// Values may be string literals (interpreted or raw), integers, booleans, or
// possibly-qualified identifiers.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/scanner"
)

// ParseError describes a syntax error in annotation text.
type ParseError struct {
	err error
	pos scanner.Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.pos.Line, e.pos.Column, e.err)
}

// Underlying returns the error without position information.
func (e *ParseError) Underlying() error {
	return e.err
}

// Pos returns the location of the error in the parsed text.
func (e *ParseError) Pos() scanner.Position {
	return e.pos
}

type annoParser struct {
	s   scanner.Scanner
	tok rune
	err *ParseError
}

// ParseAnnotations parses all annotations in the given text. The filename is
// only used in positions.
func ParseAnnotations(filename string, r io.Reader) ([]Annotation, *ParseError) {
	var p annoParser
	p.s.Init(r)
	p.s.Filename = filename
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings | scanner.ScanRawStrings
	p.s.Error = func(s *scanner.Scanner, msg string) {
		p.fail(s.Pos(), errors.New(msg))
	}
	p.next()

	var annos []Annotation
	for p.err == nil && p.tok != scanner.EOF {
		a := p.parseAnnotation()
		if p.err != nil {
			break
		}
		annos = append(annos, a)
	}
	if p.err != nil {
		return nil, p.err
	}
	return annos, nil
}

func (p *annoParser) next() {
	p.tok = p.s.Scan()
}

func (p *annoParser) fail(pos scanner.Position, err error) {
	if p.err == nil {
		p.err = &ParseError{err: err, pos: pos}
	}
}

func (p *annoParser) failf(format string, args ...interface{}) {
	p.fail(p.s.Position, fmt.Errorf(format, args...))
}

func (p *annoParser) describe() string {
	switch p.tok {
	case scanner.EOF:
		return "end of input"
	case scanner.Ident:
		return fmt.Sprintf("identifier %s", p.s.TokenText())
	default:
		return fmt.Sprintf("%q", p.s.TokenText())
	}
}

func (p *annoParser) expect(tok rune) bool {
	if p.tok != tok {
		p.failf("expecting %q, found %s", tok, p.describe())
		return false
	}
	p.next()
	return true
}

func (p *annoParser) parseAnnotation() Annotation {
	var a Annotation
	if p.tok != '@' {
		p.failf("expecting '@', found %s", p.describe())
		return a
	}
	pos := p.s.Position
	p.next()
	a.Type = p.parseIdentifier()
	a.Type.Pos = pos
	if p.err != nil {
		return a
	}

	switch p.tok {
	case '(':
		p.next()
		v := p.parseValue()
		if p.err == nil && p.expect(')') {
			a.Elements = []Element{{Value: v}}
		}
	case '{':
		p.next()
		a.Elements = p.parseElements()
	}
	return a
}

func (p *annoParser) parseIdentifier() Identifier {
	var id Identifier
	if p.tok != scanner.Ident {
		p.failf("expecting identifier, found %s", p.describe())
		return id
	}
	id.Pos = p.s.Position
	id.Name = p.s.TokenText()
	p.next()
	if p.tok == '.' {
		p.next()
		if p.tok != scanner.Ident {
			p.failf("expecting identifier after '.', found %s", p.describe())
			return id
		}
		id.PackageAlias = id.Name
		id.Name = p.s.TokenText()
		p.next()
	}
	return id
}

func (p *annoParser) parseElements() []Element {
	var elems []Element
	seen := map[string]struct{}{}
	for p.err == nil {
		if p.tok == '}' {
			p.next()
			return elems
		}
		e := p.parseElement()
		if p.err != nil {
			return nil
		}
		if e.Key != "" {
			if _, ok := seen[e.Key]; ok {
				p.fail(e.KeyPos, fmt.Errorf("duplicate key %s", e.Key))
				return nil
			}
			seen[e.Key] = struct{}{}
		}
		elems = append(elems, e)
		if p.tok == ',' {
			p.next()
		} else if p.tok != '}' {
			p.failf("expecting ',' or '}', found %s", p.describe())
		}
	}
	return nil
}

func (p *annoParser) parseElement() Element {
	var e Element
	if p.tok == scanner.Ident {
		pos := p.s.Position
		name := p.s.TokenText()
		p.next()
		if p.tok == ':' {
			p.next()
			e.Key, e.KeyPos = name, pos
			e.Value = p.parseValue()
			return e
		}
		// not a key; it's an identifier value
		e.Value = p.finishIdentValue(name, pos)
		return e
	}
	e.Value = p.parseValue()
	return e
}

func (p *annoParser) parseValue() Value {
	v := Value{Pos: p.s.Position}
	switch p.tok {
	case scanner.String, scanner.RawString:
		s, err := strconv.Unquote(p.s.TokenText())
		if err != nil {
			p.failf("invalid string literal: %v", err)
			return v
		}
		v.Kind, v.Str = KindString, s
		p.next()
	case scanner.Int, '-':
		neg := p.tok == '-'
		if neg {
			p.next()
			if p.tok != scanner.Int {
				p.failf("expecting integer after '-', found %s", p.describe())
				return v
			}
		}
		i, err := strconv.ParseInt(p.s.TokenText(), 0, 64)
		if err != nil {
			p.failf("invalid integer literal: %v", err)
			return v
		}
		if neg {
			i = -i
		}
		v.Kind, v.Int = KindInt, i
		p.next()
	case scanner.Ident:
		name := p.s.TokenText()
		p.next()
		return p.finishIdentValue(name, v.Pos)
	default:
		p.failf("expecting value, found %s", p.describe())
	}
	return v
}

func (p *annoParser) finishIdentValue(name string, pos scanner.Position) Value {
	v := Value{Pos: pos}
	if p.tok == '.' {
		p.next()
		if p.tok != scanner.Ident {
			p.failf("expecting identifier after '.', found %s", p.describe())
			return v
		}
		v.Kind = KindIdent
		v.Ident = Identifier{PackageAlias: name, Name: p.s.TokenText(), Pos: pos}
		p.next()
		return v
	}
	switch name {
	case "true", "false":
		v.Kind, v.Bool = KindBool, name == "true"
	default:
		v.Kind = KindIdent
		v.Ident = Identifier{Name: name, Pos: pos}
	}
	return v
}
