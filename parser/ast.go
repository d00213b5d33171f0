package parser

import (
	"fmt"
	"strconv"
	"text/scanner"
)

// Identifier is a possibly-qualified name. The qualifier is the alias of an
// imported package.
type Identifier struct {
	PackageAlias string
	Name         string
	Pos          scanner.Position
}

func (id Identifier) String() string {
	if id.PackageAlias == "" {
		return id.Name
	}
	return id.PackageAlias + "." + id.Name
}

// ValueKind is the kind of a literal annotation value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindBool
	// KindIdent is a reference to a named element, such as a constant.
	KindIdent
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindIdent:
		return "identifier"
	default:
		return fmt.Sprintf("?%d?", int(k))
	}
}

// Value is a literal value in an annotation.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Bool  bool
	Ident Identifier
	Pos   scanner.Position
}

func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Ident.String()
	}
}

// Element is an entry in the body of an annotation. Key is empty for
// positional elements.
type Element struct {
	Key    string
	KeyPos scanner.Position
	Value  Value
}

// Annotation is a single parsed annotation. Annotations written with a
// parenthesized value have exactly one positional element.
type Annotation struct {
	Type     Identifier
	Elements []Element
}

// Pos returns the position of the '@' that starts the annotation.
func (a Annotation) Pos() scanner.Position {
	return a.Type.Pos
}

// Get returns the value of the element with the given key. If key is empty,
// the first positional element is returned.
func (a Annotation) Get(key string) (Value, bool) {
	for _, e := range a.Elements {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}
