package syntax

import (
	"go/token"
	"strings"

	"github.com/cockroachdb/errors"
)

// TypeKind identifies the shape of a TypeRef.
type TypeKind int

const (
	// KindVoid is the absence of a type. It is only meaningful as the result
	// of a method.
	KindVoid TypeKind = iota
	// KindBasic is a predeclared type, like string or error.
	KindBasic
	// KindNamed is a named type, optionally qualified with the import path of
	// the package that declares it.
	KindNamed
	KindPointer
	KindSlice
	KindMap
	KindFunc
)

// TypeRef is a reference to a type, independent of any particular language's
// AST. Named types carry the full import path of their package so renderers
// can produce properly qualified references.
type TypeRef struct {
	Kind TypeKind
	// Pkg is the import path of the declaring package for KindNamed. It is
	// empty for types local to the package being edited.
	Pkg string
	// Name is the type name for KindBasic and KindNamed.
	Name string
	// Elem is the element type of pointers and slices and the value type of
	// maps.
	Elem *TypeRef
	// Key is the key type of maps.
	Key *TypeRef
	// Params, Results, and Variadic describe function types.
	Params   []TypeRef
	Results  []TypeRef
	Variadic bool
}

// Void is the TypeRef for methods that return nothing.
var Void = TypeRef{Kind: KindVoid}

var basicTypes = map[string]struct{}{
	"any": {}, "bool": {}, "byte": {}, "complex64": {}, "complex128": {},
	"error": {}, "float32": {}, "float64": {}, "int": {}, "int8": {},
	"int16": {}, "int32": {}, "int64": {}, "rune": {}, "string": {},
	"uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {},
	"uintptr": {},
}

// Basic returns a reference to the predeclared type with the given name.
func Basic(name string) TypeRef {
	return TypeRef{Kind: KindBasic, Name: name}
}

// Named returns a reference to the type with the given name declared in the
// package with the given import path.
func Named(pkg, name string) TypeRef {
	return TypeRef{Kind: KindNamed, Pkg: pkg, Name: name}
}

// PointerTo returns a pointer to the given type.
func PointerTo(elem TypeRef) TypeRef {
	return TypeRef{Kind: KindPointer, Elem: &elem}
}

// SliceOf returns a slice of the given type.
func SliceOf(elem TypeRef) TypeRef {
	return TypeRef{Kind: KindSlice, Elem: &elem}
}

// MapOf returns a map type with the given key and value types.
func MapOf(key, val TypeRef) TypeRef {
	return TypeRef{Kind: KindMap, Key: &key, Elem: &val}
}

// FuncOf returns a function type.
func FuncOf(params, results []TypeRef, variadic bool) TypeRef {
	return TypeRef{Kind: KindFunc, Params: params, Results: results, Variadic: variadic}
}

// Type parses the given type text, panicking if it is malformed. It is meant
// for type references that are literals in source.
func Type(s string) TypeRef {
	t, err := ParseType(s)
	if err != nil {
		panic(err)
	}
	return t
}

// IsVoid returns true if t is Void.
func (t TypeRef) IsVoid() bool {
	return t.Kind == KindVoid
}

// PackagePaths returns the import paths of all packages referenced by t.
func (t TypeRef) PackagePaths() []string {
	var paths []string
	t.walk(func(n TypeRef) {
		if n.Kind == KindNamed && n.Pkg != "" {
			paths = append(paths, n.Pkg)
		}
	})
	return paths
}

func (t TypeRef) walk(fn func(TypeRef)) {
	fn(t)
	if t.Key != nil {
		t.Key.walk(fn)
	}
	if t.Elem != nil {
		t.Elem.walk(fn)
	}
	for _, p := range t.Params {
		p.walk(fn)
	}
	for _, r := range t.Results {
		r.walk(fn)
	}
}

// String returns the textual form of t, the same form accepted by ParseType.
func (t TypeRef) String() string {
	return t.Qualified(func(pkg string) string { return pkg })
}

// Qualified renders t, using the given function to compute the qualifier for
// named types from other packages. If the function returns an empty string,
// the name is rendered unqualified.
func (t TypeRef) Qualified(qualifier func(pkg string) string) string {
	var sb strings.Builder
	t.write(&sb, qualifier)
	return sb.String()
}

func (t TypeRef) write(sb *strings.Builder, q func(string) string) {
	switch t.Kind {
	case KindVoid:
		sb.WriteString("void")
	case KindBasic:
		sb.WriteString(t.Name)
	case KindNamed:
		if t.Pkg != "" {
			if qual := q(t.Pkg); qual != "" {
				sb.WriteString(qual)
				sb.WriteByte('.')
			}
		}
		sb.WriteString(t.Name)
	case KindPointer:
		sb.WriteByte('*')
		t.Elem.write(sb, q)
	case KindSlice:
		sb.WriteString("[]")
		t.Elem.write(sb, q)
	case KindMap:
		sb.WriteString("map[")
		t.Key.write(sb, q)
		sb.WriteByte(']')
		t.Elem.write(sb, q)
	case KindFunc:
		sb.WriteString("func(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			if t.Variadic && i == len(t.Params)-1 {
				sb.WriteString("...")
				p.Elem.write(sb, q)
				continue
			}
			p.write(sb, q)
		}
		sb.WriteByte(')')
		switch len(t.Results) {
		case 0:
		case 1:
			sb.WriteByte(' ')
			t.Results[0].write(sb, q)
		default:
			sb.WriteString(" (")
			for i, r := range t.Results {
				if i > 0 {
					sb.WriteString(", ")
				}
				r.write(sb, q)
			}
			sb.WriteByte(')')
		}
	}
}

// ParseType parses the textual form of a type. Named types from other
// packages are written with their full import path, for example
// "*github.com/jhump/gombok/perf4j.StopWatch". The word "void" parses to Void.
func ParseType(s string) (TypeRef, error) {
	p := typeParser{src: s}
	p.skipSpace()
	if strings.TrimSpace(s) == "void" {
		return Void, nil
	}
	t, err := p.parseType()
	if err != nil {
		return TypeRef{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return TypeRef{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(errors.Newf(format, args...), "invalid type %q at offset %d", p.src, p.pos)
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) consume(prefix string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], prefix) {
		p.pos += len(prefix)
		return true
	}
	return false
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) parseType() (TypeRef, error) {
	switch {
	case p.consume("*"):
		elem, err := p.parseType()
		if err != nil {
			return TypeRef{}, err
		}
		return PointerTo(elem), nil
	case p.consume("[]"):
		elem, err := p.parseType()
		if err != nil {
			return TypeRef{}, err
		}
		return SliceOf(elem), nil
	case p.consume("map["):
		key, err := p.parseType()
		if err != nil {
			return TypeRef{}, err
		}
		if !p.consume("]") {
			return TypeRef{}, p.errorf("expecting ']'")
		}
		val, err := p.parseType()
		if err != nil {
			return TypeRef{}, err
		}
		return MapOf(key, val), nil
	case p.consume("func("):
		return p.parseFunc()
	}
	return p.parseName()
}

func (p *typeParser) parseFunc() (TypeRef, error) {
	var params []TypeRef
	variadic := false
	for !p.consume(")") {
		if len(params) > 0 && !p.consume(",") {
			return TypeRef{}, p.errorf("expecting ',' or ')'")
		}
		if variadic {
			return TypeRef{}, p.errorf("variadic parameter must be last")
		}
		if p.consume("...") {
			variadic = true
			elem, err := p.parseType()
			if err != nil {
				return TypeRef{}, err
			}
			params = append(params, SliceOf(elem))
			continue
		}
		param, err := p.parseType()
		if err != nil {
			return TypeRef{}, err
		}
		params = append(params, param)
	}

	var results []TypeRef
	switch c := p.peek(); {
	case c == '(':
		p.consume("(")
		for !p.consume(")") {
			if len(results) > 0 && !p.consume(",") {
				return TypeRef{}, p.errorf("expecting ',' or ')'")
			}
			r, err := p.parseType()
			if err != nil {
				return TypeRef{}, err
			}
			results = append(results, r)
		}
	case c == 0 || c == ',' || c == ')' || c == ']':
		// no results
	default:
		r, err := p.parseType()
		if err != nil {
			return TypeRef{}, err
		}
		results = []TypeRef{r}
	}
	return FuncOf(params, results, variadic), nil
}

func isNameChar(c byte) bool {
	return c == '_' || c == '.' || c == '/' || c == '-' || c == '~' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func (p *typeParser) parseName() (TypeRef, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isNameChar(p.src[p.pos]) {
		p.pos++
	}
	qualified := p.src[start:p.pos]
	if qualified == "" {
		return TypeRef{}, p.errorf("expecting type name")
	}

	// the qualifier ends at the last dot after the last slash
	lastSlash := strings.LastIndexByte(qualified, '/')
	dot := strings.LastIndexByte(qualified, '.')
	if dot <= lastSlash {
		if lastSlash >= 0 {
			return TypeRef{}, p.errorf("missing type name after package %q", qualified)
		}
		if qualified == "void" {
			return TypeRef{}, p.errorf("void cannot be used within another type")
		}
		if _, ok := basicTypes[qualified]; ok {
			return Basic(qualified), nil
		}
		if !token.IsIdentifier(qualified) {
			return TypeRef{}, p.errorf("%q is not a valid type name", qualified)
		}
		return Named("", qualified), nil
	}
	pkg, name := qualified[:dot], qualified[dot+1:]
	if pkg == "" || !token.IsIdentifier(name) {
		return TypeRef{}, p.errorf("malformed qualified name %q", qualified)
	}
	return Named(pkg, name), nil
}
