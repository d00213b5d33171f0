package processor

import (
	"bytes"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/jhump/gombok"
	"github.com/jhump/gombok/parser"
)

// Context represents the environment for an annotation processor. It represents
// a single package (for which the processors were invoked). It provides access
// to all annotations and annotated elements encountered in the package.
type Context struct {
	// Package holds all information about the package being processed. It
	// provides access to the ASTs of files in the package as well as the
	// results of type analysis.
	Package *packages.Package
	// Fset is used to resolve details for source code locations.
	Fset   *token.FileSet
	Logger *zap.Logger

	allElements []*AnnotatedElement
	// AllElementsByObject is map of all types in the package that have
	// annotations to a corresponding AnnotatedElement structure. Elements whose
	// type information could not be computed are absent.
	AllElementsByObject map[types.Object]*AnnotatedElement
	// AllAnnotationTypes indicates the names of all annotation types found in
	// the package's sources. The map is keyed by package import path, with the
	// values being slices of unqualified names of annotation types in that
	// package.
	AllAnnotationTypes map[string][]string
	byAnnotation       map[annoType][]*AnnotatedElement
	processed          map[*ast.CommentGroup]struct{}
	sources            map[string][]byte
}

type annoType struct {
	packagePath string
	name        string
}

// NewContext creates a context for a package that was loaded (or parsed) by
// the caller, extracting its annotations. The package must have its Fset and
// Syntax populated; type information is optional.
func NewContext(pkg *packages.Package, logger *zap.Logger) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := newContext(pkg, logger)
	if err := ctx.computeAllAnnotations(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func newContext(pkg *packages.Package, logger *zap.Logger) *Context {
	return &Context{
		Package:             pkg,
		Fset:                pkg.Fset,
		Logger:              logger,
		AllElementsByObject: map[types.Object]*AnnotatedElement{},
		AllAnnotationTypes:  map[string][]string{},
		byAnnotation:        map[annoType][]*AnnotatedElement{},
		processed:           map[*ast.CommentGroup]struct{}{},
		sources:             map[string][]byte{},
	}
}

// NumElements returns the number of annotated elements for the context's
// package.
func (c *Context) NumElements() int {
	return len(c.allElements)
}

// GetElement returns the annotation element at the given index. The given index
// must be greater than or equal to zero and less than c.NumElements().
func (c *Context) GetElement(index int) *AnnotatedElement {
	return c.allElements[index]
}

// ElementsAnnotatedWith returns a slice of elements that have been annotated
// with the given annotation type.
func (c *Context) ElementsAnnotatedWith(packagePath, typeName string) []*AnnotatedElement {
	return c.byAnnotation[annoType{packagePath: packagePath, name: typeName}]
}

// Filename returns the name of the file from which the given AST was parsed.
func (c *Context) Filename(file *ast.File) string {
	return c.Fset.File(file.Pos()).Name()
}

// Source returns the contents of the given file as they were when the package
// was loaded. Contents are cached, so repeated calls are cheap.
func (c *Context) Source(file *ast.File) ([]byte, error) {
	name := c.Filename(file)
	if src, ok := c.sources[name]; ok {
		return src, nil
	}
	src, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}
	c.sources[name] = src
	return src, nil
}

// OutputPath returns the path to give an OutputFactory in order to write a
// file with the given name into the context's package.
func (c *Context) OutputPath(fileName string) string {
	return path.Join(c.Package.PkgPath, fileName)
}

// AnnotatedElement is a type declaration in Go source that has annotations.
type AnnotatedElement struct {
	Context *Context
	File    *ast.File
	Ident   *ast.Ident
	Spec    *ast.TypeSpec
	// Obj is the type-checked object for the element. It may be nil if the
	// package had type errors that prevented it from being computed.
	Obj         types.Object
	Annotations []AnnotationMirror
}

// Pos returns the location of the element's name in source.
func (e *AnnotatedElement) Pos() token.Position {
	return e.Context.Fset.Position(e.Ident.Pos())
}

// Name returns the name of the annotated type.
func (e *AnnotatedElement) Name() string {
	return e.Ident.Name
}

// IsStruct returns true if the element is declared as a struct type.
func (e *AnnotatedElement) IsStruct() bool {
	_, ok := e.Spec.Type.(*ast.StructType)
	return ok
}

// AnnotationsOfType returns the element's annotations of the given type.
func (e *AnnotatedElement) AnnotationsOfType(packagePath, name string) []AnnotationMirror {
	var result []AnnotationMirror
	for _, a := range e.Annotations {
		if a.PackagePath == packagePath && a.Name == name {
			result = append(result, a)
		}
	}
	return result
}

// AnnotationMirror is a resolved annotation: its type has been mapped from the
// alias used in source to a package import path.
type AnnotationMirror struct {
	PackagePath string
	Name        string
	Pos         token.Position
	// Values holds the annotation's elements, keyed by element name. A value
	// written in parentheses is stored under the empty key.
	Values map[string]AnnotationValue
}

// AnnotationValue is a single value in an annotation.
type AnnotationValue struct {
	Kind  parser.ValueKind
	Str   string
	Int   int64
	Bool  bool
	Ident parser.Identifier
	Pos   token.Position
}

// Value returns the element with the given key, falling back to the
// parenthesized value if there is no such key.
func (m AnnotationMirror) Value(key string) (AnnotationValue, bool) {
	if v, ok := m.Values[key]; ok {
		return v, true
	}
	v, ok := m.Values[""]
	return v, ok
}

// StringValue is like Value but requires the value to be a string. It returns
// false if there is no such element.
func (m AnnotationMirror) StringValue(key string) (string, bool, error) {
	v, ok := m.Value(key)
	if !ok {
		return "", false, nil
	}
	if v.Kind != parser.KindString {
		return "", true, Errorf(v.Pos, "%s.%s: value for %s must be a string, found %v", path.Base(m.PackagePath), m.Name, key, v.Kind)
	}
	return v.Str, true, nil
}

func (c *Context) computeAllAnnotations() error {
	for _, file := range c.Package.Syntax {
		if ast.IsGenerated(file) {
			continue
		}
		if err := c.computeAnnotationsFromFile(file); err != nil {
			return err
		}
	}

	annoTypes := map[string][]string{}
	for a := range c.byAnnotation {
		annoTypes[a.packagePath] = append(annoTypes[a.packagePath], a.name)
	}
	for pkg, names := range annoTypes {
		sort.Strings(names)
		c.AllAnnotationTypes[pkg] = names
	}
	return nil
}

func (c *Context) computeAnnotationsFromFile(file *ast.File) error {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, s := range gen.Specs {
			spec := s.(*ast.TypeSpec)
			doc := spec.Doc
			if (doc == nil || len(doc.List) == 0) && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			if err := c.computeAnnotationsFromType(file, spec, doc); err != nil {
				return err
			}
		}
	}

	var err error
	ast.Inspect(file, func(node ast.Node) bool {
		if err != nil {
			return false
		}
		var doc *ast.CommentGroup
		switch node := node.(type) {
		case *ast.ImportSpec:
			doc = node.Doc
		case *ast.TypeSpec:
			doc = node.Doc
		case *ast.ValueSpec:
			doc = node.Doc
		case *ast.GenDecl:
			doc = node.Doc
		case *ast.FuncDecl:
			doc = node.Doc
		case *ast.Field:
			doc = node.Doc
		case *ast.File:
			doc = node.Doc
		}
		if _, ok := c.processed[doc]; ok {
			return true
		}
		if pos, found := c.hasAnnotations(doc); found {
			err = Errorf(c.Fset.Position(pos), "annotations are only allowed on top-level types")
			return false
		}
		return true
	})
	return err
}

func (c *Context) computeAnnotationsFromType(file *ast.File, spec *ast.TypeSpec, doc *ast.CommentGroup) error {
	if doc == nil {
		return nil
	}
	c.processed[doc] = struct{}{}
	annos, err := c.parseAnnotations(file, doc)
	if err != nil {
		return err
	}
	if len(annos) == 0 {
		return nil
	}

	var obj types.Object
	if c.Package.TypesInfo != nil {
		obj = c.Package.TypesInfo.Defs[spec.Name]
	}
	el := &AnnotatedElement{
		Context:     c,
		File:        file,
		Ident:       spec.Name,
		Spec:        spec,
		Obj:         obj,
		Annotations: annos,
	}
	c.allElements = append(c.allElements, el)
	if obj != nil {
		c.AllElementsByObject[obj] = el
	}
	seen := map[annoType]struct{}{}
	for _, a := range annos {
		at := annoType{packagePath: a.PackagePath, name: a.Name}
		if _, ok := seen[at]; ok {
			continue
		}
		seen[at] = struct{}{}
		c.byAnnotation[at] = append(c.byAnnotation[at], el)
	}
	return nil
}

func (c *Context) parseAnnotations(file *ast.File, doc *ast.CommentGroup) ([]AnnotationMirror, error) {
	buf, adjuster := c.extractAnnotations(doc)
	if buf == nil {
		return nil, nil
	}
	filename := c.Fset.Position(doc.Pos()).Filename
	annos, perr := parser.ParseAnnotations(filename, buf)
	if perr != nil {
		return nil, NewErrorWithPosition(adjuster.adjustPosition(perr.Pos()), perr.Underlying())
	}
	mirrors := make([]AnnotationMirror, len(annos))
	for i, a := range annos {
		pkgPath, err := c.resolveAlias(file, a.Type.PackageAlias)
		if err != nil {
			return nil, NewErrorWithPosition(adjuster.adjustPosition(a.Pos()), err)
		}
		m := AnnotationMirror{
			PackagePath: pkgPath,
			Name:        a.Type.Name,
			Pos:         adjuster.adjustPosition(a.Pos()),
			Values:      map[string]AnnotationValue{},
		}
		for _, e := range a.Elements {
			m.Values[e.Key] = AnnotationValue{
				Kind:  e.Value.Kind,
				Str:   e.Value.Str,
				Int:   e.Value.Int,
				Bool:  e.Value.Bool,
				Ident: e.Value.Ident,
				Pos:   adjuster.adjustPosition(e.Value.Pos),
			}
		}
		mirrors[i] = m
	}
	return mirrors, nil
}

// resolveAlias maps the qualifier used in an annotation to a package import
// path. An empty alias refers to the package being processed. The gombok
// package may be referenced by its name even when the file does not import it.
func (c *Context) resolveAlias(file *ast.File, alias string) (string, error) {
	if alias == "" {
		return c.Package.PkgPath, nil
	}
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		if imp.Name != nil {
			if imp.Name.Name == alias {
				return p, nil
			}
			continue
		}
		if dep := c.Package.Imports[p]; dep != nil && dep.Name != "" {
			if dep.Name == alias {
				return p, nil
			}
		} else if path.Base(p) == alias {
			return p, nil
		}
	}
	if alias == path.Base(gombok.ImportPath) {
		return gombok.ImportPath, nil
	}
	return "", errors.Newf("unknown package %q", alias)
}

func (c *Context) extractAnnotations(doc *ast.CommentGroup) (*bytes.Buffer, posAdjuster) {
	if doc == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	var adjuster posAdjuster
	found := false
	prevSingleLine := false
	var pos token.Position
	for _, l := range doc.List {
		txt, singleLine := stripCommentMarkers(l.Text)

		if singleLine != prevSingleLine {
			found = false
			buf.Reset()
			prevSingleLine = singleLine
			adjuster = nil
		}

		pos = c.Fset.Position(l.Slash)
		// skip past opening "//" or "/*"
		pos.Offset += 2
		pos.Column += 2

		for _, line := range strings.Split(txt, "\n") {
			trimmed := strings.TrimSpace(line)
			if !found && strings.HasPrefix(trimmed, "@") {
				found = true
			}
			if found {
				adjuster = append(adjuster, posAdj{outOffset: buf.Len(), inPos: pos})
				buf.WriteString(line)
				buf.WriteByte('\n')
			}
			pos.Offset += len(line) + 1
			pos.Line++
			pos.Column = 1
		}

		// set this so we can record end of input as the last entry in adjuster
		pos = c.Fset.Position(l.End())
	}
	if !found {
		return nil, nil
	}
	adjuster = append(adjuster, posAdj{outOffset: buf.Len(), inPos: pos})
	return &buf, adjuster
}

func stripCommentMarkers(txt string) (string, bool) {
	if strings.HasPrefix(txt, "/*") {
		return strings.TrimSuffix(txt[2:], "*/"), false
	}
	return strings.TrimPrefix(txt, "//"), true
}

type posAdj struct {
	outOffset int
	inPos     token.Position
}

type posAdjuster []posAdj

func (a posAdjuster) adjustPosition(pos scanner.Position) token.Position {
	if pos.Line < 1 || pos.Line > len(a) {
		return a[len(a)-1].inPos
	}
	el := a[pos.Line-1]
	var tok token.Position
	tok.Filename = el.inPos.Filename
	tok.Line = el.inPos.Line
	tok.Column = el.inPos.Column + pos.Column - 1
	tok.Offset = el.inPos.Offset + (pos.Offset - el.outOffset)
	return tok
}

func (c *Context) hasAnnotations(doc *ast.CommentGroup) (token.Pos, bool) {
	if doc == nil {
		return 0, false
	}
	for _, l := range doc.List {
		txt, _ := stripCommentMarkers(l.Text)
		for _, line := range strings.Split(txt, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "@") {
				return l.Slash, true
			}
		}
	}
	return 0, false
}
