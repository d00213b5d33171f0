// Package goedit edits Go packages in response to injection requests.
//
// Go cannot add a field to a struct from another file, so fields are spliced
// into the struct declaration in the original source file. Everything else
// goes into a companion file named <package>_gombok.go, which is regenerated
// from scratch on every run:
//
//   - injected methods, with a pointer receiver
//   - an InitFields method per type that has field initializers
//
// Members that are already declared by hand are left alone, so running the
// generator again over its own output makes no changes.
package goedit

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jhump/gombok/editor"
	"github.com/jhump/gombok/processor"
	"github.com/jhump/gombok/syntax"
)

// InitFieldsMethod is the name of the generated method that assigns field
// initializers.
const InitFieldsMethod = "InitFields"

// PackageEditor accumulates edits to the types of one package.
type PackageEditor struct {
	ctx    *processor.Context
	logger *zap.Logger
	types  map[string]*Type
	order  []*Type
}

// NewPackageEditor returns an editor for the package of the given context.
func NewPackageEditor(ctx *processor.Context) *PackageEditor {
	return &PackageEditor{
		ctx:    ctx,
		logger: ctx.Logger,
		types:  map[string]*Type{},
	}
}

// Type returns the editable type for the annotated struct with the given name.
func (p *PackageEditor) Type(name string) (*Type, error) {
	for i := 0; i < p.ctx.NumElements(); i++ {
		if el := p.ctx.GetElement(i); el.Name() == name {
			return p.TypeFor(el)
		}
	}
	return nil, errors.Newf("no annotated type named %s in package %s", name, p.ctx.Package.PkgPath)
}

// TypeFor returns the editable type for the given annotated element. It is an
// error if the element is not a struct.
func (p *PackageEditor) TypeFor(el *processor.AnnotatedElement) (*Type, error) {
	if t, ok := p.types[el.Name()]; ok {
		return t, nil
	}
	st, ok := el.Spec.Type.(*ast.StructType)
	if !ok {
		return nil, processor.Errorf(el.Pos(), "%s must be a struct type", el.Name())
	}
	if el.Spec.TypeParams != nil && el.Spec.TypeParams.NumFields() > 0 {
		return nil, processor.Errorf(el.Pos(), "%s: generic types are not supported", el.Name())
	}
	t := &Type{
		pkg:            p,
		el:             el,
		st:             st,
		existingFields: map[string]struct{}{},
		fieldNames:     map[string]struct{}{},
		methodNames:    map[string]struct{}{},
	}
	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			t.existingFields[embeddedName(f.Type)] = struct{}{}
		}
		for _, n := range f.Names {
			t.existingFields[n.Name] = struct{}{}
		}
	}
	t.collectMethods(p.ctx.Package.Syntax)
	p.types[el.Name()] = t
	p.order = append(p.order, t)
	return t, nil
}

func embeddedName(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.StarExpr:
		return embeddedName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.Ident:
		return e.Name
	case *ast.IndexExpr:
		return embeddedName(e.X)
	case *ast.IndexListExpr:
		return embeddedName(e.X)
	default:
		return ""
	}
}

// Method is a method that was declared by hand on a type being edited.
type Method struct {
	decl *ast.FuncDecl
}

// Name returns the method's name.
func (m *Method) Name() string {
	return m.decl.Name.Name
}

// Decl returns the method's declaration.
func (m *Method) Decl() *ast.FuncDecl {
	return m.decl
}

// Type is a struct type being edited. It implements editor.Type and
// editor.Editor.
type Type struct {
	pkg *PackageEditor
	el  *processor.AnnotatedElement
	st  *ast.StructType

	existingFields map[string]struct{}
	existing       []*Method

	fields     []syntax.FieldDecl
	fieldNames map[string]struct{}
	// splices are the fields that are not declared yet.
	splices     []syntax.FieldDecl
	methods     []syntax.MethodDecl
	methodNames map[string]struct{}
}

var _ editor.Type[*Method] = (*Type)(nil)
var _ editor.Editor = (*Type)(nil)

func (t *Type) collectMethods(files []*ast.File) {
	for _, f := range files {
		if ast.IsGenerated(f) {
			continue
		}
		for _, decl := range f.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
				continue
			}
			if embeddedName(fd.Recv.List[0].Type) == t.Name() {
				t.existing = append(t.existing, &Method{decl: fd})
			}
		}
	}
}

// Name returns the name of the type.
func (t *Type) Name() string {
	return t.el.Name()
}

// Methods returns the hand-written methods of the type. Methods in generated
// files are not included.
func (t *Type) Methods() []*Method {
	return t.existing
}

// Editor returns t.
func (t *Type) Editor() editor.Editor {
	return t
}

func (t *Type) hasMethod(name string) bool {
	for _, m := range t.existing {
		if m.Name() == name {
			return true
		}
	}
	return false
}

func checkVisibility(kind, name string, m syntax.Modifiers) error {
	if !token.IsIdentifier(name) {
		return errors.Newf("invalid %s name %q", kind, name)
	}
	exported := token.IsExported(name)
	switch {
	case m&syntax.Public != 0 && !exported:
		return errors.Newf("public %s %s must have an exported name", kind, name)
	case m&syntax.Private != 0 && exported:
		return errors.Newf("private %s %s must not have an exported name", kind, name)
	}
	return nil
}

// AddField adds a field to the struct. If the struct already declares a field
// with the same name, the declaration is left alone but the initializer, if
// any, is still generated.
func (t *Type) AddField(f syntax.FieldDecl) error {
	if err := checkVisibility("field", f.Name, f.Modifiers); err != nil {
		return processor.NewErrorWithPosition(t.el.Pos(), err)
	}
	if _, ok := t.fieldNames[f.Name]; ok {
		return processor.Errorf(t.el.Pos(), "field %s.%s was already added", t.Name(), f.Name)
	}
	if t.hasMethod(f.Name) {
		return processor.Errorf(t.el.Pos(), "field %s.%s conflicts with a method", t.Name(), f.Name)
	}
	if _, err := typeName(f.Type); err != nil {
		return processor.NewErrorWithPosition(t.el.Pos(), errors.Wrapf(err, "field %s.%s", t.Name(), f.Name))
	}
	t.fieldNames[f.Name] = struct{}{}
	t.fields = append(t.fields, f)
	if _, ok := t.existingFields[f.Name]; ok {
		t.pkg.logger.Debug("field already declared",
			zap.String("type", t.Name()), zap.String("field", f.Name))
		return nil
	}
	t.splices = append(t.splices, f)
	return nil
}

// InjectMethod adds a method to the type. A method that is already declared
// by hand is skipped.
func (t *Type) InjectMethod(m syntax.MethodDecl) error {
	if err := checkVisibility("method", m.Name, m.Modifiers); err != nil {
		return processor.NewErrorWithPosition(t.el.Pos(), err)
	}
	if m.Name == InitFieldsMethod {
		return processor.Errorf(t.el.Pos(), "method name %s is reserved", InitFieldsMethod)
	}
	if _, ok := t.methodNames[m.Name]; ok {
		return processor.Errorf(t.el.Pos(), "method %s.%s was already injected", t.Name(), m.Name)
	}
	if _, ok := t.existingFields[m.Name]; ok {
		return processor.Errorf(t.el.Pos(), "method %s.%s conflicts with a field", t.Name(), m.Name)
	}
	if _, ok := t.fieldNames[m.Name]; ok {
		return processor.Errorf(t.el.Pos(), "method %s.%s conflicts with a field", t.Name(), m.Name)
	}
	if m.Variadic && (len(m.Args) == 0 || m.Args[len(m.Args)-1].Type.Kind != syntax.KindSlice) {
		return processor.Errorf(t.el.Pos(), "method %s.%s: variadic parameter must be a slice", t.Name(), m.Name)
	}
	t.methodNames[m.Name] = struct{}{}
	if t.hasMethod(m.Name) {
		t.pkg.logger.Info("method already declared, skipping",
			zap.String("type", t.Name()), zap.String("method", m.Name))
		return nil
	}
	t.methods = append(t.methods, m)
	return nil
}

// companionFileName returns the name of the generated file for a package.
// External test packages get a _test.go file so that they still compile.
func companionFileName(pkgName string) string {
	if base := strings.TrimSuffix(pkgName, "_test"); base != pkgName {
		return base + "_gombok_test.go"
	}
	return pkgName + "_gombok.go"
}

// companionFileFor returns the generated file that holds the methods of a
// type declared in the named source file. Types declared in _test.go files
// get a _test.go companion, since the rest of the package cannot see them.
func companionFileFor(pkgName, sourceFile string) string {
	if strings.HasSuffix(sourceFile, "_test.go") {
		return strings.TrimSuffix(pkgName, "_test") + "_gombok_test.go"
	}
	return companionFileName(pkgName)
}
