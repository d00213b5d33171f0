package goedit

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	goparser "go/parser"
	"go/token"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jhump/gopoet"
	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/go/packages"

	"github.com/jhump/gombok/processor"
	"github.com/jhump/gombok/syntax"
)

// GeneratedHeader is the first line of every companion file.
const GeneratedHeader = "// Code generated by gombok. DO NOT EDIT."

// Flush writes all accumulated edits. Source files with new fields are
// rewritten in place, then the companion file is generated. Nothing is written
// for a package that has no edits.
func (p *PackageEditor) Flush(output processor.OutputFactory) error {
	if err := p.flushSources(output); err != nil {
		return err
	}
	return p.flushCompanion(output)
}

func (p *PackageEditor) flushSources(output processor.OutputFactory) error {
	var files []*ast.File
	byFile := map[*ast.File][]*Type{}
	for _, t := range p.order {
		if len(t.splices) == 0 {
			continue
		}
		if _, ok := byFile[t.el.File]; !ok {
			files = append(files, t.el.File)
		}
		byFile[t.el.File] = append(byFile[t.el.File], t)
	}
	for _, f := range files {
		if err := p.rewriteSource(f, byFile[f], output); err != nil {
			return err
		}
	}
	return nil
}

type splice struct {
	offset int
	text   string
}

func (p *PackageEditor) rewriteSource(file *ast.File, types []*Type, output processor.OutputFactory) error {
	filename := p.ctx.Filename(file)
	src, err := p.ctx.Source(file)
	if err != nil {
		return err
	}
	tokFile := p.ctx.Fset.File(file.Pos())
	imports := newImportSet(p.ctx.Package.PkgPath, file, p.ctx.Package.Imports)

	splices := make([]splice, 0, len(types))
	for _, t := range types {
		closing := tokFile.Offset(t.st.Fields.Closing)
		var sb strings.Builder
		if closing > 0 && src[closing-1] != '\n' {
			sb.WriteByte('\n')
		}
		for _, f := range t.splices {
			sb.WriteString("\t" + f.Name + " " + f.Type.Qualified(imports.qualifier) + "\n")
		}
		splices = append(splices, splice{offset: closing, text: sb.String()})
	}
	sort.Slice(splices, func(i, j int) bool {
		return splices[i].offset > splices[j].offset
	})
	edited := append([]byte(nil), src...)
	for _, s := range splices {
		edited = append(edited[:s.offset], append([]byte(s.text), edited[s.offset:]...)...)
	}

	fset := token.NewFileSet()
	f, err := goparser.ParseFile(fset, filename, edited, goparser.ParseComments)
	if err != nil {
		return errors.Wrapf(err, "failed to add fields to %s", filename)
	}
	for _, imp := range imports.added {
		astutil.AddNamedImport(fset, f, imp.alias, imp.path)
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return errors.Wrapf(err, "failed to format %s", filename)
	}

	p.logger.Info("adding fields", zap.String("file", filename), zap.Int("types", len(types)))
	return writeOutput(output, p.ctx.OutputPath(filepath.Base(filename)), buf.Bytes())
}

// companion is one generated file and the types whose methods it holds.
type companion struct {
	name  string
	types []*Type
	isNil *nilHelper
}

func (p *PackageEditor) flushCompanion(output processor.OutputFactory) error {
	var companions []*companion
	byName := map[string]*companion{}
	for _, t := range p.order {
		name := companionFileFor(p.ctx.Package.Name, filepath.Base(p.ctx.Filename(t.el.File)))
		c := byName[name]
		if c == nil {
			helper := "gombokIsNil"
			if strings.HasSuffix(name, "_test.go") {
				helper = "gombokTestIsNil"
			}
			c = &companion{name: name, isNil: &nilHelper{name: helper}}
			byName[name] = c
			companions = append(companions, c)
		}
		c.types = append(c.types, t)
	}
	for _, c := range companions {
		if err := p.writeCompanion(c, output); err != nil {
			return err
		}
	}
	return nil
}

func (p *PackageEditor) writeCompanion(c *companion, output processor.OutputFactory) error {
	gf := gopoet.NewGoFile(c.name, p.ctx.Package.PkgPath, p.ctx.Package.Name)
	count := 0
	for _, t := range c.types {
		n, err := t.generate(gf, c.isNil)
		if err != nil {
			return processor.NewErrorWithPosition(t.el.Pos(), err)
		}
		count += n
	}
	if count == 0 {
		return nil
	}
	if c.isNil.used {
		gf.AddElement(c.isNil.decl())
	}

	var buf bytes.Buffer
	buf.WriteString(GeneratedHeader + "\n\n")
	if err := gopoet.WriteGoFile(&buf, gf); err != nil {
		return errors.Wrapf(err, "failed to generate %s", c.name)
	}
	p.logger.Info("generating methods", zap.String("file", c.name), zap.Int("methods", count))
	return writeOutput(output, p.ctx.OutputPath(c.name), buf.Bytes())
}

// generate adds the type's methods to the given file, returning how many
// were added.
func (t *Type) generate(gf *gopoet.GoFile, isNil *nilHelper) (int, error) {
	count := 0
	var inits []syntax.FieldDecl
	for _, f := range t.fields {
		if f.Init != nil {
			inits = append(inits, f)
		}
	}
	if len(inits) > 0 {
		if t.hasMethod(InitFieldsMethod) {
			t.pkg.logger.Warn("method already declared, field initializers not generated",
				zap.String("type", t.Name()), zap.String("method", InitFieldsMethod))
		} else {
			recv := receiverName(t.Name(), nil)
			fn := gopoet.NewMethod(gopoet.NewPointerReceiver(recv, t.Name()), InitFieldsMethod).
				SetComment(fmt.Sprintf("%s assigns the initial values of the fields added by gombok.\n"+
					"Constructors of %s must call it: in a zero value those fields are nil.", InitFieldsMethod, t.Name()))
			w := bodyWriter{cb: &fn.CodeBlock, recv: recv, isNil: isNil}
			for _, f := range inits {
				if err := w.stmt(syntax.Assign(syntax.Field(f.Name), f.Init)); err != nil {
					return 0, errors.Wrapf(err, "initializer for field %s", f.Name)
				}
			}
			gf.AddElement(fn)
			count++
		}
	}

	for _, m := range t.methods {
		fn, err := t.method(m, isNil)
		if err != nil {
			return 0, errors.Wrapf(err, "method %s", m.Name)
		}
		gf.AddElement(fn)
		count++
	}
	return count, nil
}

func (t *Type) method(m syntax.MethodDecl, isNil *nilHelper) (*gopoet.FuncSpec, error) {
	recv := receiverName(t.Name(), m.Args)
	fn := gopoet.NewMethod(gopoet.NewPointerReceiver(recv, t.Name()), m.Name).SetComment(m.Doc)
	for _, a := range m.Args {
		tn, err := typeName(a.Type)
		if err != nil {
			return nil, err
		}
		fn.AddArg(a.Name, tn)
	}
	if m.Variadic {
		fn.SetVariadic(true)
	}
	for _, r := range m.Results {
		tn, err := typeName(r)
		if err != nil {
			return nil, err
		}
		fn.AddResult("", tn)
	}
	w := bodyWriter{cb: &fn.CodeBlock, recv: recv, isNil: isNil}
	if err := w.block(m.Body); err != nil {
		return nil, err
	}
	return fn, nil
}

func writeOutput(output processor.OutputFactory, p string, data []byte) error {
	w, err := output(p)
	if err != nil {
		return errors.Wrapf(err, "failed to open output %s", p)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "failed to write output %s", p)
	}
	return errors.Wrapf(w.Close(), "failed to write output %s", p)
}

type addedImport struct {
	path, alias string
}

// importSet tracks the names by which packages are referred to in a file, so
// that spliced field types are qualified correctly.
type importSet struct {
	self   string
	byPath map[string]string
	names  map[string]struct{}
	added  []addedImport
}

func newImportSet(self string, file *ast.File, deps map[string]*packages.Package) *importSet {
	s := &importSet{
		self:   self,
		byPath: map[string]string{},
		names:  map[string]struct{}{},
	}
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		var name string
		switch {
		case imp.Name != nil:
			name = imp.Name.Name
		case deps[p] != nil && deps[p].Name != "":
			name = deps[p].Name
		default:
			name = guessPackageName(p)
		}
		if name == "_" || name == "." {
			continue
		}
		s.byPath[p] = name
		s.names[name] = struct{}{}
	}
	return s
}

func (s *importSet) qualifier(pkgPath string) string {
	if pkgPath == s.self {
		return ""
	}
	if name, ok := s.byPath[pkgPath]; ok {
		return name
	}
	base := guessPackageName(pkgPath)
	name := base
	for i := 1; ; i++ {
		if _, ok := s.names[name]; !ok {
			break
		}
		name = base + strconv.Itoa(i)
	}
	alias := ""
	if name != path.Base(pkgPath) {
		alias = name
	}
	s.byPath[pkgPath] = name
	s.names[name] = struct{}{}
	s.added = append(s.added, addedImport{path: pkgPath, alias: alias})
	return name
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// guessPackageName computes the conventional name of the package with the
// given import path, without loading it.
func guessPackageName(pkgPath string) string {
	base := path.Base(pkgPath)
	if majorVersion.MatchString(base) && path.Dir(pkgPath) != "." {
		base = path.Base(path.Dir(pkgPath))
	}
	if i := strings.Index(base, ".v"); i > 0 {
		base = base[:i]
	}
	base = strings.TrimPrefix(base, "go-")
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, base)
}
