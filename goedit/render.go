package goedit

import (
	"go/token"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jhump/gopoet"

	"github.com/jhump/gombok/syntax"
)

// typeName converts a type reference into a gopoet type, so that references
// to other packages are qualified (and imported) when the file is written.
func typeName(t syntax.TypeRef) (gopoet.TypeName, error) {
	switch t.Kind {
	case syntax.KindBasic:
		return gopoet.NamedType(gopoet.Symbol{Name: t.Name}), nil
	case syntax.KindNamed:
		if t.Pkg == "" {
			return gopoet.NamedType(gopoet.Symbol{Name: t.Name}), nil
		}
		return gopoet.NamedType(gopoet.NewPackage(t.Pkg).Symbol(t.Name)), nil
	case syntax.KindPointer:
		elem, err := typeName(*t.Elem)
		if err != nil {
			return nil, err
		}
		return gopoet.PointerType(elem), nil
	case syntax.KindSlice:
		elem, err := typeName(*t.Elem)
		if err != nil {
			return nil, err
		}
		return gopoet.SliceType(elem), nil
	case syntax.KindMap:
		key, err := typeName(*t.Key)
		if err != nil {
			return nil, err
		}
		val, err := typeName(*t.Elem)
		if err != nil {
			return nil, err
		}
		return gopoet.MapType(key, val), nil
	case syntax.KindFunc:
		params, err := argTypes(t.Params)
		if err != nil {
			return nil, err
		}
		results, err := argTypes(t.Results)
		if err != nil {
			return nil, err
		}
		if t.Variadic {
			return gopoet.FuncTypeVariadic(params, results), nil
		}
		return gopoet.FuncType(params, results), nil
	default:
		return nil, errors.Newf("type %v cannot be used here", t)
	}
}

func argTypes(types []syntax.TypeRef) ([]gopoet.ArgType, error) {
	args := make([]gopoet.ArgType, len(types))
	for i, t := range types {
		tn, err := typeName(t)
		if err != nil {
			return nil, err
		}
		args[i] = gopoet.ArgType{Type: tn}
	}
	return args, nil
}

// receiverName picks the receiver for generated methods: the lower-cased
// first letter of the type name, unless a parameter already uses that name.
func receiverName(typeName string, args []syntax.Arg) string {
	name := strings.ToLower(typeName[:1])
	for _, a := range args {
		if a.Name == name {
			return name + "_"
		}
	}
	return name
}

// bodyWriter renders statements into a gopoet code block. Symbols are passed
// to the block as format arguments so that gopoet qualifies them.
type bodyWriter struct {
	cb    *gopoet.CodeBlock
	recv  string
	isNil *nilHelper
}

// nilHelper is the unexported function, emitted once per generated file, that
// null checks are rendered as. Comparing an interface with nil misses a nil
// pointer stored in the interface.
type nilHelper struct {
	name string
	used bool
}

func (h *nilHelper) decl() *gopoet.FuncSpec {
	reflectPkg := gopoet.NewPackage("reflect")
	fn := gopoet.NewFunc(h.name).
		SetComment(h.name + " reports whether v is nil or holds a nil reference.").
		AddArg("v", gopoet.InterfaceType(nil)).
		AddResult("", gopoet.BoolType)
	fn.Println("if v == nil {")
	fn.Println("return true")
	fn.Println("}")
	fn.Printlnf("switch rv := %s(v); rv.Kind() {", reflectPkg.Symbol("ValueOf"))
	fn.Printlnf("case %s, %s, %s, %s, %s, %s:",
		reflectPkg.Symbol("Chan"), reflectPkg.Symbol("Func"), reflectPkg.Symbol("Interface"),
		reflectPkg.Symbol("Map"), reflectPkg.Symbol("Ptr"), reflectPkg.Symbol("Slice"))
	fn.Println("return rv.IsNil()")
	fn.Println("}")
	fn.Println("return false")
	return fn
}

func (w *bodyWriter) block(b syntax.Block) error {
	for _, s := range b.Stmts {
		if err := w.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (w *bodyWriter) stmt(s syntax.Stmt) error {
	switch s := s.(type) {
	case syntax.IfStmt:
		format, args, err := w.expr(s.Cond)
		if err != nil {
			return err
		}
		w.cb.Printlnf("if "+format+" {", args...)
		if err := w.block(s.ThenBody); err != nil {
			return err
		}
		if s.ElseBody != nil {
			w.cb.Println("} else {")
			if err := w.block(*s.ElseBody); err != nil {
				return err
			}
		}
		w.cb.Println("}")
	case syntax.AssignStmt:
		lhs, largs, err := w.expr(s.Target)
		if err != nil {
			return err
		}
		rhs, rargs, err := w.expr(s.Value)
		if err != nil {
			return err
		}
		w.cb.Printlnf(lhs+" = "+rhs, append(largs, rargs...)...)
	case syntax.ReturnStmt:
		if s.Value == nil {
			w.cb.Println("return")
			return nil
		}
		format, args, err := w.expr(s.Value)
		if err != nil {
			return err
		}
		w.cb.Printlnf("return "+format, args...)
	case syntax.ExprStmt:
		format, args, err := w.expr(s.X)
		if err != nil {
			return err
		}
		w.cb.Printlnf(format, args...)
	case syntax.Block:
		return w.block(s)
	default:
		return errors.Newf("unsupported statement %T", s)
	}
	return nil
}

// expr returns a format string and arguments that render e.
func (w *bodyWriter) expr(e syntax.Expr) (string, []interface{}, error) {
	switch e := e.(type) {
	case syntax.NameExpr:
		if !token.IsIdentifier(e.Name) {
			return "", nil, errors.Newf("invalid name %q", e.Name)
		}
		return e.Name, nil, nil
	case syntax.NullExpr:
		return "nil", nil, nil
	case syntax.FieldExpr:
		if !token.IsIdentifier(e.Name) {
			return "", nil, errors.Newf("invalid field name %q", e.Name)
		}
		return w.recv + "." + e.Name, nil, nil
	case syntax.StaticCallExpr:
		// Go has no static methods; the factory is a function in the
		// package that declares the type.
		var sym gopoet.Symbol
		if e.Type.Pkg == "" {
			sym = gopoet.Symbol{Name: e.Method}
		} else {
			sym = gopoet.NewPackage(e.Type.Pkg).Symbol(e.Method)
		}
		format, args, err := w.exprs(e.Args, false)
		if err != nil {
			return "", nil, err
		}
		return "%s(" + format + ")", append([]interface{}{sym}, args...), nil
	case syntax.CallExpr:
		recv, rargs, err := w.expr(e.Receiver)
		if err != nil {
			return "", nil, err
		}
		format, args, err := w.exprs(e.Args, e.Spread)
		if err != nil {
			return "", nil, err
		}
		return recv + "." + e.Method + "(" + format + ")", append(rargs, args...), nil
	case syntax.EqualExpr:
		l, largs, err := w.expr(e.Left)
		if err != nil {
			return "", nil, err
		}
		r, rargs, err := w.expr(e.Right)
		if err != nil {
			return "", nil, err
		}
		return l + " == " + r, append(largs, rargs...), nil
	case syntax.IsNullExpr:
		if w.isNil == nil {
			return "", nil, errors.New("null checks are not supported here")
		}
		x, args, err := w.expr(e.X)
		if err != nil {
			return "", nil, err
		}
		w.isNil.used = true
		return w.isNil.name + "(" + x + ")", args, nil
	default:
		return "", nil, errors.Newf("unsupported expression %T", e)
	}
}

func (w *bodyWriter) exprs(es []syntax.Expr, spread bool) (string, []interface{}, error) {
	parts := make([]string, len(es))
	var args []interface{}
	for i, e := range es {
		format, a, err := w.expr(e)
		if err != nil {
			return "", nil, err
		}
		parts[i] = format
		args = append(args, a...)
	}
	joined := strings.Join(parts, ", ")
	if spread && len(es) > 0 {
		joined += "..."
	}
	return joined, args, nil
}
