package syntax

import (
	"fmt"
	"strings"
)

// Format renders a node as language-neutral pseudo-code. It is meant for
// humans (dry runs and log output), not for compilation.
func Format(n Node) string {
	var f formatter
	f.node(n)
	return strings.TrimRight(f.sb.String(), "\n")
}

type formatter struct {
	sb     strings.Builder
	indent int
}

func (f *formatter) line(format string, args ...interface{}) {
	f.sb.WriteString(strings.Repeat("    ", f.indent))
	fmt.Fprintf(&f.sb, format, args...)
	f.sb.WriteByte('\n')
}

func (f *formatter) node(n Node) {
	switch n := n.(type) {
	case FieldDecl:
		if n.Init != nil {
			f.line("%s %s %s = %s", n.Modifiers, n.Type, n.Name, formatExpr(n.Init))
		} else {
			f.line("%s %s %s", n.Modifiers, n.Type, n.Name)
		}
	case MethodDecl:
		f.line("%s %s %s(%s) {", n.Modifiers, formatResults(n.Results), n.Name, formatArgs(n.Args, n.Variadic))
		f.indent++
		f.block(n.Body)
		f.indent--
		f.line("}")
	case Block:
		f.block(n)
	case Stmt:
		f.stmt(n)
	case Expr:
		f.line("%s", formatExpr(n))
	}
}

func (f *formatter) block(b Block) {
	for _, s := range b.Stmts {
		f.stmt(s)
	}
}

func (f *formatter) stmt(s Stmt) {
	switch s := s.(type) {
	case IfStmt:
		f.line("if (%s) {", formatExpr(s.Cond))
		f.indent++
		f.block(s.ThenBody)
		f.indent--
		if s.ElseBody != nil {
			f.line("} else {")
			f.indent++
			f.block(*s.ElseBody)
			f.indent--
		}
		f.line("}")
	case AssignStmt:
		f.line("%s = %s;", formatExpr(s.Target), formatExpr(s.Value))
	case ReturnStmt:
		if s.Value == nil {
			f.line("return;")
		} else {
			f.line("return %s;", formatExpr(s.Value))
		}
	case ExprStmt:
		f.line("%s;", formatExpr(s.X))
	case Block:
		f.line("{")
		f.indent++
		f.block(s)
		f.indent--
		f.line("}")
	}
}

func formatExpr(e Expr) string {
	switch e := e.(type) {
	case NameExpr:
		return e.Name
	case NullExpr:
		return "null"
	case FieldExpr:
		return "this." + e.Name
	case StaticCallExpr:
		return fmt.Sprintf("%s.%s(%s)", e.Type, e.Method, formatExprs(e.Args, false))
	case CallExpr:
		return fmt.Sprintf("%s.%s(%s)", formatExpr(e.Receiver), e.Method, formatExprs(e.Args, e.Spread))
	case EqualExpr:
		return fmt.Sprintf("%s == %s", formatExpr(e.Left), formatExpr(e.Right))
	case IsNullExpr:
		return formatExpr(e.X) + " == null"
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

func formatExprs(args []Expr, spread bool) string {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = formatExpr(a)
	}
	if spread && len(strs) > 0 {
		strs[len(strs)-1] += "..."
	}
	return strings.Join(strs, ", ")
}

func formatArgs(args []Arg, variadic bool) string {
	strs := make([]string, len(args))
	for i, a := range args {
		if variadic && i == len(args)-1 && a.Type.Kind == KindSlice {
			strs[i] = fmt.Sprintf("%s... %s", a.Type.Elem, a.Name)
			continue
		}
		strs[i] = fmt.Sprintf("%s %s", a.Type, a.Name)
	}
	return strings.Join(strs, ", ")
}

func formatResults(results []TypeRef) string {
	switch len(results) {
	case 0:
		return "void"
	case 1:
		return results[0].String()
	}
	strs := make([]string, len(results))
	for i, r := range results {
		strs[i] = r.String()
	}
	return "(" + strings.Join(strs, ", ") + ")"
}
