package syntax

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Frame is the environment in which generated code shapes are interpreted.
// Fields holds the receiver's fields and Locals the method's arguments.
// StaticCall and Invoke resolve factory calls and method calls; a nil
// function makes the corresponding expression fail.
type Frame struct {
	Fields     map[string]interface{}
	Locals     map[string]interface{}
	StaticCall func(t TypeRef, method string, args []interface{}) (interface{}, error)
	Invoke     func(recv interface{}, method string, args []interface{}) (interface{}, error)
}

// NewFrame returns a frame with empty fields and locals.
func NewFrame() *Frame {
	return &Frame{
		Fields: map[string]interface{}{},
		Locals: map[string]interface{}{},
	}
}

// Run interprets the body of m in the given frame, binding args to the
// method's parameters. It returns the value of the executed return statement,
// if any.
func Run(f *Frame, m MethodDecl, args ...interface{}) (interface{}, error) {
	if len(args) != len(m.Args) {
		return nil, errors.Newf("method %s takes %d arguments, got %d", m.Name, len(m.Args), len(args))
	}
	for i, a := range m.Args {
		f.Locals[a.Name] = args[i]
	}
	v, _, err := Exec(f, m.Body)
	return v, err
}

// Exec interprets the statements of b. The returned bool indicates whether a
// return statement was executed.
func Exec(f *Frame, b Block) (interface{}, bool, error) {
	for _, s := range b.Stmts {
		v, returned, err := execStmt(f, s)
		if err != nil || returned {
			return v, returned, err
		}
	}
	return nil, false, nil
}

func execStmt(f *Frame, s Stmt) (interface{}, bool, error) {
	switch s := s.(type) {
	case Block:
		return Exec(f, s)
	case IfStmt:
		c, err := Eval(f, s.Cond)
		if err != nil {
			return nil, false, err
		}
		cond, ok := c.(bool)
		if !ok {
			return nil, false, errors.Newf("condition %s is not a bool", formatExpr(s.Cond))
		}
		if cond {
			return Exec(f, s.ThenBody)
		} else if s.ElseBody != nil {
			return Exec(f, *s.ElseBody)
		}
		return nil, false, nil
	case AssignStmt:
		v, err := Eval(f, s.Value)
		if err != nil {
			return nil, false, err
		}
		switch t := s.Target.(type) {
		case FieldExpr:
			f.Fields[t.Name] = v
		case NameExpr:
			f.Locals[t.Name] = v
		default:
			return nil, false, errors.Newf("cannot assign to %s", formatExpr(s.Target))
		}
		return nil, false, nil
	case ReturnStmt:
		if s.Value == nil {
			return nil, true, nil
		}
		v, err := Eval(f, s.Value)
		return v, err == nil, err
	case ExprStmt:
		_, err := Eval(f, s.X)
		return nil, false, err
	default:
		return nil, false, errors.Newf("unsupported statement %T", s)
	}
}

// Eval interprets a single expression.
func Eval(f *Frame, e Expr) (interface{}, error) {
	switch e := e.(type) {
	case NullExpr:
		return nil, nil
	case NameExpr:
		v, ok := f.Locals[e.Name]
		if !ok {
			return nil, errors.Newf("undefined: %s", e.Name)
		}
		return v, nil
	case FieldExpr:
		v, ok := f.Fields[e.Name]
		if !ok {
			return nil, errors.Newf("undefined field: %s", e.Name)
		}
		return v, nil
	case EqualExpr:
		l, err := Eval(f, e.Left)
		if err != nil {
			return nil, err
		}
		r, err := Eval(f, e.Right)
		if err != nil {
			return nil, err
		}
		return identical(l, r), nil
	case IsNullExpr:
		v, err := Eval(f, e.X)
		if err != nil {
			return nil, err
		}
		return isNil(v), nil
	case StaticCallExpr:
		if f.StaticCall == nil {
			return nil, errors.Newf("no factory resolver for %s", formatExpr(e))
		}
		args, err := evalAll(f, e.Args)
		if err != nil {
			return nil, err
		}
		return f.StaticCall(e.Type, e.Method, args)
	case CallExpr:
		if f.Invoke == nil {
			return nil, errors.Newf("no method resolver for %s", formatExpr(e))
		}
		recv, err := Eval(f, e.Receiver)
		if err != nil {
			return nil, err
		}
		if isNil(recv) {
			return nil, errors.Newf("%s: nil receiver", formatExpr(e))
		}
		args, err := evalAll(f, e.Args)
		if err != nil {
			return nil, err
		}
		return f.Invoke(recv, e.Method, args)
	default:
		return nil, errors.Newf("unsupported expression %T", e)
	}
}

func evalAll(f *Frame, exprs []Expr) ([]interface{}, error) {
	vals := make([]interface{}, len(exprs))
	for i, e := range exprs {
		v, err := Eval(f, e)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// identical compares values the way Go compares interface values: a typed
// nil pointer is not equal to nil.
func identical(l, r interface{}) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	if reflect.TypeOf(l) != reflect.TypeOf(r) || !reflect.TypeOf(l).Comparable() {
		return false
	}
	return l == r
}
