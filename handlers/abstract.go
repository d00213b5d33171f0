// Package handlers contains the handlers that inject members into annotated
// types. Handlers are generic over the type handle, so the same handler drives
// the Go source editor and the in-memory recorder used for dry runs.
package handlers

import (
	"go.uber.org/zap"

	"github.com/jhump/gombok/editor"
	"github.com/jhump/gombok/syntax"
)

// Delegator injects methods that forward to another object.
type Delegator interface {
	DelegateMethods(ed editor.Editor, methods []syntax.MethodDescriptor, target syntax.Expr) error
}

// DelegatorFunc adapts a function to the Delegator interface.
type DelegatorFunc func(ed editor.Editor, methods []syntax.MethodDescriptor, target syntax.Expr) error

// DelegateMethods implements Delegator.
func (f DelegatorFunc) DelegateMethods(ed editor.Editor, methods []syntax.MethodDescriptor, target syntax.Expr) error {
	return f(ed, methods, target)
}

// ForwardingDelegator is the default Delegator. For each descriptor it
// injects a public method with the same signature that calls the method of
// the same name on the target.
type ForwardingDelegator struct{}

// DelegateMethods implements Delegator. It stops at the first error.
func (ForwardingDelegator) DelegateMethods(ed editor.Editor, methods []syntax.MethodDescriptor, target syntax.Expr) error {
	for _, d := range methods {
		if err := ed.InjectMethod(ForwardingMethod(d, target)); err != nil {
			return err
		}
	}
	return nil
}

// ForwardingMethod builds a public method that forwards to the method of the
// same name on target. The result of the call is returned if the method has
// results, and a variadic last parameter is passed through as such.
func ForwardingMethod(d syntax.MethodDescriptor, target syntax.Expr) syntax.MethodDecl {
	m := syntax.NewMethodDecl(syntax.Void, d.Name).MakePublic().WithResults(d.Results...)
	args := make([]syntax.Expr, len(d.Params))
	for i, p := range d.Params {
		m = m.WithArgument(p)
		args[i] = syntax.Name(p.Name)
	}
	m = m.WithVariadic(d.Variadic)
	call := syntax.CallExpr{Receiver: target, Method: d.Name, Args: args, Spread: d.Variadic}
	if len(d.Results) > 0 {
		return m.WithStatement(syntax.Return(call))
	}
	return m.WithStatement(syntax.Do(call))
}

// Option configures a handler.
type Option func(*options)

type options struct {
	delegator Delegator
	logger    *zap.Logger
}

// WithDelegator sets the facility used to inject delegating methods. The
// default is ForwardingDelegator.
func WithDelegator(d Delegator) Option {
	return func(o *options) {
		o.delegator = d
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// AbstractHandler holds the helpers shared by handlers.
type AbstractHandler[T editor.Type[M], M editor.Method] struct {
	delegator Delegator
	logger    *zap.Logger
}

func newAbstractHandler[T editor.Type[M], M editor.Method](opts []Option) AbstractHandler[T, M] {
	o := options{delegator: ForwardingDelegator{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.delegator == nil {
		o.delegator = ForwardingDelegator{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return AbstractHandler[T, M]{delegator: o.delegator, logger: o.logger}
}

// AddField requests a private field of the given type on t. The init
// expression may be nil.
func (h *AbstractHandler[T, M]) AddField(t T, typ syntax.TypeRef, name string, init syntax.Expr) error {
	h.logger.Debug("adding field", zap.String("type", t.Name()), zap.String("field", name))
	f := syntax.NewFieldDecl(typ, name)
	if init != nil {
		f = f.WithInitializer(init)
	}
	return t.Editor().AddField(f)
}

// DelegateMethodsTo makes a single call to the delegator, asking it to
// forward the given methods to target.
func (h *AbstractHandler[T, M]) DelegateMethodsTo(t T, methods []syntax.MethodDescriptor, target syntax.Expr) error {
	h.logger.Debug("delegating methods", zap.String("type", t.Name()), zap.Int("methods", len(methods)))
	return h.delegator.DelegateMethods(t.Editor(), methods, target)
}
