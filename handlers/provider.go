package handlers

import (
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/jhump/gombok/editor"
	"github.com/jhump/gombok/providers"
	"github.com/jhump/gombok/syntax"
)

// ProviderAwareHandler wires a provider into a type. It adds a private field
// holding the provider, initialized to the default provider; a public setter
// that falls back to the default when given nil; a public getter; and public
// methods that delegate to the provider.
type ProviderAwareHandler[T editor.Type[M], M editor.Method] struct {
	AbstractHandler[T, M]
	constants providers.Constants
}

// NewProviderAwareHandler returns a handler for the given provider.
func NewProviderAwareHandler[T editor.Type[M], M editor.Method](c providers.Constants, opts ...Option) (*ProviderAwareHandler[T, M], error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &ProviderAwareHandler[T, M]{
		AbstractHandler: newAbstractHandler[T, M](opts),
		constants:       c,
	}, nil
}

// NewPerf4jAwareHandler returns a handler for the built-in perf4j provider.
func NewPerf4jAwareHandler[T editor.Type[M], M editor.Method](opts ...Option) *ProviderAwareHandler[T, M] {
	h, err := NewProviderAwareHandler[T, M](providers.Perf4j(), opts...)
	if err != nil {
		// the built-in constants are valid
		panic(err)
	}
	return h
}

// Constants returns the provider this handler wires in.
func (h *ProviderAwareHandler[T, M]) Constants() providers.Constants {
	return h.constants
}

func (h *ProviderAwareHandler[T, M]) defaultProviderInstance() syntax.Expr {
	return syntax.StaticCall(h.constants.DefaultProviderType, h.constants.Factory)
}

func (h *ProviderAwareHandler[T, M]) defaultProviderName() string {
	factory := h.constants.Factory + "()"
	if pkg := h.constants.DefaultProviderType.Pkg; pkg != "" {
		return path.Base(pkg) + "." + factory
	}
	return factory
}

// Handle adds the provider field, then the accessors, then the delegating
// methods. It stops at the first error.
func (h *ProviderAwareHandler[T, M]) Handle(t T) error {
	h.logger.Info("wiring provider", zap.String("type", t.Name()), zap.String("provider", h.constants.Name))
	if err := h.AddProviderField(t); err != nil {
		return err
	}
	if err := h.AddProviderAccessors(t); err != nil {
		return err
	}
	return h.AddContributionMethods(t)
}

// AddProviderField requests the private provider field, initialized to the
// default provider.
func (h *ProviderAwareHandler[T, M]) AddProviderField(t T) error {
	return h.AddField(t, h.constants.ProviderType, h.constants.FieldName, h.defaultProviderInstance())
}

// AddProviderAccessors requests the public setter and then the public getter
// for the provider field. The setter assigns the default provider when its
// argument is nil, including a nil pointer held in the provider interface.
func (h *ProviderAwareHandler[T, M]) AddProviderAccessors(t T) error {
	c := h.constants
	field := syntax.Field(c.FieldName)
	param := syntax.Name(c.ParamName)
	setter := syntax.NewMethodDecl(syntax.Void, c.SetterName).
		MakePublic().
		WithDoc(fmt.Sprintf("%s sets the %s provider. A nil provider, or a nil pointer of a\nprovider type, selects %s.", c.SetterName, c.Name, h.defaultProviderName())).
		WithArgument(syntax.NewArg(c.ProviderType, c.ParamName)).
		WithStatement(syntax.If(syntax.IsNull(param)).
			Then(syntax.NewBlock().WithStatement(syntax.Assign(field, h.defaultProviderInstance()))).
			Else(syntax.NewBlock().WithStatement(syntax.Assign(field, param))))
	if err := t.Editor().InjectMethod(setter); err != nil {
		return err
	}

	getter := syntax.NewMethodDecl(c.ProviderType, c.GetterName).
		MakePublic().
		WithDoc(fmt.Sprintf("%s returns the %s provider. It is nil for a value whose fields\nhave not been initialized and whose provider has not been set.", c.GetterName, c.Name)).
		WithStatement(syntax.Return(field))
	return t.Editor().InjectMethod(getter)
}

// AddContributionMethods asks the delegator to forward the provider's methods
// to the provider field.
func (h *ProviderAwareHandler[T, M]) AddContributionMethods(t T) error {
	return h.DelegateMethodsTo(t, h.constants.Methods, syntax.Field(h.constants.FieldName))
}
