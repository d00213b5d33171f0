package handlers

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/jhump/gombok"
	"github.com/jhump/gombok/goedit"
	"github.com/jhump/gombok/processor"
	"github.com/jhump/gombok/providers"
)

// ProcessorName is the name under which the gombok processor is registered.
const ProcessorName = "gombok"

var providerAwareName = gombok.AnnotationName(gombok.ProviderAware{})

// Binding is a provider selected for an annotated type.
type Binding struct {
	Element   *processor.AnnotatedElement
	Constants providers.Constants
}

// Bindings returns the providers selected by gombok annotations in the given
// package, in source order. Annotations from other packages are ignored.
func Bindings(ctx *processor.Context, registry *providers.Registry) ([]Binding, error) {
	var bindings []Binding
	for i := 0; i < ctx.NumElements(); i++ {
		el := ctx.GetElement(i)
		for _, a := range el.Annotations {
			if a.PackagePath != gombok.ImportPath {
				continue
			}
			c, err := constantsFor(registry, a)
			if err != nil {
				return nil, err
			}
			if !el.IsStruct() {
				return nil, processor.Errorf(a.Pos, "@gombok.%s can only be used on struct types, %s is not a struct", a.Name, el.Name())
			}
			bindings = append(bindings, Binding{Element: el, Constants: c})
		}
	}
	return bindings, nil
}

func constantsFor(registry *providers.Registry, a processor.AnnotationMirror) (providers.Constants, error) {
	if a.Name != providerAwareName {
		c, ok := registry.ForAnnotation(a.Name)
		if !ok {
			return providers.Constants{}, processor.Errorf(a.Pos, "unknown annotation @gombok.%s", a.Name)
		}
		return c, nil
	}
	name, ok, err := a.StringValue("Provider")
	if err != nil {
		return providers.Constants{}, err
	}
	if !ok || name == "" {
		return providers.Constants{}, processor.Errorf(a.Pos, "@gombok.%s requires a Provider", providerAwareName)
	}
	c, err := registry.Lookup(name)
	if err != nil {
		return providers.Constants{}, processor.NewErrorWithPosition(a.Pos,
			errors.WithHint(err, "provider definitions can be loaded with --providers"))
	}
	return c, nil
}

// Processor returns a processor that runs the provider-aware handler for every
// struct type annotated with @gombok.ProviderAware (or a provider's dedicated
// annotation, like @gombok.Perf4jAware) and writes the results.
func Processor(registry *providers.Registry, logger *zap.Logger) processor.Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx *processor.Context, output processor.OutputFactory) error {
		bindings, err := Bindings(ctx, registry)
		if err != nil {
			return err
		}
		if len(bindings) == 0 {
			return nil
		}
		pe := goedit.NewPackageEditor(ctx)
		for _, b := range bindings {
			typ, err := pe.TypeFor(b.Element)
			if err != nil {
				return err
			}
			h, err := NewProviderAwareHandler[*goedit.Type, *goedit.Method](b.Constants, WithLogger(logger))
			if err != nil {
				return err
			}
			if err := h.Handle(typ); err != nil {
				return err
			}
		}
		return pe.Flush(output)
	}
}
