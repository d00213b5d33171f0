// Package providers describes the instrumentation providers that can be wired
// into annotated types. A provider is described by a Constants value: the
// provider's interface type, the default implementation and its factory, the
// names of the generated field and accessors, and the set of methods that are
// delegated to the provider field.
//
// The perf4j provider is built in. Others can be declared in YAML or TOML
// definition files and registered with a Registry.
package providers

import (
	"go/token"

	"github.com/cockroachdb/errors"

	"github.com/jhump/gombok/syntax"
)

// Constants holds the naming and typing constants used to wire a provider
// into a type.
type Constants struct {
	// Name identifies the provider, e.g. "perf4j".
	Name string
	// Annotation is the name of a dedicated annotation type in the gombok
	// package that selects this provider, e.g. "Perf4jAware". It may be
	// empty, in which case the provider can only be selected with
	// @gombok.ProviderAware.
	Annotation string
	// ProviderType is the type of the generated field.
	ProviderType syntax.TypeRef
	// DefaultProviderType is the default implementation whose Factory is
	// invoked to initialize the field.
	DefaultProviderType syntax.TypeRef
	Factory             string
	FieldName           string
	GetterName          string
	SetterName          string
	// ParamName is the name of the setter's parameter.
	ParamName string
	// Methods is the set of methods delegated to the provider field.
	Methods []syntax.MethodDescriptor
}

// Validate checks that all names are present and well-formed.
func (c Constants) Validate() error {
	if c.Name == "" {
		return errors.New("provider name is required")
	}
	wrap := func(err error) error {
		return errors.Wrapf(err, "provider %q", c.Name)
	}
	if c.ProviderType.IsVoid() {
		return wrap(errors.New("provider type is required"))
	}
	if c.DefaultProviderType.Kind != syntax.KindNamed {
		return wrap(errors.Newf("default provider type must be a named type, got %s", c.DefaultProviderType))
	}
	idents := []struct {
		what, name string
		exported   bool
	}{
		{"factory", c.Factory, true},
		{"field", c.FieldName, false},
		{"getter", c.GetterName, true},
		{"setter", c.SetterName, true},
		{"parameter", c.ParamName, false},
	}
	for _, id := range idents {
		if !token.IsIdentifier(id.name) {
			return wrap(errors.Newf("%s name %q is not a valid identifier", id.what, id.name))
		}
		if id.exported && !token.IsExported(id.name) {
			return wrap(errors.Newf("%s name %q must be exported", id.what, id.name))
		}
	}
	if c.Annotation != "" && (!token.IsIdentifier(c.Annotation) || !token.IsExported(c.Annotation)) {
		return wrap(errors.Newf("annotation name %q must be an exported identifier", c.Annotation))
	}
	if c.GetterName == c.SetterName {
		return wrap(errors.Newf("getter and setter are both named %q", c.GetterName))
	}

	seen := map[string]struct{}{c.GetterName: {}, c.SetterName: {}}
	for _, m := range c.Methods {
		if !token.IsIdentifier(m.Name) || !token.IsExported(m.Name) {
			return wrap(errors.Newf("delegated method name %q must be an exported identifier", m.Name))
		}
		if _, ok := seen[m.Name]; ok {
			return wrap(errors.Newf("method %q is declared more than once", m.Name))
		}
		seen[m.Name] = struct{}{}
		for i, p := range m.Params {
			if !token.IsIdentifier(p.Name) {
				return wrap(errors.Newf("method %q: parameter %d has invalid name %q", m.Name, i, p.Name))
			}
			if p.Type.IsVoid() {
				return wrap(errors.Newf("method %q: parameter %q has no type", m.Name, p.Name))
			}
		}
		if m.Variadic && (len(m.Params) == 0 || m.Params[len(m.Params)-1].Type.Kind != syntax.KindSlice) {
			return wrap(errors.Newf("method %q: variadic parameter must be a slice", m.Name))
		}
	}
	return nil
}
