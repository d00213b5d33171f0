package providers

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/jhump/gombok"
)

// ErrUnknownProvider is returned when looking up a provider that was never
// registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry holds the providers available to the processor, keyed by name.
// It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	byName       map[string]Constants
	byAnnotation map[string]string
	version      string
}

// NewRegistry returns a registry that contains the built-in perf4j provider.
func NewRegistry() *Registry {
	r := &Registry{
		byName:       map[string]Constants{},
		byAnnotation: map[string]string{},
		version:      gombok.Version,
	}
	if err := r.Register(Perf4j()); err != nil {
		panic(err)
	}
	return r
}

// Register adds the given provider. It is an error to register two providers
// with the same name or the same dedicated annotation.
func (r *Registry) Register(c Constants) error {
	return r.registerAll([]Constants{c})
}

// registerAll adds all of the given providers, or none of them if any is
// invalid or conflicts with a registered provider or with another in consts.
func (r *Registry) registerAll(consts []Constants) error {
	for _, c := range consts {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	names := map[string]struct{}{}
	annotations := map[string]string{}
	for _, c := range consts {
		if _, ok := r.byName[c.Name]; ok {
			return errors.Newf("provider %q is already registered", c.Name)
		}
		if _, ok := names[c.Name]; ok {
			return errors.Newf("provider %q is declared more than once", c.Name)
		}
		names[c.Name] = struct{}{}
		if c.Annotation == "" {
			continue
		}
		other, ok := r.byAnnotation[c.Annotation]
		if !ok {
			other, ok = annotations[c.Annotation]
		}
		if ok {
			return errors.Newf("annotation %s is already used by provider %q", c.Annotation, other)
		}
		annotations[c.Annotation] = c.Name
	}
	for _, c := range consts {
		if c.Annotation != "" {
			r.byAnnotation[c.Annotation] = c.Name
		}
		r.byName[c.Name] = c
	}
	return nil
}

// Lookup returns the provider with the given name.
func (r *Registry) Lookup(name string) (Constants, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	if !ok {
		return Constants{}, errors.Wrapf(ErrUnknownProvider, "%q", name)
	}
	return c, nil
}

// ForAnnotation returns the provider selected by the given dedicated
// annotation name, such as "Perf4jAware".
func (r *Registry) ForAnnotation(annotation string) (Constants, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byAnnotation[annotation]
	if !ok {
		return Constants{}, false
	}
	return r.byName[name], true
}

// Annotations returns the names of all dedicated provider annotations, sorted.
func (r *Registry) Annotations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byAnnotation))
	for a := range r.byAnnotation {
		names = append(names, a)
	}
	sort.Strings(names)
	return names
}

// All returns all registered providers, sorted by name.
func (r *Registry) All() []Constants {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Constants, 0, len(r.byName))
	for _, c := range r.byName {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all
}

// LoadFile reads the definition file at the given path and registers all of
// its providers. If any definition is invalid or conflicts with a registered
// provider, none are registered.
func (r *Registry) LoadFile(path string) error {
	f, err := ReadFile(path)
	if err != nil {
		return err
	}
	if err := f.CheckVersion(r.version); err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	consts, err := f.Constants()
	if err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	return errors.Wrapf(r.registerAll(consts), "%s", path)
}
