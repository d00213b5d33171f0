// Package gombok contains the annotation types recognized by the gombok
// processor. Annotations are written in the doc comments of struct types:
//
//	// Service does important work.
//	//
//	// @gombok.Perf4jAware
//	type Service struct {
//		name string
//	}
//
// Running the gombok tool on the package containing this type injects a
// private field holding a perf4j.Provider, a setter and getter for it, and
// methods that delegate to the provider. The field is added to the struct
// declaration itself; methods are written to a generated file named
// <pkgname>_gombok.go. The generated InitFields method sets the field to the
// default provider, and constructors must call it: the field of a zero value
// is nil.
//
// The annotation types in this package are never instantiated. They exist so
// that annotations have a declaration to refer to (and to document).
package gombok

import "reflect"

// Version is the version of the gombok tool. Provider definition files may
// constrain the versions they are compatible with.
const Version = "0.4.0"

// ImportPath is the import path of this package. Annotations qualified with a
// name under which a file imports this path are recognized, in addition to
// the default "gombok" qualifier.
var ImportPath = reflect.TypeOf(ProviderAware{}).PkgPath()

// Perf4jAware wires the perf4j provider into the annotated struct type. It is
// equivalent to @gombok.ProviderAware{Provider: "perf4j"}.
type Perf4jAware struct{}

// ProviderAware wires the named provider into the annotated struct type. The
// provider must be built in or declared in a provider definition file given to
// the tool. The annotation may appear more than once on a type, as long as
// each names a different provider.
//
//	// @gombok.ProviderAware{Provider: "metrics"}
//	// @gombok.ProviderAware("tracing")
//	type Service struct{}
type ProviderAware struct {
	Provider string
}

// AnnotationName returns the unqualified name of the given annotation type.
func AnnotationName(anno interface{}) string {
	return reflect.TypeOf(anno).Name()
}
