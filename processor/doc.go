// Package processor contains the runtime library used by code that processes
// annotations.
//
// This package defines a function type, Processor, which is implemented by
// things that can process annotations.
//
//	func(ctx *processor.Context, output processor.OutputFactory) error
//
// Processing is generally expected to validate annotation values and,
// optionally, generate code that is derived from the annotation values.
//
// If a processor returns an error, processing has failed and the error should
// indicate why. Validation errors should be constructed with
// processor.NewErrorWithPosition (or processor.Errorf) so that they can report
// locations in the source code, to aid users in resolving the error.
//
// The OutputFactory passed to the processor may be used to generate code. When
// generating source code, a processor should use the factory to create an
// output whose path includes both the Go import path and source file name (see
// Context.OutputPath). The factory can be used with the WriteGoFile function in
// the github.com/jhump/gopoet package, making it easy to author Go source code
// from an annotation processor.
//
// # Annotations
//
// Annotations are lines at the end of a type's doc comment that start with an
// '@' character:
//
//	// Service does things.
//	//
//	// @gombok.ProviderAware{Provider: "tracing"}
//	type Service struct {
//	}
//
// The qualifier is the name (or alias) of an imported package. Unqualified
// annotations refer to the package being processed. The gombok package can be
// referenced as "gombok" without being imported. Annotations anywhere other
// than on a top-level type are an error. Generated files are not scanned.
//
// # Processor Registration
//
// Processor implementations can be registered with this package using the
// RegisterProcessor function. All registered processors can later be queried
// with the AllRegisteredProcessors function.
//
// # Processor Invocation
//
// Key among the invocation APIs is processor.Config. This struct defines the
// packages that will be processed, the processors that will be invoked, and the
// output factory (which controls where generated output files are actually
// written). Its Execute method loads the packages with golang.org/x/tools/go/packages,
// extracts annotations, and then passes them to each configured processor, via
// the processor.Context, one package at a time.
//
// Load and Run split Execute in two, for callers that want to inspect the
// loaded packages before (or instead of) running processors.
//
// The Process and ProcessAll functions are shortcuts that create a Config
// using "typical" values and then execute it.
package processor
