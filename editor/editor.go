// Package editor defines the handle through which handlers mutate the types
// they are invoked for.
//
// A Type is an opaque representation of a class-like type that has methods.
// Its Editor accepts requests to add fields and to inject fully-formed
// methods. Requests are described with the language-neutral shapes in the
// syntax package; it is up to the implementation to render them into the
// target language. The goedit package provides an implementation for Go
// source, and Recorder provides an in-memory implementation that simply
// remembers the requests it was given.
package editor

import "github.com/jhump/gombok/syntax"

// Method is a method that already exists on a type.
type Method interface {
	Name() string
}

// Type is a handle to a type that can be edited. The type parameter is the
// representation of the type's existing methods.
type Type[M Method] interface {
	Name() string
	Methods() []M
	Editor() Editor
}

// Editor accepts injection requests for a single type.
type Editor interface {
	// AddField requests that the given field be added to the type.
	AddField(f syntax.FieldDecl) error
	// InjectMethod requests that the given method be added to the type.
	InjectMethod(m syntax.MethodDecl) error
}
