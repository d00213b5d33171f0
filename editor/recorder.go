package editor

import (
	"strings"
	"sync"

	"github.com/jhump/gombok/syntax"
)

// RecordedMethod is an existing method of a Recorder.
type RecordedMethod string

// Name implements the Method interface.
func (m RecordedMethod) Name() string {
	return string(m)
}

// Request is a single injection request captured by a Recorder. Exactly one
// of Field and Method is non-nil.
type Request struct {
	Field  *syntax.FieldDecl
	Method *syntax.MethodDecl
}

// String renders the request as pseudo-code.
func (r Request) String() string {
	if r.Field != nil {
		return syntax.Format(*r.Field)
	}
	return syntax.Format(*r.Method)
}

// Recorder is a Type and Editor that records every request, in order, without
// applying it anywhere. Requests are never de-duplicated. It is safe for
// concurrent use.
type Recorder struct {
	name     string
	existing []RecordedMethod

	mu       sync.Mutex
	requests []Request
}

var _ Type[RecordedMethod] = (*Recorder)(nil)
var _ Editor = (*Recorder)(nil)

// NewRecorder returns a recorder for a type with the given name and existing
// methods.
func NewRecorder(name string, existing ...string) *Recorder {
	r := &Recorder{name: name}
	for _, m := range existing {
		r.existing = append(r.existing, RecordedMethod(m))
	}
	return r
}

// Name implements the Type interface.
func (r *Recorder) Name() string {
	return r.name
}

// Methods implements the Type interface. It returns the existing methods the
// recorder was created with; injected methods are not included.
func (r *Recorder) Methods() []RecordedMethod {
	return append([]RecordedMethod(nil), r.existing...)
}

// Editor implements the Type interface. The recorder is its own editor.
func (r *Recorder) Editor() Editor {
	return r
}

// AddField implements the Editor interface.
func (r *Recorder) AddField(f syntax.FieldDecl) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, Request{Field: &f})
	return nil
}

// InjectMethod implements the Editor interface.
func (r *Recorder) InjectMethod(m syntax.MethodDecl) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, Request{Method: &m})
	return nil
}

// Requests returns all requests recorded so far.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.requests...)
}

// Fields returns the recorded field requests.
func (r *Recorder) Fields() []syntax.FieldDecl {
	var fields []syntax.FieldDecl
	for _, req := range r.Requests() {
		if req.Field != nil {
			fields = append(fields, *req.Field)
		}
	}
	return fields
}

// InjectedMethods returns the recorded method requests.
func (r *Recorder) InjectedMethods() []syntax.MethodDecl {
	var methods []syntax.MethodDecl
	for _, req := range r.Requests() {
		if req.Method != nil {
			methods = append(methods, *req.Method)
		}
	}
	return methods
}

// String renders all recorded requests as pseudo-code.
func (r *Recorder) String() string {
	var sb strings.Builder
	sb.WriteString(r.name)
	sb.WriteString(":\n")
	for _, req := range r.Requests() {
		for _, line := range strings.Split(req.String(), "\n") {
			sb.WriteString("    ")
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
