package syntax

// Modifiers is a set of declaration modifiers.
type Modifiers uint8

const (
	// Public members are visible outside of the declaring package.
	Public Modifiers = 1 << iota
	// Private members are only visible inside of the declaring package.
	Private
)

func (m Modifiers) String() string {
	switch {
	case m&Public != 0:
		return "public"
	case m&Private != 0:
		return "private"
	default:
		return ""
	}
}

// Arg is a named method parameter.
type Arg struct {
	Type TypeRef
	Name string
}

// NewArg returns a parameter with the given type and name.
func NewArg(t TypeRef, name string) Arg {
	return Arg{Type: t, Name: name}
}

// FieldDecl declares a field. Init is nil when the field has no initializer.
type FieldDecl struct {
	Type      TypeRef
	Name      string
	Init      Expr
	Modifiers Modifiers
}

// NewFieldDecl returns a private field declaration.
func NewFieldDecl(t TypeRef, name string) FieldDecl {
	return FieldDecl{Type: t, Name: name, Modifiers: Private}
}

// WithInitializer returns a copy of f that is initialized to init.
func (f FieldDecl) WithInitializer(init Expr) FieldDecl {
	f.Init = init
	return f
}

// MethodDecl declares a method of the type being edited. Doc, when set, is
// emitted as the method's doc comment.
type MethodDecl struct {
	Doc       string
	Results   []TypeRef
	Name      string
	Modifiers Modifiers
	Args      []Arg
	Variadic  bool
	Body      Block
}

// NewMethodDecl returns a method declaration with the given result type and
// name. A Void result yields a method with no results.
func NewMethodDecl(result TypeRef, name string) MethodDecl {
	m := MethodDecl{Name: name}
	if !result.IsVoid() {
		m.Results = []TypeRef{result}
	}
	return m
}

// MakePublic returns a copy of m with public visibility.
func (m MethodDecl) MakePublic() MethodDecl {
	m.Modifiers = m.Modifiers&^Private | Public
	return m
}

// MakePrivate returns a copy of m with private visibility.
func (m MethodDecl) MakePrivate() MethodDecl {
	m.Modifiers = m.Modifiers&^Public | Private
	return m
}

// IsPublic returns true if m is declared public.
func (m MethodDecl) IsPublic() bool {
	return m.Modifiers&Public != 0
}

// WithArgument returns a copy of m with a appended to its parameters.
func (m MethodDecl) WithArgument(a Arg) MethodDecl {
	args := make([]Arg, len(m.Args), len(m.Args)+1)
	copy(args, m.Args)
	m.Args = append(args, a)
	return m
}

// WithResults returns a copy of m with the given result types.
func (m MethodDecl) WithResults(results ...TypeRef) MethodDecl {
	m.Results = append([]TypeRef(nil), results...)
	return m
}

// WithVariadic returns a copy of m whose last argument is variadic. The type
// of that argument must be a slice.
func (m MethodDecl) WithVariadic(variadic bool) MethodDecl {
	m.Variadic = variadic
	return m
}

// WithDoc returns a copy of m with the given doc comment.
func (m MethodDecl) WithDoc(doc string) MethodDecl {
	m.Doc = doc
	return m
}

// WithStatement returns a copy of m with s appended to its body.
func (m MethodDecl) WithStatement(s Stmt) MethodDecl {
	m.Body = m.Body.WithStatement(s)
	return m
}

// MethodDescriptor describes the signature of a method that is delegated to
// another object.
type MethodDescriptor struct {
	Name     string
	Params   []Arg
	Results  []TypeRef
	Variadic bool
}

func (FieldDecl) node()  {}
func (MethodDecl) node() {}
