package syntax

// Node is any element of the code-shape model.
type Node interface {
	node()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// NameExpr refers to a local name, such as a method argument.
type NameExpr struct {
	Name string
}

// NullExpr is the null reference.
type NullExpr struct{}

// FieldExpr refers to a field of the receiver of the enclosing method.
type FieldExpr struct {
	Name string
}

// StaticCallExpr calls a factory associated with a type, rather than with a
// value. Languages without static methods render it as a call to a
// package-level function that lives alongside the type.
type StaticCallExpr struct {
	Type   TypeRef
	Method string
	Args   []Expr
}

// CallExpr calls a method on the value of an expression. When Spread is true
// the last argument is expanded into the variadic parameter of the callee.
type CallExpr struct {
	Receiver Expr
	Method   string
	Args     []Expr
	Spread   bool
}

// EqualExpr compares two values for identity. An interface value holding a
// nil pointer is not identical to null.
type EqualExpr struct {
	Left, Right Expr
}

// IsNullExpr reports whether a value is null or a nil pointer, map, slice,
// func or channel held in an interface.
type IsNullExpr struct {
	X Expr
}

func (NameExpr) node()       {}
func (NullExpr) node()       {}
func (FieldExpr) node()      {}
func (StaticCallExpr) node() {}
func (CallExpr) node()       {}
func (EqualExpr) node()      {}
func (IsNullExpr) node()     {}

func (NameExpr) expr()       {}
func (NullExpr) expr()       {}
func (FieldExpr) expr()      {}
func (StaticCallExpr) expr() {}
func (CallExpr) expr()       {}
func (EqualExpr) expr()      {}
func (IsNullExpr) expr()     {}

// Name returns a reference to a local name.
func Name(name string) NameExpr {
	return NameExpr{Name: name}
}

// Null returns the null reference.
func Null() NullExpr {
	return NullExpr{}
}

// Field returns a reference to a field of the receiver.
func Field(name string) FieldExpr {
	return FieldExpr{Name: name}
}

// StaticCall returns a call of the named factory of the given type.
func StaticCall(t TypeRef, method string, args ...Expr) StaticCallExpr {
	return StaticCallExpr{Type: t, Method: method, Args: args}
}

// CallMethod returns a call of the named method on the value of recv.
func CallMethod(recv Expr, method string, args ...Expr) CallExpr {
	return CallExpr{Receiver: recv, Method: method, Args: args}
}

// Equal returns an identity comparison of the two given expressions.
func Equal(left, right Expr) EqualExpr {
	return EqualExpr{Left: left, Right: right}
}

// IsNull returns a null check of x that also matches nil references held in
// an interface.
func IsNull(x Expr) IsNullExpr {
	return IsNullExpr{X: x}
}

// Block is a sequence of statements.
type Block struct {
	Stmts []Stmt
}

// NewBlock returns an empty block.
func NewBlock() Block {
	return Block{}
}

// WithStatement returns a copy of b with s appended.
func (b Block) WithStatement(s Stmt) Block {
	stmts := make([]Stmt, len(b.Stmts), len(b.Stmts)+1)
	copy(stmts, b.Stmts)
	return Block{Stmts: append(stmts, s)}
}

// IfStmt is a conditional. Else may be nil.
type IfStmt struct {
	Cond     Expr
	ThenBody Block
	ElseBody *Block
}

// If starts a conditional statement with the given condition.
func If(cond Expr) IfStmt {
	return IfStmt{Cond: cond}
}

// Then returns a copy of s with the given block as its body.
func (s IfStmt) Then(b Block) IfStmt {
	s.ThenBody = b
	return s
}

// Else returns a copy of s with the given block as its else branch.
func (s IfStmt) Else(b Block) IfStmt {
	s.ElseBody = &b
	return s
}

// AssignStmt assigns the value of an expression to a field or local name.
type AssignStmt struct {
	Target Expr
	Value  Expr
}

// Assign returns an assignment of value to target.
func Assign(target, value Expr) AssignStmt {
	return AssignStmt{Target: target, Value: value}
}

// ReturnStmt returns from the enclosing method. Value is nil for a bare
// return.
type ReturnStmt struct {
	Value Expr
}

// Return returns a statement that returns the value of v.
func Return(v Expr) ReturnStmt {
	return ReturnStmt{Value: v}
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	X Expr
}

// Do returns a statement that evaluates x.
func Do(x Expr) ExprStmt {
	return ExprStmt{X: x}
}

func (Block) node()      {}
func (IfStmt) node()     {}
func (AssignStmt) node() {}
func (ReturnStmt) node() {}
func (ExprStmt) node()   {}

func (Block) stmt()      {}
func (IfStmt) stmt()     {}
func (AssignStmt) stmt() {}
func (ReturnStmt) stmt() {}
func (ExprStmt) stmt()   {}
