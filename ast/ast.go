package ast

// --- Nodes -----------------------------------------------------------------

// Node is a node of the syntax tree. Pos is the byte offset of the node's
// first token within the formula.
type Node interface {
	Position() int
	dispatch(d dispatcher)
}

// Number is a numeric literal.
type Number struct {
	Value float64
	Pos   int
}

// Boolean is a boolean literal TRUE or FALSE.
type Boolean struct {
	Value bool
	Pos   int
}

// Variable is a reference to a variable of the environment.
type Variable struct {
	Name string
	Pos  int
}

// BinaryOp is a binary operation.
type BinaryOp struct {
	Op          Operator
	Left, Right Node
	Pos         int
}

// UnaryOp is a unary operation.
type UnaryOp struct {
	Op      Operator
	Operand Node
	Pos     int
}

// FunctionCall is a call of a built-in function. Name is upper case.
type FunctionCall struct {
	Name string
	Args []Node
	Pos  int
}

// If is a conditional IF(condition, then, else).
type If struct {
	Condition Node
	Then      Node
	Else      Node
	Pos       int
}

// Arguments is a list of expressions, as collected for function calls.
type Arguments struct {
	List []Node
	Pos  int
}

// Position is part of interface Node.
func (n *Number) Position() int { return n.Pos }

// Position is part of interface Node.
func (n *Boolean) Position() int { return n.Pos }

// Position is part of interface Node.
func (n *Variable) Position() int { return n.Pos }

// Position is part of interface Node.
func (n *BinaryOp) Position() int { return n.Pos }

// Position is part of interface Node.
func (n *UnaryOp) Position() int { return n.Pos }

// Position is part of interface Node.
func (n *FunctionCall) Position() int { return n.Pos }

// Position is part of interface Node.
func (n *If) Position() int { return n.Pos }

// Position is part of interface Node.
func (n *Arguments) Position() int { return n.Pos }

// --- Constructors ----------------------------------------------------------

// Num creates a number literal without position.
func Num(x float64) *Number {
	return &Number{Value: x}
}

// Bool creates a boolean literal without position.
func Bool(b bool) *Boolean {
	return &Boolean{Value: b}
}

// Var creates a variable reference without position.
func Var(name string) *Variable {
	return &Variable{Name: name}
}

// Binary creates a binary operation, positioned at its left operand.
func Binary(op Operator, left, right Node) *BinaryOp {
	return &BinaryOp{Op: op, Left: left, Right: right, Pos: left.Position()}
}

// Unary creates a unary operation without position.
func Unary(op Operator, operand Node) *UnaryOp {
	return &UnaryOp{Op: op, Operand: operand}
}

// Call creates a function call without position.
func Call(name string, args ...Node) *FunctionCall {
	return &FunctionCall{Name: name, Args: args}
}

// Cond creates a conditional without position.
func Cond(condition, then, els Node) *If {
	return &If{Condition: condition, Then: then, Else: els}
}
