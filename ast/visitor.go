package ast

// Visitor is implemented by all consumers of syntax trees. Each method
// handles one node type and produces a result of type T.
type Visitor[T any] interface {
	VisitNumber(n *Number) (T, error)
	VisitBoolean(n *Boolean) (T, error)
	VisitVariable(n *Variable) (T, error)
	VisitBinaryOp(n *BinaryOp) (T, error)
	VisitUnaryOp(n *UnaryOp) (T, error)
	VisitFunctionCall(n *FunctionCall) (T, error)
	VisitIf(n *If) (T, error)
	VisitArguments(n *Arguments) (T, error)
}

// Visit dispatches node n to the matching method of v.
// Visiting a nil node yields the zero value of T.
func Visit[T any](n Node, v Visitor[T]) (T, error) {
	a := &adapter[T]{v: v}
	if n != nil {
		n.dispatch(a)
	}
	return a.result, a.err
}

// dispatcher is the non-generic side of double dispatch. Every node type
// calls exactly one of its methods.
type dispatcher interface {
	number(*Number)
	boolean(*Boolean)
	variable(*Variable)
	binaryOp(*BinaryOp)
	unaryOp(*UnaryOp)
	functionCall(*FunctionCall)
	ifNode(*If)
	arguments(*Arguments)
}

func (n *Number) dispatch(d dispatcher)       { d.number(n) }
func (n *Boolean) dispatch(d dispatcher)      { d.boolean(n) }
func (n *Variable) dispatch(d dispatcher)     { d.variable(n) }
func (n *BinaryOp) dispatch(d dispatcher)     { d.binaryOp(n) }
func (n *UnaryOp) dispatch(d dispatcher)      { d.unaryOp(n) }
func (n *FunctionCall) dispatch(d dispatcher) { d.functionCall(n) }
func (n *If) dispatch(d dispatcher)           { d.ifNode(n) }
func (n *Arguments) dispatch(d dispatcher)    { d.arguments(n) }

type adapter[T any] struct {
	v      Visitor[T]
	result T
	err    error
}

func (a *adapter[T]) number(n *Number)             { a.result, a.err = a.v.VisitNumber(n) }
func (a *adapter[T]) boolean(n *Boolean)           { a.result, a.err = a.v.VisitBoolean(n) }
func (a *adapter[T]) variable(n *Variable)         { a.result, a.err = a.v.VisitVariable(n) }
func (a *adapter[T]) binaryOp(n *BinaryOp)         { a.result, a.err = a.v.VisitBinaryOp(n) }
func (a *adapter[T]) unaryOp(n *UnaryOp)           { a.result, a.err = a.v.VisitUnaryOp(n) }
func (a *adapter[T]) functionCall(n *FunctionCall) { a.result, a.err = a.v.VisitFunctionCall(n) }
func (a *adapter[T]) ifNode(n *If)                 { a.result, a.err = a.v.VisitIf(n) }
func (a *adapter[T]) arguments(n *Arguments)       { a.result, a.err = a.v.VisitArguments(n) }

// --- Children and walking --------------------------------------------------

type childVisitor struct{}

func (childVisitor) VisitNumber(*Number) ([]Node, error)     { return nil, nil }
func (childVisitor) VisitBoolean(*Boolean) ([]Node, error)   { return nil, nil }
func (childVisitor) VisitVariable(*Variable) ([]Node, error) { return nil, nil }
func (childVisitor) VisitBinaryOp(n *BinaryOp) ([]Node, error) {
	return []Node{n.Left, n.Right}, nil
}
func (childVisitor) VisitUnaryOp(n *UnaryOp) ([]Node, error) {
	return []Node{n.Operand}, nil
}
func (childVisitor) VisitFunctionCall(n *FunctionCall) ([]Node, error) {
	return n.Args, nil
}
func (childVisitor) VisitIf(n *If) ([]Node, error) {
	return []Node{n.Condition, n.Then, n.Else}, nil
}
func (childVisitor) VisitArguments(n *Arguments) ([]Node, error) {
	return n.List, nil
}

// Children returns the direct children of a node, left to right.
// Clients must not modify the returned slice.
func Children(n Node) []Node {
	ch, _ := Visit[[]Node](n, childVisitor{})
	return ch
}

// Walk traverses a tree in pre-order. If f returns false, the children of the
// node are skipped. level is 0 for the root.
func Walk(n Node, f func(n Node, level int) bool) {
	walk(n, 0, f)
}

func walk(n Node, level int, f func(Node, int) bool) {
	if n == nil || !f(n, level) {
		return
	}
	for _, ch := range Children(n) {
		walk(ch, level+1, f)
	}
}
