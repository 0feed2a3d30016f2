package ast

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// --- Printing --------------------------------------------------------------

type printer struct{}

// String returns a fully parenthesized textual representation of a tree.
func String(n Node) string {
	if n == nil {
		return "<nil>"
	}
	s, _ := Visit[string](n, printer{})
	return s
}

// FormatNumber formats a number without exponent notation, as accepted
// by the formula lexer for non-negative finite numbers.
func FormatNumber(x float64) string {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func (printer) VisitNumber(n *Number) (string, error) {
	return FormatNumber(n.Value), nil
}

func (printer) VisitBoolean(n *Boolean) (string, error) {
	if n.Value {
		return "TRUE", nil
	}
	return "FALSE", nil
}

func (printer) VisitVariable(n *Variable) (string, error) {
	return n.Name, nil
}

func (p printer) VisitBinaryOp(n *BinaryOp) (string, error) {
	return "(" + String(n.Left) + " " + n.Op.String() + " " + String(n.Right) + ")", nil
}

func (p printer) VisitUnaryOp(n *UnaryOp) (string, error) {
	return "(" + n.Op.String() + String(n.Operand) + ")", nil
}

func (p printer) VisitFunctionCall(n *FunctionCall) (string, error) {
	return n.Name + "(" + list(n.Args) + ")", nil
}

func (p printer) VisitIf(n *If) (string, error) {
	return "IF(" + list([]Node{n.Condition, n.Then, n.Else}) + ")", nil
}

func (p printer) VisitArguments(n *Arguments) (string, error) {
	return list(n.List), nil
}

func list(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, a := range nodes {
		parts[i] = String(a)
	}
	return strings.Join(parts, ", ")
}

// Label returns a short label for a node, without its children.
// It is used for tree displays.
func Label(n Node) string {
	switch n := n.(type) {
	case *BinaryOp:
		return n.Op.String()
	case *UnaryOp:
		return "unary " + n.Op.String()
	case *FunctionCall:
		return n.Name + "()"
	case *If:
		return "IF"
	case *Arguments:
		return "args"
	}
	return String(n)
}

// --- Structural equality ---------------------------------------------------

// Equal reports whether two trees are structurally equal. Positions are ignored.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Number:
		y, ok := b.(*Number)
		return ok && (x.Value == y.Value || math.IsNaN(x.Value) && math.IsNaN(y.Value))
	case *Boolean:
		y, ok := b.(*Boolean)
		return ok && x.Value == y.Value
	case *Variable:
		y, ok := b.(*Variable)
		return ok && x.Name == y.Name
	case *BinaryOp:
		y, ok := b.(*BinaryOp)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *UnaryOp:
		y, ok := b.(*UnaryOp)
		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *FunctionCall:
		y, ok := b.(*FunctionCall)
		return ok && x.Name == y.Name && equalLists(x.Args, y.Args)
	case *If:
		y, ok := b.(*If)
		return ok && Equal(x.Condition, y.Condition) && Equal(x.Then, y.Then) && Equal(x.Else, y.Else)
	case *Arguments:
		y, ok := b.(*Arguments)
		return ok && equalLists(x.List, y.List)
	}
	return false
}

func equalLists(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// --- Static analysis -------------------------------------------------------

// Variables returns the sorted names of all variables referenced in a tree.
func Variables(n Node) []string {
	names := make(map[string]bool)
	Walk(n, func(n Node, _ int) bool {
		if v, ok := n.(*Variable); ok {
			names[v.Name] = true
		}
		return true
	})
	return sortedKeys(names)
}

// Functions returns the sorted names of all functions called in a tree.
func Functions(n Node) []string {
	names := make(map[string]bool)
	Walk(n, func(n Node, _ int) bool {
		if f, ok := n.(*FunctionCall); ok {
			names[f.Name] = true
		}
		return true
	})
	return sortedKeys(names)
}

// Calls reports whether function name is called anywhere in a tree.
func Calls(n Node, name string) bool {
	found := false
	Walk(n, func(n Node, _ int) bool {
		if f, ok := n.(*FunctionCall); ok && f.Name == name {
			found = true
		}
		return !found
	})
	return found
}

// Size returns the number of nodes of a tree.
func Size(n Node) int {
	count := 0
	Walk(n, func(Node, int) bool {
		count++
		return true
	})
	return count
}

func sortedKeys(m map[string]bool) []string {
	r := make([]string, 0, len(m))
	for k := range m {
		r = append(r, k)
	}
	sort.Strings(r)
	return r
}
