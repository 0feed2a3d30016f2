package termr

import (
	"math"

	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/eval"
)

// Pattern is a predicate on tree nodes.
type Pattern func(n ast.Node) bool

// Rewriter is a function
//
//     node ↦ node
//
// i.e., a term rewriting function. It is called for nodes matched by a pattern
// only, and operates on already optimized children.
type Rewriter func(n ast.Node) ast.Node

// RewriteRule is a type representing a rule for term rewriting.
// It contains a pattern and a rewriting-function. The pattern will be applied
// to nodes in an AST, and if it matches the rewriter will be called on the redex.
type RewriteRule struct {
	Name    string
	Pattern Pattern
	Rewrite Rewriter
}

// Strategy is an ordered list of rewrite rules for an operator. The first
// matching rule wins.
type Strategy []RewriteRule

// Apply tries the rules of a strategy on n. It returns the rewritten node and
// the name of the rule applied, or nil.
func (s Strategy) Apply(n ast.Node) (ast.Node, string) {
	for _, rule := range s {
		if rule.Pattern(n) {
			if r := rule.Rewrite(n); r != nil {
				return r, rule.Name
			}
		}
	}
	return nil, ""
}

// --- Patterns --------------------------------------------------------------

// Anything is a pattern matching any node.
func Anything(ast.Node) bool { return true }

// All is a pattern matching if all of the patterns match.
func All(patterns ...Pattern) Pattern {
	return func(n ast.Node) bool {
		for _, p := range patterns {
			if !p(n) {
				return false
			}
		}
		return true
	}
}

// IsNumber is a pattern matching a numeric literal with value x.
func IsNumber(x float64) Pattern {
	return func(n ast.Node) bool {
		lit, ok := n.(*ast.Number)
		return ok && lit.Value == x
	}
}

// IsBoolean is a pattern matching a boolean literal with value b.
func IsBoolean(b bool) Pattern {
	return func(n ast.Node) bool {
		lit, ok := n.(*ast.Boolean)
		return ok && lit.Value == b
	}
}

// Left applies a pattern to the left operand of a binary operation.
func Left(p Pattern) Pattern {
	return func(n ast.Node) bool {
		b, ok := n.(*ast.BinaryOp)
		return ok && p(b.Left)
	}
}

// Right applies a pattern to the right operand of a binary operation.
func Right(p Pattern) Pattern {
	return func(n ast.Node) bool {
		b, ok := n.(*ast.BinaryOp)
		return ok && p(b.Right)
	}
}

// Operand applies a pattern to the operand of a unary operation.
func Operand(p Pattern) Pattern {
	return func(n ast.Node) bool {
		u, ok := n.(*ast.UnaryOp)
		return ok && p(u.Operand)
	}
}

// RightIs matches binary operations with a numeric literal x as right operand.
func RightIs(x float64) Pattern { return Right(IsNumber(x)) }

// LeftIs matches binary operations with a numeric literal x as left operand.
func LeftIs(x float64) Pattern { return Left(IsNumber(x)) }

// SameOperands matches binary operations with structurally equal operands.
func SameOperands(n ast.Node) bool {
	b, ok := n.(*ast.BinaryOp)
	return ok && ast.Equal(b.Left, b.Right)
}

// Pure matches subtrees without calls to impure functions.
func Pure(n ast.Node) bool {
	pure := true
	ast.Walk(n, func(n ast.Node, _ int) bool {
		if f, ok := n.(*ast.FunctionCall); ok {
			if fn, found := eval.Builtins().Lookup(f.Name); !found || !fn.Pure {
				pure = false
			}
		}
		return pure
	})
	return pure
}

// Numeric matches subtrees which always evaluate to a number, if they evaluate
// without error.
func Numeric(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Number, *ast.FunctionCall:
		return true
	case *ast.BinaryOp:
		return n.Op.IsArithmetic()
	case *ast.UnaryOp:
		return n.Op == ast.Neg || n.Op == ast.Plus
	case *ast.If:
		return Numeric(n.Then) && Numeric(n.Else)
	}
	return false
}

// Boolean matches subtrees which always evaluate to a boolean, if they evaluate
// without error.
func Boolean(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Boolean:
		return true
	case *ast.BinaryOp:
		return n.Op.IsComparison() || n.Op.IsLogical()
	case *ast.UnaryOp:
		return n.Op == ast.Not
	case *ast.If:
		return Boolean(n.Then) && Boolean(n.Else)
	}
	return false
}

// integralFunctions always produce integer results.
var integralFunctions = map[string]bool{
	"FACTORIAL": true, "COMBINATION": true, "PERMUTATION": true, "GCD": true,
	"LCM": true, "FLOOR": true, "CEIL": true, "TRUNC": true, "SIGN": true,
}

// Integral matches subtrees which always evaluate to an integer, if they
// evaluate without error.
func Integral(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Number:
		return n.Value == math.Trunc(n.Value)
	case *ast.FunctionCall:
		return integralFunctions[n.Name] || (n.Name == "ROUND" && len(n.Args) == 1)
	case *ast.BinaryOp:
		switch n.Op {
		case ast.Add, ast.Sub, ast.Mul:
			return Integral(n.Left) && Integral(n.Right)
		}
	case *ast.UnaryOp:
		return (n.Op == ast.Neg || n.Op == ast.Plus) && Integral(n.Operand)
	case *ast.If:
		return Integral(n.Then) && Integral(n.Else)
	}
	return false
}

// --- Rewriters -------------------------------------------------------------

// KeepLeft rewrites a binary operation to its left operand.
func KeepLeft(n ast.Node) ast.Node {
	return n.(*ast.BinaryOp).Left
}

// KeepRight rewrites a binary operation to its right operand.
func KeepRight(n ast.Node) ast.Node {
	return n.(*ast.BinaryOp).Right
}

// KeepInner rewrites a nested unary operation op(op(x)) to x.
func KeepInner(n ast.Node) ast.Node {
	return n.(*ast.UnaryOp).Operand.(*ast.UnaryOp).Operand
}

// KeepOperand rewrites a unary operation to its operand.
func KeepOperand(n ast.Node) ast.Node {
	return n.(*ast.UnaryOp).Operand
}

// Constant returns a rewriter replacing a node by a numeric literal.
func Constant(x float64) Rewriter {
	return func(n ast.Node) ast.Node {
		return &ast.Number{Value: x, Pos: n.Position()}
	}
}

// Truth returns a rewriter replacing a node by a boolean literal.
func Truth(b bool) Rewriter {
	return func(n ast.Node) ast.Node {
		return &ast.Boolean{Value: b, Pos: n.Position()}
	}
}

// --- Strategy table --------------------------------------------------------

func isUnary(op ast.Operator) Pattern {
	return func(n ast.Node) bool {
		u, ok := n.(*ast.UnaryOp)
		return ok && u.Op == op
	}
}

// DefaultStrategies returns the default strategy table. The table is newly
// created on each call and may be modified by clients.
func DefaultStrategies() map[ast.Operator]Strategy {
	numericLeft := Left(Numeric)
	numericRight := Right(Numeric)
	discardable := func(p Pattern) Pattern { return All(p, Pure, Numeric) }
	return map[ast.Operator]Strategy{
		ast.Mul: {
			{"x*0", All(RightIs(0), Left(discardable(Anything))), Constant(0)},
			{"0*x", All(LeftIs(0), Right(discardable(Anything))), Constant(0)},
			{"x*1", All(RightIs(1), numericLeft), KeepLeft},
			{"1*x", All(LeftIs(1), numericRight), KeepRight},
		},
		ast.Add: {
			{"x+0", All(RightIs(0), numericLeft), KeepLeft},
			{"0+x", All(LeftIs(0), numericRight), KeepRight},
		},
		ast.Sub: {
			{"x-0", All(RightIs(0), numericLeft), KeepLeft},
			{"x-x", All(SameOperands, Left(discardable(Anything))), Constant(0)},
		},
		ast.Div: {
			{"x/1", All(RightIs(1), numericLeft), KeepLeft},
		},
		ast.Mod: {
			{"x%1", All(RightIs(1), Left(discardable(Integral))), Constant(0)},
		},
		ast.Pow: {
			{"x^0", All(RightIs(0), Left(discardable(Anything))), Constant(1)},
			{"x^1", All(RightIs(1), numericLeft), KeepLeft},
		},
		ast.And: {
			{"false&&x", Left(IsBoolean(false)), Truth(false)},
			{"true&&x", All(Left(IsBoolean(true)), Right(Boolean)), KeepRight},
			{"x&&true", All(Right(IsBoolean(true)), Left(Boolean)), KeepLeft},
		},
		ast.Or: {
			{"true||x", Left(IsBoolean(true)), Truth(true)},
			{"false||x", All(Left(IsBoolean(false)), Right(Boolean)), KeepRight},
			{"x||false", All(Right(IsBoolean(false)), Left(Boolean)), KeepLeft},
		},
		ast.Neg: {
			{"-(-x)", Operand(All(isUnary(ast.Neg), Operand(Numeric))), KeepInner},
		},
		ast.Plus: {
			{"+x", Operand(Numeric), KeepOperand},
		},
		ast.Not: {
			{"!!x", Operand(All(isUnary(ast.Not), Operand(Boolean))), KeepInner},
		},
	}
}
