package eval

import (
	"math"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/runtime"
)

// Binary applies a binary operator to two values. && and || are applied
// strictly, i.e. both operands have already been evaluated.
func Binary(op ast.Operator, a, b runtime.Value) (runtime.Value, error) {
	switch {
	case op == ast.Eq || op == ast.Ne:
		eq, err := equals(a, b)
		if err != nil {
			return runtime.Value{}, err
		}
		return runtime.Bool(eq == (op == ast.Eq)), nil
	case op.IsLogical():
		l, err := a.AsBool()
		if err != nil {
			return runtime.Value{}, err
		}
		r, err := b.AsBool()
		if err != nil {
			return runtime.Value{}, err
		}
		if op == ast.And {
			return runtime.Bool(l && r), nil
		}
		if op == ast.Or {
			return runtime.Bool(l || r), nil
		}
	case op.IsComparison() || op.IsArithmetic():
		x, err := a.AsNumber()
		if err != nil {
			return runtime.Value{}, err
		}
		y, err := b.AsNumber()
		if err != nil {
			return runtime.Value{}, err
		}
		return arith(op, x, y)
	}
	return runtime.Value{}, scorex.NewError(scorex.Internal, "%v is not a binary operator", op)
}

func arith(op ast.Operator, x, y float64) (runtime.Value, error) {
	switch op {
	case ast.Add:
		return runtime.Number(x + y), nil
	case ast.Sub:
		return runtime.Number(x - y), nil
	case ast.Mul:
		return runtime.Number(x * y), nil
	case ast.Div:
		if y == 0 {
			return runtime.Value{}, scorex.NewError(scorex.DivisionByZero, "division by zero")
		}
		return runtime.Number(x / y), nil
	case ast.Mod:
		if y == 0 {
			return runtime.Value{}, scorex.NewError(scorex.DivisionByZero, "modulo by zero")
		}
		return runtime.Number(math.Mod(x, y)), nil
	case ast.Pow:
		return runtime.Number(math.Pow(x, y)), nil
	case ast.Lt:
		return runtime.Bool(x < y), nil
	case ast.Le:
		return runtime.Bool(x <= y), nil
	case ast.Gt:
		return runtime.Bool(x > y), nil
	case ast.Ge:
		return runtime.Bool(x >= y), nil
	}
	return runtime.Value{}, scorex.NewError(scorex.Internal, "%v is not a binary operator", op)
}

// equals compares booleans as booleans and non-numeric strings as strings.
// Everything else is compared numerically.
func equals(a, b runtime.Value) (bool, error) {
	if a.IsBool() && b.IsBool() {
		x, _ := a.AsBool()
		y, _ := b.AsBool()
		return x == y, nil
	}
	if a.IsString() && b.IsString() && (!a.IsNumeric() || !b.IsNumeric()) {
		return a.Interface().(string) == b.Interface().(string), nil
	}
	x, err := a.AsNumber()
	if err != nil {
		return false, err
	}
	y, err := b.AsNumber()
	if err != nil {
		return false, err
	}
	return x == y, nil
}

// Unary applies a unary operator to a value.
func Unary(op ast.Operator, a runtime.Value) (runtime.Value, error) {
	switch op {
	case ast.Not:
		b, err := a.AsBool()
		if err != nil {
			return runtime.Value{}, err
		}
		return runtime.Bool(!b), nil
	case ast.Neg, ast.Plus:
		x, err := a.AsNumber()
		if err != nil {
			return runtime.Value{}, err
		}
		if op == ast.Neg {
			x = -x
		}
		return runtime.Number(x), nil
	}
	return runtime.Value{}, scorex.NewError(scorex.Internal, "%v is not a unary operator", op)
}

// CheckResult reports NaN and infinite numbers as MathDomainError.
func CheckResult(v runtime.Value) error {
	if !v.IsNumber() {
		return nil
	}
	x, _ := v.AsNumber()
	if math.IsNaN(x) {
		return scorex.NewError(scorex.MathDomain, "result is not a number")
	}
	if math.IsInf(x, 0) {
		return scorex.NewError(scorex.MathDomain, "result is infinite")
	}
	return nil
}
