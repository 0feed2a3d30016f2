package eval

import (
	"context"
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/runtime"
)

func env(vars map[string]interface{}) *runtime.Environment {
	e, err := runtime.EnvironmentFrom(vars)
	if err != nil {
		panic(err)
	}
	return e
}

func num(x float64) ast.Node { return ast.Num(x) }

func mustEval(t *testing.T, n ast.Node, e *runtime.Environment) runtime.Value {
	t.Helper()
	v, err := New().Evaluate(n, e)
	if err != nil {
		t.Fatalf("cannot evaluate %s: %v", ast.String(n), err)
	}
	return v
}

func TestArithmetic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.eval")
	defer teardown()
	//
	e := env(map[string]interface{}{"a": 10, "b": 20, "s": "2.5"})
	for _, test := range []struct {
		n ast.Node
		x float64
	}{
		{ast.Binary(ast.Div, ast.Binary(ast.Add, ast.Var("a"), ast.Var("b")), num(2)), 15},
		{ast.Binary(ast.Mul, ast.Var("s"), num(2)), 5},
		{ast.Binary(ast.Pow, num(2), num(10)), 1024},
		{ast.Binary(ast.Mod, num(7), num(3)), 1},
		{ast.Binary(ast.Mod, num(-7), num(3)), -1},
		{ast.Unary(ast.Neg, ast.Var("a")), -10},
		{ast.Unary(ast.Plus, ast.Var("s")), 2.5},
	} {
		v := mustEval(t, test.n, e)
		if x, _ := v.AsNumber(); !v.IsNumber() || x != test.x {
			t.Errorf("%s: expected %g, got %v", ast.String(test.n), test.x, v)
		}
	}
}

func TestComparisonAndLogic(t *testing.T) {
	e := env(map[string]interface{}{"x": 5, "name": "kim", "flag": true, "n": "5"})
	for _, test := range []struct {
		n ast.Node
		b bool
	}{
		{ast.Binary(ast.Gt, ast.Var("x"), num(0)), true},
		{ast.Binary(ast.Le, ast.Var("x"), num(4)), false},
		{ast.Binary(ast.Eq, ast.Var("x"), ast.Var("n")), true},
		{ast.Binary(ast.Eq, ast.Var("name"), ast.Var("name")), true},
		{ast.Binary(ast.Ne, ast.Var("flag"), ast.Bool(false)), true},
		{ast.Binary(ast.And, ast.Var("flag"), ast.Binary(ast.Lt, num(1), num(2))), true},
		{ast.Binary(ast.Or, ast.Bool(false), ast.Bool(false)), false},
		{ast.Unary(ast.Not, ast.Var("x")), false},
	} {
		v := mustEval(t, test.n, e)
		if b, _ := v.AsBool(); !v.IsBool() || b != test.b {
			t.Errorf("%s: expected %v, got %v", ast.String(test.n), test.b, v)
		}
	}
}

func TestShortCircuit(t *testing.T) {
	div0 := ast.Binary(ast.Div, num(1), num(0))
	v := mustEval(t, ast.Binary(ast.And, ast.Bool(false), div0), nil)
	if b, _ := v.AsBool(); b {
		t.Errorf("expected false")
	}
	v = mustEval(t, ast.Binary(ast.Or, ast.Bool(true), ast.Var("undefined")), nil)
	if b, _ := v.AsBool(); !b {
		t.Errorf("expected true")
	}
	_, err := New().Evaluate(ast.Binary(ast.And, ast.Bool(true), div0), nil)
	if !scorex.IsKind(err, scorex.DivisionByZero) {
		t.Errorf("expected right operand to be evaluated, got %v", err)
	}
}

func TestConditional(t *testing.T) {
	cond := ast.Cond(ast.Binary(ast.Gt, ast.Var("x"), num(0)), num(1), ast.Unary(ast.Neg, num(1)))
	for x, expected := range map[int]float64{5: 1, -5: -1} {
		v := mustEval(t, cond, env(map[string]interface{}{"x": x}))
		if r, _ := v.AsNumber(); r != expected {
			t.Errorf("x=%d: expected %g, got %v", x, expected, v)
		}
	}
	// untaken branch must not raise errors
	lazy := ast.Cond(ast.Bool(true), num(7), ast.Call("FACTORIAL", num(100)))
	if v := mustEval(t, lazy, nil); !v.Identical(runtime.Number(7)) {
		t.Errorf("expected 7, got %v", v)
	}
}

func TestErrors(t *testing.T) {
	for _, test := range []struct {
		n    ast.Node
		kind scorex.ErrorKind
	}{
		{ast.Binary(ast.Div, num(1), num(0)), scorex.DivisionByZero},
		{ast.Binary(ast.Mod, num(5), num(0)), scorex.DivisionByZero},
		{ast.Var("nope"), scorex.UndefinedVariable},
		{ast.Call("NOPE"), scorex.UnknownFunction},
		{ast.Call("SQRT", num(-1)), scorex.MathDomain},
		{ast.Call("ASIN", num(2)), scorex.MathDomain},
		{ast.Call("LOG", num(0)), scorex.MathDomain},
		{ast.Call("ATANH", num(1)), scorex.MathDomain},
		{ast.Call("ACOSH", num(0.5)), scorex.MathDomain},
		{ast.Call("SIN"), scorex.WrongArgumentCount},
		{ast.Call("MAX"), scorex.WrongArgumentCount},
		{ast.Call("PI", num(1)), scorex.WrongArgumentCount},
		{ast.Call("FACTORIAL", num(21)), scorex.Overflow},
		{ast.Call("FACTORIAL", num(2.5)), scorex.MathDomain},
		{ast.Call("COMBINATION", num(63), num(2)), scorex.Overflow},
		{ast.Call("PERMUTATION", num(40), num(30)), scorex.Overflow},
		{ast.Call("MOD", num(1), num(0)), scorex.DivisionByZero},
		{ast.Binary(ast.Add, ast.Bool(true), num(1)), scorex.TypeMismatch},
		{ast.Binary(ast.Pow, num(10), num(400)), scorex.MathDomain},
		{ast.Call("EXP", num(1000)), scorex.MathDomain},
		{&ast.Arguments{List: []ast.Node{num(1)}}, scorex.TypeMismatch},
	} {
		_, err := New().Evaluate(test.n, nil)
		if err == nil {
			t.Errorf("%s: expected error %v", ast.String(test.n), test.kind)
			continue
		}
		if k := scorex.KindOf(err); k != test.kind {
			t.Errorf("%s: expected %v, got %v (%v)", ast.String(test.n), test.kind, k, err)
		}
	}
}

func TestErrorPosition(t *testing.T) {
	n := &ast.BinaryOp{Op: ast.Div, Left: &ast.Number{Value: 1}, Right: &ast.Number{Value: 0, Pos: 2}, Pos: 0}
	_, err := New().Evaluate(n, nil)
	if e, ok := err.(*scorex.Error); !ok || e.Position != 0 {
		t.Errorf("expected error at position 0, got %v", err)
	}
	_, err = New().Evaluate(&ast.Variable{Name: "y", Pos: 9}, nil)
	if e, ok := err.(*scorex.Error); !ok || e.Position != 9 {
		t.Errorf("expected error at position 9, got %v", err)
	}
}

func TestFunctions(t *testing.T) {
	for _, test := range []struct {
		n ast.Node
		x float64
	}{
		{ast.Call("FACTORIAL", num(5)), 120},
		{ast.Call("FACTORIAL", num(0)), 1},
		{ast.Call("FACTORIAL", num(20)), 2432902008176640000},
		{ast.Call("COMBINATION", num(5), num(2)), 10},
		{ast.Call("COMBINATION", num(62), num(31)), 465428353255261088},
		{ast.Call("PERMUTATION", num(5), num(2)), 20},
		{ast.Call("GCD", num(12), num(18), num(-30)), 6},
		{ast.Call("LCM", num(4), num(6)), 12},
		{ast.Call("MOD", num(10), num(4)), 2},
		{ast.Call("MIN", num(3), num(1), num(2)), 1},
		{ast.Call("MAX", num(3), num(1), num(2)), 3},
		{ast.Call("SUM"), 0},
		{ast.Call("AVG", num(1), num(2), num(3), num(4)), 2.5},
		{ast.Call("MEDIAN", num(5), num(1), num(3)), 3},
		{ast.Call("MEDIAN", num(4), num(1), num(3), num(2)), 2.5},
		{ast.Call("VARIANCE", num(2), num(4), num(4), num(4), num(5), num(5), num(7), num(9)), 4},
		{ast.Call("STDDEV", num(2), num(4), num(4), num(4), num(5), num(5), num(7), num(9)), 2},
		{ast.Call("ROUND", num(2.5)), 3},
		{ast.Call("ROUND", num(1.2345), num(2)), 1.23},
		{ast.Call("SIGN", num(-3)), -1},
		{ast.Call("ABS", num(-3)), 3},
		{ast.Call("LOG", num(8), num(2)), 3},
		{ast.Call("LOG10", num(1000)), 3},
		{ast.Call("SQRT", num(16)), 4},
		{ast.Call("POW", num(2), num(3)), 8},
		{ast.Call("PI"), math.Pi},
		{ast.Call("E"), math.E},
	} {
		v := mustEval(t, test.n, nil)
		if x, _ := v.AsNumber(); math.Abs(x-test.x) > 1e-9 {
			t.Errorf("%s: expected %g, got %v", ast.String(test.n), test.x, v)
		}
	}
}

func TestRegistry(t *testing.T) {
	r := Builtins()
	if r != Builtins() {
		t.Errorf("registry must be created once")
	}
	if r.Size() < 40 {
		t.Errorf("expected at least 40 functions, have %d", r.Size())
	}
	if f, ok := r.Lookup("RANDOM"); !ok || f.Pure {
		t.Errorf("RANDOM must be registered as impure")
	}
	if f, ok := r.Lookup("SIN"); !ok || !f.Pure {
		t.Errorf("SIN must be registered as pure")
	}
	v := mustEval(t, ast.Call("RANDOM"), nil)
	if x, _ := v.AsNumber(); x < 0 || x >= 1 {
		t.Errorf("RANDOM out of range: %g", x)
	}
}

func TestCancelledEvaluation(t *testing.T) {
	var n ast.Node = num(1)
	for i := 0; i < 2*ctxCheckInterval; i++ {
		n = ast.Binary(ast.Add, n, num(1))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().EvaluateContext(ctx, n, nil)
	if !scorex.IsKind(err, scorex.Timeout) {
		t.Errorf("expected Timeout error, got %v", err)
	}
}
