package termr

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/eval"
	"github.com/npillmayer/scorex/runtime"
)

var (
	num = ast.Num
	x   = ast.Var("x")
)

func bin(op ast.Operator, l, r ast.Node) ast.Node { return ast.Binary(op, l, r) }

func TestConstantFolding(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.termr")
	defer teardown()
	//
	for _, test := range []struct {
		in  ast.Node
		out ast.Node
	}{
		{bin(ast.Add, num(1), bin(ast.Mul, num(2), num(3))), num(7)},
		{bin(ast.Gt, num(2), num(1)), ast.Bool(true)},
		{ast.Unary(ast.Not, ast.Bool(true)), ast.Bool(false)},
		{ast.Call("MAX", num(1), num(5), num(3)), num(5)},
		{ast.Call("SQRT", bin(ast.Add, num(7), num(9))), num(4)},
		{ast.Cond(bin(ast.Lt, num(1), num(2)), x, ast.Var("y")), x},
		{ast.Cond(ast.Bool(false), x, ast.Var("y")), ast.Var("y")},
		{bin(ast.Add, x, bin(ast.Sub, num(3), num(1))), bin(ast.Add, x, num(2))},
		// no folding for errors, impure functions or non-finite results
		{bin(ast.Div, num(1), num(0)), bin(ast.Div, num(1), num(0))},
		{ast.Call("FACTORIAL", num(21)), ast.Call("FACTORIAL", num(21))},
		{ast.Call("RANDOM"), ast.Call("RANDOM")},
		{bin(ast.Pow, num(10), num(400)), bin(ast.Pow, num(10), num(400))},
	} {
		out := Optimize(test.in)
		if !ast.Equal(out, test.out) {
			t.Errorf("expected %s to optimize to %s, got %s", ast.String(test.in),
				ast.String(test.out), ast.String(out))
		}
	}
}

func TestAlgebraicSimplification(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.termr")
	defer teardown()
	//
	sum := bin(ast.Add, x, ast.Var("y")) // numeric, pure
	rnd := bin(ast.Add, x, ast.Call("RANDOM"))
	for _, test := range []struct {
		in  ast.Node
		out ast.Node
	}{
		{bin(ast.Mul, sum, num(0)), num(0)},
		{bin(ast.Mul, num(0), sum), num(0)},
		{bin(ast.Mul, rnd, num(0)), bin(ast.Mul, rnd, num(0))},
		{bin(ast.Mul, sum, num(1)), sum},
		{bin(ast.Mul, x, num(1)), bin(ast.Mul, x, num(1))}, // x may be a string
		{bin(ast.Add, num(0), sum), sum},
		{bin(ast.Sub, sum, num(0)), sum},
		{bin(ast.Sub, sum, sum), num(0)},
		{bin(ast.Sub, rnd, rnd), bin(ast.Sub, rnd, rnd)},
		{bin(ast.Div, sum, num(1)), sum},
		{bin(ast.Mod, ast.Call("FLOOR", x), num(1)), num(0)},
		{bin(ast.Mod, sum, num(1)), bin(ast.Mod, sum, num(1))},
		{bin(ast.Pow, sum, num(0)), num(1)},
		{bin(ast.Pow, sum, num(1)), sum},
		{bin(ast.And, ast.Bool(false), x), ast.Bool(false)},
		{bin(ast.And, ast.Bool(true), bin(ast.Gt, x, num(1))), bin(ast.Gt, x, num(1))},
		{bin(ast.And, ast.Bool(true), x), bin(ast.And, ast.Bool(true), x)},
		{bin(ast.Or, ast.Bool(true), x), ast.Bool(true)},
		{ast.Unary(ast.Neg, ast.Unary(ast.Neg, sum)), sum},
		{ast.Unary(ast.Not, ast.Unary(ast.Not, bin(ast.Eq, x, num(1)))), bin(ast.Eq, x, num(1))},
		// rewrites enable further rewrites
		{bin(ast.Add, bin(ast.Mul, sum, num(1)), bin(ast.Mul, sum, num(0))), sum},
	} {
		out := Optimize(test.in)
		if !ast.Equal(out, test.out) {
			t.Errorf("expected %s to optimize to %s, got %s", ast.String(test.in),
				ast.String(test.out), ast.String(out))
		}
	}
}

func TestOptimizeIsIdempotentAndPure(t *testing.T) {
	trees := []ast.Node{
		bin(ast.Add, bin(ast.Mul, bin(ast.Add, x, num(1)), num(1)), bin(ast.Sub, num(4), num(2))),
		ast.Cond(bin(ast.Gt, x, num(15)), num(15), x),
		ast.Unary(ast.Neg, ast.Unary(ast.Neg, ast.Unary(ast.Neg, bin(ast.Add, x, x)))),
		bin(ast.Or, bin(ast.And, ast.Bool(true), ast.Bool(true)), bin(ast.Lt, x, num(2))),
		ast.Call("MIN", bin(ast.Pow, x, num(1)), ast.Call("ABS", num(-3))),
	}
	for _, tree := range trees {
		before := ast.String(tree)
		once := Optimize(tree)
		twice := Optimize(once)
		if !ast.Equal(once, twice) {
			t.Errorf("optimization is not idempotent: %s ➞ %s ➞ %s", before, ast.String(once), ast.String(twice))
		}
		if ast.String(tree) != before {
			t.Errorf("input tree %s has been modified", before)
		}
	}
}

func TestFoldingPreservesValues(t *testing.T) {
	ev := eval.New()
	trees := []ast.Node{
		bin(ast.Div, bin(ast.Add, num(10), num(20)), num(2)),
		bin(ast.Sub, bin(ast.Pow, num(2), num(10)), bin(ast.Mod, num(17), num(5))),
		bin(ast.Mul, ast.Unary(ast.Neg, num(3.5)), bin(ast.Add, num(0.1), num(0.2))),
		ast.Call("ROUND", bin(ast.Div, num(22), num(7)), num(3)),
		ast.Cond(bin(ast.Ge, num(3), num(3)), bin(ast.Mul, num(1.75), num(4)), num(0)),
	}
	for _, tree := range trees {
		v1, err1 := ev.Evaluate(tree, nil)
		v2, err2 := ev.Evaluate(Optimize(tree), nil)
		if err1 != nil || err2 != nil {
			t.Errorf("unexpected errors %v, %v", err1, err2)
			continue
		}
		if !v1.Identical(v2) {
			t.Errorf("%s: %v != %v", ast.String(tree), v1, v2)
		}
	}
}

func TestSimplificationPreservesValues(t *testing.T) {
	ev := eval.New()
	env := runtime.NewEnvironment(map[string]runtime.Value{
		"x": runtime.Number(3), "y": runtime.Number(-2.5),
	})
	sum := bin(ast.Add, x, ast.Var("y"))
	trees := []ast.Node{
		bin(ast.Mul, sum, num(1)),
		bin(ast.Sub, sum, sum),
		bin(ast.Pow, sum, num(0)),
		bin(ast.Mod, ast.Call("CEIL", sum), num(1)),
		bin(ast.And, ast.Bool(true), bin(ast.Gt, x, ast.Var("y"))),
		ast.Unary(ast.Neg, ast.Unary(ast.Neg, sum)),
	}
	for _, tree := range trees {
		v1, err1 := ev.Evaluate(tree, env)
		v2, err2 := ev.Evaluate(Optimize(tree), env)
		if err1 != nil || err2 != nil {
			t.Errorf("unexpected errors %v, %v", err1, err2)
			continue
		}
		n1, _ := v1.AsNumber()
		n2, _ := v2.AsNumber()
		if v1.Kind() != v2.Kind() || (v1.IsNumber() && n1 != n2) {
			t.Errorf("%s: %v != %v", ast.String(tree), v1, v2)
		}
	}
}

func TestPluggableStrategies(t *testing.T) {
	sum := bin(ast.Add, x, ast.Var("y"))
	tree := bin(ast.Mul, sum, num(1))
	opt := New().WithStrategy(ast.Mul, nil)
	if out := opt.Optimize(tree); !ast.Equal(out, tree) {
		t.Errorf("expected no simplification without strategy, got %s", ast.String(out))
	}
	if len(New().Strategy(ast.Mul)) == 0 {
		t.Errorf("default strategy for * must not be affected")
	}
	double := RewriteRule{
		Name:    "x+x",
		Pattern: All(SameOperands, Left(Numeric)),
		Rewrite: func(n ast.Node) ast.Node {
			b := n.(*ast.BinaryOp)
			return &ast.BinaryOp{Op: ast.Mul, Left: num(2), Right: b.Left, Pos: b.Pos}
		},
	}
	opt = New().WithStrategy(ast.Add, Strategy{double})
	out, stats := opt.OptimizeWithStats(bin(ast.Add, sum, sum))
	if !ast.Equal(out, bin(ast.Mul, num(2), sum)) {
		t.Errorf("custom rule did not apply, got %s", ast.String(out))
	}
	if stats.Rewrites != 1 || stats.Folds != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestPatterns(t *testing.T) {
	if !Numeric(ast.Call("SIN", x)) || Numeric(x) || !Numeric(ast.Cond(x, num(1), num(2))) {
		t.Errorf("Numeric is broken")
	}
	if !Boolean(bin(ast.Lt, x, num(1))) || Boolean(ast.Call("SIN", x)) {
		t.Errorf("Boolean is broken")
	}
	if !Integral(bin(ast.Add, ast.Call("FACTORIAL", x), num(3))) || Integral(num(1.5)) ||
		Integral(bin(ast.Div, num(4), num(2))) {
		t.Errorf("Integral is broken")
	}
	if Pure(bin(ast.Add, x, ast.Call("RANDOM"))) || !Pure(ast.Call("SIN", x)) {
		t.Errorf("Pure is broken")
	}
}
