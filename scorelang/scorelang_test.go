package scorelang

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/eval"
	"github.com/npillmayer/scorex/lr"
	"github.com/npillmayer/scorex/lr/lalr"
	"github.com/npillmayer/scorex/runtime"
	"github.com/npillmayer/scorex/termr"
)

func mustEngine(t *testing.T) *ScoreEngine {
	t.Helper()
	e, err := Engine()
	if err != nil {
		t.Fatalf("cannot create engine: %v", err)
	}
	return e
}

func TestTokenize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.lang")
	defer teardown()
	//
	tokens, err := Tokenize("IF(hours >= 15, 15, hours) && !done || x != .5")
	if err != nil {
		t.Fatal(err)
	}
	types := []scorex.TokType{If, '(', Ident, GE, Number, ',', Number, ',', Ident, ')',
		AND, '!', Ident, OR, Ident, NE, Number, EOF}
	if len(tokens) != len(types) {
		t.Fatalf("expected %d tokens, got %d: %v", len(types), len(tokens), tokens)
	}
	for i, tok := range tokens {
		if tok.TokType() != types[i] {
			t.Errorf("token #%d: expected %s, got %s (%q)", i, TokenName(types[i]),
				TokenName(tok.TokType()), tok.Lexeme())
		}
	}
	if tokens[2].Span().From() != 3 || tokens[2].Span().To() != 8 {
		t.Errorf("expected 'hours' at [3…8), got %v", tokens[2].Span())
	}
}

func TestTokenizeUnrecognized(t *testing.T) {
	_, err := Tokenize("a + $b")
	var e *scorex.Error
	if !errors.As(err, &e) || e.Kind != scorex.UnrecognizedCharacter || e.Position != 4 {
		t.Errorf("expected UnrecognizedCharacter at position 4, got %v", err)
	}
	if _, err := Tokenize("a & b"); !scorex.IsKind(err, scorex.UnrecognizedCharacter) {
		t.Errorf("single & must not be recognized, got %v", err)
	}
}

func TestGrammarIsLR1(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.lr")
	defer teardown()
	//
	e := mustEngine(t)
	if e.Tables.HasConflicts {
		t.Errorf("grammar has conflicts: %v", e.Tables.Conflicts())
	}
	if e.Grammar.Rule(0).LHS.Name != "S'" || e.Grammar.Start().Name != "Formula" {
		t.Errorf("unexpected start rule %v", e.Grammar.Rule(0))
	}
	if e2, _ := Engine(); e2 != e {
		t.Errorf("engine must be created once")
	}
}

func TestFirstFollowSets(t *testing.T) {
	e := mustEngine(t)
	ga := e.Analysis
	first, follow := ga.Rounds()
	if first > lr.MaxIterations || follow > lr.MaxIterations {
		t.Errorf("analysis did not converge in time: %d/%d rounds", first, follow)
	}
	e.Grammar.EachTerminal(func(A *lr.Symbol) {
		f := ga.First(A)
		if f.Len() != 1 || !f.Has(A.Value) {
			t.Errorf("FIRST(%s) must be {%s}, is %v", A, A, f)
		}
	})
	isTerminal := func(v int) bool {
		A := e.Grammar.SymbolByValue(v)
		return A != nil && A.IsTerminal()
	}
	e.Grammar.EachNonTerminal(func(A *lr.Symbol) {
		for _, v := range ga.First(A).AppendTo(nil) {
			if v != lr.Epsilon && !isTerminal(v) {
				t.Errorf("FIRST(%s) contains non-terminal value %d", A, v)
			}
		}
		for _, v := range ga.Follow(A).AppendTo(nil) {
			if v != lr.EOF && !isTerminal(v) {
				t.Errorf("FOLLOW(%s) contains non-terminal value %d", A, v)
			}
		}
	})
	if !ga.Follow(e.Grammar.Start()).Has(lr.EOF) {
		t.Errorf("FOLLOW of start symbol must contain EOF")
	}
	if !ga.DerivesEpsilon(e.Grammar.SymbolByName("Args")) {
		t.Errorf("Args must derive ε")
	}
}

func TestPrecedence(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.lang")
	defer teardown()
	//
	for _, test := range []struct {
		formula string
		tree    string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"},
		{"-2 ^ 2", "(-(2 ^ 2))"},
		{"2 ^ -1", "(2 ^ (-1))"},
		{"a < b == c >= d", "((a < b) == (c >= d))"},
		{"a || b && !c", "(a || (b && (!c)))"},
		{"x % 3 * 2", "((x % 3) * 2)"},
		{"max(a, b+1, 3)", "MAX(a, (b + 1), 3)"},
		{"pi()", "PI()"},
		{"if(x > 15, 15, x)", "IF((x > 15), 15, x)"},
		{"True && FALSE", "(TRUE && FALSE)"},
		{"(korean_3_1 + korean_3_2) / 2 * 1.75", "(((korean_3_1 + korean_3_2) / 2) * 1.75)"},
	} {
		tree, err := Parse(test.formula)
		if err != nil {
			t.Errorf("cannot parse %q: %v", test.formula, err)
			continue
		}
		if s := ast.String(tree); s != test.tree {
			t.Errorf("%q: expected %s, got %s", test.formula, test.tree, s)
		}
	}
}

func TestPositions(t *testing.T) {
	tree, err := Parse("a + SQRT(b)")
	if err != nil {
		t.Fatal(err)
	}
	bin := tree.(*ast.BinaryOp)
	if bin.Pos != 0 || bin.Right.Position() != 4 {
		t.Errorf("unexpected positions %d, %d", bin.Pos, bin.Right.Position())
	}
	call := bin.Right.(*ast.FunctionCall)
	if call.Args[0].Position() != 9 {
		t.Errorf("expected argument at position 9, got %d", call.Args[0].Position())
	}
}

func TestSyntaxErrors(t *testing.T) {
	for _, test := range []struct {
		formula string
		pos     int
	}{
		{"1 +", 3},
		{"(1 + 2", 6},
		{"1 2", 2},
		{"IF(a, b)", 7},
		{"f(1,)", 4},
		{"", 0},
		{"* 3", 0},
	} {
		_, err := Parse(test.formula)
		if err == nil {
			t.Errorf("expected %q to fail", test.formula)
			continue
		}
		var e *scorex.Error
		if !errors.As(err, &e) || e.Kind != scorex.UnexpectedToken {
			t.Errorf("%q: expected UnexpectedToken, got %v", test.formula, err)
			continue
		}
		if e.Position != test.pos {
			t.Errorf("%q: expected error at position %d, got %d", test.formula, test.pos, e.Position)
		}
	}
	_, err := Parse("1 + * 2")
	var perr *lalr.ParseError
	if !errors.As(err, &perr) || len(perr.Expected) == 0 {
		t.Fatalf("expected a parse error with expected tokens, got %v", err)
	}
	found := false
	for _, name := range perr.Expected {
		if name == "number" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'number' to be among the expected tokens: %v", perr.Expected)
	}
}

func evaluate(t *testing.T, formula string, vars map[string]interface{}) (runtime.Value, error) {
	t.Helper()
	tree, err := Parse(formula)
	if err != nil {
		t.Fatalf("cannot parse %q: %v", formula, err)
	}
	env, err := runtime.EnvironmentFrom(vars)
	if err != nil {
		t.Fatal(err)
	}
	return eval.New().Evaluate(tree, env)
}

func TestEvaluateFormulas(t *testing.T) {
	for _, test := range []struct {
		formula string
		vars    map[string]interface{}
		result  runtime.Value
	}{
		{"(a+b)/2", map[string]interface{}{"a": 10, "b": 20}, runtime.Number(15)},
		{"IF(x>0,1,-1)", map[string]interface{}{"x": 5}, runtime.Number(1)},
		{"IF(x>0,1,-1)", map[string]interface{}{"x": -5}, runtime.Number(-1)},
		{"false && (1/0)", nil, runtime.Bool(false)},
		{"FACTORIAL(5)", nil, runtime.Number(120)},
		{"factorial(5)", nil, runtime.Number(120)},
		{"IF(volunteer_hours>15,15,volunteer_hours)", map[string]interface{}{"volunteer_hours": 22}, runtime.Number(15)},
		{"-2^2", nil, runtime.Number(-4)},
	} {
		v, err := evaluate(t, test.formula, test.vars)
		if err != nil {
			t.Errorf("%q: unexpected error %v", test.formula, err)
			continue
		}
		if !v.Identical(test.result) {
			t.Errorf("%q: expected %v, got %v", test.formula, test.result, v)
		}
	}
	for formula, kind := range map[string]scorex.ErrorKind{
		"1/0":           scorex.DivisionByZero,
		"5%0":           scorex.DivisionByZero,
		"FACTORIAL(21)": scorex.Overflow,
		"SQRT(-4)":      scorex.MathDomain,
		"SIN(1, 2)":     scorex.WrongArgumentCount,
		"unknown + 1":   scorex.UndefinedVariable,
	} {
		if _, err := evaluate(t, formula, nil); !scorex.IsKind(err, kind) {
			t.Errorf("%q: expected %v, got %v", formula, kind, err)
		}
	}
}

func TestOptimizeThenEvaluate(t *testing.T) {
	ev := eval.New()
	for _, formula := range []string{
		"1 + 2 * 3 - 4 / 8",
		"(7 % 3) ^ 2 * 1.5",
		"-(3 - 10) * (0.1 + 0.2)",
		"2 ^ 0.5 / 3",
		"((((1))))",
		"100 / 7 * 7",
	} {
		tree, err := Parse(formula)
		if err != nil {
			t.Fatal(err)
		}
		v1, err1 := ev.Evaluate(tree, nil)
		optimized := termr.Optimize(tree)
		v2, err2 := ev.Evaluate(optimized, nil)
		if err1 != nil || err2 != nil || !v1.Identical(v2) {
			t.Errorf("%q: %v (%v) vs. optimized %v (%v)", formula, v1, err1, v2, err2)
		}
		if !ast.Equal(termr.Optimize(optimized), optimized) {
			t.Errorf("%q: optimization is not idempotent", formula)
		}
	}
}
