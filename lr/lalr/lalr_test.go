package lalr

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/lr"
	"github.com/npillmayer/scorex/lr/scanner"
)

func num(x interface{}) float64 {
	return x.(float64)
}

// E  ➞  E + T | T
// T  ➞  T * F | F
// F  ➞  ( E ) | n
func makeParser(t *testing.T) *Parser {
	b := lr.NewGrammarBuilder("Calc")
	b.LHS("E").N("E").T("+", '+').N("T").Action(func(args []interface{}) (interface{}, error) {
		return num(args[0]) + num(args[2]), nil
	}).End()
	b.LHS("E").N("T").End()
	b.LHS("T").N("T").T("*", '*').N("F").Action(func(args []interface{}) (interface{}, error) {
		return num(args[0]) * num(args[2]), nil
	}).End()
	b.LHS("T").N("F").End()
	b.LHS("F").T("(", '(').N("E").T(")", ')').Action(func(args []interface{}) (interface{}, error) {
		return args[1], nil
	}).End()
	b.LHS("F").T("n", scanner.Int).Action(func(args []interface{}) (interface{}, error) {
		return args[0].(scorex.Token).Value(), nil
	}).End()
	g, err := b.Grammar()
	if err != nil {
		t.Fatal(err)
	}
	ga, err := lr.Analysis(g)
	if err != nil {
		t.Fatal(err)
	}
	lrgen := lr.NewTableGenerator(ga)
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	return NewParser(lrgen)
}

func parse(p *Parser, input string) (interface{}, error) {
	return p.Parse(scanner.GoTokenizer("test", strings.NewReader(input)))
}

func TestParseValues(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.lr")
	defer teardown()
	//
	p := makeParser(t)
	for _, test := range []struct {
		input string
		value float64
	}{
		{"1", 1},
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"2*3+4*5", 26},
		{"((7))", 7},
	} {
		v, err := parse(p, test.input)
		if err != nil {
			t.Errorf("cannot parse %q: %v", test.input, err)
			continue
		}
		if num(v) != test.value {
			t.Errorf("expected %q to evaluate to %g, is %v", test.input, test.value, v)
		}
	}
}

func TestParseErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.lr")
	defer teardown()
	//
	p := makeParser(t)
	for _, test := range []struct {
		input    string
		pos      int // -1: end of input
		expected string
	}{
		{"1+*3", 2, "("},
		{"1+", -1, "n"},
		{"(1+2", -1, ")"},
		{"1 2", 2, "+"},
	} {
		_, err := parse(p, test.input)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("expected parse error for %q, have %v", test.input, err)
			continue
		}
		if test.pos < 0 && perr.Token.TokType() != scanner.EOF {
			t.Errorf("expected error for %q at end of input, is at %q", test.input, perr.Token.Lexeme())
		} else if test.pos >= 0 && perr.Token.Span().From() != uint64(test.pos) {
			t.Errorf("expected error for %q at position %d, is at %d", test.input, test.pos, perr.Token.Span().From())
		}
		found := false
		for _, e := range perr.Expected {
			found = found || e == test.expected
		}
		if !found {
			t.Errorf("expected %q in expected-set for %q, have %v", test.expected, test.input, perr.Expected)
		}
		if scorex.KindOf(err) != scorex.UnexpectedToken {
			t.Errorf("expected error of kind UnexpectedToken, is %v", scorex.KindOf(err))
		}
	}
}

func TestActionError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.lr")
	defer teardown()
	//
	b := lr.NewGrammarBuilder("Failing")
	b.LHS("S").T("n", scanner.Int).Action(func(args []interface{}) (interface{}, error) {
		return nil, scorex.NewError(scorex.Overflow, "too large")
	}).End()
	g, _ := b.Grammar()
	ga, _ := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	if err := lrgen.CreateTables(); err != nil {
		t.Fatal(err)
	}
	_, err := parse(NewParser(lrgen), "42")
	if scorex.KindOf(err) != scorex.Overflow {
		t.Errorf("expected error from semantic action to be returned, have %v", err)
	}
}

func TestConcurrentParses(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.lr")
	defer teardown()
	//
	p := makeParser(t)
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := parse(p, "(1+2)*(3+4)")
			if err != nil {
				errs <- err
			} else if num(v) != 21 {
				errs <- errors.New("wrong result")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
