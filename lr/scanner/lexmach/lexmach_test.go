package lexmach

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/timtadh/lexmachine"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/lr/scanner"
)

var literals []string       // The tokens representing literal strings
var keywords []string       // The keyword tokens
var tokenIds map[string]int // A map from the token names to their int ids

func initTokens() {
	literals = []string{"(", ")", "+", "-", "*", "/", "==", "&&", ","}
	keywords = []string{"IF", "TRUE"}
	tokenIds = map[string]int{
		"ID":  scanner.Ident,
		"NUM": scanner.Float,
	}
	for i, tok := range append(append([]string{}, keywords...), literals...) {
		tokenIds[tok] = i + 300
	}
}

func makeAdapter(t *testing.T) *LMAdapter {
	initTokens()
	init := func(lexer *lexmachine.Lexer) {
		lexer.Add([]byte(`([a-z]|[A-Z]|_)([a-z]|[A-Z]|[0-9]|_)*`), MakeToken("ID", tokenIds["ID"]))
		lexer.Add([]byte(`[0-9]+(\.[0-9]*)?|\.[0-9]+`), MakeToken("NUM", tokenIds["NUM"]))
		lexer.Add([]byte(`( |\t|\n|\r)+`), Skip)
	}
	LM, err := NewLMAdapter(init, literals, keywords, tokenIds)
	if err != nil {
		t.Fatal(err)
	}
	return LM
}

func TestLMTokenCounts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.scanner")
	defer teardown()
	//
	LM := makeAdapter(t)
	for i, test := range []struct {
		input string
		count int
	}{
		{"1", 1},
		{"1+12", 3},
		{"a == b && c", 5},
		{"IF(x, 1.5, .5)", 8},
		{"", 0},
	} {
		sc, err := LM.Scanner(test.input)
		if err != nil {
			t.Fatal(err)
		}
		token := sc.NextToken()
		count := 0
		for token.TokType() != scanner.EOF {
			t.Logf(" %4d | %15s | @%5d", token.TokType(), token.Lexeme(), token.Span().From())
			token = sc.NextToken()
			count++
		}
		if count != test.count {
			t.Errorf("expected token count for #%d to be %d, is %d", i, test.count, count)
		}
	}
}

func TestLMKeywords(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.scanner")
	defer teardown()
	//
	LM := makeAdapter(t)
	for _, test := range []struct {
		input string
		typ   int
	}{
		{"IF", tokenIds["IF"]},
		{"if", tokenIds["IF"]},
		{"True", tokenIds["TRUE"]},
		{"iffy", scanner.Ident},
		{"truex", scanner.Ident},
	} {
		tokens, err := LM.Tokenize(test.input)
		if err != nil {
			t.Fatal(err)
		}
		if len(tokens) != 2 || int(tokens[0].TokType()) != test.typ {
			t.Errorf("expected %q to be scanned as a single token of type %d, have %v", test.input, test.typ, tokens)
		}
	}
}

func TestLMTokenize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.scanner")
	defer teardown()
	//
	LM := makeAdapter(t)
	tokens, err := LM.Tokenize("ab + 12")
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 4 {
		t.Fatalf("expected 3 tokens and EOF, have %d", len(tokens))
	}
	for i, test := range []struct {
		lexeme   string
		from, to uint64
	}{
		{"ab", 0, 2},
		{"+", 3, 4},
		{"12", 5, 7},
		{"", 7, 7},
	} {
		tok := tokens[i]
		if tok.Lexeme() != test.lexeme || tok.Span().From() != test.from || tok.Span().To() != test.to {
			t.Errorf("expected token #%d to be %q%v, is %q%v", i, test.lexeme,
				scorex.Span{test.from, test.to}, tok.Lexeme(), tok.Span())
		}
	}
	if tokens[3].TokType() != scanner.EOF {
		t.Errorf("expected trailing EOF token")
	}
}

func TestLMUnrecognizedInput(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "scorex.scanner")
	defer teardown()
	//
	LM := makeAdapter(t)
	_, err := LM.Tokenize("a + #b")
	if err == nil {
		t.Fatalf("expected error for unrecognized input")
	}
	var e *scorex.Error
	if !scorex.IsKind(err, scorex.UnrecognizedCharacter) {
		t.Errorf("expected error of kind UnrecognizedCharacter, is %v", err)
	}
	if !errors.As(err, &e) || e.Position != 4 {
		t.Errorf("expected error at position 4, is %v", err)
	}
}
