package scorelang

import (
	"sync"

	"github.com/timtadh/lexmachine"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/lr/scanner"
	"github.com/npillmayer/scorex/lr/scanner/lexmach"
)

// Token types of the formula language. Single-character operators and
// punctuation use their character code as token type.
const (
	EOF    = scanner.EOF
	Number = scanner.Float
	Ident  = scanner.Ident
)

// Token types of two-character operators and keywords.
const (
	EQ    = 256 + iota // ==
	NE                 // !=
	LE                 // <=
	GE                 // >=
	AND                // &&
	OR                 // ||
	If                 // keyword IF
	True               // keyword TRUE
	False              // keyword FALSE
)

// The tokens representing literal lexemes
var literals = []string{"+", "-", "*", "/", "%", "^", "(", ")", ",", "<", ">", "!",
	"==", "!=", "<=", ">=", "&&", "||"}

// The keyword tokens. Keywords are case-insensitive.
var keywords = []string{"IF", "TRUE", "FALSE"}

// tokenIds maps token names to token types.
var tokenIds = map[string]int{
	"number":     Number,
	"identifier": Ident,
	"==":         EQ,
	"!=":         NE,
	"<=":         LE,
	">=":         GE,
	"&&":         AND,
	"||":         OR,
	"IF":         If,
	"TRUE":       True,
	"FALSE":      False,
}

func init() {
	for _, lit := range literals {
		if len(lit) == 1 {
			tokenIds[lit] = int(lit[0])
		}
	}
}

// TokenName returns a readable name for a token type.
func TokenName(t scorex.TokType) string {
	if t == EOF {
		return "end of input"
	}
	for name, id := range tokenIds {
		if id == int(t) {
			return name
		}
	}
	return "?"
}

var lexer *lexmach.LMAdapter
var lexerErr error
var lexerOnce sync.Once

// Lexer returns the lexmachine adapter for formulas. The DFA is compiled once.
func Lexer() (*lexmach.LMAdapter, error) {
	lexerOnce.Do(func() {
		init := func(lx *lexmachine.Lexer) {
			lx.Add([]byte(`([a-z]|[A-Z]|_)([a-z]|[A-Z]|[0-9]|_)*`), lexmach.MakeToken("identifier", Ident))
			lx.Add([]byte(`[0-9]+(\.[0-9]*)?|\.[0-9]+`), lexmach.MakeToken("number", Number))
			lx.Add([]byte(`( |\t|\n|\r)+`), lexmach.Skip)
		}
		lexer, lexerErr = lexmach.NewLMAdapter(init, literals, keywords, tokenIds)
		if lexerErr != nil {
			lexerErr = scorex.WrapError(scorex.Internal, lexerErr, "cannot compile formula lexer")
		}
	})
	return lexer, lexerErr
}

// Tokenize splits a formula into tokens. The last token is always of type EOF.
// Unrecognized input results in an error of kind scorex.UnrecognizedCharacter.
func Tokenize(formula string) ([]scorex.Token, error) {
	lx, err := Lexer()
	if err != nil {
		return nil, err
	}
	return lx.Tokenize(formula)
}
