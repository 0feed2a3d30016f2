package lexmach

import (
	"strings"
	"unicode"

	"github.com/npillmayer/schuko/tracing"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/lr/scanner"
)

// lexmachine adapter

// tracer traces with key 'scorex.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("scorex.scanner")
}

// LMAdapter is a lexmachine adapter to use lexmachine as a scanner.
// After construction an LMAdapter is read-only; scanners created from it may
// be used concurrently.
type LMAdapter struct {
	Lexer *lexmachine.Lexer
}

// NewLMAdapter creates a new lexmachine adapter. It receives a list of
// literals ('(', '&&', …), a list of keywords ("IF", "TRUE", …) and a
// map for translating token strings to their values.
//
// Literals and keywords take precedence over the patterns added by init.
// Keywords are matched case-insensitively.
//
// NewLMAdapter will return an error if compiling the DFA failed.
func NewLMAdapter(init func(*lexmachine.Lexer), literals []string, keywords []string, tokenIds map[string]int) (*LMAdapter, error) {
	adapter := &LMAdapter{}
	adapter.Lexer = lexmachine.NewLexer()
	for _, lit := range literals {
		r := "\\" + strings.Join(strings.Split(lit, ""), "\\")
		adapter.Lexer.Add([]byte(r), MakeToken(lit, tokenIds[lit]))
	}
	for _, name := range keywords {
		adapter.Lexer.Add([]byte(caseInsensitive(name)), MakeToken(name, tokenIds[name]))
	}
	init(adapter.Lexer)
	if err := adapter.Lexer.Compile(); err != nil {
		tracer().Errorf("Error compiling DFA: %v", err)
		return nil, err
	}
	return adapter, nil
}

// caseInsensitive creates a pattern like [iI][fF] for a keyword.
func caseInsensitive(keyword string) string {
	var b strings.Builder
	for _, r := range keyword {
		if unicode.IsLetter(r) {
			b.WriteString("[")
			b.WriteRune(unicode.ToLower(r))
			b.WriteRune(unicode.ToUpper(r))
			b.WriteString("]")
		} else {
			b.WriteString("\\")
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Scanner creates a scanner for a given input. The scanner will implement the
// Tokenizer interface.
func (lm *LMAdapter) Scanner(input string) (*LMScanner, error) {
	s, err := lm.Lexer.Scanner([]byte(input))
	if err != nil {
		return &LMScanner{}, err
	}
	return &LMScanner{scanner: s, Error: logError, end: uint64(len(input))}, nil
}

// Tokenize scans a complete input and returns its tokens, terminated by an EOF
// token. Input which matches none of the patterns results in an error of kind
// scorex.UnrecognizedCharacter, carrying the byte position of the offending input.
func (lm *LMAdapter) Tokenize(input string) ([]scorex.Token, error) {
	sc, err := lm.Scanner(input)
	if err != nil {
		return nil, scorex.WrapError(scorex.Internal, err, "cannot create scanner")
	}
	var lexErr error
	sc.SetErrorHandler(func(e error) {
		if lexErr == nil {
			lexErr = e
		}
	})
	tokens := make([]scorex.Token, 0, len(input)/2+1)
	for {
		token := sc.NextToken()
		if lexErr != nil {
			return nil, lexErr
		}
		tokens = append(tokens, token)
		if token.TokType() == scanner.EOF {
			return tokens, nil
		}
	}
}

// LMScanner is a scanner type for lexmachine scanners, implementing the
// Tokenizer interface.
type LMScanner struct {
	scanner *lexmachine.Scanner
	Error   func(error)
	end     uint64 // length of input
}

var _ scanner.Tokenizer = (*LMScanner)(nil)

// SetErrorHandler sets an error handler for the scanner.
func (lms *LMScanner) SetErrorHandler(h func(error)) {
	if h == nil {
		lms.Error = logError
		return
	}
	lms.Error = h
}

// Default error reporting function for lexmachine-based scanners
func logError(e error) {
	tracer().Errorf("scanner error: " + e.Error())
}

// NextToken is part of the Tokenizer interface.
//
// Unconsumed input is reported to the error handler as an error of kind
// scorex.UnrecognizedCharacter and then skipped.
func (lms *LMScanner) NextToken() scorex.Token {
	tok, err, eof := lms.scanner.Next()
	for err != nil {
		if ui, is := err.(*machines.UnconsumedInput); is {
			lms.Error(scorex.ErrorAt(scorex.UnrecognizedCharacter, ui.StartTC,
				"unrecognized input %q", string(ui.Text)))
			lms.scanner.TC = ui.FailTC
			if ui.FailTC <= ui.StartTC {
				lms.scanner.TC = ui.StartTC + 1
			}
		} else {
			lms.Error(err)
		}
		tok, err, eof = lms.scanner.Next()
	}
	if eof {
		return scanner.MakeDefaultToken(scanner.EOF, "", scorex.Span{lms.end, lms.end})
	}
	tracer().Debugf("tok is %T | %v", tok, tok)
	token := tok.(*lexmachine.Token)
	return scanner.MakeDefaultToken(
		scorex.TokType(token.Type),
		string(token.Lexeme),
		scorex.Span{uint64(token.TC), uint64(token.TC + len(token.Lexeme))},
	)
}

// ---------------------------------------------------------------------------

// Skip is a pre-defined action which ignores the scanned match.
func Skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// MakeToken is a pre-defined action which wraps a scanned match into a token.
func MakeToken(name string, id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, string(m.Bytes), m), nil
	}
}
