/*
Package scanner defines an interface for scanners to be used with parsers of package lr.

Two default scanner implementations are provided: (1) a thin wrapper over the Go std lib
'text/scanner', and (2) an adapter for lexmachine, living in sub-package `lexmach`.
Additionally, a Sequence replays a pre-scanned slice of tokens.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package scanner

import (
	"fmt"
	"io"
	"strconv"
	"text/scanner"

	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/scorex"
)

// tracer traces with key 'scorex.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("scorex.scanner")
}

// EOF is identical to text/scanner.EOF.
// Token types are replicated here for practical reasons.
const (
	EOF    = scanner.EOF
	Ident  = scanner.Ident
	Int    = scanner.Int
	Float  = scanner.Float
	String = scanner.String
)

// Tokenizer is a scanner interface. After the end of input has been reached,
// NextToken returns EOF tokens.
type Tokenizer interface {
	NextToken() scorex.Token
	SetErrorHandler(func(error))
}

// DefaultTokenizer is a default implementation, backed by scanner.Scanner.
// Create one with GoTokenizer.
type DefaultTokenizer struct {
	scanner.Scanner
	lastToken rune        // last token this scanner has produced
	Error     func(error) // error handler
}

var _ Tokenizer = (*DefaultTokenizer)(nil)

// Default error reporting function for scanners
func logError(e error) {
	tracer().Errorf("scanner error: " + e.Error())
}

// GoTokenizer creates a scanner/tokenizer accepting tokens similar to the Go language.
// Numbers carry their float64 value.
func GoTokenizer(sourceID string, input io.Reader) *DefaultTokenizer {
	t := &DefaultTokenizer{}
	t.Error = logError
	t.Init(input)
	t.Filename = sourceID
	t.Scanner.Error = func(s *scanner.Scanner, msg string) {
		t.Error(scorex.ErrorAt(scorex.UnrecognizedCharacter, s.Pos().Offset, "%s", msg))
	}
	return t
}

// SetErrorHandler sets an error handler for the scanner.
func (t *DefaultTokenizer) SetErrorHandler(h func(error)) {
	if h == nil {
		t.Error = logError
		return
	}
	t.Error = h
}

// NextToken is part of the Tokenizer interface.
func (t *DefaultTokenizer) NextToken() scorex.Token {
	t.lastToken = t.Scan()
	if t.lastToken == scanner.EOF {
		tracer().Debugf("DefaultTokenizer reached end of input")
	}
	token := DefaultToken{
		kind:   scorex.TokType(t.lastToken),
		lexeme: t.TokenText(),
		span:   scorex.Span{uint64(t.Position.Offset), uint64(t.Pos().Offset)},
	}
	if t.lastToken == scanner.Int || t.lastToken == scanner.Float {
		if f, err := strconv.ParseFloat(token.lexeme, 64); err == nil {
			token.Val = f
		}
	}
	return token
}

// --- Default tokens --------------------------------------------------------

// DefaultToken is a very unsophisticated token type, used as default for the Go
// tokenizer as well as the LexMachine scanner.
type DefaultToken struct {
	kind   scorex.TokType
	lexeme string
	Val    interface{}
	span   scorex.Span
}

// MakeDefaultToken creates a token without a value.
func MakeDefaultToken(typ scorex.TokType, lexeme string, span scorex.Span) DefaultToken {
	return DefaultToken{
		kind:   typ,
		lexeme: lexeme,
		span:   span,
	}
}

// TokType is part of interface scorex.Token.
func (t DefaultToken) TokType() scorex.TokType {
	return t.kind
}

// Value is part of interface scorex.Token.
func (t DefaultToken) Value() interface{} {
	return t.Val
}

// Lexeme is part of interface scorex.Token.
func (t DefaultToken) Lexeme() string {
	return t.lexeme
}

// Span is part of interface scorex.Token.
func (t DefaultToken) Span() scorex.Span {
	return t.span
}

func (t DefaultToken) String() string {
	return fmt.Sprintf("%d(%q)@%d", t.kind, t.lexeme, t.span.From())
}

// --- Token sequences -------------------------------------------------------

// Sequence is a tokenizer replaying a pre-scanned slice of tokens. If the
// slice does not end with an EOF token, one is appended logically.
type Sequence struct {
	tokens []scorex.Token
	pos    int
}

var _ Tokenizer = (*Sequence)(nil)

// NewSequence creates a tokenizer for a slice of tokens.
func NewSequence(tokens []scorex.Token) *Sequence {
	return &Sequence{tokens: tokens}
}

// NextToken is part of the Tokenizer interface.
func (s *Sequence) NextToken() scorex.Token {
	if s.pos >= len(s.tokens) {
		var end uint64
		if len(s.tokens) > 0 {
			end = s.tokens[len(s.tokens)-1].Span().To()
		}
		return MakeDefaultToken(EOF, "", scorex.Span{end, end})
	}
	t := s.tokens[s.pos]
	s.pos++
	return t
}

// SetErrorHandler is part of the Tokenizer interface. Sequences never report errors.
func (s *Sequence) SetErrorHandler(func(error)) {}
