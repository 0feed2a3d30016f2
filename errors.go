package scorex

import (
	"errors"
	"fmt"
)

// --- Error taxonomy --------------------------------------------------------

// ErrorKind tags an error with the reason it occurred. Kinds are grouped into
// error classes, see ErrorKind.Class.
type ErrorKind int

// Error kinds for lexing, parsing, evaluation, policy enforcement and timeouts.
const (
	Internal ErrorKind = iota
	// lexer
	UnrecognizedCharacter
	// parser
	UnexpectedToken
	TableConflict
	GrammarDefinition
	// evaluator
	UndefinedVariable
	UnknownFunction
	TypeMismatch
	DivisionByZero
	MathDomain
	WrongArgumentCount
	Overflow
	// policy
	InvalidRequest
	ExpressionTooLong
	UnsafeExpression
	RateLimited
	TooManyVariables
	ResourceExceeded
	// execution
	Timeout
)

var kindNames = [...]string{
	Internal:              "InternalError",
	UnrecognizedCharacter: "UnrecognizedCharacter",
	UnexpectedToken:       "UnexpectedToken",
	TableConflict:         "TableConflict",
	GrammarDefinition:     "GrammarDefinition",
	UndefinedVariable:     "UndefinedVariable",
	UnknownFunction:       "UnknownFunction",
	TypeMismatch:          "TypeMismatch",
	DivisionByZero:        "DivisionByZero",
	MathDomain:            "MathDomainError",
	WrongArgumentCount:    "WrongArgumentCount",
	Overflow:              "Overflow",
	InvalidRequest:        "InvalidRequest",
	ExpressionTooLong:     "ExpressionTooLong",
	UnsafeExpression:      "UnsafeExpression",
	RateLimited:           "RateLimited",
	TooManyVariables:      "TooManyVariables",
	ResourceExceeded:      "ResourceExceeded",
	Timeout:               "Timeout",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// ErrorClass groups error kinds.
type ErrorClass string

// Error classes. Build-time errors (table conflicts, malformed grammars) are
// of class ClassParse as well, but are never reported for a single request.
const (
	ClassLex      ErrorClass = "lex"
	ClassParse    ErrorClass = "parse"
	ClassEval     ErrorClass = "eval"
	ClassPolicy   ErrorClass = "policy"
	ClassTimeout  ErrorClass = "timeout"
	ClassInternal ErrorClass = "internal"
)

// Class returns the error class of a kind.
func (k ErrorKind) Class() ErrorClass {
	switch {
	case k == UnrecognizedCharacter:
		return ClassLex
	case k >= UnexpectedToken && k <= GrammarDefinition:
		return ClassParse
	case k >= UndefinedVariable && k <= Overflow:
		return ClassEval
	case k >= InvalidRequest && k <= ResourceExceeded:
		return ClassPolicy
	case k == Timeout:
		return ClassTimeout
	}
	return ClassInternal
}

// Error is the error type used throughout the engine.
// Position is a byte offset into the formula, or -1 if unknown.
type Error struct {
	Kind     ErrorKind
	Message  string
	Position int
	Err      error // wrapped cause, may be nil
}

// NewError creates an error without position information.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: -1,
	}
}

// ErrorAt creates an error for a position within the formula.
func ErrorAt(kind ErrorKind, pos int, format string, args ...interface{}) *Error {
	e := NewError(kind, format, args...)
	e.Position = pos
	return e
}

// WrapError wraps a cause into an error of a given kind.
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	e := NewError(kind, format, args...)
	e.Err = err
	return e
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Kind, e.Position, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind, so that
//
//    errors.Is(err, &scorex.Error{Kind: scorex.DivisionByZero})
//
// holds for every division-by-zero error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain, or Internal
// if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind is a shortcut for KindOf(err) == kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
