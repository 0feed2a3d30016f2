/*
Package lalr provides a shift-reduce parser for LR(1) grammars. Clients have to use
the tools of package lr to prepare the necessary parse tables. The parser
utilizes these tables to create a right derivation for a given input,
provided through a scanner interface.

The parser is intended for small grammars, e.g. for formula or configuration
input. Clients are able to construct the parse tables from a grammar and use the
parser directly, without a code-generation or compile step.

Usage

Clients construct a grammar, usually by using a grammar builder:

	b := lr.NewGrammarBuilder("Signed Variables Grammar")
	b.LHS("Var").N("Sign").T("a", scanner.Ident).End()  // Var  ➞ Sign Id
	b.LHS("Sign").T("+", '+').End()                     // Sign ➞ +
	b.LHS("Sign").T("-", '-').End()                     // Sign ➞ -
	b.LHS("Sign").Epsilon()                             // Sign ➞
	g, err := b.Grammar()

This grammar is subjected to grammar analysis and table generation.

	ga, err := lr.Analysis(g)
	lrgen := lr.NewTableGenerator(ga)
	if err := lrgen.CreateTables(); err != nil { ... }  // not an LR(1) grammar

Finally parse some input:

	p := lalr.NewParser(lrgen)
	value, err := p.Parse(tokenizer)

Whenever the parser reduces a rule, it calls the rule's semantic action with the
values of the RHS symbols. The value of the start symbol is the result of Parse.

A Parser holds no per-parse state: stacks are allocated for every call to Parse,
so a single parser may be used by concurrent goroutines.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lalr

import (
	"fmt"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/lr"
	"github.com/npillmayer/scorex/lr/scanner"
)

// tracer traces with key 'scorex.lr'.
func tracer() tracing.Trace {
	return tracing.Select("scorex.lr")
}

// Parser is an LR(1)-parser type. Create and initialize one with lalr.NewParser(...)
type Parser struct {
	G       *lr.Grammar
	gotoT   *lr.Table // GOTO table
	actionT *lr.Table // ACTION table
	start   uint      // ID of the start state
}

// We store state-IDs, symbol-IDs and semantic values on the parse stack.
type stackitem struct {
	stateID uint        // ID of a CFSM state
	symID   int         // ID of a grammar symbol (terminal or non-terminal)
	span    scorex.Span // input span over which this symbol reaches
	value   interface{} // token or result of a semantic action
}

// NewParser creates a parser from a table generator. lrgen.CreateTables() must
// have been called successfully.
func NewParser(lrgen *lr.TableGenerator) *Parser {
	return NewParserFromTables(lrgen.CFSM().Grammar(), lrgen.CFSM().S0.ID,
		lrgen.GotoTable(), lrgen.ActionTable())
}

// NewParserFromTables creates a parser from pre-built tables.
func NewParserFromTables(g *lr.Grammar, start uint, gotoTable *lr.Table, actionTable *lr.Table) *Parser {
	return &Parser{
		G:       g,
		gotoT:   gotoTable,
		actionT: actionTable,
		start:   start,
	}
}

// Parse starts a new parse, reading tokens from a tokenizer until end of input.
//
// Parse returns the value of the start symbol, as produced by the semantic
// actions of the grammar. Scanner errors are returned as soon as they are reported
// by the tokenizer. Syntax errors are returned as *ParseError.
func (p *Parser) Parse(scan scanner.Tokenizer) (interface{}, error) {
	if p.G == nil || p.gotoT == nil || p.actionT == nil {
		tracer().Errorf("LR(1)-parser not initialized")
		return nil, scorex.NewError(scorex.Internal, "LR(1)-parser not initialized")
	}
	var scanErr error
	scan.SetErrorHandler(func(e error) {
		if scanErr == nil {
			scanErr = e
		}
	})
	stack := make([]stackitem, 0, 64)
	stack = append(stack, stackitem{stateID: p.start}) // push S0
	token := scan.NextToken()
	if scanErr != nil {
		return nil, scanErr
	}
	for {
		tokval := token.TokType()
		state := stack[len(stack)-1] // TOS
		action := p.actionT.Value(state.stateID, tokval)
		tracer().Debugf("action(%d,%q)=%s", state.stateID, token.Lexeme(), valstring(action, p.actionT))
		switch {
		case action == p.actionT.NullValue():
			return nil, p.syntaxError(token, state.stateID)
		case action == lr.AcceptAction:
			return stack[len(stack)-1].value, nil
		case action == lr.ShiftAction:
			nextstate := p.gotoT.Value(state.stateID, tokval)
			if nextstate == p.gotoT.NullValue() {
				return nil, p.tableError(state.stateID, int(tokval))
			}
			stack = append(stack, stackitem{ // push a terminal state onto stack
				stateID: uint(nextstate),
				symID:   int(tokval),
				span:    token.Span(),
				value:   token,
			})
			token = scan.NextToken()
			if scanErr != nil {
				return nil, scanErr
			}
		case action > 0: // reduce action
			rule := p.G.Rule(int(action))
			var item stackitem
			var err error
			stack, item, err = p.reduce(stack, rule, token)
			if err != nil {
				return nil, err
			}
			stack = append(stack, item) // push a non-terminal state onto stack
		default:
			return nil, p.tableError(state.stateID, int(tokval))
		}
	}
}

// reduce performs a reduce action for a rule
//
//    LHS ➞ X1 ... Xn   (with X being terminals or non-terminals)
//
// Symbols X1 to Xn are represented on the stack as states
//
//    [TOS]  Sn(Xn, span_n) ... S1(X1, span1)  ...
//
// reduce pops them, calls the semantic action of the rule with their values and
// returns a stack item for LHS.
func (p *Parser) reduce(stack []stackitem, rule *lr.Rule, lookahead scorex.Token) (
	[]stackitem, stackitem, error) {
	//
	tracer().Debugf("reduce %v", rule)
	n := len(rule.RHS())
	if n >= len(stack) {
		return stack, stackitem{}, scorex.NewError(scorex.Internal, "parse stack underflow reducing %s", rule)
	}
	handle := stack[len(stack)-n:]
	args := make([]interface{}, n)
	var handlespan scorex.Span
	for k, frame := range handle {
		if want := rule.RHS()[k].Value; frame.symID != want {
			tracer().Errorf("expected %v on stack, got %d", rule.RHS()[k], frame.symID)
		}
		args[k] = frame.value
		handlespan = handlespan.Extend(frame.span)
	}
	stack = stack[:len(stack)-n]
	if n == 0 { // epsilon was just before lookahead
		pos := lookahead.Span().From()
		handlespan = scorex.Span{pos, pos}
	}
	value, err := rule.Reduce(args)
	if err != nil {
		return stack, stackitem{}, err
	}
	tos := stack[len(stack)-1]
	nextstate := p.gotoT.Value(tos.stateID, rule.LHS.TokenType())
	if nextstate == p.gotoT.NullValue() {
		return stack, stackitem{}, p.tableError(tos.stateID, rule.LHS.Value)
	}
	tracer().Debugf("reduced to next state = %d", nextstate)
	return stack, stackitem{
		stateID: uint(nextstate),
		symID:   rule.LHS.Value,
		span:    handlespan,
		value:   value,
	}, nil
}

// --- Errors ----------------------------------------------------------------

// ParseError is returned for input which does not conform to the grammar.
type ParseError struct {
	Token    scorex.Token // the offending token
	State    uint         // parser state when the error occurred
	Expected []string     // names of the tokens which would have been valid
}

func (e *ParseError) Error() string {
	return e.Unwrap().Error()
}

// Unwrap returns a scorex.Error of kind UnexpectedToken.
func (e *ParseError) Unwrap() error {
	what := fmt.Sprintf("unexpected token %q", e.Token.Lexeme())
	if e.Token.TokType() == scanner.EOF {
		what = "unexpected end of input"
	}
	return scorex.ErrorAt(scorex.UnexpectedToken, int(e.Token.Span().From()),
		"%s, expected one of [%s]", what, strings.Join(e.Expected, " "))
}

func (p *Parser) syntaxError(token scorex.Token, stateID uint) error {
	expected := p.actionT.Expected(stateID)
	names := make([]string, 0, len(expected))
	for _, tt := range expected {
		if A := p.G.SymbolByValue(tt); A != nil {
			names = append(names, A.Name)
		}
	}
	err := &ParseError{Token: token, State: stateID, Expected: names}
	tracer().Debugf("syntax error: %v", err)
	return err
}

func (p *Parser) tableError(stateID uint, symID int) error {
	tracer().Errorf("parser tables inconsistent at state %d, symbol %d", stateID, symID)
	return scorex.NewError(scorex.Internal, "parser tables inconsistent at state %d, symbol %d", stateID, symID)
}

// valstring is a short helper to stringify an action table entry.
func valstring(v int32, m *lr.Table) string {
	if v == m.NullValue() {
		return "<none>"
	} else if v == lr.AcceptAction {
		return "<accept>"
	} else if v == lr.ShiftAction {
		return "<shift>"
	}
	return fmt.Sprintf("<reduce %d>", v)
}
