package scorelang

import (
	"sync"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/lr"
	"github.com/npillmayer/scorex/lr/lalr"
	"github.com/npillmayer/scorex/lr/scanner"
	"github.com/npillmayer/scorex/lr/scanner/lexmach"
)

// ScoreEngine bundles grammar, grammar analysis, parser tables and lexer of the
// formula language. It is built once and read-only afterwards.
type ScoreEngine struct {
	Grammar  *lr.Grammar
	Analysis *lr.LRAnalysis
	Tables   *lr.TableGenerator
	parser   *lalr.Parser
	lexer    *lexmach.LMAdapter
}

var engine *ScoreEngine
var engineErr error
var engineOnce sync.Once

// Engine returns the engine for the formula language, creating it on first use.
// An error indicates a defect of the grammar definition: the grammar is malformed,
// grammar analysis did not converge or the grammar is not LR(1). Clients must not
// use the engine if an error is returned.
func Engine() (*ScoreEngine, error) {
	engineOnce.Do(func() {
		engine, engineErr = newEngine()
		if engineErr != nil {
			tracer().Errorf("cannot create formula engine: %v", engineErr)
		}
	})
	return engine, engineErr
}

func newEngine() (*ScoreEngine, error) {
	g, err := makeGrammar()
	if err != nil {
		return nil, err
	}
	ga, err := lr.Analysis(g)
	if err != nil {
		return nil, err
	}
	lrgen := lr.NewTableGenerator(ga)
	if err = lrgen.CreateTables(); err != nil {
		return nil, err
	}
	lx, err := Lexer()
	if err != nil {
		return nil, err
	}
	tracer().Infof("formula engine ready: %d rules, %d states", g.Size(), lrgen.CFSM().StateCount())
	return &ScoreEngine{
		Grammar:  g,
		Analysis: ga,
		Tables:   lrgen,
		parser:   lalr.NewParser(lrgen),
		lexer:    lx,
	}, nil
}

// Tokenize splits a formula into tokens, see package-level Tokenize.
func (e *ScoreEngine) Tokenize(formula string) ([]scorex.Token, error) {
	return e.lexer.Tokenize(formula)
}

// Parse tokenizes and parses a formula and returns its syntax tree.
// Errors are of kind scorex.UnrecognizedCharacter or scorex.UnexpectedToken.
func (e *ScoreEngine) Parse(formula string) (ast.Node, error) {
	tokens, err := e.Tokenize(formula)
	if err != nil {
		return nil, err
	}
	return e.ParseTokens(tokens)
}

// ParseTokens parses a token sequence, as produced by Tokenize.
func (e *ScoreEngine) ParseTokens(tokens []scorex.Token) (ast.Node, error) {
	if len(tokens) == 0 || (len(tokens) == 1 && tokens[0].TokType() == EOF) {
		return nil, scorex.ErrorAt(scorex.UnexpectedToken, 0, "empty formula")
	}
	v, err := e.parser.Parse(scanner.NewSequence(tokens))
	if err != nil {
		return nil, err
	}
	tree, ok := v.(ast.Node)
	if !ok {
		return nil, scorex.NewError(scorex.Internal, "parser produced %T instead of a syntax tree", v)
	}
	return tree, nil
}

// Parse parses a formula with the shared engine.
func Parse(formula string) (ast.Node, error) {
	e, err := Engine()
	if err != nil {
		return nil, err
	}
	return e.Parse(formula)
}
