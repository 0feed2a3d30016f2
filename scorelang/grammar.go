package scorelang

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/lr"
)

// Grammar for score formulas. Operator precedence and associativity are
// expressed by grammar layers, from lowest to highest precedence:
//
//    Formula  ➞ OrExpr
//    OrExpr   ➞ OrExpr || AndExpr | AndExpr
//    AndExpr  ➞ AndExpr && EqExpr | EqExpr
//    EqExpr   ➞ EqExpr == RelExpr | EqExpr != RelExpr | RelExpr
//    RelExpr  ➞ RelExpr < AddExpr | … | AddExpr
//    AddExpr  ➞ AddExpr + MulExpr | AddExpr - MulExpr | MulExpr
//    MulExpr  ➞ MulExpr * Unary | MulExpr / Unary | MulExpr % Unary | Unary
//    Unary    ➞ - Unary | + Unary | ! Unary | Power
//    Power    ➞ Primary ^ Unary | Primary
//    Primary  ➞ number | TRUE | FALSE | identifier | identifier ( Args )
//             | IF ( OrExpr , OrExpr , OrExpr ) | ( OrExpr )
//    Args     ➞ ArgList | ε
//    ArgList  ➞ ArgList , OrExpr | OrExpr
//
// Every rule carries a semantic action which builds the AST node for it.
func makeGrammar() (*lr.Grammar, error) {
	b := lr.NewGrammarBuilder("ScoREx")
	b.LHS("Formula").N("OrExpr").End()
	binaryLayer(b, "OrExpr", "AndExpr", "||", OR)
	binaryLayer(b, "AndExpr", "EqExpr", "&&", AND)
	binaryLayer(b, "EqExpr", "RelExpr", "==", EQ, "!=", NE)
	binaryLayer(b, "RelExpr", "AddExpr", "<", '<', "<=", LE, ">", '>', ">=", GE)
	binaryLayer(b, "AddExpr", "MulExpr", "+", '+', "-", '-')
	binaryLayer(b, "MulExpr", "Unary", "*", '*', "/", '/', "%", '%')
	for _, op := range []string{"-", "+", "!"} {
		b.LHS("Unary").T(op, int(op[0])).N("Unary").Action(unaryAction).End()
	}
	b.LHS("Unary").N("Power").End()
	b.LHS("Power").N("Primary").T("^", '^').N("Unary").Action(binaryAction).End()
	b.LHS("Power").N("Primary").End()
	b.LHS("Primary").T("number", Number).Action(numberAction).End()
	b.LHS("Primary").T("TRUE", True).Action(booleanAction(true)).End()
	b.LHS("Primary").T("FALSE", False).Action(booleanAction(false)).End()
	b.LHS("Primary").T("identifier", Ident).Action(variableAction).End()
	b.LHS("Primary").T("identifier", Ident).T("(", '(').N("Args").T(")", ')').Action(callAction).End()
	b.LHS("Primary").T("IF", If).T("(", '(').N("OrExpr").T(",", ',').N("OrExpr").
		T(",", ',').N("OrExpr").T(")", ')').Action(ifAction).End()
	b.LHS("Primary").T("(", '(').N("OrExpr").T(")", ')').Action(groupAction).End()
	b.LHS("Args").N("ArgList").End()
	b.LHS("Args").Action(emptyArgsAction).Epsilon()
	b.LHS("ArgList").N("ArgList").T(",", ',').N("OrExpr").Action(appendArgAction).End()
	b.LHS("ArgList").N("OrExpr").Action(firstArgAction).End()
	return b.Grammar()
}

// binaryLayer adds rules
//
//    A ➞ A op B   (for each operator)
//    A ➞ B
//
// ops is a list of pairs (terminal name, token type).
func binaryLayer(b *lr.GrammarBuilder, A, B string, ops ...interface{}) {
	for i := 0; i < len(ops); i += 2 {
		name, tokval := ops[i].(string), toInt(ops[i+1])
		b.LHS(A).N(A).T(name, tokval).N(B).Action(binaryAction).End()
	}
	b.LHS(A).N(B).End()
}

func toInt(x interface{}) int {
	switch v := x.(type) {
	case rune:
		return int(v)
	case int:
		return v
	}
	panic("token type must be int or rune")
}

// --- Semantic actions ------------------------------------------------------

func token(x interface{}) scorex.Token {
	return x.(scorex.Token)
}

func node(x interface{}) ast.Node {
	return x.(ast.Node)
}

func pos(t scorex.Token) int {
	return int(t.Span().From())
}

func binaryAction(args []interface{}) (interface{}, error) {
	op, ok := ast.BinaryOperator(token(args[1]).Lexeme())
	if !ok {
		return nil, scorex.ErrorAt(scorex.Internal, pos(token(args[1])),
			"no binary operator for %q", token(args[1]).Lexeme())
	}
	left := node(args[0])
	return &ast.BinaryOp{Op: op, Left: left, Right: node(args[2]), Pos: left.Position()}, nil
}

func unaryAction(args []interface{}) (interface{}, error) {
	t := token(args[0])
	op, ok := ast.UnaryOperator(t.Lexeme())
	if !ok {
		return nil, scorex.ErrorAt(scorex.Internal, pos(t), "no unary operator for %q", t.Lexeme())
	}
	return &ast.UnaryOp{Op: op, Operand: node(args[1]), Pos: pos(t)}, nil
}

func numberAction(args []interface{}) (interface{}, error) {
	t := token(args[0])
	x, err := strconv.ParseFloat(t.Lexeme(), 64)
	if err != nil {
		return nil, scorex.ErrorAt(scorex.UnrecognizedCharacter, pos(t), "malformed number %q", t.Lexeme())
	}
	return &ast.Number{Value: x, Pos: pos(t)}, nil
}

func booleanAction(b bool) lr.SemanticAction {
	return func(args []interface{}) (interface{}, error) {
		return &ast.Boolean{Value: b, Pos: pos(token(args[0]))}, nil
	}
}

func variableAction(args []interface{}) (interface{}, error) {
	t := token(args[0])
	return &ast.Variable{Name: t.Lexeme(), Pos: pos(t)}, nil
}

// callAction builds a function call. Function names are case-insensitive and
// normalized to upper case.
func callAction(args []interface{}) (interface{}, error) {
	t := token(args[0])
	name := cases.Upper(language.Und).String(t.Lexeme())
	list := args[2].(*ast.Arguments)
	return &ast.FunctionCall{Name: name, Args: list.List, Pos: pos(t)}, nil
}

func ifAction(args []interface{}) (interface{}, error) {
	return &ast.If{
		Condition: node(args[2]),
		Then:      node(args[4]),
		Else:      node(args[6]),
		Pos:       pos(token(args[0])),
	}, nil
}

// groupAction drops the parentheses. Positions of inner nodes are kept.
func groupAction(args []interface{}) (interface{}, error) {
	return args[1], nil
}

func emptyArgsAction([]interface{}) (interface{}, error) {
	return &ast.Arguments{Pos: -1}, nil
}

func firstArgAction(args []interface{}) (interface{}, error) {
	first := node(args[0])
	return &ast.Arguments{List: []ast.Node{first}, Pos: first.Position()}, nil
}

func appendArgAction(args []interface{}) (interface{}, error) {
	list := args[0].(*ast.Arguments)
	return &ast.Arguments{List: append(list.List, node(args[2])), Pos: list.Pos}, nil
}
