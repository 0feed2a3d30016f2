package lr

import (
	"bytes"
	"fmt"
	"text/scanner"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/scorex"
)

// --- Symbols ---------------------------------------------------------------

// Special token values. EOF is identical to text/scanner.EOF.
const (
	EOF           = scanner.EOF // end of input
	Epsilon       = 0           // empty word, never produced by a scanner
	NonTermOffset = 1000        // values of non-terminals start here
)

// Symbol is a terminal or non-terminal of a grammar. Terminals carry the token
// value a scanner reports for them, non-terminals carry a value of
// NonTermOffset or above.
type Symbol struct {
	Name  string
	Value int
}

// IsTerminal is true for terminals, including EOF.
func (A *Symbol) IsTerminal() bool {
	return A.Value < NonTermOffset
}

// TokenType returns the symbol value as a token type.
func (A *Symbol) TokenType() scorex.TokType {
	return scorex.TokType(A.Value)
}

func (A *Symbol) String() string {
	return A.Name
}

func symbolComparator(a, b interface{}) int {
	return utils.IntComparator(a.(*Symbol).Value, b.(*Symbol).Value)
}

// --- Rules -----------------------------------------------------------------

// SemanticAction is called by a parser whenever it reduces a rule. It receives
// one value per RHS symbol: tokens (scorex.Token) for terminals and the
// results of earlier actions for non-terminals. The result of the action
// becomes the value of the LHS symbol.
type SemanticAction func(args []interface{}) (interface{}, error)

// Rule is a grammar production.
type Rule struct {
	Serial  int            // ordinal no. of this rule, dense from 0
	LHS     *Symbol        // left hand side, always a non-terminal
	rhs     []*Symbol      // right hand side, empty for epsilon rules
	Action  SemanticAction // may be nil
	epsilon bool           // explicitly marked as epsilon production
}

// RHS returns the right hand side of a rule. Clients must not modify it.
func (r *Rule) RHS() []*Symbol {
	return r.rhs
}

// IsEps is true for epsilon productions.
func (r *Rule) IsEps() bool {
	return len(r.rhs) == 0
}

// Reduce applies the semantic action of the rule to the values of the RHS.
// Rules without an action pass through the value of the first RHS symbol.
func (r *Rule) Reduce(args []interface{}) (interface{}, error) {
	if r.Action != nil {
		return r.Action(args)
	}
	if len(args) > 0 {
		return args[0], nil
	}
	return nil, nil
}

func (r *Rule) String() string {
	var b bytes.Buffer
	b.WriteString(fmt.Sprintf("%d: %s ➞", r.Serial, r.LHS.Name))
	if r.IsEps() {
		b.WriteString(" ε")
	}
	for _, A := range r.rhs {
		b.WriteString(" ")
		b.WriteString(A.Name)
	}
	return b.String()
}

// --- Grammar ---------------------------------------------------------------

// Grammar is a context-free grammar, consisting of a set of rules, terminals
// and non-terminals. Rule 0 is always the augmented start rule
//
//     S' ➞ S
//
// where S is the left hand side of the first rule added by the client.
// A grammar is read-only once it has been built.
type Grammar struct {
	Name         string
	rules        []*Rule
	terminals    *treeset.Set // ordered by token value
	nonterminals *treeset.Set // ordered by value
	byName       map[string]*Symbol
	byValue      map[int]*Symbol
	EOF          *Symbol
	Epsilon      *Symbol
}

func newGrammar(name string) *Grammar {
	g := &Grammar{
		Name:         name,
		terminals:    treeset.NewWith(symbolComparator),
		nonterminals: treeset.NewWith(symbolComparator),
		byName:       make(map[string]*Symbol),
		byValue:      make(map[int]*Symbol),
		EOF:          &Symbol{Name: "#eof", Value: EOF},
		Epsilon:      &Symbol{Name: "#eps", Value: Epsilon},
	}
	g.terminals.Add(g.EOF)
	g.byName[g.EOF.Name] = g.EOF
	g.byValue[EOF] = g.EOF
	return g
}

// Rule returns rule no. i, or nil.
func (g *Grammar) Rule(i int) *Rule {
	if i < 0 || i >= len(g.rules) {
		return nil
	}
	return g.rules[i]
}

// Size returns the number of rules, including the augmented start rule.
func (g *Grammar) Size() int {
	return len(g.rules)
}

// Start returns the start symbol of the grammar (not the augmented one).
func (g *Grammar) Start() *Symbol {
	return g.rules[0].rhs[0]
}

// SymbolByName finds a terminal or non-terminal by its name.
func (g *Grammar) SymbolByName(name string) *Symbol {
	return g.byName[name]
}

// SymbolByValue finds a terminal or non-terminal by its value.
func (g *Grammar) SymbolByValue(v int) *Symbol {
	return g.byValue[v]
}

// EachTerminal calls f for every terminal (including EOF), in order of token values.
func (g *Grammar) EachTerminal(f func(A *Symbol)) {
	it := g.terminals.Iterator()
	for it.Next() {
		f(it.Value().(*Symbol))
	}
}

// EachNonTerminal calls f for every non-terminal, in order of creation.
func (g *Grammar) EachNonTerminal(f func(A *Symbol)) {
	it := g.nonterminals.Iterator()
	for it.Next() {
		f(it.Value().(*Symbol))
	}
}

// EachSymbol calls f for every terminal, then for every non-terminal.
func (g *Grammar) EachSymbol(f func(A *Symbol)) {
	g.EachTerminal(f)
	g.EachNonTerminal(f)
}

// FindNonTermRules returns all rules with LHS A.
func (g *Grammar) FindNonTermRules(A *Symbol) []*Rule {
	var R []*Rule
	for _, r := range g.rules {
		if r.LHS == A {
			R = append(R, r)
		}
	}
	return R
}

// Dump is a debugging helper, tracing all rules with level Debug.
func (g *Grammar) Dump() {
	tracer().Debugf("--- %s --------------------------------------------", g.Name)
	for _, r := range g.rules {
		tracer().Debugf("%s", r)
	}
	tracer().Debugf("-------------------------------------------------------")
}

// --- Grammar builder -------------------------------------------------------

// GrammarBuilder is a builder type for grammars. Clients add rules
// one after another:
//
//     b := lr.NewGrammarBuilder("G")
//     b.LHS("S").N("A").T("a", 1).End()  // S  ➞  A a
//     b.LHS("A").N("B").N("D").End()     // A  ➞  B D
//     b.LHS("B").T("b", 2).End()         // B  ➞  b
//     b.LHS("B").Epsilon()               // B  ➞
//     g, err := b.Grammar()
//
// Errors are collected and reported by Grammar().
type GrammarBuilder struct {
	g      *Grammar
	ntvals int
	errs   []string
}

// NewGrammarBuilder creates a builder for a grammar named gname.
func NewGrammarBuilder(gname string) *GrammarBuilder {
	gb := &GrammarBuilder{g: newGrammar(gname)}
	start := gb.nonterminal("S'")
	gb.g.rules = append(gb.g.rules, &Rule{Serial: 0, LHS: start})
	return gb
}

// RuleBuilder is a helper type returned by GrammarBuilder.LHS.
type RuleBuilder struct {
	gb   *GrammarBuilder
	rule *Rule
}

// LHS starts a new rule with left hand side s.
func (gb *GrammarBuilder) LHS(s string) *RuleBuilder {
	A := gb.nonterminal(s)
	r := &Rule{LHS: A}
	return &RuleBuilder{gb: gb, rule: r}
}

// N appends a non-terminal to the RHS of the rule.
func (rb *RuleBuilder) N(s string) *RuleBuilder {
	rb.rule.rhs = append(rb.rule.rhs, rb.gb.nonterminal(s))
	return rb
}

// T appends a terminal with token value tokval to the RHS of the rule.
func (rb *RuleBuilder) T(s string, tokval int) *RuleBuilder {
	rb.rule.rhs = append(rb.rule.rhs, rb.gb.terminal(s, tokval))
	return rb
}

// Action sets the semantic action of the rule.
func (rb *RuleBuilder) Action(a SemanticAction) *RuleBuilder {
	rb.rule.Action = a
	return rb
}

// End completes the rule.
func (rb *RuleBuilder) End() *Rule {
	return rb.gb.appendRule(rb.rule)
}

// Epsilon completes the rule as an epsilon production. It is an error to
// call Epsilon after symbols have been appended to the RHS.
func (rb *RuleBuilder) Epsilon() *Rule {
	rb.rule.epsilon = true
	return rb.gb.appendRule(rb.rule)
}

func (gb *GrammarBuilder) appendRule(r *Rule) *Rule {
	g := gb.g
	r.Serial = len(g.rules)
	if len(g.rules) == 1 { // first client rule defines the start symbol
		g.rules[0].rhs = []*Symbol{r.LHS}
	}
	g.rules = append(g.rules, r)
	tracer().Debugf("appending rule %s", r)
	return r
}

func (gb *GrammarBuilder) nonterminal(s string) *Symbol {
	if A, ok := gb.g.byName[s]; ok {
		if A.IsTerminal() {
			gb.errorf("symbol %q used as terminal and non-terminal", s)
		}
		return A
	}
	A := &Symbol{Name: s, Value: NonTermOffset + gb.ntvals}
	gb.ntvals++
	gb.g.byName[s] = A
	gb.g.byValue[A.Value] = A
	gb.g.nonterminals.Add(A)
	return A
}

func (gb *GrammarBuilder) terminal(s string, tokval int) *Symbol {
	if A, ok := gb.g.byName[s]; ok {
		if !A.IsTerminal() {
			gb.errorf("symbol %q used as terminal and non-terminal", s)
		} else if A.Value != tokval {
			gb.errorf("terminal %q used with token values %d and %d", s, A.Value, tokval)
		}
		return A
	}
	if tokval == Epsilon || tokval == EOF || tokval >= NonTermOffset {
		gb.errorf("terminal %q has reserved token value %d", s, tokval)
	}
	if other, ok := gb.g.byValue[tokval]; ok {
		gb.errorf("terminals %q and %q share token value %d", other.Name, s, tokval)
	}
	A := &Symbol{Name: s, Value: tokval}
	gb.g.byName[s] = A
	gb.g.byValue[tokval] = A
	gb.g.terminals.Add(A)
	return A
}

func (gb *GrammarBuilder) errorf(format string, args ...interface{}) {
	gb.errs = append(gb.errs, fmt.Sprintf(format, args...))
}

// Grammar validates the rules and returns the grammar. Validation checks that
//
// - rule serials are unique and dense from 0,
//
// - left hand sides are non-terminals,
//
// - empty right hand sides occur for epsilon productions only, and vice versa,
//
// - every non-terminal has at least one rule,
//
// - terminal names and values are used consistently.
//
// Errors are of kind scorex.GrammarDefinition.
func (gb *GrammarBuilder) Grammar() (*Grammar, error) {
	g := gb.g
	errs := append([]string(nil), gb.errs...)
	if len(g.rules) < 2 {
		errs = append(errs, "grammar has no rules")
	}
	defined := make(map[*Symbol]bool)
	for i, r := range g.rules {
		if r.Serial != i {
			errs = append(errs, fmt.Sprintf("rule %s has serial %d, expected %d", r, r.Serial, i))
		}
		if r.LHS == nil || r.LHS.IsTerminal() {
			errs = append(errs, fmt.Sprintf("rule %d has no non-terminal LHS", i))
			continue
		}
		if len(r.rhs) == 0 && !r.epsilon && i > 0 {
			errs = append(errs, fmt.Sprintf("rule %s has empty RHS but is not marked epsilon", r))
		}
		if len(r.rhs) > 0 && r.epsilon {
			errs = append(errs, fmt.Sprintf("rule %s is marked epsilon but has a RHS", r))
		}
		defined[r.LHS] = true
	}
	g.EachNonTerminal(func(A *Symbol) {
		if !defined[A] {
			errs = append(errs, fmt.Sprintf("non-terminal %q has no rules", A.Name))
		}
	})
	if len(errs) > 0 {
		var b bytes.Buffer
		for i, e := range errs {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(e)
		}
		return nil, scorex.NewError(scorex.GrammarDefinition, "grammar %q: %s", g.Name, b.String())
	}
	return g, nil
}
