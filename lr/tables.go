package lr

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/lr/sparse"
	"golang.org/x/tools/container/intsets"
)

// Actions for parser action tables. Reduce actions are encoded as the serial
// of the rule to reduce, which is always > 0.
const (
	ShiftAction  = -1
	AcceptAction = -2
)

// === CFSM Construction =====================================================

// CFSMState is a state within the CFSM for a grammar.
type CFSMState struct {
	ID     uint     // serial ID of this state
	items  *itemSet // LR(1) items within this state
	Accept bool     // is this an accepting state?
}

// CFSM edge between 2 states, directed and labeled with a symbol
type cfsmEdge struct {
	from  *CFSMState
	to    *CFSMState
	label *Symbol
}

type edgeKey struct {
	from  uint
	label int
}

// Items returns the item cores of a state in a stable order.
func (s *CFSMState) Items() []Item {
	return s.items.sorted()
}

// Lookaheads returns the lookahead token values for an item of the state.
func (s *CFSMState) Lookaheads(i Item) []int {
	la := s.items.lookaheads(i)
	if la == nil {
		return nil
	}
	return la.AppendTo(nil)
}

// Dump is a debugging helper
func (s *CFSMState) Dump() {
	tracer().Debugf("--- state %03d -----------", s.ID)
	s.items.Dump()
	tracer().Debugf("-------------------------")
}

func (s *CFSMState) String() string {
	return fmt.Sprintf("(state %d | [%d])", s.ID, s.items.size())
}

func (s *CFSMState) containsCompletedStartRule() bool {
	for i, la := range s.items.items {
		if i.rule.Serial == 0 && i.PeekSymbol() == nil && la.Has(EOF) {
			return true
		}
	}
	return false
}

// We need this for the set of states. It sorts states by serial ID.
func stateComparator(s1, s2 interface{}) int {
	c1 := s1.(*CFSMState)
	c2 := s2.(*CFSMState)
	return utils.IntComparator(int(c1.ID), int(c2.ID))
}

// CFSM is the characteristic finite state machine for a LR grammar, i.e. the
// LR(1) state diagram with states of identical cores merged. Will be
// constructed by a TableGenerator.
type CFSM struct {
	g       *Grammar
	states  *treeset.Set    // all the states
	edges   *arraylist.List // all the edges between states
	byCore  map[string]*CFSMState
	byEdge  map[edgeKey]*cfsmEdge
	S0      *CFSMState // start state
	cfsmIds uint       // serial IDs for CFSM states
}

// create an empty (initial) CFSM automaton.
func emptyCFSM(g *Grammar) *CFSM {
	c := &CFSM{g: g}
	c.states = treeset.NewWith(stateComparator)
	c.edges = arraylist.New()
	c.byCore = make(map[string]*CFSMState)
	c.byEdge = make(map[edgeKey]*cfsmEdge)
	return c
}

// Grammar returns the grammar this CFSM has been built for.
func (c *CFSM) Grammar() *Grammar {
	return c.g
}

// StateCount returns the number of states.
func (c *CFSM) StateCount() int {
	return c.states.Size()
}

// States returns all states, ordered by ID.
func (c *CFSM) States() []*CFSMState {
	r := make([]*CFSMState, 0, c.states.Size())
	it := c.states.Iterator()
	for it.Next() {
		r = append(r, it.Value().(*CFSMState))
	}
	return r
}

// addState adds a state for an item set. If a state with the same core is
// already present, the lookaheads are merged into it. Returns the state and
// a flag telling whether the state is new or has grown.
func (c *CFSM) addState(iset *itemSet) (*CFSMState, bool) {
	key := iset.coreKey()
	if s, ok := c.byCore[key]; ok {
		return s, s.items.merge(iset)
	}
	s := &CFSMState{ID: c.cfsmIds, items: iset}
	c.cfsmIds++
	c.byCore[key] = s
	c.states.Add(s)
	return s, true
}

func (c *CFSM) addEdge(s0, s1 *CFSMState, sym *Symbol) *cfsmEdge {
	key := edgeKey{from: s0.ID, label: sym.Value}
	if e, ok := c.byEdge[key]; ok {
		return e
	}
	e := &cfsmEdge{from: s0, to: s1, label: sym}
	c.byEdge[key] = e
	c.edges.Add(e)
	return e
}

// Transition returns the target state for state s and symbol A, or nil.
func (c *CFSM) Transition(s *CFSMState, A *Symbol) *CFSMState {
	if e, ok := c.byEdge[edgeKey{from: s.ID, label: A.Value}]; ok {
		return e.to
	}
	return nil
}

// ToGraphViz exports a CFSM to the Graphviz Dot format.
func (c *CFSM) ToGraphViz(w io.Writer) error {
	var b bytes.Buffer
	b.WriteString(`digraph {
graph [splines=true, fontname=Helvetica, fontsize=10];
node [shape=Mrecord, style=filled, fontname=Helvetica, fontsize=10];
edge [fontname=Helvetica, fontsize=10];

`)
	for _, s := range c.States() {
		color := "white"
		if s.Accept {
			color = "lightgray"
		}
		b.WriteString(fmt.Sprintf("s%03d [fillcolor=%s label=\"{%03d | %s}\"]\n",
			s.ID, color, s.ID, forGraphviz(s.items)))
	}
	it := c.edges.Iterator()
	for it.Next() {
		e := it.Value().(*cfsmEdge)
		b.WriteString(fmt.Sprintf("s%03d -> s%03d [label=\"%s\"]\n", e.from.ID, e.to.ID, e.label))
	}
	b.WriteString("}\n")
	_, err := w.Write(b.Bytes())
	return err
}

func forGraphviz(S *itemSet) string {
	var b bytes.Buffer
	for k, i := range S.sorted() {
		if k > 0 {
			b.WriteString("\\l")
		}
		s := i.String()
		for _, r := range s {
			switch r {
			case '{', '}', '|', '<', '>', '"':
				b.WriteRune('\\')
			}
			b.WriteRune(r)
		}
	}
	b.WriteString("\\l")
	return b.String()
}

// TableGenerator is a generator object to construct LR parser tables.
// Clients usually create a Grammar G, then a LRAnalysis-object for G,
// and then a table generator. TableGenerator.CreateTables() constructs
// the CFSM and parser tables for an LR-parser recognizing grammar G.
type TableGenerator struct {
	g            *Grammar
	ga           *LRAnalysis
	dfa          *CFSM
	gototable    *Table
	actiontable  *Table
	conflicts    []Conflict
	HasConflicts bool
}

// NewTableGenerator creates a new TableGenerator for a (previously analysed) grammar.
func NewTableGenerator(ga *LRAnalysis) *TableGenerator {
	lrgen := &TableGenerator{}
	lrgen.g = ga.Grammar()
	lrgen.ga = ga
	return lrgen
}

// CFSM returns the characteristic finite state machine (CFSM) for a grammar.
// The CFSM will be created, if it has not been constructed previously.
func (lrgen *TableGenerator) CFSM() *CFSM {
	if lrgen.dfa == nil {
		lrgen.dfa = lrgen.buildCFSM()
	}
	return lrgen.dfa
}

// GotoTable returns the GOTO table for LR-parsing a grammar. The tables have to be
// built by calling CreateTables() previously.
func (lrgen *TableGenerator) GotoTable() *Table {
	if lrgen.gototable == nil {
		tracer().Errorf("tables not yet initialized")
	}
	return lrgen.gototable
}

// ActionTable returns the ACTION table for LR-parsing a grammar. The tables have to be
// built by calling CreateTables() previously.
func (lrgen *TableGenerator) ActionTable() *Table {
	if lrgen.actiontable == nil {
		tracer().Errorf("tables not yet initialized")
	}
	return lrgen.actiontable
}

// Conflicts returns all conflicts found by CreateTables().
func (lrgen *TableGenerator) Conflicts() []Conflict {
	return lrgen.conflicts
}

// CreateTables creates the CFSM and the GOTO and ACTION tables for an LR(1)
// parser. If the grammar is not LR(1) (after merging states with identical
// cores), CreateTables returns a *ConflictError listing every conflicting
// table entry. Conflicts are never resolved silently.
func (lrgen *TableGenerator) CreateTables() error {
	lrgen.dfa = lrgen.buildCFSM()
	lrgen.gototable = lrgen.BuildGotoTable()
	lrgen.actiontable, lrgen.conflicts = lrgen.BuildActionTable()
	lrgen.HasConflicts = len(lrgen.conflicts) > 0
	if lrgen.HasConflicts {
		err := &ConflictError{Grammar: lrgen.g.Name, Conflicts: lrgen.conflicts}
		tracer().Errorf("%v", err)
		return err
	}
	tracer().Infof("LR(1) tables for %q: %d states, %d GOTO entries, %d ACTION entries",
		lrgen.g.Name, lrgen.dfa.StateCount(), lrgen.gototable.matrix.ValueCount(),
		lrgen.actiontable.matrix.ValueCount())
	return nil
}

// AcceptingStates returns all states of the CFSM which represent an accept action.
// Clients have to call CreateTables() first.
func (lrgen *TableGenerator) AcceptingStates() []uint {
	if lrgen.dfa == nil {
		tracer().Errorf("tables not yet generated; call CreateTables() first")
		return nil
	}
	acc := make([]uint, 0, 1)
	for _, s := range lrgen.dfa.States() {
		if s.Accept {
			acc = append(acc, s.ID)
		}
	}
	return acc
}

// Construct the characteristic finite state machine CFSM for a grammar.
// States are processed from a FIFO queue. Whenever the lookaheads of a
// state grow because of a merge, the state is queued again, so that the
// new lookaheads propagate to its successors.
func (lrgen *TableGenerator) buildCFSM() *CFSM {
	tracer().Debugf("=== build CFSM ==================================================")
	G := lrgen.g
	cfsm := emptyCFSM(G)
	kernel := newItemSet()
	eof := &intsets.Sparse{}
	eof.Insert(EOF)
	kernel.add(StartItem(G), eof)
	closure0 := lrgen.ga.closure(kernel)
	cfsm.S0, _ = cfsm.addState(closure0)
	cfsm.S0.Dump()
	queue := arraylist.New()
	queue.Add(cfsm.S0)
	queued := map[uint]bool{cfsm.S0.ID: true}
	for queue.Size() > 0 {
		x, _ := queue.Get(0)
		queue.Remove(0)
		s := x.(*CFSMState)
		queued[s.ID] = false
		G.EachSymbol(func(A *Symbol) {
			if A == G.EOF {
				return
			}
			gotoset := lrgen.ga.gotoSetClosure(s.items, A)
			if gotoset.size() == 0 {
				return
			}
			tracer().Debugf("goto(%d, %s) = %s", s.ID, A, gotoset)
			snew, grown := cfsm.addState(gotoset)
			if grown && !queued[snew.ID] {
				queue.Add(snew)
				queued[snew.ID] = true
			}
			cfsm.addEdge(s, snew, A)
		})
	}
	for _, s := range cfsm.States() {
		s.Accept = s.containsCompletedStartRule()
	}
	tracer().Debugf("CFSM has %d states", cfsm.StateCount())
	return cfsm
}

// ===========================================================================

// symbolRange returns the lowest and highest symbol value of the grammar.
func (lrgen *TableGenerator) symbolRange() (scorex.TokType, scorex.TokType) {
	var maxtok, mintok scorex.TokType
	lrgen.g.EachSymbol(func(A *Symbol) {
		if A.TokenType() > maxtok {
			maxtok = A.TokenType()
		}
		if A.TokenType() < mintok {
			mintok = A.TokenType()
		}
	})
	return mintok, maxtok
}

func (lrgen *TableGenerator) newTable() *Table {
	statescnt := lrgen.dfa.StateCount()
	mintok, maxtok := lrgen.symbolRange()
	extent := int(maxtok - mintok + 1)
	matrix := sparse.NewIntMatrix(statescnt, extent, sparse.DefaultNullValue)
	return &Table{matrix: matrix, mincol: mintok}
}

// BuildGotoTable builds the GOTO table. This is normally not called directly, but rather
// via CreateTables(). GOTO holds the target state for every transition, for
// terminals (shift) as well as non-terminals.
func (lrgen *TableGenerator) BuildGotoTable() *Table {
	gototable := lrgen.newTable()
	tracer().Debugf("GOTO table of size %d x %d", gototable.matrix.M(), gototable.matrix.N())
	it := lrgen.dfa.edges.Iterator()
	for it.Next() {
		e := it.Value().(*cfsmEdge)
		gototable.set(e.from.ID, e.label.TokenType(), int32(e.to.ID))
	}
	return gototable
}

// BuildActionTable constructs the LR(1) ACTION table. This method is normally not called
// by clients, but rather via CreateTables().
//
// For every state and every item of the state:
//
// - an item  [A ➞ α • a β, …]  with terminal a produces a shift entry for a,
//
// - an item  [A ➞ α •, L]  produces a reduce entry for every lookahead in L,
//
// - the item  [S' ➞ S •, #eof]  produces the accept entry.
//
// Colliding entries are collected as conflicts.
func (lrgen *TableGenerator) BuildActionTable() (*Table, []Conflict) {
	actions := lrgen.newTable()
	tracer().Debugf("ACTION table of size %d x %d", actions.matrix.M(), actions.matrix.N())
	var conflicts []Conflict
	enter := func(state *CFSMState, A *Symbol, action int32) {
		a1 := actions.Value(state.ID, A.TokenType())
		if a1 == actions.NullValue() {
			actions.set(state.ID, A.TokenType(), action)
			return
		}
		if a1 == action {
			return // double shift or identical reduce
		}
		tracer().Debugf("conflict in state %d for %s: %s vs. %s", state.ID, A,
			valstring(a1, actions), valstring(action, actions))
		actions.add(state.ID, A.TokenType(), action)
		conflicts = append(conflicts, Conflict{
			State:   state.ID,
			Symbol:  A,
			Actions: [2]int32{a1, action},
		})
	}
	for _, state := range lrgen.dfa.States() {
		for _, i := range state.items.sorted() {
			A := i.PeekSymbol()
			if A != nil {
				if A.IsTerminal() {
					enter(state, A, ShiftAction)
				}
				continue
			}
			la := state.items.lookaheads(i)
			if i.rule.Serial == 0 {
				if la.Has(EOF) {
					enter(state, lrgen.g.EOF, AcceptAction)
				}
				continue
			}
			for _, t := range la.AppendTo(nil) {
				enter(state, lrgen.g.SymbolByValue(t), int32(i.rule.Serial))
			}
		}
	}
	return actions, conflicts
}

// ExpectedTokens returns the token values which have a valid action in a
// state. Clients have to call CreateTables() first.
func (lrgen *TableGenerator) ExpectedTokens(stateID uint) []int {
	return lrgen.actiontable.Expected(stateID)
}

// --- Conflicts -------------------------------------------------------------

// Conflict describes a table entry with more than one action.
type Conflict struct {
	State   uint
	Symbol  *Symbol
	Actions [2]int32
}

func (c Conflict) String() string {
	kind := "reduce/reduce"
	if c.Actions[0] == ShiftAction || c.Actions[1] == ShiftAction {
		kind = "shift/reduce"
	}
	return fmt.Sprintf("%s conflict in state %d on %s: %s vs. %s", kind, c.State, c.Symbol,
		actionString(c.Actions[0]), actionString(c.Actions[1]))
}

// ConflictError is returned by CreateTables if a grammar is not LR(1).
type ConflictError struct {
	Grammar   string
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	var b bytes.Buffer
	b.WriteString(fmt.Sprintf("grammar %q has %d conflict(s)", e.Grammar, len(e.Conflicts)))
	for _, c := range e.Conflicts {
		b.WriteString("; ")
		b.WriteString(c.String())
	}
	return b.String()
}

// Unwrap returns a scorex.Error of kind TableConflict.
func (e *ConflictError) Unwrap() error {
	return scorex.NewError(scorex.TableConflict, "grammar %q is not LR(1)", e.Grammar)
}

// --- Tables ----------------------------------------------------------------

// Table is a parser table, indexed by state ID and token type.
// Tables are read-only after construction and safe for concurrent use.
type Table struct {
	matrix *sparse.IntMatrix
	mincol scorex.TokType // lowest value for index j => offset for access
}

func (t *Table) column(tt scorex.TokType) (int, bool) {
	j := int(tt - t.mincol)
	return j, j >= 0 && j < t.matrix.N()
}

func (t *Table) add(i uint, tt scorex.TokType, val int32) {
	j, ok := t.column(tt)
	if !ok {
		panic(fmt.Sprintf("lr.Table.add() with index out of range: %d", j))
	}
	t.matrix.Add(int(i), j, val)
}

func (t *Table) set(i uint, tt scorex.TokType, val int32) {
	j, ok := t.column(tt)
	if !ok {
		panic(fmt.Sprintf("lr.Table.set() with index out of range: %d", j))
	}
	t.matrix.Set(int(i), j, val)
}

// NullValue is the value of empty entries.
func (t *Table) NullValue() int32 {
	return t.matrix.NullValue()
}

// Value returns the (primary) entry for state i and token type tt. Token types
// unknown to the grammar yield the null value.
func (t *Table) Value(i uint, tt scorex.TokType) int32 {
	j, ok := t.column(tt)
	if !ok {
		return t.matrix.NullValue()
	}
	return t.matrix.Value(int(i), j)
}

// Values returns both entries for state i and token type tt.
func (t *Table) Values(i uint, tt scorex.TokType) (int32, int32) {
	j, ok := t.column(tt)
	if !ok {
		return t.matrix.NullValue(), t.matrix.NullValue()
	}
	return t.matrix.Values(int(i), j)
}

// Expected returns the token types with an entry in row i, in ascending order.
func (t *Table) Expected(i uint) []int {
	var r []int
	t.matrix.EachInRow(int(i), func(j int, a, b int32) {
		if a != t.matrix.NullValue() {
			r = append(r, j+int(t.mincol))
		}
	})
	sort.Ints(r)
	return r
}

// ----------------------------------------------------------------------

// valstring is a short helper to stringify an action table entry.
func valstring(v int32, m *Table) string {
	if v == m.NullValue() {
		return "<none>"
	}
	return actionString(v)
}

func actionString(v int32) string {
	if v == AcceptAction {
		return "<accept>"
	} else if v == ShiftAction {
		return "<shift>"
	}
	return fmt.Sprintf("<reduce %d>", v)
}
