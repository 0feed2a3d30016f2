package lr

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/container/intsets"
)

// --- LR items --------------------------------------------------------------

// Item is the core of an LR item, i.e. a rule with a dot position:
//
//     A ➞ α • β
//
// Lookaheads are stored with the item set an item belongs to.
type Item struct {
	rule *Rule
	dot  int
}

// StartItem returns the item  S' ➞ • S  for the augmented start rule of g.
func StartItem(g *Grammar) Item {
	return Item{rule: g.rules[0], dot: 0}
}

// Rule returns the rule of an item.
func (i Item) Rule() *Rule {
	return i.rule
}

// Dot returns the dot position of an item.
func (i Item) Dot() int {
	return i.dot
}

// PeekSymbol returns the symbol after the dot, or nil if the item is complete.
func (i Item) PeekSymbol() *Symbol {
	if i.dot >= len(i.rule.rhs) {
		return nil
	}
	return i.rule.rhs[i.dot]
}

// Advance moves the dot one symbol to the right.
func (i Item) Advance() Item {
	if i.dot < len(i.rule.rhs) {
		return Item{rule: i.rule, dot: i.dot + 1}
	}
	return i
}

// Prefix returns the RHS symbols before the dot.
func (i Item) Prefix() []*Symbol {
	return i.rule.rhs[:i.dot]
}

// Suffix returns the RHS symbols after the symbol following the dot, i.e. β in
//
//     A ➞ α • B β
//
func (i Item) Suffix() []*Symbol {
	if i.dot >= len(i.rule.rhs) {
		return nil
	}
	return i.rule.rhs[i.dot+1:]
}

func (i Item) String() string {
	var b bytes.Buffer
	b.WriteString("[")
	b.WriteString(i.rule.LHS.Name)
	b.WriteString(" ➞")
	for k, A := range i.rule.rhs {
		if k == i.dot {
			b.WriteString(" •")
		}
		b.WriteString(" ")
		b.WriteString(A.Name)
	}
	if i.dot >= len(i.rule.rhs) {
		b.WriteString(" •")
	}
	b.WriteString("]")
	return b.String()
}

func itemLess(a, b Item) bool {
	if a.rule.Serial != b.rule.Serial {
		return a.rule.Serial < b.rule.Serial
	}
	return a.dot < b.dot
}

// --- Item sets -------------------------------------------------------------

// itemSet is a set of LR(1) items. Each item core maps to its lookahead set.
type itemSet struct {
	items map[Item]*intsets.Sparse
}

func newItemSet() *itemSet {
	return &itemSet{items: make(map[Item]*intsets.Sparse)}
}

func (S *itemSet) size() int {
	return len(S.items)
}

// add adds lookaheads la for item i. Returns true if the set has grown.
func (S *itemSet) add(i Item, la *intsets.Sparse) bool {
	if old, ok := S.items[i]; ok {
		return old.UnionWith(la)
	}
	s := &intsets.Sparse{}
	s.Copy(la)
	S.items[i] = s
	return true
}

func (S *itemSet) lookaheads(i Item) *intsets.Sparse {
	return S.items[i]
}

// sorted returns the item cores in a stable order.
func (S *itemSet) sorted() []Item {
	r := make([]Item, 0, len(S.items))
	for i := range S.items {
		r = append(r, i)
	}
	sort.Slice(r, func(a, b int) bool { return itemLess(r[a], r[b]) })
	return r
}

// merge adds all items and lookaheads of other. Returns true if S has grown.
func (S *itemSet) merge(other *itemSet) bool {
	changed := false
	for i, la := range other.items {
		if S.add(i, la) {
			changed = true
		}
	}
	return changed
}

// coreKey identifies the set of item cores, i.e. ignores lookaheads.
func (S *itemSet) coreKey() string {
	var b strings.Builder
	for _, i := range S.sorted() {
		b.WriteString(strconv.Itoa(i.rule.Serial))
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(i.dot))
		b.WriteByte(';')
	}
	return b.String()
}

func (S *itemSet) String() string {
	var b bytes.Buffer
	b.WriteString("{")
	for k, i := range S.sorted() {
		if k > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf(" %s/%v", i, S.items[i].String()))
	}
	b.WriteString(" }")
	return b.String()
}

// Dump is a debugging helper
func (S *itemSet) Dump() {
	for _, i := range S.sorted() {
		tracer().Debugf("    %s  %v", i, S.items[i].String())
	}
}

// === Closure and Goto-Set Operations =======================================

// closure computes the LR(1) closure of an item set:
// for every item  [A ➞ α • B β, a]  and every rule  B ➞ γ, add
// [B ➞ • γ, b]  for every b in FIRST(β a).
func (ga *LRAnalysis) closure(S *itemSet) *itemSet {
	C := newItemSet()
	C.merge(S)
	work := C.sorted()
	for len(work) > 0 {
		item := work[len(work)-1]
		work = work[:len(work)-1]
		B := item.PeekSymbol()
		if B == nil || B.IsTerminal() {
			continue
		}
		fb := ga.firstOfSequence(item.Suffix())
		la := &intsets.Sparse{}
		la.Copy(fb)
		la.Remove(Epsilon)
		if fb.Has(Epsilon) {
			la.UnionWith(C.lookaheads(item))
		}
		for _, r := range ga.g.FindNonTermRules(B) {
			i := Item{rule: r, dot: 0}
			if C.add(i, la) {
				work = append(work, i)
			}
		}
	}
	return C
}

// gotoSet computes the kernel of goto(S, A), i.e. advances the dot over A for
// all items  [N ➞ … • A …, a]  in S.
func (ga *LRAnalysis) gotoSet(S *itemSet, A *Symbol) *itemSet {
	gotoset := newItemSet()
	for i, la := range S.items {
		if i.PeekSymbol() == A {
			gotoset.add(i.Advance(), la)
		}
	}
	return gotoset
}

func (ga *LRAnalysis) gotoSetClosure(S *itemSet, A *Symbol) *itemSet {
	gotoset := ga.gotoSet(S, A)
	if gotoset.size() == 0 {
		return gotoset
	}
	return ga.closure(gotoset)
}
