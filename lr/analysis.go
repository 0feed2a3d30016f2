package lr

import (
	"strconv"
	"strings"
	"sync"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/npillmayer/scorex"
	"golang.org/x/tools/container/intsets"
)

// MaxIterations bounds the fixed-point iterations for FIRST and FOLLOW sets.
// A grammar needing more rounds is considered defective.
const MaxIterations = 1000

// FirstCacheSize is the number of FIRST-sets of symbol sequences kept in memory
// during table construction.
const FirstCacheSize = 512

// LRAnalysis is an object for static grammar analysis. It computes FIRST and
// FOLLOW sets for all symbols of a grammar, and determines which non-terminals
// derive ε. Terminal sets are sets of token values, with Epsilon (0) denoting ε
// and EOF denoting the end of input.
//
// Sets returned by an LRAnalysis are copies and may be modified by clients.
type LRAnalysis struct {
	g            *Grammar
	first        map[int]*intsets.Sparse
	follow       map[int]*intsets.Sparse
	maxRounds    int
	firstRounds  int
	followRounds int
	seqcache     *firstCache
}

// Analysis creates an analysis for a grammar, computing FIRST and FOLLOW sets.
// It will return an error if the fixed point iteration does not converge
// within MaxIterations rounds.
func Analysis(g *Grammar) (*LRAnalysis, error) {
	return AnalysisWithLimit(g, MaxIterations)
}

// AnalysisWithLimit is like Analysis, but with a custom limit for fixed-point rounds.
func AnalysisWithLimit(g *Grammar, maxRounds int) (*LRAnalysis, error) {
	ga := &LRAnalysis{
		g:         g,
		first:     make(map[int]*intsets.Sparse),
		follow:    make(map[int]*intsets.Sparse),
		maxRounds: maxRounds,
		seqcache:  newFirstCache(FirstCacheSize),
	}
	if err := ga.computeFirst(); err != nil {
		return nil, err
	}
	if err := ga.computeFollow(); err != nil {
		return nil, err
	}
	tracer().Infof("analysis of grammar %q: FIRST in %d rounds, FOLLOW in %d rounds",
		g.Name, ga.firstRounds, ga.followRounds)
	return ga, nil
}

// Grammar returns the grammar this analysis is for.
func (ga *LRAnalysis) Grammar() *Grammar {
	return ga.g
}

// Rounds returns the number of fixed-point rounds used for FIRST and FOLLOW.
func (ga *LRAnalysis) Rounds() (first, follow int) {
	return ga.firstRounds, ga.followRounds
}

// First returns FIRST(A). For a terminal this is {A}.
func (ga *LRAnalysis) First(A *Symbol) *intsets.Sparse {
	f := &intsets.Sparse{}
	f.Copy(ga.firstOf(A))
	return f
}

// Follow returns FOLLOW(A) for a non-terminal A, or an empty set for terminals.
func (ga *LRAnalysis) Follow(A *Symbol) *intsets.Sparse {
	f := &intsets.Sparse{}
	if s, ok := ga.follow[A.Value]; ok {
		f.Copy(s)
	}
	return f
}

// DerivesEpsilon is true if A ➞* ε.
func (ga *LRAnalysis) DerivesEpsilon(A *Symbol) bool {
	return ga.firstOf(A).Has(Epsilon)
}

// FirstOfSequence returns FIRST(X1 X2 … Xn). The result contains Epsilon if
// every Xi derives ε (in particular for the empty sequence).
func (ga *LRAnalysis) FirstOfSequence(seq []*Symbol) *intsets.Sparse {
	f := &intsets.Sparse{}
	f.Copy(ga.firstOfSequence(seq))
	return f
}

// --- FIRST and FOLLOW ------------------------------------------------------

func (ga *LRAnalysis) firstOf(A *Symbol) *intsets.Sparse {
	if s, ok := ga.first[A.Value]; ok {
		return s
	}
	s := &intsets.Sparse{}
	if A.IsTerminal() {
		s.Insert(A.Value)
	}
	ga.first[A.Value] = s
	return s
}

// set of symbols of a sequence, computed from the current FIRST sets
func (ga *LRAnalysis) firstOfSymbols(seq []*Symbol) *intsets.Sparse {
	result := &intsets.Sparse{}
	for _, X := range seq {
		f := ga.firstOf(X)
		result.UnionWith(f)
		if !f.Has(Epsilon) {
			result.Remove(Epsilon)
			return result
		}
	}
	result.Insert(Epsilon)
	return result
}

func (ga *LRAnalysis) computeFirst() error {
	g := ga.g
	g.EachSymbol(func(A *Symbol) { ga.firstOf(A) })
	for changed := true; changed; {
		if ga.firstRounds >= ga.maxRounds {
			return ga.noConvergence("FIRST")
		}
		ga.firstRounds++
		changed = false
		for _, r := range g.rules {
			if ga.firstOf(r.LHS).UnionWith(ga.firstOfSymbols(r.rhs)) {
				changed = true
			}
		}
	}
	return nil
}

// For every production  A ➞ α B β:
//
//     FOLLOW(B) ⊇ FIRST(β) \ {ε}
//     FOLLOW(B) ⊇ FOLLOW(A), if β ➞* ε
//
func (ga *LRAnalysis) computeFollow() error {
	g := ga.g
	g.EachNonTerminal(func(A *Symbol) { ga.follow[A.Value] = &intsets.Sparse{} })
	ga.follow[g.rules[0].LHS.Value].Insert(EOF)
	ga.follow[g.Start().Value].Insert(EOF)
	for changed := true; changed; {
		if ga.followRounds >= ga.maxRounds {
			return ga.noConvergence("FOLLOW")
		}
		ga.followRounds++
		changed = false
		for _, r := range g.rules {
			for i, B := range r.rhs {
				if B.IsTerminal() {
					continue
				}
				fb := ga.firstOfSequence(r.rhs[i+1:])
				fB := ga.follow[B.Value]
				n := fB.Len()
				fB.UnionWith(fb)
				fB.Remove(Epsilon)
				if fb.Has(Epsilon) {
					fB.UnionWith(ga.follow[r.LHS.Value])
				}
				if fB.Len() != n {
					changed = true
				}
			}
		}
	}
	return nil
}

func (ga *LRAnalysis) noConvergence(which string) error {
	tracer().Errorf("%s sets for grammar %q did not converge within %d rounds",
		which, ga.g.Name, ga.maxRounds)
	return scorex.NewError(scorex.GrammarDefinition,
		"%s sets for grammar %q did not converge within %d rounds", which, ga.g.Name, ga.maxRounds)
}

// firstOfSequence is memoized. It must only be called after FIRST sets are
// complete. Returned sets are shared and must not be modified.
func (ga *LRAnalysis) firstOfSequence(seq []*Symbol) *intsets.Sparse {
	key := sequenceKey(seq)
	if s, ok := ga.seqcache.get(key); ok {
		return s
	}
	s := ga.firstOfSymbols(seq)
	ga.seqcache.put(key, s)
	return s
}

func sequenceKey(seq []*Symbol) string {
	var b strings.Builder
	for i, A := range seq {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(A.Value))
	}
	return b.String()
}

// --- Cache for FIRST of sequences ------------------------------------------

// firstCache is a bounded cache. When full, the oldest entry is evicted.
type firstCache struct {
	sync.Mutex
	sets     map[string]*intsets.Sparse
	order    *arraylist.List // keys in order of insertion
	capacity int
	hits     int
	misses   int
}

func newFirstCache(capacity int) *firstCache {
	return &firstCache{
		sets:     make(map[string]*intsets.Sparse, capacity),
		order:    arraylist.New(),
		capacity: capacity,
	}
}

func (c *firstCache) get(key string) (*intsets.Sparse, bool) {
	c.Lock()
	defer c.Unlock()
	s, ok := c.sets[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return s, ok
}

func (c *firstCache) put(key string, s *intsets.Sparse) {
	c.Lock()
	defer c.Unlock()
	if _, ok := c.sets[key]; ok {
		return
	}
	for c.order.Size() >= c.capacity {
		oldest, _ := c.order.Get(0)
		c.order.Remove(0)
		delete(c.sets, oldest.(string))
	}
	c.sets[key] = s
	c.order.Add(key)
}

// FirstCacheStats reports the number of memoized FIRST-sets of sequences,
// together with cache hits and misses so far.
func (ga *LRAnalysis) FirstCacheStats() (size, hits, misses int) {
	c := ga.seqcache
	c.Lock()
	defer c.Unlock()
	return len(c.sets), c.hits, c.misses
}
