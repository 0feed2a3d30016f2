package calc

import (
	"container/list"
	"sync"

	"github.com/npillmayer/scorex/ast"
)

// --- Compiled formulas -----------------------------------------------------

// program is a parsed and optimized formula.
type program struct {
	tree          ast.Node
	tokens        int // number of tokens, excluding EOF
	variables     []string
	functions     []string
	deterministic bool // true if every function called is pure
}

type lruItem struct {
	formula string
	prog    *program
}

// programCache is an LRU cache of compiled formulas, keyed by formula text.
// A capacity of 0 disables caching.
type programCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

func newProgramCache(capacity int) *programCache {
	return &programCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

func (c *programCache) get(formula string) (*program, bool) {
	if c.capacity == 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[formula]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*lruItem).prog, true
}

func (c *programCache) put(formula string, prog *program) {
	if c.capacity == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[formula]; ok {
		el.Value.(*lruItem).prog = prog
		c.ll.MoveToFront(el)
		return
	}
	if c.ll.Len() >= c.capacity {
		if last := c.ll.Back(); last != nil {
			c.ll.Remove(last)
			delete(c.items, last.Value.(*lruItem).formula)
		}
	}
	c.items[formula] = c.ll.PushFront(&lruItem{formula: formula, prog: prog})
}

func (c *programCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *programCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}
