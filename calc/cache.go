package calc

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cnf/structhash"

	"github.com/npillmayer/scorex/runtime"
)

// --- Result cache ----------------------------------------------------------

// cacheKey is hashed to key cached results. Bindings are sorted by name.
type cacheKey struct {
	Formula  string
	Bindings []binding
}

type binding struct {
	Name  string
	Kind  string
	Value string
}

// resultKey computes a stable key for a formula and its variable bindings.
func resultKey(formula string, env *runtime.Environment) (string, error) {
	key := cacheKey{Formula: formula}
	for name, v := range env.Bindings() {
		key.Bindings = append(key.Bindings, binding{
			Name:  name,
			Kind:  v.Kind().String(),
			Value: v.String(),
		})
	}
	sort.Slice(key.Bindings, func(i, j int) bool {
		return key.Bindings[i].Name < key.Bindings[j].Name
	})
	return structhash.Hash(key, 1)
}

// entry is a cached result. Entries are never changed after insertion.
type entry struct {
	result  Result
	stored  time.Time
	expires time.Time
}

// resultCache is a concurrent map of cached results. Expired entries are
// dropped on lookup. Eviction by age and size runs in the background after
// every n-th store, at most one sweep at a time.
type resultCache struct {
	entries    sync.Map // string → *entry
	size       atomic.Int64
	stores     atomic.Int64
	sweeping   atomic.Bool
	ttl        time.Duration
	maxEntries int
	sweepEvery int
	now        func() time.Time
}

func newResultCache(ttl time.Duration, maxEntries, sweepEvery int) *resultCache {
	if sweepEvery < 1 {
		sweepEvery = 1
	}
	return &resultCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		sweepEvery: sweepEvery,
		now:        time.Now,
	}
}

func (c *resultCache) get(key string) (Result, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return Result{}, false
	}
	e := v.(*entry)
	if !c.now().Before(e.expires) {
		if c.entries.CompareAndDelete(key, e) {
			c.size.Add(-1)
		}
		return Result{}, false
	}
	return e.result.clone(), true
}

func (c *resultCache) put(key string, r Result) {
	now := c.now()
	e := &entry{result: r.clone(), stored: now, expires: now.Add(c.ttl)}
	if _, loaded := c.entries.Swap(key, e); !loaded {
		c.size.Add(1)
	}
	if c.stores.Add(1)%int64(c.sweepEvery) == 0 {
		if c.sweeping.CompareAndSwap(false, true) {
			go func() {
				defer c.sweeping.Store(false)
				c.sweep()
			}()
		}
	}
}

// len returns the number of entries, including expired ones not yet swept.
func (c *resultCache) len() int {
	return int(c.size.Load())
}

// sweep removes expired entries and, if the cache is still too large, the
// oldest entries.
func (c *resultCache) sweep() {
	now := c.now()
	type aged struct {
		key string
		e   *entry
	}
	var live []aged
	expired := 0
	c.entries.Range(func(k, v interface{}) bool {
		e := v.(*entry)
		if !now.Before(e.expires) {
			if c.entries.CompareAndDelete(k, e) {
				c.size.Add(-1)
				expired++
			}
			return true
		}
		live = append(live, aged{k.(string), e})
		return true
	})
	evicted := 0
	if excess := len(live) - c.maxEntries; excess > 0 {
		sort.Slice(live, func(i, j int) bool {
			return live[i].e.stored.Before(live[j].e.stored)
		})
		for _, a := range live[:excess] {
			if c.entries.CompareAndDelete(a.key, a.e) {
				c.size.Add(-1)
				evicted++
			}
		}
	}
	tracer().Debugf("cache sweep: %d expired, %d evicted", expired, evicted)
}

func (c *resultCache) clear() {
	c.entries.Range(func(k, v interface{}) bool {
		if c.entries.CompareAndDelete(k, v) {
			c.size.Add(-1)
		}
		return true
	})
}
