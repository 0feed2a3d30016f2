package calc

import (
	"sync/atomic"
	"time"

	"github.com/npillmayer/scorex"
)

// Metrics is a snapshot of a calculator's counters.
type Metrics struct {
	Requests      int64
	Successes     int64
	Failures      int64
	CacheHits     int64
	CacheMisses   int64
	Timeouts      int64
	Retries       int64
	Parses        int64 // formulas parsed, i.e. not taken from the formula cache
	PolicyDenials int64
	TotalTime     time.Duration
	CacheSize     int
	CompiledSize  int
}

// SessionMetrics is a snapshot of the counters of a session.
type SessionMetrics struct {
	Requests    int64
	Successes   int64
	Failures    int64
	CacheHits   int64
	RateLimited int64
	TotalTime   time.Duration
	LastRequest time.Time
}

// counters are updated concurrently.
type counters struct {
	requests      atomic.Int64
	successes     atomic.Int64
	failures      atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	timeouts      atomic.Int64
	retries       atomic.Int64
	parses        atomic.Int64
	policyDenials atomic.Int64
	totalTime     atomic.Int64 // nanoseconds
}

func (m *counters) record(r Result) {
	m.requests.Add(1)
	if r.Success {
		m.successes.Add(1)
	} else {
		m.failures.Add(1)
		if r.Kind.Class() == scorex.ClassPolicy {
			m.policyDenials.Add(1)
		}
	}
	if r.TimedOut() {
		m.timeouts.Add(1)
	}
	m.totalTime.Add(int64(r.ExecutionTime))
}

// Metrics returns a snapshot of the calculator's counters.
func (c *Calculator) Metrics() Metrics {
	return Metrics{
		Requests:      c.counters.requests.Load(),
		Successes:     c.counters.successes.Load(),
		Failures:      c.counters.failures.Load(),
		CacheHits:     c.counters.cacheHits.Load(),
		CacheMisses:   c.counters.cacheMisses.Load(),
		Timeouts:      c.counters.timeouts.Load(),
		Retries:       c.counters.retries.Load(),
		Parses:        c.counters.parses.Load(),
		PolicyDenials: c.counters.policyDenials.Load(),
		TotalTime:     time.Duration(c.counters.totalTime.Load()),
		CacheSize:     c.results.len(),
		CompiledSize:  c.programs.len(),
	}
}

// SessionMetrics returns a snapshot of the counters of a session. It returns
// false if no request of the session has been seen.
func (c *Calculator) SessionMetrics(id string) (SessionMetrics, bool) {
	s, ok := c.sessions.Load(id)
	if !ok {
		return SessionMetrics{}, false
	}
	return s.(*session).snapshot(), true
}
