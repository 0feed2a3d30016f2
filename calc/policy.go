package calc

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/config"
)

// --- Validation ------------------------------------------------------------

// denyPattern compiles a deny list into a case-insensitive pattern matching
// whole identifiers. An empty list yields nil.
func denyPattern(words []string) *regexp.Regexp {
	if len(words) == 0 {
		return nil
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(strings.TrimSpace(w))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// validate checks the formula text itself.
func (c *Calculator) validate(formula string) error {
	if strings.TrimSpace(formula) == "" {
		return scorex.NewError(scorex.InvalidRequest, "empty formula")
	}
	if limit := c.cfg.Limits.MaxFormulaLength; len(formula) > limit {
		return scorex.NewError(scorex.ExpressionTooLong,
			"formula has %d characters, maximum is %d", len(formula), limit)
	}
	if c.deny != nil {
		if loc := c.deny.FindStringIndex(formula); loc != nil {
			return scorex.ErrorAt(scorex.UnsafeExpression, loc[0],
				"formula must not reference %q", formula[loc[0]:loc[1]])
		}
	}
	return nil
}

// --- Complexity ------------------------------------------------------------

// complexity is a cheap static measure of a formula, computed from its text.
type complexity struct {
	length    int
	operators int
	maxDepth  int // maximum nesting of parentheses
	calls     int // function calls, including IF
}

var twoCharOperators = map[string]bool{"==": true, "!=": true, "<=": true, ">=": true, "&&": true, "||": true}

func measure(formula string) complexity {
	m := complexity{length: len(formula)}
	depth := 0
	for i := 0; i < len(formula); i++ {
		ch := formula[i]
		switch {
		case i+1 < len(formula) && twoCharOperators[formula[i:i+2]]:
			m.operators++
			i++
		case strings.IndexByte("+-*/%^<>!", ch) >= 0:
			m.operators++
		case ch == '(':
			depth++
			if depth > m.maxDepth {
				m.maxDepth = depth
			}
		case ch == ')':
			if depth > 0 {
				depth--
			}
		case isIdentStart(ch) && (i == 0 || !isIdentChar(formula[i-1])):
			j := i + 1
			for j < len(formula) && isIdentChar(formula[j]) {
				j++
			}
			k := j
			for k < len(formula) && (formula[k] == ' ' || formula[k] == '\t') {
				k++
			}
			if k < len(formula) && formula[k] == '(' {
				m.calls++
			}
			i = j - 1
		}
	}
	return m
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9') || ch == '.'
}

// score is length + operators + maxDepth*DepthWeight + calls*FunctionWeight.
func (m complexity) score(lim config.LimitsConfig) int {
	return m.length + m.operators + m.maxDepth*lim.DepthWeight + m.calls*lim.FunctionWeight
}

// estimate predicts execution time and memory usage from a complexity score.
func estimate(score int, lim config.LimitsConfig) (time.Duration, int64) {
	return time.Duration(score) * lim.TimePerPoint, int64(score) * lim.MemoryPerPoint
}

// risk relates the predicted resource usage to the limits. Unsafe formulas
// have a risk of 1.
func (c *Calculator) risk(formula string, score int) float64 {
	if c.deny != nil && c.deny.MatchString(formula) {
		return 1
	}
	lim := c.cfg.Limits
	t, mem := estimate(score, lim)
	r := 0.0
	if lim.MaxTime > 0 {
		r = float64(t) / float64(lim.MaxTime)
	}
	if lim.MaxMemory > 0 {
		if rm := float64(mem) / float64(lim.MaxMemory); rm > r {
			r = rm
		}
	}
	if r > 1 {
		r = 1
	}
	return r
}

// --- Policy ----------------------------------------------------------------

// policyCheck enforces rate limit, variable count and resource limits.
func (c *Calculator) policyCheck(req Request) error {
	if req.SessionID != "" && c.cfg.RateLimit.Requests > 0 {
		s := c.session(req.SessionID)
		if !s.allow(c.now(), c.cfg.RateLimit.Requests, c.cfg.RateLimit.Window) {
			return scorex.NewError(scorex.RateLimited, "session %q exceeds %d requests per %s",
				req.SessionID, c.cfg.RateLimit.Requests, c.cfg.RateLimit.Window)
		}
	}
	lim := c.cfg.Limits
	if lim.MaxVariables > 0 && len(req.Variables) > lim.MaxVariables {
		return scorex.NewError(scorex.TooManyVariables, "%d variables, maximum is %d",
			len(req.Variables), lim.MaxVariables)
	}
	score := measure(req.Formula).score(lim)
	t, mem := estimate(score, lim)
	if lim.MaxTime > 0 && t > lim.MaxTime {
		return scorex.NewError(scorex.ResourceExceeded,
			"predicted execution time %s exceeds %s (complexity %d)", t, lim.MaxTime, score)
	}
	if lim.MaxMemory > 0 && mem > lim.MaxMemory {
		return scorex.NewError(scorex.ResourceExceeded,
			"predicted memory %d bytes exceeds %d bytes (complexity %d)", mem, lim.MaxMemory, score)
	}
	return nil
}

// --- Sessions --------------------------------------------------------------

// session holds the rate limit window and the metrics of a session.
// Sessions are independent of each other.
type session struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
	metrics     SessionMetrics
}

// allow counts a request against a fixed window rate limit.
func (s *session) allow(now time.Time, limit int, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.windowStart.IsZero() || now.Sub(s.windowStart) >= window {
		s.windowStart = now
		s.count = 0
	}
	if s.count >= limit {
		return false
	}
	s.count++
	return true
}

func (s *session) record(r Result, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.Requests++
	if r.Success {
		s.metrics.Successes++
	} else {
		s.metrics.Failures++
		if r.Kind == scorex.RateLimited {
			s.metrics.RateLimited++
		}
	}
	if r.Cached() {
		s.metrics.CacheHits++
	}
	s.metrics.TotalTime += r.ExecutionTime
	s.metrics.LastRequest = now
}

func (s *session) snapshot() SessionMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

func (c *Calculator) session(id string) *session {
	if s, ok := c.sessions.Load(id); ok {
		return s.(*session)
	}
	s, _ := c.sessions.LoadOrStore(id, &session{})
	return s.(*session)
}
