package calc

import (
	"time"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/runtime"
)

// Request is a request to calculate a formula.
type Request struct {
	Formula   string
	Variables map[string]interface{} // numbers, booleans or strings
	SessionID string                 // optional; sessions are rate limited
	Options   *Options               // nil for DefaultOptions
}

// Options for a single request.
type Options struct {
	Priority      int           // higher priorities are dispatched first in parallel mode
	EnableCaching bool          // use the result cache
	Timeout       time.Duration // 0 for the configured default
}

// DefaultOptions returns the options for requests without options.
func DefaultOptions() Options {
	return Options{EnableCaching: true}
}

func (req Request) options() Options {
	if req.Options == nil {
		return DefaultOptions()
	}
	return *req.Options
}

// Result is the outcome of a calculation. Results are never changed after
// they have been returned.
type Result struct {
	Success       bool
	Value         runtime.Value // undefined for failed calculations
	Errors        []string      // human readable error messages
	Kind          scorex.ErrorKind
	ExecutionTime time.Duration
	Metadata      map[string]interface{}
}

// Metadata keys.
const (
	MetaStage    = "stage"    // failing stage
	MetaCached   = "cached"   // served from the result cache
	MetaCompiled = "compiled" // compiled formula taken from the formula cache
	MetaTimeout  = "timeout"  // failed because of a timeout
	MetaAttempts = "attempts" // number of evaluation attempts
	MetaSession  = "session"
	MetaKind     = "error_kind"
	MetaClass    = "error_class"
)

// Stages of the calculation pipeline.
const (
	StageValidate    = "validate"
	StagePolicy      = "policy"
	StageCacheLookup = "cache-lookup"
	StageLex         = "lex"
	StageParse       = "parse"
	StageOptimize    = "optimize"
	StageEvaluate    = "evaluate"
	StageCacheStore  = "cache-store"
)

// Cached reports whether a result has been served from the result cache.
func (r Result) Cached() bool {
	c, _ := r.Metadata[MetaCached].(bool)
	return c
}

// TimedOut reports whether a calculation failed because of a timeout.
func (r Result) TimedOut() bool {
	t, _ := r.Metadata[MetaTimeout].(bool)
	return t
}

// Stage returns the failing stage of an unsuccessful result.
func (r Result) Stage() string {
	s, _ := r.Metadata[MetaStage].(string)
	return s
}

// clone copies a result, such that cached results stay unchanged.
func (r Result) clone() Result {
	c := r
	c.Errors = append([]string(nil), r.Errors...)
	c.Metadata = make(map[string]interface{}, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		c.Metadata[k] = v
	}
	return c
}

func failure(err error, stage string) Result {
	kind := scorex.KindOf(err)
	return Result{
		Errors: []string{err.Error()},
		Kind:   kind,
		Metadata: map[string]interface{}{
			MetaStage: stage,
			MetaKind:  kind.String(),
			MetaClass: string(kind.Class()),
		},
	}
}

// Analysis is the static analysis of a formula.
type Analysis struct {
	TokenCount      int
	VariableNames   []string
	FunctionNames   []string
	ComplexityScore int
	RiskScore       float64 // between 0 and 1
}
