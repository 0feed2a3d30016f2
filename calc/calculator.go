package calc

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/config"
	"github.com/npillmayer/scorex/eval"
	"github.com/npillmayer/scorex/runtime"
	"github.com/npillmayer/scorex/scorelang"
	"github.com/npillmayer/scorex/termr"
)

// Calculator calculates formulas. It is safe for concurrent use.
type Calculator struct {
	cfg       config.Config
	engine    *scorelang.ScoreEngine
	evaluator *eval.Evaluator
	optimizer *termr.Optimizer
	deny      *regexp.Regexp
	results   *resultCache
	programs  *programCache
	sessions  sync.Map // string → *session
	counters  counters
	now       func() time.Time
	compute   func(context.Context, ast.Node, *runtime.Environment) (runtime.Value, error)
}

// New creates a calculator for a configuration; nil means config.Defaults().
// New fails if the configuration is invalid or if the formula engine cannot
// be initialized.
func New(cfg *config.Config) (*Calculator, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	engine, err := scorelang.Engine()
	if err != nil {
		return nil, err
	}
	c := &Calculator{
		cfg:       *cfg,
		engine:    engine,
		evaluator: eval.New(),
		optimizer: termr.New(),
		deny:      denyPattern(cfg.Limits.DenyList),
		results:   newResultCache(cfg.Cache.TTL, cfg.Cache.MaxEntries, cfg.Cache.SweepEvery),
		programs:  newProgramCache(cfg.Cache.CompiledCapacity),
		now:       time.Now,
	}
	c.compute = c.evaluator.EvaluateContext
	tracer().Infof("calculator ready: %d workers, result cache %v, timeout %s",
		cfg.Execution.Workers, cfg.Cache.Enabled, cfg.Execution.Timeout)
	return c, nil
}

// Config returns the configuration of the calculator.
func (c *Calculator) Config() config.Config {
	return c.cfg
}

// ClearCaches empties the result cache and the cache of compiled formulas.
func (c *Calculator) ClearCaches() {
	c.results.clear()
	c.programs.clear()
}

// CalculateFormula calculates a formula for a set of variables.
// opts may be nil.
func (c *Calculator) CalculateFormula(ctx context.Context, formula string,
	variables map[string]interface{}, opts *Options) Result {
	//
	return c.Calculate(ctx, Request{Formula: formula, Variables: variables, Options: opts})
}

// Calculate runs a request through the calculation pipeline. It never panics;
// failures are reported by the result.
func (c *Calculator) Calculate(ctx context.Context, req Request) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	start := c.now()
	p := &pipeline{c: c, req: req, opts: req.options(), meta: map[string]interface{}{}}
	r := p.run(ctx)
	end := c.now()
	r.ExecutionTime = end.Sub(start)
	if req.SessionID != "" {
		r.Metadata[MetaSession] = req.SessionID
		c.session(req.SessionID).record(r, end)
	}
	c.counters.record(r)
	return r
}

// --- Pipeline --------------------------------------------------------------

// pipeline holds the state of a single calculation.
type pipeline struct {
	c        *Calculator
	req      Request
	opts     Options
	env      *runtime.Environment
	key      string // result cache key, empty if caching is off
	tokens   []scorex.Token
	tree     ast.Node
	prog     *program
	value    runtime.Value
	cached   *Result
	attempts int
	meta     map[string]interface{}
}

type stage struct {
	name string
	run  func(context.Context) (bool, error) // true if the pipeline is done
}

func (p *pipeline) run(ctx context.Context) Result {
	stages := []stage{
		{StageValidate, p.validate},
		{StagePolicy, p.policy},
		{StageCacheLookup, p.lookup},
		{StageLex, p.lex},
		{StageParse, p.parse},
		{StageOptimize, p.optimize},
		{StageEvaluate, p.evaluate},
		{StageCacheStore, p.store},
	}
	for _, st := range stages {
		done, err := p.exec(ctx, st)
		if err != nil {
			tracer().Debugf("stage %s failed for %q: %v", st.name, p.req.Formula, err)
			r := failure(err, st.name)
			for k, v := range p.meta {
				r.Metadata[k] = v
			}
			return r
		}
		if done {
			return *p.cached
		}
	}
	return p.success()
}

// exec runs a stage, converting panics to internal errors.
func (p *pipeline) exec(ctx context.Context, st stage) (done bool, err error) {
	defer func() {
		if x := recover(); x != nil {
			tracer().Errorf("panic in stage %s: %v", st.name, x)
			done, err = false, scorex.NewError(scorex.Internal, "stage %s: %v", st.name, x)
		}
	}()
	return st.run(ctx)
}

func (p *pipeline) success() Result {
	meta := make(map[string]interface{}, len(p.meta)+1)
	for k, v := range p.meta {
		meta[k] = v
	}
	meta[MetaCached] = false
	return Result{Success: true, Value: p.value, Metadata: meta}
}

func (p *pipeline) validate(context.Context) (bool, error) {
	if err := p.c.validate(p.req.Formula); err != nil {
		return false, err
	}
	env, err := runtime.EnvironmentFrom(p.req.Variables)
	if err != nil {
		return false, scorex.WrapError(scorex.InvalidRequest, err, "invalid variables")
	}
	p.env = env
	return false, nil
}

func (p *pipeline) policy(context.Context) (bool, error) {
	return false, p.c.policyCheck(p.req)
}

func (p *pipeline) lookup(context.Context) (bool, error) {
	if !p.opts.EnableCaching || !p.c.cfg.Cache.Enabled {
		return false, nil
	}
	key, err := resultKey(p.req.Formula, p.env)
	if err != nil {
		tracer().Errorf("cannot hash cache key: %v", err)
		return false, nil
	}
	p.key = key
	if r, ok := p.c.results.get(key); ok {
		p.c.counters.cacheHits.Add(1)
		r.Metadata[MetaCached] = true
		p.cached = &r
		return true, nil
	}
	p.c.counters.cacheMisses.Add(1)
	return false, nil
}

func (p *pipeline) lex(context.Context) (bool, error) {
	if prog, ok := p.c.programs.get(p.req.Formula); ok {
		p.prog = prog
		p.meta[MetaCompiled] = true
		return false, nil
	}
	tokens, err := p.c.engine.Tokenize(p.req.Formula)
	p.tokens = tokens
	return false, err
}

func (p *pipeline) parse(context.Context) (bool, error) {
	if p.prog != nil {
		return false, nil
	}
	tree, err := p.c.parse(p.tokens)
	p.tree = tree
	return false, err
}

func (p *pipeline) optimize(context.Context) (bool, error) {
	if p.prog != nil {
		return false, nil
	}
	p.prog = p.c.link(p.req.Formula, p.tree, p.tokens)
	p.meta[MetaCompiled] = false
	return false, nil
}

// evaluate evaluates the compiled formula. Timeouts and internal faults are
// retried with linear backoff, other errors are final.
func (p *pipeline) evaluate(ctx context.Context) (bool, error) {
	ex := p.c.cfg.Execution
	timeout := p.opts.Timeout
	if timeout <= 0 {
		timeout = ex.Timeout
	}
	var err error
	for attempt := 0; attempt <= ex.MaxRetries; attempt++ {
		if attempt > 0 {
			if !retryable(err) || ctx.Err() != nil {
				break
			}
			p.c.counters.retries.Add(1)
			tracer().Infof("retrying %q after attempt %d: %v", p.req.Formula, attempt, err)
			if !sleep(ctx, time.Duration(attempt)*ex.Backoff) {
				break
			}
		}
		p.attempts = attempt + 1
		p.value, err = p.c.race(ctx, p.prog.tree, p.env, timeout)
		if err == nil {
			break
		}
	}
	p.meta[MetaAttempts] = p.attempts
	if scorex.IsKind(err, scorex.Timeout) {
		p.meta[MetaTimeout] = true
	}
	return false, err
}

func (p *pipeline) store(context.Context) (bool, error) {
	if p.key != "" && p.prog.deterministic {
		p.c.results.put(p.key, p.success())
	}
	return false, nil
}

func retryable(err error) bool {
	k := scorex.KindOf(err)
	return k == scorex.Timeout || k == scorex.Internal
}

// sleep waits for d or until ctx is done. It returns false if ctx is done.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// race evaluates a tree against a deadline. On expiry the evaluation is
// abandoned; its goroutine stops at its next check for cancellation.
func (c *Calculator) race(ctx context.Context, tree ast.Node, env *runtime.Environment,
	timeout time.Duration) (runtime.Value, error) {
	//
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	type outcome struct {
		v   runtime.Value
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if x := recover(); x != nil {
				tracer().Errorf("evaluation panicked: %v", x)
				done <- outcome{err: scorex.NewError(scorex.Internal, "evaluation panicked: %v", x)}
			}
		}()
		v, err := c.compute(ctx, tree, env)
		done <- outcome{v, err}
	}()
	select {
	case o := <-done:
		return o.v, o.err
	case <-ctx.Done():
		return runtime.Value{}, scorex.WrapError(scorex.Timeout, ctx.Err(),
			"evaluation did not finish within %s", timeout)
	}
}

// --- Compilation -----------------------------------------------------------

func (c *Calculator) parse(tokens []scorex.Token) (ast.Node, error) {
	c.counters.parses.Add(1)
	return c.engine.ParseTokens(tokens)
}

// link optimizes a syntax tree into a program and puts it into the formula cache.
func (c *Calculator) link(formula string, tree ast.Node, tokens []scorex.Token) *program {
	prog := &program{
		tree:          c.optimizer.Optimize(tree),
		tokens:        len(tokens) - 1,
		variables:     ast.Variables(tree),
		functions:     ast.Functions(tree),
		deterministic: true,
	}
	for _, name := range prog.functions {
		if f, ok := c.evaluator.Functions().Lookup(name); !ok || !f.Pure {
			prog.deterministic = false
		}
	}
	c.programs.put(formula, prog)
	return prog
}

// compile returns the program for a formula, from the formula cache if possible.
func (c *Calculator) compile(formula string) (*program, error) {
	if prog, ok := c.programs.get(formula); ok {
		return prog, nil
	}
	tokens, err := c.engine.Tokenize(formula)
	if err != nil {
		return nil, err
	}
	tree, err := c.parse(tokens)
	if err != nil {
		return nil, err
	}
	return c.link(formula, tree, tokens), nil
}

// --- Static checks ---------------------------------------------------------

// ValidateExpression checks a formula without evaluating it: the formula must
// pass validation, parse, and call known functions with a valid number of
// arguments. If variables is non-nil, every variable of the formula must be bound.
func (c *Calculator) ValidateExpression(formula string, variables map[string]interface{}) bool {
	if err := c.validate(formula); err != nil {
		return false
	}
	prog, err := c.compile(formula)
	if err != nil {
		tracer().Debugf("invalid formula %q: %v", formula, err)
		return false
	}
	if variables != nil {
		env, err := runtime.EnvironmentFrom(variables)
		if err != nil {
			return false
		}
		for _, name := range prog.variables {
			if _, ok := env.Lookup(name); !ok {
				return false
			}
		}
	}
	valid := true
	ast.Walk(prog.tree, func(n ast.Node, _ int) bool {
		if call, ok := n.(*ast.FunctionCall); ok {
			f, found := c.evaluator.Functions().Lookup(call.Name)
			if !found || f.CheckArity(len(call.Args)) != nil {
				valid = false
			}
		}
		return valid
	})
	return valid
}

// AnalyzeExpression analyzes a formula statically. It fails if the formula
// cannot be parsed.
func (c *Calculator) AnalyzeExpression(formula string) (Analysis, error) {
	prog, err := c.compile(formula)
	if err != nil {
		return Analysis{}, err
	}
	score := measure(formula).score(c.cfg.Limits)
	return Analysis{
		TokenCount:      prog.tokens,
		VariableNames:   append([]string(nil), prog.variables...),
		FunctionNames:   append([]string(nil), prog.functions...),
		ComplexityScore: score,
		RiskScore:       c.risk(formula, score),
	}, nil
}
