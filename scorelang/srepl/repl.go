package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/calc"
	"github.com/npillmayer/scorex/config"
	"github.com/npillmayer/scorex/runtime"
	"github.com/npillmayer/scorex/scorelang"
	"github.com/npillmayer/scorex/termr"
)

// main() starts an interactive CLI ("S.REPL"), where users may enter score
// formulas. S.REPL calculates each formula with the current set of variables
// and prints the result. Lines starting with a colon are commands, see :help.
//
func main() {
	// set up logging
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	cfgpath := flag.String("config", "", "Configuration file")
	initf := flag.String("init", "", "Initial load")
	session := flag.String("session", "srepl", "Session ID for rate limiting")
	watch := flag.Bool("watch", false, "Reload the configuration file on changes")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelInfo) // will set the correct level later
	pterm.Info.Println("Welcome to S.REPL")   // colored welcome message
	tracer().Infof("Trace level is %s", *tlevel)
	//
	// set up engine and calculator
	cfg, err := config.Load(*cfgpath, os.Getenv)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
	engine, err := scorelang.Engine()
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
	calculator, err := calc.New(cfg)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
	tracer().SetTraceLevel(traceLevel(*tlevel)) // now set the user supplied level
	engine.Grammar.Dump()                       // only visible in debug mode
	//
	// set up REPL
	repl, err := readline.New("srepl> ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{
		engine:  engine,
		calc:    calculator,
		repl:    repl,
		session: *session,
		vars:    make(map[string]interface{}),
	}
	if *watch {
		intp.watchConfig(cfg)
	}
	input := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if input != "" {
		if _, err := intp.Eval(input); err != nil {
			os.Exit(2)
		}
	}
	//
	// load an init file and start receiving commands / formulas
	tracer().Infof("Quit with <ctrl>D or :quit") // inform user how to stop the CLI
	intp.loadInitFile(*initf)                    // init file name provided by flag
	intp.REPL()                                  // go into interactive mode
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	engine  *scorelang.ScoreEngine
	mu      sync.Mutex // guards calc, which is replaced on configuration changes
	calc    *calc.Calculator
	repl    *readline.Instance
	session string
	vars    map[string]interface{}
}

func (intp *Intp) calculator() *calc.Calculator {
	intp.mu.Lock()
	defer intp.mu.Unlock()
	return intp.calc
}

// watchConfig replaces the calculator whenever the configuration file changes.
// Caches and metrics start afresh with a new calculator.
func (intp *Intp) watchConfig(cfg *config.Config) {
	if cfg.Path == "" {
		tracer().Errorf("No configuration file to watch")
		return
	}
	err := config.Watch(context.Background(), cfg.Path, os.Getenv, func(cfg *config.Config) {
		c, err := calc.New(cfg)
		if err != nil {
			pterm.Error.Println(err.Error())
			return
		}
		intp.mu.Lock()
		intp.calc = c
		intp.mu.Unlock()
		pterm.Info.Println("Configuration reloaded")
	}, func(err error) {
		pterm.Error.Println(err.Error())
	})
	if err != nil {
		tracer().Errorf("%v", err)
	}
}

func (intp *Intp) loadInitFile(filename string) {
	if filename == "" {
		return
	}
	f, err := os.Open(filename)
	if err != nil {
		tracer().Errorf("Unable to open init file: %s", filename)
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := intp.Eval(line); err != nil {
			tracer().Errorf("Error line %d: %v", lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		tracer().Errorf("Error while reading init file: %v", err)
	}
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		quit, err := intp.Eval(line)
		if err != nil {
			continue
		}
		if quit {
			break
		}
	}
	println("Good bye!")
}

type command struct {
	help string
	run  func(intp *Intp, arg string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":    {"list commands", (*Intp).help},
		"tree":    {"display the syntax tree of a formula", (*Intp).tree},
		"opt":     {"display the optimized syntax tree of a formula", (*Intp).optimized},
		"tokens":  {"list the tokens of a formula", (*Intp).tokens},
		"analyze": {"analyze a formula statically", (*Intp).analyze},
		"check":   {"validate a formula against the current variables", (*Intp).check},
		"vars":    {"list variables", (*Intp).listVars},
		"unset":   {"remove a variable", (*Intp).unset},
		"grammar": {"list the rules of the formula grammar", (*Intp).grammar},
		"dot":     {"write the parser's state machine as GraphViz to a file", (*Intp).dot},
		"metrics": {"display calculator metrics", (*Intp).metrics},
	}
}

var letPattern = regexp.MustCompile(`^let\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+)$`)

// Eval evaluates a line of input: a command, a variable assignment
//
//    let name = formula
//
// or a formula. It returns true if the user wants to quit.
func (intp *Intp) Eval(line string) (bool, error) {
	if strings.HasPrefix(line, ":") {
		name, arg := line[1:], ""
		if i := strings.IndexAny(name, " \t"); i >= 0 {
			name, arg = name[:i], strings.TrimSpace(name[i:])
		}
		if name == "quit" || name == "q" {
			return true, nil
		}
		cmd, ok := commands[name]
		if !ok {
			err := fmt.Errorf("unknown command :%s, try :help", name)
			pterm.Error.Println(err.Error())
			return false, err
		}
		if err := cmd.run(intp, arg); err != nil {
			pterm.Error.Println(err.Error())
			return false, err
		}
		return false, nil
	}
	if m := letPattern.FindStringSubmatch(line); m != nil {
		v, err := intp.calculate(m[2])
		if err != nil {
			return false, err
		}
		intp.vars[m[1]] = v.Interface()
		pterm.Info.Println(fmt.Sprintf("%s = %s", m[1], v))
		return false, nil
	}
	v, err := intp.calculate(line)
	if err != nil {
		return false, err
	}
	pterm.Info.Println(v.String())
	return false, nil
}

func (intp *Intp) calculate(formula string) (runtime.Value, error) {
	r := intp.calculator().Calculate(context.Background(), calc.Request{
		Formula:   formula,
		Variables: intp.vars,
		SessionID: intp.session,
	})
	tracer().Debugf("result metadata: %v", r.Metadata)
	tracer().Infof("calculated in %s", r.ExecutionTime)
	if !r.Success {
		err := fmt.Errorf("%s (stage %s)", strings.Join(r.Errors, "; "), r.Stage())
		pterm.Error.Println(err.Error())
		return runtime.Value{}, err
	}
	return r.Value, nil
}

// --- Commands --------------------------------------------------------------

func (intp *Intp) help(string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pterm.Println(fmt.Sprintf("  :%-8s %s", name, commands[name].help))
	}
	pterm.Println("  :quit     leave S.REPL")
	pterm.Println("  let x = formula  bind a variable")
	return nil
}

func (intp *Intp) tree(formula string) error {
	tree, err := intp.engine.Parse(formula)
	if err != nil {
		return err
	}
	return renderTree(tree)
}

func (intp *Intp) optimized(formula string) error {
	tree, err := intp.engine.Parse(formula)
	if err != nil {
		return err
	}
	opt, stats := termr.New().OptimizeWithStats(tree)
	tracer().Infof("%d folds, %d rewrites", stats.Folds, stats.Rewrites)
	return renderTree(opt)
}

// renderTree displays an AST as a tree on the terminal.
func renderTree(tree ast.Node) error {
	ll := pterm.LeveledList{}
	ast.Walk(tree, func(n ast.Node, level int) bool {
		ll = append(ll, pterm.LeveledListItem{Level: level, Text: ast.Label(n)})
		return true
	})
	tracer().Debugf("|ll| = %d", len(ll))
	pterm.Println(ast.String(tree))
	root := pterm.NewTreeFromLeveledList(ll)
	pterm.DefaultTree.WithRoot(root).Render()
	return nil
}

func (intp *Intp) tokens(formula string) error {
	tokens, err := intp.engine.Tokenize(formula)
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		pterm.Println(fmt.Sprintf("  %-12s %-12q %v", scorelang.TokenName(tok.TokType()),
			tok.Lexeme(), tok.Span()))
	}
	return nil
}

func (intp *Intp) analyze(formula string) error {
	a, err := intp.calculator().AnalyzeExpression(formula)
	if err != nil {
		return err
	}
	pterm.Info.Println(fmt.Sprintf("tokens: %d, complexity: %d, risk: %.2f",
		a.TokenCount, a.ComplexityScore, a.RiskScore))
	pterm.Info.Println(fmt.Sprintf("variables: %s", strings.Join(a.VariableNames, ", ")))
	pterm.Info.Println(fmt.Sprintf("functions: %s", strings.Join(a.FunctionNames, ", ")))
	return nil
}

func (intp *Intp) check(formula string) error {
	if !intp.calculator().ValidateExpression(formula, intp.vars) {
		return fmt.Errorf("formula is not valid for the current variables")
	}
	pterm.Info.Println("ok")
	return nil
}

func (intp *Intp) listVars(string) error {
	env, err := runtime.EnvironmentFrom(intp.vars)
	if err != nil {
		return err
	}
	for _, name := range env.Names() {
		v, _ := env.Lookup(name)
		pterm.Println(fmt.Sprintf("  %s = %s", name, v))
	}
	return nil
}

func (intp *Intp) unset(name string) error {
	if _, ok := intp.vars[name]; !ok {
		return fmt.Errorf("no variable %q", name)
	}
	delete(intp.vars, name)
	return nil
}

func (intp *Intp) grammar(string) error {
	g := intp.engine.Grammar
	for i := 0; i < g.Size(); i++ {
		pterm.Println(fmt.Sprintf("  %3d: %s", i, g.Rule(i)))
	}
	return nil
}

func (intp *Intp) dot(filename string) error {
	if filename == "" {
		return fmt.Errorf("usage: :dot <file>")
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err = intp.engine.Tables.CFSM().ToGraphViz(f); err != nil {
		return err
	}
	pterm.Info.Println(fmt.Sprintf("%d states written to %s", intp.engine.Tables.CFSM().StateCount(), filename))
	return nil
}

func (intp *Intp) metrics(string) error {
	m := intp.calculator().Metrics()
	pterm.Info.Println(fmt.Sprintf("requests: %d, successes: %d, failures: %d",
		m.Requests, m.Successes, m.Failures))
	pterm.Info.Println(fmt.Sprintf("cache hits: %d, misses: %d, parses: %d, cached results: %d",
		m.CacheHits, m.CacheMisses, m.Parses, m.CacheSize))
	if sm, ok := intp.calculator().SessionMetrics(intp.session); ok {
		pterm.Info.Println(fmt.Sprintf("session %s: %d requests, total time %s",
			intp.session, sm.Requests, sm.TotalTime))
	}
	return nil
}

func traceLevel(l string) tracing.TraceLevel {
	return tracing.TraceLevelFromString(l)
}
