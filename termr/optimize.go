package termr

import (
	"math"

	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/eval"
	"github.com/npillmayer/scorex/runtime"
)

// Optimizer rewrites syntax trees. It is read-only after construction and may
// be shared between goroutines.
type Optimizer struct {
	strategies map[ast.Operator]Strategy
	registry   *eval.Registry
}

// New creates an optimizer with the default strategy table.
func New() *Optimizer {
	return &Optimizer{strategies: DefaultStrategies(), registry: eval.Builtins()}
}

// WithStrategy returns a copy of the optimizer with the strategy for op replaced.
// An empty strategy disables simplification for op; constant folding is not affected.
func (o *Optimizer) WithStrategy(op ast.Operator, s Strategy) *Optimizer {
	c := &Optimizer{strategies: make(map[ast.Operator]Strategy, len(o.strategies)), registry: o.registry}
	for k, v := range o.strategies {
		c.strategies[k] = v
	}
	c.strategies[op] = s
	return c
}

// Strategy returns the strategy for an operator.
func (o *Optimizer) Strategy(op ast.Operator) Strategy {
	return o.strategies[op]
}

// Stats counts the rewrites performed by an optimization run.
type Stats struct {
	Folds    int // constant folds
	Rewrites int // algebraic simplifications
}

// Optimize rewrites a tree with the default optimizer.
func Optimize(tree ast.Node) ast.Node {
	return New().Optimize(tree)
}

// Optimize returns an optimized copy of a tree. tree is not modified.
func (o *Optimizer) Optimize(tree ast.Node) ast.Node {
	r, _ := o.OptimizeWithStats(tree)
	return r
}

// OptimizeWithStats returns an optimized copy of a tree and statistics about
// the rewrites performed.
func (o *Optimizer) OptimizeWithStats(tree ast.Node) (ast.Node, Stats) {
	if tree == nil {
		return nil, Stats{}
	}
	rw := &rewriter{opt: o}
	r, _ := ast.Visit[ast.Node](tree, rw)
	if rw.stats.Folds+rw.stats.Rewrites > 0 {
		tracer().Debugf("optimized %s to %s (%d folds, %d rewrites)", ast.String(tree),
			ast.String(r), rw.stats.Folds, rw.stats.Rewrites)
	}
	return r, rw.stats
}

// rewriter is the visitor for a single optimization run. Every method returns
// a new node.
type rewriter struct {
	opt   *Optimizer
	stats Stats
}

var _ ast.Visitor[ast.Node] = &rewriter{}

func (rw *rewriter) rewrite(n ast.Node) ast.Node {
	r, _ := ast.Visit[ast.Node](n, rw)
	return r
}

func (rw *rewriter) VisitNumber(n *ast.Number) (ast.Node, error) {
	return &ast.Number{Value: n.Value, Pos: n.Pos}, nil
}

func (rw *rewriter) VisitBoolean(n *ast.Boolean) (ast.Node, error) {
	return &ast.Boolean{Value: n.Value, Pos: n.Pos}, nil
}

func (rw *rewriter) VisitVariable(n *ast.Variable) (ast.Node, error) {
	return &ast.Variable{Name: n.Name, Pos: n.Pos}, nil
}

func (rw *rewriter) VisitBinaryOp(n *ast.BinaryOp) (ast.Node, error) {
	b := &ast.BinaryOp{Op: n.Op, Left: rw.rewrite(n.Left), Right: rw.rewrite(n.Right), Pos: n.Pos}
	return rw.simplify(b), nil
}

func (rw *rewriter) VisitUnaryOp(n *ast.UnaryOp) (ast.Node, error) {
	u := &ast.UnaryOp{Op: n.Op, Operand: rw.rewrite(n.Operand), Pos: n.Pos}
	return rw.simplify(u), nil
}

func (rw *rewriter) VisitFunctionCall(n *ast.FunctionCall) (ast.Node, error) {
	f := &ast.FunctionCall{Name: n.Name, Args: rw.rewriteList(n.Args), Pos: n.Pos}
	return rw.simplify(f), nil
}

func (rw *rewriter) VisitIf(n *ast.If) (ast.Node, error) {
	c := &ast.If{
		Condition: rw.rewrite(n.Condition),
		Then:      rw.rewrite(n.Then),
		Else:      rw.rewrite(n.Else),
		Pos:       n.Pos,
	}
	return rw.simplify(c), nil
}

func (rw *rewriter) VisitArguments(n *ast.Arguments) (ast.Node, error) {
	return &ast.Arguments{List: rw.rewriteList(n.List), Pos: n.Pos}, nil
}

func (rw *rewriter) rewriteList(nodes []ast.Node) []ast.Node {
	if nodes == nil {
		return nil
	}
	r := make([]ast.Node, len(nodes))
	for i, a := range nodes {
		r[i] = rw.rewrite(a)
	}
	return r
}

// simplify rewrites a node with optimized children until no more rules apply.
// Rewriters return optimized subtrees or literals, thus only the top of the
// tree has to be inspected again.
func (rw *rewriter) simplify(n ast.Node) ast.Node {
	for {
		if r, ok := rw.fold(n); ok {
			rw.stats.Folds++
			return r
		}
		var op ast.Operator
		switch x := n.(type) {
		case *ast.BinaryOp:
			op = x.Op
		case *ast.UnaryOp:
			op = x.Op
		default:
			return n
		}
		r, rule := rw.opt.strategies[op].Apply(n)
		if r == nil {
			return n
		}
		tracer().Debugf("rule %s: %s ➞ %s", rule, ast.String(n), ast.String(r))
		rw.stats.Rewrites++
		n = r
	}
}

// fold does constant folding. Folding fails for operations which would raise
// an error or produce a non-finite number: those are left to evaluation.
func (rw *rewriter) fold(n ast.Node) (ast.Node, bool) {
	switch x := n.(type) {
	case *ast.BinaryOp:
		l, lok := literal(x.Left)
		r, rok := literal(x.Right)
		if !lok || !rok {
			return nil, false
		}
		v, err := eval.Binary(x.Op, l, r)
		if err != nil {
			return nil, false
		}
		return toNode(v, x.Pos)
	case *ast.UnaryOp:
		a, ok := literal(x.Operand)
		if !ok {
			return nil, false
		}
		v, err := eval.Unary(x.Op, a)
		if err != nil {
			return nil, false
		}
		return toNode(v, x.Pos)
	case *ast.If:
		c, ok := literal(x.Condition)
		if !ok {
			return nil, false
		}
		b, err := c.AsBool()
		if err != nil {
			return nil, false
		}
		if b {
			return x.Then, true
		}
		return x.Else, true
	case *ast.FunctionCall:
		f, found := rw.opt.registry.Lookup(x.Name)
		if !found || !f.Pure {
			return nil, false
		}
		args := make([]float64, len(x.Args))
		for i, a := range x.Args {
			lit, ok := a.(*ast.Number)
			if !ok {
				return nil, false
			}
			args[i] = lit.Value
		}
		r, err := f.Call(args)
		if err != nil {
			return nil, false
		}
		return &ast.Number{Value: r, Pos: x.Pos}, true
	}
	return nil, false
}

func literal(n ast.Node) (runtime.Value, bool) {
	switch lit := n.(type) {
	case *ast.Number:
		return runtime.Number(lit.Value), true
	case *ast.Boolean:
		return runtime.Bool(lit.Value), true
	}
	return runtime.Value{}, false
}

func toNode(v runtime.Value, pos int) (ast.Node, bool) {
	switch v.Kind() {
	case runtime.NumberType:
		x, _ := v.AsNumber()
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, false
		}
		return &ast.Number{Value: x, Pos: pos}, true
	case runtime.BooleanType:
		b, _ := v.AsBool()
		return &ast.Boolean{Value: b, Pos: pos}, true
	}
	return nil, false
}
