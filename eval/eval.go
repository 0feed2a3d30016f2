package eval

import (
	"context"
	"errors"

	"github.com/npillmayer/scorex"
	"github.com/npillmayer/scorex/ast"
	"github.com/npillmayer/scorex/runtime"
)

// Evaluator evaluates syntax trees. It holds no per-call state and may be shared
// between goroutines.
type Evaluator struct {
	registry *Registry
}

// New creates an evaluator for the built-in functions.
func New() *Evaluator {
	return &Evaluator{registry: Builtins()}
}

// Functions returns the function registry of the evaluator.
func (ev *Evaluator) Functions() *Registry {
	return ev.registry
}

// Evaluate evaluates a tree within an environment. env may be nil.
func (ev *Evaluator) Evaluate(tree ast.Node, env *runtime.Environment) (runtime.Value, error) {
	return ev.EvaluateContext(context.Background(), tree, env)
}

// EvaluateContext evaluates a tree, checking ctx for cancellation now and then.
// A cancelled evaluation reports a Timeout error.
func (ev *Evaluator) EvaluateContext(ctx context.Context, tree ast.Node, env *runtime.Environment) (runtime.Value, error) {
	if tree == nil {
		return runtime.Value{}, scorex.NewError(scorex.Internal, "no tree to evaluate")
	}
	w := &walker{ctx: ctx, env: env, registry: ev.registry}
	v, err := w.eval(tree)
	if err != nil {
		tracer().Debugf("evaluation failed: %v", err)
		return runtime.Value{}, err
	}
	if err = CheckResult(v); err != nil {
		return runtime.Value{}, positioned(err, tree.Position())
	}
	return v, nil
}

// ctxCheckInterval is the number of nodes visited between checks for cancellation.
const ctxCheckInterval = 256

// walker is the visitor for a single evaluation.
type walker struct {
	ctx      context.Context
	env      *runtime.Environment
	registry *Registry
	steps    int
}

var _ ast.Visitor[runtime.Value] = &walker{}

func (w *walker) eval(n ast.Node) (runtime.Value, error) {
	w.steps++
	if w.steps%ctxCheckInterval == 0 {
		if err := w.ctx.Err(); err != nil {
			return runtime.Value{}, scorex.WrapError(scorex.Timeout, err, "evaluation cancelled")
		}
	}
	return ast.Visit[runtime.Value](n, w)
}

func (w *walker) VisitNumber(n *ast.Number) (runtime.Value, error) {
	return runtime.Number(n.Value), nil
}

func (w *walker) VisitBoolean(n *ast.Boolean) (runtime.Value, error) {
	return runtime.Bool(n.Value), nil
}

func (w *walker) VisitVariable(n *ast.Variable) (runtime.Value, error) {
	v, ok := w.env.Lookup(n.Name)
	if !ok {
		return runtime.Value{}, scorex.ErrorAt(scorex.UndefinedVariable, n.Pos, "undefined variable %s", n.Name)
	}
	return v, nil
}

func (w *walker) VisitBinaryOp(n *ast.BinaryOp) (runtime.Value, error) {
	l, err := w.eval(n.Left)
	if err != nil {
		return l, err
	}
	if n.Op == ast.And || n.Op == ast.Or {
		b, err := l.AsBool()
		if err != nil {
			return runtime.Value{}, positioned(err, n.Left.Position())
		}
		if b == (n.Op == ast.Or) { // result determined by left operand
			return runtime.Bool(b), nil
		}
		r, err := w.eval(n.Right)
		if err != nil {
			return r, err
		}
		b, err = r.AsBool()
		if err != nil {
			return runtime.Value{}, positioned(err, n.Right.Position())
		}
		return runtime.Bool(b), nil
	}
	r, err := w.eval(n.Right)
	if err != nil {
		return r, err
	}
	v, err := Binary(n.Op, l, r)
	if err != nil {
		return v, positioned(err, n.Pos)
	}
	return v, nil
}

func (w *walker) VisitUnaryOp(n *ast.UnaryOp) (runtime.Value, error) {
	x, err := w.eval(n.Operand)
	if err != nil {
		return x, err
	}
	v, err := Unary(n.Op, x)
	if err != nil {
		return v, positioned(err, n.Pos)
	}
	return v, nil
}

func (w *walker) VisitFunctionCall(n *ast.FunctionCall) (runtime.Value, error) {
	f, ok := w.registry.Lookup(n.Name)
	if !ok {
		return runtime.Value{}, scorex.ErrorAt(scorex.UnknownFunction, n.Pos, "unknown function %s", n.Name)
	}
	if err := f.CheckArity(len(n.Args)); err != nil {
		return runtime.Value{}, positioned(err, n.Pos)
	}
	args := make([]float64, len(n.Args))
	for i, a := range n.Args {
		v, err := w.eval(a)
		if err != nil {
			return v, err
		}
		if args[i], err = v.AsNumber(); err != nil {
			return runtime.Value{}, positioned(err, a.Position())
		}
	}
	x, err := f.Call(args)
	if err != nil {
		return runtime.Value{}, positioned(err, n.Pos)
	}
	return runtime.Number(x), nil
}

func (w *walker) VisitIf(n *ast.If) (runtime.Value, error) {
	c, err := w.eval(n.Condition)
	if err != nil {
		return c, err
	}
	b, err := c.AsBool()
	if err != nil {
		return runtime.Value{}, positioned(err, n.Condition.Position())
	}
	if b {
		return w.eval(n.Then)
	}
	return w.eval(n.Else)
}

func (w *walker) VisitArguments(n *ast.Arguments) (runtime.Value, error) {
	return runtime.Value{}, scorex.ErrorAt(scorex.TypeMismatch, n.Pos, "argument list is not a value")
}

// positioned sets the position of an error, if it has none yet.
func positioned(err error, pos int) error {
	var e *scorex.Error
	if errors.As(err, &e) && e.Position < 0 {
		e.Position = pos
	}
	return err
}
