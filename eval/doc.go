/*
Package eval implements a tree-walking evaluator for formula syntax trees.

Evaluation is implemented as a visitor over the closed set of node types of
package ast. Operands are coerced by the rules of package runtime:

    evaluator := eval.New()
    v, err := evaluator.Evaluate(tree, env)   // v is a runtime.Value

Logical operators && and || short-circuit. IF evaluates exactly one of its
branches, thus errors in the branch not taken never surface.
Numeric results which are NaN or infinite are reported as MathDomainError.

Built-in Functions

Functions are resolved by their (upper-case) name in a registry which is
created once and never changed afterwards. Every function declares its
arity, which is checked before invocation. Functions with a restricted domain
check their arguments and fail with MathDomainError.
Combinatorial functions operate on integers and report an Overflow error
instead of silently wrapping around.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package eval

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'scorex.eval'.
func tracer() tracing.Trace {
	return tracing.Select("scorex.eval")
}
