/*
Package termr implements term rewriting for formula syntax trees, i.e.
constant folding and algebraic simplification.

Rewriting is done bottom-up: children are optimized first, then the node
itself is rewritten until no more rules apply. The input tree is never
modified; Optimize always returns a new tree.

Rewrite rules are grouped into strategies, one per operator. A rule
consists of a pattern and a rewriter. If the pattern matches a node, the
rewriter is called on it:

    rule := termr.RewriteRule{
        Name:    "x*1",
        Pattern: termr.RightIs(1),
        Rewrite: termr.KeepLeft,
    }
    opt := termr.New().WithStrategy(ast.Mul, termr.Strategy{rule})

Rewriting never changes the value of an expression which evaluates without
error. Rules eliminating a conversion (x*1 → x) apply to operands which are
known to be numeric only, rules discarding a subtree (x*0 → 0) apply to
subtrees without calls to impure functions only.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package termr

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'scorex.termr'.
func tracer() tracing.Trace {
	return tracing.Select("scorex.termr")
}
