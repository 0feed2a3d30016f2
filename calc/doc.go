/*
Package calc calculates scores from formulas.

A Calculator drives a formula through a pipeline of stages

    validate → policy → cache lookup → lex → parse → optimize → evaluate → cache store

and always returns a Result. Failures of any stage, including timeouts and
panics, are reported as unsuccessful results, never as errors or panics to the
caller. The metadata of a failed result names the failing stage.

    c, err := calc.New(config.Defaults())
    ...
    r := c.CalculateFormula(ctx, "(a+b)/2", map[string]interface{}{"a": 10, "b": 20}, nil)
    // r.Success == true, r.Value == 15

Calculators keep two caches: results are cached by formula and variable
bindings, and compiled (parsed and optimized) formulas are cached by formula
text, such that evaluation with different bindings does not parse again.
Results of formulas calling impure functions (RANDOM) are never cached.

Requests may carry a session ID. Sessions are rate limited and collect their own
metrics.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package calc

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'scorex.calc'.
func tracer() tracing.Trace {
	return tracing.Select("scorex.calc")
}
