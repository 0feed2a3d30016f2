/*
Package runtime implements the runtime for formula evaluation, consisting of
values and variable environments.

Values

Formulas operate on a small closed set of value types: numbers, booleans and
strings. Coercions between them are explicit and fail with a TypeMismatch error
instead of silently producing garbage.

Environments

An environment binds variable names to values. Environments are immutable:
WithVariable returns a new environment, sharing the bindings of its parent.
This is similar to the frames of a call stack, where lookup searches the innermost
frame first, then proceeds to the enclosing frames.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package runtime

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'scorex.runtime'.
func tracer() tracing.Trace {
	return tracing.Select("scorex.runtime")
}
