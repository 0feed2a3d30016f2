/*
Package srepl/main provides an interactive command line tool (S.REPL)
for score formulas. S.REPL lets administrators try out formulas against
sample variables before using them for admission scores. Formulas are
calculated by the same calculator the service uses, including validation,
policies and caching.

    srepl> let hours = 22
    srepl> IF(hours > 15, 15, hours)
    srepl> :tree (a + b) / 2 * 1.75

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

package main

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'scorex.repl'
func tracer() tracing.Trace {
	return tracing.Select("scorex.repl")
}
