/*
Package scorelang implements the language of score formulas.

Formulas are expressions over numbers, booleans and variables, with the
operators

    + - * / % ^ == != < <= > >= && || !

parentheses, function calls and conditionals:

    IF(volunteer_hours > 15, 15, volunteer_hours)
    (korean_3_1 + korean_3_2) / 2 * 1.75

Function names and the keywords IF, TRUE and FALSE are case-insensitive.

The language is defined by an LR(1) grammar (see makeGrammar), with each
grammar rule building a node of an abstract syntax tree. The grammar, its
parser tables and the lexer are created once on first use and shared afterwards:

    tree, err := scorelang.Parse("IF(x > 0, 1, -1)")

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package scorelang

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'scorex.lang'.
func tracer() tracing.Trace {
	return tracing.Select("scorex.lang")
}
