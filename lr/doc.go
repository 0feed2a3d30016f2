/*
Package lr implements prerequisites for LR(1) parsing: grammars, static grammar
analysis and the construction of parser tables.

Building a Grammar

Grammars are specified using a grammar builder object. Clients add
rules, consisting of non-terminal symbols and terminals. Terminals
carry a token value of type int. Grammars may contain epsilon-productions.
Every rule may carry a semantic action, which a parser calls when reducing
the rule.

Example:

    b := lr.NewGrammarBuilder("G")
    b.LHS("S").N("A").T("a", 1).End()  // S  ➞  A a
    b.LHS("A").N("B").N("D").End()     // A  ➞  B D
    b.LHS("B").T("b", 2).End()         // B  ➞  b
    b.LHS("B").Epsilon()               // B  ➞
    b.LHS("D").T("d", 3).End()         // D  ➞  d
    b.LHS("D").Epsilon()               // D  ➞
    g, err := b.Grammar()

This results in the following trivial grammar:

   g.Dump()

   0: S' ➞ S
   1: S ➞ A a
   2: A ➞ B D
   3: B ➞ b
   4: B ➞ ε
   5: D ➞ d
   6: D ➞ ε

Rule 0 is added by the builder. It is the augmented start rule, and a parser
accepts its input when the augmented start rule is completed with lookahead #eof.

Static Grammar Analysis

After the grammar is complete, it has to be analysed. For this end, the
grammar is subjected to an LRAnalysis object, which computes FIRST and
FOLLOW sets for the grammar and determines all epsilon-derivable symbols.
Both are fixed-point iterations, bounded by MaxIterations. A grammar which does
not converge within this bound is reported as an error.

    ga, err := lr.Analysis(g)  // analyser for grammar above
    g.EachNonTerminal(func(N *lr.Symbol) {
        fmt.Printf("FIRST(%s) = %v", N, ga.First(N))
    })

    // Output:
    FIRST(S') = {1 2 3}      // terminal token values as int, 1 = 'a'
    FIRST(S)  = {1 2 3}
    FIRST(A)  = {0 2 3}      // 0 = epsilon
    FIRST(B)  = {0 2}        // 2 = 'b'
    FIRST(D)  = {0 3}        // 3 = 'd'

Parser Construction

Using grammar analysis as input, a bottom-up parser can be constructed.
First a characteristic finite state machine (CFSM) is built from the
grammar: the canonical collection of LR(1) item sets, with states of identical
cores merged. The CFSM will then be transformed into a GOTO table and an ACTION
table. The CFSM will not be thrown away, but is made available to the client.
This is intended for debugging purposes, but may be useful for error reporting, too.
It can be exported to Graphviz's Dot-format.

Example:

    lrgen := lr.NewTableGenerator(ga)  // ga is an LRAnalysis, see above
    if err := lrgen.CreateTables(); err != nil {
        // a *ConflictError: grammar is not LR(1)
    }

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lr

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'scorex.lr'.
func tracer() tracing.Trace {
	return tracing.Select("scorex.lr")
}
