/*
Package scorex is an engine for admission-score formulas.

Administrators define scores as plain-text formulas over applicant data, e.g.

    (korean_3_1 + korean_3_2) / 2 * 1.75
    IF(volunteer_hours > 15, 15, volunteer_hours)

ScoREx compiles such formulas with an LR(1) parser built from an explicit
grammar, simplifies the resulting abstract syntax tree and evaluates it against
a per-request variable environment. Package structure is as follows:

■ lr: Package lr implements grammars, grammar analysis (FIRST/FOLLOW) and the
construction of LR(1) parser tables. Sub-package lalr contains the shift-reduce
parser, sub-package scanner the tokenizer interfaces.

■ ast: Package ast defines the closed set of syntax tree nodes and visitor dispatch.

■ runtime: Package runtime provides values and variable environments for evaluation.

■ eval: Package eval implements the tree-walking evaluator and the built-in functions.

■ termr: Package termr implements tree rewriting, i.e. constant folding and
algebraic simplification.

■ scorelang: Package scorelang puts the pieces together for the formula language.

■ calc: Package calc is the orchestration layer: caching, policies, batches and
worker pools.

■ config: Package config reads the calculator configuration from YAML files.

Command scorelang/srepl is an interactive REPL for trying out formulas.

The base package contains data types which are used throughout all the other
packages: tokens, spans and the error taxonomy.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package scorex
