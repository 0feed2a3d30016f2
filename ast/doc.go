/*
Package ast defines the abstract syntax tree for score formulas.

The set of node types is closed: Number, Boolean, Variable, BinaryOp, UnaryOp,
FunctionCall, If and Arguments. Clients process trees by implementing
Visitor[T] and calling Visit. Adding a node type adds a method to Visitor, so
every consumer of the tree fails to compile until it handles the new node type.

Trees are immutable after construction. Nodes own their children exclusively;
rewriting a tree (see package termr) produces a new tree.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package ast
