// Package ast defines the clonk abstract syntax tree.
//
// The original source models expressions and statements as a virtual class
// hierarchy with runtime type tests (dynamic_cast). Go has no such
// hierarchy; instead Expr and Stmt are tagged sums: a marker interface plus
// a closed set of concrete node types, consumed everywhere with an
// exhaustive type switch. There is no Visitor double-dispatch layer here —
// every consumer (the printer, the parser's own checks, the IR builder)
// switches on concrete type directly.
package ast

import "github.com/clonk-lang/clonk/internal/lexer"

// Node is satisfied by every AST node; it reports where the node sits in
// the source for diagnostics.
type Node interface {
	Pos() lexer.Position
}

// Expr is satisfied by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is satisfied by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// IsLvalue reports whether e denotes a storage location and may therefore
// appear on the left of '=' or as the operand of unary '&'.
func IsLvalue(e Expr) bool {
	switch e.(type) {
	case *Ident, *Index:
		return true
	default:
		return false
	}
}

// Function is one parsed function definition.
type Function struct {
	NamePos    lexer.Position
	Name       string
	Params     []*Ident
	Body       *Block
	AutoLocals []string // names of every 'auto' declaration seen while parsing this function, in order
}

func (f *Function) Pos() lexer.Position { return f.NamePos }

// Extern names a function that was called but never defined in this
// program, together with the argument count it was called with.
type Extern struct {
	Name       string
	ParamCount int
}

// Program is the root of the AST: every function definition, plus the
// externs discovered while parsing.
type Program struct {
	Functions []*Function
	Externs   []Extern
}
