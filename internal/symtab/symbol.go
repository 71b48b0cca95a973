// Package symtab implements the scoped symbol table used during parsing to
// resolve identifiers and to enforce clonk's shadowing and visibility rules.
//
// Every declared name maps to a stack of Entry values rather than to a tree
// of per-scope maps: leaving a scope pops exactly the entries declared at or
// below the departing depth, for every name, in one pass.
package symtab

import "github.com/clonk-lang/clonk/internal/lexer"

// Entry is one declaration of a name, at a particular lexical depth.
type Entry struct {
	Depth      int
	Pos        lexer.Position
	Name       string // the possibly-renamed name this entry resolves to
	IsRegister bool
	IsParam    bool
}
