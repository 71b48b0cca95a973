package symtab

import (
	"fmt"
	"strconv"

	"github.com/clonk-lang/clonk/internal/lexer"
)

// Table is a lexical symbol table: name -> stack of Entry, ordered oldest
// (shallowest) first. Depth increases with nesting; EnterScope/LeaveScope
// bracket a lexical scope the way the parser visits blocks.
type Table struct {
	entries map[string][]Entry
	depth   int
	seq     map[string]int // per-base-name counter, used to rename shadowing declarations
}

// New returns an empty Table at depth 0 (global).
func New() *Table {
	return &Table{
		entries: make(map[string][]Entry),
		seq:     make(map[string]int),
	}
}

// EnterScope begins a new nested scope.
func (t *Table) EnterScope() {
	t.depth++
}

// LeaveScope ends the current scope, popping every entry declared at or
// below the departing depth. This is O(entries) per scope, not O(names),
// since it only walks the names that actually have entries.
func (t *Table) LeaveScope() {
	for name, stack := range t.entries {
		for len(stack) > 0 && stack[len(stack)-1].Depth >= t.depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			delete(t.entries, name)
		} else {
			t.entries[name] = stack
		}
	}
	t.depth--
}

// Depth returns the current scope depth.
func (t *Table) Depth() int {
	return t.depth
}

// top returns the topmost entry for name, if any.
func (t *Table) top(name string) (Entry, bool) {
	stack := t.entries[name]
	if len(stack) == 0 {
		return Entry{}, false
	}
	return stack[len(stack)-1], true
}

// rename produces a name distinct from every other declaration of the same
// base identifier seen so far in this table's lifetime, so that later
// stages (the IR builder) never need to disambiguate two 'auto'/'register'
// declarations by scope alone.
func (t *Table) rename(base string) string {
	n := t.seq[base]
	t.seq[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "." + strconv.Itoa(n)
}

// DeclareParam inserts a function parameter one level deeper than the
// current depth. Per the invariant, the function's own top-level block is
// then entered at that same depth (not depth+1), so a same-named local
// declared directly in the body collides with the parameter instead of
// shadowing it.
func (t *Table) DeclareParam(name string, pos lexer.Position) (renamed string, err error) {
	paramDepth := t.depth + 1
	renamed = t.rename(name)
	t.entries[name] = append(t.entries[name], Entry{
		Depth:   paramDepth,
		Pos:     pos,
		Name:    renamed,
		IsParam: true,
	})
	return renamed, nil
}

// Declare inserts a local ('auto' or 'register') at the current depth.
// Insertion fails when the topmost existing entry for name is at a depth
// greater than or equal to the current depth and is not itself a register
// — i.e. shadowing at the same lexical level is rejected, but a deeper
// nested scope may always shadow an outer one.
func (t *Table) Declare(name string, pos lexer.Position, isRegister bool) (renamed string, err error) {
	if existing, ok := t.top(name); ok {
		if existing.Depth >= t.depth && !existing.IsRegister {
			return "", fmt.Errorf("redeclared identifier %s", name)
		}
	}
	renamed = t.rename(name)
	t.entries[name] = append(t.entries[name], Entry{
		Depth:      t.depth,
		Pos:        pos,
		Name:       renamed,
		IsRegister: isRegister,
	})
	return renamed, nil
}

// Lookup resolves name to its current entry, or ok=false if the name is not
// in scope anywhere.
func (t *Table) Lookup(name string) (Entry, bool) {
	return t.top(name)
}
