// Package diag collects source-located diagnostics produced by the lexer,
// parser, and IR builder.
//
// The original source threads a single shared DiagnosticsManager singleton
// through every stage. We replace it with an explicit *Bag value passed into
// each stage's constructor: no global mutable state, and two independently
// running compilations (e.g. in tests) never interfere with each other.
package diag

import (
	"fmt"
	"io"
	"strings"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	// Error is recoverable: the producing stage keeps going after recording it.
	Error Severity = iota
	// Fatal aborts the stage that raised it; no further diagnostics from that
	// stage should be trusted.
	Fatal
)

// Diagnostic is one reported problem, located in the source text.
type Diagnostic struct {
	Line     int
	Column   int
	LineText string
	Message  string
	Severity Severity
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return fmt.Sprintf("internal error: %s", d.Message)
	}
	dashes := strings.Repeat("-", maxInt(d.Column-1, 0))
	return fmt.Sprintf("error in line %d: %s\n%s\n%s^", d.Line, d.Message, d.LineText, dashes)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Bag is an append-only collector of diagnostics for a single compilation.
type Bag struct {
	entries []Diagnostic
	fatal   bool
}

// New returns an empty Bag.
func New() *Bag {
	return &Bag{}
}

// Add records a recoverable diagnostic.
func (b *Bag) Add(line, column int, lineText, message string) {
	b.entries = append(b.entries, Diagnostic{
		Line:     line,
		Column:   column,
		LineText: lineText,
		Message:  message,
		Severity: Error,
	})
}

// AddFatal records a fatal diagnostic (only the lexer's unknown-token error
// uses this: the stage producing it must stop immediately afterwards).
func (b *Bag) AddFatal(line, column int, lineText, message string) {
	b.entries = append(b.entries, Diagnostic{
		Line:     line,
		Column:   column,
		LineText: lineText,
		Message:  message,
		Severity: Fatal,
	})
	b.fatal = true
}

// AddInternal records a fatal diagnostic with no source location: an IR
// verifier failure, which indicates a bug in the front end rather than
// a problem with the input program.
func (b *Bag) AddInternal(message string) {
	b.entries = append(b.entries, Diagnostic{Message: message, Severity: Fatal})
	b.fatal = true
}

// HasErrors reports whether any diagnostic, fatal or not, was recorded.
func (b *Bag) HasErrors() bool {
	return len(b.entries) > 0
}

// Fatal reports whether a fatal diagnostic was recorded.
func (b *Bag) Fatal() bool {
	return b.fatal
}

// All returns every recorded diagnostic in report order.
func (b *Bag) All() []Diagnostic {
	return b.entries
}

// WriteTo prints every diagnostic to w in the driver's report format.
func (b *Bag) WriteTo(w io.Writer) {
	for _, d := range b.entries {
		fmt.Fprintln(w, d.String())
	}
}
