package symtab

import (
	"testing"

	"github.com/clonk-lang/clonk/internal/lexer"
)

func TestTable_ShadowingRejectedAtSameScope(t *testing.T) {
	tab := New()
	if _, err := tab.Declare("x", lexer.Position{}, false); err != nil {
		t.Fatalf("first declare: %v", err)
	}
	if _, err := tab.Declare("x", lexer.Position{}, false); err == nil {
		t.Fatalf("expected redeclaration error at the same depth")
	}
}

func TestTable_ShadowingAcceptedAtInnerScope(t *testing.T) {
	tab := New()
	outer, err := tab.Declare("x", lexer.Position{}, false)
	if err != nil {
		t.Fatalf("outer declare: %v", err)
	}

	tab.EnterScope()
	inner, err := tab.Declare("x", lexer.Position{}, false)
	if err != nil {
		t.Fatalf("inner declare: %v", err)
	}
	if inner == outer {
		t.Errorf("inner shadow should be renamed distinctly from outer, got %q == %q", inner, outer)
	}
	tab.LeaveScope()

	entry, ok := tab.Lookup("x")
	if !ok {
		t.Fatalf("outer x should survive leaving the inner scope")
	}
	if entry.Name != outer {
		t.Errorf("after leaving inner scope, x should resolve to %q, got %q", outer, entry.Name)
	}
}

func TestTable_RegisterAllowsSameScopeRedeclaration(t *testing.T) {
	tab := New()
	if _, err := tab.Declare("x", lexer.Position{}, true); err != nil {
		t.Fatalf("register declare: %v", err)
	}
	if _, err := tab.Declare("x", lexer.Position{}, false); err != nil {
		t.Errorf("redeclaring over a register entry at the same depth should succeed, got %v", err)
	}
}

func TestTable_ParamShadowInFunctionBodyRejected(t *testing.T) {
	tab := New()
	if _, err := tab.DeclareParam("a", lexer.Position{}); err != nil {
		t.Fatalf("param declare: %v", err)
	}
	tab.EnterScope() // function's top-level block sits at the same depth as its params
	if _, err := tab.Declare("a", lexer.Position{}, false); err == nil {
		t.Fatalf("expected redeclaration error shadowing a parameter in the function's own block")
	}
}

func TestTable_NestedBlockMayShadowParam(t *testing.T) {
	tab := New()
	if _, err := tab.DeclareParam("a", lexer.Position{}); err != nil {
		t.Fatalf("param declare: %v", err)
	}
	tab.EnterScope() // function body
	tab.EnterScope() // nested block, one level deeper than the param
	if _, err := tab.Declare("a", lexer.Position{}, false); err != nil {
		t.Errorf("a nested block should be able to shadow a parameter, got %v", err)
	}
}

func TestTable_LookupMissing(t *testing.T) {
	tab := New()
	if _, ok := tab.Lookup("nope"); ok {
		t.Errorf("expected Lookup to report not-found for an undeclared name")
	}
}
