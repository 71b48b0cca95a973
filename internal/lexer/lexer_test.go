package lexer

import (
	"testing"

	"github.com/clonk-lang/clonk/internal/diag"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	d := diag.New()
	l := New(src, "test.clonk", d)
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			break
		}
	}
	return toks
}

func TestLexer_RoundTrip(t *testing.T) {
	toks := scanAll(t, "auto x = 1+2;")

	expected := []TokenKind{
		KwAuto, Identifier, Assign, Integer, Plus, Integer, Semi, EOF,
	}

	if len(toks) != len(expected) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(expected), toks)
	}
	for i, kind := range expected {
		if toks[i].Kind != kind {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Kind, kind)
		}
	}
	if toks[1].Name != "x" {
		t.Errorf("identifier payload: got %q, want %q", toks[1].Name, "x")
	}
	if toks[3].IntValue != 1 || toks[5].IntValue != 2 {
		t.Errorf("integer payloads: got %d, %d", toks[3].IntValue, toks[5].IntValue)
	}
}

func TestLexer_Keywords(t *testing.T) {
	toks := scanAll(t, "auto register if else while return")
	expected := []TokenKind{KwAuto, KwRegister, KwIf, KwElse, KwWhile, KwReturn, EOF}
	for i, kind := range expected {
		if toks[i].Kind != kind {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Kind, kind)
		}
	}
}

func TestLexer_OperatorDisambiguation(t *testing.T) {
	toks := scanAll(t, "= == != <= < << >= > >> && & || | ! ~ + - * / % ^")
	expected := []TokenKind{
		Assign, Eq, NotEq, LessEq, Less, Shl, GreaterEq, Greater, Shr,
		And, BitAnd, Or, BitOr, Not, BitNot, Plus, Minus, Star, Slash,
		Percent, BitXor, EOF,
	}
	if len(toks) != len(expected) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(expected))
	}
	for i, kind := range expected {
		if toks[i].Kind != kind {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Kind, kind)
		}
	}
}

func TestLexer_LineComment(t *testing.T) {
	toks := scanAll(t, "auto x = 1; // trailing comment\nauto y = 2;")
	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{
		KwAuto, Identifier, Assign, Integer, Semi,
		KwAuto, Identifier, Assign, Integer, Semi, EOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
}

func TestLexer_PeekDoesNotConsume(t *testing.T) {
	d := diag.New()
	l := New("auto x", "test.clonk", d)
	if l.Peek().Kind != KwAuto {
		t.Fatalf("peek: got %v, want KwAuto", l.Peek().Kind)
	}
	if l.Peek().Kind != KwAuto {
		t.Fatalf("second peek: got %v, want KwAuto (peek must not consume)", l.Peek().Kind)
	}
	if l.Next().Kind != KwAuto {
		t.Fatalf("next after peek: got %v, want KwAuto", l.Next().Kind)
	}
	if l.Next().Kind != Identifier {
		t.Fatalf("next: got %v, want Identifier", l.Next().Kind)
	}
}

func TestLexer_UnknownTokenIsFatal(t *testing.T) {
	d := diag.New()
	l := New("auto x = #1;", "test.clonk", d)
	for !l.Empty() {
		l.Next()
	}
	if !d.Fatal() {
		t.Fatalf("expected a fatal diagnostic for '#'")
	}
}

func TestLexer_LinePositionTracking(t *testing.T) {
	d := diag.New()
	l := New("auto x = 1;\nauto y = 2;", "test.clonk", d)
	var lastAutoLine int
	for {
		tok := l.Next()
		if tok.Kind == EOF {
			break
		}
		if tok.Kind == KwAuto {
			lastAutoLine = l.Pos().Line
		}
	}
	if lastAutoLine != 2 {
		t.Errorf("second auto: got line %d, want 2", lastAutoLine)
	}
}
