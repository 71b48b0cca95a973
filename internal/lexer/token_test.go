package lexer

import "testing"

func TestLookupKeyword(t *testing.T) {
	cases := map[string]TokenKind{
		"auto":     KwAuto,
		"register": KwRegister,
		"if":       KwIf,
		"else":     KwElse,
		"while":    KwWhile,
		"return":   KwReturn,
		"foo":      Identifier,
		"autox":    Identifier,
	}
	for name, want := range cases {
		if got := LookupKeyword(name); got != want {
			t.Errorf("LookupKeyword(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestTokenKind_String(t *testing.T) {
	if KwIf.String() != "if" {
		t.Errorf("KwIf.String() = %q, want %q", KwIf.String(), "if")
	}
	if Plus.String() != "+" {
		t.Errorf("Plus.String() = %q, want %q", Plus.String(), "+")
	}
}
