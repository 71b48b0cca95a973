package lexer

import "testing"

func TestPosition_Column(t *testing.T) {
	p := Position{Line: 3, LineStart: 20, Offset: 25}
	if got := p.Column(); got != 6 {
		t.Errorf("Column() = %d, want 6", got)
	}
}

func TestPosition_String(t *testing.T) {
	p := Position{Line: 3, LineStart: 20, Offset: 25}
	if got := p.String(); got != "3:6" {
		t.Errorf("String() = %q, want %q", got, "3:6")
	}
}
