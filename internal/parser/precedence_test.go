package parser

import (
	"testing"

	"github.com/clonk-lang/clonk/internal/lexer"
)

func TestBinaryPrecedence_Ordering(t *testing.T) {
	// from the component design's precedence table, lowest to highest
	ladder := []lexer.TokenKind{
		lexer.Assign, lexer.Or, lexer.And, lexer.BitOr, lexer.BitXor,
		lexer.BitAnd, lexer.Eq, lexer.Less, lexer.Shl, lexer.Plus, lexer.Star,
	}
	for i := 1; i < len(ladder); i++ {
		prev := binaryPrecedence(ladder[i-1])
		cur := binaryPrecedence(ladder[i])
		if cur <= prev {
			t.Errorf("%v should bind tighter than %v (%d <= %d)", ladder[i], ladder[i-1], cur, prev)
		}
	}
}

func TestIsRightAssociative(t *testing.T) {
	if !isRightAssociative(lexer.Assign) {
		t.Errorf("'=' must be right-associative")
	}
	if isRightAssociative(lexer.Plus) {
		t.Errorf("'+' must be left-associative")
	}
}
