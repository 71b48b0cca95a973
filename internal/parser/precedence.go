package parser

import "github.com/clonk-lang/clonk/internal/lexer"

// Precedence levels, higher binds tighter. Matches the table in the
// component design exactly; '=' sits alone at the bottom because it is
// right-associative while every other binary operator here is
// left-associative.
type precedence int

const (
	precNone precedence = iota
	precAssign
	precLogOr
	precLogAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precComparison
	precShift
	precAdditive
	precMultiplicative
)

func binaryPrecedence(k lexer.TokenKind) precedence {
	switch k {
	case lexer.Assign:
		return precAssign
	case lexer.Or:
		return precLogOr
	case lexer.And:
		return precLogAnd
	case lexer.BitOr:
		return precBitOr
	case lexer.BitXor:
		return precBitXor
	case lexer.BitAnd:
		return precBitAnd
	case lexer.Eq, lexer.NotEq:
		return precEquality
	case lexer.Greater, lexer.Less, lexer.GreaterEq, lexer.LessEq:
		return precComparison
	case lexer.Shl, lexer.Shr:
		return precShift
	case lexer.Plus, lexer.Minus:
		return precAdditive
	case lexer.Star, lexer.Slash, lexer.Percent:
		return precMultiplicative
	default:
		return precNone
	}
}

// isRightAssociative is true only for '=': every other binary operator in
// clonk is left-associative.
func isRightAssociative(k lexer.TokenKind) bool {
	return k == lexer.Assign
}

func isComparisonOp(k lexer.TokenKind) bool {
	switch k {
	case lexer.Eq, lexer.NotEq, lexer.Less, lexer.LessEq, lexer.Greater, lexer.GreaterEq:
		return true
	default:
		return false
	}
}
