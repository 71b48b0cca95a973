package ir

import (
	"github.com/clonk-lang/clonk/internal/lexer"
	"github.com/clonk-lang/clonk/internal/parser/ast"
)

// constCondition tries to evaluate e entirely at compile time, the way
// the component design's constant-folding pass evaluates chains of
// literal arithmetic; it never touches the builder's current block, so
// it is safe to call speculatively before deciding how to lower an
// if/while condition. Any Ident, Call, or Index makes the expression
// non-constant.
func constCondition(e ast.Expr) (int64, bool) {
	switch ex := e.(type) {
	case *ast.IntLit:
		return int64(ex.Value), true
	case *ast.UnOp:
		v, ok := constCondition(ex.Expr)
		if !ok {
			return 0, false
		}
		switch ex.Op {
		case lexer.Minus:
			return -v, true
		case lexer.Not:
			return boolToI64(v == 0), true
		case lexer.BitNot:
			return ^v, true
		default:
			return 0, false
		}
	case *ast.BinOp:
		if ex.Op == lexer.Assign {
			return 0, false
		}
		l, ok := constCondition(ex.Left)
		if !ok {
			return 0, false
		}
		r, ok := constCondition(ex.Right)
		if !ok {
			return 0, false
		}
		return foldBinOp(ex.Op, l, r)
	default:
		return 0, false
	}
}

func boolToI64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func foldBinOp(op lexer.TokenKind, l, r int64) (int64, bool) {
	switch op {
	case lexer.Plus:
		return l + r, true
	case lexer.Minus:
		return l - r, true
	case lexer.Star:
		return l * r, true
	case lexer.Slash:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case lexer.Percent:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case lexer.BitAnd:
		return l & r, true
	case lexer.BitOr:
		return l | r, true
	case lexer.BitXor:
		return l ^ r, true
	case lexer.Shl:
		return l << uint64(r), true
	case lexer.Shr:
		return l >> uint64(r), true
	case lexer.Eq:
		return boolToI64(l == r), true
	case lexer.NotEq:
		return boolToI64(l != r), true
	case lexer.Less:
		return boolToI64(l < r), true
	case lexer.LessEq:
		return boolToI64(l <= r), true
	case lexer.Greater:
		return boolToI64(l > r), true
	case lexer.GreaterEq:
		return boolToI64(l >= r), true
	case lexer.And:
		return boolToI64(l != 0 && r != 0), true
	case lexer.Or:
		return boolToI64(l != 0 || r != 0), true
	default:
		return 0, false
	}
}
