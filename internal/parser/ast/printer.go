package ast

import (
	"strconv"
	"strings"

	"github.com/clonk-lang/clonk/internal/lexer"
)

// opName renders a binary or unary operator token as it appears in the
// S-expression dump, e.g. lexer.Plus -> "+".
func opName(op lexer.TokenKind) string {
	return op.String()
}

// PrintExpr renders e as an S-expression, per the fixed layouts in the
// external interfaces section: literals and identifiers print bare,
// binary/unary operators as prefix forms, calls as "(function call NAME
// ARG...)", and indices as "([] ARRAY INDEX@SIZE)".
func PrintExpr(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *IntLit:
		b.WriteString(strconv.FormatUint(n.Value, 10))
	case *Ident:
		b.WriteString(n.Name)
	case *BinOp:
		b.WriteByte('(')
		b.WriteString(opName(n.Op))
		b.WriteByte(' ')
		writeExpr(b, n.Left)
		b.WriteByte(' ')
		writeExpr(b, n.Right)
		b.WriteByte(')')
	case *UnOp:
		b.WriteByte('(')
		b.WriteString(opName(n.Op))
		b.WriteByte(' ')
		writeExpr(b, n.Expr)
		b.WriteByte(')')
	case *Call:
		b.WriteString("(function call ")
		b.WriteString(n.Callee)
		for _, arg := range n.Args {
			b.WriteByte(' ')
			writeExpr(b, arg)
		}
		b.WriteByte(')')
	case *Index:
		b.WriteString("([] ")
		writeExpr(b, n.Base)
		b.WriteByte(' ')
		writeExpr(b, n.IndexExpr)
		b.WriteByte('@')
		b.WriteString(strconv.Itoa(n.Size))
		b.WriteByte(')')
	default:
		b.WriteString("(unknown-expr)")
	}
}

// PrintStmt renders s as an S-expression.
func PrintStmt(s Stmt) string {
	var b strings.Builder
	writeStmt(&b, s)
	return b.String()
}

func writeStmt(b *strings.Builder, s Stmt) {
	switch n := s.(type) {
	case *Decl:
		b.WriteString("(decl ")
		b.WriteString(n.Ident.Name)
		b.WriteByte(' ')
		writeExpr(b, n.Init)
		b.WriteByte(')')
	case *If:
		b.WriteString("(if ")
		writeExpr(b, n.Cond)
		b.WriteByte(' ')
		writeStmt(b, n.Then)
		if n.Else != nil {
			b.WriteString(" (else ")
			writeStmt(b, n.Else)
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case *While:
		b.WriteString("(while ")
		writeExpr(b, n.Cond)
		b.WriteByte(' ')
		writeStmt(b, n.Body)
		b.WriteByte(')')
	case *Return:
		b.WriteString("(return")
		if n.Expr != nil {
			b.WriteByte(' ')
			writeExpr(b, n.Expr)
		}
		b.WriteByte(')')
	case *Block:
		b.WriteString("(block")
		for _, stmt := range n.Stmts {
			b.WriteByte(' ')
			writeStmt(b, stmt)
		}
		b.WriteByte(')')
	case *ExprStmt:
		b.WriteString("(expr statement ")
		writeExpr(b, n.Expr)
		b.WriteByte(')')
	default:
		b.WriteString("(unknown-stmt)")
	}
}

// PrintFunction renders a function definition as an S-expression.
func PrintFunction(f *Function) string {
	var b strings.Builder
	b.WriteString("(function ")
	b.WriteString(f.Name)
	b.WriteString(" (params")
	for _, p := range f.Params {
		b.WriteByte(' ')
		b.WriteString(p.Name)
	}
	b.WriteString(") ")
	writeStmt(&b, f.Body)
	b.WriteByte(')')
	return b.String()
}

// PrintProgram renders every function in the program, one per line.
func PrintProgram(p *Program) string {
	var b strings.Builder
	for i, fn := range p.Functions {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(PrintFunction(fn))
	}
	return b.String()
}
