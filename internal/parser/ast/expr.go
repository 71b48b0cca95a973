package ast

import "github.com/clonk-lang/clonk/internal/lexer"

// BinOp is op(Left, Right). Op is the lexer token kind of the operator
// (lexer.Plus, lexer.Star, ...); the parser has already resolved precedence
// and associativity by the time a BinOp node exists.
type BinOp struct {
	OpPos lexer.Position
	Op    lexer.TokenKind
	Left  Expr
	Right Expr
}

func (b *BinOp) Pos() lexer.Position { return b.Left.Pos() }
func (b *BinOp) exprNode()           {}

// UnOp is a prefix unary operator (-, !, ~, &) applied to Expr.
type UnOp struct {
	OpPos lexer.Position
	Op    lexer.TokenKind
	Expr  Expr
}

func (u *UnOp) Pos() lexer.Position { return u.OpPos }
func (u *UnOp) exprNode()           {}

// IntLit is a literal 64-bit unsigned integer.
type IntLit struct {
	LitPos lexer.Position
	Value  uint64
}

func (i *IntLit) Pos() lexer.Position { return i.LitPos }
func (i *IntLit) exprNode()           {}

// Ident names a variable or function. ID is a monotonically increasing
// integer assigned when the node is constructed: two Ident nodes spelling
// the same name are distinct references with distinct IDs. No later stage
// reads ID; the IR builder keys variables by Name, which the parser's
// renaming makes unique per declaration. Name may differ from the
// identifier's textual spelling in source when the parser has renamed it to
// disambiguate a shadowing 'auto'/'register' declaration (see
// symtab.Table.Declare).
type Ident struct {
	IdentPos lexer.Position
	Name     string
	ID       int
}

func (i *Ident) Pos() lexer.Position { return i.IdentPos }
func (i *Ident) exprNode()           {}

// ValidSizes enumerates the allowed index size specifiers.
var ValidSizes = map[uint64]bool{1: true, 2: true, 4: true, 8: true}

// Index is a[Index]@Size: dereference Base as a pointer to an integer of
// Size bytes, offset by Index elements.
type Index struct {
	BracketPos lexer.Position
	Base       Expr
	IndexExpr  Expr
	Size       int // 1, 2, 4, or 8; defaults to 8 when no '@N' was written
}

func (x *Index) Pos() lexer.Position { return x.Base.Pos() }
func (x *Index) exprNode()           {}

// Call is callee(Args...). Callee names a not-yet-resolved function; arity
// checking happens in the parser, not here.
type Call struct {
	CallPos lexer.Position
	Callee  string
	Args    []Expr
}

func (c *Call) Pos() lexer.Position { return c.CallPos }
func (c *Call) exprNode()           {}
