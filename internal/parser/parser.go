// Package parser implements clonk's parser and embedded semantic checks.
//
// The language has one type (64-bit integer), so there is no separate type
// checker pass: the symbol table, lvalue rules, and call-arity table all
// live here, next to the recursive-descent statement grammar and the
// precedence-climbing expression grammar. This mirrors the spec's own
// description of the front end as "a Pratt-style operator-precedence
// expression parser joined to a recursive-descent statement parser, a
// scoped symbol table ... and lvalue/arity checks".
package parser

import (
	"fmt"
	"sort"

	"github.com/clonk-lang/clonk/internal/diag"
	"github.com/clonk-lang/clonk/internal/lexer"
	"github.com/clonk-lang/clonk/internal/parser/ast"
	"github.com/clonk-lang/clonk/internal/symtab"
)

// Parser parses one source file's worth of function definitions into a
// Program, reporting lexical, syntactic, and semantic diagnostics into a
// shared diag.Bag as it goes.
type Parser struct {
	ts    *lexer.TokenStream
	diags *diag.Bag
	table *symtab.Table

	nextIdentID int

	// callArgCount records the argument count clonk saw the first time a
	// function name was called, keyed by name; used to flag arity mismatches
	// across call sites and against the eventual definition.
	callArgCount map[string]int
	callFirstPos map[string]lexer.Position

	// defined records every function name that has been parsed, with its
	// parameter count, so externs can be computed once parsing finishes.
	defined map[string]int
}

// New creates a Parser reading from ts, reporting into diags.
func New(ts *lexer.TokenStream, diags *diag.Bag) *Parser {
	return &Parser{
		ts:           ts,
		diags:        diags,
		table:        symtab.New(),
		callArgCount: make(map[string]int),
		callFirstPos: make(map[string]lexer.Position),
		defined:      make(map[string]int),
	}
}

// ParseProgram parses every function definition until EOF.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.ts.Empty() {
		fn := p.parseFunction()
		if fn == nil {
			// parseFunction already reported a diagnostic; resynchronize at
			// the next plausible function start so one bad function doesn't
			// swallow the rest of the file.
			p.synchronize()
			continue
		}
		prog.Functions = append(prog.Functions, fn)
	}
	prog.Externs = p.computeExterns()
	return prog
}

func (p *Parser) computeExterns() []ast.Extern {
	var externs []ast.Extern
	// Walk callees in name order so externs and diagnostics come out in
	// the same order on every run.
	names := make([]string, 0, len(p.callArgCount))
	for name := range p.callArgCount {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		count := p.callArgCount[name]
		if defCount, ok := p.defined[name]; ok {
			if defCount != count {
				p.errorAt(p.callFirstPos[name], "arity mismatch: %s called with %d argument(s), defined with %d", name, count, defCount)
			}
			continue
		}
		externs = append(externs, ast.Extern{Name: name, ParamCount: count})
	}
	return externs
}

// synchronize skips tokens until the start of a plausible next function
// (any identifier; the token after it is not checked) or EOF.
func (p *Parser) synchronize() {
	for !p.ts.Empty() {
		if p.ts.Peek().Kind == lexer.Identifier {
			return
		}
		p.ts.Next()
	}
}

// --- token helpers -------------------------------------------------------

func (p *Parser) peek() lexer.Token { return p.ts.Peek() }

func (p *Parser) advance() lexer.Token { return p.ts.Next() }

func (p *Parser) at(k lexer.TokenKind) bool { return p.peek().Kind == k }

// expect consumes the next token if it has kind k, else reports an
// "unexpected token" diagnostic and returns the token anyway so parsing can
// keep going.
func (p *Parser) expect(k lexer.TokenKind, what string) lexer.Token {
	tok := p.peek()
	if tok.Kind != k {
		p.errorAt(tok.Pos, "unexpected token: expected %s, got %s", what, tok.Kind)
		return tok
	}
	return p.advance()
}

func (p *Parser) errorAt(pos lexer.Position, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.diags.Add(pos.Line, pos.Column(), p.ts.LineTextAt(pos), msg)
}

func (p *Parser) newIdent(pos lexer.Position, name string) *ast.Ident {
	p.nextIdentID++
	return &ast.Ident{IdentPos: pos, Name: name, ID: p.nextIdentID}
}

// --- top level ------------------------------------------------------------

// parseFunction parses: IDENT '(' paramlist ')' block
func (p *Parser) parseFunction() *ast.Function {
	nameTok := p.expect(lexer.Identifier, "function name")
	if nameTok.Kind != lexer.Identifier {
		return nil
	}
	name := nameTok.Name

	p.expect(lexer.LParen, "'('")
	params := p.parseParamList()
	p.expect(lexer.RParen, "')'")

	fn := &ast.Function{NamePos: nameTok.Pos, Name: name}

	// Parameters live one scope level deeper than the function itself; the
	// function's own top-level block is entered at that same depth, so a
	// same-named local declared directly in the body collides with a
	// parameter instead of shadowing it.
	for _, param := range params {
		renamed, err := p.table.DeclareParam(param.Name, param.IdentPos)
		if err != nil {
			p.errorAt(param.IdentPos, "duplicate parameter %s", param.Name)
			continue
		}
		param.Name = renamed
	}
	fn.Params = params

	p.table.EnterScope()
	var autoLocals []string
	fn.Body = p.parseBlockBody(&autoLocals)
	fn.AutoLocals = autoLocals
	p.table.LeaveScope()

	p.defined[name] = len(params)
	return fn
}

// parseParamList parses: (IDENT (',' IDENT)*)? and rejects duplicate names
// within the list itself (DeclareParam, called by the caller, does no
// duplicate check of its own; it records every parameter it is given).
func (p *Parser) parseParamList() []*ast.Ident {
	var params []*ast.Ident
	if p.at(lexer.RParen) {
		return params
	}
	seen := make(map[string]bool)
	for {
		tok := p.expect(lexer.Identifier, "parameter name")
		if tok.Kind == lexer.Identifier {
			if seen[tok.Name] {
				p.errorAt(tok.Pos, "duplicate parameter %s", tok.Name)
			}
			seen[tok.Name] = true
			params = append(params, p.newIdent(tok.Pos, tok.Name))
		}
		if !p.at(lexer.Comma) {
			break
		}
		p.advance()
	}
	return params
}

// --- statements ------------------------------------------------------------

// parseBlockBody parses the '{' declstmt* '}' body of a block without
// entering or leaving a symtab scope itself; callers that introduce a new
// lexical scope (parseBlock) bracket this with EnterScope/LeaveScope.
func (p *Parser) parseBlockBody(autoLocals *[]string) *ast.Block {
	bracePos := p.expect(lexer.LBrace, "'{'").Pos
	block := &ast.Block{BracePos: bracePos}
	for !p.at(lexer.RBrace) && !p.ts.Empty() {
		stmt := p.parseDeclStmt(autoLocals)
		if stmt == nil {
			continue
		}
		// A return mid-block does not stop parsing here: the grammar still
		// accepts trailing statements (the IR builder is what skips lowering
		// them, per the control-flow lowering rule).
		block.Stmts = append(block.Stmts, stmt)
	}
	p.expect(lexer.RBrace, "'}'")
	return block
}

// parseBlock parses a standalone nested block, introducing its own scope.
func (p *Parser) parseBlock(autoLocals *[]string) *ast.Block {
	p.table.EnterScope()
	block := p.parseBlockBody(autoLocals)
	p.table.LeaveScope()
	return block
}

func (p *Parser) parseDeclStmt(autoLocals *[]string) ast.Stmt {
	switch p.peek().Kind {
	case lexer.KwAuto, lexer.KwRegister:
		return p.parseDecl(autoLocals)
	default:
		return p.parseStmt(autoLocals)
	}
}

// parseDecl parses: ('auto'|'register') IDENT '=' expr ';'
func (p *Parser) parseDecl(autoLocals *[]string) ast.Stmt {
	kindTok := p.advance()
	kind := ast.Auto
	isRegister := kindTok.Kind == lexer.KwRegister
	if isRegister {
		kind = ast.Register
	}

	nameTok := p.expect(lexer.Identifier, "identifier")
	p.expect(lexer.Assign, "'='")
	init := p.parseExpr(precAssign)
	p.expect(lexer.Semi, "';'")

	if nameTok.Kind != lexer.Identifier {
		return nil
	}

	renamed, err := p.table.Declare(nameTok.Name, nameTok.Pos, isRegister)
	if err != nil {
		p.errorAt(nameTok.Pos, "%s", err.Error())
		renamed = nameTok.Name
	}
	if !isRegister {
		*autoLocals = append(*autoLocals, renamed)
	}

	ident := p.newIdent(nameTok.Pos, renamed)
	return &ast.Decl{DeclPos: kindTok.Pos, Kind: kind, Ident: ident, Init: init}
}

func (p *Parser) parseStmt(autoLocals *[]string) ast.Stmt {
	switch p.peek().Kind {
	case lexer.KwReturn:
		return p.parseReturn()
	case lexer.KwIf:
		return p.parseIf(autoLocals)
	case lexer.KwWhile:
		return p.parseWhile(autoLocals)
	case lexer.LBrace:
		return p.parseBlock(autoLocals)
	default:
		return p.parseExprStmt()
	}
}

// parseReturn parses: 'return' expr? ';'
func (p *Parser) parseReturn() ast.Stmt {
	pos := p.advance().Pos
	var expr ast.Expr
	if !p.at(lexer.Semi) {
		expr = p.parseExpr(precAssign)
	}
	p.expect(lexer.Semi, "';'")
	return &ast.Return{ReturnPos: pos, Expr: expr}
}

// parseIf parses: 'if' '(' expr ')' stmt ('else' stmt)?
func (p *Parser) parseIf(autoLocals *[]string) ast.Stmt {
	pos := p.advance().Pos
	p.expect(lexer.LParen, "'('")
	cond := p.parseExpr(precAssign)
	p.expect(lexer.RParen, "')'")
	then := p.parseStmt(autoLocals)

	var elseStmt ast.Stmt
	if p.at(lexer.KwElse) {
		p.advance()
		elseStmt = p.parseStmt(autoLocals)
	}
	return &ast.If{IfPos: pos, Cond: cond, Then: then, Else: elseStmt}
}

// parseWhile parses: 'while' '(' expr ')' stmt
func (p *Parser) parseWhile(autoLocals *[]string) ast.Stmt {
	pos := p.advance().Pos
	p.expect(lexer.LParen, "'('")
	cond := p.parseExpr(precAssign)
	p.expect(lexer.RParen, "')'")
	body := p.parseStmt(autoLocals)
	return &ast.While{WhilePos: pos, Cond: cond, Body: body}
}

func (p *Parser) parseExprStmt() ast.Stmt {
	expr := p.parseExpr(precAssign)
	p.expect(lexer.Semi, "';'")
	return &ast.ExprStmt{Expr: expr}
}

// --- expressions -----------------------------------------------------------

// parseExpr implements precedence climbing: read a term, then fold in
// binary operators whose precedence is at least minPrec, parsing each
// right operand with the operator's own precedence plus one for
// left-associative operators, and with the operator's own precedence for
// the right-associative '='.
func (p *Parser) parseExpr(minPrec precedence) ast.Expr {
	left := p.parseTerm()

	for {
		opTok := p.peek()
		prec := binaryPrecedence(opTok.Kind)
		if prec == precNone || prec < minPrec {
			break
		}
		p.advance()

		var right ast.Expr
		if isRightAssociative(opTok.Kind) {
			right = p.parseExpr(prec)
		} else {
			right = p.parseExpr(prec + 1)
		}

		if opTok.Kind == lexer.Assign && !ast.IsLvalue(left) {
			p.errorAt(opTok.Pos, "cannot assign to rvalue")
		}

		left = &ast.BinOp{OpPos: opTok.Pos, Op: opTok.Kind, Left: left, Right: right}
	}
	return left
}

// parseTerm handles unary prefixes (which bind tighter than any binary
// operator) and then a primary expression with trailing index chains.
func (p *Parser) parseTerm() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Minus, lexer.Not, lexer.BitNot, lexer.BitAnd:
		p.advance()
		operand := p.parseTerm()
		if tok.Kind == lexer.BitAnd {
			p.checkAddressable(tok.Pos, operand)
		}
		return &ast.UnOp{OpPos: tok.Pos, Op: tok.Kind, Expr: operand}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

// checkAddressable enforces that '&' only applies to an lvalue, and not to
// a register-declared variable or a function parameter.
func (p *Parser) checkAddressable(ampPos lexer.Position, operand ast.Expr) {
	ident, ok := operand.(*ast.Ident)
	if !ok {
		if !ast.IsLvalue(operand) {
			p.errorAt(ampPos, "'&' requires an lvalue")
		}
		return
	}
	entry, found := p.table.Lookup(ident.Name)
	if found && (entry.IsRegister || entry.IsParam) {
		p.errorAt(ampPos, "cannot take the address of register variable or parameter %s", ident.Name)
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case lexer.LParen:
		p.advance()
		expr := p.parseExpr(precAssign)
		p.expect(lexer.RParen, "')'")
		return expr
	case lexer.Integer:
		p.advance()
		return &ast.IntLit{LitPos: tok.Pos, Value: tok.IntValue}
	case lexer.Identifier:
		p.advance()
		if p.at(lexer.LParen) {
			return p.parseCall(tok)
		}
		return p.resolveIdent(tok)
	default:
		p.errorAt(tok.Pos, "unexpected token: expected expression, got %s", tok.Kind)
		p.advance()
		return &ast.IntLit{LitPos: tok.Pos, Value: 0}
	}
}

// resolveIdent parses a bare identifier used as a value; the name must
// already be in scope.
func (p *Parser) resolveIdent(tok lexer.Token) ast.Expr {
	entry, ok := p.table.Lookup(tok.Name)
	if !ok {
		p.errorAt(tok.Pos, "unknown identifier %s", tok.Name)
		return p.newIdent(tok.Pos, tok.Name)
	}
	return p.newIdent(tok.Pos, entry.Name)
}

// parseCall parses: IDENT '(' (expr (',' expr)*)? ')'
func (p *Parser) parseCall(nameTok lexer.Token) ast.Expr {
	p.advance() // '('
	var args []ast.Expr
	if !p.at(lexer.RParen) {
		for {
			args = append(args, p.parseExpr(precAssign))
			if !p.at(lexer.Comma) {
				break
			}
			p.advance()
		}
	}
	p.expect(lexer.RParen, "')'")

	p.checkArity(nameTok.Pos, nameTok.Name, len(args))
	return &ast.Call{CallPos: nameTok.Pos, Callee: nameTok.Name, Args: args}
}

func (p *Parser) checkArity(pos lexer.Position, name string, argc int) {
	if prev, ok := p.callArgCount[name]; ok {
		if prev != argc {
			p.errorAt(pos, "arity mismatch: %s called with %d argument(s), previously called with %d", name, argc, prev)
		}
		return
	}
	p.callArgCount[name] = argc
	p.callFirstPos[name] = pos
}

// parsePostfix parses zero or more trailing '[' expr ']' ('@' N)? indexings.
func (p *Parser) parsePostfix(e ast.Expr) ast.Expr {
	for p.at(lexer.LBracket) {
		bracketPos := p.advance().Pos
		idx := p.parseExpr(precAssign)
		p.expect(lexer.RBracket, "']'")

		size := 8
		if p.at(lexer.At) {
			p.advance()
			sizeTok := p.expect(lexer.Integer, "size specifier")
			if sizeTok.Kind == lexer.Integer {
				if !ast.ValidSizes[sizeTok.IntValue] {
					p.errorAt(sizeTok.Pos, "invalid size specifier @%d: must be 1, 2, 4, or 8", sizeTok.IntValue)
				} else {
					size = int(sizeTok.IntValue)
				}
			}
		}
		e = &ast.Index{BracketPos: bracketPos, Base: e, IndexExpr: idx, Size: size}
	}
	return e
}
