package lexer

import (
	"strings"

	"github.com/clonk-lang/clonk/internal/diag"
)

// TokenStream is a single-pass, one-token-lookahead tokenizer over a source
// buffer held by reference. Identifier payloads are borrowed slices of the
// input, so tokenizing never allocates beyond the occasional Token value.
type TokenStream struct {
	src      string
	filename string
	diags    *diag.Bag

	offset    int
	line      int
	lineStart int

	lookahead    *Token
	lastPos      Position
	lastLineText string
}

// New creates a TokenStream over src. Diagnostics raised while scanning are
// recorded in diags.
func New(src, filename string, diags *diag.Bag) *TokenStream {
	return &TokenStream{
		src:       src,
		filename:  filename,
		diags:     diags,
		line:      1,
		lineStart: 0,
	}
}

// Pos returns the position of the token most recently returned by peek or
// next.
func (l *TokenStream) Pos() Position {
	return l.lastPos
}

// LineText returns the full text of the line containing the most recently
// produced position, for diagnostic rendering.
func (l *TokenStream) LineText() string {
	return l.lastLineText
}

// Peek returns the next token without consuming it.
func (l *TokenStream) Peek() Token {
	if l.lookahead == nil {
		tok := l.scan()
		l.lookahead = &tok
	}
	l.recordPos(l.lookahead.Pos)
	return *l.lookahead
}

// Next returns and consumes the next token.
func (l *TokenStream) Next() Token {
	if l.lookahead != nil {
		tok := *l.lookahead
		l.lookahead = nil
		l.recordPos(tok.Pos)
		return tok
	}
	tok := l.scan()
	l.recordPos(tok.Pos)
	return tok
}

// Empty reports whether the stream is exhausted.
func (l *TokenStream) Empty() bool {
	return l.Peek().Kind == EOF
}

// LineTextAt returns the full text of the line containing pos, usable for
// any position the stream has produced (peeked or consumed), without
// disturbing the cursor used by Pos/LineText.
func (l *TokenStream) LineTextAt(pos Position) string {
	end := strings.IndexByte(l.src[pos.LineStart:], '\n')
	if end < 0 {
		return l.src[pos.LineStart:]
	}
	return l.src[pos.LineStart : pos.LineStart+end]
}

func (l *TokenStream) recordPos(pos Position) {
	l.lastPos = pos
	l.lastLineText = l.LineTextAt(pos)
}

func (l *TokenStream) here() Position {
	return Position{Line: l.line, LineStart: l.lineStart, Offset: l.offset}
}

func (l *TokenStream) peekByte() byte {
	if l.offset >= len(l.src) {
		return 0
	}
	return l.src[l.offset]
}

func (l *TokenStream) peekByteAt(delta int) byte {
	if l.offset+delta >= len(l.src) {
		return 0
	}
	return l.src[l.offset+delta]
}

func (l *TokenStream) advance() byte {
	b := l.src[l.offset]
	l.offset++
	if b == '\n' {
		l.line++
		l.lineStart = l.offset
	}
	return b
}

// skipTrivia consumes whitespace and line comments between tokens.
func (l *TokenStream) skipTrivia() {
	for l.offset < len(l.src) {
		b := l.peekByte()
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()
		case b == '/' && l.peekByteAt(1) == '/':
			for l.offset < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
func isAlnum(b byte) bool { return isAlpha(b) || isDigit(b) }

// scan produces the next token, ignoring the lookahead buffer.
func (l *TokenStream) scan() Token {
	l.skipTrivia()
	start := l.here()

	if l.offset >= len(l.src) {
		return Token{Kind: EOF, Pos: start}
	}

	b := l.peekByte()

	switch {
	case isDigit(b):
		return l.scanNumber(start)
	case isAlpha(b):
		return l.scanIdentifier(start)
	}

	l.advance()
	kind, ok := l.scanOperator(b)
	if !ok {
		l.reportUnknownToken(start, b)
		// Unknown tokens are fatal: lexing stops here, and every later
		// scan yields EOF.
		for l.offset < len(l.src) {
			l.advance()
		}
		return Token{Kind: Invalid, Pos: start}
	}
	return Token{Kind: kind, Pos: start}
}

func (l *TokenStream) scanNumber(start Position) Token {
	var value uint64
	for l.offset < len(l.src) && isDigit(l.peekByte()) {
		value = value*10 + uint64(l.advance()-'0')
	}
	return Token{Kind: Integer, IntValue: value, Pos: start}
}

func (l *TokenStream) scanIdentifier(start Position) Token {
	begin := l.offset
	for l.offset < len(l.src) && isAlnum(l.peekByte()) {
		l.advance()
	}
	name := l.src[begin:l.offset]
	kind := LookupKeyword(name)
	if kind == Identifier {
		return Token{Kind: Identifier, Name: name, Pos: start}
	}
	return Token{Kind: kind, Pos: start}
}

// scanOperator disambiguates every operator/punctuation token using at most
// one byte of lookahead, per the rule in the component design.
func (l *TokenStream) scanOperator(b byte) (TokenKind, bool) {
	two := func(next byte, withNext, without TokenKind) TokenKind {
		if l.peekByte() == next {
			l.advance()
			return withNext
		}
		return without
	}

	switch b {
	case '=':
		return two('=', Eq, Assign), true
	case '!':
		return two('=', NotEq, Not), true
	case '<':
		if l.peekByte() == '<' {
			l.advance()
			return Shl, true
		}
		return two('=', LessEq, Less), true
	case '>':
		if l.peekByte() == '>' {
			l.advance()
			return Shr, true
		}
		return two('=', GreaterEq, Greater), true
	case '&':
		return two('&', And, BitAnd), true
	case '|':
		return two('|', Or, BitOr), true
	case '+':
		return Plus, true
	case '-':
		return Minus, true
	case '*':
		return Star, true
	case '/':
		return Slash, true
	case '%':
		return Percent, true
	case '^':
		return BitXor, true
	case '~':
		return BitNot, true
	case '(':
		return LParen, true
	case ')':
		return RParen, true
	case '{':
		return LBrace, true
	case '}':
		return RBrace, true
	case '[':
		return LBracket, true
	case ']':
		return RBracket, true
	case '@':
		return At, true
	case ',':
		return Comma, true
	case ';':
		return Semi, true
	default:
		return Invalid, false
	}
}

func (l *TokenStream) reportUnknownToken(pos Position, b byte) {
	l.recordPos(pos)
	l.diags.AddFatal(pos.Line, pos.Column(), l.lastLineText,
		"unknown token '"+string(b)+"'")
}
