package parser

import (
	"github.com/thiremani/redscript/token"
)

// MaxDepth bounds bracket and scope nesting.
const MaxDepth = 256

// Cursor is the shared read position over a token stream. The expression
// builder and the statement scanner advance the same Cursor.
type Cursor struct {
	Tokens []token.Token
	Pos    int
	depth  int
}

func NewCursor(tokens []token.Token) *Cursor {
	return &Cursor{Tokens: tokens}
}

func (c *Cursor) Done() bool {
	return c.Pos >= len(c.Tokens)
}

// Cur returns the current token, or an EOF token placed just after the
// last token once the stream is exhausted.
func (c *Cursor) Cur() token.Token {
	return c.at(c.Pos)
}

func (c *Cursor) Peek() token.Token {
	return c.at(c.Pos + 1)
}

func (c *Cursor) PeekN(n int) token.Token {
	return c.at(c.Pos + n)
}

func (c *Cursor) at(i int) token.Token {
	if i < len(c.Tokens) {
		return c.Tokens[i]
	}
	if len(c.Tokens) == 0 {
		return token.Token{Type: token.EOF, Line: 1, Column: 1}
	}
	last := c.Tokens[len(c.Tokens)-1]
	return token.Token{
		Type:     token.EOF,
		FileName: last.FileName,
		Line:     last.Line,
		Column:   last.Column + len([]rune(last.Literal)),
		Offset:   last.Offset + len(last.Literal),
	}
}

func (c *Cursor) Next() {
	if c.Pos < len(c.Tokens) {
		c.Pos++
	}
}

func (c *Cursor) CurIs(tt token.TokenType) bool {
	return c.Cur().Type == tt
}

func (c *Cursor) PeekIs(tt token.TokenType) bool {
	return c.Peek().Type == tt
}

// CurSym reports whether the current token is the SYMBOL sym.
func (c *Cursor) CurSym(sym string) bool {
	return c.Cur().Is(token.SYMBOL, sym)
}

func (c *Cursor) PeekSym(sym string) bool {
	return c.Peek().Is(token.SYMBOL, sym)
}

// Expect consumes the current token if it has type tt.
func (c *Cursor) Expect(tt token.TokenType, what string) (token.Token, error) {
	tok := c.Cur()
	if tok.Type != tt {
		return tok, c.Unexpected(tok, what)
	}
	c.Next()
	return tok, nil
}

// ExpectSym consumes the current token if it is the SYMBOL sym.
func (c *Cursor) ExpectSym(sym string) (token.Token, error) {
	tok := c.Cur()
	if !tok.Is(token.SYMBOL, sym) {
		return tok, c.Unexpected(tok, "'"+sym+"'")
	}
	c.Next()
	return tok, nil
}

// Unexpected builds the error for tok appearing where what was expected.
// An EOF token yields an EOFError so callers such as the REPL can ask for
// more input.
func (c *Cursor) Unexpected(tok token.Token, what string) *token.CompileError {
	if tok.Type == token.EOF {
		return token.Errorf(token.EOFError, tok, "expected %s", what)
	}
	return token.Errorf(token.SyntaxError, tok, "expected %s, got '%s'", what, describe(tok))
}

// Enter records one more level of nesting at tok.
func (c *Cursor) Enter(tok token.Token) error {
	if c.depth >= MaxDepth {
		return token.Errorf(token.SyntaxError, tok, "nesting deeper than %d levels", MaxDepth)
	}
	c.depth++
	return nil
}

func (c *Cursor) Leave() {
	if c.depth > 0 {
		c.depth--
	}
}

func (c *Cursor) Depth() int {
	return c.depth
}

func describe(tok token.Token) string {
	if tok.Literal != "" {
		return tok.Literal
	}
	return tok.Type.String()
}
