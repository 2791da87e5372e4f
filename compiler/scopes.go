package compiler

import (
	"github.com/thiremani/redscript/parser"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
)

type ScopeKind int

const (
	FuncScope ScopeKind = iota
	ModuleScope
	IfScope
	ElifScope
	ElseScope
	BlockScope
)

var scopeKinds = [...]string{
	FuncScope:   "method body",
	ModuleScope: "module body",
	IfScope:     "if block",
	ElifScope:   "elif block",
	ElseScope:   "else block",
	BlockScope:  "block",
}

func (k ScopeKind) String() string { return scopeKinds[k] }

// Scope is one open '{'.
type Scope struct {
	Kind  ScopeKind
	Token token.Token
}

// PushScope opens a scope at tok and enters one level deeper.
func (c *Compiler) PushScope(sk ScopeKind, tok token.Token) error {
	if c.depth >= parser.MaxDepth {
		return token.Errorf(token.SyntaxError, tok, "nesting deeper than %d levels", parser.MaxDepth)
	}
	c.scopes = append(c.scopes, Scope{Kind: sk, Token: tok})
	c.depth++
	return nil
}

// PopScope closes the innermost scope, retiring every variable declared in it.
func (c *Compiler) PopScope(tok token.Token) (Scope, error) {
	if len(c.scopes) == 0 {
		return Scope{}, token.Errorf(token.SyntaxError, tok, "unmatched '}'")
	}
	s := c.scopes[len(c.scopes)-1]
	c.retireVariables(c.depth)
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.depth--
	return s, nil
}

func (c *Compiler) innermost() (Scope, bool) {
	if len(c.scopes) == 0 {
		return Scope{}, false
	}
	return c.scopes[len(c.scopes)-1], true
}

func (c *Compiler) inModuleBody() bool {
	s, ok := c.innermost()
	return ok && s.Kind == ModuleScope
}

// openBlock handles a plain '{' statement.
func (c *Compiler) openBlock() error {
	tok := c.cur.Cur()
	c.cur.Next()
	if err := c.PushScope(BlockScope, tok); err != nil {
		return err
	}
	c.emit(rbc.Instruction{Op: rbc.INC, Token: tok})
	return nil
}

// closeScope handles '}'. Closing an if or elif block decides whether the
// conditional chain continues with elif/else or ends with ENDIF.
func (c *Compiler) closeScope() error {
	tok := c.cur.Cur()
	c.cur.Next()
	s, err := c.PopScope(tok)
	if err != nil {
		return err
	}

	switch s.Kind {
	case BlockScope:
		c.emit(rbc.Instruction{Op: rbc.DEC, Token: tok})
	case FuncScope:
		return c.closeFunction(tok)
	case ModuleScope:
		c.modules = c.modules[:len(c.modules)-1]
	case IfScope, ElifScope:
		switch c.cur.Cur().Type {
		case token.KW_ELIF:
			return c.compileElif()
		case token.KW_ELSE:
			return c.compileElse()
		}
		c.emit(rbc.Instruction{Op: rbc.ENDIF, Token: tok})
	case ElseScope:
		c.emit(rbc.Instruction{Op: rbc.ENDIF, Token: tok})
	}
	return nil
}
