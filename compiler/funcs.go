package compiler

import (
	"github.com/thiremani/redscript/ast"
	"github.com/thiremani/redscript/parser"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
	"github.com/thiremani/redscript/types"
)

type paramDecl struct {
	tok  token.Token
	info types.Info
}

// compileMethod parses
//
//	method name(p[: type], ...) [: type] [decorator ...] { body }
//	method name(p[: type], ...) [: type] [decorator ...];
//
// and opens the body. The body itself is compiled by the main scan until
// the matching '}' calls closeFunction.
func (c *Compiler) compileMethod() error {
	methodTok := c.cur.Cur()
	if s, ok := c.innermost(); ok && s.Kind != FuncScope && s.Kind != ModuleScope {
		return token.Errorf(token.SyntaxError, methodTok, "methods cannot be declared in this %s", s.Kind)
	}
	c.cur.Next()
	name, err := c.cur.Expect(token.WORD, "method name")
	if err != nil {
		return err
	}

	f := &rbc.Function{
		Name:       name.Literal,
		Token:      name,
		Scope:      c.depth,
		Parent:     rbc.None,
		Module:     rbc.None,
		ReturnType: types.Builtin(token.TypeAny),
	}
	switch {
	case c.inFunction():
		f.Parent = c.current().ID
		f.Module = c.current().Module
	case len(c.modules) > 0:
		f.Module = c.modules[len(c.modules)-1]
	}

	params, err := c.params()
	if err != nil {
		return err
	}
	if c.cur.CurSym(":") {
		c.cur.Next()
		if f.ReturnType, err = c.parseType(); err != nil {
			return err
		}
	}
	for c.cur.CurIs(token.WORD) {
		tok := c.cur.Cur()
		d, ok := rbc.LookupDecorator(tok.Literal)
		if !ok {
			return token.Errorf(token.SyntaxError, tok, "unknown decorator '%s'", tok.Literal)
		}
		f.Decorators |= d
		c.cur.Next()
	}
	if err := c.checkDecorators(f, params); err != nil {
		return err
	}
	if err := c.registerFunction(f); err != nil {
		return err
	}

	if c.cur.CurIs(token.LINE_END) {
		c.cur.Next()
		if !f.Decorators.Has(rbc.Inline) && !f.Decorators.Has(rbc.Extern) {
			return token.Errorf(token.SyntaxError, name, "method '%s' needs a body", f.Name)
		}
		for _, p := range params {
			c.Program.AddVariable(&rbc.Variable{Name: p.tok.Literal, Token: p.tok, Func: f.ID, Param: true, Type: p.info})
		}
		return nil
	}

	brace, err := c.cur.Expect(token.LBRACE, "'{' or ';'")
	if err != nil {
		return err
	}
	if f.Decorators.Has(rbc.Inline) {
		return token.Errorf(token.SyntaxError, brace, "inline method '%s' cannot have a body", f.Name)
	}
	if err := c.PushScope(FuncScope, brace); err != nil {
		return err
	}
	c.funcs = append(c.funcs, f.ID)
	f.HasBody = true
	for _, p := range params {
		if _, err := c.declareParam(f, p.tok, p.info); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) params() ([]paramDecl, error) {
	if _, err := c.cur.Expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	var params []paramDecl
	for !c.cur.CurIs(token.RPAREN) {
		tok, err := c.cur.Expect(token.WORD, "parameter name")
		if err != nil {
			return nil, err
		}
		p := paramDecl{tok: tok, info: types.Builtin(token.TypeAny)}
		if c.cur.CurSym(":") {
			c.cur.Next()
			if p.info, err = c.parseType(); err != nil {
				return nil, err
			}
		}
		params = append(params, p)

		if c.cur.CurSym(",") {
			c.cur.Next()
			continue
		}
		if !c.cur.CurIs(token.RPAREN) {
			return nil, c.cur.Unexpected(c.cur.Cur(), "',' or ')'")
		}
	}
	c.cur.Next()
	return params, nil
}

func (c *Compiler) checkDecorators(f *rbc.Function, params []paramDecl) error {
	d := f.Decorators
	if (d.Has(rbc.Tick) || d.Has(rbc.Load)) && len(params) > 0 {
		return token.Errorf(token.SyntaxError, f.Token, "tick and load methods cannot take parameters")
	}
	if d.Has(rbc.Inline) {
		native, ok := Builtins[f.Name]
		if !ok {
			return token.Errorf(token.UnsupportedError, f.Token, "no native implementation for inline method '%s'", f.Name)
		}
		if len(native.Params) != len(params) {
			return token.Errorf(token.SyntaxError, f.Token, "inline method '%s' takes %d parameter(s)", f.Name, len(native.Params))
		}
		if d.Has(rbc.Tick) || d.Has(rbc.Load) || d.Has(rbc.Extern) {
			return token.Errorf(token.SyntaxError, f.Token, "inline method '%s' cannot be %s", f.Name, d&^rbc.Inline&^rbc.NoReturn)
		}
	}
	return nil
}

// closeFunction ends the innermost method body.
func (c *Compiler) closeFunction(tok token.Token) error {
	if !c.inFunction() {
		return token.Internal(tok, "method body closed with no open method")
	}
	c.funcs = c.funcs[:len(c.funcs)-1]
	return nil
}

// atCall reports whether the cursor starts a call: `name(` or `Mod::`.
func (c *Compiler) atCall() bool {
	return c.cur.CurIs(token.WORD) && (c.cur.PeekIs(token.LPAREN) || c.cur.PeekSym("::"))
}

// compileCallStatement handles `f(args);` and `Mod::f(args);`.
func (c *Compiler) compileCallStatement() error {
	if _, err := c.compileCall(); err != nil {
		return err
	}
	return c.expectEnd()
}

// compileCall emits the call sequence for the call at the cursor: one PUSH
// per argument in order, CALL, then one POP per argument in reverse order
// unless the callee is inline.
func (c *Compiler) compileCall() (*rbc.Function, error) {
	callee, nameTok, err := c.resolveCallee()
	if err != nil {
		return nil, err
	}
	if _, err := c.cur.Expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}

	var args []*ast.Expression
	for !c.cur.CurIs(token.RPAREN) {
		expr, err := parser.ParseExpression(c.cur, c, parser.Options{InObject: true})
		if err != nil {
			return nil, err
		}
		args = append(args, expr)
		if c.cur.CurSym(",") {
			c.cur.Next()
			continue
		}
		if !c.cur.CurIs(token.RPAREN) {
			return nil, c.cur.Unexpected(c.cur.Cur(), "',' or ')'")
		}
	}
	c.cur.Next()

	if len(args) != len(callee.Params) {
		return nil, token.Errorf(token.SyntaxError, nameTok, "'%s' takes %d argument(s), got %d", callee.Name, len(callee.Params), len(args))
	}

	// inline expansion reads the pushed values directly, so their
	// registers stay claimed until the call is emitted
	inline := callee.Decorators.Has(rbc.Inline)
	var kept []rbc.RegisterRef
	for i, arg := range args {
		param := c.Program.Var(callee.Params[i])
		v, held, err := c.valueFor(arg, param.Type)
		if err != nil {
			return nil, err
		}
		if !param.Type.Accepts(c.typeOf(v)) {
			return nil, token.Errorf(token.SyntaxError, arg.Tok(), "argument '%s' of '%s' must be %s", param.Name, callee.Name, param.Type)
		}
		operands := []rbc.Value{v}
		if s, ok := v.(rbc.Constant); ok && inline && s.Kind == token.STRING {
			// message markers, resolved here while the call site scope is open
			operands = append(operands, c.formatIdentifiers(s.Text)...)
		}
		c.emit(rbc.Instruction{Op: rbc.PUSH, Token: arg.Tok(), Callee: callee.ID, Param: i, Operands: operands})
		if inline {
			kept = append(kept, held...)
		} else if err := c.release(arg.Tok(), held); err != nil {
			return nil, err
		}
	}

	c.emit(rbc.Instruction{Op: rbc.CALL, Token: nameTok, Callee: callee.ID})
	if err := c.release(nameTok, kept); err != nil {
		return nil, err
	}
	if !inline {
		for i := len(args) - 1; i >= 0; i-- {
			c.emit(rbc.Instruction{Op: rbc.POP, Token: nameTok, Callee: callee.ID, Param: i})
		}
	}
	return callee, nil
}

// resolveCallee consumes `name` or `Mod::Sub::name` and resolves it.
func (c *Compiler) resolveCallee() (*rbc.Function, token.Token, error) {
	first := c.cur.Cur()
	if !c.cur.PeekSym("::") {
		c.cur.Next()
		f, err := c.lookupFunction(first)
		return f, first, err
	}

	m, ok := c.lookupModule(first)
	if !ok {
		return nil, first, token.Errorf(token.SyntaxError, first, "unknown module '%s'", first.Literal)
	}
	c.cur.Next()
	c.cur.Next()
	for c.cur.CurIs(token.WORD) && c.cur.PeekSym("::") {
		tok := c.cur.Cur()
		id, ok := m.Children[tok.Literal]
		if !ok {
			return nil, tok, token.Errorf(token.SyntaxError, tok, "module '%s' has no module '%s'", m.Name, tok.Literal)
		}
		m = c.Program.Modules[id]
		c.cur.Next()
		c.cur.Next()
	}

	name, err := c.cur.Expect(token.WORD, "method name")
	if err != nil {
		return nil, name, err
	}
	id, ok := m.Functions[name.Literal]
	if !ok {
		return nil, name, token.Errorf(token.SyntaxError, name, "module '%s' has no method '%s'", m.Name, name.Literal)
	}
	f := c.Program.Func(id)
	return f, name, c.checkRecursion(name, f)
}
