package compiler

import (
	"github.com/thiremani/redscript/lexer"
	"github.com/thiremani/redscript/parser"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
	"github.com/thiremani/redscript/types"
)

// compileAssignment handles `name = expr;` and `name = call(...);`. An
// unresolved name declares a new variable in the current scope.
func (c *Compiler) compileAssignment() error {
	name := c.cur.Cur()
	c.cur.Next()
	c.cur.Next() // =

	v, ok := c.lookupVariable(name.Literal)
	if !ok {
		return c.store(name, nil, nil, false)
	}
	if err := c.checkWritable(name, v); err != nil {
		return err
	}
	return c.store(name, v, nil, false)
}

func (c *Compiler) checkWritable(tok token.Token, v *rbc.Variable) error {
	if v.Const {
		return token.Errorf(token.SyntaxError, tok, "cannot assign to constant '%s'", v.Name)
	}
	if v.Param && v.Func != c.current().ID {
		return token.Errorf(token.UnsupportedError, tok, "parameter '%s' of an enclosing method cannot be assigned here", v.Name)
	}
	return nil
}

// store compiles the right-hand side at the cursor into v. A nil v is
// declared once the value is known, typed by declared or inferred from the
// value.
func (c *Compiler) store(name token.Token, v *rbc.Variable, declared *types.Info, isConst bool) error {
	if c.atCall() {
		return c.storeCall(name, v, declared, isConst)
	}

	expr, err := parser.ParseExpression(c.cur, c, parser.Options{})
	if err != nil {
		return err
	}
	if err := c.expectEnd(); err != nil {
		return err
	}

	target := types.Builtin(token.TypeAny)
	switch {
	case v != nil:
		target = v.Type
	case declared != nil:
		target = *declared
	}
	val, held, err := c.valueFor(expr, target)
	if err != nil {
		return err
	}

	op := rbc.SAVE
	if v == nil {
		info := c.inferType(val)
		if declared != nil {
			info = *declared
		}
		if v, err = c.declareVariable(name, info, isConst); err != nil {
			return err
		}
		op = rbc.CREATE
	}
	if err := c.checkAssign(expr.Tok(), v, val); err != nil {
		return err
	}
	c.emit(rbc.Instruction{Op: op, Token: name, Operands: []rbc.Value{v.Ref(), val}})
	return c.release(name, held)
}

// storeCall compiles `name = call(...);`: the call sequence followed by
// SAVERET into the destination.
func (c *Compiler) storeCall(name token.Token, v *rbc.Variable, declared *types.Info, isConst bool) error {
	callee, err := c.compileCall()
	if err != nil {
		return err
	}
	if callee.Decorators.Has(rbc.Inline) || callee.Decorators.Has(rbc.NoReturn) {
		return token.Errorf(token.SyntaxError, callee.Token, "'%s' does not return a value", callee.Name)
	}
	if v == nil {
		info := callee.ReturnType
		if declared != nil {
			info = *declared
		}
		if v, err = c.declareVariable(name, info, isConst); err != nil {
			return err
		}
	}
	if !v.Type.Accepts(callee.ReturnType.ID) {
		return token.Errorf(token.SyntaxError, name, "'%s' returns %s, '%s' is %s", callee.Name, callee.ReturnType, v.Name, v.Type)
	}
	c.emit(rbc.Instruction{Op: rbc.SAVERET, Token: name, Operands: []rbc.Value{v.Ref()}})
	return c.expectEnd()
}

// compileDeclaration handles `name: type;` and `name: type = value;`.
func (c *Compiler) compileDeclaration(isConst bool) error {
	name := c.cur.Cur()
	c.cur.Next()
	c.cur.Next() // :

	info, err := c.parseType()
	if err != nil {
		return err
	}
	if c.cur.CurSym("=") {
		c.cur.Next()
		return c.store(name, nil, &info, isConst)
	}
	if isConst {
		return token.Errorf(token.SyntaxError, name, "constant '%s' needs a value", name.Literal)
	}
	if err := c.expectEnd(); err != nil {
		return err
	}

	v, err := c.declareVariable(name, info, false)
	if err != nil {
		return err
	}
	c.emit(rbc.Instruction{Op: rbc.CREATE, Token: name, Operands: []rbc.Value{v.Ref(), c.zeroValue(name, info)}})
	return nil
}

func (c *Compiler) zeroValue(tok token.Token, info types.Info) rbc.Value {
	kind, text := info.ZeroValue()
	if kind == token.OBJECT {
		obj := c.Program.AddObject(&rbc.Object{Token: tok, Type: info.ID})
		return rbc.ObjectRef{ID: obj.ID}
	}
	return rbc.Constant{Kind: kind, Text: text, Token: tok}
}

// compileConst handles `const name = expr;` and `const name: type = expr;`.
func (c *Compiler) compileConst() error {
	c.cur.Next()
	name := c.cur.Cur()
	if name.Type != token.WORD {
		return c.cur.Unexpected(name, "constant name")
	}
	if c.cur.PeekSym(":") {
		return c.compileDeclaration(true)
	}
	c.cur.Next()
	if _, err := c.cur.ExpectSym("="); err != nil {
		return err
	}
	return c.store(name, nil, nil, true)
}

// compileMemberAssignment handles `name.member = expr;`.
func (c *Compiler) compileMemberAssignment() error {
	name := c.cur.Cur()
	v, ok := c.lookupVariable(name.Literal)
	if !ok {
		return token.Errorf(token.SyntaxError, name, "undeclared variable '%s'", name.Literal)
	}
	if err := c.checkWritable(name, v); err != nil {
		return err
	}
	c.cur.Next()
	c.cur.Next() // .

	member, err := c.cur.Expect(token.WORD, "member name")
	if err != nil {
		return err
	}
	if err := c.checkMember(member, v, member.Literal); err != nil {
		return err
	}
	if _, err := c.cur.ExpectSym("="); err != nil {
		return err
	}

	expr, err := parser.ParseExpression(c.cur, c, parser.Options{})
	if err != nil {
		return err
	}
	if err := c.expectEnd(); err != nil {
		return err
	}
	decl, _ := c.memberOf(v, member.Literal)
	val, held, err := c.valueFor(expr, decl.Type)
	if err != nil {
		return err
	}
	if !decl.Type.Accepts(c.typeOf(val)) {
		return token.Errorf(token.SyntaxError, member, "member '%s' must be %s", member.Literal, decl.Type)
	}

	ref := v.Ref()
	ref.Member = member.Literal
	c.emit(rbc.Instruction{Op: rbc.SAVE, Token: member, Operands: []rbc.Value{ref, val}})
	return c.release(member, held)
}

// compileReturn handles `return;`, `return expr;` and `return call(...);`.
func (c *Compiler) compileReturn() error {
	tok := c.cur.Cur()
	if !c.inFunction() {
		return token.Errorf(token.SyntaxError, tok, "'return' outside of a method")
	}
	c.cur.Next()
	f := c.current()

	if c.cur.CurIs(token.LINE_END) {
		c.cur.Next()
		c.emit(rbc.Instruction{Op: rbc.RET, Token: tok})
		return nil
	}
	if f.Decorators.Has(rbc.NoReturn) {
		return token.Errorf(token.SyntaxError, tok, "'%s' is noreturn and cannot return a value", f.Name)
	}

	if c.atCall() {
		callee, err := c.compileCall()
		if err != nil {
			return err
		}
		if callee.Decorators.Has(rbc.Inline) || callee.Decorators.Has(rbc.NoReturn) {
			return token.Errorf(token.SyntaxError, callee.Token, "'%s' does not return a value", callee.Name)
		}
		c.emit(rbc.Instruction{Op: rbc.RET, Token: tok})
		return c.expectEnd()
	}

	expr, err := parser.ParseExpression(c.cur, c, parser.Options{})
	if err != nil {
		return err
	}
	if err := c.expectEnd(); err != nil {
		return err
	}
	val, held, err := c.valueFor(expr, f.ReturnType)
	if err != nil {
		return err
	}
	if !f.ReturnType.Accepts(c.typeOf(val)) {
		return token.Errorf(token.SyntaxError, expr.Tok(), "'%s' must return %s", f.Name, f.ReturnType)
	}
	c.emit(rbc.Instruction{Op: rbc.RET, Token: tok, Operands: []rbc.Value{val}})
	return c.release(tok, held)
}

// compileAsm handles `asm "command";`.
func (c *Compiler) compileAsm() error {
	tok := c.cur.Cur()
	c.cur.Next()
	text, err := c.cur.Expect(token.STRING, "command string")
	if err != nil {
		return err
	}
	if err := c.expectEnd(); err != nil {
		return err
	}
	c.emit(rbc.Instruction{Op: rbc.ASM, Token: tok, Text: text.Literal})
	return nil
}

// compileUse handles `use "path";` by compiling the included source in
// place.
func (c *Compiler) compileUse() error {
	tok := c.cur.Cur()
	if len(c.scopes) > 0 {
		return token.Errorf(token.SyntaxError, tok, "'use' is only allowed at the top level")
	}
	c.cur.Next()
	path, err := c.cur.Expect(token.STRING, "file path")
	if err != nil {
		return err
	}
	if err := c.expectEnd(); err != nil {
		return err
	}
	if c.includer == nil {
		return token.Errorf(token.UnsupportedError, path, "cannot include '%s': no include path configured", path.Literal)
	}

	name, src, err := c.includer.Include(path.Literal)
	if err != nil {
		return token.Errorf(token.SyntaxError, path, "cannot include '%s': %v", path.Literal, err)
	}
	if c.included[name] {
		return token.Errorf(token.AlreadyIncludedError, path, "'%s' is already included", path.Literal)
	}
	c.included[name] = true

	toks, err := lexer.Tokenize(name, src)
	if err != nil {
		return err
	}
	if err := c.run(toks); err != nil {
		return err
	}
	if len(c.scopes) > 0 {
		open := c.scopes[len(c.scopes)-1]
		return token.Errorf(token.EOFError, open.Token, "missing '}' to close %s", open.Kind)
	}
	return nil
}

// compileModule handles `module Name { ... }`. Declaring a module that
// already exists reopens it.
func (c *Compiler) compileModule() error {
	tok := c.cur.Cur()
	if c.inFunction() || (len(c.scopes) > 0 && !c.inModuleBody()) {
		return token.Errorf(token.SyntaxError, tok, "modules must be declared at the top level or inside a module")
	}
	c.cur.Next()
	name, err := c.cur.Expect(token.WORD, "module name")
	if err != nil {
		return err
	}
	brace, err := c.cur.Expect(token.LBRACE, "'{'")
	if err != nil {
		return err
	}

	parent := rbc.None
	siblings := c.rootModules
	if len(c.modules) > 0 {
		parent = c.modules[len(c.modules)-1]
		siblings = c.Program.Modules[parent].Children
	}
	id, ok := siblings[name.Literal]
	if !ok {
		m := c.Program.AddModule(&rbc.Module{Name: name.Literal, Token: name, Parent: parent})
		id = m.ID
		if parent == rbc.None {
			c.rootModules[name.Literal] = id
		}
	}

	if err := c.PushScope(ModuleScope, brace); err != nil {
		return err
	}
	c.modules = append(c.modules, id)
	return nil
}
