package compiler

import (
	"github.com/thiremani/redscript/ast"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
	"github.com/thiremani/redscript/types"
)

// atObjectDecl reports whether the cursor is on `object Name {`.
func (c *Compiler) atObjectDecl() bool {
	tok := c.cur.Cur()
	return tok.Type == token.TYPE_DEF && tok.Info == token.TypeObject &&
		c.cur.PeekIs(token.WORD) && c.cur.PeekN(2).Type == token.LBRACE
}

// compileObjectType parses
//
//	object Name { [required|optional|separate] member[: type], ... }
//
// Members without a decorator are optional.
func (c *Compiler) compileObjectType() error {
	c.cur.Next()
	name := c.cur.Cur()
	if c.inFunction() {
		return token.Errorf(token.SyntaxError, name, "object types must be declared at the top level or inside a module")
	}
	if types.IsReservedTypeName(name.Literal) {
		return token.Errorf(token.SyntaxError, name, "'%s' is a reserved type name", name.Literal)
	}
	if prev, ok := c.lookupObjectType(name); ok && c.sameOwner(prev) {
		return token.Errorf(token.SyntaxError, name, "object type '%s' is already declared (at %s)", name.Literal, prev.Token.Pos())
	}
	c.cur.Next()
	c.cur.Next() // {

	ot := &rbc.ObjectType{Name: name.Literal, Token: name, Module: rbc.None}
	if len(c.modules) > 0 {
		ot.Module = c.modules[len(c.modules)-1]
	}

	for !c.cur.CurIs(token.RBRACE) {
		m := rbc.Member{Decorator: rbc.Optional, Type: types.Builtin(token.TypeAny)}
		switch c.cur.Cur().Type {
		case token.KW_REQUIRED:
			m.Decorator = rbc.Required
			c.cur.Next()
		case token.KW_OPTIONAL:
			c.cur.Next()
		case token.KW_SEPARATE:
			m.Decorator = rbc.Separate
			c.cur.Next()
		}
		tok, err := c.cur.Expect(token.WORD, "member name")
		if err != nil {
			return err
		}
		if _, dup := ot.Member(tok.Literal); dup {
			return token.Errorf(token.SyntaxError, tok, "duplicate member '%s'", tok.Literal)
		}
		m.Name, m.Token = tok.Literal, tok

		if c.cur.CurSym(":") {
			c.cur.Next()
			if m.Type, err = c.parseType(); err != nil {
				return err
			}
		}
		ot.Members = append(ot.Members, m)

		switch {
		case c.cur.CurSym(","), c.cur.CurIs(token.LINE_END):
			c.cur.Next()
		case c.cur.CurIs(token.RBRACE):
		default:
			return c.cur.Unexpected(c.cur.Cur(), "',', ';' or '}'")
		}
	}
	c.cur.Next()

	c.Program.AddObjectType(ot)
	if ot.Module != rbc.None {
		c.Program.Modules[ot.Module].ObjectTypes[ot.Name] = ot.ID
	} else {
		c.objectTypes[ot.Name] = ot.ID
	}
	return nil
}

func (c *Compiler) sameOwner(ot *rbc.ObjectType) bool {
	if len(c.modules) == 0 {
		return ot.Module == rbc.None
	}
	return ot.Module == c.modules[len(c.modules)-1]
}

// parseType parses `[optional] name ('[' ']')* ('|' name)* ['!']`.
func (c *Compiler) parseType() (types.Info, error) {
	optional := false
	if c.cur.CurIs(token.KW_OPTIONAL) {
		optional = true
		c.cur.Next()
	}
	info, err := c.typeBranch()
	if err != nil {
		return types.Info{}, err
	}
	info.Optional = optional
	for c.cur.CurSym("|") {
		c.cur.Next()
		u, err := c.typeBranch()
		if err != nil {
			return types.Info{}, err
		}
		info.Union = append(info.Union, u)
	}
	if c.cur.CurSym("!") {
		info.Strict = true
		c.cur.Next()
	}
	return info, nil
}

func (c *Compiler) typeBranch() (types.Info, error) {
	tok := c.cur.Cur()
	var info types.Info
	switch tok.Type {
	case token.TYPE_DEF:
		info = types.Builtin(tok.Info)
	case token.WORD:
		ot, ok := c.lookupObjectType(tok)
		if !ok {
			return types.Info{}, token.Errorf(token.SyntaxError, tok, "unknown type '%s'", tok.Literal)
		}
		info = types.Info{ID: ot.ID, Name: ot.Name}
	default:
		return types.Info{}, c.cur.Unexpected(tok, "type name")
	}
	c.cur.Next()

	for c.cur.CurIs(token.LBRACK) {
		c.cur.Next()
		if _, err := c.cur.Expect(token.RBRACK, "']'"); err != nil {
			return types.Info{}, err
		}
		info.ArrayDepth++
	}
	return info, nil
}

// valueFor lowers expr for storage under a variable of type info. Object
// literals are checked against a user object type.
func (c *Compiler) valueFor(expr *ast.Expression, info types.Info) (rbc.Value, []rbc.RegisterRef, error) {
	if lit, ok := expr.Result.(*ast.ObjectLiteral); ok && info.ArrayDepth == 0 {
		if ot, isUser := c.Program.ObjectType(info.ID); isUser {
			return c.objectLiteral(lit, ot)
		}
	}
	return c.value(expr)
}

// objectLiteral builds an object instance. With a known type every member
// must be declared and every required member present.
func (c *Compiler) objectLiteral(lit *ast.ObjectLiteral, ot *rbc.ObjectType) (rbc.Value, []rbc.RegisterRef, error) {
	obj := &rbc.Object{Token: lit.Token, Type: token.TypeObject}
	if ot != nil {
		obj.Type = ot.ID
	}

	var held []rbc.RegisterRef
	for _, m := range lit.Members {
		separate := false
		var fieldType types.Info
		if ot != nil {
			decl, ok := ot.Member(m.Name.Literal)
			if !ok {
				return nil, nil, token.Errorf(token.SyntaxError, m.Name, "'%s' has no member '%s'", ot.Name, m.Name.Literal)
			}
			separate = decl.Decorator == rbc.Separate
			fieldType = decl.Type
		}
		v, h, err := c.valueFor(m.Value, fieldType)
		held = append(held, h...)
		if err != nil {
			return nil, nil, err
		}
		if !fieldType.Accepts(c.typeOf(v)) {
			return nil, nil, token.Errorf(token.SyntaxError, m.Name, "member '%s' must be %s", m.Name.Literal, fieldType)
		}
		obj.Fields = append(obj.Fields, rbc.Field{Name: m.Name.Literal, Value: v, Separate: separate})
	}

	if ot != nil {
		for _, decl := range ot.Members {
			if decl.Decorator == rbc.Required && lit.Member(decl.Name) == nil {
				return nil, nil, token.Errorf(token.SyntaxError, lit.Token, "missing required member '%s' of '%s'", decl.Name, ot.Name)
			}
		}
	}

	c.Program.AddObject(obj)
	return rbc.ObjectRef{ID: obj.ID}, held, nil
}

func (c *Compiler) memberOf(v *rbc.Variable, name string) (rbc.Member, bool) {
	ot, ok := c.Program.ObjectType(v.Object)
	if !ok {
		return rbc.Member{}, false
	}
	return ot.Member(name)
}

// checkMember validates v.name against the declared type of v. Variables of
// unknown shape accept any member.
func (c *Compiler) checkMember(tok token.Token, v *rbc.Variable, name string) error {
	if ot, ok := c.Program.ObjectType(v.Object); ok {
		if _, ok := ot.Member(name); !ok {
			return token.Errorf(token.SyntaxError, tok, "'%s' has no member '%s'", ot.Name, name)
		}
		return nil
	}
	switch {
	case v.Type.ArrayDepth > 0:
	case v.Type.ID == token.TypeAny, v.Type.ID == token.TypeObject:
		return nil
	}
	return token.Errorf(token.SyntaxError, tok, "'%s' of type %s has no members", v.Name, v.Type)
}
