package compiler

import (
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
	"github.com/thiremani/redscript/types"
)

// IsVariable reports whether name resolves to a visible variable. It lets
// the expression builder reject undeclared identifiers.
func (c *Compiler) IsVariable(name string) bool {
	_, ok := c.lookupVariable(name)
	return ok
}

// lookupVariable resolves name: globals first, then the current function's
// locals, then the locals of each enclosing function. The latest visible
// declaration wins inside a function.
// Parameters of an enclosing function resolve too, but leafValue and
// assignment reject them: their stack offsets only hold inside the function
// that was called with them.
func (c *Compiler) lookupVariable(name string) (*rbc.Variable, bool) {
	if id, ok := c.globals[name]; ok {
		return c.Program.Var(id), true
	}
	for i := len(c.funcs) - 1; i >= 0; i-- {
		f := c.Program.Func(c.funcs[i])
		for j := len(f.Locals) - 1; j >= 0; j-- {
			v := c.Program.Var(f.Locals[j])
			if v.Name == name && !v.Retired && v.Scope <= c.depth {
				return v, true
			}
		}
	}
	return nil, false
}

// declareVariable creates a variable in the current function, or a global
// when no function is open.
func (c *Compiler) declareVariable(tok token.Token, info types.Info, isConst bool) (*rbc.Variable, error) {
	name := tok.Literal
	if existing, ok := c.lookupVariable(name); ok {
		if existing.Global && c.inFunction() {
			return nil, token.Errorf(token.SyntaxError, tok, "'%s' is a global variable and cannot be redeclared inside a method", name)
		}
		if existing.Func == c.current().ID {
			return nil, token.Errorf(token.SyntaxError, tok, "'%s' is already declared (at %s)", name, existing.Token.Pos())
		}
	}
	if types.IsReservedTypeName(name) {
		return nil, token.Errorf(token.SyntaxError, tok, "'%s' is a type name", name)
	}

	v := c.Program.AddVariable(&rbc.Variable{
		Name:   name,
		Token:  tok,
		Scope:  c.depth,
		Func:   c.current().ID,
		Global: !c.inFunction(),
		Const:  isConst,
		Type:   info,
		Object: objectTypeID(info),
	})
	if v.Global {
		c.globals[name] = v.ID
	}
	return v, nil
}

// declareParam adds a parameter to f, which must be the current function.
func (c *Compiler) declareParam(f *rbc.Function, tok token.Token, info types.Info) (*rbc.Variable, error) {
	for _, id := range f.Params {
		if c.Program.Var(id).Name == tok.Literal {
			return nil, token.Errorf(token.SyntaxError, tok, "duplicate parameter '%s'", tok.Literal)
		}
	}
	if _, ok := c.globals[tok.Literal]; ok && !f.Builtin {
		return nil, token.Errorf(token.SyntaxError, tok, "parameter '%s' shadows a global variable", tok.Literal)
	}
	return c.Program.AddVariable(&rbc.Variable{
		Name:   tok.Literal,
		Token:  tok,
		Scope:  c.depth,
		Func:   f.ID,
		Param:  true,
		Type:   info,
		Object: objectTypeID(info),
	}), nil
}

// retireVariables hides every variable of the current context declared at
// depth or deeper.
func (c *Compiler) retireVariables(depth int) {
	if !c.inFunction() {
		for name, id := range c.globals {
			if c.Program.Var(id).Scope >= depth {
				c.Program.Var(id).Retired = true
				delete(c.globals, name)
			}
		}
		return
	}
	f := c.current()
	for _, id := range f.Locals {
		v := c.Program.Var(id)
		if v.Scope >= depth {
			v.Retired = true
		}
	}
}

func objectTypeID(info types.Info) int {
	if info.ID >= types.UserTypeOffset && info.ArrayDepth == 0 {
		return info.ID
	}
	return 0
}

// lookupFunction resolves a call target by name: children of the open
// functions, then functions of the open modules, then the global table.
func (c *Compiler) lookupFunction(tok token.Token) (*rbc.Function, error) {
	name := tok.Literal
	var found *rbc.Function

	for i := len(c.funcs) - 1; i >= 0 && found == nil; i-- {
		for _, id := range c.Program.Func(c.funcs[i]).Children {
			if child := c.Program.Func(id); child.Name == name {
				found = child
				break
			}
		}
	}
	for i := len(c.modules) - 1; i >= 0 && found == nil; i-- {
		if id, ok := c.Program.Modules[c.modules[i]].Functions[name]; ok {
			found = c.Program.Func(id)
		}
	}
	if found == nil {
		if id, ok := c.functions[name]; ok {
			found = c.Program.Func(id)
		}
	}
	if found == nil {
		return nil, token.Errorf(token.SyntaxError, tok, "unknown method '%s'", name)
	}
	return found, c.checkRecursion(tok, found)
}

// checkRecursion rejects calls into a function that is still open: the
// target has no call stack for locals.
func (c *Compiler) checkRecursion(tok token.Token, f *rbc.Function) error {
	for _, id := range c.funcs {
		if id == f.ID {
			return token.Errorf(token.UnsupportedError, tok, "recursive call to '%s' is not supported", f.Name)
		}
	}
	return nil
}

// lookupModule resolves the first name of a module path.
func (c *Compiler) lookupModule(tok token.Token) (*rbc.Module, bool) {
	for i := len(c.modules) - 1; i >= 0; i-- {
		m := c.Program.Modules[c.modules[i]]
		if id, ok := m.Children[tok.Literal]; ok {
			return c.Program.Modules[id], true
		}
		if m.Name == tok.Literal {
			return m, true
		}
	}
	if id, ok := c.rootModules[tok.Literal]; ok {
		return c.Program.Modules[id], true
	}
	return nil, false
}

// registerFunction adds f to the table that owns it: its parent function,
// its module, or the global table.
func (c *Compiler) registerFunction(f *rbc.Function) error {
	dup := func() error {
		return token.Errorf(token.SyntaxError, f.Token, "method '%s' is already defined", f.Name)
	}
	switch {
	case f.Parent != rbc.None:
		for _, id := range c.Program.Func(f.Parent).Children {
			if c.Program.Func(id).Name == f.Name {
				return dup()
			}
		}
	case f.Module != rbc.None:
		if _, ok := c.Program.Modules[f.Module].Functions[f.Name]; ok {
			return dup()
		}
	default:
		if _, ok := c.functions[f.Name]; ok {
			return dup()
		}
	}

	c.Program.AddFunction(f)
	switch {
	case f.Parent != rbc.None:
	case f.Module != rbc.None:
		c.Program.Modules[f.Module].Functions[f.Name] = f.ID
	default:
		c.functions[f.Name] = f.ID
	}
	return nil
}

// lookupObjectType resolves a user type name.
func (c *Compiler) lookupObjectType(tok token.Token) (*rbc.ObjectType, bool) {
	for i := len(c.modules) - 1; i >= 0; i-- {
		if id, ok := c.Program.Modules[c.modules[i]].ObjectTypes[tok.Literal]; ok {
			return c.Program.ObjectType(id)
		}
	}
	if id, ok := c.objectTypes[tok.Literal]; ok {
		return c.Program.ObjectType(id)
	}
	return nil, false
}
