package compiler

import (
	"github.com/thiremani/redscript/ast"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
	"github.com/thiremani/redscript/types"
)

// value lowers expr to a single operand. Registers in held are occupied and
// must be released by the caller once the consuming instruction is emitted.
func (c *Compiler) value(expr *ast.Expression) (rbc.Value, []rbc.RegisterRef, error) {
	c.warn(expr.Warnings...)

	switch res := expr.Result.(type) {
	case *ast.Selector:
		return rbc.Constant{Kind: token.SELECTOR, Text: res.Token.Literal, Token: res.Token}, nil, nil
	case *ast.ListLiteral:
		return rbc.Constant{Kind: token.LIST, Items: res.Items, Token: res.Token}, nil, nil
	case *ast.ObjectLiteral:
		return c.objectLiteral(res, nil)
	}

	if leaf, ok := expr.Single(); ok {
		v, err := c.leafValue(leaf)
		return v, nil, err
	}
	v, err := c.evaluate(expr.Root)
	if err != nil {
		return nil, nil, err
	}
	reg, ok := v.(rbc.RegisterRef)
	if !ok {
		return v, nil, nil
	}
	if err := c.occupy(expr.Tok(), reg); err != nil {
		return nil, nil, err
	}
	return reg, []rbc.RegisterRef{reg}, nil
}

// release frees registers returned by value.
func (c *Compiler) release(tok token.Token, held []rbc.RegisterRef) error {
	for _, r := range held {
		if err := c.Program.Registers.Free(r); err != nil {
			return token.Internal(tok, "%v", err)
		}
	}
	return nil
}

func (c *Compiler) occupy(tok token.Token, r rbc.RegisterRef) error {
	if err := c.Program.Registers.Occupy(r); err != nil {
		return token.Internal(tok, "%v", err)
	}
	return nil
}

// evaluate lowers an operator tree. The result register, if any, is
// returned vacant: the caller decides whether to reuse it or claim it.
func (c *Compiler) evaluate(n *ast.Node) (rbc.Value, error) {
	n = n.Reduce()
	if n.IsLeaf() {
		return c.leafValue(n)
	}

	left, err := c.evaluate(n.Left)
	if err != nil {
		return nil, err
	}
	dest, reuse := left.(rbc.RegisterRef)
	if reuse {
		if err := c.occupy(n.OpToken, dest); err != nil {
			return nil, err
		}
	}

	right, err := c.evaluate(n.Right)
	if err != nil {
		return nil, err
	}
	rightReg, rightIsReg := right.(rbc.RegisterRef)
	if rightIsReg {
		if err := c.occupy(n.OpToken, rightReg); err != nil {
			return nil, err
		}
	}

	if !reuse {
		dest = c.Program.Registers.Alloc(c.operable(left))
		if err := c.occupy(n.OpToken, dest); err != nil {
			return nil, err
		}
		c.emit(rbc.Instruction{Op: rbc.SAVE, Token: n.Tok(), Operands: []rbc.Value{dest, left}})
	}
	c.emit(rbc.Instruction{Op: rbc.MATH, Token: n.OpToken, Operator: n.Op, Operands: []rbc.Value{dest, right}})

	if rightIsReg {
		if err := c.release(n.OpToken, []rbc.RegisterRef{rightReg}); err != nil {
			return nil, err
		}
	}
	if err := c.release(n.OpToken, []rbc.RegisterRef{dest}); err != nil {
		return nil, err
	}
	return dest, nil
}

// leafValue resolves a leaf to a constant or a variable handle. No register
// is consumed.
func (c *Compiler) leafValue(n *ast.Node) (rbc.Value, error) {
	tok := *n.Token
	if tok.Type != token.WORD {
		return rbc.ConstantOf(tok), nil
	}
	v, ok := c.lookupVariable(tok.Literal)
	if !ok {
		return nil, token.Errorf(token.SyntaxError, tok, "undeclared variable '%s'", tok.Literal)
	}
	if v.Param && v.Func != c.current().ID {
		return nil, token.Errorf(token.UnsupportedError, tok,
			"parameter '%s' of an enclosing method cannot be used here; copy it into a local variable first", v.Name)
	}
	ref := v.Ref()
	if n.Member != "" {
		if err := c.checkMember(tok, v, n.Member); err != nil {
			return nil, err
		}
		ref.Member = n.Member
	}
	return ref, nil
}

// operable reports whether v can be loaded into an integer register.
func (c *Compiler) operable(v rbc.Value) bool {
	switch v := v.(type) {
	case rbc.Constant:
		return v.IsInt()
	case rbc.RegisterRef:
		return v.Operable
	case rbc.VariableRef:
		info := c.Program.Var(v.ID).Type
		if v.Member != "" {
			m, ok := c.memberOf(c.Program.Var(v.ID), v.Member)
			if !ok {
				return true
			}
			info = m.Type
		}
		if info.ArrayDepth > 0 {
			return false
		}
		switch info.ID {
		case token.TypeAny, token.TypeInt, token.TypeBool:
			return true
		}
	}
	return false
}

// typeOf returns the built-in or user type id of v, or TypeAny when it is
// only known at run time.
func (c *Compiler) typeOf(v rbc.Value) int {
	switch v := v.(type) {
	case rbc.Constant:
		return v.Type()
	case rbc.RegisterRef:
		if v.Operable {
			return token.TypeInt
		}
	case rbc.VariableRef:
		variable := c.Program.Var(v.ID)
		if v.Member != "" {
			if m, ok := c.memberOf(variable, v.Member); ok {
				return m.Type.ID
			}
			return token.TypeAny
		}
		if variable.Type.ArrayDepth > 0 {
			return token.TypeList
		}
		return variable.Type.ID
	case rbc.ObjectRef:
		return c.Program.Object(v.ID).Type
	}
	return token.TypeAny
}

// inferType is the declared type of a variable created by plain assignment.
func (c *Compiler) inferType(v rbc.Value) types.Info {
	switch v.(type) {
	case rbc.Constant, rbc.ObjectRef:
		id := c.typeOf(v)
		if ot, ok := c.Program.ObjectType(id); ok {
			return types.Info{ID: id, Name: ot.Name}
		}
		return types.Builtin(id)
	}
	return types.Builtin(token.TypeAny)
}

// checkAssign enforces strict declarations.
func (c *Compiler) checkAssign(tok token.Token, v *rbc.Variable, val rbc.Value) error {
	if id := c.typeOf(val); !v.Type.Accepts(id) {
		name, ok := types.BuiltinName(id)
		if ot, isUser := c.Program.ObjectType(id); isUser {
			name, ok = ot.Name, true
		}
		if !ok {
			name = "value"
		}
		return token.Errorf(token.SyntaxError, tok, "cannot assign %s to '%s' of type %s", name, v.Name, v.Type)
	}
	return nil
}
