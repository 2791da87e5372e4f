package rbc

import (
	"fmt"
	"strings"

	"github.com/thiremani/redscript/token"
	"github.com/thiremani/redscript/types"
)

// Value is an IR operand. Registers, variables, objects and functions are
// referenced by id into the tables owned by Program.
type Value interface {
	isValue()
	String() string
}

// Constant is a literal known at compile time.
type Constant struct {
	Kind  token.TokenType // INT, FLOAT, STRING, KW_TRUE, KW_FALSE, KW_NULL, LIST or SELECTOR
	Text  string
	Items []token.Token // LIST items
	Token token.Token
}

func ConstantOf(tok token.Token) Constant {
	return Constant{Kind: tok.Type, Text: tok.Literal, Token: tok}
}

func (c Constant) isValue() {}
func (c Constant) String() string {
	switch c.Kind {
	case token.STRING:
		return fmt.Sprintf("%q", c.Text)
	case token.LIST:
		items := []string{}
		for _, it := range c.Items {
			items = append(items, Constant{Kind: it.Type, Text: it.Literal}.String())
		}
		return "[" + strings.Join(items, ", ") + "]"
	}
	return c.Text
}

// Type returns the built-in type id of the constant.
func (c Constant) Type() int {
	return types.OfLiteral(c.Kind)
}

// IsInt reports whether the constant can live in an operable register.
func (c Constant) IsInt() bool {
	return c.Kind == token.INT || c.Kind == token.KW_TRUE || c.Kind == token.KW_FALSE
}

// RegisterRef names a virtual register. Operable registers are integer
// scores; the others live in structured storage.
type RegisterRef struct {
	ID       int
	Operable bool
}

func (r RegisterRef) isValue() {}
func (r RegisterRef) String() string {
	if r.Operable {
		return fmt.Sprintf("r%d", r.ID)
	}
	return fmt.Sprintf("R%d", r.ID)
}

type VariableRef struct {
	ID     int
	Name   string
	Member string
}

func (v VariableRef) isValue() {}
func (v VariableRef) String() string {
	s := fmt.Sprintf("%s#%d", v.Name, v.ID)
	if v.Member != "" {
		s += "." + v.Member
	}
	return s
}

type ObjectRef struct {
	ID int
}

func (o ObjectRef) isValue()         {}
func (o ObjectRef) String() string { return fmt.Sprintf("obj#%d", o.ID) }

type FunctionRef struct {
	ID   int
	Name string
}

func (f FunctionRef) isValue()         {}
func (f FunctionRef) String() string { return fmt.Sprintf("%s()#%d", f.Name, f.ID) }
