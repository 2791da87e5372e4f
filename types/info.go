package types

import (
	"strings"

	"github.com/thiremani/redscript/token"
)

// Info describes a declared type: `optional int[]|string!` is an optional
// int array with a string union branch in strict mode.
type Info struct {
	ID         int
	Name       string
	ArrayDepth int
	Optional   bool
	Strict     bool
	Union      []Info
}

func Builtin(id int) Info {
	name, _ := BuiltinName(id)
	return Info{ID: id, Name: name}
}

func (i Info) String() string {
	var out strings.Builder
	if i.Optional {
		out.WriteString("optional ")
	}
	out.WriteString(i.base())
	for _, u := range i.Union {
		out.WriteString("|")
		out.WriteString(u.base())
	}
	if i.Strict {
		out.WriteString("!")
	}
	return out.String()
}

func (i Info) base() string {
	return i.Name + strings.Repeat("[]", i.ArrayDepth)
}

// Accepts reports whether a value of type id may be stored under i.
// Only strict declarations are checked.
func (i Info) Accepts(id int) bool {
	if !i.Strict || i.ID == token.TypeAny || id == token.TypeAny {
		return true
	}
	if i.ArrayDepth > 0 {
		return id == token.TypeList
	}
	if i.ID == id {
		return true
	}
	for _, u := range i.Union {
		if u.ID == id || u.ID == token.TypeAny {
			return true
		}
	}
	return false
}

// ZeroValue returns the literal a bare declaration of i starts with.
func (i Info) ZeroValue() (token.TokenType, string) {
	if i.ArrayDepth > 0 {
		return token.LIST, ""
	}
	switch i.ID {
	case token.TypeInt:
		return token.INT, "0"
	case token.TypeFloat:
		return token.FLOAT, "0.0"
	case token.TypeBool:
		return token.KW_FALSE, "false"
	case token.TypeString:
		return token.STRING, ""
	case token.TypeList:
		return token.LIST, ""
	case token.TypeAny, token.TypeSelector:
		return token.KW_NULL, "null"
	}
	return token.OBJECT, ""
}
