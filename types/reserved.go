package types

import (
	"github.com/thiremani/redscript/token"
)

// UserTypeOffset is the first type id handed out to user object types.
// Ids below it are reserved for built-in types.
const UserTypeOffset = 32

var builtinTypeNames = [...]string{
	token.TypeAny:      "any",
	token.TypeInt:      "int",
	token.TypeFloat:    "float",
	token.TypeBool:     "bool",
	token.TypeString:   "string",
	token.TypeList:     "list",
	token.TypeObject:   "object",
	token.TypeSelector: "selector",
}

// reservedNames may not be used for user object types.
var reservedNames = func() map[string]struct{} {
	m := make(map[string]struct{}, len(builtinTypeNames))
	for _, t := range builtinTypeNames {
		m[t] = struct{}{}
	}
	return m
}()

// BuiltinName returns the source name of a built-in type id.
func BuiltinName(id int) (string, bool) {
	if id >= 0 && id < len(builtinTypeNames) {
		return builtinTypeNames[id], true
	}
	return "", false
}

// IsReservedTypeName reports whether name is reserved for built-in types.
func IsReservedTypeName(name string) bool {
	_, ok := reservedNames[name]
	return ok
}

// OfLiteral maps a constant token kind to its built-in type id.
func OfLiteral(tt token.TokenType) int {
	switch tt {
	case token.INT:
		return token.TypeInt
	case token.FLOAT:
		return token.TypeFloat
	case token.STRING:
		return token.TypeString
	case token.KW_TRUE, token.KW_FALSE:
		return token.TypeBool
	case token.LIST:
		return token.TypeList
	case token.OBJECT:
		return token.TypeObject
	case token.SELECTOR:
		return token.TypeSelector
	}
	return token.TypeAny
}
