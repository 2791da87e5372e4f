package types

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thiremani/redscript/token"
)

func TestReservedNames(t *testing.T) {
	for _, name := range []string{"int", "float", "string", "object", "selector", "any"} {
		assert.True(t, IsReservedTypeName(name), name)
	}
	assert.False(t, IsReservedTypeName("Player"))

	name, ok := BuiltinName(token.TypeBool)
	assert.True(t, ok)
	assert.Equal(t, "bool", name)
	_, ok = BuiltinName(UserTypeOffset)
	assert.False(t, ok)
}

func TestInfoString(t *testing.T) {
	i := Info{ID: token.TypeInt, Name: "int", ArrayDepth: 1, Optional: true, Strict: true,
		Union: []Info{Builtin(token.TypeString)}}
	assert.Equal(t, "optional int[]|string!", i.String())
	assert.Equal(t, "float", Builtin(token.TypeFloat).String())
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		id       int
		expected bool
	}{
		{"loose accepts anything", Builtin(token.TypeInt), token.TypeString, true},
		{"strict same", Info{ID: token.TypeInt, Strict: true}, token.TypeInt, true},
		{"strict other", Info{ID: token.TypeInt, Strict: true}, token.TypeString, false},
		{"strict union", Info{ID: token.TypeInt, Strict: true, Union: []Info{Builtin(token.TypeString)}}, token.TypeString, true},
		{"strict array", Info{ID: token.TypeInt, ArrayDepth: 1, Strict: true}, token.TypeList, true},
		{"strict array scalar", Info{ID: token.TypeInt, ArrayDepth: 1, Strict: true}, token.TypeInt, false},
		{"strict any", Info{ID: token.TypeAny, Strict: true}, token.TypeFloat, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.info.Accepts(tt.id))
		})
	}
}

func TestZeroValue(t *testing.T) {
	tt, lit := Builtin(token.TypeInt).ZeroValue()
	assert.Equal(t, token.INT, tt)
	assert.Equal(t, "0", lit)

	tt, _ = Info{ID: token.TypeInt, ArrayDepth: 2}.ZeroValue()
	assert.Equal(t, token.LIST, tt)

	tt, _ = Info{ID: UserTypeOffset, Name: "Player"}.ZeroValue()
	assert.Equal(t, token.OBJECT, tt)

	tt, _ = Builtin(token.TypeBool).ZeroValue()
	assert.Equal(t, token.KW_FALSE, tt)
}

func TestOfLiteral(t *testing.T) {
	assert.Equal(t, token.TypeInt, OfLiteral(token.INT))
	assert.Equal(t, token.TypeBool, OfLiteral(token.KW_FALSE))
	assert.Equal(t, token.TypeSelector, OfLiteral(token.SELECTOR))
	assert.Equal(t, token.TypeAny, OfLiteral(token.KW_NULL))
}
