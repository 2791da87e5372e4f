package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiremani/redscript/rbc"
)

func TestMarkers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Marker
	}{
		{"none", "hello", nil},
		{"single", "hp: -hp", []Marker{{Name: "hp", Start: 4, End: 7}}},
		{"digits", "-p1 and -p2!", []Marker{{Name: "p1", Start: 0, End: 3}, {Name: "p2", Start: 8, End: 11}}},
		{"dash before digit", "5 -3 = 2", nil},
		{"trailing dash", "x -", nil},
		{"adjacent", "-a-b", []Marker{{Name: "a", Start: 0, End: 2}, {Name: "b", Start: 2, End: 4}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Markers(tc.input))
		})
	}
}

func TestMessageMarkersResolve(t *testing.T) {
	p := compile(t, `
hp = 20;
method show(lives) {
	msg(@a, "hp -hp lives -lives missing -nope hp again -hp");
}
`)
	show := function(t, p, "show")
	var push rbc.Instruction
	for _, in := range show.Instructions {
		if in.Op == rbc.PUSH && in.Param == 1 {
			push = in
		}
	}
	require.Len(t, push.Operands, 3)
	assert.Equal(t, variable(t, p, "hp").Ref(), push.Operands[1])
	assert.Equal(t, variable(t, p, "lives").Ref(), push.Operands[2])
}
