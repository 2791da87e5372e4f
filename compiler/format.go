package compiler

import (
	"github.com/thiremani/redscript/lexer"
	"github.com/thiremani/redscript/rbc"
)

// Marker is one "-identifier" reference inside a message string.
type Marker struct {
	Name       string
	Start, End int // rune offsets, End exclusive
}

// Markers scans s for markers of the form "-identifier". A '-' not followed
// by a letter is plain text.
func Markers(s string) []Marker {
	var out []Marker
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '-' || i+1 >= len(runes) || !lexer.IsLetter(runes[i+1]) {
			continue
		}
		j := i + 2
		for j < len(runes) && (lexer.IsLetter(runes[j]) || isDigit(runes[j])) {
			j++
		}
		out = append(out, Marker{Name: string(runes[i+1 : j]), Start: i, End: j})
		i = j - 1
	}
	return out
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

// formatIdentifiers resolves the markers of a message string to the
// variables visible at the call site. Markers naming no variable stay
// literal text and get no operand.
func (c *Compiler) formatIdentifiers(s string) []rbc.Value {
	var refs []rbc.Value
	seen := map[string]bool{}
	for _, m := range Markers(s) {
		if seen[m.Name] {
			continue
		}
		v, ok := c.lookupVariable(m.Name)
		if !ok || (v.Param && v.Func != c.current().ID) {
			continue
		}
		seen[m.Name] = true
		refs = append(refs, v.Ref())
	}
	return refs
}
