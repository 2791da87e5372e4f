package compiler

import (
	"sort"

	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
	"github.com/thiremani/redscript/types"
)

// Builtin function names
const (
	Msg  = "msg"
	Kill = "kill"
	Say  = "say"
)

// BuiltinParam is one parameter of a native function.
type BuiltinParam struct {
	Name string
	Type types.Info
}

// BuiltinFunc describes a native function's signature. Its body is a
// command template expanded by the backend at every call site.
type BuiltinFunc struct {
	Params []BuiltinParam
}

var selectorParam = types.Info{ID: token.TypeSelector, Name: "selector", Strict: true}

// Builtins maps native function names to their signatures
var Builtins = map[string]*BuiltinFunc{
	Msg:  {Params: []BuiltinParam{{"target", selectorParam}, {"value", types.Builtin(token.TypeAny)}}},
	Kill: {Params: []BuiltinParam{{"target", selectorParam}}},
	Say:  {Params: []BuiltinParam{{"text", types.Info{ID: token.TypeString, Name: "string", Strict: true}}}},
}

// declareBuiltins registers every native function as a global inline
// method, in name order so function ids are stable.
func (c *Compiler) declareBuiltins() {
	names := make([]string, 0, len(Builtins))
	for name := range Builtins {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tok := token.Token{Type: token.WORD, Literal: name, FileName: "<builtin>"}
		f := c.Program.AddFunction(&rbc.Function{
			Name:       name,
			Token:      tok,
			Parent:     rbc.None,
			Module:     rbc.None,
			Decorators: rbc.Inline | rbc.NoReturn,
			ReturnType: types.Builtin(token.TypeAny),
			Builtin:    true,
		})
		for _, p := range Builtins[name].Params {
			c.Program.AddVariable(&rbc.Variable{Name: p.Name, Token: tok, Func: f.ID, Param: true, Type: p.Type})
		}
		c.functions[name] = f.ID
	}
}
