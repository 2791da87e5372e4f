package rbc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiremani/redscript/ast"
	"github.com/thiremani/redscript/token"
	"github.com/thiremani/redscript/types"
)

func TestPoolFirstFit(t *testing.T) {
	var p Pool
	r0 := p.Alloc(true)
	assert.Equal(t, 0, r0.ID)
	// Alloc does not claim: asking again yields the same register.
	assert.Equal(t, r0, p.Alloc(true))

	require.NoError(t, p.Occupy(r0))
	r1 := p.Alloc(true)
	assert.Equal(t, 1, r1.ID)
	require.NoError(t, p.Occupy(r1))

	// a non-operable register never reuses an operable one
	n := p.Alloc(false)
	assert.Equal(t, 2, n.ID)
	assert.False(t, n.Operable)

	require.NoError(t, p.Free(r0))
	assert.Equal(t, r0, p.Alloc(true))
	assert.Equal(t, 1, p.Live())
	assert.Equal(t, 2, p.Peak())
	assert.Equal(t, 3, p.Len())
}

func TestPoolMisuse(t *testing.T) {
	var p Pool
	r := p.Alloc(true)
	assert.Error(t, p.Free(r), "freeing a vacant register")
	require.NoError(t, p.Occupy(r))
	assert.Error(t, p.Occupy(r), "double occupy")
	assert.Error(t, p.Occupy(RegisterRef{ID: 7, Operable: true}))
	assert.Error(t, p.Free(RegisterRef{ID: r.ID, Operable: false}))
	assert.Equal(t, []RegisterRef{r}, p.Occupied())

	p.Reset()
	assert.Empty(t, p.Occupied())
	assert.True(t, p.IsVacant(r))
}

func TestCmpPoolReuse(t *testing.T) {
	var p CmpPool
	p.Enter()
	a := p.Take(EQ)
	b := p.Take(Truthy)
	assert.Equal(t, []int{0, 1}, []int{a, b})
	require.NoError(t, p.Release(a))
	assert.Equal(t, 0, p.Take(NEQ), "first vacant register is reused")
	require.NoError(t, p.Release(0))
	require.NoError(t, p.Release(b))
	assert.Equal(t, 0, p.Live())
	assert.Error(t, p.Release(b), "double release")

	// a new function never sees the registers of the previous one
	p.Enter()
	assert.Equal(t, 2, p.Take(EQ))
	assert.Error(t, p.Release(0))
	assert.Equal(t, 1, p.Live())
	assert.Equal(t, 3, p.Len())
}

func TestProgramTables(t *testing.T) {
	p := NewProgram("main")
	assert.Equal(t, "main", p.Global().Name)

	m := p.AddModule(&Module{Name: "Math", Parent: None})
	sub := p.AddModule(&Module{Name: "Vec", Parent: m.ID})
	assert.Equal(t, sub.ID, m.Children["Vec"])
	assert.Equal(t, []string{"Math", "Vec"}, p.ModulePath(sub.ID))

	outer := p.AddFunction(&Function{Name: "outer", Parent: None, Module: sub.ID})
	inner := p.AddFunction(&Function{Name: "inner", Parent: outer.ID, Module: sub.ID})
	assert.Equal(t, []int{inner.ID}, outer.Children)
	assert.Equal(t, "Math::Vec::outer::inner", p.QualifiedName(inner))
	assert.Len(t, p.Ancestors(inner), 1)

	a := p.AddVariable(&Variable{Name: "a", Func: outer.ID, Param: true})
	b := p.AddVariable(&Variable{Name: "b", Func: outer.ID, Param: true})
	l := p.AddVariable(&Variable{Name: "l", Func: outer.ID})
	assert.Equal(t, []int{a.ID, b.ID}, outer.Params)
	assert.Equal(t, []int{a.ID, b.ID, l.ID}, outer.Locals)
	assert.Equal(t, 1, b.ParamIndex)
	assert.Equal(t, -1, l.Slot)

	ot := p.AddObjectType(&ObjectType{Name: "Player", Members: []Member{{Name: "hp", Decorator: Separate}}})
	assert.Equal(t, types.UserTypeOffset, ot.ID)
	got, ok := p.ObjectType(ot.ID)
	require.True(t, ok)
	assert.Same(t, ot, got)
	mem, ok := got.Member("hp")
	require.True(t, ok)
	assert.Equal(t, "separate", mem.Decorator.String())
	_, ok = p.ObjectType(token.TypeObject)
	assert.False(t, ok)
}

func TestDecorators(t *testing.T) {
	d, ok := LookupDecorator("inline")
	require.True(t, ok)
	d |= NoReturn
	assert.True(t, d.Has(Inline))
	assert.False(t, d.Has(Tick))
	assert.Equal(t, "inline noreturn", d.String())
	_, ok = LookupDecorator("async")
	assert.False(t, ok)
}

// callProgram builds: r = add(1, 2) for a two parameter add.
func callProgram() (*Program, *Function, *Variable) {
	p := NewProgram("main")
	add := p.AddFunction(&Function{Name: "add", Parent: None, Module: None, HasBody: true})
	p.AddVariable(&Variable{Name: "a", Func: add.ID, Param: true})
	p.AddVariable(&Variable{Name: "b", Func: add.ID, Param: true})
	r := p.AddVariable(&Variable{Name: "r", Func: GlobalID, Global: true})

	g := p.Global()
	one := Constant{Kind: token.INT, Text: "1"}
	two := Constant{Kind: token.INT, Text: "2"}
	g.Emit(Instruction{Op: PUSH, Callee: add.ID, Param: 0, Operands: []Value{one}})
	g.Emit(Instruction{Op: PUSH, Callee: add.ID, Param: 1, Operands: []Value{two}})
	g.Emit(Instruction{Op: CALL, Callee: add.ID})
	g.Emit(Instruction{Op: POP, Callee: add.ID, Param: 1})
	g.Emit(Instruction{Op: POP, Callee: add.ID, Param: 0})
	g.Emit(Instruction{Op: SAVERET, Operands: []Value{r.Ref()}})
	return p, add, r
}

func TestVerifyAcceptsCall(t *testing.T) {
	p, _, _ := callProgram()
	assert.Empty(t, Verify(p))
}

func TestVerifyRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Program)
		errMsg string
	}{
		{"missing pop", func(p *Program) {
			g := p.Global()
			g.Instructions = append(g.Instructions[:4], g.Instructions[5])
		}, "missing 1 POP"},
		{"missing push", func(p *Program) {
			g := p.Global()
			g.Instructions = g.Instructions[1:]
		}, "argument"},
		{"dangling saveret", func(p *Program) {
			g := p.Global()
			g.Emit(Instruction{Op: ASM, Text: "say hi"})
			g.Emit(Instruction{Op: SAVERET, Operands: []Value{VariableRef{ID: 2, Name: "r"}}})
		}, "SAVERET does not follow a CALL"},
		{"unclosed if", func(p *Program) {
			p.Global().Emit(Instruction{Op: IF, Cond: &Condition{}})
		}, "never closed"},
		{"else after else", func(p *Program) {
			g := p.Global()
			g.Emit(Instruction{Op: IF, Cond: &Condition{}})
			g.Emit(Instruction{Op: ELSE})
			g.Emit(Instruction{Op: ELSE})
			g.Emit(Instruction{Op: ENDIF})
		}, "ELSE without an open IF"},
		{"unbalanced scope", func(p *Program) {
			p.Global().Emit(Instruction{Op: DEC})
		}, "below zero"},
		{"leaked register", func(p *Program) {
			_ = p.Registers.Occupy(p.Registers.Alloc(true))
		}, "still occupied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := callProgram()
			tt.mutate(p)
			errs := Verify(p)
			require.NotEmpty(t, errs)
			found := false
			for _, e := range errs {
				assert.Equal(t, token.InternalError, e.Kind)
				found = found || strings.Contains(e.Msg, tt.errMsg)
			}
			assert.True(t, found, "no error mentions %q: %v", tt.errMsg, errs)
		})
	}
}

func TestInlineCallHasNoPops(t *testing.T) {
	p := NewProgram("main")
	say := p.AddFunction(&Function{Name: "say", Parent: None, Module: None, Decorators: Inline, Builtin: true})
	p.AddVariable(&Variable{Name: "text", Func: say.ID, Param: true})
	g := p.Global()
	g.Emit(Instruction{Op: PUSH, Callee: say.ID, Operands: []Value{Constant{Kind: token.STRING, Text: "hi"}}})
	g.Emit(Instruction{Op: CALL, Callee: say.ID})
	assert.Empty(t, Verify(p))
}

func TestInstructionString(t *testing.T) {
	in := Instruction{Op: MATH, Operator: ast.ADD, Operands: []Value{RegisterRef{ID: 0, Operable: true}, VariableRef{ID: 3, Name: "y"}}}
	assert.Equal(t, "MATH r0 += y#3", in.String())

	cond := &Condition{Any: [][]Clause{
		{{Left: VariableRef{ID: 1, Name: "x"}, Right: Constant{Kind: token.INT, Text: "1"}, Kind: EQ}},
		{{Left: VariableRef{ID: 2, Name: "z"}, Kind: Truthy, Not: true}},
	}}
	in = Instruction{Op: IF, Cond: cond}
	assert.Equal(t, "IF x#1 == 1 or not z#2", in.String())

	c := Constant{Kind: token.LIST, Items: []token.Token{{Type: token.STRING, Literal: "a"}}}
	assert.Equal(t, `["a"]`, c.String())
}
