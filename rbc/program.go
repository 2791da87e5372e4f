package rbc

import (
	"fmt"
	"strings"

	"github.com/thiremani/redscript/token"
	"github.com/thiremani/redscript/types"
)

// GlobalID is the id of the function holding top-level statements.
const GlobalID = 0

// None marks an absent parent function or module.
const None = -1

type Decorator uint8

const (
	Extern   Decorator = 1 << iota // output name is the bare function name
	Inline                         // expanded by a native builtin at each call site
	NoReturn                       // may not return a value
	Tick                           // runs every game tick
	Load                           // runs when the datapack loads
)

var decoratorNames = []struct {
	d    Decorator
	name string
}{
	{Extern, "extern"},
	{Inline, "inline"},
	{NoReturn, "noreturn"},
	{Tick, "tick"},
	{Load, "load"},
}

// LookupDecorator maps a decorator word to its flag.
func LookupDecorator(name string) (Decorator, bool) {
	for _, d := range decoratorNames {
		if d.name == name {
			return d.d, true
		}
	}
	return 0, false
}

func (d Decorator) Has(flag Decorator) bool { return d&flag != 0 }

func (d Decorator) String() string {
	var names []string
	for _, dn := range decoratorNames {
		if d.Has(dn.d) {
			names = append(names, dn.name)
		}
	}
	return strings.Join(names, " ")
}

// Variable is a named storage slot. Slot stays -1 until the backend first
// writes the variable out.
type Variable struct {
	ID         int
	Name       string
	Token      token.Token
	Scope      int // declaring scope depth
	Func       int // owning function
	Global     bool
	Const      bool
	Param      bool
	ParamIndex int
	Type       types.Info
	Object     int // user object type id when known, else 0
	Retired    bool
	Slot       int
}

func (v *Variable) Ref() VariableRef {
	return VariableRef{ID: v.ID, Name: v.Name}
}

// Function is a compiled method. Parent and Module are ids into Program
// tables, or None.
type Function struct {
	ID           int
	Name         string
	Token        token.Token
	Scope        int
	Parent       int
	Children     []int
	Module       int
	Decorators   Decorator
	Params       []int // variable ids, in order
	Locals       []int // variable ids, in declaration order, params first
	Instructions []Instruction
	ReturnType   types.Info
	HasBody      bool
	Builtin      bool
}

func (f *Function) Emit(in Instruction) {
	f.Instructions = append(f.Instructions, in)
}

func (f *Function) Ref() FunctionRef {
	return FunctionRef{ID: f.ID, Name: f.Name}
}

// Module is a namespace for functions, object types and child modules.
type Module struct {
	ID          int
	Name        string
	Token       token.Token
	Parent      int
	Functions   map[string]int
	Children    map[string]int
	ObjectTypes map[string]int
}

type MemberDecorator int

const (
	Required MemberDecorator = iota
	Optional
	Separate
)

var memberDecorators = [...]string{
	Required: "required",
	Optional: "optional",
	Separate: "separate",
}

func (m MemberDecorator) String() string { return memberDecorators[m] }

type Member struct {
	Name      string
	Token     token.Token
	Type      types.Info
	Decorator MemberDecorator
}

// ObjectType is a user record type. ID is its type id, never below
// types.UserTypeOffset.
type ObjectType struct {
	ID      int
	Name    string
	Token   token.Token
	Module  int
	Members []Member
}

func (o *ObjectType) Member(name string) (Member, bool) {
	for _, m := range o.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// Field is one member value of an object instance.
type Field struct {
	Name     string
	Value    Value
	Separate bool
}

// Object is an object instance built from a literal.
type Object struct {
	ID     int
	Token  token.Token
	Type   int // token.TypeObject for inline objects
	Fields []Field
}

// Program owns every table of a compilation.
type Program struct {
	Functions   []*Function
	Variables   []*Variable
	Modules     []*Module
	ObjectTypes []*ObjectType
	Objects     []*Object
	Registers   Pool
	Warnings    []token.Warning
}

func NewProgram(entry string) *Program {
	p := &Program{}
	p.AddFunction(&Function{Name: entry, Parent: None, Module: None, HasBody: true})
	return p
}

func (p *Program) Global() *Function {
	return p.Functions[GlobalID]
}

func (p *Program) AddFunction(f *Function) *Function {
	f.ID = len(p.Functions)
	p.Functions = append(p.Functions, f)
	if f.Parent != None {
		parent := p.Functions[f.Parent]
		parent.Children = append(parent.Children, f.ID)
	}
	return f
}

func (p *Program) AddVariable(v *Variable) *Variable {
	v.ID = len(p.Variables)
	v.Slot = -1
	p.Variables = append(p.Variables, v)
	f := p.Functions[v.Func]
	f.Locals = append(f.Locals, v.ID)
	if v.Param {
		v.ParamIndex = len(f.Params)
		f.Params = append(f.Params, v.ID)
	}
	return v
}

func (p *Program) AddModule(m *Module) *Module {
	m.ID = len(p.Modules)
	m.Functions = map[string]int{}
	m.Children = map[string]int{}
	m.ObjectTypes = map[string]int{}
	p.Modules = append(p.Modules, m)
	if m.Parent != None {
		p.Modules[m.Parent].Children[m.Name] = m.ID
	}
	return m
}

func (p *Program) AddObjectType(o *ObjectType) *ObjectType {
	o.ID = types.UserTypeOffset + len(p.ObjectTypes)
	p.ObjectTypes = append(p.ObjectTypes, o)
	return o
}

func (p *Program) AddObject(o *Object) *Object {
	o.ID = len(p.Objects)
	p.Objects = append(p.Objects, o)
	return o
}

func (p *Program) Func(id int) *Function { return p.Functions[id] }

func (p *Program) Var(id int) *Variable { return p.Variables[id] }

func (p *Program) Object(id int) *Object { return p.Objects[id] }

// ObjectType returns the user type with the given type id.
func (p *Program) ObjectType(id int) (*ObjectType, bool) {
	i := id - types.UserTypeOffset
	if i < 0 || i >= len(p.ObjectTypes) {
		return nil, false
	}
	return p.ObjectTypes[i], true
}

// ModulePath returns the names from the outermost module down to id.
func (p *Program) ModulePath(id int) []string {
	var path []string
	for id != None {
		m := p.Modules[id]
		path = append([]string{m.Name}, path...)
		id = m.Parent
	}
	return path
}

// Ancestors returns the enclosing functions of f, outermost first.
func (p *Program) Ancestors(f *Function) []*Function {
	var out []*Function
	for id := f.Parent; id != None; id = p.Functions[id].Parent {
		out = append([]*Function{p.Functions[id]}, out...)
	}
	return out
}

// QualifiedName renders f for messages, e.g. Math::Vec::add.
func (p *Program) QualifiedName(f *Function) string {
	parts := p.ModulePath(f.Module)
	for _, a := range p.Ancestors(f) {
		parts = append(parts, a.Name)
	}
	parts = append(parts, f.Name)
	return strings.Join(parts, "::")
}

// Dump renders the IR of every function, one instruction per line.
func (p *Program) Dump() string {
	var out strings.Builder
	for _, f := range p.Functions {
		if f.Builtin {
			continue
		}
		fmt.Fprintf(&out, "fn#%d %s", f.ID, p.QualifiedName(f))
		if f.Decorators != 0 {
			fmt.Fprintf(&out, " [%s]", f.Decorators)
		}
		out.WriteString(":\n")
		for _, in := range f.Instructions {
			out.WriteString("  " + in.String() + "\n")
		}
	}
	return out.String()
}
