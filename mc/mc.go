// Package mc lowers a compiled program into Minecraft function commands.
//
// Every value lives in one command storage, <namespace>:_program:
//
//	vars.f<function>.v<slot>   variable record {value, scope, type}
//	stack[-n]                  argument records pushed by a caller
//	registers.r<id>            structured registers
//	ret, rettype               return value and its type id
//	tmp                        scratch
//
// Integer registers, comparison results and the scratch score are
// scoreboard objectives held by the fake player _CPU.
package mc

import (
	"fmt"
	"strings"

	"github.com/thiremani/redscript/compiler"
	"github.com/thiremani/redscript/config"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
)

const (
	// Holder is the fake player owning every score.
	Holder = "_CPU"
	// Scratch is the objective used for temporary integer values.
	Scratch = "rtmp"
)

// Command is one output line: Run guarded by execute conditions.
type Command struct {
	Conds []string
	Run   string
}

func (c Command) String() string {
	if len(c.Conds) == 0 {
		return c.Run
	}
	conds := strings.Join(c.Conds, " ")
	if rest, ok := strings.CutPrefix(c.Run, "execute "); ok {
		return "execute " + conds + " " + rest
	}
	return "execute " + conds + " run " + c.Run
}

// Function is the command list of one compiled method.
type Function struct {
	Name     string // resource path below the namespace, e.g. math/add
	Source   *rbc.Function
	Commands []Command
}

func (f *Function) Lines() []string {
	out := make([]string, len(f.Commands))
	for i, c := range f.Commands {
		out[i] = c.String()
	}
	return out
}

// ID is the namespaced function id used by `function` commands and tags.
func (f *Function) ID(ns string) string {
	return ns + ":" + f.Name
}

// Output is a generated datapack, not yet written to disk.
type Output struct {
	Namespace string
	Entry     *Function
	InitLen   int // initialization commands at the front of Entry
	Functions []*Function
	Tick      []*Function
	Load      []*Function
}

func (o *Output) Function(name string) (*Function, bool) {
	for _, f := range o.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Generate lowers every method with a body, global code first. The
// initialization block is prepended to the entry function, which is also
// registered as a load function.
func Generate(p *rbc.Program, cfg *config.Config) (*Output, error) {
	ns := cfg.Namespace()
	g := &generator{
		p:       p,
		ns:      ns,
		storage: ns + ":_program",
		names:   map[int]string{},
		slots:   map[int]int{},
	}
	out := &Output{Namespace: ns}

	owners := map[string]*rbc.Function{}
	for _, f := range p.Functions {
		if f.Builtin {
			continue
		}
		name := compiler.OutputName(p, f)
		if prev, ok := owners[name]; ok {
			return nil, token.Errorf(token.SyntaxError, f.Token, "output name '%s' of '%s' collides with '%s'", name, p.QualifiedName(f), p.QualifiedName(prev))
		}
		owners[name] = f
		g.names[f.ID] = name
	}

	for _, f := range p.Functions {
		if f.Builtin || !f.HasBody {
			continue
		}
		cmds, err := g.function(f)
		if err != nil {
			return nil, err
		}
		mf := &Function{Name: g.names[f.ID], Source: f, Commands: cmds}
		out.Functions = append(out.Functions, mf)
		switch {
		case f.ID == rbc.GlobalID:
			out.Entry = mf
			out.Load = append(out.Load, mf)
		case f.Decorators.Has(rbc.Load):
			out.Load = append(out.Load, mf)
		}
		if f.Decorators.Has(rbc.Tick) {
			out.Tick = append(out.Tick, mf)
		}
	}

	if out.Entry == nil {
		return nil, token.Internal(token.Token{}, "program has no entry function")
	}
	init := g.initBlock()
	out.InitLen = len(init)
	out.Entry.Commands = append(init, out.Entry.Commands...)
	return out, nil
}

type generator struct {
	p       *rbc.Program
	ns      string
	storage string
	names   map[int]string
	slots   map[int]int // next variable slot per function
	cmps    rbc.CmpPool
	scratch []int // comparison registers of the conjunction being lowered

	fn      *rbc.Function
	out     []Command
	blocks  []*block
	pending int // arguments pushed for a call that has not happened yet
}

// block is one open if/elif/else chain.
type block struct {
	regs []int // comparison register of the if and of each elif, held until ENDIF
	open bool  // the branch of the last register is running
}

func (b *block) conds() []string {
	out := make([]string, len(b.regs))
	for i, r := range b.regs {
		test := "unless"
		if b.open && i == len(b.regs)-1 {
			test = "if"
		}
		out[i] = fmt.Sprintf("%s score %s %s matches 1", test, Holder, cmpObjective(r))
	}
	return out
}

func cmpObjective(id int) string { return fmt.Sprintf("cmp%d", id) }

func regObjective(id int) string { return fmt.Sprintf("r%d", id) }

func (g *generator) prefix() []string {
	var out []string
	for _, b := range g.blocks {
		out = append(out, b.conds()...)
	}
	return out
}

func (g *generator) emit(format string, args ...any) {
	g.guarded(nil, format, args...)
}

// guarded emits a command with extra execute tests after the open block
// prefixes.
func (g *generator) guarded(tests []string, format string, args ...any) {
	run := format
	if len(args) > 0 {
		run = fmt.Sprintf(format, args...)
	}
	conds := append(g.prefix(), tests...)
	g.out = append(g.out, Command{Conds: conds, Run: run})
}

// data emits a `data modify storage` command on the program storage.
func (g *generator) data(format string, args ...any) {
	g.emit("data modify storage %s %s", g.storage, fmt.Sprintf(format, args...))
}

// scratchCmp takes a register for one clause operand. It is released once
// the conjunction holding the clause has set its result.
func (g *generator) scratchCmp(kind rbc.CompareKind) string {
	id := g.cmps.Take(kind)
	g.scratch = append(g.scratch, id)
	return cmpObjective(id)
}

func (g *generator) releaseScratch(tok token.Token) error {
	for _, id := range g.scratch {
		if err := g.cmps.Release(id); err != nil {
			return token.Internal(tok, "%v", err)
		}
	}
	g.scratch = g.scratch[:0]
	return nil
}

func (g *generator) function(f *rbc.Function) ([]Command, error) {
	g.fn, g.out, g.blocks, g.pending = f, nil, nil, 0
	g.cmps.Enter()

	// operands of an elif condition run after the previous branch
	deferred := map[int]bool{}
	for i, in := range f.Instructions {
		if in.Op == rbc.ELIF {
			for j := i - in.Param; j < i; j++ {
				deferred[j] = true
			}
		}
	}

	for i := range f.Instructions {
		if deferred[i] && len(g.blocks) > 0 {
			g.blocks[len(g.blocks)-1].open = false
		}
		if err := g.instruction(f.Instructions, i); err != nil {
			return nil, err
		}
	}
	if len(g.blocks) != 0 {
		return nil, token.Internal(f.Token, "%s: conditional block left open", f.Name)
	}
	if n := g.cmps.Live(); n != 0 {
		return nil, token.Internal(f.Token, "%s: %d comparison register(s) still held", f.Name, n)
	}
	return g.out, nil
}

func (g *generator) instruction(ins []rbc.Instruction, i int) error {
	in := ins[i]
	switch in.Op {
	case rbc.CREATE, rbc.SAVE:
		return g.store(in)
	case rbc.MATH:
		return g.math(in)
	case rbc.PUSH:
		return g.push(in)
	case rbc.POP:
		if g.p.Func(in.Callee).Decorators.Has(rbc.Inline) {
			return nil
		}
		g.emit("data remove storage %s stack[-1]", g.storage)
		g.pending--
		return nil
	case rbc.CALL:
		return g.call(ins, i)
	case rbc.RET:
		return g.ret(in)
	case rbc.SAVERET:
		return g.saveRet(in)
	case rbc.IF:
		r, err := g.condition(in.Token, in.Cond)
		if err != nil {
			return err
		}
		g.blocks = append(g.blocks, &block{regs: []int{r}, open: true})
	case rbc.ELIF:
		if len(g.blocks) == 0 {
			return token.Internal(in.Token, "ELIF without IF")
		}
		top := g.blocks[len(g.blocks)-1]
		top.open = false
		r, err := g.condition(in.Token, in.Cond)
		if err != nil {
			return err
		}
		top.regs = append(top.regs, r)
		top.open = true
	case rbc.ELSE:
		if len(g.blocks) == 0 {
			return token.Internal(in.Token, "ELSE without IF")
		}
		g.blocks[len(g.blocks)-1].open = false
	case rbc.ENDIF:
		if len(g.blocks) == 0 {
			return token.Internal(in.Token, "ENDIF without IF")
		}
		top := g.blocks[len(g.blocks)-1]
		g.blocks = g.blocks[:len(g.blocks)-1]
		for _, r := range top.regs {
			if err := g.cmps.Release(r); err != nil {
				return token.Internal(in.Token, "%v", err)
			}
		}
	case rbc.INC, rbc.DEC:
		// scopes are resolved at compile time
	case rbc.ASM:
		g.emit("%s", in.Text)
	default:
		return token.Internal(in.Token, "unknown instruction %s", in.Op)
	}
	return nil
}

// call lowers CALL. Inline callees are expanded from the argument values
// of the PUSHes just before the call.
func (g *generator) call(ins []rbc.Instruction, i int) error {
	in := ins[i]
	callee := g.p.Func(in.Callee)
	if !callee.Decorators.Has(rbc.Inline) {
		g.emit("function %s:%s", g.ns, g.names[callee.ID])
		return nil
	}

	expand, ok := natives[callee.Name]
	if !ok {
		return token.Errorf(token.UnsupportedError, in.Token, "no native implementation for inline method '%s'", callee.Name)
	}
	args := make([]rbc.Instruction, len(callee.Params))
	found := 0
walk:
	for j := i - 1; j >= 0 && found < len(args); j-- {
		switch prev := ins[j]; {
		case prev.Op == rbc.PUSH && prev.Callee == callee.ID:
			args[prev.Param] = prev
			found++
		case prev.Op == rbc.SAVE || prev.Op == rbc.MATH:
		default:
			break walk
		}
	}
	if found != len(args) {
		return token.Internal(in.Token, "inline call to '%s' found %d of %d arguments", callee.Name, found, len(args))
	}
	return expand(g, in, args)
}

func (g *generator) ret(in rbc.Instruction) error {
	if len(in.Operands) > 0 {
		v := in.Operands[0]
		if err := g.storeValue("ret", v); err != nil {
			return err
		}
		if ref, ok := v.(rbc.VariableRef); ok && ref.Member == "" {
			rec, err := g.record(ref)
			if err != nil {
				return err
			}
			g.data("rettype set from storage %s %s.type", g.storage, rec)
		} else {
			g.data("rettype set value %d", g.typeTag(v))
		}
	}
	g.emit("return 0")
	return nil
}

func (g *generator) saveRet(in rbc.Instruction) error {
	ref, ok := in.Operands[0].(rbc.VariableRef)
	if !ok {
		return token.Internal(in.Token, "SAVERET into %s", in.Operands[0])
	}
	v := g.p.Var(ref.ID)
	rec, err := g.materialize(v)
	if err != nil {
		return err
	}
	g.data("%s set value {scope:%d}", rec, v.Scope)
	g.data("%s.value set from storage %s ret", rec, g.storage)
	g.data("%s.type set from storage %s rettype", rec, g.storage)
	return nil
}

// initBlock resets the program storage and creates every objective the
// program uses.
func (g *generator) initBlock() []Command {
	run := []string{
		fmt.Sprintf("data modify storage %s stack set value []", g.storage),
		fmt.Sprintf("data modify storage %s vars set value {}", g.storage),
		fmt.Sprintf("data modify storage %s registers set value {}", g.storage),
		fmt.Sprintf("scoreboard objectives add %s dummy", Scratch),
	}
	for _, r := range g.p.Registers.Registers() {
		if r.Operable {
			run = append(run, fmt.Sprintf("scoreboard objectives add %s dummy", regObjective(r.ID)))
		}
	}
	for id := 0; id < g.cmps.Len(); id++ {
		run = append(run, fmt.Sprintf("scoreboard objectives add %s dummy", cmpObjective(id)))
	}

	out := make([]Command, len(run))
	for i, r := range run {
		out[i] = Command{Run: r}
	}
	return out
}
