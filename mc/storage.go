package mc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thiremani/redscript/ast"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
)

// materialize returns the storage record of v, assigning its slot on first
// use. Parameters live on the argument stack and have no slot.
func (g *generator) materialize(v *rbc.Variable) (string, error) {
	if v.Param {
		return g.paramPath(v)
	}
	if v.Slot < 0 {
		v.Slot = g.slots[v.Func]
		g.slots[v.Func]++
	}
	return fmt.Sprintf("vars.f%d.v%d", v.Func, v.Slot), nil
}

func (g *generator) paramPath(v *rbc.Variable) (string, error) {
	if v.Func != g.fn.ID {
		return "", token.Errorf(token.UnsupportedError, v.Token, "parameter '%s' is not reachable from '%s'", v.Name, g.fn.Name)
	}
	return fmt.Sprintf("stack[%d]", v.ParamIndex-len(g.fn.Params)-g.pending), nil
}

// record returns the storage record of a variable that has been stored.
func (g *generator) record(ref rbc.VariableRef) (string, error) {
	v := g.p.Var(ref.ID)
	if v.Param {
		return g.paramPath(v)
	}
	if v.Slot < 0 {
		return "", token.Internal(v.Token, "variable '%s' read before it was stored", v.Name)
	}
	return fmt.Sprintf("vars.f%d.v%d", v.Func, v.Slot), nil
}

// member returns the declared member of an object variable, if known.
func (g *generator) member(ref rbc.VariableRef) (rbc.Member, bool) {
	ot, ok := g.p.ObjectType(g.p.Var(ref.ID).Object)
	if !ok {
		return rbc.Member{}, false
	}
	return ot.Member(ref.Member)
}

// valuePath is the storage path holding the value ref names. Separate
// members sit next to the record's value.
func (g *generator) valuePath(ref rbc.VariableRef) (string, error) {
	rec, err := g.record(ref)
	if err != nil {
		return "", err
	}
	if ref.Member == "" {
		return rec + ".value", nil
	}
	if m, ok := g.member(ref); ok && m.Decorator == rbc.Separate {
		return rec + "." + ref.Member, nil
	}
	return rec + ".value." + ref.Member, nil
}

// sourcePath is the storage path of a value that does not live in a score.
func (g *generator) sourcePath(v rbc.Value) (string, error) {
	switch v := v.(type) {
	case rbc.VariableRef:
		return g.valuePath(v)
	case rbc.RegisterRef:
		if !v.Operable {
			return fmt.Sprintf("registers.r%d", v.ID), nil
		}
	}
	return "", fmt.Errorf("%s has no storage path", v)
}

// typeTag is the type id stored alongside v.
func (g *generator) typeTag(v rbc.Value) int {
	switch v := v.(type) {
	case rbc.Constant:
		return v.Type()
	case rbc.RegisterRef:
		if v.Operable {
			return token.TypeInt
		}
	case rbc.ObjectRef:
		return g.p.Object(v.ID).Type
	case rbc.VariableRef:
		if v.Member == "" {
			return g.p.Var(v.ID).Type.ID
		}
		if m, ok := g.member(v); ok {
			return m.Type.ID
		}
	}
	return token.TypeAny
}

// store lowers CREATE and SAVE.
func (g *generator) store(in rbc.Instruction) error {
	dst, v := in.Operands[0], in.Operands[1]
	switch dst := dst.(type) {
	case rbc.RegisterRef:
		if dst.Operable {
			return g.loadScore(in.Token, regObjective(dst.ID), v)
		}
		return g.storeValue(fmt.Sprintf("registers.r%d", dst.ID), v)

	case rbc.VariableRef:
		if dst.Member != "" {
			path, err := g.valuePath(dst)
			if err != nil {
				return err
			}
			return g.storeValue(path, v)
		}
		variable := g.p.Var(dst.ID)
		rec, err := g.materialize(variable)
		if err != nil {
			return err
		}
		return g.storeRecord(rec, variable.Scope, v)
	}
	return token.Internal(in.Token, "%s into %s", in.Op, dst)
}

// storeRecord writes a whole variable record.
func (g *generator) storeRecord(rec string, scope int, v rbc.Value) error {
	switch v := v.(type) {
	case rbc.Constant:
		lit, err := snbt(v)
		if err != nil {
			return err
		}
		g.data("%s set value {value:%s,scope:%d,type:%d}", rec, lit, scope, v.Type())
		return nil

	case rbc.VariableRef:
		if v.Member == "" {
			src, err := g.record(v)
			if err != nil {
				return err
			}
			if src != rec {
				g.data("%s set from storage %s %s", rec, g.storage, src)
			}
			g.data("%s.scope set value %d", rec, scope)
			return nil
		}

	case rbc.ObjectRef:
		obj := g.p.Object(v.ID)
		var inner, outer []rbc.Field
		for _, f := range obj.Fields {
			if f.Separate {
				outer = append(outer, f)
			} else {
				inner = append(inner, f)
			}
		}
		value, innerRest, err := g.compound(inner)
		if err != nil {
			return err
		}
		parts := []string{"value:" + value}
		var outerRest []rbc.Field
		for _, f := range outer {
			lit, ok, err := g.literal(f.Value)
			if err != nil {
				return err
			}
			if ok {
				parts = append(parts, f.Name+":"+lit)
			} else {
				outerRest = append(outerRest, f)
			}
		}
		parts = append(parts, fmt.Sprintf("scope:%d", scope), fmt.Sprintf("type:%d", obj.Type))
		g.data("%s set value {%s}", rec, strings.Join(parts, ","))
		for _, f := range innerRest {
			if err := g.storeValue(rec+".value."+f.Name, f.Value); err != nil {
				return err
			}
		}
		for _, f := range outerRest {
			if err := g.storeValue(rec+"."+f.Name, f.Value); err != nil {
				return err
			}
		}
		return nil
	}

	g.data("%s set value {scope:%d,type:%d}", rec, scope, g.typeTag(v))
	return g.storeValue(rec+".value", v)
}

// storeValue writes v to a storage path.
func (g *generator) storeValue(path string, v rbc.Value) error {
	switch v := v.(type) {
	case rbc.Constant:
		lit, err := snbt(v)
		if err != nil {
			return err
		}
		g.data("%s set value %s", path, lit)
	case rbc.RegisterRef:
		if v.Operable {
			g.emit("execute store result storage %s %s int 1 run scoreboard players get %s %s", g.storage, path, Holder, regObjective(v.ID))
			return nil
		}
		g.data("%s set from storage %s registers.r%d", path, g.storage, v.ID)
	case rbc.VariableRef:
		src, err := g.valuePath(v)
		if err != nil {
			return err
		}
		g.data("%s set from storage %s %s", path, g.storage, src)
	case rbc.ObjectRef:
		value, rest, err := g.compound(g.p.Object(v.ID).Fields)
		if err != nil {
			return err
		}
		g.data("%s set value %s", path, value)
		for _, f := range rest {
			if err := g.storeValue(path+"."+f.Name, f.Value); err != nil {
				return err
			}
		}
	default:
		return token.Internal(token.Token{}, "cannot store %s", v)
	}
	return nil
}

// loadScore writes v into the score of objective.
func (g *generator) loadScore(tok token.Token, objective string, v rbc.Value) error {
	switch v := v.(type) {
	case rbc.Constant:
		n, err := intValue(v)
		if err != nil {
			return err
		}
		g.emit("scoreboard players set %s %s %d", Holder, objective, n)
		return nil
	case rbc.RegisterRef:
		if v.Operable {
			g.emit("scoreboard players operation %s %s = %s %s", Holder, objective, Holder, regObjective(v.ID))
			return nil
		}
	case rbc.ObjectRef:
		return token.Errorf(token.UnsupportedError, tok, "an object cannot be used as a number")
	}
	path, err := g.sourcePath(v)
	if err != nil {
		return token.Internal(tok, "%v", err)
	}
	g.emit("execute store result score %s %s run data get storage %s %s", Holder, objective, g.storage, path)
	return nil
}

var scoreOperations = map[ast.Operator]string{
	ast.ADD: "+=",
	ast.SUB: "-=",
	ast.MUL: "*=",
	ast.DIV: "/=",
	ast.MOD: "%=",
}

func (g *generator) math(in rbc.Instruction) error {
	dst, ok := in.Operands[0].(rbc.RegisterRef)
	if !ok {
		return token.Internal(in.Token, "MATH into %s", in.Operands[0])
	}
	if !dst.Operable {
		return token.Errorf(token.UnsupportedError, in.Token, "arithmetic on non-integer values is not supported")
	}
	op, ok := scoreOperations[in.Operator]
	if !ok {
		return token.Errorf(token.UnsupportedError, in.Token, "'%s' has no scoreboard operation", in.Operator)
	}
	target := regObjective(dst.ID)

	switch right := in.Operands[1].(type) {
	case rbc.Constant:
		n, err := intValue(right)
		if err != nil {
			if right.Kind == token.INT {
				return err
			}
			return token.Errorf(token.UnsupportedError, in.Token, "arithmetic on non-integer values is not supported")
		}
		// add and remove take a non-negative int32
		if (in.Operator == ast.ADD || in.Operator == ast.SUB) && n != math.MinInt32 {
			if in.Operator == ast.SUB {
				n = -n
			}
			if n >= 0 {
				g.emit("scoreboard players add %s %s %d", Holder, target, n)
			} else {
				g.emit("scoreboard players remove %s %s %d", Holder, target, -n)
			}
			return nil
		}
		g.emit("scoreboard players set %s %s %d", Holder, Scratch, n)
	case rbc.RegisterRef:
		if right.Operable {
			g.emit("scoreboard players operation %s %s %s %s %s", Holder, target, op, Holder, regObjective(right.ID))
			return nil
		}
		if err := g.loadScore(in.Token, Scratch, right); err != nil {
			return err
		}
	default:
		if err := g.loadScore(in.Token, Scratch, right); err != nil {
			return err
		}
	}
	g.emit("scoreboard players operation %s %s %s %s %s", Holder, target, op, Holder, Scratch)
	return nil
}

// push lowers PUSH for a called function: the argument record is appended
// to the stack. Inline callees read their arguments at the CALL.
func (g *generator) push(in rbc.Instruction) error {
	if g.p.Func(in.Callee).Decorators.Has(rbc.Inline) {
		return nil
	}
	v := in.Operands[0]
	if lit, ok, err := g.literal(v); err != nil {
		return err
	} else if ok {
		g.data("stack append value {value:%s,type:%d}", lit, g.typeTag(v))
		g.pending++
		return nil
	}

	if ref, ok := v.(rbc.VariableRef); ok && ref.Member == "" {
		rec, err := g.record(ref)
		if err != nil {
			return err
		}
		g.data("stack append from storage %s %s", g.storage, rec)
		g.pending++
		return nil
	}

	g.data("tmp set value {type:%d}", g.typeTag(v))
	if err := g.storeValue("tmp.value", v); err != nil {
		return err
	}
	g.data("stack append from storage %s tmp", g.storage)
	g.pending++
	return nil
}

// literal renders v as SNBT when it is fully known at compile time.
func (g *generator) literal(v rbc.Value) (string, bool, error) {
	switch v := v.(type) {
	case rbc.Constant:
		s, err := snbt(v)
		return s, err == nil, err
	case rbc.ObjectRef:
		s, rest, err := g.compound(g.p.Object(v.ID).Fields)
		return s, err == nil && len(rest) == 0, err
	}
	return "", false, nil
}

// compound renders the constant fields as an SNBT compound and returns the
// fields that need their own store command.
func (g *generator) compound(fields []rbc.Field) (string, []rbc.Field, error) {
	var parts []string
	var rest []rbc.Field
	for _, f := range fields {
		lit, ok, err := g.literal(f.Value)
		if err != nil {
			return "", nil, err
		}
		if !ok {
			rest = append(rest, f)
			continue
		}
		parts = append(parts, f.Name+":"+lit)
	}
	return "{" + strings.Join(parts, ",") + "}", rest, nil
}

// snbt renders a constant in stringified NBT.
func snbt(c rbc.Constant) (string, error) {
	switch c.Kind {
	case token.INT:
		if _, err := intValue(c); err != nil {
			return "", err
		}
		return c.Text, nil
	case token.FLOAT:
		return c.Text + "d", nil
	case token.STRING, token.SELECTOR:
		return quote(c.Text), nil
	case token.KW_TRUE:
		return "1b", nil
	case token.KW_FALSE, token.KW_NULL:
		return "0b", nil
	case token.LIST:
		items := make([]string, len(c.Items))
		for i, it := range c.Items {
			s, err := snbt(rbc.ConstantOf(it))
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return "[" + strings.Join(items, ",") + "]", nil
	}
	return "", token.Internal(c.Token, "constant of kind %s has no NBT form", c.Kind)
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

// intValue is the score value of an integer-like constant.
func intValue(c rbc.Constant) (int, error) {
	switch c.Kind {
	case token.INT:
		n, err := strconv.ParseInt(c.Text, 10, 32)
		if err != nil {
			return 0, token.Errorf(token.UnsupportedError, c.Token, "integer '%s' does not fit in a score", c.Text)
		}
		return int(n), nil
	case token.KW_TRUE:
		return 1, nil
	case token.KW_FALSE, token.KW_NULL:
		return 0, nil
	}
	return 0, token.Errorf(token.UnsupportedError, c.Token, "%s value '%s' cannot be used as a number", c.Kind, c.Text)
}
