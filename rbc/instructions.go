package rbc

import (
	"fmt"
	"strings"

	"github.com/thiremani/redscript/ast"
	"github.com/thiremani/redscript/token"
)

type Opcode int

const (
	CREATE  Opcode = iota // declare and store: Operands[0] variable, Operands[1] value
	SAVE                  // store into an existing variable or occupy a register
	MATH                  // Operands[0] register op= Operands[1]
	CALL                  // Callee
	PUSH                  // Callee, Param, Operands[0] argument value
	POP                   // Callee, Param
	IF                    // Cond, Param counts the preceding operand instructions
	ELIF                  // Cond, Param as for IF
	ELSE                  //
	ENDIF                 //
	RET                   // Operands[0] optional value
	SAVERET               // Operands[0] destination variable
	INC                   // scope depth +1
	DEC                   // scope depth -1
	ASM                   // Text is emitted verbatim
)

var opcodes = [...]string{
	CREATE:  "CREATE",
	SAVE:    "SAVE",
	MATH:    "MATH",
	CALL:    "CALL",
	PUSH:    "PUSH",
	POP:     "POP",
	IF:      "IF",
	ELIF:    "ELIF",
	ELSE:    "ELSE",
	ENDIF:   "ENDIF",
	RET:     "RET",
	SAVERET: "SAVERET",
	INC:     "INC",
	DEC:     "DEC",
	ASM:     "ASM",
}

func (o Opcode) String() string {
	if o >= 0 && int(o) < len(opcodes) {
		return opcodes[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// CompareKind is how one clause of a condition is tested.
type CompareKind int

const (
	Truthy CompareKind = iota // value is present and not zero
	EQ
	NEQ
)

// Clause is a single comparison. Right is nil for Truthy.
type Clause struct {
	Left  Value
	Right Value
	Kind  CompareKind
	Not   bool
	Token token.Token
}

func (c Clause) String() string {
	var s string
	switch c.Kind {
	case Truthy:
		s = c.Left.String()
	case EQ:
		s = c.Left.String() + " == " + c.Right.String()
	case NEQ:
		s = c.Left.String() + " != " + c.Right.String()
	}
	if c.Not {
		return "not " + s
	}
	return s
}

// Condition is a disjunction of conjunctions: 'and' binds tighter than 'or'.
type Condition struct {
	Any [][]Clause
}

func (c *Condition) String() string {
	var ors []string
	for _, all := range c.Any {
		var ands []string
		for _, cl := range all {
			ands = append(ands, cl.String())
		}
		ors = append(ors, strings.Join(ands, " and "))
	}
	return strings.Join(ors, " or ")
}

// Clauses returns every clause in source order.
func (c *Condition) Clauses() []Clause {
	var out []Clause
	for _, all := range c.Any {
		out = append(out, all...)
	}
	return out
}

type Instruction struct {
	Op       Opcode
	Token    token.Token
	Operands []Value
	Operator ast.Operator
	Cond     *Condition
	Callee   int
	Param    int
	Text     string
}

func (in Instruction) String() string {
	var out strings.Builder
	out.WriteString(in.Op.String())
	switch in.Op {
	case MATH:
		fmt.Fprintf(&out, " %s %s= %s", in.Operands[0], in.Operator, in.Operands[1])
		return out.String()
	case CALL:
		fmt.Fprintf(&out, " fn#%d", in.Callee)
	case PUSH, POP:
		fmt.Fprintf(&out, " fn#%d.%d", in.Callee, in.Param)
	case IF, ELIF:
		out.WriteString(" " + in.Cond.String())
	case ASM:
		fmt.Fprintf(&out, " %q", in.Text)
	}
	for _, v := range in.Operands {
		out.WriteString(" ")
		out.WriteString(v.String())
	}
	return out.String()
}
