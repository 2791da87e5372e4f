package rbc

import (
	"github.com/thiremani/redscript/token"
)

// Verify checks the structural invariants the backend relies on:
// conditional chains nest, scope INC/DEC balance, every CALL is preceded by
// one PUSH per parameter and followed by the matching POPs, and no register
// is left occupied. It never modifies the program.
func Verify(p *Program) []*token.CompileError {
	v := &verifier{p: p}
	for _, f := range p.Functions {
		if f.Builtin {
			continue
		}
		v.function(f)
	}
	if live := p.Registers.Occupied(); len(live) > 0 {
		v.addError(token.Token{}, "register %s still occupied at end of compilation", live[0])
	}
	return v.errors
}

type verifier struct {
	p      *Program
	errors []*token.CompileError
}

func (v *verifier) addError(tok token.Token, format string, args ...any) {
	v.errors = append(v.errors, token.Internal(tok, format, args...))
}

type chainState int

const (
	inIf chainState = iota
	inElse
)

func (v *verifier) function(f *Function) {
	var chains []chainState
	depth := 0
	pushes := 0
	pushCallee := None
	pops := 0
	popCallee := None
	lastCall := None

	for i, in := range f.Instructions {
		if pops > 0 && in.Op != POP {
			v.addError(in.Token, "%s: call to fn#%d is missing %d POP(s)", f.Name, popCallee, pops)
			pops = 0
		}

		if (in.Op == IF || in.Op == ELIF) && !operandRun(f.Instructions, i, in.Param) {
			v.addError(in.Token, "%s: %s claims %d operand instruction(s) that are not SAVE or MATH", f.Name, in.Op, in.Param)
		}

		switch in.Op {
		case IF:
			chains = append(chains, inIf)
		case ELIF, ELSE:
			if len(chains) == 0 || chains[len(chains)-1] == inElse {
				v.addError(in.Token, "%s: %s without an open IF at instruction %d", f.Name, in.Op, i)
				continue
			}
			if in.Op == ELSE {
				chains[len(chains)-1] = inElse
			}
		case ENDIF:
			if len(chains) == 0 {
				v.addError(in.Token, "%s: ENDIF without IF at instruction %d", f.Name, i)
				continue
			}
			chains = chains[:len(chains)-1]
		case INC:
			depth++
		case DEC:
			depth--
			if depth < 0 {
				v.addError(in.Token, "%s: scope depth below zero at instruction %d", f.Name, i)
				depth = 0
			}
		case PUSH:
			if pushes > 0 && pushCallee != in.Callee {
				v.addError(in.Token, "%s: interleaved arguments for fn#%d and fn#%d", f.Name, pushCallee, in.Callee)
			}
			if in.Param != pushes {
				v.addError(in.Token, "%s: argument %d pushed out of order", f.Name, in.Param)
			}
			pushes++
			pushCallee = in.Callee
		case CALL:
			if in.Callee < 0 || in.Callee >= len(v.p.Functions) {
				v.addError(in.Token, "%s: call to unknown fn#%d", f.Name, in.Callee)
				continue
			}
			callee := v.p.Functions[in.Callee]
			if pushes > 0 && pushCallee != in.Callee {
				v.addError(in.Token, "%s: arguments pushed for fn#%d but fn#%d called", f.Name, pushCallee, in.Callee)
			}
			if pushes != len(callee.Params) {
				v.addError(in.Token, "%s: %s takes %d argument(s), %d pushed", f.Name, callee.Name, len(callee.Params), pushes)
			}
			if !callee.Decorators.Has(Inline) {
				pops, popCallee = pushes, in.Callee
			}
			pushes, pushCallee = 0, None
			lastCall = i
		case POP:
			if pops == 0 || in.Callee != popCallee {
				v.addError(in.Token, "%s: unmatched POP at instruction %d", f.Name, i)
				continue
			}
			pops--
		case SAVERET:
			if lastCall == None || !onlyPops(f.Instructions[lastCall+1:i]) {
				v.addError(in.Token, "%s: SAVERET does not follow a CALL", f.Name)
			}
		}

		if pushes > 0 && in.Op != PUSH && in.Op != SAVE && in.Op != MATH {
			v.addError(in.Token, "%s: %s between arguments of fn#%d", f.Name, in.Op, pushCallee)
			pushes = 0
		}
	}

	end := token.Token{}
	if n := len(f.Instructions); n > 0 {
		end = f.Instructions[n-1].Token
	}
	if len(chains) != 0 {
		v.addError(end, "%s: %d conditional block(s) never closed", f.Name, len(chains))
	}
	if depth != 0 {
		v.addError(end, "%s: %d scope(s) never closed", f.Name, depth)
	}
	if pushes != 0 {
		v.addError(end, "%s: arguments pushed but never called", f.Name)
	}
	if pops != 0 {
		v.addError(end, "%s: call to fn#%d is missing %d POP(s)", f.Name, popCallee, pops)
	}
}

func onlyPops(ins []Instruction) bool {
	for _, in := range ins {
		if in.Op != POP {
			return false
		}
	}
	return true
}

// operandRun reports whether the n instructions before index i only
// compute register values.
func operandRun(ins []Instruction, i, n int) bool {
	if n < 0 || n > i {
		return false
	}
	for _, in := range ins[i-n : i] {
		if in.Op != SAVE && in.Op != MATH {
			return false
		}
	}
	return true
}
