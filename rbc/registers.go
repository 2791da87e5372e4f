package rbc

import (
	"fmt"
)

// Register is one slot of a Pool.
type Register struct {
	ID       int
	Operable bool
	Vacant   bool
}

// Pool is a growable first-fit register allocator. Alloc hands out a vacant
// register without claiming it; the consumer claims it with Occupy and
// releases it with Free. Freeing a vacant register is a bug.
type Pool struct {
	regs []Register
	live int
	peak int
}

// Alloc returns the first vacant register of the requested kind, growing the
// pool when none is left. The register stays vacant until occupied.
func (p *Pool) Alloc(operable bool) RegisterRef {
	for _, r := range p.regs {
		if r.Vacant && r.Operable == operable {
			return RegisterRef{ID: r.ID, Operable: operable}
		}
	}
	id := len(p.regs)
	p.regs = append(p.regs, Register{ID: id, Operable: operable, Vacant: true})
	return RegisterRef{ID: id, Operable: operable}
}

func (p *Pool) Occupy(r RegisterRef) error {
	reg, err := p.get(r)
	if err != nil {
		return err
	}
	if !reg.Vacant {
		return fmt.Errorf("register %s is already occupied", r)
	}
	reg.Vacant = false
	p.live++
	p.peak = max(p.peak, p.live)
	return nil
}

func (p *Pool) Free(r RegisterRef) error {
	reg, err := p.get(r)
	if err != nil {
		return err
	}
	if reg.Vacant {
		return fmt.Errorf("register %s freed twice", r)
	}
	reg.Vacant = true
	p.live--
	return nil
}

func (p *Pool) IsVacant(r RegisterRef) bool {
	reg, err := p.get(r)
	return err == nil && reg.Vacant
}

func (p *Pool) get(r RegisterRef) (*Register, error) {
	if r.ID < 0 || r.ID >= len(p.regs) {
		return nil, fmt.Errorf("unknown register %s", r)
	}
	reg := &p.regs[r.ID]
	if reg.Operable != r.Operable {
		return nil, fmt.Errorf("register %s has the wrong kind", r)
	}
	return reg, nil
}

// Live returns how many registers are occupied right now.
func (p *Pool) Live() int { return p.live }

// Peak returns the highest number of simultaneously occupied registers.
func (p *Pool) Peak() int { return p.peak }

func (p *Pool) Len() int { return len(p.regs) }

// Registers returns a copy of every register the pool ever handed out.
func (p *Pool) Registers() []Register {
	return append([]Register(nil), p.regs...)
}

// Occupied returns the registers that are still claimed.
func (p *Pool) Occupied() []RegisterRef {
	var out []RegisterRef
	for _, r := range p.regs {
		if !r.Vacant {
			out = append(out, RegisterRef{ID: r.ID, Operable: r.Operable})
		}
	}
	return out
}

// Reset releases every register but keeps the pool size.
func (p *Pool) Reset() {
	for i := range p.regs {
		p.regs[i].Vacant = true
	}
	p.live = 0
}

// CmpRegister is a boolean comparison register.
type CmpRegister struct {
	ID     int
	Kind   CompareKind
	Vacant bool
}

// CmpPool hands out comparison registers first-fit. Registers below the base
// belong to functions lowered earlier and are never handed out again, so a
// callee cannot overwrite a register its caller holds across the call.
type CmpPool struct {
	regs []CmpRegister
	base int
	live int
}

// Enter starts a new function: every register handed out so far is off
// limits from now on.
func (p *CmpPool) Enter() {
	p.base = len(p.regs)
	p.live = 0
}

// Take occupies the first vacant register at or above the base, growing the
// pool when none is left.
func (p *CmpPool) Take(kind CompareKind) int {
	for i := p.base; i < len(p.regs); i++ {
		if p.regs[i].Vacant {
			p.regs[i].Vacant = false
			p.regs[i].Kind = kind
			p.live++
			return i
		}
	}
	id := len(p.regs)
	p.regs = append(p.regs, CmpRegister{ID: id, Kind: kind})
	p.live++
	return id
}

func (p *CmpPool) Release(id int) error {
	if id < p.base || id >= len(p.regs) {
		return fmt.Errorf("comparison register %d does not belong to the current function", id)
	}
	if p.regs[id].Vacant {
		return fmt.Errorf("comparison register %d released twice", id)
	}
	p.regs[id].Vacant = true
	p.live--
	return nil
}

// Live returns how many registers of the current function are held.
func (p *CmpPool) Live() int { return p.live }

// Len is the number of registers ever handed out.
func (p *CmpPool) Len() int { return len(p.regs) }
