package mc

import (
	"fmt"
	"strconv"

	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
)

// test is one execute condition. A static test is known at compile time
// and never reaches the output.
type test struct {
	body    string // e.g. "score _CPU r0 matches 0"
	negated bool
	static  bool
	value   bool
}

func (t test) String() string {
	if t.negated {
		return "unless " + t.body
	}
	return "if " + t.body
}

func (t test) not() test {
	if t.static {
		t.value = !t.value
	} else {
		t.negated = !t.negated
	}
	return t
}

func staticTest(v bool) test { return test{static: true, value: v} }

// condition writes 1 into a comparison register when cond holds and returns
// the register, which the caller owns until the chain is closed. Each
// conjunction becomes one command setting the register; clauses that need a
// scratch value borrow a register until that command is emitted.
func (g *generator) condition(tok token.Token, cond *rbc.Condition) (int, error) {
	res := g.cmps.Take(rbc.EQ)
	g.emit("scoreboard players set %s %s 0", Holder, cmpObjective(res))
	for _, all := range cond.Any {
		var tests []string
		never := false
		for _, cl := range all {
			t, err := g.clause(cl)
			if err != nil {
				return 0, err
			}
			switch {
			case t.static && !t.value:
				never = true
			case !t.static:
				tests = append(tests, t.String())
			}
		}
		if !never {
			g.guarded(tests, "scoreboard players set %s %s 1", Holder, cmpObjective(res))
		}
		if err := g.releaseScratch(tok); err != nil {
			return 0, err
		}
	}
	return res, nil
}

func (g *generator) clause(cl rbc.Clause) (test, error) {
	var t test
	var err error
	switch cl.Kind {
	case rbc.Truthy:
		t, err = g.truthy(cl.Token, cl.Left)
	case rbc.EQ, rbc.NEQ:
		t, err = g.equal(cl.Token, cl.Left, cl.Right)
		if cl.Kind == rbc.NEQ {
			t = t.not()
		}
	default:
		return test{}, token.Internal(cl.Token, "unknown comparison %d", cl.Kind)
	}
	if err != nil {
		return test{}, err
	}
	if cl.Not {
		t = t.not()
	}
	return t, nil
}

// truthy tests that v is present and not zero. Strings and lists are
// truthy when not empty.
func (g *generator) truthy(tok token.Token, v rbc.Value) (test, error) {
	switch v := v.(type) {
	case rbc.Constant:
		switch v.Kind {
		case token.SELECTOR:
			return test{body: "entity " + v.Text}, nil
		case token.INT:
			return staticTest(v.Text != "0" && v.Text != "-0"), nil
		case token.FLOAT:
			f, err := strconv.ParseFloat(v.Text, 64)
			return staticTest(err == nil && f != 0), nil
		case token.STRING:
			return staticTest(v.Text != ""), nil
		case token.KW_TRUE:
			return staticTest(true), nil
		case token.LIST:
			return staticTest(len(v.Items) > 0), nil
		}
		return staticTest(false), nil
	case rbc.RegisterRef:
		if v.Operable {
			return test{body: fmt.Sprintf("score %s %s matches 0", Holder, regObjective(v.ID)), negated: true}, nil
		}
	}

	path, err := g.sourcePath(v)
	if err != nil {
		return test{}, token.Internal(tok, "%v", err)
	}
	k := g.scratchCmp(rbc.Truthy)
	g.emit("scoreboard players set %s %s 0", Holder, k)
	g.emit("execute store result score %s %s run data get storage %s %s", Holder, k, g.storage, path)
	return test{body: fmt.Sprintf("score %s %s matches 0", Holder, k), negated: true}, nil
}

// equal tests l == r. Scores compare directly, integer constants with
// `matches`, and storage values by trying to overwrite a copy of one side
// with the other: the write only succeeds when they differ.
func (g *generator) equal(tok token.Token, l, r rbc.Value) (test, error) {
	for _, v := range []rbc.Value{l, r} {
		if c, ok := v.(rbc.Constant); ok && c.Kind == token.SELECTOR {
			return test{}, token.Errorf(token.UnsupportedError, tok, "selectors cannot be compared")
		}
	}
	if _, ok := l.(rbc.Constant); ok {
		l, r = r, l
	}

	lc, lConst := l.(rbc.Constant)
	rc, rConst := r.(rbc.Constant)
	if lConst && rConst {
		if lc.IsInt() && rc.IsInt() {
			a, err := intValue(lc)
			if err != nil {
				return test{}, err
			}
			b, err := intValue(rc)
			if err != nil {
				return test{}, err
			}
			return staticTest(a == b), nil
		}
		a, err := snbt(lc)
		if err != nil {
			return test{}, err
		}
		b, err := snbt(rc)
		if err != nil {
			return test{}, err
		}
		return staticTest(a == b), nil
	}

	lr, lScore := l.(rbc.RegisterRef)
	lScore = lScore && lr.Operable
	rr, rScore := r.(rbc.RegisterRef)
	rScore = rScore && rr.Operable

	switch {
	case lScore && rScore:
		return test{body: fmt.Sprintf("score %s %s = %s %s", Holder, regObjective(lr.ID), Holder, regObjective(rr.ID))}, nil

	case rConst && rc.IsInt():
		n, err := intValue(rc)
		if err != nil {
			return test{}, err
		}
		var obj string
		if lScore {
			obj = regObjective(lr.ID)
		} else {
			obj = g.scratchCmp(rbc.EQ)
			if err := g.loadScore(tok, obj, l); err != nil {
				return test{}, err
			}
		}
		return test{body: fmt.Sprintf("score %s %s matches %d", Holder, obj, n)}, nil

	case lScore || rScore:
		score, other := lr, r
		if !lScore {
			score, other = rr, l
		}
		if c, ok := other.(rbc.Constant); ok {
			return test{}, token.Errorf(token.UnsupportedError, tok, "cannot compare an integer with %s '%s'", c.Kind, c.Text)
		}
		k := g.scratchCmp(rbc.EQ)
		if err := g.loadScore(tok, k, other); err != nil {
			return test{}, err
		}
		return test{body: fmt.Sprintf("score %s %s = %s %s", Holder, regObjective(score.ID), Holder, k)}, nil
	}

	lp, err := g.sourcePath(l)
	if err != nil {
		return test{}, token.Internal(tok, "%v", err)
	}
	k := g.scratchCmp(rbc.EQ)
	g.emit("data remove storage %s tmp", g.storage)
	g.data("tmp set from storage %s %s", g.storage, lp)
	if rConst {
		lit, err := snbt(rc)
		if err != nil {
			return test{}, err
		}
		g.emit("execute store success score %s %s run data modify storage %s tmp set value %s", Holder, k, g.storage, lit)
	} else {
		rp, err := g.sourcePath(r)
		if err != nil {
			return test{}, token.Internal(tok, "%v", err)
		}
		g.emit("execute store success score %s %s run data modify storage %s tmp set from storage %s %s", Holder, k, g.storage, g.storage, rp)
	}
	return test{body: fmt.Sprintf("score %s %s matches 0", Holder, k)}, nil
}
