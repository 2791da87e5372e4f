package compiler

import (
	"github.com/thiremani/redscript/parser"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
)

// maxConjunctions bounds the disjunctive form of one condition.
const maxConjunctions = 64

// compileIf handles `if cond {`. The block is closed by closeScope, which
// continues the chain with compileElif or compileElse.
func (c *Compiler) compileIf() error {
	tok := c.cur.Cur()
	c.cur.Next()
	return c.openConditional(tok, rbc.IF, IfScope)
}

func (c *Compiler) compileElif() error {
	tok := c.cur.Cur()
	c.cur.Next()
	return c.openConditional(tok, rbc.ELIF, ElifScope)
}

func (c *Compiler) compileElse() error {
	tok := c.cur.Cur()
	c.cur.Next()
	brace, err := c.cur.Expect(token.LBRACE, "'{' after else")
	if err != nil {
		return err
	}
	c.emit(rbc.Instruction{Op: rbc.ELSE, Token: tok})
	return c.PushScope(ElseScope, brace)
}

func (c *Compiler) openConditional(tok token.Token, op rbc.Opcode, sk ScopeKind) error {
	if c.inModuleBody() {
		return token.Errorf(token.SyntaxError, tok, "'%s' is not allowed inside a module", tok.Literal)
	}
	start := len(c.current().Instructions)
	dnf, held, err := c.disjunction()
	if err != nil {
		return err
	}
	brace, err := c.cur.Expect(token.LBRACE, "'{' after condition")
	if err != nil {
		return err
	}
	// Param counts the instructions evaluating the operands, so an ELIF's
	// operands can be computed outside the preceding branch
	n := len(c.current().Instructions) - start
	c.emit(rbc.Instruction{Op: op, Token: tok, Cond: &rbc.Condition{Any: dnf}, Param: n})
	if err := c.release(tok, held); err != nil {
		return err
	}
	return c.PushScope(sk, brace)
}

// disjunction parses `conj ('or' conj)*`.
func (c *Compiler) disjunction() ([][]rbc.Clause, []rbc.RegisterRef, error) {
	dnf, held, err := c.conjunction()
	if err != nil {
		return nil, held, err
	}
	for c.cur.CurIs(token.KW_OR) {
		c.cur.Next()
		next, h, err := c.conjunction()
		held = append(held, h...)
		if err != nil {
			return nil, held, err
		}
		dnf = append(dnf, next...)
	}
	return dnf, held, nil
}

// conjunction parses `unary ('and' unary)*` and distributes the result into
// disjunctive form.
func (c *Compiler) conjunction() ([][]rbc.Clause, []rbc.RegisterRef, error) {
	dnf, held, err := c.unaryCondition()
	if err != nil {
		return nil, held, err
	}
	for c.cur.CurIs(token.KW_AND) {
		andTok := c.cur.Cur()
		c.cur.Next()
		rhs, h, err := c.unaryCondition()
		held = append(held, h...)
		if err != nil {
			return nil, held, err
		}
		if len(dnf)*len(rhs) > maxConjunctions {
			return nil, held, token.Errorf(token.UnsupportedError, andTok, "condition is too complex")
		}
		var product [][]rbc.Clause
		for _, l := range dnf {
			for _, r := range rhs {
				all := append(append([]rbc.Clause{}, l...), r...)
				product = append(product, all)
			}
		}
		dnf = product
	}
	return dnf, held, nil
}

// unaryCondition parses `not unary`, a bracketed sub-condition, or a single
// comparison.
func (c *Compiler) unaryCondition() ([][]rbc.Clause, []rbc.RegisterRef, error) {
	tok := c.cur.Cur()
	switch {
	case tok.Type == token.KW_NOT:
		c.cur.Next()
		inner, held, err := c.unaryCondition()
		if err != nil {
			return nil, held, err
		}
		if len(inner) != 1 || len(inner[0]) != 1 {
			return nil, held, token.Errorf(token.UnsupportedError, tok, "'not' can only be applied to a single comparison")
		}
		inner[0][0].Not = !inner[0][0].Not
		return inner, held, nil

	case tok.Type == token.LPAREN && c.bracketedCondition():
		if err := c.cur.Enter(tok); err != nil {
			return nil, nil, err
		}
		defer c.cur.Leave()
		c.cur.Next()
		dnf, held, err := c.disjunction()
		if err != nil {
			return nil, held, err
		}
		if _, err := c.cur.Expect(token.RPAREN, "')'"); err != nil {
			return nil, held, err
		}
		return dnf, held, nil
	}

	clause, held, err := c.clause()
	if err != nil {
		return nil, held, err
	}
	return [][]rbc.Clause{{clause}}, held, nil
}

// bracketedCondition reports whether the '(' at the cursor encloses a
// condition rather than an arithmetic group. Arithmetic groups never hold
// comparisons or logical keywords.
func (c *Compiler) bracketedCondition() bool {
	depth := 0
	for i := 0; ; i++ {
		tok := c.cur.PeekN(i)
		switch tok.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return false
			}
		case token.KW_AND, token.KW_OR, token.KW_NOT:
			return true
		case token.SYMBOL:
			if tok.Literal == "==" || tok.Literal == "!=" {
				return true
			}
		case token.EOF, token.LINE_END, token.LBRACE:
			return false
		}
	}
}

// clause parses `expr` or `expr (==|!=) expr`.
func (c *Compiler) clause() (rbc.Clause, []rbc.RegisterRef, error) {
	start := c.cur.Cur()
	left, held, err := c.conditionOperand()
	if err != nil {
		return rbc.Clause{}, held, err
	}
	cl := rbc.Clause{Left: left, Kind: rbc.Truthy, Token: start}

	op := c.cur.Cur()
	switch {
	case op.Is(token.SYMBOL, "=="):
		cl.Kind = rbc.EQ
	case op.Is(token.SYMBOL, "!="):
		cl.Kind = rbc.NEQ
	default:
		return cl, held, nil
	}
	c.cur.Next()
	right, h, err := c.conditionOperand()
	held = append(held, h...)
	if err != nil {
		return rbc.Clause{}, held, err
	}
	cl.Right = right
	return cl, held, nil
}

func (c *Compiler) conditionOperand() (rbc.Value, []rbc.RegisterRef, error) {
	expr, err := parser.ParseExpression(c.cur, c, parser.Options{})
	if err != nil {
		return nil, nil, err
	}
	v, held, err := c.value(expr)
	if err != nil {
		return nil, held, err
	}
	switch v := v.(type) {
	case rbc.ObjectRef:
		return nil, held, token.Errorf(token.UnsupportedError, expr.Tok(), "objects cannot be compared")
	case rbc.Constant:
		if v.Kind == token.LIST {
			return nil, held, token.Errorf(token.UnsupportedError, expr.Tok(), "lists cannot be compared")
		}
	}
	return v, held, nil
}
