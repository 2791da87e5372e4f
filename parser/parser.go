package parser

import (
	"github.com/thiremani/redscript/ast"
	"github.com/thiremani/redscript/token"
)

// Resolver reports whether name is a variable visible at the current point
// of the program. Expressions may only reference declared variables.
type Resolver interface {
	IsVariable(name string) bool
}

// Options control where an expression ends.
type Options struct {
	Bracket  bool // inside an open '(' that this expression must close
	Single   bool // stop after exactly one operand
	InObject bool // inside an argument list, list or object body: ',' and '}' end the expression
}

// ParseExpression builds the operator tree for the expression starting at
// the cursor, folds its constant subexpressions and leaves the cursor on the
// terminating token. A closing bracket is consumed only when opt.Bracket is
// set.
func ParseExpression(c *Cursor, r Resolver, opt Options) (*ast.Expression, error) {
	p := &exprParser{c: c, r: r}
	root, res, err := p.parse(opt)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return &ast.Expression{Result: res}, nil
	}
	root, warnings := ast.Prune(root)
	return &ast.Expression{Root: root, Warnings: warnings}, nil
}

type exprParser struct {
	c *Cursor
	r Resolver
}

func (p *exprParser) parse(opt Options) (*ast.Node, ast.Result, error) {
	var root *ast.Node
	var pending ast.Operator
	var pendingTok token.Token
	start := p.c.Cur()

	for {
		operand, res, err := p.operand()
		if err != nil {
			return nil, nil, err
		}
		if res != nil {
			if root != nil || !p.atEnd(opt) {
				return nil, nil, token.Errorf(token.SyntaxError, res.Tok(), "'%s' cannot be used in an arithmetic expression", res)
			}
			if opt.Bracket {
				return nil, nil, token.Errorf(token.SyntaxError, res.Tok(), "'%s' cannot be grouped in brackets", res)
			}
			return nil, res, nil
		}
		root = insert(root, pending, pendingTok, operand)

		if opt.Single {
			return root, nil, nil
		}

		tok := p.c.Cur()
		if p.atEnd(opt) {
			if opt.Bracket {
				if tok.Type != token.RPAREN {
					if tok.Type == token.EOF {
						return nil, nil, token.Errorf(token.EOFError, start, "unterminated bracket")
					}
					return nil, nil, p.c.Unexpected(tok, "')'")
				}
				p.c.Next()
			}
			return root, nil, nil
		}

		op, ok := ast.OperatorFor(tok)
		if !ok {
			if tok.Type == token.OPERATOR {
				return nil, nil, token.Errorf(token.SyntaxError, tok, "unsupported operator '%s'", tok.Literal)
			}
			return nil, nil, token.Errorf(token.SyntaxError, tok, "unexpected token '%s' in expression", describe(tok))
		}
		pending, pendingTok = op, tok
		p.c.Next()

		if next := p.c.Cur(); next.Type == token.OPERATOR && next.Literal != "-" {
			return nil, nil, token.Errorf(token.SyntaxError, next, "expected operand after '%s', got operator '%s'", tok.Literal, next.Literal)
		}
	}
}

// insert attaches operand to the tree with op. It walks down the right
// spine while op binds tighter than the spine's operator, so the new
// operation nests under the loosest operator it may not float above.
// Leaves and bracketed groups are atomic.
func insert(root *ast.Node, op ast.Operator, opTok token.Token, operand *ast.Node) *ast.Node {
	if root == nil {
		return operand
	}
	if root.IsLeaf() || root.Grouped || root.Op == ast.NONE || op.Precedence() >= root.Op.Precedence() {
		return &ast.Node{Left: root, Right: operand, Op: op, OpToken: opTok}
	}
	root.Right = insert(root.Right, op, opTok, operand)
	return root
}

// atEnd reports whether the current token terminates the expression.
func (p *exprParser) atEnd(opt Options) bool {
	tok := p.c.Cur()
	switch tok.Type {
	case token.LINE_END, token.EOF, token.RPAREN, token.LBRACE:
		return true
	case token.RBRACE, token.RBRACK:
		return opt.InObject
	case token.KW_AND, token.KW_OR:
		return !opt.Bracket
	case token.SYMBOL:
		switch tok.Literal {
		case ",":
			return opt.InObject && !opt.Bracket
		case "==", "!=":
			return !opt.Bracket
		}
	}
	return false
}

func (p *exprParser) operand() (*ast.Node, ast.Result, error) {
	tok := p.c.Cur()
	switch tok.Type {
	case token.INT, token.FLOAT, token.STRING, token.KW_TRUE, token.KW_FALSE, token.KW_NULL:
		p.c.Next()
		return ast.Leaf(tok), nil, nil

	case token.WORD:
		return p.identifier()

	case token.OPERATOR:
		if tok.Literal != "-" {
			return nil, nil, token.Errorf(token.SyntaxError, tok, "expected operand, got operator '%s'", tok.Literal)
		}
		return p.negate()

	case token.LPAREN:
		if err := p.c.Enter(tok); err != nil {
			return nil, nil, err
		}
		defer p.c.Leave()
		p.c.Next()
		if p.c.CurIs(token.RPAREN) {
			return nil, nil, token.Errorf(token.SyntaxError, p.c.Cur(), "empty brackets in expression")
		}
		inner, _, err := p.parse(Options{Bracket: true})
		if err != nil {
			return nil, nil, err
		}
		if inner.IsLeaf() {
			return inner, nil, nil
		}
		inner.Grouped = true
		return inner, nil, nil

	case token.SELECTOR:
		p.c.Next()
		return nil, &ast.Selector{Token: tok}, nil

	case token.LBRACK:
		res, err := p.list()
		return nil, res, err

	case token.LBRACE:
		res, err := p.object()
		return nil, res, err

	case token.EOF:
		return nil, nil, token.Errorf(token.EOFError, tok, "expected expression")
	}
	return nil, nil, token.Errorf(token.SyntaxError, tok, "unexpected token '%s'", describe(tok))
}

func (p *exprParser) identifier() (*ast.Node, ast.Result, error) {
	tok := p.c.Cur()
	if p.c.PeekIs(token.LPAREN) || p.c.PeekSym("::") {
		return nil, nil, token.Errorf(token.UnsupportedError, tok,
			"function calls cannot be used inside expressions; assign the result of '%s' to a variable first", tok.Literal)
	}
	if !p.r.IsVariable(tok.Literal) {
		return nil, nil, token.Errorf(token.SyntaxError, tok, "undeclared variable '%s'", tok.Literal)
	}
	p.c.Next()

	leaf := ast.Leaf(tok)
	if p.c.CurSym(".") {
		p.c.Next()
		member, err := p.c.Expect(token.WORD, "member name")
		if err != nil {
			return nil, nil, err
		}
		leaf.Member = member.Literal
	}
	return leaf, nil, nil
}

// negate handles unary minus: numeric literals absorb the sign, anything
// else becomes (0 - operand).
func (p *exprParser) negate() (*ast.Node, ast.Result, error) {
	minus := p.c.Cur()
	p.c.Next()

	next := p.c.Cur()
	if next.Type == token.INT || next.Type == token.FLOAT {
		p.c.Next()
		tok := next
		tok.Literal = "-" + next.Literal
		tok.Line, tok.Column, tok.Offset = minus.Line, minus.Column, minus.Offset
		return ast.Leaf(tok), nil, nil
	}

	operand, res, err := p.operand()
	if err != nil {
		return nil, nil, err
	}
	if res != nil {
		return nil, nil, token.Errorf(token.SyntaxError, minus, "cannot negate '%s'", res)
	}
	zero := minus
	zero.Type, zero.Literal, zero.Info = token.INT, "0", 0
	return &ast.Node{Left: ast.Leaf(zero), Right: operand, Op: ast.SUB, OpToken: minus, Grouped: true}, nil, nil
}

// list parses [c1, c2, ...] where every item is a constant of one kind.
func (p *exprParser) list() (ast.Result, error) {
	open := p.c.Cur()
	if err := p.c.Enter(open); err != nil {
		return nil, err
	}
	defer p.c.Leave()
	p.c.Next()

	res := &ast.ListLiteral{Token: open}
	for !p.c.CurIs(token.RBRACK) {
		item := p.c.Cur()
		if item.Is(token.OPERATOR, "-") && (p.c.PeekIs(token.INT) || p.c.PeekIs(token.FLOAT)) {
			p.c.Next()
			num := p.c.Cur()
			item.Type, item.Literal = num.Type, "-"+num.Literal
		}
		switch item.Type {
		case token.INT, token.FLOAT, token.STRING, token.KW_TRUE, token.KW_FALSE:
		case token.EOF:
			return nil, token.Errorf(token.EOFError, open, "unterminated list")
		default:
			return nil, token.Errorf(token.SyntaxError, item, "list items must be constants, got '%s'", describe(item))
		}
		kind := item.Type
		if kind == token.KW_FALSE {
			kind = token.KW_TRUE
		}
		if len(res.Items) == 0 {
			res.Kind = kind
		} else if res.Kind != kind {
			return nil, token.Errorf(token.SyntaxError, item, "list items must all be of the same kind")
		}
		res.Items = append(res.Items, item)
		p.c.Next()

		if p.c.CurSym(",") {
			p.c.Next()
			continue
		}
		if !p.c.CurIs(token.RBRACK) {
			return nil, p.c.Unexpected(p.c.Cur(), "',' or ']'")
		}
	}
	p.c.Next()
	return res, nil
}

// object parses { name = expr, ... }.
func (p *exprParser) object() (ast.Result, error) {
	open := p.c.Cur()
	if err := p.c.Enter(open); err != nil {
		return nil, err
	}
	defer p.c.Leave()
	p.c.Next()

	res := &ast.ObjectLiteral{Token: open}
	for !p.c.CurIs(token.RBRACE) {
		name, err := p.c.Expect(token.WORD, "member name")
		if err != nil {
			return nil, err
		}
		if res.Member(name.Literal) != nil {
			return nil, token.Errorf(token.SyntaxError, name, "duplicate member '%s'", name.Literal)
		}
		if _, err := p.c.ExpectSym("="); err != nil {
			return nil, err
		}
		value, err := ParseExpression(p.c, p.r, Options{InObject: true})
		if err != nil {
			return nil, err
		}
		res.Members = append(res.Members, ast.ObjectMember{Name: name, Value: value})

		if p.c.CurSym(",") {
			p.c.Next()
			continue
		}
		if !p.c.CurIs(token.RBRACE) {
			return nil, p.c.Unexpected(p.c.Cur(), "',' or '}'")
		}
	}
	p.c.Next()
	return res, nil
}
