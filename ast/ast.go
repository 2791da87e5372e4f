package ast

import (
	"bytes"
	"strings"

	"github.com/thiremani/redscript/token"
)

type Operator int

const (
	NONE Operator = iota
	ADD
	SUB
	MUL
	DIV
	MOD
	XOR
	POW
)

var operatorSymbols = [...]string{
	NONE: "",
	ADD:  "+",
	SUB:  "-",
	MUL:  "*",
	DIV:  "/",
	MOD:  "%",
	XOR:  "^",
	POW:  "**",
}

func (o Operator) String() string {
	if o >= 0 && int(o) < len(operatorSymbols) {
		return operatorSymbols[o]
	}
	return "?"
}

// Precedence returns the binding rank of o; a lower rank binds tighter.
// All ranks are left-associative.
func (o Operator) Precedence() int {
	switch o {
	case XOR, POW:
		return 0
	case MUL, DIV, MOD:
		return 1
	case ADD, SUB:
		return 2
	}
	return 3
}

// OperatorFor maps an OPERATOR token to its tree operator.
func OperatorFor(tok token.Token) (Operator, bool) {
	if tok.Type != token.OPERATOR {
		return NONE, false
	}
	switch tok.Literal {
	case "+":
		return ADD, true
	case "-":
		return SUB, true
	case "*":
		return MUL, true
	case "/":
		return DIV, true
	case "%":
		return MOD, true
	case "^":
		return XOR, true
	}
	return NONE, false
}

// Node is either a leaf holding a token (optionally with a member access) or
// an operation combining Left and Right with Op. A node without Right and
// with Op NONE is singular and reduces to its Left.
type Node struct {
	Token   *token.Token
	Member  string // p.x leaves carry "x"
	Left    *Node
	Right   *Node
	Op      Operator
	OpToken token.Token
	Grouped bool // built from a bracketed sub-expression
}

func Leaf(tok token.Token) *Node {
	return &Node{Token: &tok}
}

func (n *Node) IsLeaf() bool {
	return n != nil && n.Token != nil
}

func (n *Node) Singular() bool {
	if n == nil {
		return false
	}
	return n.IsLeaf() || (n.Right == nil && n.Op == NONE && n.Left != nil)
}

// Reduce follows a chain of singular nodes down to the node that carries the
// value. Operation nodes reduce to themselves.
func (n *Node) Reduce() *Node {
	for n != nil && !n.IsLeaf() && n.Singular() {
		n = n.Left
	}
	return n
}

// Tok returns the token that best locates n in the source.
func (n *Node) Tok() token.Token {
	n = n.Reduce()
	if n == nil {
		return token.Token{}
	}
	if n.IsLeaf() {
		return *n.Token
	}
	return n.OpToken
}

func (n *Node) String() string {
	n = n.Reduce()
	if n == nil {
		return ""
	}
	if n.IsLeaf() {
		s := n.Token.Literal
		if n.Token.Type == token.STRING {
			s = `"` + s + `"`
		}
		if n.Member != "" {
			s += "." + n.Member
		}
		return s
	}

	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(n.Left.String())
	out.WriteString(" " + n.Op.String() + " ")
	out.WriteString(n.Right.String())
	out.WriteString(")")
	return out.String()
}

// Leaves returns the operand tokens of n in source order.
func (n *Node) Leaves() []token.Token {
	var out []token.Token
	var walk func(*Node)
	walk = func(n *Node) {
		n = n.Reduce()
		if n == nil {
			return
		}
		if n.IsLeaf() {
			out = append(out, *n.Token)
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(n)
	return out
}

// Depth returns the height of the operation tree.
func (n *Node) Depth() int {
	n = n.Reduce()
	if n == nil || n.IsLeaf() {
		return 0
	}
	return 1 + max(n.Left.Depth(), n.Right.Depth())
}

// Result is a non-operational expression value: it bypasses arithmetic
// evaluation and is stored as is.
type Result interface {
	Tok() token.Token
	String() string
	resultNode()
}

type ObjectMember struct {
	Name  token.Token
	Value *Expression
}

// ObjectLiteral is { a = expr, b = expr }. Member order is source order.
type ObjectLiteral struct {
	Token   token.Token // the { token
	Members []ObjectMember
}

func (ol *ObjectLiteral) resultNode()      {}
func (ol *ObjectLiteral) Tok() token.Token { return ol.Token }
func (ol *ObjectLiteral) String() string {
	members := []string{}
	for _, m := range ol.Members {
		members = append(members, m.Name.Literal+" = "+m.Value.String())
	}
	return "{" + strings.Join(members, ", ") + "}"
}

// Member returns the expression assigned to name, or nil.
func (ol *ObjectLiteral) Member(name string) *Expression {
	for _, m := range ol.Members {
		if m.Name.Literal == name {
			return m.Value
		}
	}
	return nil
}

// ListLiteral is [c1, c2, ...] where every item is a constant of Kind.
type ListLiteral struct {
	Token token.Token // the [ token
	Kind  token.TokenType
	Items []token.Token
}

func (ll *ListLiteral) resultNode()      {}
func (ll *ListLiteral) Tok() token.Token { return ll.Token }
func (ll *ListLiteral) String() string {
	items := []string{}
	for _, it := range ll.Items {
		if it.Type == token.STRING {
			items = append(items, `"`+it.Literal+`"`)
		} else {
			items = append(items, it.Literal)
		}
	}
	return "[" + strings.Join(items, ", ") + "]"
}

type Selector struct {
	Token token.Token
}

func (s *Selector) resultNode()      {}
func (s *Selector) Tok() token.Token { return s.Token }
func (s *Selector) String() string   { return s.Token.Literal }

// Expression wraps an operator tree, or a non-operational Result when the
// value cannot take part in arithmetic.
type Expression struct {
	Root     *Node
	Result   Result
	Warnings []token.Warning
}

func (e *Expression) Tok() token.Token {
	if e.Result != nil {
		return e.Result.Tok()
	}
	return e.Root.Tok()
}

func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	if e.Result != nil {
		return e.Result.String()
	}
	return e.Root.String()
}

// Single returns the leaf when the expression reduces to one value.
func (e *Expression) Single() (*Node, bool) {
	if e.Result != nil || e.Root == nil {
		return nil, false
	}
	n := e.Root.Reduce()
	return n, n.IsLeaf()
}
