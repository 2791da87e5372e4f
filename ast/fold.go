package ast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thiremani/redscript/token"
)

// foldKey is used as the key for constant operator functions.
type foldKey struct {
	Op    Operator
	Left  token.TokenType
	Right token.TokenType
}

// foldFunc computes the literal text of left op right.
type foldFunc func(left, right string) (string, error)

var errDivByZero = fmt.Errorf("division by zero")

// foldOps mirrors what the target does at run time: integers are 32-bit
// scores that wrap, division and modulo round towards negative infinity.
var foldOps = map[foldKey]foldFunc{
	{ADD, token.INT, token.INT}: intOp(func(a, b int32) (int32, error) { return a + b, nil }),
	{SUB, token.INT, token.INT}: intOp(func(a, b int32) (int32, error) { return a - b, nil }),
	{MUL, token.INT, token.INT}: intOp(func(a, b int32) (int32, error) { return a * b, nil }),
	{DIV, token.INT, token.INT}: intOp(func(a, b int32) (int32, error) {
		if b == 0 {
			return 0, errDivByZero
		}
		return floorDiv(a, b), nil
	}),
	{MOD, token.INT, token.INT}: intOp(func(a, b int32) (int32, error) {
		if b == 0 {
			return 0, errDivByZero
		}
		return a - floorDiv(a, b)*b, nil
	}),

	{ADD, token.FLOAT, token.FLOAT}: floatOp(func(a, b float64) (float64, error) { return a + b, nil }),
	{SUB, token.FLOAT, token.FLOAT}: floatOp(func(a, b float64) (float64, error) { return a - b, nil }),
	{MUL, token.FLOAT, token.FLOAT}: floatOp(func(a, b float64) (float64, error) { return a * b, nil }),
	{DIV, token.FLOAT, token.FLOAT}: floatOp(func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, errDivByZero
		}
		return a / b, nil
	}),

	{ADD, token.STRING, token.STRING}: func(left, right string) (string, error) {
		return left + right, nil
	},
}

func intOp(f func(a, b int32) (int32, error)) foldFunc {
	return func(left, right string) (string, error) {
		a, err := strconv.ParseInt(left, 10, 32)
		if err != nil {
			return "", fmt.Errorf("integer %s out of range", left)
		}
		b, err := strconv.ParseInt(right, 10, 32)
		if err != nil {
			return "", fmt.Errorf("integer %s out of range", right)
		}
		res, err := f(int32(a), int32(b))
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(int64(res), 10), nil
	}
}

func floatOp(f func(a, b float64) (float64, error)) foldFunc {
	return func(left, right string) (string, error) {
		a, err := strconv.ParseFloat(left, 64)
		if err != nil {
			return "", err
		}
		b, err := strconv.ParseFloat(right, 64)
		if err != nil {
			return "", err
		}
		res, err := f(a, b)
		if err != nil {
			return "", err
		}
		if math.IsInf(res, 0) || math.IsNaN(res) {
			return "", fmt.Errorf("result is not a finite number")
		}
		s := strconv.FormatFloat(res, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s, nil
	}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Compute folds left op right when both are literal tokens of a kind the
// operator supports. The result token takes the position of left.
func Compute(op Operator, left, right token.Token) (token.Token, error) {
	f, ok := foldOps[foldKey{op, left.Type, right.Type}]
	if !ok {
		return token.Token{}, fmt.Errorf("operator '%s' is not defined for %s and %s", op, left.Type, right.Type)
	}
	lit, err := f(left.Literal, right.Literal)
	if err != nil {
		return token.Token{}, err
	}
	res := left
	res.Literal = lit
	return res, nil
}

func foldable(n *Node) bool {
	if !n.IsLeaf() || n.Member != "" {
		return false
	}
	switch n.Token.Type {
	case token.INT, token.FLOAT, token.STRING:
		return true
	}
	return false
}

// Prune folds every operation whose operands are both literal tokens into a
// single literal leaf. Folds cascade upwards. Operations that cannot be
// folded are left in place and reported as warnings; Prune never fails.
func Prune(n *Node) (*Node, []token.Warning) {
	var warnings []token.Warning
	var walk func(*Node) *Node
	walk = func(n *Node) *Node {
		if n == nil || n.IsLeaf() {
			return n
		}
		if n.Singular() {
			return walk(n.Left)
		}
		n.Left = walk(n.Left)
		n.Right = walk(n.Right)

		left, right := n.Left.Reduce(), n.Right.Reduce()
		if !foldable(left) || !foldable(right) {
			return n
		}
		res, err := Compute(n.Op, *left.Token, *right.Token)
		if err != nil {
			warnings = append(warnings, token.Warning{
				Token: n.OpToken,
				Msg:   fmt.Sprintf("cannot fold %s at compile time: %s", n, err),
			})
			return n
		}
		return &Node{Token: &res, Grouped: n.Grouped}
	}
	return walk(n), warnings
}
