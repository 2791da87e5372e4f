package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiremani/redscript/token"
)

type Test struct {
	expectedType    token.TokenType
	expectedLiteral string
}

func checkInput(t *testing.T, input string, tests []Test) {
	t.Helper()
	toks, err := Tokenize("test.rs", input)
	require.NoError(t, err)
	require.Len(t, toks, len(tests))

	for i, tt := range tests {
		assert.Equal(t, tt.expectedType, toks[i].Type, "tests[%d] - tokentype wrong", i)
		assert.Equal(t, tt.expectedLiteral, toks[i].Literal, "tests[%d] - literal wrong", i)
	}
}

func TestNextToken(t *testing.T) {
	input := `x = 5;
// comment
method add(a: int, b: int) {
    return a + b;
}
/* block
   comment */
if x == 10 { msg(@a, "hi\"there"); } elif x != 2.5 {}
Math::Add::f();
`
	tests := []Test{
		{token.WORD, "x"},
		{token.SYMBOL, "="},
		{token.INT, "5"},
		{token.LINE_END, ";"},
		{token.KW_METHOD, "method"},
		{token.WORD, "add"},
		{token.LPAREN, "("},
		{token.WORD, "a"},
		{token.SYMBOL, ":"},
		{token.TYPE_DEF, "int"},
		{token.SYMBOL, ","},
		{token.WORD, "b"},
		{token.SYMBOL, ":"},
		{token.TYPE_DEF, "int"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.KW_RETURN, "return"},
		{token.WORD, "a"},
		{token.OPERATOR, "+"},
		{token.WORD, "b"},
		{token.LINE_END, ";"},
		{token.RBRACE, "}"},
		{token.KW_IF, "if"},
		{token.WORD, "x"},
		{token.SYMBOL, "=="},
		{token.INT, "10"},
		{token.LBRACE, "{"},
		{token.WORD, "msg"},
		{token.LPAREN, "("},
		{token.SELECTOR, "@a"},
		{token.SYMBOL, ","},
		{token.STRING, `hi"there`},
		{token.RPAREN, ")"},
		{token.LINE_END, ";"},
		{token.RBRACE, "}"},
		{token.KW_ELIF, "elif"},
		{token.WORD, "x"},
		{token.SYMBOL, "!="},
		{token.FLOAT, "2.5"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
		{token.WORD, "Math"},
		{token.SYMBOL, "::"},
		{token.WORD, "Add"},
		{token.SYMBOL, "::"},
		{token.WORD, "f"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LINE_END, ";"},
	}

	checkInput(t, input, tests)
}

func TestOperators(t *testing.T) {
	checkInput(t, "a-b*c/d%e^f", []Test{
		{token.WORD, "a"},
		{token.OPERATOR, "-"},
		{token.WORD, "b"},
		{token.OPERATOR, "*"},
		{token.WORD, "c"},
		{token.OPERATOR, "/"},
		{token.WORD, "d"},
		{token.OPERATOR, "%"},
		{token.WORD, "e"},
		{token.OPERATOR, "^"},
		{token.WORD, "f"},
	})
}

func TestMemberAccessIsNotFloat(t *testing.T) {
	checkInput(t, "p.x = 1.25;", []Test{
		{token.WORD, "p"},
		{token.SYMBOL, "."},
		{token.WORD, "x"},
		{token.SYMBOL, "="},
		{token.FLOAT, "1.25"},
		{token.LINE_END, ";"},
	})
}

func TestTypeDefInfo(t *testing.T) {
	toks, err := Tokenize("test.rs", "string float list bool any")
	require.NoError(t, err)
	require.Len(t, toks, 5)
	assert.Equal(t, token.TypeString, toks[0].Info)
	assert.Equal(t, token.TypeFloat, toks[1].Info)
	assert.Equal(t, token.TypeList, toks[2].Info)
	assert.Equal(t, token.TypeBool, toks[3].Info)
	assert.Equal(t, token.TypeAny, toks[4].Info)
}

func TestSelectorArguments(t *testing.T) {
	checkInput(t, "kill(@e[type=zombie,tag=[a]]);", []Test{
		{token.WORD, "kill"},
		{token.LPAREN, "("},
		{token.SELECTOR, "@e[type=zombie,tag=[a]]"},
		{token.RPAREN, ")"},
		{token.LINE_END, ";"},
	})
}

func TestPositions(t *testing.T) {
	toks, err := Tokenize("pos.rs", "a")
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 1, toks[0].Column)
	assert.Equal(t, 0, toks[0].Offset)

	// é is not an identifier rune
	_, err = Tokenize("pos.rs", "bé")
	require.Error(t, err)

	toks, err = Tokenize("pos.rs", "a = 1;\n  b = 2;")
	require.NoError(t, err)
	assert.Equal(t, "b", toks[4].Literal)
	assert.Equal(t, 2, toks[4].Line)
	assert.Equal(t, 3, toks[4].Column)
	assert.Equal(t, 9, toks[4].Offset)
	assert.Equal(t, "pos.rs:2:3", toks[4].Pos())
}

func TestOffsetsCountBytes(t *testing.T) {
	toks, err := Tokenize("utf.rs", `"é" x`)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "é", toks[0].Literal)
	assert.Equal(t, 5, toks[1].Column)
	assert.Equal(t, 5, toks[1].Offset)
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"unterminated string", `x = "abc`, "unterminated string"},
		{"unterminated comment", "x /* abc", "unterminated multi-line comment"},
		{"double decimal", "x = 1.2.3;", "invalid floating point"},
		{"keyword selector", "@if", "not keyword"},
		{"empty selector", "@ ", "expected selector name"},
		{"illegal character", "x = $;", "unexpected character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize("err.rs", tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			var ce *token.CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, token.SyntaxError, ce.Kind)
		})
	}
}

func TestEmptyInput(t *testing.T) {
	toks, err := Tokenize("empty.rs", "  // nothing\n")
	require.NoError(t, err)
	assert.Empty(t, toks)
}
