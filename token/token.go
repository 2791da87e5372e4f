package token

import (
	"fmt"
	"strconv"
)

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	literal_beg
	// Identifiers + literals
	WORD     // add, foobar, x, y, ...
	STRING   // "abc"
	INT      // 1343456
	FLOAT    // 123.45
	LIST     // [1, 2] (synthesized by the expression builder)
	OBJECT   // {a = 1} (synthesized by the expression builder)
	SELECTOR // @a
	literal_end

	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }
	LBRACK // [
	RBRACK // ]

	OPERATOR // + - * / % ^
	SYMBOL   // = : . , | ! == != ::

	keyword_beg
	KW_METHOD
	KW_MODULE
	KW_CONST
	KW_OPTIONAL
	KW_REQUIRED
	KW_SEPARATE
	KW_FOR
	KW_WHILE
	KW_BREAK
	KW_CONTINUE
	KW_IF
	KW_ELIF
	KW_ELSE
	KW_RETURN
	KW_USE
	KW_AND
	KW_OR
	KW_NOT
	KW_NULL
	KW_ASM
	KW_TRUE
	KW_FALSE
	TYPE_DEF // int, float, ... (Info holds the type id)
	keyword_end

	LINE_END // ;
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	WORD:     "WORD",
	STRING:   "STRING",
	INT:      "INT",
	FLOAT:    "FLOAT",
	LIST:     "LIST",
	OBJECT:   "OBJECT",
	SELECTOR: "SELECTOR",

	LPAREN: "(",
	RPAREN: ")",
	LBRACE: "{",
	RBRACE: "}",
	LBRACK: "[",
	RBRACK: "]",

	OPERATOR: "OPERATOR",
	SYMBOL:   "SYMBOL",

	KW_METHOD:   "method",
	KW_MODULE:   "module",
	KW_CONST:    "const",
	KW_OPTIONAL: "optional",
	KW_REQUIRED: "required",
	KW_SEPARATE: "separate",
	KW_FOR:      "for",
	KW_WHILE:    "while",
	KW_BREAK:    "break",
	KW_CONTINUE: "continue",
	KW_IF:       "if",
	KW_ELIF:     "elif",
	KW_ELSE:     "else",
	KW_RETURN:   "return",
	KW_USE:      "use",
	KW_AND:      "and",
	KW_OR:       "or",
	KW_NOT:      "not",
	KW_NULL:     "null",
	KW_ASM:      "asm",
	KW_TRUE:     "true",
	KW_FALSE:    "false",
	TYPE_DEF:    "TYPE_DEF",

	LINE_END: ";",
}

// Type ids carried in the Info field of TYPE_DEF tokens.
const (
	TypeAny = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeString
	TypeList
	TypeObject
	TypeSelector
)

var keywords = map[string]TokenType{
	"method":   KW_METHOD,
	"module":   KW_MODULE,
	"const":    KW_CONST,
	"optional": KW_OPTIONAL,
	"required": KW_REQUIRED,
	"separate": KW_SEPARATE,
	"for":      KW_FOR,
	"while":    KW_WHILE,
	"break":    KW_BREAK,
	"continue": KW_CONTINUE,
	"if":       KW_IF,
	"elif":     KW_ELIF,
	"else":     KW_ELSE,
	"return":   KW_RETURN,
	"use":      KW_USE,
	"and":      KW_AND,
	"or":       KW_OR,
	"not":      KW_NOT,
	"null":     KW_NULL,
	"asm":      KW_ASM,
	"true":     KW_TRUE,
	"false":    KW_FALSE,
}

var typeNames = map[string]int{
	"any":      TypeAny,
	"int":      TypeInt,
	"float":    TypeFloat,
	"bool":     TypeBool,
	"string":   TypeString,
	"list":     TypeList,
	"object":   TypeObject,
	"selector": TypeSelector,
}

// LookupWord returns the keyword type and info for ident, or WORD.
func LookupWord(ident string) (TokenType, int) {
	if tt, ok := keywords[ident]; ok {
		return tt, 0
	}
	if id, ok := typeNames[ident]; ok {
		return TYPE_DEF, id
	}
	return WORD, 0
}

// Token is a single lexeme with its source position. Tokens are never
// mutated after the lexer produces them.
type Token struct {
	Type     TokenType
	Literal  string
	Info     int // operator/symbol rune, keyword sub-id or type id
	FileName string
	Line     int // 1-based
	Column   int // 1-based, in runes
	Offset   int // byte offset of the first rune
}

func (t Token) IsLiteral() bool {
	return literal_beg < t.Type && t.Type < literal_end
}

func (t Token) IsKeyword() bool {
	return keyword_beg < t.Type && t.Type < keyword_end
}

// Is reports whether t is a SYMBOL or OPERATOR with the given literal.
func (t Token) Is(tt TokenType, literal string) bool {
	return t.Type == tt && t.Literal == literal
}

func (t Token) Pos() string {
	return fmt.Sprintf("%s:%d:%d", t.FileName, t.Line, t.Column)
}

func (t Token) String() string {
	if t.Type == STRING {
		return fmt.Sprintf("{%q, %s, %d}", t.Literal, t.Type, t.Info)
	}
	return fmt.Sprintf("{%s, %s, %d}", t.Literal, t.Type, t.Info)
}

func (tokenType TokenType) String() string {
	s := ""
	if 0 <= tokenType && tokenType < TokenType(len(tokens)) {
		s = tokens[tokenType]
	}

	if s == "" {
		s = "token(" + strconv.Itoa(int(tokenType)) + ")"
	}

	return s
}
