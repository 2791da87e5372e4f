package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/thiremani/redscript/token"
)

type Lexer struct {
	fileName     string
	input        []rune
	position     int  // current position in input (points to current rune)
	readPosition int  // current reading position in input (after current rune)
	curr         rune // current rune under examination

	line   int // line of curr
	column int // column of curr
	offset int // byte offset of curr

	err *token.CompileError
}

func New(fileName, input string) *Lexer {
	l := &Lexer{fileName: fileName, input: []rune(input), line: 1, column: 1}
	l.readRune()
	return l
}

// Tokenize lexes the whole input. The returned slice never contains the EOF
// token; an empty slice means empty input.
func Tokenize(fileName, input string) ([]token.Token, error) {
	l := New(fileName, input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		if l.err != nil {
			return nil, l.err
		}
		if tok.Type == token.EOF {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

// Err returns the first lexing error, if any.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

func (l *Lexer) NextToken() token.Token {
	if l.err != nil {
		return l.newToken(token.EOF, "", 0)
	}

	if !l.skipWhitespaceAndComments() {
		return l.newToken(token.ILLEGAL, "", 0)
	}

	line, column, offset := l.line, l.column, l.offset
	at := func(tok token.Token) token.Token {
		tok.Line, tok.Column, tok.Offset = line, column, offset
		return tok
	}

	var tok token.Token
	switch l.curr {
	case 0:
		return at(l.newToken(token.EOF, "", 0))
	case ';':
		tok = l.newToken(token.LINE_END, ";", ';')
	case '+', '-', '*', '/', '%', '^':
		tok = l.newToken(token.OPERATOR, string(l.curr), int(l.curr))
	case '(':
		tok = l.newToken(token.LPAREN, "(", '(')
	case ')':
		tok = l.newToken(token.RPAREN, ")", ')')
	case '{':
		tok = l.newToken(token.LBRACE, "{", '{')
	case '}':
		tok = l.newToken(token.RBRACE, "}", '}')
	case '[':
		tok = l.newToken(token.LBRACK, "[", '[')
	case ']':
		tok = l.newToken(token.RBRACK, "]", ']')
	case '=', '!', ':':
		ch := l.curr
		next := l.peekRune()
		if (ch != ':' && next == '=') || (ch == ':' && next == ':') {
			l.readRune()
			tok = l.newToken(token.SYMBOL, string(ch)+string(l.curr), int(ch))
		} else {
			tok = l.newToken(token.SYMBOL, string(ch), int(ch))
		}
	case '.', ',', '|':
		tok = l.newToken(token.SYMBOL, string(l.curr), int(l.curr))
	case '"', '\'':
		return at(l.readString())
	case '@':
		return at(l.readSelector())
	default:
		if isLetter(l.curr) {
			literal := l.readIdentifier()
			tt, info := token.LookupWord(literal)
			return at(l.newToken(tt, literal, info))
		}
		if isDigit(l.curr) {
			return at(l.readNumber())
		}
		tok = l.newToken(token.ILLEGAL, string(l.curr), int(l.curr))
		l.fail(at(tok), "unexpected character %q", l.curr)
		return at(tok)
	}

	l.readRune()
	return at(tok)
}

func (l *Lexer) fail(tok token.Token, format string, args ...any) {
	if l.err == nil {
		l.err = token.Errorf(token.SyntaxError, tok, format, args...)
	}
}

// skipWhitespaceAndComments returns false if an unterminated comment was found.
func (l *Lexer) skipWhitespaceAndComments() bool {
	for {
		switch {
		case l.curr == ' ' || l.curr == '\t' || l.curr == '\n' || l.curr == '\r':
			l.readRune()
		case l.curr == '/' && l.peekRune() == '/':
			for l.curr != '\n' && l.curr != 0 {
				l.readRune()
			}
		case l.curr == '/' && l.peekRune() == '*':
			start := l.newToken(token.ILLEGAL, "/*", 0)
			l.readRune()
			l.readRune()
			for !(l.curr == '*' && l.peekRune() == '/') {
				if l.curr == 0 {
					l.fail(start, "unterminated multi-line comment")
					return false
				}
				l.readRune()
			}
			l.readRune()
			l.readRune()
		default:
			return true
		}
	}
}

func (l *Lexer) readRune() {
	if l.readPosition > 0 && l.position < len(l.input) {
		if l.curr == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.offset += utf8.RuneLen(l.curr)
	}
	if l.readPosition >= len(l.input) {
		l.curr = 0
	} else {
		l.curr = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekRune() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.curr) || isDigit(l.curr) {
		l.readRune()
	}
	return string(l.input[position:l.position])
}

func (l *Lexer) readNumber() token.Token {
	start := l.newToken(token.INT, "", 0)
	position := l.position
	decimal := false
	for isDigit(l.curr) || (l.curr == '.' && isDigit(l.peekRune())) {
		if l.curr == '.' {
			if decimal {
				l.fail(start, "invalid floating point notation")
				return start
			}
			decimal = true
		}
		l.readRune()
	}
	start.Literal = string(l.input[position:l.position])
	if decimal {
		start.Type = token.FLOAT
	}
	return start
}

func (l *Lexer) readString() token.Token {
	tok := l.newToken(token.STRING, "", 0)
	quote := l.curr
	tok.Info = int(quote)
	l.readRune()

	var out strings.Builder
	for l.curr != quote {
		switch l.curr {
		case 0:
			l.fail(tok, "unterminated string literal")
			return tok
		case '\\':
			l.readRune()
			switch l.curr {
			case 'n':
				out.WriteRune('\n')
			case 't':
				out.WriteRune('\t')
			case 0:
				l.fail(tok, "unterminated string literal")
				return tok
			default:
				out.WriteRune(l.curr)
			}
		default:
			out.WriteRune(l.curr)
		}
		l.readRune()
	}
	l.readRune() // closing quote
	tok.Literal = out.String()
	return tok
}

// readSelector reads @name with an optional [arguments] suffix.
func (l *Lexer) readSelector() token.Token {
	tok := l.newToken(token.SELECTOR, "", '@')
	position := l.position
	l.readRune()
	nameStart := l.position
	for isLetter(l.curr) {
		l.readRune()
	}
	name := string(l.input[nameStart:l.position])
	if name == "" {
		l.fail(tok, "expected selector name after '@'")
		return tok
	}
	if tt, _ := token.LookupWord(name); tt != token.WORD {
		l.fail(tok, "expected selector literal, not keyword '%s'", name)
		return tok
	}
	if l.curr == '[' {
		depth := 0
		for {
			if l.curr == 0 {
				l.fail(tok, "unterminated selector arguments")
				return tok
			}
			if l.curr == '[' {
				depth++
			} else if l.curr == ']' {
				depth--
				if depth == 0 {
					l.readRune()
					break
				}
			}
			l.readRune()
		}
	}
	tok.Literal = string(l.input[position:l.position])
	return tok
}

func (l *Lexer) newToken(tokenType token.TokenType, literal string, info int) token.Token {
	return token.Token{
		Type:     tokenType,
		Literal:  literal,
		Info:     info,
		FileName: l.fileName,
		Line:     l.line,
		Column:   l.column,
		Offset:   l.offset,
	}
}

func IsLetter(ch rune) bool {
	return isLetter(ch)
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
