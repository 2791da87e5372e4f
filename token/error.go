package token

import (
	"fmt"
	"strings"
)

type ErrorKind int

const (
	SyntaxError ErrorKind = iota + 1
	EOFError
	AlreadyIncludedError
	UnsupportedError
	InternalError
	ConfigError
)

var errorKinds = [...]string{
	SyntaxError:          "syntax error",
	EOFError:             "unexpected end of input",
	AlreadyIncludedError: "already included",
	UnsupportedError:     "unsupported operation",
	InternalError:        "internal error",
	ConfigError:          "config error",
}

func (k ErrorKind) String() string {
	if k > 0 && int(k) < len(errorKinds) {
		return errorKinds[k]
	}
	return fmt.Sprintf("error(%d)", int(k))
}

// CompileError is the single error type produced by the compiler core.
// Token locates the offending lexeme for caret reporting.
type CompileError struct {
	Kind  ErrorKind
	Token Token
	Msg   string
}

func (e *CompileError) Error() string {
	if e.Token.FileName == "" && e.Token.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Token.Pos(), e.Kind, e.Msg)
}

// Errorf builds a CompileError of the given kind at tok.
func Errorf(kind ErrorKind, tok Token, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Token: tok, Msg: fmt.Sprintf(format, args...)}
}

// Internal reports a broken compiler invariant.
func Internal(tok Token, format string, args ...any) *CompileError {
	msg := fmt.Sprintf(format, args...)
	return &CompileError{Kind: InternalError, Token: tok, Msg: msg + " (this should not happen, please report it upstream)"}
}

// Warning is a non-fatal diagnostic, e.g. an operation that could not be
// folded at compile time.
type Warning struct {
	Token Token
	Msg   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Token.Pos(), w.Msg)
}

const diagramPadding = 2

// Diagram renders the offending source line with a caret marker under the
// token, preceded by the error message.
func (e *CompileError) Diagram(source string) string {
	var out strings.Builder
	out.WriteString(fmt.Sprintf("[RS:%d] %s\n\n", int(e.Kind), e.Msg))
	out.WriteString(fmt.Sprintf("\t -- %s -- \n\n", e.Token.Pos()))

	lines := strings.Split(source, "\n")
	if e.Token.Line < 1 || e.Token.Line > len(lines) {
		return out.String()
	}

	for i := 0; i < min(e.Token.Line-1, diagramPadding); i++ {
		out.WriteString("      |\n")
	}

	gutter := fmt.Sprintf("%d", e.Token.Line)
	out.WriteString(fmt.Sprintf("%4s  | %s\n", gutter, strings.TrimRight(lines[e.Token.Line-1], "\r")))

	width := len([]rune(e.Token.Literal))
	if width == 0 {
		width = 1
	}
	caret := strings.Repeat(" ", max(e.Token.Column-1, 0)) + strings.Repeat("^", width)
	out.WriteString("      | " + caret + " error here\n")
	for i := 0; i < diagramPadding-1; i++ {
		out.WriteString("      |\n")
	}
	return out.String()
}
