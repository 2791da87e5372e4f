package compiler

import (
	"github.com/thiremani/redscript/lexer"
	"github.com/thiremani/redscript/parser"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
)

// Includer resolves `use "path";` statements to source text. Name is the
// canonical identity of the included file and is used to reject duplicate
// inclusion.
type Includer interface {
	Include(path string) (name string, source string, err error)
}

type Options struct {
	Entry    string // name of the function holding top-level statements
	Includer Includer
}

// Compiler is the IR builder. It scans the token stream once, resolves
// identifiers through the scope chain and emits rbc instructions into the
// function that is currently open.
type Compiler struct {
	Program *rbc.Program

	includer Includer
	included map[string]bool

	cur     *parser.Cursor
	depth   int     // current scope depth
	scopes  []Scope // open scopes, innermost last
	funcs   []int   // open functions, innermost last
	modules []int   // open modules, innermost last

	globals     map[string]int // visible global variables
	functions   map[string]int // global function table
	rootModules map[string]int
	objectTypes map[string]int // object type name -> type id
}

func New(opts Options) *Compiler {
	entry := opts.Entry
	if entry == "" {
		entry = "main"
	}
	c := &Compiler{
		Program:     rbc.NewProgram(entry),
		includer:    opts.Includer,
		included:    map[string]bool{},
		globals:     map[string]int{},
		functions:   map[string]int{},
		rootModules: map[string]int{},
		objectTypes: map[string]int{},
	}
	c.declareBuiltins()
	return c
}

// Compile lexes and compiles one source file.
func Compile(fileName, src string, opts Options) (*rbc.Program, error) {
	return New(opts).CompileSource(fileName, src)
}

func (c *Compiler) CompileSource(fileName, src string) (*rbc.Program, error) {
	c.included[fileName] = true
	toks, err := lexer.Tokenize(fileName, src)
	if err != nil {
		return nil, err
	}
	return c.CompileTokens(toks)
}

// CompileTokens runs the IR builder over toks. The first error aborts the
// whole pass and no program is returned.
func (c *Compiler) CompileTokens(toks []token.Token) (*rbc.Program, error) {
	if err := c.run(toks); err != nil {
		return nil, err
	}
	if len(c.scopes) > 0 {
		open := c.scopes[len(c.scopes)-1]
		return nil, token.Errorf(token.EOFError, open.Token, "missing '}' to close %s", open.Kind)
	}
	if errs := rbc.Verify(c.Program); len(errs) > 0 {
		return nil, errs[0]
	}
	return c.Program, nil
}

// run scans one token stream. Included files run nested with their own
// cursor and must leave the scope stack as they found it.
func (c *Compiler) run(toks []token.Token) error {
	prev := c.cur
	c.cur = parser.NewCursor(toks)
	defer func() { c.cur = prev }()

	for !c.cur.Done() {
		if err := c.statement(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) statement() error {
	tok := c.cur.Cur()

	if c.inModuleBody() {
		switch {
		case tok.Type == token.KW_METHOD, tok.Type == token.KW_MODULE, tok.Type == token.RBRACE,
			tok.Type == token.LINE_END, c.atObjectDecl():
		default:
			return token.Errorf(token.SyntaxError, tok, "only declarations are allowed inside a module, got '%s'", tok.Literal)
		}
	}

	switch tok.Type {
	case token.LINE_END:
		c.cur.Next()
		return nil
	case token.KW_METHOD:
		return c.compileMethod()
	case token.KW_MODULE:
		return c.compileModule()
	case token.KW_CONST:
		return c.compileConst()
	case token.KW_IF:
		return c.compileIf()
	case token.KW_ELIF, token.KW_ELSE:
		return token.Errorf(token.SyntaxError, tok, "'%s' must directly follow the closing '}' of an if or elif block", tok.Literal)
	case token.KW_RETURN:
		return c.compileReturn()
	case token.KW_ASM:
		return c.compileAsm()
	case token.KW_USE:
		return c.compileUse()
	case token.KW_FOR, token.KW_WHILE, token.KW_BREAK, token.KW_CONTINUE:
		return token.Errorf(token.UnsupportedError, tok, "loops are not supported by the target")
	case token.LBRACE:
		return c.openBlock()
	case token.RBRACE:
		return c.closeScope()
	case token.TYPE_DEF:
		if c.atObjectDecl() {
			return c.compileObjectType()
		}
	case token.WORD:
		return c.compileWordStatement()
	case token.EOF:
		return token.Errorf(token.EOFError, tok, "unexpected end of input")
	}
	return token.Errorf(token.SyntaxError, tok, "unexpected token '%s' at start of statement", tok.Literal)
}

// compileWordStatement dispatches statements that start with an identifier.
func (c *Compiler) compileWordStatement() error {
	next := c.cur.Peek()
	switch {
	case next.Type == token.LPAREN:
		return c.compileCallStatement()
	case next.Is(token.SYMBOL, "::"):
		return c.compileCallStatement()
	case next.Is(token.SYMBOL, ":"):
		return c.compileDeclaration(false)
	case next.Is(token.SYMBOL, "="):
		return c.compileAssignment()
	case next.Is(token.SYMBOL, "."):
		return c.compileMemberAssignment()
	}
	tok := c.cur.Cur()
	if next.Type == token.EOF {
		return token.Errorf(token.EOFError, next, "expected '=', ':' or '(' after '%s'", tok.Literal)
	}
	return token.Errorf(token.SyntaxError, next, "unexpected token '%s' after '%s'", next.Literal, tok.Literal)
}

// expectEnd consumes the ';' that ends a statement.
func (c *Compiler) expectEnd() error {
	_, err := c.cur.Expect(token.LINE_END, "';'")
	return err
}

// current returns the function receiving instructions.
func (c *Compiler) current() *rbc.Function {
	if len(c.funcs) == 0 {
		return c.Program.Global()
	}
	return c.Program.Func(c.funcs[len(c.funcs)-1])
}

func (c *Compiler) inFunction() bool {
	return len(c.funcs) > 0
}

func (c *Compiler) emit(in rbc.Instruction) {
	c.current().Emit(in)
}

func (c *Compiler) warn(ws ...token.Warning) {
	c.Program.Warnings = append(c.Program.Warnings, ws...)
}
