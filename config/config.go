// Package config reads rs.config, the key=value file next to a project.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/thiremani/redscript/token"
)

// FileName is the config file the CLI reads from the working directory.
const FileName = "rs.config"

const (
	KeyVersionID   = "versionid"
	KeyMCPath      = "mcpath"
	KeyNamespace   = "namespace"
	KeyEntry       = "entry"
	KeyDescription = "description"

	DefaultNamespace = "redscript"
)

var lexdef = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Value", Pattern: `=[^\n]*`},
	{Name: "Key", Pattern: `[A-Za-z_][A-Za-z0-9_\-]*`},
	{Name: "EOL", Pattern: `\n`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
})

var parser = participle.MustBuild[file](
	participle.Lexer(lexdef),
	participle.Elide("Comment", "Whitespace"),
)

type file struct {
	Entries []*entry `parser:"( @@ | EOL )*"`
}

type entry struct {
	Pos   lexer.Position
	Key   string `parser:"@Key"`
	Value string `parser:"@Value"`
}

// Value is one config entry. Values starting with a digit are integers.
type Value struct {
	Str   string
	Int   int
	IsInt bool
	Token token.Token
}

// Config is a key to value store. The zero value is not usable; use New,
// Parse or Load.
type Config struct {
	name   string
	values map[string]Value
}

func New() *Config {
	return &Config{name: FileName, values: map[string]Value{}}
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, token.Errorf(token.ConfigError, token.Token{FileName: path}, "config file does not exist")
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(path, string(data))
}

// Parse reads config text. Later entries override earlier ones.
func Parse(name, src string) (*Config, error) {
	ast, err := parser.ParseString(name, src)
	if err != nil {
		tok := token.Token{FileName: name}
		var perr participle.Error
		if errors.As(err, &perr) {
			pos := perr.Position()
			tok.Line, tok.Column, tok.Offset = pos.Line, pos.Column, pos.Offset
			return nil, token.Errorf(token.ConfigError, tok, "%s", perr.Message())
		}
		return nil, token.Errorf(token.ConfigError, tok, "%v", err)
	}

	c := &Config{name: name, values: make(map[string]Value, len(ast.Entries))}
	for _, e := range ast.Entries {
		raw := strings.TrimSpace(strings.TrimPrefix(e.Value, "="))
		v := Value{Str: raw, Token: token.Token{
			Literal:  e.Key,
			FileName: name,
			Line:     e.Pos.Line,
			Column:   e.Pos.Column,
			Offset:   e.Pos.Offset,
		}}
		if raw != "" && unicode.IsDigit(rune(raw[0])) {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, token.Errorf(token.ConfigError, v.Token, "expected int for '%s', got '%s'", e.Key, raw)
			}
			v.Int, v.IsInt = n, true
		}
		c.values[e.Key] = v
	}
	return c, nil
}

func (c *Config) Set(key string, v Value) {
	c.values[key] = v
}

func (c *Config) SetString(key, s string) {
	c.values[key] = Value{Str: s}
}

func (c *Config) SetInt(key string, n int) {
	c.values[key] = Value{Str: strconv.Itoa(n), Int: n, IsInt: true}
}

func (c *Config) Get(key string) (Value, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *Config) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Int returns an integer entry. A present entry that is not an integer is a
// ConfigError.
func (c *Config) Int(key string) (int, error) {
	v, ok := c.values[key]
	if !ok {
		return 0, c.missing(key)
	}
	if !v.IsInt {
		return 0, token.Errorf(token.ConfigError, v.Token, "expected int for '%s', got '%s'", key, v.Str)
	}
	return v.Int, nil
}

// String returns a string entry.
func (c *Config) String(key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", c.missing(key)
	}
	return v.Str, nil
}

func (c *Config) missing(key string) error {
	return token.Errorf(token.ConfigError, token.Token{FileName: c.name}, "'%s' is not specified in %s", key, c.name)
}

// VersionID is the pack format number written to pack.mcmeta.
func (c *Config) VersionID() (int, error) {
	return c.Int(KeyVersionID)
}

// MCPath is the directory datapacks are written under when no output
// directory is given on the command line.
func (c *Config) MCPath() (string, error) {
	return c.String(KeyMCPath)
}

// Namespace is the datapack namespace, "redscript" unless configured.
func (c *Config) Namespace() string {
	if v, ok := c.values[KeyNamespace]; ok && v.Str != "" {
		return v.Str
	}
	return DefaultNamespace
}

// Entry returns the configured entry function name, or def.
func (c *Config) Entry(def string) string {
	if v, ok := c.values[KeyEntry]; ok && v.Str != "" {
		return v.Str
	}
	return def
}

func (c *Config) Description() string {
	if v, ok := c.values[KeyDescription]; ok {
		return v.Str
	}
	return ""
}
