package mc

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/thiremani/redscript/compiler"
	"github.com/thiremani/redscript/rbc"
	"github.com/thiremani/redscript/token"
)

// native expands an inline builtin at its call site. args holds the PUSH
// of each parameter, in parameter order.
type native func(g *generator, call rbc.Instruction, args []rbc.Instruction) error

var natives = map[string]native{
	compiler.Msg:  msg,
	compiler.Kill: kill,
	compiler.Say:  say,
}

func selectorArg(callee string, arg rbc.Instruction) (string, error) {
	if c, ok := arg.Operands[0].(rbc.Constant); ok && c.Kind == token.SELECTOR {
		return c.Text, nil
	}
	return "", token.Errorf(token.UnsupportedError, arg.Token, "'%s' needs a literal selector", callee)
}

// msg sends value to the target as a tellraw message. Variables named by
// "-name" markers in a string are shown with their current value.
func msg(g *generator, call rbc.Instruction, args []rbc.Instruction) error {
	target, err := selectorArg(compiler.Msg, args[0])
	if err != nil {
		return err
	}
	parts, err := g.textComponents(args[1])
	if err != nil {
		return err
	}
	text, err := encodeComponents(parts)
	if err != nil {
		return token.Internal(call.Token, "encoding message: %v", err)
	}
	g.emit("tellraw %s %s", target, text)
	return nil
}

func kill(g *generator, call rbc.Instruction, args []rbc.Instruction) error {
	target, err := selectorArg(compiler.Kill, args[0])
	if err != nil {
		return err
	}
	g.emit("kill %s", target)
	return nil
}

func say(g *generator, call rbc.Instruction, args []rbc.Instruction) error {
	c, ok := args[0].Operands[0].(rbc.Constant)
	if !ok || c.Kind != token.STRING {
		return token.Errorf(token.UnsupportedError, args[0].Token, "'%s' needs a literal string", compiler.Say)
	}
	g.emit("say %s", c.Text)
	return nil
}

// component is one raw JSON text component.
type component struct {
	Text    string `json:"text,omitempty"`
	NBT     string `json:"nbt,omitempty"`
	Storage string `json:"storage,omitempty"`
	Score   *score `json:"score,omitempty"`
}

type score struct {
	Name      string `json:"name"`
	Objective string `json:"objective"`
}

// encodeComponents renders parts as a JSON text list. An empty component
// becomes the empty string.
func encodeComponents(parts []component) (string, error) {
	list := make([]any, len(parts))
	for i, p := range parts {
		if p == (component{}) {
			list[i] = ""
		} else {
			list[i] = p
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(list); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (g *generator) nbtComponent(v rbc.Value) (component, error) {
	path, err := g.sourcePath(v)
	if err != nil {
		return component{}, err
	}
	return component{NBT: path, Storage: g.storage}, nil
}

// textComponents renders the value argument of msg.
func (g *generator) textComponents(arg rbc.Instruction) ([]component, error) {
	switch v := arg.Operands[0].(type) {
	case rbc.Constant:
		if v.Kind != token.STRING {
			lit := v.Text
			if v.Kind == token.LIST {
				lit = v.String()
			}
			return []component{{Text: lit}}, nil
		}
		return g.formatString(v.Text, arg.Operands[1:])
	case rbc.RegisterRef:
		if v.Operable {
			return []component{{Score: &score{Name: Holder, Objective: regObjective(v.ID)}}}, nil
		}
	case rbc.ObjectRef:
		lit, ok, err := g.literal(v)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, token.Errorf(token.UnsupportedError, arg.Token, "store the object in a variable before sending it")
		}
		return []component{{Text: lit}}, nil
	}
	c, err := g.nbtComponent(arg.Operands[0])
	if err != nil {
		return nil, token.Internal(arg.Token, "%v", err)
	}
	return []component{c}, nil
}

// formatString splits s at the markers that name one of refs.
func (g *generator) formatString(s string, refs []rbc.Value) ([]component, error) {
	byName := map[string]rbc.VariableRef{}
	for _, r := range refs {
		if ref, ok := r.(rbc.VariableRef); ok {
			byName[ref.Name] = ref
		}
	}

	var parts []component
	runes := []rune(s)
	last := 0
	for _, m := range compiler.Markers(s) {
		ref, ok := byName[m.Name]
		if !ok {
			continue
		}
		if m.Start > last {
			parts = append(parts, component{Text: string(runes[last:m.Start])})
		}
		c, err := g.nbtComponent(ref)
		if err != nil {
			return nil, err
		}
		parts = append(parts, c)
		last = m.End
	}
	if last < len(runes) || len(parts) == 0 {
		parts = append(parts, component{Text: string(runes[last:])})
	}
	return parts, nil
}
