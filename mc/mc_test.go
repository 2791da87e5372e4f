package mc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiremani/redscript/compiler"
	"github.com/thiremani/redscript/config"
	"github.com/thiremani/redscript/token"
)

const store = "redscript:_program"

func generate(t *testing.T, src string) *Output {
	t.Helper()
	p, err := compiler.Compile("test.rs", src, compiler.Options{})
	require.NoError(t, err)
	out, err := Generate(p, config.New())
	require.NoError(t, err)
	return out
}

func generateErr(t *testing.T, src string) *token.CompileError {
	t.Helper()
	p, err := compiler.Compile("test.rs", src, compiler.Options{})
	require.NoError(t, err)
	_, err = Generate(p, config.New())
	var ce *token.CompileError
	require.ErrorAs(t, err, &ce)
	return ce
}

func lines(t *testing.T, out *Output, name string) []string {
	t.Helper()
	f, ok := out.Function(name)
	require.True(t, ok, "no function %q", name)
	return f.Lines()
}

// body drops the initialization block of the entry function.
func body(t *testing.T, out *Output) []string {
	t.Helper()
	all := out.Entry.Lines()
	for i, l := range all {
		if !strings.HasPrefix(l, "scoreboard objectives add") && !strings.HasSuffix(l, "set value []") && !strings.HasSuffix(l, "set value {}") {
			return all[i:]
		}
	}
	return nil
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected string
	}{
		{"plain", Command{Run: "say hi"}, "say hi"},
		{"guarded", Command{Conds: []string{"if score _CPU cmp0 matches 1"}, Run: "say hi"}, "execute if score _CPU cmp0 matches 1 run say hi"},
		{"merged execute", Command{Conds: []string{"unless score _CPU cmp0 matches 1"}, Run: "execute store result score _CPU r0 run data get storage s x"},
			"execute unless score _CPU cmp0 matches 1 store result score _CPU r0 run data get storage s x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.cmd.String())
		})
	}
}

func TestAssignment(t *testing.T) {
	out := generate(t, "x = 1; y = 2; z = x + y;")
	assert.Equal(t, []string{
		"data modify storage " + store + " stack set value []",
		"data modify storage " + store + " vars set value {}",
		"data modify storage " + store + " registers set value {}",
		"scoreboard objectives add rtmp dummy",
		"scoreboard objectives add r0 dummy",
		"data modify storage " + store + " vars.f0.v0 set value {value:1,scope:0,type:1}",
		"data modify storage " + store + " vars.f0.v1 set value {value:2,scope:0,type:1}",
		"execute store result score _CPU r0 run data get storage " + store + " vars.f0.v0.value",
		"execute store result score _CPU rtmp run data get storage " + store + " vars.f0.v1.value",
		"scoreboard players operation _CPU r0 += _CPU rtmp",
		"data modify storage " + store + " vars.f0.v2 set value {scope:0,type:1}",
		"execute store result storage " + store + " vars.f0.v2.value int 1 run scoreboard players get _CPU r0",
	}, out.Entry.Lines())
	assert.Equal(t, "main", out.Entry.Name)
	assert.Equal(t, []*Function{out.Entry}, out.Load)
}

func TestMathShortcuts(t *testing.T) {
	out := generate(t, "x = 1; y = x + 5; z = x - 3; w = x * 4;")
	b := body(t, out)
	assert.Contains(t, b, "scoreboard players add _CPU r0 5")
	assert.Contains(t, b, "scoreboard players remove _CPU r0 3")
	assert.Contains(t, b, "scoreboard players set _CPU rtmp 4")
	assert.Contains(t, b, "scoreboard players operation _CPU r0 *= _CPU rtmp")
}

func TestStructuredArithmeticIsUnsupported(t *testing.T) {
	ce := generateErr(t, `x = "a"; y = x + "b";`)
	assert.Equal(t, token.UnsupportedError, ce.Kind)
	assert.Contains(t, ce.Msg, "non-integer")
}

func TestCall(t *testing.T) {
	out := generate(t, `
method add(a, b) {
	return a + b;
}
s = add(1, 2);
`)
	assert.Equal(t, []string{
		"execute store result score _CPU r0 run data get storage " + store + " stack[-2].value",
		"execute store result score _CPU rtmp run data get storage " + store + " stack[-1].value",
		"scoreboard players operation _CPU r0 += _CPU rtmp",
		"execute store result storage " + store + " ret int 1 run scoreboard players get _CPU r0",
		"data modify storage " + store + " rettype set value 1",
		"return 0",
	}, lines(t, out, "add"))

	assert.Equal(t, []string{
		"data modify storage " + store + " stack append value {value:1,type:1}",
		"data modify storage " + store + " stack append value {value:2,type:1}",
		"function redscript:add",
		"data remove storage " + store + " stack[-1]",
		"data remove storage " + store + " stack[-1]",
		"data modify storage " + store + " vars.f0.v0 set value {scope:0}",
		"data modify storage " + store + " vars.f0.v0.value set from storage " + store + " ret",
		"data modify storage " + store + " vars.f0.v0.type set from storage " + store + " rettype",
	}, body(t, out))
}

func TestArgumentStackOffsets(t *testing.T) {
	out := generate(t, `
method inner(x, y) {
	return x;
}
method outer(a, b) {
	inner(a, b);
}
`)
	assert.Equal(t, []string{
		"data modify storage " + store + " stack append from storage " + store + " stack[-2]",
		"data modify storage " + store + " stack append from storage " + store + " stack[-2]",
		"function redscript:inner",
		"data remove storage " + store + " stack[-1]",
		"data remove storage " + store + " stack[-1]",
	}, lines(t, out, "outer"))
}

func TestConditionalChain(t *testing.T) {
	out := generate(t, `
x = 1;
y = 0;
if x == 1 {
	y = 2;
} elif x == 2 {
	y = 3;
} else {
	y = 4;
}
y = 5;
`)
	b := body(t, out)
	setY := func(n string) string {
		return "data modify storage " + store + " vars.f0.v1 set value {value:" + n + ",scope:0,type:1}"
	}
	assert.Contains(t, b, "execute if score _CPU cmp1 matches 1 run scoreboard players set _CPU cmp0 1")
	assert.Contains(t, b, "execute if score _CPU cmp0 matches 1 run "+setY("2"))
	assert.Contains(t, b, "execute unless score _CPU cmp0 matches 1 if score _CPU cmp2 matches 2 run scoreboard players set _CPU cmp1 1")
	assert.Contains(t, b, "execute unless score _CPU cmp0 matches 1 if score _CPU cmp1 matches 1 run "+setY("3"))
	assert.Contains(t, b, "execute unless score _CPU cmp0 matches 1 unless score _CPU cmp1 matches 1 run "+setY("4"))
	assert.Equal(t, setY("5"), b[len(b)-1])

	init := out.Entry.Lines()
	for _, id := range []string{"cmp0", "cmp1", "cmp2"} {
		assert.Contains(t, init, "scoreboard objectives add "+id+" dummy")
	}
	assert.NotContains(t, init, "scoreboard objectives add cmp3 dummy")
}

func TestLongElifChain(t *testing.T) {
	out := generate(t, `
x = 3;
y = 0;
if x == 1 {
	y = 1;
} elif x == 2 {
	y = 2;
} elif x == 3 {
	y = 3;
} elif x == 4 {
	y = 4;
} else {
	y = 5;
}
`)
	b := body(t, out)
	setY := func(n string) string {
		return "run data modify storage " + store + " vars.f0.v1 set value {value:" + n + ",scope:0,type:1}"
	}
	tests := []struct {
		name   string
		prefix string
		run    string
	}{
		{"if", "if score _CPU cmp0 matches 1", setY("1")},
		{"first elif", "unless score _CPU cmp0 matches 1 if score _CPU cmp1 matches 1", setY("2")},
		{"second elif", "unless score _CPU cmp0 matches 1 unless score _CPU cmp1 matches 1 if score _CPU cmp2 matches 1", setY("3")},
		{"third elif", "unless score _CPU cmp0 matches 1 unless score _CPU cmp1 matches 1 unless score _CPU cmp2 matches 1 if score _CPU cmp3 matches 1", setY("4")},
		{"else", "unless score _CPU cmp0 matches 1 unless score _CPU cmp1 matches 1 unless score _CPU cmp2 matches 1 unless score _CPU cmp3 matches 1", setY("5")},
		{"third elif condition", "unless score _CPU cmp0 matches 1 unless score _CPU cmp1 matches 1 unless score _CPU cmp2 matches 1 if score _CPU cmp4 matches 4",
			"run scoreboard players set _CPU cmp3 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, b, "execute "+tc.prefix+" "+tc.run)
		})
	}
}

func TestSequentialConditionsReuseRegisters(t *testing.T) {
	out := generate(t, `
x = 1;
if x == 1 { say("one"); }
if x == 2 { say("two"); }
if x == 3 { say("three"); }
`)
	b := body(t, out)
	assert.Contains(t, b, "execute if score _CPU cmp1 matches 3 run scoreboard players set _CPU cmp0 1")
	assert.Equal(t, "execute if score _CPU cmp0 matches 1 run say three", b[len(b)-1])

	init := out.Entry.Lines()[:out.InitLen]
	assert.Contains(t, init, "scoreboard objectives add cmp0 dummy")
	assert.Contains(t, init, "scoreboard objectives add cmp1 dummy")
	assert.NotContains(t, init, "scoreboard objectives add cmp2 dummy")
}

func TestCalleeRegistersAreDisjointFromCaller(t *testing.T) {
	out := generate(t, `
method check(v) {
	if v == 1 {
		say("one");
	}
}
x = 1;
if x == 1 {
	check(x);
}
`)
	assert.Contains(t, body(t, out), "execute if score _CPU cmp0 matches 1 run function redscript:check")
	assert.Contains(t, lines(t, out, "check"), "execute if score _CPU cmp3 matches 1 run scoreboard players set _CPU cmp2 1")
	assert.Contains(t, out.Entry.Lines()[:out.InitLen], "scoreboard objectives add cmp3 dummy")
}

func TestIntegerOutOfScoreRange(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"added", "x = 1; y = x + 3000000000;"},
		{"stored", "x = 3000000000;"},
		{"compared", "x = 1; if x == 3000000000 { x = 2; }"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ce := generateErr(t, tc.src)
			assert.Equal(t, token.UnsupportedError, ce.Kind)
			assert.Contains(t, ce.Msg, "'3000000000' does not fit in a score")
		})
	}
}

func TestInt32Bounds(t *testing.T) {
	out := generate(t, "x = 1; y = x + 2147483647; z = x - 5;")
	b := body(t, out)
	assert.Contains(t, b, "scoreboard players add _CPU r0 2147483647")
	assert.Contains(t, b, "scoreboard players remove _CPU r0 5")
}

func TestDeterministicCommands(t *testing.T) {
	src := `
module M { method f(a) { if a == 1 { return a + 1; } return 0; } }
x = 2;
y = M::f(x * 3 + 1);
if x == 2 and y != 0 { say("ok"); } elif x == 3 { msg(@a, "x is -x"); } else { msg(@a, "no"); }
`
	render := func() []string {
		var all []string
		for _, f := range generate(t, src).Functions {
			all = append(all, "# "+f.Name)
			all = append(all, f.Lines()...)
		}
		return all
	}
	first := render()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, render())
	}
}

func TestElifOperandsRunOutsideThePreviousBranch(t *testing.T) {
	out := generate(t, `
x = 1;
if x == 1 {
	x = 5;
} elif x + 1 == 3 {
	x = 7;
}
`)
	b := body(t, out)
	assert.Contains(t, b, "execute unless score _CPU cmp0 matches 1 store result score _CPU r0 run data get storage "+store+" vars.f0.v0.value")
	assert.Contains(t, b, "execute unless score _CPU cmp0 matches 1 run scoreboard players add _CPU r0 1")
	assert.Contains(t, b, "execute unless score _CPU cmp0 matches 1 if score _CPU r0 matches 3 run scoreboard players set _CPU cmp1 1")
}

func TestNestedBlocksChainPrefixes(t *testing.T) {
	out := generate(t, `
x = 1;
if x {
	if not x == 2 {
		say("deep");
	}
}
`)
	b := body(t, out)
	assert.Equal(t, "execute if score _CPU cmp0 matches 1 if score _CPU cmp1 matches 1 run say deep", b[len(b)-1])
	assert.Contains(t, b, "execute if score _CPU cmp0 matches 1 unless score _CPU cmp2 matches 2 run scoreboard players set _CPU cmp1 1")
}

func TestConditionForms(t *testing.T) {
	tests := []struct {
		name     string
		cond     string
		expected string
	}{
		{"selector", "@e[tag=boss]", "execute if entity @e[tag=boss] run scoreboard players set _CPU cmp0 1"},
		{"constant true", "1 == 1", "scoreboard players set _CPU cmp0 1"},
		{"or", "x == 1 or x == 2", "execute if score _CPU cmp1 matches 2 run scoreboard players set _CPU cmp0 1"},
		{"and", "x == 1 and s == \"hi\"", "execute if score _CPU cmp1 matches 1 if score _CPU cmp2 matches 0 run scoreboard players set _CPU cmp0 1"},
		{"string", "s != \"hi\"", "execute unless score _CPU cmp1 matches 0 run scoreboard players set _CPU cmp0 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := generate(t, "x = 1; s = \"hi\"; if "+tc.cond+" { x = 2; }")
			assert.Contains(t, body(t, out), tc.expected)
		})
	}
}

func TestStringComparisonCopiesIntoScratch(t *testing.T) {
	out := generate(t, `s = "hi"; if s == "hi" { s = "yo"; }`)
	b := body(t, out)
	assert.Contains(t, b, "data remove storage "+store+" tmp")
	assert.Contains(t, b, "data modify storage "+store+" tmp set from storage "+store+" vars.f0.v0.value")
	assert.Contains(t, b, `execute store success score _CPU cmp1 run data modify storage `+store+` tmp set value "hi"`)
}

func TestMessageMarkers(t *testing.T) {
	out := generate(t, `
hp = 20;
msg(@a, "hp: -hp, -unknown!");
`)
	b := body(t, out)
	assert.Equal(t,
		`tellraw @a [{"text":"hp: "},{"nbt":"vars.f0.v0.value","storage":"redscript:_program"},{"text":", -unknown!"}]`,
		b[len(b)-1])
}

func TestNatives(t *testing.T) {
	out := generate(t, `
n = 3;
msg(@p, n + 1);
kill(@e[type=zombie]);
say("hello <world>");
`)
	b := body(t, out)
	assert.Contains(t, b, `tellraw @p [{"score":{"name":"_CPU","objective":"r0"}}]`)
	assert.Contains(t, b, "kill @e[type=zombie]")
	assert.Equal(t, "say hello <world>", b[len(b)-1])
	for _, l := range b {
		assert.NotContains(t, l, "stack append", "inline arguments never touch the stack")
	}
}

func TestObjects(t *testing.T) {
	out := generate(t, `
object Player {
	required name: string,
	separate hp: int
}
n = 5;
p: Player = { name = "steve", hp = n };
p.hp = 7;
`)
	b := body(t, out)
	assert.Contains(t, b, `data modify storage `+store+` vars.f0.v1 set value {value:{name:"steve"},scope:0,type:32}`)
	assert.Contains(t, b, "data modify storage "+store+" vars.f0.v1.hp set from storage "+store+" vars.f0.v0.value")
	assert.Equal(t, "data modify storage "+store+" vars.f0.v1.hp set value 7", b[len(b)-1])
}

func TestDecoratorsAndNames(t *testing.T) {
	out := generate(t, `
method beat() tick {
	say("tick");
}
method boot() load {
	say("boot");
}
method Raw() extern {
	say("raw");
}
module Math {
	method twice(v) {
		return v * 2;
	}
}
r = Math::twice(4);
`)
	require.Len(t, out.Tick, 1)
	assert.Equal(t, "beat", out.Tick[0].Name)
	require.Len(t, out.Load, 2)
	assert.Equal(t, "main", out.Load[0].Name)
	assert.Equal(t, "boot", out.Load[1].Name)

	_, ok := out.Function("raw")
	assert.True(t, ok)
	assert.Contains(t, body(t, out), "function redscript:math/twice")
	assert.Equal(t, "redscript:math/twice", out.Functions[len(out.Functions)-1].ID(out.Namespace))
}

func TestNamespaceFromConfig(t *testing.T) {
	p, err := compiler.Compile("test.rs", "x = 1;", compiler.Options{})
	require.NoError(t, err)
	cfg := config.New()
	cfg.SetString(config.KeyNamespace, "game")
	out, err := Generate(p, cfg)
	require.NoError(t, err)
	assert.Equal(t, "game", out.Namespace)
	assert.Contains(t, out.Entry.Lines(), "data modify storage game:_program vars.f0.v0 set value {value:1,scope:0,type:1}")
}

func TestAsmIsGuarded(t *testing.T) {
	out := generate(t, `x = 1; if x { asm "weather clear"; }`)
	b := body(t, out)
	assert.Equal(t, "execute if score _CPU cmp0 matches 1 run weather clear", b[len(b)-1])
}
