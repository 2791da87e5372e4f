package datapack

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiremani/redscript/compiler"
	"github.com/thiremani/redscript/config"
	"github.com/thiremani/redscript/mc"
	"github.com/thiremani/redscript/token"
)

func build(t *testing.T, src string, cfg *config.Config) *mc.Output {
	t.Helper()
	p, err := compiler.Compile("test.rs", src, compiler.Options{})
	require.NoError(t, err)
	out, err := mc.Generate(p, cfg)
	require.NoError(t, err)
	return out
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.SetInt(config.KeyVersionID, 48)
	cfg.SetString(config.KeyDescription, "demo pack")
	return cfg
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestWrite(t *testing.T) {
	cfg := testConfig()
	out := build(t, `
x = 1;
method beat() tick {
	say("tick");
}
module Util {
	method noop() {
		say("noop");
	}
}
`, cfg)
	dir := filepath.Join(t.TempDir(), "pack")

	res, err := Write(dir, out, cfg)
	require.NoError(t, err)

	var meta packMeta
	readJSON(t, filepath.Join(dir, MetaFile), &meta)
	assert.Equal(t, 48, meta.Pack.PackFormat)
	assert.Equal(t, "demo pack (build "+res.BuildID+")", meta.Pack.Description)

	_, err = ulid.Parse(res.BuildID)
	require.NoError(t, err)
	stamp, err := os.ReadFile(filepath.Join(dir, BuildFile))
	require.NoError(t, err)
	assert.Equal(t, res.BuildID+"\n", string(stamp))

	main, err := os.ReadFile(filepath.Join(dir, "data", "redscript", "function", "main.mcfunction"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join(out.Entry.Lines(), "\n")+"\n", string(main))

	beat, err := os.ReadFile(filepath.Join(dir, "data", "redscript", "function", "beat.mcfunction"))
	require.NoError(t, err)
	assert.Equal(t, "say tick\n", string(beat))
	assert.FileExists(t, filepath.Join(dir, "data", "redscript", "function", "util", "noop.mcfunction"))

	var load, tick functionTag
	readJSON(t, filepath.Join(dir, "data", "minecraft", "tags", "function", "load.json"), &load)
	readJSON(t, filepath.Join(dir, "data", "minecraft", "tags", "function", "tick.json"), &tick)
	assert.Equal(t, []string{"redscript:main"}, load.Values)
	assert.Equal(t, []string{"redscript:beat"}, tick.Values)

	assert.Equal(t, MetaFile, res.Files[0])
	assert.Equal(t, BuildFile, res.Files[len(res.Files)-1])
}

func TestRewriteDropsStaleFiles(t *testing.T) {
	cfg := testConfig()
	dir := t.TempDir()

	_, err := Write(dir, build(t, `method beat() tick { say("a"); }`, cfg), cfg)
	require.NoError(t, err)
	_, err = Write(dir, build(t, `x = 1;`, cfg), cfg)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "data", "redscript", "function", "beat.mcfunction"))
	assert.NoFileExists(t, filepath.Join(dir, "data", "minecraft", "tags", "function", "tick.json"))
	assert.FileExists(t, filepath.Join(dir, "data", "redscript", "function", "main.mcfunction"))
}

func TestWriteNeedsVersion(t *testing.T) {
	cfg := config.New()
	out := build(t, "x = 1;", cfg)
	dir := filepath.Join(t.TempDir(), "pack")

	_, err := Write(dir, out, cfg)
	var ce *token.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, token.ConfigError, ce.Kind)
	assert.Contains(t, ce.Msg, "versionid")
	assert.NoDirExists(t, dir)
}

func TestWriteRejectsBadNamespace(t *testing.T) {
	cfg := testConfig()
	cfg.SetString(config.KeyNamespace, "My Pack")
	_, err := Write(t.TempDir(), build(t, "x = 1;", cfg), cfg)
	var ce *token.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, token.ConfigError, ce.Kind)
}

func TestDefaultDir(t *testing.T) {
	cfg := config.New()
	_, err := DefaultDir(cfg, "game")
	require.Error(t, err)

	cfg.SetString(config.KeyMCPath, "/srv/world")
	dir, err := DefaultDir(cfg, "game")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/world", "datapacks", "game"), dir)
}

func TestValidateResourcePath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		errMsg string
	}{
		{"simple", "main", ""},
		{"nested", "math/vec/add_1a2b3c4d", ""},
		{"punctuation", "a-b.c_d", ""},
		{"empty", "", "cannot be empty"},
		{"uppercase", "Main", "uppercase"},
		{"space", "a b", "invalid character"},
		{"double slash", "a//b", "empty segment"},
		{"trailing slash", "a/", "empty segment"},
		{"dot segment", "a/../b", "not allowed"},
		{"reserved", "util/con", "Windows reserved"},
		{"reserved with extension", "nul.txt", "Windows reserved"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateResourcePath(tc.path)
			if tc.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}

	assert.Error(t, ValidateNamespace("a/b"))
	assert.NoError(t, ValidateNamespace("redscript"))
}
