package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiremani/redscript/token"
)

func TestParse(t *testing.T) {
	src := `# project settings
versionid=48
mcpath = /home/steve/.minecraft/saves/world
description=My pack = great

namespace=game
versionid=57
`
	c, err := Parse("rs.config", src)
	require.NoError(t, err)

	v, err := c.VersionID()
	require.NoError(t, err)
	assert.Equal(t, 57, v)

	p, err := c.MCPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/steve/.minecraft/saves/world", p)

	assert.Equal(t, "My pack = great", c.Description())
	assert.Equal(t, "game", c.Namespace())
	assert.Equal(t, "main", c.Entry("main"))
}

func TestDefaults(t *testing.T) {
	c, err := Parse("rs.config", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, c.Namespace())
	assert.Equal(t, "", c.Description())

	_, err = c.VersionID()
	var cerr *token.CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, token.ConfigError, cerr.Kind)
	assert.Contains(t, cerr.Msg, "'versionid' is not specified")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
		line   int
	}{
		{"bad int", "versionid=4x8\n", "expected int for 'versionid'", 1},
		{"bad int on later line", "mcpath=/tmp\nversionid=12.5\n", "expected int", 2},
		{"missing value", "versionid\n", "unexpected", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("rs.config", tc.input)
			var cerr *token.CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, token.ConfigError, cerr.Kind)
			assert.Contains(t, cerr.Msg, tc.errMsg)
			assert.Equal(t, tc.line, cerr.Token.Line)
		})
	}
}

func TestStringEntryIsNotInt(t *testing.T) {
	c, err := Parse("rs.config", "versionid=latest\n")
	require.NoError(t, err)
	_, err = c.VersionID()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected int")
}

func TestSetters(t *testing.T) {
	c := New()
	c.SetInt(KeyVersionID, 15)
	c.SetString(KeyNamespace, "demo")
	v, err := c.VersionID()
	require.NoError(t, err)
	assert.Equal(t, 15, v)
	assert.Equal(t, "demo", c.Namespace())
	assert.True(t, c.Has(KeyVersionID))
	assert.False(t, c.Has(KeyMCPath))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("versionid=48\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	v, err := c.VersionID()
	require.NoError(t, err)
	assert.Equal(t, 48, v)

	_, err = Load(filepath.Join(dir, "missing.config"))
	var cerr *token.CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, token.ConfigError, cerr.Kind)
}
