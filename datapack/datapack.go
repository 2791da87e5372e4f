// Package datapack writes generated functions to disk as a Minecraft
// datapack.
package datapack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"

	"github.com/thiremani/redscript/config"
	"github.com/thiremani/redscript/mc"
	"github.com/thiremani/redscript/token"
)

const (
	MetaFile  = "pack.mcmeta"
	BuildFile = ".build"
	LockFile  = ".redscript.lock"
)

// Result describes a written datapack.
type Result struct {
	Dir     string
	BuildID string
	Files   []string // relative to Dir, in write order
}

// DefaultDir is where a datapack for the given source stem goes when no
// output directory is requested: <mcpath>/datapacks/<stem>.
func DefaultDir(cfg *config.Config, stem string) (string, error) {
	root, err := cfg.MCPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "datapacks", stem), nil
}

type packMeta struct {
	Pack struct {
		PackFormat  int    `json:"pack_format"`
		Description string `json:"description"`
	} `json:"pack"`
}

type functionTag struct {
	Values []string `json:"values"`
}

// Write writes out into dir. The namespace's function directory is
// replaced as a whole, so functions removed from the source disappear.
// Concurrent writers to the same dir are serialized with a file lock.
func Write(dir string, out *mc.Output, cfg *config.Config) (*Result, error) {
	version, err := cfg.VersionID()
	if err != nil {
		return nil, err
	}
	if err := ValidateNamespace(out.Namespace); err != nil {
		return nil, token.Errorf(token.ConfigError, token.Token{}, "%v", err)
	}
	for _, f := range out.Functions {
		if err := ValidateResourcePath(f.Name); err != nil {
			tok := token.Token{}
			if f.Source != nil {
				tok = f.Source.Token
			}
			return nil, token.Errorf(token.SyntaxError, tok, "invalid function name '%s': %v", f.Name, err)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create datapack dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, LockFile))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire datapack lock: %w", err)
	}
	defer lock.Unlock()

	res := &Result{Dir: dir, BuildID: ulid.Make().String()}

	var meta packMeta
	meta.Pack.PackFormat = version
	meta.Pack.Description = strings.TrimSpace(cfg.Description() + " (build " + res.BuildID + ")")
	if err := res.writeJSON(MetaFile, meta); err != nil {
		return nil, err
	}

	funcDir := filepath.Join("data", out.Namespace, "function")
	if err := os.RemoveAll(filepath.Join(dir, funcDir)); err != nil {
		return nil, fmt.Errorf("clear function dir: %w", err)
	}
	for _, f := range out.Functions {
		content := strings.Join(f.Lines(), "\n") + "\n"
		if err := res.writeFile(filepath.Join(funcDir, filepath.FromSlash(f.Name)+".mcfunction"), []byte(content)); err != nil {
			return nil, err
		}
	}

	tagDir := filepath.Join("data", "minecraft", "tags", "function")
	for _, tag := range []struct {
		name  string
		funcs []*mc.Function
	}{{"load", out.Load}, {"tick", out.Tick}} {
		rel := filepath.Join(tagDir, tag.name+".json")
		if len(tag.funcs) == 0 {
			if err := os.Remove(filepath.Join(dir, rel)); err != nil && !os.IsNotExist(err) {
				return nil, fmt.Errorf("remove stale %s tag: %w", tag.name, err)
			}
			continue
		}
		var t functionTag
		for _, f := range tag.funcs {
			t.Values = append(t.Values, f.ID(out.Namespace))
		}
		if err := res.writeJSON(rel, t); err != nil {
			return nil, err
		}
	}

	// written last: marks a complete build
	if err := res.writeFile(BuildFile, []byte(res.BuildID+"\n")); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Result) writeJSON(rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	return r.writeFile(rel, append(data, '\n'))
}

func (r *Result) writeFile(rel string, data []byte) error {
	path := filepath.Join(r.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(rel), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	r.Files = append(r.Files, filepath.ToSlash(rel))
	return nil
}
