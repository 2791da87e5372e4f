package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/thiremani/redscript/rbc"
)

// OutputName is the resource name f is emitted under, relative to the
// datapack namespace. Math::Vec::add becomes math/vec/add; a child method
// carries a hash of its parent so equal names under different parents do
// not collide. Extern methods keep their bare name.
func OutputName(p *rbc.Program, f *rbc.Function) string {
	name := strings.ToLower(f.Name)
	if f.Decorators.Has(rbc.Extern) {
		return name
	}
	if f.Parent != rbc.None {
		name += "_" + ParentHash(p, f)
	}

	var parts []string
	for _, m := range p.ModulePath(f.Module) {
		parts = append(parts, strings.ToLower(m))
	}
	return strings.Join(append(parts, name), "/")
}

// ParentHash is the first 8 hex chars of the sha256 of the qualified name of
// f's parent.
func ParentHash(p *rbc.Program, f *rbc.Function) string {
	if f.Parent == rbc.None {
		return ""
	}
	sum := sha256.Sum256([]byte(p.QualifiedName(p.Func(f.Parent))))
	return hex.EncodeToString(sum[:])[:8]
}
