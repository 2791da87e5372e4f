package datapack

import (
	"fmt"
	"strings"
)

// Windows reserved names (case-insensitive)
var windowsReservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// ValidateNamespace checks a datapack namespace: lowercase ASCII letters,
// digits and `_ - .`, not empty.
func ValidateNamespace(ns string) error {
	if ns == "" {
		return fmt.Errorf("namespace cannot be empty")
	}
	if strings.ContainsRune(ns, '/') {
		return fmt.Errorf("namespace %q cannot contain '/'", ns)
	}
	return ValidateResourcePath(ns)
}

// ValidateResourcePath checks a function path below a namespace.
// Rules:
//   - Segments separated by /
//   - ASCII lowercase letters, digits, and _ - . only
//   - No empty, "." or ".." segments
//   - No Windows reserved names, since every segment becomes a file name
func ValidateResourcePath(path string) error {
	if path == "" {
		return fmt.Errorf("resource path cannot be empty")
	}

	segStart := 0
	for i, r := range path {
		if r == '/' {
			if err := checkSegment(path[segStart:i]); err != nil {
				return err
			}
			segStart = i + 1
			continue
		}

		switch {
		case r >= 'A' && r <= 'Z':
			return fmt.Errorf("uppercase letter %q at position %d: resource paths must be lowercase", r, i)
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.':
		default:
			return fmt.Errorf("invalid character %q at position %d in resource path", r, i)
		}
	}

	return checkSegment(path[segStart:])
}

func checkSegment(seg string) error {
	switch seg {
	case "":
		return fmt.Errorf("empty segment in resource path (consecutive separators)")
	case ".", "..":
		return fmt.Errorf("segment %q is not allowed in a resource path", seg)
	}
	base, _, _ := strings.Cut(seg, ".")
	if windowsReservedNames[base] {
		return fmt.Errorf("segment %q is a Windows reserved name", seg)
	}
	return nil
}
