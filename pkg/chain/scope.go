package chain

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/arthur-debert/isobundle/pkg/errors"
)

// Scope restricts a chain to part of the project tree. Patterns are
// doublestar globs over slash separated paths relative to Root. A pattern
// without glob metacharacters names a directory prefix (or a single file).
type Scope struct {
	Root    string
	Include []string
	Exclude []string
}

// NewScope validates and normalizes the patterns of a scope
func NewScope(root string, include, exclude []string) (Scope, error) {
	s := Scope{Root: root}
	var err error
	if s.Include, err = normalizePatterns(include); err != nil {
		return Scope{}, err
	}
	if s.Exclude, err = normalizePatterns(exclude); err != nil {
		return Scope{}, err
	}
	return s, nil
}

func normalizePatterns(patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(filepath.ToSlash(p))
		p = strings.TrimPrefix(p, "./")
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Newf(errors.ErrRuleInvalid, "invalid scope pattern %q", p)
		}
		out = append(out, p)
	}
	return out, nil
}

// IsEmpty reports whether the scope admits every module
func (s Scope) IsEmpty() bool {
	return len(s.Include) == 0 && len(s.Exclude) == 0
}

// Contains reports whether the module at path is inside the scope. A path
// outside Root never matches an include pattern, and only glob exclude
// patterns apply to it.
func (s Scope) Contains(path string) bool {
	if s.IsEmpty() {
		return true
	}

	rel, outside := s.relative(path)
	if outside {
		return len(s.Include) == 0 && !matchAny(globsOnly(s.Exclude), rel)
	}
	if len(s.Include) > 0 && !matchAny(s.Include, rel) {
		return false
	}
	return !matchAny(s.Exclude, rel)
}

// relative returns the slash path of path below Root, stripped of any
// leading parent segments, and whether it lies outside Root
func (s Scope) relative(path string) (string, bool) {
	if s.Root == "" {
		return strings.TrimPrefix(filepath.ToSlash(path), "/"), false
	}
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return strings.TrimPrefix(filepath.ToSlash(path), "/"), true
	}
	rel = filepath.ToSlash(rel)
	outside := false
	for rel == ".." || strings.HasPrefix(rel, "../") {
		outside = true
		rel = strings.TrimPrefix(strings.TrimPrefix(rel, ".."), "/")
	}
	return rel, outside
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if !hasMeta(p) {
			if rel == p || strings.HasPrefix(rel, p+"/") {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func globsOnly(patterns []string) []string {
	var out []string
	for _, p := range patterns {
		if hasMeta(p) {
			out = append(out, p)
		}
	}
	return out
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
