package filter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher selects template files by glob pattern. Patterns are matched
// against slash-separated paths relative to the project root; "*" stays
// within one directory and "**" crosses directories.
type Matcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewMatcher compiles patterns into a Matcher.
func NewMatcher(patterns []string) (*Matcher, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no watch patterns given")
	}

	m := &Matcher{
		patterns: make([]string, 0, len(patterns)),
		globs:    make([]glob.Glob, 0, len(patterns)),
	}

	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling watch pattern %q: %w", p, err)
		}

		m.patterns = append(m.patterns, p)
		m.globs = append(m.globs, g)
	}

	return m, nil
}

// Patterns returns the source patterns of the matcher.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Match reports whether the root-relative path matches any pattern.
func (m *Matcher) Match(rel string) bool {
	rel = normalize(rel)

	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}

	return false
}

// Filter returns the paths under root that match, preserving order.
func (m *Matcher) Filter(root string, paths []string) []string {
	var matched []string

	for _, p := range paths {
		if m.Match(Rel(root, p)) {
			matched = append(matched, p)
		}
	}

	return matched
}

// Rel returns path relative to root in slash form. Paths outside root,
// or that cannot be made relative, are returned unchanged.
func Rel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return normalize(path)
	}

	return normalize(rel)
}

func normalize(p string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(p)), "./")
}
