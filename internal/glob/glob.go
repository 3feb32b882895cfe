// Package glob resolves include/exclude glob patterns against a root directory.
//
// Patterns are matched against slash-separated paths relative to the root and
// support "**" for any number of directories. Results are absolute paths in
// lexical order with no duplicates.
package glob

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

// Matcher holds a set of include and exclude patterns.
// It is safe for concurrent use once all patterns have been added.
type Matcher struct {
	includes []string
	excludes []string
	canon    paths.Canonicalizer
}

// New returns an empty matcher. When caseSensitive is false both patterns and
// candidate paths are compared lower-cased.
func New(caseSensitive bool) *Matcher {
	return &Matcher{canon: paths.NewCanonicalizer(caseSensitive)}
}

// Split partitions a mixed list into includes and "!"-prefixed excludes.
func Split(globs []string) (includes, excludes []string) {
	for _, g := range globs {
		if g == "" {
			continue
		}
		if strings.HasPrefix(g, "!") {
			excludes = append(excludes, g[1:])
			continue
		}
		includes = append(includes, g)
	}
	return includes, excludes
}

// AddInclude adds an include pattern.
func (m *Matcher) AddInclude(pattern string) error {
	p, err := m.prepare(pattern)
	if err != nil {
		return err
	}
	m.includes = append(m.includes, p)
	return nil
}

// AddExclude adds an exclude pattern. Excludes win over includes.
func (m *Matcher) AddExclude(pattern string) error {
	p, err := m.prepare(pattern)
	if err != nil {
		return err
	}
	m.excludes = append(m.excludes, p)
	return nil
}

// prepare keeps backslashes, which doublestar reads as escapes.
func (m *Matcher) prepare(pattern string) (string, error) {
	p := strings.TrimSpace(pattern)
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = m.canon.Fold(strings.TrimLeft(p, "/"))
	if p == "" || !doublestar.ValidatePattern(p) {
		return "", fmt.Errorf("invalid glob pattern %q", pattern)
	}
	return p, nil
}

// Match reports whether a root-relative path is selected by the matcher.
func (m *Matcher) Match(rel string) bool {
	key := m.canon.Key(rel)
	for _, ex := range m.excludes {
		if matchPattern(ex, key) {
			return false
		}
	}
	for _, in := range m.includes {
		if matchPattern(in, key) {
			return true
		}
	}
	return false
}

// matchPattern matches the path itself, and treats a pattern naming a
// directory as excluding/including everything beneath it.
func matchPattern(pattern, key string) bool {
	if ok, _ := doublestar.Match(pattern, key); ok {
		return true
	}
	ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/")+"/**", key)
	return ok
}

// Files walks root and returns the absolute paths of all regular files matched.
func (m *Matcher) Files(root string) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("glob root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve glob root: %w", err)
	}
	if len(m.includes) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := paths.Rel(abs, p)
		if relErr != nil {
			return relErr
		}
		if !m.Match(rel) {
			return nil
		}
		if _, dup := seen[p]; dup {
			return nil
		}
		seen[p] = struct{}{}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", abs, err)
	}
	sort.Strings(out)
	return out, nil
}

// Resolve is a convenience wrapper building a matcher from includes and
// excludes and returning the matched files under root.
func Resolve(root string, caseSensitive bool, includes, excludes []string) ([]string, error) {
	m := New(caseSensitive)
	for _, in := range includes {
		if err := m.AddInclude(in); err != nil {
			return nil, err
		}
	}
	for _, ex := range excludes {
		if err := m.AddExclude(ex); err != nil {
			return nil, err
		}
	}
	return m.Files(root)
}
