// Package paths holds the path canonicalization rules shared by the engine,
// the glob matcher and the navigation baker.
//
// All content-relative paths handled by sitebaker use forward slashes, carry
// no leading "./" and no leading or trailing slash. When case-sensitive paths
// are disabled, lookup keys are additionally lower-cased so that "Guide/Intro.md"
// and "guide/intro.md" collide.
package paths

import (
	"errors"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrEscapesRoot is returned by Within when a relative path resolves outside its root.
var ErrEscapesRoot = errors.New("path escapes root directory")

// Fixup normalizes a relative path: backslashes become slashes, leading "./"
// segments are stripped and surrounding slashes are trimmed.
func Fixup(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	p = strings.Trim(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// Join joins a base directory and a relative path and fixes up the result.
// ".." segments are resolved lexically.
func Join(base, rel string) string {
	joined := path.Join(Fixup(base), Fixup(rel))
	return Fixup(joined)
}

// Dir returns the directory of a fixed-up relative path ("" for top level).
func Dir(p string) string {
	d := path.Dir(Fixup(p))
	if d == "." {
		return ""
	}
	return d
}

// Rel returns target relative to root in fixed-up form.
func Rel(root, target string) (string, error) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", err
	}
	return Fixup(filepath.ToSlash(rel)), nil
}

// Within joins rel onto root and fails when the result is not contained in root.
func Within(root, rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(Fixup(rel)))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrEscapesRoot
	}
	return filepath.Join(root, clean), nil
}

// Canonicalizer turns fixed-up paths into map keys.
type Canonicalizer struct {
	caseSensitive bool
	lower         cases.Caser
}

// NewCanonicalizer returns a canonicalizer for the given case-sensitivity mode.
func NewCanonicalizer(caseSensitive bool) Canonicalizer {
	return Canonicalizer{caseSensitive: caseSensitive, lower: cases.Lower(language.Und)}
}

// CaseSensitive reports the mode the canonicalizer was built with.
func (c Canonicalizer) CaseSensitive() bool { return c.caseSensitive }

// Key returns the lookup key for p.
func (c Canonicalizer) Key(p string) string {
	p = Fixup(p)
	if c.caseSensitive {
		return p
	}
	return c.lower.String(p)
}

// Fold applies only the case folding of Key, leaving separators and
// backslashes untouched.
func (c Canonicalizer) Fold(s string) string {
	if c.caseSensitive {
		return s
	}
	return c.lower.String(s)
}

// DiffersOnlyByCase reports whether a and b are distinct strings that are
// equal ignoring case.
func DiffersOnlyByCase(a, b string) bool {
	return a != b && strings.EqualFold(a, b)
}
