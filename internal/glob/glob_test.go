package glob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o600))
	}
}

func rels(t *testing.T, root string, files []string) []string {
	t.Helper()
	abs, err := filepath.Abs(root)
	require.NoError(t, err)
	out := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(abs, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestFilesIncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt", "docs/b.txt", "docs/c.md", "drafts/d.txt", "docs/deep/e.txt")

	files, err := Resolve(root, true, []string{"**/*.txt"}, []string{"drafts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "docs/b.txt", "docs/deep/e.txt"}, rels(t, root, files))
}

func TestFilesDeduplicatesOverlappingIncludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "docs/a.md", "docs/b.md")

	files, err := Resolve(root, true, []string{"docs/*.md", "**/*.md"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md", "docs/b.md"}, rels(t, root, files))
}

func TestFilesCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "Docs/README.MD", "docs2/other.md")

	insensitive, err := Resolve(root, false, []string{"docs/*.md"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Docs/README.MD"}, rels(t, root, insensitive))

	sensitive, err := Resolve(root, true, []string{"docs/*.md"}, nil)
	require.NoError(t, err)
	assert.Empty(t, sensitive)
}

func TestTopLevelPatternDoesNotRecurse(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "toc.json", "guide/toc.json")

	files, err := Resolve(root, true, []string{"toc.json"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"toc.json"}, rels(t, root, files))
}

func TestSplit(t *testing.T) {
	in, ex := Split([]string{"**/*.png", "!private/**", "", "css/*.css"})
	assert.Equal(t, []string{"**/*.png", "css/*.css"}, in)
	assert.Equal(t, []string{"private/**"}, ex)
}

func TestInvalidPattern(t *testing.T) {
	m := New(true)
	require.Error(t, m.AddInclude("[unterminated"))
	require.Error(t, m.AddInclude(""))
}

func TestEscapedMetacharacters(t *testing.T) {
	tests := []struct {
		name          string
		caseSensitive bool
		pattern       string
		match         []string
		noMatch       []string
	}{
		{"escaped star", true, `a\*b.txt`, []string{"a*b.txt"}, []string{"axb.txt", "a/b.txt"}},
		{"escaped bracket", true, `\[draft].md`, []string{"[draft].md"}, []string{"d.md"}},
		{"escaped star case-insensitive", false, `Notes\*.MD`, []string{"notes*.md", "NOTES*.md"}, []string{"notes1.md"}},
		{"leading dot slash", true, `./docs/*.md`, []string{"docs/a.md"}, []string{"a.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.caseSensitive)
			require.NoError(t, m.AddInclude(tt.pattern))
			for _, rel := range tt.match {
				assert.True(t, m.Match(rel), rel)
			}
			for _, rel := range tt.noMatch {
				assert.False(t, m.Match(rel), rel)
			}
		})
	}
}
