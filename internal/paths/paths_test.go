package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"docs\\guide\\intro.md", "docs/guide/intro.md"},
		{"./docs/intro.md", "docs/intro.md"},
		{"/docs/", "docs"},
		{"././a", "a"},
		{".", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fixup(tt.in), "Fixup(%q)", tt.in)
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "docs/guide/intro.md", Join("docs", "guide/intro.md"))
	assert.Equal(t, "guide/intro.md", Join("", "./guide/intro.md"))
	assert.Equal(t, "other.md", Join("docs", "../other.md"))
}

func TestDir(t *testing.T) {
	assert.Equal(t, "", Dir("toc.json"))
	assert.Equal(t, "docs/guide", Dir("docs/guide/toc.json"))
}

func TestCanonicalizerKey(t *testing.T) {
	insensitive := NewCanonicalizer(false)
	sensitive := NewCanonicalizer(true)

	assert.Equal(t, "docs/guide/intro.md", insensitive.Key("Docs\\Guide/Intro.MD"))
	assert.Equal(t, "Docs/Guide/Intro.MD", sensitive.Key("Docs\\Guide/Intro.MD"))
	assert.False(t, insensitive.CaseSensitive())
	assert.True(t, sensitive.CaseSensitive())
}

func TestCanonicalizerFold(t *testing.T) {
	assert.Equal(t, `docs\*.md`, NewCanonicalizer(false).Fold(`Docs\*.MD`))
	assert.Equal(t, `./Docs/`, NewCanonicalizer(true).Fold(`./Docs/`))
}

func TestDiffersOnlyByCase(t *testing.T) {
	assert.True(t, DiffersOnlyByCase("A.md", "a.md"))
	assert.False(t, DiffersOnlyByCase("a.md", "a.md"))
	assert.False(t, DiffersOnlyByCase("a.md", "b.md"))
}

func TestWithin(t *testing.T) {
	root := t.TempDir()

	got, err := Within(root, "a/b.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "b.html"), got)

	_, err = Within(root, "../escape.html")
	require.ErrorIs(t, err, ErrEscapesRoot)

	_, err = Within(root, "a/../../escape.html")
	require.ErrorIs(t, err, ErrEscapesRoot)
}
