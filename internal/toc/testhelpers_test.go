package toc

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

func parseFragment(t testing.TB, file, doc string) Fragment {
	t.Helper()
	var root *Element
	require.NoError(t, json.Unmarshal([]byte(doc), &root))
	return Fragment{File: file, Root: root}
}

func newTestNavigation(caseSensitive bool, load LoadFunc) (*Navigation, *bytes.Buffer) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewNavigation(paths.NewCanonicalizer(caseSensitive), load, logger), &logs
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

// shape is the structural part of a tree, without identity or provenance.
type shape struct {
	Name     string
	URL      string
	Metadata map[string]string
	Children []shape
}

func shapeOf(e *Element) shape {
	s := shape{Name: e.Name, URL: e.URL, Metadata: e.Metadata}
	for _, c := range e.Children {
		s.Children = append(s.Children, shapeOf(c))
	}
	return s
}

// assertParentsConsistent checks every parent link below root matches containment.
func assertParentsConsistent(t testing.TB, root *Element) {
	t.Helper()
	for _, c := range root.Children {
		require.Same(t, root, c.Parent(), "parent of %q", c.Name)
		assertParentsConsistent(t, c)
	}
}
