package toc

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebaker/internal/engine"
	"git.home.luguber.info/inful/sitebaker/internal/extension"
)

type pageModel struct {
	Source string
}

func (pageModel) ModelKind() string { return "page" }

// pathRenderer prints the active path of navigation models.
type pathRenderer struct{}

func (pathRenderer) Render(_ context.Context, _ string, m engine.Model) ([]byte, error) {
	nm, ok := m.(Model)
	if !ok {
		return []byte("no-nav"), nil
	}
	names := make([]string, 0, 4)
	for _, e := range nm.ActivePath() {
		names = append(names, e.Name)
	}
	return []byte(strings.Join(names, ">")), nil
}

func newSiteEngine(t *testing.T, files map[string]string) *engine.Engine {
	t.Helper()
	in := filepath.Join(t.TempDir(), "docs")
	writeFiles(t, in, files)
	e, err := engine.New(engine.Options{
		InputRoot:       in,
		OutputRoot:      filepath.Join(t.TempDir(), "out"),
		Renderer:        pathRenderer{},
		DefaultTemplate: "page",
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return e
}

func mdToHTML(_ context.Context, src string) ([]engine.Output, error) {
	return []engine.Output{{Path: strings.TrimSuffix(src, ".md") + ".html", Model: pageModel{Source: src}}}, nil
}

func TestEnable_EndToEndInclude(t *testing.T) {
	e := newSiteEngine(t, map[string]string{
		"toc.json":       rootDoc,
		"guide/toc.json": guideDoc,
		"index.md":       "# Home",
		"about.md":       "# About",
		"guide/index.md": "# Guide",
		"guide/intro.md": "# Intro",
		"orphan.md":      "# Orphan",
	})
	nav, err := Enable(e, Options{})
	require.NoError(t, err)

	en, ok := nav.Lookup("guide/intro.md")
	require.True(t, ok)
	require.Len(t, nav.Roots(), 1)
	assert.Same(t, nav.Roots()[0], en.Root)
	assert.Equal(t, "Home", en.Root.Name)
	assert.Equal(t, "Guide", en.Root.Children[0].Name)

	_, err = e.RegisterGenerator("**/*.md", mdToHTML)
	require.NoError(t, err)
	report, err := e.Generate(context.Background())
	require.NoError(t, err)
	require.False(t, report.HasFailures())

	read := func(rel string) string {
		data, readErr := os.ReadFile(filepath.Join(e.OutputRoot(), rel))
		require.NoError(t, readErr)
		return string(data)
	}
	assert.Equal(t, "Home>Guide>Intro", read("guide/intro.html"))
	assert.Equal(t, "Home>Guide", read("guide/index.html"))
	assert.Equal(t, "Home", read("index.html"))
	assert.Equal(t, "no-nav", read("orphan.html"))
}

func TestPage_ClonesAreIsolated(t *testing.T) {
	nav, _ := newTestNavigation(false, nil)
	nav.Bake([]Fragment{
		parseFragment(t, "toc.json", rootDoc),
		parseFragment(t, "guide/toc.json", guideDoc),
	})

	first, ok := nav.Page("guide/intro.md", "")
	require.True(t, ok)
	second, ok := nav.Page("guide/intro.md", "")
	require.True(t, ok)
	other, ok := nav.Page("nope.md", "about.md")
	require.True(t, ok)

	assert.True(t, first.Node.Active)
	assert.True(t, second.Node.Active)
	first.Node.Active = false
	assert.True(t, second.Node.Active)

	assert.Equal(t, "About", other.Node.Name)
	assert.False(t, other.Root.Children[0].OnActivePath())
	assert.True(t, other.Root.IsChildActive())

	assert.True(t, second.Root.IsAnyChildActive())
	assert.False(t, second.Root.IsChildActive())
	assert.True(t, second.Root.Children[0].IsChildActive())
	assertParentsConsistent(t, second.Root)

	shared, _ := nav.Lookup("guide/intro.md")
	assert.False(t, shared.Node.Active)
	assert.NotSame(t, shared.Root, second.Root)
	second.Root.Metadata = map[string]string{"mutated": "yes"}
	second.Root.Children[1].Metadata["icon"] = "changed"
	assert.Nil(t, shared.Root.Metadata)
	assert.Equal(t, "info", shared.Root.Children[1].Metadata["icon"])

	_, ok = nav.Page("nope.md", "nope.html")
	assert.False(t, ok)
}

func TestEntryClone_NodeOutsideTree(t *testing.T) {
	_, ok := Entry{Root: &Element{Name: "a"}, Node: &Element{Name: "b"}}.Clone()
	assert.False(t, ok)
}

func TestEnable_TwiceRebakesAndPublishes(t *testing.T) {
	e := newSiteEngine(t, map[string]string{
		"toc.json":       rootDoc,
		"guide/toc.json": guideDoc,
	})
	nav, err := Enable(e, Options{})
	require.NoError(t, err)
	again, err := Enable(e, Options{})
	require.NoError(t, err)
	assert.Same(t, nav, again)
	assert.Equal(t, 4, nav.Len())

	reg := e.Extensions()
	assert.Equal(t, []string{"toc/index", "toc/lock", "toc/navigation", "toc/rebake"}, reg.Names())
	provider := extension.MustLookup(reg, IndexKey)
	assert.Len(t, provider.Roots(), 1)
	extension.MustLookup(reg, RebakeKey)(nil)
	assert.Equal(t, 4, nav.Len())

	m, err := e.ApplyOverrides(context.Background(), "guide/intro.md", "guide/intro.html", pageModel{Source: "x"})
	require.NoError(t, err)
	nm, ok := m.(Model)
	require.True(t, ok)
	assert.Equal(t, pageModel{Source: "x"}, nm.Base)
	assert.Equal(t, "toc", nm.ModelKind())
}

func TestEnable_SkipsBrokenDocuments(t *testing.T) {
	e := newSiteEngine(t, map[string]string{
		"toc.json":     `{"name":"Home","url":"index.md"}`,
		"bad/toc.json": `{"name":`,
		"yml/toc.yml":  "name: Y\nchildren:\n  - name: Page\n    url: page.md\n",
	})
	nav, err := Enable(e, Options{})
	require.NoError(t, err)
	assert.Len(t, nav.Roots(), 2)
	_, ok := nav.Lookup("yml/page.md")
	assert.True(t, ok)
}

func TestEnable_CustomGlobsAndFindAny(t *testing.T) {
	e := newSiteEngine(t, map[string]string{
		"menu.json":        `{"name":"Menu","children":[{"name":"A","url":"a.md"}]}`,
		"drafts/menu.json": `{"name":"Draft","url":"d.md"}`,
	})
	_, ok := FindAny(e.Extensions())
	assert.False(t, ok)

	nav, err := Enable(e, Options{FileGlobs: []string{"**/menu.json", "!drafts/**"}})
	require.NoError(t, err)
	assert.Equal(t, 1, nav.Len())

	root, ok := FindAny(e.Extensions())
	require.True(t, ok)
	assert.Equal(t, "Menu", root.Name)
	root.Children[0].Name = "changed"
	assert.Equal(t, "A", nav.Roots()[0].Children[0].Name)
}

func TestNavigation_AnyRootFollowsRebake(t *testing.T) {
	nav, _ := newTestNavigation(false, nil)
	_, ok := nav.AnyRoot()
	assert.False(t, ok)

	nav.Bake([]Fragment{parseFragment(t, "guide/toc.json", guideDoc)})
	root, ok := nav.AnyRoot()
	require.True(t, ok)
	assert.Equal(t, "Guide", root.Name)

	// The guide tree becomes a subtree of Home once it is included.
	nav.Bake([]Fragment{parseFragment(t, "toc.json", rootDoc)})
	root, ok = nav.AnyRoot()
	require.True(t, ok)
	assert.Equal(t, "Home", root.Name)
	assert.Nil(t, root.Parent())
	assertParentsConsistent(t, root)
	assert.NotSame(t, nav.Roots()[0], root)
}

func TestFindAny_ConcurrentWithRebake(t *testing.T) {
	e := newSiteEngine(t, map[string]string{"guide/toc.json": guideDoc})
	nav, err := Enable(e, Options{})
	require.NoError(t, err)

	home := parseFragment(t, "toc.json", rootDoc)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		nav.Bake([]Fragment{home})
	}()
	for range 50 {
		root, ok := FindAny(e.Extensions())
		require.True(t, ok)
		assert.Contains(t, []string{"Guide", "Home"}, root.Name)
		assert.Nil(t, root.Parent())
	}
	wg.Wait()

	root, ok := FindAny(e.Extensions())
	require.True(t, ok)
	assert.Equal(t, "Home", root.Name)
}

func TestNavigation_Dump(t *testing.T) {
	nav, _ := newTestNavigation(false, nil)
	nav.Bake([]Fragment{
		parseFragment(t, "toc.json", rootDoc),
		parseFragment(t, "guide/toc.json", guideDoc),
		parseFragment(t, "ext.json", `{"name":"Ext","url":"https://example.com/x"}`),
	})
	var buf bytes.Buffer
	require.NoError(t, nav.Dump(&buf))
	want := strings.Join([]string{
		"Home -> /index.md [toc.json]",
		"  Guide -> /guide/index.md [guide/toc.json]",
		"    Intro -> /guide/intro.md",
		"  About -> /about.md",
		"Ext -> https://example.com/x [ext.json]",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestLoader(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.json":    `{"name":"A","children":[null,{"name":"B","url":"b.md","metadata":{"k":"v"}}]}`,
		"b.yaml":    "name: B\nurl: b.md\n",
		"null.json": "null",
		"bad.yml":   "name: [",
	})
	l := NewLoader(root)

	a, err := l.Load("a.json")
	require.NoError(t, err)
	assert.Equal(t, "A", a.Name)

	b, err := l.Load("./b.yaml")
	require.NoError(t, err)
	assert.Equal(t, "b.md", b.URL)

	_, err = l.Load("null.json")
	require.ErrorContains(t, err, "document is empty")
	_, err = l.Load("../escape.json")
	require.Error(t, err)

	var logs bytes.Buffer
	fragments, failed := l.LoadAll([]string{"a.json", "bad.yml", "missing.json", "b.yaml"}, slog.New(slog.NewTextHandler(&logs, nil)))
	require.Len(t, fragments, 2)
	assert.Equal(t, []string{"bad.yml", "missing.json"}, failed)
	assert.Equal(t, 2, strings.Count(logs.String(), "Skipping navigation document"))

	res := walk(fragments[0].Root, fragments[0].File)
	require.Len(t, fragments[0].Root.Children, 1)
	require.Len(t, res.entries, 1)
	assert.Equal(t, "b.md", res.entries[0].path)
	assert.Equal(t, "a.json", fragments[0].Root.Children[0].File())
}

func TestElement_Accessors(t *testing.T) {
	leaf := &Element{Name: "leaf", URL: "leaf.md", FullURL: "docs/leaf.md"}
	mid := &Element{Name: "mid", Children: []*Element{leaf}}
	top := &Element{Name: "top", Children: []*Element{mid}}
	walk(top, "docs/toc.json")

	assert.Nil(t, top.Parent())
	assert.Same(t, mid, leaf.Parent())
	assert.Equal(t, []*Element{top, mid}, leaf.Ancestors())
	assert.Empty(t, top.Href())
	assert.Equal(t, "/docs/leaf.md", leaf.Href())
	assert.False(t, leaf.IsInclude())
	assert.True(t, (&Element{URL: "::x.json"}).IsInclude())
	assert.True(t, (&Element{URL: "https://x"}).IsExternal())

	leaf.Active = true
	assert.True(t, mid.IsChildActive())
	assert.False(t, top.IsChildActive())
	assert.True(t, top.IsAnyChildActive())
	assert.True(t, top.OnActivePath())
	assert.Equal(t, []*Element{top, mid, leaf}, Model{Node: leaf}.ActivePath())
	assert.Nil(t, Model{}.ActivePath())
}
