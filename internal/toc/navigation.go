package toc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitebaker/internal/engine"
	"git.home.luguber.info/inful/sitebaker/internal/extension"
	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/glob"
	"git.home.luguber.info/inful/sitebaker/internal/logfields"
	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

// IndexProvider is the read side of the baked navigation.
type IndexProvider interface {
	// Page returns a private clone of the entry for source, falling back to
	// destination, with the page's element marked active.
	Page(source, destination string) (Entry, bool)
	// Roots returns the top-level navigation trees in load order.
	Roots() []*Element
	// AnyRoot returns a private clone of the first top-level tree.
	AnyRoot() (*Element, bool)
}

// RebakeFunc bakes additional fragments into the published navigation.
type RebakeFunc func(fragments []Fragment)

// Keys under which the navigation publishes itself.
var (
	navigationKey = extension.NewKey[*Navigation]("toc/navigation")

	IndexKey  = extension.NewKey[IndexProvider]("toc/index")
	RebakeKey = extension.NewKey[RebakeFunc]("toc/rebake")
	LockKey   = extension.NewKey[*sync.RWMutex]("toc/lock")
)

// Navigation owns the baked index. Reads take the read lock; baking takes the
// write lock because it rewires trees shared by every entry.
type Navigation struct {
	mu     sync.RWMutex
	canon  paths.Canonicalizer
	baker  *baker
	logger *slog.Logger

	index Index
	roots []*Element
}

// NewNavigation returns an empty navigation. load may be nil to disable
// on-demand loading of includes.
func NewNavigation(canon paths.Canonicalizer, load LoadFunc, logger *slog.Logger) *Navigation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigation{
		canon:  canon,
		baker:  &baker{canon: canon, logger: logger, load: load},
		logger: logger,
		index:  Index{},
	}
}

// Bake replaces the navigation with the merge of fragments. Existing trees
// are re-walked first so that includes spliced by earlier bakes survive.
func (n *Navigation) Bake(fragments []Fragment) {
	n.mu.Lock()
	defer n.mu.Unlock()

	all := make([]Fragment, 0, len(n.roots)+len(fragments))
	for _, r := range n.roots {
		all = append(all, Fragment{File: r.file, Root: r})
	}
	all = append(all, fragments...)

	res := n.baker.bake(all)
	n.index = res.index
	n.roots = res.roots
	n.logger.Info("Baked navigation", logfields.Count(len(n.index)), slog.Int("trees", len(n.roots)))
}

// Lookup returns the shared entry for a content path. Callers must not
// modify the returned trees.
func (n *Navigation) Lookup(contentPath string) (Entry, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	en, ok := n.index[n.canon.Key(contentPath)]
	return en, ok
}

// Len returns the number of indexed content paths.
func (n *Navigation) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.index)
}

func (n *Navigation) Page(source, destination string) (Entry, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	en, ok := n.index[n.canon.Key(source)]
	if !ok {
		if en, ok = n.index[n.canon.Key(destination)]; !ok {
			return Entry{}, false
		}
	}
	clone, ok := en.Clone()
	if !ok {
		n.logger.Error("Navigation entry is not part of its tree", logfields.Source(source))
		return Entry{}, false
	}
	clone.Node.Active = true
	return clone, true
}

func (n *Navigation) Roots() []*Element {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]*Element(nil), n.roots...)
}

// AnyRoot clones the first top-level tree. The lookup and the copy share
// one read lock so a concurrent bake cannot splice the root away in between.
func (n *Navigation) AnyRoot() (*Element, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.roots) == 0 {
		return nil, false
	}
	clone, _ := Entry{Root: n.roots[0], Node: n.roots[0]}.Clone()
	return clone.Root, true
}

// Override is an engine.Override substituting a Model for pages that have a
// navigation entry.
func (n *Navigation) Override(_ context.Context, source, destination string, m engine.Model) (engine.Model, error) {
	en, ok := n.Page(source, destination)
	if !ok {
		return m, nil
	}
	return Model{Base: m, Root: en.Root, Node: en.Node}, nil
}

// Dump writes an indented outline of every tree to w.
func (n *Navigation) Dump(w io.Writer) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, r := range n.roots {
		if err := dumpElement(w, r, 0); err != nil {
			return err
		}
	}
	return nil
}

func dumpElement(w io.Writer, e *Element, depth int) error {
	line := strings.Repeat("  ", depth) + e.Name
	if href := e.Href(); href != "" {
		line += " -> " + href
	}
	if depth == 0 || (e.parent != nil && e.parent.file != e.file) {
		line += " [" + e.file + "]"
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := dumpElement(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Model wraps a page model with the page's navigation.
type Model struct {
	Base engine.Model
	Root *Element
	Node *Element
}

func (Model) ModelKind() string { return "toc" }

// ActivePath returns the elements from the tree root down to the page's element.
func (m Model) ActivePath() []*Element {
	if m.Node == nil {
		return nil
	}
	return append(m.Node.Ancestors(), m.Node)
}

// Options configures Enable.
type Options struct {
	// FileGlobs select navigation documents; "!"-prefixed globs exclude.
	// Defaults to DefaultFileGlobs.
	FileGlobs []string
}

// Enable loads the navigation documents below the engine's input root and
// bakes them. The first call publishes the navigation and registers its model
// override; later calls on the same engine rebake the published navigation.
func Enable(e *engine.Engine, opts Options) (*Navigation, error) {
	globs := opts.FileGlobs
	if len(globs) == 0 {
		globs = DefaultFileGlobs
	}
	includes, excludes := glob.Split(globs)
	files, err := glob.Resolve(e.InputRoot(), e.Canonicalizer().CaseSensitive(), includes, excludes)
	if err != nil {
		return nil, ferrors.TOCError("cannot resolve navigation documents").WithCause(err).Build()
	}

	logger := e.Logger()
	loader := NewLoader(e.InputRoot())
	rels := make([]string, 0, len(files))
	for _, f := range files {
		rel, relErr := paths.Rel(e.InputRoot(), f)
		if relErr != nil {
			return nil, ferrors.InternalError("resolve navigation document").WithCause(relErr).Build()
		}
		rels = append(rels, rel)
	}

	logger.Info("Loading navigation documents", logfields.Count(len(rels)))
	fragments, failed := loader.LoadAll(rels, logger)
	logger.Info("Navigation documents loaded", logfields.Count(len(fragments)), slog.Int("failed", len(failed)))
	if len(fragments) == 0 {
		logger.Warn("No navigation documents loaded")
	}

	reg := e.Extensions()
	if existing, ok := extension.Lookup(reg, navigationKey); ok {
		existing.Bake(fragments)
		return existing, nil
	}

	nav := NewNavigation(e.Canonicalizer(), loader.Load, logger)
	if !extension.Publish(reg, navigationKey, nav) {
		winner := extension.MustLookup(reg, navigationKey)
		winner.Bake(fragments)
		return winner, nil
	}
	nav.Bake(fragments)
	extension.Publish(reg, IndexKey, IndexProvider(nav))
	extension.Publish(reg, RebakeKey, RebakeFunc(nav.Bake))
	extension.Publish(reg, LockKey, &nav.mu)
	e.AddOverride(nav.Override)
	return nav, nil
}

// FindAny returns a clone of the first published navigation tree, for pages
// without an entry of their own.
func FindAny(reg *extension.Registry) (*Element, bool) {
	provider, ok := extension.Lookup(reg, IndexKey)
	if !ok {
		return nil, false
	}
	return provider.AnyRoot()
}
