package toc

import (
	"log/slog"
	"slices"

	"git.home.luguber.info/inful/sitebaker/internal/logfields"
	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

// Entry is a baked index value: the element linking to a content path and
// the root of the tree it ended up in.
type Entry struct {
	Root *Element
	Node *Element
}

// Index maps canonical content paths to entries. All entries of one tree
// share the same Root pointer.
type Index map[string]Entry

// LoadFunc loads a navigation document on demand, given its path relative to
// the input root.
type LoadFunc func(rel string) (*Element, error)

type baker struct {
	canon  paths.Canonicalizer
	logger *slog.Logger
	load   LoadFunc
}

type bakeState struct {
	keys       []string
	work       map[string]entry
	roots      map[string]*Element // document key -> element its tree starts at
	rootOrder  []*Element
	includes   []*Element
	includedBy map[string]string // document key -> including document
	attempted  map[string]bool
	dropped    map[*Element]bool
}

type bakeResult struct {
	index Index
	roots []*Element
}

// bake merges fragments into one index. Pass 1 collects and deduplicates
// entries, pass 2 splices includes and pass 3 materializes the index with
// every entry pointing at its tree's topmost root.
func (b *baker) bake(fragments []Fragment) bakeResult {
	s := &bakeState{
		work:       make(map[string]entry),
		roots:      make(map[string]*Element),
		includedBy: make(map[string]string),
		attempted:  make(map[string]bool),
		dropped:    make(map[*Element]bool),
	}
	for _, f := range fragments {
		b.add(s, f)
	}
	// add may append includes while resolving on-demand loads.
	for i := 0; i < len(s.includes); i++ {
		b.resolve(s, s.includes[i])
	}
	return b.materialize(s)
}

func (b *baker) add(s *bakeState, f Fragment) {
	file := f.File
	if f.Root.file != "" {
		file = f.Root.file
	}
	if _, seen := s.roots[b.canon.Key(file)]; seen {
		b.logger.Debug("Navigation document already loaded", logfields.TOCFile(file))
		return
	}

	res := walk(f.Root, file)
	for _, r := range res.fileRoots {
		key := b.canon.Key(r.file)
		if _, seen := s.roots[key]; seen {
			continue
		}
		s.roots[key] = r
		s.rootOrder = append(s.rootOrder, r)
		if r.parent != nil {
			s.includedBy[key] = r.parent.file
		}
	}
	for _, en := range res.entries {
		b.insert(s, en)
	}
	s.includes = append(s.includes, res.includes...)
}

// insert keeps the first entry for a content path.
func (b *baker) insert(s *bakeState, en entry) {
	key := b.canon.Key(en.path)
	prev, exists := s.work[key]
	if !exists {
		s.work[key] = en
		s.keys = append(s.keys, key)
		return
	}
	if prev.node.file == en.node.file && prev.path == en.path {
		return
	}
	attrs := []any{
		logfields.Path(en.path),
		logfields.TOCFile(en.node.file),
		slog.String("existing_path", prev.path),
		slog.String("existing_toc_file", prev.node.file),
	}
	if !b.canon.CaseSensitive() && paths.DiffersOnlyByCase(prev.path, en.path) {
		attrs = append(attrs, slog.String("hint", "paths differ only by case; enable case-sensitive paths to keep both"))
	}
	b.logger.Warn("Duplicate navigation entry; keeping the first", attrs...)
}

func (b *baker) resolve(s *bakeState, inc *Element) {
	if b.isDropped(s, inc) {
		return
	}
	target := paths.Join(inc.baseDir, inc.URL[len(includePrefix):])
	key := b.canon.Key(target)
	log := b.logger.With(logfields.TOCFile(inc.file), slog.String("include", target))

	if inc.parent == nil {
		log.Warn("Include at the root of a navigation document cannot be spliced")
		return
	}

	root, found := s.roots[key]
	if !found && !s.attempted[key] && b.load != nil {
		s.attempted[key] = true
		loaded, err := b.load(target)
		if err != nil {
			log.Debug("On-demand load of included navigation document failed", logfields.Error(err))
		} else {
			b.add(s, Fragment{File: target, Root: loaded})
			root, found = s.roots[key]
		}
	}
	if !found {
		log.Warn("Included navigation document not found; dropping include")
		b.drop(s, inc)
		return
	}

	if by, dup := s.includedBy[key]; dup {
		log.Warn("Navigation document included more than once; dropping the later include",
			slog.String("included_by", by))
		b.drop(s, inc)
		return
	}
	for a := inc.parent; a != nil; a = a.parent {
		if a == root {
			log.Warn("Cyclic navigation include; dropping include")
			b.drop(s, inc)
			return
		}
	}

	parent := inc.parent
	if i := slices.Index(parent.Children, inc); i >= 0 {
		parent.Children[i] = root
	} else {
		parent.Children = append(parent.Children, root)
	}
	root.parent = parent
	inc.parent = nil
	s.dropped[inc] = true
	s.includedBy[key] = inc.file
	log.Debug("Spliced navigation document")
}

func (b *baker) drop(s *bakeState, inc *Element) {
	if p := inc.parent; p != nil {
		p.Children = slices.DeleteFunc(p.Children, func(c *Element) bool { return c == inc })
	}
	inc.parent = nil
	s.dropped[inc] = true
}

func (b *baker) isDropped(s *bakeState, e *Element) bool {
	for ; e != nil; e = e.parent {
		if s.dropped[e] {
			return true
		}
	}
	return false
}

// topmost follows parent links to the tree root. It fails for elements that
// were cut off together with a dropped include.
func (b *baker) topmost(s *bakeState, e *Element) (*Element, bool) {
	for {
		if s.dropped[e] {
			return nil, false
		}
		if e.parent == nil {
			return e, true
		}
		e = e.parent
	}
}

func (b *baker) materialize(s *bakeState) bakeResult {
	res := bakeResult{index: make(Index, len(s.keys))}
	for _, key := range s.keys {
		en := s.work[key]
		root, ok := b.topmost(s, en.node)
		if !ok {
			continue
		}
		res.index[key] = Entry{Root: root, Node: en.node}
	}
	for _, r := range s.rootOrder {
		if r.parent == nil && !s.dropped[r] {
			res.roots = append(res.roots, r)
		}
	}
	return res
}
