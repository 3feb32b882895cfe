package toc

import (
	"slices"

	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

// entry associates a content path with the element linking to it.
type entry struct {
	path string
	node *Element
}

type walkResult struct {
	entries  []entry
	includes []*Element
	// fileRoots are the elements at which a document's tree starts: the tree
	// root itself and every previously spliced include.
	fileRoots []*Element
}

// walk stamps provenance and parent links below root, top-down. Elements
// already stamped by an earlier walk keep their declaring document, so
// re-walking a baked tree preserves spliced subtrees.
func walk(root *Element, file string) walkResult {
	var res walkResult
	if root.file == "" {
		root.file = paths.Fixup(file)
		root.baseDir = paths.Dir(root.file)
	}
	walkElement(root, &res)
	return res
}

func walkElement(e *Element, res *walkResult) {
	if e.parent == nil || e.parent.file != e.file {
		res.fileRoots = append(res.fileRoots, e)
	}
	switch {
	case e.IsInclude():
		res.includes = append(res.includes, e)
	case e.URL != "" && !e.IsExternal():
		e.FullURL = paths.Join(e.baseDir, e.URL)
		res.entries = append(res.entries, entry{path: e.FullURL, node: e})
	}
	e.Children = slices.DeleteFunc(e.Children, func(c *Element) bool { return c == nil })
	for _, c := range e.Children {
		if c.file == "" {
			c.file = e.file
			c.baseDir = e.baseDir
		}
		c.parent = e
		walkElement(c, res)
	}
}
