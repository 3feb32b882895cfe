package toc

import "maps"

// Clone deep-copies the entry's tree and returns the copy of its node. Active
// flags are cleared on every copied element. It reports false when Node is not
// part of Root's tree.
func (en Entry) Clone() (Entry, bool) {
	var node *Element
	root := cloneElement(en.Root, nil, en.Node, &node)
	return Entry{Root: root, Node: node}, node != nil
}

func cloneElement(src, parent, want *Element, found **Element) *Element {
	c := &Element{
		Name:     src.Name,
		URL:      src.URL,
		FullURL:  src.FullURL,
		Metadata: maps.Clone(src.Metadata),
		parent:   parent,
		file:     src.file,
		baseDir:  src.baseDir,
	}
	if src == want {
		*found = c
	}
	if len(src.Children) > 0 {
		c.Children = make([]*Element, len(src.Children))
		for i, child := range src.Children {
			c.Children[i] = cloneElement(child, c, want, found)
		}
	}
	return c
}
