package toc

import "strings"

const includePrefix = "::"

// Element is one node of a navigation tree.
type Element struct {
	Name     string            `json:"name" yaml:"name"`
	URL      string            `json:"url,omitempty" yaml:"url,omitempty"`
	Children []*Element        `json:"children,omitempty" yaml:"children,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// FullURL is URL resolved against the declaring document's directory.
	FullURL string `json:"-" yaml:"-"`
	// Active marks the element of the page being rendered. Only set on clones.
	Active bool `json:"-" yaml:"-"`

	parent  *Element
	file    string
	baseDir string
}

// Parent returns the containing element, nil for a tree root.
func (e *Element) Parent() *Element { return e.parent }

// File returns the navigation document that declared the element.
func (e *Element) File() string { return e.file }

// IsInclude reports whether the element splices in another document.
func (e *Element) IsInclude() bool { return strings.HasPrefix(e.URL, includePrefix) }

// IsExternal reports whether the URL points outside the site.
func (e *Element) IsExternal() bool { return strings.Contains(e.URL, "://") }

// Href returns the value for an HTML href attribute, or "" when the element
// links nowhere.
func (e *Element) Href() string {
	switch {
	case e.IsExternal():
		return e.URL
	case e.FullURL == "":
		return ""
	default:
		return "/" + e.FullURL
	}
}

// IsChildActive reports whether a direct child is active.
func (e *Element) IsChildActive() bool {
	for _, c := range e.Children {
		if c.Active {
			return true
		}
	}
	return false
}

// IsAnyChildActive reports whether any descendant is active.
func (e *Element) IsAnyChildActive() bool {
	for _, c := range e.Children {
		if c.Active || c.IsAnyChildActive() {
			return true
		}
	}
	return false
}

// OnActivePath reports whether the element is active or an ancestor of the
// active element.
func (e *Element) OnActivePath() bool { return e.Active || e.IsAnyChildActive() }

// Ancestors returns the chain of parents, root first.
func (e *Element) Ancestors() []*Element {
	var chain []*Element
	for p := e.parent; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
