package render

import (
	"fmt"
	"html/template"
	"log/slog"

	"github.com/a-h/templ"

	"git.home.luguber.info/inful/sitebaker/internal/engine"
	"git.home.luguber.info/inful/sitebaker/internal/markdown"
	"git.home.luguber.info/inful/sitebaker/internal/toc"
)

// LayoutName is the component name the built-in layout is registered under.
const LayoutName = "page"

// NewDefaultRenderer returns a ComponentRenderer with the built-in layout.
func NewDefaultRenderer(logger *slog.Logger) *ComponentRenderer {
	r := NewComponentRenderer(logger)
	r.Register(LayoutName, Layout)
	return r
}

type pageParts struct {
	title   string
	content template.HTML
	nav     *toc.Model
}

// Layout is the built-in page layout. It accepts inner HTML pages, Markdown
// pages and either wrapped in a navigation model. The markup lives in
// layout.templ.
func Layout(m engine.Model) (templ.Component, error) {
	parts, err := partsOf(m)
	if err != nil {
		return nil, err
	}
	return page(parts), nil
}

func partsOf(m engine.Model) (pageParts, error) {
	switch v := m.(type) {
	case engine.HTMLModel:
		return pageParts{title: v.Title, content: v.Content}, nil
	case markdown.Page:
		return pageParts{title: v.Title, content: v.Content}, nil
	case toc.Model:
		parts, err := partsOf(v.Base)
		if err != nil {
			return parts, err
		}
		parts.nav = &v
		if parts.title == "" && v.Node != nil {
			parts.title = v.Node.Name
		}
		return parts, nil
	default:
		return pageParts{}, fmt.Errorf("layout cannot render model kind %q", m.ModelKind())
	}
}

// navAttrs marks the active element and the elements on the path to it.
func navAttrs(el *toc.Element) templ.Attributes {
	switch {
	case el.Active:
		return templ.Attributes{"class": "active"}
	case el.IsAnyChildActive():
		return templ.Attributes{"class": "open"}
	default:
		return templ.Attributes{}
	}
}
