package markdown

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/sitebaker/internal/engine"
	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/glob"
	"git.home.luguber.info/inful/sitebaker/internal/logfields"
	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

// DefaultGlobs select the Markdown sources.
var DefaultGlobs = []string{"**/*.md"}

// Heading is a section heading with its generated anchor.
type Heading struct {
	Level int
	ID    string
	Text  string
}

// Page is the model produced for a Markdown source.
type Page struct {
	Source      string
	Title       string
	FrontMatter map[string]any
	Content     template.HTML
	Headings    []Heading
	Fingerprint string
}

func (Page) ModelKind() string { return "markdown" }

// Converter turns Markdown documents into Pages.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter returns a converter with GitHub-flavored Markdown and automatic
// heading identifiers enabled.
func NewConverter() *Converter {
	return &Converter{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)}
}

// Convert parses a whole document, front matter included.
func (c *Converter) Convert(source string, content []byte) (Page, error) {
	raw, body, _, err := SplitFrontMatter(content)
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", source, err)
	}
	fields, err := ParseFrontMatter(raw)
	if err != nil {
		return Page{}, fmt.Errorf("%s: parse front matter: %w", source, err)
	}

	doc := c.md.Parser().Parse(text.NewReader(body))
	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, body, doc); err != nil {
		return Page{}, fmt.Errorf("%s: convert markdown: %w", source, err)
	}
	fp, err := Fingerprint(fields, body)
	if err != nil {
		return Page{}, fmt.Errorf("%s: fingerprint: %w", source, err)
	}

	page := Page{
		Source:      source,
		FrontMatter: fields,
		Content:     template.HTML(buf.String()), // #nosec G203 -- goldmark output, raw HTML disabled
		Headings:    collectHeadings(doc, body),
		Fingerprint: fp,
	}
	if t, ok := fields["title"].(string); ok && t != "" {
		page.Title = t
	} else {
		for _, h := range page.Headings {
			if h.Level == 1 {
				page.Title = h.Text
				break
			}
		}
	}
	return page, nil
}

func collectHeadings(doc gmast.Node, src []byte) []Heading {
	var headings []Heading
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		h, ok := n.(*gmast.Heading)
		if !entering || !ok {
			return gmast.WalkContinue, nil
		}
		heading := Heading{Level: h.Level, Text: nodeText(h, src)}
		if id, found := h.AttributeString("id"); found {
			if b, isBytes := id.([]byte); isBytes {
				heading.ID = string(b)
			}
		}
		headings = append(headings, heading)
		return gmast.WalkSkipChildren, nil
	})
	return headings
}

func nodeText(n gmast.Node, src []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// Options configures Register.
type Options struct {
	// Globs select sources; "!"-prefixed globs exclude. Defaults to DefaultGlobs.
	Globs []string
	// Template overrides the engine's default template.
	Template string
}

// Register claims the Markdown sources for the markdown generator. Each
// source "dir/name.md" is written to "dir/name.html".
func Register(e *engine.Engine, opts Options) (int, error) {
	globs := opts.Globs
	if len(globs) == 0 {
		globs = DefaultGlobs
	}
	includes, excludes := glob.Split(globs)
	if len(includes) == 0 {
		return 0, ferrors.ValidationError("markdown globs have no include pattern").Build()
	}
	gen := Generator(e.InputRoot(), NewConverter(), opts.Template)

	total := 0
	for _, in := range includes {
		n, err := e.RegisterGenerator(in, gen, excludes...)
		if err != nil {
			return total, err
		}
		total += n
	}
	e.Logger().Info("Registered markdown sources", logfields.Count(total))
	return total, nil
}

// Generator returns the engine generator converting sources below root.
func Generator(root string, conv *Converter, tmpl string) engine.GeneratorFunc {
	return func(_ context.Context, source string) ([]engine.Output, error) {
		abs, err := paths.Within(root, source)
		if err != nil {
			return nil, err
		}
		// #nosec G304 -- abs is confined to the input root.
		content, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read markdown source: %w", err)
		}
		page, err := conv.Convert(source, content)
		if err != nil {
			return nil, err
		}
		return []engine.Output{{Path: HTMLPath(source), Template: tmpl, Model: page}}, nil
	}
}

// HTMLPath maps a Markdown source path to its output path.
func HTMLPath(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".html"
}
