package engine

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/glob"
	"git.home.luguber.info/inful/sitebaker/internal/logfields"
)

// RegisterInnerHTML claims the matched HTML files and renders each through
// the default template as an HTMLModel, keeping the file's inner markup.
// "!"-prefixed globs are excludes.
func (e *Engine) RegisterInnerHTML(globs ...string) (int, error) {
	if e.defaultTemplate == "" {
		return 0, ferrors.ConfigError("inner HTML pages need a default template").Build()
	}
	includes, excludes := glob.Split(globs)
	sources, err := e.match(includes, excludes)
	if err != nil {
		return 0, err
	}
	claimed := 0
	for _, src := range sources {
		if e.claimSource(&task{
			source: src,
			origin: "inner-html",
			run:    func(ctx context.Context) ([]artifact, error) { return e.runGenerator(ctx, src, e.innerHTML) },
		}) {
			claimed++
		}
	}
	return claimed, nil
}

func (e *Engine) innerHTML(_ context.Context, source string) ([]Output, error) {
	// #nosec G304 -- source was matched below the input root.
	raw, err := os.ReadFile(filepath.Join(e.input, filepath.FromSlash(source)))
	if err != nil {
		return nil, ferrors.FileSystemError("read HTML page").WithCause(err).WithContext(logfields.KeySource, source).Build()
	}
	model, err := parseInnerHTML(source, raw)
	if err != nil {
		return nil, err
	}
	return []Output{{Path: source, Model: model}}, nil
}

// parseInnerHTML extracts the <title> text and the <body> children of a page.
// Fragments without a body element are used whole.
func parseInnerHTML(source string, raw []byte) (HTMLModel, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return HTMLModel{}, ferrors.GenerateError("parse HTML page").WithCause(err).WithContext(logfields.KeySource, source).Build()
	}
	m := HTMLModel{Source: source, Content: template.HTML(raw)} // #nosec G203 -- author-supplied page markup

	var title, body *html.Node
	for n := range doc.Descendants() {
		switch n.DataAtom {
		case atom.Title:
			if title == nil {
				title = n
			}
		case atom.Body:
			if body == nil {
				body = n
			}
		}
	}
	if title != nil {
		m.Title = strings.TrimSpace(textContent(title))
	}
	// The parser synthesizes <body> for fragments; those are kept verbatim.
	if body != nil && bytes.Contains(bytes.ToLower(raw), []byte("<body")) {
		var buf bytes.Buffer
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return HTMLModel{}, ferrors.GenerateError("render HTML body").WithCause(err).WithContext(logfields.KeySource, source).Build()
			}
		}
		m.Content = template.HTML(strings.TrimSpace(buf.String())) // #nosec G203 -- re-serialized page markup
	}
	return m, nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			sb.WriteString(d.Data)
		}
	}
	return sb.String()
}
