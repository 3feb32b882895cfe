package engine

import (
	"context"
	"html/template"
)

// Model is the value handed to the renderer for one output page.
// Concrete models are defined by the generators that produce them.
type Model interface {
	ModelKind() string
}

// Output is one destination produced by a generator.
type Output struct {
	// Path is the destination relative to the output root.
	Path string
	// Template names the template file; empty uses the engine's default template.
	Template string
	Model    Model
}

// GeneratorFunc produces the outputs for one source path, given relative to
// the input root with its original casing.
type GeneratorFunc func(ctx context.Context, source string) ([]Output, error)

// Override intercepts a model before rendering and returns the model to use.
type Override func(ctx context.Context, source, destination string, m Model) (Model, error)

// Renderer turns a model into bytes using the named template.
type Renderer interface {
	Render(ctx context.Context, template string, m Model) ([]byte, error)
}

// HTMLModel wraps a hand-written HTML page so a layout template can apply the
// site theme around its inner markup.
type HTMLModel struct {
	Source  string
	Title   string
	Content template.HTML
}

func (HTMLModel) ModelKind() string { return "html" }
