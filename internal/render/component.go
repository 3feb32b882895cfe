package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/a-h/templ"

	"git.home.luguber.info/inful/sitebaker/internal/engine"
	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/logfields"
)

// ComponentFunc builds the templ component for a model.
type ComponentFunc func(m engine.Model) (templ.Component, error)

// ComponentRenderer renders models with templ components registered by name.
type ComponentRenderer struct {
	logger     *slog.Logger
	components sync.Map // name -> ComponentFunc
}

// NewComponentRenderer returns an empty renderer.
func NewComponentRenderer(logger *slog.Logger) *ComponentRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComponentRenderer{logger: logger}
}

// Register adds a component under name. The first registration wins.
func (r *ComponentRenderer) Register(name string, fn ComponentFunc) bool {
	_, loaded := r.components.LoadOrStore(name, fn)
	if loaded {
		r.logger.Warn("Component already registered", logfields.Template(name))
	}
	return !loaded
}

func (r *ComponentRenderer) Render(ctx context.Context, name string, m engine.Model) ([]byte, error) {
	out, err := r.render(ctx, name, m)
	if err != nil {
		r.logger.Error("Rendering failed for component", logfields.Template(name), logfields.Error(err))
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "render component").WithContext(logfields.KeyTemplate, name).Build()
	}
	return out, nil
}

func (r *ComponentRenderer) RenderString(ctx context.Context, name string, m engine.Model) (string, error) {
	out, err := r.Render(ctx, name, m)
	return string(out), err
}

func (r *ComponentRenderer) render(ctx context.Context, name string, m engine.Model) ([]byte, error) {
	raw, ok := r.components.Load(name)
	if !ok {
		return nil, fmt.Errorf("component %q is not registered", name)
	}
	c, err := raw.(ComponentFunc)(m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
