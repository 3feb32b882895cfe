package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/sitebaker/internal/engine"
	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/glob"
	"git.home.luguber.info/inful/sitebaker/internal/logfields"
	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

// TemplateOptions configures a TemplateRenderer.
type TemplateOptions struct {
	// Root is the directory template names are relative to.
	Root string
	// Partials are globs (relative to Root) of files parsed into every
	// template, e.g. "partials/*.html".
	Partials []string
	Funcs    template.FuncMap
	Logger   *slog.Logger
}

// TemplateRenderer renders models with html/template files. Parsed templates
// are cached per name.
type TemplateRenderer struct {
	root     string
	partials []string
	funcs    template.FuncMap
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewTemplateRenderer validates the template root and resolves the partials.
func NewTemplateRenderer(opts TemplateOptions) (*TemplateRenderer, error) {
	if opts.Root == "" {
		return nil, ferrors.ConfigError("template root is not configured").Build()
	}
	if info, err := os.Stat(opts.Root); err != nil || !info.IsDir() {
		return nil, ferrors.ConfigError("template root is not a directory").WithCause(err).WithContext("template_root", opts.Root).Build()
	}
	var partials []string
	if len(opts.Partials) > 0 {
		includes, excludes := glob.Split(opts.Partials)
		files, err := glob.Resolve(opts.Root, true, includes, excludes)
		if err != nil {
			return nil, ferrors.ConfigError("invalid partial templates").WithCause(err).Build()
		}
		partials = files
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateRenderer{
		root:     opts.Root,
		partials: partials,
		funcs:    opts.Funcs,
		logger:   logger,
		cache:    make(map[string]*template.Template),
	}, nil
}

// Render executes the named template with m.
func (r *TemplateRenderer) Render(_ context.Context, name string, m engine.Model) ([]byte, error) {
	tmpl, err := r.lookup(name)
	if err == nil {
		var buf bytes.Buffer
		if err = tmpl.Execute(&buf, m); err == nil {
			return buf.Bytes(), nil
		}
	}
	r.logger.Error("Rendering failed for template", logfields.Template(name), slog.String("model", fmt.Sprintf("%T", m)), logfields.Error(err))
	return nil, ferrors.WrapError(err, ferrors.CategoryRender, "render template").WithContext(logfields.KeyTemplate, name).Build()
}

// RenderString is Render returning text.
func (r *TemplateRenderer) RenderString(ctx context.Context, name string, m engine.Model) (string, error) {
	out, err := r.Render(ctx, name, m)
	return string(out), err
}

func (r *TemplateRenderer) lookup(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[name]; ok {
		return t, nil
	}

	file, err := paths.Within(r.root, name)
	if err != nil {
		return nil, err
	}
	t := template.New(filepath.Base(file)).Option("missingkey=error")
	if r.funcs != nil {
		t = t.Funcs(r.funcs)
	}
	if t, err = t.ParseFiles(append([]string{file}, r.partials...)...); err != nil {
		return nil, err
	}
	r.cache[name] = t
	return t, nil
}
