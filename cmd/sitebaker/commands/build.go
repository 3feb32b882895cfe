package commands

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitebaker/internal/config"
	"git.home.luguber.info/inful/sitebaker/internal/engine"
	"git.home.luguber.info/inful/sitebaker/internal/extension"
	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/journal"
	"git.home.luguber.info/inful/sitebaker/internal/logfields"
	"git.home.luguber.info/inful/sitebaker/internal/markdown"
	"git.home.luguber.info/inful/sitebaker/internal/metrics"
	"git.home.luguber.info/inful/sitebaker/internal/render"
	"git.home.luguber.info/inful/sitebaker/internal/toc"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Override the configured output directory" type:"path"`
	ForceClean  bool   `name:"force-clean" help:"Remove the output directory before writing"`
	Concurrency int    `help:"Maximum number of concurrent tasks (0 keeps the configured value)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output = b.Output
	}
	if b.ForceClean {
		cfg.ForceClean = true
	}
	if b.Concurrency > 0 {
		cfg.Concurrency = b.Concurrency
	}
	logger := g.configureLogging(cfg.Log, root.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := RunBuild(ctx, cfg, logger)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "Wrote %d files to %s in %s (%d failed tasks, %d rejected, %d incomplete)\n",
		len(report.Written), cfg.Output, report.Duration.Round(time.Millisecond),
		report.FailedTasks, len(report.Rejected), len(report.Incomplete))
	if report.HasFailures() {
		return ferrors.GenerateError("build finished with failures").
			WithContext("run_id", report.RunID).
			WithContext("failed_tasks", report.FailedTasks).
			WithContext("incomplete", len(report.Incomplete)).
			Build()
	}
	return nil
}

// RunBuild wires the configured generators into an engine and runs it.
// Failed tasks are reported, not returned; the error is reserved for
// configuration problems and an output directory that cannot be cleaned.
func RunBuild(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Report, error) {
	reg := extension.NewRegistry()
	renderer, layout, err := newRenderer(cfg, reg, logger)
	if err != nil {
		return nil, err
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	var sink engine.EventSink
	if cfg.Journal.Path != "" {
		j, openErr := openJournal(cfg.Journal.Path)
		if openErr != nil {
			return nil, openErr
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				logger.Warn("Failed to close journal", logfields.Path(cfg.Journal.Path), logfields.Error(closeErr))
			}
		}()
		sink = j
	}

	e, err := engine.New(engine.Options{
		InputRoot:       cfg.Input,
		OutputRoot:      cfg.Output,
		CaseSensitive:   cfg.CaseSensitive,
		ForceClean:      cfg.ForceClean,
		CleanRetry:      cfg.CleanRetry.Policy(),
		Concurrency:     cfg.Concurrency,
		Renderer:        renderer,
		DefaultTemplate: layout,
		Logger:          logger,
		Recorder:        recorder,
		Events:          sink,
		Extensions:      reg,
	})
	if err != nil {
		return nil, err
	}
	if err := register(e, cfg); err != nil {
		return nil, err
	}

	report, err := e.Generate(ctx)
	if err != nil {
		return nil, err
	}
	if prom != nil {
		if err := prom.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
		}
	}
	return report, nil
}

// newRenderer returns the template renderer when a template root is
// configured and the built-in layout otherwise, with the default template name.
func newRenderer(cfg *config.Config, reg *extension.Registry, logger *slog.Logger) (engine.Renderer, string, error) {
	if cfg.Template == "" {
		return render.NewDefaultRenderer(logger), render.LayoutName, nil
	}
	r, err := render.NewTemplateRenderer(render.TemplateOptions{
		Root:     cfg.Template,
		Partials: cfg.Templates,
		Funcs: template.FuncMap{
			// navigation returns any baked tree, for pages without an entry of their own.
			"navigation": func() *toc.Element {
				el, _ := toc.FindAny(reg)
				return el
			},
		},
		Logger: logger,
	})
	if err != nil {
		return nil, "", err
	}
	return r, cfg.Layout, nil
}

// register claims sources in priority order: explicit copies first, then
// Markdown and HTML pages, then verbatim preserves. The first claim on a
// source wins.
func register(e *engine.Engine, cfg *config.Config) error {
	logger := e.Logger()
	for _, cp := range cfg.Copy {
		n, err := e.CopyDirectory(cp.From, cp.To, cp.Pattern)
		if err != nil {
			return err
		}
		logger.Info("Registered directory copy", slog.String("from", cp.From), slog.String("to", cp.To), logfields.Count(n))
	}
	if cfg.Markdown.Enabled {
		tmpl := cfg.Markdown.Template
		if cfg.Template == "" {
			tmpl = ""
		}
		if _, err := markdown.Register(e, markdown.Options{Globs: cfg.Markdown.Globs, Template: tmpl}); err != nil {
			return err
		}
	}
	if len(cfg.HTML) > 0 {
		n, err := e.RegisterInnerHTML(cfg.HTML...)
		if err != nil {
			return err
		}
		logger.Info("Registered inner HTML pages", logfields.Count(n))
	}
	if len(cfg.Preserve) > 0 {
		n, err := e.Preserve(cfg.Preserve...)
		if err != nil {
			return err
		}
		logger.Info("Registered preserved files", logfields.Count(n))
	}
	if cfg.TOC.Enabled {
		if _, err := toc.Enable(e, toc.Options{FileGlobs: cfg.TOC.FileGlob}); err != nil {
			return err
		}
	}
	return nil
}

func openJournal(path string) (*journal.SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, ferrors.FileSystemError("create journal directory").WithCause(err).WithContext("path", path).Build()
	}
	return journal.Open(path)
}
