package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/glob"
	"git.home.luguber.info/inful/sitebaker/internal/logfields"
	"git.home.luguber.info/inful/sitebaker/internal/metrics"
	"git.home.luguber.info/inful/sitebaker/internal/paths"
)

// artifact is one rendered destination, still relative to the output root.
type artifact struct {
	destination string
	data        []byte
}

// task is the deferred work registered for one source key.
type task struct {
	source string
	origin string
	run    func(ctx context.Context) ([]artifact, error)
}

// RegisterGenerator claims every file under the input root that matches
// pattern and none of excludes, attaching gen as its generator. Files already
// claimed by an earlier registration are logged and skipped. It returns the
// number of files claimed by this call.
func (e *Engine) RegisterGenerator(pattern string, gen GeneratorFunc, excludes ...string) (int, error) {
	if gen == nil {
		return 0, ferrors.ValidationError("generator function is nil").WithContext("glob", pattern).Build()
	}
	sources, err := e.match([]string{pattern}, excludes)
	if err != nil {
		return 0, err
	}
	origin := "generator " + pattern
	claimed := 0
	for _, src := range sources {
		if e.claimSource(&task{
			source: src,
			origin: origin,
			run:    func(ctx context.Context) ([]artifact, error) { return e.runGenerator(ctx, src, gen) },
		}) {
			claimed++
		}
	}
	e.logger.Debug("Registered generator", slog.String("glob", pattern), logfields.Count(claimed))
	return claimed, nil
}

// Preserve claims the matched files and copies them verbatim to the same
// relative destination. "!"-prefixed globs are excludes.
func (e *Engine) Preserve(globs ...string) (int, error) {
	includes, excludes := glob.Split(globs)
	sources, err := e.match(includes, excludes)
	if err != nil {
		return 0, err
	}
	claimed := 0
	for _, src := range sources {
		if e.claimSource(e.copyTask(src, src, "preserve")) {
			claimed++
		}
	}
	return claimed, nil
}

// CopyDirectory preserves every file below srcDir whose name matches pattern
// (default "*"), remapping it under dstDir. Both directories are relative to
// the input and output roots respectively.
func (e *Engine) CopyDirectory(srcDir, dstDir, pattern string) (int, error) {
	if pattern == "" {
		pattern = "*"
	}
	srcDir = paths.Fixup(srcDir)
	root, err := paths.Within(e.input, srcDir)
	if err != nil {
		return 0, ferrors.ValidationError("copy source escapes input root").WithCause(err).WithContext("from", srcDir).Build()
	}
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		return 0, ferrors.ValidationError("copy source is not a directory").WithCause(statErr).WithContext("from", srcDir).Build()
	}
	files, err := glob.Resolve(root, e.canon.CaseSensitive(), []string{"**/" + pattern}, nil)
	if err != nil {
		return 0, ferrors.ValidationError("invalid copy pattern").WithCause(err).WithContext("pattern", pattern).Build()
	}
	claimed := 0
	for _, abs := range files {
		rel, relErr := paths.Rel(root, abs)
		if relErr != nil {
			return claimed, ferrors.InternalError("resolve copied file").WithCause(relErr).Build()
		}
		src := paths.Join(srcDir, rel)
		if e.claimSource(e.copyTask(src, paths.Join(dstDir, rel), "copy "+srcDir)) {
			claimed++
		}
	}
	return claimed, nil
}

func (e *Engine) match(includes, excludes []string) ([]string, error) {
	files, err := glob.Resolve(e.input, e.canon.CaseSensitive(), includes, excludes)
	if err != nil {
		return nil, ferrors.ValidationError("cannot resolve globs").
			WithCause(err).
			WithContext("includes", includes).
			WithContext("excludes", excludes).
			Build()
	}
	rels := make([]string, 0, len(files))
	for _, abs := range files {
		rel, relErr := paths.Rel(e.input, abs)
		if relErr != nil {
			return nil, ferrors.InternalError("resolve matched file").WithCause(relErr).Build()
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// claimSource inserts t unless its source key is already owned.
func (e *Engine) claimSource(t *task) bool {
	key := e.canon.Key(t.source)
	existing, loaded := e.tasks.LoadOrStore(key, t)
	if !loaded {
		e.recorder.IncSourceClaim(metrics.ResultSuccess)
		return true
	}
	prev := existing.(*task)
	e.rejectedSources.Add(1)
	e.recorder.IncSourceClaim(metrics.ResultRejected)
	e.logger.Warn("Source already claimed; ignoring registration",
		logfields.Source(t.source),
		slog.String("claimed_by", prev.origin),
		slog.String("rejected", t.origin))
	e.record(context.Background(), Event{
		Type:    EventSourceRejected,
		Source:  t.source,
		Message: fmt.Sprintf("claimed by %s, rejected %s", prev.origin, t.origin),
	})
	return false
}

func (e *Engine) runGenerator(ctx context.Context, source string, gen GeneratorFunc) ([]artifact, error) {
	outputs, err := gen(ctx, source)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGenerate, "generator failed").
			WithContext(logfields.KeySource, source).
			Build()
	}
	artifacts := make([]artifact, 0, len(outputs))
	for _, out := range outputs {
		dst := paths.Fixup(out.Path)
		m, err := e.ApplyOverrides(ctx, source, dst, out.Model)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryGenerate, "model override failed").
				WithContext(logfields.KeySource, source).
				WithContext(logfields.KeyDestination, dst).
				Build()
		}
		data, err := e.render(ctx, out.Template, m)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact{destination: dst, data: data})
	}
	return artifacts, nil
}

func (e *Engine) render(ctx context.Context, tmpl string, m Model) ([]byte, error) {
	if tmpl == "" {
		tmpl = e.defaultTemplate
	}
	if e.renderer == nil || tmpl == "" {
		return nil, ferrors.ConfigError("no renderer or template configured").WithContext(logfields.KeyTemplate, tmpl).Build()
	}
	data, err := e.renderer.Render(ctx, tmpl, m)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRender, "render failed").
			WithContext(logfields.KeyTemplate, tmpl).
			Build()
	}
	return data, nil
}

func (e *Engine) copyTask(source, destination, origin string) *task {
	return &task{
		source: source,
		origin: origin,
		run: func(context.Context) ([]artifact, error) {
			abs := filepath.Join(e.input, filepath.FromSlash(source))
			// #nosec G304 -- source was matched below the input root.
			data, err := os.ReadFile(abs)
			if err != nil {
				return nil, ferrors.FileSystemError("read preserved file").WithCause(err).WithContext(logfields.KeySource, source).Build()
			}
			return []artifact{{destination: paths.Fixup(destination), data: data}}, nil
		},
	}
}
