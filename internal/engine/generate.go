package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/logfields"
	"git.home.luguber.info/inful/sitebaker/internal/metrics"
	"git.home.luguber.info/inful/sitebaker/internal/paths"
	"git.home.luguber.info/inful/sitebaker/internal/retry"
)

// Report summarizes a generation run.
type Report struct {
	RunID           string
	Tasks           int
	FailedTasks     int
	RejectedSources int
	Written         []string
	// Rejected lists destinations that lost their claim or escaped the output root.
	Rejected []Rejection
	// Incomplete lists destinations that were claimed but never written.
	Incomplete []string
	Duration   time.Duration
}

// HasFailures reports whether any task failed or any claim was left incomplete.
func (r *Report) HasFailures() bool {
	return r.FailedTasks > 0 || len(r.Incomplete) > 0
}

// Generate runs every registered task and writes the unique winners below the
// output root. Task, render and write failures are logged and reported; only
// configuration errors and an output directory that cannot be cleaned fail the
// call.
func (e *Engine) Generate(ctx context.Context) (*Report, error) {
	start := time.Now()
	if e.output == "" {
		return nil, ferrors.ConfigError("output root is not configured").Build()
	}

	if e.forceClean {
		if err := e.clean(); err != nil {
			return nil, err
		}
	} else {
		e.warnIfNotEmpty()
	}
	if err := os.MkdirAll(e.output, 0o750); err != nil {
		return nil, ferrors.FileSystemError("create output root").Fatal().WithCause(err).WithContext("output", e.output).Build()
	}

	sources := e.Sources()
	e.logger.Info("Generating site", logfields.Count(len(sources)), slog.String("output", e.output))
	e.record(ctx, Event{Type: EventRunStarted, Message: fmt.Sprintf("%d tasks", len(sources))})

	run := &runState{claims: NewClaimTable(e.canon)}
	var g errgroup.Group
	g.SetLimit(e.workers())
	for _, key := range sources {
		raw, _ := e.tasks.Load(key)
		t := raw.(*task)
		g.Go(func() error {
			e.runTask(ctx, t, run)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		RunID:           e.runID,
		Tasks:           len(sources),
		FailedTasks:     int(run.failed.Load()),
		RejectedSources: int(e.rejectedSources.Load()),
		Rejected:        append(run.claims.Rejections(), run.escaped...),
	}
	for _, c := range run.claims.Claims() {
		if c.Completed() {
			report.Written = append(report.Written, c.Destination)
		} else {
			report.Incomplete = append(report.Incomplete, c.Destination)
		}
	}
	report.Duration = time.Since(start)
	e.recorder.ObserveGenerateDuration(report.Duration)

	e.logger.Info("Generation complete",
		logfields.Count(len(report.Written)),
		slog.Int("failed_tasks", report.FailedTasks),
		slog.Int("rejected", len(report.Rejected)),
		slog.Int("incomplete", len(report.Incomplete)),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	e.record(ctx, Event{
		Type:    EventRunCompleted,
		Message: fmt.Sprintf("written=%d failed=%d incomplete=%d", len(report.Written), report.FailedTasks, len(report.Incomplete)),
	})
	return report, nil
}

func (e *Engine) workers() int {
	if e.concurrency > 0 {
		return e.concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// runState is the per-run bookkeeping shared by concurrent tasks.
type runState struct {
	claims *ClaimTable
	failed atomic.Int64

	mu      sync.Mutex
	escaped []Rejection
}

func (e *Engine) runTask(ctx context.Context, t *task, run *runState) {
	start := time.Now()
	artifacts, err := e.runSafely(ctx, t)
	if err != nil {
		run.failed.Add(1)
		e.recorder.ObserveTaskDuration(time.Since(start), metrics.ResultFailed)
		e.logger.Error("Task failed; skipping its outputs",
			logfields.Source(t.source),
			slog.String("origin", t.origin),
			slog.String("category", string(ferrors.GetCategory(err))),
			logfields.Error(err))
		e.record(ctx, Event{Type: EventTaskFailed, Source: t.source, Message: err.Error()})
		return
	}
	e.recorder.ObserveTaskDuration(time.Since(start), metrics.ResultSuccess)

	for _, a := range artifacts {
		e.write(ctx, t.source, a, run)
	}
}

// runSafely runs the task, turning a panic in a generator, override or
// renderer into a task failure.
func (e *Engine) runSafely(ctx context.Context, t *task) (artifacts []artifact, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			artifacts = nil
			err = ferrors.GenerateError("task panicked").
				WithContext("source", t.source).
				WithContext("panic", fmt.Sprint(rec)).
				Build()
		}
	}()
	return t.run(ctx)
}

func (e *Engine) write(ctx context.Context, source string, a artifact, run *runState) {
	target, err := paths.Within(e.output, a.destination)
	if err != nil || a.destination == "" {
		e.logger.Warn("Refusing destination outside the output root", logfields.Source(source), logfields.Destination(a.destination))
		e.recorder.IncDestinationClaim(metrics.ResultRejected)
		run.mu.Lock()
		run.escaped = append(run.escaped, Rejection{Destination: a.destination, Source: source})
		run.mu.Unlock()
		e.record(ctx, Event{Type: EventDestinationRejected, Source: source, Destination: a.destination, Message: "escapes output root"})
		return
	}

	claim, won := run.claims.Claim(a.destination, source)
	if !won {
		e.recorder.IncDestinationClaim(metrics.ResultRejected)
		attrs := []any{
			logfields.Destination(a.destination),
			logfields.Source(source),
			slog.String("claimed_destination", claim.Destination),
			slog.String("claimed_by", claim.Source),
		}
		if !e.canon.CaseSensitive() && paths.DiffersOnlyByCase(claim.Destination, a.destination) {
			attrs = append(attrs, slog.String("hint", "destinations differ only by case and case-sensitive paths are disabled"))
		}
		e.logger.Warn("Destination already claimed; skipping output", attrs...)
		e.record(ctx, Event{Type: EventDestinationRejected, Source: source, Destination: a.destination, Message: "claimed by " + claim.Source})
		return
	}
	e.recorder.IncDestinationClaim(metrics.ResultSuccess)

	if err := writeFile(target, a.data); err != nil {
		e.recorder.IncWrite(metrics.ResultFailed)
		e.logger.Error("Failed to write output; claim left incomplete",
			logfields.Destination(a.destination), logfields.Source(source), logfields.Error(err))
		e.record(ctx, Event{Type: EventWriteFailed, Source: source, Destination: a.destination, Message: err.Error()})
		return
	}
	run.claims.Complete(claim)
	e.recorder.IncWrite(metrics.ResultSuccess)
	e.logger.Debug("Wrote output", logfields.Destination(a.destination), logfields.Source(source))
	e.record(ctx, Event{Type: EventWriteCompleted, Source: source, Destination: a.destination})
}

func writeFile(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil { //nolint:gosec // public site output, non-sensitive
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

// clean removes the output directory, retrying because deletion can fail
// transiently while the platform still holds handles to removed files.
func (e *Engine) clean() error {
	err := retry.Do(e.cleanPolicy, e.sleep, func(int) error {
		return e.removeAll(e.output)
	}, func(attempt int, err error) {
		e.recorder.IncCleanRetry()
		e.logger.Warn("Failed to clean output directory",
			logfields.Path(e.output), logfields.Attempt(attempt), logfields.Error(err))
	})
	if err != nil {
		return ferrors.FileSystemError("cannot clean output directory").
			Fatal().
			WithCause(err).
			WithContext("output", e.output).
			WithContext("attempts", e.cleanPolicy.Attempts()).
			Build()
	}
	return nil
}

func (e *Engine) warnIfNotEmpty() {
	entries, err := os.ReadDir(e.output)
	if err != nil || len(entries) == 0 {
		return
	}
	e.logger.Warn("Output directory is not empty and force clean is disabled; stale files may remain",
		logfields.Path(e.output), logfields.Count(len(entries)))
}
