package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebaker/internal/extension"
	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/logfields"
	"git.home.luguber.info/inful/sitebaker/internal/metrics"
	"git.home.luguber.info/inful/sitebaker/internal/paths"
	"git.home.luguber.info/inful/sitebaker/internal/retry"
)

// Options configures an Engine.
type Options struct {
	InputRoot     string
	OutputRoot    string
	CaseSensitive bool
	ForceClean    bool
	// CleanRetry bounds the attempts at removing the output directory.
	// The zero value means retry.DefaultPolicy().
	CleanRetry  retry.Policy
	Concurrency int

	Renderer        Renderer
	DefaultTemplate string

	Logger     *slog.Logger
	Recorder   metrics.Recorder
	Events     EventSink
	Extensions *extension.Registry
}

// Engine holds the state of one generation run.
type Engine struct {
	runID       string
	input       string
	output      string
	canon       paths.Canonicalizer
	forceClean  bool
	cleanPolicy retry.Policy
	concurrency int

	renderer        Renderer
	defaultTemplate string

	logger   *slog.Logger
	recorder metrics.Recorder
	events   EventSink
	ext      *extension.Registry

	tasks           sync.Map // canonical source key -> *task
	rejectedSources atomic.Int64

	mu        sync.RWMutex
	overrides []Override

	removeAll func(string) error
	sleep     retry.Sleeper
}

// New validates opts and returns an engine ready for registrations.
func New(opts Options) (*Engine, error) {
	if opts.InputRoot == "" {
		return nil, ferrors.ConfigError("input root is not configured").Build()
	}
	input, err := filepath.Abs(opts.InputRoot)
	if err != nil {
		return nil, ferrors.ConfigError("invalid input root").WithCause(err).WithContext("input", opts.InputRoot).Build()
	}
	if info, statErr := os.Stat(input); statErr != nil || !info.IsDir() {
		return nil, ferrors.ConfigError("input root is not a directory").WithCause(statErr).WithContext("input", input).Build()
	}

	var output string
	if opts.OutputRoot != "" {
		if output, err = filepath.Abs(opts.OutputRoot); err != nil {
			return nil, ferrors.ConfigError("invalid output root").WithCause(err).WithContext("output", opts.OutputRoot).Build()
		}
	}

	policy := opts.CleanRetry
	if policy == (retry.Policy{}) {
		policy = retry.DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, ferrors.ConfigError("invalid clean retry policy").WithCause(err).Build()
	}

	e := &Engine{
		runID:           uuid.NewString(),
		input:           input,
		output:          output,
		canon:           paths.NewCanonicalizer(opts.CaseSensitive),
		forceClean:      opts.ForceClean,
		cleanPolicy:     policy,
		concurrency:     opts.Concurrency,
		renderer:        opts.Renderer,
		defaultTemplate: opts.DefaultTemplate,
		logger:          opts.Logger,
		recorder:        opts.Recorder,
		events:          opts.Events,
		ext:             opts.Extensions,
		removeAll:       os.RemoveAll,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With(logfields.RunID(e.runID))
	if e.recorder == nil {
		e.recorder = metrics.NoopRecorder{}
	}
	if e.events == nil {
		e.events = nopSink{}
	}
	if e.ext == nil {
		e.ext = extension.NewRegistry()
	}
	return e, nil
}

// RunID identifies this engine's run in logs, reports and the journal.
func (e *Engine) RunID() string { return e.runID }

// InputRoot returns the absolute input directory.
func (e *Engine) InputRoot() string { return e.input }

// OutputRoot returns the absolute output directory, or "" when unset.
func (e *Engine) OutputRoot() string { return e.output }

// Canonicalizer returns the path-key rules of this engine.
func (e *Engine) Canonicalizer() paths.Canonicalizer { return e.canon }

// Logger returns the run-scoped logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Extensions returns the registry shared by cooperating components.
func (e *Engine) Extensions() *extension.Registry { return e.ext }

// AddOverride appends fn to the model override chain.
func (e *Engine) AddOverride(fn Override) *Engine {
	e.mu.Lock()
	e.overrides = append(e.overrides, fn)
	e.mu.Unlock()
	return e
}

// ApplyOverrides folds the override chain over m in registration order.
func (e *Engine) ApplyOverrides(ctx context.Context, source, destination string, m Model) (Model, error) {
	e.mu.RLock()
	chain := slices.Clone(e.overrides)
	e.mu.RUnlock()

	for _, fn := range chain {
		next, err := fn(ctx, source, destination, m)
		if err != nil {
			return nil, err
		}
		m = next
	}
	return m, nil
}

// Sources returns the claimed source keys in lexical order.
func (e *Engine) Sources() []string {
	var keys []string
	e.tasks.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}
