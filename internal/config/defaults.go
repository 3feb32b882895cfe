package config

import "runtime"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type outputDefaultApplier struct{}

func (outputDefaultApplier) Domain() string { return "output" }

func (outputDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Input == "" {
		cfg.Input = "."
	}
	if cfg.Output == "" {
		cfg.Output = "./public"
	}
	if cfg.CleanRetry.Attempts <= 0 {
		cfg.CleanRetry.Attempts = defaultCleanAttempts
	}
	if cfg.CleanRetry.Delay <= 0 {
		cfg.CleanRetry.Delay = defaultCleanDelay
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
}

type contentDefaultApplier struct{}

func (contentDefaultApplier) Domain() string { return "content" }

func (contentDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Markdown.Enabled && len(cfg.Markdown.Globs) == 0 {
		cfg.Markdown.Globs = []string{"**/*.md"}
	}
	if cfg.Markdown.Template == "" {
		cfg.Markdown.Template = cfg.Layout
	}
	for i := range cfg.Copy {
		if cfg.Copy[i].Pattern == "" {
			cfg.Copy[i].Pattern = "*"
		}
		if cfg.Copy[i].To == "" {
			cfg.Copy[i].To = cfg.Copy[i].From
		}
	}
}

type logDefaultApplier struct{}

func (logDefaultApplier) Domain() string { return "log" }

// ApplyDefaults canonicalizes known values and leaves unknown ones for Validate.
func (logDefaultApplier) ApplyDefaults(cfg *Config) {
	if lvl, err := logLevels.Parse(string(cfg.Log.Level)); err == nil {
		cfg.Log.Level = lvl
	} else if cfg.Log.Level == "" {
		cfg.Log.Level = LogLevelInfo
	}
	if format, err := logFormats.Parse(string(cfg.Log.Format)); err == nil {
		cfg.Log.Format = format
	} else if cfg.Log.Format == "" {
		cfg.Log.Format = LogFormatText
	}
}

var defaultAppliers = []DefaultApplier{
	outputDefaultApplier{},
	contentDefaultApplier{},
	logDefaultApplier{},
}

func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}
