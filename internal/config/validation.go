package config

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/retry"
)

// Validate checks the configuration after defaults and path resolution.
// The first violation is returned as a classified config or validation error.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateRoots,
		c.validateTemplates,
		c.validateGlobs,
		c.validateCopies,
		c.validateRetry,
		c.validateLog,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateRoots() error {
	if c.Input == "" {
		return ferrors.ConfigError("input root is not configured").Fatal().Build()
	}
	if c.Output == "" {
		return ferrors.ConfigError("output root is not configured").Fatal().Build()
	}
	info, err := os.Stat(c.Input)
	if err != nil || !info.IsDir() {
		return ferrors.ConfigError("input root is not a directory").
			WithCause(err).WithContext("input", c.Input).Fatal().Build()
	}
	if filepath.Clean(c.Input) == filepath.Clean(c.Output) {
		return ferrors.ConfigError("input and output roots must differ").
			WithContext("input", c.Input).Fatal().Build()
	}
	return nil
}

// validateTemplates requires a layout once a template root is configured
// for html or markdown pages. Without a template root the built-in layout is used.
func (c *Config) validateTemplates() error {
	if c.Template == "" {
		return nil
	}
	if info, err := os.Stat(c.Template); err != nil || !info.IsDir() {
		return ferrors.ConfigError("template root is not a directory").
			WithCause(err).WithContext("template", c.Template).Fatal().Build()
	}
	if c.Layout == "" && (len(c.HTML) > 0 || c.Markdown.Enabled && c.Markdown.Template == "") {
		return ferrors.ConfigError("layout template is required when html or markdown pages are enabled").Fatal().Build()
	}
	return nil
}

func (c *Config) validateGlobs() error {
	groups := []struct {
		field string
		globs []string
	}{
		{"html", c.HTML},
		{"preserve", c.Preserve},
		{"templates", c.Templates},
		{"markdown.globs", c.Markdown.Globs},
		{"toc.file_glob", c.TOC.FileGlob},
	}
	for _, group := range groups {
		for _, g := range group.globs {
			pattern := g
			if len(pattern) > 0 && pattern[0] == '!' {
				pattern = pattern[1:]
			}
			if pattern == "" || !doublestar.ValidatePattern(pattern) {
				return ferrors.ValidationError("invalid glob pattern").
					WithContext("field", group.field).WithContext("pattern", g).Build()
			}
		}
	}
	return nil
}

func (c *Config) validateCopies() error {
	for i, cp := range c.Copy {
		if cp.From == "" {
			return ferrors.ValidationError("copy entry requires a source directory").
				WithContext("index", i).Build()
		}
		if filepath.IsAbs(cp.From) || filepath.IsAbs(cp.To) {
			return ferrors.ValidationError("copy directories must be relative").
				WithContext("index", i).Build()
		}
	}
	return nil
}

func (c *Config) validateRetry() error {
	if err := c.CleanRetry.Policy().Validate(); err != nil {
		return ferrors.ValidationError("invalid clean_retry").WithCause(err).Build()
	}
	if c.CleanRetry.Backoff != "" && retry.NormalizeMode(c.CleanRetry.Backoff) == "" {
		return ferrors.ValidationError("unknown clean_retry backoff").
			WithContext("backoff", c.CleanRetry.Backoff).Build()
	}
	return nil
}

func (c *Config) validateLog() error {
	if _, err := logLevels.Parse(string(c.Log.Level)); err != nil {
		return ferrors.ValidationError("invalid log.level").WithCause(err).Build()
	}
	if _, err := logFormats.Parse(string(c.Log.Format)); err != nil {
		return ferrors.ValidationError("invalid log.format").WithCause(err).Build()
	}
	return nil
}
