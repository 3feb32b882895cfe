package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/retry"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadResolvesPathsAndDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "site", "templates"), 0o750))
	t.Setenv("SITEBAKER_OUT", "dist")

	path := writeConfig(t, dir, `
input: site
output: ${SITEBAKER_OUT}
template: templates
layout: page.html
markdown:
  enabled: true
copy:
  - from: assets
journal:
  path: run.db
log:
  level: WARNING
  format: JSON
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, filepath.Join(dir, "site"), cfg.Input)
	assert.Equal(t, filepath.Join(dir, "dist"), cfg.Output)
	assert.Equal(t, filepath.Join(dir, "site", "templates"), cfg.Template)
	assert.Equal(t, filepath.Join(dir, "run.db"), cfg.Journal.Path)
	assert.Empty(t, cfg.Metrics.Textfile)
	assert.Equal(t, []string{"**/*.md"}, cfg.Markdown.Globs)
	assert.Equal(t, "page.html", cfg.Markdown.Template)
	assert.Equal(t, []CopyConfig{{From: "assets", To: "assets", Pattern: "*"}}, cfg.Copy)
	assert.Equal(t, defaultCleanAttempts, cfg.CleanRetry.Attempts)
	assert.Equal(t, defaultCleanDelay, cfg.CleanRetry.Delay)
	assert.Positive(t, cfg.Concurrency)
	assert.Equal(t, LogLevelWarn, cfg.Log.Level)
	assert.Equal(t, LogFormatJSON, cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "input: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "in"), 0o750))
	require.NoError(t, os.WriteFile(".env", []byte("SB_INPUT=in\nSB_OUTPUT=from-env-file\n"), 0o600))
	t.Setenv("SB_OUTPUT", "from-process")

	path := writeConfig(t, dir, "input: ${SB_INPUT}\noutput: ${SB_OUTPUT}\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "in"), cfg.Input)
	assert.Equal(t, filepath.Join(dir, "from-process"), cfg.Output)
	require.NoError(t, os.Unsetenv("SB_INPUT"))
}

func TestValidate(t *testing.T) {
	input := t.TempDir()
	output := filepath.Join(t.TempDir(), "out")

	tests := []struct {
		name     string
		mutate   func(c *Config)
		category ferrors.ErrorCategory
	}{
		{"valid", func(*Config) {}, ""},
		{"missing output", func(c *Config) { c.Output = "" }, ferrors.CategoryConfig},
		{"input not a directory", func(c *Config) { c.Input = filepath.Join(input, "nope") }, ferrors.CategoryConfig},
		{"same roots", func(c *Config) { c.Output = input }, ferrors.CategoryConfig},
		{"html with built-in layout", func(c *Config) { c.HTML = []string{"**/*.html"} }, ""},
		{"missing template root", func(c *Config) { c.Template = filepath.Join(input, "templates") }, ferrors.CategoryConfig},
		{"html without layout", func(c *Config) {
			c.HTML = []string{"**/*.html"}
			c.Template = input
		}, ferrors.CategoryConfig},
		{"bad glob", func(c *Config) { c.Preserve = []string{"!"} }, ferrors.CategoryValidation},
		{"unbalanced glob", func(c *Config) { c.Preserve = []string{"[a-"} }, ferrors.CategoryValidation},
		{"copy without source", func(c *Config) { c.Copy = []CopyConfig{{To: "x"}} }, ferrors.CategoryValidation},
		{"absolute copy", func(c *Config) { c.Copy = []CopyConfig{{From: "/etc"}} }, ferrors.CategoryValidation},
		{"unknown backoff", func(c *Config) { c.CleanRetry.Backoff = "random" }, ferrors.CategoryValidation},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, ferrors.CategoryValidation},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, ferrors.CategoryValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte("{}"))
			require.NoError(t, err)
			cfg.Input = input
			cfg.Output = output
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.category == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.category, ferrors.GetCategory(err))
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	p := RetryConfig{Attempts: 3, Delay: 50 * time.Millisecond}.Policy()
	assert.Equal(t, retry.ModeFixed, p.Mode)
	assert.Equal(t, 3, p.Attempts())
	assert.Equal(t, 50*time.Millisecond, p.Delay(2))

	exp := RetryConfig{Attempts: 4, Delay: 10 * time.Millisecond, Backoff: "Exponential", MaxDelay: 25 * time.Millisecond}.Policy()
	assert.Equal(t, retry.ModeExponential, exp.Mode)
	assert.Equal(t, 20*time.Millisecond, exp.Delay(2))
	assert.Equal(t, 25*time.Millisecond, exp.Delay(3))
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)

	require.NoError(t, Init(path, false))
	err := Init(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	require.NoError(t, Init(path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.True(t, cfg.Markdown.Enabled)
	assert.True(t, cfg.TOC.Enabled)
	assert.Equal(t, "page.html", cfg.Layout)
	assert.Equal(t, time.Second, cfg.CleanRetry.Delay)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("verbose"))
	assert.Equal(t, LogLevelDebug, NormalizeLogLevel(" DEBUG "))
	assert.Equal(t, LogFormatText, NormalizeLogFormat(""))
	assert.Equal(t, "ERROR", LogLevel("error").SlogLevel().String())
}
