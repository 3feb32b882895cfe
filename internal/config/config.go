package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
)

// DefaultFile is the configuration file name used when none is given.
const DefaultFile = "sitebaker.yaml"

// Config represents the site configuration.
type Config struct {
	Input         string         `yaml:"input"`
	Output        string         `yaml:"output"`
	CaseSensitive bool           `yaml:"case_sensitive"`
	ForceClean    bool           `yaml:"force_clean"`
	CleanRetry    RetryConfig    `yaml:"clean_retry"`
	Concurrency   int            `yaml:"concurrency,omitempty"`
	Template      string         `yaml:"template,omitempty"`  // template root, relative to input
	Templates     []string       `yaml:"templates,omitempty"` // partial globs, relative to the template root
	Layout        string         `yaml:"layout,omitempty"`    // default template name
	Markdown      MarkdownConfig `yaml:"markdown"`
	HTML          []string       `yaml:"html,omitempty"`
	Preserve      []string       `yaml:"preserve,omitempty"`
	Copy          []CopyConfig   `yaml:"copy,omitempty"`
	TOC           TOCConfig      `yaml:"toc"`
	Metrics       MetricsConfig  `yaml:"metrics"`
	Journal       JournalConfig  `yaml:"journal"`
	Log           LogConfig      `yaml:"log"`

	// dir is the directory of the loaded file; relative paths resolve against it.
	dir string
}

// MarkdownConfig enables the Markdown generator.
type MarkdownConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Globs    []string `yaml:"globs,omitempty"`
	Template string   `yaml:"template,omitempty"`
}

// CopyConfig maps a directory under the input root to one under the output root.
type CopyConfig struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Pattern string `yaml:"pattern,omitempty"`
}

// TOCConfig enables navigation baking.
type TOCConfig struct {
	Enabled  bool     `yaml:"enabled"`
	FileGlob []string `yaml:"file_glob,omitempty"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// JournalConfig controls the SQLite run journal.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Dir returns the directory the configuration was loaded from.
func (c *Config) Dir() string { return c.dir }

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", configPath).Fatal().Build()
		}
		return nil, ferrors.FileSystemError("failed to read config file").
			WithCause(err).WithContext("path", configPath).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	dir, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to resolve config directory").Build()
	}
	cfg.dir = dir
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands environment variables in data, decodes it and applies
// defaults. Paths are left as written.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func (c *Config) resolvePaths() {
	c.Input = c.abs(c.dir, c.Input)
	c.Output = c.abs(c.dir, c.Output)
	c.Template = c.abs(c.Input, c.Template)
	c.Metrics.Textfile = c.abs(c.dir, c.Metrics.Textfile)
	c.Journal.Path = c.abs(c.dir, c.Journal.Path)
}

func (c *Config) abs(base, p string) string {
	if p == "" || filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	example := Config{
		Input:      "./site",
		Output:     "./public",
		ForceClean: true,
		CleanRetry: RetryConfig{Attempts: defaultCleanAttempts, Delay: defaultCleanDelay},
		Template:   "templates",
		Templates:  []string{"partials/*.html"},
		Layout:     "page.html",
		Markdown:   MarkdownConfig{Enabled: true, Globs: []string{"**/*.md"}},
		HTML:       []string{"**/*.html", "!templates/**"},
		Preserve:   []string{"**/*.css", "**/*.png", "**/*.svg"},
		Copy:       []CopyConfig{{From: "assets", To: "static", Pattern: "*"}},
		TOC:        TOCConfig{Enabled: true},
		Log:        LogConfig{Level: LogLevelInfo, Format: LogFormatText},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal config").Build()
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.FileSystemError("failed to write config file").
			WithCause(err).WithContext("path", configPath).Build()
	}
	return nil
}
