package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebaker/internal/config"
	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/version"
)

// Global carries the writers and logger shared by all subcommands.
type Global struct {
	Out    io.Writer
	Err    io.Writer
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebaker.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Generate the site from the configured input root"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	TOC     TOCCmd     `cmd:"" name:"toc" help:"Bake the navigation documents and print the merged trees"`
	Journal JournalCmd `cmd:"" help:"Summarize runs recorded in the journal"`
	Ver     VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; set up logging once. Commands that load
// a configuration refine it with configureLogging.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.setLogger(newLogger(g.Err, level, config.LogFormatText))
	return nil
}

func (g *Global) setLogger(logger *slog.Logger) {
	g.Logger = logger
	slog.SetDefault(logger)
}

// configureLogging applies the configured level and format. --verbose wins
// over the configured level.
func (g *Global) configureLogging(cfg config.LogConfig, verbose bool) *slog.Logger {
	level := cfg.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	g.setLogger(newLogger(g.Err, level, cfg.Format))
	return g.Logger
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if config.NormalizeLogFormat(string(format)) == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Main parses args, runs the selected command and returns the process exit
// status derived from the command's error.
func Main(args []string, stdout, stderr io.Writer) int {
	g := &Global{Out: stdout, Err: stderr, Logger: slog.Default()}
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("sitebaker"),
		kong.Description("Bake a static site from a directory tree of pages, templates and navigation documents."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "sitebaker: %v\n", err)
		return 1
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "sitebaker: %v\n", err)
		return 2
	}

	err = ctx.Run(&cli)
	adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, g.Logger)
	if err != nil {
		adapter.Log(err)
		_, _ = fmt.Fprintln(stderr, adapter.FormatError(err))
	}
	return adapter.ExitCodeFor(err)
}
