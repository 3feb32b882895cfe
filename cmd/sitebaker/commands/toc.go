package commands

import (
	"git.home.luguber.info/inful/sitebaker/internal/config"
	"git.home.luguber.info/inful/sitebaker/internal/engine"
	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/toc"
)

// TOCCmd implements the 'toc' command. It bakes the navigation documents
// below the input root without generating anything.
type TOCCmd struct {
	FileGlob []string `name:"file-glob" help:"Navigation document globs; overrides toc.file_glob"`
}

func (c *TOCCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	logger := g.configureLogging(cfg.Log, root.Verbose)

	e, err := engine.New(engine.Options{
		InputRoot:     cfg.Input,
		CaseSensitive: cfg.CaseSensitive,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	globs := cfg.TOC.FileGlob
	if len(c.FileGlob) > 0 {
		globs = c.FileGlob
	}
	nav, err := toc.Enable(e, toc.Options{FileGlobs: globs})
	if err != nil {
		return err
	}
	if err := nav.Dump(g.Out); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "write navigation outline").Build()
	}
	return nil
}
