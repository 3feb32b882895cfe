package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitebaker/internal/config"
	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/journal"
)

// JournalCmd implements the 'journal' command.
type JournalCmd struct {
	RunID string `name:"run" help:"Only summarize this run ID"`
	Limit int    `help:"Maximum number of runs to list" default:"10"`
}

func (c *JournalCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	g.configureLogging(cfg.Log, root.Verbose)
	if cfg.Journal.Path == "" {
		return ferrors.ConfigError("journal.path is not configured").Build()
	}

	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	ctx := context.Background()
	runs := []string{c.RunID}
	if c.RunID == "" {
		if runs, err = j.Runs(ctx); err != nil {
			return err
		}
		if c.Limit > 0 && len(runs) > c.Limit {
			runs = runs[:c.Limit]
		}
	}
	for _, id := range runs {
		s, err := j.Summarize(ctx, id)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.Out, "%s %-9s written=%d failed_tasks=%d rejected_sources=%d rejected_destinations=%d failed_writes=%d duration=%s\n",
			s.RunID, s.Status, s.Written, s.FailedTasks, s.RejectedSources, s.RejectedDestinations, s.FailedWrites,
			s.Duration().Round(time.Millisecond))
	}
	return nil
}
