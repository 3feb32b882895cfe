package journal

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitebaker/internal/engine"
)

const (
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
)

// RunSummary is a read model of one journaled run.
type RunSummary struct {
	RunID                string
	Status               string
	StartedAt            time.Time
	CompletedAt          time.Time
	Written              int
	FailedTasks          int
	RejectedSources      int
	RejectedDestinations int
	FailedWrites         int
}

// Summarize folds a run's events into a RunSummary.
func (j *SQLiteJournal) Summarize(ctx context.Context, runID string) (RunSummary, error) {
	events, err := j.Events(ctx, runID)
	if err != nil {
		return RunSummary{}, err
	}
	return summarize(runID, events), nil
}

func summarize(runID string, events []engine.Event) RunSummary {
	s := RunSummary{RunID: runID, Status: runStatusRunning}
	for _, ev := range events {
		switch ev.Type {
		case engine.EventRunStarted:
			s.StartedAt = ev.Time
		case engine.EventRunCompleted:
			s.Status = runStatusCompleted
			s.CompletedAt = ev.Time
		case engine.EventSourceRejected:
			s.RejectedSources++
		case engine.EventTaskFailed:
			s.FailedTasks++
		case engine.EventDestinationRejected:
			s.RejectedDestinations++
		case engine.EventWriteCompleted:
			s.Written++
		case engine.EventWriteFailed:
			s.FailedWrites++
		}
	}
	return s
}

// Duration is the wall time between start and completion, or zero while running.
func (s RunSummary) Duration() time.Duration {
	if s.Status != runStatusCompleted {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}
