package engine

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebaker/internal/logfields"
)

// EventType names a journaled run event.
type EventType string

const (
	EventRunStarted          EventType = "run.started"
	EventRunCompleted        EventType = "run.completed"
	EventSourceRejected      EventType = "source.rejected"
	EventTaskFailed          EventType = "task.failed"
	EventDestinationRejected EventType = "destination.rejected"
	EventWriteCompleted      EventType = "write.completed"
	EventWriteFailed         EventType = "write.failed"
)

// Event is one entry of a run journal.
type Event struct {
	RunID       string
	Type        EventType
	Source      string
	Destination string
	Message     string
	Time        time.Time
}

// EventSink receives run events. Implementations must be safe for concurrent use.
type EventSink interface {
	Record(ctx context.Context, ev Event) error
}

type nopSink struct{}

func (nopSink) Record(context.Context, Event) error { return nil }

func (e *Engine) record(ctx context.Context, ev Event) {
	ev.RunID = e.runID
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	if err := e.events.Record(ctx, ev); err != nil {
		e.logger.Debug("Failed to journal event", slog.String("event", string(ev.Type)), logfields.Error(err))
	}
}
