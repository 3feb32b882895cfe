package journal

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitebaker/internal/engine"
	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
)

// SQLiteJournal implements engine.EventSink using SQLite.
type SQLiteJournal struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ engine.EventSink = (*SQLiteJournal)(nil)

// Open creates or opens a journal database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func Open(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.FileSystemError("could not open journal database").
			WithCause(err).WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	j := &SQLiteJournal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to initialize journal schema").Build()
	}
	return j, nil
}

func (j *SQLiteJournal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		destination TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_run_id ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_event_type ON events(event_type);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record appends ev to the journal.
func (j *SQLiteJournal) Record(ctx context.Context, ev engine.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO events (run_id, event_type, timestamp, source, destination, message) VALUES (?, ?, ?, ?, ?, ?)",
		ev.RunID, string(ev.Type), ts.UnixNano(), ev.Source, ev.Destination, ev.Message,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to append journal event").Build()
	}
	return nil
}

// Events returns every event of a run in insertion order.
func (j *SQLiteJournal) Events(ctx context.Context, runID string) ([]engine.Event, error) {
	return j.query(ctx,
		"SELECT run_id, event_type, timestamp, source, destination, message FROM events WHERE run_id = ? ORDER BY id",
		runID,
	)
}

// EventsOfType returns the events of a run with the given type.
func (j *SQLiteJournal) EventsOfType(ctx context.Context, runID string, typ engine.EventType) ([]engine.Event, error) {
	return j.query(ctx,
		"SELECT run_id, event_type, timestamp, source, destination, message FROM events WHERE run_id = ? AND event_type = ? ORDER BY id",
		runID, string(typ),
	)
}

// Runs returns the IDs of all journaled runs, most recent first.
func (j *SQLiteJournal) Runs(ctx context.Context) ([]string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx, "SELECT run_id FROM events GROUP BY run_id ORDER BY MAX(id) DESC")
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to query journal runs").Build()
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to scan journal run").Build()
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

func (j *SQLiteJournal) query(ctx context.Context, q string, args ...any) ([]engine.Event, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to query journal events").Build()
	}
	defer rows.Close()

	var events []engine.Event
	for rows.Next() {
		var (
			ev  engine.Event
			typ string
			ts  int64
		)
		if err := rows.Scan(&ev.RunID, &typ, &ts, &ev.Source, &ev.Destination, &ev.Message); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to scan journal event").Build()
		}
		ev.Type = engine.EventType(typ)
		ev.Time = time.Unix(0, ts).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to iterate journal events").Build()
	}
	return events, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
