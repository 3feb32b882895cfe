package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeySource      = "source"
	KeyDestination = "destination"
	KeyPath        = "path"
	KeyTemplate    = "template"
	KeyTOCFile     = "toc_file"
	KeyURL         = "url"
	KeyAttempt     = "attempt"
	KeyCount       = "count"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr          { return slog.String(KeyRunID, id) }
func Source(s string) slog.Attr          { return slog.String(KeySource, s) }
func Destination(d string) slog.Attr     { return slog.String(KeyDestination, d) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Template(name string) slog.Attr     { return slog.String(KeyTemplate, name) }
func TOCFile(f string) slog.Attr         { return slog.String(KeyTOCFile, f) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Attempt(n int) slog.Attr            { return slog.Int(KeyAttempt, n) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr    { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
