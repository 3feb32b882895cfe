package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultRejected ResultLabel = "rejected"
)

// Recorder defines observability hooks for a generation run. Implementations
// must be safe for concurrent use.
type Recorder interface {
	ObserveTaskDuration(d time.Duration, result ResultLabel)
	IncSourceClaim(result ResultLabel)
	IncDestinationClaim(result ResultLabel)
	IncWrite(result ResultLabel)
	IncCleanRetry()
	ObserveGenerateDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(time.Duration, ResultLabel) {}
func (NoopRecorder) IncSourceClaim(ResultLabel)                     {}
func (NoopRecorder) IncDestinationClaim(ResultLabel)                {}
func (NoopRecorder) IncWrite(ResultLabel)                           {}
func (NoopRecorder) IncCleanRetry()                                 {}
func (NoopRecorder) ObserveGenerateDuration(time.Duration)          {}
