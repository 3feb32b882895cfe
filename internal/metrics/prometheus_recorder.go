package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitebaker"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry          *prom.Registry
	taskDuration      *prom.HistogramVec
	taskResults       *prom.CounterVec
	sourceClaims      *prom.CounterVec
	destinationClaims *prom.CounterVec
	writes            *prom.CounterVec
	cleanRetries      prom.Counter
	generateDuration  prom.Histogram
}

// NewPrometheusRecorder constructs the metrics and registers them on reg
// (a fresh registry when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of individual generator tasks",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_results_total",
			Help:      "Generator task outcomes",
		}, []string{"result"}),
		sourceClaims: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "source_claims_total",
			Help:      "Source key registrations by outcome",
		}, []string{"result"}),
		destinationClaims: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "destination_claims_total",
			Help:      "Destination claims by outcome",
		}, []string{"result"}),
		writes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Output file writes by outcome",
		}, []string{"result"}),
		cleanRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "clean_retries_total",
			Help:      "Failed attempts at cleaning the output directory",
		}),
		generateDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Total duration of a generation run",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.sourceClaims, pr.destinationClaims,
		pr.writes, pr.cleanRetries, pr.generateDuration)
	return pr
}

// Registry returns the registry the recorder's metrics live in.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveTaskDuration(d time.Duration, result ResultLabel) {
	p.taskDuration.WithLabelValues(string(result)).Observe(d.Seconds())
	p.taskResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncSourceClaim(result ResultLabel) {
	p.sourceClaims.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncDestinationClaim(result ResultLabel) {
	p.destinationClaims.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncWrite(result ResultLabel) {
	p.writes.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncCleanRetry() {
	p.cleanRetries.Inc()
}

func (p *PrometheusRecorder) ObserveGenerateDuration(d time.Duration) {
	p.generateDuration.Observe(d.Seconds())
}
