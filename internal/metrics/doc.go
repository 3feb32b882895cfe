// Package metrics provides observability hooks for sitebaker generation runs.
//
// Components receive a Recorder through their options. NoopRecorder is the
// default so call sites never nil-check; PrometheusRecorder forwards to a
// client_golang registry which the CLI can dump in the node-exporter textfile
// format after the run.
package metrics
