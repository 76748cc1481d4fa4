// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the geo loader.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It mirrors the storage abstraction pattern used elsewhere in the
//     project (storage.Repository), so the loader depends only on this
//     interface while concrete metric systems stay isolated in subpackages.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// It is intentionally generic so we can plug in Prometheus, Datadog, etc.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordRows increments a record-level counter for the given job and kind.
//
// Typical kinds mirror the loader summary fields, e.g.:
//   - "loaded"
//   - "failed"
//   - "rejected_polygons"
//   - "skipped_rows"
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("geoload_records_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordWindow counts one committed or failed window and its duration.
func RecordWindow(job, status string, d time.Duration) {
	lbls := Labels{
		"job":    job,
		"status": status,
	}
	backend.IncCounter("geoload_windows_total", 1, lbls)
	backend.ObserveHistogram("geoload_window_duration_seconds", d.Seconds(), lbls)
}
