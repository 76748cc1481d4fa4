// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the loader labels (job, kind, status) onto Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint; a bulk load is a batch job and has
//     no long-lived process to scrape.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends without changes to the loader.
package prompush

import (
	"fmt"

	"geoload/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	recordCounter  *prometheus.CounterVec // "geoload_records_total"
	windowCounter  *prometheus.CounterVec // "geoload_windows_total"
	windowDuration *prometheus.SummaryVec // "geoload_window_duration_seconds"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as load job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "geoload"
	}

	reg := prometheus.NewRegistry()

	// job is the Pushgateway grouping key, so collectors only carry the
	// remaining dynamic labels.
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoload_records_total",
			Help: "Record-level counts per kind (loaded, failed, rejected_polygons, skipped_rows).",
		},
		[]string{"kind"},
	)
	windowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoload_windows_total",
			Help: "Total number of insert windows, partitioned by status.",
		},
		[]string{"status"},
	)
	windowDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "geoload_window_duration_seconds",
			Help:       "Duration of insert windows in seconds, partitioned by status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"status"},
	)

	if err := reg.Register(recordCounter); err != nil {
		return nil, fmt.Errorf("prompush: register record counter: %w", err)
	}
	if err := reg.Register(windowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register window counter: %w", err)
	}
	if err := reg.Register(windowDuration); err != nil {
		return nil, fmt.Errorf("prompush: register window summary: %w", err)
	}

	return &Backend{
		gatewayURL:     gatewayURL,
		jobName:        jobName,
		reg:            reg,
		recordCounter:  recordCounter,
		windowCounter:  windowCounter,
		windowDuration: windowDuration,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "geoload_records_total":
		if b.recordCounter == nil {
			return
		}
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)

	case "geoload_windows_total":
		if b.windowCounter == nil {
			return
		}
		b.windowCounter.WithLabelValues(labels["status"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "geoload_window_duration_seconds" || b.windowDuration == nil {
		return
	}
	b.windowDuration.WithLabelValues(labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
