// Package promfile implements a Prometheus textfile backend for the metrics
// package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors on a private
//     registry.
//   - Mapping the common labels (step, status, kind) onto Prometheus labels;
//     the job becomes a constant label.
//   - Writing the registry to a file in the text exposition format on Flush,
//     for the node_exporter textfile collector, instead of serving an HTTP
//     scrape endpoint.
//
// All Prometheus-specific dependencies stay in this package.
package promfile

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"recordkit/internal/metrics"
)

// Backend is a Prometheus textfile metrics backend.
type Backend struct {
	path string
	reg  *prometheus.Registry

	stepCounter   *prometheus.CounterVec
	stepDuration  *prometheus.SummaryVec
	recordCounter *prometheus.CounterVec
}

// NewBackend constructs a backend that writes to path on Flush. job is attached
// to every series as a constant label.
func NewBackend(job, path string) (*Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("promfile: output path is required")
	}
	if job == "" {
		job = "recordkit"
	}
	constLabels := prometheus.Labels{"job": job}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        metrics.StepTotal,
			Help:        "Total number of run steps, partitioned by step and status.",
			ConstLabels: constLabels,
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:        metrics.StepDurationSeconds,
			Help:        "Duration of run steps in seconds, partitioned by step and status.",
			Objectives:  map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			ConstLabels: constLabels,
		},
		[]string{"step", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        metrics.RecordsTotal,
			Help:        "Record-level counts per kind (extracted, skipped, valid, invalid).",
			ConstLabels: constLabels,
		},
		[]string{"kind"},
	)

	for name, c := range map[string]prometheus.Collector{
		"step counter":   stepCounter,
		"step summary":   stepDuration,
		"record counter": recordCounter,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("promfile: register %s: %w", name, err)
		}
	}

	return &Backend{
		path:          path,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		recordCounter: recordCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RecordsTotal:
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush writes the registry to the textfile. The write goes through a
// temporary file and a rename, so collectors never read a partial file.
func (b *Backend) Flush() error {
	if err := prometheus.WriteToTextfile(b.path, b.reg); err != nil {
		return fmt.Errorf("promfile: write %s: %w", b.path, err)
	}
	return nil
}

// Registry exposes the underlying registry, mainly for tests.
func (b *Backend) Registry() *prometheus.Registry { return b.reg }
