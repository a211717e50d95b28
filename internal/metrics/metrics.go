// Package metrics provides a small, backend-agnostic abstraction for recording
// run metrics from analyses and rule files.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - A Recorder binds a Backend to one job name. A nil backend records
//     nothing, so instrumentation is always safe to call.
//   - Concrete metric systems live in subpackages (promfile), so the rest of
//     the codebase depends only on this interface.
//
// There is no package-level state: each run builds its own Recorder.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Metric names emitted by Recorder.
const (
	StepTotal           = "recordkit_step_total"
	StepDurationSeconds = "recordkit_step_duration_seconds"
	RecordsTotal        = "recordkit_records_total"
)

// Record kinds used with RecordRows.
const (
	KindExtracted = "extracted"
	KindSkipped   = "skipped"
	KindValid     = "valid"
	KindInvalid   = "invalid"
)

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush writes out collected metrics, if the backend needs it.
	Flush() error
}

// Nop is a Backend that discards everything.
type Nop struct{}

func (Nop) IncCounter(name string, delta float64, labels Labels)       {}
func (Nop) ObserveHistogram(name string, value float64, labels Labels) {}
func (Nop) Flush() error                                               { return nil }

// Recorder records metrics for one job.
type Recorder struct {
	job     string
	backend Backend
}

// NewRecorder binds b to job. A nil b records nothing.
func NewRecorder(job string, b Backend) *Recorder {
	if b == nil {
		b = Nop{}
	}
	return &Recorder{job: job, backend: b}
}

// Job returns the job label.
func (r *Recorder) Job() string { return r.job }

// Flush delegates to the backend.
func (r *Recorder) Flush() error { return r.backend.Flush() }

// RecordStep is a convenience for the common pattern: measure latency and
// success/failure per step (extract, validate, aggregate).
func (r *Recorder) RecordStep(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    r.job,
		"step":   step,
		"status": status,
	}

	r.backend.IncCounter(StepTotal, 1, lbls)
	r.backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows increments a record-level counter for the given kind
// (KindExtracted, KindSkipped, KindValid, KindInvalid).
func (r *Recorder) RecordRows(kind string, delta int) {
	if delta <= 0 {
		return
	}
	r.backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  r.job,
		"kind": kind,
	})
}
