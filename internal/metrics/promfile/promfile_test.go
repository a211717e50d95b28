package promfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"recordkit/internal/metrics"
)

// TestNewBackend validates argument checks and defaults.
func TestNewBackend(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("job", ""); err == nil {
		t.Fatalf("NewBackend with empty path: error = nil, want non-nil")
	}
	b, err := NewBackend("", filepath.Join(t.TempDir(), "x.prom"))
	if err != nil {
		t.Fatalf("NewBackend error = %v", err)
	}
	if b.Registry() == nil {
		t.Fatalf("registry is nil")
	}
}

/*
TestBackend_RecorderRoundTrip verifies that Recorder calls land in the right
collectors, unknown names are ignored, and Flush writes a textfile carrying
the job label.
*/
func TestBackend_RecorderRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "recordkit.prom")
	b, err := NewBackend("levels", path)
	if err != nil {
		t.Fatalf("NewBackend error = %v", err)
	}
	r := metrics.NewRecorder("levels", b)

	r.RecordStep("extract", nil, 250*time.Millisecond)
	r.RecordStep("extract", nil, 250*time.Millisecond)
	r.RecordStep("aggregate", errors.New("boom"), time.Second)
	r.RecordRows(metrics.KindExtracted, 7)
	r.RecordRows(metrics.KindSkipped, 2)
	b.IncCounter("unknown_total", 1, nil)
	b.ObserveHistogram("unknown_seconds", 1, nil)

	if got := testutil.ToFloat64(b.stepCounter.WithLabelValues("extract", "success")); got != 2 {
		t.Fatalf("extract/success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(b.stepCounter.WithLabelValues("aggregate", "failure")); got != 1 {
		t.Fatalf("aggregate/failure = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.recordCounter.WithLabelValues(metrics.KindExtracted)); got != 7 {
		t.Fatalf("extracted = %v, want 7", got)
	}

	if err := r.Flush(); err != nil {
		t.Fatalf("Flush error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`recordkit_records_total{job="levels",kind="skipped"} 2`,
		`recordkit_step_duration_seconds_count{job="levels",status="success",step="extract"} 2`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("textfile missing %q:\n%s", want, text)
		}
	}
}
