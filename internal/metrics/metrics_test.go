package metrics

import (
	"errors"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.flushCount++
	return nil
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := &fakeBackend{}
	r := NewRecorder("jobA", fb)

	r.RecordStep("extract", nil, 2*time.Second)
	r.RecordStep("aggregate", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}
	if len(fb.callsHistograms) != 2 {
		t.Fatalf("expected 2 histogram calls, got %d", len(fb.callsHistograms))
	}

	cc0 := fb.callsCounters[0]
	if cc0.name != StepTotal || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v; want name=%s, delta=1", cc0, StepTotal)
	}
	if got := cc0.labels["job"]; got != "jobA" {
		t.Fatalf("counter[0].labels[job]=%q; want %q", got, "jobA")
	}
	if got := cc0.labels["status"]; got != "success" {
		t.Fatalf("counter[0].labels[status]=%q; want %q", got, "success")
	}

	h0 := fb.callsHistograms[0]
	if h0.name != StepDurationSeconds {
		t.Fatalf("hist[0].name=%q; want %s", h0.name, StepDurationSeconds)
	}
	if h0.value < 2.0-0.001 || h0.value > 2.0+0.001 {
		t.Fatalf("hist[0].value=%v; want ~2.0", h0.value)
	}

	cc1 := fb.callsCounters[1]
	if cc1.labels["step"] != "aggregate" || cc1.labels["status"] != "failure" {
		t.Fatalf("counter[1] labels = %v; want step=aggregate status=failure", cc1.labels)
	}
}

func TestRecordRows(t *testing.T) {
	fb := &fakeBackend{}
	r := NewRecorder("jobX", fb)

	r.RecordRows(KindExtracted, 3)
	r.RecordRows(KindSkipped, 0) // ignored
	r.RecordRows(KindInvalid, 5)

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}
	c1 := fb.callsCounters[1]
	if c1.name != RecordsTotal || c1.delta != 5 || c1.labels["kind"] != KindInvalid {
		t.Fatalf("counter[1] = %#v; want %s delta=5 kind=%s", c1, RecordsTotal, KindInvalid)
	}
}

/*
TestNilBackend verifies that a Recorder without a backend is safe to use and
that Flush delegates to the backend.
*/
func TestNilBackend(t *testing.T) {
	r := NewRecorder("job", nil)
	r.RecordStep("extract", nil, time.Millisecond)
	r.RecordRows(KindValid, 1)
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}

	fb := &fakeBackend{}
	if err := NewRecorder("job", fb).Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}
}
