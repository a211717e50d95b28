package analysis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordkit/internal/metrics"
)

// countingBackend tallies counters by name and kind label.
type countingBackend struct {
	counters map[string]float64
	observed int
}

func (b *countingBackend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.counters == nil {
		b.counters = map[string]float64{}
	}
	key := name
	if k := labels["kind"]; k != "" {
		key += "/" + k
	}
	if s := labels["status"]; s != "" {
		key += "/" + labels["step"] + "/" + s
	}
	b.counters[key] += delta
}

func (b *countingBackend) ObserveHistogram(string, float64, metrics.Labels) { b.observed++ }
func (b *countingBackend) Flush() error                                   { return nil }

func newTestRunner() *Runner {
	return NewRunner(zerolog.Nop(), nil)
}

/*
TestRunner_MetricsAndLogging verifies that an analysis records extraction
counts and step outcomes, tags log lines with the run id and caps the number
of skip warnings.
*/
func TestRunner_MetricsAndLogging(t *testing.T) {
	var buf bytes.Buffer
	fb := &countingBackend{}
	r := NewRunner(zerolog.New(&buf).Level(zerolog.DebugLevel), metrics.NewRecorder("levels", fb))
	require.NotEmpty(t, r.RunID())

	lines := []string{
		"2024-01-15 10:30:00 INFO started",
		"2024-13-45 99:99:99 INFO bad",
		"2024-13-46 99:99:99 INFO bad",
		"2024-13-47 99:99:99 INFO bad",
		"2024-13-48 99:99:99 INFO bad",
		"2024-01-15 10:31:00 INFO done",
	}
	rep, err := r.Timestamps(lines)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Span.Count)
	assert.Equal(t, 4, rep.Skipped)

	assert.Equal(t, float64(2), fb.counters[metrics.RecordsTotal+"/"+metrics.KindExtracted])
	assert.Equal(t, float64(4), fb.counters[metrics.RecordsTotal+"/"+metrics.KindSkipped])
	assert.Equal(t, float64(1), fb.counters[metrics.StepTotal+"/extract/success"])
	assert.Equal(t, float64(1), fb.counters[metrics.StepTotal+"/aggregate/success"])
	assert.Equal(t, 2, fb.observed)

	out := buf.String()
	assert.Contains(t, out, `"run_id":"`+r.RunID()+`"`)
	assert.Contains(t, out, `"job":"levels"`)
	assert.Equal(t, maxLoggedSkips, strings.Count(out, `"level":"warn","run_id"`)-1)
	assert.Contains(t, out, "further skips not logged")
}

func TestNewRunner_DistinctRunIDs(t *testing.T) {
	a, b := newTestRunner(), newTestRunner()
	assert.NotEqual(t, a.RunID(), b.RunID())
}
