// Package analysis is the catalog of ready-made analyses. Each one wires a
// fixed set of extraction rules to the validator, aggregator or merger and
// returns a typed report; none of them reads files or prints.
//
// Analyses run through a Runner, which owns the ambient concerns: a
// structured logger carrying the run id, and a metrics recorder fed with step
// timings and record counts. Rule files go through the same Runner via Rules.
package analysis

import (
	"iter"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"recordkit/internal/extract"
	"recordkit/internal/metrics"
	"recordkit/internal/tree"
)

// maxLoggedSkips bounds the per-extraction skip warnings; the rest are only
// counted.
const maxLoggedSkips = 3

// Report is the common shape of analysis results: a text rendering, one entry
// per output line. Reports also marshal to JSON.
type Report interface {
	Lines() []string
}

// Runner executes analyses with logging and metrics attached.
type Runner struct {
	log   zerolog.Logger
	rec   *metrics.Recorder
	runID string
}

// NewRunner creates a Runner with a fresh run id. A nil rec records nothing.
func NewRunner(log zerolog.Logger, rec *metrics.Recorder) *Runner {
	if rec == nil {
		rec = metrics.NewRecorder("recordkit", nil)
	}
	id := uuid.NewString()
	return &Runner{
		log:   log.With().Str("run_id", id).Str("job", rec.Job()).Logger(),
		rec:   rec,
		runID: id,
	}
}

// RunID identifies this runner's run in logs.
func (r *Runner) RunID() string { return r.runID }

// Logger returns the run-scoped logger.
func (r *Runner) Logger() zerolog.Logger { return r.log }

// step times fn and records its outcome under name.
func (r *Runner) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	took := time.Since(start)
	r.rec.RecordStep(name, err, took)

	ev := r.log.Debug()
	if err != nil {
		ev = r.log.Error().Err(err)
	}
	ev.Str("step", name).Dur("took", took).Msg("step finished")
	return err
}

// observe counts and logs an extraction result.
func (r *Runner) observe(rule string, res extract.Result) {
	r.rec.RecordRows(metrics.KindExtracted, len(res.Records))
	r.rec.RecordRows(metrics.KindSkipped, len(res.Skips))
	r.log.Debug().
		Str("rule", rule).
		Int("records", len(res.Records)).
		Int("skips", len(res.Skips)).
		Msg("extracted")
	for i, s := range res.Skips {
		if i == maxLoggedSkips {
			r.log.Warn().Str("rule", rule).Int("more", len(res.Skips)-i).Msg("further skips not logged")
			break
		}
		r.log.Warn().
			Str("rule", s.Rule).
			Int("unit", s.Unit).
			Str("field", s.Field).
			Str("value", s.Value).
			Msg(s.Reason)
	}
}

// lines runs a line rule over lines as one "extract" step.
func (r *Runner) lines(rule *extract.LineRule, lines []string) extract.Result {
	var res extract.Result
	_ = r.step("extract", func() error {
		res = rule.Extract(slices.Values(lines))
		return nil
	})
	r.observe(rule.Name(), res)
	return res
}

// doc runs a path rule over a single document as one "extract" step.
func (r *Runner) doc(rule *extract.PathRule, doc *tree.Node) extract.Result {
	var res extract.Result
	_ = r.step("extract", func() error {
		res = rule.Extract(extract.One(doc))
		return nil
	})
	r.observe(rule.Name(), res)
	return res
}

// table runs a row rule over a CSV table as one "extract" step. Binding the
// header can fail with a configuration error.
func (r *Runner) table(rule *extract.RowRule, t Table) (extract.Result, error) {
	var res extract.Result
	err := r.step("extract", func() error {
		var err error
		res, err = rule.Extract(t.Header, slices.Values(t.Rows))
		return err
	})
	if err != nil {
		return extract.Result{}, err
	}
	r.observe(rule.Name(), res)
	return res, nil
}

// kv runs a key-value rule over documents as one "extract" step.
func (r *Runner) kv(rule *extract.KVRule, docs [][]string) extract.Result {
	var res extract.Result
	_ = r.step("extract", func() error {
		res = rule.Extract(func(yield func(iter.Seq[string]) bool) {
			for _, d := range docs {
				if !yield(slices.Values(d)) {
					return
				}
			}
		})
		return nil
	})
	r.observe(rule.Name(), res)
	return res
}

// Table is a parsed CSV file: the header row plus every following row as
// read, including rows whose width is off.
type Table struct {
	Header []string
	Rows   [][]string
}
