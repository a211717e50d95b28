package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"recordkit/internal/aggregate"
	"recordkit/internal/config"
	"recordkit/internal/extract"
	"recordkit/internal/metrics"
	"recordkit/internal/tree"
	"recordkit/internal/validate"
	"recordkit/pkg/records"
)

// ErrNoInput is returned by Rules when the input does not carry what the rule
// kind reads.
var ErrNoInput = errors.New("no input for rule kind")

// Input carries the parsed input of a rule file run. Only the member matching
// the rule kind is read: Lines for line rules, Doc for path rules, Table for
// row rules and Docs for key-value rules.
type Input struct {
	Lines []string
	Doc   *tree.Node
	Table *Table
	Docs  [][]string
}

// RuleReport is the outcome of a rule file run.
type RuleReport struct {
	Name       string           `json:"name"`
	Records    []records.Record `json:"records,omitempty"`
	Skipped    []extract.Skip   `json:"skipped,omitempty"`
	Validation *validate.Report `json:"validation,omitempty"`
	Steps      []StepResult     `json:"steps,omitempty"`
}

// StepResult is the outcome of one aggregation step. Which members are set
// depends on Kind.
type StepResult struct {
	Name    string              `json:"name"`
	Kind    string              `json:"kind"`
	Entries []aggregate.Entry   `json:"entries,omitempty"`
	Groups  []aggregate.Group   `json:"groups,omitempty"`
	Total   *decimal.Decimal    `json:"total,omitempty"`
	Weight  *decimal.Decimal    `json:"weight,omitempty"`
	Span    *aggregate.TimeSpan `json:"span,omitempty"`
	Stats   *NumStats           `json:"stats,omitempty"`
	Records []records.Record    `json:"records,omitempty"`
}

// NumStats is aggregate.NumStats with its mean resolved for reporting.
type NumStats struct {
	aggregate.NumStats
	Mean decimal.Decimal
}

func (r RuleReport) Lines() []string {
	out := []string{fmt.Sprintf("%s: %d records, %d skipped", r.Name, len(r.Records), len(r.Skipped))}
	for _, s := range r.Skipped {
		out = append(out, "  skip: "+s.Error())
	}
	if v := r.Validation; v != nil {
		out = append(out, "", fmt.Sprintf("Validation: %d valid, %d invalid", v.Valid, len(v.Invalid)))
		for _, line := range v.Lines() {
			out = append(out, "  "+line)
		}
	}
	if len(r.Steps) == 0 && r.Validation == nil {
		for _, rec := range r.Records {
			b, err := json.Marshal(rec)
			if err != nil {
				b = []byte(err.Error())
			}
			out = append(out, "  "+string(b))
		}
	}
	for _, s := range r.Steps {
		out = append(out, "")
		out = append(out, s.lines()...)
	}
	return out
}

func (s StepResult) lines() []string {
	out := []string{s.Name + ":"}
	switch {
	case s.Entries != nil:
		for _, e := range s.Entries {
			out = append(out, fmt.Sprintf("  %s: %d", e.Key, e.Count))
		}
	case s.Groups != nil:
		for _, g := range s.Groups {
			out = append(out, fmt.Sprintf("  %s: %s", g.Key, g.Sum.StringFixed(2)))
		}
		if s.Total != nil {
			out = append(out, "  total: "+s.Total.StringFixed(2))
		}
		if s.Weight != nil {
			out = append(out, "  weight: "+s.Weight.String())
		}
	case s.Span != nil:
		if s.Span.Empty() {
			return append(out, "  no timestamps")
		}
		out = append(out,
			"  first: "+s.Span.First.Format(time.DateTime),
			"  last: "+s.Span.Last.Format(time.DateTime),
			fmt.Sprintf("  span: %d minutes", s.Span.Minutes()),
			fmt.Sprintf("  count: %d", s.Span.Count),
		)
	case s.Stats != nil:
		out = append(out,
			fmt.Sprintf("  count: %d", s.Stats.Count),
			"  sum: "+s.Stats.Sum.String(),
			"  mean: "+s.Stats.Mean.StringFixed(2),
			"  min: "+s.Stats.Min.String(),
			"  max: "+s.Stats.Max.String(),
		)
	case s.Records != nil:
		for _, rec := range s.Records {
			b, err := json.Marshal(rec)
			if err != nil {
				b = []byte(err.Error())
			}
			out = append(out, "  "+string(b))
		}
	default:
		out = append(out, "  (empty)")
	}
	return out
}

// Rules runs a compiled rule file: extraction, then validation when the file
// declares checks, then every aggregation step in order.
func (r *Runner) Rules(c *config.Compiled, in Input) (*RuleReport, error) {
	r.log.Info().Str("rules", c.Name).Str("kind", c.Kind).Int("steps", len(c.Steps)).Msg("running rule file")

	var res extract.Result
	switch {
	case c.Line != nil && in.Lines != nil:
		res = r.lines(c.Line, in.Lines)
	case c.Path != nil && in.Doc != nil:
		res = r.doc(c.Path, in.Doc)
	case c.Row != nil && in.Table != nil:
		var err error
		if res, err = r.table(c.Row, *in.Table); err != nil {
			return nil, fmt.Errorf("rules %q: %w", c.Name, err)
		}
	case c.KV != nil && in.Docs != nil:
		res = r.kv(c.KV, in.Docs)
	default:
		return nil, fmt.Errorf("rules %q: %w %q", c.Name, ErrNoInput, c.Kind)
	}

	rep := &RuleReport{Name: c.Name, Records: res.Records, Skipped: res.Skips}
	if len(c.Rules) > 0 {
		_ = r.step("validate", func() error {
			v := validate.ValidateAll(res.Records, c.IDField, c.Rules)
			rep.Validation = &v
			return nil
		})
		r.rec.RecordRows(metrics.KindValid, rep.Validation.Valid)
		r.rec.RecordRows(metrics.KindInvalid, len(rep.Validation.Invalid))
	}

	for _, a := range c.Steps {
		var sr StepResult
		err := r.step("aggregate", func() error {
			var err error
			sr, err = runStep(a, res.Records)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("rules %q: step %q: %w", c.Name, a.Name, err)
		}
		rep.Steps = append(rep.Steps, sr)
	}
	return rep, nil
}

func runStep(a config.Aggregation, recs []records.Record) (StepResult, error) {
	sr := StepResult{Name: a.Name, Kind: a.Kind}
	switch a.Kind {
	case "count":
		c := aggregate.Count(recs, a.Key)
		switch a.Order {
		case "sorted":
			sr.Entries = c.Sorted()
		case "most-common":
			sr.Entries = c.MostCommon(a.Limit)
		case "canonical":
			sr.Entries = c.Canonical(a.Canonical...)
		default:
			sr.Entries = c.InOrder()
		}
		if a.Limit > 0 && len(sr.Entries) > a.Limit {
			sr.Entries = sr.Entries[:a.Limit]
		}
		if sr.Entries == nil {
			sr.Entries = []aggregate.Entry{}
		}
	case "sum":
		s := aggregate.Sum(recs, a.Sum)
		switch a.Order {
		case "sorted":
			sr.Groups = s.Sorted()
		case "largest":
			sr.Groups = []aggregate.Group{}
			if g, ok := s.Largest(); ok {
				sr.Groups = append(sr.Groups, g)
			}
		default:
			sr.Groups = s.InOrder()
		}
		if sr.Groups == nil {
			sr.Groups = []aggregate.Group{}
		}
		total := s.Total()
		sr.Total = &total
		if a.Sum.Weight != "" {
			w := s.TotalWeight()
			sr.Weight = &w
		}
	case "span":
		span, err := aggregate.Span(recs, a.Span)
		if err != nil {
			return StepResult{}, err
		}
		sr.Span = &span
	case "stats":
		st := aggregate.Stats(recs, a.Field)
		sr.Stats = &NumStats{NumStats: st, Mean: st.Mean()}
	case "pick":
		sr.Records = aggregate.Pick(recs, a.Key, a.Pick)
		if sr.Records == nil {
			sr.Records = []records.Record{}
		}
	default:
		return StepResult{}, fmt.Errorf("unknown aggregate kind %q", a.Kind)
	}
	return sr, nil
}
