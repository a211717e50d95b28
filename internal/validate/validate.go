// Package validate checks records against ordered field rules and accumulates
// failures instead of stopping at the first one.
//
// Design goals:
//   - Total evaluation: every rule runs for every record; one bad field never
//     hides another.
//   - Pure checks: a Check sees one value and returns a reason, nothing else.
//   - Stable reports: rule order fixes message order, input order fixes row
//     order.
package validate

import (
	"strings"

	"recordkit/pkg/records"
)

// Check inspects one field value. It returns an empty reason when the value is
// acceptable; otherwise a short machine reason ("empty", "invalid format") and
// the human message shown in reports.
type Check func(v any) (reason, message string)

// Rule binds a Check to a record field. Label names the rule in reports and
// defaults to Field.
type Rule struct {
	Field string
	Label string
	Check Check
}

// Labeled returns a copy of r reported under label.
func (r Rule) Labeled(label string) Rule {
	r.Label = label
	return r
}

func (r Rule) label() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Field
}

// Failure is one failed rule for one record.
type Failure struct {
	Field   string
	Label   string
	Value   any
	Reason  string
	Message string
}

// String renders "label: Message", the unit joined into row reports.
func (f Failure) String() string {
	return f.Label + ": " + f.Message
}

// Validate runs every rule against rec in order. A missing field is checked as
// nil. The result is empty when all rules pass.
func Validate(rec records.Record, rules []Rule) []Failure {
	var out []Failure
	for _, r := range rules {
		if r.Check == nil {
			continue
		}
		v := rec.Value(r.Field)
		reason, msg := r.Check(v)
		if reason == "" {
			continue
		}
		out = append(out, Failure{
			Field:   r.Field,
			Label:   r.label(),
			Value:   v,
			Reason:  reason,
			Message: msg,
		})
	}
	return out
}

// RowError collects the failures of one invalid record.
type RowError struct {
	ID       string
	Index    int // 0-based position in the input
	Failures []Failure
}

// String renders "Row <id>: label: Message, label: Message".
func (e RowError) String() string {
	var b strings.Builder
	b.WriteString("Row ")
	b.WriteString(e.ID)
	b.WriteString(": ")
	for i, f := range e.Failures {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.String())
	}
	return b.String()
}

// Report is the outcome of ValidateAll.
type Report struct {
	Valid   int
	Invalid []RowError
}

// Total returns the number of records checked.
func (r Report) Total() int { return r.Valid + len(r.Invalid) }

// Lines renders each invalid row, in input order.
func (r Report) Lines() []string {
	out := make([]string, len(r.Invalid))
	for i, e := range r.Invalid {
		out[i] = e.String()
	}
	return out
}

// ValidateAll validates every record. Records with no failures are counted
// valid; the others are reported keyed by their idField value.
func ValidateAll(recs []records.Record, idField string, rules []Rule) Report {
	var rep Report
	for i, rec := range recs {
		fails := Validate(rec, rules)
		if len(fails) == 0 {
			rep.Valid++
			continue
		}
		rep.Invalid = append(rep.Invalid, RowError{
			ID:       records.AsString(rec.Value(idField)),
			Index:    i,
			Failures: fails,
		})
	}
	return rep
}
