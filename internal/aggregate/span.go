package aggregate

import (
	"fmt"
	"time"

	"recordkit/pkg/records"
)

// OrderPolicy selects how Span picks its endpoints.
type OrderPolicy int

const (
	// AssumeSorted takes the first and last timestamps encountered. The
	// caller guarantees chronological input; out-of-order input can yield a
	// negative elapsed time.
	AssumeSorted OrderPolicy = iota
	// TrueExtremes takes the minimum and maximum timestamps.
	TrueExtremes
)

func (p OrderPolicy) String() string {
	switch p {
	case AssumeSorted:
		return "assume-sorted"
	case TrueExtremes:
		return "true-extremes"
	default:
		return fmt.Sprintf("OrderPolicy(%d)", int(p))
	}
}

// ParseOrderPolicy maps the rule-file spelling onto an OrderPolicy. The empty
// string selects AssumeSorted.
func ParseOrderPolicy(s string) (OrderPolicy, error) {
	switch s {
	case "", "assume-sorted":
		return AssumeSorted, nil
	case "true-extremes":
		return TrueExtremes, nil
	default:
		return 0, fmt.Errorf("aggregate: unknown order policy %q", s)
	}
}

// SpanSpec declares a time span computation over a timestamp field.
type SpanSpec struct {
	Field  string
	Policy OrderPolicy
}

// TimeSpan summarizes a run of timestamps.
type TimeSpan struct {
	First time.Time
	Last  time.Time
	Count int
}

// Elapsed returns Last - First.
func (s TimeSpan) Elapsed() time.Duration { return s.Last.Sub(s.First) }

// Minutes returns the elapsed time in whole minutes, truncated toward zero.
func (s TimeSpan) Minutes() int64 { return int64(s.Elapsed() / time.Minute) }

// Empty reports whether no timestamps were seen.
func (s TimeSpan) Empty() bool { return s.Count == 0 }

// Span computes the time span of spec.Field. Records without the field are
// ignored; a value that is not a time.Time is an error, since the rule that
// produced it should have declared a timestamp coercion.
func Span(recs []records.Record, spec SpanSpec) (TimeSpan, error) {
	var s TimeSpan
	for i, rec := range recs {
		v := rec.Value(spec.Field)
		if v == nil {
			continue
		}
		ts, ok := v.(time.Time)
		if !ok {
			return TimeSpan{}, fmt.Errorf("aggregate: record %d: field %q is %T, not a timestamp", i, spec.Field, v)
		}
		if s.Count == 0 {
			s.First, s.Last = ts, ts
			s.Count = 1
			continue
		}
		s.Count++
		switch spec.Policy {
		case TrueExtremes:
			if ts.Before(s.First) {
				s.First = ts
			}
			if ts.After(s.Last) {
				s.Last = ts
			}
		default:
			s.Last = ts
		}
	}
	return s, nil
}
