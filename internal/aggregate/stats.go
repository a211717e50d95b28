package aggregate

import (
	"github.com/shopspring/decimal"

	"recordkit/pkg/records"
)

// NumStats summarizes one numeric field.
type NumStats struct {
	Count int
	Sum   decimal.Decimal
	Min   decimal.Decimal
	Max   decimal.Decimal
	// Skipped counts records where the field was missing or not numeric.
	Skipped int
}

// Mean returns Sum/Count, or zero when nothing was counted.
func (s NumStats) Mean() decimal.Decimal {
	if s.Count == 0 {
		return decimal.Zero
	}
	return s.Sum.Div(decimal.NewFromInt(int64(s.Count)))
}

// Stats computes count, sum, min and max of field.
func Stats(recs []records.Record, field string) NumStats {
	var s NumStats
	for _, rec := range recs {
		d, ok := records.AsDecimal(rec.Value(field))
		if !ok {
			s.Skipped++
			continue
		}
		if s.Count == 0 || d.LessThan(s.Min) {
			s.Min = d
		}
		if s.Count == 0 || d.GreaterThan(s.Max) {
			s.Max = d
		}
		s.Count++
		s.Sum = s.Sum.Add(d)
	}
	return s
}

// Having counts records satisfying pred.
func Having(recs []records.Record, pred func(records.Record) bool) int {
	n := 0
	for _, rec := range recs {
		if pred(rec) {
			n++
		}
	}
	return n
}

// Where returns the records satisfying pred, in input order.
func Where(recs []records.Record, pred func(records.Record) bool) []records.Record {
	var out []records.Record
	for _, rec := range recs {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}
