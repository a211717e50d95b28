package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"recordkit/pkg/records"
)

// SumSpec declares a decimal summation.
type SumSpec struct {
	// Group lists the key fields. Empty sums everything into one group.
	Group KeySpec
	// Value is the amount field.
	Value string
	// Weight, when set, multiplies each amount (quantity × price).
	Weight string
}

// Group is one key of a sum report.
type Group struct {
	Key    string
	Values []any
	// Sum is Σ value, or Σ value×weight for weighted sums.
	Sum decimal.Decimal
	// Weight is Σ weight; zero for unweighted sums.
	Weight decimal.Decimal
	Count  int
}

// Sums is a grouped decimal summation in first-seen group order.
type Sums struct {
	t       *table[Group]
	total   decimal.Decimal
	weight  decimal.Decimal
	invalid []int
	unkeyed int
}

// Sum adds up spec.Value per group. Records whose amount or weight is not
// numeric are left out and listed by Invalid.
func Sum(recs []records.Record, spec SumSpec) *Sums {
	s := &Sums{t: newTable[Group]()}
	for i, rec := range recs {
		amount, ok := records.AsDecimal(rec.Value(spec.Value))
		if !ok {
			s.invalid = append(s.invalid, i)
			continue
		}
		var w decimal.Decimal
		if spec.Weight != "" {
			w, ok = records.AsDecimal(rec.Value(spec.Weight))
			if !ok {
				s.invalid = append(s.invalid, i)
				continue
			}
			amount = amount.Mul(w)
		}
		k := key{}
		if len(spec.Group) > 0 {
			if k, ok = spec.Group.of(rec); !ok {
				s.unkeyed++
				continue
			}
		}
		slot := s.t.slot(k)
		g := &s.t.items[slot]
		g.Sum = g.Sum.Add(amount)
		g.Weight = g.Weight.Add(w)
		g.Count++
		s.total = s.total.Add(amount)
		s.weight = s.weight.Add(w)
	}
	return s
}

// Total is the grand total across groups.
func (s *Sums) Total() decimal.Decimal { return s.total }

// TotalWeight is Σ weight across groups.
func (s *Sums) TotalWeight() decimal.Decimal { return s.weight }

// Invalid lists the input positions of records with a non-numeric amount or
// weight.
func (s *Sums) Invalid() []int { return s.invalid }

// Unkeyed returns how many records lacked a group field.
func (s *Sums) Unkeyed() int { return s.unkeyed }

// Len returns the number of groups.
func (s *Sums) Len() int { return s.t.len() }

// Get returns the sum for a display key; zero when absent.
func (s *Sums) Get(key string) decimal.Decimal {
	for i, k := range s.t.keys {
		if k.display == key {
			return s.t.items[i].Sum
		}
	}
	return decimal.Zero
}

// InOrder lists groups in first-seen order.
func (s *Sums) InOrder() []Group {
	out := make([]Group, s.t.len())
	for i, k := range s.t.keys {
		g := s.t.items[i]
		g.Key, g.Values = k.display, k.values
		out[i] = g
	}
	return out
}

// Sorted lists groups by key, lexicographically.
func (s *Sums) Sorted() []Group {
	out := s.InOrder()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Largest returns the group with the greatest Sum; equal sums keep the
// first-seen group.
func (s *Sums) Largest() (Group, bool) {
	var best Group
	found := false
	for _, g := range s.InOrder() {
		if !found || g.Sum.GreaterThan(best.Sum) {
			best, found = g, true
		}
	}
	return best, found
}
