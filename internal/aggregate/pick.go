package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"recordkit/pkg/records"
)

// PickPolicy selects the winner among records sharing a key:
//
//   - "keep-first"   : the earliest occurrence
//   - "keep-last"    : the latest occurrence (default)
//   - "most-complete": the record with the most non-empty fields; ties break
//     by keep-last
type PickPolicy string

const (
	KeepFirst    PickPolicy = "keep-first"
	KeepLast     PickPolicy = "keep-last"
	MostComplete PickPolicy = "most-complete"
)

// ParsePickPolicy normalizes a policy name. Empty selects KeepLast.
func ParsePickPolicy(s string) (PickPolicy, error) {
	switch p := PickPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return KeepLast, nil
	case KeepFirst, KeepLast, MostComplete:
		return p, nil
	default:
		return "", fmt.Errorf("aggregate: unknown pick policy %q", s)
	}
}

// Pick collapses records sharing a key to one winner per key. Winners are
// returned in ascending input position of the winning record; records missing
// a key field pass through after them, in input order. Input records are not
// copied or modified.
func Pick(recs []records.Record, ks KeySpec, policy PickPolicy) []records.Record {
	if len(recs) == 0 || len(ks) == 0 {
		return recs
	}

	type slot struct {
		index int
		score int
	}
	t := newTable[slot]()
	var passthrough []int

	for i, rec := range recs {
		k, ok := ks.of(rec)
		if !ok {
			passthrough = append(passthrough, i)
			continue
		}
		fresh := t.find(k.raw) < 0
		at := t.slot(k)
		cur := &t.items[at]
		switch policy {
		case KeepFirst:
			if fresh {
				cur.index = i
			}
		case MostComplete:
			s := completeness(rec)
			if fresh || s >= cur.score {
				*cur = slot{index: i, score: s}
			}
		default:
			cur.index = i
		}
	}

	indexes := make([]int, 0, t.len())
	for _, s := range t.items {
		indexes = append(indexes, s.index)
	}
	sort.Ints(indexes)

	out := make([]records.Record, 0, len(indexes)+len(passthrough))
	for _, i := range indexes {
		out = append(out, recs[i])
	}
	for _, i := range passthrough {
		out = append(out, recs[i])
	}
	return out
}

// completeness counts fields holding a non-nil, non-empty value.
func completeness(rec records.Record) int {
	n := 0
	for _, f := range rec.Fields() {
		if f.Value == nil {
			continue
		}
		if s, ok := f.Value.(string); ok && s == "" {
			continue
		}
		n++
	}
	return n
}
