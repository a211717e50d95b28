// Package aggregate reduces record slices to report values: frequency counts,
// decimal sums, time spans, marker counts, numeric stats and per-key picks.
//
// Design goals:
//   - No globals: every call returns a fresh value the caller owns.
//   - Explicit order: reports never depend on map iteration. Each report type
//     exposes first-seen, lexicographic and (where meaningful) ranked views.
//   - Exact money: sums use shopspring/decimal; rounding is a presentation
//     concern (StringFixed).
//
// Keys: a record's key is built from one or more fields. Values are rendered
// with records.AsString (nil becomes "\x00" in the raw key) and joined with a
// unit separator; the raw key is hashed with xxh3 to find its bucket. Records
// missing any key field are left out of keyed reports and counted as unkeyed.
package aggregate

import (
	"strings"

	"github.com/zeebo/xxh3"

	"recordkit/pkg/records"
)

// KeySep joins composite key values in the display form of a key.
const KeySep = " | "

const unitSep = '\x1f'

// KeySpec names the fields that form an aggregation key.
type KeySpec []string

// By is shorthand for a KeySpec literal.
func By(fields ...string) KeySpec { return KeySpec(fields) }

// key is one record's rendering of a KeySpec.
type key struct {
	raw     string
	display string
	values  []any
}

// of renders rec's key; ok is false when a key field is absent.
func (ks KeySpec) of(rec records.Record) (key, bool) {
	var raw, disp strings.Builder
	values := make([]any, 0, len(ks))
	for i, f := range ks {
		v, ok := rec.Get(f)
		if !ok {
			return key{}, false
		}
		if i > 0 {
			raw.WriteByte(unitSep)
			disp.WriteString(KeySep)
		}
		s := records.AsString(v)
		if v == nil {
			raw.WriteByte(0)
		} else {
			raw.WriteString(s)
		}
		disp.WriteString(s)
		values = append(values, v)
	}
	return key{raw: raw.String(), display: disp.String(), values: values}, true
}

// textKey builds the key of a single plain string.
func textKey(s string) key {
	return key{raw: s, display: s, values: []any{s}}
}

// table maps raw keys to dense slots in first-seen order. Buckets are indexed
// by the xxh3 hash of the raw key; collisions fall back to comparing raw keys.
type table[T any] struct {
	buckets map[uint64][]int
	keys    []key
	items   []T
}

func newTable[T any]() *table[T] {
	return &table[T]{buckets: make(map[uint64][]int)}
}

// find returns the slot of k, or -1.
func (t *table[T]) find(raw string) int {
	for _, i := range t.buckets[xxh3.HashString(raw)] {
		if t.keys[i].raw == raw {
			return i
		}
	}
	return -1
}

// slot returns the slot of k, creating a zero item the first time k is seen.
func (t *table[T]) slot(k key) int {
	if i := t.find(k.raw); i >= 0 {
		return i
	}
	h := xxh3.HashString(k.raw)
	i := len(t.items)
	t.buckets[h] = append(t.buckets[h], i)
	t.keys = append(t.keys, k)
	var zero T
	t.items = append(t.items, zero)
	return i
}

func (t *table[T]) len() int { return len(t.items) }
