package aggregate

import (
	"iter"
	"sort"
	"strings"

	"recordkit/pkg/records"
)

// Entry is one key of a frequency report.
type Entry struct {
	Key    string
	Values []any
	Count  int
}

// Counts is a frequency counter that remembers first-seen order.
type Counts struct {
	t       *table[int]
	total   int
	unkeyed int
}

// NewCounts returns an empty counter.
func NewCounts() *Counts {
	return &Counts{t: newTable[int]()}
}

// Count tallies records by key.
func Count(recs []records.Record, ks KeySpec) *Counts {
	c := NewCounts()
	for _, rec := range recs {
		c.AddRecord(rec, ks)
	}
	return c
}

// CountText tallies plain strings.
func CountText(values iter.Seq[string]) *Counts {
	c := NewCounts()
	for v := range values {
		c.Add(v)
	}
	return c
}

// AddRecord tallies one record. Records missing a key field are only counted
// as unkeyed.
func (c *Counts) AddRecord(rec records.Record, ks KeySpec) {
	k, ok := ks.of(rec)
	if !ok {
		c.unkeyed++
		return
	}
	c.add(k, 1)
}

// Add tallies one plain string key.
func (c *Counts) Add(s string) { c.add(textKey(s), 1) }

// declare registers s with a zero count so it appears in every view.
func (c *Counts) declare(s string) { c.t.slot(textKey(s)) }

func (c *Counts) add(k key, n int) {
	i := c.t.slot(k)
	c.t.items[i] += n
	c.total += n
}

// Get returns the count for a display key; zero when never seen.
func (c *Counts) Get(key string) int {
	for i, k := range c.t.keys {
		if k.display == key {
			return c.t.items[i]
		}
	}
	return 0
}

// Total returns the number of tallied units.
func (c *Counts) Total() int { return c.total }

// Len returns the number of distinct keys.
func (c *Counts) Len() int { return c.t.len() }

// Unkeyed returns how many records lacked a key field.
func (c *Counts) Unkeyed() int { return c.unkeyed }

// InOrder lists entries in first-seen order.
func (c *Counts) InOrder() []Entry {
	out := make([]Entry, c.t.len())
	for i, k := range c.t.keys {
		out[i] = Entry{Key: k.display, Values: k.values, Count: c.t.items[i]}
	}
	return out
}

// Sorted lists entries by key, lexicographically.
func (c *Counts) Sorted() []Entry {
	out := c.InOrder()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// MostCommon lists the n largest counts, descending. Equal counts keep
// first-seen order. n <= 0 lists every entry.
func (c *Counts) MostCommon(n int) []Entry {
	out := c.InOrder()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Top returns the most common entry; ok is false when nothing was counted.
func (c *Counts) Top() (Entry, bool) {
	top := c.MostCommon(1)
	if len(top) == 0 {
		return Entry{}, false
	}
	return top[0], true
}

// Canonical lists exactly the given keys in the given order, with zero counts
// for keys never seen.
func (c *Counts) Canonical(keys ...string) []Entry {
	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{Key: k, Values: []any{k}, Count: c.Get(k)}
	}
	return out
}

// Markers counts lines that start with each literal marker. Matching is
// case-sensitive and anchored at the start of the line. Every marker is
// reported, in the given order, even when absent.
func Markers(lines iter.Seq[string], markers ...string) *Counts {
	c := NewCounts()
	for _, m := range markers {
		c.declare(m)
	}
	for line := range lines {
		for _, m := range markers {
			if strings.HasPrefix(line, m) {
				c.Add(m)
			}
		}
	}
	return c
}
