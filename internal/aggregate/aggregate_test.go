package aggregate

import (
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordkit/pkg/records"
)

func level(l string) records.Record { return records.New(records.F("level", l)) }

func keysOf(es []Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Key
	}
	return out
}

func countsOf(es []Entry) []int {
	out := make([]int, len(es))
	for i, e := range es {
		out[i] = e.Count
	}
	return out
}

/*
TestCount_Canonical verifies that canonical enumeration reports every
declared key in declared order, with zero for keys never seen.
*/
func TestCount_Canonical(t *testing.T) {
	c := Count([]records.Record{level("ERROR"), level("INFO")}, By("level"))
	got := c.Canonical("INFO", "DEBUG", "WARN", "ERROR")
	assert.Equal(t, []string{"INFO", "DEBUG", "WARN", "ERROR"}, keysOf(got))
	assert.Equal(t, []int{1, 0, 0, 1}, countsOf(got))
	assert.Equal(t, 2, c.Total())
}

/*
TestCount_MostCommonTieBreak verifies that equal counts keep first-seen
order, and that the ranking is stable across calls.
*/
func TestCount_MostCommonTieBreak(t *testing.T) {
	recs := []records.Record{
		level("b"), level("a"), level("c"), level("a"), level("b"), level("d"),
	}
	c := Count(recs, By("level"))
	want := []string{"b", "a", "c", "d"}
	for range 3 {
		assert.Equal(t, want, keysOf(c.MostCommon(0)))
	}
	assert.Equal(t, []string{"b", "a"}, keysOf(c.MostCommon(2)))
	top, ok := c.Top()
	require.True(t, ok)
	assert.Equal(t, "b", top.Key)

	assert.Equal(t, []string{"a", "b", "c", "d"}, keysOf(c.Sorted()))
	assert.Equal(t, []string{"b", "a", "c", "d"}, keysOf(c.InOrder()))
}

/*
TestCount_Composite verifies composite keys, display rendering, and that
records missing a key field are counted as unkeyed only.
*/
func TestCount_Composite(t *testing.T) {
	recs := []records.Record{
		records.New(records.F("method", "GET"), records.F("status", int64(200))),
		records.New(records.F("method", "GET"), records.F("status", int64(200))),
		records.New(records.F("method", "GET"), records.F("status", int64(404))),
		records.New(records.F("method", "POST")),
	}
	c := Count(recs, By("method", "status"))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.Get("GET | 200"))
	assert.Equal(t, 1, c.Unkeyed())
	assert.Equal(t, []any{"GET", int64(404)}, c.InOrder()[1].Values)

	// nil and "" are distinct keys
	c = Count([]records.Record{
		records.New(records.F("k", nil)),
		records.New(records.F("k", "")),
	}, By("k"))
	assert.Equal(t, 2, c.Len())
}

/*
TestMarkers verifies anchored, case-sensitive marker counting with every
marker reported.
*/
func TestMarkers(t *testing.T) {
	lines := []string{
		"## [1.1.0] - 2024-02-01",
		"### Added",
		"- thing",
		"### Fixed",
		"## [1.0.0] - 2024-01-01",
		"### Added",
		" ### Changed",
		"### added",
	}
	c := Markers(slices.Values(lines), "### Added", "### Changed", "### Fixed")
	assert.Equal(t, []int{2, 0, 1}, countsOf(c.InOrder()))
	assert.Equal(t, []string{"### Added", "### Changed", "### Fixed"}, keysOf(c.InOrder()))
}

func sale(product string, qty int64, price string) records.Record {
	return records.New(
		records.F("product", product),
		records.F("quantity", qty),
		records.F("price", decimal.RequireFromString(price)),
	)
}

/*
TestSum_Weighted verifies grouped quantity × price sums, exact decimal totals
and lexicographic output.
*/
func TestSum_Weighted(t *testing.T) {
	recs := []records.Record{
		sale("Widget", 3, "19.99"),
		sale("Gadget", 1, "0.10"),
		sale("Widget", 1, "19.99"),
		sale("Gadget", 2, "0.10"),
	}
	s := Sum(recs, SumSpec{Group: By("product"), Value: "price", Weight: "quantity"})
	sorted := s.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "Gadget", sorted[0].Key)
	assert.Equal(t, "0.30", sorted[0].Sum.StringFixed(2))
	assert.Equal(t, "79.96", s.Get("Widget").StringFixed(2))
	assert.Equal(t, "80.26", s.Total().StringFixed(2))
	assert.True(t, decimal.NewFromInt(7).Equal(s.TotalWeight()))
	assert.Equal(t, int64(4), sorted[1].Weight.IntPart())
}

/*
TestSum_PopularAndInvalid verifies the largest group with first-seen
tie-break and that non-numeric amounts are reported, not summed.
*/
func TestSum_PopularAndInvalid(t *testing.T) {
	recs := []records.Record{
		records.New(records.F("product", "A"), records.F("quantity", "2")),
		records.New(records.F("product", "B"), records.F("quantity", "x")),
		records.New(records.F("product", "B"), records.F("quantity", int64(2))),
	}
	s := Sum(recs, SumSpec{Group: By("product"), Value: "quantity"})
	top, ok := s.Largest()
	require.True(t, ok)
	assert.Equal(t, "A", top.Key)
	assert.Equal(t, []int{1}, s.Invalid())
	assert.Equal(t, 2, s.Len())

	total := Sum(recs, SumSpec{Value: "quantity"})
	assert.Equal(t, "4", total.Total().String())
	assert.Equal(t, 1, total.Len())
}

func at(clock string) records.Record {
	ts, err := time.Parse(time.DateTime, "2024-01-01 "+clock)
	if err != nil {
		panic(err)
	}
	return records.New(records.F("ts", ts))
}

/*
TestSpan verifies both order policies, truncation to whole minutes, and the
empty case.
*/
func TestSpan(t *testing.T) {
	recs := []records.Record{at("10:00:00"), at("09:58:30"), at("10:05:59")}

	s, err := Span(recs, SpanSpec{Field: "ts"})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, int64(5), s.Minutes())
	assert.Equal(t, "10:00:00", s.First.Format(time.TimeOnly))

	s, err = Span(recs, SpanSpec{Field: "ts", Policy: TrueExtremes})
	require.NoError(t, err)
	assert.Equal(t, "09:58:30", s.First.Format(time.TimeOnly))
	assert.Equal(t, int64(7), s.Minutes())

	s, err = Span(nil, SpanSpec{Field: "ts"})
	require.NoError(t, err)
	assert.True(t, s.Empty())

	_, err = Span([]records.Record{records.New(records.F("ts", "10:00"))}, SpanSpec{Field: "ts"})
	require.Error(t, err)

	p, err := ParseOrderPolicy("true-extremes")
	require.NoError(t, err)
	assert.Equal(t, TrueExtremes, p)
	_, err = ParseOrderPolicy("newest")
	require.Error(t, err)
}

/*
TestStats verifies count/sum/mean/min/max over a numeric field and the
Having and Where helpers.
*/
func TestStats(t *testing.T) {
	recs := []records.Record{
		records.New(records.F("age", int64(30))),
		records.New(records.F("age", int64(20))),
		records.New(records.F("age", "n/a")),
		records.New(records.F("age", 25.5)),
	}
	s := Stats(recs, "age")
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, "75.5", s.Sum.String())
	assert.Equal(t, "25.17", s.Mean().StringFixed(2))
	assert.Equal(t, "20", s.Min.String())
	assert.Equal(t, "30", s.Max.String())

	over := func(r records.Record) bool {
		n, ok := r.Value("age").(int64)
		return ok && n > 21
	}
	assert.Equal(t, 1, Having(recs, over))
	assert.Len(t, Where(recs, over), 1)
	assert.Equal(t, decimal.Zero, NumStats{}.Mean())
}
