package extract

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordkit/pkg/records"
)

const logPattern = `(?P<date>\d{4}-\d{2}-\d{2}) (?P<time>\d{2}:\d{2}:\d{2}) (?P<level>\w+)(?: (?P<message>.*))?`

/*
TestLineRule_LogLevels verifies that a prefix-mode rule extracts one record
per matching line, drops non-matching lines silently, and yields nil for an
optional group that did not participate.
*/
func TestLineRule_LogLevels(t *testing.T) {
	r := MustLineRule(LineSpec{Name: "log", Pattern: logPattern, Mode: MatchPrefix})
	lines := []string{
		"2024-01-01 10:00:00 ERROR Something failed",
		"garbage line",
		"2024-01-01 10:00:05 INFO",
		"  2024-01-01 10:00:06 WARN indented",
	}
	res := r.Extract(slices.Values(lines))
	require.Len(t, res.Records, 2)
	assert.Empty(t, res.Skips)

	first := res.Records[0]
	assert.Equal(t, []string{"date", "time", "level", "message"}, first.Keys())
	assert.Equal(t, "ERROR", first.Value("level"))
	assert.Equal(t, "Something failed", first.Value("message"))

	second := res.Records[1]
	assert.Equal(t, "INFO", second.Value("level"))
	v, ok := second.Get("message")
	assert.True(t, ok)
	assert.Nil(t, v)
}

/*
TestLineRule_Modes verifies the four match modes on the same pattern.
*/
func TestLineRule_Modes(t *testing.T) {
	line := "id=7 id=8 tail"
	cases := []struct {
		mode MatchMode
		want []any
	}{
		{MatchSearch, []any{int64(7)}},
		{MatchPrefix, []any{int64(7)}},
		{MatchFull, nil},
		{MatchAll, []any{int64(7), int64(8)}},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			r := MustLineRule(LineSpec{
				Pattern: `id=(?P<id>\d+)`,
				Mode:    tc.mode,
				Fields:  []Field{{Name: "id", Type: TypeInt}},
			})
			res := r.Extract(One(line))
			var got []any
			for _, rec := range res.Records {
				got = append(got, rec.Value("id"))
			}
			assert.Equal(t, tc.want, got)
		})
	}

	// search finds a match that prefix rejects
	r := MustLineRule(LineSpec{Pattern: `id=(?P<id>\d+)`, Mode: MatchPrefix})
	assert.Empty(t, r.Extract(One("x id=1")).Records)
	r = MustLineRule(LineSpec{Pattern: `id=(?P<id>\d+)`, Mode: MatchSearch})
	assert.Len(t, r.Extract(One("x id=1")).Records, 1)
}

/*
TestLineRule_CoercionSkip verifies that a value that fails coercion drops the
unit and reports a Skip carrying the rule, unit index, field and raw value.
*/
func TestLineRule_CoercionSkip(t *testing.T) {
	r := MustLineRule(LineSpec{
		Name:    "ts",
		Pattern: `^(?P<ts>\S+ \S+) (?P<n>\S+)$`,
		Mode:    MatchSearch,
		Fields: []Field{
			{Name: "at", From: "ts", Type: TypeTimestamp},
			{Name: "n", Type: TypeInt},
		},
	})
	res := r.Extract(slices.Values([]string{
		"2024-01-01 10:00:00 3",
		"2024-01-01 10:00:00 three",
	}))
	require.Len(t, res.Records, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), res.Records[0].Value("at"))
	assert.Equal(t, int64(3), res.Records[0].Value("n"))

	require.Len(t, res.Skips, 1)
	s := res.Skips[0]
	assert.Equal(t, "ts", s.Rule)
	assert.Equal(t, 2, s.Unit)
	assert.Equal(t, "n", s.Field)
	assert.Equal(t, "three", s.Value)
}

/*
TestLineRule_Positional verifies that fields may reference groups by position.
*/
func TestLineRule_Positional(t *testing.T) {
	r := MustLineRule(LineSpec{
		Pattern: `(\w+)=(\w+)`,
		Mode:    MatchAll,
		Fields:  []Field{{Name: "k", From: "1"}, {Name: "v", From: "2"}},
	})
	res := r.Extract(One("a=1 b=2"))
	require.Len(t, res.Records, 2)
	assert.True(t, res.Records[1].Equal(records.New(records.F("k", "b"), records.F("v", "2"))))
}

/*
TestLineRule_ConfigErrors verifies that ill-formed rules fail at construction
with an error wrapping ErrConfig.
*/
func TestLineRule_ConfigErrors(t *testing.T) {
	cases := map[string]LineSpec{
		"no mode":        {Pattern: `(?P<a>a)`},
		"bad mode":       {Pattern: `(?P<a>a)`, Mode: "fuzzy"},
		"bad regex":      {Pattern: `(`, Mode: MatchSearch},
		"no groups":      {Pattern: `abc`, Mode: MatchSearch},
		"missing group":  {Pattern: `(?P<a>a)`, Mode: MatchSearch, Fields: []Field{{Name: "b"}}},
		"duplicate name": {Pattern: `(?P<a>a)(?P<b>b)`, Mode: MatchSearch, Fields: []Field{{Name: "x", From: "a"}, {Name: "x", From: "b"}}},
		"unknown type":   {Pattern: `(?P<a>a)`, Mode: MatchSearch, Fields: []Field{{Name: "a", Type: "uuid"}}},
		"empty pattern":  {Mode: MatchSearch},
	}
	for name, spec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewLineRule(spec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfig), "got %v", err)
			var ce *ConfigError
			assert.True(t, errors.As(err, &ce))
		})
	}
}

/*
TestLineRule_Restartable verifies that Records re-reads its source on every
range and stops early when the consumer breaks.
*/
func TestLineRule_Restartable(t *testing.T) {
	r := MustLineRule(LineSpec{Pattern: `(?P<n>\d+)`, Mode: MatchSearch})
	seq := r.Records(slices.Values([]string{"1", "2", "3"}))

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, 3, count())
	assert.Equal(t, 3, count())

	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}
