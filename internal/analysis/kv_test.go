package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var people = [][]string{
	{"name: Alice", "age: 30", "city: Paris", "occupation: Engineer"},
	{"name: Bob", "age: 25", "city: Rome", "occupation: Chef"},
	{"name: Cy", "age: unknown", "city: Oslo"},
	{"name: Dee", "age: 41", "city: Lima", "occupation: Pilot", "notes without separator"},
	{"name: Eve", "city: Kyiv"},
}

/*
TestKVRecords verifies key order, integer ages, that lines without the
separator are ignored and that a non-integer age skips the document.
*/
func TestKVRecords(t *testing.T) {
	rep := newTestRunner().KVRecords(people)

	require.Len(t, rep.Records, 4)
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, 3, rep.Skipped[0].Unit)
	assert.Equal(t, []string{"name", "age", "city", "occupation"}, rep.Records[0].Keys())
	assert.Equal(t, int64(30), rep.Records[0].Value("age"))
	assert.False(t, rep.Records[3].Has("age"))

	lines := rep.Lines()
	assert.Equal(t, "[", lines[0])
	assert.Contains(t, lines, `    "age": 30,`)

	assert.Equal(t, []string{"[]"}, newTestRunner().KVRecords(nil).Lines())
}

func TestPeopleOver(t *testing.T) {
	rep := newTestRunner().PeopleOver(people, 28)

	assert.Equal(t, []string{
		"People over 28:",
		"  Alice (30) - Engineer in Paris",
		"  Dee (41) - Pilot in Lima",
		"",
		"Total: 2",
	}, rep.Lines())

	none := newTestRunner().PeopleOver(people, 100)
	assert.Equal(t, []string{"People over 100:", "", "Total: 0"}, none.Lines())
}
