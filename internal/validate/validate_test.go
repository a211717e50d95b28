package validate

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordkit/pkg/records"
)

func userRules() []Rule {
	return []Rule{
		Email("email"),
		Phone("phone"),
		Date("created_at").Labeled("date"),
	}
}

/*
TestEmail verifies the three email outcomes: empty, malformed (no TLD) and
valid.
*/
func TestEmail(t *testing.T) {
	check := Email("email").Check
	cases := []struct {
		in     any
		reason string
	}{
		{"", ReasonEmpty},
		{nil, ReasonEmpty},
		{"a@b", ReasonInvalidFormat},
		{"a@b.c", ReasonInvalidFormat},
		{"a b@c.com", ReasonInvalidFormat},
		{"a@b.com", ""},
		{"first.last+tag@mail.example.org", ""},
	}
	for _, tc := range cases {
		reason, _ := check(tc.in)
		assert.Equal(t, tc.reason, reason, "%#v", tc.in)
	}
	_, msg := check("")
	assert.Equal(t, "Empty email", msg)
}

/*
TestPhone verifies the inclusive digit bounds after stripping separators.
*/
func TestPhone(t *testing.T) {
	check := Phone("phone").Check
	cases := map[string]string{
		"123456":              ReasonInvalidLength,
		"1234567":             "",
		"+1 (555) 010-9999":   "",
		"123456789012345":     "",
		"1234567890123456":    ReasonInvalidLength,
		"call me":             ReasonInvalidLength,
		"555-0101 ext. 12345": "",
	}
	for in, want := range cases {
		reason, _ := check(in)
		assert.Equal(t, want, reason, in)
	}
}

/*
TestDate verifies that only real YYYY-MM-DD dates pass.
*/
func TestDate(t *testing.T) {
	check := Date("d").Check
	for in, want := range map[string]string{
		"2024-01-15": "",
		"2024-02-29": "",
		"2023-02-29": ReasonInvalidFormat,
		"2024-13-01": ReasonInvalidFormat,
		"15/01/2024": ReasonInvalidFormat,
		"":           ReasonInvalidFormat,
	} {
		reason, _ := check(in)
		assert.Equal(t, want, reason, in)
	}
}

/*
TestValidate_AllRulesRun verifies that a record failing several rules gets one
failure per rule, in rule order, and a valid record gets none.
*/
func TestValidate_AllRulesRun(t *testing.T) {
	bad := records.New(
		records.F("id", "2"),
		records.F("email", ""),
		records.F("phone", "12"),
		records.F("created_at", "2024-02-30"),
	)
	fails := Validate(bad, userRules())
	require.Len(t, fails, 3)
	assert.Equal(t, []string{"email", "phone", "date"}, []string{fails[0].Label, fails[1].Label, fails[2].Label})
	assert.Equal(t, "created_at", fails[2].Field)

	good := records.New(
		records.F("email", "a@b.com"),
		records.F("phone", "555-123-4567"),
		records.F("created_at", "2024-01-15"),
	)
	assert.Empty(t, Validate(good, userRules()))
}

/*
TestValidate_SingleFailure verifies that exactly one failing rule yields
exactly one failure.
*/
func TestValidate_SingleFailure(t *testing.T) {
	rec := records.New(
		records.F("email", "a@b"),
		records.F("phone", "555-123-4567"),
		records.F("created_at", "2024-01-15"),
	)
	fails := Validate(rec, userRules())
	require.Len(t, fails, 1)
	assert.Equal(t, "email: Invalid format", fails[0].String())
}

/*
TestValidateAll verifies counts, input order of invalid rows and the row
rendering.
*/
func TestValidateAll(t *testing.T) {
	recs := []records.Record{
		records.New(records.F("id", "1"), records.F("email", "a@b.com"), records.F("phone", "5551234567"), records.F("created_at", "2024-01-01")),
		records.New(records.F("id", "2"), records.F("email", ""), records.F("phone", "123"), records.F("created_at", "2024-01-01")),
		records.New(records.F("id", int64(3)), records.F("email", "x@y.io"), records.F("phone", "5551234567"), records.F("created_at", "01/01/2024")),
	}
	rep := ValidateAll(recs, "id", userRules())
	assert.Equal(t, 1, rep.Valid)
	assert.Equal(t, 3, rep.Total())
	assert.Equal(t, []string{
		"Row 2: email: Empty email, phone: Invalid length",
		"Row 3: date: Invalid format",
	}, rep.Lines())
	assert.Equal(t, 2, rep.Invalid[1].Index)
}

/*
TestPatternAndPredicate verifies the supplemental rules, including message
template expansion.
*/
func TestPatternAndPredicate(t *testing.T) {
	key := Pattern("key", regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`))
	r, _ := key.Check("DB_HOST")
	assert.Empty(t, r)
	r, msg := key.Check("db-host")
	assert.Equal(t, ReasonInvalidFormat, r)
	assert.Equal(t, "Invalid format", msg)

	adult := Predicate("age", func(v any) bool {
		n, ok := v.(int64)
		return ok && n >= 18
	}, "{field} must be at least 18, got {value}")
	fails := Validate(records.New(records.F("age", int64(12))), []Rule{adult, Required("name")})
	require.Len(t, fails, 2)
	assert.Equal(t, "age must be at least 18, got 12", fails[0].Message)
	assert.Equal(t, ReasonMissing, fails[1].Reason)
}

/*
TestBuiltin verifies lookup by name.
*/
func TestBuiltin(t *testing.T) {
	for _, name := range []string{"email", "Phone", " date ", "required"} {
		r, err := Builtin(name, "f")
		require.NoError(t, err, name)
		assert.Equal(t, "f", r.Field)
	}
	_, err := Builtin("ssn", "f")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ssn"))
}
