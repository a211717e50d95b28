package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordkit/internal/extract"
)

// -----------------------------------------------------------------------------
// Rule-file decoding tests
// -----------------------------------------------------------------------------
//
// These tests validate that YAML and JSON rule files decode into the same Go
// struct graph, and that the Options helper reads values from both encodings.

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	rs, err := Load("testdata/app-log-levels.yaml")
	require.NoError(t, err)

	assert.Equal(t, "app-log-levels", rs.Name)
	assert.Equal(t, "line", rs.Extract.Kind)
	assert.Equal(t, "prefix", rs.Extract.Mode)
	require.Len(t, rs.Aggregate, 1)

	step := rs.Aggregate[0]
	assert.Equal(t, "levels", step.Label())
	assert.Equal(t, []string{"level"}, step.Options.StringSlice("key"))
	assert.Equal(t, []string{"INFO", "DEBUG", "WARN", "ERROR"}, step.Options.StringSlice("canonical"))
	assert.Empty(t, Lint(rs))
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()

	rs, err := Load("testdata/sales.json")
	require.NoError(t, err)
	require.Len(t, rs.Extract.Fields, 3)
	assert.Equal(t, "decimal", rs.Extract.Fields[2].Type)
	assert.Equal(t, "quantity", rs.Aggregate[0].Options.String("weight", ""))
}

/*
TestDecode_UnknownKey verifies that a typo in a rule file is rejected in both
encodings instead of silently ignored.
*/
func TestDecode_UnknownKey(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("name: x\nextract:\n  kind: line\n  patern: foo\n"), FormatYAML)
	require.Error(t, err)

	_, err = Parse([]byte(`{"name":"x","extract":{"kind":"line","patern":"foo"}}`), FormatJSON)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open rules")
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatOf("a/b.JSON"))
	assert.Equal(t, FormatYAML, FormatOf("a/b.yml"))
	assert.Equal(t, FormatYAML, FormatOf("rules"))
}

/*
TestOptions verifies typed access with defaults across YAML ints and JSON
float64 numbers.
*/
func TestOptions(t *testing.T) {
	o := Options{
		"s":     "x",
		"b":     true,
		"yint":  3,
		"jnum":  float64(4),
		"list":  []any{"a", 200, true},
		"one":   "solo",
		"wrong": []any{map[string]any{}},
	}
	assert.Equal(t, "x", o.String("s", "d"))
	assert.Equal(t, "d", o.String("b", "d"))
	assert.True(t, o.Bool("b", false))
	assert.Equal(t, 3, o.Int("yint", 0))
	assert.Equal(t, 4, o.Int("jnum", 0))
	assert.Equal(t, 9, o.Int("missing", 9))
	assert.Equal(t, []string{"a", "200", "true"}, o.StringSlice("list"))
	assert.Equal(t, []string{"solo"}, o.StringSlice("one"))
	assert.Empty(t, o.StringSlice("wrong"))
	assert.Nil(t, o.StringSlice("missing"))
	assert.True(t, o.Has("s"))

	var nilOpts Options
	require.NoError(t, nilOpts.UnmarshalJSON([]byte("null")))
	assert.NotNil(t, nilOpts)
}

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

/*
TestLint_Extract verifies the extraction checks: missing mode, bad regex,
missing empty policy, unknown types and duplicate names.
*/
func TestLint_Extract(t *testing.T) {
	issues := Lint(Ruleset{
		Name:    "x",
		Extract: Extract{Kind: "line", Pattern: "("},
	})
	assert.True(t, hasIssue(t, issues, SeverityError, "extract.pattern", "does not compile"), "%+v", issues)
	assert.True(t, hasIssue(t, issues, SeverityError, "extract.mode", "requires a mode"), "%+v", issues)
	assert.True(t, hasIssue(t, issues, SeverityWarning, "aggregate", "no validate block"), "%+v", issues)

	issues = Lint(Ruleset{
		Name: "x",
		Extract: Extract{Kind: "path", Path: "a[]", Fields: []Field{
			{Name: "a", From: "a[].x", Type: "uuid"},
			{Name: "a", From: "a[].y"},
			{Name: "b"},
		}},
	})
	assert.True(t, hasIssue(t, issues, SeverityError, "extract.empty", "requires an empty collection policy"), "%+v", issues)
	assert.True(t, hasIssue(t, issues, SeverityError, "extract.fields[0].type", "unknown type"), "%+v", issues)
	assert.True(t, hasIssue(t, issues, SeverityError, "extract.fields[1].name", "duplicate"), "%+v", issues)
	assert.True(t, hasIssue(t, issues, SeverityError, "extract.fields[2].from", "absolute source path"), "%+v", issues)

	issues = Lint(Ruleset{Name: "x", Extract: Extract{Kind: "kv", Normalize: true}})
	assert.True(t, hasIssue(t, issues, SeverityWarning, "extract.normalize", "row rules"), "%+v", issues)
	assert.Empty(t, Errors(Lint(Ruleset{Name: "x", Extract: Extract{Kind: "row", Normalize: true}})))

	issues = Lint(Ruleset{Extract: Extract{Kind: "xml"}})
	assert.True(t, hasIssue(t, issues, SeverityWarning, "name", "name is empty"), "%+v", issues)
	assert.True(t, hasIssue(t, issues, SeverityError, "extract.kind", "unknown extract kind"), "%+v", issues)
}

/*
TestLint_ValidateAndSteps verifies validation and aggregation step checks.
*/
func TestLint_ValidateAndSteps(t *testing.T) {
	issues := Lint(Ruleset{
		Name:    "x",
		Extract: Extract{Kind: "row"},
		Validate: &Validate{Rules: []Check{
			{Field: "email", Check: "email"},
			{Field: "key", Check: "pattern"},
			{Check: "ssn"},
		}},
		Aggregate: []Step{
			{Kind: "count"},
			{Kind: "count", Name: "c", Options: Options{"key": "k", "order": "canonical"}},
			{Kind: "sum", Name: "c", Options: Options{"order": "random"}},
			{Kind: "span", Options: Options{"field": "ts", "policy": "newest"}},
			{Kind: "median"},
		},
	})
	for _, want := range []struct {
		sev  IssueSeverity
		path string
		msg  string
	}{
		{SeverityWarning, "validate.id", "no id field"},
		{SeverityError, "validate.rules[1].pattern", "requires a pattern"},
		{SeverityError, "validate.rules[2].field", "must not be empty"},
		{SeverityError, "validate.rules[2].check", "unknown check"},
		{SeverityError, "aggregate[0].options.key", "at least one key"},
		{SeverityError, "aggregate[1].options.canonical", "canonical key list"},
		{SeverityWarning, "aggregate[2].name", "already used"},
		{SeverityError, "aggregate[2].options.value", "requires a value"},
		{SeverityError, "aggregate[2].options.order", "unknown sum order"},
		{SeverityError, "aggregate[3].options.policy", "unknown order policy"},
		{SeverityError, "aggregate[4].kind", "unknown aggregate kind"},
	} {
		assert.True(t, hasIssue(t, issues, want.sev, want.path, want.msg), "missing %s at %s; got %+v", want.sev, want.path, issues)
	}
}

/*
TestCompile verifies that a valid rule file compiles into the matching engine
rule and steps.
*/
func TestCompile(t *testing.T) {
	rs, err := Load("testdata/sales.json")
	require.NoError(t, err)
	c, err := Compile(rs)
	require.NoError(t, err)

	require.NotNil(t, c.Row)
	assert.Nil(t, c.Line)
	require.Len(t, c.Steps, 3)
	assert.Equal(t, "revenue", c.Steps[0].Name)
	assert.Equal(t, "quantity", c.Steps[0].Sum.Weight)
	assert.Equal(t, "largest", c.Steps[1].Order)
	assert.Equal(t, "quantity", c.Steps[2].Field)
}

/*
TestCompile_Validate verifies label and message overrides on checks.
*/
func TestCompile_Validate(t *testing.T) {
	c, err := Compile(Ruleset{
		Name:    "users",
		Extract: Extract{Kind: "row"},
		Validate: &Validate{ID: "id", Rules: []Check{
			{Field: "created_at", Check: "date", Label: "date"},
			{Field: "key", Check: "pattern", Pattern: `^[A-Z]+$`, Message: "{field}={value} is not upper case"},
		}},
	})
	require.NoError(t, err)
	require.Len(t, c.Rules, 2)
	assert.Equal(t, "date", c.Rules[0].Label)

	reason, msg := c.Rules[1].Check("abc")
	assert.Equal(t, "invalid format", reason)
	assert.Equal(t, "key=abc is not upper case", msg)
	reason, _ = c.Rules[1].Check("ABC")
	assert.Empty(t, reason)
}

/*
TestCompile_Errors verifies that lint errors block compilation and that
rule-level problems surface as extract.ErrConfig.
*/
func TestCompile_Errors(t *testing.T) {
	_, err := Compile(Ruleset{Name: "x", Extract: Extract{Kind: "line", Pattern: "a"}})
	require.Error(t, err)
	var iss Issue
	assert.True(t, errors.As(err, &iss))
	assert.Equal(t, "extract.mode", iss.Path)

	_, err = Compile(Ruleset{Name: "x", Extract: Extract{Kind: "line", Mode: "search", Pattern: "(?P<a>a)", Fields: []Field{{Name: "b"}}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, extract.ErrConfig))
}
