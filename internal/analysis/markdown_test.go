package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestChangelog(t *testing.T) {
	lines := []string{
		"# Changelog",
		"",
		"## [1.1.0] - 2024-03-01",
		"### Added",
		"- export command",
		"### Fixed",
		"- crash on empty input",
		"",
		"## [1.0.0] - 2024-01-01",
		"### Added",
		"### Changed",
		"  ### Added (indented, not counted)",
	}
	rep := newTestRunner().Changelog(lines)

	want := []string{
		"Found 2 versions:",
		"  - v1.1.0",
		"  - v1.0.0",
		"",
		"Change types across all versions:",
		"  Added sections: 2",
		"  Changed sections: 1",
		"  Fixed sections: 1",
	}
	if diff := cmp.Diff(want, rep.Lines()); diff != "" {
		t.Fatalf("Lines mismatch (-want +got):\n%s", diff)
	}
}

/*
TestHeaders verifies the indented table of contents and that lines which
only contain a hash mark are not taken for headings.
*/
func TestHeaders(t *testing.T) {
	lines := []string{
		"# Title",
		"## Intro",
		"### Detail",
		"text with #hash",
		"#NoSpace",
		"## Usage",
	}
	rep := newTestRunner().Headers(lines)

	want := []string{
		"Table of Contents:",
		"- Title",
		"  - Intro",
		"    - Detail",
		"  - Usage",
		"",
		"Header counts:",
		"  h1: 1",
		"  h2: 2",
		"  h3: 1",
	}
	if diff := cmp.Diff(want, rep.Lines()); diff != "" {
		t.Fatalf("Lines mismatch (-want +got):\n%s", diff)
	}
}

func TestLinks(t *testing.T) {
	doc := "See [the docs](https://example.com/docs) and [home](/).\n" +
		"A [split\nlabel](https://example.com/split) link.\n" +
		"Not a link: [dangling]"
	rep := newTestRunner().Links(doc)

	assert.Equal(t, []Link{
		{Text: "the docs", URL: "https://example.com/docs"},
		{Text: "home", URL: "/"},
		{Text: "split\nlabel", URL: "https://example.com/split"},
	}, rep.Links)
	assert.Equal(t, "Found 3 links:", rep.Lines()[0])
	assert.Equal(t, "  [home] -> /", rep.Lines()[2])

	assert.Equal(t, []string{"Found 0 links:"}, newTestRunner().Links("").Lines())
}

/*
TestEnvFile verifies comment and blank skipping, redefinition in place,
secret masking, values containing "=" and issue reporting by line number.
*/
func TestEnvFile(t *testing.T) {
	lines := []string{
		"# database",
		"DB_HOST=localhost",
		"",
		"API_KEY=abc123",
		"bad line",
		"lower_case=1",
		"DB_PASSWORD=secret=x",
		"DB_HOST=db.prod",
	}
	rep := newTestRunner().EnvFile(lines)

	assert.Equal(t, "secret=x", rep.Vars.String("DB_PASSWORD"))
	want := []string{
		"Environment variables:",
		"  DB_HOST=db.prod",
		"  API_KEY=***",
		"  lower_case=1",
		"  DB_PASSWORD=***",
		"",
		"Total: 4 variables",
		"",
		"Issues found:",
		"  - Line 5: Missing = sign",
		"  - Line 6: Invalid key format: lower_case",
	}
	if diff := cmp.Diff(want, rep.Lines()); diff != "" {
		t.Fatalf("Lines mismatch (-want +got):\n%s", diff)
	}

	clean := newTestRunner().EnvFile([]string{"PORT=8080"})
	assert.Equal(t, "No issues found", clean.Lines()[len(clean.Lines())-1])
}

func TestMasked(t *testing.T) {
	for key, want := range map[string]string{
		"API_KEY":        "***",
		"CLIENT_SECRET":  "***",
		"DB_PASSWORD":    "***",
		"DB_HOST":        "v",
		"monkey_keyword": "v",
	} {
		assert.Equal(t, want, Masked(key, "v"), key)
	}
}
