package analysis

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"recordkit/internal/aggregate"
	"recordkit/internal/extract"
	"recordkit/internal/validate"
	"recordkit/pkg/records"
)

// ChangeMarkers are the changelog section headings counted by Changelog.
var ChangeMarkers = []string{"### Added", "### Changed", "### Fixed"}

var (
	versionRule = extract.MustLineRule(extract.LineSpec{
		Name:    "changelog-versions",
		Mode:    extract.MatchSearch,
		Pattern: `## \[(?P<version>.+?)\] - (?P<date>.+)`,
	})

	headingRule = extract.MustLineRule(extract.LineSpec{
		Name:    "headings",
		Mode:    extract.MatchFull,
		Pattern: `(?P<marks>#+)\s+(?P<title>.+)`,
	})

	linkRule = extract.MustLineRule(extract.LineSpec{
		Name:    "links",
		Mode:    extract.MatchAll,
		Pattern: `\[(?P<text>[^\]]+)\]\((?P<url>[^)]+)\)`,
	})

	envRule = extract.MustLineRule(extract.LineSpec{
		Name:    "env",
		Mode:    extract.MatchFull,
		Pattern: `(?P<key>[^=]*)=(?P<value>.*)`,
		Fields: []extract.Field{
			{Name: "key", Type: extract.TypeString},
			{Name: "value", Type: extract.TypeString},
		},
	})
)

// ChangelogReport lists released versions and counts section kinds.
type ChangelogReport struct {
	Versions []string          `json:"versions"`
	Sections []aggregate.Entry `json:"sections"`
}

func (r ChangelogReport) Lines() []string {
	out := []string{fmt.Sprintf("Found %d versions:", len(r.Versions))}
	for _, v := range r.Versions {
		out = append(out, "  - v"+v)
	}
	out = append(out, "", "Change types across all versions:")
	for _, e := range r.Sections {
		out = append(out, fmt.Sprintf("  %s sections: %d", strings.TrimPrefix(e.Key, "### "), e.Count))
	}
	return out
}

// Changelog lists "## [version] - date" headings in document order and counts
// the Added, Changed and Fixed sections.
func (r *Runner) Changelog(lines []string) ChangelogReport {
	res := r.lines(versionRule, lines)

	var rep ChangelogReport
	_ = r.step("aggregate", func() error {
		for _, rec := range res.Records {
			rep.Versions = append(rep.Versions, rec.String("version"))
		}
		rep.Sections = aggregate.Markers(slices.Values(lines), ChangeMarkers...).InOrder()
		return nil
	})
	return rep
}

// HeadersReport is a Markdown table of contents plus heading counts per
// level.
type HeadersReport struct {
	TOC    []string          `json:"toc"`
	Levels []aggregate.Entry `json:"levels"`
}

func (r HeadersReport) Lines() []string {
	out := append([]string{"Table of Contents:"}, r.TOC...)
	out = append(out, "", "Header counts:")
	for _, e := range r.Levels {
		out = append(out, fmt.Sprintf("  %s: %d", e.Key, e.Count))
	}
	return out
}

// Headers builds an indented table of contents from "#"-style headings and
// counts headings per level (h1, h2, ...), sorted by level name.
func (r *Runner) Headers(lines []string) HeadersReport {
	res := r.lines(headingRule, lines)

	var rep HeadersReport
	_ = r.step("aggregate", func() error {
		levels := make([]string, 0, len(res.Records))
		for _, rec := range res.Records {
			depth := len(rec.String("marks"))
			levels = append(levels, fmt.Sprintf("h%d", depth))
			rep.TOC = append(rep.TOC, strings.Repeat("  ", depth-1)+"- "+rec.String("title"))
		}
		rep.Levels = aggregate.CountText(slices.Values(levels)).Sorted()
		return nil
	})
	return rep
}

// Link is one Markdown inline link.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// LinksReport lists links in document order.
type LinksReport struct {
	Links []Link `json:"links"`
}

func (r LinksReport) Lines() []string {
	out := []string{fmt.Sprintf("Found %d links:", len(r.Links))}
	for _, l := range r.Links {
		out = append(out, fmt.Sprintf("  [%s] -> %s", l.Text, l.URL))
	}
	return out
}

// Links extracts every [text](url) link. The document is matched as a whole,
// so link text may span lines.
func (r *Runner) Links(doc string) LinksReport {
	res := r.lines(linkRule, []string{doc})
	rep := LinksReport{Links: make([]Link, len(res.Records))}
	for i, rec := range res.Records {
		rep.Links[i] = Link{Text: rec.String("text"), URL: rec.String("url")}
	}
	return rep
}

// secretMarkers mark a variable as secret when they appear in its key.
var secretMarkers = []string{"KEY", "SECRET", "PASSWORD"}

// EnvKeyPattern is the accepted variable name format.
var EnvKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

var envRules = []validate.Rule{
	validate.Predicate("key", func(v any) bool {
		return EnvKeyPattern.MatchString(records.AsString(v))
	}, "Invalid key format: {value}"),
}

// EnvReport is a parsed .env file.
type EnvReport struct {
	// Vars holds key → value in first-definition order; a redefinition
	// overwrites the value in place.
	Vars   records.Record `json:"vars"`
	Issues []string       `json:"issues"`
}

// Masked returns the value to display for key: "***" for secrets.
func Masked(key, value string) string {
	for _, m := range secretMarkers {
		if strings.Contains(key, m) {
			return "***"
		}
	}
	return value
}

func (r EnvReport) Lines() []string {
	out := []string{"Environment variables:"}
	for _, f := range r.Vars.Fields() {
		out = append(out, fmt.Sprintf("  %s=%s", f.Name, Masked(f.Name, records.AsString(f.Value))))
	}
	out = append(out, "", fmt.Sprintf("Total: %d variables", r.Vars.Len()), "")
	if len(r.Issues) == 0 {
		return append(out, "No issues found")
	}
	out = append(out, "Issues found:")
	for _, iss := range r.Issues {
		out = append(out, "  - "+iss)
	}
	return out
}

// EnvFile parses KEY=value lines, skipping blanks and # comments. Lines
// without "=" and keys outside EnvKeyPattern are reported as issues with
// their 1-based line number; badly named keys are still kept.
func (r *Runner) EnvFile(lines []string) EnvReport {
	rep := EnvReport{Vars: records.New()}
	var extracted extract.Result
	_ = r.step("extract", func() error {
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			res := envRule.Extract(extract.One(line))
			if len(res.Records) == 0 {
				rep.Issues = append(rep.Issues, fmt.Sprintf("Line %d: Missing = sign", i+1))
				continue
			}
			rec := res.Records[0]
			for _, f := range validate.Validate(rec, envRules) {
				rep.Issues = append(rep.Issues, fmt.Sprintf("Line %d: %s", i+1, f.Message))
			}
			rep.Vars.Set(rec.String("key"), rec.Value("value"))
			extracted.Records = append(extracted.Records, rec)
		}
		return nil
	})
	r.observe(envRule.Name(), extracted)
	return rep
}
