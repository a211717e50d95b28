package analysis

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"recordkit/internal/aggregate"
	"recordkit/internal/extract"
	"recordkit/pkg/records"
)

// CanonicalLevels are always reported by LogLevels, in this order.
var CanonicalLevels = []string{"INFO", "DEBUG", "WARN", "ERROR"}

var (
	appLogRule = extract.MustLineRule(extract.LineSpec{
		Name:    "app-log",
		Mode:    extract.MatchPrefix,
		Pattern: `(?P<date>\d{4}-\d{2}-\d{2}) (?P<time>\d{2}:\d{2}:\d{2}) (?P<level>\w+)[^ ]*(?: (?P<message>.*))?`,
	})

	accessLogRule = extract.MustLineRule(extract.LineSpec{
		Name:    "access-log",
		Mode:    extract.MatchSearch,
		Pattern: `"(?P<method>\w+) (?P<path>[^ ]+) HTTP/\d\.\d" (?P<status>\d+)`,
	})

	timestampRule = extract.MustLineRule(extract.LineSpec{
		Name:    "timestamps",
		Mode:    extract.MatchPrefix,
		Pattern: `(?P<ts>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`,
		Fields:  []extract.Field{{Name: "ts", Type: extract.TypeTimestamp}},
	})
)

// LevelReport counts application log levels and lists ERROR messages.
type LevelReport struct {
	Levels []aggregate.Entry `json:"levels"`
	Errors []string          `json:"errors"`
}

func (r LevelReport) Lines() []string {
	out := []string{"Log level counts:"}
	for _, e := range r.Levels {
		out = append(out, fmt.Sprintf("  %s: %d", e.Key, e.Count))
	}
	out = append(out, "", fmt.Sprintf("Errors found: %d", len(r.Errors)))
	for _, msg := range r.Errors {
		out = append(out, "  - "+msg)
	}
	return out
}

// LogLevels counts "YYYY-MM-DD HH:MM:SS LEVEL message" lines per level over
// CanonicalLevels and collects the message of every ERROR line.
func (r *Runner) LogLevels(lines []string) LevelReport {
	res := r.lines(appLogRule, lines)

	var rep LevelReport
	_ = r.step("aggregate", func() error {
		rep.Levels = aggregate.Count(res.Records, aggregate.By("level")).Canonical(CanonicalLevels...)
		for _, rec := range res.Records {
			if rec.String("level") != "ERROR" || !rec.Has("message") {
				continue
			}
			// The message is everything after the level token and one space;
			// only trailing whitespace is dropped.
			msg := strings.TrimRightFunc(records.AsString(rec.Value("message")), unicode.IsSpace)
			if msg != "" {
				rep.Errors = append(rep.Errors, msg)
			}
		}
		return nil
	})
	return rep
}

// AccessReport summarizes a web server access log.
type AccessReport struct {
	Methods      []aggregate.Entry `json:"methods"`
	Statuses     []aggregate.Entry `json:"statuses"`
	MostAccessed string            `json:"most_accessed,omitempty"`
}

func (r AccessReport) Lines() []string {
	out := []string{"HTTP Methods:"}
	for _, e := range r.Methods {
		out = append(out, fmt.Sprintf("  %s: %d", e.Key, e.Count))
	}
	out = append(out, "", "Status Codes:")
	for _, e := range r.Statuses {
		out = append(out, fmt.Sprintf("  %s: %d", e.Key, e.Count))
	}
	if r.MostAccessed != "" {
		out = append(out, "", "Most accessed: "+r.MostAccessed)
	}
	return out
}

// AccessLog counts request methods (most common first), status codes
// (sorted) and reports the most requested path.
func (r *Runner) AccessLog(lines []string) AccessReport {
	res := r.lines(accessLogRule, lines)

	var rep AccessReport
	_ = r.step("aggregate", func() error {
		rep.Methods = aggregate.Count(res.Records, aggregate.By("method")).MostCommon(0)
		rep.Statuses = aggregate.Count(res.Records, aggregate.By("status")).Sorted()
		if top, ok := aggregate.Count(res.Records, aggregate.By("path")).Top(); ok {
			rep.MostAccessed = top.Key
		}
		return nil
	})
	return rep
}

// TimestampReport is the time span covered by a log.
type TimestampReport struct {
	Span aggregate.TimeSpan `json:"span"`
	// Skipped counts timestamp-shaped prefixes that are not valid times.
	Skipped int `json:"skipped"`
}

func (r TimestampReport) Lines() []string {
	if r.Span.Empty() {
		return nil
	}
	return []string{
		"First entry: " + r.Span.First.Format(time.TimeOnly),
		"Last entry: " + r.Span.Last.Format(time.TimeOnly),
		fmt.Sprintf("Time span: %d minutes", r.Span.Minutes()),
		fmt.Sprintf("Total entries: %d", r.Span.Count),
	}
}

// Timestamps reports the first and last timestamp, the whole minutes between
// them and the number of timestamped lines. Lines are assumed to be in
// chronological order.
func (r *Runner) Timestamps(lines []string) (TimestampReport, error) {
	res := r.lines(timestampRule, lines)

	rep := TimestampReport{Skipped: len(res.Skips)}
	err := r.step("aggregate", func() error {
		var err error
		rep.Span, err = aggregate.Span(res.Records, aggregate.SpanSpec{Field: "ts", Policy: aggregate.AssumeSorted})
		return err
	})
	return rep, err
}
