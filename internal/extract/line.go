package extract

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"recordkit/pkg/records"
)

// MatchMode selects how a LineRule's pattern is applied to a line. The mode is
// part of the rule and is never inferred from the pattern.
type MatchMode string

const (
	// MatchSearch accepts a match anywhere in the line.
	MatchSearch MatchMode = "search"
	// MatchPrefix requires the match to start at the beginning of the line.
	MatchPrefix MatchMode = "prefix"
	// MatchFull requires the pattern to cover the whole line.
	MatchFull MatchMode = "full"
	// MatchAll yields one record per non-overlapping match in the unit.
	MatchAll MatchMode = "all"
)

// LineSpec declares a regex extraction rule.
type LineSpec struct {
	Name    string
	Pattern string
	Mode    MatchMode
	// Fields maps capture groups onto output fields. When empty, every named
	// group becomes a TypeAuto field of the same name, in pattern order.
	Fields []Field
}

// LineRule is a compiled LineSpec. It is immutable and safe to reuse.
type LineRule struct {
	name   string
	re     *regexp.Regexp
	mode   MatchMode
	fields []boundField
}

// NewLineRule compiles spec, reporting any configuration problem as a
// *ConfigError.
func NewLineRule(spec LineSpec) (*LineRule, error) {
	name := spec.Name
	if name == "" {
		name = "line"
	}
	if spec.Pattern == "" {
		return nil, configErr(name, "", "pattern is required")
	}

	pattern := spec.Pattern
	switch spec.Mode {
	case MatchSearch, MatchAll:
	case MatchPrefix:
		pattern = `^(?:` + pattern + `)`
	case MatchFull:
		pattern = `^(?:` + pattern + `)$`
	case "":
		return nil, configErr(name, "", "match mode is required (search, prefix, full, all)")
	default:
		return nil, configErr(name, "", "unknown match mode %q", spec.Mode)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, configErr(name, "", "pattern: %v", err)
	}

	declared := spec.Fields
	if len(declared) == 0 {
		for _, g := range re.SubexpNames() {
			if g != "" {
				declared = append(declared, Field{Name: g})
			}
		}
		if len(declared) == 0 {
			return nil, configErr(name, "", "pattern has no named groups and no fields are declared")
		}
	}

	fields, err := bindFields(name, declared)
	if err != nil {
		return nil, err
	}
	for i := range fields {
		g, err := groupIndex(re, fields[i].source())
		if err != nil {
			return nil, configErr(name, fields[i].Name, "%v", err)
		}
		fields[i].group = g
	}
	return &LineRule{name: name, re: re, mode: spec.Mode, fields: fields}, nil
}

// MustLineRule is NewLineRule for rules declared in code; it panics on error.
func MustLineRule(spec LineSpec) *LineRule {
	r, err := NewLineRule(spec)
	if err != nil {
		panic(err)
	}
	return r
}

func groupIndex(re *regexp.Regexp, src string) (int, error) {
	if i := re.SubexpIndex(src); i > 0 {
		return i, nil
	}
	if n, err := strconv.Atoi(src); err == nil && n >= 1 && n <= re.NumSubexp() {
		return n, nil
	}
	return 0, fmt.Errorf("unknown capture group %q (pattern has %d groups)", src, re.NumSubexp())
}

// Name returns the rule name used in skips and logs.
func (r *LineRule) Name() string { return r.name }

// FieldNames returns the output field names in declaration order.
func (r *LineRule) FieldNames() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Name
	}
	return out
}

// Records lazily applies the rule to every line. Each call re-reads lines, so
// the sequence is restartable exactly when lines is.
func (r *LineRule) Records(lines iter.Seq[string]) iter.Seq2[records.Record, *Skip] {
	return func(yield func(records.Record, *Skip) bool) {
		unit := 0
		for line := range lines {
			unit++
			line = strings.TrimRight(line, "\r\n")
			if !r.matchLine(line, unit, yield) {
				return
			}
		}
	}
}

// Extract materializes Records.
func (r *LineRule) Extract(lines iter.Seq[string]) Result {
	return Collect(r.Records(lines))
}

// matchLine yields the records produced by one line; it returns false when the
// consumer stopped iterating.
func (r *LineRule) matchLine(line string, unit int, yield func(records.Record, *Skip) bool) bool {
	if r.mode == MatchAll {
		for _, loc := range r.re.FindAllStringSubmatchIndex(line, -1) {
			rec, skip := r.build(line, loc, unit)
			if !yield(rec, skip) {
				return false
			}
		}
		return true
	}
	loc := r.re.FindStringSubmatchIndex(line)
	if loc == nil {
		return true
	}
	rec, skip := r.build(line, loc, unit)
	return yield(rec, skip)
}

// build converts one match into a record. Groups that did not participate in
// the match produce nil values.
func (r *LineRule) build(line string, loc []int, unit int) (records.Record, *Skip) {
	rec := records.New()
	for _, f := range r.fields {
		var raw any
		if start := loc[2*f.group]; start >= 0 {
			raw = line[start:loc[2*f.group+1]]
		}
		v, err := f.coerce(raw)
		if err != nil {
			return records.Record{}, &Skip{
				Rule:   r.name,
				Unit:   unit,
				Field:  f.Name,
				Value:  valueString(raw),
				Reason: err.Error(),
			}
		}
		rec.Set(f.Name, v)
	}
	return rec, nil
}
