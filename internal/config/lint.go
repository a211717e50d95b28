package config

import (
	"fmt"
	"regexp"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single lint finding for a Ruleset.
//
// Path is a dotted path into the rule file (e.g. "extract.mode",
// "aggregate[1].options.value"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Errors filters issues down to SeverityError.
func Errors(issues []Issue) []Issue {
	var out []Issue
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			out = append(out, iss)
		}
	}
	return out
}

// Lint performs static checks over a Ruleset.
//
// It does not mutate the rules and does not compile them; Compile still
// reports rule-level problems (bad regex groups, unknown types) as
// extract.ConfigError. Callers may decide whether to treat warnings as fatal.
//
// Example:
//
//	rs, err := config.Load("rules/app-log.yaml")
//	if err != nil { ... }
//	for _, iss := range config.Lint(rs) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func Lint(rs Ruleset) []Issue {
	var issues []Issue

	if strings.TrimSpace(rs.Name) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "name",
			Message:  "name is empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, lintExtract(rs.Extract)...)
	if rs.Validate != nil {
		issues = append(issues, lintValidate(*rs.Validate)...)
	}
	issues = append(issues, lintSteps(rs.Aggregate)...)
	if rs.Validate == nil && len(rs.Aggregate) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "aggregate",
			Message:  "no validate block and no aggregate steps; only extracted records will be reported",
		})
	}
	return issues
}

func lintExtract(e Extract) []Issue {
	var issues []Issue
	errorf := func(path, format string, args ...any) {
		issues = append(issues, Issue{Severity: SeverityError, Path: "extract." + path, Message: fmt.Sprintf(format, args...)})
	}

	switch e.Kind {
	case "":
		errorf("kind", "extract.kind must not be empty")
		return issues
	case "line":
		if strings.TrimSpace(e.Pattern) == "" {
			errorf("pattern", "line rule requires a pattern")
		} else if _, err := regexp.Compile(e.Pattern); err != nil {
			errorf("pattern", "pattern does not compile: %v", err)
		}
		switch e.Mode {
		case "search", "prefix", "full", "all":
		case "":
			errorf("mode", "line rule requires a mode (search, prefix, full, all)")
		default:
			errorf("mode", "unknown mode %q", e.Mode)
		}
	case "path":
		if strings.TrimSpace(e.Path) == "" {
			issues = append(issues, Issue{Severity: SeverityWarning, Path: "extract.path", Message: "empty path extracts the document root as a single record"})
		}
		switch e.Empty {
		case "skip", "null-row":
		case "":
			errorf("empty", "path rule requires an empty collection policy (skip, null-row)")
		default:
			errorf("empty", "unknown empty collection policy %q", e.Empty)
		}
		if len(e.Fields) == 0 {
			errorf("fields", "path rule requires at least one field")
		}
	case "row", "kv":
	default:
		errorf("kind", "unknown extract kind %q (line, path, row, kv)", e.Kind)
	}

	if e.Normalize && e.Kind != "row" {
		issues = append(issues, Issue{Severity: SeverityWarning, Path: "extract.normalize", Message: "normalize only applies to row rules"})
	}

	seen := map[string]struct{}{}
	for i, f := range e.Fields {
		p := fmt.Sprintf("fields[%d]", i)
		if strings.TrimSpace(f.Name) == "" {
			errorf(p+".name", "field name must not be empty")
			continue
		}
		if _, dup := seen[f.Name]; dup {
			errorf(p+".name", "duplicate field name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		switch strings.ToLower(f.Type) {
		case "", "string", "int", "float", "decimal", "bool", "timestamp":
		default:
			errorf(p+".type", "unknown type %q", f.Type)
		}
		if f.Layout != "" && strings.ToLower(f.Type) != "timestamp" {
			issues = append(issues, Issue{Severity: SeverityWarning, Path: "extract." + p + ".layout", Message: "layout only applies to timestamp fields"})
		}
		if e.Kind == "path" && f.From == "" {
			errorf(p+".from", "path rule fields require an absolute source path")
		}
	}
	return issues
}

func lintValidate(v Validate) []Issue {
	var issues []Issue
	if strings.TrimSpace(v.ID) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "validate.id",
			Message:  "no id field; invalid rows will be reported with an empty id",
		})
	}
	if len(v.Rules) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "validate.rules",
			Message:  "validate block has no rules; every record will be valid",
		})
	}
	for i, c := range v.Rules {
		p := fmt.Sprintf("validate.rules[%d]", i)
		if strings.TrimSpace(c.Field) == "" {
			issues = append(issues, Issue{Severity: SeverityError, Path: p + ".field", Message: "field must not be empty"})
		}
		switch strings.ToLower(c.Check) {
		case "email", "phone", "date", "required":
		case "pattern":
			if c.Pattern == "" {
				issues = append(issues, Issue{Severity: SeverityError, Path: p + ".pattern", Message: "pattern check requires a pattern"})
			} else if _, err := regexp.Compile(c.Pattern); err != nil {
				issues = append(issues, Issue{Severity: SeverityError, Path: p + ".pattern", Message: fmt.Sprintf("pattern does not compile: %v", err)})
			}
		case "":
			issues = append(issues, Issue{Severity: SeverityError, Path: p + ".check", Message: "check must not be empty"})
		default:
			issues = append(issues, Issue{Severity: SeverityError, Path: p + ".check", Message: fmt.Sprintf("unknown check %q", c.Check)})
		}
	}
	return issues
}

func lintSteps(steps []Step) []Issue {
	var issues []Issue

	knownKinds := map[string]struct{}{
		"count": {},
		"sum":   {},
		"span":  {},
		"stats": {},
		"pick":  {},
	}
	names := map[string]int{}

	for i, s := range steps {
		path := fmt.Sprintf("aggregate[%d]", i)
		errorf := func(key, format string, args ...any) {
			issues = append(issues, Issue{Severity: SeverityError, Path: path + "." + key, Message: fmt.Sprintf(format, args...)})
		}
		if strings.TrimSpace(s.Kind) == "" {
			errorf("kind", "aggregate kind must not be empty")
			continue
		}
		if _, ok := knownKinds[s.Kind]; !ok {
			errorf("kind", "unknown aggregate kind %q", s.Kind)
			continue
		}
		if prev, dup := names[s.Label()]; dup {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".name",
				Message:  fmt.Sprintf("report name %q already used by aggregate[%d]", s.Label(), prev),
			})
		} else {
			names[s.Label()] = i
		}

		switch s.Kind {
		case "count":
			if len(s.Options.StringSlice("key")) == 0 {
				errorf("options.key", "count requires at least one key field")
			}
			switch order := s.Options.String("order", "first-seen"); order {
			case "first-seen", "sorted", "most-common":
			case "canonical":
				if len(s.Options.StringSlice("canonical")) == 0 {
					errorf("options.canonical", "canonical order requires a canonical key list")
				}
			default:
				errorf("options.order", "unknown count order %q", order)
			}
		case "sum":
			if s.Options.String("value", "") == "" {
				errorf("options.value", "sum requires a value field")
			}
			switch order := s.Options.String("order", "first-seen"); order {
			case "first-seen", "sorted", "largest":
			default:
				errorf("options.order", "unknown sum order %q", order)
			}
		case "span":
			if s.Options.String("field", "") == "" {
				errorf("options.field", "span requires a timestamp field")
			}
			switch p := s.Options.String("policy", ""); p {
			case "", "assume-sorted", "true-extremes":
			default:
				errorf("options.policy", "unknown order policy %q", p)
			}
		case "stats":
			if s.Options.String("field", "") == "" {
				errorf("options.field", "stats requires a numeric field")
			}
		case "pick":
			if len(s.Options.StringSlice("key")) == 0 {
				errorf("options.key", "pick requires at least one key field")
			}
			switch p := s.Options.String("policy", ""); p {
			case "", "keep-first", "keep-last", "most-complete":
			default:
				errorf("options.policy", "unknown pick policy %q", p)
			}
		}
	}
	return issues
}
