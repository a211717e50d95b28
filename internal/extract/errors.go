package extract

import (
	"errors"
	"fmt"
)

// ErrConfig is the sentinel wrapped by every ConfigError, so callers can test
// with errors.Is(err, extract.ErrConfig).
var ErrConfig = errors.New("invalid extraction rule")

// ConfigError reports an ill-formed rule: duplicate field names, unknown
// types, missing capture groups and the like. It is returned by the rule
// constructors before any input is read.
type ConfigError struct {
	Rule  string
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("rule %q: field %q: %s", e.Rule, e.Field, e.Msg)
	}
	return fmt.Sprintf("rule %q: %s", e.Rule, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

func configErr(rule, field, format string, args ...any) *ConfigError {
	return &ConfigError{Rule: rule, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Skip records why a matched input unit produced no record: a coercion
// failure, a malformed row, or a shape mismatch in a nested document. Skips
// are collected on the side and never stop an extraction.
type Skip struct {
	Rule   string
	Unit   int // 1-based index of the line, row or document
	Field  string
	Value  string
	Reason string
}

func (s Skip) Error() string {
	if s.Field != "" {
		return fmt.Sprintf("%s: unit %d: field %q: %s", s.Rule, s.Unit, s.Field, s.Reason)
	}
	return fmt.Sprintf("%s: unit %d: %s", s.Rule, s.Unit, s.Reason)
}
