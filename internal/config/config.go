// Package config defines the declarative rule-file model: one extraction rule,
// optional validation rules, and an ordered list of aggregation steps. Rule
// files are YAML or JSON and decode into the same Go structs.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the keys used in rule files.
//  3. Late binding: aggregation steps carry a free-form options bag read
//     through the Options helper, so new step kinds need no schema change.
//
// Example (YAML):
//
//	name: app-log-levels
//	extract:
//	  kind: line
//	  mode: prefix
//	  pattern: '(?P<date>\S+) (?P<time>\S+) (?P<level>\w+)(?: (?P<message>.*))?'
//	aggregate:
//	  - kind: count
//	    name: levels
//	    options: { key: [level], order: canonical, canonical: [INFO, DEBUG, WARN, ERROR] }
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ruleset is the top-level object decoded from a rule file.
type Ruleset struct {
	// Name identifies the rule file in logs and metrics.
	Name string `json:"name" yaml:"name"`

	// Extract is the single extraction rule that turns input into records.
	Extract Extract `json:"extract" yaml:"extract"`

	// Validate optionally checks every extracted record.
	Validate *Validate `json:"validate,omitempty" yaml:"validate,omitempty"`

	// Aggregate lists report steps, each applied to the extracted records.
	Aggregate []Step `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
}

// Extract configures one extraction rule. Which keys apply depends on Kind:
//
//	line: pattern, mode, fields
//	path: path, empty, fields
//	row:  fields
//	kv:   separator, fields
type Extract struct {
	Kind      string  `json:"kind" yaml:"kind"`
	Name      string  `json:"name,omitempty" yaml:"name,omitempty"`
	Pattern   string  `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Mode      string  `json:"mode,omitempty" yaml:"mode,omitempty"`
	Path      string  `json:"path,omitempty" yaml:"path,omitempty"`
	Empty     string  `json:"empty,omitempty" yaml:"empty,omitempty"`
	Separator string  `json:"separator,omitempty" yaml:"separator,omitempty"`
	Fields    []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
	// Normalize trims row cells and folds non-breaking spaces. Row rules only.
	Normalize bool `json:"normalize,omitempty" yaml:"normalize,omitempty"`
}

// Field maps a source onto an output field with an optional coercion.
type Field struct {
	Name   string   `json:"name" yaml:"name"`
	From   string   `json:"from,omitempty" yaml:"from,omitempty"`
	Type   string   `json:"type,omitempty" yaml:"type,omitempty"`
	Layout string   `json:"layout,omitempty" yaml:"layout,omitempty"`
	Truthy []string `json:"truthy,omitempty" yaml:"truthy,omitempty"`
	Falsy  []string `json:"falsy,omitempty" yaml:"falsy,omitempty"`
}

// Validate configures record validation.
type Validate struct {
	// ID names the field used to identify invalid rows in reports.
	ID    string  `json:"id" yaml:"id"`
	Rules []Check `json:"rules" yaml:"rules"`
}

// Check is one validation rule. Check selects a built-in (email, phone, date,
// required) or "pattern", which needs Pattern. Message overrides the failure
// message and may use {field} and {value}.
type Check struct {
	Field   string `json:"field" yaml:"field"`
	Check   string `json:"check" yaml:"check"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Step defines a single aggregation step. Steps are independent: each one
// reads the full record set.
type Step struct {
	// Kind selects the aggregation ("count", "sum", "span", "stats", "pick").
	Kind string `json:"kind" yaml:"kind"`

	// Name labels the step's report; defaults to Kind.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Options is a free-form map interpreted by the selected step.
	Options Options `json:"options,omitempty" yaml:"options,omitempty"`
}

// Label returns Name, or Kind when Name is empty.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Kind
}

// Format is a rule-file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the encoding from a file extension; anything that is not
// .json is read as YAML (a superset of JSON).
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads and decodes a rule file.
func Load(path string) (Ruleset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	rs, err := Decode(f, FormatOf(path))
	if err != nil {
		return Ruleset{}, fmt.Errorf("decode rules %s: %w", path, err)
	}
	return rs, nil
}

// Decode decodes a rule file. Unknown keys are rejected so that typos do not
// silently disable a rule.
func Decode(r io.Reader, format Format) (Ruleset, error) {
	var rs Ruleset
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rs); err != nil {
			return Ruleset{}, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&rs); err != nil && err != io.EOF {
			return Ruleset{}, err
		}
	default:
		return Ruleset{}, fmt.Errorf("unknown rules format %q", format)
	}
	return rs, nil
}

// Parse decodes rule-file bytes.
func Parse(data []byte, format Format) (Ruleset, error) {
	return Decode(bytes.NewReader(data), format)
}

// Options is a small helper to fetch typed values from free-form maps. It
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// YAML decodes integers as int and JSON as float64; both are accepted.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of
// strings. A single string is returned as a one-element slice, so "key: level"
// and "key: [level]" mean the same. Returns nil when the key is missing.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				switch s := x.(type) {
				case string:
					out = append(out, s)
				case int, int64, float64, bool:
					out = append(out, fmt.Sprint(s))
				}
			}
			return out
		case []string:
			return vv
		case string:
			return []string{vv}
		}
	}
	return nil
}

// Has reports whether key is present.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// UnmarshalJSON makes a missing or null "options" object decode to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
