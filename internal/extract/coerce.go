package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"recordkit/internal/tree"
)

// FieldType names the coercion applied to an extracted value.
type FieldType string

const (
	// TypeAuto keeps the value as found: strings stay strings, JSON numbers
	// become int64/float64.
	TypeAuto      FieldType = ""
	TypeString    FieldType = "string"
	TypeInt       FieldType = "int"
	TypeFloat     FieldType = "float"
	TypeDecimal   FieldType = "decimal"
	TypeBool      FieldType = "bool"
	TypeTimestamp FieldType = "timestamp"
)

// DefaultTimestampLayout is used by timestamp fields without a Layout.
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// Field maps one capture group, CSV column, key or source path onto an output
// field, with an optional coercion.
type Field struct {
	// Name is the output field name. Names are unique within a rule.
	Name string
	// From names the source: a capture group name or position for line rules,
	// a header column for row rules, a key for key-value rules, an absolute
	// path for path rules. Empty means Name.
	From string
	// Type selects the coercion; TypeAuto when empty.
	Type FieldType
	// Layout is the time layout for TypeTimestamp.
	Layout string
	// Truthy/Falsy override the default boolean vocabulary for TypeBool.
	Truthy []string
	Falsy  []string
}

func (f Field) source() string {
	if f.From != "" {
		return f.From
	}
	return f.Name
}

// coercer converts a raw value into the field's declared type. Nil passes
// through as nil: absence is not a coercion failure.
type coercer func(v any) (any, error)

// compileCoercer builds the per-field conversion once so the hot loop does not
// switch on type names per value.
func compileCoercer(f Field) (coercer, error) {
	switch FieldType(strings.ToLower(string(f.Type))) {
	case TypeAuto:
		return func(v any) (any, error) { return tree.Normalize(v), nil }, nil

	case TypeString:
		return func(v any) (any, error) {
			switch t := v.(type) {
			case nil, string:
				return t, nil
			case json.Number:
				return t.String(), nil
			case bool:
				return strconv.FormatBool(t), nil
			default:
				return fmt.Sprint(t), nil
			}
		}, nil

	case TypeInt:
		return func(v any) (any, error) {
			switch t := v.(type) {
			case nil:
				return nil, nil
			case int64:
				return t, nil
			case json.Number:
				return intFrom(t.String())
			case string:
				return intFrom(t)
			default:
				return nil, fmt.Errorf("type %T not int-convertible", v)
			}
		}, nil

	case TypeFloat:
		return func(v any) (any, error) {
			switch t := v.(type) {
			case nil:
				return nil, nil
			case float64:
				return t, nil
			case int64:
				return float64(t), nil
			case json.Number, string:
				s := strings.TrimSpace(fmt.Sprint(t))
				f, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, fmt.Errorf("%q not a float", s)
				}
				return f, nil
			default:
				return nil, fmt.Errorf("type %T not float-convertible", v)
			}
		}, nil

	case TypeDecimal:
		return func(v any) (any, error) {
			switch t := v.(type) {
			case nil:
				return nil, nil
			case json.Number, string:
				s := strings.TrimSpace(fmt.Sprint(t))
				d, err := decimal.NewFromString(s)
				if err != nil {
					return nil, fmt.Errorf("%q not a decimal", s)
				}
				return d, nil
			case int64:
				return decimal.NewFromInt(t), nil
			case float64:
				return decimal.NewFromFloat(t), nil
			default:
				return nil, fmt.Errorf("type %T not decimal-convertible", v)
			}
		}, nil

	case TypeBool:
		truthy := lowerSet(f.Truthy)
		falsy := lowerSet(f.Falsy)
		custom := len(truthy) > 0 || len(falsy) > 0
		return func(v any) (any, error) {
			switch t := v.(type) {
			case nil:
				return nil, nil
			case bool:
				return t, nil
			case string:
				b, ok := toBool(strings.TrimSpace(t), custom, truthy, falsy)
				if !ok {
					return nil, fmt.Errorf("%q not a recognized boolean", t)
				}
				return b, nil
			default:
				return nil, fmt.Errorf("type %T not bool-convertible", v)
			}
		}, nil

	case TypeTimestamp:
		layout := f.Layout
		if layout == "" {
			layout = DefaultTimestampLayout
		}
		return func(v any) (any, error) {
			switch t := v.(type) {
			case nil:
				return nil, nil
			case time.Time:
				return t, nil
			case string:
				ts, err := time.Parse(layout, strings.TrimSpace(t))
				if err != nil {
					return nil, fmt.Errorf("%q does not match layout %q", t, layout)
				}
				return ts, nil
			default:
				return nil, fmt.Errorf("type %T not timestamp-convertible", v)
			}
		}, nil

	default:
		return nil, fmt.Errorf("unknown field type %q", f.Type)
	}
}

// intFrom parses base-10 integers and accepts integral floats such as "42.0".
// Empty input is invalid.
func intFrom(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty value not an int")
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	// Only consider float fallback if there is a dot; avoids extra work.
	if strings.IndexByte(s, '.') >= 0 {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return int64(f), nil
		}
	}
	return nil, fmt.Errorf("%q not an int", s)
}

// toBool resolves booleans with optional custom vocabularies.
func toBool(s string, custom bool, truthy, falsy map[string]struct{}) (bool, bool) {
	ls := strings.ToLower(s)
	if ls == "" {
		return false, false
	}
	if custom {
		if _, ok := truthy[ls]; ok {
			return true, true
		}
		if _, ok := falsy[ls]; ok {
			return false, true
		}
		return false, false
	}
	switch ls {
	case "1", "t", "true", "yes", "y":
		return true, true
	case "0", "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

// lowerSet builds a lowercased membership set. Empty input returns nil.
func lowerSet(in []string) map[string]struct{} {
	if len(in) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(in))
	for _, s := range in {
		m[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return m
}

// boundField is a Field resolved against a rule: its coercer is compiled and,
// for line rules, its capture group index is known.
type boundField struct {
	Field
	group  int
	depth  int
	rest   tree.Path
	coerce coercer
}

// bindFields checks names and types shared by every rule kind.
func bindFields(rule string, fields []Field) ([]boundField, error) {
	seen := make(map[string]struct{}, len(fields))
	out := make([]boundField, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, configErr(rule, "", "field with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, configErr(rule, f.Name, "duplicate field name")
		}
		seen[f.Name] = struct{}{}
		c, err := compileCoercer(f)
		if err != nil {
			return nil, configErr(rule, f.Name, "%v", err)
		}
		out = append(out, boundField{Field: f, coerce: c})
	}
	return out, nil
}

// valueString renders a raw value for skip diagnostics.
func valueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
