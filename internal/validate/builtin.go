package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"recordkit/pkg/records"
)

// Reasons reported by the built-in checks.
const (
	ReasonEmpty         = "empty"
	ReasonInvalidFormat = "invalid format"
	ReasonInvalidLength = "invalid length"
	ReasonMissing       = "missing"
	ReasonInvalid       = "invalid"
)

// DateLayout is the calendar format accepted by Date.
const DateLayout = "2006-01-02"

// Phone digit bounds, inclusive.
const (
	PhoneMinDigits = 7
	PhoneMaxDigits = 15
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email requires a non-empty address of the form local@domain.tld.
func Email(field string) Rule {
	return Rule{Field: field, Check: func(v any) (string, string) {
		s := records.AsString(v)
		if s == "" {
			return ReasonEmpty, "Empty email"
		}
		if !emailRe.MatchString(s) {
			return ReasonInvalidFormat, "Invalid format"
		}
		return "", ""
	}}
}

// Phone requires between PhoneMinDigits and PhoneMaxDigits digits once every
// non-digit is removed.
func Phone(field string) Rule {
	return Rule{Field: field, Check: func(v any) (string, string) {
		n := 0
		for _, r := range records.AsString(v) {
			if r >= '0' && r <= '9' {
				n++
			}
		}
		if n < PhoneMinDigits || n > PhoneMaxDigits {
			return ReasonInvalidLength, "Invalid length"
		}
		return "", ""
	}}
}

// Date requires a YYYY-MM-DD calendar date. Impossible dates such as
// 2024-02-30 fail like malformed ones.
func Date(field string) Rule {
	return Rule{Field: field, Check: func(v any) (string, string) {
		if _, ok := v.(time.Time); ok {
			return "", ""
		}
		if _, err := time.Parse(DateLayout, records.AsString(v)); err != nil {
			return ReasonInvalidFormat, "Invalid format"
		}
		return "", ""
	}}
}

// Required rejects missing, nil and blank values.
func Required(field string) Rule {
	return Rule{Field: field, Check: func(v any) (string, string) {
		if v == nil || strings.TrimFunc(records.AsString(v), unicode.IsSpace) == "" {
			return ReasonMissing, "Missing"
		}
		return "", ""
	}}
}

// Pattern requires the string form of the value to match re.
func Pattern(field string, re *regexp.Regexp) Rule {
	return Rule{Field: field, Check: func(v any) (string, string) {
		if !re.MatchString(records.AsString(v)) {
			return ReasonInvalidFormat, "Invalid format"
		}
		return "", ""
	}}
}

// Predicate fails when ok returns false. The message is rendered from
// template, where {field} and {value} expand to the field name and the value.
func Predicate(field string, ok func(v any) bool, template string) Rule {
	return Rule{Field: field, Check: func(v any) (string, string) {
		if ok(v) {
			return "", ""
		}
		return ReasonInvalid, Render(template, field, v)
	}}
}

// Render expands {field} and {value} in template.
func Render(template, field string, v any) string {
	r := strings.NewReplacer("{field}", field, "{value}", records.AsString(v))
	return r.Replace(template)
}

// Builtin returns a named built-in rule: email, phone, date or required.
func Builtin(name, field string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "email":
		return Email(field), nil
	case "phone":
		return Phone(field), nil
	case "date":
		return Date(field), nil
	case "required":
		return Required(field), nil
	default:
		return Rule{}, fmt.Errorf("validate: unknown check %q", name)
	}
}
