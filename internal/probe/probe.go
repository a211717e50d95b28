// Package probe infers column types from a CSV sample and turns the result
// into a row extraction rule.
//
// Inference is conservative: a column gets a type only when every non-empty
// sample parses as that type. The order of attempts is integer, boolean,
// real, then date/timestamp; anything else is text.
package probe

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"recordkit/internal/extract"
)

// Inferred column kinds.
const (
	KindText      = "text"
	KindInteger   = "integer"
	KindBoolean   = "boolean"
	KindReal      = "real"
	KindDate      = "date"
	KindTimestamp = "timestamp"
)

// Column is the inference result for one header column.
type Column struct {
	// Header is the normalized header text (BOM removed, NFC, trimmed).
	Header string
	// Name is the folded field name (lowercase ASCII with underscores).
	Name string
	Kind string
	// Layout is the best time layout for date and timestamp columns.
	Layout string
	// Required is set when no sampled value was empty.
	Required bool
}

// Profile is the per-column inference result for a sample.
type Profile struct {
	Columns []Column
	Rows    int
}

// Infer runs type inference over s.
func Infer(s Sample) Profile {
	n := len(s.Header)
	cols := make([][]string, n)
	empty := make([]bool, n)
	for _, row := range s.Rows {
		for i := 0; i < n && i < len(row); i++ {
			v := strings.TrimSpace(row[i])
			if v == "" {
				empty[i] = true
				continue
			}
			cols[i] = append(cols[i], v)
		}
	}

	p := Profile{Columns: make([]Column, n), Rows: len(s.Rows)}
	names := map[string]int{}
	for i, h := range s.Header {
		kind := inferKind(cols[i])
		c := Column{
			Header:   h,
			Name:     uniqueName(names, extract.FoldName(h)),
			Kind:     kind,
			Required: len(s.Rows) > 0 && !empty[i],
		}
		switch kind {
		case KindTimestamp:
			c.Layout = selectBestLayout(cols[i], timestampLayouts, timestampLayoutPreference)
		case KindDate:
			c.Layout = selectBestLayout(cols[i], dateLayouts, dateLayoutPreference)
		}
		p.Columns[i] = c
	}
	return p
}

// uniqueName suffixes repeated folded names with _2, _3, ...
func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	if n := seen[name]; n > 1 {
		return fmt.Sprintf("%s_%d", name, n)
	}
	return name
}

// inferKind picks the narrowest kind every value parses as. values holds
// trimmed, non-empty samples.
func inferKind(values []string) string {
	if len(values) == 0 {
		return KindText
	}
	if allMatch(values, isInt) {
		return KindInteger
	}
	if allMatch(values, isBool) {
		return KindBoolean
	}
	if allMatch(values, isFloat) {
		return KindReal
	}
	// Prefer timestamp when any value carries a time component.
	anyTime := false
	for _, v := range values {
		ok, hasTime := parseDateOrTimestamp(v)
		if !ok {
			return KindText
		}
		anyTime = anyTime || hasTime
	}
	if anyTime {
		return KindTimestamp
	}
	return KindDate
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

func isBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "t", "f", "yes", "no", "y", "n", "1", "0":
		return true
	default:
		return false
	}
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isFloat excludes integers so integer columns keep their kind.
func isFloat(s string) bool {
	if isInt(s) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func parseDateOrTimestamp(s string) (ok bool, hasTime bool) {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true, true
		}
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true, false
		}
	}
	return false, false
}

// FieldType maps an inferred kind onto an extraction coercion. Reals become
// decimals so sums over them stay exact.
func FieldType(kind string) extract.FieldType {
	switch kind {
	case KindInteger:
		return extract.TypeInt
	case KindBoolean:
		return extract.TypeBool
	case KindReal:
		return extract.TypeDecimal
	case KindDate, KindTimestamp:
		return extract.TypeTimestamp
	default:
		return extract.TypeString
	}
}

// RowSpec builds a row rule declaration from the profile. With fold set, output
// fields use the folded names; otherwise they keep the header text.
func (p Profile) RowSpec(name string, fold bool) extract.RowSpec {
	spec := extract.RowSpec{Name: name, Fields: make([]extract.Field, len(p.Columns))}
	for i, c := range p.Columns {
		out := c.Header
		if fold {
			out = c.Name
		}
		spec.Fields[i] = extract.Field{
			Name:   out,
			From:   c.Header,
			Type:   FieldType(c.Kind),
			Layout: c.Layout,
		}
	}
	return spec
}

// Render prints one "header,name,kind" line per column.
func (p Profile) Render() []byte {
	var buf bytes.Buffer
	for _, c := range p.Columns {
		fmt.Fprintf(&buf, "%s,%s,%s\n", c.Header, c.Name, c.Kind)
	}
	return buf.Bytes()
}
