// Package records defines Record, the flat, ordered field → value mapping that
// extraction rules produce and validators/aggregators consume.
//
// A Record keeps fields in insertion order because reports are printed in the
// order fields (and records) were discovered. Values are restricted to a small
// scalar set:
//
//	string, int64, float64, bool, time.Time, decimal.Decimal, nil
//
// Record wraps a pointer to its field storage. Copying a Record value shares
// that storage; use Clone before mutating a record built by someone else.
package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is an ordered mapping from field name to scalar value.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// Field is a single name/value pair of a Record.
type Field struct {
	Name  string
	Value any
}

// New builds a Record from fields in the given order. A later field with the
// same name overwrites the earlier value but keeps its original position.
func New(fields ...Field) Record {
	r := Record{fields: orderedmap.New[string, any](len(fields))}
	for _, f := range fields {
		r.fields.Set(f.Name, f.Value)
	}
	return r
}

// F is shorthand for Field{name, v}; it keeps literal records readable.
func F(name string, v any) Field { return Field{Name: name, Value: v} }

// Set stores v under name. New names are appended; existing names keep their
// position.
func (r *Record) Set(name string, v any) {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
	r.fields.Set(name, v)
}

// Get returns the value for name and whether the field exists.
func (r Record) Get(name string) (any, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(name)
}

// Value returns the value for name, or nil when the field is absent.
func (r Record) Value(name string) any {
	v, _ := r.Get(name)
	return v
}

// String returns the field rendered as a string ("" for nil or missing).
func (r Record) String(name string) string {
	return AsString(r.Value(name))
}

// Has reports whether the field exists (even when its value is nil).
func (r Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Len returns the number of fields.
func (r Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Keys returns the field names in insertion order.
func (r Record) Keys() []string {
	out := make([]string, 0, r.Len())
	if r.fields == nil {
		return out
	}
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// Fields returns a copy of the name/value pairs in insertion order.
func (r Record) Fields() []Field {
	out := make([]Field, 0, r.Len())
	if r.fields == nil {
		return out
	}
	for p := r.fields.Oldest(); p != nil; p = p.Next() {
		out = append(out, Field{Name: p.Key, Value: p.Value})
	}
	return out
}

// Clone returns a Record with its own storage. Scalar values are immutable, so
// a shallow value copy is a full copy.
func (r Record) Clone() Record {
	return New(r.Fields()...)
}

// Map returns the fields as a plain map. Order is lost; use Fields when order
// matters.
func (r Record) Map() map[string]any {
	out := make(map[string]any, r.Len())
	for _, f := range r.Fields() {
		out[f.Name] = f.Value
	}
	return out
}

// Equal reports whether both records hold the same fields, in the same order,
// with equal values.
func (r Record) Equal(o Record) bool {
	a, b := r.Fields(), o.Fields()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !ValueEqual(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

// MarshalJSON renders the record as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// GoString keeps test failure output readable.
func (r Record) GoString() string {
	var b strings.Builder
	b.WriteString("records.Record{")
	for i, f := range r.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %#v", f.Name, f.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// ValueEqual compares two record values. Decimals compare numerically and
// times compare by instant; everything else uses ==.
func ValueEqual(a, b any) bool {
	switch x := a.(type) {
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	switch b.(type) {
	case decimal.Decimal, time.Time:
		return false
	}
	return a == b
}

// AsString converts common record values to string without going through
// fmt.Sprint on the hot path.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// AsDecimal converts a numeric record value (or numeric string) to a decimal.
// It reports false for nil, non-numeric strings and non-numeric types.
func AsDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case float64:
		// Going through the shortest decimal form keeps 19.99 as 19.99.
		d, err := decimal.NewFromString(strconv.FormatFloat(t, 'f', -1, 64))
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}
