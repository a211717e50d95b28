package extract

import (
	"fmt"
	"iter"

	"recordkit/pkg/records"
)

// RowSpec declares how parsed CSV rows become records.
type RowSpec struct {
	Name string
	// Fields maps header columns (From, defaulting to Name) onto output
	// fields. When empty, every header column becomes a string field named
	// after the normalized header, in header order.
	Fields []Field
	// Normalize passes every cell through NormalizeValue before coercion.
	Normalize bool
}

// RowRule is a compiled RowSpec. It is bound to a concrete header per call.
type RowRule struct {
	name      string
	fields    []boundField
	all       bool
	normalize bool
}

// NewRowRule compiles spec, reporting any configuration problem as a
// *ConfigError.
func NewRowRule(spec RowSpec) (*RowRule, error) {
	name := spec.Name
	if name == "" {
		name = "rows"
	}
	fields, err := bindFields(name, spec.Fields)
	if err != nil {
		return nil, err
	}
	return &RowRule{name: name, fields: fields, all: len(fields) == 0, normalize: spec.Normalize}, nil
}

// MustRowRule is NewRowRule for rules declared in code; it panics on error.
func MustRowRule(spec RowSpec) *RowRule {
	r, err := NewRowRule(spec)
	if err != nil {
		panic(err)
	}
	return r
}

// Name returns the rule name used in skips and logs.
func (r *RowRule) Name() string { return r.name }

// bind resolves each field's column index against header. When two header
// cells normalize to the same name the later column supplies the value; in
// all-column mode the field keeps the position of the first. A declared column
// that is missing from the header is a configuration error: it cannot be
// attributed to any single row.
func (r *RowRule) bind(header []string) ([]boundField, error) {
	var names []string
	pos := make(map[string]int, len(header))
	for i, h := range header {
		n := NormalizeHeader(h, i == 0)
		if _, dup := pos[n]; !dup {
			names = append(names, n)
		}
		pos[n] = i
	}

	if r.all {
		declared := make([]Field, len(names))
		for i, h := range names {
			declared[i] = Field{Name: h, Type: TypeString}
		}
		fields, err := bindFields(r.name, declared)
		if err != nil {
			return nil, err
		}
		for i := range fields {
			fields[i].group = pos[names[i]]
		}
		return fields, nil
	}

	fields := make([]boundField, len(r.fields))
	copy(fields, r.fields)
	for i := range fields {
		src := NormalizeHeader(fields[i].source(), false)
		idx, ok := pos[src]
		if !ok {
			return nil, configErr(r.name, fields[i].Name, "column %q not found in header", src)
		}
		fields[i].group = idx
	}
	return fields, nil
}

// Records binds the rule to header and returns a lazy record sequence over
// rows. Rows whose width differs from the header are skipped with a reason.
func (r *RowRule) Records(header []string, rows iter.Seq[[]string]) (iter.Seq2[records.Record, *Skip], error) {
	fields, err := r.bind(header)
	if err != nil {
		return nil, err
	}
	width := len(header)
	return func(yield func(records.Record, *Skip) bool) {
		unit := 0
		for row := range rows {
			unit++
			if len(row) != width {
				if !yield(records.Record{}, &Skip{
					Rule:   r.name,
					Unit:   unit,
					Reason: fmt.Sprintf("row has %d fields, header has %d", len(row), width),
				}) {
					return
				}
				continue
			}
			rec, skip := r.build(fields, row, unit)
			if !yield(rec, skip) {
				return
			}
		}
	}, nil
}

// Extract materializes Records.
func (r *RowRule) Extract(header []string, rows iter.Seq[[]string]) (Result, error) {
	seq, err := r.Records(header, rows)
	if err != nil {
		return Result{}, err
	}
	return Collect(seq), nil
}

func (r *RowRule) build(fields []boundField, row []string, unit int) (records.Record, *Skip) {
	rec := records.New()
	for _, f := range fields {
		raw := row[f.group]
		if r.normalize {
			raw = NormalizeValue(raw)
		}
		v, err := f.coerce(raw)
		if err != nil {
			return records.Record{}, &Skip{
				Rule:   r.name,
				Unit:   unit,
				Field:  f.Name,
				Value:  raw,
				Reason: err.Error(),
			}
		}
		rec.Set(f.Name, v)
	}
	return rec, nil
}
