package extract

import (
	"iter"
	"strings"

	"recordkit/pkg/records"
)

// DefaultSeparator splits "key: value" lines.
const DefaultSeparator = ": "

// KVSpec declares how a key-value text document becomes one record.
//
// Every line containing Separator contributes key → value (both trimmed).
// Lines without it are ignored. Keys keep document order; a repeated key
// overwrites the earlier value in place. Fields only add coercions or
// renames for specific keys; undeclared keys are kept as strings.
type KVSpec struct {
	Name      string
	Separator string
	Fields    []Field
}

// KVRule is a compiled KVSpec.
type KVRule struct {
	name  string
	sep   string
	byKey map[string]boundField
}

// NewKVRule compiles spec, reporting any configuration problem as a
// *ConfigError.
func NewKVRule(spec KVSpec) (*KVRule, error) {
	name := spec.Name
	if name == "" {
		name = "kv"
	}
	sep := spec.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	fields, err := bindFields(name, spec.Fields)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]boundField, len(fields))
	for _, f := range fields {
		if _, dup := byKey[f.source()]; dup {
			return nil, configErr(name, f.Name, "key %q declared twice", f.source())
		}
		byKey[f.source()] = f
	}
	return &KVRule{name: name, sep: sep, byKey: byKey}, nil
}

// MustKVRule is NewKVRule for rules declared in code; it panics on error.
func MustKVRule(spec KVSpec) *KVRule {
	r, err := NewKVRule(spec)
	if err != nil {
		panic(err)
	}
	return r
}

// Name returns the rule name used in skips and logs.
func (r *KVRule) Name() string { return r.name }

// Records yields one record per document. A document is the line sequence of
// one file; the unit index is the document position.
func (r *KVRule) Records(docs iter.Seq[iter.Seq[string]]) iter.Seq2[records.Record, *Skip] {
	return func(yield func(records.Record, *Skip) bool) {
		unit := 0
		for doc := range docs {
			unit++
			rec, skip := r.document(doc, unit)
			if !yield(rec, skip) {
				return
			}
		}
	}
}

// Extract materializes Records.
func (r *KVRule) Extract(docs iter.Seq[iter.Seq[string]]) Result {
	return Collect(r.Records(docs))
}

func (r *KVRule) document(lines iter.Seq[string], unit int) (records.Record, *Skip) {
	rec := records.New()
	for line := range lines {
		key, value, ok := strings.Cut(strings.TrimSpace(line), r.sep)
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		f, declared := r.byKey[key]
		if !declared {
			rec.Set(key, value)
			continue
		}
		v, err := f.coerce(value)
		if err != nil {
			return records.Record{}, &Skip{
				Rule:   r.name,
				Unit:   unit,
				Field:  f.Name,
				Value:  value,
				Reason: err.Error(),
			}
		}
		rec.Set(f.Name, v)
	}
	return rec, nil
}
