package extract

import (
	"fmt"
	"iter"

	"recordkit/internal/tree"
	"recordkit/pkg/records"
)

// EmptyPolicy decides what a PathRule emits for an empty nested collection.
// It has no default: every path rule declares it.
type EmptyPolicy string

const (
	// EmptySkip emits nothing for an empty nested collection.
	EmptySkip EmptyPolicy = "skip"
	// EmptyNullRow emits one record for the enclosing element, with every
	// field that lives inside the empty collection set to null.
	EmptyNullRow EmptyPolicy = "null-row"
)

// PathSpec declares a tree extraction rule.
//
// Path is walked from the document root; every "[]" iterates a sequence and
// one record is emitted per terminal node. Each field's From is an absolute
// path that shares the rule path's iteration prefix, for example:
//
//	Path:   data.users[].posts[]
//	Fields: user_id    ← data.users[].id
//	        post_title ← data.users[].posts[].title
//	        status     ← status
//
// The empty policy applies to nested collections only. When the outermost
// collection is empty there is no enclosing element to report, so no record
// is emitted under either policy.
type PathSpec struct {
	Name   string
	Path   string
	Fields []Field
	Empty  EmptyPolicy
}

// PathRule is a compiled PathSpec.
type PathRule struct {
	name   string
	path   tree.Path
	empty  EmptyPolicy
	fields []boundField
}

// NewPathRule compiles spec, reporting any configuration problem as a
// *ConfigError.
func NewPathRule(spec PathSpec) (*PathRule, error) {
	name := spec.Name
	if name == "" {
		name = "path"
	}
	switch spec.Empty {
	case EmptySkip, EmptyNullRow:
	case "":
		return nil, configErr(name, "", "empty collection policy is required (skip, null-row)")
	default:
		return nil, configErr(name, "", "unknown empty collection policy %q", spec.Empty)
	}
	p, err := tree.ParsePath(spec.Path)
	if err != nil {
		return nil, configErr(name, "", "%v", err)
	}
	if len(spec.Fields) == 0 {
		return nil, configErr(name, "", "at least one field is required")
	}
	fields, err := bindFields(name, spec.Fields)
	if err != nil {
		return nil, err
	}
	for i := range fields {
		if fields[i].From == "" {
			return nil, configErr(name, fields[i].Name, "source path (from) is required")
		}
		fp, err := tree.ParsePath(fields[i].From)
		if err != nil {
			return nil, configErr(name, fields[i].Name, "%v", err)
		}
		depth := p.SharedPrefix(fp)
		rest := fp[depth:]
		if rest.Iterations() > 0 {
			return nil, configErr(name, fields[i].Name, "source %q iterates outside rule path %q", fields[i].From, p)
		}
		fields[i].depth = depth
		fields[i].rest = rest
	}
	return &PathRule{name: name, path: p, empty: spec.Empty, fields: fields}, nil
}

// MustPathRule is NewPathRule for rules declared in code; it panics on error.
func MustPathRule(spec PathSpec) *PathRule {
	r, err := NewPathRule(spec)
	if err != nil {
		panic(err)
	}
	return r
}

// Name returns the rule name used in skips and logs.
func (r *PathRule) Name() string { return r.name }

// Records lazily walks every document. Documents are only read, never
// modified; emitted records copy the scalar values they reference.
func (r *PathRule) Records(docs iter.Seq[*tree.Node]) iter.Seq2[records.Record, *Skip] {
	return func(yield func(records.Record, *Skip) bool) {
		unit := 0
		for doc := range docs {
			unit++
			w := walker{rule: r, unit: unit, yield: yield, ctx: make([]*tree.Node, len(r.path)+1)}
			w.ctx[0] = doc
			if !w.descend(0, false) {
				return
			}
		}
	}
}

// Extract materializes Records.
func (r *PathRule) Extract(docs iter.Seq[*tree.Node]) Result {
	return Collect(r.Records(docs))
}

// walker holds the per-document state of a path walk. ctx[i] is the node
// reached after the first i segments of the rule path.
type walker struct {
	rule  *PathRule
	unit  int
	yield func(records.Record, *Skip) bool
	ctx   []*tree.Node
}

// descend processes segment i. nested is true once an enclosing sequence has
// been entered, which is what makes a null row meaningful.
func (w *walker) descend(i int, nested bool) bool {
	p := w.rule.path
	if i == len(p) {
		return w.emit(len(p) + 1)
	}
	seg := p[i]
	next := w.ctx[i]
	if seg.Key != "" {
		next, _ = next.Get(seg.Key)
	}
	if !seg.Each {
		w.ctx[i+1] = next
		return w.descend(i+1, nested)
	}

	switch {
	case next.IsSequence() && next.Len() > 0:
		for _, item := range next.Items() {
			w.ctx[i+1] = item
			if !w.descend(i+1, true) {
				return false
			}
		}
		return true
	case next.IsNull() || next.IsSequence():
		if nested && w.rule.empty == EmptyNullRow {
			return w.emit(i + 1)
		}
		return true
	default:
		return w.yield(records.Record{}, &Skip{
			Rule:   w.rule.name,
			Unit:   w.unit,
			Reason: fmt.Sprintf("expected sequence at %s, found %s", p[:i+1], next.Kind()),
		})
	}
}

// emit builds one record from the first valid context entries. Fields that
// resolve below the last valid entry are null.
func (w *walker) emit(valid int) bool {
	rec := records.New()
	for _, f := range w.rule.fields {
		var raw any
		if f.depth < valid {
			n, ok := f.rest.Resolve(w.ctx[f.depth])
			if ok && !n.IsNull() {
				if n.Kind() != tree.Scalar {
					return w.yield(records.Record{}, &Skip{
						Rule:   w.rule.name,
						Unit:   w.unit,
						Field:  f.Name,
						Reason: fmt.Sprintf("source %s is a %s, not a scalar", f.From, n.Kind()),
					})
				}
				raw = n.Value()
			}
		}
		v, err := f.coerce(raw)
		if err != nil {
			return w.yield(records.Record{}, &Skip{
				Rule:   w.rule.name,
				Unit:   w.unit,
				Field:  f.Name,
				Value:  valueString(raw),
				Reason: err.Error(),
			})
		}
		rec.Set(f.Name, v)
	}
	return w.yield(rec, nil)
}
