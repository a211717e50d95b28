// Package merge combines and reshapes nested documents.
//
// Merge is a recursive override-wins merge over tree.Node values. Flatten
// turns a one-to-many nesting (users → posts) into flat records, keeping
// childless parents as a single row.
//
// Neither operation modifies its inputs, and results never share nodes with
// them.
package merge

import (
	"recordkit/internal/tree"
)

// Merge overlays override onto base.
//
// For each key of override: when both sides hold mappings they are merged
// recursively, otherwise the override value replaces the base value entirely
// (sequences are replaced, not concatenated). Keys only in base keep their
// base position; keys only in override are appended in override order. When
// either side is not a mapping the override wins. A nil override leaves base
// unchanged.
func Merge(base, override *tree.Node) *tree.Node {
	if override == nil {
		return base.Clone()
	}
	if !base.IsMapping() || !override.IsMapping() {
		return override.Clone()
	}
	out := tree.NewMapping()
	for _, k := range base.Keys() {
		b, _ := base.Get(k)
		if o, ok := override.Get(k); ok {
			out.Set(k, Merge(b, o))
			continue
		}
		out.Set(k, b.Clone())
	}
	for _, k := range override.Keys() {
		if _, seen := base.Get(k); seen {
			continue
		}
		o, _ := override.Get(k)
		out.Set(k, o.Clone())
	}
	return out
}

// All folds Merge over docs left to right: later documents win.
func All(docs ...*tree.Node) *tree.Node {
	if len(docs) == 0 {
		return tree.NewMapping()
	}
	out := docs[0].Clone()
	for _, d := range docs[1:] {
		out = Merge(out, d)
	}
	return out
}
