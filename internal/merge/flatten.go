package merge

import (
	"strings"

	"recordkit/internal/extract"
	"recordkit/internal/tree"
)

// FlattenSpec declares a parent/child flatten.
//
//	Parents:      data.users[]
//	Children:     posts
//	ParentFields: user_id ← id, user_name ← name
//	ChildFields:  post_id ← id, post_title ← title
//
// Field sources are relative: parent fields to a parent element, child fields
// to a child element. A source of "." is the element itself. Output fields
// are parent fields then child fields.
type FlattenSpec struct {
	Name         string
	Parents      string
	Children     string
	ParentFields []extract.Field
	ChildFields  []extract.Field
}

// Rule compiles spec into the equivalent path rule with the null-row policy.
func (spec FlattenSpec) Rule() (*extract.PathRule, error) {
	name := spec.Name
	if name == "" {
		name = "flatten"
	}
	parents := strings.TrimSpace(spec.Parents)
	if !strings.HasSuffix(parents, "[]") {
		return nil, &extract.ConfigError{Rule: name, Msg: "parents path must end with [] so childless parents can be kept"}
	}
	children := strings.TrimSpace(spec.Children)
	if children == "" || strings.ContainsAny(children, ".[]") {
		return nil, &extract.ConfigError{Rule: name, Msg: "children must be a single key"}
	}
	childPath := join(parents, children+"[]")

	fields := make([]extract.Field, 0, len(spec.ParentFields)+len(spec.ChildFields))
	for _, f := range spec.ParentFields {
		f.From = join(parents, source(f))
		fields = append(fields, f)
	}
	for _, f := range spec.ChildFields {
		f.From = join(childPath, source(f))
		fields = append(fields, f)
	}
	return extract.NewPathRule(extract.PathSpec{
		Name:   name,
		Path:   childPath,
		Fields: fields,
		Empty:  extract.EmptyNullRow,
	})
}

// Flatten emits one record per child carrying its parent's fields, and one
// record with null child fields for every parent without children.
func Flatten(doc *tree.Node, spec FlattenSpec) (extract.Result, error) {
	r, err := spec.Rule()
	if err != nil {
		return extract.Result{}, err
	}
	return r.Extract(extract.One(doc)), nil
}

// source returns the relative path of f; "." is the element itself.
func source(f extract.Field) string {
	switch f.From {
	case "":
		return f.Name
	case ".":
		return ""
	default:
		return f.From
	}
}

func join(prefix, rel string) string {
	if rel == "" {
		return prefix
	}
	return prefix + "." + rel
}
