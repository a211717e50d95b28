// Package tree implements Node, the tagged value variant used for nested
// documents (parsed JSON or YAML).
//
// A Node is exactly one of:
//
//   - Scalar:   a string, int64, float64, bool, json.Number or nil value
//   - Mapping:  an ordered key → *Node mapping
//   - Sequence: an ordered list of *Node
//
// Recursive algorithms (merge, flatten, path walking) switch on Kind and so
// terminate structurally on the variant's shape. Nodes returned by decoders
// are treated as immutable; the Set/Append builders exist for constructing new
// trees and must not be used on trees owned by someone else.
package tree

import (
	"encoding/json"
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies which variant a Node holds.
type Kind uint8

const (
	Scalar Kind = iota
	Mapping
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Node is a scalar, mapping or sequence. The zero Node is a null scalar.
type Node struct {
	kind   Kind
	value  any
	fields *orderedmap.OrderedMap[string, *Node]
	items  []*Node
}

// Null returns a new null scalar.
func Null() *Node { return &Node{kind: Scalar} }

// NewScalar wraps v as a scalar node. int and float32 values are widened to
// int64/float64 so equality does not depend on the producer's integer width.
func NewScalar(v any) *Node {
	switch t := v.(type) {
	case int:
		v = int64(t)
	case int32:
		v = int64(t)
	case float32:
		v = float64(t)
	}
	return &Node{kind: Scalar, value: v}
}

// NewMapping returns an empty mapping node.
func NewMapping() *Node {
	return &Node{kind: Mapping, fields: orderedmap.New[string, *Node]()}
}

// NewSequence returns a sequence node holding items. Nil items become nulls.
func NewSequence(items ...*Node) *Node {
	n := &Node{kind: Sequence, items: make([]*Node, 0, len(items))}
	for _, it := range items {
		n.Append(it)
	}
	return n
}

// Kind returns the node's variant. A nil *Node reports Scalar (null).
func (n *Node) Kind() Kind {
	if n == nil {
		return Scalar
	}
	return n.kind
}

// IsMapping reports whether n is a mapping.
func (n *Node) IsMapping() bool { return n.Kind() == Mapping }

// IsSequence reports whether n is a sequence.
func (n *Node) IsSequence() bool { return n.Kind() == Sequence }

// IsNull reports whether n is nil or a null scalar.
func (n *Node) IsNull() bool {
	return n == nil || (n.kind == Scalar && n.value == nil)
}

// Value returns the scalar value, or nil for mappings and sequences.
func (n *Node) Value() any {
	if n == nil || n.kind != Scalar {
		return nil
	}
	return n.value
}

// Get returns the child under key for mappings.
func (n *Node) Get(key string) (*Node, bool) {
	if n.Kind() != Mapping {
		return nil, false
	}
	return n.fields.Get(key)
}

// Keys returns mapping keys in order; nil for other kinds.
func (n *Node) Keys() []string {
	if n.Kind() != Mapping {
		return nil
	}
	out := make([]string, 0, n.fields.Len())
	for p := n.fields.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// Items returns a copy of the sequence elements; nil for other kinds.
func (n *Node) Items() []*Node {
	if n.Kind() != Sequence {
		return nil
	}
	return append([]*Node(nil), n.items...)
}

// Len returns the number of mapping entries or sequence items, 0 for scalars.
func (n *Node) Len() int {
	switch n.Kind() {
	case Mapping:
		return n.fields.Len()
	case Sequence:
		return len(n.items)
	default:
		return 0
	}
}

// Set stores child under key. It panics if n is not a mapping.
func (n *Node) Set(key string, child *Node) {
	if n.Kind() != Mapping {
		panic("tree: Set on " + n.Kind().String())
	}
	if child == nil {
		child = Null()
	}
	n.fields.Set(key, child)
}

// Append adds child to a sequence. It panics if n is not a sequence.
func (n *Node) Append(child *Node) {
	if n.Kind() != Sequence {
		panic("tree: Append on " + n.Kind().String())
	}
	if child == nil {
		child = Null()
	}
	n.items = append(n.items, child)
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	switch n.Kind() {
	case Mapping:
		out := NewMapping()
		for p := n.fields.Oldest(); p != nil; p = p.Next() {
			out.fields.Set(p.Key, p.Value.Clone())
		}
		return out
	case Sequence:
		out := &Node{kind: Sequence, items: make([]*Node, len(n.items))}
		for i, it := range n.items {
			out.items[i] = it.Clone()
		}
		return out
	default:
		if n == nil {
			return Null()
		}
		return &Node{kind: Scalar, value: n.value}
	}
}

// Equal reports structural equality. Mapping key order is ignored (two
// mappings are equal when they hold the same keys with equal children);
// sequence order matters. Numbers compare by value across int64, float64 and
// json.Number.
func Equal(a, b *Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case Mapping:
		if a.Len() != b.Len() {
			return false
		}
		for p := a.fields.Oldest(); p != nil; p = p.Next() {
			other, ok := b.fields.Get(p.Key)
			if !ok || !Equal(p.Value, other) {
				return false
			}
		}
		return true
	case Sequence:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	default:
		return scalarEqual(a.Value(), b.Value())
	}
}

func scalarEqual(a, b any) bool {
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		return ok && fa == fb
	}
	return a == b
}

// number widens numeric scalars for comparison.
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Interface converts n to plain Go values: map[string]any, []any and scalars.
// json.Number scalars are converted with Normalize.
func (n *Node) Interface() any {
	switch n.Kind() {
	case Mapping:
		out := make(map[string]any, n.fields.Len())
		for p := n.fields.Oldest(); p != nil; p = p.Next() {
			out[p.Key] = p.Value.Interface()
		}
		return out
	case Sequence:
		out := make([]any, len(n.items))
		for i, it := range n.items {
			out[i] = it.Interface()
		}
		return out
	default:
		return Normalize(n.Value())
	}
}

// Normalize turns a json.Number into int64 when it is integral and float64
// otherwise. Other values are returned unchanged.
func Normalize(v any) any {
	num, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := num.Int64(); err == nil {
		return i
	}
	if f, err := num.Float64(); err == nil {
		return f
	}
	return num.String()
}

// FromAny builds a tree from plain Go values (the shape produced by
// encoding/json into `any`). Go maps carry no order, so their keys are sorted.
func FromAny(v any) *Node {
	switch t := v.(type) {
	case *Node:
		return t.Clone()
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := NewMapping()
		for _, k := range keys {
			out.Set(k, FromAny(t[k]))
		}
		return out
	case []any:
		out := &Node{kind: Sequence, items: make([]*Node, 0, len(t))}
		for _, it := range t {
			out.items = append(out.items, FromAny(it))
		}
		return out
	default:
		return NewScalar(t)
	}
}

// Map builds a mapping from alternating key/value arguments. Values are passed
// through FromAny. It is meant for tests and literal construction.
func Map(kv ...any) *Node {
	if len(kv)%2 != 0 {
		panic("tree: Map needs key/value pairs")
	}
	out := NewMapping()
	for i := 0; i < len(kv); i += 2 {
		out.Set(kv[i].(string), FromAny(kv[i+1]))
	}
	return out
}

// Seq builds a sequence from values passed through FromAny.
func Seq(vs ...any) *Node {
	out := NewSequence()
	for _, v := range vs {
		out.Append(FromAny(v))
	}
	return out
}
