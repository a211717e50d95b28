package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Decode reads exactly one JSON document from r and returns it as a tree.
// Object key order is preserved and numbers are kept as json.Number so that
// re-encoding a document does not change its numeric literals.
func Decode(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tree: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON document held in memory.
func Parse(data []byte) (*Node, error) {
	n := &Node{}
	if err := n.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return n, nil
}

// UnmarshalJSON implements json.Unmarshaler.
//
// Objects go through the ordered map's decoder, which calls back into
// UnmarshalJSON for every value; JSON null children come back as nil pointers
// and are replaced by null scalars so the tree never holds nil.
func (n *Node) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("tree: empty JSON document")
	}
	switch data[0] {
	case '{':
		m := orderedmap.New[string, *Node]()
		if err := m.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("tree: decode object: %w", err)
		}
		for p := m.Oldest(); p != nil; p = p.Next() {
			if p.Value == nil {
				p.Value = Null()
			}
		}
		*n = Node{kind: Mapping, fields: m}
	case '[':
		var items []*Node
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("tree: decode array: %w", err)
		}
		for i := range items {
			if items[i] == nil {
				items[i] = Null()
			}
		}
		if items == nil {
			items = []*Node{}
		}
		*n = Node{kind: Sequence, items: items}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("tree: decode scalar: %w", err)
		}
		*n = Node{kind: Scalar, value: v}
	}
	return nil
}

// MarshalJSON implements json.Marshaler, writing mappings in key order.
func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.Kind() {
	case Mapping:
		return n.fields.MarshalJSON()
	case Sequence:
		return json.Marshal(n.items)
	default:
		return json.Marshal(n.Value())
	}
}

// Indent renders n as indented JSON (two spaces), the layout used when a
// merged document is printed.
func Indent(n *Node) ([]byte, error) {
	raw, err := n.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("tree: indent: %w", err)
	}
	return buf.Bytes(), nil
}
