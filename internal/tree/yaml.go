package tree

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeYAML reads one YAML document from r. Mapping order is preserved, so a
// YAML config can be merged and re-rendered without reshuffling keys.
func DecodeYAML(r io.Reader) (*Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Null(), nil
		}
		return nil, fmt.Errorf("tree: decode yaml: %w", err)
	}
	return FromYAML(&doc)
}

// FromYAML converts a yaml.v3 node graph into a tree. Aliases are expanded;
// merge keys ("<<") are not interpreted and stay ordinary keys.
func FromYAML(y *yaml.Node) (*Node, error) {
	if y == nil {
		return Null(), nil
	}
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return Null(), nil
		}
		return FromYAML(y.Content[0])
	case yaml.AliasNode:
		return FromYAML(y.Alias)
	case yaml.MappingNode:
		out := NewMapping()
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			child, err := FromYAML(v)
			if err != nil {
				return nil, err
			}
			out.Set(k.Value, child)
		}
		return out, nil
	case yaml.SequenceNode:
		out := NewSequence()
		for _, c := range y.Content {
			child, err := FromYAML(c)
			if err != nil {
				return nil, err
			}
			out.Append(child)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := y.Decode(&v); err != nil {
			return nil, fmt.Errorf("tree: yaml scalar at line %d: %w", y.Line, err)
		}
		return NewScalar(v), nil
	default:
		return nil, fmt.Errorf("tree: unsupported yaml node kind %d at line %d", y.Kind, y.Line)
	}
}
