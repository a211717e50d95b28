package tree

import (
	"fmt"
	"strings"
)

// Segment is one step of a Path: an optional mapping key followed by an
// optional "[]" that iterates the sequence found there.
type Segment struct {
	Key  string
	Each bool
}

// Path is a dotted field path such as "data.pagination.page" or
// "data.users[].posts[]". A bare "[]" segment iterates the current node, so
// "[].name" addresses the name of every element of a top-level array.
type Path []Segment

// ParsePath parses the dotted path syntax. The empty string is the root path.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	out := make(Path, 0, len(parts))
	for i, part := range parts {
		seg := Segment{Key: part}
		if strings.HasSuffix(part, "[]") {
			seg.Key = strings.TrimSuffix(part, "[]")
			seg.Each = true
		}
		if seg.Key == "" && !seg.Each {
			return nil, fmt.Errorf("tree: path %q: empty segment %d", s, i)
		}
		if strings.ContainsAny(seg.Key, "[]") {
			return nil, fmt.Errorf("tree: path %q: unsupported index syntax in %q", s, part)
		}
		out = append(out, seg)
	}
	return out, nil
}

// MustPath is ParsePath for literals; it panics on error.
func MustPath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the path back to its dotted form.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = seg.Key
		if seg.Each {
			parts[i] += "[]"
		}
	}
	return strings.Join(parts, ".")
}

// Iterations counts the "[]" segments.
func (p Path) Iterations() int {
	n := 0
	for _, seg := range p {
		if seg.Each {
			n++
		}
	}
	return n
}

// SharedPrefix returns the length of the longest common prefix of p and q
// that ends on an iterating segment (or 0). Fields of a path rule resolve
// relative to the element reached after that many segments.
func (p Path) SharedPrefix(q Path) int {
	best := 0
	for i := 0; i < len(p) && i < len(q); i++ {
		if p[i] != q[i] {
			break
		}
		if p[i].Each {
			best = i + 1
		}
	}
	return best
}

// Resolve follows a path without iterations from n. It reports false when a
// key is missing, a non-mapping is traversed, or the path iterates.
func (p Path) Resolve(n *Node) (*Node, bool) {
	cur := n
	for _, seg := range p {
		if seg.Each {
			return nil, false
		}
		next, ok := cur.Get(seg.Key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Lookup is ParsePath followed by Resolve; malformed paths resolve to false.
func Lookup(n *Node, path string) (*Node, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return p.Resolve(n)
}
