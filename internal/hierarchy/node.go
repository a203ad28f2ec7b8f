package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed is returned when a node has neither children nor a numeric value.
	ErrMalformed = errors.New("malformed tree node")
	// ErrNotFound is returned by Find when a path does not resolve.
	ErrNotFound = errors.New("node not found")
)

// Attribute keys used on leaves built from tabular rows.
const (
	AttrKey        = "key"
	AttrCategory   = "category"
	AttrYear       = "year"
	AttrCountry    = "country"
	AttrTechnology = "technology"
)

// Node is one entry of an aggregated tree. Value of an internal node is the
// sum of its children's values.
type Node struct {
	Name     string            `json:"name"`
	Value    float64           `json:"value"`
	Children []*Node           `json:"children,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`

	parent *Node
}

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Attr returns the named attribute, or "" if unset.
func (n *Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// Key is the stable identity used to match visual elements across
// transitions: the composite key attribute if present, otherwise the name.
func (n *Node) Key() string {
	if k := n.Attr(AttrKey); k != "" {
		return k
	}
	return n.Name
}

// Depth is the number of edges between the node and the root.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Root walks parent links up to the root.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Ancestors returns the nodes from the root down to n, inclusive.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for c := n; c != nil; c = c.parent {
		out = append(out, c)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Path returns the names from the root down to n.
func (n *Node) Path() []string {
	anc := n.Ancestors()
	names := make([]string, len(anc))
	for i, a := range anc {
		names[i] = a.Name
	}
	return names
}

// PathString joins Path with sep.
func (n *Node) PathString(sep string) string {
	return strings.Join(n.Path(), sep)
}

// Child returns the direct child with the given key, or nil.
func (n *Node) Child(key string) *Node {
	for _, c := range n.Children {
		if c.Key() == key {
			return c
		}
	}
	return nil
}

// IsChildOf reports whether n is a direct child of p.
func (n *Node) IsChildOf(p *Node) bool {
	return n != nil && p != nil && n.parent == p
}

// Find resolves a root-first path of keys. The first element must name n.
func (n *Node) Find(path []string) (*Node, error) {
	if len(path) == 0 || path[0] != n.Key() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(path, "/"))
	}
	cur := n
	for _, key := range path[1:] {
		next := cur.Child(key)
		if next == nil {
			return nil, fmt.Errorf("%w: %q under %s", ErrNotFound, key, cur.PathString("/"))
		}
		cur = next
	}
	return cur, nil
}

// Walk visits n and its descendants depth-first in child order. Returning
// false from fn skips the node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Leaves returns every leaf under n in depth-first order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.IsLeaf() {
			out = append(out, c)
		}
		return true
	})
	return out
}
