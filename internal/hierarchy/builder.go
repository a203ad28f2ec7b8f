package hierarchy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aclements/go-moremath/vec"
	"github.com/tidwall/gjson"
)

// Record is the raw nested shape a tree is built from. An internal record
// has children; a leaf record has a value.
type Record struct {
	Name     string            `json:"name"`
	Value    *float64          `json:"value,omitempty"`
	Children []Record          `json:"children,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

// Parse builds a tree from a JSON document of nested {name, children|value}
// objects.
func Parse(data []byte) (*Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parsing tree: invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("parsing tree: root must be an object")
	}
	root, err := fromJSON(doc, nil)
	if err != nil {
		return nil, err
	}
	aggregate(root)
	return root, nil
}

func fromJSON(obj gjson.Result, parent *Node) (*Node, error) {
	n := &Node{Name: obj.Get("name").String(), parent: parent}

	children := obj.Get("children")
	if children.IsArray() && len(children.Array()) > 0 {
		for _, c := range children.Array() {
			if !c.IsObject() {
				return nil, fmt.Errorf("%w: child of %s is not an object", ErrMalformed, pathOf(n))
			}
			child, err := fromJSON(c, n)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		return n, nil
	}

	value := obj.Get("value")
	if value.Type != gjson.Number {
		return nil, fmt.Errorf("%w: %s has neither children nor a numeric value", ErrMalformed, pathOf(n))
	}
	if n.Value = value.Float(); !finite(n.Value) {
		return nil, fmt.Errorf("%w: %s has non-finite value %s", ErrMalformed, pathOf(n), value.Raw)
	}

	if attrs := obj.Get("attrs"); attrs.IsObject() {
		n.Attrs = map[string]string{}
		attrs.ForEach(func(k, v gjson.Result) bool {
			n.Attrs[k.String()] = v.String()
			return true
		})
	}
	return n, nil
}

// FromRecord builds a tree from an in-memory record.
func FromRecord(rec Record) (*Node, error) {
	root, err := fromRecord(rec, nil)
	if err != nil {
		return nil, err
	}
	aggregate(root)
	return root, nil
}

func fromRecord(rec Record, parent *Node) (*Node, error) {
	n := &Node{Name: rec.Name, parent: parent}
	if len(rec.Attrs) > 0 {
		n.Attrs = make(map[string]string, len(rec.Attrs))
		for k, v := range rec.Attrs {
			n.Attrs[k] = v
		}
	}
	if len(rec.Children) > 0 {
		for _, c := range rec.Children {
			child, err := fromRecord(c, n)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		return n, nil
	}
	if rec.Value == nil {
		return nil, fmt.Errorf("%w: %s has neither children nor a numeric value", ErrMalformed, pathOf(n))
	}
	if !finite(*rec.Value) {
		return nil, fmt.Errorf("%w: %s has non-finite value %v", ErrMalformed, pathOf(n), *rec.Value)
	}
	n.Value = *rec.Value
	return n, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// aggregate derives internal values bottom-up and sorts every level by
// descending value. Equal values keep their input order.
func aggregate(n *Node) float64 {
	if n.IsLeaf() {
		return n.Value
	}
	sums := make([]float64, len(n.Children))
	for i, c := range n.Children {
		sums[i] = aggregate(c)
	}
	n.Value = vec.Sum(sums)
	sort.SliceStable(n.Children, func(i, j int) bool {
		return n.Children[i].Value > n.Children[j].Value
	})
	return n.Value
}

// pathOf names a node under construction for error messages.
func pathOf(n *Node) string {
	names := n.Path()
	for i, s := range names {
		if s == "" {
			names[i] = "?"
		}
	}
	return strings.Join(names, "/")
}

// Float returns a pointer to v, for building Records in code.
func Float(v float64) *float64 { return &v }
