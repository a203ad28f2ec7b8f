package dataset

import (
	"strconv"

	"github.com/ziadkadry99/healthviz/internal/hierarchy"
)

// Hierarchy groups observations into a tree named name. Each level is a
// column; rows sharing a value at that level share a branch, in first-seen
// order. Leaves are named by country and keyed by observation ID.
// An empty obs gives a root without children.
func Hierarchy(name string, obs []Observation, levels ...string) (*hierarchy.Node, error) {
	if len(obs) == 0 {
		return &hierarchy.Node{Name: name}, nil
	}
	root := hierarchy.Record{Name: name, Children: group(obs, levels)}
	return hierarchy.FromRecord(root)
}

func group(obs []Observation, levels []string) []hierarchy.Record {
	if len(levels) == 0 {
		out := make([]hierarchy.Record, 0, len(obs))
		for _, o := range obs {
			out = append(out, leafRecord(o))
		}
		return out
	}

	col := levels[0]
	var order []string
	buckets := make(map[string][]Observation)
	for _, o := range obs {
		k := o.Field(col)
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], o)
	}
	out := make([]hierarchy.Record, 0, len(order))
	for _, k := range order {
		out = append(out, hierarchy.Record{Name: k, Children: group(buckets[k], levels[1:])})
	}
	return out
}

func leafRecord(o Observation) hierarchy.Record {
	return hierarchy.Record{
		Name:  o.Country,
		Value: hierarchy.Float(o.Value),
		Attrs: map[string]string{
			hierarchy.AttrKey:        o.ID,
			hierarchy.AttrCountry:    o.Country,
			hierarchy.AttrTechnology: o.Technology,
			hierarchy.AttrCategory:   o.Category,
			hierarchy.AttrYear:       strconv.Itoa(o.Year),
		},
	}
}
