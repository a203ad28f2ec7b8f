package navigator

import (
	"fmt"

	"github.com/ziadkadry99/healthviz/internal/hierarchy"
	"github.com/ziadkadry99/healthviz/internal/layout"
)

// EventKind is a user gesture on the chart.
type EventKind string

const (
	EventClick       EventKind = "click"
	EventBackground  EventKind = "background"
	EventDoubleClick EventKind = "dblclick"
)

// Capability classifies an event target.
type Capability int

const (
	// CapNone is the chart background or a header strip.
	CapNone Capability = iota
	// CapBranch is a node with children.
	CapBranch
	// CapLeaf is a node without children.
	CapLeaf
)

// Event is a gesture aimed at the element with Key. Key is ignored for
// background and double-click events.
type Event struct {
	Kind EventKind `json:"kind"`
	Key  string    `json:"key,omitempty"`
}

// Result is the outcome of handling an event. Transition is nil when the
// view did not change; Selected is set when a leaf was picked.
type Result struct {
	Transition *Transition
	Selected   *hierarchy.Node
}

type handler func(n *Navigator, target *hierarchy.Node) (Result, error)

// transitions is the state machine table keyed by target capability. It is
// filled in init because its handlers reach bindingsFor, which reads it.
var transitions map[Capability]map[EventKind]handler

func init() {
	transitions = map[Capability]map[EventKind]handler{
		CapBranch: {
			EventClick:       drillDown,
			EventDoubleClick: reset,
		},
		CapLeaf: {
			EventClick:       selectLeaf,
			EventDoubleClick: reset,
		},
		CapNone: {
			EventClick:       drillUp,
			EventBackground:  drillUp,
			EventDoubleClick: reset,
		},
	}
}

func drillDown(n *Navigator, target *hierarchy.Node) (Result, error) {
	t, err := n.DrillDown(target)
	return Result{Transition: t}, err
}

func drillUp(n *Navigator, _ *hierarchy.Node) (Result, error) {
	t, _ := n.DrillUp()
	return Result{Transition: t}, nil
}

func reset(n *Navigator, _ *hierarchy.Node) (Result, error) {
	return Result{Transition: n.Reset()}, nil
}

func selectLeaf(_ *Navigator, target *hierarchy.Node) (Result, error) {
	return Result{Selected: target}, nil
}

func capabilityOf(node *hierarchy.Node) Capability {
	switch {
	case node == nil:
		return CapNone
	case node.IsLeaf():
		return CapLeaf
	default:
		return CapBranch
	}
}

// Handle dispatches ev through the transition table.
func (n *Navigator) Handle(ev Event) (Result, error) {
	var target *hierarchy.Node
	if ev.Kind == EventClick && ev.Key != layout.HeaderKey {
		target = n.state.Current.Child(ev.Key)
		if target == nil {
			return Result{}, fmt.Errorf("%w: %q", ErrNotVisible, ev.Key)
		}
	}
	h, ok := transitions[capabilityOf(target)][ev.Kind]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupported, ev.Kind)
	}
	return h(n, target)
}

// bindingsFor lists, once per render, which events each shape answers.
func bindingsFor(shapes []layout.Shape) []Binding {
	out := make([]Binding, 0, len(shapes))
	for _, s := range shapes {
		target := s.Node
		if s.Kind == layout.KindHeader {
			target = nil
			if !s.Branch {
				continue
			}
		}
		c := capabilityOf(target)
		var kinds []EventKind
		for _, k := range []EventKind{EventClick, EventDoubleClick} {
			if _, ok := transitions[c][k]; ok {
				kinds = append(kinds, k)
			}
		}
		out = append(out, Binding{
			Key:     s.Key,
			Events:  kinds,
			Pointer: c != CapLeaf,
		})
	}
	return out
}
