// Package navigator keeps the current view of a hierarchical chart and
// turns navigation into keyed, timed transitions between layouts.
package navigator

import (
	"errors"
	"strings"
	"time"

	"github.com/ziadkadry99/healthviz/internal/hierarchy"
	"github.com/ziadkadry99/healthviz/internal/layout"
)

var (
	// ErrLeaf is returned when drilling into a node without children.
	ErrLeaf = errors.New("cannot drill into a leaf")
	// ErrNotVisible is returned when the target is not a child of the current node.
	ErrNotVisible = errors.New("node is not visible in the current view")
	// ErrUnsupported is returned when an event has no transition for its target.
	ErrUnsupported = errors.New("event not supported for target")
)

// Options controls transition timing and breadcrumb formatting.
type Options struct {
	Title         string
	Duration      time.Duration
	ResetDuration time.Duration
	ExitDuration  time.Duration
	Stagger       time.Duration
	Separator     string
	Easing        Easing
	Now           func() time.Time
}

// DefaultOptions returns the timing of the bar drill-down chart.
func DefaultOptions() Options {
	return Options{
		Duration:      750 * time.Millisecond,
		ResetDuration: 375 * time.Millisecond,
		ExitDuration:  375 * time.Millisecond,
		Stagger:       50 * time.Millisecond,
		Separator:     " -> ",
		Easing:        CubicInOut,
		Now:           time.Now,
	}
}

// ViewState is the node currently displayed.
type ViewState struct {
	Current *hierarchy.Node
}

// Frame is the view sampled at one instant.
type Frame struct {
	Title        string   `json:"title"`
	Breadcrumb   string   `json:"breadcrumb"`
	Path         []string `json:"path"`
	TransitionID uint64   `json:"transition_id"`
	Done         bool     `json:"done"`
	Elements     []Visual `json:"elements"`
}

// Navigator owns the view state of one chart instance. It is not safe for
// concurrent use.
type Navigator struct {
	root   *hierarchy.Node
	state  ViewState
	layout layout.Layout
	opts   Options

	lastID      uint64
	active      *Transition
	started     time.Time
	subscribers []func(*Transition)
}

// New returns a navigator viewing root. Zero fields of opts take their
// defaults.
func New(root *hierarchy.Node, l layout.Layout, opts Options) *Navigator {
	def := DefaultOptions()
	if opts.Duration <= 0 {
		opts.Duration = def.Duration
	}
	if opts.ResetDuration <= 0 {
		opts.ResetDuration = opts.Duration / 2
	}
	if opts.ExitDuration <= 0 {
		opts.ExitDuration = opts.Duration / 2
	}
	if opts.Stagger < 0 {
		opts.Stagger = 0
	}
	if opts.Separator == "" {
		opts.Separator = def.Separator
	}
	if opts.Easing == nil {
		opts.Easing = def.Easing
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Navigator{
		root:   root,
		state:  ViewState{Current: root},
		layout: l,
		opts:   opts,
	}
}

// Root returns the tree root.
func (n *Navigator) Root() *hierarchy.Node { return n.root }

// Current returns the node being viewed.
func (n *Navigator) Current() *hierarchy.Node { return n.state.Current }

// State returns a copy of the view state.
func (n *Navigator) State() ViewState { return n.state }

// Path returns the names from the root to the current node.
func (n *Navigator) Path() []string { return n.state.Current.Path() }

// Breadcrumb joins Path with the configured separator.
func (n *Navigator) Breadcrumb() string {
	return strings.Join(n.Path(), n.opts.Separator)
}

// Subscribe registers fn to receive every new transition.
func (n *Navigator) Subscribe(fn func(*Transition)) {
	n.subscribers = append(n.subscribers, fn)
}

// Start renders the current node, entering every visible element.
func (n *Navigator) Start() *Transition {
	return n.navigate(n.state.Current, ActionStart, n.opts.Duration)
}

// DrillDown makes child the current node. child must be an internal node
// directly under the current node.
func (n *Navigator) DrillDown(child *hierarchy.Node) (*Transition, error) {
	if child == nil || !child.IsChildOf(n.state.Current) {
		return nil, ErrNotVisible
	}
	if child.IsLeaf() {
		return nil, ErrLeaf
	}
	return n.navigate(child, ActionDrillDown, n.opts.Duration), nil
}

// DrillDownKey drills into the visible child with the given key.
func (n *Navigator) DrillDownKey(key string) (*Transition, error) {
	return n.DrillDown(n.state.Current.Child(key))
}

// DrillUp makes the parent the current node. At the root it does nothing
// and reports false.
func (n *Navigator) DrillUp() (*Transition, bool) {
	parent := n.state.Current.Parent()
	if parent == nil {
		return nil, false
	}
	return n.navigate(parent, ActionDrillUp, n.opts.Duration), true
}

// Reset returns straight to the root with the shorter reset timing.
func (n *Navigator) Reset() *Transition {
	return n.navigate(n.root, ActionReset, n.opts.ResetDuration)
}

// Active returns the most recent transition, or nil before Start.
func (n *Navigator) Active() *Transition { return n.active }

// InFlight reports whether the most recent transition is still animating.
func (n *Navigator) InFlight() bool {
	return n.active != nil && !n.active.Done(n.opts.Now().Sub(n.started))
}

// Superseded reports whether the transition with the given ID has been
// replaced by a newer navigation.
func (n *Navigator) Superseded(id uint64) bool {
	return n.active == nil || n.active.ID != id
}

// Bindings returns the event bindings of the current view.
func (n *Navigator) Bindings() []Binding {
	if n.active == nil {
		return nil
	}
	return n.active.Bindings
}

// Frame samples the current view at the navigator's clock.
func (n *Navigator) Frame() Frame {
	f := Frame{
		Title:      n.opts.Title,
		Breadcrumb: n.Breadcrumb(),
		Path:       n.Path(),
	}
	if n.active == nil {
		f.Done = true
		return f
	}
	elapsed := n.opts.Now().Sub(n.started)
	f.TransitionID = n.active.ID
	f.Done = n.active.Done(elapsed)
	f.Elements = n.active.At(elapsed)
	return f
}

// visible returns what is on screen right now.
func (n *Navigator) visible() []Visual {
	if n.active == nil {
		return nil
	}
	return n.active.At(n.opts.Now().Sub(n.started))
}

// navigate replaces the view and any in-flight transition. Elements on
// screen are joined by key with the new layout: matches animate from their
// sampled geometry, new keys enter from zero weight, and the rest fade out.
func (n *Navigator) navigate(to *hierarchy.Node, action Action, dur time.Duration) *Transition {
	from := n.state.Current
	if action == ActionStart {
		from = nil
	}
	onScreen := n.visible()
	n.state.Current = to

	exitDur := n.opts.ExitDuration
	if exitDur > dur {
		exitDur = dur
	}

	prev := make(map[string]Visual, len(onScreen))
	for _, v := range onScreen {
		prev[v.Key] = v
	}
	tr, _ := n.layout.(layout.Transitioner)

	shapes := n.layout.Layout(to)
	elements := make([]Element, 0, len(shapes)+len(onScreen))
	seen := make(map[string]bool, len(shapes))
	for _, s := range shapes {
		seen[s.Key] = true
		delay := time.Duration(s.Slot) * n.opts.Stagger
		if p, ok := prev[s.Key]; ok {
			elements = append(elements, Element{
				Key: s.Key, Phase: PhaseUpdate,
				From: p.Shape, To: s,
				FromOpacity: p.Opacity, ToOpacity: 1,
				Delay: delay, Duration: dur,
			})
			continue
		}
		start := s.Zero()
		if tr != nil {
			start = tr.EnterFrom(s, from)
		}
		elements = append(elements, Element{
			Key: s.Key, Phase: PhaseEnter,
			From: start, To: s,
			FromOpacity: 0, ToOpacity: 1,
			Delay: delay, Duration: dur,
		})
	}
	for _, v := range onScreen {
		if seen[v.Key] {
			continue
		}
		end := v.Shape
		if tr != nil {
			end = tr.ExitTo(v.Shape, to)
		}
		elements = append(elements, Element{
			Key: v.Key, Phase: PhaseExit,
			From: v.Shape, To: end,
			FromOpacity: v.Opacity, ToOpacity: 0,
			Duration: exitDur,
		})
	}

	n.lastID++
	t := &Transition{
		ID:         n.lastID,
		Action:     action,
		From:       from,
		To:         to,
		Breadcrumb: n.Breadcrumb(),
		Path:       n.Path(),
		Elements:   elements,
		easing:     n.opts.Easing,
	}
	t.Bindings = bindingsFor(shapes)

	n.active = t
	n.started = n.opts.Now()
	for _, fn := range n.subscribers {
		fn(t)
	}
	return t
}
