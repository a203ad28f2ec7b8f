package navigator

import (
	"time"

	"github.com/ziadkadry99/healthviz/internal/hierarchy"
	"github.com/ziadkadry99/healthviz/internal/layout"
)

// Phase is the role an element plays in a transition.
type Phase string

const (
	PhaseEnter  Phase = "enter"
	PhaseUpdate Phase = "update"
	PhaseExit   Phase = "exit"
)

// Action names the navigation that produced a transition.
type Action string

const (
	ActionStart     Action = "start"
	ActionDrillDown Action = "drill_down"
	ActionDrillUp   Action = "drill_up"
	ActionReset     Action = "reset"
)

// Easing maps linear progress in [0,1] to eased progress.
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// CubicInOut is symmetric cubic easing.
func CubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// CubicOut decelerates to the end value.
func CubicOut(t float64) float64 {
	t--
	return t*t*t + 1
}

// Element animates one keyed visual from one geometry and opacity to another.
type Element struct {
	Key         string        `json:"key"`
	Phase       Phase         `json:"phase"`
	From        layout.Shape  `json:"from"`
	To          layout.Shape  `json:"to"`
	FromOpacity float64       `json:"from_opacity"`
	ToOpacity   float64       `json:"to_opacity"`
	Delay       time.Duration `json:"delay"`
	Duration    time.Duration `json:"duration"`
}

// Visual is an element sampled at one instant.
type Visual struct {
	layout.Shape
	Opacity float64 `json:"opacity"`
	Phase   Phase   `json:"phase"`
}

// progress returns the linear progress of e at elapsed.
func (e Element) progress(elapsed time.Duration) float64 {
	local := elapsed - e.Delay
	switch {
	case local <= 0:
		return 0
	case local >= e.Duration:
		return 1
	default:
		return float64(local) / float64(e.Duration)
	}
}

// removed reports whether an exiting element has finished fading.
func (e Element) removed(elapsed time.Duration) bool {
	return e.Phase == PhaseExit && elapsed-e.Delay >= e.Duration
}

func (e Element) end() time.Duration { return e.Delay + e.Duration }

// Binding lists the events a visible element responds to.
type Binding struct {
	Key     string      `json:"key"`
	Events  []EventKind `json:"events"`
	Pointer bool        `json:"pointer"`
}

// Transition moves the view from one node to another.
type Transition struct {
	ID         uint64          `json:"id"`
	Action     Action          `json:"action"`
	From       *hierarchy.Node `json:"-"`
	To         *hierarchy.Node `json:"-"`
	Breadcrumb string          `json:"breadcrumb"`
	Path       []string        `json:"path"`
	Elements   []Element       `json:"elements"`
	Bindings   []Binding       `json:"bindings"`

	easing Easing
}

// Total is the time at which the last element settles.
func (t *Transition) Total() time.Duration {
	var total time.Duration
	for _, e := range t.Elements {
		if end := e.end(); end > total {
			total = end
		}
	}
	return total
}

// Done reports whether every element has settled at elapsed.
func (t *Transition) Done(elapsed time.Duration) bool {
	return elapsed >= t.Total()
}

// At samples the transition. Exiting elements are included until their
// fade completes.
func (t *Transition) At(elapsed time.Duration) []Visual {
	ease := t.easing
	if ease == nil {
		ease = Linear
	}
	out := make([]Visual, 0, len(t.Elements))
	for _, e := range t.Elements {
		if e.removed(elapsed) {
			continue
		}
		p := ease(e.progress(elapsed))
		out = append(out, Visual{
			Shape:   layout.Lerp(e.From, e.To, p),
			Opacity: e.FromOpacity + (e.ToOpacity-e.FromOpacity)*p,
			Phase:   e.Phase,
		})
	}
	return out
}

// Settled returns the final frame of the transition.
func (t *Transition) Settled() []Visual {
	return t.At(t.Total())
}
