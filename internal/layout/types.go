package layout

import (
	"math"

	"github.com/ziadkadry99/healthviz/internal/hierarchy"
)

// Kind identifies the visual mark a Shape is drawn as.
type Kind string

const (
	KindBar    Kind = "bar"
	KindTile   Kind = "tile"
	KindHeader Kind = "header"
	KindBubble Kind = "bubble"
)

// Point is a 2D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle with X0 <= X1 and Y0 <= Y1.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }
func (r Rect) Area() float64   { return r.Width() * r.Height() }

// Overlaps reports whether r and o share more than eps of extent on both axes.
func (r Rect) Overlaps(o Rect, eps float64) bool {
	dx := math.Min(r.X1, o.X1) - math.Max(r.X0, o.X0)
	dy := math.Min(r.Y1, o.Y1) - math.Max(r.Y0, o.Y0)
	return dx > eps && dy > eps
}

// Contains reports whether o lies inside r, within eps.
func (r Rect) Contains(o Rect, eps float64) bool {
	return o.X0 >= r.X0-eps && o.Y0 >= r.Y0-eps && o.X1 <= r.X1+eps && o.Y1 <= r.Y1+eps
}

// Shape is the layout result for one visible node.
type Shape struct {
	Key    string          `json:"key"`
	Name   string          `json:"name"`
	Value  float64         `json:"value"`
	Kind   Kind            `json:"kind"`
	Slot   int             `json:"slot"`
	Branch bool            `json:"branch"`
	Rect   Rect            `json:"rect"`
	Center Point           `json:"center"`
	Radius float64         `json:"radius,omitempty"`
	Node   *hierarchy.Node `json:"-"`
}

// Zero returns s at zero visual weight: bars collapse to their left edge,
// bubbles to radius 0. Tiles and headers keep their geometry.
func (s Shape) Zero() Shape {
	switch s.Kind {
	case KindBar:
		s.Rect.X1 = s.Rect.X0
	case KindBubble:
		s.Radius = 0
	}
	return s
}

// Lerp interpolates every geometric field from a to b at t in [0,1].
// Identity fields are taken from b.
func Lerp(a, b Shape, t float64) Shape {
	out := b
	out.Rect = Rect{
		X0: lerp(a.Rect.X0, b.Rect.X0, t),
		Y0: lerp(a.Rect.Y0, b.Rect.Y0, t),
		X1: lerp(a.Rect.X1, b.Rect.X1, t),
		Y1: lerp(a.Rect.Y1, b.Rect.Y1, t),
	}
	out.Center = Point{X: lerp(a.Center.X, b.Center.X, t), Y: lerp(a.Center.Y, b.Center.Y, t)}
	out.Radius = lerp(a.Radius, b.Radius, t)
	return out
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Layout assigns geometry to the visible children of the current node.
type Layout interface {
	Layout(current *hierarchy.Node) []Shape
}

// Transitioner is implemented by layouts whose entering and exiting
// elements move through space rather than just fading.
type Transitioner interface {
	// EnterFrom returns the starting geometry of s when the view changes
	// away from node from.
	EnterFrom(s Shape, from *hierarchy.Node) Shape
	// ExitTo returns the final geometry of s when the view changes to node to.
	ExitTo(s Shape, to *hierarchy.Node) Shape
}
