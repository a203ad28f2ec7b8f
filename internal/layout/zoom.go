package layout

import (
	"math"
	"strconv"
)

// Zoom extent allowed by wheel and pinch gestures.
const (
	MinZoom = 0.5
	MaxZoom = 5
)

// ZoomTransform is a uniform scale K followed by a translation (X, Y):
// p' = p*K + (X, Y).
type ZoomTransform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the transform that leaves points unchanged.
var Identity = ZoomTransform{K: 1}

// Apply maps p through the transform.
func (z ZoomTransform) Apply(p Point) Point {
	return Point{X: p.X*z.K + z.X, Y: p.Y*z.K + z.Y}
}

// Invert maps a transformed point back.
func (z ZoomTransform) Invert(p Point) Point {
	return Point{X: (p.X - z.X) / z.K, Y: (p.Y - z.Y) / z.K}
}

// String renders the transform as an SVG transform attribute.
func (z ZoomTransform) String() string {
	return "translate(" + ftoa(z.X) + "," + ftoa(z.Y) + ") scale(" + ftoa(z.K) + ")"
}

// FocusOn returns the transform that scales by k and centers p in a
// width x height viewport.
func FocusOn(p Point, width, height, k float64) ZoomTransform {
	return ZoomTransform{K: k, X: width/2 - k*p.X, Y: height/2 - k*p.Y}
}

// ScaleBy multiplies the scale by k, keeping the viewport point about
// fixed. The resulting scale is clamped to [MinZoom, MaxZoom].
func (z ZoomTransform) ScaleBy(k float64, about Point) ZoomTransform {
	nk := math.Max(MinZoom, math.Min(MaxZoom, z.K*k))
	world := z.Invert(about)
	return ZoomTransform{K: nk, X: about.X - world.X*nk, Y: about.Y - world.Y*nk}
}

// Globe is the rotation and scale of an orthographic globe view. Projection
// itself is left to the renderer.
type Globe struct {
	Rotation [2]float64 `json:"rotation"`
	Scale    float64    `json:"scale"`
}

// DefaultGlobe is centered on China at scale 300.
func DefaultGlobe() Globe {
	return Globe{Rotation: [2]float64{260, -35}, Scale: 300}
}

// Drag rotates by half a degree per pixel. Dragging down tilts the globe up.
func (g *Globe) Drag(dx, dy float64) {
	g.Rotation[0] += dx * 0.5
	g.Rotation[1] -= dy * 0.5
}

func (g *Globe) ZoomIn()  { g.Scale *= 1.2 }
func (g *Globe) ZoomOut() { g.Scale *= 0.8 }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
