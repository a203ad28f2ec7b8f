package layout

import (
	"math"

	"github.com/aclements/go-moremath/stats"

	"github.com/ziadkadry99/healthviz/internal/hierarchy"
)

// Body is one particle of a force simulation.
type Body struct {
	Key    string
	Radius float64
	X, Y   float64
	VX, VY float64
}

// Force positions bubbles by iterative relaxation: a pull toward the
// horizontal and vertical center lines plus pairwise collision. Radii are
// proportional to the square root of value so that area tracks value.
//
// A Force keeps the settled position of every body it has laid out and
// uses them to seed the next simulation, so bubbles that survive a filter
// change start where they were. When every body is seeded the simulation
// is reheated at RestartAlpha instead of starting cold at 1.
type Force struct {
	Width, Height float64
	MaxRadius     float64 // radius of the largest value
	Strength      float64 // centering strength on each axis
	Padding       float64 // extra collision distance between bubbles
	AlphaDecay    float64
	AlphaMin      float64
	RestartAlpha  float64
	VelocityDecay float64
	MaxIterations int

	seeds map[string]Point
}

// DefaultForce returns the settings of the medical technology bubble chart.
func DefaultForce() *Force {
	return &Force{
		Width:         900,
		Height:        600,
		MaxRadius:     40,
		Strength:      0.05,
		Padding:       1,
		AlphaDecay:    0.05,
		AlphaMin:      0.001,
		RestartAlpha:  0.3,
		VelocityDecay: 0.4,
		MaxIterations: 300,
	}
}

// Radii maps values to radii with r = MaxRadius * sqrt(v / max(values)).
// Non-positive values get radius 0.
func (f *Force) Radii(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	_, hi := stats.Bounds(values)
	if hi <= 0 {
		return out
	}
	for i, v := range values {
		if v > 0 {
			out[i] = f.MaxRadius * math.Sqrt(v/hi)
		}
	}
	return out
}

// Simulate relaxes bodies in place until alpha falls below AlphaMin or
// MaxIterations ticks have run. It returns the number of ticks.
func (f *Force) Simulate(bodies []Body) int {
	return f.simulate(bodies, 1)
}

func (f *Force) simulate(bodies []Body, alpha float64) int {
	cx, cy := f.Width/2, f.Height/2
	rng := newLCG()
	ticks := 0
	for ; ticks < f.MaxIterations && alpha >= f.AlphaMin; ticks++ {
		alpha += (0 - alpha) * f.AlphaDecay

		for i := range bodies {
			b := &bodies[i]
			b.VX += (cx - b.X) * f.Strength * alpha
			b.VY += (cy - b.Y) * f.Strength * alpha
		}

		f.collide(bodies, rng)

		for i := range bodies {
			b := &bodies[i]
			b.VX *= 1 - f.VelocityDecay
			b.VY *= 1 - f.VelocityDecay
			b.X += b.VX
			b.Y += b.VY
		}
	}
	return ticks
}

// collide pushes overlapping pairs apart, splitting the correction by the
// squared radii so small bubbles move more than large ones.
func (f *Force) collide(bodies []Body, rng *lcg) {
	for i := range bodies {
		a := &bodies[i]
		ri := a.Radius + f.Padding
		ri2 := ri * ri
		xi, yi := a.X+a.VX, a.Y+a.VY
		for j := i + 1; j < len(bodies); j++ {
			b := &bodies[j]
			rj := b.Radius + f.Padding
			x := xi - b.X - b.VX
			y := yi - b.Y - b.VY
			l := x*x + y*y
			r := ri + rj
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = rng.jiggle()
				l += x * x
			}
			if y == 0 {
				y = rng.jiggle()
				l += y * y
			}
			l = math.Sqrt(l)
			l = (r - l) / l
			x *= l
			y *= l
			rj2 := rj * rj
			share := rj2 / (ri2 + rj2)
			a.VX += x * share
			a.VY += y * share
			b.VX -= x * (1 - share)
			b.VY -= y * (1 - share)
		}
	}
}

// Layout implements Layout. It simulates the current node's children and
// records their settled positions as seeds.
func (f *Force) Layout(current *hierarchy.Node) []Shape {
	values := make([]float64, len(current.Children))
	for i, c := range current.Children {
		values[i] = c.Value
	}
	radii := f.Radii(values)

	bodies := make([]Body, len(current.Children))
	seeded := len(bodies) > 0
	for i, c := range current.Children {
		p, ok := f.seeds[c.Key()]
		if !ok {
			p = f.phyllotaxis(i)
			seeded = false
		}
		bodies[i] = Body{Key: c.Key(), Radius: radii[i], X: p.X, Y: p.Y}
	}
	alpha := 1.0
	if seeded && f.RestartAlpha > 0 {
		alpha = f.RestartAlpha
	}
	f.simulate(bodies, alpha)

	if f.seeds == nil {
		f.seeds = make(map[string]Point, len(bodies))
	}
	shapes := make([]Shape, len(bodies))
	for i, b := range bodies {
		c := current.Children[i]
		f.seeds[b.Key] = Point{X: b.X, Y: b.Y}
		shapes[i] = Shape{
			Key:    b.Key,
			Name:   c.Name,
			Value:  c.Value,
			Kind:   KindBubble,
			Slot:   i,
			Branch: !c.IsLeaf(),
			Center: Point{X: b.X, Y: b.Y},
			Radius: b.Radius,
			Rect:   Rect{X0: b.X - b.Radius, Y0: b.Y - b.Radius, X1: b.X + b.Radius, Y1: b.Y + b.Radius},
			Node:   c,
		}
	}
	return shapes
}

var phyllotaxisAngle = math.Pi * (3 - math.Sqrt(5))

// phyllotaxis returns the i'th point of a sunflower spiral about the center.
func (f *Force) phyllotaxis(i int) Point {
	r := 10 * math.Sqrt(0.5+float64(i))
	a := float64(i) * phyllotaxisAngle
	return Point{X: f.Width/2 + r*math.Cos(a), Y: f.Height/2 + r*math.Sin(a)}
}

// lcg is a deterministic generator for separating coincident bodies.
type lcg struct{ s uint32 }

func newLCG() *lcg { return &lcg{s: 1} }

func (g *lcg) next() float64 {
	g.s = 1664525*g.s + 1013904223
	return float64(g.s) / 4294967296
}

func (g *lcg) jiggle() float64 { return (g.next() - 0.5) * 1e-6 }
