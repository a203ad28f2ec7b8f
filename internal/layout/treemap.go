package layout

import (
	"github.com/ziadkadry99/healthviz/internal/hierarchy"
)

// HeaderKey identifies the header strip drawn above a zoomed treemap.
const HeaderKey = "#header"

// HeaderHeight is the height of the header strip, drawn at negative y.
const HeaderHeight = 30

// Treemap tiles a fixed canvas by recursive binary partition. The view is
// zoomed so the current node fills the canvas.
type Treemap struct {
	Width  float64
	Height float64
}

// DefaultTreemap returns the 928x1010 canvas used by the MRI chart.
func DefaultTreemap() Treemap {
	return Treemap{Width: 928, Height: 1010}
}

func (t Treemap) viewport() Rect { return Rect{X1: t.Width, Y1: t.Height} }

// Tile partitions r among node's children. The partition is computed on
// the fixed canvas and then rescaled into r, so split directions follow the
// canvas aspect ratio at every depth. The result is aligned with
// node.Children.
func (t Treemap) Tile(node *hierarchy.Node, r Rect) []Rect {
	n := len(node.Children)
	if n == 0 {
		return nil
	}
	out := make([]Rect, n)
	sums := make([]float64, n+1)
	for i, c := range node.Children {
		sums[i+1] = sums[i] + c.Value
	}
	p := partitioner{sums: sums, out: out}
	p.partition(0, n, sums[n], 0, 0, t.Width, t.Height)

	for i := range out {
		out[i] = rescale(out[i], t.viewport(), r)
	}
	return out
}

type partitioner struct {
	sums []float64
	out  []Rect
}

func (p *partitioner) partition(i, j int, value, x0, y0, x1, y1 float64) {
	if i >= j-1 {
		p.out[i] = Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
		return
	}

	valueOffset := p.sums[i]
	valueTarget := value/2 + valueOffset
	k, hi := i+1, j-1
	for k < hi {
		mid := int(uint(k+hi) >> 1)
		if p.sums[mid] < valueTarget {
			k = mid + 1
		} else {
			hi = mid
		}
	}
	if valueTarget-p.sums[k-1] < p.sums[k]-valueTarget && i+1 < k {
		k--
	}

	valueLeft := p.sums[k] - valueOffset
	valueRight := value - valueLeft

	if x1-x0 > y1-y0 {
		xk := x1
		if value > 0 {
			xk = (x0*valueRight + x1*valueLeft) / value
		}
		p.partition(i, k, valueLeft, x0, y0, xk, y1)
		p.partition(k, j, valueRight, xk, y0, x1, y1)
		return
	}
	yk := y1
	if value > 0 {
		yk = (y0*valueRight + y1*valueLeft) / value
	}
	p.partition(i, k, valueLeft, x0, y0, x1, yk)
	p.partition(k, j, valueRight, x0, yk, x1, y1)
}

// rescale maps r from the from frame into the to frame.
func rescale(r, from, to Rect) Rect {
	sx, sy := 0.0, 0.0
	if from.Width() != 0 {
		sx = to.Width() / from.Width()
	}
	if from.Height() != 0 {
		sy = to.Height() / from.Height()
	}
	return Rect{
		X0: to.X0 + (r.X0-from.X0)*sx,
		Y0: to.Y0 + (r.Y0-from.Y0)*sy,
		X1: to.X0 + (r.X1-from.X0)*sx,
		Y1: to.Y0 + (r.Y1-from.Y0)*sy,
	}
}

// Tiling returns the absolute rectangle of every node under root.
func (t Treemap) Tiling(root *hierarchy.Node) map[*hierarchy.Node]Rect {
	out := map[*hierarchy.Node]Rect{root: t.viewport()}
	var walk func(n *hierarchy.Node, r Rect)
	walk = func(n *hierarchy.Node, r Rect) {
		for i, cr := range t.Tile(n, r) {
			c := n.Children[i]
			out[c] = cr
			walk(c, cr)
		}
	}
	walk(root, t.viewport())
	return out
}

// absolute computes the rectangle of n in the root's tiling by descending
// the ancestor chain.
func (t Treemap) absolute(n *hierarchy.Node) Rect {
	anc := n.Ancestors()
	r := t.viewport()
	for i := 1; i < len(anc); i++ {
		parent, child := anc[i-1], anc[i]
		rects := t.Tile(parent, r)
		for j, c := range parent.Children {
			if c == child {
				r = rects[j]
				break
			}
		}
	}
	return r
}

// inView maps an absolute rectangle into the viewport zoomed to node v.
func (t Treemap) inView(abs Rect, v *hierarchy.Node) Rect {
	return rescale(abs, t.absolute(v), t.viewport())
}

// Layout implements Layout.
func (t Treemap) Layout(current *hierarchy.Node) []Shape {
	shapes := make([]Shape, 0, len(current.Children)+1)
	for i, r := range t.Tile(current, t.viewport()) {
		c := current.Children[i]
		shapes = append(shapes, Shape{
			Key:    c.Key(),
			Name:   c.Name,
			Value:  c.Value,
			Kind:   KindTile,
			Slot:   i,
			Branch: !c.IsLeaf(),
			Rect:   r,
			Node:   c,
		})
	}
	shapes = append(shapes, Shape{
		Key:    HeaderKey,
		Name:   current.PathString("/"),
		Value:  current.Value,
		Kind:   KindHeader,
		Slot:   len(shapes),
		Branch: current.Parent() != nil,
		Rect:   Rect{X0: 0, Y0: -HeaderHeight, X1: t.Width, Y1: 0},
		Node:   current,
	})
	return shapes
}

// EnterFrom implements Transitioner: an entering tile starts where its node
// sits in the previous view.
func (t Treemap) EnterFrom(s Shape, from *hierarchy.Node) Shape {
	if s.Kind != KindTile || s.Node == nil || from == nil {
		return s
	}
	s.Rect = t.inView(t.absolute(s.Node), from)
	return s
}

// ExitTo implements Transitioner: an exiting tile ends where its node sits
// in the next view.
func (t Treemap) ExitTo(s Shape, to *hierarchy.Node) Shape {
	if s.Kind != KindTile || s.Node == nil || to == nil {
		return s
	}
	s.Rect = t.inView(t.absolute(s.Node), to)
	return s
}
