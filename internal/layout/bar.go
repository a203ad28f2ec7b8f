package layout

import (
	"github.com/aclements/go-moremath/scale"

	"github.com/ziadkadry99/healthviz/internal/hierarchy"
)

// Bar lays children out as horizontal bars, one per row, with lengths
// proportional to value against the current node's total.
type Bar struct {
	Left      float64 // pixel position of value 0
	Right     float64 // pixel position of current.Value
	Top       float64 // y of slot 0
	RowHeight float64
	BarHeight float64
}

// DefaultBar matches a 1300px-wide chart with a 200px label gutter.
func DefaultBar(width float64) Bar {
	return Bar{
		Left:      200,
		Right:     width - 30,
		Top:       50,
		RowHeight: 30,
		BarHeight: 24,
	}
}

// Layout implements Layout.
func (b Bar) Layout(current *hierarchy.Node) []Shape {
	x := scale.Linear{Min: 0, Max: current.Value}
	shapes := make([]Shape, 0, len(current.Children))
	for i, c := range current.Children {
		y := b.Top + float64(i)*b.RowHeight
		x1 := b.Left
		if current.Value > 0 && c.Value > 0 {
			x1 = b.Left + x.Map(c.Value)*(b.Right-b.Left)
		}
		shapes = append(shapes, Shape{
			Key:    c.Key(),
			Name:   c.Name,
			Value:  c.Value,
			Kind:   KindBar,
			Slot:   i,
			Branch: !c.IsLeaf(),
			Rect:   Rect{X0: b.Left, Y0: y, X1: x1, Y1: y + b.BarHeight},
			Node:   c,
		})
	}
	return shapes
}
