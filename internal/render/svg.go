// Package render draws sampled navigator frames as SVG.
package render

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"
	"unicode"

	svg "github.com/ajstarks/svgo"
	"github.com/dustin/go-humanize"

	"github.com/ziadkadry99/healthviz/internal/dataset"
	"github.com/ziadkadry99/healthviz/internal/hierarchy"
	"github.com/ziadkadry99/healthviz/internal/layout"
	"github.com/ziadkadry99/healthviz/internal/navigator"
)

// Fills of the bar and treemap variants.
const (
	BarBranchFill  = "#94A187"
	BarLeafFill    = "#E07A5F"
	TileHeaderFill = "#fff"
	TileBranchFill = "#ccc"
	TileLeafFill   = "#ddd"
	UnknownFill    = "#999"
)

// CategoryFills colors bubbles by availability category.
var CategoryFills = map[string]string{
	"Very Low":  "#FFBC42",
	"Low":       "#D81159",
	"Medium":    "#8F2D56",
	"High":      "#218380",
	"Very High": "#73D2DE",
}

// Options controls the canvas.
type Options struct {
	Width, Height int
	// LabelLimit truncates bar labels; zero means 20.
	LabelLimit int
	// Transform is applied to the bubble group, for the detail zoom.
	Transform layout.ZoomTransform
}

const (
	defaultLabelLimit = 20
	// treemapOffset moves the treemap below the titles, leaving room for
	// its 30px header.
	treemapOffset = 80
	fontAttrs     = `font-family="sans-serif" font-size="10px"`
)

// SVG writes frame as a standalone SVG document. The title and breadcrumb
// are always drawn; a frame without elements reads "No Data Available".
func SVG(w io.Writer, frame navigator.Frame, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("render: invalid canvas %dx%d", opts.Width, opts.Height)
	}
	if opts.LabelLimit <= 0 {
		opts.LabelLimit = defaultLabelLimit
	}

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height, fontAttrs)
	defer canvas.End()

	canvas.Title(frame.Title)
	drawHeading(canvas, opts.Width, frame.Title, frame.Breadcrumb)

	if len(frame.Elements) == 0 {
		drawNoData(canvas, opts.Width, opts.Height)
		return nil
	}

	var bars, tiles, bubbles []navigator.Visual
	for _, v := range frame.Elements {
		switch v.Kind {
		case layout.KindBar:
			bars = append(bars, v)
		case layout.KindTile, layout.KindHeader:
			tiles = append(tiles, v)
		case layout.KindBubble:
			bubbles = append(bubbles, v)
		}
	}

	if len(bars) > 0 {
		canvas.Gid("bars")
		for _, v := range bars {
			drawBar(canvas, v, opts.LabelLimit)
		}
		canvas.Gend()
	}
	if len(tiles) > 0 {
		canvas.Group(`id="tiles"`, fmt.Sprintf(`transform="translate(0,%d)"`, treemapOffset))
		for _, v := range tiles {
			drawTile(canvas, v)
		}
		canvas.Gend()
	}
	if len(bubbles) > 0 {
		canvas.Group(`id="bubbles"`, fmt.Sprintf(`transform="%s"`, transformOf(opts.Transform)))
		for _, v := range bubbles {
			drawBubble(canvas, v)
		}
		canvas.Gend()
	}
	return nil
}

func drawHeading(canvas *svg.SVG, width int, title, breadcrumb string) {
	canvas.Text(width/2, 20, title, `text-anchor="middle"`, `font-size="16px"`, `font-weight="bold"`)
	canvas.Text(width/2, 40, breadcrumb, `class="chart-subtitle"`, `text-anchor="middle"`, `font-size="16px"`, `fill="#666"`)
}

func drawNoData(canvas *svg.SVG, width, height int) {
	canvas.Text(width/2, height/2, dataset.NoDataLabel, `text-anchor="middle"`, `font-size="14px"`, `fill="#999"`)
}

func drawBar(canvas *svg.SVG, v navigator.Visual, limit int) {
	fill := BarLeafFill
	if v.Branch {
		fill = BarBranchFill
	}
	r := v.Rect
	canvas.Group(keyAttr(v.Key), cursorAttr(v.Branch), opacityAttr(v.Opacity))
	canvas.Text(px(r.X0)-6, px((r.Y0+r.Y1)/2), Truncate(v.Name, limit), `dy="0.35em"`, `text-anchor="end"`)
	canvas.Rect(px(r.X0), px(r.Y0), px(r.Width()), px(r.Height()), fmt.Sprintf(`fill="%s"`, fill))
	canvas.Title(fmt.Sprintf("%s\nValue: %s", v.Name, formatValue(v.Value)))
	canvas.Gend()
}

func drawTile(canvas *svg.SVG, v navigator.Visual) {
	fill := TileLeafFill
	switch {
	case v.Kind == layout.KindHeader:
		fill = TileHeaderFill
	case v.Branch:
		fill = TileBranchFill
	}
	clickable := v.Branch
	r := v.Rect
	canvas.Group(keyAttr(v.Key), cursorAttr(clickable), opacityAttr(v.Opacity),
		fmt.Sprintf(`transform="translate(%d,%d)"`, px(r.X0), px(r.Y0)))
	canvas.Title(v.Name + "\n" + formatValue(v.Value))
	canvas.Rect(0, 0, px(r.Width()), px(r.Height()), fmt.Sprintf(`fill="%s"`, fill), `stroke="#fff"`)

	lines := append(SplitCamel(v.Name), formatValue(v.Value))
	for i, line := range lines {
		attrs := []string{fmt.Sprintf(`dy="%.1fem"`, lineOffset(i, len(lines)))}
		if i == len(lines)-1 {
			attrs = append(attrs, `fill-opacity="0.7"`)
		}
		canvas.Text(3, 0, line, attrs...)
	}
	canvas.Gend()
}

// lineOffset places tspan i of n like the treemap labels: 0.9em apart with
// the value line pushed down a little.
func lineOffset(i, n int) float64 {
	off := 1.1 + float64(i)*0.9
	if i == n-1 {
		off += 0.3
	}
	return off
}

func drawBubble(canvas *svg.SVG, v navigator.Visual) {
	fill := UnknownFill
	var title string
	if v.Node != nil {
		if f, ok := CategoryFills[v.Node.Attr(hierarchy.AttrCategory)]; ok {
			fill = f
		}
		title = fmt.Sprintf("%s\n%s: %s", v.Name, v.Node.Attr(hierarchy.AttrTechnology), formatValue(v.Value))
	}
	canvas.Circle(px(v.Center.X), px(v.Center.Y), px(v.Radius),
		keyAttr(v.Key), fmt.Sprintf(`fill="%s"`, fill), `stroke="#fff"`, opacityAttr(v.Opacity), `cursor="pointer"`)
	if title != "" {
		canvas.Title(title)
	}
}

// Truncate shortens s to limit runes followed by "...".
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

// SplitCamel breaks a camelCase name before each capital that starts a
// word. Names without a lower-to-upper change are returned whole.
func SplitCamel(s string) []string {
	r := []rune(s)
	camel := false
	for i := 1; i < len(r); i++ {
		if unicode.IsLower(r[i-1]) && unicode.IsUpper(r[i]) {
			camel = true
			break
		}
	}
	if !camel {
		return []string{s}
	}
	var out []string
	start := 0
	for i := 1; i < len(r); i++ {
		if unicode.IsUpper(r[i]) && i+1 < len(r) && !unicode.IsUpper(r[i+1]) {
			out = append(out, string(r[start:i]))
			start = i
		}
	}
	return append(out, string(r[start:]))
}

func formatValue(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}

func transformOf(t layout.ZoomTransform) string {
	if t.K == 0 {
		t = layout.Identity
	}
	return t.String()
}

func px(v float64) int { return int(math.Round(v)) }

func keyAttr(key string) string {
	return fmt.Sprintf(`data-key="%s"`, html.EscapeString(key))
}

func cursorAttr(clickable bool) string {
	if clickable {
		return `cursor="pointer"`
	}
	return `cursor="default"`
}

func opacityAttr(o float64) string {
	return fmt.Sprintf(`opacity="%s"`, strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", o), "0"), "."))
}
