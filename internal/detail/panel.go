package detail

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/ziadkadry99/healthviz/internal/hierarchy"
	"github.com/ziadkadry99/healthviz/internal/layout"
)

// ErrNotLeaf is returned when Show is given an internal node.
var ErrNotLeaf = errors.New("detail panel requires a leaf")

// Unavailable is shown for categories without a description.
const Unavailable = "Description unavailable."

// FocusScale is the zoom applied when a bubble is selected.
const FocusScale = 2

// DefaultDescriptions covers the availability categories of the medical
// technology dataset.
var DefaultDescriptions = map[string]string{
	"Very Low":  "Availability is far below the OECD median. Patients typically face long travel times or waiting lists for this technology.",
	"Low":       "Availability is below the OECD median. Access is concentrated in large urban hospitals.",
	"Medium":    "Availability is close to the OECD median for this technology.",
	"High":      "Availability is above the OECD median. Most regions have access within a reasonable distance.",
	"Very High": "Availability is among the highest in the OECD, with units in most hospitals and many outpatient centres.",
}

// View is the rendered content of the panel.
type View struct {
	Title       string               `json:"title"`
	Name        string               `json:"name"`
	Category    string               `json:"category"`
	Technology  string               `json:"technology,omitempty"`
	Year        int                  `json:"year,omitempty"`
	Value       float64              `json:"value"`
	Description string               `json:"description"`
	HTML        string               `json:"html"`
	Focus       layout.ZoomTransform `json:"focus"`
}

// Panel looks up category descriptions and renders them next to a
// selected leaf.
type Panel struct {
	descriptions  map[string]string
	width, height float64
	md            goldmark.Markdown
}

// New creates a Panel for a width x height chart. A nil descriptions map
// uses DefaultDescriptions.
func New(descriptions map[string]string, width, height float64) *Panel {
	if descriptions == nil {
		descriptions = DefaultDescriptions
	}
	return &Panel{
		descriptions: descriptions,
		width:        width,
		height:       height,
		md:           goldmark.New(),
	}
}

// Describe returns the description for category, or Unavailable.
func (p *Panel) Describe(category string) string {
	if d, ok := p.descriptions[category]; ok && d != "" {
		return d
	}
	return Unavailable
}

// Show renders the panel for leaf, drawn as shape, and computes the zoom
// that centers the bubble in the chart.
func (p *Panel) Show(leaf *hierarchy.Node, shape layout.Shape) (View, error) {
	if leaf == nil || !leaf.IsLeaf() {
		return View{}, ErrNotLeaf
	}

	name := leaf.Attr(hierarchy.AttrCountry)
	if name == "" {
		name = leaf.Name
	}
	v := View{
		Title:      "Details for " + name,
		Name:       name,
		Category:   leaf.Attr(hierarchy.AttrCategory),
		Technology: leaf.Attr(hierarchy.AttrTechnology),
		Value:      leaf.Value,
		Focus:      layout.FocusOn(shape.Center, p.width, p.height, FocusScale),
	}
	if y := leaf.Attr(hierarchy.AttrYear); y != "" {
		if n, err := strconv.Atoi(y); err == nil {
			v.Year = n
		}
	}
	v.Description = p.Describe(v.Category)

	html, err := p.render(v)
	if err != nil {
		return View{}, err
	}
	v.HTML = html
	return v, nil
}

// Clear returns the empty panel shown after a reset.
func (p *Panel) Clear() View {
	return View{Focus: layout.Identity}
}

func (p *Panel) render(v View) (string, error) {
	var src strings.Builder
	fmt.Fprintf(&src, "### %s\n\n", escape(v.Title))
	if v.Technology != "" {
		fmt.Fprintf(&src, "- **Technology:** %s\n", escape(v.Technology))
	}
	fmt.Fprintf(&src, "- **Availability Category:** %s\n", escape(orDash(v.Category)))
	if v.Year != 0 {
		fmt.Fprintf(&src, "- **Year:** %d\n", v.Year)
	}
	fmt.Fprintf(&src, "- **Value:** %s\n\n", strconv.FormatFloat(v.Value, 'f', -1, 64))
	src.WriteString(escape(v.Description))
	src.WriteString("\n")

	var buf bytes.Buffer
	if err := p.md.Convert([]byte(src.String()), &buf); err != nil {
		return "", fmt.Errorf("rendering detail panel: %w", err)
	}
	return buf.String(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "#", `\#`,
)

// escape neutralizes Markdown and HTML in dataset strings.
func escape(s string) string { return mdEscaper.Replace(s) }
