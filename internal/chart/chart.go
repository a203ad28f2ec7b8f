// Package chart assembles the layout, navigator and renderer settings of one
// chart variant from configuration.
package chart

import (
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/healthviz/internal/config"
	"github.com/ziadkadry99/healthviz/internal/detail"
	"github.com/ziadkadry99/healthviz/internal/hierarchy"
	"github.com/ziadkadry99/healthviz/internal/layout"
	"github.com/ziadkadry99/healthviz/internal/navigator"
	"github.com/ziadkadry99/healthviz/internal/render"
)

// treemapMargin is the space above the treemap for titles and its header.
const treemapMargin = 80

// Kit holds everything needed to drive and draw one chart instance. A Kit
// owns a stateful layout and must not be shared between navigators.
type Kit struct {
	Variant config.Variant
	Layout  layout.Layout
	Options navigator.Options
	Render  render.Options
	Panel   *detail.Panel
}

// New builds a Kit for variant v.
func New(cfg *config.Config, v config.Variant) Kit {
	k := Kit{
		Variant: v,
		Options: navigator.Options{
			Duration:      cfg.Chart.Duration(),
			ResetDuration: cfg.Chart.ResetDuration(),
			Stagger:       cfg.Chart.Stagger(),
			Separator:     cfg.Chart.Separator,
		},
		Render: render.Options{LabelLimit: cfg.Chart.LabelLimit},
	}

	switch v {
	case config.VariantTreemap:
		k.Layout = layout.Treemap{Width: float64(cfg.Treemap.Width), Height: float64(cfg.Treemap.Height)}
		k.Options.Title = cfg.Treemap.Title
		k.Render.Width, k.Render.Height = cfg.Treemap.Width, cfg.Treemap.Height+treemapMargin
	case config.VariantBubble:
		f := layout.DefaultForce()
		f.Width, f.Height = float64(cfg.Force.Width), float64(cfg.Force.Height)
		f.MaxRadius = cfg.Force.MaxRadius
		f.Strength = cfg.Force.Strength
		f.AlphaDecay = cfg.Force.AlphaDecay
		f.MaxIterations = cfg.Force.MaxIterations
		k.Layout = f
		k.Options.Title = cfg.Force.Title
		k.Render.Width, k.Render.Height = cfg.Force.Width, cfg.Force.Height
		k.Panel = detail.New(nil, f.Width, f.Height)
	default:
		k.Variant = config.VariantBar
		k.Layout = layout.DefaultBar(float64(cfg.Chart.Width))
		k.Options.Title = cfg.Chart.Title
		k.Render.Width, k.Render.Height = cfg.Chart.Width, cfg.Chart.Height
	}
	return k
}

// Navigator starts a navigator over root.
func (k Kit) Navigator(root *hierarchy.Node) *navigator.Navigator {
	return navigator.New(root, k.Layout, k.Options)
}

// Snapshot drills from root along path, a list of child keys, and returns
// the settled frame. An unknown step is hierarchy.ErrNotFound.
func (k Kit) Snapshot(root *hierarchy.Node, path []string) (navigator.Frame, error) {
	now := time.Unix(0, 0)
	opts := k.Options
	opts.Now = func() time.Time { return now }
	nav := navigator.New(root, k.Layout, opts)

	t := nav.Start()
	for _, key := range path {
		now = now.Add(t.Total())
		next, err := nav.DrillDownKey(key)
		if err != nil {
			if errors.Is(err, navigator.ErrNotVisible) {
				return navigator.Frame{}, fmt.Errorf("%w: %q under %s", hierarchy.ErrNotFound, key, nav.Breadcrumb())
			}
			return navigator.Frame{}, fmt.Errorf("drilling into %q: %w", key, err)
		}
		t = next
	}
	now = now.Add(t.Total())
	return nav.Frame(), nil
}
