package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/healthviz/internal/chart"
	"github.com/ziadkadry99/healthviz/internal/config"
	"github.com/ziadkadry99/healthviz/internal/dataset"
	"github.com/ziadkadry99/healthviz/internal/detail"
	"github.com/ziadkadry99/healthviz/internal/hierarchy"
	"github.com/ziadkadry99/healthviz/internal/layout"
	"github.com/ziadkadry99/healthviz/internal/navigator"
)

func (s *Server) registerObservationRoutes(r chi.Router) {
	r.Get("/api/observations", s.handleObservations)
	r.Get("/api/filters", s.handleFilters)
	r.Get("/api/bubbles", s.handleBubbles)
	r.Get("/api/countries", s.handleCountries)
	r.Get("/api/stack", s.handleStack)
	r.Get("/api/imports", s.handleImports)
}

// filterResponse echoes the filter a chart was built with.
type filterResponse struct {
	Year       int    `json:"year"`
	Technology string `json:"technology"`
}

type filtersResponse struct {
	MinYear      int      `json:"min_year"`
	MaxYear      int      `json:"max_year"`
	Technologies []string `json:"technologies"`
}

type bubblesResponse struct {
	filterResponse
	Frame  navigator.Frame `json:"frame"`
	Detail *detail.View    `json:"detail,omitempty"`
}

type countriesResponse struct {
	filterResponse
	Globe     layout.Globe           `json:"globe"`
	Countries []dataset.CountryValue `json:"countries"`
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	obs, err := s.store.Query(r.Context(), f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if obs == nil {
		obs = []dataset.Observation{}
	}
	writeJSON(w, http.StatusOK, obs)
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	minYear, maxYear, _, err := s.store.YearRange(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	techs, err := s.store.Technologies(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, filtersResponse{
		MinYear:      minYear,
		MaxYear:      maxYear,
		Technologies: append([]string{dataset.AllTechnologies}, techs...),
	})
}

func (s *Server) handleBubbles(w http.ResponseWriter, r *http.Request) {
	f, err := s.defaultFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	root, err := s.bubbleTree(r.Context(), f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	kit := chart.New(s.cfg.Charts, config.VariantBubble)
	frame, err := kit.Snapshot(root, nil)
	if err != nil {
		writeSnapshotError(w, err)
		return
	}

	// focus=<key> selects a bubble and zooms onto it.
	var view *detail.View
	if key := r.URL.Query().Get("focus"); key != "" {
		leaf := root.Child(key)
		if leaf == nil {
			http.Error(w, fmt.Sprintf("unknown bubble %q", key), http.StatusNotFound)
			return
		}
		v, err := kit.Panel.Show(leaf, shapeOf(frame, key))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		kit.Render.Transform = v.Focus
		view = &v
	}

	if r.URL.Query().Get("format") == "svg" {
		writeSVG(w, frame, kit.Render)
		return
	}
	writeJSON(w, http.StatusOK, bubblesResponse{
		filterResponse: filterResponse{Year: f.Year, Technology: f.Technology},
		Frame:          frame,
		Detail:         view,
	})
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("boundaries")
	if name == "" {
		http.Error(w, "boundaries is required", http.StatusBadRequest)
		return
	}
	f, err := s.defaultFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	globe, err := globeFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entry, err := s.charts.lookup(name, dataset.KindBoundaries)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	features, err := dataset.ReadBoundaries(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	obs, err := s.store.Query(r.Context(), f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, countriesResponse{
		filterResponse: filterResponse{Year: f.Year, Technology: f.Technology},
		Globe:          globe,
		Countries:      dataset.MatchCountries(features, obs),
	})
}

func (s *Server) handleStack(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	group, series := q.Get("group"), q.Get("series")
	if group == "" || series == "" {
		http.Error(w, "group and series are required", http.StatusBadRequest)
		return
	}
	f, err := s.defaultFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Groups and series are drawn from every year.
	obs, err := s.store.Query(r.Context(), dataset.Filter{Technology: f.Technology})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dataset.Stack(obs, group, series, f.Year))
}

func (s *Server) handleImports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	imports, err := s.store.Imports(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if imports == nil {
		imports = []dataset.Import{}
	}
	writeJSON(w, http.StatusOK, imports)
}

// bubbleTree puts one leaf per filtered observation under the root.
func (s *Server) bubbleTree(ctx context.Context, f dataset.Filter) (*hierarchy.Node, error) {
	obs, err := s.store.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	title := s.cfg.Charts.Force.Title
	if title == "" {
		title = "Observations"
	}
	return dataset.Hierarchy(title, obs)
}

// defaultFilter is parseFilter with the latest imported year when none
// is given.
func (s *Server) defaultFilter(r *http.Request) (dataset.Filter, error) {
	f, err := parseFilter(r)
	if err != nil {
		return f, err
	}
	if f.Year == 0 {
		_, maxYear, ok, err := s.store.YearRange(r.Context())
		if err != nil {
			return f, err
		}
		if ok {
			f.Year = maxYear
		}
	}
	return f, nil
}

// shapeOf returns the on-screen geometry of key in frame.
func shapeOf(frame navigator.Frame, key string) layout.Shape {
	for _, v := range frame.Elements {
		if v.Key == key {
			return v.Shape
		}
	}
	return layout.Shape{Key: key}
}

// maxZoomSteps bounds the zoom buttons a single request may replay.
const maxZoomSteps = 50

// globeFromQuery replays drag=dx,dy and zoom=steps on the default globe.
func globeFromQuery(r *http.Request) (layout.Globe, error) {
	q := r.URL.Query()
	g := layout.DefaultGlobe()
	if v := q.Get("drag"); v != "" {
		dx, dy, ok := strings.Cut(v, ",")
		x, errX := strconv.ParseFloat(dx, 64)
		y, errY := strconv.ParseFloat(dy, 64)
		if !ok || errX != nil || errY != nil {
			return g, fmt.Errorf("invalid drag %q: want dx,dy", v)
		}
		g.Drag(x, y)
	}
	if v := q.Get("zoom"); v != "" {
		steps, err := strconv.Atoi(v)
		if err != nil || steps < -maxZoomSteps || steps > maxZoomSteps {
			return g, fmt.Errorf("invalid zoom %q: want steps between -%d and %d", v, maxZoomSteps, maxZoomSteps)
		}
		for ; steps > 0; steps-- {
			g.ZoomIn()
		}
		for ; steps < 0; steps++ {
			g.ZoomOut()
		}
	}
	return g, nil
}

func parseFilter(r *http.Request) (dataset.Filter, error) {
	q := r.URL.Query()
	f := dataset.Filter{Technology: q.Get("technology")}
	if f.Technology == "" {
		f.Technology = dataset.AllTechnologies
	}
	if y := q.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return f, fmt.Errorf("invalid year %q", y)
		}
		f.Year = year
	}
	return f, nil
}
