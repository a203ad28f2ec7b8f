package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/healthviz/internal/chart"
	"github.com/ziadkadry99/healthviz/internal/config"
	"github.com/ziadkadry99/healthviz/internal/hierarchy"
	"github.com/ziadkadry99/healthviz/internal/navigator"
	"github.com/ziadkadry99/healthviz/internal/render"
)

func (s *Server) registerChartRoutes(r chi.Router) {
	r.Get("/api/charts", s.handleListCharts)
	r.Get("/api/charts/{name}/tree", s.handleTree)
	r.Get("/api/charts/{name}/svg", s.handleSVG)
}

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	entries, err := s.charts.entries()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	root, ok := s.loadTree(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, root)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	v, err := config.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	root, ok := s.loadTree(w, r)
	if !ok {
		return
	}

	kit := chart.New(s.cfg.Charts, v)
	frame, err := kit.Snapshot(root, splitPath(r.URL.Query().Get("path")))
	if err != nil {
		writeSnapshotError(w, err)
		return
	}
	writeSVG(w, frame, kit.Render)
}

// loadTree resolves the {name} chart, writing the error response itself
// when it fails.
func (s *Server) loadTree(w http.ResponseWriter, r *http.Request) (*hierarchy.Node, bool) {
	return s.loadTreeNamed(w, r, chi.URLParam(r, "name"))
}

func (s *Server) loadTreeNamed(w http.ResponseWriter, r *http.Request, name string) (*hierarchy.Node, bool) {
	root, err := s.charts.tree(r.Context(), name)
	switch {
	case errors.Is(err, errUnknownChart):
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return root, true
}

func writeSnapshotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hierarchy.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, navigator.ErrLeaf):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeSVG(w http.ResponseWriter, frame navigator.Frame, opts render.Options) {
	var buf bytes.Buffer
	if err := render.SVG(&buf, frame, opts); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("server: writing svg: %v", err)
	}
}

// splitPath turns "a/b" into child keys, dropping empty segments.
func splitPath(p string) []string {
	var keys []string
	for _, k := range strings.Split(p, "/") {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
