package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/healthviz/internal/config"
	"github.com/ziadkadry99/healthviz/internal/dataset"
	"github.com/ziadkadry99/healthviz/internal/db"
)

// Config holds server configuration.
type Config struct {
	Port     int
	DataDir  string   // directory searched for datasets
	Include  []string // dataset globs under DataDir
	AllowAll bool     // allow all CORS origins (dev mode)
	// Charts supplies canvas sizes, titles and timing. Nil uses defaults.
	Charts *config.Config
}

// Server serves the chart API and navigator sessions.
type Server struct {
	cfg        Config
	db         *db.DB
	store      *dataset.Store
	charts     *catalog
	router     chi.Router
	httpServer *http.Server
}

// New creates a server over an open observation database.
func New(cfg Config, database *db.DB) *Server {
	if cfg.Charts == nil {
		cfg.Charts = config.DefaultConfig()
	}
	s := &Server{
		cfg:    cfg,
		db:     database,
		store:  dataset.NewStore(database),
		charts: newCatalog(cfg.DataDir, cfg.Include),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		s.registerChartRoutes(r)
		s.registerObservationRoutes(r)
	})

	// Navigator sessions outlive the request timeout.
	r.Get("/ws/navigate", s.handleNavigate)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// Store returns the observation store.
func (s *Server) Store() *dataset.Store { return s.store }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("healthviz server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
