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

	"github.com/gemstage/gemstage/internal/assets"
	"github.com/gemstage/gemstage/internal/config"
	"github.com/gemstage/gemstage/internal/db"
	"github.com/gemstage/gemstage/internal/jobs"
	"github.com/gemstage/gemstage/internal/projects"
	"github.com/gemstage/gemstage/internal/settings"
	"github.com/gemstage/gemstage/internal/studio"
)

// Server is the gemstage HTTP API: uploads, analysis, shoots, try-on,
// project history and settings.
type Server struct {
	cfg        *config.Config
	db         *db.DB
	files      *assets.Store
	studio     *studio.Studio
	jobs       *jobs.Registry
	projects   *projects.Store
	settings   *settings.Store
	router     chi.Router
	httpServer *http.Server
}

// New creates a server wired to the given database, file store and studio.
func New(cfg *config.Config, database *db.DB, files *assets.Store, st *studio.Studio) *Server {
	s := &Server{
		cfg:      cfg,
		db:       database,
		files:    files,
		studio:   st,
		jobs:     jobs.NewRegistry(),
		projects: projects.NewStore(database),
		settings: settings.NewStore(database),
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
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(limitBody(int64(s.cfg.MaxUploadMB) << 20))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.CORSAllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Studio operations
	r.Post("/api/analyze", s.handleAnalyze)
	r.Post("/api/crop", s.handleCrop)
	r.Post("/api/shoots", s.handleShoot)
	r.Post("/api/tryon", s.handleTryOn)
	r.Get("/api/scenes", s.handleScenes)

	// Feature packages
	jobs.RegisterRoutes(r, s.jobs)
	projects.RegisterRoutes(r, s.projects, s.files, s.studio)
	settings.RegisterRoutes(r, s.settings)

	return r
}

// limitBody caps request bodies so an oversized upload fails at read time
// instead of exhausting memory.
func limitBody(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if max > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, max)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Jobs returns the in-memory shoot job registry.
func (s *Server) Jobs() *jobs.Registry { return s.jobs }

// Projects returns the project store.
func (s *Server) Projects() *projects.Store { return s.projects }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      300 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("gemstage server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
