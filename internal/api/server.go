// Package api is the HTTP surface of the compiler: submit documents
// for compilation, poll job status, fetch results, and run synchronous
// validation, preview and inspection.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Krande/paradoc-go/internal/compile"
	"github.com/Krande/paradoc-go/internal/config"
)

// Server is the HTTP API server.
type Server struct {
	router       chi.Router
	orchestrator *compile.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *compile.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/compile", s.handleCompile)
		r.Get("/api/compile/{jobID}/status", s.handleCompileStatus)
		r.Get("/api/compile/{jobID}/result", s.handleCompileResult)

		r.Post("/api/validate", s.handleValidate)
		r.Post("/api/preview", s.handlePreview)
		r.Post("/api/inspect", s.handleInspect)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
