// Package api exposes null-distribution runs over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"randomnet/app"
	"randomnet/domain/core"
	"randomnet/domain/replicate"
	"randomnet/internal"
	"randomnet/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RunService is what the handlers need from app.NullDistributionService.
type RunService interface {
	Run(ctx context.Context, req app.NullRequest) (*app.NullResult, error)
	Get(ctx context.Context, id core.RunID) (*replicate.Run, error)
	List(ctx context.Context, limit int) ([]*replicate.Run, error)
}

// Server routes HTTP requests to the run service.
type Server struct {
	router   *chi.Mux
	runs     RunService
	defaults config.EngineConfig
	dataDir  string
	logger   *internal.Logger
}

// NewServer builds the router. defaults fill in pool options a request omits
// and cap the ones it sets; dataset paths resolve inside server.DataDir.
func NewServer(runs RunService, defaults config.EngineConfig, server config.ServerConfig, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:   chi.NewRouter(),
		runs:     runs,
		defaults: defaults,
		dataDir:  server.DataDir,
		logger:   logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/v1/runs", func(r chi.Router) {
		r.Post("/", s.handleCreateRun)
		r.Get("/", s.handleListRuns)
		r.Get("/{id}", s.handleGetRun)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed (%s): %v", code, err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
