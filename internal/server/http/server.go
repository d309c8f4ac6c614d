// Package httpserver provides the HTTP REST API for the paper agent.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-agent/internal/database"
	"github.com/helixir/paper-agent/internal/domain"
	"github.com/helixir/paper-agent/internal/logstream"
	"github.com/helixir/paper-agent/internal/pipeline"
	"github.com/helixir/paper-agent/internal/repository"
)

// Pipeline is the orchestrator surface the API exposes.
type Pipeline interface {
	RunCycle(ctx context.Context, trigger string) (*pipeline.CycleStats, error)
	ProcessPaper(ctx context.Context, id string, forceRescore bool) (*domain.Paper, error)
	Rescore(ctx context.Context, day string) (int, error)
	Resummarize(ctx context.Context, id string) (*domain.Paper, error)
}

// HealthChecker reports storage health for the readiness endpoints.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	pipeline   Pipeline
	paperRepo  repository.PaperRepository
	authorRepo repository.AuthorRepository
	health     HealthChecker
	relay      *logstream.Relay
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewServer creates the HTTP server with all dependencies.
func NewServer(
	cfg Config,
	pipe Pipeline,
	paperRepo repository.PaperRepository,
	authorRepo repository.AuthorRepository,
	health HealthChecker,
	relay *logstream.Relay,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		pipeline:   pipe,
		paperRepo:  paperRepo,
		authorRepo: authorRepo,
		health:     health,
		relay:      relay,
		validate:   validator.New(),
		logger:     logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter(cfg.MetricsEnabled)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		// WriteTimeout must stay 0; the log stream endpoint holds its
		// response open indefinitely.
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter(metricsEnabled bool) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)
	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/cycles", s.startCycle)

		r.Get("/papers", s.listPapers)
		r.Get("/papers/{paperID}", s.getPaper)
		r.Post("/papers/{paperID}/process", s.processPaper)
		r.Patch("/papers/{paperID}/score", s.setUserScore)
		r.Post("/papers/{paperID}/resummarize", s.resummarizePaper)
		r.Post("/papers/rescore", s.rescoreDay)

		r.Get("/authors/importance", s.listImportance)
		r.Put("/authors/importance", s.setImportance)
		r.Delete("/authors/importance/{name}", s.deleteImportance)

		r.Get("/logs/stream", s.streamLogs)
	})

	return r
}

// Start starts the HTTP server and blocks until it is shut down.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports readiness including storage connectivity.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}
