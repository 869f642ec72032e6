package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charliesneath/ynab-toolkit/internal/api/handlers"
	"github.com/charliesneath/ynab-toolkit/internal/api/middleware"
	"github.com/charliesneath/ynab-toolkit/internal/domain/categorizer"
	"github.com/charliesneath/ynab-toolkit/internal/infrastructure/storage"
	"github.com/charliesneath/ynab-toolkit/internal/observability"
)

// Config holds API server configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8085",
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Server is the read-mostly HTTP API over stored records, runs and the
// category cache.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	cache      categorizer.CacheStore
	metrics    *observability.Metrics
}

// NewServer creates a new API server.
// cache may be a different backend than repo. If metrics is nil, /metrics
// is not mounted.
func NewServer(cfg Config, repo storage.Repository, cache categorizer.CacheStore, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cache == nil {
		cache = repo
	}

	s := &Server{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		repo:    repo,
		cache:   cache,
		metrics: metrics,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.Recoverer)

	// CORS
	corsConfig := middleware.DefaultCORSConfig()
	if len(s.config.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = s.config.AllowedOrigins
	}
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler(s.repo, s.logger)
	s.router.Get("/health", healthHandler.ServeHTTP)

	if registry := s.metrics.Registry(); registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api", func(r chi.Router) {
		recordsHandler := handlers.NewRecordsHandler(s.repo, s.logger)
		r.Get("/records", recordsHandler.List)
		r.Get("/records/{importID}", recordsHandler.Get)

		runsHandler := handlers.NewRunsHandler(s.repo, s.logger)
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{id}", runsHandler.Get)

		statsHandler := handlers.NewStatsHandler(s.repo, s.logger)
		r.Get("/stats", statsHandler.Get)

		cacheHandler := handlers.NewCacheHandler(s.cache, s.logger)
		r.Get("/cache", cacheHandler.Get)
		r.Put("/cache", cacheHandler.Put)
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", s.config.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
