package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/backoffice-recon/internal/api/handlers"
	"github.com/eshaffer321/backoffice-recon/internal/api/middleware"
	"github.com/eshaffer321/backoffice-recon/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Port             int
	AllowedOrigins   []string
	UploadLimitBytes int64   // Max multipart upload size (0 = unlimited)
	RateLimitRPS     float64 // Upload requests per second (0 = unlimited)
	RateLimitBurst   int
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:             8085,
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		UploadLimitBytes: 20 << 20,
		RateLimitRPS:     5,
		RateLimitBurst:   10,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	svc        *service.ReconcileService
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc *service.ReconcileService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger,
		svc:    svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
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
	healthHandler := handlers.NewHealthHandler(s.svc)
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Uploads are rate limited and size capped
		reconcileHandler := handlers.NewReconcileHandler(s.svc)
		r.With(s.uploadMiddleware()...).Post("/reconciliations", reconcileHandler.Create)

		// Runs
		runsHandler := handlers.NewRunsHandler(s.svc)
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{id}", runsHandler.Get)

		// Records and export
		recordsHandler := handlers.NewRecordsHandler(s.svc)
		r.Get("/runs/{id}/records", recordsHandler.List)

		exportHandler := handlers.NewExportHandler(s.svc)
		r.Get("/runs/{id}/export", exportHandler.Get)
	})
}

// uploadMiddleware returns the middleware applied to upload routes.
func (s *Server) uploadMiddleware() []func(http.Handler) http.Handler {
	var mw []func(http.Handler) http.Handler
	if s.config.RateLimitRPS > 0 {
		mw = append(mw, middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	}
	if s.config.UploadLimitBytes > 0 {
		mw = append(mw, middleware.BodyLimit(s.config.UploadLimitBytes))
	}
	return mw
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
