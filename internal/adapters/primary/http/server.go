package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/smetzlaff/epgrec/internal/infrastructure/config"
)

// Server represents the HTTP server
type Server struct {
	config *config.ServerConfig
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.ServerConfig, logger *slog.Logger, mux http.Handler) *Server {
	return &Server{
		config: cfg,
		logger: logger,
		server: &http.Server{
			Addr:           fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:        mux,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", slog.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// SetupRoutes configures all HTTP routes using Go 1.22+ routing
func SetupRoutes(handler *Handler, cfg *config.ServerConfig, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Apply middleware chain
	chain := func(h http.HandlerFunc, middlewares ...func(http.Handler) http.Handler) http.Handler {
		handler := http.Handler(h)
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}

	commonMiddleware := []func(http.Handler) http.Handler{
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		SecurityHeadersMiddleware(),
		RateLimitMiddleware(logger, cfg.RateLimit),
	}

	mux.Handle("GET /api/epg", chain(handler.EPGList, commonMiddleware...))
	mux.Handle("GET /api/epg/search", chain(handler.EPGSearch, commonMiddleware...))
	mux.Handle("GET /api/epg/details", chain(handler.EPGDetails, commonMiddleware...))
	mux.Handle("POST /api/cache/clear", chain(handler.CacheClear, commonMiddleware...))
	mux.Handle("GET /api/cache/stats", chain(handler.CacheStats, commonMiddleware...))

	mux.Handle("GET /api/channels", chain(handler.Channels, commonMiddleware...))

	mux.Handle("POST /api/timers", chain(handler.TimerCreate, commonMiddleware...))
	mux.Handle("GET /api/timers/test", chain(handler.TimerTest, commonMiddleware...))

	mux.Handle("GET /api/tasks", chain(handler.TaskList, commonMiddleware...))
	mux.Handle("POST /api/tasks", chain(handler.TaskCreate, commonMiddleware...))
	mux.Handle("GET /api/tasks/types", chain(handler.TaskTypes, commonMiddleware...))
	mux.Handle("GET /api/tasks/{id}", chain(handler.TaskGet, commonMiddleware...))
	mux.Handle("PUT /api/tasks/{id}", chain(handler.TaskUpdate, commonMiddleware...))
	mux.Handle("DELETE /api/tasks/{id}", chain(handler.TaskDelete, commonMiddleware...))
	mux.Handle("POST /api/tasks/{id}/toggle", chain(handler.TaskToggle, commonMiddleware...))
	mux.Handle("POST /api/tasks/{id}/execute", chain(handler.TaskExecute, commonMiddleware...))

	mux.Handle("GET /api/scheduler/status", chain(handler.SchedulerStatus, commonMiddleware...))
	mux.Handle("POST /api/scheduler/run", chain(handler.SchedulerRun, commonMiddleware...))

	mux.Handle("GET /healthz", chain(handler.Health, commonMiddleware...))

	return mux
}
