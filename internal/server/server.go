// Package server exposes the tracked-token read API, the cycle trigger,
// and the dashboard WebSocket endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cryptolens/womtracker/internal/server/handler"
	"github.com/cryptolens/womtracker/internal/server/middleware"
	"github.com/cryptolens/womtracker/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	// ScheduleKey guards POST /api/cycle/trigger. Empty disables the route.
	ScheduleKey string
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	Tokens *handler.TokenHandler
	Live   *handler.LiveHandler
	Search *handler.SearchHandler
	Cycle  *handler.CycleHandler
}

// Server is the headless HTTP + WebSocket API server for the tracker.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS) and attaches the WebSocket hub.
// Search and wsHub may be nil; their routes are then not registered.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Token endpoints.
	mux.HandleFunc("GET /api/tokens", handlers.Tokens.ListTokens)
	mux.HandleFunc("GET /api/tokens/{symbol}/posts", handlers.Tokens.ListPosts)
	mux.HandleFunc("GET /api/tokens/{symbol}/volume", handlers.Tokens.PostVolume)
	mux.HandleFunc("GET /api/tokens/{symbol}/live", handlers.Live.LivePosts)

	// Direct token lookup.
	if handlers.Search != nil {
		mux.HandleFunc("GET /api/search/{chain}/{address}", handlers.Search.SearchToken)
	}

	// Cycle trigger, guarded by the schedule key.
	mux.Handle("POST /api/cycle/trigger",
		middleware.RequireKey(cfg.ScheduleKey)(http.HandlerFunc(handlers.Cycle.Trigger)))

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
