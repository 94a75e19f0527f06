package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/michaelbrown/pyplot-mcp/internal/config"
	"github.com/michaelbrown/pyplot-mcp/internal/metrics"
)

// MCPPath is where the streamable HTTP transport is mounted.
const MCPPath = "/mcp"

// Server is the HTTP transport: MCP over streamable HTTP plus health and metrics.
type Server struct {
	cfg       *config.Config
	mcp       *mcpserver.StreamableHTTPServer
	logger    *slog.Logger
	router    chi.Router
	http      *http.Server
	startTime time.Time
}

// New creates a new Server around an MCP server.
func New(cfg *config.Config, mcp *mcpserver.MCPServer, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		mcp:       mcpserver.NewStreamableHTTPServer(mcp, mcpserver.WithEndpointPath(MCPPath)),
		logger:    logger,
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Handle(MCPPath, s.mcp)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
}

type healthResponse struct {
	Status         string `json:"status"`
	Python         string `json:"python"`
	DefaultTimeout int    `json:"default_timeout_s"`
	UptimeSecs     int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:         "healthy",
		Python:         s.cfg.Policy().Python,
		DefaultTimeout: s.cfg.DefaultTimeout(),
		UptimeSecs:     int64(time.Since(s.startTime).Seconds()),
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until shutdown.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("pyplot-mcp HTTP server starting", "addr", s.cfg.Addr(), "endpoint", MCPPath)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
