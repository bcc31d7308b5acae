// Package server wires the HTTP surface: endpoint registry, service
// injection through request contexts, and graceful lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/planora/planora/internal/aiextract"
	"github.com/planora/planora/internal/api"
	"github.com/planora/planora/internal/config"
	"github.com/planora/planora/internal/pipeline"
	"github.com/planora/planora/internal/server/endpoints"
	"github.com/planora/planora/internal/svcctx"
)

// Server is the Planora HTTP server.
type Server struct {
	httpServer   *http.Server
	orchestrator *pipeline.Orchestrator
	configMgr    *config.Manager
	logger       *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// ArchiveDir receives a copy of each extracted document (optional)
	ArchiveDir string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Build the orchestrator from config, with hot reload: a config
	// change swaps the AI provider and parser options on the fly.
	orchestrator := pipeline.New(orchestratorConfig(currentConfig(cfg.ConfigManager), cfg.ArchiveDir, cfg.Logger), cfg.Logger)
	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			orchestrator.Update(orchestratorConfig(c, cfg.ArchiveDir, cfg.Logger))
			cfg.Logger.Info("extraction pipeline reloaded from config",
				"provider", orchestrator.Provider().Name(),
			)
		})
	}

	s := &Server{
		orchestrator: orchestrator,
		configMgr:    cfg.ConfigManager,
		logger:       cfg.Logger,
	}

	s.services = &svcctx.Services{
		Orchestrator:  orchestrator,
		ConfigManager: cfg.ConfigManager,
		Logger:        cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	// No global WriteTimeout: the extract endpoint streams NDJSON for
	// as long as the pipeline runs, and a write deadline would cut
	// long AI calls mid-stream.
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           s.withServices(mux),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

func currentConfig(cm *config.Manager) *config.Config {
	if cm == nil {
		return config.DefaultConfig()
	}
	return cm.Get()
}

func orchestratorConfig(c *config.Config, archiveDir string, logger *slog.Logger) pipeline.Config {
	return pipeline.Config{
		Provider:          aiextract.New(c.ToExtractorConfig(), logger),
		Heuristic:         c.ToHeuristicOptions(),
		HeartbeatInterval: c.HeartbeatInterval(),
		ArchiveDir:        archiveDir,
	}
}

// Start starts the server. It blocks until the context is cancelled
// or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Orchestrator returns the extraction orchestrator.
func (s *Server) Orchestrator() *pipeline.Orchestrator {
	return s.orchestrator
}

// Handler returns the root HTTP handler (tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.orchestrator == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"message":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
