// Package gateway provides the HTTP server for the HR agent: a thin façade
// translating chat and session endpoints into registry and agent-client calls.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/hr-agent/internal/agent"
	"github.com/haasonsaas/hr-agent/internal/config"
	"github.com/haasonsaas/hr-agent/internal/observability"
	"github.com/haasonsaas/hr-agent/internal/sessions"
)

// lockTimeout bounds how long a chat request waits for its conversation lock.
const lockTimeout = 30 * time.Second

// Options configures a Server. Config and Client are required; nil
// observability fields default to working no-op or fresh instances.
type Options struct {
	Config   *config.Config
	Client   *agent.Client
	Registry *sessions.Registry
	Locks    *sessions.LockManager
	Logger   *observability.Logger
	Tracer   *observability.Tracer
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Version  string
}

// Server is the HTTP gateway.
type Server struct {
	cfg      *config.Config
	client   *agent.Client
	registry *sessions.Registry
	locks    *sessions.LockManager
	logger   *observability.Logger
	tracer   *observability.Tracer
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	version  string

	httpServer *http.Server
}

// NewServer creates a gateway server from the given options.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("gateway: config is required")
	}
	if opts.Client == nil {
		return nil, errors.New("gateway: agent client is required")
	}
	if opts.Registry == nil {
		opts.Registry = sessions.NewRegistry()
	}
	if opts.Locks == nil {
		opts.Locks = sessions.NewLockManager(lockTimeout)
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger(observability.LogConfig{})
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.NoopTracer()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	return &Server{
		cfg:      opts.Config,
		client:   opts.Client,
		registry: opts.Registry,
		locks:    opts.Locks,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		version:  opts.Version,
	}, nil
}

// Handler builds the route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)

	if s.cfg.Observability.Metrics.MetricsEnabled() {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	var handler http.Handler = mux
	handler = s.metricsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.corsMiddleware(handler)
	handler = s.requestIDMiddleware(handler)
	return handler
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.ListenAddr()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("gateway: listen %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info(ctx, "gateway listening", "addr", addr, "version", s.version)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(shutdownCtx, "gateway shutdown error", "error", err)
		return err
	}
	s.logger.Info(shutdownCtx, "gateway stopped")
	return nil
}
