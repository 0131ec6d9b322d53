package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haasonsaas/hr-agent/internal/agent"
	"github.com/haasonsaas/hr-agent/internal/config"
	"github.com/haasonsaas/hr-agent/internal/gateway"
	"github.com/haasonsaas/hr-agent/internal/hrtools"
	"github.com/haasonsaas/hr-agent/internal/observability"
	"github.com/haasonsaas/hr-agent/internal/sessions"
)

// runServe implements the serve command: configuration loading, component
// wiring, and graceful shutdown.
func runServe(ctx context.Context, configPath string, explicit bool, debug bool) error {
	cfg, err := loadConfig(configPath, explicit)
	if err != nil {
		return err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting hr-agent gateway",
		"version", version,
		"commit", commit,
		"config", configPath,
	)

	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName:    "hr-agent",
		ServiceVersion: version,
		Endpoint:       cfg.Observability.Tracing.Endpoint,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
		EnableInsecure: cfg.Observability.Tracing.Insecure,
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "tracer shutdown error", "error", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	toolRegistry := agent.NewToolRegistry()
	for _, tool := range hrtools.All() {
		toolRegistry.Register(tool)
	}

	systemPrompt := cfg.Agent.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = agent.SystemPrompt
	}

	runtime, err := agent.NewAnthropicRuntime(agent.AnthropicConfig{
		APIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		Model:         cfg.Agent.Model,
		MaxTokens:     cfg.Agent.MaxTokens,
		SystemPrompt:  systemPrompt,
		MaxToolRounds: cfg.Agent.MaxToolRounds,
	}, toolRegistry, cfg.Agent.AllowedTools, logger, tracer, metrics)
	if err != nil {
		return fmt.Errorf("initialize agent runtime: %w", err)
	}

	client := agent.NewClient(runtime, cfg.Agent.User, logger, tracer)

	server, err := gateway.NewServer(gateway.Options{
		Config:   cfg,
		Client:   client,
		Registry: sessions.NewRegistry(),
		Locks:    sessions.NewLockManager(0),
		Logger:   logger,
		Tracer:   tracer,
		Metrics:  metrics,
		Gatherer: promRegistry,
		Version:  version,
	})
	if err != nil {
		return err
	}

	return server.Start(ctx)
}

// loadConfig reads the config file. A missing file is only tolerated for
// the built-in default path; a path the operator named must exist.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, err
}
