package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vigil-ai/vigil/internal/decision"
	"github.com/vigil-ai/vigil/internal/moderation"
	"github.com/vigil-ai/vigil/internal/platform/config"
	"github.com/vigil-ai/vigil/internal/platform/server"
	"github.com/vigil-ai/vigil/internal/platform/telemetry"
	"github.com/vigil-ai/vigil/internal/redteam"
	"github.com/vigil-ai/vigil/internal/risk"
	"github.com/vigil-ai/vigil/internal/routing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logging
	logger := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)
	telemetry.SetDefault(logger)

	slog.Info("vigil starting",
		"version", "0.1.0",
		"port", cfg.Server.Port,
	)

	metrics := telemetry.NewMetrics()

	// Decision pipeline
	var modOpts []moderation.Option
	if cfg.Moderation.Strict {
		modOpts = append(modOpts, moderation.Strict())
	} else if cfg.Moderation.Threshold > 0 {
		modOpts = append(modOpts, moderation.WithThreshold(cfg.Moderation.Threshold))
	}

	threats := redteam.NewEngine()
	gate := decision.NewGate(risk.NewAssessor(), moderation.NewModerator(modOpts...), threats)
	cache := decision.NewCache(cfg.Cache.Size, cfg.Cache.TTL())

	// Model routing
	registry := routing.NewRegistry()
	for _, m := range routing.DefaultModels() {
		registry.Register(m)
	}
	router := routing.NewRouter(registry).WithCostReference(cfg.Router.CostReference)
	tracker := routing.NewTracker(registry, routing.NewHTTPProber(), routing.TrackerConfig{
		Interval:     cfg.Probe.Interval(),
		ProbeTimeout: cfg.Probe.Timeout(),
		Concurrency:  cfg.Probe.Concurrency,
		Observe:      metrics.ObserveProbe,
	})

	srv := server.New(cfg.Server.Addr(), server.Dependencies{
		Gate:               gate,
		Cache:              cache,
		Registry:           registry,
		Router:             router,
		Tracker:            tracker,
		Threats:            threats,
		Metrics:            metrics,
		Logger:             logger,
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
	})

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Periodic model health checks run for the life of the process.
	go tracker.Run(ctx)
	slog.Info("health tracker started",
		"models", len(registry.IDs()),
		"interval", cfg.Probe.Interval(),
	)

	slog.Info("server ready", "addr", cfg.Server.Addr())
	return srv.Start(ctx)
}
