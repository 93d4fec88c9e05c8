package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ghostline/config"
	"ghostline/engine"
	"ghostline/logger"
	"ghostline/metrics"
	"ghostline/provider"
	"ghostline/provider/mistral"
	"ghostline/provider/ollama"
	"ghostline/provider/openrouter"
	"ghostline/server"
)

func runDaemon(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.LogFile != "" {
		// Read-write, no O_APPEND: log rotation rewrites the tail in place
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger.New(f, logger.ParseLogLevel(cfg.LogLevel))
	} else {
		logger.New(os.Stderr, logger.ParseLogLevel(cfg.LogLevel))
	}
	logger.Info("ghostline %s starting", version)

	store, err := metrics.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	deviceID, err := store.DeviceID()
	if err != nil {
		return err
	}

	telemetryKey := cfg.Telemetry.ResolvedAPIKey()
	tracker := metrics.NewTracker(cfg.Telemetry.Endpoint, telemetryKey, deviceID, func() bool {
		return telemetryKey != ""
	})

	eng, err := engine.New(engine.Config{
		Enabled:       cfg.Enabled,
		Coexist:       cfg.Coexist,
		Model:         cfg.Model,
		WorkspaceRoot: cfg.WorkspaceRoot,
		Budget:        cfg.Context.Budget(),
	}, buildProviders(cfg), tracker)
	if err != nil {
		return err
	}
	defer eng.Close()

	if usage, err := store.LoadUsage(); err == nil {
		eng.RestoreStats(usage)
	} else {
		logger.Warn("could not load usage stats: %v", err)
	}

	srv, err := server.New(eng, cfg.Listen)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)

	if err := store.SaveUsage(eng.Stats()); err != nil {
		logger.Warn("could not persist usage stats: %v", err)
	}
	return runErr
}

// buildProviders registers each configured backend under its model id. The
// active model picks which one serves requests; the rest stay registered so
// a reconfigure is a map swap.
func buildProviders(cfg config.Config) map[string]provider.Provider {
	registry := make(map[string]provider.Provider)
	for _, p := range []provider.Provider{
		openrouter.New(cfg.Providers.OpenRouter.Settings()),
		mistral.New(cfg.Providers.Mistral.Settings()),
		ollama.New(cfg.Providers.Ollama.Settings()),
	} {
		if p.ModelID() == "" {
			continue
		}
		registry[p.ModelID()] = p
	}
	return registry
}
