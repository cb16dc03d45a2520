package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/shortlist-watcher/internal/adapters/archive"
	"github.com/mikey/shortlist-watcher/internal/config"
	"github.com/mikey/shortlist-watcher/internal/di"
	"github.com/mikey/shortlist-watcher/internal/httpapi"
	"github.com/mikey/shortlist-watcher/internal/runner"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	dig.In

	Config  *config.Config
	Logger  *zap.Logger
	Runner  *runner.Runner
	Server  *httpapi.Server
	Archive archive.Archive
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build the dependency injection container
	container, err := di.BuildContainer(ctx)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(func(a app) error { return run(ctx, a) }); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the poll loop and the HTTP API and blocks until ctx is cancelled
func run(ctx context.Context, a app) error {
	logger := a.Logger
	defer logger.Sync()

	watcherCfg, err := a.Config.GetWatcher()
	if err != nil {
		return err
	}
	if watcherCfg.Autostart {
		if err := a.Runner.Start(); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
	} else {
		logger.Info("Autostart disabled; start the watcher through the API")
	}

	serverErr := make(chan error, 1)
	if a.Config.GetServer().Enabled {
		go func() { serverErr <- a.Server.Start() }()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.Config.GetServer().Enabled {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to stop HTTP server", zap.Error(err))
		}
	}
	if err := a.Runner.Close(); err != nil {
		logger.Error("Failed to stop watcher", zap.Error(err))
	}
	a.Archive.Stop()

	logger.Info("Shutdown complete")
	return nil
}
