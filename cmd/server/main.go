// Package main implements the entry point for the forum API server, which
// accepts transaction-authorized posts and comments, verifies the paying
// transactions on chain in background workers, and serves the forum's read
// endpoints.
package main

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/chainforum/forum-api/internal/config"
	"github.com/chainforum/forum-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"worker_count", cfg.Task.WorkerCount,
		"queue_size", cfg.Task.QueueSize)

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	if err := runMigrations(app.db, appLogger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app.workerPool.Start()

	return app.startHTTPServer(app.setupRouter())
}
