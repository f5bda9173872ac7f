package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chainforum/forum-api/internal/config"
	"github.com/chainforum/forum-api/internal/platform/cache"
	"github.com/chainforum/forum-api/internal/platform/ethereum"
	"github.com/chainforum/forum-api/internal/platform/postgres"
	"github.com/chainforum/forum-api/internal/service"
	"github.com/chainforum/forum-api/internal/task"
)

// application holds the wired dependency graph of the server. Everything is
// constructed once at startup and torn down by cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger

	db          *sql.DB
	redisClient *redis.Client
	verifier    *ethereum.Client

	taskQueue  *task.TaskQueue
	statuses   *task.StatusStore
	workerPool *task.WorkerPool

	submissions service.SubmissionService
	reads       service.ReadService
}

// newApplication wires the application from configuration: database, redis
// cache, ledger client, stores, task machinery, and services.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	postStore := postgres.NewPostgresPostStore(db, logger)
	commentStore := postgres.NewPostgresCommentStore(db, logger)
	transactionStore := postgres.NewPostgresTransactionStore(db, logger)

	verifier, err := ethereum.NewClient(cfg.Blockchain, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger client: %w", err)
	}

	// The cache is optional; without a redis URL all reads go straight to
	// the database.
	var (
		redisClient  *redis.Client
		listingCache *cache.Cache
	)
	if cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		listingCache = cache.New(
			redisClient,
			time.Duration(cfg.Cache.PostTTLSeconds)*time.Second,
			time.Duration(cfg.Cache.CommentTTLSeconds)*time.Second,
			logger,
		)
	}

	taskQueue := task.NewTaskQueue(cfg.Task.QueueSize, logger)
	statuses := task.NewStatusStore()
	workerPool := task.NewWorkerPool(
		taskQueue,
		statuses,
		task.WorkerPoolConfig{WorkerCount: cfg.Task.WorkerCount},
		logger,
	)

	// cache.New returns a concrete type; pass nil interfaces when the cache
	// is disabled so the services skip it.
	var taskCache task.ListingCache
	var readCache service.ListingCache
	if listingCache != nil {
		taskCache = listingCache
		readCache = listingCache
	}

	submissions, err := service.NewSubmissionService(
		taskQueue, statuses, verifier, postStore, commentStore, transactionStore,
		taskCache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission service: %w", err)
	}

	reads, err := service.NewReadService(postStore, commentStore, readCache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create read service: %w", err)
	}

	return &application{
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
		verifier:    verifier,
		taskQueue:   taskQueue,
		statuses:    statuses,
		workerPool:  workerPool,
		submissions: submissions,
		reads:       reads,
	}, nil
}

// cleanup tears the application down in reverse dependency order: stop
// accepting tasks, drain the workers, then close the connections.
func (app *application) cleanup() {
	app.taskQueue.Close()
	app.workerPool.Stop()

	app.verifier.Close()

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("failed to close redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
}
