package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// WorkerPool manages a pool of worker goroutines that process tasks
// from a task queue and publish lifecycle updates to the status store.
// It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// taskQueue provides read access to the tasks to be processed
	taskQueue TaskQueueReader

	// statuses receives lifecycle transitions for every processed task
	statuses *StatusStore

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is used for cancellation and shutdown signaling
	ctx context.Context

	// cancel is the function to call to cancel the context
	cancel context.CancelFunc

	// logger for structured logging
	logger *slog.Logger
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 10,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(
	taskQueue TaskQueueReader,
	statuses *StatusStore,
	config WorkerPoolConfig,
	logger *slog.Logger,
) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		statuses:    statuses,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches the worker goroutines. The pool is started exactly once.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info("worker pool started", "worker_count", p.workerCount)
}

// Stop signals all workers to finish their current task and waits for them
// to exit. Tasks still buffered in the queue are abandoned; their status
// records stay pending.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker consumes tasks until the queue closes or the pool is stopped.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-p.taskQueue.GetChannel():
			if !ok {
				p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}

			p.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task. A panic inside the task
// is converted to a failed status; it never kills the worker.
func (p *WorkerPool) processTask(task Task, workerID int) {
	logger := p.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if err := p.statuses.MarkProcessing(task.ID()); err != nil {
		logger.Error("failed to mark task as processing", "error", err)
		return
	}

	logger.Info("processing task")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked", "panic", r)
			if err := p.statuses.Fail(task.ID(), fmt.Sprintf("task panicked: %v", r)); err != nil {
				logger.Error("failed to mark panicked task as failed", "error", err)
			}
		}
	}()

	result, err := task.Execute(p.ctx)
	if err != nil {
		logger.Error("task execution failed", "error", err)
		if updateErr := p.statuses.Fail(task.ID(), err.Error()); updateErr != nil {
			logger.Error("failed to mark task as failed", "error", updateErr)
		}
		return
	}

	logger.Info("task completed successfully")
	if updateErr := p.statuses.Complete(task.ID(), result); updateErr != nil {
		logger.Error("failed to mark task as completed", "error", updateErr)
	}
}
