package task

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitForTerminal polls until the task reaches a terminal status or the
// timeout elapses.
func waitForTerminal(t *testing.T, store *StatusStore, id uuid.UUID) TaskRecord {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rec, ok := store.Get(id); ok && rec.Status.Terminal() {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec, _ := store.Get(id)
	t.Fatalf("task %s never reached a terminal status, last status %q", id, rec.Status)
	return TaskRecord{}
}

func newTestPool(t *testing.T, workerCount int) (*TaskQueue, *StatusStore, *WorkerPool) {
	t.Helper()

	logger := setupTestLogger()
	queue := NewTaskQueue(16, logger)
	statuses := NewStatusStore()
	pool := NewWorkerPool(queue, statuses, WorkerPoolConfig{WorkerCount: workerCount}, logger)

	t.Cleanup(pool.Stop)
	return queue, statuses, pool
}

func submit(t *testing.T, queue *TaskQueue, statuses *StatusStore, task Task) {
	t.Helper()
	require.NoError(t, statuses.Create(task.ID(), task.Type()))
	require.NoError(t, queue.Enqueue(task))
}

func TestWorkerPool_CompletesTask(t *testing.T) {
	queue, statuses, pool := newTestPool(t, 2)

	result := json.RawMessage(`{"success":true,"message":"done"}`)
	task := newMockTask()
	task.execFn = func(ctx context.Context) (json.RawMessage, error) {
		return result, nil
	}

	submit(t, queue, statuses, task)

	// Pending before the pool starts
	rec, ok := statuses.Get(task.ID())
	require.True(t, ok)
	assert.Equal(t, TaskStatusPending, rec.Status)

	pool.Start()

	rec = waitForTerminal(t, statuses, task.ID())
	assert.Equal(t, TaskStatusCompleted, rec.Status)
	assert.Equal(t, result, rec.Result)
	assert.NotNil(t, rec.CompletedAt)
}

func TestWorkerPool_FailsTask(t *testing.T) {
	queue, statuses, pool := newTestPool(t, 2)

	task := newMockTask()
	task.execFn = func(ctx context.Context) (json.RawMessage, error) {
		return nil, errors.New("verification failed: sender mismatch")
	}

	submit(t, queue, statuses, task)
	pool.Start()

	rec := waitForTerminal(t, statuses, task.ID())
	assert.Equal(t, TaskStatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "sender mismatch")
	assert.Nil(t, rec.Result)
}

func TestWorkerPool_PanicBecomesFailure(t *testing.T) {
	queue, statuses, pool := newTestPool(t, 1)

	panicking := newMockTask()
	panicking.execFn = func(ctx context.Context) (json.RawMessage, error) {
		panic("unexpected state")
	}

	healthy := newMockTask()

	submit(t, queue, statuses, panicking)
	submit(t, queue, statuses, healthy)
	pool.Start()

	rec := waitForTerminal(t, statuses, panicking.ID())
	assert.Equal(t, TaskStatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "panic")

	// The sole worker survived the panic and processed the next task
	rec = waitForTerminal(t, statuses, healthy.ID())
	assert.Equal(t, TaskStatusCompleted, rec.Status)
}

func TestWorkerPool_SingleWorkerDrainsConcurrentSubmissions(t *testing.T) {
	queue, statuses, pool := newTestPool(t, 1)

	first := newMockTask()
	second := newMockTask()
	submit(t, queue, statuses, first)
	submit(t, queue, statuses, second)

	pool.Start()

	assert.True(t, waitForTerminal(t, statuses, first.ID()).Status.Terminal())
	assert.True(t, waitForTerminal(t, statuses, second.ID()).Status.Terminal())
}

func TestWorkerPool_StatusSequenceIsForwardOnly(t *testing.T) {
	queue, statuses, pool := newTestPool(t, 4)

	started := make(chan struct{})
	release := make(chan struct{})
	task := newMockTask()
	task.execFn = func(ctx context.Context) (json.RawMessage, error) {
		close(started)
		<-release
		return json.RawMessage(`{}`), nil
	}

	submit(t, queue, statuses, task)

	rec, _ := statuses.Get(task.ID())
	assert.Equal(t, TaskStatusPending, rec.Status)

	pool.Start()

	<-started
	rec, _ = statuses.Get(task.ID())
	assert.Equal(t, TaskStatusProcessing, rec.Status)

	close(release)
	rec = waitForTerminal(t, statuses, task.ID())
	assert.Equal(t, TaskStatusCompleted, rec.Status)
}

func TestWorkerPool_StopWaitsForInFlightTask(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(4, logger)
	statuses := NewStatusStore()
	pool := NewWorkerPool(queue, statuses, WorkerPoolConfig{WorkerCount: 1}, logger)

	var finished sync.WaitGroup
	finished.Add(1)

	started := make(chan struct{})
	task := newMockTask()
	task.execFn = func(ctx context.Context) (json.RawMessage, error) {
		defer finished.Done()
		close(started)
		time.Sleep(50 * time.Millisecond)
		return json.RawMessage(`{}`), nil
	}

	submit(t, queue, statuses, task)
	pool.Start()

	<-started
	pool.Stop()

	// Stop returned, so the in-flight task must have finished
	finished.Wait()
	rec, _ := statuses.Get(task.ID())
	assert.Equal(t, TaskStatusCompleted, rec.Status)
}

func TestNewWorkerPool_InvalidWorkerCountDefaults(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(1, logger)
	pool := NewWorkerPool(queue, NewStatusStore(), WorkerPoolConfig{WorkerCount: -3}, logger)

	assert.Equal(t, 1, pool.workerCount)
}
