package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrIllegalTransition is returned when a status update would move a task
// backwards in its lifecycle.
var ErrIllegalTransition = errors.New("illegal task status transition")

// ErrUnknownTask is returned when a status update targets a task that was
// never registered.
var ErrUnknownTask = errors.New("unknown task")

// TaskRecord is the poll-visible state of one submitted task.
type TaskRecord struct {
	TaskID      uuid.UUID       `json:"task_id"`
	TaskType    string          `json:"task_type"`
	Status      TaskStatus      `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// statusRank orders the lifecycle so transitions can only move forward.
// Both terminal statuses share a rank; once either is reached no further
// update is accepted.
func statusRank(s TaskStatus) int {
	switch s {
	case TaskStatusPending:
		return 0
	case TaskStatusProcessing:
		return 1
	default:
		return 2
	}
}

// StatusStore tracks the lifecycle of submitted tasks in memory. Records are
// never evicted; task state deliberately does not survive a restart.
type StatusStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*TaskRecord
}

// NewStatusStore creates an empty StatusStore.
func NewStatusStore() *StatusStore {
	return &StatusStore{
		records: make(map[uuid.UUID]*TaskRecord),
	}
}

// Create registers a new task in the pending state. Registering an id twice
// is an error.
func (s *StatusStore) Create(taskID uuid.UUID, taskType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[taskID]; exists {
		return fmt.Errorf("task %s already registered", taskID)
	}

	s.records[taskID] = &TaskRecord{
		TaskID:    taskID,
		TaskType:  taskType,
		Status:    TaskStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// MarkProcessing moves a task from pending to processing.
func (s *StatusStore) MarkProcessing(taskID uuid.UUID) error {
	return s.transition(taskID, TaskStatusProcessing, nil, "")
}

// Complete moves a task to the completed state and attaches its result
// document.
func (s *StatusStore) Complete(taskID uuid.UUID, result json.RawMessage) error {
	return s.transition(taskID, TaskStatusCompleted, result, "")
}

// Fail moves a task to the failed state with a human-readable reason.
func (s *StatusStore) Fail(taskID uuid.UUID, reason string) error {
	return s.transition(taskID, TaskStatusFailed, nil, reason)
}

// Get returns a copy of the task record, or ok=false if the id was never
// registered.
func (s *StatusStore) Get(taskID uuid.UUID) (TaskRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[taskID]
	if !ok {
		return TaskRecord{}, false
	}
	return *rec, true
}

func (s *StatusStore) transition(
	taskID uuid.UUID,
	to TaskStatus,
	result json.RawMessage,
	reason string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}

	if statusRank(to) <= statusRank(rec.Status) {
		return fmt.Errorf("%w: %s -> %s for task %s",
			ErrIllegalTransition, rec.Status, to, taskID)
	}

	rec.Status = to
	if to.Terminal() {
		now := time.Now().UTC()
		rec.CompletedAt = &now
		rec.Result = result
		rec.Error = reason
	}
	return nil
}
