package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/chainforum/forum-api/internal/task"
)

// Common sentinel errors for SubmissionService
var (
	// ErrNilQueue indicates the task queue dependency was not provided
	ErrNilQueue = errors.New("task queue cannot be nil")

	// ErrNilStatusStore indicates the status store dependency was not provided
	ErrNilStatusStore = errors.New("status store cannot be nil")

	// ErrSubmissionRejected indicates the task could not be accepted for
	// processing, typically because the queue is full
	ErrSubmissionRejected = errors.New("submission rejected")
)

// SubmissionService accepts content submissions, registers their task
// records, and hands them to the background workers.
type SubmissionService interface {
	// SubmitPostCreation validates the request and enqueues a post creation
	// task, returning the id clients poll for status
	SubmitPostCreation(ctx context.Context, req task.PostCreationRequest) (uuid.UUID, error)

	// SubmitCommentCreation validates the request and enqueues a comment
	// creation task, returning the id clients poll for status
	SubmitCommentCreation(ctx context.Context, req task.CommentCreationRequest) (uuid.UUID, error)

	// GetTaskStatus returns the current record of a submitted task.
	// ok is false when the id was never registered.
	GetTaskStatus(taskID uuid.UUID) (task.TaskRecord, bool)
}

type submissionService struct {
	queue        task.TaskQueueWriter
	statuses     *task.StatusStore
	verifier     task.TransactionVerifier
	posts        task.PostRecorder
	comments     task.CommentRecorder
	transactions task.ConsumptionGuard
	cache        task.ListingCache
	logger       *slog.Logger
}

// NewSubmissionService creates a SubmissionService. The cache may be nil.
func NewSubmissionService(
	queue task.TaskQueueWriter,
	statuses *task.StatusStore,
	verifier task.TransactionVerifier,
	posts task.PostRecorder,
	comments task.CommentRecorder,
	transactions task.ConsumptionGuard,
	cache task.ListingCache,
	logger *slog.Logger,
) (SubmissionService, error) {
	if queue == nil {
		return nil, ErrNilQueue
	}
	if statuses == nil {
		return nil, ErrNilStatusStore
	}
	if verifier == nil {
		return nil, task.ErrNilVerifier
	}
	if posts == nil {
		return nil, task.ErrNilPostStore
	}
	if comments == nil {
		return nil, task.ErrNilCommentStore
	}
	if transactions == nil {
		return nil, task.ErrNilTransactionStore
	}
	if logger == nil {
		return nil, task.ErrNilLogger
	}

	return &submissionService{
		queue:        queue,
		statuses:     statuses,
		verifier:     verifier,
		posts:        posts,
		comments:     comments,
		transactions: transactions,
		cache:        cache,
		logger:       logger.With(slog.String("component", "submission_service")),
	}, nil
}

func (s *submissionService) SubmitPostCreation(
	_ context.Context,
	req task.PostCreationRequest,
) (uuid.UUID, error) {
	t, err := task.NewPostCreationTask(
		req, s.verifier, s.posts, s.transactions, s.cache, s.logger)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid post submission: %w", err)
	}

	return s.submit(t)
}

func (s *submissionService) SubmitCommentCreation(
	_ context.Context,
	req task.CommentCreationRequest,
) (uuid.UUID, error) {
	t, err := task.NewCommentCreationTask(
		req, s.verifier, s.comments, s.transactions, s.cache, s.logger)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid comment submission: %w", err)
	}

	return s.submit(t)
}

func (s *submissionService) GetTaskStatus(taskID uuid.UUID) (task.TaskRecord, bool) {
	return s.statuses.Get(taskID)
}

// submit registers the task record before enqueueing so pollers always find
// a pending record for an accepted submission. A full queue rolls the record
// forward to failed rather than leaving it pending forever.
func (s *submissionService) submit(t task.Task) (uuid.UUID, error) {
	if err := s.statuses.Create(t.ID(), t.Type()); err != nil {
		return uuid.Nil, fmt.Errorf("failed to register task: %w", err)
	}

	if err := s.queue.Enqueue(t); err != nil {
		if failErr := s.statuses.Fail(t.ID(), "submission rejected: "+err.Error()); failErr != nil {
			s.logger.Error("failed to mark rejected task as failed",
				"task_id", t.ID(), "error", failErr)
		}
		s.logger.Warn("task submission rejected",
			"task_id", t.ID(), "task_type", t.Type(), "error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}

	s.logger.Info("task submitted", "task_id", t.ID(), "task_type", t.Type())
	return t.ID(), nil
}
