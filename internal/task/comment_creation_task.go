package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chainforum/forum-api/internal/domain"
	"github.com/chainforum/forum-api/internal/store"
)

// CommentRecorder defines the comment persistence operations a creation
// task needs
type CommentRecorder interface {
	// Create persists a new comment
	Create(ctx context.Context, comment *domain.Comment) error

	// SetTransactionHash attaches the authorizing hash to a stored comment
	SetTransactionHash(ctx context.Context, id uuid.UUID, txHash string) error

	// HasRecentDuplicate reports whether the author commented the same
	// content on the post inside the window
	HasRecentDuplicate(
		ctx context.Context,
		authorAddress, content string,
		postID uuid.UUID,
		window time.Duration,
	) (bool, error)
}

// CommentCreationRequest carries the user-submitted comment fields plus the
// authorizing transaction hash.
type CommentCreationRequest struct {
	PostID          uuid.UUID  `json:"post_id"`
	ParentID        *uuid.UUID `json:"parent_id,omitempty"`
	Content         string     `json:"content"`
	AuthorAddress   string     `json:"author_address"`
	AuthorName      string     `json:"author_name,omitempty"`
	Image           string     `json:"image,omitempty"`
	TransactionHash string     `json:"transaction_hash"`
}

// commentCreationResult is the document exposed to status pollers on
// success.
type commentCreationResult struct {
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
	CommentID       uuid.UUID `json:"comment_id"`
	PostID          uuid.UUID `json:"post_id"`
	TransactionHash string    `json:"transaction_hash"`
}

// CommentCreationTask implements the Task interface for creating a comment
// once its authorizing transaction has been verified
type CommentCreationTask struct {
	id           uuid.UUID
	request      CommentCreationRequest
	verifier     TransactionVerifier
	comments     CommentRecorder
	transactions ConsumptionGuard
	cache        ListingCache
	logger       *slog.Logger
}

// NewCommentCreationTask creates a new comment creation task. The cache may
// be nil.
func NewCommentCreationTask(
	request CommentCreationRequest,
	verifier TransactionVerifier,
	comments CommentRecorder,
	transactions ConsumptionGuard,
	cache ListingCache,
	logger *slog.Logger,
) (*CommentCreationTask, error) {
	if verifier == nil {
		return nil, ErrNilVerifier
	}
	if comments == nil {
		return nil, ErrNilCommentStore
	}
	if transactions == nil {
		return nil, ErrNilTransactionStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	if !domain.IsValidTransactionHash(request.TransactionHash) {
		return nil, domain.ErrInvalidTransactionHash
	}
	if !domain.IsValidAddress(request.AuthorAddress) {
		return nil, domain.ErrInvalidCommentAuthor
	}
	if request.PostID == uuid.Nil {
		return nil, domain.ErrEmptyCommentPostID
	}

	id := uuid.New()
	return &CommentCreationTask{
		id:           id,
		request:      request,
		verifier:     verifier,
		comments:     comments,
		transactions: transactions,
		cache:        cache,
		logger: logger.With(
			"task_type", TaskTypeCommentCreation,
			"task_id", id,
			"post_id", request.PostID,
			"transaction_hash", request.TransactionHash,
		),
	}, nil
}

// ID returns the task's unique identifier
func (t *CommentCreationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *CommentCreationTask) Type() string {
	return TaskTypeCommentCreation
}

// Payload returns the task data as a byte slice
func (t *CommentCreationTask) Payload() []byte {
	data, err := json.Marshal(t.request)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Execute runs the comment creation pipeline. It mirrors the post variant
// but scopes the duplicate guard to the target post and verifies against
// the on-chain comment cost.
func (t *CommentCreationTask) Execute(ctx context.Context) (json.RawMessage, error) {
	t.logger.Info("starting comment creation task")

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("task cancelled by context: %w", err)
	}

	verification, err := t.verifier.VerifyCommentTransaction(
		ctx, t.request.TransactionHash, t.request.AuthorAddress)
	if err != nil {
		t.logger.Error("transaction verification failed", "error", err)
		return nil, fmt.Errorf("transaction verification failed: %w", err)
	}

	t.logger.Info("transaction verified",
		"block_number", verification.BlockNumber,
		"sender", verification.Sender)

	used, err := t.transactions.IsUsed(ctx, t.request.TransactionHash)
	if err != nil {
		t.logger.Error("failed to check transaction consumption", "error", err)
		return nil, fmt.Errorf("failed to check transaction consumption: %w", err)
	}
	if used {
		t.logger.Warn("transaction hash already consumed")
		return nil, ErrTransactionAlreadyUsed
	}

	dup, err := t.comments.HasRecentDuplicate(
		ctx, t.request.AuthorAddress, t.request.Content, t.request.PostID, duplicateWindow)
	if err != nil {
		t.logger.Error("failed to check for duplicate content", "error", err)
		return nil, fmt.Errorf("failed to check for duplicate content: %w", err)
	}
	if dup {
		t.logger.Warn("duplicate content within window")
		return nil, ErrDuplicateContent
	}

	comment, err := domain.NewComment(
		t.request.PostID,
		t.request.ParentID,
		t.request.Content,
		t.request.AuthorAddress,
		t.request.AuthorName,
		t.request.Image,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid comment: %w", err)
	}

	if err := t.comments.Create(ctx, comment); err != nil {
		t.logger.Error("failed to create comment", "error", err)
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if err := t.comments.SetTransactionHash(ctx, comment.ID, t.request.TransactionHash); err != nil {
		t.logger.Error("failed to attach transaction hash", "error", err, "comment_id", comment.ID)
		return nil, fmt.Errorf("failed to attach transaction hash: %w", err)
	}

	consumed, err := domain.NewConsumedTransaction(
		t.request.TransactionHash,
		domain.TransactionKindComment,
		t.request.AuthorAddress,
		verification.BlockNumber,
		verification.BlockTimestamp,
		comment.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid consumption record: %w", err)
	}

	if err := t.transactions.Record(ctx, consumed); err != nil {
		if errors.Is(err, store.ErrTransactionUsed) {
			t.logger.Warn("lost transaction consumption race", "comment_id", comment.ID)
			return nil, ErrTransactionAlreadyUsed
		}
		t.logger.Error("failed to record transaction consumption", "error", err)
		return nil, fmt.Errorf("failed to record transaction consumption: %w", err)
	}

	if t.cache != nil {
		t.cache.InvalidateComments(ctx, t.request.PostID)
	}

	t.logger.Info("comment creation task completed", "comment_id", comment.ID)

	return json.Marshal(commentCreationResult{
		Success:         true,
		Message:         "Comment created successfully",
		CommentID:       comment.ID,
		PostID:          t.request.PostID,
		TransactionHash: t.request.TransactionHash,
	})
}
