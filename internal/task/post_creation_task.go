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

// duplicateWindow is the trailing window inside which identical content from
// the same author is rejected.
const duplicateWindow = 5 * time.Minute

// Common errors
var (
	ErrNilVerifier            = errors.New("transaction verifier cannot be nil")
	ErrNilPostStore           = errors.New("post store cannot be nil")
	ErrNilCommentStore        = errors.New("comment store cannot be nil")
	ErrNilTransactionStore    = errors.New("transaction store cannot be nil")
	ErrNilLogger              = errors.New("logger cannot be nil")
	ErrTransactionAlreadyUsed = errors.New("the transaction hash has been used")
	ErrDuplicateContent       = errors.New("duplicate content submitted within the last 5 minutes")
)

// TransactionVerifier defines the ledger checks a creation task needs.
type TransactionVerifier interface {
	// VerifyPostTransaction confirms the hash authorizes a post by the
	// expected sender
	VerifyPostTransaction(
		ctx context.Context,
		txHash, expectedSender string,
	) (*domain.VerificationResult, error)

	// VerifyCommentTransaction confirms the hash authorizes a comment by the
	// expected sender
	VerifyCommentTransaction(
		ctx context.Context,
		txHash, expectedSender string,
	) (*domain.VerificationResult, error)
}

// PostRecorder defines the post persistence operations a creation task needs
type PostRecorder interface {
	// Create persists a new post
	Create(ctx context.Context, post *domain.Post) error

	// SetTransactionHash attaches the authorizing hash to a stored post
	SetTransactionHash(ctx context.Context, id uuid.UUID, txHash string) error

	// HasRecentDuplicate reports whether the author posted the same content
	// inside the window
	HasRecentDuplicate(
		ctx context.Context,
		authorAddress, content string,
		window time.Duration,
	) (bool, error)
}

// ConsumptionGuard defines the replay protection operations a creation task
// needs. Record is the authoritative gate; IsUsed is a cheap fast path.
type ConsumptionGuard interface {
	IsUsed(ctx context.Context, txHash string) (bool, error)
	Record(ctx context.Context, ct *domain.ConsumedTransaction) error
}

// ListingCache receives invalidation signals after successful creation.
// A nil cache disables invalidation.
type ListingCache interface {
	InvalidatePosts(ctx context.Context)
	InvalidateComments(ctx context.Context, postID uuid.UUID)
}

// PostCreationRequest carries the user-submitted post fields plus the
// authorizing transaction hash.
type PostCreationRequest struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	AuthorAddress   string   `json:"author_address"`
	AuthorName      string   `json:"author_name,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Image           string   `json:"image,omitempty"`
	TransactionHash string   `json:"transaction_hash"`
}

// postCreationResult is the document exposed to status pollers on success.
type postCreationResult struct {
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
	PostID          uuid.UUID `json:"post_id"`
	TransactionHash string    `json:"transaction_hash"`
}

// PostCreationTask implements the Task interface for creating a post once
// its authorizing transaction has been verified
type PostCreationTask struct {
	id           uuid.UUID
	request      PostCreationRequest
	verifier     TransactionVerifier
	posts        PostRecorder
	transactions ConsumptionGuard
	cache        ListingCache
	logger       *slog.Logger
}

// NewPostCreationTask creates a new post creation task. The cache may be
// nil.
func NewPostCreationTask(
	request PostCreationRequest,
	verifier TransactionVerifier,
	posts PostRecorder,
	transactions ConsumptionGuard,
	cache ListingCache,
	logger *slog.Logger,
) (*PostCreationTask, error) {
	if verifier == nil {
		return nil, ErrNilVerifier
	}
	if posts == nil {
		return nil, ErrNilPostStore
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
		return nil, domain.ErrInvalidPostAuthor
	}

	id := uuid.New()
	return &PostCreationTask{
		id:           id,
		request:      request,
		verifier:     verifier,
		posts:        posts,
		transactions: transactions,
		cache:        cache,
		logger: logger.With(
			"task_type", TaskTypePostCreation,
			"task_id", id,
			"transaction_hash", request.TransactionHash,
		),
	}, nil
}

// ID returns the task's unique identifier
func (t *PostCreationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *PostCreationTask) Type() string {
	return TaskTypePostCreation
}

// Payload returns the task data as a byte slice
func (t *PostCreationTask) Payload() []byte {
	data, err := json.Marshal(t.request)
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Execute runs the full post creation pipeline: transaction verification,
// replay guard, duplicate-content guard, persistence, and consumption
// recording. The consumption record is written after the post so a crash in
// between loses the replay guard, never the user's payment.
func (t *PostCreationTask) Execute(ctx context.Context) (json.RawMessage, error) {
	t.logger.Info("starting post creation task")

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("task cancelled by context: %w", err)
	}

	// 1. Verify the transaction on chain
	verification, err := t.verifier.VerifyPostTransaction(
		ctx, t.request.TransactionHash, t.request.AuthorAddress)
	if err != nil {
		t.logger.Error("transaction verification failed", "error", err)
		return nil, fmt.Errorf("transaction verification failed: %w", err)
	}

	t.logger.Info("transaction verified",
		"block_number", verification.BlockNumber,
		"sender", verification.Sender)

	// 2. Replay fast path. The UNIQUE constraint behind Record is the
	// authoritative check.
	used, err := t.transactions.IsUsed(ctx, t.request.TransactionHash)
	if err != nil {
		t.logger.Error("failed to check transaction consumption", "error", err)
		return nil, fmt.Errorf("failed to check transaction consumption: %w", err)
	}
	if used {
		t.logger.Warn("transaction hash already consumed")
		return nil, ErrTransactionAlreadyUsed
	}

	// 3. Duplicate content guard
	dup, err := t.posts.HasRecentDuplicate(
		ctx, t.request.AuthorAddress, t.request.Content, duplicateWindow)
	if err != nil {
		t.logger.Error("failed to check for duplicate content", "error", err)
		return nil, fmt.Errorf("failed to check for duplicate content: %w", err)
	}
	if dup {
		t.logger.Warn("duplicate content within window")
		return nil, ErrDuplicateContent
	}

	// 4. Persist the post
	post, err := domain.NewPost(
		t.request.Title,
		t.request.Content,
		t.request.AuthorAddress,
		t.request.AuthorName,
		t.request.Tags,
		t.request.Image,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid post: %w", err)
	}

	if err := t.posts.Create(ctx, post); err != nil {
		t.logger.Error("failed to create post", "error", err)
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if err := t.posts.SetTransactionHash(ctx, post.ID, t.request.TransactionHash); err != nil {
		t.logger.Error("failed to attach transaction hash", "error", err, "post_id", post.ID)
		return nil, fmt.Errorf("failed to attach transaction hash: %w", err)
	}

	// 5. Record the consumption. A concurrent winner surfaces here as a
	// uniqueness violation.
	consumed, err := domain.NewConsumedTransaction(
		t.request.TransactionHash,
		domain.TransactionKindPost,
		t.request.AuthorAddress,
		verification.BlockNumber,
		verification.BlockTimestamp,
		post.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid consumption record: %w", err)
	}

	if err := t.transactions.Record(ctx, consumed); err != nil {
		if errors.Is(err, store.ErrTransactionUsed) {
			t.logger.Warn("lost transaction consumption race", "post_id", post.ID)
			return nil, ErrTransactionAlreadyUsed
		}
		t.logger.Error("failed to record transaction consumption", "error", err)
		return nil, fmt.Errorf("failed to record transaction consumption: %w", err)
	}

	if t.cache != nil {
		t.cache.InvalidatePosts(ctx)
	}

	t.logger.Info("post creation task completed", "post_id", post.ID)

	return json.Marshal(postCreationResult{
		Success:         true,
		Message:         "Post created successfully",
		PostID:          post.ID,
		TransactionHash: t.request.TransactionHash,
	})
}
