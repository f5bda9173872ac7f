package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chainforum/forum-api/internal/domain"
)

// CommentStore defines the interface for comment data persistence.
type CommentStore interface {
	// Create saves a new comment to the store. The write is transactional:
	// the author row is created if missing, the author's comment count and
	// reputation are updated, and the parent post's comment counter is
	// incremented alongside the insert.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by its unique ID.
	// Returns ErrCommentNotFound if the comment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)

	// ListByPost retrieves the comments of a post ordered by creation time.
	ListByPost(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*domain.Comment, error)

	// SetTransactionHash attaches the authorizing transaction hash to a
	// stored comment. Returns ErrCommentNotFound if the comment does not exist.
	SetTransactionHash(ctx context.Context, id uuid.UUID, txHash string) error

	// HasRecentDuplicate reports whether the author has submitted a comment
	// with identical content under the same post within the trailing window.
	HasRecentDuplicate(ctx context.Context, authorAddress, content string, postID uuid.UUID, window time.Duration) (bool, error)
}
