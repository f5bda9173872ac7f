package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chainforum/forum-api/internal/domain"
)

// PostStore defines the interface for post data persistence.
type PostStore interface {
	// Create saves a new post to the store. The write is transactional: the
	// author row is created if missing and the author's post count and
	// reputation are updated alongside the insert.
	// Returns validation errors from the domain Post if data is invalid.
	Create(ctx context.Context, post *domain.Post) error

	// GetByID retrieves a post by its unique ID.
	// Returns ErrPostNotFound if the post does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// List retrieves posts ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]*domain.Post, error)

	// SetTransactionHash attaches the authorizing transaction hash to a
	// stored post. Returns ErrPostNotFound if the post does not exist.
	SetTransactionHash(ctx context.Context, id uuid.UUID, txHash string) error

	// HasRecentDuplicate reports whether the author has submitted a post
	// with identical content within the trailing window.
	HasRecentDuplicate(ctx context.Context, authorAddress, content string, window time.Duration) (bool, error)
}
