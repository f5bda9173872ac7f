package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/chainforum/forum-api/internal/domain"
	"github.com/chainforum/forum-api/internal/store"
)

// Pagination bounds for listing endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrPostNotFound indicates that the requested post does not exist
var ErrPostNotFound = errors.New("post not found")

// ListingCache is the read-side cache consumed by ReadService. Lookups
// degrade to a miss on any cache failure.
type ListingCache interface {
	GetPosts(ctx context.Context, limit, offset int) ([]*domain.Post, bool)
	SetPosts(ctx context.Context, limit, offset int, posts []*domain.Post)
	GetComments(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, bool)
	SetComments(ctx context.Context, postID uuid.UUID, comments []*domain.Comment)
}

// ReadService serves the read side of the forum: post listings, single
// posts, and comment threads.
type ReadService interface {
	// ListPosts returns one page of posts, newest first
	ListPosts(ctx context.Context, limit, offset int) ([]*domain.Post, error)

	// GetPost returns a single post by id
	GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// ListComments returns the comments of a post, oldest first
	ListComments(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, error)
}

type readService struct {
	posts    store.PostStore
	comments store.CommentStore
	cache    ListingCache
	logger   *slog.Logger
}

// NewReadService creates a ReadService. The cache may be nil, disabling the
// cache-aside path.
func NewReadService(
	posts store.PostStore,
	comments store.CommentStore,
	cache ListingCache,
	logger *slog.Logger,
) (ReadService, error) {
	if posts == nil {
		return nil, errors.New("post store cannot be nil")
	}
	if comments == nil {
		return nil, errors.New("comment store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &readService{
		posts:    posts,
		comments: comments,
		cache:    cache,
		logger:   logger.With(slog.String("component", "read_service")),
	}, nil
}

func (s *readService) ListPosts(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	if s.cache != nil {
		if posts, ok := s.cache.GetPosts(ctx, limit, offset); ok {
			return posts, nil
		}
	}

	posts, err := s.posts.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	if s.cache != nil {
		s.cache.SetPosts(ctx, limit, offset, posts)
	}

	return posts, nil
}

func (s *readService) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

func (s *readService) ListComments(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, error) {
	if s.cache != nil {
		if comments, ok := s.cache.GetComments(ctx, postID); ok {
			return comments, nil
		}
	}

	// Confirm the post exists so unknown ids read as 404, not an empty list.
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	comments, err := s.comments.ListByPost(ctx, postID, MaxPageSize, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	if s.cache != nil {
		s.cache.SetComments(ctx, postID, comments)
	}

	return comments, nil
}
