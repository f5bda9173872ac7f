// Package cache provides a Redis-backed read-side cache for post and
// comment listings. The cache is strictly an optimization: every method
// degrades to a miss on error, and callers must treat a miss as "go to the
// database".
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/chainforum/forum-api/internal/domain"
)

// Default TTLs, matching the staleness tolerance of each listing.
const (
	DefaultPostTTL    = 5 * time.Minute
	DefaultCommentTTL = 3 * time.Minute
)

// Cache stores serialized listings in Redis.
type Cache struct {
	client     *redis.Client
	postTTL    time.Duration
	commentTTL time.Duration
	logger     *slog.Logger
}

// New creates a Cache around the given Redis client. Zero TTLs fall back to
// the defaults. If logger is nil, a default logger will be used.
func New(client *redis.Client, postTTL, commentTTL time.Duration, logger *slog.Logger) *Cache {
	if client == nil {
		panic("redis client cannot be nil")
	}

	if postTTL <= 0 {
		postTTL = DefaultPostTTL
	}
	if commentTTL <= 0 {
		commentTTL = DefaultCommentTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		client:     client,
		postTTL:    postTTL,
		commentTTL: commentTTL,
		logger:     logger.With(slog.String("component", "cache")),
	}
}

func postsKey(limit, offset int) string {
	return fmt.Sprintf("posts:%d:%d", limit, offset)
}

func commentsKey(postID uuid.UUID) string {
	return fmt.Sprintf("comments:%s", postID)
}

// SetPosts caches one page of the post listing.
func (c *Cache) SetPosts(ctx context.Context, limit, offset int, posts []*domain.Post) {
	c.set(ctx, postsKey(limit, offset), posts, c.postTTL)
}

// GetPosts returns a cached page of the post listing, or (nil, false) on a
// miss.
func (c *Cache) GetPosts(ctx context.Context, limit, offset int) ([]*domain.Post, bool) {
	var posts []*domain.Post
	if !c.get(ctx, postsKey(limit, offset), &posts) {
		return nil, false
	}
	return posts, true
}

// SetComments caches the comment listing of a post.
func (c *Cache) SetComments(ctx context.Context, postID uuid.UUID, comments []*domain.Comment) {
	c.set(ctx, commentsKey(postID), comments, c.commentTTL)
}

// GetComments returns the cached comment listing of a post, or (nil, false)
// on a miss.
func (c *Cache) GetComments(ctx context.Context, postID uuid.UUID) ([]*domain.Comment, bool) {
	var comments []*domain.Comment
	if !c.get(ctx, commentsKey(postID), &comments) {
		return nil, false
	}
	return comments, true
}

// InvalidatePosts drops all cached post listing pages. Called after a post
// is created so new content shows up promptly.
func (c *Cache) InvalidatePosts(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, "posts:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("failed to scan post cache keys", slog.String("error", err.Error()))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("failed to invalidate post cache", slog.String("error", err.Error()))
	}
}

// InvalidateComments drops the cached comment listing of one post.
func (c *Cache) InvalidateComments(ctx context.Context, postID uuid.UUID) {
	if err := c.client.Del(ctx, commentsKey(postID)).Err(); err != nil {
		c.logger.Warn("failed to invalidate comment cache",
			slog.String("error", err.Error()),
			slog.String("post_id", postID.String()))
	}
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to marshal cache value",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("failed to write cache entry",
			slog.String("error", err.Error()),
			slog.String("key", key))
	}
}

func (c *Cache) get(ctx context.Context, key string, out any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("failed to read cache entry",
				slog.String("error", err.Error()),
				slog.String("key", key))
		}
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("failed to unmarshal cache entry",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return false
	}

	return true
}
