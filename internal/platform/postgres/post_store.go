package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chainforum/forum-api/internal/domain"
	"github.com/chainforum/forum-api/internal/platform/logger"
	"github.com/chainforum/forum-api/internal/store"
)

// PostgresPostStore implements the store.PostStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPostStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPostStore creates a new PostgreSQL implementation of the
// PostStore interface. If logger is nil, a default logger will be used.
func NewPostgresPostStore(db *sql.DB, logger *slog.Logger) *PostgresPostStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPostStore{
		db:     db,
		logger: logger.With(slog.String("component", "post_store")),
	}
}

// Ensure PostgresPostStore implements store.PostStore interface
var _ store.PostStore = (*PostgresPostStore)(nil)

// Create implements store.PostStore.Create
// It saves a new post inside a transaction that also upserts the author row
// and bumps the author's post count and reputation.
func (s *PostgresPostStore) Create(ctx context.Context, post *domain.Post) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := post.Validate(); err != nil {
		log.Warn("post validation failed during create",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()))
		return err
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		authorID, err := upsertAuthor(ctx, tx, post.AuthorAddress, post.AuthorName, "posts_count", postReputationAward)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO posts (id, title, content, author_id, author_name, tags, image,
				content_hash, likes, comments_count, views, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		_, err = tx.ExecContext(
			ctx,
			query,
			post.ID,
			post.Title,
			post.Content,
			authorID,
			post.AuthorName,
			tagsToArray(post.Tags),
			nullString(post.Image),
			post.ContentHash,
			post.Likes,
			post.CommentsCount,
			post.Views,
			post.CreatedAt,
			post.UpdatedAt,
		)
		return MapError(err)
	})

	if err != nil {
		log.Error("failed to create post",
			slog.String("error", err.Error()),
			slog.String("post_id", post.ID.String()),
			slog.String("author_address", post.AuthorAddress))
		return err
	}

	log.Info("post created successfully",
		slog.String("post_id", post.ID.String()),
		slog.String("author_address", post.AuthorAddress))
	return nil
}

// GetByID implements store.PostStore.GetByID
// Returns store.ErrPostNotFound if the post does not exist.
func (s *PostgresPostStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT p.id, p.title, p.content, u.ethereum_address, p.author_name,
			p.tags, p.image, p.content_hash, p.transaction_hash,
			p.likes, p.comments_count, p.views, p.created_at, p.updated_at
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE p.id = $1
	`

	post, err := scanPost(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			log.Debug("post not found", slog.String("post_id", id.String()))
			return nil, store.ErrPostNotFound
		}
		log.Error("failed to get post by ID",
			slog.String("error", err.Error()),
			slog.String("post_id", id.String()))
		return nil, MapError(err)
	}

	return post, nil
}

// List implements store.PostStore.List
func (s *PostgresPostStore) List(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT p.id, p.title, p.content, u.ethereum_address, p.author_name,
			p.tags, p.image, p.content_hash, p.transaction_hash,
			p.likes, p.comments_count, p.views, p.created_at, p.updated_at
		FROM posts p
		JOIN users u ON p.author_id = u.id
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		log.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	posts := make([]*domain.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, MapError(err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return posts, nil
}

// SetTransactionHash implements store.PostStore.SetTransactionHash
// Returns store.ErrPostNotFound if the post does not exist.
func (s *PostgresPostStore) SetTransactionHash(ctx context.Context, id uuid.UUID, txHash string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE posts SET transaction_hash = $1, updated_at = $2 WHERE id = $3`,
		txHash,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to set post transaction hash",
			slog.String("error", err.Error()),
			slog.String("post_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "post"); err != nil {
		return store.ErrPostNotFound
	}

	return nil
}

// HasRecentDuplicate implements store.PostStore.HasRecentDuplicate
// It reports whether the author submitted identical content inside the
// trailing window.
func (s *PostgresPostStore) HasRecentDuplicate(
	ctx context.Context,
	authorAddress, content string,
	window time.Duration,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM posts p
			JOIN users u ON p.author_id = u.id
			WHERE u.ethereum_address = $1
			  AND p.content = $2
			  AND p.created_at > $3
		)
	`

	var exists bool
	err := s.db.QueryRowContext(
		ctx,
		query,
		strings.ToLower(authorAddress),
		content,
		time.Now().UTC().Add(-window),
	).Scan(&exists)
	if err != nil {
		log.Error("failed to check for duplicate post",
			slog.String("error", err.Error()),
			slog.String("author_address", authorAddress))
		return false, MapError(err)
	}

	return exists, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var post domain.Post
	var authorName, image, txHash sql.NullString
	var tags []byte

	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.AuthorAddress,
		&authorName,
		&tags,
		&image,
		&post.ContentHash,
		&txHash,
		&post.Likes,
		&post.CommentsCount,
		&post.Views,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.AuthorName = authorName.String
	post.Image = image.String
	post.TransactionHash = txHash.String
	post.Tags = arrayToTags(tags)

	return &post, nil
}
