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

// PostgresCommentStore implements the store.CommentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCommentStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCommentStore creates a new PostgreSQL implementation of the
// CommentStore interface. If logger is nil, a default logger will be used.
func NewPostgresCommentStore(db *sql.DB, logger *slog.Logger) *PostgresCommentStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

// Ensure PostgresCommentStore implements store.CommentStore interface
var _ store.CommentStore = (*PostgresCommentStore)(nil)

// Create implements store.CommentStore.Create
// It saves a new comment inside a transaction that also upserts the author
// row, bumps the author's comment count and reputation, and increments the
// parent post's comment counter.
func (s *PostgresCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := comment.Validate(); err != nil {
		log.Warn("comment validation failed during create",
			slog.String("error", err.Error()),
			slog.String("comment_id", comment.ID.String()))
		return err
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		authorID, err := upsertAuthor(ctx, tx, comment.AuthorAddress, comment.AuthorName, "comments_count", commentReputationAward)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO comments (id, post_id, parent_id, content, author_id, author_name,
				image, content_hash, likes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		var parentID any
		if comment.ParentID != nil {
			parentID = *comment.ParentID
		}

		if _, err := tx.ExecContext(
			ctx,
			query,
			comment.ID,
			comment.PostID,
			parentID,
			comment.Content,
			authorID,
			comment.AuthorName,
			nullString(comment.Image),
			comment.ContentHash,
			comment.Likes,
			comment.CreatedAt,
			comment.UpdatedAt,
		); err != nil {
			return MapError(err)
		}

		result, err := tx.ExecContext(
			ctx,
			`UPDATE posts SET comments_count = comments_count + 1, updated_at = $1 WHERE id = $2`,
			time.Now().UTC(),
			comment.PostID,
		)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, "post"); err != nil {
			return store.ErrPostNotFound
		}

		return nil
	})

	if err != nil {
		log.Error("failed to create comment",
			slog.String("error", err.Error()),
			slog.String("comment_id", comment.ID.String()),
			slog.String("post_id", comment.PostID.String()))
		return err
	}

	log.Info("comment created successfully",
		slog.String("comment_id", comment.ID.String()),
		slog.String("post_id", comment.PostID.String()))
	return nil
}

// GetByID implements store.CommentStore.GetByID
// Returns store.ErrCommentNotFound if the comment does not exist.
func (s *PostgresCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id, c.post_id, c.parent_id, c.content, u.ethereum_address,
			c.author_name, c.image, c.content_hash, c.transaction_hash,
			c.likes, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.id = $1
	`

	comment, err := scanComment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			log.Debug("comment not found", slog.String("comment_id", id.String()))
			return nil, store.ErrCommentNotFound
		}
		log.Error("failed to get comment by ID",
			slog.String("error", err.Error()),
			slog.String("comment_id", id.String()))
		return nil, MapError(err)
	}

	return comment, nil
}

// ListByPost implements store.CommentStore.ListByPost
func (s *PostgresCommentStore) ListByPost(
	ctx context.Context,
	postID uuid.UUID,
	limit, offset int,
) ([]*domain.Comment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id, c.post_id, c.parent_id, c.content, u.ethereum_address,
			c.author_name, c.image, c.content_hash, c.transaction_hash,
			c.likes, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, postID, limit, offset)
	if err != nil {
		log.Error("failed to list comments",
			slog.String("error", err.Error()),
			slog.String("post_id", postID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	comments := make([]*domain.Comment, 0, limit)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, MapError(err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return comments, nil
}

// SetTransactionHash implements store.CommentStore.SetTransactionHash
// Returns store.ErrCommentNotFound if the comment does not exist.
func (s *PostgresCommentStore) SetTransactionHash(ctx context.Context, id uuid.UUID, txHash string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE comments SET transaction_hash = $1, updated_at = $2 WHERE id = $3`,
		txHash,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to set comment transaction hash",
			slog.String("error", err.Error()),
			slog.String("comment_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "comment"); err != nil {
		return store.ErrCommentNotFound
	}

	return nil
}

// HasRecentDuplicate implements store.CommentStore.HasRecentDuplicate
// The scope of the check is the author plus the parent post.
func (s *PostgresCommentStore) HasRecentDuplicate(
	ctx context.Context,
	authorAddress, content string,
	postID uuid.UUID,
	window time.Duration,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM comments c
			JOIN users u ON c.author_id = u.id
			WHERE u.ethereum_address = $1
			  AND c.content = $2
			  AND c.post_id = $3
			  AND c.created_at > $4
		)
	`

	var exists bool
	err := s.db.QueryRowContext(
		ctx,
		query,
		strings.ToLower(authorAddress),
		content,
		postID,
		time.Now().UTC().Add(-window),
	).Scan(&exists)
	if err != nil {
		log.Error("failed to check for duplicate comment",
			slog.String("error", err.Error()),
			slog.String("author_address", authorAddress))
		return false, MapError(err)
	}

	return exists, nil
}

func scanComment(row rowScanner) (*domain.Comment, error) {
	var comment domain.Comment
	var parentID uuid.NullUUID
	var authorName, image, txHash sql.NullString

	err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&parentID,
		&comment.Content,
		&comment.AuthorAddress,
		&authorName,
		&image,
		&comment.ContentHash,
		&txHash,
		&comment.Likes,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		id := parentID.UUID
		comment.ParentID = &id
	}
	comment.AuthorName = authorName.String
	comment.Image = image.String
	comment.TransactionHash = txHash.String

	return &comment, nil
}
