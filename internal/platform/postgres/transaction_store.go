package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chainforum/forum-api/internal/domain"
	"github.com/chainforum/forum-api/internal/platform/logger"
	"github.com/chainforum/forum-api/internal/store"
)

// PostgresTransactionStore implements the store.TransactionStore interface.
// The used_transactions table carries a uniqueness constraint on
// transaction_hash, which makes Record the authoritative replay gate: two
// workers racing to consume the same hash cannot both succeed, whatever
// their earlier IsUsed checks observed.
type PostgresTransactionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTransactionStore creates a new PostgreSQL implementation of the
// TransactionStore interface. If logger is nil, a default logger will be used.
func NewPostgresTransactionStore(db store.DBTX, logger *slog.Logger) *PostgresTransactionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTransactionStore{
		db:     db,
		logger: logger.With(slog.String("component", "transaction_store")),
	}
}

// Ensure PostgresTransactionStore implements store.TransactionStore interface
var _ store.TransactionStore = (*PostgresTransactionStore)(nil)

// IsUsed implements store.TransactionStore.IsUsed
func (s *PostgresTransactionStore) IsUsed(ctx context.Context, txHash string) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var exists bool
	err := s.db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM used_transactions WHERE transaction_hash = $1)`,
		txHash,
	).Scan(&exists)
	if err != nil {
		log.Error("failed to check transaction usage",
			slog.String("error", err.Error()),
			slog.String("transaction_hash", txHash))
		return false, MapError(err)
	}

	return exists, nil
}

// Record implements store.TransactionStore.Record
// Returns store.ErrTransactionUsed when a record for the hash already exists.
func (s *PostgresTransactionStore) Record(ctx context.Context, ct *domain.ConsumedTransaction) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := ct.Validate(); err != nil {
		log.Warn("consumed transaction validation failed",
			slog.String("error", err.Error()),
			slog.String("transaction_hash", ct.TransactionHash))
		return err
	}

	var postID, commentID any
	switch ct.Kind {
	case domain.TransactionKindPost:
		postID = ct.EntityID
	case domain.TransactionKindComment:
		commentID = ct.EntityID
	}

	query := `
		INSERT INTO used_transactions
			(transaction_hash, transaction_type, user_address, block_number,
			 block_timestamp, post_id, comment_id, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		ct.TransactionHash,
		string(ct.Kind),
		ct.UserAddress,
		int64(ct.BlockNumber),
		ct.BlockTimestamp,
		postID,
		commentID,
		ct.VerifiedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("transaction hash already consumed",
				slog.String("transaction_hash", ct.TransactionHash))
			return fmt.Errorf("%w: %s", store.ErrTransactionUsed, ct.TransactionHash)
		}
		log.Error("failed to record consumed transaction",
			slog.String("error", err.Error()),
			slog.String("transaction_hash", ct.TransactionHash))
		return MapError(err)
	}

	log.Info("transaction consumption recorded",
		slog.String("transaction_hash", ct.TransactionHash),
		slog.String("kind", string(ct.Kind)),
		slog.String("entity_id", ct.EntityID.String()))
	return nil
}
