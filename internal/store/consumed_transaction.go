package store

import (
	"context"

	"github.com/chainforum/forum-api/internal/domain"
)

// TransactionStore persists the consumption records that protect against
// transaction replay.
type TransactionStore interface {
	// IsUsed reports whether a consumption record exists for the hash.
	// This is a cheap advisory check; Record is the authoritative gate.
	IsUsed(ctx context.Context, txHash string) (bool, error)

	// Record durably stores a consumption record. Returns ErrTransactionUsed
	// if a record for the hash already exists; the uniqueness constraint in
	// the backing store makes this check-and-insert atomic.
	Record(ctx context.Context, ct *domain.ConsumedTransaction) error
}
