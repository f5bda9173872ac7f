package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TransactionKind identifies the kind of entity a consumed transaction
// authorized.
type TransactionKind string

// Possible transaction kinds
const (
	TransactionKindPost    TransactionKind = "POST"
	TransactionKindComment TransactionKind = "COMMENT"
)

// Common validation errors for ConsumedTransaction
var (
	ErrInvalidTransactionHash = errors.New("transaction hash is invalid")
	ErrInvalidTransactionKind = errors.New("transaction kind is invalid")
	ErrEmptyEntityID          = errors.New("linked entity ID cannot be empty")
)

// ConsumedTransaction is the durable record that a transaction hash has been
// spent to authorize exactly one entity. At most one record may ever exist
// per hash; the storage layer enforces this with a uniqueness constraint.
type ConsumedTransaction struct {
	TransactionHash string          `json:"transaction_hash"`
	Kind            TransactionKind `json:"kind"`
	UserAddress     string          `json:"user_address"`
	BlockNumber     uint64          `json:"block_number"`
	BlockTimestamp  time.Time       `json:"block_timestamp"`
	EntityID        uuid.UUID       `json:"entity_id"`
	VerifiedAt      time.Time       `json:"verified_at"`
}

// NewConsumedTransaction creates a ConsumedTransaction linking the given
// hash to the entity it authorized.
// Returns an error if validation fails.
func NewConsumedTransaction(
	txHash string,
	kind TransactionKind,
	userAddress string,
	blockNumber uint64,
	blockTimestamp time.Time,
	entityID uuid.UUID,
) (*ConsumedTransaction, error) {
	ct := &ConsumedTransaction{
		TransactionHash: txHash,
		Kind:            kind,
		UserAddress:     userAddress,
		BlockNumber:     blockNumber,
		BlockTimestamp:  blockTimestamp,
		EntityID:        entityID,
		VerifiedAt:      time.Now().UTC(),
	}

	if err := ct.Validate(); err != nil {
		return nil, err
	}

	return ct, nil
}

// Validate checks if the ConsumedTransaction has valid data.
func (ct *ConsumedTransaction) Validate() error {
	if !IsValidTransactionHash(ct.TransactionHash) {
		return ErrInvalidTransactionHash
	}

	if ct.Kind != TransactionKindPost && ct.Kind != TransactionKindComment {
		return ErrInvalidTransactionKind
	}

	if ct.EntityID == uuid.Nil {
		return ErrEmptyEntityID
	}

	return nil
}
