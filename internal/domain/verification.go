package domain

import (
	"math/big"
	"time"
)

// VerificationResult carries the on-chain facts extracted while verifying a
// transaction hash against a creation request. It is produced once per task
// and consumed by the worker that persists the entity.
type VerificationResult struct {
	TransactionHash string    `json:"transaction_hash"`
	Sender          string    `json:"sender"`
	BlockNumber     uint64    `json:"block_number"`
	BlockTimestamp  time.Time `json:"block_timestamp"`
	AmountPaid      *big.Int  `json:"amount_paid"`
	GasUsed         uint64    `json:"gas_used"`
	Verified        bool      `json:"verified"`
}
