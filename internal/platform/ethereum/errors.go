package ethereum

import "errors"

// Typed verification failures. Each maps to one way a claimed transaction
// can fail to authorize a creation request. All of them are terminal for the
// task that triggered the verification; none are retried.
var (
	// ErrTransactionNotFound indicates the node has no record of the hash.
	ErrTransactionNotFound = errors.New("transaction does not exist or is not yet confirmed")

	// ErrTransactionNotMined indicates the transaction is known but not yet
	// included in a block.
	ErrTransactionNotMined = errors.New("transaction has not been included in a block yet")

	// ErrTransactionReverted indicates the transaction executed and failed.
	ErrTransactionReverted = errors.New("transaction execution failed")

	// ErrSenderMismatch indicates the on-chain sender does not match the
	// claimed author address.
	ErrSenderMismatch = errors.New("transaction sender mismatch")

	// ErrWrongContract indicates the transaction did not target the forum
	// contract.
	ErrWrongContract = errors.New("transaction target contract address incorrect")

	// ErrNoContractEvent indicates no log emitted by the forum contract was
	// found in the receipt.
	ErrNoContractEvent = errors.New("no contract event found in transaction")

	// ErrInsufficientPayment indicates the transaction paid less than the
	// on-chain cost of the action.
	ErrInsufficientPayment = errors.New("insufficient payment amount")
)
