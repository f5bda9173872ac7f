package ethereum

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testContract = common.HexToAddress("0x000000000000000000000000000000000000c0de")
	testSender   = common.HexToAddress("0x000000000000000000000000000000000000aaaa")
	testOther    = common.HexToAddress("0x000000000000000000000000000000000000bbbb")
)

func validFacts() *txFacts {
	to := testContract
	return &txFacts{
		hash:         common.HexToHash("0x01"),
		from:         testSender,
		to:           &to,
		value:        big.NewInt(1000),
		gasUsed:      21000,
		blockNumber:  77,
		blockTime:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		reverted:     false,
		logAddresses: []common.Address{testContract},
	}
}

func TestEvaluateSuccess(t *testing.T) {
	result, err := evaluate(validFacts(), testSender, testContract, big.NewInt(1000))
	require.NoError(t, err)

	assert.True(t, result.Verified)
	assert.Equal(t, testSender.Hex(), result.Sender)
	assert.Equal(t, uint64(77), result.BlockNumber)
	assert.Equal(t, uint64(21000), result.GasUsed)
	assert.Equal(t, big.NewInt(1000), result.AmountPaid)
}

func TestEvaluateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *txFacts)
		cost    *big.Int
		wantErr error
	}{
		{
			name:    "reverted transaction",
			mutate:  func(f *txFacts) { f.reverted = true },
			cost:    big.NewInt(1000),
			wantErr: ErrTransactionReverted,
		},
		{
			name:    "sender mismatch",
			mutate:  func(f *txFacts) { f.from = testOther },
			cost:    big.NewInt(1000),
			wantErr: ErrSenderMismatch,
		},
		{
			name:    "wrong target contract",
			mutate:  func(f *txFacts) { f.to = &testOther },
			cost:    big.NewInt(1000),
			wantErr: ErrWrongContract,
		},
		{
			name:    "contract creation has no target",
			mutate:  func(f *txFacts) { f.to = nil },
			cost:    big.NewInt(1000),
			wantErr: ErrWrongContract,
		},
		{
			name:    "no contract event in logs",
			mutate:  func(f *txFacts) { f.logAddresses = []common.Address{testOther} },
			cost:    big.NewInt(1000),
			wantErr: ErrNoContractEvent,
		},
		{
			name:    "empty logs",
			mutate:  func(f *txFacts) { f.logAddresses = nil },
			cost:    big.NewInt(1000),
			wantErr: ErrNoContractEvent,
		},
		{
			name:    "insufficient payment",
			mutate:  func(f *txFacts) { f.value = big.NewInt(999) },
			cost:    big.NewInt(1000),
			wantErr: ErrInsufficientPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := validFacts()
			tt.mutate(facts)

			_, err := evaluate(facts, testSender, testContract, tt.cost)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEvaluateCheckOrder(t *testing.T) {
	// A reverted transaction with the wrong sender reports the revert, not
	// the sender mismatch: status is checked first.
	facts := validFacts()
	facts.reverted = true
	facts.from = testOther

	_, err := evaluate(facts, testSender, testContract, big.NewInt(1000))
	assert.ErrorIs(t, err, ErrTransactionReverted)
}

func TestEvaluateNilCostSkipsPaymentCheck(t *testing.T) {
	facts := validFacts()
	facts.value = big.NewInt(0)

	result, err := evaluate(facts, testSender, testContract, nil)
	require.NoError(t, err)
	assert.True(t, result.Verified)
}
