// Package ethereum implements the ledger verification client. It resolves a
// claimed transaction hash to its receipt, transaction, and block header via
// an EVM JSON-RPC node and checks the extracted facts against the claims in
// a creation request.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/chainforum/forum-api/internal/config"
	"github.com/chainforum/forum-api/internal/domain"
)

// costABI covers the two read-only cost getters on the forum contract.
const costABI = `[
	{"name":"postCost","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"commentCost","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// Client verifies creation transactions against an EVM-compatible node.
// It is a pure request/response collaborator with no internal state beyond
// the connection, and performs a single attempt per verification.
type Client struct {
	eth      *ethclient.Client
	contract common.Address
	chainID  *big.Int
	costs    abi.ABI
	logger   *slog.Logger
}

// NewClient connects to the configured RPC endpoint.
// If logger is nil, a default logger will be used.
func NewClient(cfg config.BlockchainConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address: %q", cfg.ContractAddress)
	}

	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	costs, err := abi.JSON(strings.NewReader(costABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse cost ABI: %w", err)
	}

	return &Client{
		eth:      eth,
		contract: common.HexToAddress(cfg.ContractAddress),
		chainID:  big.NewInt(cfg.ChainID),
		costs:    costs,
		logger:   logger.With(slog.String("component", "verification_client")),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// PostCost returns the on-chain cost of creating a post, in wei.
func (c *Client) PostCost(ctx context.Context) (*big.Int, error) {
	return c.cost(ctx, "postCost")
}

// CommentCost returns the on-chain cost of creating a comment, in wei.
func (c *Client) CommentCost(ctx context.Context) (*big.Int, error) {
	return c.cost(ctx, "commentCost")
}

func (c *Client) cost(ctx context.Context, method string) (*big.Int, error) {
	data, err := c.costs.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	out, err := c.eth.CallContract(ctx, goethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	results, err := c.costs.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}

	cost, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, results[0])
	}

	return cost, nil
}

// VerifyPostTransaction checks that the transaction exists, succeeded, was
// sent by the expected author to the forum contract, emitted a contract
// event, and paid at least the on-chain post cost.
func (c *Client) VerifyPostTransaction(
	ctx context.Context,
	txHash, expectedSender string,
) (*domain.VerificationResult, error) {
	cost, err := c.PostCost(ctx)
	if err != nil {
		return nil, err
	}
	return c.verify(ctx, txHash, expectedSender, cost)
}

// VerifyCommentTransaction is the comment-cost variant of
// VerifyPostTransaction.
func (c *Client) VerifyCommentTransaction(
	ctx context.Context,
	txHash, expectedSender string,
) (*domain.VerificationResult, error) {
	cost, err := c.CommentCost(ctx)
	if err != nil {
		return nil, err
	}
	return c.verify(ctx, txHash, expectedSender, cost)
}

// verify fetches the transaction facts from the node and evaluates them.
func (c *Client) verify(
	ctx context.Context,
	txHash, expectedSender string,
	requiredCost *big.Int,
) (*domain.VerificationResult, error) {
	facts, err := c.fetchFacts(ctx, txHash)
	if err != nil {
		return nil, err
	}

	result, err := evaluate(facts, common.HexToAddress(expectedSender), c.contract, requiredCost)
	if err != nil {
		c.logger.Debug("transaction verification failed",
			slog.String("transaction_hash", txHash),
			slog.String("error", err.Error()))
		return nil, err
	}

	c.logger.Info("transaction verified",
		slog.String("transaction_hash", txHash),
		slog.String("sender", result.Sender),
		slog.Uint64("block_number", result.BlockNumber))
	return result, nil
}

// txFacts is everything evaluate needs, decoupled from the RPC client so the
// checks themselves are plain functions.
type txFacts struct {
	hash         common.Hash
	from         common.Address
	to           *common.Address
	value        *big.Int
	gasUsed      uint64
	blockNumber  uint64
	blockTime    time.Time
	reverted     bool
	logAddresses []common.Address
}

func (c *Client) fetchFacts(ctx context.Context, txHash string) (*txFacts, error) {
	hash := common.HexToHash(txHash)

	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, goethereum.NotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to fetch transaction receipt: %w", err)
	}

	tx, isPending, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, goethereum.NotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to fetch transaction: %w", err)
	}
	if isPending || receipt.BlockNumber == nil {
		return nil, ErrTransactionNotMined
	}

	header, err := c.eth.HeaderByNumber(ctx, receipt.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch block header: %w", err)
	}

	from, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover transaction sender: %w", err)
	}

	logAddresses := make([]common.Address, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		logAddresses = append(logAddresses, l.Address)
	}

	return &txFacts{
		hash:         hash,
		from:         from,
		to:           tx.To(),
		value:        tx.Value(),
		gasUsed:      receipt.GasUsed,
		blockNumber:  receipt.BlockNumber.Uint64(),
		blockTime:    time.Unix(int64(header.Time), 0).UTC(),
		reverted:     receipt.Status != types.ReceiptStatusSuccessful,
		logAddresses: logAddresses,
	}, nil
}

// evaluate runs the verification checks over the gathered facts, in the
// cheapest-rejection-first order.
func evaluate(
	facts *txFacts,
	expectedSender, contract common.Address,
	requiredCost *big.Int,
) (*domain.VerificationResult, error) {
	if facts.reverted {
		return nil, ErrTransactionReverted
	}

	if facts.from != expectedSender {
		return nil, ErrSenderMismatch
	}

	if facts.to == nil || *facts.to != contract {
		return nil, ErrWrongContract
	}

	hasEvent := false
	for _, addr := range facts.logAddresses {
		if addr == contract {
			hasEvent = true
			break
		}
	}
	if !hasEvent {
		return nil, ErrNoContractEvent
	}

	if requiredCost != nil && facts.value.Cmp(requiredCost) < 0 {
		return nil, ErrInsufficientPayment
	}

	return &domain.VerificationResult{
		TransactionHash: facts.hash.Hex(),
		Sender:          facts.from.Hex(),
		BlockNumber:     facts.blockNumber,
		BlockTimestamp:  facts.blockTime,
		AmountPaid:      new(big.Int).Set(facts.value),
		GasUsed:         facts.gasUsed,
		Verified:        true,
	}, nil
}
