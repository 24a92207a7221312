package vote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"poll-voter/modules/common"
	"poll-voter/modules/ledger"

	result "github.com/JustinKnueppel/go-result"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// WaitPolicy bounds how long a broadcast vote is watched for a receipt.
type WaitPolicy struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

var DefaultWaitPolicy = WaitPolicy{
	PollInterval: 2 * time.Second,
	Timeout:      3 * time.Minute,
}

// waitReceipt polls for the receipt of hash until it is mined, the policy
// times out or ctx is cancelled. Node errors are logged and retried. Giving
// up never withdraws the transaction, the outcome is just unknown.
func waitReceipt(
	ctx context.Context,
	contract ledger.PollContract,
	hash ethCommon.Hash,
	policy WaitPolicy,
	logger *slog.Logger,
) result.Result[*types.Receipt] {
	ctx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	ticker := time.NewTicker(policy.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := contract.Receipt(ctx, hash)
		switch {
		case err == nil:
			return result.Ok(receipt)
		case errors.Is(err, ledger.ErrNotMined):
		default:
			logger.Debug("receipt lookup failed", "tx", hash.Hex(), "err", err)
		}

		select {
		case <-ctx.Done():
			return result.Err[*types.Receipt](fmt.Errorf("%w: %s: %w", common.ErrTimeout, hash.Hex(), ctx.Err()))
		case <-ticker.C:
		}
	}
}
