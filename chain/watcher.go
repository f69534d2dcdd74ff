package chain

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/psahay/rampflow/logger"
	"github.com/psahay/rampflow/metrics"
	"go.uber.org/zap"
)

const DEFAULT_CONFIRMATION_TIMEOUT = 60 * time.Second

type FinalityResult struct {
	Pending     bool
	Ok          bool
	BlockNumber uint64
	// Dropped notes that the direct lookup found no trace of the
	// transaction; the caller decides whether to resubmit.
	Dropped bool
}

// Watcher decides finality for a submitted transaction. It races the
// client's wait primitive against a fixed timeout; on timeout it does one
// direct ledger lookup instead of treating a slow confirmation as failure,
// because provider wait calls are observed to time out spuriously under
// load.
type Watcher struct {
	client  NodeClient
	timeout time.Duration
}

func NewWatcher(client NodeClient, timeout time.Duration) *Watcher {
	if timeout <= 0 {
		timeout = DEFAULT_CONFIRMATION_TIMEOUT
	}
	return &Watcher{
		client:  client,
		timeout: timeout,
	}
}

func (w *Watcher) AwaitFinality(ctx context.Context, txHash common.Hash) FinalityResult {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type waitResult struct {
		receipt *types.Receipt
		err     error
	}
	resultCh := make(chan waitResult, 1)
	go func() {
		receipt, err := w.client.WaitMined(waitCtx, txHash)
		resultCh <- waitResult{receipt: receipt, err: err}
	}()

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		if res.err != nil {
			// the wait may fail before the timeout (rpc hiccup);
			// fall through to the direct lookup either way
			logger.Warn("transaction wait failed, checking ledger directly", zap.String("hash", txHash.Hex()), zap.Error(res.err))
			return w.lookup(ctx, txHash)
		}
		return fromReceipt(res.receipt)
	case <-timer.C:
		metrics.WatcherTimeouts.Inc()
		logger.Warn("confirmation wait timed out, checking ledger directly", zap.String("hash", txHash.Hex()), zap.Duration("timeout", w.timeout))
		return w.lookup(ctx, txHash)
	case <-ctx.Done():
		return FinalityResult{Pending: true}
	}
}

// CheckOnce does a single direct ledger lookup with no wait. The sequencer
// uses it for the one-shot pending re-check after the grace delay.
func (w *Watcher) CheckOnce(ctx context.Context, txHash common.Hash) FinalityResult {
	return w.lookup(ctx, txHash)
}

// lookup is the single secondary check that corrects for wait-API false
// negatives: mined means mined, regardless of what the wait reported.
func (w *Watcher) lookup(ctx context.Context, txHash common.Hash) FinalityResult {
	receipt, err := w.client.TransactionReceipt(ctx, txHash)
	if err == nil && receipt != nil {
		metrics.WatcherRescues.Inc()
		logger.Info("transaction found mined on direct lookup", zap.String("hash", txHash.Hex()), zap.Uint64("block", receipt.BlockNumber.Uint64()))
		return fromReceipt(receipt)
	}
	_, _, err = w.client.TransactionByHash(ctx, txHash)
	if err == nil {
		// known to the node but not yet mined
		return FinalityResult{Pending: true}
	}
	if errors.Is(err, ethereum.NotFound) {
		logger.Warn("transaction not found, may have been dropped", zap.String("hash", txHash.Hex()))
		return FinalityResult{Pending: true, Dropped: true}
	}
	// lookup itself failed; stay ambiguous rather than failing the step
	return FinalityResult{Pending: true}
}

func fromReceipt(receipt *types.Receipt) FinalityResult {
	return FinalityResult{
		Ok:          receipt.Status == types.ReceiptStatusSuccessful,
		BlockNumber: receipt.BlockNumber.Uint64(),
	}
}
