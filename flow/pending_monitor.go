package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/psahay/rampflow/chain"
	"github.com/psahay/rampflow/history"
	"github.com/psahay/rampflow/logger"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/util"
	"go.uber.org/zap"
)

// PendingMonitor settles history entries for transactions that were left
// unconfirmed, including ones the user chose to proceed past. It only
// patches the ledger; it never advances the flow or resubmits anything.
type PendingMonitor struct {
	ledger  *history.Ledger
	watcher *chain.Watcher
	tw      *util.TickWorker
}

func NewPendingMonitor(ledger *history.Ledger, watcher *chain.Watcher, interval time.Duration, wg *sync.WaitGroup) *PendingMonitor {
	pm := &PendingMonitor{
		ledger:  ledger,
		watcher: watcher,
	}
	pm.tw = util.NewTickWorker("pending-tx-monitor", interval, pm.sweep, wg)
	return pm
}

func (pm *PendingMonitor) Start() {
	pm.tw.Start()
}

func (pm *PendingMonitor) Stop() {
	pm.tw.Stop()
}

func (pm *PendingMonitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	entries, err := pm.ledger.List(ctx)
	if err != nil {
		logger.Error("error listing history in pending monitor", zap.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.Status != model.HISTORY_PENDING || entry.Category != "transaction" {
			continue
		}
		hashStr, ok := entry.Payload["txHash"].(string)
		if !ok || len(hashStr) == 0 {
			continue
		}
		result := pm.watcher.CheckOnce(ctx, common.HexToHash(hashStr))
		if result.Pending {
			continue
		}
		status := model.HISTORY_COMPLETED
		message := "transaction confirmed"
		if !result.Ok {
			status = model.HISTORY_FAILED
			message = "transaction reverted"
		}
		patch := model.HistoryPatch{Status: &status, Message: &message}
		if result.BlockNumber > 0 {
			patch.Payload = map[string]any{"blockNumber": fmt.Sprintf("%d", result.BlockNumber)}
		}
		if err := pm.ledger.Update(ctx, entry.Id, patch); err != nil {
			logger.Error("error settling pending history entry", zap.String("entryId", entry.Id), zap.Error(err))
			continue
		}
		logger.Info("settled pending transaction in history", zap.String("hash", hashStr), zap.String("status", string(status)))
	}
}
