package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/psahay/rampflow/chain"
	"github.com/psahay/rampflow/executor"
	"github.com/psahay/rampflow/history"
	"github.com/psahay/rampflow/logger"
	"github.com/psahay/rampflow/metrics"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/persistence"
	"go.uber.org/zap"
)

const DEFAULT_PENDING_GRACE_DELAY = 5 * time.Second

// Sequencer owns the single active flow instance. It is the only writer of
// persisted flow state; the mutex keeps one operation in flight at a time,
// matching the one-flow-per-session model.
type Sequencer struct {
	mu           sync.Mutex
	storage      persistence.FlowStateStorage
	ledger       *history.Ledger
	stepExecutor *executor.StepExecutor
	watcher      *chain.Watcher
	graceDelay   time.Duration
	flowCtx      *model.FlowContext
}

func NewSequencer(storage persistence.FlowStateStorage, ledger *history.Ledger, stepExecutor *executor.StepExecutor, watcher *chain.Watcher, graceDelay time.Duration) *Sequencer {
	if graceDelay <= 0 {
		graceDelay = DEFAULT_PENDING_GRACE_DELAY
	}
	return &Sequencer{
		storage:      storage,
		ledger:       ledger,
		stepExecutor: stepExecutor,
		watcher:      watcher,
		graceDelay:   graceDelay,
	}
}

// Load recovers the persisted flow on startup. An out-of-bounds step index
// is corrupt state: it is repaired to step 1 rather than surfaced, since
// redoing idempotent early steps is safe and skipping ahead is not.
func (s *Sequencer) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	flowCtx, err := s.activeFlow(ctx)
	if err != nil {
		if _, ok := err.(persistence.NoActiveFlowError); ok {
			return nil
		}
		return err
	}
	logger.Info("recovered active flow", zap.String("flowId", flowCtx.FlowId), zap.Int("step", flowCtx.CurrentStep))
	return nil
}

// Initiate starts a new flow at step 1. Any previously persisted flow is
// discarded: only one flow instance may be active at a time.
func (s *Sequencer) Initiate(ctx context.Context, def *model.FlowDefinition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	flowCtx := &model.FlowContext{
		FlowId:      uuid.New().String(),
		Definition:  *def,
		CurrentStep: 1,
		State:       model.AWAITING_USER,
		StepData:    make(map[string]any),
	}
	if err := s.storage.SaveFlowContext(ctx, flowCtx); err != nil {
		return "", err
	}
	s.flowCtx = flowCtx
	logger.Info("flow initiated", zap.String("flowId", flowCtx.FlowId), zap.Int("steps", flowCtx.TotalSteps()))
	return flowCtx.FlowId, nil
}

// Advance executes the current step. If the step already holds an
// unconfirmed transaction handle it re-polls confirmation instead of
// resubmitting; a signed transaction is never submitted twice implicitly.
// Confirmation waits run outside the mutex so status reads and abort stay
// responsive while a transaction is in flight.
func (s *Sequencer) Advance(ctx context.Context) (*model.FlowContext, error) {
	s.mu.Lock()
	flowCtx, err := s.activeFlow(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if pendingHash, ok := pendingTxHash(flowCtx); ok {
		step := flowCtx.CurrentSpec()
		outcome := *flowCtx.LastOutcome
		flowId, stepNo := flowCtx.FlowId, flowCtx.CurrentStep
		s.mu.Unlock()
		result := s.watcher.AwaitFinality(ctx, pendingHash)
		return s.settleAfterWait(ctx, flowId, stepNo, step, outcome, result)
	}

	flowCtx.State = model.IN_PROGRESS
	step := flowCtx.CurrentSpec()
	outcome := s.stepExecutor.Execute(ctx, step, flowCtx)

	if outcome.Ok && outcome.Pending {
		// releases the mutex itself around the wait
		return s.confirmSubmitted(ctx, flowCtx, step, outcome)
	}
	defer s.mu.Unlock()
	if !outcome.Ok {
		return cloned(s.holdWithFailure(ctx, flowCtx, step, outcome))
	}
	return cloned(s.completeStep(ctx, flowCtx, step, outcome))
}

// ProceedPending moves past a still-unconfirmed transaction on explicit
// user decision. The history entry stays pending until the monitor or a
// later lookup settles it.
func (s *Sequencer) ProceedPending(ctx context.Context) (*model.FlowContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flowCtx, err := s.activeFlow(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := pendingTxHash(flowCtx); !ok {
		return nil, fmt.Errorf("current step has no pending transaction")
	}
	logger.Info("user chose to proceed past pending transaction", zap.String("flowId", flowCtx.FlowId), zap.Int("step", flowCtx.CurrentStep))
	return cloned(s.moveForward(ctx, flowCtx, *flowCtx.LastOutcome))
}

// Abort clears persisted state and ends the flow. Effective only between
// steps; an already-broadcast transaction is not cancelled.
func (s *Sequencer) Abort(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	flowCtx, err := s.activeFlow(ctx)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteFlowContext(ctx); err != nil {
		return err
	}
	flowCtx.State = model.ABORTED
	metrics.FlowsAborted.Inc()
	if _, err := s.ledger.Record(ctx, "flow", model.HISTORY_FAILED,
		map[string]any{"flowId": flowCtx.FlowId, "step": flowCtx.CurrentStep}, "flow aborted by user"); err != nil {
		logger.Error("error recording abort in history", zap.Error(err))
	}
	logger.Info("flow aborted", zap.String("flowId", flowCtx.FlowId), zap.Int("step", flowCtx.CurrentStep))
	s.flowCtx = nil
	return nil
}

// Current returns a copy of the active flow context.
func (s *Sequencer) Current(ctx context.Context) (*model.FlowContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flowCtx, err := s.activeFlow(ctx)
	if err != nil {
		return nil, err
	}
	return flowCtx.Clone(), nil
}

func (s *Sequencer) activeFlow(ctx context.Context) (*model.FlowContext, error) {
	if s.flowCtx != nil {
		return s.flowCtx, nil
	}
	flowCtx, err := s.storage.GetFlowContext(ctx)
	if err != nil {
		return nil, err
	}
	if !flowCtx.StepInBounds() {
		logger.Warn("persisted step index out of bounds, resetting to first step",
			zap.String("flowId", flowCtx.FlowId), zap.Int("step", flowCtx.CurrentStep))
		flowCtx.CurrentStep = 1
		flowCtx.State = model.AWAITING_USER
		flowCtx.LastOutcome = nil
		flowCtx.PendingHistoryId = ""
		if err := s.storage.SaveFlowContext(ctx, flowCtx); err != nil {
			return nil, err
		}
	}
	s.flowCtx = flowCtx
	return flowCtx, nil
}

// confirmSubmitted drives finality for a freshly broadcast transaction:
// the bounded wait, then on ambiguity one more direct check after the
// fixed grace delay before handing the decision to the user. Called with
// the mutex held; it unlocks around the waits and re-acquires to settle.
func (s *Sequencer) confirmSubmitted(ctx context.Context, flowCtx *model.FlowContext, step model.StepSpec, outcome model.StepOutcome) (*model.FlowContext, error) {
	entryId, err := s.ledger.Record(ctx, "transaction", model.HISTORY_PENDING,
		historyPayload(flowCtx, outcome), step.Name)
	if err != nil {
		logger.Error("error recording pending transaction in history", zap.Error(err))
	}
	flowCtx.PendingHistoryId = entryId
	flowId, stepNo := flowCtx.FlowId, flowCtx.CurrentStep
	s.mu.Unlock()

	txHash := common.HexToHash(outcome.TxHash)
	result := s.watcher.AwaitFinality(ctx, txHash)
	if result.Pending {
		select {
		case <-time.After(s.graceDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		result = s.watcher.CheckOnce(ctx, txHash)
	}
	return s.settleAfterWait(ctx, flowId, stepNo, step, outcome, result)
}

// settleAfterWait re-acquires the mutex and applies a finality result. The
// flow may have been aborted or moved on while the wait ran; in that case
// the result is discarded and the pending ledger entry is left to the
// monitor.
func (s *Sequencer) settleAfterWait(ctx context.Context, flowId string, stepNo int, step model.StepSpec, outcome model.StepOutcome, result chain.FinalityResult) (*model.FlowContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flowCtx, err := s.activeFlow(ctx)
	if err != nil {
		return nil, err
	}
	if flowCtx.FlowId != flowId || flowCtx.CurrentStep != stepNo {
		logger.Warn("flow moved on during confirmation wait", zap.String("flowId", flowId), zap.Int("step", stepNo))
		return flowCtx.Clone(), nil
	}
	return cloned(s.settleFinality(ctx, flowCtx, step, outcome, result))
}

func (s *Sequencer) settleFinality(ctx context.Context, flowCtx *model.FlowContext, step model.StepSpec, outcome model.StepOutcome, result chain.FinalityResult) (*model.FlowContext, error) {
	switch {
	case !result.Pending && result.Ok:
		confirmed := model.ConfirmedTxOutcome(outcome.TxHash, result.BlockNumber)
		s.patchPendingEntry(ctx, flowCtx, model.HISTORY_COMPLETED, "transaction confirmed")
		return s.completeStep(ctx, flowCtx, step, confirmed)
	case !result.Pending:
		s.patchPendingEntry(ctx, flowCtx, model.HISTORY_FAILED, "transaction reverted")
		failed := model.FailureOutcome(model.OUTCOME_TRANSACTION,
			fmt.Sprintf("transaction %s reverted on chain", outcome.TxHash), false)
		return s.holdWithFailure(ctx, flowCtx, step, failed)
	default:
		pending := model.PendingTxOutcome(outcome.TxHash, result.Dropped)
		flowCtx.State = model.AWAITING_USER
		flowCtx.LastOutcome = &pending
		flowCtx.LastOutcomeStep = flowCtx.CurrentStep
		if err := s.storage.SaveFlowContext(ctx, flowCtx); err != nil {
			return nil, err
		}
		logger.Info("transaction still unconfirmed, awaiting user decision",
			zap.String("flowId", flowCtx.FlowId), zap.String("hash", pending.TxHash), zap.Bool("dropped", pending.Dropped))
		return flowCtx, nil
	}
}

// completeStep records the outcome, captures its output for later template
// resolution and moves to the next step, or completes the flow.
func (s *Sequencer) completeStep(ctx context.Context, flowCtx *model.FlowContext, step model.StepSpec, outcome model.StepOutcome) (*model.FlowContext, error) {
	if flowCtx.PendingHistoryId == "" {
		if _, err := s.ledger.Record(ctx, string(step.Kind()), model.HISTORY_COMPLETED,
			historyPayload(flowCtx, outcome), step.Name); err != nil {
			logger.Error("error recording step in history", zap.Error(err))
		}
	}
	return s.moveForward(ctx, flowCtx, outcome)
}

func (s *Sequencer) moveForward(ctx context.Context, flowCtx *model.FlowContext, outcome model.StepOutcome) (*model.FlowContext, error) {
	if flowCtx.StepData == nil {
		flowCtx.StepData = make(map[string]any)
	}
	flowCtx.StepData[fmt.Sprintf("step%d", flowCtx.CurrentStep)] = map[string]any{
		"output": outcomeData(outcome),
	}
	flowCtx.LastOutcome = &outcome
	flowCtx.LastOutcomeStep = flowCtx.CurrentStep
	// the step is settled or explicitly left behind; the entry is the
	// pending monitor's concern from here on
	flowCtx.PendingHistoryId = ""

	if flowCtx.CurrentStep+1 > flowCtx.TotalSteps() {
		return s.markComplete(ctx, flowCtx)
	}
	flowCtx.CurrentStep++
	flowCtx.State = model.AWAITING_USER
	if err := s.storage.SaveFlowContext(ctx, flowCtx); err != nil {
		return nil, err
	}
	logger.Info("advanced to next step", zap.String("flowId", flowCtx.FlowId), zap.Int("step", flowCtx.CurrentStep))
	return flowCtx, nil
}

func (s *Sequencer) markComplete(ctx context.Context, flowCtx *model.FlowContext) (*model.FlowContext, error) {
	if err := s.storage.DeleteFlowContext(ctx); err != nil {
		return nil, err
	}
	flowCtx.State = model.COMPLETED
	metrics.FlowsCompleted.Inc()
	if _, err := s.ledger.Record(ctx, "flow", model.HISTORY_COMPLETED,
		map[string]any{"flowId": flowCtx.FlowId}, "flow completed"); err != nil {
		logger.Error("error recording completion in history", zap.Error(err))
	}
	logger.Info("flow completed", zap.String("flowId", flowCtx.FlowId))
	s.flowCtx = nil
	return flowCtx, nil
}

// holdWithFailure keeps the flow at the same step awaiting an explicit
// user retry or abort. Failures never terminate the flow on their own.
func (s *Sequencer) holdWithFailure(ctx context.Context, flowCtx *model.FlowContext, step model.StepSpec, outcome model.StepOutcome) (*model.FlowContext, error) {
	if flowCtx.PendingHistoryId == "" {
		status := model.HISTORY_FAILED
		message := outcome.Message
		if outcome.UserRejected {
			message = "signature declined"
		}
		if _, err := s.ledger.Record(ctx, string(step.Kind()), status,
			historyPayload(flowCtx, outcome), message); err != nil {
			logger.Error("error recording failure in history", zap.Error(err))
		}
	}
	flowCtx.State = model.AWAITING_USER
	flowCtx.LastOutcome = &outcome
	flowCtx.LastOutcomeStep = flowCtx.CurrentStep
	flowCtx.PendingHistoryId = ""
	if err := s.storage.SaveFlowContext(ctx, flowCtx); err != nil {
		return nil, err
	}
	return flowCtx, nil
}

func (s *Sequencer) patchPendingEntry(ctx context.Context, flowCtx *model.FlowContext, status model.HistoryStatus, message string) {
	if flowCtx.PendingHistoryId == "" {
		return
	}
	if err := s.ledger.Update(ctx, flowCtx.PendingHistoryId, model.HistoryPatch{
		Status:  &status,
		Message: &message,
	}); err != nil {
		logger.Error("error updating pending history entry", zap.String("entryId", flowCtx.PendingHistoryId), zap.Error(err))
	}
}

func cloned(flowCtx *model.FlowContext, err error) (*model.FlowContext, error) {
	if err != nil {
		return nil, err
	}
	return flowCtx.Clone(), nil
}

func pendingTxHash(flowCtx *model.FlowContext) (common.Hash, bool) {
	outcome := flowCtx.LastOutcome
	if outcome == nil || !outcome.Pending || len(outcome.TxHash) == 0 {
		return common.Hash{}, false
	}
	if flowCtx.LastOutcomeStep != flowCtx.CurrentStep {
		return common.Hash{}, false
	}
	return common.HexToHash(outcome.TxHash), true
}

func historyPayload(flowCtx *model.FlowContext, outcome model.StepOutcome) map[string]any {
	payload := outcomeData(outcome)
	payload["flowId"] = flowCtx.FlowId
	payload["step"] = flowCtx.CurrentStep
	return payload
}

func outcomeData(outcome model.StepOutcome) map[string]any {
	data := map[string]any{"kind": string(outcome.Kind)}
	if len(outcome.Balance) > 0 {
		data["balance"] = outcome.Balance
	}
	if len(outcome.TxHash) > 0 {
		data["txHash"] = outcome.TxHash
	}
	if outcome.BlockNumber > 0 {
		data["blockNumber"] = outcome.BlockNumber
	}
	return data
}
