package executor

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/psahay/rampflow/chain"
	"github.com/psahay/rampflow/logger"
	"github.com/psahay/rampflow/metrics"
	"github.com/psahay/rampflow/model"
	"github.com/psahay/rampflow/util"
	"go.uber.org/zap"
)

// rejection phrasings vary across wallet providers
var rejectionMarkers = []string{
	"user rejected",
	"user denied",
	"rejected by user",
	"request rejected",
}

type StepExecutor struct {
	client chain.NodeClient
}

func NewStepExecutor(client chain.NodeClient) *StepExecutor {
	return &StepExecutor{
		client: client,
	}
}

// Execute runs one atomic unit of work for the current step. It never
// decides transaction finality; a successful broadcast comes back pending
// and the sequencer drives the confirmation watcher.
func (ex *StepExecutor) Execute(ctx context.Context, step model.StepSpec, flowCtx *model.FlowContext) model.StepOutcome {
	outcome := ex.execute(ctx, step, flowCtx)
	result := "success"
	if !outcome.Ok {
		result = "failure"
	} else if outcome.Pending {
		result = "pending"
	}
	metrics.StepsExecuted.WithLabelValues(string(step.Kind()), result).Inc()
	return outcome
}

func (ex *StepExecutor) execute(ctx context.Context, step model.StepSpec, flowCtx *model.FlowContext) model.StepOutcome {
	switch step.Kind() {
	case model.STEP_KIND_BALANCE:
		return ex.executeBalanceQuery(ctx, step)
	case model.STEP_KIND_SIGNED_TX:
		return ex.executeSignedTransaction(ctx, step, flowCtx)
	default:
		return model.NoSignatureOutcome()
	}
}

// Balance reads are cost-free informational steps; a collaborator error
// degrades to a zero balance instead of killing the flow.
func (ex *StepExecutor) executeBalanceQuery(ctx context.Context, step model.StepSpec) model.StepOutcome {
	token := common.HexToAddress(step.BalanceToken)
	balance, err := ex.client.BalanceOf(ctx, token, ex.client.ActiveAddress())
	if err != nil {
		logger.Warn("balance read failed, reporting zero", zap.String("step", step.Name), zap.String("token", step.BalanceToken), zap.Error(err))
		return model.BalanceOutcome("0")
	}
	return model.BalanceOutcome(balance.String())
}

func (ex *StepExecutor) executeSignedTransaction(ctx context.Context, step model.StepSpec, flowCtx *model.FlowContext) model.StepOutcome {
	tpl := util.ResolveTemplate(flowCtx.StepData, *step.Template)
	// never trust a caller-supplied sender
	tpl.From = ex.client.ActiveAddress().Hex()
	txHash, err := ex.client.SignAndSend(ctx, tpl)
	if err != nil {
		if isUserRejection(err) {
			logger.Info("signature declined by user", zap.String("step", step.Name))
			return model.FailureOutcome(model.OUTCOME_TRANSACTION, err.Error(), true)
		}
		logger.Error("transaction submission failed", zap.String("step", step.Name), zap.Error(err))
		return model.FailureOutcome(model.OUTCOME_TRANSACTION, err.Error(), false)
	}
	return model.PendingTxOutcome(txHash.Hex(), false)
}

func isUserRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range rejectionMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
