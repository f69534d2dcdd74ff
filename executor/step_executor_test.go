package executor

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/psahay/rampflow/chain"
	"github.com/psahay/rampflow/model"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	balance    *big.Int
	balanceErr error
	sendErr    error
	lastSent   model.TxTemplate
}

var _ chain.NodeClient = new(fakeNode)

func (f *fakeNode) ActiveAddress() common.Address {
	return common.HexToAddress("0x00000000000000000000000000000000000000ee")
}

func (f *fakeNode) BalanceOf(ctx context.Context, token common.Address, holder common.Address) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeNode) SignAndSend(ctx context.Context, tpl model.TxTemplate) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	f.lastSent = tpl
	return common.HexToHash("0x1111"), nil
}

func (f *fakeNode) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, nil
}

func (f *fakeNode) TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	return nil, false, nil
}

func (f *fakeNode) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, nil
}

func signedStep() model.StepSpec {
	return model.StepSpec{
		Name:              "swap usdc to eurc",
		RequiresSignature: true,
		Template: &model.TxTemplate{
			To:    "0x00000000000000000000000000000000000000bb",
			From:  "0x00000000000000000000000000000000000000dd",
			Data:  "0xdeadbeef",
			Value: "0",
		},
	}
}

func TestStepExecutor(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test balance query":                      testBalanceQuery,
		"test balance failure degrades to zero":   testBalanceDegrades,
		"test balance query idempotent":           testBalanceIdempotent,
		"test informational step":                 testInformationalStep,
		"test broadcast comes back pending":       testBroadcastPending,
		"test sender is always the signer":        testSenderRewritten,
		"test user rejection classified":          testUserRejection,
		"test submission failure not a rejection": testSubmissionFailure,
	} {
		t.Run(scenario, fn)
	}
}

func testBalanceQuery(t *testing.T) {
	ex := NewStepExecutor(&fakeNode{balance: big.NewInt(1_250_000)})
	step := model.StepSpec{Name: "check usdc balance", BalanceToken: "0x00000000000000000000000000000000000000aa"}
	outcome := ex.Execute(context.Background(), step, &model.FlowContext{})
	require.True(t, outcome.Ok)
	require.False(t, outcome.Pending)
	require.Equal(t, model.OUTCOME_BALANCE, outcome.Kind)
	require.Equal(t, "1250000", outcome.Balance)
}

func testBalanceDegrades(t *testing.T) {
	ex := NewStepExecutor(&fakeNode{balanceErr: fmt.Errorf("connection refused")})
	step := model.StepSpec{Name: "check usdc balance", BalanceToken: "0x00000000000000000000000000000000000000aa"}
	outcome := ex.Execute(context.Background(), step, &model.FlowContext{})
	require.True(t, outcome.Ok)
	require.Equal(t, "0", outcome.Balance)
}

func testBalanceIdempotent(t *testing.T) {
	ex := NewStepExecutor(&fakeNode{balance: big.NewInt(7)})
	step := model.StepSpec{Name: "check usdc balance", BalanceToken: "0x00000000000000000000000000000000000000aa"}
	first := ex.Execute(context.Background(), step, &model.FlowContext{})
	second := ex.Execute(context.Background(), step, &model.FlowContext{})
	require.Equal(t, first, second)
}

func testInformationalStep(t *testing.T) {
	ex := NewStepExecutor(&fakeNode{})
	step := model.StepSpec{Name: "fiat order received"}
	outcome := ex.Execute(context.Background(), step, &model.FlowContext{})
	require.True(t, outcome.Ok)
	require.Equal(t, model.OUTCOME_NO_SIGNATURE, outcome.Kind)
}

func testBroadcastPending(t *testing.T) {
	ex := NewStepExecutor(&fakeNode{})
	outcome := ex.Execute(context.Background(), signedStep(), &model.FlowContext{})
	require.True(t, outcome.Ok)
	require.True(t, outcome.Pending)
	require.Equal(t, common.HexToHash("0x1111").Hex(), outcome.TxHash)
}

func testSenderRewritten(t *testing.T) {
	node := &fakeNode{}
	ex := NewStepExecutor(node)
	ex.Execute(context.Background(), signedStep(), &model.FlowContext{})
	require.Equal(t, node.ActiveAddress().Hex(), node.lastSent.From)
}

func testUserRejection(t *testing.T) {
	ex := NewStepExecutor(&fakeNode{sendErr: fmt.Errorf("MetaMask Tx Signature: User denied transaction signature")})
	outcome := ex.Execute(context.Background(), signedStep(), &model.FlowContext{})
	require.False(t, outcome.Ok)
	require.True(t, outcome.UserRejected)
}

func testSubmissionFailure(t *testing.T) {
	ex := NewStepExecutor(&fakeNode{sendErr: fmt.Errorf("insufficient funds for gas * price + value")})
	outcome := ex.Execute(context.Background(), signedStep(), &model.FlowContext{})
	require.False(t, outcome.Ok)
	require.False(t, outcome.UserRejected)
	require.Contains(t, outcome.Message, "insufficient funds")
}
