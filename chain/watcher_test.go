package chain

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/psahay/rampflow/model"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	address     common.Address
	waitReceipt *types.Receipt
	waitBlocks  bool
	receipt     *types.Receipt
	txKnown     bool
}

var _ NodeClient = new(fakeClient)

func (f *fakeClient) ActiveAddress() common.Address {
	return f.address
}

func (f *fakeClient) BalanceOf(ctx context.Context, token common.Address, holder common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeClient) SignAndSend(ctx context.Context, tpl model.TxTemplate) (common.Hash, error) {
	return common.Hash{}, nil
}

func (f *fakeClient) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.waitBlocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.waitReceipt, nil
}

func (f *fakeClient) TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	if !f.txKnown {
		return nil, false, ethereum.NotFound
	}
	return types.NewTx(&types.LegacyTx{}), true, nil
}

func (f *fakeClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.receipt == nil {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func minedReceipt(status uint64, block int64) *types.Receipt {
	return &types.Receipt{
		Status:      status,
		BlockNumber: big.NewInt(block),
	}
}

func TestWatcher(t *testing.T) {
	hash := common.HexToHash("0xabc123")
	for scenario, fn := range map[string]func(t *testing.T, hash common.Hash){
		"test wait wins with success":      testWaitWins,
		"test timeout then mined lookup":   testTimeoutMined,
		"test timeout then unmined lookup": testTimeoutUnmined,
		"test timeout then dropped":        testTimeoutDropped,
		"test wait wins with revert":       testWaitRevert,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, hash)
		})
	}
}

func testWaitWins(t *testing.T, hash common.Hash) {
	client := &fakeClient{waitReceipt: minedReceipt(types.ReceiptStatusSuccessful, 100)}
	w := NewWatcher(client, time.Second)
	res := w.AwaitFinality(context.Background(), hash)
	require.False(t, res.Pending)
	require.True(t, res.Ok)
	require.Equal(t, uint64(100), res.BlockNumber)
}

func testWaitRevert(t *testing.T, hash common.Hash) {
	client := &fakeClient{waitReceipt: minedReceipt(types.ReceiptStatusFailed, 101)}
	w := NewWatcher(client, time.Second)
	res := w.AwaitFinality(context.Background(), hash)
	require.False(t, res.Pending)
	require.False(t, res.Ok)
}

func testTimeoutMined(t *testing.T, hash common.Hash) {
	// the wait primitive never answers but the ledger already has the
	// receipt; a slow confirmation must not surface as a failure
	client := &fakeClient{
		waitBlocks: true,
		receipt:    minedReceipt(types.ReceiptStatusSuccessful, 42),
	}
	w := NewWatcher(client, 20*time.Millisecond)
	res := w.AwaitFinality(context.Background(), hash)
	require.False(t, res.Pending)
	require.True(t, res.Ok)
	require.Equal(t, uint64(42), res.BlockNumber)
}

func testTimeoutUnmined(t *testing.T, hash common.Hash) {
	client := &fakeClient{waitBlocks: true, txKnown: true}
	w := NewWatcher(client, 20*time.Millisecond)
	res := w.AwaitFinality(context.Background(), hash)
	require.True(t, res.Pending)
	require.False(t, res.Dropped)
}

func testTimeoutDropped(t *testing.T, hash common.Hash) {
	client := &fakeClient{waitBlocks: true}
	w := NewWatcher(client, 20*time.Millisecond)
	res := w.AwaitFinality(context.Background(), hash)
	require.True(t, res.Pending)
	require.True(t, res.Dropped)
}
