package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/psahay/rampflow/model"
)

// NodeClient is the signing/broadcast collaborator. Wallet providers are
// unreliable under load, so finality decisions run through the Watcher
// rather than trusting WaitMined alone.
type NodeClient interface {
	ActiveAddress() common.Address
	BalanceOf(ctx context.Context, token common.Address, holder common.Address) (*big.Int, error)
	SignAndSend(ctx context.Context, tpl model.TxTemplate) (common.Hash, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}
