package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/psahay/rampflow/logger"
	"github.com/psahay/rampflow/model"
	"go.uber.org/zap"
)

// balanceOf(address) selector
var balanceOfSelector = common.Hex2Bytes("70a08231")

const receiptPollInterval = 2 * time.Second

var _ NodeClient = new(EthClient)

type EthClient struct {
	client  *ethclient.Client
	chainId *big.Int
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewEthClient(rpcUrl string, chainId int64, key *ecdsa.PrivateKey) (*EthClient, error) {
	client, err := ethclient.Dial(rpcUrl)
	if err != nil {
		return nil, fmt.Errorf("error connecting to chain rpc %s: %w", rpcUrl, err)
	}
	return &EthClient{
		client:  client,
		chainId: big.NewInt(chainId),
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func (e *EthClient) ActiveAddress() common.Address {
	return e.address
}

func (e *EthClient) BalanceOf(ctx context.Context, token common.Address, holder common.Address) (*big.Int, error) {
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(holder.Bytes(), 32)...)
	res, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(res), nil
}

// SignAndSend fills nonce and gas price, signs with the active key and
// broadcasts. The template's From has already been rewritten by the
// executor; it is ignored here in favor of the key's address.
func (e *EthClient) SignAndSend(ctx context.Context, tpl model.TxTemplate) (common.Hash, error) {
	nonce, err := e.client.PendingNonceAt(ctx, e.address)
	if err != nil {
		return common.Hash{}, err
	}
	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	value := new(big.Int)
	if len(tpl.Value) > 0 {
		if _, ok := value.SetString(tpl.Value, 10); !ok {
			return common.Hash{}, fmt.Errorf("invalid transaction value %q", tpl.Value)
		}
	}
	gas := tpl.Gas
	if gas == 0 {
		to := common.HexToAddress(tpl.To)
		gas, err = e.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  e.address,
			To:    &to,
			Value: value,
			Data:  common.FromHex(tpl.Data),
		})
		if err != nil {
			return common.Hash{}, err
		}
	}
	to := common.HexToAddress(tpl.To)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     common.FromHex(tpl.Data),
	})
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainId), e.key)
	if err != nil {
		return common.Hash{}, err
	}
	if err := e.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, err
	}
	logger.Info("transaction broadcast", zap.String("hash", signedTx.Hash().Hex()), zap.String("to", tpl.To))
	return signedTx.Hash(), nil
}

// WaitMined polls for a receipt until the context is done. The caller
// bounds the wait; this never gives up on its own.
func (e *EthClient) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()
	for {
		receipt, err := e.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (e *EthClient) TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	return e.client.TransactionByHash(ctx, txHash)
}

func (e *EthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return e.client.TransactionReceipt(ctx, txHash)
}
