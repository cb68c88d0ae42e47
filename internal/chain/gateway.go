package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrConfirmationTimeout means the receipt did not show up within the bound.
// The transaction may still land; callers must keep the recorded hash and
// re-check before resubmitting anything.
var ErrConfirmationTimeout = errors.New("timed out waiting for transaction confirmation")

// ErrTransactionReverted means the transaction was mined but failed.
var ErrTransactionReverted = errors.New("transaction reverted")

// Backend is the subset of the Ethereum RPC the gateway uses.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Gateway is a thin wrapper over the RPC client: contract reads, signed
// submission, receipt waits. No business logic lives here.
type Gateway struct {
	backend        Backend
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// Dial connects to the RPC endpoint.
func Dial(rpcURL string, confirmTimeout time.Duration) (*Gateway, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", rpcURL, err)
	}
	return NewGateway(client, confirmTimeout), nil
}

// NewGateway wraps an existing backend.
func NewGateway(backend Backend, confirmTimeout time.Duration) *Gateway {
	if confirmTimeout <= 0 {
		confirmTimeout = 90 * time.Second
	}
	return &Gateway{
		backend:        backend,
		confirmTimeout: confirmTimeout,
		pollInterval:   2 * time.Second,
	}
}

// ChainID queries the connected network id.
func (g *Gateway) ChainID(ctx context.Context) (*big.Int, error) {
	return g.backend.ChainID(ctx)
}

// ERC20BalanceOf reads balanceOf(owner) on the token.
func (g *Gateway) ERC20BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return g.callUint256(ctx, token, data, "balanceOf")
}

// ERC20Allowance reads allowance(owner, spender) on the token.
func (g *Gateway) ERC20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return g.callUint256(ctx, token, data, "allowance")
}

func (g *Gateway) callUint256(ctx context.Context, to common.Address, data []byte, method string) (*big.Int, error) {
	res, err := g.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := erc20ABI.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output type", method)
	}
	return value, nil
}

// PendingNonceAt returns the next nonce for the account including pending
// transactions. Only the signer queue calls this.
func (g *Gateway) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return g.backend.PendingNonceAt(ctx, account)
}

// SuggestGasPrice returns the node's gas price suggestion.
func (g *Gateway) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return g.backend.SuggestGasPrice(ctx)
}

// Submit broadcasts a signed transaction.
func (g *Gateway) Submit(ctx context.Context, tx *types.Transaction) error {
	return g.backend.SendTransaction(ctx, tx)
}

// Receipt fetches the receipt for a hash. Returns (nil, nil) when the
// transaction is not yet mined.
func (g *Gateway) Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := g.backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, err
	}
	return receipt, nil
}

// WaitMined polls for the receipt until the confirmation timeout. A successful
// receipt is returned as-is; a mined-but-failed transaction is
// ErrTransactionReverted; timeout is ErrConfirmationTimeout.
func (g *Gateway) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	deadline := time.Now().Add(g.confirmTimeout)
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.Receipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("%w: %s", ErrTransactionReverted, txHash.Hex())
			}
			return receipt, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrConfirmationTimeout, txHash.Hex())
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
