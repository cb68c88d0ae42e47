package chain

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend is an in-memory Backend for gateway and signer queue tests.
type stubBackend struct {
	mu sync.Mutex

	callResult []byte
	calls      []ethereum.CallMsg

	receipts map[common.Hash]*types.Receipt

	pendingNonce      uint64
	pendingNonceCalls int

	sent         []*types.Transaction
	failNextSend bool

	chainID *big.Int
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		receipts: map[common.Hash]*types.Receipt{},
		chainID:  big.NewInt(84532),
	}
}

func (b *stubBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	return b.callResult, nil
}

func (b *stubBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingNonceCalls++
	return b.pendingNonce, nil
}

func (b *stubBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1000000000), nil
}

func (b *stubBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNextSend {
		b.failNextSend = false
		return ethereum.NotFound
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *stubBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	receipt, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (b *stubBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return b.chainID, nil
}

func uint256Bytes(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func TestERC20Reads(t *testing.T) {
	backend := newStubBackend()
	backend.callResult = uint256Bytes(12345)
	g := NewGateway(backend, time.Second)

	token := common.HexToAddress("0x1000000000000000000000000000000000000001")
	owner := common.HexToAddress("0x1000000000000000000000000000000000000002")
	spender := common.HexToAddress("0x1000000000000000000000000000000000000003")

	balance, err := g.ERC20BalanceOf(context.Background(), token, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), balance.Int64())

	allowance, err := g.ERC20Allowance(context.Background(), token, owner, spender)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), allowance.Int64())

	require.Len(t, backend.calls, 2)
	assert.Equal(t, erc20ABI.Methods["balanceOf"].ID, backend.calls[0].Data[:4])
	assert.Equal(t, erc20ABI.Methods["allowance"].ID, backend.calls[1].Data[:4])
	assert.Equal(t, token, *backend.calls[0].To)
}

func TestReceiptNotMinedIsNil(t *testing.T) {
	g := NewGateway(newStubBackend(), time.Second)

	receipt, err := g.Receipt(context.Background(), common.BigToHash(big.NewInt(1)))
	require.NoError(t, err)
	assert.Nil(t, receipt)
}

func TestWaitMinedSuccess(t *testing.T) {
	backend := newStubBackend()
	hash := common.BigToHash(big.NewInt(1))
	backend.receipts[hash] = &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash}
	g := NewGateway(backend, time.Second)

	receipt, err := g.WaitMined(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
}

func TestWaitMinedRevert(t *testing.T) {
	backend := newStubBackend()
	hash := common.BigToHash(big.NewInt(2))
	backend.receipts[hash] = &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: hash}
	g := NewGateway(backend, time.Second)

	_, err := g.WaitMined(context.Background(), hash)
	assert.ErrorIs(t, err, ErrTransactionReverted)
}

func TestWaitMinedTimeout(t *testing.T) {
	g := NewGateway(newStubBackend(), 20*time.Millisecond)
	g.pollInterval = 5 * time.Millisecond

	_, err := g.WaitMined(context.Background(), common.BigToHash(big.NewInt(3)))
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
}
