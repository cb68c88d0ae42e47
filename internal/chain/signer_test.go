package chain

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, backend *stubBackend) (*SignerQueue, common.Address, func()) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)

	g := NewGateway(backend, time.Second)
	q := NewSignerQueue(g, key, from, backend.chainID)

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	return q, from, cancel
}

func TestSignerQueueSequentialNonces(t *testing.T) {
	backend := newStubBackend()
	backend.pendingNonce = 5
	q, from, stop := newTestQueue(t, backend)
	defer stop()

	to := common.HexToAddress("0x2000000000000000000000000000000000000001")
	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(context.Background(), TxRequest{To: to, GasLimit: 21000})
		require.NoError(t, err)
	}

	require.Len(t, backend.sent, 3)
	for i, tx := range backend.sent {
		assert.Equal(t, uint64(5+i), tx.Nonce())

		// every transaction is EIP-155 signed by the queue's key
		sender, err := types.Sender(types.NewEIP155Signer(backend.chainID), tx)
		require.NoError(t, err)
		assert.Equal(t, from, sender)
	}

	// the nonce was fetched once and advanced locally
	assert.Equal(t, 1, backend.pendingNonceCalls)
}

func TestSignerQueueResyncsNonceAfterBroadcastError(t *testing.T) {
	backend := newStubBackend()
	backend.pendingNonce = 10
	q, _, stop := newTestQueue(t, backend)
	defer stop()

	to := common.HexToAddress("0x2000000000000000000000000000000000000002")

	_, err := q.Enqueue(context.Background(), TxRequest{To: to})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)
	assert.Equal(t, uint64(10), backend.sent[0].Nonce())

	// A broadcast failure means the node's view of the nonce is unknown.
	backend.failNextSend = true
	_, err = q.Enqueue(context.Background(), TxRequest{To: to})
	require.Error(t, err)

	// The next submission re-reads the pending nonce instead of guessing.
	backend.mu.Lock()
	backend.pendingNonce = 11
	backend.mu.Unlock()

	hash, err := q.Enqueue(context.Background(), TxRequest{To: to})
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)

	require.Len(t, backend.sent, 2)
	assert.Equal(t, uint64(11), backend.sent[1].Nonce())
	assert.Equal(t, 2, backend.pendingNonceCalls)
}

func TestSignerQueueDefaultsGasLimit(t *testing.T) {
	backend := newStubBackend()
	q, _, stop := newTestQueue(t, backend)
	defer stop()

	_, err := q.Enqueue(context.Background(), TxRequest{
		To: common.HexToAddress("0x2000000000000000000000000000000000000003"),
	})
	require.NoError(t, err)

	require.Len(t, backend.sent, 1)
	assert.Equal(t, uint64(300000), backend.sent[0].Gas())
	assert.Equal(t, int64(0), backend.sent[0].Value().Int64())
}
