package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"gallery-core/pkg/logger"
	"gallery-core/pkg/monitor"

	"go.uber.org/zap"
)

// TxRequest describes one outgoing transaction from the platform key.
type TxRequest struct {
	To       common.Address
	Value    *big.Int // nil means zero
	Data     []byte
	GasLimit uint64
}

type signResult struct {
	hash common.Hash
	err  error
}

type signJob struct {
	ctx    context.Context
	req    TxRequest
	result chan signResult
}

// SignerQueue owns the shared platform key and its nonce. Every chain-mutating
// transaction in the system funnels through Enqueue, which processes strictly
// FIFO with exactly one in-flight submission at a time. Concurrent settlement
// requests therefore never race the account nonce.
type SignerQueue struct {
	gateway *Gateway
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int

	jobs chan *signJob

	nonce      uint64
	nonceKnown bool
}

// NewSignerQueue builds the queue. Call Start before Enqueue.
func NewSignerQueue(gateway *Gateway, key *ecdsa.PrivateKey, from common.Address, chainID *big.Int) *SignerQueue {
	return &SignerQueue{
		gateway: gateway,
		key:     key,
		from:    from,
		chainID: chainID,
		jobs:    make(chan *signJob, 64),
	}
}

// From returns the signer address. This is the spender collectors approve.
func (q *SignerQueue) From() common.Address {
	return q.from
}

// Start launches the single worker goroutine that owns the nonce.
func (q *SignerQueue) Start(ctx context.Context) {
	go q.run(ctx)
}

func (q *SignerQueue) run(ctx context.Context) {
	logger.Info("signer queue started", zap.String("signer", q.from.Hex()))
	for {
		select {
		case <-ctx.Done():
			logger.Info("signer queue stopped")
			return
		case job := <-q.jobs:
			if monitor.Business != nil {
				monitor.Business.SignerQueueDepth.Set(float64(len(q.jobs)))
			}
			hash, err := q.submit(job.ctx, job.req)
			job.result <- signResult{hash: hash, err: err}
		}
	}
}

// Enqueue queues the transaction and blocks until it is signed and broadcast
// (or fails). The returned hash is of the broadcast transaction; confirmation
// is the caller's concern.
func (q *SignerQueue) Enqueue(ctx context.Context, req TxRequest) (common.Hash, error) {
	job := &signJob{
		ctx:    ctx,
		req:    req,
		result: make(chan signResult, 1),
	}

	select {
	case q.jobs <- job:
	case <-ctx.Done():
		return common.Hash{}, ctx.Err()
	}

	select {
	case res := <-job.result:
		return res.hash, res.err
	case <-ctx.Done():
		return common.Hash{}, ctx.Err()
	}
}

func (q *SignerQueue) submit(ctx context.Context, req TxRequest) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}

	if !q.nonceKnown {
		nonce, err := q.gateway.PendingNonceAt(ctx, q.from)
		if err != nil {
			return common.Hash{}, fmt.Errorf("load nonce: %w", err)
		}
		q.nonce = nonce
		q.nonceKnown = true
	}

	gasPrice, err := q.gateway.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas price: %w", err)
	}

	value := req.Value
	if value == nil {
		value = big.NewInt(0)
	}
	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit = 300000
	}

	tx := types.NewTransaction(q.nonce, req.To, value, gasLimit, gasPrice, req.Data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(q.chainID), q.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign: %w", err)
	}

	if err := q.gateway.Submit(ctx, signedTx); err != nil {
		// The node may or may not have accepted the transaction; resync the
		// nonce before the next submission instead of guessing.
		q.nonceKnown = false
		return common.Hash{}, fmt.Errorf("broadcast: %w", err)
	}

	q.nonce++
	logger.Debug("transaction broadcast",
		zap.String("hash", signedTx.Hash().Hex()),
		zap.String("to", req.To.Hex()),
		zap.Uint64("nonce", q.nonce-1))
	return signedTx.Hash(), nil
}
