package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"gallery-core/internal/chain"
)

const mintGasLimit = 600000

// TxSender is the signer queue surface the saga submits through.
type TxSender interface {
	Enqueue(ctx context.Context, req chain.TxRequest) (common.Hash, error)
	From() common.Address
}

// ReceiptSource resolves broadcast transactions into confirmed receipts.
type ReceiptSource interface {
	Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// MintRequest is what the executor needs to create a collection for the
// collector.
type MintRequest struct {
	Name         string
	ImageHash    string
	MetadataHash string
	Artist       common.Address
	Recipient    common.Address
}

// MintExecutor invokes the NFT factory and decodes the minted collection from
// the confirmed receipt.
type MintExecutor struct {
	sender     TxSender
	receipts   ReceiptSource
	factory    common.Address
	royaltyBps *big.Int
}

func NewMintExecutor(sender TxSender, receipts ReceiptSource, factory common.Address, royaltyBps int64) *MintExecutor {
	return &MintExecutor{
		sender:     sender,
		receipts:   receipts,
		factory:    factory,
		royaltyBps: big.NewInt(royaltyBps),
	}
}

// Submit broadcasts the factory creation call and returns its hash. The
// caller records the hash before waiting on confirmation.
func (m *MintExecutor) Submit(ctx context.Context, req MintRequest) (common.Hash, error) {
	data, err := chain.PackCreateCollection(
		req.Name,
		CollectionSymbol(req.Name),
		TokenURI(req.ImageHash, req.MetadataHash),
		req.Artist,
		m.royaltyBps,
		req.Recipient,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack createCollection: %w", err)
	}

	return m.sender.Enqueue(ctx, chain.TxRequest{
		To:       m.factory,
		Data:     data,
		GasLimit: mintGasLimit,
	})
}

// Await blocks until the mint confirms, then decodes the collection address
// from the receipt's CollectionCreated event.
func (m *MintExecutor) Await(ctx context.Context, txHash common.Hash) (*chain.MintResult, error) {
	receipt, err := m.receipts.WaitMined(ctx, txHash)
	if err != nil {
		return nil, err
	}
	return chain.DecodeCollectionCreated(receipt, m.factory)
}

// TokenURI builds the content-address URI. The metadata hash wins when both
// are stored.
func TokenURI(imageHash, metadataHash string) string {
	hash := metadataHash
	if hash == "" {
		hash = imageHash
	}
	if strings.HasPrefix(hash, "ipfs://") {
		return hash
	}
	return "ipfs://" + hash
}

// CollectionSymbol derives a short uppercase ticker from the artwork name.
// Length is counted in runes; a multi-byte letter is still one character.
func CollectionSymbol(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			n++
		}
		if n >= 5 {
			break
		}
	}
	if n == 0 {
		return "ART"
	}
	return b.String()
}
