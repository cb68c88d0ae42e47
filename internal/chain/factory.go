package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// NFT factory contract. createCollection deploys a fresh collection, mints
// token 0 to the recipient and emits CollectionCreated.
const factoryABIJSON = `[
	{"name":"createCollection","type":"function","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"baseURI","type":"string"},{"name":"artist","type":"address"},{"name":"royaltyBps","type":"uint96"},{"name":"recipient","type":"address"}],"outputs":[{"name":"collection","type":"address"},{"name":"tokenId","type":"uint256"}]},
	{"name":"CollectionCreated","type":"event","anonymous":false,"inputs":[{"name":"collection","type":"address","indexed":true},{"name":"artist","type":"address","indexed":true},{"name":"recipient","type":"address","indexed":false},{"name":"tokenId","type":"uint256","indexed":false}]}
]`

var factoryABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(factoryABIJSON))
	if err != nil {
		panic(fmt.Sprintf("factory abi: %v", err))
	}
	factoryABI = parsed
}

// ErrNoCollectionEvent means the mint receipt carried no CollectionCreated
// event from the factory.
var ErrNoCollectionEvent = errors.New("no CollectionCreated event in receipt")

// PackCreateCollection builds calldata for the factory creation call.
func PackCreateCollection(name, symbol, baseURI string, artist common.Address, royaltyBps *big.Int, recipient common.Address) ([]byte, error) {
	return factoryABI.Pack("createCollection", name, symbol, baseURI, artist, royaltyBps, recipient)
}

// MintResult is what the factory reports back through its event.
type MintResult struct {
	Collection common.Address
	TokenID    *big.Int
	Recipient  common.Address
}

// DecodeCollectionCreated extracts the minted collection from a confirmed
// receipt by matching the event signature, not a log position. Log ordering is
// not stable across contract versions, so the first-log shortcut is off the
// table.
func DecodeCollectionCreated(receipt *types.Receipt, factory common.Address) (*MintResult, error) {
	event := factoryABI.Events["CollectionCreated"]

	for _, lg := range receipt.Logs {
		if lg == nil || lg.Address != factory {
			continue
		}
		if len(lg.Topics) < 3 || lg.Topics[0] != event.ID {
			continue
		}

		unpacked, err := factoryABI.Unpack("CollectionCreated", lg.Data)
		if err != nil {
			return nil, fmt.Errorf("unpack CollectionCreated: %w", err)
		}
		recipient, ok := unpacked[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("unexpected recipient type in CollectionCreated")
		}
		tokenID, ok := unpacked[1].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("unexpected tokenId type in CollectionCreated")
		}

		return &MintResult{
			Collection: common.BytesToAddress(lg.Topics[1].Bytes()),
			TokenID:    tokenID,
			Recipient:  recipient,
		}, nil
	}

	return nil, ErrNoCollectionEvent
}
