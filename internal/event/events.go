package event

// TopicSaleCompleted carries SaleCompletedEvent payloads.
const TopicSaleCompleted = "gallery_events_sale_completed"

// SaleCompletedEvent is published through the outbox once a settlement reaches
// the ledger. Consumers use the fingerprint as their idempotency key.
type SaleCompletedEvent struct {
	Fingerprint       string `json:"fingerprint"`
	SaleID            uint64 `json:"sale_id"`
	NFTID             uint64 `json:"nft_id"`
	ArtworkID         string `json:"artwork_id"`
	CollectorAddress  string `json:"collector_address"`
	ArtistAddress     string `json:"artist_address"`
	AmountUSDC        string `json:"amount_usdc"` // decimal string
	CollectionAddress string `json:"collection_address"`
	TreasuryTxHash    string `json:"treasury_tx_hash"`
	ArtistTxHash      string `json:"artist_tx_hash"`
	MintTxHash        string `json:"mint_tx_hash"`
	Network           string `json:"network"`
}
