package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement attempt statuses. Forward-only: once funds moved there is no
// rollback transition, only resumption.
const (
	StatusValidating    = "validating"
	StatusSplitComputed = "split_computed"
	StatusTreasurySent  = "treasury_sent"
	StatusArtistSent    = "artist_sent"
	StatusMinted        = "minted"
	StatusComplete      = "complete"
	StatusFailed        = "failed"
)

// SettlementAttempt is the durable saga record. One row per request
// fingerprint; mutated in place as each on-chain step confirms, never deleted.
// It carries everything needed to resume a half-finished settlement.
type SettlementAttempt struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Fingerprint string `gorm:"type:varchar(64);not null;uniqueIndex" json:"fingerprint"`

	ArtworkID        string          `gorm:"type:varchar(255);not null;index" json:"artwork_id"`
	CollectorAddress string          `gorm:"type:varchar(42);not null;index" json:"collector_address"`
	ArtistAddress    string          `gorm:"type:varchar(42);not null" json:"artist_address"`
	AmountUSDC       decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"amount_usdc"`

	// Split in 6-decimal base units. Artist amount is always the remainder.
	TotalBaseUnits    decimal.Decimal `gorm:"type:decimal(30,0);not null" json:"total_base_units"`
	TreasuryBaseUnits decimal.Decimal `gorm:"type:decimal(30,0);not null" json:"treasury_base_units"`
	ArtistBaseUnits   decimal.Decimal `gorm:"type:decimal(30,0);not null" json:"artist_base_units"`

	// Artwork metadata snapshot so a retry can rebuild the mint call without
	// the original request body.
	ArtworkName        string `gorm:"type:varchar(255);not null" json:"artwork_name"`
	ArtworkDescription string `gorm:"type:text" json:"artwork_description"`
	ImageHash          string `gorm:"type:varchar(255);not null" json:"image_hash"`
	MetadataHash       string `gorm:"type:varchar(255)" json:"metadata_hash"`
	ArtistName         string `gorm:"type:varchar(255)" json:"artist_name"`

	TreasuryTxHash   string `gorm:"type:varchar(66)" json:"treasury_tx_hash"`
	ArtistTxHash     string `gorm:"type:varchar(66)" json:"artist_tx_hash"`
	MintTxHash       string `gorm:"type:varchar(66)" json:"mint_tx_hash"`
	MintedCollection string `gorm:"type:varchar(42)" json:"minted_collection"`

	Status    string `gorm:"type:varchar(32);not null;default:'validating';index" json:"status"`
	LastError string `gorm:"type:text" json:"last_error,omitempty"`

	Network   string    `gorm:"type:varchar(32);not null" json:"network"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaleRecord is the final sale ledger entry, created exactly once per
// fingerprint and never mutated afterwards.
type SaleRecord struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Fingerprint string `gorm:"type:varchar(64);not null;uniqueIndex" json:"fingerprint"`

	ArtworkID        string          `gorm:"type:varchar(255);not null;index" json:"artwork_id"`
	NFTID            uint64          `gorm:"not null;index" json:"nft_id"`
	CollectorAddress string          `gorm:"type:varchar(42);not null;index" json:"collector_address"`
	ArtistAddress    string          `gorm:"type:varchar(42);not null" json:"artist_address"`
	AmountUSDC       decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"amount_usdc"`

	TreasuryBaseUnits decimal.Decimal `gorm:"type:decimal(30,0);not null" json:"treasury_base_units"`
	ArtistBaseUnits   decimal.Decimal `gorm:"type:decimal(30,0);not null" json:"artist_base_units"`

	TreasuryTxHash string `gorm:"type:varchar(66);not null" json:"treasury_tx_hash"`
	ArtistTxHash   string `gorm:"type:varchar(66);not null" json:"artist_tx_hash"`
	MintTxHash     string `gorm:"type:varchar(66);not null" json:"mint_tx_hash"`

	Network   string    `gorm:"type:varchar(32);not null" json:"network"`
	CreatedAt time.Time `json:"created_at"`
}

// CollectedNFT records the minted token. DisplayName is the only field that
// may change after creation.
type CollectedNFT struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Fingerprint string `gorm:"type:varchar(64);not null;uniqueIndex" json:"fingerprint"`

	ArtworkID         string `gorm:"type:varchar(255);not null;index" json:"artwork_id"`
	OwnerAddress      string `gorm:"type:varchar(42);not null;index" json:"owner_address"`
	ArtistAddress     string `gorm:"type:varchar(42);not null" json:"artist_address"`
	CollectionAddress string `gorm:"type:varchar(42);not null" json:"collection_address"`
	TokenURI          string `gorm:"type:varchar(512);not null" json:"token_uri"`
	DisplayName       string `gorm:"type:varchar(255)" json:"display_name"`
	MintTxHash        string `gorm:"type:varchar(66);not null" json:"mint_tx_hash"`

	Network   string    `gorm:"type:varchar(32);not null" json:"network"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SettlementAttempt) TableName() string {
	return "settlement_attempts"
}

func (SaleRecord) TableName() string {
	return "sale_records"
}

func (CollectedNFT) TableName() string {
	return "collected_nfts"
}
