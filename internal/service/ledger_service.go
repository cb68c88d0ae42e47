package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gallery-core/internal/event"
	"gallery-core/internal/model"
)

// LedgerRecorder persists the sale and the minted NFT as one logical unit
// keyed by the fingerprint. Both the orchestrator and the reconciler call it;
// a fingerprint that is already recorded returns the existing rows.
type LedgerRecorder struct {
	db *gorm.DB
}

func NewLedgerRecorder(db *gorm.DB) *LedgerRecorder {
	return &LedgerRecorder{db: db}
}

// Record writes the CollectedNFT, the SaleRecord and the sale.completed
// outbox event in a single transaction.
func (l *LedgerRecorder) Record(attempt *model.SettlementAttempt) (*model.SaleRecord, *model.CollectedNFT, error) {
	// Retried fingerprints must not double-record.
	var existing model.SaleRecord
	err := l.db.Where("fingerprint = ?", attempt.Fingerprint).First(&existing).Error
	if err == nil {
		var nft model.CollectedNFT
		if err := l.db.Where("fingerprint = ?", attempt.Fingerprint).First(&nft).Error; err != nil {
			return nil, nil, fmt.Errorf("sale exists but nft missing for %s: %w", attempt.Fingerprint, err)
		}
		return &existing, &nft, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	nft := model.CollectedNFT{
		Fingerprint:       attempt.Fingerprint,
		ArtworkID:         attempt.ArtworkID,
		OwnerAddress:      attempt.CollectorAddress,
		ArtistAddress:     attempt.ArtistAddress,
		CollectionAddress: attempt.MintedCollection,
		TokenURI:          TokenURI(attempt.ImageHash, attempt.MetadataHash),
		DisplayName:       attempt.ArtworkName,
		MintTxHash:        attempt.MintTxHash,
		Network:           attempt.Network,
	}
	sale := model.SaleRecord{
		Fingerprint:       attempt.Fingerprint,
		ArtworkID:         attempt.ArtworkID,
		CollectorAddress:  attempt.CollectorAddress,
		ArtistAddress:     attempt.ArtistAddress,
		AmountUSDC:        attempt.AmountUSDC,
		TreasuryBaseUnits: attempt.TreasuryBaseUnits,
		ArtistBaseUnits:   attempt.ArtistBaseUnits,
		TreasuryTxHash:    attempt.TreasuryTxHash,
		ArtistTxHash:      attempt.ArtistTxHash,
		MintTxHash:        attempt.MintTxHash,
		Network:           attempt.Network,
	}

	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&nft).Error; err != nil {
			return err
		}
		sale.NFTID = nft.ID
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		payload := event.SaleCompletedEvent{
			Fingerprint:       attempt.Fingerprint,
			SaleID:            sale.ID,
			NFTID:             nft.ID,
			ArtworkID:         attempt.ArtworkID,
			CollectorAddress:  attempt.CollectorAddress,
			ArtistAddress:     attempt.ArtistAddress,
			AmountUSDC:        attempt.AmountUSDC.String(),
			CollectionAddress: attempt.MintedCollection,
			TreasuryTxHash:    attempt.TreasuryTxHash,
			ArtistTxHash:      attempt.ArtistTxHash,
			MintTxHash:        attempt.MintTxHash,
			Network:           attempt.Network,
		}
		return model.CreateOutboxMessage(tx, event.TopicSaleCompleted, attempt.Fingerprint, payload)
	})
	if err != nil {
		return nil, nil, err
	}

	return &sale, &nft, nil
}
