package service

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery-core/internal/event"
	"gallery-core/internal/model"
)

func mintedAttempt(fingerprint string) *model.SettlementAttempt {
	return &model.SettlementAttempt{
		Fingerprint:       fingerprint,
		ArtworkID:         "art-7",
		CollectorAddress:  testCollector.Hex(),
		ArtistAddress:     testArtist.Hex(),
		AmountUSDC:        decimal.RequireFromString("10"),
		TotalBaseUnits:    decimal.NewFromInt(10000000),
		TreasuryBaseUnits: decimal.NewFromInt(500000),
		ArtistBaseUnits:   decimal.NewFromInt(9500000),
		ArtworkName:       "Night Market",
		ImageHash:         "QmImage",
		TreasuryTxHash:    "0x01",
		ArtistTxHash:      "0x02",
		MintTxHash:        "0x03",
		MintedCollection:  testMinted.Hex(),
		Status:            model.StatusMinted,
		Network:           "base-sepolia",
	}
}

func TestLedgerRecord(t *testing.T) {
	db := newTestDB(t)
	attempt := mintedAttempt("fp-ledger-1")
	require.NoError(t, db.Create(attempt).Error)

	ledger := NewLedgerRecorder(db)
	sale, nft, err := ledger.Record(attempt)
	require.NoError(t, err)

	assert.Equal(t, nft.ID, sale.NFTID)
	assert.Equal(t, "10", sale.AmountUSDC.String())
	assert.Equal(t, testMinted.Hex(), nft.CollectionAddress)
	assert.Equal(t, "ipfs://QmImage", nft.TokenURI)
	assert.Equal(t, "Night Market", nft.DisplayName)

	var outbox model.OutboxMessage
	require.NoError(t, db.First(&outbox).Error)
	assert.Equal(t, event.TopicSaleCompleted, outbox.Topic)
	assert.Equal(t, "fp-ledger-1", outbox.Key)
	assert.Equal(t, "PENDING", outbox.Status)

	var evt event.SaleCompletedEvent
	require.NoError(t, json.Unmarshal(outbox.Payload, &evt))
	assert.Equal(t, sale.ID, evt.SaleID)
	assert.Equal(t, "0x03", evt.MintTxHash)
}

func TestLedgerRecordIdempotent(t *testing.T) {
	db := newTestDB(t)
	attempt := mintedAttempt("fp-ledger-2")
	require.NoError(t, db.Create(attempt).Error)

	ledger := NewLedgerRecorder(db)
	sale1, nft1, err := ledger.Record(attempt)
	require.NoError(t, err)

	sale2, nft2, err := ledger.Record(attempt)
	require.NoError(t, err)

	assert.Equal(t, sale1.ID, sale2.ID)
	assert.Equal(t, nft1.ID, nft2.ID)

	var saleCount, outboxCount int64
	db.Model(&model.SaleRecord{}).Count(&saleCount)
	db.Model(&model.OutboxMessage{}).Count(&outboxCount)
	assert.Equal(t, int64(1), saleCount)
	assert.Equal(t, int64(1), outboxCount)
}

// The reconciler's repair pass must turn a minted-but-unrecorded attempt into
// ledger rows and mark it complete.
func TestReconcileRepairsMintedAttempt(t *testing.T) {
	db := newTestDB(t)
	attempt := mintedAttempt("fp-reconcile-1")
	require.NoError(t, db.Create(attempt).Error)

	reconciler := NewReconcileService(db, nil, NewLedgerRecorder(db))
	reconciler.repairMintedAttempts()

	var repaired model.SettlementAttempt
	require.NoError(t, db.Where("fingerprint = ?", "fp-reconcile-1").First(&repaired).Error)
	assert.Equal(t, model.StatusComplete, repaired.Status)

	var sale model.SaleRecord
	require.NoError(t, db.Where("fingerprint = ?", "fp-reconcile-1").First(&sale).Error)
	assert.Equal(t, "10", sale.AmountUSDC.String())

	// Repairing again must not duplicate anything.
	require.NoError(t, db.Model(&model.SettlementAttempt{}).
		Where("fingerprint = ?", "fp-reconcile-1").
		Update("status", model.StatusMinted).Error)
	reconciler.repairMintedAttempts()

	var saleCount int64
	db.Model(&model.SaleRecord{}).Count(&saleCount)
	assert.Equal(t, int64(1), saleCount)
}

func TestReconcileLeavesInFlightAttemptsAlone(t *testing.T) {
	db := newTestDB(t)
	attempt := mintedAttempt("fp-reconcile-2")
	attempt.Status = model.StatusArtistSent
	attempt.MintTxHash = ""
	attempt.MintedCollection = ""
	require.NoError(t, db.Create(attempt).Error)

	reconciler := NewReconcileService(db, nil, NewLedgerRecorder(db))
	reconciler.repairMintedAttempts()

	var count int64
	db.Model(&model.SaleRecord{}).Count(&count)
	assert.Zero(t, count)

	var unchanged model.SettlementAttempt
	require.NoError(t, db.First(&unchanged, "fingerprint = ?", "fp-reconcile-2").Error)
	assert.Equal(t, model.StatusArtistSent, unchanged.Status)
}
