package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gallery-core/internal/chain"
	"gallery-core/internal/model"
	"gallery-core/pkg/logger"
	"gallery-core/pkg/monitor"
	"gallery-core/pkg/utils/lock"
)

const (
	transferGasLimit = 120000

	// settleLockTTL bounds how long a crashed process can hold a fingerprint.
	settleLockTTL = 5 * time.Minute
)

// ErrSettlementInProgress means another process holds the fingerprint lease.
var ErrSettlementInProgress = errors.New("settlement already in progress for this request")

// ArtworkMetadata is the metadata snapshot the mint uses.
type ArtworkMetadata struct {
	Name         string
	Description  string
	ImageHash    string
	MetadataHash string
	ArtistName   string
}

// CollectRequest is the saga input.
type CollectRequest struct {
	ArtworkID        string
	CollectorAddress string
	ArtistAddress    string
	AmountUSDC       decimal.Decimal
	Metadata         ArtworkMetadata
}

// Validate rejects malformed requests before any read or write happens.
func (r *CollectRequest) Validate() error {
	if r.ArtworkID == "" {
		return errors.New("artworkId is required")
	}
	if !common.IsHexAddress(r.CollectorAddress) {
		return errors.New("collectorAddress is not a valid address")
	}
	if !common.IsHexAddress(r.ArtistAddress) {
		return errors.New("artistAddress is not a valid address")
	}
	if r.Metadata.Name == "" {
		return errors.New("metadata.name is required")
	}
	if r.Metadata.ImageHash == "" {
		return errors.New("metadata.imageHash is required")
	}
	if r.AmountUSDC.Cmp(decimal.NewFromInt(1)) < 0 {
		return ErrBelowMinimum
	}
	return nil
}

// SettlementResult is the composite outcome returned to the client.
type SettlementResult struct {
	Fingerprint       string `json:"fingerprint"`
	NFTID             uint64 `json:"nftId"`
	SaleID            uint64 `json:"saleId"`
	CollectionAddress string `json:"collectionAddress"`
	TreasuryTxHash    string `json:"treasuryTxHash"`
	ArtistTxHash      string `json:"artistTxHash"`
	MintTxHash        string `json:"mintTxHash"`
	AmountPaid        string `json:"amountPaid"`
	TreasuryAmount    string `json:"treasuryAmount"`
	ArtistAmount      string `json:"artistAmount"`
}

// SettlementOrchestrator drives the Collect-and-Settle saga: validate,
// split, treasury transfer, artist transfer, mint, ledger. Forward-only; a
// step whose hash is already recorded is never resubmitted.
type SettlementOrchestrator struct {
	db        *gorm.DB
	validator *PaymentValidator
	sender    TxSender
	receipts  ReceiptSource
	mint      *MintExecutor
	ledger    *LedgerRecorder
	locks     lock.DistributedLock

	token    common.Address
	treasury common.Address
	network  string
}

func NewSettlementOrchestrator(
	db *gorm.DB,
	validator *PaymentValidator,
	sender TxSender,
	receipts ReceiptSource,
	mint *MintExecutor,
	ledger *LedgerRecorder,
	locks lock.DistributedLock,
	token, treasury common.Address,
	network string,
) *SettlementOrchestrator {
	return &SettlementOrchestrator{
		db:        db,
		validator: validator,
		sender:    sender,
		receipts:  receipts,
		mint:      mint,
		ledger:    ledger,
		locks:     locks,
		token:     token,
		treasury:  treasury,
		network:   network,
	}
}

// Settle runs (or resumes) the saga for the request. Idempotent on the
// request fingerprint: a COMPLETE attempt returns its recorded result with no
// new transactions.
func (s *SettlementOrchestrator) Settle(ctx context.Context, req *CollectRequest) (*SettlementResult, error) {
	start := time.Now()

	split, err := ComputeSplit(req.AmountUSDC)
	if err != nil {
		return nil, err
	}
	fingerprint := Fingerprint(req.ArtworkID, req.CollectorAddress, split.Total)

	// Per-fingerprint claim so exactly one process works an attempt row.
	locked, err := s.locks.Acquire(ctx, "settle:"+fingerprint, settleLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire settlement lease: %w", err)
	}
	if !locked {
		return nil, ErrSettlementInProgress
	}
	defer s.locks.Release(context.WithoutCancel(ctx), "settle:"+fingerprint)

	attempt, err := s.loadOrCreateAttempt(ctx, req, split, fingerprint)
	if err != nil {
		return nil, err
	}

	if attempt.Status == model.StatusComplete {
		logger.Info("settlement already complete, returning recorded result",
			zap.String("fingerprint", fingerprint))
		return s.resultFor(attempt)
	}

	collector := common.HexToAddress(attempt.CollectorAddress)
	artist := common.HexToAddress(attempt.ArtistAddress)
	treasuryAmount := attempt.TreasuryBaseUnits.BigInt()
	artistAmount := attempt.ArtistBaseUnits.BigInt()

	// Treasury transfer. Failure here is clean: no funds have moved yet.
	if err := s.transferStep(ctx, attempt, s.treasury, treasuryAmount,
		&attempt.TreasuryTxHash, model.StatusTreasurySent, false); err != nil {
		return nil, err
	}

	// Artist transfer. From here on every failure is a partial settlement.
	if err := s.transferStep(ctx, attempt, artist, artistAmount,
		&attempt.ArtistTxHash, model.StatusArtistSent, true); err != nil {
		return nil, err
	}

	if err := s.mintStep(ctx, attempt, artist, collector); err != nil {
		return nil, err
	}

	result, err := s.persistStep(attempt)
	if err != nil {
		return nil, err
	}

	if monitor.Business != nil {
		monitor.Business.SettlementTotal.WithLabelValues(model.StatusComplete).Inc()
		monitor.Business.SettlementDuration.WithLabelValues(s.network).Observe(time.Since(start).Seconds())
		amount, _ := attempt.AmountUSDC.Float64()
		monitor.Business.SettlementAmountTotal.WithLabelValues(s.network).Add(amount)
	}

	return result, nil
}

// loadOrCreateAttempt claims the existing attempt row or validates the
// request and creates a fresh one. Validation runs only for fresh attempts: a
// resumed attempt may already have moved funds, and a now-reduced allowance
// must not block resumption of steps that no longer need it.
func (s *SettlementOrchestrator) loadOrCreateAttempt(ctx context.Context, req *CollectRequest, split *PaymentSplit, fingerprint string) (*model.SettlementAttempt, error) {
	var attempt model.SettlementAttempt
	err := s.db.Where("fingerprint = ?", fingerprint).First(&attempt).Error
	if err == nil {
		return &attempt, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// No attempt yet: validate first so a rejected request leaves no trail
	// and a retry after approving the allowance starts clean.
	collector := common.HexToAddress(req.CollectorAddress)
	if err := s.validator.Validate(ctx, collector, s.sender.From(), split.Total); err != nil {
		return nil, err
	}

	attempt = model.SettlementAttempt{
		Fingerprint:        fingerprint,
		ArtworkID:          req.ArtworkID,
		CollectorAddress:   collector.Hex(),
		ArtistAddress:      common.HexToAddress(req.ArtistAddress).Hex(),
		AmountUSDC:         req.AmountUSDC,
		TotalBaseUnits:     decimal.NewFromBigInt(split.Total, 0),
		TreasuryBaseUnits:  decimal.NewFromBigInt(split.Treasury, 0),
		ArtistBaseUnits:    decimal.NewFromBigInt(split.Artist, 0),
		ArtworkName:        req.Metadata.Name,
		ArtworkDescription: req.Metadata.Description,
		ImageHash:          req.Metadata.ImageHash,
		MetadataHash:       req.Metadata.MetadataHash,
		ArtistName:         req.Metadata.ArtistName,
		Status:             model.StatusSplitComputed,
		Network:            s.network,
	}
	if err := s.db.Create(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// transferStep submits one transferFrom unless its hash is already recorded,
// then blocks until it confirms. The hash is written before the wait so a
// crash mid-wait leaves a resumable trail.
func (s *SettlementOrchestrator) transferStep(ctx context.Context, attempt *model.SettlementAttempt, to common.Address, amount *big.Int, hashField *string, status string, partial bool) error {
	collector := common.HexToAddress(attempt.CollectorAddress)

	if *hashField == "" {
		data, err := chain.PackTransferFrom(collector, to, amount)
		if err != nil {
			return s.stepError(attempt, status, err, partial)
		}

		hash, err := s.sender.Enqueue(ctx, chain.TxRequest{
			To:       s.token,
			Data:     data,
			GasLimit: transferGasLimit,
		})
		if err != nil {
			// Nothing was broadcast; no hash is recorded and the request
			// is retryable as-is.
			return s.stepError(attempt, status, fmt.Errorf("%w: %v", ErrChainSubmission, err), partial)
		}

		*hashField = hash.Hex()
		attempt.Status = status
		if err := s.db.Save(attempt).Error; err != nil {
			return err
		}
	}

	if _, err := s.receipts.WaitMined(ctx, common.HexToHash(*hashField)); err != nil {
		if errors.Is(err, chain.ErrConfirmationTimeout) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The transaction may still land. Keep the hash; the next retry
			// re-checks the chain before doing anything.
			return err
		}
		if errors.Is(err, chain.ErrTransactionReverted) {
			// A reverted transfer can never succeed; drop the hash so a
			// retry resubmits this step.
			*hashField = ""
		}
		return s.stepError(attempt, status, err, partial)
	}

	return nil
}

// mintStep submits the factory call and decodes the minted collection.
func (s *SettlementOrchestrator) mintStep(ctx context.Context, attempt *model.SettlementAttempt, artist, collector common.Address) error {
	if attempt.MintTxHash == "" {
		hash, err := s.mint.Submit(ctx, MintRequest{
			Name:         attempt.ArtworkName,
			ImageHash:    attempt.ImageHash,
			MetadataHash: attempt.MetadataHash,
			Artist:       artist,
			Recipient:    collector,
		})
		if err != nil {
			return s.stepError(attempt, model.StatusArtistSent, fmt.Errorf("%w: %v", ErrChainSubmission, err), true)
		}

		attempt.MintTxHash = hash.Hex()
		if err := s.db.Save(attempt).Error; err != nil {
			return err
		}
	}

	result, err := s.mint.Await(ctx, common.HexToHash(attempt.MintTxHash))
	if err != nil {
		if errors.Is(err, chain.ErrConfirmationTimeout) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, chain.ErrTransactionReverted) {
			attempt.MintTxHash = ""
		}
		return s.stepError(attempt, model.StatusArtistSent, err, true)
	}

	attempt.MintedCollection = result.Collection.Hex()
	attempt.Status = model.StatusMinted
	return s.db.Save(attempt).Error
}

// persistStep hands off to the ledger. On-chain work is done at this point,
// so a ledger failure is still reported as success; the reconciler re-derives
// the missing rows from the attempt.
func (s *SettlementOrchestrator) persistStep(attempt *model.SettlementAttempt) (*SettlementResult, error) {
	sale, nft, err := s.ledger.Record(attempt)
	if err != nil {
		logger.Error("ledger write failed after on-chain success; reconciler will repair",
			zap.String("fingerprint", attempt.Fingerprint),
			zap.Error(err))
		return s.buildResult(attempt, nil, nil), nil
	}

	attempt.Status = model.StatusComplete
	if err := s.db.Save(attempt).Error; err != nil {
		// Rows exist; Record is idempotent, so only log.
		logger.Error("failed to mark attempt complete", zap.String("fingerprint", attempt.Fingerprint), zap.Error(err))
	}

	return s.buildResult(attempt, sale, nft), nil
}

// stepError records the failure on the attempt and wraps it as a partial
// settlement when funds have already moved.
func (s *SettlementOrchestrator) stepError(attempt *model.SettlementAttempt, step string, err error, partial bool) error {
	attempt.LastError = err.Error()
	attempt.Status = model.StatusFailed
	if saveErr := s.db.Save(attempt).Error; saveErr != nil {
		logger.Error("failed to record step error", zap.String("fingerprint", attempt.Fingerprint), zap.Error(saveErr))
	}

	if monitor.Business != nil {
		monitor.Business.SettlementTotal.WithLabelValues(model.StatusFailed).Inc()
	}

	if partial {
		if monitor.Business != nil {
			monitor.Business.PartialSettlementTotal.Inc()
		}
		logger.Error("partial settlement: funds in motion with work still owed",
			zap.String("fingerprint", attempt.Fingerprint),
			zap.String("step", step),
			zap.Error(err))
		return &PartialSettlementError{Fingerprint: attempt.Fingerprint, Step: step, Err: err}
	}
	return err
}

// resultFor reloads the recorded outcome of a complete attempt.
func (s *SettlementOrchestrator) resultFor(attempt *model.SettlementAttempt) (*SettlementResult, error) {
	sale, nft, err := s.ledger.Record(attempt)
	if err != nil {
		return nil, err
	}
	return s.buildResult(attempt, sale, nft), nil
}

func (s *SettlementOrchestrator) buildResult(attempt *model.SettlementAttempt, sale *model.SaleRecord, nft *model.CollectedNFT) *SettlementResult {
	result := &SettlementResult{
		Fingerprint:       attempt.Fingerprint,
		CollectionAddress: attempt.MintedCollection,
		TreasuryTxHash:    attempt.TreasuryTxHash,
		ArtistTxHash:      attempt.ArtistTxHash,
		MintTxHash:        attempt.MintTxHash,
		AmountPaid:        attempt.AmountUSDC.String(),
		TreasuryAmount:    BaseUnitsToUSDC(attempt.TreasuryBaseUnits.BigInt()).String(),
		ArtistAmount:      BaseUnitsToUSDC(attempt.ArtistBaseUnits.BigInt()).String(),
	}
	if sale != nil {
		result.SaleID = sale.ID
	}
	if nft != nil {
		result.NFTID = nft.ID
	}
	return result
}
