package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gallery-core/internal/model"
	"gallery-core/pkg/logger"
	"gallery-core/pkg/monitor"
	"gallery-core/pkg/utils/lock"
)

// staleAfter is how long an attempt may sit mid-settlement before the
// reconciler treats it as stuck rather than in flight.
const staleAfter = 10 * time.Minute

// ReconcileService is the safety net behind the saga. On a schedule it
// repairs attempts whose on-chain work finished but whose ledger write was
// lost, and surfaces attempts stuck after funds moved.
type ReconcileService struct {
	cron   *cron.Cron
	db     *gorm.DB
	redis  *redis.Client
	ledger *LedgerRecorder
}

func NewReconcileService(db *gorm.DB, rdb *redis.Client, ledger *LedgerRecorder) *ReconcileService {
	return &ReconcileService{
		cron:   cron.New(),
		db:     db,
		redis:  rdb,
		ledger: ledger,
	}
}

func (s *ReconcileService) Start() {
	_, _ = s.cron.AddFunc("@every 1m", s.Run)

	s.cron.Start()
	logger.Info("reconcile service started")
}

func (s *ReconcileService) Stop() {
	s.cron.Stop()
	logger.Info("reconcile service stopped")
}

// Run executes one reconcile pass under a cluster-wide lock so only one node
// sweeps at a time. Exposed for the CLI and the worker to trigger directly.
func (s *ReconcileService) Run() {
	ctx := context.Background()
	lockKey := "cron:reconcile"

	locker := lock.NewRedisLock(s.redis)
	locked, err := locker.Acquire(ctx, lockKey, 30*time.Second)
	if err != nil || !locked {
		logger.Debug("reconcile pass skipped, another node holds the lock")
		return
	}
	defer locker.Release(ctx, lockKey)

	s.repairMintedAttempts()
	s.flagStuckAttempts()
}

// repairMintedAttempts re-derives the ledger rows for attempts whose mint
// confirmed but whose persistence step was lost. Record is idempotent on the
// fingerprint, so repairing twice is harmless.
func (s *ReconcileService) repairMintedAttempts() {
	var attempts []model.SettlementAttempt
	if err := s.db.Where("status = ?", model.StatusMinted).Limit(100).Find(&attempts).Error; err != nil {
		logger.Error("reconcile query failed", zap.Error(err))
		return
	}

	for i := range attempts {
		attempt := &attempts[i]

		sale, nft, err := s.ledger.Record(attempt)
		if err != nil {
			logger.Error("reconcile repair failed",
				zap.String("fingerprint", attempt.Fingerprint),
				zap.Error(err))
			continue
		}

		attempt.Status = model.StatusComplete
		if err := s.db.Save(attempt).Error; err != nil {
			logger.Error("reconcile status update failed",
				zap.String("fingerprint", attempt.Fingerprint),
				zap.Error(err))
			continue
		}

		if monitor.Business != nil {
			monitor.Business.ReconcilerRepairsTotal.Inc()
		}
		logger.Info("reconciled settlement ledger",
			zap.String("fingerprint", attempt.Fingerprint),
			zap.Uint64("sale_id", sale.ID),
			zap.Uint64("nft_id", nft.ID))
	}
}

// flagStuckAttempts surfaces attempts where collector funds moved but the
// saga has not progressed. These need an operator; the reconciler never
// resubmits transactions on its own.
func (s *ReconcileService) flagStuckAttempts() {
	cutoff := time.Now().Add(-staleAfter)

	var attempts []model.SettlementAttempt
	err := s.db.
		Where("status IN ?", []string{model.StatusTreasurySent, model.StatusArtistSent}).
		Where("updated_at < ?", cutoff).
		Limit(100).
		Find(&attempts).Error
	if err != nil {
		logger.Error("stuck attempt query failed", zap.Error(err))
		return
	}

	for _, attempt := range attempts {
		logger.Error("settlement stuck after funds moved",
			zap.String("fingerprint", attempt.Fingerprint),
			zap.String("status", attempt.Status),
			zap.String("treasury_tx", attempt.TreasuryTxHash),
			zap.String("artist_tx", attempt.ArtistTxHash),
			zap.Time("updated_at", attempt.UpdatedAt))
	}
}
