package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gallery-core/internal/model"
	"gallery-core/internal/service/mq"
	"gallery-core/pkg/logger"
	"gallery-core/pkg/monitor"
)

// RelayService moves committed outbox rows to the message queue. Delivery is
// at-least-once: a row is only marked SENT after the broker accepts it, so
// consumers must be idempotent on the message key.
type RelayService struct {
	db       *gorm.DB
	producer mq.Producer
	interval time.Duration
}

func NewRelayService(db *gorm.DB, producer mq.Producer) *RelayService {
	return &RelayService{
		db:       db,
		producer: producer,
		interval: 500 * time.Millisecond,
	}
}

func (s *RelayService) Start(ctx context.Context) {
	logger.Info("outbox relay started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *RelayService) processPendingMessages(ctx context.Context) {
	// Batches of 50 keep a backlog from loading the whole table at once.
	var messages []model.OutboxMessage
	if err := s.db.Where("status = ?", "PENDING").Order("id").Limit(50).Find(&messages).Error; err != nil {
		logger.Error("outbox query failed", zap.Error(err))
		return
	}

	if len(messages) == 0 {
		return
	}

	for _, msg := range messages {
		if err := s.producer.Publish(ctx, msg.Topic, msg.Key, msg.Payload); err != nil {
			logger.Error("outbox publish failed",
				zap.Uint64("id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.Error(err))
			continue
		}

		// Marking SENT only after a successful publish means a crash here
		// redelivers the message next tick.
		if err := s.db.Model(&msg).Update("status", "SENT").Error; err != nil {
			logger.Error("outbox status update failed", zap.Uint64("id", msg.ID), zap.Error(err))
			continue
		}

		if monitor.Business != nil {
			monitor.Business.OutboxRelayedTotal.Inc()
		}
	}
}
