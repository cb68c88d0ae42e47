package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gallery-core/internal/chain"
	"gallery-core/internal/event"
	"gallery-core/internal/service"
	"gallery-core/internal/service/mq"
	"gallery-core/pkg/config"
	"gallery-core/pkg/database"
	"gallery-core/pkg/logger"
	"gallery-core/pkg/monitor"
)

// The worker runs the reconcile sweep and audits published sale events
// against the chain. It is deployed separately from the API server so a
// settlement burst never starves the safety net.
func main() {
	config.Init()

	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	monitor.InitBusinessMetrics()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		config.Global.DB.Host,
		config.Global.DB.User,
		config.Global.DB.Password,
		config.Global.DB.Name,
		config.Global.DB.Port,
	)
	db, err := database.ConnectPostgres(dsn)
	if err != nil {
		logger.Fatal("Database connection failed", zap.Error(err))
	}

	rdb, err := database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}

	confirmTimeout := time.Duration(config.Global.Chain.ConfirmTimeout) * time.Second
	gateway, err := chain.Dial(config.Global.Chain.RpcUrl, confirmTimeout)
	if err != nil {
		logger.Fatal("Chain RPC connection failed", zap.Error(err))
	}

	ledger := service.NewLedgerRecorder(db)

	reconciler := service.NewReconcileService(db, rdb, ledger)
	reconciler.Start()
	defer reconciler.Stop()

	var consumer mq.Consumer
	if config.Global.Redis.MQType == "kafka" {
		consumer = mq.NewKafkaConsumer(config.Global.Kafka.Brokers, "gallery_audit_group")
	} else {
		consumer = mq.NewRedisConsumer(rdb, "gallery_audit", "auditor-0")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := consumer.Subscribe(ctx, event.TopicSaleCompleted, func(msg *mq.Message) error {
			return auditSaleEvent(ctx, gateway, msg)
		})
		if err != nil {
			logger.Error("audit consumer stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Reconciler worker shutting down")
}

// auditSaleEvent cross-checks a published sale against chain receipts. A
// mismatch is loud in the logs; it means the durable record and the chain
// disagree and an operator has to look.
func auditSaleEvent(ctx context.Context, gateway *chain.Gateway, msg *mq.Message) error {
	var evt event.SaleCompletedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		logger.Error("unparseable sale event, dropping", zap.String("id", msg.ID), zap.Error(err))
		return nil
	}

	for name, hash := range map[string]string{
		"treasury": evt.TreasuryTxHash,
		"artist":   evt.ArtistTxHash,
		"mint":     evt.MintTxHash,
	} {
		if hash == "" {
			logger.Error("sale event missing tx hash",
				zap.String("fingerprint", evt.Fingerprint),
				zap.String("step", name))
			continue
		}

		receipt, err := gateway.Receipt(ctx, common.HexToHash(hash))
		if err != nil {
			return fmt.Errorf("receipt lookup for %s: %w", name, err)
		}
		if receipt == nil {
			logger.Error("sale event references unknown transaction",
				zap.String("fingerprint", evt.Fingerprint),
				zap.String("step", name),
				zap.String("tx", hash))
			continue
		}
		if receipt.Status == 0 {
			logger.Error("sale event references reverted transaction",
				zap.String("fingerprint", evt.Fingerprint),
				zap.String("step", name),
				zap.String("tx", hash))
		}
	}

	logger.Info("sale event audited", zap.String("fingerprint", evt.Fingerprint))
	return nil
}
