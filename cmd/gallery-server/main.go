package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"gallery-core/internal/chain"
	"gallery-core/internal/handler"
	"gallery-core/internal/model"
	"gallery-core/internal/server"
	"gallery-core/internal/service"
	"gallery-core/internal/service/mq"
	"gallery-core/pkg/config"
	"gallery-core/pkg/database"
	"gallery-core/pkg/logger"
	"gallery-core/pkg/monitor"
	"gallery-core/pkg/signer"
	"gallery-core/pkg/utils/lock"
)

func main() {
	// 0. Config
	config.Init()

	// 1. Logger
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	// 2. Metrics
	monitor.InitBusinessMetrics()

	// 3. Database
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

	// Schema management in production goes through the migrate binary;
	// AutoMigrate is a development convenience only.
	if config.Global.App.Env == "development" {
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			logger.Fatal("AutoMigrate failed", zap.Error(err))
		}
	}

	// 4. Redis
	rdb, err := database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}

	// 5. Chain gateway
	confirmTimeout := time.Duration(config.Global.Chain.ConfirmTimeout) * time.Second
	gateway, err := chain.Dial(config.Global.Chain.RpcUrl, confirmTimeout)
	if err != nil {
		logger.Fatal("Chain RPC connection failed", zap.Error(err))
	}

	// 6. Signing key. The encrypted keystore wins over a plaintext mnemonic;
	// the latter exists for development only.
	key, err := signer.Load(
		config.Global.Signer.KeystorePath,
		config.Global.Signer.Password,
		config.Global.Signer.Mnemonic,
	)
	if err != nil {
		logger.Fatal("Signing key load failed. Run 'settle-cli keystore init' first", zap.Error(err))
	}
	logger.Info("Signing key loaded", zap.String("address", key.Address.Hex()))

	chainID, err := gateway.ChainID(context.Background())
	if err != nil {
		logger.Fatal("Chain ID query failed", zap.Error(err))
	}
	if chainID.Int64() != config.Global.Chain.ChainID {
		logger.Fatal("Chain ID mismatch between RPC and config",
			zap.Int64("rpc", chainID.Int64()),
			zap.Int64("config", config.Global.Chain.ChainID))
	}

	// 7. Signer queue: the single goroutine that owns the key's nonce.
	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	signerQueue := chain.NewSignerQueue(gateway, key.PrivateKey, key.Address, chainID)
	signerQueue.Start(queueCtx)

	// 8. Message queue
	var producer mq.Producer
	if config.Global.Redis.MQType == "kafka" {
		logger.Info("Using Kafka as message queue")
		producer = mq.NewKafkaProducer(config.Global.Kafka.Brokers)
	} else {
		logger.Info("Using Redis Streams as message queue")
		producer = mq.NewRedisProducer(rdb)
	}
	defer producer.Close()

	// 9. Services
	token := common.HexToAddress(config.Global.Chain.USDCAddress)
	factory := common.HexToAddress(config.Global.Chain.FactoryAddress)
	treasury := common.HexToAddress(config.Global.Chain.TreasuryAddress)

	validator := service.NewPaymentValidator(gateway, token)
	mintExecutor := service.NewMintExecutor(signerQueue, gateway, factory, config.Global.Chain.RoyaltyBps)
	ledger := service.NewLedgerRecorder(db)
	locks := lock.NewRedisLock(rdb)

	orchestrator := service.NewSettlementOrchestrator(
		db, validator, signerQueue, gateway, mintExecutor, ledger, locks,
		token, treasury, config.Global.Chain.Network,
	)

	// 10. Outbox relay
	relay := service.NewRelayService(db, producer)
	go relay.Start(queueCtx)

	// 11. Reconciler safety net
	reconciler := service.NewReconcileService(db, rdb, ledger)
	reconciler.Start()
	defer reconciler.Stop()

	// 12. HTTP
	r := server.NewHTTPRouter(
		handler.NewCollectHandler(orchestrator),
		handler.NewSettlementHandler(db),
	)

	app := server.New(server.Config{HttpPort: config.Global.App.HttpPort}, r)
	app.Run()

	// 13. Cleanup
	logger.Info("Closing connections...")
	stopQueue()
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	rdb.Close()
	logger.Info("Shutdown complete")
}
