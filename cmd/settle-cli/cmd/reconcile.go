package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gallery-core/internal/service"
	"gallery-core/pkg/config"
	"gallery-core/pkg/database"
	"gallery-core/pkg/logger"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconcile pass now",
	Long: `Repairs settlements whose on-chain work finished but whose ledger
write was lost, without waiting for the scheduled sweep. Safe to run while
the service is up; the pass takes the same cluster lock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Init()
		logger.Init(config.Global.App.Env)
		defer logger.Sync()

		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			config.Global.DB.Host,
			config.Global.DB.User,
			config.Global.DB.Password,
			config.Global.DB.Name,
			config.Global.DB.Port,
		)
		db, err := database.ConnectPostgres(dsn)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}

		rdb, err := database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}

		reconciler := service.NewReconcileService(db, rdb, service.NewLedgerRecorder(db))
		reconciler.Run()

		fmt.Println("Reconcile pass finished")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
