package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gallery-core/internal/model"
	"gallery-core/pkg/config"
	"gallery-core/pkg/database"
)

var attemptCmd = &cobra.Command{
	Use:   "attempt <fingerprint>",
	Short: "Inspect a settlement attempt",
	Long: `Prints the stored state of one settlement attempt as JSON, including
recorded transaction hashes and the last error. Useful when a collector
reports a stuck purchase.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.Init()

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

		var attempt model.SettlementAttempt
		if err := db.Where("fingerprint = ?", args[0]).First(&attempt).Error; err != nil {
			return fmt.Errorf("load attempt %s: %w", args[0], err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(attempt)
	},
}

func init() {
	rootCmd.AddCommand(attemptCmd)
}
