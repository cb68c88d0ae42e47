package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "settle-cli",
	Short: "Operator tooling for the gallery settlement service",
	Long: `Operator tooling for the gallery settlement service.
Manages the signer keystore, inspects settlement attempts and triggers
reconcile passes without going through the HTTP API.`,
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
