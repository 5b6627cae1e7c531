package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rasoi-group/market-intel/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "market-intel",
	Short: "Ingredient market intelligence engine",
	Long:  "Reconciles government mandi wholesale prices with quick-commerce catalog snapshots into a canonical best-price table, served over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
