package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rasoi-group/market-intel/internal/scheduler"
)

var syncFallback bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if syncFallback {
			zap.L().Info("writing synthetic fallback table")
			if err := env.Scheduler.ForceFallback(ctx); err != nil {
				return eris.Wrap(err, "force fallback")
			}
		} else if err := env.Scheduler.RunOnce(ctx); err != nil {
			return eris.Wrap(err, "run reconciliation")
		}

		out := env.Scheduler.LastOutcome()
		zap.L().Info("sync complete",
			zap.String("state", string(out.State)),
			zap.Int64("records", out.Records),
		)
		if out.State == scheduler.StateFallbackUpserted && !syncFallback {
			zap.L().Warn("live feed was unavailable, table holds synthetic prices")
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncFallback, "fallback", false, "skip the live feed and write synthetic prices")
	rootCmd.AddCommand(syncCmd)
}
