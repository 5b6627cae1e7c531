package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rasoi-group/market-intel/internal/store"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove duplicate price rows, keeping the newest per ingredient",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		removed, err := st.Deduplicate(ctx)
		if err != nil {
			return eris.Wrap(err, "deduplicate")
		}

		zap.L().Info("deduplication complete", zap.Int64("removed", removed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}
