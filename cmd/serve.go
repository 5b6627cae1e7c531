package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rasoi-group/market-intel/internal/config"
	"github.com/rasoi-group/market-intel/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the price intelligence HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if cfg.Scheduler.Enabled {
			go env.Scheduler.Start(ctx)
		} else {
			zap.L().Info("scheduler disabled, serving stored prices only")
		}

		srv := server.New(env.Store, env.Cache, env.Resolver, env.Analyzer, env.Scheduler)

		serverCfg := cfg.Server
		if servePort != 0 {
			serverCfg = config.ServerConfig{Port: servePort}
		}

		if err := srv.Run(ctx, serverCfg); err != nil {
			return eris.Wrap(err, "server run")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
