package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webInspector/internal/config"
	"webInspector/internal/probe"
	"webInspector/internal/ratelimit"
	"webInspector/internal/server"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inspection API",
		Args:  cobra.NoArgs,
	}
	formatter := config.RegisterServeFlags(cmd.Flags())
	useGroupedHelp(cmd, formatter)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags(), formatter.Groups)
		if err != nil {
			return err
		}
		defer cfg.Close()

		locator, closeLocator, err := newLocator(cfg)
		if err != nil {
			return err
		}
		defer closeLocator()

		gate := ratelimit.NewGate(cfg.RateWindow)
		defer gate.Close()

		srv := server.NewServer(server.Config{
			Inspector: probe.NewInspector(cfg, locator),
			Gate:      gate,
			Self:      newIPAPI(cfg),
			Logger:    cfg.Logger,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg.Logger.Info("starting API server",
			zap.String("listen", cfg.Listen),
			zap.Duration("rate_window", cfg.RateWindow),
		)
		return srv.ListenAndServe(ctx, cfg.Listen, shutdownTimeout)
	}
	return cmd
}
