package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/duetml/duet/pkg/log"
	"github.com/duetml/duet/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Duet services",
	Long:  `Initializes storage, probes the memory store and starts the worker pool and chat surface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting duet")

		services := NewServices(ctx)

		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("duet has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
