package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/duetml/duet/internal/config"
	"github.com/duetml/duet/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "duet",
	Short: "Duet — a memory-backed two-persona companion",
	Long:  `Duet runs two conversational personas over durable vector memory, with mood tracking, concern follow-ups and style-aware image generation.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
