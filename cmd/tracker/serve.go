package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lei/status-tracker/pkg/tracker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the status matrix over HTTP",
	Long: `Starts the HTTP server. In local mode the tracker also collects builds
every collector.interval; in remote mode it renders another tracker's payload.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	t, err := tracker.New(cfg)
	if err != nil {
		return err
	}
	defer t.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return t.Start(ctx)
}
