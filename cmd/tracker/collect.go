package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lei/status-tracker/internal/config"
	"github.com/lei/status-tracker/internal/store"
	"github.com/lei/status-tracker/pkg/logger"
	"github.com/lei/status-tracker/pkg/tracker"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection pass into the configured store",
	Long: `Fetches the latest builds and their job logs from the provider and
records the parsed test results. Meant to run from cron against a redis
store shared with "tracker serve".`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Source.Mode != config.ModeLocal {
		return fmt.Errorf("collect requires source.mode %q, got %q", config.ModeLocal, cfg.Source.Mode)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if cfg.Store.Driver == store.DriverMemory {
		log.Warn("collecting into the memory store, results are discarded on exit")
	}

	t, err := tracker.New(cfg)
	if err != nil {
		return err
	}
	defer t.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	summary, err := t.Service().Collect(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
