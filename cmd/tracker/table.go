package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lei/status-tracker/internal/config"
	"github.com/lei/status-tracker/pkg/tracker"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the ranked status matrix as markdown",
	Long: `Renders the current status matrix as a markdown table, most failing
tests first. Use --collect to run a collection pass first when the store
is empty, e.g. with the memory store.`,
	RunE: runTable,
}

var (
	tableOutput  string
	tableCollect bool
	tableSearch  string
	tableFailing bool
	tableTop     int
)

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.Flags().StringVar(&tableOutput, "output", "",
		"Output file path (default: stdout)")
	tableCmd.Flags().BoolVar(&tableCollect, "collect", false,
		"Run a collection pass before rendering (local mode only)")
	tableCmd.Flags().StringVar(&tableSearch, "search", "",
		"Only show tests whose name contains this text")
	tableCmd.Flags().BoolVar(&tableFailing, "failing", false,
		"Only show tests with at least one failure")
	tableCmd.Flags().IntVar(&tableTop, "top", 0,
		"Show at most this many rows (0: all)")
}

func runTable(cmd *cobra.Command, _ []string) error {
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

	if tableCollect {
		if cfg.Source.Mode != config.ModeLocal {
			return fmt.Errorf("--collect requires source.mode %q", config.ModeLocal)
		}
		if _, err := t.Service().Collect(ctx); err != nil {
			return err
		}
	}

	table, err := t.Service().Table(ctx)
	if err != nil {
		return err
	}

	md := renderMarkdown(table, markdownOptions{
		Search:      tableSearch,
		FailingOnly: tableFailing,
		Top:         tableTop,
	})

	if tableOutput == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), md)
		return err
	}

	if err := os.WriteFile(tableOutput, []byte(md), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
