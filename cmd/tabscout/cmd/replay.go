package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tabscout/tabscout/internal/parser"
	"github.com/tabscout/tabscout/internal/pipeline"
)

var replayPrefix string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-parse archived pages from a previous run",
	Long: `Re-run parse and merge over raw pages archived by an earlier ingest,
without fetching anything. Useful after a parser fix: the fix applies to
pages that were captured before it existed.

Examples:
  # Replay a specific archived run by prefix
  tabscout replay --prefix runs/www.tabroom.com/2026-08-20T10-00-00-abc123`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVar(&replayPrefix, "prefix", "", "archive prefix to replay (required)")
	replayCmd.MarkFlagRequired("prefix")
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("replay command starting", "prefix", replayPrefix)

	if !cfg.Archive.Enabled {
		return fmt.Errorf("archive not configured - check config file")
	}

	archiveClient, err := newArchive(ctx, cfg)
	if err != nil {
		return err
	}

	storeClient, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Config{
		Workers:        cfg.Fetcher.Workers,
		MetricsEnabled: cfg.Metrics.Enabled,
		SiteHost:       siteHost(cfg),
	}, newFetcher(cfg, nil), parser.New(), storeClient, archiveClient)

	fmt.Printf("Replaying: %s\n", replayPrefix)

	run, err := p.Replay(ctx, replayPrefix)
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	printRun(run)
	return nil
}
