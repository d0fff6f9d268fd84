package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var removeJudge string

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete a judge record from the store",
	Long: `Delete one judge record by identifier. Ingest never deletes records,
so this is the only way a record leaves the store.

Examples:
  tabscout remove --judge 12345`,
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().StringVar(&removeJudge, "judge", "", "judge identifier to remove (required)")
	removeCmd.MarkFlagRequired("judge")
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	storeClient, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	if err := storeClient.Remove(ctx, removeJudge); err != nil {
		return fmt.Errorf("removing judge %s: %w", removeJudge, err)
	}

	fmt.Printf("Removed judge %s\n", removeJudge)
	return nil
}
