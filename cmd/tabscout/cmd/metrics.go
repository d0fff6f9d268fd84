package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tabscout/tabscout/internal/metrics"
	"github.com/tabscout/tabscout/pkg/models"
)

var (
	metricsJudge string
	metricsTeam  string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show derived metrics for stored judges",
	Long: `Print rounds judged, aff win rate, and squirrel rate for judges in
the store. Metrics are recomputed from the stored ballots, so the output
reflects the full accumulated history.

With --team, metrics are restricted to rounds involving that school and win
rates are reported from the team's perspective.

Examples:
  # Metrics for every stored judge
  tabscout metrics

  # Metrics for one judge
  tabscout metrics --judge 12345

  # How each judge's rounds went for one school
  tabscout metrics --team "Lincoln"`,
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().StringVar(&metricsJudge, "judge", "", "limit output to one judge identifier")
	metricsCmd.Flags().StringVar(&metricsTeam, "team", "", "restrict metrics to rounds involving this school")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	storeClient, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	var judges []models.Judge
	if metricsJudge != "" {
		judge, err := storeClient.Get(ctx, metricsJudge)
		if err != nil {
			return fmt.Errorf("judge %s: %w", metricsJudge, err)
		}
		judges = append(judges, *judge)
	} else {
		judges, err = storeClient.List(ctx)
		if err != nil {
			return fmt.Errorf("listing judges: %w", err)
		}
	}

	if len(judges) == 0 {
		fmt.Println("No judges in store")
		return nil
	}

	for _, judge := range judges {
		if metricsTeam != "" {
			tm := metrics.ComputeTeam(judge.Ballots, metricsTeam)
			if tm.RoundsJudged == 0 {
				continue
			}
			fmt.Printf("%s  %s\n", judge.ID, judge.Name)
			fmt.Printf("  Rounds with %s: %d\n", metricsTeam, tm.RoundsJudged)
			fmt.Printf("  Aff rounds: %d, aff win rate: %.1f%%\n", tm.AffRounds, tm.AffWinRate)
			fmt.Printf("  Neg rounds: %d, neg win rate: %.1f%%\n", tm.NegRounds, tm.NegWinRate)
			fmt.Printf("  Panel rounds: %d, squirrel rate: %.1f%%\n", tm.PanelRounds, tm.SquirrelRate)
			continue
		}

		m := metrics.Compute(judge.Ballots)
		fmt.Printf("%s  %s\n", judge.ID, judge.Name)
		fmt.Printf("  Rounds judged: %d\n", m.RoundsJudged)
		fmt.Printf("  Aff win rate: %.1f%%\n", m.AffWinRate)
		fmt.Printf("  Panel rounds: %d, squirrel rate: %.1f%%\n", m.PanelRounds, m.SquirrelRate)
	}

	return nil
}
