package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tabscout/tabscout/internal/config"
	"github.com/tabscout/tabscout/internal/fetcher"
	"github.com/tabscout/tabscout/internal/parser"
	"github.com/tabscout/tabscout/internal/pipeline"
	"github.com/tabscout/tabscout/pkg/models"
)

var (
	ingestJudges     []string
	ingestNames      []string
	ingestTournament string
	ingestSource     string
	ingestNoArchive  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch and store judge records",
	Long: `Fetch judge paradigm pages, parse their judging records, and merge
them into the store. Identifiers come from --judge flags, from a tournament
judge list, or from the sources in the config file.

Examples:
  # Ingest specific judges
  tabscout ingest --judge 12345 --judge 67890

  # Look a judge up by name via the site's paradigm search
  tabscout ingest --name "Alice Smith"

  # Discover judges from a tournament judge list and ingest them
  tabscout ingest --tournament https://www.tabroom.com/index/tourn/judges.mhtml?tourn_id=999

  # Ingest a configured source by name
  tabscout ingest --source glenbrooks

  # Ingest all configured sources
  tabscout ingest`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringArrayVar(&ingestJudges, "judge", nil, "judge identifier to ingest (repeatable)")
	ingestCmd.Flags().StringArrayVar(&ingestNames, "name", nil, "judge full name to look up and ingest (repeatable)")
	ingestCmd.Flags().StringVar(&ingestTournament, "tournament", "", "tournament judge-list URL to discover judges from")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source name from config to ingest")
	ingestCmd.Flags().BoolVar(&ingestNoArchive, "no-archive", false, "skip archiving raw pages for this run")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("ingest command starting", "judges", len(ingestJudges), "names", len(ingestNames), "tournament", ingestTournament)

	// Session first: name search goes through the authenticated client.
	client, teardown, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer teardown()

	f := newFetcher(cfg, client)

	identifiers, err := collectIdentifiers(ctx, cfg, f)
	if err != nil {
		return err
	}
	if len(identifiers) == 0 {
		return fmt.Errorf("nothing to ingest - pass --judge, --name or --tournament, or configure sources")
	}

	storeClient, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	if ingestNoArchive {
		cfg.Archive.Enabled = false
	}
	archiveClient, err := newArchive(ctx, cfg)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Config{
		Workers:        cfg.Fetcher.Workers,
		MetricsEnabled: cfg.Metrics.Enabled,
		SiteHost:       siteHost(cfg),
	}, f, parser.New(), storeClient, archiveClient)

	fmt.Printf("Ingesting %d judges\n", len(identifiers))

	run, err := p.Run(ctx, identifiers)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printRun(run)
	return nil
}

// collectIdentifiers gathers judge IDs from flags and configured sources.
// Names are resolved through the paradigm search and a tournament URL is
// crawled for judge links, both before the pipeline starts.
func collectIdentifiers(ctx context.Context, cfg config.Config, f *fetcher.Fetcher) ([]string, error) {
	seen := make(map[string]bool)
	var identifiers []string

	add := func(ids ...string) {
		for _, id := range ids {
			if id != "" && !seen[id] {
				seen[id] = true
				identifiers = append(identifiers, id)
			}
		}
	}

	add(ingestJudges...)

	for _, name := range ingestNames {
		id, err := f.SearchJudge(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("looking up judge %q: %w", name, err)
		}
		fmt.Printf("Resolved %q to judge %s\n", name, id)
		add(id)
	}

	discover := func(listURL string) error {
		ids, err := fetcher.Discover(ctx, fetcher.DiscoverConfig{
			UserAgent: cfg.Site.UserAgent,
			Delay:     cfg.Fetcher.Delay,
			Timeout:   cfg.Fetcher.Timeout,
		}, listURL)
		if err != nil {
			return fmt.Errorf("discovering judges from %s: %w", listURL, err)
		}
		fmt.Printf("Discovered %d judges from %s\n", len(ids), listURL)
		add(ids...)
		return nil
	}

	if ingestTournament != "" {
		if err := discover(ingestTournament); err != nil {
			return nil, err
		}
	}

	// No explicit flags: fall back to configured sources.
	if len(ingestJudges) == 0 && len(ingestNames) == 0 && ingestTournament == "" {
		matched := false
		for _, source := range cfg.Sources {
			if ingestSource != "" && source.Name != ingestSource {
				continue
			}
			matched = true
			add(source.Judges...)
			if source.Tournament != "" {
				if err := discover(source.Tournament); err != nil {
					return nil, err
				}
			}
		}
		if ingestSource != "" && !matched {
			return nil, fmt.Errorf("source %q not found in config", ingestSource)
		}
	}

	sort.Strings(identifiers)
	return identifiers, nil
}

func printRun(run *models.IngestRun) {
	fmt.Printf("\nRun %s complete:\n", run.ID)
	fmt.Printf("  Added: %d\n", run.Added)
	fmt.Printf("  Updated: %d\n", run.Updated)
	fmt.Printf("  Unchanged: %d\n", run.Unchanged)
	fmt.Printf("  Duration: %v\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	if run.Failed > 0 {
		fmt.Printf("  Failed: %d\n", run.Failed)
		for _, f := range run.Failures {
			fmt.Printf("    - %s (%s): %s\n", f.Identifier, f.Stage, f.Message)
		}
	}
}
