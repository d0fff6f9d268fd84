package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tabscout/tabscout/pkg/models"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump stored records for downstream analysis",
	Long: `Export the full contents of the store. NDJSON emits one judge record
per line; CSV flattens the records to one row per ballot.

Examples:
  # NDJSON to stdout
  tabscout export

  # CSV to a file
  tabscout export --format csv --out judges.csv`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "ndjson", "output format: ndjson or csv")
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	storeClient, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	judges, err := storeClient.List(ctx)
	if err != nil {
		return fmt.Errorf("listing judges: %w", err)
	}

	out := io.Writer(os.Stdout)
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportOutput, err)
		}
		defer f.Close()
		out = f
	}

	switch exportFormat {
	case "ndjson":
		err = exportNDJSON(out, judges)
	case "csv":
		err = exportCSV(out, judges)
	default:
		return fmt.Errorf("unknown format %q (want ndjson or csv)", exportFormat)
	}
	if err != nil {
		return err
	}

	if exportOutput != "" {
		fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", len(judges), exportOutput)
	}
	return nil
}

func exportNDJSON(w io.Writer, judges []models.Judge) error {
	enc := json.NewEncoder(w)
	for _, judge := range judges {
		if err := enc.Encode(judge); err != nil {
			return fmt.Errorf("encoding record %s: %w", judge.ID, err)
		}
	}
	return nil
}

// exportCSV writes one row per ballot. Judges without ballots still get a
// row, so the export always covers every stored record.
func exportCSV(w io.Writer, judges []models.Judge) error {
	cw := csv.NewWriter(w)
	header := []string{
		"judge_id", "name", "school",
		"tournament", "level", "date", "event", "round", "aff", "neg", "vote", "result",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, judge := range judges {
		if len(judge.Ballots) == 0 {
			row := append([]string{judge.ID, judge.Name, judge.School}, make([]string, 9)...)
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing record %s: %w", judge.ID, err)
			}
			continue
		}
		for _, b := range judge.Ballots {
			row := []string{
				judge.ID, judge.Name, judge.School,
				b.Tournament, b.Level, b.Date, b.Event, b.Round, b.Aff, b.Neg, b.Vote, b.Result,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing record %s: %w", judge.ID, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
