package footballkg

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/soundprediction/footballkg"
	"github.com/soundprediction/footballkg/pkg/checkpoint"
	"github.com/soundprediction/footballkg/pkg/dataset"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a player statistics file into the graph",
	Long: `Load a CSV or Parquet file of player seasons into Neo4j.

Each row upserts a PLAYER (with a name embedding), its CLUB, LEAGUE and
COUNTRY, and links them PLAYER-PLAYS_FOR-CLUB-PART_OF-LEAGUE-IN_COUNTRY-COUNTRY.
Running the same file twice leaves the graph unchanged. Rows that fail are
reported and skipped; the run always completes.

Progress is checkpointed; an interrupted run over the same file resumes
from the last saved row unless --no-checkpoint is given.`,
	RunE: runIngest,
}

var (
	ingestFile            string
	ingestSkipConstraints bool
	ingestSkipIndex       bool
	ingestNoCheckpoint    bool
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "CSV or Parquet file to ingest")
	ingestCmd.Flags().BoolVar(&ingestSkipConstraints, "skip-constraints", false, "do not declare uniqueness constraints")
	ingestCmd.Flags().BoolVar(&ingestSkipIndex, "skip-index", false, "do not declare the player vector index")
	ingestCmd.Flags().BoolVar(&ingestNoCheckpoint, "no-checkpoint", false, "start from the first row and do not record progress")
	ingestCmd.MarkFlagRequired("file")
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rows, parseErrs, err := dataset.ReadFile(ingestFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ingestFile, err)
	}
	a.logger.Info("Dataset loaded", "file", ingestFile, "rows", len(rows), "rejected", len(parseErrs))

	d, err := a.driver(ctx)
	if err != nil {
		return err
	}
	e, err := a.embedder()
	if err != nil {
		return err
	}

	opts := footballkg.NewIngestOptions()
	opts.Constraints = a.cfg.Ingest.Constraints && !ingestSkipConstraints
	opts.VectorIndex = a.cfg.Ingest.VectorIndex && !ingestSkipIndex
	if a.cfg.Ingest.IndexName != "" {
		opts.IndexName = a.cfg.Ingest.IndexName
	}
	if a.cfg.Embedding.Dimensions > 0 {
		opts.Dimensions = a.cfg.Embedding.Dimensions
	}
	opts.Metrics = a.metrics
	if !ingestNoCheckpoint {
		manager, err := checkpoint.NewManager(a.cfg.Ingest.CheckpointDir)
		if err != nil {
			a.logger.Warn("Checkpointing disabled", "error", err)
		} else {
			opts.Checkpoints = manager
			opts.Source = ingestFile
			opts.CheckpointEvery = a.cfg.Ingest.CheckpointEvery
		}
	}

	report := footballkg.NewIngestor(d, e, opts, a.logger).Run(ctx, rows)
	report.AddParseErrors(parseErrs)
	printReport(report)

	if report.Err != nil {
		return report.Err
	}
	if report.Rows > 0 && report.Succeeded == 0 {
		return errors.New("no rows were ingested")
	}
	return nil
}

func printReport(r *footballkg.Report) {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	fmt.Printf("Run %s: %d rows in %s\n", r.RunID, r.Rows, r.Duration.Round(time.Millisecond))
	if r.Resumed {
		fmt.Printf("  resumed at row %d\n", r.StartRow)
	}
	fmt.Printf("  succeeded: %s\n", ok(r.Succeeded))
	if r.Failed == 0 {
		return
	}
	fmt.Printf("  failed:    %s\n", bad(r.Failed))
	for _, f := range r.Failures {
		if f.Player != "" {
			fmt.Printf("    row %d (%s): %v\n", f.Row, f.Player, f.Err)
		} else {
			fmt.Printf("    row %d: %v\n", f.Row, f.Err)
		}
	}
}
