package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fastbreaklabs/scoutd/internal/ingest"
)

var (
	ingestCollection string
	ingestBatchSize  int
	ingestRate       float64
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a JSONL corpus into a collection",
	Long: `Ingest reads a JSONL file (one document per line) and adds its documents to
a collection in batches. Lines that cannot be ingested are skipped and
counted; a failing vector store aborts the run.

Each line must carry an "id" and non-empty "text"; "metadata" and a
pre-computed "embedding" are optional:

  {"id": "jokic-2026-01", "text": "Jokic anchors every punt-FT build...", "metadata": {"position": "C"}}

Examples:
  scoutd ingest players.jsonl --collection players
  scoutd ingest trades.jsonl -c trades --batch-size 128 --rate 50`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "target collection (required)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "documents per store write (0 = config default)")
	ingestCmd.Flags().Float64Var(&ingestRate, "rate", 0, "max batches per second, 0 = unpaced")
	_ = ingestCmd.MarkFlagRequired("collection")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	opts := ingest.Options{
		Collection:  ingestCollection,
		BatchSize:   app.cfg.Ingest.BatchSize,
		MaxDocBytes: app.cfg.Ingest.MaxDocBytes,
		RatePerSec:  app.cfg.Ingest.RatePerSec,
	}
	if ingestBatchSize > 0 {
		opts.BatchSize = ingestBatchSize
	}
	if ingestRate > 0 {
		opts.RatePerSec = ingestRate
	}

	result, err := app.ingester.IngestFile(ctx, args[0], opts)
	if err != nil {
		return err
	}

	printIngestResult(cmd.OutOrStdout(), result)
	return nil
}

func printIngestResult(w io.Writer, result *ingest.Result) {
	fmt.Fprintf(w, "Ingested %d documents into %q (%d batches, %d lines skipped)\n",
		result.DocumentsIngested, result.Collection, result.Batches, result.LinesSkipped)
}
