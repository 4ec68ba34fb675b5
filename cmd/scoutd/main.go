// Scoutd answers fantasy-basketball questions from a local note corpus.
//
// It runs a two-stage pipeline: vector similarity search retrieves candidate
// notes from an embedding index, then a cross-encoder reranks them for
// relevance to the question. When the reranker is unavailable the results
// come back in retrieval order instead of failing.
//
// Usage:
//
//	# Load a corpus
//	scoutd ingest players.jsonl --collection players
//
//	# Ask a question
//	scoutd search "which centers anchor a punt assists build" --collection players
//
//	# Inspect the index
//	scoutd collections
//	scoutd status
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// configPath is shared by all subcommands via the persistent --config flag.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "scoutd",
	Short: "Two-stage retrieval over fantasy basketball notes",
	Long: `scoutd searches a corpus of player notes, strategy articles, and trade
analyses. Vector similarity search retrieves candidates cheaply, then a
cross-encoder reranks them for relevance to the question. A reranker outage
degrades searches to retrieval order instead of failing them.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/scoutd/config.yaml)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
