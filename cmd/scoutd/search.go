package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastbreaklabs/scoutd/internal/collections"
	"github.com/fastbreaklabs/scoutd/internal/retrieval"
)

var (
	searchCollection string
	searchInitialK   int
	searchFinalK     int
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a collection and rerank the results",
	Long: `Search retrieves candidate notes by vector similarity, reranks them with a
cross-encoder, and prints the top results. If the reranker is unavailable the
results are printed in retrieval order with a note.

Examples:
  scoutd search "punt assists centers with elite stocks"
  scoutd search "sell high before the deadline" --collection trades --final-k 3
  scoutd search "streaming pickups week 18" -c players --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCollection, "collection", "c", collections.Players, "collection to search")
	searchCmd.Flags().IntVar(&searchInitialK, "initial-k", 0, "candidates to retrieve before reranking (0 = config default)")
	searchCmd.Flags().IntVar(&searchFinalK, "final-k", 0, "results to return after reranking (0 = config default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	results, err := app.searcher.Search(ctx, retrieval.Request{
		Query:      args[0],
		Collection: searchCollection,
		InitialK:   searchInitialK,
		FinalK:     searchFinalK,
	})
	if err != nil {
		return err
	}

	if searchJSON {
		return printSearchJSON(cmd.OutOrStdout(), results)
	}
	printSearchResults(cmd.OutOrStdout(), results)
	return nil
}

// searchOutput is the JSON shape emitted by --json, one entry per result.
type searchOutput struct {
	Rank           int                    `json:"rank"`
	DocumentID     string                 `json:"document_id"`
	Text           string                 `json:"text"`
	Score          float32                `json:"score"`
	RetrievalScore float32                `json:"retrieval_score"`
	RetrievalRank  int                    `json:"retrieval_rank"`
	Reranked       bool                   `json:"reranked"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

func printSearchJSON(w io.Writer, results []retrieval.Result) error {
	out := make([]searchOutput, 0, len(results))
	for i, r := range results {
		out = append(out, searchOutput{
			Rank:           i + 1,
			DocumentID:     r.DocumentID,
			Text:           r.Text,
			Score:          r.Score,
			RetrievalScore: r.RetrievalScore,
			RetrievalRank:  r.RetrievalRank,
			Reranked:       r.Reranked,
			Metadata:       r.Metadata,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printSearchResults(w io.Writer, results []retrieval.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	if !results[0].Reranked {
		fmt.Fprintln(w, "note: reranker unavailable, showing retrieval order")
	}
	for i, r := range results {
		fmt.Fprintf(w, "%2d. %.4f  %-20s %s\n", i+1, r.Score, r.DocumentID, snippet(r.Text, 80))
	}
}

// snippet collapses whitespace and truncates s for single-line display.
func snippet(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
