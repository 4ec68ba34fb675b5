package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fastbreaklabs/scoutd/internal/reranker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the health of the search pipeline",
	Long: `Status probes each pipeline component: the vector store, the embedding
provider, and the reranker. A failing store or embedder makes search
impossible and exits non-zero; a failing reranker only degrades search to
retrieval order and is reported without failing.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	w := cmd.OutOrStdout()
	healthy := true

	if err := app.store.HealthCheck(ctx); err != nil {
		healthy = false
		printProbe(w, "vectorstore", "FAIL", err.Error())
	} else {
		printProbe(w, "vectorstore", "OK", fmt.Sprintf("provider=%s", app.cfg.VectorStore.Provider))
	}

	if vec, err := app.embedder.EmbedQuery(ctx, "status probe"); err != nil {
		healthy = false
		printProbe(w, "embedder", "FAIL", err.Error())
	} else {
		printProbe(w, "embedder", "OK", fmt.Sprintf("model=%s dimension=%d", app.cfg.Embeddings.Model, len(vec)))
	}

	// A reranker outage degrades searches to retrieval order, so it is
	// reported but does not affect the exit code.
	probe := []reranker.Document{{ID: "probe", Text: "status probe document", Score: 1}}
	if _, err := app.reranker.Rerank(ctx, "status probe", probe, 1); err != nil {
		printProbe(w, "reranker", "DEGRADED", err.Error())
	} else {
		printProbe(w, "reranker", "OK", fmt.Sprintf("provider=%s", app.cfg.Reranker.Provider))
	}

	if !healthy {
		return fmt.Errorf("one or more components are unavailable")
	}
	return nil
}

func printProbe(w io.Writer, component, state, detail string) {
	fmt.Fprintf(w, "%-12s %-9s %s\n", component, state, detail)
}
