package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastbreaklabs/scoutd/internal/ingest"
	"github.com/fastbreaklabs/scoutd/internal/retrieval"
	"github.com/fastbreaklabs/scoutd/internal/vectorstore"
)

func TestSnippet(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "punt assists build", snippet("punt assists build", 80))
	})

	t.Run("collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "Jokic anchors every build", snippet("Jokic\tanchors\n  every   build", 80))
	})

	t.Run("truncates long text", func(t *testing.T) {
		got := snippet(strings.Repeat("giannis ", 30), 20)
		assert.Equal(t, "giannis giannis gian...", got)
	})

	t.Run("truncates at runes not bytes", func(t *testing.T) {
		got := snippet(strings.Repeat("é", 30), 10)
		assert.Equal(t, strings.Repeat("é", 10)+"...", got)
	})

	t.Run("empty string", func(t *testing.T) {
		assert.Equal(t, "", snippet("", 80))
	})
}

func TestPrintSearchResults(t *testing.T) {
	reranked := []retrieval.Result{
		{DocumentID: "jokic-2026-01", Text: "Jokic anchors every punt-FT build", Score: 0.91, RetrievalScore: 0.83, RetrievalRank: 1, Reranked: true},
		{DocumentID: "sabonis-2026-01", Text: "Sabonis punishes punt-blocks rosters", Score: 0.87, RetrievalScore: 0.85, RetrievalRank: 0, Reranked: true},
	}

	t.Run("reranked results", func(t *testing.T) {
		var buf bytes.Buffer
		printSearchResults(&buf, reranked)

		out := buf.String()
		assert.NotContains(t, out, "reranker unavailable")
		assert.Contains(t, out, " 1. 0.9100  jokic-2026-01")
		assert.Contains(t, out, " 2. 0.8700  sabonis-2026-01")
		assert.Contains(t, out, "Jokic anchors every punt-FT build")
	})

	t.Run("degraded results carry a note", func(t *testing.T) {
		degraded := make([]retrieval.Result, len(reranked))
		copy(degraded, reranked)
		for i := range degraded {
			degraded[i].Reranked = false
			degraded[i].Score = degraded[i].RetrievalScore
		}

		var buf bytes.Buffer
		printSearchResults(&buf, degraded)

		out := buf.String()
		assert.Contains(t, out, "note: reranker unavailable, showing retrieval order")
		assert.Contains(t, out, " 1. 0.8300  jokic-2026-01")
	})

	t.Run("no results", func(t *testing.T) {
		var buf bytes.Buffer
		printSearchResults(&buf, nil)
		assert.Equal(t, "No results.\n", buf.String())
	})
}

func TestPrintSearchJSON(t *testing.T) {
	t.Run("round trips fields", func(t *testing.T) {
		results := []retrieval.Result{
			{
				DocumentID:     "tatum-2026-03",
				Text:           "Tatum's usage spikes without Brown",
				Metadata:       map[string]interface{}{"position": "SF"},
				Score:          0.95,
				RetrievalScore: 0.88,
				RetrievalRank:  2,
				Reranked:       true,
			},
		}

		var buf bytes.Buffer
		require.NoError(t, printSearchJSON(&buf, results))

		var decoded []searchOutput
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 1)

		assert.Equal(t, 1, decoded[0].Rank)
		assert.Equal(t, "tatum-2026-03", decoded[0].DocumentID)
		assert.Equal(t, "Tatum's usage spikes without Brown", decoded[0].Text)
		assert.InDelta(t, 0.95, decoded[0].Score, 1e-6)
		assert.InDelta(t, 0.88, decoded[0].RetrievalScore, 1e-6)
		assert.Equal(t, 2, decoded[0].RetrievalRank)
		assert.True(t, decoded[0].Reranked)
		assert.Equal(t, "SF", decoded[0].Metadata["position"])
	})

	t.Run("empty results emit an empty array", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printSearchJSON(&buf, nil))
		assert.Equal(t, "[]\n", buf.String())
	})

	t.Run("nil metadata is omitted", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printSearchJSON(&buf, []retrieval.Result{{DocumentID: "d1", Reranked: true}}))
		assert.NotContains(t, buf.String(), "metadata")
	})
}

func TestPrintIngestResult(t *testing.T) {
	var buf bytes.Buffer
	printIngestResult(&buf, &ingest.Result{
		Path:              "players.jsonl",
		Collection:        "players",
		DocumentsIngested: 450,
		LinesSkipped:      3,
		Batches:           8,
	})
	assert.Equal(t, "Ingested 450 documents into \"players\" (8 batches, 3 lines skipped)\n", buf.String())
}

func TestPrintCollections(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		printCollections(&buf, []*vectorstore.CollectionInfo{
			{Name: "players", PointCount: 450, VectorSize: 384},
			{Name: "trades", PointCount: 72, VectorSize: 384},
		})

		out := buf.String()
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "DOCUMENTS")
		assert.Contains(t, out, "players")
		assert.Contains(t, out, "450")
		assert.Contains(t, out, "trades")
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		printCollections(&buf, nil)
		assert.Equal(t, "No collections.\n", buf.String())
	})
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)

	out := buf.String()
	assert.Contains(t, out, "scoutd")
	assert.Contains(t, out, "Fastbreak Labs")
	assert.Contains(t, out, "commit:")
	assert.Contains(t, out, "go:")
}

func TestCommandRegistration(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"search", "ingest", "collections", "status", "version"} {
		assert.True(t, names[want], "command %q not registered", want)
	}

	t.Run("search flags", func(t *testing.T) {
		for _, flag := range []string{"collection", "initial-k", "final-k", "json"} {
			assert.NotNil(t, searchCmd.Flags().Lookup(flag), "flag %q missing", flag)
		}
		assert.Equal(t, "players", searchCmd.Flags().Lookup("collection").DefValue)
	})

	t.Run("ingest flags", func(t *testing.T) {
		for _, flag := range []string{"collection", "batch-size", "rate"} {
			assert.NotNil(t, ingestCmd.Flags().Lookup(flag), "flag %q missing", flag)
		}
	})
}
