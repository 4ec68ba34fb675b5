// Package ingest loads JSON Lines corpora into the vector index.
//
// Ingestion is the offline half of the pipeline: the index is built or
// appended before query traffic, and documents are read-only afterwards.
// One document per line:
//
//	{"id": "jokic-2025", "text": "elite passing center ...", "metadata": {"position": "C"}}
//
// An optional "embedding" array skips embedding at insert time.
//
// # Input handling
//
// Malformed input never aborts a run; it is skipped and counted:
//   - lines over the size cap (1MB default, 10MB maximum)
//   - invalid UTF-8 and invalid JSON
//   - missing "id" (explicit IDs keep re-ingestion idempotent)
//   - empty "text"
//
// Blank lines are ignored without counting, so trailing newlines and
// paragraph spacing do not show up as skips.
//
// # Usage
//
//	svc := ingest.NewService(store, logger)
//	result, err := svc.IngestFile(ctx, "players.jsonl", ingest.Options{
//	    Collection: collections.Players,
//	    BatchSize:  64,
//	    RatePerSec: 2,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Ingested %d documents (%d skipped)\n",
//	    result.DocumentsIngested, result.LinesSkipped)
//
// RatePerSec paces batches with a token bucket to avoid saturating a remote
// embedding service; zero disables pacing.
package ingest
