package ingest

import "time"

// Options configures one ingestion run.
type Options struct {
	// Collection is the target collection. Required, must satisfy
	// collections.Validate.
	Collection string

	// BatchSize is the number of documents per AddDocuments call.
	// Default: 64.
	BatchSize int

	// MaxDocBytes is the per-line size cap in bytes; oversized lines are
	// skipped and counted. Default: 1MB, maximum: 10MB.
	MaxDocBytes int

	// RatePerSec paces batch writes. Zero disables pacing.
	RatePerSec float64
}

// Result contains the statistics of one ingestion run.
type Result struct {
	// Path is the corpus file that was ingested.
	Path string

	// Collection is the collection documents were written to.
	Collection string

	// DocumentsIngested is the number of documents written to the store.
	DocumentsIngested int

	// LinesSkipped counts lines rejected as oversized, invalid, or
	// incomplete. Blank lines are not counted.
	LinesSkipped int

	// Batches is the number of AddDocuments calls made.
	Batches int

	// IngestedAt is the timestamp when ingestion completed.
	IngestedAt time.Time
}
