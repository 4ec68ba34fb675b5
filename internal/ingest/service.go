package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fastbreaklabs/scoutd/internal/collections"
	"github.com/fastbreaklabs/scoutd/internal/logging"
	"github.com/fastbreaklabs/scoutd/internal/vectorstore"
)

// tracer for OpenTelemetry instrumentation.
var tracer = otel.Tracer("scoutd.ingest")

// DocumentAdder is the slice of the vector store ingestion depends on.
type DocumentAdder interface {
	AddDocuments(ctx context.Context, collection string, docs []vectorstore.Document) ([]string, error)
}

// Service ingests JSON Lines corpora into the vector index.
type Service struct {
	store  DocumentAdder
	logger *logging.Logger
}

// NewService creates a new ingestion service.
func NewService(store DocumentAdder, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// docLine is the JSONL wire shape for one document.
type docLine struct {
	ID        string                 `json:"id"`
	Text      string                 `json:"text"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Embedding []float32              `json:"embedding,omitempty"`
}

// Skip reasons recorded per rejected line.
const (
	reasonBlank       = "blank"
	reasonTooLarge    = "too_large"
	reasonInvalidUTF8 = "invalid_utf8"
	reasonBadJSON     = "bad_json"
	reasonMissingID   = "missing_id"
	reasonEmptyText   = "empty_text"
)

// IngestFile reads a JSON Lines corpus and writes its documents to the
// store in batches.
//
// Malformed lines are skipped and counted, never fatal; a store write
// failure is fatal because continuing would make the skip accounting
// meaningless. Returns Result with statistics, or an error if ingestion
// could not run or was cut short.
func (s *Service) IngestFile(ctx context.Context, path string, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Service.IngestFile")
	defer span.End()

	cleanPath, err := validatePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if err := collections.Validate(opts.Collection); err != nil {
		return nil, err
	}

	if opts.BatchSize == 0 {
		opts.BatchSize = 64
	}
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("batch_size must be >= 1, got %d", opts.BatchSize)
	}
	if opts.MaxDocBytes == 0 {
		opts.MaxDocBytes = 1024 * 1024 // 1MB default
	}
	if opts.MaxDocBytes > 10*1024*1024 {
		return nil, fmt.Errorf("max_doc_bytes cannot exceed 10MB")
	}
	if opts.RatePerSec < 0 {
		return nil, fmt.Errorf("rate_per_sec cannot be negative")
	}

	ctx = logging.WithCollection(ctx, opts.Collection)
	span.SetAttributes(
		attribute.String("path", cleanPath),
		attribute.String("collection", opts.Collection),
		attribute.Int("batch_size", opts.BatchSize),
	)

	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cleanPath, err)
	}
	defer file.Close()

	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}

	result := &Result{
		Path:       cleanPath,
		Collection: opts.Collection,
	}
	batch := make([]vectorstore.Document, 0, opts.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		start := time.Now()
		if _, err := s.store.AddDocuments(ctx, opts.Collection, batch); err != nil {
			return fmt.Errorf("adding batch %d to collection %s: %w", result.Batches+1, opts.Collection, err)
		}
		BatchFlushDuration.Observe(time.Since(start).Seconds())
		DocumentsIngestedTotal.WithLabelValues(opts.Collection).Add(float64(len(batch)))
		result.DocumentsIngested += len(batch)
		result.Batches++
		batch = batch[:0]
		return nil
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	lineNo := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		raw, err := reader.ReadBytes('\n')
		atEOF := errors.Is(err, io.EOF)
		if err != nil && !atEOF {
			return nil, fmt.Errorf("reading %s: %w", cleanPath, err)
		}
		lineNo++

		doc, reason := parseLine(raw, opts.MaxDocBytes)
		switch reason {
		case "":
			batch = append(batch, doc)
			if len(batch) >= opts.BatchSize {
				if err := flush(); err != nil {
					return nil, err
				}
			}
		case reasonBlank:
			// trailing newlines and spacing, not worth counting
		default:
			result.LinesSkipped++
			LinesSkippedTotal.WithLabelValues(opts.Collection, reason).Inc()
			s.logger.Warn(ctx, "skipped line",
				zap.Int("line", lineNo),
				zap.String("reason", reason),
			)
		}

		if atEOF {
			break
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	result.IngestedAt = time.Now()

	span.SetAttributes(
		attribute.Int("documents_ingested", result.DocumentsIngested),
		attribute.Int("lines_skipped", result.LinesSkipped),
		attribute.Int("batches", result.Batches),
	)
	span.SetStatus(codes.Ok, "success")

	s.logger.Info(ctx, "ingestion completed",
		zap.String("path", cleanPath),
		zap.Int("documents", result.DocumentsIngested),
		zap.Int("skipped", result.LinesSkipped),
		zap.Int("batches", result.Batches),
	)

	return result, nil
}

// parseLine turns one JSONL line into a Document, or names the reason it
// cannot be ingested.
func parseLine(raw []byte, maxBytes int) (vectorstore.Document, string) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return vectorstore.Document{}, reasonBlank
	}
	if len(trimmed) > maxBytes {
		return vectorstore.Document{}, reasonTooLarge
	}
	if !utf8.Valid(trimmed) {
		return vectorstore.Document{}, reasonInvalidUTF8
	}

	var l docLine
	if err := json.Unmarshal(trimmed, &l); err != nil {
		return vectorstore.Document{}, reasonBadJSON
	}
	// Explicit IDs keep re-ingestion idempotent: the same corpus upserts
	// instead of duplicating.
	if strings.TrimSpace(l.ID) == "" {
		return vectorstore.Document{}, reasonMissingID
	}
	if strings.TrimSpace(l.Text) == "" {
		return vectorstore.Document{}, reasonEmptyText
	}

	return vectorstore.Document{
		ID:        l.ID,
		Text:      l.Text,
		Metadata:  l.Metadata,
		Embedding: l.Embedding,
	}, ""
}

// validatePath validates and cleans the corpus file path.
func validatePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", cleanPath)
		}
		return "", fmt.Errorf("stat path: %w", err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path must be a regular file: %s", cleanPath)
	}

	return cleanPath, nil
}
