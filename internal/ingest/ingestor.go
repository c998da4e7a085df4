package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Easiofy-Anant/voice-assistant/internal/domain"
)

// embedBatchSize keeps individual embedding requests well under the API's
// input limits.
const embedBatchSize = 64

// BatchEmbedder embeds several texts in one call.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// WritableIndex is the write side of the knowledge index, used only here.
type WritableIndex interface {
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
	Insert(ctx context.Context, entries []domain.KnowledgeEntry) error
}

// Ingestor loads workbook rows into the index. Run is idempotent: when the
// index already holds exactly the workbook's row count, re-embedding is
// skipped entirely.
type Ingestor struct {
	embedder BatchEmbedder
	index    WritableIndex
	logger   *slog.Logger
}

func NewIngestor(embedder BatchEmbedder, index WritableIndex, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

func (in *Ingestor) Run(ctx context.Context, workbookPath string) error {
	entries, err := ReadWorkbook(workbookPath)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("workbook %s contains no usable rows", workbookPath)
	}

	count, err := in.index.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting index entries: %w", err)
	}
	if count == len(entries) {
		in.logger.Info("index up to date, skipping ingestion", "entries", count)
		return nil
	}

	in.logger.Info("ingesting workbook",
		"workbook", workbookPath,
		"rows", len(entries),
		"indexed", count,
	)

	if err := in.index.Reset(ctx); err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}

	for start := 0; start < len(entries); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		questions := make([]string, len(batch))
		for i, e := range batch {
			questions[i] = e.Question
		}

		vectors, err := in.embedder.EmbedBatch(ctx, questions)
		if err != nil {
			return fmt.Errorf("embedding rows %d-%d: %w", start, end-1, err)
		}

		for i := range batch {
			batch[i].ID = uuid.NewString()
			batch[i].Embedding = vectors[i]
		}
		if err := in.index.Insert(ctx, batch); err != nil {
			return fmt.Errorf("inserting rows %d-%d: %w", start, end-1, err)
		}
	}

	in.logger.Info("ingestion complete", "entries", len(entries))
	return nil
}
