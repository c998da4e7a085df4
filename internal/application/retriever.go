package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Easiofy-Anant/voice-assistant/internal/domain"
)

// Retriever answers a text query from the knowledge index. Deterministic
// for a fixed index and query: the same text always yields the same result.
type Retriever struct {
	embedder Embedder
	index    AnswerIndex
	minScore float64
	logger   *slog.Logger
}

func NewRetriever(embedder Embedder, index AnswerIndex, minScore float64, logger *slog.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		minScore: minScore,
		logger:   logger,
	}
}

// Retrieve embeds the query with the index's own model and returns the
// nearest stored answer. domain.ErrNoMatch when the index is empty or the
// best similarity is below the configured floor.
func (r *Retriever) Retrieve(ctx context.Context, text string) (domain.RetrievalResult, error) {
	embedding, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("embedding query: %w", err)
	}

	res, err := r.index.Nearest(ctx, embedding)
	if err != nil {
		if errors.Is(err, domain.ErrIndexEmpty) {
			return domain.RetrievalResult{}, domain.ErrNoMatch
		}
		return domain.RetrievalResult{}, fmt.Errorf("querying index: %w", err)
	}

	if res.Score < r.minScore {
		r.logger.Debug("best match below floor",
			"score", res.Score,
			"floor", r.minScore,
			"question", res.MatchedQuestion,
		)
		return domain.RetrievalResult{}, domain.ErrNoMatch
	}

	return res, nil
}
