package application

import (
	"context"

	"github.com/Easiofy-Anant/voice-assistant/internal/domain"
)

// Embedder computes the semantic embedding of a text. Queries must use the
// same model the index was built with or scores are meaningless.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// AnswerIndex is the read-only face of the knowledge index.
type AnswerIndex interface {
	Count(ctx context.Context) (int, error)
	Nearest(ctx context.Context, embedding []float32) (domain.RetrievalResult, error)
}
