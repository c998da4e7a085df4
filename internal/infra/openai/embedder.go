package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Easiofy-Anant/voice-assistant/internal/infra"
)

// ErrNoAPIKey is returned at construction when no API key is configured.
// Retrieval is dead weight without embeddings, so this is a startup failure.
var ErrNoAPIKey = errors.New("openai api key not set")

// Embedder computes semantic embeddings. Queries and ingestion must share
// one model or similarity scores are meaningless.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	retry  infra.RetryConfig
}

func NewEmbedder(apiKey, model string) (*Embedder, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return &Embedder{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
		retry:  infra.DefaultRetryConfig(),
	}, nil
}

// Embed returns the embedding of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds several texts in one API call, retrying transient
// failures with backoff.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp openai.EmbeddingResponse
	err := infra.WithRetry(ctx, e.retry, func() error {
		var callErr error
		resp, callErr = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts,
			Model: e.model,
		})
		if callErr != nil && !isRetryable(callErr) {
			return infra.Permanent(callErr)
		}
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("creating embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return infra.IsRetryableHTTPStatus(apiErr.HTTPStatusCode)
	}
	// Transport-level errors are worth another attempt.
	return true
}
