package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Easiofy-Anant/voice-assistant/internal/domain"
)

func openTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestSQLiteIndex_EmptyIndex(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = idx.Nearest(ctx, []float32{1, 0, 0})
	assert.ErrorIs(t, err, domain.ErrIndexEmpty)
}

func TestSQLiteIndex_NearestByCosine(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, []domain.KnowledgeEntry{
		{ID: "1", Question: "What is Bigship?", Answer: "A logistics platform.", Embedding: []float32{1, 0, 0}},
		{ID: "2", Question: "How do I track a shipment?", Answer: "Use the tracking page.", Embedding: []float32{0, 1, 0}},
		{ID: "3", Question: "What are the rates?", Answer: "See the pricing page.", Embedding: []float32{0, 0, 1}},
	}))

	res, err := idx.Nearest(ctx, []float32{0.9, 0.1, 0})
	require.NoError(t, err)
	assert.Equal(t, "What is Bigship?", res.MatchedQuestion)
	assert.Equal(t, "A logistics platform.", res.Answer)
	assert.InDelta(t, 0.99, res.Score, 0.02)
}

func TestSQLiteIndex_TieBreakIsLexicographic(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	// Identical embeddings: both score exactly 1 against the query.
	require.NoError(t, idx.Insert(ctx, []domain.KnowledgeEntry{
		{ID: "b", Question: "beta question", Answer: "beta", Embedding: []float32{1, 0}},
		{ID: "a", Question: "alpha question", Answer: "alpha", Embedding: []float32{1, 0}},
	}))

	for i := 0; i < 5; i++ {
		res, err := idx.Nearest(ctx, []float32{1, 0})
		require.NoError(t, err)
		assert.Equal(t, "alpha question", res.MatchedQuestion, "tie-break must be stable")
	}
}

func TestSQLiteIndex_ResetAndReingest(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, []domain.KnowledgeEntry{
		{ID: "1", Question: "q1", Answer: "a1", Embedding: []float32{1}},
		{ID: "2", Question: "q2", Answer: "a2", Embedding: []float32{1}},
	}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, idx.Reset(ctx))

	count, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLiteIndex_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	idx, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, idx.Insert(ctx, []domain.KnowledgeEntry{
		{ID: "1", Question: "q1", Answer: "a1", Sheet: "FAQ", Embedding: []float32{0.5, 0.5}},
	}))
	require.NoError(t, idx.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	res, err := reopened.Nearest(ctx, []float32{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, "a1", res.Answer)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1}), "mismatched lengths")
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}), "zero norm")
}
