// Package index persists the knowledge base as a SQLite table with
// JSON-encoded question embeddings and answers nearest-neighbor queries by
// brute-force cosine scan. The corpus is a few hundred Q&A rows, so a full
// scan is cheaper than maintaining an ANN structure.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Easiofy-Anant/voice-assistant/internal/domain"
)

type SQLiteIndex struct {
	mu sync.RWMutex
	db *sql.DB
}

func Open(path string) (*SQLiteIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	idx := &SQLiteIndex{db: db}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing index schema: %w", err)
	}
	return idx, nil
}

func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		sheet TEXT,
		embedding BLOB NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Count reports how many entries the index holds.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&count)
	return count, err
}

// Nearest returns the stored entry most similar to the query embedding.
// Ties on score resolve to the lexicographically smaller question, so the
// winner is stable across runs. domain.ErrIndexEmpty when nothing is stored.
func (s *SQLiteIndex) Nearest(ctx context.Context, embedding []float32) (domain.RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT question, answer, embedding FROM entries")
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var best domain.RetrievalResult
	found := false

	for rows.Next() {
		var question, answer string
		var embeddingJSON []byte
		if err := rows.Scan(&question, &answer, &embeddingJSON); err != nil {
			return domain.RetrievalResult{}, fmt.Errorf("scanning entry: %w", err)
		}

		var stored []float32
		if err := json.Unmarshal(embeddingJSON, &stored); err != nil {
			continue // skip corrupted embeddings
		}

		score := cosineSimilarity(embedding, stored)
		better := score > best.Score ||
			(score == best.Score && question < best.MatchedQuestion)
		if !found || better {
			best = domain.RetrievalResult{
				Answer:          answer,
				Score:           score,
				MatchedQuestion: question,
			}
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("iterating entries: %w", err)
	}

	if !found {
		return domain.RetrievalResult{}, domain.ErrIndexEmpty
	}
	return best, nil
}

// Reset removes every entry, ahead of a full re-ingestion.
func (s *SQLiteIndex) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM entries")
	return err
}

// Insert stores entries in one transaction.
func (s *SQLiteIndex) Insert(ctx context.Context, entries []domain.KnowledgeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO entries (id, question, answer, sheet, embedding)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		embeddingJSON, err := json.Marshal(e.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Question, e.Answer, e.Sheet, embeddingJSON); err != nil {
			return fmt.Errorf("inserting entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
