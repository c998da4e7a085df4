package domain

// KnowledgeEntry is one (question, answer) row of the knowledge base
// together with the embedding of its question. Immutable after ingestion;
// the dialogue loop only ever reads it.
type KnowledgeEntry struct {
	ID        string
	Question  string
	Answer    string
	Sheet     string
	Embedding []float32
}

// RetrievalResult is the best index match for a single query. Ephemeral,
// produced per retrieval.
type RetrievalResult struct {
	Answer          string
	Score           float64
	MatchedQuestion string
}
