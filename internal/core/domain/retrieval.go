package domain

// RetrievalHit is one scored chunk from a similarity query.
type RetrievalHit struct {
	// ChunkID identifies the matching chunk.
	ChunkID string

	// DocumentID identifies the owning document.
	DocumentID string

	// DocumentName is the user-visible source name.
	DocumentName string

	// Position is the zero-based chunk index within the document.
	Position int

	// Content is the chunk text.
	Content string

	// Score is the cosine similarity between query and chunk (higher is better).
	Score float64
}

// IndexStats is a read-only summary of the store.
type IndexStats struct {
	DocumentCount int `json:"document_count"`
	ChunkCount    int `json:"chunk_count"`
}

// IsEmpty reports whether no complete document is stored.
func (s IndexStats) IsEmpty() bool {
	return s.DocumentCount == 0
}
