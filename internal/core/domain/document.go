package domain

import "time"

// DocumentStatus tracks how far ingestion of a document got.
type DocumentStatus string

const (
	// DocumentIngesting marks a document whose chunks are still being written.
	// Such documents are invisible to queries and stats.
	DocumentIngesting DocumentStatus = "ingesting"

	// DocumentComplete marks a fully ingested document.
	DocumentComplete DocumentStatus = "complete"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	return s == DocumentIngesting || s == DocumentComplete
}

// Document represents an ingested source file.
// A complete document is immutable; re-uploads with the same fingerprint are rejected.
type Document struct {
	// ID is the unique identifier assigned by the store.
	ID string

	// Name is the user-visible name, usually the uploaded filename.
	Name string

	// Fingerprint is the content digest used for duplicate detection.
	Fingerprint Fingerprint

	// Status is the ingestion state.
	Status DocumentStatus

	// ChunkCount is the number of chunks stored for the document.
	ChunkCount int

	// EmbeddingModel is the model used to embed the chunks.
	EmbeddingModel string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when ingestion started.
	CreatedAt time.Time

	// UpdatedAt is when the status last changed.
	UpdatedAt time.Time
}

// Chunk represents a contiguous segment of a document's text.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation computed from Content.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Chunk metadata keys.
const (
	MetaSource      = "source"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaChunkSize   = "chunk_size"
)

// IngestOutcome is the per-document result of an ingestion attempt.
type IngestOutcome string

const (
	IngestOutcomeIngested  IngestOutcome = "ingested"
	IngestOutcomeDuplicate IngestOutcome = "duplicate"
	IngestOutcomeFailed    IngestOutcome = "failed"
)

// IngestReport describes what happened to a single document.
type IngestReport struct {
	Path        string
	DocumentID  string
	Fingerprint Fingerprint
	Outcome     IngestOutcome
	ChunkCount  int
	Err         error
}

// BatchReport aggregates the reports of a multi-document ingestion.
type BatchReport struct {
	Reports []IngestReport
}

// Count returns the number of reports with the given outcome.
func (b BatchReport) Count(outcome IngestOutcome) int {
	n := 0
	for i := range b.Reports {
		if b.Reports[i].Outcome == outcome {
			n++
		}
	}
	return n
}

// TotalChunks returns the number of chunks stored by the batch.
func (b BatchReport) TotalChunks() int {
	n := 0
	for i := range b.Reports {
		n += b.Reports[i].ChunkCount
	}
	return n
}
