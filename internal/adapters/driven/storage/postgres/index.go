package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// lenTimeout bounds the count query behind Len.
const lenTimeout = 5 * time.Second

// Index searches chunk embeddings with pgvector's cosine distance.
// Only chunks of complete documents are returned by Search.
type Index struct {
	db         *sql.DB
	dimensions int
}

// Add sets the embedding of an already stored chunk.
func (i *Index) Add(ctx context.Context, chunkID string, embedding []float32) error {
	lit, err := toVectorLiteral(embedding, i.dimensions)
	if err != nil {
		return err
	}
	res, err := i.db.ExecContext(ctx, `UPDATE pdfchat_chunks SET embedding = $2::vector WHERE id = $1`, chunkID, lit)
	if err != nil {
		return fmt.Errorf("indexing chunk: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: chunk %s", domain.ErrNotFound, chunkID)
	}
	return nil
}

// Delete clears the embeddings of the given chunks. Unknown IDs are ignored.
func (i *Index) Delete(ctx context.Context, chunkIDs ...string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	_, err := i.db.ExecContext(ctx, `UPDATE pdfchat_chunks SET embedding = NULL WHERE id = ANY($1)`, pq.Array(chunkIDs))
	if err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// Search returns the k chunks closest to query, ties broken by chunk ID.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}
	lit, err := toVectorLiteral(query, i.dimensions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	rows, err := i.db.QueryContext(ctx, `
SELECT c.id, 1 - (c.embedding <=> $1::vector) AS similarity
FROM pdfchat_chunks c JOIN pdfchat_documents d ON d.id = c.document_id
WHERE d.status = $2 AND c.embedding IS NOT NULL
ORDER BY c.embedding <=> $1::vector, c.id
LIMIT $3`, lit, string(domain.DocumentComplete), k)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}
	defer rows.Close()

	hits := []driven.VectorHit{}
	for rows.Next() {
		var h driven.VectorHit
		if err := rows.Scan(&h.ChunkID, &h.Similarity); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Len returns the number of chunks carrying an embedding.
func (i *Index) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), lenTimeout)
	defer cancel()

	var n int
	if err := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pdfchat_chunks WHERE embedding IS NOT NULL`).Scan(&n); err != nil {
		logger.Warn("pgvector count failed: %v", err)
		return 0
	}
	return n
}

// Reset clears every embedding.
func (i *Index) Reset(ctx context.Context) error {
	if _, err := i.db.ExecContext(ctx, `UPDATE pdfchat_chunks SET embedding = NULL`); err != nil {
		return fmt.Errorf("resetting vectors: %w", err)
	}
	return nil
}

// Close is a no-op; the Store owns the connection pool.
func (i *Index) Close() error {
	return nil
}
