package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// maxIndexedDimensions is the largest vector pgvector can put in an HNSW index.
const maxIndexedDimensions = 2000

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Store is a Postgres-backed document store.
type Store struct {
	db         *sql.DB
	dimensions int
}

// NewStore connects to Postgres and ensures the schema exists.
// dimensions fixes the size of the embedding column.
func NewStore(ctx context.Context, dsn string, dimensions int) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", domain.ErrInvalidConfig)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidConfig)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := &Store{db: db, dimensions: dimensions}
	if err := s.ensureTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureTables(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS pdfchat_documents (
  id              text PRIMARY KEY,
  name            text NOT NULL,
  fingerprint     text NOT NULL UNIQUE,
  status          text NOT NULL,
  chunk_count     integer NOT NULL DEFAULT 0,
  embedding_model text NOT NULL DEFAULT '',
  metadata        jsonb NOT NULL DEFAULT '{}',
  created_at      timestamptz NOT NULL,
  updated_at      timestamptz NOT NULL
);
CREATE TABLE IF NOT EXISTS pdfchat_chunks (
  id          text PRIMARY KEY,
  document_id text NOT NULL REFERENCES pdfchat_documents(id) ON DELETE CASCADE,
  content     text NOT NULL,
  position    integer NOT NULL,
  embedding   vector(%d),
  metadata    jsonb NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS pdfchat_chunks_document_idx ON pdfchat_chunks (document_id, position);
`, s.dimensions)
	if s.dimensions <= maxIndexedDimensions {
		ddl += `CREATE INDEX IF NOT EXISTS pdfchat_chunks_embedding_idx ON pdfchat_chunks USING hnsw (embedding vector_cosine_ops);`
	}
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Index returns a vector index over the embeddings held by this store.
func (s *Store) Index() *Index {
	return &Index{db: s.db, dimensions: s.dimensions}
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateDocument inserts a document in the ingesting state.
func (s *Store) CreateDocument(ctx context.Context, doc *domain.Document) error {
	meta, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO pdfchat_documents (id, name, fingerprint, status, chunk_count, embedding_model, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8)`,
		doc.ID, doc.Name, doc.Fingerprint.String(), string(domain.DocumentIngesting),
		doc.EmbeddingModel, meta, doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if strings.Contains(pqErr.Constraint, "fingerprint") {
				return fmt.Errorf("%w: fingerprint %s", domain.ErrDuplicateDocument, doc.Fingerprint.Short())
			}
			return fmt.Errorf("%w: document %s already exists", domain.ErrInvalidInput, doc.ID)
		}
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks and their embeddings in one transaction.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	seen := make(map[string]bool)
	for i := range chunks {
		docID := chunks[i].DocumentID
		if seen[docID] {
			continue
		}
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM pdfchat_documents WHERE id = $1`, docID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: document %s", domain.ErrNotFound, docID)
		}
		if err != nil {
			return fmt.Errorf("checking document: %w", err)
		}
		seen[docID] = true
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO pdfchat_chunks (id, document_id, content, position, embedding, metadata)
VALUES ($1, $2, $3, $4, $5::vector, $6)
ON CONFLICT (id) DO UPDATE SET
  document_id = EXCLUDED.document_id,
  content = EXCLUDED.content,
  position = EXCLUDED.position,
  embedding = EXCLUDED.embedding,
  metadata = EXCLUDED.metadata`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		lit, err := toVectorLiteral(c.Embedding, s.dimensions)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		meta, err := marshalMetadata(c.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Content, c.Position, lit, meta); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}
	return tx.Commit()
}

// CompleteDocument marks a document complete with its final chunk count.
func (s *Store) CompleteDocument(ctx context.Context, id string, chunkCount int) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE pdfchat_documents SET status = $1, chunk_count = $2, updated_at = now() WHERE id = $3`,
		string(domain.DocumentComplete), chunkCount, id)
	if err != nil {
		return fmt.Errorf("completing document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const documentColumns = `id, name, fingerprint, status, chunk_count, embedding_model, metadata, created_at, updated_at`

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM pdfchat_documents WHERE id = $1`, id)
	return scanDocument(row)
}

// GetDocumentByFingerprint retrieves the document with the given fingerprint in any state.
func (s *Store) GetDocumentByFingerprint(ctx context.Context, fp domain.Fingerprint) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM pdfchat_documents WHERE fingerprint = $1`, fp.String())
	return scanDocument(row)
}

// GetChunks retrieves chunks by ID, in the order requested. Unknown IDs are skipped.
func (s *Store) GetChunks(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	if len(ids) == 0 {
		return []domain.Chunk{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, document_id, content, position, embedding::text, metadata
FROM pdfchat_chunks WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Chunk, len(ids))
	for rows.Next() {
		var c domain.Chunk
		var emb sql.NullString
		var meta []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Content, &c.Position, &emb, &meta); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if emb.Valid {
			if c.Embedding, err = parseVector(emb.String); err != nil {
				return nil, err
			}
		}
		if c.Metadata, err = unmarshalMetadata(meta); err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	result := make([]domain.Chunk, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

// ChunkIDs returns the chunk IDs of a document in position order.
func (s *Store) ChunkIDs(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id FROM pdfchat_chunks WHERE document_id = $1 ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunk ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteDocument removes a document and, through the foreign key, its chunks.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pdfchat_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDocuments returns complete documents, oldest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+`
FROM pdfchat_documents WHERE status = $1 ORDER BY created_at, id`, string(domain.DocumentComplete))
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// Stats counts complete documents and their chunks.
func (s *Store) Stats(ctx context.Context) (domain.IndexStats, error) {
	var stats domain.IndexStats
	err := s.db.QueryRowContext(ctx, `
SELECT
  (SELECT COUNT(*) FROM pdfchat_documents WHERE status = $1),
  (SELECT COUNT(*) FROM pdfchat_chunks c JOIN pdfchat_documents d ON d.id = c.document_id WHERE d.status = $1)`,
		string(domain.DocumentComplete)).Scan(&stats.DocumentCount, &stats.ChunkCount)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("counting documents: %w", err)
	}
	return stats, nil
}

// WalkEmbeddings calls fn for every chunk of every complete document.
// Rows are read fully before fn runs so fn may use the store.
func (s *Store) WalkEmbeddings(ctx context.Context, fn func(chunkID string, embedding []float32) error) error {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.embedding::text
FROM pdfchat_chunks c JOIN pdfchat_documents d ON d.id = c.document_id
WHERE d.status = $1 AND c.embedding IS NOT NULL
ORDER BY d.created_at, c.position`, string(domain.DocumentComplete))
	if err != nil {
		return fmt.Errorf("querying embeddings: %w", err)
	}

	type entry struct {
		id  string
		emb []float32
	}
	var entries []entry
	for rows.Next() {
		var id, lit string
		if err := rows.Scan(&id, &lit); err != nil {
			rows.Close()
			return fmt.Errorf("scanning embedding: %w", err)
		}
		vec, err := parseVector(lit)
		if err != nil {
			rows.Close()
			return err
		}
		entries = append(entries, entry{id, vec})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, e := range entries {
		if err := fn(e.id, e.emb); err != nil {
			return err
		}
	}
	return nil
}

// Reset removes every document and chunk.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE pdfchat_chunks, pdfchat_documents`); err != nil {
		return fmt.Errorf("resetting store: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var fingerprint, status string
	var meta []byte
	if err := row.Scan(&doc.ID, &doc.Name, &fingerprint, &status, &doc.ChunkCount,
		&doc.EmbeddingModel, &meta, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Fingerprint = domain.Fingerprint(fingerprint)
	doc.Status = domain.DocumentStatus(status)

	var err error
	if doc.Metadata, err = unmarshalMetadata(meta); err != nil {
		return nil, err
	}
	return &doc, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshalling metadata: %w", err)
	}
	return b, nil
}

func unmarshalMetadata(b []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

// toVectorLiteral formats an embedding as a pgvector text literal.
func toVectorLiteral(embedding []float32, dim int) (string, error) {
	if len(embedding) == 0 {
		return "", errors.New("embedding is required")
	}
	if dim > 0 && len(embedding) != dim {
		return "", fmt.Errorf("embedding length %d does not match dimension %d", len(embedding), dim)
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]", nil
}

// parseVector reads a pgvector text literal such as "[1,2.5,-3]".
func parseVector(lit string) ([]float32, error) {
	lit = strings.TrimSpace(lit)
	if !strings.HasPrefix(lit, "[") || !strings.HasSuffix(lit, "]") {
		return nil, fmt.Errorf("malformed vector %q", lit)
	}
	body := strings.TrimSpace(lit[1 : len(lit)-1])
	if body == "" {
		return nil, nil
	}
	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("malformed vector element %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}
