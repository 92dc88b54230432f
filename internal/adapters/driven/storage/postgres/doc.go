// Package postgres stores documents and chunks in Postgres and searches them
// with the pgvector extension.
//
// The Store implements driven.DocumentStore; Index, sharing the same
// connection pool, implements driven.VectorIndex using the `<=>` cosine
// distance operator. Embeddings live in a vector(n) column on the chunk row,
// so the index is always consistent with the store and never needs rebuilding.
//
// The schema is created on first use. An approximate HNSW index is added when
// the embedding size is within pgvector's indexing limit of 2000 dimensions;
// larger models are searched exactly.
package postgres
