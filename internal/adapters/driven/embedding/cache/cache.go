// Package cache stores computed embeddings in a bbolt file so re-ingesting
// or re-asking identical text does not pay for another provider call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

// Ensure interfaces are implemented.
var (
	_ driven.EmbeddingCache   = (*Store)(nil)
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
)

var bucketEmbeddings = []byte("embeddings")

// FileName is the cache file created inside the data directory.
const FileName = "embeddings.db"

// Store is a bbolt-backed EmbeddingCache.
// Keys are sha256(model NUL text); values are little-endian float32 arrays.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the cache at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("%w: create cache directory: %w", domain.ErrStorageUnavailable, err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open embedding cache: %w", domain.ErrStorageUnavailable, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init embedding cache: %w", domain.ErrStorageUnavailable, err)
	}
	return &Store{db: db}, nil
}

// Get returns the cached vector for model and text.
func (s *Store) Get(_ context.Context, model, text string) ([]float32, bool, error) {
	var vec []float32
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketEmbeddings).Get(key(model, text))
		if v == nil {
			return nil
		}
		var err error
		vec, err = decode(v)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: read embedding cache: %w", domain.ErrStorageUnavailable, err)
	}
	return vec, vec != nil, nil
}

// Put stores a vector for model and text.
func (s *Store) Put(_ context.Context, model, text string, embedding []float32) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put(key(model, text), encode(embedding))
	})
	if err != nil {
		return fmt.Errorf("%w: write embedding cache: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Len returns the number of cached vectors.
func (s *Store) Len() int {
	n := 0
	_ = s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(model, text string) []byte {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum(nil)
}

func encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("corrupt cache entry of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
