package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
)

const manualText = "Section A. Section A covers installation. Section B covers usage."

// noSleep skips backoff delays in tests.
func noSleep(context.Context, time.Duration) error { return nil }

func testRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, sleep: noSleep}
}

// --- Embedding ---

// bagOfWordsEmbedder hashes lower-cased words into a fixed-size vector, so
// texts sharing words have positive cosine similarity.
type bagOfWordsEmbedder struct {
	mu         sync.Mutex
	dims       int
	calls      int
	batchSizes []int
	failFirst  int   // fail this many calls with failErr
	failErr    error // defaults to a transient error
	alwaysErr  error
}

func newEmbedder() *bagOfWordsEmbedder {
	return &bagOfWordsEmbedder{dims: 256}
}

func (e *bagOfWordsEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(e.dims)]++
	}
	if len(words) == 0 {
		v[0] = 1
	}
	return v
}

func (e *bagOfWordsEmbedder) call() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.alwaysErr != nil {
		return e.alwaysErr
	}
	if e.failFirst > 0 {
		e.failFirst--
		if e.failErr != nil {
			return e.failErr
		}
		return domain.ErrRateLimited
	}
	return nil
}

func (e *bagOfWordsEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if err := e.call(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

func (e *bagOfWordsEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if err := e.call(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.batchSizes = append(e.batchSizes, len(texts))
	e.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *bagOfWordsEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *bagOfWordsEmbedder) Dimensions() int              { return e.dims }
func (e *bagOfWordsEmbedder) ModelName() string            { return "bag-of-words" }
func (e *bagOfWordsEmbedder) Ping(_ context.Context) error { return nil }
func (e *bagOfWordsEmbedder) Close() error                 { return nil }

// --- Vector index ---

// failingIndex wraps an index and fails Add after a number of successes.
type failingIndex struct {
	driven.VectorIndex
	okAdds int
	adds   int
}

func (f *failingIndex) Add(ctx context.Context, id string, emb []float32) error {
	f.adds++
	if f.adds > f.okAdds {
		return errors.New("index full")
	}
	return f.VectorIndex.Add(ctx, id, emb)
}

// --- LLM ---

// scriptedLLM returns queued responses and records every request.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []*driven.ChatResponse
	errs      []error
	requests  [][]driven.ChatMessage
	options   []driven.ChatOptions
	deadlines []bool
}

func (l *scriptedLLM) Chat(ctx context.Context, msgs []driven.ChatMessage, opts driven.ChatOptions) (*driven.ChatResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.requests)
	l.requests = append(l.requests, append([]driven.ChatMessage(nil), msgs...))
	l.options = append(l.options, opts)
	_, hasDeadline := ctx.Deadline()
	l.deadlines = append(l.deadlines, hasDeadline)

	if n < len(l.errs) && l.errs[n] != nil {
		return nil, l.errs[n]
	}
	if n < len(l.responses) {
		return l.responses[n], nil
	}
	return &driven.ChatResponse{Content: "ok"}, nil
}

func (l *scriptedLLM) ModelName() string            { return "scripted" }
func (l *scriptedLLM) Ping(_ context.Context) error { return nil }
func (l *scriptedLLM) Close() error                 { return nil }

// --- Classifier ---

// scriptedClassifier returns a fixed decision.
type scriptedClassifier struct {
	decision domain.Decision
	err      error
	calls    int
	tool     driven.ToolDefinition
	messages []driven.ChatMessage
}

func (c *scriptedClassifier) Decide(
	_ context.Context, msgs []driven.ChatMessage, tool driven.ToolDefinition,
) (domain.Decision, error) {
	c.calls++
	c.tool = tool
	c.messages = msgs
	if c.err != nil {
		return nil, c.err
	}
	return c.decision, nil
}

// --- Retrieval tool ---

// countingTool wraps a retrieval tool and counts invocations.
type countingTool struct {
	inner   driving.RetrievalTool
	calls   int
	queries []string
	output  string
	err     error
}

func (t *countingTool) Definition() driven.ToolDefinition {
	if t.inner != nil {
		return t.inner.Definition()
	}
	return NewRetrievalTool(nil, 0, 0).Definition()
}

func (t *countingTool) QueryDocuments(ctx context.Context, query string) (string, error) {
	t.calls++
	t.queries = append(t.queries, query)
	if t.err != nil {
		return "", t.err
	}
	if t.inner != nil {
		return t.inner.QueryDocuments(ctx, query)
	}
	return t.output, nil
}

// --- Prompt store ---

type mapPromptStore map[string]string

func (m mapPromptStore) Load(name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m mapPromptStore) Reload() {}

// --- Vector store ---

// stubVectorStore returns canned query results.
type stubVectorStore struct {
	hits     []domain.RetrievalHit
	queryErr error
	topK     int
}

func (s *stubVectorStore) IsDuplicate(context.Context, domain.Fingerprint) (bool, error) {
	return false, nil
}

func (s *stubVectorStore) Ingest(context.Context, string, []string, domain.Fingerprint) (driving.IngestResult, error) {
	return driving.IngestResult{}, nil
}

func (s *stubVectorStore) Query(_ context.Context, _ string, topK int) ([]domain.RetrievalHit, error) {
	s.topK = topK
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.hits, nil
}

func (s *stubVectorStore) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, nil
}

func (s *stubVectorStore) Documents(context.Context) ([]domain.Document, error) {
	return nil, nil
}

func (s *stubVectorStore) Reset(context.Context) error { return nil }
