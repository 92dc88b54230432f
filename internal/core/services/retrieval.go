package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
	"github.com/infinitegrit26/ACD2/internal/logger"
)

// Ensure RetrievalTool implements the interface.
var _ driving.RetrievalTool = (*RetrievalTool)(nil)

const (
	// ToolName is the name the language model uses to call the retrieval tool.
	ToolName = "query_documents"

	// NoResultsSentinel is returned when nothing relevant is stored.
	NoResultsSentinel = "No relevant documents found in the uploaded documents."

	// ResultsHeader prefixes every non-empty tool output.
	ResultsHeader = "SEARCH RESULTS FROM UPLOADED DOCUMENTS:"

	truncationMark = "…"
)

// RetrievalTool answers document lookups for the routing agent.
type RetrievalTool struct {
	store            driving.VectorStore
	topK             int
	maxContextLength int
}

// NewRetrievalTool creates a retrieval tool over the vector store.
func NewRetrievalTool(store driving.VectorStore, topK, maxContextLength int) *RetrievalTool {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	if maxContextLength <= 0 {
		maxContextLength = domain.DefaultMaxContextLength
	}
	return &RetrievalTool{store: store, topK: topK, maxContextLength: maxContextLength}
}

// Definition returns the tool signature declared to the model.
func (t *RetrievalTool) Definition() driven.ToolDefinition {
	return driven.ToolDefinition{
		Name: ToolName,
		Description: "Search the uploaded PDF documents for passages relevant to a question. " +
			"Use it whenever the user asks about content, people or topics that may appear in the documents.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query, phrased as the information to look for.",
				},
			},
			"required": []string{"query"},
		},
	}
}

// QueryDocuments returns attributed passages for the query, or NoResultsSentinel.
func (t *RetrievalTool) QueryDocuments(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: empty query", domain.ErrToolInvocationFailure)
	}

	hits, err := t.store.Query(ctx, query, t.topK)
	if errors.Is(err, domain.ErrEmptyIndex) {
		logger.Debug("Retrieval on empty store")
		return NoResultsSentinel, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrToolInvocationFailure, err)
	}
	if len(hits) == 0 {
		return NoResultsSentinel, nil
	}

	logger.Debug("Retrieval returned %d hits", len(hits))
	return ResultsHeader + "\n\n" + FormatHits(hits, t.maxContextLength), nil
}

// FormatHits renders hits as attributed passages separated by blank lines,
// truncated to maxLen characters. A truncated result ends with an ellipsis.
func FormatHits(hits []domain.RetrievalHit, maxLen int) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = fmt.Sprintf("[source: %s, chunk %d]: %s", h.DocumentName, h.Position+1, h.Content)
	}
	return truncate(strings.Join(parts, "\n\n"), maxLen)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	mark := []rune(truncationMark)
	if maxLen <= len(mark) {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-len(mark)]) + truncationMark
}
