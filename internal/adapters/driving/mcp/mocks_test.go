package mcp

import (
	"context"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
)

// mockRetrievalTool is a mock implementation of driving.RetrievalTool.
type mockRetrievalTool struct {
	context string
	err     error
	queries []string
}

func (m *mockRetrievalTool) Definition() driven.ToolDefinition {
	return driven.ToolDefinition{Name: "query_documents", Description: "Search the uploaded documents"}
}

func (m *mockRetrievalTool) QueryDocuments(_ context.Context, query string) (string, error) {
	m.queries = append(m.queries, query)
	return m.context, m.err
}

// mockAgent is a mock implementation of driving.ChatAgent.
type mockAgent struct {
	answer  *domain.Answer
	err     error
	history []driven.ChatMessage
	message string
}

func (m *mockAgent) Ask(_ context.Context, history []driven.ChatMessage, message string) (*domain.Answer, error) {
	m.history = history
	m.message = message
	return m.answer, m.err
}

func (m *mockAgent) State() domain.AgentState { return domain.AgentIdle }

// mockVectorStore is a mock implementation of driving.VectorStore.
type mockVectorStore struct {
	stats domain.IndexStats
	docs  []domain.Document
	err   error
}

func (m *mockVectorStore) IsDuplicate(_ context.Context, _ domain.Fingerprint) (bool, error) {
	return false, m.err
}

func (m *mockVectorStore) Ingest(
	_ context.Context, _ string, _ []string, _ domain.Fingerprint,
) (driving.IngestResult, error) {
	return driving.IngestResult{}, m.err
}

func (m *mockVectorStore) Query(_ context.Context, _ string, _ int) ([]domain.RetrievalHit, error) {
	return nil, m.err
}

func (m *mockVectorStore) Stats(_ context.Context) (domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockVectorStore) Documents(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockVectorStore) Reset(_ context.Context) error {
	return m.err
}
