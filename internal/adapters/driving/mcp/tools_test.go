package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

func TestServer_handleQueryDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("returns tool context", func(t *testing.T) {
		tool := &mockRetrievalTool{context: "Source: manual.pdf\n\nRun the installer."}
		server, err := NewServer(&Ports{Retrieval: tool})
		require.NoError(t, err)

		_, output, err := server.handleQueryDocuments(ctx, nil, QueryInput{Query: "installation"})

		require.NoError(t, err)
		assert.Contains(t, output.Context, "installer")
		assert.Equal(t, []string{"installation"}, tool.queries)
	})

	t.Run("rejects empty query", func(t *testing.T) {
		tool := &mockRetrievalTool{}
		server, err := NewServer(&Ports{Retrieval: tool})
		require.NoError(t, err)

		_, _, err = server.handleQueryDocuments(ctx, nil, QueryInput{Query: "  "})

		require.Error(t, err)
		assert.Empty(t, tool.queries)
	})

	t.Run("propagates tool failure", func(t *testing.T) {
		tool := &mockRetrievalTool{err: domain.ErrStorageUnavailable}
		server, err := NewServer(&Ports{Retrieval: tool})
		require.NoError(t, err)

		_, _, err = server.handleQueryDocuments(ctx, nil, QueryInput{Query: "q"})

		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("maps answer and history", func(t *testing.T) {
		agent := &mockAgent{answer: &domain.Answer{
			Text:      "Run setup.exe.",
			Route:     domain.RouteRetrieve,
			ToolCalls: 1,
			Query:     "installation steps",
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalTool{}, Agent: agent})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{
			Question: "How do I install it?",
			History: []HistoryTurn{
				{Role: "user", Content: "hi"},
				{Role: "Assistant", Content: "Hello!"},
				{Role: "system", Content: "ignored role"},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "Run setup.exe.", output.Answer)
		assert.Equal(t, "retrieve", output.Route)
		assert.Equal(t, "installation steps", output.Query)
		assert.Equal(t, "How do I install it?", agent.message)
		require.Len(t, agent.history, 3)
		assert.Equal(t, driven.RoleUser, agent.history[0].Role)
		assert.Equal(t, driven.RoleAssistant, agent.history[1].Role)
		assert.Equal(t, driven.RoleUser, agent.history[2].Role)
	})

	t.Run("propagates model failure", func(t *testing.T) {
		agent := &mockAgent{err: domain.ErrModelUnavailable}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalTool{}, Agent: agent})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "hello"})

		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("rejects empty question", func(t *testing.T) {
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalTool{}, Agent: &mockAgent{}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{})

		require.Error(t, err)
	})
}
