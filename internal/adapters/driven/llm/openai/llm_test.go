package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/adapters/driven/ratelimit"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

var queryTool = driven.ToolDefinition{
	Name:        "query_documents",
	Description: "Search uploaded documents.",
	Parameters: map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []string{"query"},
	},
}

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: server.URL, RateLimit: &ratelimit.Local})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	svc, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestChat_TextReply(t *testing.T) {
	var got map[string]any
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"I'm doing well!"},"finish_reason":"stop"}]}`))
	})

	resp, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "rules"},
		{Role: driven.RoleUser, Content: "Hello, how are you?"},
	}, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "I'm doing well!", resp.Content)
	assert.False(t, resp.HasToolCalls())
	_, hasTools := got["tools"]
	assert.False(t, hasTools, "no tools offered")
	assert.Len(t, got["messages"], 2)
}

func TestChat_ToolCallReply(t *testing.T) {
	var got chatCompletionRequest
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[
			{"id":"call_abc","type":"function","function":{"name":"query_documents","arguments":"{\"query\":\"installation\"}"}}
		]},"finish_reason":"tool_calls"}]}`))
	})

	resp, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleUser, Content: "What does the manual say about installation?"},
	}, driven.ChatOptions{Tools: []driven.ToolDefinition{queryTool}})

	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, driven.ToolCall{ID: "call_abc", Name: "query_documents", Arguments: `{"query":"installation"}`}, resp.ToolCalls[0])
	assert.Empty(t, resp.Content)

	require.Len(t, got.Tools, 1)
	assert.Equal(t, "function", got.Tools[0].Type)
	assert.Equal(t, "query_documents", got.Tools[0].Function.Name)
	assert.Equal(t, "auto", got.ToolChoice)
}

func TestToAPIMessages_ToolExchange(t *testing.T) {
	msgs := toAPIMessages([]driven.ChatMessage{
		{Role: driven.RoleAssistant, ToolCalls: []driven.ToolCall{{ID: "c1", Name: "query_documents", Arguments: `{"query":"q"}`}}},
		{Role: driven.RoleTool, Content: "results", ToolCallID: "c1", Name: "query_documents"},
	})

	require.Len(t, msgs, 2)
	assert.Nil(t, msgs[0].Content, "assistant tool call has null content")
	require.Len(t, msgs[0].ToolCalls, 1)
	assert.Equal(t, "c1", msgs[0].ToolCalls[0].ID)
	assert.Equal(t, "function", msgs[0].ToolCalls[0].Type)
	assert.Equal(t, "c1", msgs[1].ToolCallID)
	require.NotNil(t, msgs[1].Content)
	assert.Equal(t, "results", *msgs[1].Content)

	raw, err := json.Marshal(msgs[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"content":null`)
}

func TestChat_NoChoices(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorContains(t, err, "no response choices")
}

func TestChat_ServerErrorIsTransient(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.True(t, domain.IsTransient(err))
}

func TestChat_CancelledContext(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Chat(ctx, nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, domain.IsTransient(err))
}

func TestLLMPing(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	})
	err := svc.Ping(context.Background())
	assert.ErrorContains(t, err, "bad key")
}
