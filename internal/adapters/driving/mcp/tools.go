package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

// QueryInput is the input schema for the query_documents tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the search query to find relevant information in the documents"`
}

// QueryOutput is the output schema for the query_documents tool.
type QueryOutput struct {
	Context string `json:"context"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string        `json:"question" jsonschema:"the question to answer"`
	History  []HistoryTurn `json:"history,omitempty" jsonschema:"earlier turns of the conversation, oldest first"`
}

// HistoryTurn is one earlier message in an ask conversation.
type HistoryTurn struct {
	Role    string `json:"role" jsonschema:"user or assistant"`
	Content string `json:"content"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer          string `json:"answer"`
	Route           string `json:"route"`
	Query           string `json:"query,omitempty"`
	RetrievalFailed bool   `json:"retrieval_failed,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	def := s.ports.Retrieval.Definition()
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        def.Name,
		Description: def.Description,
	}, s.handleQueryDocuments)

	if s.ports.Agent != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Ask a question; the assistant searches the documents when the question needs them",
		}, s.handleAsk)
	}
}

// handleQueryDocuments handles the query_documents tool invocation.
func (s *Server) handleQueryDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, QueryOutput{}, errors.New("query must not be empty")
	}

	text, err := s.ports.Retrieval.QueryDocuments(ctx, input.Query)
	if err != nil {
		return nil, QueryOutput{}, err
	}
	return nil, QueryOutput{Context: text}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errors.New("question must not be empty")
	}

	history := make([]driven.ChatMessage, 0, len(input.History))
	for _, turn := range input.History {
		role := driven.RoleUser
		if strings.EqualFold(turn.Role, driven.RoleAssistant) {
			role = driven.RoleAssistant
		}
		history = append(history, driven.ChatMessage{Role: role, Content: turn.Content})
	}

	answer, err := s.ports.Agent.Ask(ctx, history, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:          answer.Text,
		Route:           string(answer.Route),
		Query:           answer.Query,
		RetrievalFailed: answer.RetrievalFailed,
	}, nil
}
