package cli

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

func TestAskCmd_PrintsAnswer(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute("", "ask", "Hello,", "how", "are", "you?")

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello, how are you?"}, env.agent.messages)
	assert.Empty(t, env.agent.histories[0])
	assert.Contains(t, out, "answer to Hello, how are you?")
	assert.NotContains(t, out, "route:")
}

func TestAskCmd_ShowsRoute(t *testing.T) {
	env := setupTestServices(t)
	env.agent.AskFunc = func([]driven.ChatMessage, string) (*domain.Answer, error) {
		return &domain.Answer{
			Text:      "Run the installer.",
			Route:     domain.RouteRetrieve,
			ToolCalls: 1,
			Query:     "installation",
		}, nil
	}

	out, err := execute("", "ask", "--route", "How do I install it?")

	require.NoError(t, err)
	assert.Contains(t, out, "Run the installer.")
	assert.Contains(t, out, "route: retrieve")
	assert.Contains(t, out, "searched: installation")
}

func TestAskCmd_RetrievalFailedWarning(t *testing.T) {
	env := setupTestServices(t)
	env.agent.AskFunc = func([]driven.ChatMessage, string) (*domain.Answer, error) {
		return &domain.Answer{Text: "Best guess.", Route: domain.RouteRetrieve, RetrievalFailed: true}, nil
	}

	out, err := execute("", "ask", "--route", "q")

	require.NoError(t, err)
	assert.Contains(t, out, "document search failed")
}

func TestAskCmd_ModelErrorPrintsApology(t *testing.T) {
	env := setupTestServices(t)
	env.agent.AskFunc = func([]driven.ChatMessage, string) (*domain.Answer, error) {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrModelUnavailable)
	}

	out, err := execute("", "ask", "hello")

	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Contains(t, out, "I apologize, but I encountered an error: language model unavailable: connection refused")
}

func TestAskCmd_EmptyQuestion(t *testing.T) {
	env := setupTestServices(t)

	_, err := execute("", "ask", "   ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be empty")
	assert.Zero(t, env.opens)
}
