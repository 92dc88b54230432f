package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

func setupChat(t *testing.T) *testEnv {
	t.Helper()
	env := setupTestServices(t)
	original := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = original })
	return env
}

func TestChatCmd_LongDescription(t *testing.T) {
	assert.Contains(t, chatCmd.Long, "Controls")
	assert.Contains(t, chatCmd.Long, "/clear")
}

func TestChatCmd_REPLKeepsHistory(t *testing.T) {
	env := setupChat(t)

	out, err := execute("hello\n\nwhat is in the manual?\n/quit\nignored\n", "chat")

	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "what is in the manual?"}, env.agent.messages)
	assert.Empty(t, env.agent.histories[0])
	assert.Equal(t, []driven.ChatMessage{
		{Role: driven.RoleUser, Content: "hello"},
		{Role: driven.RoleAssistant, Content: "answer to hello"},
	}, env.agent.histories[1])
	assert.Contains(t, out, "answer to what is in the manual?")
}

func TestChatCmd_REPLClear(t *testing.T) {
	env := setupChat(t)

	out, err := execute("hello\n/clear\nagain\n", "chat")

	require.NoError(t, err)
	require.Len(t, env.agent.histories, 2)
	assert.Empty(t, env.agent.histories[1])
	assert.Contains(t, out, "Conversation cleared.")
}

func TestChatCmd_REPLFailedTurnKeepsHistory(t *testing.T) {
	env := setupChat(t)
	env.agent.AskFunc = func(_ []driven.ChatMessage, message string) (*domain.Answer, error) {
		if message == "boom" {
			return nil, errors.New("upstream 500")
		}
		return &domain.Answer{Text: "ok", Route: domain.RouteDirect}, nil
	}

	out, err := execute("boom\nnext\n", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, "I apologize, but I encountered an error: upstream 500")
	require.Len(t, env.agent.histories, 2)
	assert.Empty(t, env.agent.histories[1])
}

func TestChatCmd_REPLEndsOnEOF(t *testing.T) {
	env := setupChat(t)

	_, err := execute("", "chat")

	require.NoError(t, err)
	assert.Empty(t, env.agent.messages)
	assert.True(t, env.closed)
}

func TestChatCmd_RejectsArgs(t *testing.T) {
	setupChat(t)

	_, err := execute("", "chat", "extra")

	assert.Error(t, err)
}
