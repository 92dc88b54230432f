package driving

import (
	"context"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

// ChatAgent answers user messages, consulting the documents when needed.
type ChatAgent interface {
	// Ask runs one chat turn. History holds prior user and assistant messages.
	// Returns domain.ErrModelUnavailable when the language model fails.
	Ask(ctx context.Context, history []driven.ChatMessage, message string) (*domain.Answer, error)

	// State returns the current state of the turn state machine.
	// It follows the latest transition when several turns run at once.
	State() domain.AgentState
}
