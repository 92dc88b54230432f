package driven

import (
	"context"

	"github.com/infinitegrit26/ACD2/internal/core/domain"
)

// RouteClassifier decides whether a chat turn needs the retrieval tool.
// The default implementation delegates the choice to the language model.
type RouteClassifier interface {
	// Decide returns a DirectDecision or a RetrieveDecision for the conversation.
	Decide(ctx context.Context, messages []ChatMessage, tool ToolDefinition) (domain.Decision, error)
}
