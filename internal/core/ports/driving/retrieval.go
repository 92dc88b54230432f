package driving

import (
	"context"

	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

// RetrievalTool is the document lookup the chat agent can call.
type RetrievalTool interface {
	// Definition returns the tool signature declared to the model.
	Definition() driven.ToolDefinition

	// QueryDocuments returns attributed context for the query.
	// An empty store or empty result yields the no-results sentinel, not an error.
	QueryDocuments(ctx context.Context, query string) (string, error)
}
