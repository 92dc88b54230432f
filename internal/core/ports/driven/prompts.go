package driven

// PromptStore serves prompt templates that users may edit.
type PromptStore interface {
	// Load returns the named template. Unknown names are an error.
	Load(name string) (string, error)

	// Reload drops cached templates so edits on disk are picked up.
	Reload()
}

// Prompt names understood by the routing agent.
const (
	// PromptRoutingSystem is the system instruction for every chat turn.
	PromptRoutingSystem = "routing_system"

	// PromptRetrievalFailed is added when the document tool fails.
	// It carries one %s for the failure message.
	PromptRetrievalFailed = "retrieval_failed"
)
