package chat

import "errors"

var (
	// ErrNoAgent is returned when a message is sent without a chat agent.
	ErrNoAgent = errors.New("chat agent not available")

	// ErrNoStore is returned by /stats without a vector store.
	ErrNoStore = errors.New("document store not available")
)
