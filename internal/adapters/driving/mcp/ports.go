package mcp

import (
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers query_documents calls.
	Retrieval driving.RetrievalTool

	// Agent answers ask calls. Optional; the tool is not registered without it.
	Agent driving.ChatAgent

	// Store backs the stats and documents resources. Optional.
	Store driving.VectorStore

	// Info describes the running configuration for the stats resource.
	Info Info
}

// Info is static configuration reported alongside index statistics.
type Info struct {
	LLMModel       string `json:"llm_model"`
	EmbeddingModel string `json:"embedding_model"`
	Storage        string `json:"storage"`
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalTool
	}
	return nil
}
