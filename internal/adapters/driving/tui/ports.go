// Package tui provides the interactive chat interface for pdfchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driving"
)

// Ports aggregates the services the TUI talks to.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Agent answers chat messages.
	Agent driving.ChatAgent

	// Store lists documents and counts. Optional.
	Store driving.VectorStore

	// Prompts is reloaded by the /reload command. Optional.
	Prompts driven.PromptStore

	// Settings backs the configuration view. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(agent driving.ChatAgent, store driving.VectorStore) *Ports {
	return &Ports{
		Agent: agent,
		Store: store,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Agent == nil {
		return ErrMissingAgent
	}
	return nil
}
