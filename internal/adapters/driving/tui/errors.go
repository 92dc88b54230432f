package tui

import "errors"

var (
	// ErrInvalidPorts is returned for a nil Ports.
	ErrInvalidPorts = errors.New("tui: no ports given")

	// ErrMissingAgent is returned when Ports has no chat agent.
	ErrMissingAgent = errors.New("tui: chat agent is required")
)
