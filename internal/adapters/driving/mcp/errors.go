// Package mcp provides an MCP (Model Context Protocol) server adapter for pdfchat.
// It lets AI assistants search the ingested documents and ask the chat agent.
package mcp

import "errors"

// ErrMissingRetrievalTool is returned when the retrieval tool is not provided.
var ErrMissingRetrievalTool = errors.New("mcp: retrieval tool is required")
