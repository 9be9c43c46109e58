// Package mcp provides an MCP (Model Context Protocol) server adapter for policyqa.
// It lets AI assistants answer questions about policy documents and inspect
// the passages the retriever selects.
package mcp

import "errors"

var (
	// ErrMissingAnswerService is returned when the answer service is not provided.
	ErrMissingAnswerService = errors.New("mcp: answer service is required")

	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
)
