package mcp

import (
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Answer generates cited answers.
	Answer driving.AnswerService

	// Retrieval selects passages without calling the LLM.
	Retrieval driving.RetrievalService

	// Documents exposes the loaded chunk stores. Optional.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
