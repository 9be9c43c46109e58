// Package tui provides an interactive terminal chat over one policy document.
// It is a driving adapter over the core answer and settings services.
package tui

import (
	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Answer generates answers. Required.
	Answer driving.AnswerService

	// Documents preloads the chunk store. Optional.
	Documents driving.DocumentService

	// Settings backs the settings view. Optional.
	Settings driving.SettingsService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}

// Session is the document and retrieval overrides a chat runs with.
type Session struct {
	Document string
	Options  domain.RetrievalOptions
}

// Validate ensures a document is set and the options are usable.
func (s Session) Validate() error {
	if s.Document == "" {
		return ErrMissingDocument
	}
	return s.Options.Validate()
}
