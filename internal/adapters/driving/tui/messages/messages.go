// Package messages defines Bubbletea message types for the chat TUI.
package messages

import (
	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// QuestionSubmitted is sent when the user asks a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerCompleted carries a generated answer, or the reason it failed.
type AnswerCompleted struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// AnswerSelected opens the passages behind an answer.
type AnswerSelected struct {
	Entry Exchange
}

// Exchange is one question with its outcome.
type Exchange struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// Failed returns true if the question produced no answer.
func (e Exchange) Failed() bool {
	return e.Err != nil || e.Answer == nil
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the question input and answer history.
	ViewChat
	// ViewPassages shows the clauses and scores behind one answer.
	ViewPassages
	// ViewSettings shows the active configuration.
	ViewSettings
	// ViewHelp is the keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewPassages:
		return "passages"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// StrategyChanged signals the retrieval strategy was switched.
type StrategyChanged struct {
	Strategy string
	Err      error
}

// SettingsSaved signals a settings change was persisted.
type SettingsSaved struct {
	Err error
}

// DocumentLoaded reports the chunk store built for the session document.
type DocumentLoaded struct {
	Info domain.DocumentInfo
	Err  error
}
