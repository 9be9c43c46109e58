// Package status provides the status bar for the chat TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateAnswering State = "answering"
	StateError     State = "error"
	StateHelp      State = "help"
	StateHistory   State = "history"
)

// Bar displays the document, application state and keybinding hints.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	document    string
	strategy    string
	answerCount int
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the bar is driven through its setters.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var state string
	switch s.state {
	case StateAnswering:
		state = s.styles.Warning.Render("Answering...")
	case StateError:
		if s.message != "" {
			state = s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		} else {
			state = s.styles.Error.Render("Error")
		}
	case StateHelp:
		state = s.styles.Normal.Render("Help")
	case StateReady, StateHistory:
		if s.answerCount > 0 {
			state = s.styles.Normal.Render(fmt.Sprintf("%d answered", s.answerCount))
		} else {
			state = s.styles.Muted.Render("Ready")
		}
	default:
		state = s.styles.Muted.Render("Ready")
	}

	var ctx []string
	if s.document != "" {
		ctx = append(ctx, s.document)
	}
	if s.strategy != "" {
		ctx = append(ctx, s.strategy)
	}
	if len(ctx) == 0 {
		return state
	}
	return state + s.styles.Muted.Render("  ["+strings.Join(ctx, " · ")+"]")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateHistory && s.answerCount > 0 {
		bindings = s.keymap.HistoryHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetDocument sets the document label.
func (s *Bar) SetDocument(document string) {
	s.document = document
}

// SetStrategy sets the active strategy name.
func (s *Bar) SetStrategy(strategy string) {
	s.strategy = strategy
}

// Strategy returns the displayed strategy name.
func (s *Bar) Strategy() string {
	return s.strategy
}

// SetAnswerCount sets the number of answered questions.
func (s *Bar) SetAnswerCount(count int) {
	s.answerCount = count
}

// AnswerCount returns the number of answered questions.
func (s *Bar) AnswerCount() int {
	return s.answerCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets state, message and count. The document and strategy stay.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.answerCount = 0
}
