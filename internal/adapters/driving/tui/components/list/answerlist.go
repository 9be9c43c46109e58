// Package list provides list display components for the chat TUI.
package list

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/styles"
)

// linesPerEntry is the rendered height of one exchange.
const linesPerEntry = 3

// AnswerList displays the question history, newest last.
type AnswerList struct {
	entries  []messages.Exchange
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewAnswerList creates an empty history list.
func NewAnswerList(s *styles.Styles) *AnswerList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &AnswerList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (a *AnswerList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (a *AnswerList) Update(msg tea.Msg) (*AnswerList, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	switch keyMsg.String() {
	case "up", "k":
		a.MoveUp()
	case "down", "j":
		a.MoveDown()
	}
	return a, nil
}

// View renders the visible window of exchanges.
func (a *AnswerList) View() string {
	if len(a.entries) == 0 {
		return a.styles.Muted.Render("No questions asked yet")
	}

	lines := make([]string, 0, len(a.entries)*linesPerEntry+2)
	lines = append(lines, a.styles.Subtitle.Render(fmt.Sprintf("Answers (%d)", len(a.entries))), "")

	visible := (a.height - 2) / linesPerEntry
	if visible < 1 {
		visible = 1
	}
	start := 0
	if a.selected >= visible {
		start = a.selected - visible + 1
	}
	end := start + visible
	if end > len(a.entries) {
		end = len(a.entries)
	}

	for i := start; i < end; i++ {
		lines = append(lines, a.renderEntry(i, a.entries[i]))
	}
	return strings.Join(lines, "\n")
}

func (a *AnswerList) renderEntry(index int, e messages.Exchange) string {
	indicator := "  "
	if index == a.selected {
		indicator = "> "
	}

	question := truncate(e.Question, a.width-6)
	var head string
	if index == a.selected {
		head = a.styles.Selected.Render(indicator + question)
	} else {
		head = a.styles.Question.Render(indicator + question)
	}

	if e.Failed() {
		msg := "no answer"
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return head + "\n" + a.styles.Error.Render("    Error: "+truncate(msg, a.width-12))
	}

	body := a.styles.Answer.Render("  " + truncate(firstLine(e.Answer.Text), a.width-8))
	cites := make([]string, 0, len(e.Answer.SupportingClauses))
	for _, c := range e.Answer.SupportingClauses {
		cites = append(cites, fmt.Sprintf("CLAUSE_%d", c.Number))
	}
	meta := "    " + a.styles.Muted.Render(e.Answer.Duration.Round(time.Millisecond).String())
	if len(cites) > 0 {
		meta += "  " + a.styles.Clause.Render(strings.Join(cites, " "))
	}
	return head + "\n" + body + "\n" + meta
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, limit int) string {
	if limit < 10 {
		limit = 10
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// Append adds an exchange and selects it.
func (a *AnswerList) Append(e messages.Exchange) {
	a.entries = append(a.entries, e)
	a.selected = len(a.entries) - 1
}

// Entries returns the history.
func (a *AnswerList) Entries() []messages.Exchange {
	return a.entries
}

// Selected returns the index of the selected exchange.
func (a *AnswerList) Selected() int {
	return a.selected
}

// SetSelected sets the selected index if it is in range.
func (a *AnswerList) SetSelected(index int) {
	if index >= 0 && index < len(a.entries) {
		a.selected = index
	}
}

// SelectedEntry returns the selected exchange, or nil if the list is empty.
func (a *AnswerList) SelectedEntry() *messages.Exchange {
	if a.selected < 0 || a.selected >= len(a.entries) {
		return nil
	}
	return &a.entries[a.selected]
}

// MoveUp moves selection up.
func (a *AnswerList) MoveUp() {
	if a.selected > 0 {
		a.selected--
	}
}

// MoveDown moves selection down.
func (a *AnswerList) MoveDown() {
	if a.selected < len(a.entries)-1 {
		a.selected++
	}
}

// SetDimensions sets the component dimensions.
func (a *AnswerList) SetDimensions(width, height int) {
	a.width = width
	a.height = height
}

// Count returns the number of exchanges.
func (a *AnswerList) Count() int {
	return len(a.entries)
}

// IsEmpty returns whether the list is empty.
func (a *AnswerList) IsEmpty() bool {
	return len(a.entries) == 0
}

// Clear removes all exchanges.
func (a *AnswerList) Clear() {
	a.entries = nil
	a.selected = 0
}
