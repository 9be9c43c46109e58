// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
)

// ErrNoAnswerService is returned when the view has no answer service.
var ErrNoAnswerService = errors.New("answer service not available")

// View holds the question input, the answer history and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	history   *list.AnswerList
	statusbar *status.Bar

	answers  driving.AnswerService
	document string
	options  domain.RetrievalOptions
	ctx      context.Context

	width      int
	height     int
	ready      bool
	pending    bool
	focusInput bool
}

// NewView creates a chat view over one document.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	answers driving.AnswerService,
	document string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetDocument(document)

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		history:    list.NewAnswerList(s),
		statusbar:  bar,
		answers:    answers,
		document:   document,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context used for answer calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetOptions sets the retrieval overrides sent with each question.
func (v *View) SetOptions(opts domain.RetrievalOptions) {
	v.options = opts
	v.statusbar.SetStrategy(opts.Strategy)
}

// Options returns the retrieval overrides.
func (v *View) Options() domain.RetrievalOptions {
	return v.options
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.pending = false
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	if msg.Type == tea.KeyEnter {
		entry := v.history.SelectedEntry()
		if entry == nil || entry.Failed() {
			return v, nil
		}
		selected := *entry
		return v, func() tea.Msg {
			return messages.AnswerSelected{Entry: selected}
		}
	}

	switch msg.String() {
	case "n":
		v.focusInput = true
		v.input.Reset()
		v.statusbar.SetState(status.StateReady)
		return v, v.input.Focus()
	default:
		v.history, _ = v.history.Update(msg)
	}
	return v, nil
}

func (v *View) submit() tea.Cmd {
	question := v.input.Value()
	if question == "" || v.pending {
		return nil
	}
	v.pending = true
	v.statusbar.SetState(status.StateAnswering)
	v.input.Blur()
	return v.ask(question)
}

func (v *View) ask(question string) tea.Cmd {
	answers, ctx, uri, opts := v.answers, v.ctx, v.document, v.options
	return func() tea.Msg {
		if answers == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		answer, err := answers.AnswerOne(ctx, uri, question, opts)
		return messages.AnswerCompleted{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	v.pending = false
	v.history.Append(messages.Exchange{Question: msg.Question, Answer: msg.Answer, Err: msg.Err})
	v.statusbar.SetAnswerCount(v.history.Count())
	v.input.Reset()
	v.focusInput = false
	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(domain.ErrorKind(msg.Err))
		return
	}
	v.statusbar.SetState(status.StateHistory)
	v.statusbar.SetMessage("")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections,
		v.styles.Title.Render("PolicyQA")+"  "+v.styles.Muted.Render(v.document),
		"",
		v.input.View(),
		"",
		v.history.View(),
		"",
		v.statusbar.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.history.SetDimensions(width, height-8)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Pending returns true while a question is being answered.
func (v *View) Pending() bool {
	return v.pending
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// SetQuestion sets the typed question.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// History returns the answered questions.
func (v *View) History() []messages.Exchange {
	return v.history.Entries()
}

// SelectedIndex returns the highlighted history entry.
func (v *View) SelectedIndex() int {
	return v.history.Selected()
}

// StatusState returns the status bar state.
func (v *View) StatusState() status.State {
	return v.statusbar.State()
}

// Reset clears history and returns focus to the input.
func (v *View) Reset() {
	v.focusInput = true
	v.pending = false
	v.input.Reset()
	v.input.Focus()
	v.history.Clear()
	v.statusbar.Clear()
}
