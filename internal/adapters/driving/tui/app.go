package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/views/passages"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// App is the chat TUI following the Elm architecture.
type App struct {
	ports   *Ports
	session Session
	ctx     context.Context
	styles  *styles.Styles

	menuView     *menu.View
	chatView     *chat.View
	passagesView *passages.View
	settingsView *settings.View

	currentView messages.ViewType
	document    *domain.DocumentInfo
	err         error

	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates the TUI for one document.
func NewApp(ports *Ports, session Session) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	chatView := chat.NewView(s, nil, ports.Answer, session.Document)
	chatView.SetOptions(session.Options)

	return &App{
		ports:        ports,
		session:      session,
		ctx:          context.Background(),
		styles:       s,
		menuView:     menu.NewView(s, session.Document),
		chatView:     chatView,
		passagesView: passages.NewView(s),
		settingsView: settings.NewView(s, ports.Settings),
		currentView:  messages.ViewMenu,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("policyqa - " + a.session.Document),
	}
	if a.ports.Documents != nil {
		cmds = append(cmds, a.loadDocument())
	}
	return tea.Batch(cmds...)
}

func (a *App) loadDocument() tea.Cmd {
	docs, ctx, uri := a.ports.Documents, a.ctx, a.session.Document
	return func() tea.Msg {
		info, err := docs.Load(ctx, uri)
		return messages.DocumentLoaded{Info: info, Err: err}
	}
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.routeKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewChat:
			return a, a.chatView.Init()
		case messages.ViewSettings:
			a.settingsView.Reset()
			return a, a.settingsView.Init()
		case messages.ViewMenu, messages.ViewPassages, messages.ViewHelp:
		}
		return a, nil

	case messages.AnswerCompleted:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.AnswerSelected:
		a.passagesView.SetEntry(msg.Entry)
		a.currentView = messages.ViewPassages
		return a, nil

	case messages.DocumentLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.chatView, cmd = a.chatView.Update(messages.ErrorOccurred{Err: msg.Err})
			return a, cmd
		}
		info := msg.Info
		a.document = &info
		return a, nil

	case messages.StrategyChanged:
		if msg.Err == nil {
			opts := a.chatView.Options()
			opts.Strategy = msg.Strategy
			a.chatView.SetOptions(opts)
		}
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewChat {
			a.chatView, cmd = a.chatView.Update(msg)
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewPassages:
		a.passagesView, cmd = a.passagesView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

func (a *App) routeKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewPassages:
		a.passagesView, cmd = a.passagesView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewPassages:
		return a.passagesView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	doc := a.session.Document
	if a.document != nil {
		doc = fmt.Sprintf("%s (%d chunks, %s)", a.document.URI, a.document.ChunkCount, a.document.Model)
	}
	return a.styles.Title.Render("Help") + `

Document: ` + doc + `

Navigation:
  esc         Back
  ctrl+c      Quit

Ask:
  (type)      Enter a question
  enter       Ask
  j/k, ↑/↓    Browse answers
  enter       Show cited clauses and scores
  n           New question

Clauses:
  j/k, ↑/↓    Scroll
  g/G         Top/bottom

[esc] back to menu`
}

// Run starts the TUI.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Document returns the loaded document, or nil before it is built.
func (a *App) Document() *domain.DocumentInfo {
	return a.document
}

// History returns the answered questions.
func (a *App) History() []messages.Exchange {
	return a.chatView.History()
}

// Options returns the retrieval overrides sent with questions.
func (a *App) Options() domain.RetrievalOptions {
	return a.chatView.Options()
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.passagesView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
