// Package settings provides the settings view for the chat TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/policyqa/internal/core/domain"
	"github.com/custodia-labs/policyqa/internal/core/ports/driving"
)

// ErrNoSettingsService is returned when the view has no settings service.
var ErrNoSettingsService = errors.New("settings service not available")

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionStrategy
	SectionEmbedding
	SectionLLM
)

const (
	keyDown  = "down"
	keyEnter = "enter"
	keyTab   = "tab"
)

// overviewItems is the number of editable rows on the overview.
const overviewItems = 3

// providerPicker is a provider list with an optional API key field.
type providerPicker struct {
	title     string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	apiKey    textinput.Model
}

func newProviderPicker(title string, providers []domain.AIProvider, models map[domain.AIProvider]string) providerPicker {
	in := textinput.New()
	in.Placeholder = "Enter API key"
	in.EchoMode = textinput.EchoPassword
	in.CharLimit = 256
	return providerPicker{title: title, providers: providers, models: models, apiKey: in}
}

func (p providerPicker) indexOf(current domain.AIProvider) int {
	for i, pr := range p.providers {
		if pr == current {
			return i
		}
	}
	return 0
}

// View is the settings view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	err      error

	section    Section
	selected   int
	keyFocused bool
	strategies []string
	embedding  providerPicker
	llm        providerPicker

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:          s,
		settingsService: settingsService,
		section:         SectionOverview,
		strategies:      domain.StrategyNames(),
		embedding: newProviderPicker("Select Embedding Provider",
			domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels()),
		llm: newProviderPicker("Select LLM Provider",
			domain.AllLLMProviders(), domain.DefaultLLMModels()),
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.settings = msg.Settings
		}
		return v, nil

	case messages.SettingsSaved:
		v.err = msg.Err
		if msg.Err != nil {
			return v, nil
		}
		v.backToOverview()
		return v, v.loadSettings()

	case messages.StrategyChanged:
		v.err = msg.Err
		if msg.Err == nil {
			v.backToOverview()
			return v, v.loadSettings()
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.backToOverview()
		return v, nil
	}

	switch v.section {
	case SectionOverview:
		return v.handleOverviewKeys(msg)
	case SectionStrategy:
		return v.handleStrategyKeys(msg)
	case SectionEmbedding:
		return v.handleProviderKeys(msg, &v.embedding, v.setEmbeddingProvider)
	case SectionLLM:
		return v.handleProviderKeys(msg, &v.llm, v.setLLMProvider)
	}
	return v, nil
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < overviewItems-1 {
			v.selected++
		}
	case keyEnter:
		switch v.selected {
		case 0:
			v.section = SectionStrategy
			v.selected = v.strategyIndex()
		case 1:
			v.section = SectionEmbedding
			if v.settings != nil {
				v.selected = v.embedding.indexOf(v.settings.Embedding.Provider)
			}
		case 2:
			v.section = SectionLLM
			if v.settings != nil {
				v.selected = v.llm.indexOf(v.settings.LLM.Provider)
			}
		}
	}
	return v, nil
}

func (v *View) handleStrategyKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(v.strategies)-1 {
			v.selected++
		}
	case keyEnter:
		if v.selected >= 0 && v.selected < len(v.strategies) {
			return v, v.setStrategy(v.strategies[v.selected])
		}
	}
	return v, nil
}

func (v *View) handleProviderKeys(
	msg tea.KeyMsg,
	picker *providerPicker,
	save func(domain.AIProvider, string) tea.Cmd,
) (*View, tea.Cmd) {
	inRange := v.selected >= 0 && v.selected < len(picker.providers)

	if v.keyFocused {
		switch msg.String() {
		case keyTab, "shift+tab":
			v.keyFocused = false
			picker.apiKey.Blur()
		case keyEnter:
			if inRange {
				return v, save(picker.providers[v.selected], picker.apiKey.Value())
			}
		default:
			var cmd tea.Cmd
			picker.apiKey, cmd = picker.apiKey.Update(msg)
			return v, cmd
		}
		return v, nil
	}

	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(picker.providers)-1 {
			v.selected++
		}
	case keyTab, keyEnter:
		if !inRange {
			return v, nil
		}
		provider := picker.providers[v.selected]
		if provider.RequiresAPIKey() {
			v.keyFocused = true
			return v, picker.apiKey.Focus()
		}
		if msg.String() == keyEnter {
			return v, save(provider, "")
		}
	}
	return v, nil
}

func (v *View) setStrategy(name string) tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.StrategyChanged{Strategy: name, Err: ErrNoSettingsService}
		}
		return messages.StrategyChanged{Strategy: name, Err: svc.SetStrategy(name)}
	}
}

func (v *View) setEmbeddingProvider(provider domain.AIProvider, apiKey string) tea.Cmd {
	svc := v.settingsService
	model := v.embedding.models[provider]
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Err: svc.SetEmbeddingProvider(provider, model, apiKey)}
	}
}

func (v *View) setLLMProvider(provider domain.AIProvider, apiKey string) tea.Cmd {
	svc := v.settingsService
	model := v.llm.models[provider]
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Err: svc.SetLLMProvider(provider, model, apiKey)}
	}
}

func (v *View) backToOverview() {
	v.section = SectionOverview
	v.selected = 0
	v.keyFocused = false
	for _, p := range []*providerPicker{&v.embedding, &v.llm} {
		p.apiKey.SetValue("")
		p.apiKey.Blur()
	}
}

func (v *View) strategyIndex() int {
	if v.settings == nil {
		return 0
	}
	for i, s := range v.strategies {
		if s == v.settings.Retrieval.Strategy {
			return i
		}
	}
	return 0
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	switch v.section {
	case SectionOverview:
		b.WriteString(v.renderOverview())
	case SectionStrategy:
		b.WriteString(v.renderStrategySelect())
	case SectionEmbedding:
		b.WriteString(v.renderProviderSelect(&v.embedding, v.settings.Embedding.Provider))
	case SectionLLM:
		b.WriteString(v.renderProviderSelect(&v.llm, v.settings.LLM.Provider))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder

	strategy := v.settings.Retrieval.Strategy
	if v.settings.Retrieval.StrategyFile != "" {
		strategy += " (" + v.settings.Retrieval.StrategyFile + ")"
	}

	items := []struct {
		label      string
		value      string
		configured bool
		showStatus bool
	}{
		{label: "Retrieval Strategy", value: strategy},
		{
			label:      "Embedding Provider",
			value:      providerValue(v.settings.Embedding.Provider, v.settings.Embedding.Model),
			configured: v.settings.Embedding.IsConfigured(),
			showStatus: true,
		},
		{
			label:      "LLM Provider",
			value:      providerValue(v.settings.LLM.Provider, v.settings.LLM.Model),
			configured: v.settings.LLM.IsConfigured(),
			showStatus: true,
		},
	}

	for i, item := range items {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}
		line := fmt.Sprintf("%s%s: %s", indicator, item.label, item.value)
		if i == v.selected {
			line = v.styles.Selected.Render(line)
		} else {
			line = v.styles.Normal.Render(line)
		}
		if item.showStatus {
			if item.configured {
				line += " " + v.styles.Success.Render("[configured]")
			} else {
				line += " " + v.styles.Warning.Render("[not configured]")
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	opts := v.settings.Retrieval.Options
	if opts.BasePoolSize > 0 || opts.RelevanceFloor != nil || opts.Weights != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Overrides: pool=%d", opts.BasePoolSize)))
		if opts.RelevanceFloor != nil {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf(" floor=%.2f", *opts.RelevanceFloor)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.settingsService != nil {
		if err := v.settingsService.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Warning: %s", err.Error())))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
	}
	return b.String()
}

func providerValue(p domain.AIProvider, model string) string {
	if p == "" {
		return "Not Set"
	}
	return fmt.Sprintf("%s (%s)", p.Description(), model)
}

func (v *View) renderStrategySelect() string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render("Select Retrieval Strategy"))
	b.WriteString("\n\n")

	for i, name := range v.strategies {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}
		current := ""
		if name == v.settings.Retrieval.Strategy {
			current = v.styles.Success.Render(" (current)")
		}
		label := indicator + name
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(label) + current)
		} else {
			b.WriteString(v.styles.Normal.Render(label) + current)
		}
		b.WriteString("\n")

		if cfg, err := domain.Strategy(name); err == nil {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("    %d categories, pool %d, floor %.2f",
				len(cfg.Taxonomy), cfg.BasePoolSize, cfg.RelevanceFloor)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (v *View) renderProviderSelect(picker *providerPicker, current domain.AIProvider) string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render(picker.title))
	b.WriteString("\n\n")

	for i, provider := range picker.providers {
		highlighted := i == v.selected && !v.keyFocused
		indicator := "  "
		if highlighted {
			indicator = "> "
		}
		suffix := ""
		if provider == current {
			suffix = v.styles.Success.Render(" (current)")
		}
		label := indicator + provider.Description()
		if highlighted {
			b.WriteString(v.styles.Selected.Render(label) + suffix)
		} else {
			b.WriteString(v.styles.Normal.Render(label) + suffix)
		}
		b.WriteString("\n")
		if model, ok := picker.models[provider]; ok {
			b.WriteString(v.styles.Muted.Render("    Model: " + model))
			b.WriteString("\n")
		}
	}

	if v.selected >= 0 && v.selected < len(picker.providers) && picker.providers[v.selected].RequiresAPIKey() {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render("API Key:"))
		b.WriteString("\n")
		b.WriteString(picker.apiKey.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderHelp() string {
	switch v.section {
	case SectionOverview:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [esc] back")
	case SectionStrategy:
		return v.styles.Help.Render("[j/k] navigate  [enter] select  [esc] back")
	case SectionEmbedding, SectionLLM:
		if v.keyFocused {
			return v.styles.Help.Render("[tab] back to list  [enter] save  [esc] back")
		}
		return v.styles.Help.Render("[j/k] navigate  [tab] API key  [enter] select  [esc] back")
	default:
		return ""
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Reset returns to the overview and clears errors.
func (v *View) Reset() {
	v.backToOverview()
	v.err = nil
}
