// Package passages shows the clauses and scores behind one answer.
package passages

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/policyqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// reservedLines covers the title, separator and help footer.
const reservedLines = 6

// View is a scrollable report of one answer's retrieval.
type View struct {
	styles *styles.Styles

	entry        *messages.Exchange
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
}

// NewView creates a new passages view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, width: 80, height: 24}
}

// SetEntry replaces the displayed exchange and scrolls to the top.
func (v *View) SetEntry(e messages.Exchange) {
	v.entry = &e
	v.scrollOffset = 0
	v.render()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the passages view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChat}
		}
	}
	return v, nil
}

// render lays the report out as pre-styled, width-wrapped lines.
func (v *View) render() {
	v.lines = nil
	if v.entry == nil || v.entry.Answer == nil {
		return
	}
	a := v.entry.Answer
	width := max(v.width-4, 20)

	v.add(v.styles.Subtitle.Render("Answer"))
	for _, l := range wrap(a.Text, width) {
		v.add(v.styles.Answer.Render(l))
	}
	if a.Model != "" {
		v.add(v.styles.Muted.Render(fmt.Sprintf("  %s in %s", a.Model, a.Duration.Round(time.Millisecond))))
	}
	v.add("")

	if len(a.SupportingClauses) > 0 {
		v.add(v.styles.Subtitle.Render("Cited clauses"))
		for _, c := range a.SupportingClauses {
			line := v.styles.Clause.Render(fmt.Sprintf("CLAUSE_%d", c.Number)) +
				v.styles.Muted.Render(fmt.Sprintf("  chunk %d  %s", c.ChunkIndex, c.Section))
			v.add("  " + line)
		}
		v.add("")
	}

	if a.Selection == nil {
		return
	}
	ex := a.Selection.Explanation
	v.add(v.styles.Subtitle.Render("Selection"))
	v.add(v.styles.Normal.Render(fmt.Sprintf("  strategy %s  complexity %s", ex.Strategy, ex.Complexity)))
	if len(ex.Keywords) > 0 {
		v.add(v.styles.Normal.Render("  keywords " + strings.Join(ex.Keywords, ", ")))
	}
	v.add(v.styles.Normal.Render(fmt.Sprintf("  %d of %d candidates, target %d, floor %.2f",
		ex.SelectedCount, ex.CandidateCount, ex.TargetCount, ex.FloorScore)))
	v.add(v.styles.Normal.Render(fmt.Sprintf("  ~%d tokens vs %d baseline (%.0f%% saved)",
		ex.SelectedTokens, ex.BaselineTokens, ex.TokenSavingsPercent)))
	v.add("")

	for i, sc := range a.Selection.Selected {
		header := v.styles.Clause.Render(fmt.Sprintf("CLAUSE_%d", i+1)) + "  " +
			v.styles.Muted.Render(scoreLine(sc))
		v.add(header)
		if s := sc.Chunk.Section(); s != "" {
			v.add(v.styles.Muted.Render("  " + s))
		}
		for _, l := range wrap(sc.Chunk.Text(), width-2) {
			v.add(v.styles.Normal.Render("  " + l))
		}
		v.add("")
	}
}

func (v *View) add(line string) {
	v.lines = append(v.lines, line)
}

func scoreLine(sc domain.ScoredChunk) string {
	out := fmt.Sprintf("chunk %d  score %.3f (sem %.3f kw %.3f struct %.3f)",
		sc.Chunk.Index(), sc.Score.Composite, sc.Score.Semantic, sc.Score.Keyword, sc.Score.Structural)
	if len(sc.MatchedCategories) > 0 {
		out += "  " + strings.Join(sc.MatchedCategories, ",")
	}
	return out
}

// wrap breaks text on word boundaries to fit width.
func wrap(text string, width int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len([]rune(line))+1+len([]rune(w)) > width {
				out = append(out, line)
				line = w
				continue
			}
			line += " " + w
		}
		out = append(out, line)
	}
	return out
}

func (v *View) visibleLines() int {
	return max(v.height-reservedLines, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the passages view.
func (v *View) View() string {
	var b strings.Builder

	title := "Passages"
	if v.entry != nil {
		title = v.entry.Question
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(v.width-4, 60)))
	b.WriteString("\n\n")

	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(No answer selected)"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(v.lines))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.lines[i])
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		pct := 0
		if m := v.maxScrollOffset(); m > 0 {
			pct = v.scrollOffset * 100 / m
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			pct, v.scrollOffset+1, end, len(v.lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back")
}

// SetDimensions sets the view dimensions and re-wraps the report.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.render()
}

// Entry returns the displayed exchange.
func (v *View) Entry() *messages.Exchange {
	return v.entry
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// LineCount returns the number of rendered lines.
func (v *View) LineCount() int {
	return len(v.lines)
}
