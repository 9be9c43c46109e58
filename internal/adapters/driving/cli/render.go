package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// printer writes command output, styled only when it goes to a terminal.
type printer struct {
	w      io.Writer
	styled bool

	heading lipgloss.Style
	clause  lipgloss.Style
	muted   lipgloss.Style
	failure lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	p := &printer{
		w:       w,
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563EB")),
		clause:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.styled = true
	}
	return p
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) heading1(s string) {
	p.printf("%s\n", p.render(p.heading, s))
}

func (p *printer) answer(n int, res domain.QuestionResult, question string, explain bool) {
	p.heading1(fmt.Sprintf("Q%d: %s", n, question))
	if res.Err != nil || res.Answer == nil {
		p.printf("%s\n\n", p.render(p.failure, "Error: "+failureMessage(res)))
		return
	}

	a := res.Answer
	p.printf("%s\n", a.Text)
	if len(a.SupportingClauses) > 0 {
		p.printf("\n")
		for _, ref := range a.SupportingClauses {
			label := p.render(p.clause, fmt.Sprintf("CLAUSE_%d", ref.Number))
			if ref.Section != "" {
				p.printf("  %s  %s\n", label, ref.Section)
			} else {
				p.printf("  %s  chunk %d\n", label, ref.ChunkIndex)
			}
		}
	}
	p.printf("%s\n", p.render(p.muted, fmt.Sprintf("%s in %s", a.Model, a.Duration.Round(time.Millisecond))))
	if explain && a.Selection != nil {
		p.printf("\n")
		p.explanation(a.Selection.Explanation)
	}
	p.printf("\n")
}

func (p *printer) selection(res *domain.SelectionResult) {
	p.explanation(res.Explanation)
	p.printf("\n")
	for i, sc := range res.Selected {
		p.printf("%s  chunk %d  score %.3f\n",
			p.render(p.clause, fmt.Sprintf("CLAUSE_%d", i+1)), sc.Chunk.Index(), sc.Score.Composite)
		if section := sc.Chunk.Section(); section != "" {
			p.printf("  %s\n", section)
		}
		p.printf("  %s\n\n", sc.Chunk.Preview(200))
	}
}

func (p *printer) explanation(ex domain.Explanation) {
	p.heading1("Selection")
	p.printf("  Strategy:   %s\n", ex.Strategy)
	p.printf("  Complexity: %s\n", ex.Complexity)
	p.printf("  Keywords:   %s\n", keywordList(ex.Keywords))
	p.printf("  Selected:   %d of %d candidates (target %d, floor %.2f)\n",
		ex.SelectedCount, ex.CandidateCount, ex.TargetCount, ex.RelevanceFloor)
	p.printf("  Weights:    semantic %.2f, keyword %.2f, structural %.2f\n",
		ex.Weights.Semantic, ex.Weights.Keyword, ex.Weights.Structural)
	p.printf("  Tokens:     ~%d vs %d baseline (%.0f%% saved)\n",
		ex.SelectedTokens, ex.BaselineTokens, ex.TokenSavingsPercent)
}

func (p *printer) profile(profile domain.QuestionProfile) {
	p.printf("Complexity: %s\n", profile.Complexity)
	p.printf("Keywords:   %s\n", keywordList(profile.Keywords))
}

func (p *printer) document(info domain.DocumentInfo) {
	title := info.Title
	if title == "" {
		title = info.URI
	}
	p.heading1(title)
	p.printf("  URI:         %s\n", info.URI)
	p.printf("  Chunks:      %d\n", info.ChunkCount)
	p.printf("  Model:       %s (%d dimensions)\n", info.Model, info.Dimensions)
	p.printf("  Fingerprint: %s\n", info.Fingerprint)
}

func keywordList(keywords []string) string {
	if len(keywords) == 0 {
		return "(none)"
	}
	return strings.Join(keywords, ", ")
}

func failureMessage(res domain.QuestionResult) string {
	switch {
	case res.Err == nil:
		return "no answer"
	case res.Err.Err == nil:
		return res.Err.Error()
	default:
		return res.Err.Err.Error()
	}
}
