package summary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	// ShowEntries appends the full conversation after the summary.
	ShowEntries bool
	// TranscriptPath is reported when set.
	TranscriptPath string
	BarWidth       int
}

const defaultBarWidth = 24

func renderView(t domain.Transcript, opts RenderOptions, s styles) string {
	sum := t.Summary
	lines := []string{
		s.title.Render("Session Complete"),
		s.header.Render(sessionHeader(t)),
	}
	if task := strings.TrimSpace(t.Task); task != "" {
		lines = append(lines, s.detail.Render("task: "+task))
	}

	lines = append(lines,
		budgetLine(sum, opts, s),
		timeLine(sum, s),
		s.key.Render(fmt.Sprintf("messages: %d (%d entries)", sum.ContentCount, sum.MessageCount)),
		s.key.Render(fmt.Sprintf("tokens: %s (in %d / out %d)", sum.Usage.TotalCompact(), sum.Usage.InputTokens, sum.Usage.OutputTokens)),
	)

	if len(sum.Agents) > 0 {
		lines = append(lines, s.section.Render(renderAgents(sum.Agents, s)))
	}

	if opts.TranscriptPath != "" {
		lines = append(lines, s.section.Render(s.meta.Render("transcript saved to "+opts.TranscriptPath)))
	}

	if opts.ShowEntries {
		lines = append(lines, s.section.Render(renderEntries(t.Entries, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sessionHeader(t domain.Transcript) string {
	parts := []string{fmt.Sprintf("agents: %d", len(t.Summary.Agents))}
	if t.SessionID != "" {
		parts = append(parts, "session: "+t.SessionID)
	}
	if !t.StartedAt.IsZero() {
		parts = append(parts, "started: "+t.StartedAt.Format(time.DateTime))
	}
	return strings.Join(parts, "  ")
}

func budgetLine(sum domain.Summary, opts RenderOptions, s styles) string {
	width := opts.BarWidth
	if width <= 0 {
		width = defaultBarWidth
	}

	used := clampPercent(sum.BudgetUsedPercent())
	percentStyle := lipgloss.NewStyle().Foreground(interpolateColor(used, 0, 100))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("spend:"),
		" ",
		renderProgressBar(used, width, s),
		" ",
		percentStyle.Render(fmt.Sprintf("%v of %v", sum.TotalSpend, sum.MaxBudget)),
	)
}

func timeLine(sum domain.Summary, s styles) string {
	elapsed := sum.Elapsed.Round(time.Second)
	if sum.MaxDuration <= 0 {
		return s.key.Render(fmt.Sprintf("elapsed: %s", elapsed))
	}
	return s.key.Render(fmt.Sprintf("elapsed: %s of %s", elapsed, sum.MaxDuration.Round(time.Second)))
}

func renderAgents(agents []domain.AgentOutcome, s styles) string {
	idWidth := 0
	for _, a := range agents {
		idWidth = max(idWidth, len(a.Persona))
	}

	rows := []string{s.header.Render("agents")}
	for _, a := range agents {
		row := fmt.Sprintf("%-*s  turns %3d  %v  %s tokens  %s",
			idWidth, a.Persona, a.Turns, a.Spend, a.Usage.TotalCompact(), a.Reason.Label())
		if a.Failed() {
			rows = append(rows, s.warning.Render(row+"  failed: "+a.Err.Error()))
			continue
		}
		rows = append(rows, s.detail.Render(row))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderEntries(entries []domain.Entry, s styles) string {
	if len(entries) == 0 {
		return s.empty.Render("No entries recorded.")
	}

	blocks := []string{s.header.Render("conversation")}
	for _, e := range entries {
		head := s.author.Render(string(e.Author)) + " " + s.meta.Render(e.Timestamp.Format(time.TimeOnly))
		body := strings.TrimSpace(e.Content)
		switch e.Kind {
		case domain.EntryStop:
			body = s.notice.Render(body)
		case domain.EntryFailure:
			body = s.warning.Render(body)
		default:
			body = s.detail.Render(body)
		}
		blocks = append(blocks, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, head, body)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderProgressBar(usedPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(usedPercent) / 100))
	filled = min(max(filled, 0), width)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, lo, hi float64) lipgloss.Color {
	if hi == lo {
		return lipgloss.Color("255")
	}

	normalized := (value - lo) / (hi - lo)
	normalized = math.Min(math.Max(normalized, 0), 1)

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
