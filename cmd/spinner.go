package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bnema/agent-council/internal/application"
	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type sessionDoneMsg struct {
	report application.SessionReport
	err    error
}

type logLineMsg string

type turnPublishedMsg struct {
	entry domain.Entry
	cost  domain.Money
}

type sessionSpinnerModel struct {
	spinner  spinner.Model
	label    string
	run      tea.Cmd
	messages int
	spent    domain.Money
	last     domain.PersonaID
	report   application.SessionReport
	err      error
	done     bool
}

func newSessionSpinnerModel(label string, run tea.Cmd) sessionSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return sessionSpinnerModel{
		spinner: s,
		label:   label,
		run:     run,
	}
}

func (m sessionSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m sessionSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case turnPublishedMsg:
		m.messages++
		m.spent += msg.cost
		m.last = msg.entry.Author
		return m, tea.Println(formatTurn(msg.entry, msg.cost))
	case logLineMsg:
		return m, tea.Println(string(msg))
	case sessionDoneMsg:
		m.done = true
		m.report = msg.report
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m sessionSpinnerModel) View() string {
	if m.done {
		return ""
	}

	status := fmt.Sprintf("%d messages, %v spent", m.messages, m.spent)
	if m.last != "" {
		status += ", last: " + string(m.last)
	}

	return fmt.Sprintf("%s %s (%s)", m.spinner.View(), m.label, status)
}

// programObserver forwards published turns into the running spinner program.
type programObserver struct {
	program *tea.Program
}

func (o programObserver) TurnPublished(entry domain.Entry, cost domain.Money) {
	o.program.Send(turnPublishedMsg{entry: entry, cost: cost})
}

// programLogWriter prints log lines above the spinner while a program is
// attached and writes straight through otherwise.
type programLogWriter struct {
	mu      sync.Mutex
	w       io.Writer
	program *tea.Program
}

func newProgramLogWriter(w io.Writer) *programLogWriter {
	return &programLogWriter{w: w}
}

func (l *programLogWriter) attach(p *tea.Program) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.program = p
}

func (l *programLogWriter) detach() {
	l.attach(nil)
}

func (l *programLogWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	p := l.program
	if p == nil {
		defer l.mu.Unlock()
		return l.w.Write(b)
	}
	l.mu.Unlock()

	for _, line := range strings.Split(strings.TrimRight(string(b), "\n"), "\n") {
		p.Send(logLineMsg(line))
	}
	return len(b), nil
}

// runSessionSpinner does not install tea's signal handler; interrupts arrive
// through ctx and the session still reports back through sessionDoneMsg.
// Logs written to logs while the program runs are printed above the spinner.
func runSessionSpinner(ctx context.Context, output io.Writer, logs *programLogWriter, run sessionRunner) (application.SessionReport, error) {
	observer := &programObserver{}
	runCmd := func() tea.Msg {
		report, err := run(ctx, observer)
		return sessionDoneMsg{report: report, err: err}
	}

	p := tea.NewProgram(
		newSessionSpinnerModel("Agents collaborating...", runCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithoutSignalHandler(),
	)
	observer.program = p
	if logs != nil {
		logs.attach(p)
		defer logs.detach()
	}

	finalModel, err := p.Run()
	if err != nil {
		return application.SessionReport{}, err
	}

	result, ok := finalModel.(sessionSpinnerModel)
	if !ok {
		return application.SessionReport{}, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.report, result.err
}

// turnEcho prints each published turn as one line.
type turnEcho struct {
	mu sync.Mutex
	w  io.Writer
}

var _ ports.TurnObserver = (*turnEcho)(nil)

func newTurnEcho(w io.Writer) *turnEcho {
	return &turnEcho{w: w}
}

func (e *turnEcho) TurnPublished(entry domain.Entry, cost domain.Money) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _ = fmt.Fprintln(e.w, formatTurn(entry, cost))
}

func formatTurn(entry domain.Entry, cost domain.Money) string {
	return fmt.Sprintf("%s (%v): %s", entry.Author, cost, strings.TrimSpace(entry.Content))
}
