package summary

import (
	"errors"
	"io"

	"github.com/bnema/agent-council/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	transcript domain.Transcript
	opts       RenderOptions
	styles     styles
	output     string
}

func newModel(transcript domain.Transcript, opts RenderOptions) model {
	return model{
		transcript: transcript,
		opts:       opts,
		styles:     newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = renderView(m.transcript, m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// Render lays out the session summary once and returns it as a string.
func Render(transcript domain.Transcript, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(transcript, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
