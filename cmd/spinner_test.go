package cmd

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/bnema/agent-council/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logCollectorModel struct {
	want  int
	lines []string
}

func (m logCollectorModel) Init() tea.Cmd { return nil }

func (m logCollectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if line, ok := msg.(logLineMsg); ok {
		m.lines = append(m.lines, string(line))
		if len(m.lines) >= m.want {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m logCollectorModel) View() string { return "" }

func TestProgramLogWriterWritesThroughWhenDetached(t *testing.T) {
	var out bytes.Buffer
	logs := newProgramLogWriter(&out)

	n, err := logs.Write([]byte("INFO session started\n"))
	require.NoError(t, err)
	assert.Equal(t, len("INFO session started\n"), n)
	assert.Equal(t, "INFO session started\n", out.String())
}

func TestProgramLogWriterRoutesLinesThroughAttachedProgram(t *testing.T) {
	var out bytes.Buffer
	logs := newProgramLogWriter(&out)

	p := tea.NewProgram(logCollectorModel{want: 2},
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	)
	logs.attach(p)

	done := make(chan tea.Model, 1)
	go func() {
		final, err := p.Run()
		assert.NoError(t, err)
		done <- final
	}()

	_, err := logs.Write([]byte("INFO turn published\nWARN agent slow\n"))
	require.NoError(t, err)

	var final tea.Model
	select {
	case final = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("program did not receive the log lines")
	}
	logs.detach()

	collected, ok := final.(logCollectorModel)
	require.True(t, ok)
	assert.Equal(t, []string{"INFO turn published", "WARN agent slow"}, collected.lines)
	assert.Empty(t, out.String())

	_, err = logs.Write([]byte("INFO session finished\n"))
	require.NoError(t, err)
	assert.Equal(t, "INFO session finished\n", out.String())
}

func TestSessionSpinnerPrintsLogLinesWithoutCountingThem(t *testing.T) {
	model := newSessionSpinnerModel("Agents collaborating...", nil)

	updated, cmd := model.Update(logLineMsg("INFO session started"))
	require.NotNil(t, cmd)
	assert.NotNil(t, cmd())

	spinnerModel, ok := updated.(sessionSpinnerModel)
	require.True(t, ok)
	assert.Zero(t, spinnerModel.messages)
	assert.Equal(t, domain.Money(0), spinnerModel.spent)
}
