package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/bnema/agent-council/internal/domain"
)

// Prompt is the composed input for one generation call.
type Prompt struct {
	System string
	User   string
}

type PromptInput struct {
	Task    string
	Persona domain.Persona
	Shared  []domain.Entry
	History []domain.Turn
}

var promptTemplate = template.Must(template.New("turn").Parse(`SHARED TEAM CONTEXT (what others are saying):
{{.Shared}}

YOUR PREVIOUS THOUGHTS:
{{.History}}

TASK: {{.Task}}
{{if .Instructions}}
{{.Instructions}}
{{end}}
Keep response under {{.MaxTokens}} tokens. Be concise.`))

type promptView struct {
	Role         string
	Shared       string
	History      string
	Task         string
	Instructions string
	MaxTokens    int
}

type historyRecord struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ComposePrompt renders the same slots for every persona; only the role and
// instructions text differ. The role becomes the system prompt.
func ComposePrompt(in PromptInput) (Prompt, error) {
	view := promptView{
		Role:         strings.TrimSpace(in.Persona.Role),
		Shared:       renderShared(in.Shared),
		Task:         strings.TrimSpace(in.Task),
		Instructions: strings.TrimSpace(in.Persona.Instructions),
		MaxTokens:    in.Persona.MaxTokens,
	}

	history, err := renderHistory(in.History)
	if err != nil {
		return Prompt{}, err
	}
	view.History = history

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, view); err != nil {
		return Prompt{}, fmt.Errorf("render prompt for %s: %w", in.Persona.ID, err)
	}

	return Prompt{System: view.Role, User: buf.String()}, nil
}

func renderShared(entries []domain.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("[%s]: %s", entry.Author, entry.Content))
	}
	return strings.Join(lines, "\n")
}

func renderHistory(turns []domain.Turn) (string, error) {
	records := make([]historyRecord, 0, len(turns))
	for _, turn := range turns {
		records = append(records, historyRecord{Role: "assistant", Content: turn.Content})
	}

	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode private history: %w", err)
	}

	return string(raw), nil
}

func lastTurns(turns []domain.Turn, m int) []domain.Turn {
	if m <= 0 {
		return nil
	}
	if len(turns) <= m {
		return turns
	}
	return turns[len(turns)-m:]
}
