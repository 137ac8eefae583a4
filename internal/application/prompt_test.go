package application

import (
	"strings"
	"testing"
	"time"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposePromptRendersEverySlot(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	prompt, err := ComposePrompt(PromptInput{
		Task:    "Design the bridge",
		Persona: testPersona("ux"),
		Shared: []domain.Entry{
			{Seq: 1, Author: "biz", Content: "first", Timestamp: at},
			{Seq: 3, Author: "tech", Content: "second", Timestamp: at},
		},
		History: []domain.Turn{{Content: "my earlier idea", Timestamp: at}},
	})
	require.NoError(t, err)

	assert.Equal(t, "You are ux.", prompt.System)
	assert.Contains(t, prompt.User, "[biz]: first\n[tech]: second")
	assert.Contains(t, prompt.User, `"content": "my earlier idea"`)
	assert.Contains(t, prompt.User, "TASK: Design the bridge")
	assert.Contains(t, prompt.User, "Respond with your analysis.")
	assert.True(t, strings.HasSuffix(prompt.User, "Keep response under 500 tokens. Be concise."))
	assert.Less(t, strings.Index(prompt.User, "first"), strings.Index(prompt.User, "second"))
}

func TestComposePromptIsIdenticalAcrossPersonasExceptFraming(t *testing.T) {
	t.Parallel()

	in := PromptInput{Task: "Ship it", Shared: []domain.Entry{{Author: "x", Content: "ctx"}}}

	a := in
	a.Persona = domain.Persona{ID: "a", Role: "Role A", Instructions: "Do A", MaxTokens: 200}
	b := in
	b.Persona = domain.Persona{ID: "b", Role: "Role B", Instructions: "Do B", MaxTokens: 200}

	promptA, err := ComposePrompt(a)
	require.NoError(t, err)
	promptB, err := ComposePrompt(b)
	require.NoError(t, err)

	assert.Equal(t, strings.ReplaceAll(promptA.User, "Do A", "Do B"), promptB.User)
	assert.NotEqual(t, promptA.System, promptB.System)
}

func TestComposePromptEmptyHistory(t *testing.T) {
	t.Parallel()

	prompt, err := ComposePrompt(PromptInput{Task: "t", Persona: testPersona("ux")})
	require.NoError(t, err)

	assert.Contains(t, prompt.User, "YOUR PREVIOUS THOUGHTS:\n[]")
}

func TestLastTurns(t *testing.T) {
	t.Parallel()

	turns := []domain.Turn{{Content: "1"}, {Content: "2"}, {Content: "3"}, {Content: "4"}}

	assert.Equal(t, turns[1:], lastTurns(turns, 3))
	assert.Equal(t, turns, lastTurns(turns, 10))
	assert.Nil(t, lastTurns(turns, 0))
}
