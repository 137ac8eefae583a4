package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/logging"
	"github.com/bnema/agent-council/internal/ports"
	"github.com/bnema/agent-council/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestLoop(t *testing.T, cfg AgentConfig, limits domain.Limits, generator ports.Generator, observer ports.TurnObserver) (*AgentLoop, *domain.Governor, *ConversationLog) {
	t.Helper()

	clock := newFakeClock()
	governor := domain.NewGovernor(limits, clock.Now)
	log := NewConversationLog(clock)
	t.Cleanup(log.Close)

	return NewAgentLoop(cfg, governor, log, generator, observer, logging.Nop()), governor, log
}

func loopConfig(persona domain.Persona) AgentConfig {
	return AgentConfig{
		Persona:       persona,
		Task:          "Design the bridge",
		Model:         "model-x",
		Pricing:       domain.PricingPerMillion(3, 15),
		ContextWindow: 5,
		HistoryWindow: 3,
		Retry:         domain.RetryPolicy{MaxAttempts: 2},
	}
}

func TestAgentLoopStopsAtTurnLimit(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	observer := &recordingObserver{}
	cfg := loopConfig(testPersona("ux"))
	cfg.MaxTurns = 2

	generator.EXPECT().Generate(mockAnyContext(), mock.MatchedBy(func(req ports.GenerationRequest) bool {
		return req.Persona == "ux" && req.Model == "model-x" && req.MaxTokens == 500 && req.System == "You are ux."
	})).Return(ports.Generation{Text: "idea", InputTokens: 1000, OutputTokens: 100}, nil).Times(2)

	loop, governor, log := newTestLoop(t, cfg, domain.Limits{MaxBudget: domain.MoneyFromFloat(10), MaxDuration: time.Hour}, generator, observer)

	outcome := loop.Run(context.Background())

	assert.Equal(t, domain.StopTurnLimit, outcome.Reason)
	assert.Equal(t, 2, outcome.Turns)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, domain.Usage{InputTokens: 2000, OutputTokens: 200}, outcome.Usage)

	perCall := domain.PricingPerMillion(3, 15).Cost(1000, 100)
	assert.Equal(t, 2*perCall, outcome.Spend)
	assert.Equal(t, 2*perCall, governor.Spent())

	entries := log.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, domain.EntryStop, entries[2].Kind)
	assert.Equal(t, "Stopping: turn limit reached", entries[2].Content)

	require.Len(t, observer.entries, 2)
	assert.Equal(t, []domain.Money{perCall, perCall}, observer.costs)
}

func TestAgentLoopFeedsOwnHistoryIntoPrompt(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	cfg := loopConfig(testPersona("ux"))
	cfg.MaxTurns = 2

	var prompts []string
	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).
		RunAndReturn(func(_ context.Context, req ports.GenerationRequest) (ports.Generation, error) {
			prompts = append(prompts, req.Prompt)
			return ports.Generation{Text: "turn text", InputTokens: 1, OutputTokens: 1}, nil
		}).Times(2)

	loop, _, log := newTestLoop(t, cfg, domain.Limits{MaxBudget: domain.MoneyFromFloat(10), MaxDuration: time.Hour}, generator, nil)
	_, err := log.Append("biz", domain.EntryMessage, "peer thought")
	require.NoError(t, err)

	loop.Run(context.Background())

	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "[biz]: peer thought")
	assert.NotContains(t, prompts[0], "turn text")
	assert.Contains(t, prompts[1], `"content": "turn text"`)
	assert.NotContains(t, prompts[1], "[ux]:")
}

func TestAgentLoopRetriesThenSucceeds(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	cfg := loopConfig(testPersona("ux"))
	cfg.MaxTurns = 1
	cfg.Retry = domain.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return(ports.Generation{}, errors.New("503")).Once()
	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return(ports.Generation{Text: "ok", InputTokens: 10}, nil).Once()

	loop, _, log := newTestLoop(t, cfg, domain.Limits{MaxBudget: domain.MoneyFromFloat(10), MaxDuration: time.Hour}, generator, nil)

	outcome := loop.Run(context.Background())

	assert.NoError(t, outcome.Err)
	assert.Equal(t, 1, outcome.Turns)
	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "ok", entries[0].Content)
}

func TestAgentLoopRetriesRequestTimeouts(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	cfg := loopConfig(testPersona("ux"))
	cfg.MaxTurns = 1
	cfg.Retry = domain.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}

	timeout := fmt.Errorf("anthropic messages: %w", context.DeadlineExceeded)
	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return(ports.Generation{}, timeout).Once()
	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return(ports.Generation{Text: "ok"}, nil).Once()

	loop, _, log := newTestLoop(t, cfg, domain.Limits{MaxBudget: domain.MoneyFromFloat(10), MaxDuration: time.Hour}, generator, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	outcome := loop.Run(ctx)

	assert.NoError(t, outcome.Err)
	assert.Equal(t, domain.StopTurnLimit, outcome.Reason)
	assert.Equal(t, "ok", log.Entries()[0].Content)
}

func TestAgentLoopFailsAfterExhaustingRetries(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	cfg := loopConfig(testPersona("ux"))

	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return(ports.Generation{}, errors.New("connection refused")).Times(2)

	loop, governor, log := newTestLoop(t, cfg, domain.Limits{MaxBudget: domain.MoneyFromFloat(10), MaxDuration: time.Hour}, generator, nil)

	outcome := loop.Run(context.Background())

	require.Error(t, outcome.Err)
	assert.ErrorContains(t, outcome.Err, "giving up after 2 attempts")
	assert.ErrorContains(t, outcome.Err, "connection refused")
	assert.Equal(t, domain.Money(0), governor.Spent())

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryFailure, entries[0].Kind)
	assert.Contains(t, entries[0].Content, "connection refused")
}

func TestAgentLoopStopsImmediatelyWhenGovernorTripped(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	loop, _, log := newTestLoop(t, loopConfig(testPersona("ux")), domain.Limits{MaxBudget: domain.MoneyFromFloat(1), MaxDuration: 0}, generator, nil)

	outcome := loop.Run(context.Background())

	assert.Equal(t, domain.StopTimeExpired, outcome.Reason)
	assert.Zero(t, outcome.Turns)
	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Stopping: time expired", entries[0].Content)
	generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAgentLoopReportsCancellation(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	ctx, cancel := context.WithCancel(context.Background())

	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).
		RunAndReturn(func(ctx context.Context, _ ports.GenerationRequest) (ports.Generation, error) {
			cancel()
			<-ctx.Done()
			return ports.Generation{}, ctx.Err()
		}).Once()

	loop, governor, log := newTestLoop(t, loopConfig(testPersona("ux")), domain.Limits{MaxBudget: domain.MoneyFromFloat(1), MaxDuration: time.Hour}, generator, nil)

	outcome := loop.Run(ctx)

	assert.Equal(t, domain.StopCancelled, outcome.Reason)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, domain.Money(0), governor.Spent())
	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Stopping: session cancelled", entries[0].Content)
}

func TestPauseHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := pause(ctx, time.Hour)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.NoError(t, pause(context.Background(), 0))
}

type permanentError struct{}

func (permanentError) Error() string   { return "status 401: invalid api key" }
func (permanentError) Retryable() bool { return false }

func TestAgentLoopDoesNotRetryPermanentErrors(t *testing.T) {
	generator := mocks.NewMockGenerator(t)
	cfg := loopConfig(testPersona("ux"))
	cfg.Retry = domain.RetryPolicy{MaxAttempts: 5}

	generator.EXPECT().Generate(mockAnyContext(), mock.Anything).Return(ports.Generation{}, permanentError{}).Once()

	loop, _, log := newTestLoop(t, cfg, domain.Limits{MaxBudget: domain.MoneyFromFloat(10), MaxDuration: time.Hour}, generator, nil)

	outcome := loop.Run(context.Background())

	require.Error(t, outcome.Err)
	assert.ErrorContains(t, outcome.Err, "giving up after 1 attempts")
	assert.Len(t, entriesOf(log.Entries(), "ux", domain.EntryFailure), 1)
}
