package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/logging"
	"github.com/bnema/agent-council/internal/ports"
)

var errStopRequested = errors.New("governor stopped the session")

// AgentConfig is the per-persona view of a session profile.
type AgentConfig struct {
	Persona       domain.Persona
	Task          string
	Model         string
	Pricing       domain.Pricing
	ContextWindow int
	HistoryWindow int
	Pace          time.Duration
	Retry         domain.RetryPolicy
	MaxTurns      int
}

// AgentLoop drives one persona until the governor stops it, its turn limit is
// reached, or generation keeps failing.
type AgentLoop struct {
	cfg       AgentConfig
	governor  *domain.Governor
	log       *ConversationLog
	generator ports.Generator
	observer  ports.TurnObserver
	logger    ports.Logger

	history []domain.Turn
	outcome domain.AgentOutcome
}

func NewAgentLoop(cfg AgentConfig, governor *domain.Governor, log *ConversationLog, generator ports.Generator, observer ports.TurnObserver, logger ports.Logger) *AgentLoop {
	return &AgentLoop{
		cfg:       cfg,
		governor:  governor,
		log:       log,
		generator: generator,
		observer:  observer,
		logger:    logging.With(logger, "persona", cfg.Persona.ID),
		outcome:   domain.AgentOutcome{Persona: cfg.Persona.ID},
	}
}

// Run blocks until the loop reaches a terminal state and reports how it ended.
// Generation failures never escape; they are carried in the outcome.
func (a *AgentLoop) Run(ctx context.Context) domain.AgentOutcome {
	for {
		if reason, stopped := a.stopReason(ctx); stopped {
			a.finish(reason)
			return a.outcome
		}

		if err := a.turn(ctx); err != nil {
			if errors.Is(err, errStopRequested) || ctx.Err() != nil {
				continue
			}
			a.fail(err)
			return a.outcome
		}

		if err := pause(ctx, a.cfg.Pace); err != nil {
			continue
		}
	}
}

func (a *AgentLoop) stopReason(ctx context.Context) (domain.StopReason, bool) {
	if decision := a.governor.Check(); !decision.Allowed {
		return decision.Reason, true
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.StopTimeExpired, true
		}
		return domain.StopCancelled, true
	}
	if a.cfg.MaxTurns > 0 && a.outcome.Turns >= a.cfg.MaxTurns {
		return domain.StopTurnLimit, true
	}
	return domain.StopNone, false
}

func (a *AgentLoop) turn(ctx context.Context) error {
	persona := a.cfg.Persona
	number := a.outcome.Turns + 1

	prompt, err := ComposePrompt(PromptInput{
		Task:    a.cfg.Task,
		Persona: persona,
		Shared:  a.log.Recent(a.cfg.ContextWindow, persona.ID),
		History: lastTurns(a.history, a.cfg.HistoryWindow),
	})
	if err != nil {
		return fmt.Errorf("compose turn %d: %w", number, err)
	}

	generation, err := a.generate(ctx, number, ports.GenerationRequest{
		Persona:   persona.ID,
		System:    prompt.System,
		Model:     a.cfg.Model,
		MaxTokens: persona.MaxTokens,
		Prompt:    prompt.User,
	})
	if err != nil {
		return err
	}

	usage := generation.Usage()
	cost := a.cfg.Pricing.CostOf(usage)
	if err := a.governor.RecordSpend(cost); err != nil {
		return fmt.Errorf("record spend for turn %d: %w", number, err)
	}
	a.outcome.Usage = a.outcome.Usage.Add(usage)
	a.outcome.Spend += cost

	entry, err := a.log.Append(persona.ID, domain.EntryMessage, generation.Text)
	if err != nil {
		return fmt.Errorf("publish turn %d: %w", number, err)
	}
	a.history = append(a.history, domain.Turn{Content: entry.Content, Timestamp: entry.Timestamp})
	a.outcome.Turns = number

	a.logger.Debug("turn published", "turn", number, "cost", cost, "input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens)
	if a.observer != nil {
		a.observer.TurnPublished(entry, cost)
	}

	return nil
}

// generate attempts the call up to Retry.MaxAttempts times, backing off
// between attempts. It gives up early when the session stops.
func (a *AgentLoop) generate(ctx context.Context, number int, req ports.GenerationRequest) (ports.Generation, error) {
	attempts := a.cfg.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		generation, err := a.generator.Generate(ctx, req)
		if err == nil {
			return generation, nil
		}
		if ctx.Err() != nil {
			return ports.Generation{}, fmt.Errorf("generate turn %d: %w", number, ctx.Err())
		}

		lastErr = fmt.Errorf("generate turn %d: %w", number, err)
		a.logger.Warn("generation failed", "turn", number, "attempt", attempt, "max_attempts", attempts, "err", err)
		if attempt == attempts || !retryable(err) {
			return ports.Generation{}, fmt.Errorf("giving up after %d attempts: %w", attempt, lastErr)
		}

		if decision := a.governor.Check(); !decision.Allowed {
			return ports.Generation{}, errStopRequested
		}
		if err := pause(ctx, a.cfg.Retry.Delay(attempt)); err != nil {
			return ports.Generation{}, fmt.Errorf("back off turn %d: %w", number, err)
		}
	}

	return ports.Generation{}, lastErr
}

// retryable treats every failure as transient unless the error says otherwise.
func retryable(err error) bool {
	var classified interface{ Retryable() bool }
	if errors.As(err, &classified) {
		return classified.Retryable()
	}
	return true
}

func (a *AgentLoop) finish(reason domain.StopReason) {
	a.outcome.Reason = reason
	if _, err := a.log.Append(a.cfg.Persona.ID, domain.EntryStop, "Stopping: "+reason.Label()); err != nil {
		a.logger.Warn("stop notice not recorded", "err", err)
	}
	a.logger.Info("agent stopped", "reason", reason.Label(), "turns", a.outcome.Turns)
}

func (a *AgentLoop) fail(err error) {
	a.outcome.Err = err
	if _, appendErr := a.log.Append(a.cfg.Persona.ID, domain.EntryFailure, "Failing: "+err.Error()); appendErr != nil {
		a.logger.Warn("failure notice not recorded", "err", appendErr)
	}
	a.logger.Error("agent failed", "turns", a.outcome.Turns, "err", err)
}

// pause waits for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
