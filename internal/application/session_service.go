package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/logging"
	"github.com/bnema/agent-council/internal/ports"
	"github.com/google/uuid"
)

// SessionService runs one collaboration session: it starts an agent loop per
// persona, waits for every loop to finish, and exports the transcript.
type SessionService struct {
	generator ports.Generator
	writer    ports.TranscriptWriter
	observer  ports.TurnObserver
	clock     ports.Clock
	logger    ports.Logger
	newID     func() string
}

type SessionOption func(*SessionService)

func WithTurnObserver(observer ports.TurnObserver) SessionOption {
	return func(s *SessionService) {
		s.observer = observer
	}
}

func WithLogger(logger ports.Logger) SessionOption {
	return func(s *SessionService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithSessionIDs(newID func() string) SessionOption {
	return func(s *SessionService) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func NewSessionService(generator ports.Generator, writer ports.TranscriptWriter, clock ports.Clock, opts ...SessionOption) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	s := &SessionService{
		generator: generator,
		writer:    writer,
		clock:     clock,
		logger:    logging.Nop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run validates the profile before any agent starts, then always returns a
// report once the agents have finished. An export failure is returned
// alongside the report.
func (s *SessionService) Run(ctx context.Context, cmd RunSessionCommand) (SessionReport, error) {
	profile := cmd.Profile
	if err := profile.Validate(); err != nil {
		return SessionReport{}, fmt.Errorf("validate session profile: %w", err)
	}
	if s.generator == nil {
		return SessionReport{}, fmt.Errorf("%w: generator is not configured", domain.ErrInvalidConfig)
	}

	sessionID := cmd.SessionID
	if sessionID == "" {
		sessionID = s.newID()
	}
	logger := logging.With(s.logger, "session", sessionID)

	governor := domain.NewGovernor(profile.Limits, s.clock.Now)
	conversation := NewConversationLog(s.clock)

	runCtx, cancel := s.sessionContext(ctx, profile, governor)
	defer cancel()

	logger.Info("session started",
		"task", profile.Task,
		"budget", profile.Limits.MaxBudget,
		"max_duration", profile.Limits.MaxDuration,
		"personas", len(profile.Personas),
	)

	outcomes := make([]domain.AgentOutcome, len(profile.Personas))
	var wg sync.WaitGroup
	for i, persona := range profile.Personas {
		loop := NewAgentLoop(agentConfig(profile, persona), governor, conversation, s.generator, s.observer, logger)

		wg.Add(1)
		go func(i int, persona domain.Persona) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = domain.AgentOutcome{Persona: persona.ID, Err: fmt.Errorf("agent %s panicked: %v", persona.ID, r)}
				}
			}()
			outcomes[i] = loop.Run(runCtx)
		}(i, persona)
	}
	wg.Wait()

	conversation.Close()
	entries := conversation.Entries()
	finishedAt := s.clock.Now()

	transcript := domain.Transcript{
		SessionID:  sessionID,
		Task:       profile.Task,
		StartedAt:  governor.StartedAt(),
		FinishedAt: finishedAt,
		Summary:    summarize(governor, entries, outcomes),
		Entries:    entries,
	}
	report := SessionReport{Transcript: transcript}

	logger.Info("session complete",
		"spent", transcript.Summary.TotalSpend,
		"elapsed", transcript.Summary.Elapsed,
		"messages", transcript.Summary.MessageCount,
	)

	if s.writer == nil {
		return report, nil
	}
	if err := s.writer.Write(context.WithoutCancel(ctx), transcript); err != nil {
		return report, fmt.Errorf("export transcript: %w", err)
	}

	return report, nil
}

// sessionContext derives the context agents run under. With AbortInFlight it
// expires at the governor deadline and is cancelled the moment the governor
// trips, so pending generation calls are abandoned.
func (s *SessionService) sessionContext(ctx context.Context, profile domain.Profile, governor *domain.Governor) (context.Context, context.CancelFunc) {
	if !profile.AbortInFlight {
		return context.WithCancel(ctx)
	}

	deadlineCtx, cancelDeadline := context.WithTimeout(ctx, governor.Remaining())
	tripCtx, cancelTrip := context.WithCancel(deadlineCtx)
	governor.OnTrip(func(domain.StopReason) {
		cancelTrip()
	})

	return tripCtx, func() {
		cancelTrip()
		cancelDeadline()
	}
}

func agentConfig(profile domain.Profile, persona domain.Persona) AgentConfig {
	return AgentConfig{
		Persona:       persona,
		Task:          profile.Task,
		Model:         profile.Model,
		Pricing:       profile.Pricing,
		ContextWindow: profile.ContextWindow,
		HistoryWindow: profile.HistoryWindow,
		Pace:          profile.Pace,
		Retry:         profile.Retry,
		MaxTurns:      profile.MaxTurns,
	}
}

func summarize(governor *domain.Governor, entries []domain.Entry, outcomes []domain.AgentOutcome) domain.Summary {
	limits := governor.Limits()
	summary := domain.Summary{
		TotalSpend:   governor.Spent(),
		MaxBudget:    limits.MaxBudget,
		Elapsed:      governor.Elapsed(),
		MaxDuration:  limits.MaxDuration,
		MessageCount: len(entries),
		Agents:       outcomes,
	}

	for _, entry := range entries {
		if entry.IsMessage() {
			summary.ContentCount++
		}
	}
	for _, outcome := range outcomes {
		summary.Usage = summary.Usage.Add(outcome.Usage)
	}

	return summary
}
