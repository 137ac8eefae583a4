package toml

import (
	"fmt"
	"time"
)

const currentSchemaVersion = 1

const (
	defaultProvider      = "anthropic"
	defaultModel         = "claude-sonnet-4-20250514"
	defaultMaxBudgetUSD  = 5.0
	defaultMaxDuration   = "10m"
	defaultContextWindow = 5
	defaultHistoryWindow = 3
	defaultPace          = "3s"
	defaultMaxAttempts   = 3
	defaultBaseDelay     = "1s"
	defaultMaxDelay      = "30s"
	defaultMaxTokens     = 500
	defaultTranscript    = "agent_conversation.json"
	defaultInputPerMTok  = 3.0
	defaultOutputPerMTok = 15.0
)

type fileSchema struct {
	Version  int             `toml:"version"`
	Session  sessionSchema   `toml:"session"`
	Pricing  *pricingSchema  `toml:"pricing,omitempty"`
	Retry    retrySchema     `toml:"retry"`
	Personas []personaSchema `toml:"personas"`
}

type sessionSchema struct {
	Task          string   `toml:"task"`
	Provider      string   `toml:"provider"`
	Model         string   `toml:"model"`
	BaseURL       string   `toml:"base_url,omitempty"`
	MaxBudgetUSD  *float64 `toml:"max_budget_usd,omitempty"`
	MaxDuration   string   `toml:"max_duration"`
	ContextWindow int      `toml:"context_window"`
	HistoryWindow *int     `toml:"history_window,omitempty"`
	Pace          string   `toml:"pace"`
	MaxTurns      int      `toml:"max_turns"`
	AbortInFlight *bool    `toml:"abort_in_flight,omitempty"`
	Transcript    string   `toml:"transcript"`
}

type pricingSchema struct {
	InputPerMillion  float64 `toml:"input_per_million"`
	OutputPerMillion float64 `toml:"output_per_million"`
}

type retrySchema struct {
	MaxAttempts int    `toml:"max_attempts"`
	BaseDelay   string `toml:"base_delay"`
	MaxDelay    string `toml:"max_delay"`
}

type personaSchema struct {
	ID           string `toml:"id"`
	Role         string `toml:"role"`
	Instructions string `toml:"instructions,multiline"`
	MaxTokens    int    `toml:"max_tokens"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}

	session := &s.Session
	if session.Provider == "" {
		session.Provider = defaultProvider
	}
	if session.Model == "" && session.Provider == defaultProvider {
		session.Model = defaultModel
	}
	if session.MaxBudgetUSD == nil {
		budget := defaultMaxBudgetUSD
		session.MaxBudgetUSD = &budget
	}
	if session.MaxDuration == "" {
		session.MaxDuration = defaultMaxDuration
	}
	if session.ContextWindow == 0 {
		session.ContextWindow = defaultContextWindow
	}
	if session.HistoryWindow == nil {
		history := defaultHistoryWindow
		session.HistoryWindow = &history
	}
	if session.Pace == "" {
		session.Pace = defaultPace
	}
	if session.AbortInFlight == nil {
		abort := true
		session.AbortInFlight = &abort
	}
	if session.Transcript == "" {
		session.Transcript = defaultTranscript
	}

	if s.Pricing == nil {
		s.Pricing = &pricingSchema{InputPerMillion: defaultInputPerMTok, OutputPerMillion: defaultOutputPerMTok}
	}

	if s.Retry.MaxAttempts == 0 {
		s.Retry.MaxAttempts = defaultMaxAttempts
	}
	if s.Retry.BaseDelay == "" {
		s.Retry.BaseDelay = defaultBaseDelay
	}
	if s.Retry.MaxDelay == "" {
		s.Retry.MaxDelay = defaultMaxDelay
	}

	for i := range s.Personas {
		if s.Personas[i].MaxTokens == 0 {
			s.Personas[i].MaxTokens = defaultMaxTokens
		}
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported profile schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}
