package domain

import (
	"fmt"
	"strings"
	"time"
)

type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderAnthropic, ProviderOllama:
		return true
	default:
		return false
	}
}

// RetryPolicy bounds how many times one turn's generation call is attempted.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// maxRetryDelay caps the backoff when a policy sets no MaxDelay.
const maxRetryDelay = time.Hour

// Delay returns the backoff before the given retry (1-based), doubling from
// BaseDelay and capped at MaxDelay, or at an hour when MaxDelay is unset.
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry < 1 || p.BaseDelay <= 0 {
		return 0
	}

	ceiling := p.MaxDelay
	if ceiling <= 0 {
		ceiling = max(p.BaseDelay, maxRetryDelay)
	}

	delay := p.BaseDelay
	for i := 1; i < retry; i++ {
		if delay >= ceiling/2 {
			return ceiling
		}
		delay *= 2
	}

	return min(delay, ceiling)
}

// Profile is everything a session needs besides credentials.
type Profile struct {
	Task           string
	Provider       Provider
	Model          string
	BaseURL        string
	Limits         Limits
	Pricing        Pricing
	Personas       []Persona
	ContextWindow  int
	HistoryWindow  int
	Pace           time.Duration
	Retry          RetryPolicy
	MaxTurns       int
	AbortInFlight  bool
	TranscriptPath string
}

// Validate reports every configuration problem that must stop a session before
// any agent starts. The returned error wraps ErrInvalidConfig.
func (p Profile) Validate() error {
	problems := make([]string, 0)
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(p.Task) == "" {
		add("task is required")
	}
	if !p.Provider.Valid() {
		add("unsupported provider %q", p.Provider)
	}
	if strings.TrimSpace(p.Model) == "" {
		add("model is required")
	}
	if err := p.Limits.Validate(); err != nil {
		add("%s", err)
	}
	if err := p.Pricing.Validate(); err != nil {
		add("%s", err)
	}
	if err := ValidatePersonas(p.Personas); err != nil {
		add("%s", err)
	}
	if p.ContextWindow <= 0 {
		add("context window must be positive")
	}
	if p.HistoryWindow < 0 {
		add("history window must be non-negative")
	}
	if p.Pace < 0 {
		add("pace must be non-negative")
	}
	if p.Retry.MaxAttempts <= 0 {
		add("retry max attempts must be positive")
	}
	if p.Retry.BaseDelay < 0 || p.Retry.MaxDelay < 0 {
		add("retry delays must be non-negative")
	}
	if p.MaxTurns < 0 {
		add("max turns must be non-negative")
	}

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
