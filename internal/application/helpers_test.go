package application

import (
	"sync"
	"time"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/stretchr/testify/mock"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingObserver struct {
	mu      sync.Mutex
	entries []domain.Entry
	costs   []domain.Money
}

func (o *recordingObserver) TurnPublished(entry domain.Entry, cost domain.Money) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, entry)
	o.costs = append(o.costs, cost)
}

type turnObserverFunc func(entry domain.Entry, cost domain.Money)

func (f turnObserverFunc) TurnPublished(entry domain.Entry, cost domain.Money) {
	f(entry, cost)
}

func mockAnyContext() interface{} {
	return mock.Anything
}

func testPersona(id string) domain.Persona {
	return domain.Persona{
		ID:           domain.PersonaID(id),
		Role:         "You are " + id + ".",
		Instructions: "Respond with your analysis.",
		MaxTokens:    500,
	}
}

func testProfile(personas ...domain.Persona) domain.Profile {
	if len(personas) == 0 {
		personas = []domain.Persona{testPersona("ux")}
	}

	return domain.Profile{
		Task:          "Design the bridge",
		Provider:      domain.ProviderAnthropic,
		Model:         "claude-sonnet-4-20250514",
		Limits:        domain.Limits{MaxBudget: domain.MoneyFromFloat(1000), MaxDuration: time.Hour},
		Pricing:       domain.PricingPerMillion(3, 15),
		Personas:      personas,
		ContextWindow: 5,
		HistoryWindow: 3,
		Retry:         domain.RetryPolicy{MaxAttempts: 3},
		AbortInFlight: true,
	}
}

func entriesOf(entries []domain.Entry, author domain.PersonaID, kind domain.EntryKind) []domain.Entry {
	result := make([]domain.Entry, 0)
	for _, entry := range entries {
		if entry.Author == author && entry.Kind == kind {
			result = append(result, entry)
		}
	}
	return result
}
