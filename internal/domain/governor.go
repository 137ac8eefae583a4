package domain

import (
	"fmt"
	"sync"
	"time"
)

type StopReason string

const (
	StopNone            StopReason = "OK"
	StopBudgetExhausted StopReason = "BUDGET_EXHAUSTED"
	StopTimeExpired     StopReason = "TIME_EXPIRED"
	StopCancelled       StopReason = "CANCELLED"
	StopTurnLimit       StopReason = "TURN_LIMIT"
)

func (r StopReason) Label() string {
	switch r {
	case StopNone:
		return "ok"
	case StopBudgetExhausted:
		return "budget exhausted"
	case StopTimeExpired:
		return "time expired"
	case StopCancelled:
		return "session cancelled"
	case StopTurnLimit:
		return "turn limit reached"
	default:
		return string(r)
	}
}

// Limits are the session-wide ceilings shared by every agent.
type Limits struct {
	MaxBudget   Money
	MaxDuration time.Duration
}

func (l Limits) Validate() error {
	if l.MaxBudget < 0 {
		return fmt.Errorf("max budget must be non-negative")
	}
	if l.MaxDuration < 0 {
		return fmt.Errorf("max duration must be non-negative")
	}

	return nil
}

type Decision struct {
	Allowed bool
	Reason  StopReason
}

// Governor tracks cumulative spend and elapsed time against Limits. Once a
// limit trips the governor stays stopped for every caller.
// It is safe for concurrent use.
type Governor struct {
	mu      sync.Mutex
	limits  Limits
	start   time.Time
	now     func() time.Time
	spent   Money
	tripped StopReason
	onTrip  []func(StopReason)
}

func NewGovernor(limits Limits, now func() time.Time) *Governor {
	if now == nil {
		now = time.Now
	}

	return &Governor{
		limits: limits,
		start:  now(),
		now:    now,
	}
}

// Check reports whether execution may continue.
func (g *Governor) Check() Decision {
	g.mu.Lock()
	if g.tripped != "" {
		reason := g.tripped
		g.mu.Unlock()
		return Decision{Allowed: false, Reason: reason}
	}

	reason := g.violatedLocked()
	var callbacks []func(StopReason)
	if reason != StopNone {
		callbacks = g.tripLocked(reason)
	}
	g.mu.Unlock()

	notify(callbacks, reason)
	if reason != StopNone {
		return Decision{Allowed: false, Reason: reason}
	}

	return Decision{Allowed: true, Reason: StopNone}
}

// RecordSpend adds amount to the cumulative spend.
func (g *Governor) RecordSpend(amount Money) error {
	if amount < 0 {
		return fmt.Errorf("record spend %d: %w", amount, ErrNegativeSpend)
	}

	g.mu.Lock()
	g.spent += amount
	var callbacks []func(StopReason)
	if g.tripped == "" && g.spent >= g.limits.MaxBudget {
		callbacks = g.tripLocked(StopBudgetExhausted)
	}
	g.mu.Unlock()

	notify(callbacks, StopBudgetExhausted)

	return nil
}

// OnTrip registers fn to run once when the governor first stops. If it has
// already stopped, fn runs immediately.
func (g *Governor) OnTrip(fn func(StopReason)) {
	if fn == nil {
		return
	}

	g.mu.Lock()
	if g.tripped != "" {
		reason := g.tripped
		g.mu.Unlock()
		fn(reason)
		return
	}
	g.onTrip = append(g.onTrip, fn)
	g.mu.Unlock()
}

func (g *Governor) Spent() Money {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.spent
}

func (g *Governor) Limits() Limits {
	return g.limits
}

func (g *Governor) StartedAt() time.Time {
	return g.start
}

// Deadline is the instant the time ceiling trips.
func (g *Governor) Deadline() time.Time {
	return g.start.Add(g.limits.MaxDuration)
}

func (g *Governor) Elapsed() time.Duration {
	return g.now().Sub(g.start)
}

func (g *Governor) Remaining() time.Duration {
	remaining := g.limits.MaxDuration - g.Elapsed()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (g *Governor) violatedLocked() StopReason {
	if g.spent >= g.limits.MaxBudget {
		return StopBudgetExhausted
	}
	if g.now().Sub(g.start) >= g.limits.MaxDuration {
		return StopTimeExpired
	}
	return StopNone
}

func (g *Governor) tripLocked(reason StopReason) []func(StopReason) {
	g.tripped = reason
	callbacks := g.onTrip
	g.onTrip = nil
	return callbacks
}

func notify(callbacks []func(StopReason), reason StopReason) {
	for _, fn := range callbacks {
		fn(reason)
	}
}
