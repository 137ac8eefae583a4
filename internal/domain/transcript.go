package domain

import "time"

// AgentOutcome is how a single agent loop ended.
type AgentOutcome struct {
	Persona PersonaID
	Turns   int
	Usage   Usage
	Spend   Money
	Reason  StopReason
	Err     error
}

func (o AgentOutcome) Failed() bool {
	return o.Err != nil
}

// Summary is derived entirely from the governor and the frozen log.
type Summary struct {
	TotalSpend   Money
	MaxBudget    Money
	Elapsed      time.Duration
	MaxDuration  time.Duration
	MessageCount int
	ContentCount int
	Usage        Usage
	Agents       []AgentOutcome
}

func (s Summary) BudgetUsedPercent() float64 {
	if s.MaxBudget <= 0 {
		return 100
	}
	return float64(s.TotalSpend) / float64(s.MaxBudget) * 100
}

// Transcript is the exported record of a finished session.
type Transcript struct {
	SessionID  string
	Task       string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    Summary
	Entries    []Entry
}
