package application

import "github.com/bnema/agent-council/internal/domain"

// SessionReport is what a finished session hands back to its caller.
type SessionReport struct {
	Transcript domain.Transcript
}

func (r SessionReport) Summary() domain.Summary {
	return r.Transcript.Summary
}

// Failed lists the personas whose loops ended on a generation failure.
func (r SessionReport) Failed() []domain.AgentOutcome {
	failed := make([]domain.AgentOutcome, 0)
	for _, outcome := range r.Transcript.Summary.Agents {
		if outcome.Failed() {
			failed = append(failed, outcome)
		}
	}
	return failed
}
