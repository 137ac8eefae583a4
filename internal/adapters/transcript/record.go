// Package transcript persists finished sessions as JSON, TOML, or SQLite.
package transcript

import (
	"errors"
	"time"

	"github.com/bnema/agent-council/internal/domain"
)

const currentFormatVersion = 1

type transcriptRecord struct {
	Version    int           `json:"version" toml:"version"`
	SessionID  string        `json:"session_id" toml:"session_id"`
	Task       string        `json:"task" toml:"task"`
	StartedAt  time.Time     `json:"started_at" toml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" toml:"finished_at"`
	Summary    summaryRecord `json:"summary" toml:"summary"`
	Entries    []entryRecord `json:"entries" toml:"entries"`
}

type summaryRecord struct {
	TotalSpendUSD  float64         `json:"total_spend_usd" toml:"total_spend_usd"`
	MaxBudgetUSD   float64         `json:"max_budget_usd" toml:"max_budget_usd"`
	ElapsedSeconds float64         `json:"elapsed_seconds" toml:"elapsed_seconds"`
	MaxDuration    string          `json:"max_duration" toml:"max_duration"`
	MessageCount   int             `json:"message_count" toml:"message_count"`
	ContentCount   int             `json:"content_count" toml:"content_count"`
	InputTokens    int64           `json:"input_tokens" toml:"input_tokens"`
	OutputTokens   int64           `json:"output_tokens" toml:"output_tokens"`
	Agents         []outcomeRecord `json:"agents" toml:"agents"`
}

type outcomeRecord struct {
	Persona      string  `json:"persona" toml:"persona"`
	Turns        int     `json:"turns" toml:"turns"`
	InputTokens  int64   `json:"input_tokens" toml:"input_tokens"`
	OutputTokens int64   `json:"output_tokens" toml:"output_tokens"`
	SpendUSD     float64 `json:"spend_usd" toml:"spend_usd"`
	Reason       string  `json:"reason,omitempty" toml:"reason,omitempty"`
	Error        string  `json:"error,omitempty" toml:"error,omitempty"`
}

type entryRecord struct {
	Seq       int       `json:"seq" toml:"seq"`
	Author    string    `json:"author" toml:"author"`
	Kind      string    `json:"kind" toml:"kind"`
	Content   string    `json:"content" toml:"content,multiline"`
	Timestamp time.Time `json:"timestamp" toml:"timestamp"`
}

func toRecord(transcript domain.Transcript) transcriptRecord {
	summary := transcript.Summary

	agents := make([]outcomeRecord, 0, len(summary.Agents))
	for _, outcome := range summary.Agents {
		record := outcomeRecord{
			Persona:      string(outcome.Persona),
			Turns:        outcome.Turns,
			InputTokens:  outcome.Usage.InputTokens,
			OutputTokens: outcome.Usage.OutputTokens,
			SpendUSD:     outcome.Spend.Float(),
			Reason:       string(outcome.Reason),
		}
		if outcome.Err != nil {
			record.Error = outcome.Err.Error()
		}
		agents = append(agents, record)
	}

	entries := make([]entryRecord, 0, len(transcript.Entries))
	for _, entry := range transcript.Entries {
		entries = append(entries, entryRecord{
			Seq:       entry.Seq,
			Author:    string(entry.Author),
			Kind:      string(entry.Kind),
			Content:   entry.Content,
			Timestamp: entry.Timestamp,
		})
	}

	return transcriptRecord{
		Version:    currentFormatVersion,
		SessionID:  transcript.SessionID,
		Task:       transcript.Task,
		StartedAt:  transcript.StartedAt,
		FinishedAt: transcript.FinishedAt,
		Summary: summaryRecord{
			TotalSpendUSD:  summary.TotalSpend.Float(),
			MaxBudgetUSD:   summary.MaxBudget.Float(),
			ElapsedSeconds: summary.Elapsed.Seconds(),
			MaxDuration:    summary.MaxDuration.String(),
			MessageCount:   summary.MessageCount,
			ContentCount:   summary.ContentCount,
			InputTokens:    summary.Usage.InputTokens,
			OutputTokens:   summary.Usage.OutputTokens,
			Agents:         agents,
		},
		Entries: entries,
	}
}

func fromRecord(record transcriptRecord) domain.Transcript {
	summary := record.Summary

	agents := make([]domain.AgentOutcome, 0, len(summary.Agents))
	for _, outcome := range summary.Agents {
		agent := domain.AgentOutcome{
			Persona: domain.PersonaID(outcome.Persona),
			Turns:   outcome.Turns,
			Usage:   domain.Usage{InputTokens: outcome.InputTokens, OutputTokens: outcome.OutputTokens},
			Spend:   domain.MoneyFromFloat(outcome.SpendUSD),
			Reason:  domain.StopReason(outcome.Reason),
		}
		if outcome.Error != "" {
			agent.Err = errors.New(outcome.Error)
		}
		agents = append(agents, agent)
	}

	entries := make([]domain.Entry, 0, len(record.Entries))
	for i, entry := range record.Entries {
		seq := entry.Seq
		if seq == 0 {
			seq = i + 1
		}
		kind := domain.EntryKind(entry.Kind)
		if kind == "" {
			kind = domain.EntryMessage
		}
		entries = append(entries, domain.Entry{
			Seq:       seq,
			Author:    domain.PersonaID(entry.Author),
			Kind:      kind,
			Content:   entry.Content,
			Timestamp: entry.Timestamp,
		})
	}

	maxDuration, _ := time.ParseDuration(summary.MaxDuration)

	return domain.Transcript{
		SessionID:  record.SessionID,
		Task:       record.Task,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
		Summary: domain.Summary{
			TotalSpend:   domain.MoneyFromFloat(summary.TotalSpendUSD),
			MaxBudget:    domain.MoneyFromFloat(summary.MaxBudgetUSD),
			Elapsed:      time.Duration(summary.ElapsedSeconds * float64(time.Second)),
			MaxDuration:  maxDuration,
			MessageCount: summary.MessageCount,
			ContentCount: summary.ContentCount,
			Usage:        domain.Usage{InputTokens: summary.InputTokens, OutputTokens: summary.OutputTokens},
			Agents:       agents,
		},
		Entries: entries,
	}
}
