package domain

import "fmt"

type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Total returns InputTokens + OutputTokens.
func (u Usage) Total() int64 {
	return u.InputTokens + u.OutputTokens
}

func (u Usage) TotalCompact() string {
	return compactNumber(u.Total())
}

func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

func compactNumber(v int64) string {
	if v < 1_000 {
		return fmt.Sprintf("%d", v)
	}

	if v < 1_000_000 {
		return fmt.Sprintf("%.1fk", float64(v)/1_000)
	}

	return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
}
