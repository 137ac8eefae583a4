package toml

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bnema/agent-council/internal/domain"
)

const exampleTask = "Design and implement an MCP-to-HTTP bridge for browser automation servers. " +
	"Include architecture, code, and a workflow integration strategy."

// ExampleProfile is the starter profile written by `council init`: three
// collaborating personas on the default Anthropic model.
func ExampleProfile() domain.Profile {
	return domain.Profile{
		Task:     exampleTask,
		Provider: domain.ProviderAnthropic,
		Model:    defaultModel,
		Limits: domain.Limits{
			MaxBudget:   domain.MoneyFromFloat(2),
			MaxDuration: 5 * time.Minute,
		},
		Pricing:       domain.PricingPerMillion(defaultInputPerMTok, defaultOutputPerMTok),
		ContextWindow: defaultContextWindow,
		HistoryWindow: defaultHistoryWindow,
		Pace:          3 * time.Second,
		Retry: domain.RetryPolicy{
			MaxAttempts: defaultMaxAttempts,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		AbortInFlight:  true,
		TranscriptPath: defaultTranscript,
		Personas: []domain.Persona{
			{
				ID:   "designer",
				Role: "You are the team's UX and product design lead.",
				Instructions: "Respond with:\n" +
					"1. Your analysis or design decision\n" +
					"2. Questions for the strategist or the architect\n" +
					"3. UI code if needed",
				MaxTokens: defaultMaxTokens,
			},
			{
				ID:   "strategist",
				Role: "You are the team's business strategist.",
				Instructions: "Respond with:\n" +
					"1. Business and ROI analysis\n" +
					"2. Cost-benefit assessment\n" +
					"3. Questions or feedback for the designer or the architect",
				MaxTokens: defaultMaxTokens,
			},
			{
				ID:   "architect",
				Role: "You are the team's technical architect.",
				Instructions: "Respond with:\n" +
					"1. Technical implementation\n" +
					"2. Code snippets\n" +
					"3. Architecture decisions\n" +
					"4. Feedback to the designer or the strategist",
				MaxTokens: defaultMaxTokens,
			},
		},
	}
}

// WriteExample saves ExampleProfile unless a profile already exists and
// force is false.
func (r *Repository) WriteExample(ctx context.Context, force bool) error {
	if !force {
		if _, err := os.Stat(r.profilePath); err == nil {
			return fmt.Errorf("profile %s already exists (use --force to overwrite)", r.profilePath)
		}
	}

	return r.Save(ctx, ExampleProfile())
}
