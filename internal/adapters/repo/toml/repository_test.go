package toml

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "council.toml")
	config := viper.New()
	config.Set(ConfigPathKey, path)

	repo, err := NewRepository(config)
	require.NoError(t, err)

	return repo, path
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, path := newTestRepository(t)
	assert.Equal(t, path, repo.Path())

	profile := ExampleProfile()
	profile.MaxTurns = 4
	profile.BaseURL = "https://proxy.local"

	require.NoError(t, repo.Save(context.Background(), profile))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, profile.Task, got.Task)
	assert.Equal(t, profile.Personas, got.Personas)
	assert.Equal(t, profile.Limits, got.Limits)
	assert.Equal(t, profile.Pricing, got.Pricing)
	assert.Equal(t, profile.Retry, got.Retry)
	assert.Equal(t, profile.Pace, got.Pace)
	assert.Equal(t, 4, got.MaxTurns)
	assert.Equal(t, "https://proxy.local", got.BaseURL)
	assert.True(t, got.AbortInFlight)
	require.NoError(t, got.Validate())
}

func TestRepositorySaveWritesPrivateFile(t *testing.T) {
	t.Parallel()

	repo, path := newTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), ExampleProfile()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "[[personas]]")

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".council-*.toml.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRepositoryLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	repo, path := newTestRepository(t)
	writeProfileFile(t, path, `
version = 1

[session]
task = "Plan the launch"

[[personas]]
id = "pm"
role = "You are the product manager."
`)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderAnthropic, got.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", got.Model)
	assert.Equal(t, domain.MoneyFromFloat(5), got.Limits.MaxBudget)
	assert.Equal(t, 10*time.Minute, got.Limits.MaxDuration)
	assert.Equal(t, domain.PricingPerMillion(3, 15), got.Pricing)
	assert.Equal(t, 5, got.ContextWindow)
	assert.Equal(t, 3, got.HistoryWindow)
	assert.Equal(t, 3*time.Second, got.Pace)
	assert.Equal(t, 3, got.Retry.MaxAttempts)
	assert.Equal(t, 500, got.Personas[0].MaxTokens)
	assert.True(t, got.AbortInFlight)
	assert.Equal(t, "agent_conversation.json", got.TranscriptPath)
}

func TestRepositoryLoadKeepsExplicitZeroes(t *testing.T) {
	t.Parallel()

	repo, path := newTestRepository(t)
	writeProfileFile(t, path, `
version = 1

[session]
task = "t"
provider = "ollama"
model = "llama3.2"
max_budget_usd = 0.0
history_window = 0
abort_in_flight = false

[pricing]
input_per_million = 0.0
output_per_million = 0.0

[[personas]]
id = "a"
role = "A"
`)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.Money(0), got.Limits.MaxBudget)
	assert.Equal(t, 0, got.HistoryWindow)
	assert.False(t, got.AbortInFlight)
	assert.Equal(t, domain.Pricing{}, got.Pricing)
}

func TestRepositoryLoadMissingFile(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
	assert.ErrorContains(t, err, "council init")
}

func TestRepositoryRejectsNewerSchemaVersion(t *testing.T) {
	t.Parallel()

	repo, path := newTestRepository(t)
	writeProfileFile(t, path, "version = 2\n")

	_, err := repo.Load(context.Background())
	require.ErrorContains(t, err, "unsupported profile schema version 2")
}

func TestRepositoryRejectsBadDuration(t *testing.T) {
	t.Parallel()

	repo, path := newTestRepository(t)
	writeProfileFile(t, path, `
[session]
task = "t"
max_duration = "five minutes"
`)

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.ErrorContains(t, err, "session.max_duration")
}

func TestRepositoryOverridesFromViper(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "council.toml")
	config := viper.New()
	config.Set(ConfigPathKey, path)
	config.Set(TaskKey, "Overridden task")
	config.Set(MaxBudgetKey, 0.5)
	config.Set(MaxDurationKey, "90s")
	config.Set(MaxTurnsKey, 2)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), ExampleProfile()))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Overridden task", got.Task)
	assert.Equal(t, domain.MoneyFromFloat(0.5), got.Limits.MaxBudget)
	assert.Equal(t, 90*time.Second, got.Limits.MaxDuration)
	assert.Equal(t, 2, got.MaxTurns)
}

func TestRepositoryWriteExampleRefusesOverwrite(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	require.NoError(t, repo.WriteExample(context.Background(), false))
	err := repo.WriteExample(context.Background(), false)
	require.ErrorContains(t, err, "already exists")
	require.NoError(t, repo.WriteExample(context.Background(), true))
}

func TestRepositoryHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, repo.Save(ctx, ExampleProfile()), context.Canceled)
}

func writeProfileFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o600))
}
