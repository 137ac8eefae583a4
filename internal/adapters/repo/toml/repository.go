package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// ConfigPathKey selects the profile file.
	ConfigPathKey = "config"

	profileFileMode   = 0o600
	profileDirMode    = 0o700
	profileConfigDir  = ".config/council"
	profileConfigFile = "council.toml"
	tempFilePattern   = ".council-*.toml.tmp"
)

// Keys that override values from the profile file when set through flags or
// COUNCIL_* environment variables.
const (
	TaskKey        = "session.task"
	ProviderKey    = "session.provider"
	ModelKey       = "session.model"
	BaseURLKey     = "session.base_url"
	MaxBudgetKey   = "session.max_budget_usd"
	MaxDurationKey = "session.max_duration"
	MaxTurnsKey    = "session.max_turns"
	PaceKey        = "session.pace"
	TranscriptKey  = "session.transcript"
)

type Repository struct {
	profilePath string
	cfg         *viper.Viper
	mu          *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.ProfileRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetEnvPrefix("COUNCIL")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	cfg.SetDefault(ConfigPathKey, filepath.Join(homeDir, profileConfigDir, profileConfigFile))

	profilePath := cfg.GetString(ConfigPathKey)
	if profilePath == "" {
		return nil, errors.New("profile path is empty")
	}
	profilePath, err = normalizeProfilePath(profilePath)
	if err != nil {
		return nil, err
	}

	return &Repository{profilePath: profilePath, cfg: cfg, mu: lockForPath(profilePath)}, nil
}

func (r *Repository) Path() string {
	return r.profilePath
}

func (r *Repository) Load(ctx context.Context) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Profile{}, err
	}
	r.applyOverrides(&file)
	file.applyDefaults()

	profile, err := fromSchema(file)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, r.profilePath, err)
	}

	return profile, nil
}

func (r *Repository) Save(ctx context.Context, profile domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeSchema(toSchema(profile))
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.profilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, fmt.Errorf("%w: %s (run `council init` to create one)", domain.ErrProfileNotFound, r.profilePath)
		}
		return fileSchema{}, fmt.Errorf("read profile file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode profile file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}

	return file, nil
}

func (r *Repository) applyOverrides(file *fileSchema) {
	cfg := r.cfg
	session := &file.Session

	if cfg.IsSet(TaskKey) {
		session.Task = cfg.GetString(TaskKey)
	}
	if cfg.IsSet(ProviderKey) {
		session.Provider = cfg.GetString(ProviderKey)
	}
	if cfg.IsSet(ModelKey) {
		session.Model = cfg.GetString(ModelKey)
	}
	if cfg.IsSet(BaseURLKey) {
		session.BaseURL = cfg.GetString(BaseURLKey)
	}
	if cfg.IsSet(MaxBudgetKey) {
		budget := cfg.GetFloat64(MaxBudgetKey)
		session.MaxBudgetUSD = &budget
	}
	if cfg.IsSet(MaxDurationKey) {
		session.MaxDuration = cfg.GetString(MaxDurationKey)
	}
	if cfg.IsSet(MaxTurnsKey) {
		session.MaxTurns = cfg.GetInt(MaxTurnsKey)
	}
	if cfg.IsSet(PaceKey) {
		session.Pace = cfg.GetString(PaceKey)
	}
	if cfg.IsSet(TranscriptKey) {
		session.Transcript = cfg.GetString(TranscriptKey)
	}
}

func normalizeProfilePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve profile path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.profilePath), profileDirMode); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode profile file: %w", err)
	}

	return writeFileAtomic(r.profilePath, data, profileFileMode)
}

// writeFileAtomic writes data to a temp file beside path and renames it into
// place.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp profile file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp profile file: %w", err)
	}

	if err := tempFile.Chmod(mode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp profile file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp profile file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace profile file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("chmod profile file: %w", err)
	}

	return nil
}

func toSchema(profile domain.Profile) fileSchema {
	budget := profile.Limits.MaxBudget.Float()
	history := profile.HistoryWindow
	abort := profile.AbortInFlight

	personas := make([]personaSchema, 0, len(profile.Personas))
	for _, persona := range profile.Personas {
		personas = append(personas, personaSchema{
			ID:           string(persona.ID),
			Role:         persona.Role,
			Instructions: persona.Instructions,
			MaxTokens:    persona.MaxTokens,
		})
	}

	return fileSchema{
		Version: currentSchemaVersion,
		Session: sessionSchema{
			Task:          profile.Task,
			Provider:      string(profile.Provider),
			Model:         profile.Model,
			BaseURL:       profile.BaseURL,
			MaxBudgetUSD:  &budget,
			MaxDuration:   profile.Limits.MaxDuration.String(),
			ContextWindow: profile.ContextWindow,
			HistoryWindow: &history,
			Pace:          profile.Pace.String(),
			MaxTurns:      profile.MaxTurns,
			AbortInFlight: &abort,
			Transcript:    profile.TranscriptPath,
		},
		Pricing: &pricingSchema{
			InputPerMillion:  perMillion(profile.Pricing.InputRate),
			OutputPerMillion: perMillion(profile.Pricing.OutputRate),
		},
		Retry: retrySchema{
			MaxAttempts: profile.Retry.MaxAttempts,
			BaseDelay:   profile.Retry.BaseDelay.String(),
			MaxDelay:    profile.Retry.MaxDelay.String(),
		},
		Personas: personas,
	}
}

func fromSchema(file fileSchema) (domain.Profile, error) {
	session := file.Session

	maxDuration, err := parseDuration("session.max_duration", session.MaxDuration)
	if err != nil {
		return domain.Profile{}, err
	}
	pace, err := parseDuration("session.pace", session.Pace)
	if err != nil {
		return domain.Profile{}, err
	}
	baseDelay, err := parseDuration("retry.base_delay", file.Retry.BaseDelay)
	if err != nil {
		return domain.Profile{}, err
	}
	maxDelay, err := parseDuration("retry.max_delay", file.Retry.MaxDelay)
	if err != nil {
		return domain.Profile{}, err
	}

	personas := make([]domain.Persona, 0, len(file.Personas))
	for _, persona := range file.Personas {
		personas = append(personas, domain.Persona{
			ID:           domain.PersonaID(persona.ID),
			Role:         persona.Role,
			Instructions: persona.Instructions,
			MaxTokens:    persona.MaxTokens,
		})
	}

	return domain.Profile{
		Task:     session.Task,
		Provider: domain.Provider(session.Provider),
		Model:    session.Model,
		BaseURL:  session.BaseURL,
		Limits: domain.Limits{
			MaxBudget:   domain.MoneyFromFloat(*session.MaxBudgetUSD),
			MaxDuration: maxDuration,
		},
		Pricing:       domain.PricingPerMillion(file.Pricing.InputPerMillion, file.Pricing.OutputPerMillion),
		Personas:      personas,
		ContextWindow: session.ContextWindow,
		HistoryWindow: *session.HistoryWindow,
		Pace:          pace,
		Retry: domain.RetryPolicy{
			MaxAttempts: file.Retry.MaxAttempts,
			BaseDelay:   baseDelay,
			MaxDelay:    maxDelay,
		},
		MaxTurns:       session.MaxTurns,
		AbortInFlight:  *session.AbortInFlight,
		TranscriptPath: session.Transcript,
	}, nil
}

func perMillion(rate domain.Money) float64 {
	return rate.Float() * 1_000_000
}
