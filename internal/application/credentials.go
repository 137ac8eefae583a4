package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
)

// CredentialEnvVar is the environment variable checked before the secret store.
func CredentialEnvVar(provider domain.Provider) string {
	return strings.ToUpper(string(provider)) + "_API_KEY"
}

type CredentialService struct {
	store  ports.SecretStore
	getenv func(string) string
}

func NewCredentialService(store ports.SecretStore, getenv func(string) string) *CredentialService {
	if getenv == nil {
		getenv = os.Getenv
	}

	return &CredentialService{store: store, getenv: getenv}
}

func (s *CredentialService) Set(ctx context.Context, cmd SetCredentialCommand) error {
	if !cmd.Provider.Valid() {
		return fmt.Errorf("%w: unsupported provider %q", domain.ErrInvalidConfig, cmd.Provider)
	}
	secret := strings.TrimSpace(cmd.Secret)
	if secret == "" {
		return fmt.Errorf("%w: api key is empty", domain.ErrInvalidConfig)
	}

	if err := s.store.Put(ctx, domain.CredentialKey(cmd.Provider), secret); err != nil {
		return fmt.Errorf("store %s credential: %w", cmd.Provider, err)
	}

	return nil
}

func (s *CredentialService) Remove(ctx context.Context, cmd RemoveCredentialCommand) error {
	if !cmd.Provider.Valid() {
		return fmt.Errorf("%w: unsupported provider %q", domain.ErrInvalidConfig, cmd.Provider)
	}

	if err := s.store.Delete(ctx, domain.CredentialKey(cmd.Provider)); err != nil {
		return fmt.Errorf("delete %s credential: %w", cmd.Provider, err)
	}

	return nil
}

// Resolve returns the API key for provider, preferring the environment over
// the secret store.
func (s *CredentialService) Resolve(ctx context.Context, provider domain.Provider) (string, error) {
	if value := strings.TrimSpace(s.getenv(CredentialEnvVar(provider))); value != "" {
		return value, nil
	}

	if s.store == nil {
		return "", fmt.Errorf("resolve %s credential: %w", provider, domain.ErrCredentialNotFound)
	}

	value, err := s.store.Get(ctx, domain.CredentialKey(provider))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("resolve %s credential: %w", provider, errors.Join(domain.ErrCredentialNotFound, err))
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("resolve %s credential: %w", provider, domain.ErrCredentialNotFound)
	}

	return value, nil
}
