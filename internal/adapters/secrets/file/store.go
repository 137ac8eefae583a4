package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
)

const (
	dirMode   = 0o700
	keyMode   = 0o600
	keySuffix = ".key"
)

// Store keeps one <provider>.key file per provider below root. Keys that are
// not credential keys are rejected before touching the filesystem.
type Store struct {
	root string
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// Path is where the API key for provider lives.
func (s *Store) Path(provider domain.Provider) string {
	return filepath.Join(s.root, string(provider)+keySuffix)
}

// Put replaces the key file through a rename so readers never see a partial key.
func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	provider, err := domain.ParseCredentialKey(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.root, dirMode); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, "."+string(provider)+"-*")
	if err != nil {
		return fmt.Errorf("stage %s credential: %w", provider, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(keyMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s credential: %w", provider, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s credential: %w", provider, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s credential: %w", provider, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(provider)); err != nil {
		return fmt.Errorf("save %s credential: %w", provider, err)
	}

	return nil
}

// Get returns the key with surrounding whitespace removed, so files written
// by hand with a trailing newline still work.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	provider, err := domain.ParseCredentialKey(key)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.Path(provider))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%s credential file: %w", provider, domain.ErrSecretNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read %s credential: %w", provider, err)
	}

	return strings.TrimSpace(string(data)), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	provider, err := domain.ParseCredentialKey(key)
	if err != nil {
		return err
	}

	if err := os.Remove(s.Path(provider)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s credential: %w", provider, err)
	}

	return nil
}
