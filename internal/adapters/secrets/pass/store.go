package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
)

// ErrUnavailable means the pass binary is not installed.
var ErrUnavailable = errors.New("pass command unavailable")

const missingEntry = "is not in the password store"

type commandRunner func(ctx context.Context, stdin string, args ...string) (stdout string, stderr string, err error)

// Store keeps each provider's API key as the pass entry
// council/<provider>/api_key.
type Store struct {
	run commandRunner
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{run: runPass}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	provider, err := s.entry(ctx, key)
	if err != nil {
		return err
	}

	if _, stderr, err := s.run(ctx, value+"\n", "insert", "--multiline", "--force", key); err != nil {
		return commandError("store", provider, err, stderr)
	}

	return nil
}

// Get returns the first line of the entry; pass keeps metadata such as
// urls on the lines after it.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	provider, err := s.entry(ctx, key)
	if err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, "", "show", key)
	switch {
	case err == nil:
		first, _, _ := strings.Cut(stdout, "\n")
		return strings.TrimSpace(first), nil
	case strings.Contains(stderr, missingEntry):
		return "", fmt.Errorf("pass %s credential: %w", provider, domain.ErrSecretNotFound)
	default:
		return "", commandError("read", provider, err, stderr)
	}
}

func (s *Store) Delete(ctx context.Context, key string) error {
	provider, err := s.entry(ctx, key)
	if err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, "", "rm", "--force", key)
	if err != nil && !strings.Contains(stderr, missingEntry) {
		return commandError("delete", provider, err, stderr)
	}

	return nil
}

func (s *Store) entry(ctx context.Context, key string) (domain.Provider, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return domain.ParseCredentialKey(key)
}

func runPass(ctx context.Context, stdin string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if errors.Is(err, exec.ErrNotFound) {
		return "", "", ErrUnavailable
	}
	if err != nil {
		return "", "", fmt.Errorf("locate pass: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func commandError(op string, provider domain.Provider, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %s credential: %w", op, provider, err)
	}
	return fmt.Errorf("pass %s %s credential: %w: %s", op, provider, err, stderr)
}
