package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/agent-council/internal/adapters/secrets/file"
	passstore "github.com/bnema/agent-council/internal/adapters/secrets/pass"
	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
)

// Backend is one named secret store in a chain.
type Backend struct {
	Name  string
	Store ports.SecretStore
}

// Store consults its backends in order. Reads return the first credential
// found, writes land in the first backend that accepts them and deletes reach
// every backend. Cancellation stops the walk.
type Store struct {
	backends []Backend
}

var _ ports.SecretStore = (*Store)(nil)

var errNoBackends = errors.New("secret chain has no backends")

func NewStore(backends ...Backend) (*Store, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for i, backend := range backends {
		if backend.Store == nil {
			return nil, fmt.Errorf("secret backend %d (%s) is nil", i, backend.Name)
		}
	}

	return &Store{backends: backends}, nil
}

// NewPassWithFileFallback prefers pass and keeps provider key files under
// fileRoot when pass is missing or failing.
func NewPassWithFileFallback(fileRoot string) (*Store, error) {
	return NewStore(
		Backend{Name: "pass", Store: passstore.NewStore()},
		Backend{Name: "file", Store: filestore.NewStore(fileRoot)},
	)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	var errs []error
	for _, backend := range s.backends {
		err := backend.Store.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		if stopsChain(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("%s backend: %w", backend.Name, err))
	}

	return fmt.Errorf("store credential: %w", errors.Join(errs...))
}

// Get treats a backend that is not installed like one without the key, so a
// missing pass binary still reports ErrSecretNotFound when no file exists.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	missing := true
	for _, backend := range s.backends {
		value, err := backend.Store.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if stopsChain(err) {
			return "", err
		}
		if !errors.Is(err, domain.ErrSecretNotFound) && !errors.Is(err, passstore.ErrUnavailable) {
			missing = false
		}
		errs = append(errs, fmt.Errorf("%s backend: %w", backend.Name, err))
	}

	if missing {
		return "", fmt.Errorf("credential %q: %w", key, domain.ErrSecretNotFound)
	}
	return "", fmt.Errorf("read credential: %w", errors.Join(errs...))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, backend := range s.backends {
		err := backend.Store.Delete(ctx, key)
		if stopsChain(err) {
			return err
		}
		if err != nil && !errors.Is(err, passstore.ErrUnavailable) {
			errs = append(errs, fmt.Errorf("%s backend: %w", backend.Name, err))
		}
	}

	return errors.Join(errs...)
}

func stopsChain(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, domain.ErrInvalidSecretKey)
}
