package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anthropicKey = domain.CredentialKey(domain.ProviderAnthropic)

func storeWithRunner(t *testing.T, fn commandRunner) *Store {
	t.Helper()
	return &Store{run: fn}
}

func TestStorePutInsertsMultilineEntry(t *testing.T) {
	t.Parallel()

	called := false
	store := storeWithRunner(t, func(_ context.Context, stdin string, args ...string) (string, string, error) {
		called = true
		assert.Equal(t, []string{"insert", "--multiline", "--force", "council/anthropic/api_key"}, args)
		assert.Equal(t, "sk-ant-123\n", stdin)
		return "", "", nil
	})

	require.NoError(t, store.Put(context.Background(), anthropicKey, "sk-ant-123"))
	assert.True(t, called)
}

func TestStoreRejectsForeignKeysWithoutRunningPass(t *testing.T) {
	t.Parallel()

	store := storeWithRunner(t, func(context.Context, string, ...string) (string, string, error) {
		t.Fatal("pass must not run for a foreign key")
		return "", "", nil
	})

	require.ErrorIs(t, store.Put(context.Background(), "email/gmail", "hunter2"), domain.ErrInvalidSecretKey)
	_, err := store.Get(context.Background(), "council/openai/api_key")
	require.ErrorIs(t, err, domain.ErrInvalidSecretKey)
	require.ErrorIs(t, store.Delete(context.Background(), "../council/anthropic/api_key"), domain.ErrInvalidSecretKey)
}

func TestStoreGetReturnsFirstLine(t *testing.T) {
	t.Parallel()

	store := storeWithRunner(t, func(_ context.Context, stdin string, args ...string) (string, string, error) {
		assert.Equal(t, []string{"show", "council/anthropic/api_key"}, args)
		assert.Empty(t, stdin)
		return "sk-ant-123\r\nurl: console.anthropic.com\n", "", nil
	})

	value, err := store.Get(context.Background(), anthropicKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-123", value)
}

func TestStoreGetMapsMissingEntry(t *testing.T) {
	t.Parallel()

	store := storeWithRunner(t, func(context.Context, string, ...string) (string, string, error) {
		return "", "Error: council/anthropic/api_key is not in the password store.", errors.New("exit status 1")
	})

	_, err := store.Get(context.Background(), anthropicKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreGetNamesProviderOnFailure(t *testing.T) {
	t.Parallel()

	store := storeWithRunner(t, func(context.Context, string, ...string) (string, string, error) {
		return "", "gpg: decryption failed", errors.New("exit status 2")
	})

	_, err := store.Get(context.Background(), anthropicKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSecretNotFound)
	assert.EqualError(t, err, "pass read anthropic credential: exit status 2: gpg: decryption failed")
}

func TestStoreDeleteIgnoresMissingEntry(t *testing.T) {
	t.Parallel()

	store := storeWithRunner(t, func(_ context.Context, _ string, args ...string) (string, string, error) {
		assert.Equal(t, []string{"rm", "--force", "council/anthropic/api_key"}, args)
		return "", "Error: council/anthropic/api_key is not in the password store.", errors.New("exit status 1")
	})

	require.NoError(t, store.Delete(context.Background(), anthropicKey))
}

func TestStoreSkipsCommandOnCancelledContext(t *testing.T) {
	t.Parallel()

	store := storeWithRunner(t, func(context.Context, string, ...string) (string, string, error) {
		t.Fatal("pass must not run")
		return "", "", nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, anthropicKey)
	require.ErrorIs(t, err, context.Canceled)
}
