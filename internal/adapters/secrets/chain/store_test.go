package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	filestore "github.com/bnema/agent-council/internal/adapters/secrets/file"
	passstore "github.com/bnema/agent-council/internal/adapters/secrets/pass"
	"github.com/bnema/agent-council/internal/domain"
	portmocks "github.com/bnema/agent-council/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var anthropicKey = domain.CredentialKey(domain.ProviderAnthropic)

func newTestChain(t *testing.T) (*Store, *portmocks.MockSecretStore, *portmocks.MockSecretStore) {
	t.Helper()

	pass := portmocks.NewMockSecretStore(t)
	file := portmocks.NewMockSecretStore(t)
	store, err := NewStore(Backend{Name: "pass", Store: pass}, Backend{Name: "file", Store: file})
	require.NoError(t, err)

	return store, pass, file
}

func TestStoreGetUsesFirstBackendThatHasTheKey(t *testing.T) {
	t.Parallel()

	store, pass, _ := newTestChain(t)
	pass.EXPECT().Get(mock.Anything, anthropicKey).Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), anthropicKey)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPassIsMissing(t *testing.T) {
	t.Parallel()

	store, pass, file := newTestChain(t)
	pass.EXPECT().Get(mock.Anything, anthropicKey).Return("", passstore.ErrUnavailable).Once()
	file.EXPECT().Get(mock.Anything, anthropicKey).Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), anthropicKey)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReportsNotFoundWhenNoBackendHasKey(t *testing.T) {
	t.Parallel()

	store, pass, file := newTestChain(t)
	pass.EXPECT().Get(mock.Anything, anthropicKey).Return("", passstore.ErrUnavailable).Once()
	file.EXPECT().Get(mock.Anything, anthropicKey).Return("", fmt.Errorf("file: %w", domain.ErrSecretNotFound)).Once()

	_, err := store.Get(context.Background(), anthropicKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.NotContains(t, err.Error(), "backend")
}

func TestStoreGetNamesEveryFailingBackend(t *testing.T) {
	t.Parallel()

	store, pass, file := newTestChain(t)
	pass.EXPECT().Get(mock.Anything, anthropicKey).Return("", errors.New("gpg failed")).Once()
	file.EXPECT().Get(mock.Anything, anthropicKey).Return("", fmt.Errorf("file: %w", domain.ErrSecretNotFound)).Once()

	_, err := store.Get(context.Background(), anthropicKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, "pass backend: gpg failed")
	assert.ErrorContains(t, err, "file backend")
}

func TestStoreStopsOnCancellation(t *testing.T) {
	t.Parallel()

	store, pass, _ := newTestChain(t)
	pass.EXPECT().Get(mock.Anything, anthropicKey).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), anthropicKey)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStorePutFallsBackWhenPassFails(t *testing.T) {
	t.Parallel()

	store, pass, file := newTestChain(t)
	pass.EXPECT().Put(mock.Anything, anthropicKey, "secret").Return(errors.New("gpg failed")).Once()
	file.EXPECT().Put(mock.Anything, anthropicKey, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), anthropicKey, "secret"))
}

func TestStorePutStopsAtFirstBackendThatAccepts(t *testing.T) {
	t.Parallel()

	store, pass, _ := newTestChain(t)
	pass.EXPECT().Put(mock.Anything, anthropicKey, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), anthropicKey, "secret"))
}

func TestStoreDeleteReachesEveryBackend(t *testing.T) {
	t.Parallel()

	store, pass, file := newTestChain(t)
	pass.EXPECT().Delete(mock.Anything, anthropicKey).Return(passstore.ErrUnavailable).Once()
	file.EXPECT().Delete(mock.Anything, anthropicKey).Return(errors.New("read-only filesystem")).Once()

	err := store.Delete(context.Background(), anthropicKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, passstore.ErrUnavailable)
	assert.ErrorContains(t, err, "file backend: read-only filesystem")
}

func TestStoreRejectsForeignKeysBeforeFallingBack(t *testing.T) {
	t.Parallel()

	pass := &passstore.Store{}
	file := filestore.NewStore(t.TempDir())
	store, err := NewStore(Backend{Name: "pass", Store: pass}, Backend{Name: "file", Store: file})
	require.NoError(t, err)

	err = store.Put(context.Background(), "council/openai/api_key", "secret")
	require.ErrorIs(t, err, domain.ErrInvalidSecretKey)
}

func TestNewStoreRejectsMissingBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore()
	require.ErrorIs(t, err, errNoBackends)

	_, err = NewStore(Backend{Name: "pass", Store: portmocks.NewMockSecretStore(t)}, Backend{Name: "file"})
	require.ErrorContains(t, err, "secret backend 1 (file) is nil")
}
