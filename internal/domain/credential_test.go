package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialKeyRoundTrip(t *testing.T) {
	for _, provider := range []Provider{ProviderAnthropic, ProviderOllama} {
		key := CredentialKey(provider)
		got, err := ParseCredentialKey(key)
		require.NoError(t, err, key)
		assert.Equal(t, provider, got)
	}
	assert.Equal(t, "council/anthropic/api_key", CredentialKey(ProviderAnthropic))
}

func TestParseCredentialKeyRejectsForeignKeys(t *testing.T) {
	for _, key := range []string{
		"",
		"council/anthropic",
		"council/openai/api_key",
		"council/anthropic/token",
		"other/anthropic/api_key",
		"../council/anthropic/api_key",
		"council/../api_key",
		"council/anthropic/api_key/extra",
	} {
		_, err := ParseCredentialKey(key)
		assert.ErrorIs(t, err, ErrInvalidSecretKey, "key %q", key)
	}
}
