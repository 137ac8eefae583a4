package domain

import (
	"fmt"
	"strings"
)

const (
	credentialNamespace = "council"
	credentialName      = "api_key"
)

// CredentialKey names the secret holding a provider's API key:
// council/<provider>/api_key.
func CredentialKey(provider Provider) string {
	return credentialNamespace + "/" + string(provider) + "/" + credentialName
}

// ParseCredentialKey returns the provider a credential key belongs to.
// Anything outside the council/<provider>/api_key layout is rejected.
func ParseCredentialKey(key string) (Provider, error) {
	parts := strings.Split(strings.TrimSpace(key), "/")
	if len(parts) != 3 || parts[0] != credentialNamespace || parts[2] != credentialName {
		return "", fmt.Errorf("%w %q: want %s/<provider>/%s", ErrInvalidSecretKey, key, credentialNamespace, credentialName)
	}

	provider := Provider(parts[1])
	if !provider.Valid() {
		return "", fmt.Errorf("%w %q: unsupported provider %q", ErrInvalidSecretKey, key, parts[1])
	}

	return provider, nil
}
