package generation

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
)

// New returns the generator for provider.
func New(provider domain.Provider, baseURL, apiKey string, httpClient *http.Client, requestTimeout time.Duration) (ports.Generator, error) {
	switch provider {
	case domain.ProviderAnthropic:
		return NewAnthropic(baseURL, apiKey, httpClient, requestTimeout), nil
	case domain.ProviderOllama:
		return NewOllama(baseURL, apiKey, httpClient, requestTimeout), nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", domain.ErrInvalidConfig, provider)
	}
}
