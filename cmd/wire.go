package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/agent-council/internal/adapters/generation"
	summaryadapter "github.com/bnema/agent-council/internal/adapters/render/summary"
	tomlrepo "github.com/bnema/agent-council/internal/adapters/repo/toml"
	chainstore "github.com/bnema/agent-council/internal/adapters/secrets/chain"
	filestore "github.com/bnema/agent-council/internal/adapters/secrets/file"
	transcriptadapter "github.com/bnema/agent-council/internal/adapters/transcript"
	"github.com/bnema/agent-council/internal/application"
	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/logging"
	"github.com/bnema/agent-council/internal/ports"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const (
	secretBackendChain = "chain"
	secretBackendFile  = "file"

	secretsDir            = ".config/council/secrets"
	defaultRequestTimeout = 2 * time.Minute
)

type app struct {
	cfg                *viper.Viper
	secretStore        ports.SecretStore
	credentials        *application.CredentialService
	clock              ports.Clock
	httpClient         *http.Client
	requestTimeout     time.Duration
	summaryRenderer    func(domain.Transcript, summaryadapter.RenderOptions) (string, error)
	newGenerator       func(domain.Provider, string, string, *http.Client, time.Duration) (ports.Generator, error)
	newTranscriptStore func(string) (transcriptadapter.Store, error)
}

func wireApp(cfg *viper.Viper) (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	secretStore, err := newSecretStore(cfg.GetString(secretBackendKey), filepath.Join(homeDir, secretsDir))
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}

	return &app{
		cfg:                cfg,
		secretStore:        secretStore,
		credentials:        application.NewCredentialService(secretStore, os.Getenv),
		clock:              ports.SystemClock{},
		httpClient:         http.DefaultClient,
		requestTimeout:     defaultRequestTimeout,
		summaryRenderer:    summaryadapter.Render,
		newGenerator:       generation.New,
		newTranscriptStore: transcriptadapter.New,
	}, nil
}

func newSecretStore(backend string, fileRoot string) (ports.SecretStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", secretBackendChain:
		return chainstore.NewPassWithFileFallback(fileRoot)
	case secretBackendFile:
		return filestore.NewStore(fileRoot), nil
	default:
		return nil, fmt.Errorf("unsupported secret backend %q (use %s or %s)", backend, secretBackendChain, secretBackendFile)
	}
}

type profileStore interface {
	ports.ProfileRepository
	WriteExample(ctx context.Context, force bool) error
}

// profiles is built per command so --config and COUNCIL_CONFIG are read after
// flag parsing.
func (a *app) profiles() (profileStore, error) {
	repo, err := tomlrepo.NewRepository(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}
	return repo, nil
}

func (a *app) logger(w io.Writer) *log.Logger {
	opts := logging.DefaultOptions()
	opts.Level = a.cfg.GetString(logLevelKey)
	opts.Format = a.cfg.GetString(logFormatKey)
	return logging.New(w, opts)
}
