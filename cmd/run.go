package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	summaryadapter "github.com/bnema/agent-council/internal/adapters/render/summary"
	tomlrepo "github.com/bnema/agent-council/internal/adapters/repo/toml"
	"github.com/bnema/agent-council/internal/application"
	"github.com/bnema/agent-council/internal/domain"
	"github.com/bnema/agent-council/internal/ports"
	"github.com/spf13/cobra"
)

type sessionRunner func(ctx context.Context, observer ports.TurnObserver) (application.SessionReport, error)

func newRunCmd(app *app) *cobra.Command {
	var noSpinner bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a collaboration session from the session profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSession(ctx, cmd, app, noSpinner)
		},
	}

	flags := cmd.Flags()
	flags.String("task", "", "Task the agents collaborate on")
	flags.String("provider", "", "Generation provider (anthropic|ollama)")
	flags.String("model", "", "Model name")
	flags.String("base-url", "", "Generation API base URL")
	flags.Float64("budget", 0, "Maximum session spend in USD")
	flags.String("duration", "", "Maximum session wall-clock time (e.g. 10m)")
	flags.Int("max-turns", 0, "Maximum turns per agent (0 = unlimited)")
	flags.String("pace", "", "Pause between an agent's turns (e.g. 3s)")
	flags.String("transcript", "", "Transcript path (.json, .toml, .db)")
	flags.BoolVar(&noSpinner, "no-spinner", false, "Echo turns as plain lines instead of showing a spinner")

	for key, name := range map[string]string{
		tomlrepo.TaskKey:        "task",
		tomlrepo.ProviderKey:    "provider",
		tomlrepo.ModelKey:       "model",
		tomlrepo.BaseURLKey:     "base-url",
		tomlrepo.MaxBudgetKey:   "budget",
		tomlrepo.MaxDurationKey: "duration",
		tomlrepo.MaxTurnsKey:    "max-turns",
		tomlrepo.PaceKey:        "pace",
		tomlrepo.TranscriptKey:  "transcript",
	} {
		_ = app.cfg.BindPFlag(key, flags.Lookup(name))
	}

	return cmd
}

func runSession(ctx context.Context, cmd *cobra.Command, app *app, noSpinner bool) error {
	repo, err := app.profiles()
	if err != nil {
		return err
	}
	profile, err := repo.Load(ctx)
	if err != nil {
		return err
	}

	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validate session profile: %w", err)
	}

	logs := newProgramLogWriter(cmd.ErrOrStderr())
	logger := app.logger(logs)

	apiKey, err := app.credentials.Resolve(ctx, profile.Provider)
	if err != nil {
		if profile.Provider != domain.ProviderOllama || !errors.Is(err, domain.ErrCredentialNotFound) {
			return fmt.Errorf("%w (set %s or run `council auth set --provider %s`)", err, application.CredentialEnvVar(profile.Provider), profile.Provider)
		}
		apiKey = ""
	}

	generator, err := app.newGenerator(profile.Provider, profile.BaseURL, apiKey, app.httpClient, app.requestTimeout)
	if err != nil {
		return err
	}
	store, err := app.newTranscriptStore(profile.TranscriptPath)
	if err != nil {
		return err
	}

	run := func(ctx context.Context, observer ports.TurnObserver) (application.SessionReport, error) {
		service := application.NewSessionService(generator, store, app.clock,
			application.WithLogger(logger),
			application.WithTurnObserver(observer),
		)
		return service.Run(ctx, application.RunSessionCommand{Profile: profile})
	}

	var report application.SessionReport
	var runErr error
	if noSpinner {
		report, runErr = run(ctx, newTurnEcho(cmd.ErrOrStderr()))
	} else {
		report, runErr = runSessionSpinner(ctx, cmd.ErrOrStderr(), logs, run)
	}
	if report.Transcript.SessionID == "" {
		return runErr
	}

	opts := summaryadapter.RenderOptions{}
	if runErr == nil {
		opts.TranscriptPath = profile.TranscriptPath
	}
	rendered, err := app.summaryRenderer(report.Transcript, opts)
	if err != nil {
		return errors.Join(runErr, fmt.Errorf("render summary: %w", err))
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
		return errors.Join(runErr, err)
	}

	for _, outcome := range report.Failed() {
		logger.Warn("agent failed", "persona", outcome.Persona, "err", outcome.Err)
	}

	return runErr
}
