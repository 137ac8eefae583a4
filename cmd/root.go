package cmd

import (
	"strings"

	tomlrepo "github.com/bnema/agent-council/internal/adapters/repo/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	logLevelKey      = "log.level"
	logFormatKey     = "log.format"
	secretBackendKey = "secrets.backend"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "council",
		Short:         "council: run a budgeted multi-agent collaboration session",
		Long:          "council starts one agent per configured persona on a shared task. The agents talk through a shared conversation log while a governor enforces one spending ceiling and one deadline for the whole session.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cfg := viper.New()
	cfg.SetEnvPrefix("COUNCIL")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	cfg.SetDefault(logLevelKey, "info")
	cfg.SetDefault(logFormatKey, "text")
	cfg.SetDefault(secretBackendKey, secretBackendChain)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Session profile path (default ~/.config/council/council.toml)")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")
	flags.String("log-format", "text", "Log format (text|json|logfmt)")
	_ = cfg.BindPFlag(tomlrepo.ConfigPathKey, flags.Lookup("config"))
	_ = cfg.BindPFlag(logLevelKey, flags.Lookup("log-level"))
	_ = cfg.BindPFlag(logFormatKey, flags.Lookup("log-format"))

	app, err := wireApp(cfg)
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(app),
		newRunCmd(app),
		newAuthCmd(app),
		newTranscriptCmd(app),
	)

	return rootCmd
}
