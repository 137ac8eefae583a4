package cmd

import (
	"fmt"

	"github.com/bnema/agent-council/internal/application"
	"github.com/bnema/agent-council/internal/domain"
	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage generation provider credentials",
	}

	cmd.AddCommand(newAuthSetCmd(app), newAuthRemoveCmd(app))

	return cmd
}

func newAuthSetCmd(app *app) *cobra.Command {
	var provider string
	var secretValue string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the API key for a provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := app.credentials.Set(cmd.Context(), application.SetCredentialCommand{
				Provider: domain.Provider(provider),
				Secret:   secretValue,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "stored %s credential\n", provider)
			return err
		},
	}

	cmd.Flags().StringVar(&provider, "provider", string(domain.ProviderAnthropic), "Provider (anthropic|ollama)")
	cmd.Flags().StringVar(&secretValue, "secret-value", "", "API key")
	_ = cmd.MarkFlagRequired("secret-value")

	return cmd
}

func newAuthRemoveCmd(app *app) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the stored API key for a provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.credentials.Remove(cmd.Context(), application.RemoveCredentialCommand{
				Provider: domain.Provider(provider),
			})
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider (anthropic|ollama)")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}
