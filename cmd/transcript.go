package cmd

import (
	"context"
	"fmt"

	summaryadapter "github.com/bnema/agent-council/internal/adapters/render/summary"
	"github.com/bnema/agent-council/internal/domain"
	"github.com/spf13/cobra"
)

type sessionReader interface {
	ReadSession(ctx context.Context, sessionID string) (domain.Transcript, error)
	Sessions(ctx context.Context) ([]string, error)
}

func newTranscriptCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Inspect saved session transcripts",
	}

	cmd.AddCommand(newTranscriptShowCmd(app), newTranscriptListCmd(app))

	return cmd
}

func newTranscriptShowCmd(app *app) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Render a saved transcript with its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.newTranscriptStore(args[0])
			if err != nil {
				return err
			}

			var transcript domain.Transcript
			if sessionID != "" {
				archive, ok := store.(sessionReader)
				if !ok {
					return fmt.Errorf("%s holds a single session; --session needs a .db archive", args[0])
				}
				transcript, err = archive.ReadSession(cmd.Context(), sessionID)
			} else {
				transcript, err = store.Read(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("read transcript %s: %w", args[0], err)
			}

			rendered, err := app.summaryRenderer(transcript, summaryadapter.RenderOptions{ShowEntries: true})
			if err != nil {
				return fmt.Errorf("render transcript: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to show from a .db archive (default latest)")

	return cmd
}

func newTranscriptListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "List the sessions stored in a .db archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.newTranscriptStore(args[0])
			if err != nil {
				return err
			}
			archive, ok := store.(sessionReader)
			if !ok {
				return fmt.Errorf("%s is not a session archive (use a .db path)", args[0])
			}

			sessions, err := archive.Sessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("list sessions in %s: %w", args[0], err)
			}
			for _, id := range sessions {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), id); err != nil {
					return err
				}
			}

			return nil
		},
	}
}
