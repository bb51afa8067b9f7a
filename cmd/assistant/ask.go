package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omriShneor/calendar_assistant/internal/config"
	"github.com/omriShneor/calendar_assistant/internal/database"
	"github.com/omriShneor/calendar_assistant/internal/logging"
	"github.com/omriShneor/calendar_assistant/internal/onboarding"
)

type replier interface {
	Reply(ctx context.Context, input string) string
}

func newAskCmd(verbose *bool) *cobra.Command {
	var record bool

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Run one message through the assistant and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadFromEnv()
			logger, err := logging.New(*verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			clients, err := onboarding.Initialize(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer clients.Close()

			var recorder *database.DB
			if record {
				recorder, err = database.New(cfg.DBPath, logger)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer recorder.Close()
			}

			p, err := onboarding.BuildPipeline(cfg, clients, recorder, nil, logger)
			if err != nil {
				return err
			}
			return runAsk(ctx, cmd.OutOrStdout(), p, strings.Join(args, " "))
		},
	}

	cmd.Flags().BoolVar(&record, "record", false, "Store the turn in the trace database")
	return cmd
}

func runAsk(ctx context.Context, w io.Writer, r replier, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("message is empty")
	}
	_, err := fmt.Fprintln(w, r.Reply(ctx, message))
	return err
}
