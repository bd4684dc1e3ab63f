package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tbourn/welder-tracker/internal/app"
	"github.com/tbourn/welder-tracker/internal/events"
)

// withApp opens the store for the duration of one command.
func withApp(g *globals, run func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		l := zerolog.Ctx(ctx)

		a, err := app.New(ctx, g.cfg)
		if err != nil {
			l.Error().Err(err).Str("db", g.cfg.DBPath).Msg("open store failed")
			return fmt.Errorf("open store: %w", err)
		}
		defer func() {
			if err := a.Close(); err != nil {
				l.Error().Err(err).Msg("close store failed")
			}
		}()

		a.Bus.Subscribe(events.RecordsChanged, func(ev events.Event) {
			l.Debug().Str("source", ev.Source).Uint("record_id", ev.RecordID).Msg("records changed")
		})

		return run(cmd, args, a)
	}
}
