package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/welder-tracker/internal/config"
	"github.com/tbourn/welder-tracker/internal/sysutil"
)

// globals shared by every subcommand; filled in PersistentPreRunE.
type globals struct {
	envFile string
	dbPath  string
	cfg     config.Config
	logger  zerolog.Logger
}

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "weldertrack",
		Short:         "Track welder production by article and month",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database path (overrides DB_PATH)")

	root.AddCommand(
		newServeCmd(g),
		newWelderCmd(g),
		newNormCmd(g),
		newRecordCmd(g),
		newHistoryCmd(g),
		newSummaryCmd(g),
		newExportCmd(g),
		newImportCmd(g),
	)
	return root
}

// load reads .env and the environment, then sets up logging.
func (g *globals) load(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(g.envFile); err != nil {
		return fmt.Errorf("load %s: %w", g.envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg.DBPath = sysutil.FirstNonEmpty(g.dbPath, cfg.DBPath)
	g.cfg = cfg

	sysutil.SetLogLevel(cfg.LogLevel)
	g.logger = sysutil.NewLogger(cmd.ErrOrStderr(), cfg.LogPretty).
		With().Str("command", cmd.CommandPath()).Logger()
	log.Logger = g.logger
	cmd.SetContext(g.logger.WithContext(cmd.Context()))
	return nil
}
