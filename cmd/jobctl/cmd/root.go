package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"

	"github.com/lehoang82vt/solar-platform-sub001/internal/app"
	"github.com/lehoang82vt/solar-platform-sub001/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// NewRootCmd builds the jobctl command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "jobctl",
		Short: "Operate the scheduled jobs of the solar platform",
		Long: `jobctl runs scheduled jobs outside the scheduler and inspects the job run ledger.

Common workflows:

  Run a job for one tenant:
    jobctl run commission-job --tenant acme

  Run a job for every active tenant:
    jobctl run cleanup-job --all

  Release a stuck run:
    jobctl timeout <run-id> --tenant acme

  Show when each job fires next:
    jobctl schedules

Configuration is read from config.yaml (or --config) with SOLAR_ environment overrides.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")

	env := &environment{cfgFile: &cfgFile}
	root.AddCommand(
		newRunCmd(env),
		newRunsCmd(env),
		newTimeoutCmd(env),
		newSchedulesCmd(env),
		newTokenCmd(env),
	)
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}

// environment lazily loads configuration and services for subcommands.
type environment struct {
	cfgFile *string
}

func (e *environment) config() (*config.Config, error) {
	return config.LoadFrom(*e.cfgFile)
}

func (e *environment) services(ctx context.Context) (*app.Services, func(), error) {
	cfg, err := e.config()
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open database")
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	svc, err := app.New(ctx, cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return svc, func() { db.Close() }, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
