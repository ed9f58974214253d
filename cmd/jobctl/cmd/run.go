package cmd

import (
	"errors"
	"fmt"

	"github.com/lehoang82vt/solar-platform-sub001/internal/config"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/spf13/cobra"
)

func newRunCmd(env *environment) *cobra.Command {
	var (
		tenantID string
		all      bool
	)
	c := &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job for one tenant or for every active tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (tenantID != "") {
				return errors.New("exactly one of --tenant or --all is required")
			}
			cfg, err := env.config()
			if err != nil {
				return err
			}
			// The mock store lives in this process only, so its objects would be gone
			// before anything could restore them.
			if args[0] == models.JobNameBackup && cfg.Backup.Store == config.BackupStoreMock {
				return fmt.Errorf("%s needs backup.store %q; the %q store does not outlive jobctl",
					args[0], config.BackupStoreGCS, config.BackupStoreMock)
			}

			svc, closeFn, err := env.services(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if all {
				results, err := svc.Runner.RunAll(cmd.Context(), svc.Tenants, args[0])
				if printErr := printJSON(cmd, results); printErr != nil {
					return printErr
				}
				return err
			}

			res, err := svc.Runner.Run(cmd.Context(), tenantID, args[0])
			if err != nil {
				return err
			}
			if res.Skipped {
				cmd.Printf("%s is already running for %s, skipped\n", args[0], tenantID)
				return nil
			}
			return printJSON(cmd, res)
		},
	}
	c.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	c.Flags().BoolVar(&all, "all", false, "run for every active tenant")
	return c
}
