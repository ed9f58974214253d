package cmd

import (
	"github.com/spf13/cobra"
)

func newTimeoutCmd(env *environment) *cobra.Command {
	var tenantID string
	c := &cobra.Command{
		Use:   "timeout [run_id]",
		Short: "Mark a stuck RUNNING run as TIMEOUT so the job can run again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := env.services(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Runner.Timeout(cmd.Context(), tenantID, args[0]); err != nil {
				return err
			}
			cmd.Printf("run %s timed out\n", args[0])
			return nil
		},
	}
	c.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	_ = c.MarkFlagRequired("tenant")
	return c
}
