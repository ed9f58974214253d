package cmd

import (
	"github.com/spf13/cobra"
)

func newRunsCmd(env *environment) *cobra.Command {
	var (
		tenantID string
		jobName  string
		limit    int
	)
	c := &cobra.Command{
		Use:   "runs",
		Short: "List recent job runs of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := env.services(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			runs, err := svc.Runner.ListRuns(cmd.Context(), tenantID, jobName, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, runs)
		},
	}
	c.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	c.Flags().StringVar(&jobName, "job", "", "only runs of this job")
	c.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	_ = c.MarkFlagRequired("tenant")
	return c
}
