package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newSchedulesCmd(env *environment) *cobra.Command {
	var at string
	c := &cobra.Command{
		Use:   "schedules",
		Short: "Show the configured schedule and next activation of each job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			if at != "" {
				if now, err = time.Parse(time.RFC3339, at); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "JOB\tSCHEDULE\tNEXT RUN")
			for _, name := range cfg.JobNames() {
				next, err := cfg.NextRun(name, now)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, cfg.Jobs.Schedules[name], next.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	c.Flags().StringVar(&at, "at", "", "reference time in RFC3339 (default now)")
	return c
}
