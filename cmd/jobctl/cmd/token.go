package cmd

import (
	"fmt"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/authz"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/spf13/cobra"
)

func newTokenCmd(env *environment) *cobra.Command {
	var (
		tenantID string
		userID   string
		roles    []string
		ttl      time.Duration
	)
	c := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			userRoles := make([]models.UserRole, 0, len(roles))
			for _, r := range roles {
				userRoles = append(userRoles, models.UserRole(r))
			}
			token, err := authz.IssueToken(cfg.JWTSecret, tenantID, userID, userRoles, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	c.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	c.Flags().StringVar(&userID, "user", "jobctl", "subject of the token")
	c.Flags().StringSliceVar(&roles, "role", []string{string(models.RoleAdmin)}, "roles to grant")
	c.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = c.MarkFlagRequired("tenant")
	return c
}
