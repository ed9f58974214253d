package jobs

import (
	"context"
	"sort"

	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// NewCronScheduler schedules RunAll for each job in schedules on an in-process cron.
// It serves deployments without Temporal. The caller starts and stops the returned cron.
func NewCronScheduler(ctx context.Context, runner *Runner, tenants repository.TenantRepository, schedules map[string]string, logger zerolog.Logger) (*cron.Cron, error) {
	logger = logger.With().Str("component", "cron_scheduler").Logger()
	c := cron.New()

	names := make([]string, 0, len(schedules))
	for name := range schedules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := runner.Lookup(name); err != nil {
			return nil, err
		}
		jobName := name
		_, err := c.AddFunc(schedules[name], func() {
			results, err := runner.RunAll(ctx, tenants, jobName)
			if err != nil {
				logger.Error().Err(err).Str("job_name", jobName).Msg("scheduled run failed")
				return
			}
			logger.Info().Str("job_name", jobName).Int("tenants", len(results)).Msg("scheduled run finished")
		})
		if err != nil {
			return nil, errors.Wrapf(err, "schedule %s", name)
		}
	}
	return c, nil
}
