package temporal

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
	sdktemporal "go.temporal.io/sdk/temporal"
)

// ScheduleOptions builds the Temporal schedule that starts JobWorkflow for jobName.
// Overlapping starts are skipped, which is the server default.
func ScheduleOptions(jobName, cronExpr, taskQueue string, maxAttempts int32) client.ScheduleOptions {
	id := ScheduleIDPrefix + jobName
	return client.ScheduleOptions{
		ID: id,
		Spec: client.ScheduleSpec{
			CronExpressions: []string{cronExpr},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        id + "-run",
			Workflow:  JobWorkflowName,
			Args:      []interface{}{JobWorkflowParams{JobName: jobName, MaxAttempts: maxAttempts}},
			TaskQueue: taskQueue,
		},
	}
}

// SyncSchedules creates a schedule per job, or updates spec and action of one that
// already exists.
func SyncSchedules(ctx context.Context, sc client.ScheduleClient, schedules map[string]string, taskQueue string, maxAttempts int32, logger zerolog.Logger) error {
	names := make([]string, 0, len(schedules))
	for name := range schedules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		opts := ScheduleOptions(name, schedules[name], taskQueue, maxAttempts)
		_, err := sc.Create(ctx, opts)
		if errors.Is(err, sdktemporal.ErrScheduleAlreadyRunning) {
			err = sc.GetHandle(ctx, opts.ID).Update(ctx, client.ScheduleUpdateOptions{
				DoUpdate: func(in client.ScheduleUpdateInput) (*client.ScheduleUpdate, error) {
					schedule := in.Description.Schedule
					schedule.Spec = &opts.Spec
					schedule.Action = opts.Action
					return &client.ScheduleUpdate{Schedule: &schedule}, nil
				},
			})
			if err == nil {
				logger.Info().Str("schedule_id", opts.ID).Str("cron", schedules[name]).Msg("schedule updated")
				continue
			}
		}
		if err != nil {
			return fmt.Errorf("sync schedule %s: %w", opts.ID, err)
		}
		logger.Info().Str("schedule_id", opts.ID).Str("cron", schedules[name]).Msg("schedule created")
	}
	return nil
}
