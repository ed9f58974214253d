package workflows

import (
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/temporal"
	"github.com/lehoang82vt/solar-platform-sub001/internal/temporal/activities"
	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// JobWorkflow runs one job for every active tenant. Tenants run in parallel and
// each re-enters its own tenant scope inside the activity. A tenant whose job keeps
// failing after the retry budget is reported in the result and fails the workflow.
func JobWorkflow(ctx workflow.Context, params temporal.JobWorkflowParams) (*temporal.JobWorkflowResult, error) {
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: temporal.DefaultActivityTimeout,
		RetryPolicy: &sdktemporal.RetryPolicy{
			InitialInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Minute,
			MaximumAttempts:    maxAttempts,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger := workflow.GetLogger(ctx)
	logger.Info("Starting job workflow", "JobName", params.JobName)

	var a *activities.Activities

	var tenants []string
	if err := workflow.ExecuteActivity(ctx, a.ListTenantsActivity).Get(ctx, &tenants); err != nil {
		logger.Error("Failed to list tenants.", "error", err)
		return nil, err
	}

	futures := make([]workflow.Future, len(tenants))
	for i, tenantID := range tenants {
		futures[i] = workflow.ExecuteActivity(ctx, a.RunJobActivity, temporal.RunJobParams{
			TenantID: tenantID,
			JobName:  params.JobName,
		})
	}

	result := &temporal.JobWorkflowResult{JobName: params.JobName, Failed: map[string]string{}}
	for i, f := range futures {
		var run temporal.RunJobResult
		if err := f.Get(ctx, &run); err != nil {
			logger.Error("Job failed for tenant.", "TenantID", tenants[i], "error", err)
			result.Failed[tenants[i]] = err.Error()
			continue
		}
		if run.Skipped {
			result.Skipped = append(result.Skipped, tenants[i])
			continue
		}
		result.Completed = append(result.Completed, tenants[i])
	}

	if len(result.Failed) > 0 {
		return result, sdktemporal.NewApplicationError("job failed for some tenants", "PartialFailure", result.Failed)
	}
	logger.Info("Job workflow completed.", "JobName", params.JobName, "Tenants", len(tenants), "Skipped", len(result.Skipped))
	return result, nil
}
