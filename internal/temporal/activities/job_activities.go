package activities

import (
	"context"

	"github.com/lehoang82vt/solar-platform-sub001/internal/jobs"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/lehoang82vt/solar-platform-sub001/internal/temporal"
	"github.com/pkg/errors"
	"go.temporal.io/sdk/activity"
	sdktemporal "go.temporal.io/sdk/temporal"
)

type Activities struct {
	Runner  *jobs.Runner
	Tenants repository.TenantRepository
}

func (a *Activities) ListTenantsActivity(ctx context.Context) ([]string, error) {
	ids, err := a.Tenants.ListActiveIDs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tenants")
	}
	activity.GetLogger(ctx).Info("Listed active tenants", "count", len(ids))
	return ids, nil
}

// RunJobActivity runs one job for one tenant under the job run ledger. A skipped
// run is a successful activity. Unknown jobs and missing tenants are not retried.
func (a *Activities) RunJobActivity(ctx context.Context, params temporal.RunJobParams) (*temporal.RunJobResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Running job", "tenantID", params.TenantID, "jobName", params.JobName)

	res, err := a.Runner.Run(ctx, params.TenantID, params.JobName)
	if errors.Is(err, jobs.ErrUnknownJob) || errors.Is(err, repository.ErrTenantRequired) {
		return nil, sdktemporal.NewNonRetryableApplicationError(err.Error(), "InvalidJobRequest", err)
	}
	if err != nil {
		logger.Error("Job run failed", "tenantID", params.TenantID, "jobName", params.JobName, "error", err)
		return nil, err
	}
	return &temporal.RunJobResult{
		TenantID: params.TenantID,
		RunID:    res.RunID,
		Skipped:  res.Skipped,
		Summary:  res.Summary,
	}, nil
}
