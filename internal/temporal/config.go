package temporal

import "time"

// DefaultTaskQueue is used when no task queue is configured.
const DefaultTaskQueue = "SOLAR_JOBS"

// JobWorkflowName is the registered name of the per-job fan-out workflow.
const JobWorkflowName = "JobWorkflow"

// ScheduleIDPrefix prefixes the Temporal schedule of each job.
const ScheduleIDPrefix = "solar-job-"

// DefaultActivityTimeout bounds one tenant's run of a job.
const DefaultActivityTimeout = 30 * time.Minute

// JobWorkflowParams is the input of the job workflow.
type JobWorkflowParams struct {
	JobName     string
	MaxAttempts int32
}

// RunJobParams is the input of RunJobActivity.
type RunJobParams struct {
	TenantID string
	JobName  string
}

// RunJobResult is what one tenant's run reported.
type RunJobResult struct {
	TenantID string
	RunID    string
	Skipped  bool
	Summary  map[string]interface{}
}

// JobWorkflowResult aggregates a fan-out over all tenants.
type JobWorkflowResult struct {
	JobName   string
	Completed []string
	Skipped   []string
	Failed    map[string]string
}
