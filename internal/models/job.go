package models

import (
	"encoding/json"
	"time"
)

type JobRunStatus string

const (
	JobRunStatusRunning   JobRunStatus = "RUNNING"
	JobRunStatusCompleted JobRunStatus = "COMPLETED"
	JobRunStatusFailed    JobRunStatus = "FAILED"
	JobRunStatusTimeout   JobRunStatus = "TIMEOUT"
)

// IsTerminal reports whether the run can no longer change status.
func (s JobRunStatus) IsTerminal() bool {
	return s == JobRunStatusCompleted || s == JobRunStatusFailed || s == JobRunStatusTimeout
}

type JobType string

const (
	JobTypeCommission  JobType = "COMMISSION"
	JobTypeMaintenance JobType = "MAINTENANCE"
	JobTypeCleanup     JobType = "CLEANUP"
	JobTypeBackup      JobType = "BACKUP"
)

// Logical job identities. A (tenant, job name) pair can have at most one RUNNING row.
const (
	JobNameCommission = "commission-job"
	JobNamePhoneGate  = "phone-gate-job"
	JobNameCleanup    = "cleanup-job"
	JobNameBackup     = "backup-job"
)

// JobRun is one execution attempt recorded in the job run ledger.
type JobRun struct {
	ID           string          `json:"id" db:"id"`
	TenantID     string          `json:"tenant_id" db:"tenant_id"`
	JobName      string          `json:"job_name" db:"job_name"`
	JobType      JobType         `json:"job_type" db:"job_type"`
	Status       JobRunStatus    `json:"status" db:"status"`
	StartedAt    time.Time       `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	DurationMS   *int64          `json:"duration_ms,omitempty" db:"duration_ms"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	Metadata     json.RawMessage `json:"metadata,omitempty" db:"metadata"`
}
