package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

var (
	// ErrJobBusy means another run of the same (tenant, job name) is still RUNNING.
	ErrJobBusy = errors.New("job is already running")
	// ErrRunNotRunning is returned when finalizing a run that already reached a terminal status.
	ErrRunNotRunning = errors.New("job run is not running")
)

// TimeoutMessage is stored on runs moved to TIMEOUT.
const TimeoutMessage = "job run exceeded its lease and was timed out"

const runningConstraint = "job_runs_running_uniq"

// JobRunRepository is the job run ledger. Its partial unique index on
// (tenant_id, job_name) WHERE status = 'RUNNING' doubles as the job lock.
type JobRunRepository interface {
	Acquire(ctx context.Context, s Session, jobName string, jobType models.JobType, startedAt time.Time, metadata map[string]interface{}) (models.JobRun, error)
	Complete(ctx context.Context, s Session, runID string, at time.Time, metadata map[string]interface{}) error
	Fail(ctx context.Context, s Session, runID string, at time.Time, message string) error
	Timeout(ctx context.Context, s Session, runID string, at time.Time) error
	ExpireStale(ctx context.Context, s Session, jobName string, startedBefore, at time.Time) (int64, error)
	DeleteFinishedBefore(ctx context.Context, s Session, before time.Time) (int64, error)
	Get(ctx context.Context, s Session, runID string) (models.JobRun, error)
	List(ctx context.Context, s Session, jobName string, limit int) ([]models.JobRun, error)
}

type jobRunRepository struct{}

func NewJobRunRepository() JobRunRepository {
	return &jobRunRepository{}
}

const jobRunColumns = `id, tenant_id, job_name, job_type, status, started_at, completed_at, duration_ms, error_message, metadata`

func (r *jobRunRepository) Acquire(ctx context.Context, s Session, jobName string, jobType models.JobType, startedAt time.Time, metadata map[string]interface{}) (models.JobRun, error) {
	meta, err := marshalMetadata(metadata)
	if err != nil {
		return models.JobRun{}, err
	}

	query := `
		INSERT INTO job_runs (tenant_id, job_name, job_type, status, started_at, metadata)
		VALUES ($1, $2, $3, 'RUNNING', $4, $5)
		RETURNING ` + jobRunColumns

	run, err := scanJobRun(s.QueryRowContext(ctx, query, s.TenantID(), jobName, jobType, startedAt, meta))
	if err != nil {
		if isUniqueViolation(err, runningConstraint) {
			return models.JobRun{}, ErrJobBusy
		}
		return models.JobRun{}, fmt.Errorf("acquire job run %s: %w", jobName, err)
	}
	return run, nil
}

func (r *jobRunRepository) Complete(ctx context.Context, s Session, runID string, at time.Time, metadata map[string]interface{}) error {
	return r.finish(ctx, s, runID, models.JobRunStatusCompleted, at, nil, metadata)
}

func (r *jobRunRepository) Fail(ctx context.Context, s Session, runID string, at time.Time, message string) error {
	return r.finish(ctx, s, runID, models.JobRunStatusFailed, at, &message, nil)
}

func (r *jobRunRepository) Timeout(ctx context.Context, s Session, runID string, at time.Time) error {
	msg := TimeoutMessage
	return r.finish(ctx, s, runID, models.JobRunStatusTimeout, at, &msg, nil)
}

func (r *jobRunRepository) finish(ctx context.Context, s Session, runID string, status models.JobRunStatus, at time.Time, errorMessage *string, metadata map[string]interface{}) error {
	meta, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}

	const query = `
		UPDATE job_runs
		   SET status        = $3,
		       completed_at  = $4,
		       duration_ms   = GREATEST(0, FLOOR(EXTRACT(EPOCH FROM ($4::timestamptz - started_at)) * 1000))::bigint,
		       error_message = $5,
		       metadata      = COALESCE(metadata, '{}'::jsonb) || $6::jsonb
		 WHERE id = $1 AND tenant_id = $2 AND status = 'RUNNING'
	`
	res, err := s.ExecContext(ctx, query, runID, s.TenantID(), status, at, nullableString(errorMessage), meta)
	if err != nil {
		if isMissing(err) {
			return ErrNotFound
		}
		return fmt.Errorf("finish job run %s as %s: %w", runID, status, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	// Nothing moved: the run is either absent for this tenant or already terminal.
	if _, err := r.Get(ctx, s, runID); err != nil {
		return err
	}
	return ErrRunNotRunning
}

func (r *jobRunRepository) ExpireStale(ctx context.Context, s Session, jobName string, startedBefore, at time.Time) (int64, error) {
	const query = `
		UPDATE job_runs
		   SET status        = 'TIMEOUT',
		       completed_at  = $4,
		       duration_ms   = GREATEST(0, FLOOR(EXTRACT(EPOCH FROM ($4::timestamptz - started_at)) * 1000))::bigint,
		       error_message = $5
		 WHERE tenant_id = $1 AND job_name = $2 AND status = 'RUNNING' AND started_at < $3
	`
	res, err := s.ExecContext(ctx, query, s.TenantID(), jobName, startedBefore, at, TimeoutMessage)
	if err != nil {
		return 0, fmt.Errorf("expire stale runs of %s: %w", jobName, err)
	}
	return res.RowsAffected()
}

func (r *jobRunRepository) DeleteFinishedBefore(ctx context.Context, s Session, before time.Time) (int64, error) {
	const query = `
		DELETE FROM job_runs
		 WHERE tenant_id = $1
		   AND status IN ('COMPLETED', 'FAILED', 'TIMEOUT')
		   AND completed_at < $2
	`
	res, err := s.ExecContext(ctx, query, s.TenantID(), before)
	if err != nil {
		return 0, fmt.Errorf("delete finished job runs: %w", err)
	}
	return res.RowsAffected()
}

func (r *jobRunRepository) Get(ctx context.Context, s Session, runID string) (models.JobRun, error) {
	query := `SELECT ` + jobRunColumns + ` FROM job_runs WHERE id = $1 AND tenant_id = $2`
	run, err := scanJobRun(s.QueryRowContext(ctx, query, runID, s.TenantID()))
	if err != nil {
		if isMissing(err) {
			return models.JobRun{}, ErrNotFound
		}
		return models.JobRun{}, err
	}
	return run, nil
}

func (r *jobRunRepository) List(ctx context.Context, s Session, jobName string, limit int) ([]models.JobRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT ` + jobRunColumns + `
		FROM job_runs
		WHERE tenant_id = $1 AND ($2 = '' OR job_name = $2)
		ORDER BY started_at DESC
		LIMIT $3
	`
	rows, err := s.QueryContext(ctx, query, s.TenantID(), jobName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]models.JobRun, 0, limit)
	for rows.Next() {
		run, err := scanJobRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func scanJobRun(scanner rowScanner) (models.JobRun, error) {
	var (
		run         models.JobRun
		completedAt sql.NullTime
		durationMS  sql.NullInt64
		errMsg      sql.NullString
		metadata    []byte
	)
	if err := scanner.Scan(
		&run.ID,
		&run.TenantID,
		&run.JobName,
		&run.JobType,
		&run.Status,
		&run.StartedAt,
		&completedAt,
		&durationMS,
		&errMsg,
		&metadata,
	); err != nil {
		return models.JobRun{}, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if durationMS.Valid {
		d := durationMS.Int64
		run.DurationMS = &d
	}
	if errMsg.Valid {
		m := errMsg.String
		run.ErrorMessage = &m
	}
	if len(metadata) > 0 {
		run.Metadata = metadata
	}
	return run, nil
}

func marshalMetadata(metadata map[string]interface{}) ([]byte, error) {
	if len(metadata) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}
