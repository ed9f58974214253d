package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
)

type jobRunRepo struct{ st *Store }

func (st *Store) JobRuns() repository.JobRunRepository { return jobRunRepo{st} }

func (r jobRunRepo) Acquire(ctx context.Context, s repository.Session, jobName string, jobType models.JobType, startedAt time.Time, metadata map[string]interface{}) (models.JobRun, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.JobRun{}, err
	}
	if err := r.st.fault("job_runs.acquire"); err != nil {
		return models.JobRun{}, err
	}
	for _, run := range r.st.data.jobRuns {
		if run.TenantID == tenantID && run.JobName == jobName && run.Status == models.JobRunStatusRunning {
			return models.JobRun{}, repository.ErrJobBusy
		}
	}
	meta, err := mergeMetadata(nil, metadata)
	if err != nil {
		return models.JobRun{}, err
	}
	run := models.JobRun{
		ID:        newID(),
		TenantID:  tenantID,
		JobName:   jobName,
		JobType:   jobType,
		Status:    models.JobRunStatusRunning,
		StartedAt: startedAt,
		Metadata:  meta,
	}
	r.st.data.jobRuns = append(r.st.data.jobRuns, run)
	return run, nil
}

func (r jobRunRepo) Complete(ctx context.Context, s repository.Session, runID string, at time.Time, metadata map[string]interface{}) error {
	return r.finish(s, runID, models.JobRunStatusCompleted, at, nil, metadata)
}

func (r jobRunRepo) Fail(ctx context.Context, s repository.Session, runID string, at time.Time, message string) error {
	return r.finish(s, runID, models.JobRunStatusFailed, at, &message, nil)
}

func (r jobRunRepo) Timeout(ctx context.Context, s repository.Session, runID string, at time.Time) error {
	msg := repository.TimeoutMessage
	return r.finish(s, runID, models.JobRunStatusTimeout, at, &msg, nil)
}

func (r jobRunRepo) finish(s repository.Session, runID string, status models.JobRunStatus, at time.Time, message *string, metadata map[string]interface{}) error {
	tenantID, err := tenantOf(s)
	if err != nil {
		return err
	}
	if err := r.st.fault("job_runs.finish"); err != nil {
		return err
	}
	for i, run := range r.st.data.jobRuns {
		if run.ID != runID || run.TenantID != tenantID {
			continue
		}
		if run.Status != models.JobRunStatusRunning {
			return repository.ErrRunNotRunning
		}
		meta, err := mergeMetadata(run.Metadata, metadata)
		if err != nil {
			return err
		}
		closeRun(&run, status, at, message)
		run.Metadata = meta
		r.st.data.jobRuns[i] = run
		return nil
	}
	return repository.ErrNotFound
}

func (r jobRunRepo) ExpireStale(ctx context.Context, s repository.Session, jobName string, startedBefore, at time.Time) (int64, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return 0, err
	}
	msg := repository.TimeoutMessage
	var n int64
	for i, run := range r.st.data.jobRuns {
		if run.TenantID == tenantID && run.JobName == jobName && run.Status == models.JobRunStatusRunning && run.StartedAt.Before(startedBefore) {
			closeRun(&run, models.JobRunStatusTimeout, at, &msg)
			r.st.data.jobRuns[i] = run
			n++
		}
	}
	return n, nil
}

func (r jobRunRepo) DeleteFinishedBefore(ctx context.Context, s repository.Session, before time.Time) (int64, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return 0, err
	}
	var (
		n    int64
		kept = r.st.data.jobRuns[:0:0]
	)
	for _, run := range r.st.data.jobRuns {
		if run.TenantID == tenantID && run.Status.IsTerminal() && run.CompletedAt != nil && run.CompletedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, run)
	}
	r.st.data.jobRuns = kept
	return n, nil
}

func (r jobRunRepo) Get(ctx context.Context, s repository.Session, runID string) (models.JobRun, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.JobRun{}, err
	}
	for _, run := range r.st.data.jobRuns {
		if run.ID == runID && run.TenantID == tenantID {
			return run, nil
		}
	}
	return models.JobRun{}, repository.ErrNotFound
}

func (r jobRunRepo) List(ctx context.Context, s repository.Session, jobName string, limit int) ([]models.JobRun, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []models.JobRun
	for i := len(r.st.data.jobRuns) - 1; i >= 0 && len(runs) < limit; i-- {
		run := r.st.data.jobRuns[i]
		if run.TenantID == tenantID && (jobName == "" || run.JobName == jobName) {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

func closeRun(run *models.JobRun, status models.JobRunStatus, at time.Time, message *string) {
	completed := at
	duration := at.Sub(run.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}
	run.Status = status
	run.CompletedAt = &completed
	run.DurationMS = &duration
	run.ErrorMessage = message
}

func mergeMetadata(existing json.RawMessage, extra map[string]interface{}) (json.RawMessage, error) {
	merged := map[string]interface{}{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &merged); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	for k, v := range extra {
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}
