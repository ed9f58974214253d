package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jobRunRowColumns = []string{
	"id", "tenant_id", "job_name", "job_type", "status", "started_at",
	"completed_at", "duration_ms", "error_message", "metadata",
}

func TestJobRunAcquire_InsertsRunningRow(t *testing.T) {
	s, mock := newMockSession(t)
	started := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO job_runs`).
		WithArgs(testTenant, models.JobNameCommission, models.JobTypeCommission, started, []byte("{}")).
		WillReturnRows(sqlmock.NewRows(jobRunRowColumns).
			AddRow("run-1", testTenant, models.JobNameCommission, "COMMISSION", "RUNNING", started, nil, nil, nil, []byte("{}")))

	run, err := NewJobRunRepository().Acquire(context.Background(), s, models.JobNameCommission, models.JobTypeCommission, started, nil)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, models.JobRunStatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRunAcquire_UniqueViolationIsBusy(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectQuery(`INSERT INTO job_runs`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "job_runs_running_uniq"})

	_, err := NewJobRunRepository().Acquire(context.Background(), s, models.JobNameCleanup, models.JobTypeCleanup, time.Now(), nil)
	assert.ErrorIs(t, err, ErrJobBusy)
}

func TestJobRunAcquire_OtherConstraintIsNotBusy(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectQuery(`INSERT INTO job_runs`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "job_runs_pkey"})

	_, err := NewJobRunRepository().Acquire(context.Background(), s, models.JobNameCleanup, models.JobTypeCleanup, time.Now(), nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrJobBusy))
}

func TestJobRunComplete_MergesMetadata(t *testing.T) {
	s, mock := newMockSession(t)
	at := time.Date(2026, 3, 1, 2, 5, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE job_runs`).
		WithArgs("run-1", testTenant, models.JobRunStatusCompleted, at, nil, []byte(`{"released":2}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewJobRunRepository().Complete(context.Background(), s, "run-1", at, map[string]interface{}{"released": 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRunFail_AlreadyFinalized(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectExec(`UPDATE job_runs`).
		WithArgs("run-1", testTenant, models.JobRunStatusFailed, sqlmock.AnyArg(), "db down", []byte("{}")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	finished := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM job_runs`).
		WithArgs("run-1", testTenant).
		WillReturnRows(sqlmock.NewRows(jobRunRowColumns).
			AddRow("run-1", testTenant, models.JobNameCommission, "COMMISSION", "COMPLETED", finished, finished, int64(0), nil, []byte("{}")))

	err := NewJobRunRepository().Fail(context.Background(), s, "run-1", time.Now(), "db down")
	assert.ErrorIs(t, err, ErrRunNotRunning)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRunTimeout_AbsentRunIsNotFound(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectExec(`UPDATE job_runs`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM job_runs`).
		WithArgs("22222222-2222-2222-2222-222222222222", testTenant).
		WillReturnRows(sqlmock.NewRows(jobRunRowColumns))

	err := NewJobRunRepository().Timeout(context.Background(), s, "22222222-2222-2222-2222-222222222222", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRunTimeout_MalformedIDIsNotFound(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectExec(`UPDATE job_runs`).
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "stuck"`})

	err := NewJobRunRepository().Timeout(context.Background(), s, "stuck", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobRunTimeout_UsesFixedMessage(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectExec(`UPDATE job_runs`).
		WithArgs("run-9", testTenant, models.JobRunStatusTimeout, sqlmock.AnyArg(), TimeoutMessage, []byte("{}")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewJobRunRepository().Timeout(context.Background(), s, "run-9", time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRunDeleteFinishedBefore(t *testing.T) {
	s, mock := newMockSession(t)
	cutoff := time.Now().AddDate(0, 0, -30)

	mock.ExpectExec(`DELETE FROM job_runs`).
		WithArgs(testTenant, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := NewJobRunRepository().DeleteFinishedBefore(context.Background(), s, cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestJobRunGet_NotFound(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectQuery(`SELECT .* FROM job_runs`).
		WithArgs("missing", testTenant).
		WillReturnRows(sqlmock.NewRows(jobRunRowColumns))

	_, err := NewJobRunRepository().Get(context.Background(), s, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
