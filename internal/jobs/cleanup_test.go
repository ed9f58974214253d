package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository/memstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCleanup(f *fixture) (*CleanupJob, *Runner) {
	job := NewCleanupJob(f.st, f.st.Cleanup(), f.st.Projects(), f.st.JobRuns(), f.audit, CleanupOptions{}, zerolog.Nop())
	job.now = f.clock
	return job, f.runner(job)
}

func seedHousekeeping(f *fixture, tenantID string) {
	f.st.AddSession(memstore.SessionRow{TenantID: tenantID, ExpiresAt: f.now.Add(-time.Minute)})
	f.st.AddSession(memstore.SessionRow{TenantID: tenantID, ExpiresAt: f.now.Add(time.Hour)})

	f.st.AddChallenge(memstore.ChallengeRow{TenantID: tenantID, ExpiresAt: f.now.Add(-time.Minute)})
	f.st.AddChallenge(memstore.ChallengeRow{TenantID: tenantID, ExpiresAt: f.now.Add(-time.Minute), Verified: true})
	f.st.AddChallenge(memstore.ChallengeRow{TenantID: tenantID, ExpiresAt: f.now.Add(time.Minute)})

	f.st.AddNotificationLog(memstore.NotificationLogRow{TenantID: tenantID, Status: "SENT", CreatedAt: f.daysAgo(91)})
	f.st.AddNotificationLog(memstore.NotificationLogRow{TenantID: tenantID, Status: "BOUNCED", CreatedAt: f.daysAgo(120)})
	f.st.AddNotificationLog(memstore.NotificationLogRow{TenantID: tenantID, Status: "PENDING", CreatedAt: f.daysAgo(120)})
	f.st.AddNotificationLog(memstore.NotificationLogRow{TenantID: tenantID, Status: "SENT", CreatedAt: f.daysAgo(10)})
}

func TestCleanupJob_PurgesExpiredRows(t *testing.T) {
	f := newFixture(t)
	_, r := newCleanup(f)
	seedHousekeeping(f, tenant)
	seedHousekeeping(f, "tenant-b")

	old := f.daysAgo(31)
	f.st.AddJobRun(models.JobRun{TenantID: tenant, JobName: "backup-job", Status: models.JobRunStatusCompleted, StartedAt: old, CompletedAt: timePtr(old)})
	recent := f.daysAgo(2)
	f.st.AddJobRun(models.JobRun{TenantID: tenant, JobName: "backup-job", Status: models.JobRunStatusFailed, StartedAt: recent, CompletedAt: timePtr(recent)})

	res, err := r.Run(context.Background(), tenant, models.JobNameCleanup)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Summary["sessions_deleted"])
	assert.Equal(t, int64(1), res.Summary["challenges_deleted"])
	assert.Equal(t, int64(2), res.Summary["notification_logs_deleted"])
	assert.Equal(t, int64(1), res.Summary["job_runs_deleted"])

	sessions, challenges, logs := f.st.Counts(tenant)
	assert.Equal(t, 1, sessions)
	assert.Equal(t, 2, challenges)
	assert.Equal(t, 2, logs)

	sessions, challenges, logs = f.st.Counts("tenant-b")
	assert.Equal(t, 2, sessions)
	assert.Equal(t, 3, challenges)
	assert.Equal(t, 4, logs)

	// the recent failed run and the cleanup run itself remain
	assert.Len(t, f.st.ListJobRuns(tenant), 2)

	again, err := r.Run(context.Background(), tenant, models.JobNameCleanup)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Summary["sessions_deleted"])
	assert.Equal(t, int64(0), again.Summary["notification_logs_deleted"])
}

func TestCleanupJob_ExpiryWarningsAreDeduplicated(t *testing.T) {
	f := newFixture(t)
	job, _ := newCleanup(f)
	f.st.AddProject(models.Project{ID: "soon", TenantID: tenant, Status: models.ProjectStatusActive, ExpiresAt: timePtr(f.now.Add(12 * time.Hour))})
	f.st.AddProject(models.Project{ID: "later", TenantID: tenant, Status: models.ProjectStatusActive, ExpiresAt: timePtr(f.now.Add(48 * time.Hour))})
	f.st.AddProject(models.Project{ID: "gone", TenantID: tenant, Status: models.ProjectStatusCancelled, ExpiresAt: timePtr(f.now.Add(time.Hour))})
	f.st.AddProject(models.Project{ID: "past", TenantID: tenant, Status: models.ProjectStatusActive, ExpiresAt: timePtr(f.now.Add(-time.Hour))})

	summary, err := job.Execute(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, summary["expiry_warnings"])

	f.now = f.now.Add(time.Hour)
	summary, err = job.Execute(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, 0, summary["expiry_warnings"])

	audits := f.st.ListAudits(tenant)
	require.Len(t, audits, 1)
	assert.Equal(t, audit.ActionProjectExpiryWarning, audits[0].Action)
	assert.Equal(t, "soon", *audits[0].EntityID)
}

func TestCleanupJob_StepFailureKeepsOtherSteps(t *testing.T) {
	f := newFixture(t)
	job, _ := newCleanup(f)
	seedHousekeeping(f, tenant)
	f.st.InjectFault("sessions.delete", errors.New("lock timeout"))

	summary, err := job.Execute(context.Background(), tenant)
	require.ErrorContains(t, err, "sessions_deleted")
	assert.NotContains(t, summary, "sessions_deleted")
	assert.Equal(t, int64(1), summary["challenges_deleted"])
	assert.Equal(t, int64(2), summary["notification_logs_deleted"])
}
