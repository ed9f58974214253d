package jobs

import (
	"context"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	NotificationLogRetentionDays = 90
	DefaultRunRetentionDays      = 30
	ExpiryWarningWindow          = 24 * time.Hour
)

type CleanupOptions struct {
	RunRetentionDays int
}

// CleanupJob purges expired auth artefacts, old notification logs and finished
// ledger rows, and warns about projects that expire within a day.
type CleanupJob struct {
	tx       repository.Transactor
	cleanup  repository.CleanupRepository
	projects repository.ProjectRepository
	runs     repository.JobRunRepository
	audit    *audit.Writer
	opts     CleanupOptions
	logger   zerolog.Logger
	now      func() time.Time
}

func NewCleanupJob(tx repository.Transactor, cleanup repository.CleanupRepository, projects repository.ProjectRepository, runs repository.JobRunRepository, auditWriter *audit.Writer, opts CleanupOptions, logger zerolog.Logger) *CleanupJob {
	if opts.RunRetentionDays <= 0 {
		opts.RunRetentionDays = DefaultRunRetentionDays
	}
	return &CleanupJob{
		tx:       tx,
		cleanup:  cleanup,
		projects: projects,
		runs:     runs,
		audit:    auditWriter,
		opts:     opts,
		logger:   logger.With().Str("component", "cleanup_job").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (j *CleanupJob) Name() string         { return models.JobNameCleanup }
func (j *CleanupJob) Type() models.JobType { return models.JobTypeCleanup }

func (j *CleanupJob) Execute(ctx context.Context, tenantID string) (Summary, error) {
	now := j.now()
	summary := Summary{}

	steps := []struct {
		key string
		fn  func(repository.Session) (int64, error)
	}{
		{"sessions_deleted", func(s repository.Session) (int64, error) {
			return j.cleanup.DeleteExpiredSessions(ctx, s, now)
		}},
		{"challenges_deleted", func(s repository.Session) (int64, error) {
			return j.cleanup.DeleteExpiredChallenges(ctx, s, now)
		}},
		{"notification_logs_deleted", func(s repository.Session) (int64, error) {
			return j.cleanup.DeleteNotificationLogs(ctx, s, now.AddDate(0, 0, -NotificationLogRetentionDays))
		}},
		{"job_runs_deleted", func(s repository.Session) (int64, error) {
			return j.runs.DeleteFinishedBefore(ctx, s, now.AddDate(0, 0, -j.opts.RunRetentionDays))
		}},
	}

	var firstErr error
	for _, step := range steps {
		var n int64
		err := j.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
			var err error
			n, err = step.fn(s)
			return err
		})
		if err != nil {
			j.logger.Error().Err(err).Str("tenant_id", tenantID).Str("step", step.key).Msg("cleanup step failed")
			if firstErr == nil {
				firstErr = errors.Wrap(err, step.key)
			}
			continue
		}
		summary[step.key] = n
	}

	warned, err := j.warnExpiring(ctx, tenantID, now)
	summary["expiry_warnings"] = warned
	if err != nil && firstErr == nil {
		firstErr = err
	}
	return summary, firstErr
}

func (j *CleanupJob) warnExpiring(ctx context.Context, tenantID string, now time.Time) (int, error) {
	var expiring []models.Project
	err := j.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
		var err error
		expiring, err = j.projects.ListExpiringSoon(ctx, s, now, now.Add(ExpiryWarningWindow))
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "list expiring projects")
	}

	warned, failed := 0, 0
	for _, p := range expiring {
		var wrote bool
		err := j.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
			seen, err := j.audit.HasRecent(ctx, s, audit.ActionProjectExpiryWarning, "project", p.ID, now.Add(-ExpiryWarningWindow))
			if err != nil || seen {
				return err
			}
			_, err = j.audit.Write(ctx, s, audit.Entry{
				TenantID:   tenantID,
				Actor:      audit.ActorSystem,
				Action:     audit.ActionProjectExpiryWarning,
				EntityType: "project",
				EntityID:   p.ID,
				Metadata:   map[string]interface{}{"expires_at": p.ExpiresAt},
			})
			wrote = err == nil
			return err
		})
		if err != nil {
			failed++
			j.logger.Error().Err(err).Str("tenant_id", tenantID).Str("project_id", p.ID).Msg("failed to write expiry warning")
			continue
		}
		if wrote {
			warned++
		}
	}
	if failed > 0 {
		return warned, errors.Errorf("%d of %d expiry warnings failed", failed, len(expiring))
	}
	return warned, nil
}
