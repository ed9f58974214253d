package jobs

import (
	"context"

	"github.com/lehoang82vt/solar-platform-sub001/internal/backup"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/pkg/errors"
)

// BackupJob snapshots the tenant and then applies backup retention.
type BackupJob struct {
	backups *backup.Service
}

func NewBackupJob(backups *backup.Service) *BackupJob {
	return &BackupJob{backups: backups}
}

func (j *BackupJob) Name() string         { return models.JobNameBackup }
func (j *BackupJob) Type() models.JobType { return models.JobTypeBackup }

func (j *BackupJob) Execute(ctx context.Context, tenantID string) (Summary, error) {
	record, err := j.backups.Create(ctx, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "create backup")
	}
	summary := Summary{
		"backup_id":    record.ID,
		"storage_path": record.StoragePath,
		"size_bytes":   record.SizeBytes,
	}
	pruned, err := j.backups.PruneExpired(ctx, tenantID)
	summary["pruned"] = pruned
	if err != nil {
		return summary, errors.Wrap(err, "prune backups")
	}
	return summary, nil
}
