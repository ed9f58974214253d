package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const entity = "backup"

type Options struct {
	Prefix        string
	RetentionDays int
}

// RestoreResult names the workspace a backup was restored into.
type RestoreResult struct {
	BackupID  string           `json:"backup_id"`
	Workspace string           `json:"workspace"`
	Rows      map[string]int64 `json:"rows"`
}

type Service struct {
	tx      repository.Transactor
	backups repository.BackupRepository
	store   Store
	audit   *audit.Writer
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(tx repository.Transactor, backups repository.BackupRepository, store Store, auditWriter *audit.Writer, opts Options, logger zerolog.Logger) *Service {
	if strings.TrimSpace(opts.Prefix) == "" {
		opts.Prefix = "backups"
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = 30
	}
	return &Service{
		tx:      tx,
		backups: backups,
		store:   store,
		audit:   auditWriter,
		opts:    opts,
		logger:  logger.With().Str("component", "backup_service").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create snapshots the tenant, uploads it and records the backup.
func (s *Service) Create(ctx context.Context, tenantID string) (models.BackupRecord, error) {
	now := s.now()
	snap := Snapshot{Version: snapshotVersion, TenantID: tenantID, CreatedAt: now, Tables: map[string]json.RawMessage{}}
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		for _, table := range repository.SnapshotTables {
			rows, err := s.backups.ExportTable(ctx, sess, table)
			if err != nil {
				return err
			}
			snap.Tables[table] = rows
		}
		return nil
	})
	if err != nil {
		return models.BackupRecord{}, errors.Wrap(err, "export tenant snapshot")
	}

	data, checksum, err := Encode(snap)
	if err != nil {
		return models.BackupRecord{}, err
	}
	key := fmt.Sprintf("%s/%s/%s-%s.json.gz", s.opts.Prefix, tenantID, now.Format("20060102T150405Z"), uuid.NewString()[:8])
	path, err := s.store.Upload(ctx, tenantID, key, data)
	if err != nil {
		return models.BackupRecord{}, errors.Wrapf(err, "upload %s", key)
	}

	meta, err := json.Marshal(map[string]interface{}{
		"key":      key,
		"checksum": checksum,
		"format":   "json+gzip",
		"tables":   len(snap.Tables),
	})
	if err != nil {
		return models.BackupRecord{}, errors.Wrap(err, "marshal backup metadata")
	}

	var record models.BackupRecord
	err = s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		var err error
		record, err = s.backups.Insert(ctx, sess, models.BackupRecord{
			BackupType:  models.BackupTypeFull,
			StoragePath: path,
			SizeBytes:   int64(len(data)),
			Status:      models.BackupStatusCreated,
			Metadata:    meta,
		})
		if err != nil {
			return err
		}
		_, err = s.audit.Write(ctx, sess, audit.Entry{
			TenantID:   tenantID,
			Actor:      audit.ActorSystem,
			Action:     audit.ActionBackupCreated,
			EntityType: entity,
			EntityID:   record.ID,
			Metadata:   map[string]interface{}{"storage_path": path, "size_bytes": len(data)},
		})
		return err
	})
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned backup object")
		}
		return models.BackupRecord{}, errors.Wrap(err, "record backup")
	}

	s.logger.Info().
		Str("tenant_id", tenantID).
		Str("backup_id", record.ID).
		Int64("size_bytes", record.SizeBytes).
		Msg("backup created")
	return record, nil
}

// PruneExpired deletes backups older than the retention window, object first and
// then the row, and returns how many were removed.
func (s *Service) PruneExpired(ctx context.Context, tenantID string) (int, error) {
	cutoff := s.now().AddDate(0, 0, -s.opts.RetentionDays)

	var expired []models.BackupRecord
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		var err error
		expired, err = s.backups.ListOlderThan(ctx, sess, cutoff)
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "list expired backups")
	}

	removed := 0
	for _, b := range expired {
		if err := s.store.Delete(ctx, objectKey(b)); err != nil {
			return removed, errors.Wrapf(err, "delete object of backup %s", b.ID)
		}
		err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
			return s.backups.Delete(ctx, sess, b.ID)
		})
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return removed, errors.Wrapf(err, "delete backup %s", b.ID)
		}
		removed++
	}
	return removed, nil
}

// Restore materializes a backup into a new, uniquely named workspace schema. The
// live tables are never written.
func (s *Service) Restore(ctx context.Context, tenantID, backupID, actor string) (RestoreResult, error) {
	var record models.BackupRecord
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		var err error
		record, err = s.backups.Get(ctx, sess, backupID)
		if errors.Is(err, repository.ErrNotFound) {
			return domainerr.New(domainerr.NotFound, entity, "backup not found")
		}
		if err != nil {
			return err
		}
		_, err = s.audit.Write(ctx, sess, audit.Entry{
			TenantID:   tenantID,
			Actor:      actor,
			Action:     audit.ActionRestoreStarted,
			EntityType: entity,
			EntityID:   record.ID,
		})
		return err
	})
	if err != nil {
		return RestoreResult{}, err
	}

	result, err := s.restore(ctx, tenantID, record)
	if err != nil {
		s.finishRestore(ctx, tenantID, actor, record.ID, audit.ActionRestoreFailed, map[string]interface{}{"error": err.Error()})
		return RestoreResult{}, err
	}
	s.finishRestore(ctx, tenantID, actor, record.ID, audit.ActionRestoreCompleted, map[string]interface{}{
		"workspace": result.Workspace,
		"rows":      result.Rows,
	})
	return result, nil
}

func (s *Service) restore(ctx context.Context, tenantID string, record models.BackupRecord) (RestoreResult, error) {
	data, err := s.store.Download(ctx, record.StoragePath)
	if err != nil {
		return RestoreResult{}, errors.Wrap(err, "download backup")
	}
	if want := metadataString(record, "checksum"); want != "" && want != Checksum(data) {
		return RestoreResult{}, errors.Errorf("backup %s failed checksum verification", record.ID)
	}
	snap, err := Decode(data)
	if err != nil {
		return RestoreResult{}, err
	}
	if snap.TenantID != tenantID {
		return RestoreResult{}, errors.Errorf("backup %s belongs to another tenant", record.ID)
	}

	result := RestoreResult{
		BackupID:  record.ID,
		Workspace: WorkspaceName(tenantID, s.now()),
		Rows:      map[string]int64{},
	}
	err = s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		if err := s.backups.CreateWorkspace(ctx, sess, result.Workspace); err != nil {
			return err
		}
		for _, table := range repository.SnapshotTables {
			rows, ok := snap.Tables[table]
			if !ok {
				continue
			}
			n, err := s.backups.RestoreTable(ctx, sess, result.Workspace, table, rows)
			if err != nil {
				return err
			}
			result.Rows[table] = n
		}
		return nil
	})
	if err != nil {
		return RestoreResult{}, errors.Wrap(err, "restore into workspace")
	}
	return result, nil
}

func (s *Service) finishRestore(ctx context.Context, tenantID, actor, backupID, action string, meta map[string]interface{}) {
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		_, err := s.audit.Write(ctx, sess, audit.Entry{
			TenantID:   tenantID,
			Actor:      actor,
			Action:     action,
			EntityType: entity,
			EntityID:   backupID,
			Metadata:   meta,
		})
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tenantID).Str("backup_id", backupID).Str("action", action).Msg("failed to audit restore")
	}
}

// WorkspaceName builds a schema name that is unique per call and valid as a
// Postgres identifier.
func WorkspaceName(tenantID string, now time.Time) string {
	var b strings.Builder
	for _, r := range strings.ToLower(tenantID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 8 {
			break
		}
	}
	return fmt.Sprintf("restore_%s_%d_%s", b.String(), now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func objectKey(b models.BackupRecord) string {
	if key := metadataString(b, "key"); key != "" {
		return key
	}
	path := b.StoragePath
	if i := strings.Index(path, "://"); i >= 0 {
		path = path[i+3:]
		if strings.HasPrefix(b.StoragePath, "gs://") {
			if j := strings.Index(path, "/"); j >= 0 {
				path = path[j+1:]
			}
		}
	}
	return path
}

func metadataString(b models.BackupRecord, field string) string {
	if len(b.Metadata) == 0 {
		return ""
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(b.Metadata, &meta); err != nil {
		return ""
	}
	v, _ := meta[field].(string)
	return v
}
