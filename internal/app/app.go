// Package app wires repositories, services and jobs for the binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/backup"
	"github.com/lehoang82vt/solar-platform-sub001/internal/config"
	"github.com/lehoang82vt/solar-platform-sub001/internal/contract"
	"github.com/lehoang82vt/solar-platform-sub001/internal/events"
	"github.com/lehoang82vt/solar-platform-sub001/internal/handover"
	"github.com/lehoang82vt/solar-platform-sub001/internal/jobs"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/rs/zerolog"
)

type Services struct {
	Tenants   repository.TenantRepository
	Events    events.Publisher
	Contracts *contract.Service
	Handovers *handover.Service
	Backups   *backup.Service
	Runner    *jobs.Runner
}

// New builds every service on top of db.
func New(ctx context.Context, cfg *config.Config, db *sql.DB, logger zerolog.Logger) (*Services, error) {
	tx := repository.NewScope(db)
	auditWriter := audit.NewWriter(repository.NewAuditRepository(), logger)
	publisher := events.NewPublisher(tx, repository.NewEventRepository(), logger, events.NewLogNotifier(logger))

	store, err := NewBackupStore(ctx, cfg.Backup)
	if err != nil {
		return nil, err
	}
	backups := backup.NewService(tx, repository.NewBackupRepository(), store, auditWriter, backup.Options{
		Prefix:        cfg.Backup.Prefix,
		RetentionDays: cfg.Backup.RetentionDays,
	}, logger)

	rate, err := cfg.CommissionRate()
	if err != nil {
		return nil, err
	}
	jobRuns := repository.NewJobRunRepository()
	projects := repository.NewProjectRepository()
	runner := jobs.NewRunner(tx, jobRuns, jobs.RunnerOptions{LeaseTimeout: cfg.Jobs.LeaseTimeout}, logger,
		jobs.NewCommissionJob(tx, repository.NewCommissionRepository(), auditWriter, publisher, rate, logger),
		jobs.NewPhoneGateJob(tx, projects, auditWriter, logger),
		jobs.NewCleanupJob(tx, repository.NewCleanupRepository(), projects, jobRuns, auditWriter,
			jobs.CleanupOptions{RunRetentionDays: cfg.Jobs.RunRetentionDays}, logger),
		jobs.NewBackupJob(backups),
	)

	contracts := repository.NewContractRepository()
	return &Services{
		Tenants:   repository.NewTenantRepository(db),
		Events:    publisher,
		Contracts: contract.NewService(tx, contracts, repository.NewQuoteRepository(), auditWriter, publisher, logger),
		Handovers: handover.NewService(tx, repository.NewHandoverRepository(), contracts, auditWriter, logger),
		Backups:   backups,
		Runner:    runner,
	}, nil
}

// NewBackupStore returns the content store selected by cfg.Store.
func NewBackupStore(ctx context.Context, cfg config.BackupConfig) (backup.Store, error) {
	switch cfg.Store {
	case "", config.BackupStoreMock:
		return backup.NewMockStore(), nil
	case config.BackupStoreGCS:
		store, err := backup.NewGCSStore(ctx, cfg.Bucket, cfg.GCSEndpoint)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backup store %q", cfg.Store)
	}
}
