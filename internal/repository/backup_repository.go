package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lib/pq"
)

// SnapshotTables lists the tenant-owned tables captured by a backup, in restore order.
var SnapshotTables = []string{
	"projects",
	"partners",
	"quotes",
	"contracts",
	"handovers",
	"commissions",
	"audit_logs",
}

// ErrUnknownTable is returned for tables outside SnapshotTables.
var ErrUnknownTable = errors.New("table is not part of tenant snapshots")

type BackupRepository interface {
	Insert(ctx context.Context, s Session, record models.BackupRecord) (models.BackupRecord, error)
	Get(ctx context.Context, s Session, id string) (models.BackupRecord, error)
	ListOlderThan(ctx context.Context, s Session, before time.Time) ([]models.BackupRecord, error)
	Delete(ctx context.Context, s Session, id string) error

	// ExportTable returns the tenant's rows of table as a JSON array.
	ExportTable(ctx context.Context, s Session, table string) (json.RawMessage, error)
	// CreateWorkspace creates schema with an empty copy of every snapshot table.
	CreateWorkspace(ctx context.Context, s Session, schema string) error
	// RestoreTable loads a JSON array produced by ExportTable into schema.table.
	RestoreTable(ctx context.Context, s Session, schema, table string, rows json.RawMessage) (int64, error)
}

type backupRepository struct{}

func NewBackupRepository() BackupRepository {
	return &backupRepository{}
}

const backupColumns = `id, tenant_id, backup_type, storage_path, size_bytes, status, metadata, created_at`

func (r *backupRepository) Insert(ctx context.Context, s Session, record models.BackupRecord) (models.BackupRecord, error) {
	query := `
		INSERT INTO backups (tenant_id, backup_type, storage_path, size_bytes, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + backupColumns

	metadata := []byte("{}")
	if len(record.Metadata) > 0 {
		metadata = record.Metadata
	}
	created, err := scanBackup(s.QueryRowContext(ctx, query,
		s.TenantID(), record.BackupType, record.StoragePath, record.SizeBytes, record.Status, metadata,
	))
	if err != nil {
		return models.BackupRecord{}, fmt.Errorf("insert backup record: %w", err)
	}
	return created, nil
}

func (r *backupRepository) Get(ctx context.Context, s Session, id string) (models.BackupRecord, error) {
	query := `SELECT ` + backupColumns + ` FROM backups WHERE id = $1 AND tenant_id = $2`
	b, err := scanBackup(s.QueryRowContext(ctx, query, id, s.TenantID()))
	if err != nil {
		if isMissing(err) {
			return models.BackupRecord{}, ErrNotFound
		}
		return models.BackupRecord{}, err
	}
	return b, nil
}

func (r *backupRepository) ListOlderThan(ctx context.Context, s Session, before time.Time) ([]models.BackupRecord, error) {
	query := `
		SELECT ` + backupColumns + `
		FROM backups
		WHERE tenant_id = $1 AND created_at < $2
		ORDER BY created_at ASC
	`
	rows, err := s.QueryContext(ctx, query, s.TenantID(), before)
	if err != nil {
		return nil, fmt.Errorf("list expired backups: %w", err)
	}
	defer rows.Close()

	var records []models.BackupRecord
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *backupRepository) Delete(ctx context.Context, s Session, id string) error {
	res, err := s.ExecContext(ctx, `DELETE FROM backups WHERE id = $1 AND tenant_id = $2`, id, s.TenantID())
	if err != nil {
		if isMissing(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete backup %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *backupRepository) ExportTable(ctx context.Context, s Session, table string) (json.RawMessage, error) {
	if !isSnapshotTable(table) {
		return nil, ErrUnknownTable
	}
	query := fmt.Sprintf(
		`SELECT COALESCE(json_agg(t), '[]'::json) FROM %s t WHERE t.tenant_id = $1`,
		pq.QuoteIdentifier(table),
	)
	var data []byte
	if err := s.QueryRowContext(ctx, query, s.TenantID()).Scan(&data); err != nil {
		return nil, fmt.Errorf("export %s: %w", table, err)
	}
	return data, nil
}

func (r *backupRepository) CreateWorkspace(ctx context.Context, s Session, schema string) error {
	if _, err := s.ExecContext(ctx, `CREATE SCHEMA `+pq.QuoteIdentifier(schema)); err != nil {
		return fmt.Errorf("create workspace %s: %w", schema, err)
	}
	for _, table := range SnapshotTables {
		stmt := fmt.Sprintf(`CREATE TABLE %s.%s (LIKE public.%s INCLUDING DEFAULTS)`,
			pq.QuoteIdentifier(schema), pq.QuoteIdentifier(table), pq.QuoteIdentifier(table))
		if _, err := s.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create workspace table %s: %w", table, err)
		}
	}
	return nil
}

func (r *backupRepository) RestoreTable(ctx context.Context, s Session, schema, table string, rows json.RawMessage) (int64, error) {
	if !isSnapshotTable(table) {
		return 0, ErrUnknownTable
	}
	stmt := fmt.Sprintf(
		`INSERT INTO %s.%s SELECT * FROM json_populate_recordset(NULL::public.%s, $1::json) WHERE tenant_id = $2`,
		pq.QuoteIdentifier(schema), pq.QuoteIdentifier(table), pq.QuoteIdentifier(table),
	)
	return execCount(ctx, s, "restore "+table, stmt, []byte(rows), s.TenantID())
}

func isSnapshotTable(table string) bool {
	for _, t := range SnapshotTables {
		if t == table {
			return true
		}
	}
	return false
}

func scanBackup(scanner rowScanner) (models.BackupRecord, error) {
	var (
		b        models.BackupRecord
		metadata []byte
	)
	if err := scanner.Scan(&b.ID, &b.TenantID, &b.BackupType, &b.StoragePath, &b.SizeBytes, &b.Status, &metadata, &b.CreatedAt); err != nil {
		return models.BackupRecord{}, err
	}
	if len(metadata) > 0 {
		b.Metadata = metadata
	}
	return b, nil
}
