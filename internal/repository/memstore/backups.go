package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
)

type backupRepo struct{ st *Store }

func (st *Store) Backups() repository.BackupRepository { return backupRepo{st} }

func (r backupRepo) Insert(ctx context.Context, s repository.Session, record models.BackupRecord) (models.BackupRecord, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.BackupRecord{}, err
	}
	if err := r.st.fault("backups.insert"); err != nil {
		return models.BackupRecord{}, err
	}
	record.ID = newID()
	record.TenantID = tenantID
	record.CreatedAt = r.st.now()
	r.st.data.backups = append(r.st.data.backups, record)
	return record, nil
}

func (r backupRepo) Get(ctx context.Context, s repository.Session, id string) (models.BackupRecord, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.BackupRecord{}, err
	}
	for _, b := range r.st.data.backups {
		if b.ID == id && b.TenantID == tenantID {
			return b, nil
		}
	}
	return models.BackupRecord{}, repository.ErrNotFound
}

func (r backupRepo) ListOlderThan(ctx context.Context, s repository.Session, before time.Time) ([]models.BackupRecord, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return nil, err
	}
	var out []models.BackupRecord
	for _, b := range r.st.data.backups {
		if b.TenantID == tenantID && b.CreatedAt.Before(before) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r backupRepo) Delete(ctx context.Context, s repository.Session, id string) error {
	tenantID, err := tenantOf(s)
	if err != nil {
		return err
	}
	for i, b := range r.st.data.backups {
		if b.ID == id && b.TenantID == tenantID {
			r.st.data.backups = append(r.st.data.backups[:i:i], r.st.data.backups[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r backupRepo) ExportTable(ctx context.Context, s repository.Session, table string) (json.RawMessage, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return nil, err
	}
	if err := r.st.fault("backups.export"); err != nil {
		return nil, err
	}
	var rows []interface{}
	collect := func(owner string, row interface{}) {
		if owner == tenantID {
			rows = append(rows, row)
		}
	}
	switch table {
	case "projects":
		for _, v := range r.st.data.projects {
			collect(v.TenantID, v)
		}
	case "partners":
		for _, v := range r.st.data.partners {
			collect(v.TenantID, v)
		}
	case "quotes":
		for _, v := range r.st.data.quotes {
			collect(v.TenantID, v)
		}
	case "contracts":
		for _, v := range r.st.data.contracts {
			collect(v.TenantID, v)
		}
	case "handovers":
		for _, v := range r.st.data.handovers {
			collect(v.TenantID, v)
		}
	case "commissions":
		for _, v := range r.st.data.commissions {
			collect(v.TenantID, v)
		}
	case "audit_logs":
		for _, v := range r.st.data.audits {
			collect(v.TenantID, v)
		}
	default:
		return nil, repository.ErrUnknownTable
	}
	if rows == nil {
		rows = []interface{}{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", table, err)
	}
	return b, nil
}

func (r backupRepo) CreateWorkspace(ctx context.Context, s repository.Session, schema string) error {
	if _, err := tenantOf(s); err != nil {
		return err
	}
	if _, exists := r.st.data.workspaces[schema]; exists {
		return fmt.Errorf("create workspace %s: schema already exists", schema)
	}
	tables := make(map[string]int64, len(repository.SnapshotTables))
	for _, t := range repository.SnapshotTables {
		tables[t] = 0
	}
	r.st.data.workspaces[schema] = tables
	return nil
}

func (r backupRepo) RestoreTable(ctx context.Context, s repository.Session, schema, table string, rows json.RawMessage) (int64, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return 0, err
	}
	if err := r.st.fault("backups.restore"); err != nil {
		return 0, err
	}
	tables, ok := r.st.data.workspaces[schema]
	if !ok {
		return 0, fmt.Errorf("restore %s: workspace %s does not exist", table, schema)
	}
	if _, ok := tables[table]; !ok {
		return 0, repository.ErrUnknownTable
	}
	var decoded []struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.Unmarshal(rows, &decoded); err != nil {
		return 0, fmt.Errorf("restore %s: %w", table, err)
	}
	var n int64
	for _, row := range decoded {
		if row.TenantID == tenantID {
			n++
		}
	}
	tables[table] += n
	return n, nil
}
