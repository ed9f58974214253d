package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

type AuditRepository interface {
	Insert(ctx context.Context, s Session, entry models.AuditEntry) (models.AuditEntry, error)
	// HasRecent reports whether an entry with the action exists for the entity since the given time.
	HasRecent(ctx context.Context, s Session, action, entityType, entityID string, since time.Time) (bool, error)
	ListForEntity(ctx context.Context, s Session, entityType, entityID string) ([]models.AuditEntry, error)
}

type auditRepository struct{}

func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

const auditColumns = `id, tenant_id, actor, action, entity_type, entity_id, metadata, created_at`

func (r *auditRepository) Insert(ctx context.Context, s Session, entry models.AuditEntry) (models.AuditEntry, error) {
	query := `
		INSERT INTO audit_logs (tenant_id, actor, action, entity_type, entity_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + auditColumns

	var metadata interface{}
	if len(entry.Metadata) > 0 {
		metadata = []byte(entry.Metadata)
	}
	created, err := scanAudit(s.QueryRowContext(ctx, query,
		s.TenantID(), entry.Actor, entry.Action, entry.EntityType, nullableString(entry.EntityID), metadata,
	))
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("insert audit %s: %w", entry.Action, err)
	}
	return created, nil
}

func (r *auditRepository) HasRecent(ctx context.Context, s Session, action, entityType, entityID string, since time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM audit_logs
			WHERE tenant_id = $1 AND action = $2 AND entity_type = $3 AND entity_id = $4 AND created_at >= $5
		)
	`
	var exists bool
	if err := s.QueryRowContext(ctx, query, s.TenantID(), action, entityType, entityID, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("check audit %s: %w", action, err)
	}
	return exists, nil
}

func (r *auditRepository) ListForEntity(ctx context.Context, s Session, entityType, entityID string) ([]models.AuditEntry, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at ASC
	`
	rows, err := s.QueryContext(ctx, query, s.TenantID(), entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func scanAudit(scanner rowScanner) (models.AuditEntry, error) {
	var (
		e        models.AuditEntry
		entityID sql.NullString
		metadata []byte
	)
	if err := scanner.Scan(&e.ID, &e.TenantID, &e.Actor, &e.Action, &e.EntityType, &entityID, &metadata, &e.CreatedAt); err != nil {
		return models.AuditEntry{}, err
	}
	e.EntityID = stringPtr(entityID)
	if len(metadata) > 0 {
		e.Metadata = metadata
	}
	return e, nil
}
