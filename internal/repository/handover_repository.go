package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lib/pq"
)

type HandoverRepository interface {
	Create(ctx context.Context, s Session, h models.Handover) (models.Handover, error)
	Get(ctx context.Context, s Session, handoverID string) (models.Handover, error)
	GetForUpdate(ctx context.Context, s Session, handoverID string) (models.Handover, error)
	MarkCancelled(ctx context.Context, s Session, handoverID string, at time.Time) (models.Handover, error)
}

type handoverRepository struct{}

func NewHandoverRepository() HandoverRepository {
	return &handoverRepository{}
}

const handoverColumns = `id, tenant_id, contract_id, handover_type, handover_date, checklist, photos, notes, cancelled_at, created_by, created_at`

func (r *handoverRepository) Create(ctx context.Context, s Session, h models.Handover) (models.Handover, error) {
	var checklist interface{}
	if len(h.Checklist) > 0 {
		checklist = []byte(h.Checklist)
	}
	photos := h.Photos
	if photos == nil {
		photos = []string{}
	}

	query := `
		INSERT INTO handovers (tenant_id, contract_id, handover_type, handover_date, checklist, photos, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + handoverColumns

	created, err := scanHandover(s.QueryRowContext(ctx, query,
		s.TenantID(),
		h.ContractID,
		h.HandoverType,
		h.HandoverDate.UTC().Format("2006-01-02"),
		checklist,
		pq.Array(photos),
		nullableString(h.Notes),
		nullableString(h.CreatedBy),
	))
	if err != nil {
		return models.Handover{}, fmt.Errorf("insert handover: %w", err)
	}
	return created, nil
}

func (r *handoverRepository) Get(ctx context.Context, s Session, handoverID string) (models.Handover, error) {
	return r.get(ctx, s, handoverID, "")
}

func (r *handoverRepository) GetForUpdate(ctx context.Context, s Session, handoverID string) (models.Handover, error) {
	return r.get(ctx, s, handoverID, "FOR UPDATE")
}

func (r *handoverRepository) get(ctx context.Context, s Session, handoverID, lock string) (models.Handover, error) {
	query := `SELECT ` + handoverColumns + ` FROM handovers WHERE id = $1 AND tenant_id = $2 ` + lock
	h, err := scanHandover(s.QueryRowContext(ctx, query, handoverID, s.TenantID()))
	if err != nil {
		if isMissing(err) {
			return models.Handover{}, ErrNotFound
		}
		return models.Handover{}, fmt.Errorf("get handover %s: %w", handoverID, err)
	}
	return h, nil
}

func (r *handoverRepository) MarkCancelled(ctx context.Context, s Session, handoverID string, at time.Time) (models.Handover, error) {
	query := `
		UPDATE handovers
		   SET cancelled_at = $3
		 WHERE id = $1 AND tenant_id = $2 AND cancelled_at IS NULL
		RETURNING ` + handoverColumns
	h, err := scanHandover(s.QueryRowContext(ctx, query, handoverID, s.TenantID(), at))
	if err != nil {
		if isMissing(err) {
			return models.Handover{}, ErrNotFound
		}
		return models.Handover{}, fmt.Errorf("cancel handover %s: %w", handoverID, err)
	}
	return h, nil
}

func scanHandover(scanner rowScanner) (models.Handover, error) {
	var (
		h           models.Handover
		checklist   []byte
		photos      pq.StringArray
		notes       sql.NullString
		createdBy   sql.NullString
		cancelledAt sql.NullTime
	)
	if err := scanner.Scan(
		&h.ID,
		&h.TenantID,
		&h.ContractID,
		&h.HandoverType,
		&h.HandoverDate,
		&checklist,
		&photos,
		&notes,
		&cancelledAt,
		&createdBy,
		&h.CreatedAt,
	); err != nil {
		return models.Handover{}, err
	}
	h.HandoverDate = h.HandoverDate.UTC()
	if len(checklist) > 0 {
		h.Checklist = checklist
	}
	h.Photos = []string(photos)
	h.Notes = stringPtr(notes)
	h.CreatedBy = stringPtr(createdBy)
	h.CancelledAt = timePtr(cancelledAt)
	return h, nil
}
