package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

type ProjectRepository interface {
	Get(ctx context.Context, s Session, id string) (models.Project, error)
	// ListPhoneGateCandidates returns DEMO projects without a customer phone created before cutoff.
	ListPhoneGateCandidates(ctx context.Context, s Session, createdBefore time.Time) ([]models.Project, error)
	// CancelForPhoneGate cancels the project only if it still matches the phone gate
	// predicate. It reports whether a row changed.
	CancelForPhoneGate(ctx context.Context, s Session, id string, at time.Time) (bool, error)
	// ListExpiringSoon returns uncancelled projects whose expires_at lies in (from, until].
	ListExpiringSoon(ctx context.Context, s Session, from, until time.Time) ([]models.Project, error)
}

type projectRepository struct{}

func NewProjectRepository() ProjectRepository {
	return &projectRepository{}
}

const projectColumns = `id, tenant_id, customer_phone, partner_id, status, expires_at, cancelled_at, created_at`

func (r *projectRepository) Get(ctx context.Context, s Session, id string) (models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND tenant_id = $2`
	p, err := scanProject(s.QueryRowContext(ctx, query, id, s.TenantID()))
	if err != nil {
		if isMissing(err) {
			return models.Project{}, ErrNotFound
		}
		return models.Project{}, err
	}
	return p, nil
}

func (r *projectRepository) ListPhoneGateCandidates(ctx context.Context, s Session, createdBefore time.Time) ([]models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE tenant_id = $1
		  AND status = 'DEMO'
		  AND (customer_phone IS NULL OR btrim(customer_phone) = '')
		  AND created_at < $2
		ORDER BY created_at ASC
	`
	return r.list(ctx, s, query, s.TenantID(), createdBefore)
}

func (r *projectRepository) CancelForPhoneGate(ctx context.Context, s Session, id string, at time.Time) (bool, error) {
	const query = `
		UPDATE projects
		SET status = 'CANCELLED', cancelled_at = $3
		WHERE id = $1 AND tenant_id = $2
		  AND status = 'DEMO'
		  AND (customer_phone IS NULL OR btrim(customer_phone) = '')
	`
	res, err := s.ExecContext(ctx, query, id, s.TenantID(), at)
	if err != nil {
		return false, fmt.Errorf("cancel project %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *projectRepository) ListExpiringSoon(ctx context.Context, s Session, from, until time.Time) ([]models.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE tenant_id = $1
		  AND status <> 'CANCELLED'
		  AND expires_at > $2
		  AND expires_at <= $3
		ORDER BY expires_at ASC
	`
	return r.list(ctx, s, query, s.TenantID(), from, until)
}

func (r *projectRepository) list(ctx context.Context, s Session, query string, args ...interface{}) ([]models.Project, error) {
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

func scanProject(scanner rowScanner) (models.Project, error) {
	var (
		p           models.Project
		phone       sql.NullString
		partnerID   sql.NullString
		expiresAt   sql.NullTime
		cancelledAt sql.NullTime
	)
	if err := scanner.Scan(&p.ID, &p.TenantID, &phone, &partnerID, &p.Status, &expiresAt, &cancelledAt, &p.CreatedAt); err != nil {
		return models.Project{}, err
	}
	p.CustomerPhone = stringPtr(phone)
	p.PartnerID = stringPtr(partnerID)
	p.ExpiresAt = timePtr(expiresAt)
	p.CancelledAt = timePtr(cancelledAt)
	return p, nil
}
