package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

// TenantRepository reads the tenant registry. It runs outside tenant scope because
// schedulers need the list of tenants before entering any of them.
type TenantRepository interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
	GetTenantByID(ctx context.Context, id string) (models.Tenant, error)
}

type tenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	const query = `
		SELECT id
		FROM tenants
		WHERE is_active
		ORDER BY created_at ASC;
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *tenantRepository) GetTenantByID(ctx context.Context, id string) (models.Tenant, error) {
	const query = `
		SELECT id, name, is_active, created_at
		FROM tenants
		WHERE id = $1;
	`
	var tenant models.Tenant
	err := r.db.QueryRowContext(ctx, query, id).Scan(&tenant.ID, &tenant.Name, &tenant.IsActive, &tenant.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tenant{}, ErrNotFound
	}
	return tenant, err
}
