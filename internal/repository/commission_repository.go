package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

type CommissionRepository interface {
	// ListCandidates returns uncancelled installation handovers dated on or before
	// lastEligibleDate whose contract has no commission and whose project has a partner.
	ListCandidates(ctx context.Context, s Session, lastEligibleDate time.Time) ([]models.CommissionCandidate, error)
	// Create inserts the commission unless one already exists for the contract.
	// created is false when the contract already had one.
	Create(ctx context.Context, s Session, c models.Commission) (commission models.Commission, created bool, err error)
	GetByContract(ctx context.Context, s Session, contractID string) (models.Commission, error)
}

type commissionRepository struct{}

func NewCommissionRepository() CommissionRepository {
	return &commissionRepository{}
}

func (r *commissionRepository) ListCandidates(ctx context.Context, s Session, lastEligibleDate time.Time) ([]models.CommissionCandidate, error) {
	const query = `
		SELECT h.id, h.tenant_id, h.contract_id, h.handover_type, h.handover_date, h.created_at,
		       c.total_amount, p.partner_id, pt.commission_rate
		FROM handovers h
		JOIN contracts c ON c.id = h.contract_id AND c.tenant_id = h.tenant_id
		JOIN projects p ON p.id = c.project_id AND p.tenant_id = h.tenant_id
		LEFT JOIN partners pt ON pt.id = p.partner_id AND pt.tenant_id = h.tenant_id
		WHERE h.tenant_id = $1
		  AND h.handover_type = 'INSTALLATION'
		  AND h.cancelled_at IS NULL
		  AND h.handover_date <= $2::date
		  AND p.partner_id IS NOT NULL
		  AND NOT EXISTS (
		      SELECT 1 FROM commissions cm
		      WHERE cm.tenant_id = h.tenant_id AND cm.contract_id = h.contract_id
		  )
		ORDER BY h.handover_date ASC, h.created_at ASC
	`
	rows, err := s.QueryContext(ctx, query, s.TenantID(), lastEligibleDate.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("list commission candidates: %w", err)
	}
	defer rows.Close()

	var candidates []models.CommissionCandidate
	for rows.Next() {
		var c models.CommissionCandidate
		if err := rows.Scan(
			&c.Handover.ID,
			&c.Handover.TenantID,
			&c.Handover.ContractID,
			&c.Handover.HandoverType,
			&c.Handover.HandoverDate,
			&c.Handover.CreatedAt,
			&c.ContractTotal,
			&c.PartnerID,
			&c.CommissionRate,
		); err != nil {
			return nil, fmt.Errorf("scan commission candidate: %w", err)
		}
		c.Handover.HandoverDate = c.Handover.HandoverDate.UTC()
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *commissionRepository) Create(ctx context.Context, s Session, c models.Commission) (models.Commission, bool, error) {
	const query = `
		INSERT INTO commissions (tenant_id, partner_id, contract_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (contract_id) DO NOTHING
		RETURNING id, tenant_id, partner_id, contract_id, amount, status, created_at
	`
	created, err := scanCommission(s.QueryRowContext(ctx, query, s.TenantID(), c.PartnerID, c.ContractID, c.Amount, c.Status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Commission{}, false, nil
		}
		return models.Commission{}, false, fmt.Errorf("insert commission for contract %s: %w", c.ContractID, err)
	}
	return created, true, nil
}

func (r *commissionRepository) GetByContract(ctx context.Context, s Session, contractID string) (models.Commission, error) {
	const query = `
		SELECT id, tenant_id, partner_id, contract_id, amount, status, created_at
		FROM commissions
		WHERE contract_id = $1 AND tenant_id = $2
	`
	c, err := scanCommission(s.QueryRowContext(ctx, query, contractID, s.TenantID()))
	if err != nil {
		if isMissing(err) {
			return models.Commission{}, ErrNotFound
		}
		return models.Commission{}, err
	}
	return c, nil
}

func scanCommission(scanner rowScanner) (models.Commission, error) {
	var c models.Commission
	err := scanner.Scan(&c.ID, &c.TenantID, &c.PartnerID, &c.ContractID, &c.Amount, &c.Status, &c.CreatedAt)
	return c, err
}
