package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

type ContractRepository interface {
	Create(ctx context.Context, s Session, c models.Contract) (models.Contract, error)
	Get(ctx context.Context, s Session, contractID string) (models.Contract, error)
	// GetForUpdate locks the row until the session ends.
	GetForUpdate(ctx context.Context, s Session, contractID string) (models.Contract, error)
	ExistsForQuote(ctx context.Context, s Session, quoteID string) (bool, error)
	// Save persists every mutable column of c.
	Save(ctx context.Context, s Session, c models.Contract) (models.Contract, error)
}

type QuoteRepository interface {
	Get(ctx context.Context, s Session, quoteID string) (models.Quote, error)
}

type contractRepository struct{}

func NewContractRepository() ContractRepository {
	return &contractRepository{}
}

const contractColumns = `
	id, tenant_id, project_id, quote_id, contract_number, status,
	deposit_percentage, deposit_amount, final_payment_amount, total_amount,
	expected_start_date, expected_completion_date, actual_start_date, actual_completion_date,
	warranty_years, customer_signed_at, company_signed_at, company_signed_by,
	notes, cancellation_reason, cancelled_at, created_by, created_at, updated_at`

func (r *contractRepository) Create(ctx context.Context, s Session, c models.Contract) (models.Contract, error) {
	query := `
		INSERT INTO contracts (
			tenant_id, project_id, quote_id, contract_number, status,
			deposit_percentage, deposit_amount, final_payment_amount, total_amount,
			expected_start_date, expected_completion_date, warranty_years, notes, created_by
		)
		SELECT $1, q.project_id, q.id, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		FROM quotes q
		WHERE q.id = $2 AND q.tenant_id = $1
		RETURNING ` + contractColumns

	created, err := scanContract(s.QueryRowContext(ctx, query,
		s.TenantID(),
		c.QuoteID,
		c.ContractNumber,
		c.Status,
		c.DepositPercentage,
		c.DepositAmount,
		c.FinalPaymentAmount,
		c.TotalAmount,
		c.ExpectedStartDate,
		c.ExpectedCompletionDate,
		c.WarrantyYears,
		nullableString(c.Notes),
		nullableString(c.CreatedBy),
	))
	if err != nil {
		if isMissing(err) {
			return models.Contract{}, ErrNotFound
		}
		return models.Contract{}, fmt.Errorf("insert contract: %w", err)
	}
	return created, nil
}

func (r *contractRepository) Get(ctx context.Context, s Session, contractID string) (models.Contract, error) {
	return r.get(ctx, s, contractID, "")
}

func (r *contractRepository) GetForUpdate(ctx context.Context, s Session, contractID string) (models.Contract, error) {
	return r.get(ctx, s, contractID, "FOR UPDATE")
}

func (r *contractRepository) get(ctx context.Context, s Session, contractID, lock string) (models.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1 AND tenant_id = $2 ` + lock
	c, err := scanContract(s.QueryRowContext(ctx, query, contractID, s.TenantID()))
	if err != nil {
		if isMissing(err) {
			return models.Contract{}, ErrNotFound
		}
		return models.Contract{}, fmt.Errorf("get contract %s: %w", contractID, err)
	}
	return c, nil
}

func (r *contractRepository) ExistsForQuote(ctx context.Context, s Session, quoteID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM contracts WHERE tenant_id = $1 AND quote_id = $2)`
	var exists bool
	if err := s.QueryRowContext(ctx, query, s.TenantID(), quoteID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check contract for quote %s: %w", quoteID, err)
	}
	return exists, nil
}

func (r *contractRepository) Save(ctx context.Context, s Session, c models.Contract) (models.Contract, error) {
	query := `
		UPDATE contracts
		   SET status                   = $3,
		       expected_start_date      = $4,
		       expected_completion_date = $5,
		       actual_start_date        = $6,
		       actual_completion_date   = $7,
		       customer_signed_at       = $8,
		       company_signed_at        = $9,
		       company_signed_by        = $10,
		       notes                    = $11,
		       cancellation_reason      = $12,
		       cancelled_at             = $13,
		       updated_at               = NOW()
		 WHERE id = $1 AND tenant_id = $2
		RETURNING ` + contractColumns

	saved, err := scanContract(s.QueryRowContext(ctx, query,
		c.ID,
		s.TenantID(),
		c.Status,
		c.ExpectedStartDate,
		c.ExpectedCompletionDate,
		c.ActualStartDate,
		c.ActualCompletionDate,
		c.CustomerSignedAt,
		c.CompanySignedAt,
		nullableString(c.CompanySignedBy),
		nullableString(c.Notes),
		nullableString(c.CancellationReason),
		c.CancelledAt,
	))
	if err != nil {
		if isMissing(err) {
			return models.Contract{}, ErrNotFound
		}
		return models.Contract{}, fmt.Errorf("save contract %s: %w", c.ID, err)
	}
	return saved, nil
}

func scanContract(scanner rowScanner) (models.Contract, error) {
	var (
		c                                               models.Contract
		expStart, expDone, actStart, actDone            sql.NullTime
		customerSigned, companySigned, cancelledAt      sql.NullTime
		companySignedBy, notes, cancelReason, createdBy sql.NullString
	)
	if err := scanner.Scan(
		&c.ID,
		&c.TenantID,
		&c.ProjectID,
		&c.QuoteID,
		&c.ContractNumber,
		&c.Status,
		&c.DepositPercentage,
		&c.DepositAmount,
		&c.FinalPaymentAmount,
		&c.TotalAmount,
		&expStart,
		&expDone,
		&actStart,
		&actDone,
		&c.WarrantyYears,
		&customerSigned,
		&companySigned,
		&companySignedBy,
		&notes,
		&cancelReason,
		&cancelledAt,
		&createdBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return models.Contract{}, err
	}
	c.ExpectedStartDate = timePtr(expStart)
	c.ExpectedCompletionDate = timePtr(expDone)
	c.ActualStartDate = timePtr(actStart)
	c.ActualCompletionDate = timePtr(actDone)
	c.CustomerSignedAt = timePtr(customerSigned)
	c.CompanySignedAt = timePtr(companySigned)
	c.CancelledAt = timePtr(cancelledAt)
	c.CompanySignedBy = stringPtr(companySignedBy)
	c.Notes = stringPtr(notes)
	c.CancellationReason = stringPtr(cancelReason)
	c.CreatedBy = stringPtr(createdBy)
	return c, nil
}

type quoteRepository struct{}

func NewQuoteRepository() QuoteRepository {
	return &quoteRepository{}
}

func (r *quoteRepository) Get(ctx context.Context, s Session, quoteID string) (models.Quote, error) {
	const query = `
		SELECT id, tenant_id, project_id, status, total_amount
		FROM quotes
		WHERE id = $1 AND tenant_id = $2
	`
	var q models.Quote
	err := s.QueryRowContext(ctx, query, quoteID, s.TenantID()).Scan(&q.ID, &q.TenantID, &q.ProjectID, &q.Status, &q.TotalAmount)
	if err != nil {
		if isMissing(err) {
			return models.Quote{}, ErrNotFound
		}
		return models.Quote{}, fmt.Errorf("get quote %s: %w", quoteID, err)
	}
	return q, nil
}
