package memstore

import (
	"context"
	"fmt"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
)

type contractRepo struct{ st *Store }

func (st *Store) Contracts() repository.ContractRepository { return contractRepo{st} }

func (r contractRepo) Create(ctx context.Context, s repository.Session, c models.Contract) (models.Contract, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.Contract{}, err
	}
	if err := r.st.fault("contracts.create"); err != nil {
		return models.Contract{}, err
	}
	var quote *models.Quote
	for i := range r.st.data.quotes {
		if q := r.st.data.quotes[i]; q.ID == c.QuoteID && q.TenantID == tenantID {
			quote = &r.st.data.quotes[i]
		}
	}
	if quote == nil {
		return models.Contract{}, repository.ErrNotFound
	}
	for _, existing := range r.st.data.contracts {
		if existing.ContractNumber == c.ContractNumber {
			return models.Contract{}, fmt.Errorf("insert contract: duplicate contract number %s", c.ContractNumber)
		}
	}

	now := r.st.now()
	c.ID = newID()
	c.TenantID = tenantID
	c.ProjectID = quote.ProjectID
	c.CreatedAt = now
	c.UpdatedAt = now
	r.st.data.contracts = append(r.st.data.contracts, c)
	return c, nil
}

func (r contractRepo) Get(ctx context.Context, s repository.Session, contractID string) (models.Contract, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.Contract{}, err
	}
	for _, c := range r.st.data.contracts {
		if c.ID == contractID && c.TenantID == tenantID {
			return c, nil
		}
	}
	return models.Contract{}, repository.ErrNotFound
}

func (r contractRepo) GetForUpdate(ctx context.Context, s repository.Session, contractID string) (models.Contract, error) {
	return r.Get(ctx, s, contractID)
}

func (r contractRepo) ExistsForQuote(ctx context.Context, s repository.Session, quoteID string) (bool, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return false, err
	}
	for _, c := range r.st.data.contracts {
		if c.QuoteID == quoteID && c.TenantID == tenantID {
			return true, nil
		}
	}
	return false, nil
}

func (r contractRepo) Save(ctx context.Context, s repository.Session, c models.Contract) (models.Contract, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.Contract{}, err
	}
	if err := r.st.fault("contracts.save"); err != nil {
		return models.Contract{}, err
	}
	for i, existing := range r.st.data.contracts {
		if existing.ID != c.ID || existing.TenantID != tenantID {
			continue
		}
		existing.Status = c.Status
		existing.ExpectedStartDate = c.ExpectedStartDate
		existing.ExpectedCompletionDate = c.ExpectedCompletionDate
		existing.ActualStartDate = c.ActualStartDate
		existing.ActualCompletionDate = c.ActualCompletionDate
		existing.CustomerSignedAt = c.CustomerSignedAt
		existing.CompanySignedAt = c.CompanySignedAt
		existing.CompanySignedBy = c.CompanySignedBy
		existing.Notes = c.Notes
		existing.CancellationReason = c.CancellationReason
		existing.CancelledAt = c.CancelledAt
		existing.UpdatedAt = r.st.now()
		r.st.data.contracts[i] = existing
		return existing, nil
	}
	return models.Contract{}, repository.ErrNotFound
}

type quoteRepo struct{ st *Store }

func (st *Store) Quotes() repository.QuoteRepository { return quoteRepo{st} }

func (r quoteRepo) Get(ctx context.Context, s repository.Session, quoteID string) (models.Quote, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.Quote{}, err
	}
	for _, q := range r.st.data.quotes {
		if q.ID == quoteID && q.TenantID == tenantID {
			return q, nil
		}
	}
	return models.Quote{}, repository.ErrNotFound
}
