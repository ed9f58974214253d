package memstore

import (
	"context"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
)

type commissionRepo struct{ st *Store }

func (st *Store) Commissions() repository.CommissionRepository { return commissionRepo{st} }

func (r commissionRepo) ListCandidates(ctx context.Context, s repository.Session, lastEligibleDate time.Time) ([]models.CommissionCandidate, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return nil, err
	}
	if err := r.st.fault("commissions.list_candidates"); err != nil {
		return nil, err
	}
	d := lastEligibleDate.UTC()
	cutoff := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)

	var out []models.CommissionCandidate
	for _, h := range r.st.data.handovers {
		if h.TenantID != tenantID || h.HandoverType != models.HandoverTypeInstallation || h.CancelledAt != nil {
			continue
		}
		if h.HandoverDate.After(cutoff) {
			continue
		}
		contract, ok := r.contract(tenantID, h.ContractID)
		if !ok || r.hasCommission(tenantID, contract.ID) {
			continue
		}
		project, ok := r.project(tenantID, contract.ProjectID)
		if !ok || project.PartnerID == nil {
			continue
		}
		candidate := models.CommissionCandidate{
			Handover:      h,
			ContractTotal: contract.TotalAmount,
			PartnerID:     *project.PartnerID,
		}
		for _, p := range r.st.data.partners {
			if p.ID == *project.PartnerID && p.TenantID == tenantID {
				candidate.CommissionRate = p.CommissionRate
			}
		}
		out = append(out, candidate)
	}
	sortByTime(out, func(c models.CommissionCandidate) int64 { return c.Handover.HandoverDate.UnixNano() })
	return out, nil
}

func (r commissionRepo) contract(tenantID, id string) (models.Contract, bool) {
	for _, c := range r.st.data.contracts {
		if c.ID == id && c.TenantID == tenantID {
			return c, true
		}
	}
	return models.Contract{}, false
}

func (r commissionRepo) project(tenantID, id string) (models.Project, bool) {
	for _, p := range r.st.data.projects {
		if p.ID == id && p.TenantID == tenantID {
			return p, true
		}
	}
	return models.Project{}, false
}

func (r commissionRepo) hasCommission(tenantID, contractID string) bool {
	for _, c := range r.st.data.commissions {
		if c.ContractID == contractID && c.TenantID == tenantID {
			return true
		}
	}
	return false
}

func (r commissionRepo) Create(ctx context.Context, s repository.Session, c models.Commission) (models.Commission, bool, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.Commission{}, false, err
	}
	if err := r.st.fault("commissions.create"); err != nil {
		return models.Commission{}, false, err
	}
	// contract_id is globally unique, matching the table constraint.
	for _, existing := range r.st.data.commissions {
		if existing.ContractID == c.ContractID {
			return models.Commission{}, false, nil
		}
	}
	c.ID = newID()
	c.TenantID = tenantID
	c.CreatedAt = r.st.now()
	r.st.data.commissions = append(r.st.data.commissions, c)
	return c, true, nil
}

func (r commissionRepo) GetByContract(ctx context.Context, s repository.Session, contractID string) (models.Commission, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.Commission{}, err
	}
	for _, c := range r.st.data.commissions {
		if c.ContractID == contractID && c.TenantID == tenantID {
			return c, nil
		}
	}
	return models.Commission{}, repository.ErrNotFound
}
