package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
)

type projectRepo struct{ st *Store }

func (st *Store) Projects() repository.ProjectRepository { return projectRepo{st} }

func (r projectRepo) Get(ctx context.Context, s repository.Session, id string) (models.Project, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.Project{}, err
	}
	for _, p := range r.st.data.projects {
		if p.ID == id && p.TenantID == tenantID {
			return p, nil
		}
	}
	return models.Project{}, repository.ErrNotFound
}

func phoneGated(p models.Project) bool {
	return p.Status == models.ProjectStatusDemo && (p.CustomerPhone == nil || strings.TrimSpace(*p.CustomerPhone) == "")
}

func (r projectRepo) ListPhoneGateCandidates(ctx context.Context, s repository.Session, createdBefore time.Time) ([]models.Project, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return nil, err
	}
	var out []models.Project
	for _, p := range r.st.data.projects {
		if p.TenantID == tenantID && phoneGated(p) && p.CreatedAt.Before(createdBefore) {
			out = append(out, p)
		}
	}
	sortByTime(out, func(p models.Project) int64 { return p.CreatedAt.UnixNano() })
	return out, nil
}

func (r projectRepo) CancelForPhoneGate(ctx context.Context, s repository.Session, id string, at time.Time) (bool, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return false, err
	}
	if err := r.st.fault("projects.cancel"); err != nil {
		return false, err
	}
	for i, p := range r.st.data.projects {
		if p.ID == id && p.TenantID == tenantID && phoneGated(p) {
			cancelled := at
			p.Status = models.ProjectStatusCancelled
			p.CancelledAt = &cancelled
			r.st.data.projects[i] = p
			return true, nil
		}
	}
	return false, nil
}

func (r projectRepo) ListExpiringSoon(ctx context.Context, s repository.Session, from, until time.Time) ([]models.Project, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return nil, err
	}
	var out []models.Project
	for _, p := range r.st.data.projects {
		if p.TenantID != tenantID || p.Status == models.ProjectStatusCancelled || p.ExpiresAt == nil {
			continue
		}
		if p.ExpiresAt.After(from) && !p.ExpiresAt.After(until) {
			out = append(out, p)
		}
	}
	sortByTime(out, func(p models.Project) int64 { return p.ExpiresAt.UnixNano() })
	return out, nil
}
