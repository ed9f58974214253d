package memstore

import (
	"context"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
)

type auditRepo struct{ st *Store }

func (st *Store) Audit() repository.AuditRepository { return auditRepo{st} }

func (r auditRepo) Insert(ctx context.Context, s repository.Session, entry models.AuditEntry) (models.AuditEntry, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.AuditEntry{}, err
	}
	if err := r.st.fault("audit.insert"); err != nil {
		return models.AuditEntry{}, err
	}
	entry.ID = newID()
	entry.TenantID = tenantID
	entry.CreatedAt = r.st.now()
	r.st.data.audits = append(r.st.data.audits, entry)
	return entry, nil
}

func (r auditRepo) HasRecent(ctx context.Context, s repository.Session, action, entityType, entityID string, since time.Time) (bool, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return false, err
	}
	for _, e := range r.st.data.audits {
		if e.TenantID == tenantID && e.Action == action && e.EntityType == entityType &&
			e.EntityID != nil && *e.EntityID == entityID && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r auditRepo) ListForEntity(ctx context.Context, s repository.Session, entityType, entityID string) ([]models.AuditEntry, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return nil, err
	}
	var out []models.AuditEntry
	for _, e := range r.st.data.audits {
		if e.TenantID == tenantID && e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type eventRepo struct{ st *Store }

func (st *Store) Events() repository.EventRepository { return eventRepo{st} }

func (r eventRepo) Create(ctx context.Context, s repository.Session, event models.DomainEvent) (models.DomainEvent, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.DomainEvent{}, err
	}
	if err := r.st.fault("events.create"); err != nil {
		return models.DomainEvent{}, err
	}
	event.ID = newID()
	event.TenantID = tenantID
	event.CreatedAt = r.st.now()
	r.st.data.events = append(r.st.data.events, event)
	return event, nil
}

func (r eventRepo) ListRecent(ctx context.Context, s repository.Session, limit int) ([]models.DomainEvent, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	var out []models.DomainEvent
	for i := len(r.st.data.events) - 1; i >= 0 && len(out) < limit; i-- {
		if e := r.st.data.events[i]; e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

type tenantRepo struct{ st *Store }

func (st *Store) Tenants() repository.TenantRepository { return tenantRepo{st} }

func (r tenantRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	r.st.read(func() {
		for _, t := range r.st.data.tenants {
			if t.IsActive {
				ids = append(ids, t.ID)
			}
		}
	})
	return ids, nil
}

func (r tenantRepo) GetTenantByID(ctx context.Context, id string) (models.Tenant, error) {
	var (
		out   models.Tenant
		found bool
	)
	r.st.read(func() {
		for _, t := range r.st.data.tenants {
			if t.ID == id {
				out, found = t, true
			}
		}
	})
	if !found {
		return models.Tenant{}, repository.ErrNotFound
	}
	return out, nil
}
