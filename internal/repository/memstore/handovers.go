package memstore

import (
	"context"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
)

type handoverRepo struct{ st *Store }

func (st *Store) Handovers() repository.HandoverRepository { return handoverRepo{st} }

func (r handoverRepo) Create(ctx context.Context, s repository.Session, h models.Handover) (models.Handover, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.Handover{}, err
	}
	if err := r.st.fault("handovers.create"); err != nil {
		return models.Handover{}, err
	}
	d := h.HandoverDate.UTC()
	h.ID = newID()
	h.TenantID = tenantID
	h.HandoverDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	h.CancelledAt = nil
	h.CreatedAt = r.st.now()
	if h.Photos == nil {
		h.Photos = []string{}
	}
	r.st.data.handovers = append(r.st.data.handovers, h)
	return h, nil
}

func (r handoverRepo) Get(ctx context.Context, s repository.Session, handoverID string) (models.Handover, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.Handover{}, err
	}
	for _, h := range r.st.data.handovers {
		if h.ID == handoverID && h.TenantID == tenantID {
			return h, nil
		}
	}
	return models.Handover{}, repository.ErrNotFound
}

func (r handoverRepo) GetForUpdate(ctx context.Context, s repository.Session, handoverID string) (models.Handover, error) {
	return r.Get(ctx, s, handoverID)
}

func (r handoverRepo) MarkCancelled(ctx context.Context, s repository.Session, handoverID string, at time.Time) (models.Handover, error) {
	tenantID, err := tenantOf(s)
	if err != nil {
		return models.Handover{}, err
	}
	for i, h := range r.st.data.handovers {
		if h.ID == handoverID && h.TenantID == tenantID && h.CancelledAt == nil {
			cancelled := at
			h.CancelledAt = &cancelled
			r.st.data.handovers[i] = h
			return h, nil
		}
	}
	return models.Handover{}, repository.ErrNotFound
}
