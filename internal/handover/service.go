package handover

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const entity = "handover"

type CreateInput struct {
	ContractID   string
	HandoverDate time.Time
	Checklist    json.RawMessage
	Photos       []string
	Notes        *string
}

// CommissionStatus is the hold-window view of one handover.
type CommissionStatus struct {
	HandoverID string          `json:"handover_id"`
	HoldEndsAt time.Time       `json:"hold_ends_at"`
	Blocked    bool            `json:"blocked"`
	Released   bool            `json:"released"`
	State      CommissionState `json:"state"`
}

type Service struct {
	tx        repository.Transactor
	handovers repository.HandoverRepository
	contracts repository.ContractRepository
	audit     *audit.Writer
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(
	tx repository.Transactor,
	handovers repository.HandoverRepository,
	contracts repository.ContractRepository,
	auditWriter *audit.Writer,
	logger zerolog.Logger,
) *Service {
	return &Service{
		tx:        tx,
		handovers: handovers,
		contracts: contracts,
		audit:     auditWriter,
		logger:    logger.With().Str("component", "handover_service").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInstallation records an installation handover and completes the contract,
// whatever lifecycle state it was in, unless it is already terminal.
func (s *Service) CreateInstallation(ctx context.Context, tenantID, actor string, in CreateInput) (models.Handover, error) {
	if strings.TrimSpace(in.ContractID) == "" {
		return models.Handover{}, domainerr.New(domainerr.InvalidInput, entity, "contract id is required")
	}
	if in.HandoverDate.IsZero() {
		return models.Handover{}, domainerr.New(domainerr.InvalidInput, entity, "handover date is required")
	}
	if len(in.Checklist) > 0 && !json.Valid(in.Checklist) {
		return models.Handover{}, domainerr.New(domainerr.InvalidInput, entity, "checklist must be valid JSON")
	}

	var created models.Handover
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		c, err := s.contracts.GetForUpdate(ctx, sess, in.ContractID)
		if errors.Is(err, repository.ErrNotFound) {
			return domainerr.New(domainerr.ContractNotFound, "contract", "contract not found")
		}
		if err != nil {
			return errors.Wrap(err, "load contract")
		}
		if c.Status.IsTerminal() {
			return domainerr.WithState(domainerr.InvalidContractState, "contract", string(c.Status), "contract is already closed")
		}

		created, err = s.handovers.Create(ctx, sess, models.Handover{
			ContractID:   c.ID,
			HandoverType: models.HandoverTypeInstallation,
			HandoverDate: in.HandoverDate,
			Checklist:    in.Checklist,
			Photos:       in.Photos,
			Notes:        in.Notes,
			CreatedBy:    optional(actor),
		})
		if err != nil {
			return errors.Wrap(err, "insert handover")
		}

		previous := c.Status
		c.Status = models.ContractStatusCompleted
		if c.ActualCompletionDate == nil {
			completed := created.HandoverDate
			c.ActualCompletionDate = &completed
		}
		if _, err := s.contracts.Save(ctx, sess, c); err != nil {
			return errors.Wrap(err, "complete contract")
		}

		if _, err := s.audit.Write(ctx, sess, audit.Entry{
			TenantID:   sess.TenantID(),
			Actor:      actor,
			Action:     audit.ActionHandoverCreated,
			EntityType: entity,
			EntityID:   created.ID,
			Metadata: map[string]interface{}{
				"contract_id":   c.ID,
				"handover_date": created.HandoverDate.Format("2006-01-02"),
				"hold_ends_at":  HoldEndsAt(created),
			},
		}); err != nil {
			return errors.Wrap(err, "audit handover")
		}
		_, err = s.audit.Write(ctx, sess, audit.Entry{
			TenantID:   sess.TenantID(),
			Actor:      actor,
			Action:     audit.ActionContractStatus,
			EntityType: "contract",
			EntityID:   c.ID,
			Metadata: map[string]interface{}{
				"from":        previous,
				"to":          models.ContractStatusCompleted,
				"handover_id": created.ID,
			},
		})
		return errors.Wrap(err, "audit contract completion")
	})
	return created, err
}

// Cancel marks the handover cancelled. Whether that blocks the commission depends
// only on when it happens relative to the hold window.
func (s *Service) Cancel(ctx context.Context, tenantID, handoverID, actor, reason string) (models.Handover, error) {
	var cancelled models.Handover
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		h, err := s.load(ctx, sess, handoverID, true)
		if err != nil {
			return err
		}
		if h.CancelledAt != nil {
			return domainerr.WithState(domainerr.AlreadyCancelled, entity, "CANCELLED", "handover is already cancelled")
		}

		cancelled, err = s.handovers.MarkCancelled(ctx, sess, h.ID, s.now())
		if err != nil {
			return errors.Wrap(err, "cancel handover")
		}
		meta := map[string]interface{}{
			"commission_blocked": IsBlocked(cancelled),
			"hold_ends_at":       HoldEndsAt(cancelled),
		}
		if r := strings.TrimSpace(reason); r != "" {
			meta["reason"] = r
		}
		_, err = s.audit.Write(ctx, sess, audit.Entry{
			TenantID:   sess.TenantID(),
			Actor:      actor,
			Action:     audit.ActionHandoverCancelled,
			EntityType: entity,
			EntityID:   h.ID,
			Metadata:   meta,
		})
		return errors.Wrap(err, "audit handover cancellation")
	})
	return cancelled, err
}

func (s *Service) Get(ctx context.Context, tenantID, handoverID string) (models.Handover, error) {
	var h models.Handover
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		var err error
		h, err = s.load(ctx, sess, handoverID, false)
		return err
	})
	return h, err
}

func (s *Service) CommissionStatus(ctx context.Context, tenantID, handoverID string) (CommissionStatus, error) {
	h, err := s.Get(ctx, tenantID, handoverID)
	if err != nil {
		return CommissionStatus{}, err
	}
	now := s.now()
	return CommissionStatus{
		HandoverID: h.ID,
		HoldEndsAt: HoldEndsAt(h),
		Blocked:    IsBlocked(h),
		Released:   IsReleased(h, now),
		State:      StateAt(h, now),
	}, nil
}

func (s *Service) load(ctx context.Context, sess repository.Session, handoverID string, forUpdate bool) (models.Handover, error) {
	get := s.handovers.Get
	if forUpdate {
		get = s.handovers.GetForUpdate
	}
	h, err := get(ctx, sess, handoverID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Handover{}, domainerr.New(domainerr.NotFound, entity, "handover not found")
	}
	if err != nil {
		return models.Handover{}, errors.Wrap(err, "load handover")
	}
	return h, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
