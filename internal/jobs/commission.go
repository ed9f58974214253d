package jobs

import (
	"context"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/events"
	"github.com/lehoang82vt/solar-platform-sub001/internal/handover"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultCommissionRate is the percentage paid when a partner has no own rate.
var DefaultCommissionRate = decimal.NewFromInt(5)

// CommissionJob releases one commission per contract whose installation handover
// has passed the hold window.
type CommissionJob struct {
	tx          repository.Transactor
	commissions repository.CommissionRepository
	audit       *audit.Writer
	events      events.Publisher
	defaultRate decimal.Decimal
	logger      zerolog.Logger
	now         func() time.Time
}

func NewCommissionJob(tx repository.Transactor, commissions repository.CommissionRepository, auditWriter *audit.Writer, publisher events.Publisher, defaultRate decimal.Decimal, logger zerolog.Logger) *CommissionJob {
	if !defaultRate.IsPositive() {
		defaultRate = DefaultCommissionRate
	}
	return &CommissionJob{
		tx:          tx,
		commissions: commissions,
		audit:       auditWriter,
		events:      publisher,
		defaultRate: defaultRate,
		logger:      logger.With().Str("component", "commission_job").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (j *CommissionJob) Name() string         { return models.JobNameCommission }
func (j *CommissionJob) Type() models.JobType { return models.JobTypeCommission }

func (j *CommissionJob) Execute(ctx context.Context, tenantID string) (Summary, error) {
	now := j.now()
	lastEligible := now.AddDate(0, 0, -handover.HoldDays)

	var candidates []models.CommissionCandidate
	err := j.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
		var err error
		candidates, err = j.commissions.ListCandidates(ctx, s, lastEligible)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list commission candidates")
	}

	released, failed := 0, 0
	for _, c := range candidates {
		if !handover.IsReleased(c.Handover, now) {
			continue
		}
		commission, created, err := j.release(ctx, tenantID, c)
		if err != nil {
			failed++
			j.logger.Error().Err(err).
				Str("tenant_id", tenantID).
				Str("contract_id", c.Handover.ContractID).
				Msg("failed to release commission")
			continue
		}
		if !created {
			continue
		}
		released++
		events.PublishQuietly(ctx, j.events, j.logger, events.Event{
			TenantID:   tenantID,
			Type:       models.EventCommissionApproved,
			EntityType: "commission",
			EntityID:   commission.ID,
			Payload: map[string]interface{}{
				"contract_id": commission.ContractID,
				"partner_id":  commission.PartnerID,
				"amount":      commission.Amount,
			},
		})
	}

	summary := Summary{"candidates": len(candidates), "released": released}
	if failed > 0 {
		summary["failed"] = failed
		return summary, errors.Errorf("%d of %d commissions could not be released", failed, len(candidates))
	}
	return summary, nil
}

func (j *CommissionJob) release(ctx context.Context, tenantID string, c models.CommissionCandidate) (models.Commission, bool, error) {
	rate := j.defaultRate
	if c.CommissionRate.Valid {
		rate = c.CommissionRate.Decimal
	}
	amount := CommissionAmount(c.ContractTotal, rate)

	var (
		commission models.Commission
		created    bool
	)
	err := j.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
		var err error
		commission, created, err = j.commissions.Create(ctx, s, models.Commission{
			PartnerID:  c.PartnerID,
			ContractID: c.Handover.ContractID,
			Amount:     amount,
			Status:     models.CommissionStatusAvailable,
		})
		if err != nil || !created {
			return err
		}
		_, err = j.audit.Write(ctx, s, audit.Entry{
			TenantID:   tenantID,
			Actor:      audit.ActorSystem,
			Action:     audit.ActionCommissionReleased,
			EntityType: "commission",
			EntityID:   commission.ID,
			Metadata: map[string]interface{}{
				"contract_id": commission.ContractID,
				"handover_id": c.Handover.ID,
				"partner_id":  commission.PartnerID,
				"rate":        rate.String(),
				"amount":      amount,
			},
		})
		return err
	})
	return commission, created, err
}

// CommissionAmount is floor(total * rate / 100).
func CommissionAmount(total int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(total).Mul(rate).Shift(-2).Floor().IntPart()
}
