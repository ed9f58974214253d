package jobs

import (
	"context"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// PhoneGateDays is how long a DEMO project may stay without a customer phone.
const PhoneGateDays = 7

// PhoneGateJob cancels demo projects that never received a customer phone.
type PhoneGateJob struct {
	tx       repository.Transactor
	projects repository.ProjectRepository
	audit    *audit.Writer
	logger   zerolog.Logger
	now      func() time.Time
}

func NewPhoneGateJob(tx repository.Transactor, projects repository.ProjectRepository, auditWriter *audit.Writer, logger zerolog.Logger) *PhoneGateJob {
	return &PhoneGateJob{
		tx:       tx,
		projects: projects,
		audit:    auditWriter,
		logger:   logger.With().Str("component", "phone_gate_job").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (j *PhoneGateJob) Name() string         { return models.JobNamePhoneGate }
func (j *PhoneGateJob) Type() models.JobType { return models.JobTypeMaintenance }

func (j *PhoneGateJob) Execute(ctx context.Context, tenantID string) (Summary, error) {
	now := j.now()
	cutoff := now.AddDate(0, 0, -PhoneGateDays)

	var candidates []models.Project
	err := j.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
		var err error
		candidates, err = j.projects.ListPhoneGateCandidates(ctx, s, cutoff)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list phone gate candidates")
	}

	cancelled, failed := 0, 0
	for _, p := range candidates {
		var changed bool
		err := j.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
			var err error
			changed, err = j.projects.CancelForPhoneGate(ctx, s, p.ID, now)
			if err != nil || !changed {
				return err
			}
			_, err = j.audit.Write(ctx, s, audit.Entry{
				TenantID:   tenantID,
				Actor:      audit.ActorSystem,
				Action:     audit.ActionProjectPhoneGate,
				EntityType: "project",
				EntityID:   p.ID,
				Metadata: map[string]interface{}{
					"reason":     "no customer phone",
					"created_at": p.CreatedAt,
					"gate_days":  PhoneGateDays,
				},
			})
			return err
		})
		if err != nil {
			failed++
			j.logger.Error().Err(err).Str("tenant_id", tenantID).Str("project_id", p.ID).Msg("failed to cancel project")
			continue
		}
		if changed {
			cancelled++
		}
	}

	summary := Summary{"candidates": len(candidates), "cancelled": cancelled}
	if failed > 0 {
		summary["failed"] = failed
		return summary, errors.Errorf("%d of %d projects could not be cancelled", failed, len(candidates))
	}
	return summary, nil
}
