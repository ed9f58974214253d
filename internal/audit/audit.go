package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ActorSystem is recorded for changes made by scheduled jobs.
const ActorSystem = "SYSTEM"

const (
	ActionContractCreated      = "contract.created"
	ActionContractUpdated      = "contract.updated"
	ActionContractSignature    = "contract.signature_recorded"
	ActionContractSigned       = "contract.signed"
	ActionContractStatus       = "contract.status_changed"
	ActionContractCancelled    = "contract.cancelled"
	ActionHandoverCreated      = "handover.created"
	ActionHandoverCancelled    = "handover.cancelled"
	ActionCommissionReleased   = "commission.released"
	ActionProjectPhoneGate     = "project.cancelled.phone_gate"
	ActionProjectExpiryWarning = "project.expiry_warning"
	ActionBackupCreated        = "backup.created"
	ActionRestoreStarted       = "backup.restore.started"
	ActionRestoreCompleted     = "backup.restore.completed"
	ActionRestoreFailed        = "backup.restore.failed"
)

var (
	ErrTenantRequired = errors.New("audit: tenant id is required")
	ErrTenantMismatch = errors.New("audit: tenant id does not match session")
)

type Entry struct {
	TenantID   string
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]interface{}
}

// Writer appends audit rows inside the caller's session so the row commits or
// rolls back together with the change it describes.
type Writer struct {
	repo   repository.AuditRepository
	logger zerolog.Logger
}

func NewWriter(repo repository.AuditRepository, logger zerolog.Logger) *Writer {
	return &Writer{
		repo:   repo,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

func (w *Writer) Write(ctx context.Context, s repository.Session, e Entry) (models.AuditEntry, error) {
	tenantID := strings.TrimSpace(e.TenantID)
	if tenantID == "" {
		return models.AuditEntry{}, ErrTenantRequired
	}
	if s == nil || s.TenantID() != tenantID {
		return models.AuditEntry{}, ErrTenantMismatch
	}
	if strings.TrimSpace(e.Action) == "" {
		return models.AuditEntry{}, errors.New("audit: action is required")
	}

	actor := strings.TrimSpace(e.Actor)
	if actor == "" {
		actor = ActorSystem
	}
	row := models.AuditEntry{
		TenantID:   tenantID,
		Actor:      actor,
		Action:     e.Action,
		EntityType: e.EntityType,
	}
	if id := strings.TrimSpace(e.EntityID); id != "" {
		row.EntityID = &id
	}
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return models.AuditEntry{}, errors.Wrap(err, "marshal audit metadata")
		}
		row.Metadata = b
	}

	created, err := w.repo.Insert(ctx, s, row)
	if err != nil {
		w.logger.Error().Err(err).
			Str("tenant_id", tenantID).
			Str("action", e.Action).
			Str("entity_type", e.EntityType).
			Msg("failed to write audit entry")
		return models.AuditEntry{}, err
	}
	return created, nil
}

// HasRecent reports whether the entity received the action since the given time.
func (w *Writer) HasRecent(ctx context.Context, s repository.Session, action, entityType, entityID string, since time.Time) (bool, error) {
	return w.repo.HasRecent(ctx, s, action, entityType, entityID, since)
}
