package events

import (
	"context"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/rs/zerolog"
)

type Notifier interface {
	Notify(ctx context.Context, event models.DomainEvent) error
}

// LogNotifier writes every event to the structured log. It is the delivery
// channel used when no downstream consumer is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("notifier", "log").Logger()}
}

func (n *LogNotifier) Notify(_ context.Context, event models.DomainEvent) error {
	n.logger.Info().
		Str("event_id", event.ID).
		Str("tenant_id", event.TenantID).
		Str("event_type", string(event.EventType)).
		Str("entity_type", event.EntityType).
		Str("entity_id", event.EntityID).
		RawJSON("payload", payloadOrEmpty(event.Payload)).
		Msg("domain event dispatched")
	return nil
}

func (n *LogNotifier) String() string {
	return "LogNotifier"
}

func payloadOrEmpty(p []byte) []byte {
	if len(p) == 0 {
		return []byte("{}")
	}
	return p
}

func logNotifyError(logger zerolog.Logger, err error, channel string, event models.DomainEvent) {
	if err == nil {
		return
	}
	logger.Warn().
		Err(err).
		Str("event_id", event.ID).
		Str("event_type", string(event.EventType)).
		Str("channel", channel).
		Msg("failed to deliver event")
}
