package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/rs/zerolog"
)

type Event struct {
	TenantID   string
	Type       models.DomainEventType
	EntityType string
	EntityID   string
	Payload    map[string]interface{}
}

// Publisher records domain events in the outbox and fans them out to notifiers.
// Callers publish after their own transaction commits.
type Publisher interface {
	Publish(ctx context.Context, evt Event) (models.DomainEvent, error)
	ListRecent(ctx context.Context, tenantID string, limit int) ([]models.DomainEvent, error)
}

type service struct {
	tx        repository.Transactor
	repo      repository.EventRepository
	logger    zerolog.Logger
	notifiers []Notifier
}

func NewPublisher(tx repository.Transactor, repo repository.EventRepository, logger zerolog.Logger, notifiers ...Notifier) Publisher {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		tx:        tx,
		repo:      repo,
		logger:    logger.With().Str("component", "event_publisher").Logger(),
		notifiers: active,
	}
}

func (s *service) Publish(ctx context.Context, evt Event) (models.DomainEvent, error) {
	if evt.Type == "" {
		return models.DomainEvent{}, fmt.Errorf("event type is required")
	}
	if strings.TrimSpace(evt.TenantID) == "" {
		return models.DomainEvent{}, fmt.Errorf("tenant id is required for %s events", evt.Type)
	}

	row := models.DomainEvent{
		EventType:  evt.Type,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
	}
	if len(evt.Payload) > 0 {
		payload, err := json.Marshal(evt.Payload)
		if err != nil {
			return models.DomainEvent{}, fmt.Errorf("marshal payload: %w", err)
		}
		row.Payload = payload
	}

	var stored models.DomainEvent
	err := s.tx.WithTenant(ctx, evt.TenantID, func(sess repository.Session) error {
		var err error
		stored, err = s.repo.Create(ctx, sess, row)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(evt.Type)).Msg("failed to persist event")
		return models.DomainEvent{}, err
	}
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, stored); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), stored)
		}
	}
	return stored, nil
}

func (s *service) ListRecent(ctx context.Context, tenantID string, limit int) ([]models.DomainEvent, error) {
	var out []models.DomainEvent
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		var err error
		out, err = s.repo.ListRecent(ctx, sess, limit)
		return err
	})
	return out, err
}

// PublishQuietly publishes and only logs failures. State changes that emitted the
// event are already committed, so a lost event must not fail the operation.
func PublishQuietly(ctx context.Context, p Publisher, logger zerolog.Logger, evt Event) {
	if p == nil {
		return
	}
	if _, err := p.Publish(ctx, evt); err != nil {
		logger.Warn().Err(err).
			Str("tenant_id", evt.TenantID).
			Str("event_type", string(evt.Type)).
			Str("entity_id", evt.EntityID).
			Msg("domain event not published")
	}
}

func notifierChannelName(n Notifier) string {
	type named interface {
		String() string
	}
	if v, ok := n.(named); ok {
		return v.String()
	}
	return fmt.Sprintf("%T", n)
}
