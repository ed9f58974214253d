package repository

import (
	"context"
	"fmt"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

// EventRepository persists domain events to the outbox table.
type EventRepository interface {
	Create(ctx context.Context, s Session, event models.DomainEvent) (models.DomainEvent, error)
	ListRecent(ctx context.Context, s Session, limit int) ([]models.DomainEvent, error)
}

type eventRepository struct{}

func NewEventRepository() EventRepository {
	return &eventRepository{}
}

const eventColumns = `id, tenant_id, event_type, entity_type, entity_id, payload, created_at`

func (r *eventRepository) Create(ctx context.Context, s Session, event models.DomainEvent) (models.DomainEvent, error) {
	query := `
		INSERT INTO domain_events (tenant_id, event_type, entity_type, entity_id, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + eventColumns

	var payload interface{}
	if len(event.Payload) > 0 {
		payload = []byte(event.Payload)
	}
	created, err := scanEvent(s.QueryRowContext(ctx, query, s.TenantID(), event.EventType, event.EntityType, event.EntityID, payload))
	if err != nil {
		return models.DomainEvent{}, fmt.Errorf("insert event %s: %w", event.EventType, err)
	}
	return created, nil
}

func (r *eventRepository) ListRecent(ctx context.Context, s Session, limit int) ([]models.DomainEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := `
		SELECT ` + eventColumns + `
		FROM domain_events
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.QueryContext(ctx, query, s.TenantID(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.DomainEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func scanEvent(scanner rowScanner) (models.DomainEvent, error) {
	var (
		e       models.DomainEvent
		payload []byte
	)
	if err := scanner.Scan(&e.ID, &e.TenantID, &e.EventType, &e.EntityType, &e.EntityID, &payload, &e.CreatedAt); err != nil {
		return models.DomainEvent{}, err
	}
	if len(payload) > 0 {
		e.Payload = payload
	}
	return e, nil
}
