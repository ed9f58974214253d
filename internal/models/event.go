package models

import (
	"encoding/json"
	"time"
)

type DomainEventType string

const (
	EventContractSigned     DomainEventType = "contract.signed"
	EventCommissionApproved DomainEventType = "commission.approved"
)

// DomainEvent is an outbox row describing something that happened to an entity.
type DomainEvent struct {
	ID         string          `json:"id" db:"id"`
	TenantID   string          `json:"tenant_id" db:"tenant_id"`
	EventType  DomainEventType `json:"event_type" db:"event_type"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	Payload    json.RawMessage `json:"payload,omitempty" db:"payload"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
