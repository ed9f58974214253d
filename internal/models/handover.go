package models

import (
	"encoding/json"
	"time"
)

type HandoverType string

const (
	HandoverTypeInstallation HandoverType = "INSTALLATION"
	HandoverTypeMaintenance  HandoverType = "MAINTENANCE"
)

// Handover records a physical handover event for a contract. HandoverDate carries no
// time of day; it is always stored and compared as a UTC calendar date.
type Handover struct {
	ID           string          `json:"id" db:"id"`
	TenantID     string          `json:"tenant_id" db:"tenant_id"`
	ContractID   string          `json:"contract_id" db:"contract_id"`
	HandoverType HandoverType    `json:"handover_type" db:"handover_type"`
	HandoverDate time.Time       `json:"handover_date" db:"handover_date"`
	Checklist    json.RawMessage `json:"checklist,omitempty" db:"checklist"`
	Photos       []string        `json:"photos" db:"photos"`
	Notes        *string         `json:"notes,omitempty" db:"notes"`
	CancelledAt  *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedBy    *string         `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
