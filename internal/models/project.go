package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProjectStatus string

const (
	// ProjectStatusDemo is the provisional pre-qualification state.
	ProjectStatusDemo      ProjectStatus = "DEMO"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

type Project struct {
	ID            string        `json:"id" db:"id"`
	TenantID      string        `json:"tenant_id" db:"tenant_id"`
	CustomerPhone *string       `json:"customer_phone,omitempty" db:"customer_phone"`
	PartnerID     *string       `json:"partner_id,omitempty" db:"partner_id"`
	Status        ProjectStatus `json:"status" db:"status"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty" db:"expires_at"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// Partner is a sales partner. A nil CommissionRate means the tenant default applies.
type Partner struct {
	ID             string              `json:"id" db:"id"`
	TenantID       string              `json:"tenant_id" db:"tenant_id"`
	Name           string              `json:"name" db:"name"`
	CommissionRate decimal.NullDecimal `json:"commission_rate" db:"commission_rate"`
}

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "DRAFT"
	QuoteStatusAccepted QuoteStatus = "ACCEPTED"
)

type Quote struct {
	ID          string      `json:"id" db:"id"`
	TenantID    string      `json:"tenant_id" db:"tenant_id"`
	ProjectID   string      `json:"project_id" db:"project_id"`
	Status      QuoteStatus `json:"status" db:"status"`
	TotalAmount int64       `json:"total_amount" db:"total_amount"`
}
