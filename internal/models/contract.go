package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "DRAFT"
	ContractStatusSigned     ContractStatus = "SIGNED"
	ContractStatusInProgress ContractStatus = "IN_PROGRESS"
	ContractStatusCompleted  ContractStatus = "COMPLETED"
	ContractStatusCancelled  ContractStatus = "CANCELLED"
)

// IsTerminal reports whether no lifecycle edge leaves the status.
func (s ContractStatus) IsTerminal() bool {
	return s == ContractStatusCompleted || s == ContractStatusCancelled
}

// Contract is a negotiated deal created from an accepted quote. Amounts are whole currency units.
type Contract struct {
	ID                     string          `json:"id" db:"id"`
	TenantID               string          `json:"tenant_id" db:"tenant_id"`
	ProjectID              string          `json:"project_id" db:"project_id"`
	QuoteID                string          `json:"quote_id" db:"quote_id"`
	ContractNumber         string          `json:"contract_number" db:"contract_number"`
	Status                 ContractStatus  `json:"status" db:"status"`
	DepositPercentage      decimal.Decimal `json:"deposit_percentage" db:"deposit_percentage"`
	DepositAmount          int64           `json:"deposit_amount" db:"deposit_amount"`
	FinalPaymentAmount     int64           `json:"final_payment_amount" db:"final_payment_amount"`
	TotalAmount            int64           `json:"total_amount" db:"total_amount"`
	ExpectedStartDate      *time.Time      `json:"expected_start_date,omitempty" db:"expected_start_date"`
	ExpectedCompletionDate *time.Time      `json:"expected_completion_date,omitempty" db:"expected_completion_date"`
	ActualStartDate        *time.Time      `json:"actual_start_date,omitempty" db:"actual_start_date"`
	ActualCompletionDate   *time.Time      `json:"actual_completion_date,omitempty" db:"actual_completion_date"`
	WarrantyYears          int             `json:"warranty_years" db:"warranty_years"`
	CustomerSignedAt       *time.Time      `json:"customer_signed_at,omitempty" db:"customer_signed_at"`
	CompanySignedAt        *time.Time      `json:"company_signed_at,omitempty" db:"company_signed_at"`
	CompanySignedBy        *string         `json:"company_signed_by,omitempty" db:"company_signed_by"`
	Notes                  *string         `json:"notes,omitempty" db:"notes"`
	CancellationReason     *string         `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledAt            *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedBy              *string         `json:"created_by,omitempty" db:"created_by"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// FullySigned reports whether both parties have signed.
func (c Contract) FullySigned() bool {
	return c.CustomerSignedAt != nil && c.CompanySignedAt != nil
}
