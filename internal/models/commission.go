package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CommissionStatus string

const CommissionStatusAvailable CommissionStatus = "AVAILABLE"

// Commission is the partner payout for one contract. At most one exists per contract.
type Commission struct {
	ID         string           `json:"id" db:"id"`
	TenantID   string           `json:"tenant_id" db:"tenant_id"`
	PartnerID  string           `json:"partner_id" db:"partner_id"`
	ContractID string           `json:"contract_id" db:"contract_id"`
	Amount     int64            `json:"amount" db:"amount"`
	Status     CommissionStatus `json:"status" db:"status"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// CommissionCandidate is a handover whose contract may be owed a commission.
type CommissionCandidate struct {
	Handover       Handover
	ContractTotal  int64
	PartnerID      string
	CommissionRate decimal.NullDecimal
}
