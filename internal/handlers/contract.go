package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/contract"
	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ContractHandler struct {
	contracts *contract.Service
	logger    zerolog.Logger
}

func NewContractHandler(contracts *contract.Service, logger zerolog.Logger) *ContractHandler {
	return &ContractHandler{
		contracts: contracts,
		logger:    logger.With().Str("handler", "contract").Logger(),
	}
}

// dateParam is a calendar date in a request body, written as YYYY-MM-DD.
type dateParam struct {
	time.Time
}

func (d *dateParam) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *dateParam) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, actor, ok := identity(w, r)
	if !ok {
		return
	}
	var payload struct {
		QuoteID                string          `json:"quote_id"`
		DepositPercentage      decimal.Decimal `json:"deposit_percentage"`
		ExpectedStartDate      *dateParam      `json:"expected_start_date"`
		ExpectedCompletionDate *dateParam      `json:"expected_completion_date"`
		WarrantyYears          int             `json:"warranty_years"`
		Notes                  *string         `json:"notes"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	c, err := h.contracts.Create(r.Context(), tenantID, actor, contract.CreateInput{
		QuoteID:                payload.QuoteID,
		DepositPercentage:      payload.DepositPercentage,
		ExpectedStartDate:      payload.ExpectedStartDate.ptr(),
		ExpectedCompletionDate: payload.ExpectedCompletionDate.ptr(),
		WarrantyYears:          payload.WarrantyYears,
		Notes:                  payload.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err, "Failed to create contract")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ContractHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identity(w, r)
	if !ok {
		return
	}
	contractID, ok := pathID(w, r, "contractID", domainerr.ContractNotFound, "contract")
	if !ok {
		return
	}
	c, err := h.contracts.Get(r.Context(), tenantID, contractID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to load contract")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContractHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, actor, ok := identity(w, r)
	if !ok {
		return
	}
	contractID, ok := pathID(w, r, "contractID", domainerr.ContractNotFound, "contract")
	if !ok {
		return
	}
	var payload struct {
		Notes                  *string    `json:"notes"`
		ExpectedStartDate      *dateParam `json:"expected_start_date"`
		ExpectedCompletionDate *dateParam `json:"expected_completion_date"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	c, err := h.contracts.Update(r.Context(), tenantID, contractID, actor, contract.UpdateInput{
		Notes:                  payload.Notes,
		ExpectedStartDate:      payload.ExpectedStartDate.ptr(),
		ExpectedCompletionDate: payload.ExpectedCompletionDate.ptr(),
	})
	if err != nil {
		writeError(w, h.logger, err, "Failed to update contract")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContractHandler) Sign(w http.ResponseWriter, r *http.Request) {
	tenantID, actor, ok := identity(w, r)
	if !ok {
		return
	}
	contractID, ok := pathID(w, r, "contractID", domainerr.ContractNotFound, "contract")
	if !ok {
		return
	}
	var payload struct {
		Customer      bool   `json:"customer"`
		Company       bool   `json:"company"`
		CompanySigner string `json:"company_signer"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	c, err := h.contracts.Sign(r.Context(), tenantID, contractID, actor, contract.SignInput{
		Customer:      payload.Customer,
		Company:       payload.Company,
		CompanySigner: payload.CompanySigner,
	})
	if err != nil {
		writeError(w, h.logger, err, "Failed to sign contract")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContractHandler) Transition(w http.ResponseWriter, r *http.Request) {
	tenantID, actor, ok := identity(w, r)
	if !ok {
		return
	}
	contractID, ok := pathID(w, r, "contractID", domainerr.ContractNotFound, "contract")
	if !ok {
		return
	}
	var payload struct {
		ToStatus models.ContractStatus `json:"to_status"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	c, err := h.contracts.Transition(r.Context(), tenantID, contractID, actor, payload.ToStatus)
	if err != nil {
		writeError(w, h.logger, err, "Failed to transition contract")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContractHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, actor, ok := identity(w, r)
	if !ok {
		return
	}
	contractID, ok := pathID(w, r, "contractID", domainerr.ContractNotFound, "contract")
	if !ok {
		return
	}
	var payload struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	c, err := h.contracts.Cancel(r.Context(), tenantID, contractID, actor, payload.Reason)
	if err != nil {
		writeError(w, h.logger, err, "Failed to cancel contract")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContractHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identity(w, r)
	if !ok {
		return
	}
	contractID, ok := pathID(w, r, "contractID", domainerr.ContractNotFound, "contract")
	if !ok {
		return
	}
	timeline, err := h.contracts.Timeline(r.Context(), tenantID, contractID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to build timeline")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": timeline})
}
