package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/lehoang82vt/solar-platform-sub001/internal/handover"
	"github.com/rs/zerolog"
)

type HandoverHandler struct {
	handovers *handover.Service
	logger    zerolog.Logger
}

func NewHandoverHandler(handovers *handover.Service, logger zerolog.Logger) *HandoverHandler {
	return &HandoverHandler{
		handovers: handovers,
		logger:    logger.With().Str("handler", "handover").Logger(),
	}
}

// CreateInstallation records an installation handover and completes its contract.
func (h *HandoverHandler) CreateInstallation(w http.ResponseWriter, r *http.Request) {
	tenantID, actor, ok := identity(w, r)
	if !ok {
		return
	}
	var payload struct {
		ContractID   string          `json:"contract_id"`
		HandoverDate dateParam       `json:"handover_date"`
		Checklist    json.RawMessage `json:"checklist"`
		Photos       []string        `json:"photos"`
		Notes        *string         `json:"notes"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	created, err := h.handovers.CreateInstallation(r.Context(), tenantID, actor, handover.CreateInput{
		ContractID:   payload.ContractID,
		HandoverDate: payload.HandoverDate.Time,
		Checklist:    payload.Checklist,
		Photos:       payload.Photos,
		Notes:        payload.Notes,
	})
	if err != nil {
		writeError(w, h.logger, err, "Failed to create handover")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HandoverHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, actor, ok := identity(w, r)
	if !ok {
		return
	}
	handoverID, ok := pathID(w, r, "handoverID", domainerr.NotFound, "handover")
	if !ok {
		return
	}
	var payload struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &payload) {
		return
	}
	cancelled, err := h.handovers.Cancel(r.Context(), tenantID, handoverID, actor, payload.Reason)
	if err != nil {
		writeError(w, h.logger, err, "Failed to cancel handover")
		return
	}
	writeJSON(w, http.StatusOK, cancelled)
}

func (h *HandoverHandler) CommissionStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identity(w, r)
	if !ok {
		return
	}
	handoverID, ok := pathID(w, r, "handoverID", domainerr.NotFound, "handover")
	if !ok {
		return
	}
	status, err := h.handovers.CommissionStatus(r.Context(), tenantID, handoverID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to load commission status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *HandoverHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identity(w, r)
	if !ok {
		return
	}
	handoverID, ok := pathID(w, r, "handoverID", domainerr.NotFound, "handover")
	if !ok {
		return
	}
	found, err := h.handovers.Get(r.Context(), tenantID, handoverID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to load handover")
		return
	}
	writeJSON(w, http.StatusOK, found)
}
