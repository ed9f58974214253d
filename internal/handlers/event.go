package handlers

import (
	"net/http"

	"github.com/lehoang82vt/solar-platform-sub001/internal/events"
	"github.com/rs/zerolog"
)

type EventHandler struct {
	events events.Publisher
	logger zerolog.Logger
}

func NewEventHandler(publisher events.Publisher, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		events: publisher,
		logger: logger.With().Str("handler", "event").Logger(),
	}
}

// List returns the tenant's most recent domain events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identity(w, r)
	if !ok {
		return
	}
	recent, err := h.events.ListRecent(r.Context(), tenantID, queryLimit(r, 25))
	if err != nil {
		writeError(w, h.logger, err, "Failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": recent})
}
