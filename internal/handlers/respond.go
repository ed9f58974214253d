package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lehoang82vt/solar-platform-sub001/internal/authz"
	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError answers business errors with their kind and state, and hides the
// details of anything else behind a 500.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error, msg string) {
	if de, ok := domainerr.As(err); ok {
		writeJSON(w, domainerr.HTTPStatus(err), map[string]interface{}{"error": de})
		return
	}
	logger.Error().Err(err).Msg(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// identity returns the tenant and the acting user of an authenticated request.
func identity(w http.ResponseWriter, r *http.Request) (tenantID, actor string, ok bool) {
	id, ok := authz.FromContext(r.Context())
	if !ok {
		http.Error(w, "Missing tenant context", http.StatusUnauthorized)
		return "", "", false
	}
	return id.TenantID, id.Actor(), true
}

func queryLimit(r *http.Request, fallback int) int {
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

// pathID reads a uuid route variable. Any other value names no stored row, so it
// is answered with the not found kind before a query runs.
func pathID(w http.ResponseWriter, r *http.Request, name string, kind domainerr.Kind, entity string) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)[name])
	if _, err := uuid.Parse(id); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": domainerr.New(kind, entity, entity+" not found"),
		})
		return "", false
	}
	return id, true
}
