package handlers

import (
	"net/http"

	"github.com/lehoang82vt/solar-platform-sub001/internal/backup"
	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/rs/zerolog"
)

type BackupHandler struct {
	backups *backup.Service
	logger  zerolog.Logger
}

func NewBackupHandler(backups *backup.Service, logger zerolog.Logger) *BackupHandler {
	return &BackupHandler{
		backups: backups,
		logger:  logger.With().Str("handler", "backup").Logger(),
	}
}

// Restore materializes a backup into a new workspace. Routes guard it with the
// super_admin role.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	tenantID, actor, ok := identity(w, r)
	if !ok {
		return
	}
	backupID, ok := pathID(w, r, "backupID", domainerr.NotFound, "backup")
	if !ok {
		return
	}
	res, err := h.backups.Restore(r.Context(), tenantID, backupID, actor)
	if err != nil {
		writeError(w, h.logger, err, "Failed to restore backup")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
