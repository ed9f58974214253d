package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/lehoang82vt/solar-platform-sub001/internal/jobs"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type JobHandler struct {
	runner *jobs.Runner
	logger zerolog.Logger
}

func NewJobHandler(runner *jobs.Runner, logger zerolog.Logger) *JobHandler {
	return &JobHandler{
		runner: runner,
		logger: logger.With().Str("handler", "job").Logger(),
	}
}

// RunJob runs a job for the caller's tenant. A run blocked by the lock is not an
// error: it answers 200 with skipped set.
func (h *JobHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identity(w, r)
	if !ok {
		return
	}
	jobName := mux.Vars(r)["jobName"]

	res, err := h.runner.Run(r.Context(), tenantID, jobName)
	if errors.Is(err, jobs.ErrUnknownJob) {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("tenant_id", tenantID).Str("job_name", jobName).Msg("job run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"run_id": res.RunID,
			"error":  "job failed",
		})
		return
	}
	if res.Skipped {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"skipped": true,
			"message": "already in progress",
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *JobHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identity(w, r)
	if !ok {
		return
	}
	jobName := strings.TrimSpace(r.URL.Query().Get("job"))
	runs, err := h.runner.ListRuns(r.Context(), tenantID, jobName, queryLimit(r, 50))
	if err != nil {
		writeError(w, h.logger, err, "Failed to list job runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// TimeoutRun releases a stuck lock by moving the run to TIMEOUT.
func (h *JobHandler) TimeoutRun(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := identity(w, r)
	if !ok {
		return
	}
	runID := mux.Vars(r)["runID"]
	err := h.runner.Timeout(r.Context(), tenantID, runID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "Run not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrRunNotRunning):
		http.Error(w, "Run is not running", http.StatusConflict)
	case err != nil:
		writeError(w, h.logger, err, "Failed to time out run")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
