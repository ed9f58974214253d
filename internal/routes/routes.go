package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lehoang82vt/solar-platform-sub001/internal/authz"
	"github.com/lehoang82vt/solar-platform-sub001/internal/handlers"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

// Handlers bundles everything the router serves.
type Handlers struct {
	Health    http.HandlerFunc
	Jobs      *handlers.JobHandler
	Contracts *handlers.ContractHandler
	Handovers *handlers.HandoverHandler
	Backups   *handlers.BackupHandler
	Events    *handlers.EventHandler
}

// NewRouter sets up the API routes. Everything under /api requires a bearer token.
func NewRouter(h Handlers, jwtSecret string) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authz.JWTMiddleware(jwtSecret))

	// Scheduled jobs
	api.HandleFunc("/jobs/runs", h.Jobs.ListRuns).Methods(http.MethodGet)
	api.Handle("/jobs/runs/{runID}/timeout",
		authz.RequireRoleHandler(models.RoleAdmin, http.HandlerFunc(h.Jobs.TimeoutRun))).Methods(http.MethodPost)
	api.Handle("/jobs/{jobName}/run",
		authz.RequireRoleHandler(models.RoleAdmin, http.HandlerFunc(h.Jobs.RunJob))).Methods(http.MethodPost)

	// Contracts
	api.HandleFunc("/contracts", h.Contracts.Create).Methods(http.MethodPost)
	api.HandleFunc("/contracts/{contractID}", h.Contracts.Get).Methods(http.MethodGet)
	api.HandleFunc("/contracts/{contractID}", h.Contracts.Update).Methods(http.MethodPatch)
	api.HandleFunc("/contracts/{contractID}/sign", h.Contracts.Sign).Methods(http.MethodPost)
	api.HandleFunc("/contracts/{contractID}/transition", h.Contracts.Transition).Methods(http.MethodPost)
	api.HandleFunc("/contracts/{contractID}/cancel", h.Contracts.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/contracts/{contractID}/timeline", h.Contracts.Timeline).Methods(http.MethodGet)

	// Handovers
	api.HandleFunc("/handovers", h.Handovers.CreateInstallation).Methods(http.MethodPost)
	api.HandleFunc("/handovers/{handoverID}", h.Handovers.Get).Methods(http.MethodGet)
	api.HandleFunc("/handovers/{handoverID}/cancel", h.Handovers.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/handovers/{handoverID}/commission", h.Handovers.CommissionStatus).Methods(http.MethodGet)

	// Backups
	api.Handle("/backups/{backupID}/restore",
		authz.RequireRoleHandler(models.RoleSuperAdmin, http.HandlerFunc(h.Backups.Restore))).Methods(http.MethodPost)

	// Domain events
	api.HandleFunc("/events", h.Events.List).Methods(http.MethodGet)

	return router
}
