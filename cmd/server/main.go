package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/lehoang82vt/solar-platform-sub001/internal/app"
	"github.com/lehoang82vt/solar-platform-sub001/internal/config"
	"github.com/lehoang82vt/solar-platform-sub001/internal/handlers"
	"github.com/lehoang82vt/solar-platform-sub001/internal/jobs"
	"github.com/lehoang82vt/solar-platform-sub001/internal/middleware"
	"github.com/lehoang82vt/solar-platform-sub001/internal/migration"
	"github.com/lehoang82vt/solar-platform-sub001/internal/routes"
	"github.com/lehoang82vt/solar-platform-sub001/internal/temporal"
	"github.com/lehoang82vt/solar-platform-sub001/internal/temporal/activities"
	"github.com/lehoang82vt/solar-platform-sub001/internal/temporal/workflows"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	_ "github.com/lib/pq" // PostgreSQL driver
	tc "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

type application struct {
	config         *config.Config
	db             *sql.DB
	services       *app.Services
	temporalClient tc.Client
	logger         zerolog.Logger
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	if err := migration.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	services, err := app.New(ctx, cfg, db, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build services")
	}

	app := &application{
		config:   cfg,
		db:       db,
		services: services,
		logger:   logger,
	}

	// Jobs are scheduled by Temporal when it is enabled, otherwise by an in-process cron.
	var stopScheduler func()
	if cfg.Temporal.Enabled {
		stopScheduler = app.startTemporalWorker(ctx, logger)
	} else {
		stopScheduler = app.startCron(ctx, logger)
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.CORSOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PATCH", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, stopScheduler, logger)
	stop()

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	svc := app.services
	return routes.NewRouter(routes.Handlers{
		Health:    handlers.HealthCheck(app.db),
		Jobs:      handlers.NewJobHandler(svc.Runner, logger),
		Contracts: handlers.NewContractHandler(svc.Contracts, logger),
		Handovers: handlers.NewHandoverHandler(svc.Handovers, logger),
		Backups:   handlers.NewBackupHandler(svc.Backups, logger),
		Events:    handlers.NewEventHandler(svc.Events, logger),
	}, app.config.JWTSecret)
}

func (app *application) startTemporalWorker(ctx context.Context, logger zerolog.Logger) func() {
	temporalClient, err := tc.Dial(tc.Options{
		HostPort:  app.config.Temporal.HostPort,
		Namespace: app.config.Temporal.Namespace,
		Logger:    temporal.NewTemporalAdapter(logger),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Unable to create Temporal client")
	}
	app.temporalClient = temporalClient

	taskQueue := app.config.Temporal.TaskQueue
	if taskQueue == "" {
		taskQueue = temporal.DefaultTaskQueue
	}

	w := worker.New(temporalClient, taskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(workflows.JobWorkflow, workflow.RegisterOptions{Name: temporal.JobWorkflowName})
	w.RegisterActivity(&activities.Activities{
		Runner:  app.services.Runner,
		Tenants: app.services.Tenants,
	})

	if err := temporal.SyncSchedules(ctx, temporalClient.ScheduleClient(), app.config.Jobs.Schedules,
		taskQueue, int32(app.config.Temporal.MaxAttempts), logger); err != nil {
		logger.Error().Err(err).Msg("Failed to sync job schedules")
	}

	// Start the worker in a goroutine so it doesn't block.
	go func() {
		logger.Info().Str("task_queue", taskQueue).Msg("Starting Temporal worker...")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("Unable to start worker")
		}
	}()

	return func() {
		logger.Info().Msg("Stopping Temporal worker...")
		w.Stop()
		temporalClient.Close()
		logger.Info().Msg("Temporal worker stopped.")
	}
}

func (app *application) startCron(ctx context.Context, logger zerolog.Logger) func() {
	c, err := jobs.NewCronScheduler(ctx, app.services.Runner, app.services.Tenants, app.config.Jobs.Schedules, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to schedule jobs")
	}
	c.Start()
	logger.Info().Int("jobs", len(c.Entries())).Msg("In-process job scheduler started")

	return func() {
		<-c.Stop().Done()
		logger.Info().Msg("Job scheduler stopped.")
	}
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, stopScheduler func(), logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}

	stopScheduler()
}
