// Package jobs runs tenant-scoped background jobs under the job run ledger.
//
// A run acquires the (tenant, job name) lock by inserting a RUNNING ledger row,
// executes the job body and finalizes the row exactly once as COMPLETED or FAILED.
// A concurrent attempt observes the lock and is skipped without side effects.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrUnknownJob is returned for job names that were never registered.
var ErrUnknownJob = errors.New("unknown job")

// Summary is the result a job body reports. It is merged into the ledger metadata.
type Summary map[string]interface{}

// Job is one schedulable unit of work. Execute runs inside the lock and must leave
// the same data state when repeated.
type Job interface {
	Name() string
	Type() models.JobType
	Execute(ctx context.Context, tenantID string) (Summary, error)
}

type Result struct {
	RunID   string  `json:"run_id,omitempty"`
	Skipped bool    `json:"skipped"`
	Summary Summary `json:"summary,omitempty"`
}

// TenantResult is the outcome of one tenant in a fan-out run.
type TenantResult struct {
	TenantID string `json:"tenant_id"`
	Result
	Error string `json:"error,omitempty"`
}

type RunnerOptions struct {
	// LeaseTimeout moves RUNNING rows older than this to TIMEOUT before acquiring.
	// Zero keeps stuck rows until an operator times them out.
	LeaseTimeout time.Duration
}

type Runner struct {
	tx     repository.Transactor
	runs   repository.JobRunRepository
	opts   RunnerOptions
	logger zerolog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	jobs map[string]Job
}

func NewRunner(tx repository.Transactor, runs repository.JobRunRepository, opts RunnerOptions, logger zerolog.Logger, jobs ...Job) *Runner {
	r := &Runner{
		tx:     tx,
		runs:   runs,
		opts:   opts,
		logger: logger.With().Str("component", "job_runner").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
		jobs:   map[string]Job{},
	}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

func (r *Runner) Register(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.Name()] = job
}

// Names lists the registered job names in order.
func (r *Runner) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Runner) Lookup(name string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownJob, name)
	}
	return job, nil
}

// Run executes the named job for one tenant. A Busy lock yields a skipped result
// and a nil error. A failing body is recorded as FAILED and its error returned.
func (r *Runner) Run(ctx context.Context, tenantID, jobName string) (Result, error) {
	if strings.TrimSpace(tenantID) == "" {
		return Result{}, repository.ErrTenantRequired
	}
	job, err := r.Lookup(jobName)
	if err != nil {
		return Result{}, err
	}
	log := r.logger.With().Str("tenant_id", tenantID).Str("job_name", jobName).Logger()

	if r.opts.LeaseTimeout > 0 {
		r.reclaim(ctx, tenantID, jobName, log)
	}

	started := r.now()
	var run models.JobRun
	err = r.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
		var err error
		run, err = r.runs.Acquire(ctx, s, jobName, job.Type(), started, map[string]interface{}{"job_type": job.Type()})
		return err
	})
	if errors.Is(err, repository.ErrJobBusy) {
		log.Info().Msg("job already running, skipped")
		return Result{Skipped: true}, nil
	}
	if err != nil {
		return Result{}, errors.Wrapf(err, "acquire %s", jobName)
	}
	log = log.With().Str("run_id", run.ID).Logger()
	log.Info().Msg("job started")

	summary, runErr := execute(ctx, job, tenantID)
	finished := r.now()
	duration := finished.Sub(started).Milliseconds()

	if runErr != nil {
		err := r.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
			return r.runs.Fail(ctx, s, run.ID, finished, runErr.Error())
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to record job failure")
		}
		log.Error().Err(runErr).Int64("duration_ms", duration).Msg("job failed")
		return Result{RunID: run.ID, Summary: summary}, errors.Wrapf(runErr, "job %s failed", jobName)
	}

	err = r.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
		return r.runs.Complete(ctx, s, run.ID, finished, summary)
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to record job completion")
		return Result{RunID: run.ID, Summary: summary}, errors.Wrapf(err, "complete %s", jobName)
	}
	log.Info().Int64("duration_ms", duration).Interface("summary", summary).Msg("job completed")
	return Result{RunID: run.ID, Summary: summary}, nil
}

// RunAll runs the job for every active tenant in turn. One tenant's failure does not
// stop the others; the returned error reports how many tenants failed.
func (r *Runner) RunAll(ctx context.Context, tenants repository.TenantRepository, jobName string) ([]TenantResult, error) {
	if _, err := r.Lookup(jobName); err != nil {
		return nil, err
	}
	ids, err := tenants.ListActiveIDs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list tenants")
	}
	results := make([]TenantResult, 0, len(ids))
	failed := 0
	for _, id := range ids {
		res, err := r.Run(ctx, id, jobName)
		tr := TenantResult{TenantID: id, Result: res}
		if err != nil {
			failed++
			tr.Error = err.Error()
		}
		results = append(results, tr)
	}
	if failed > 0 {
		return results, errors.Errorf("%s failed for %d of %d tenants", jobName, failed, len(ids))
	}
	return results, nil
}

// Timeout moves a RUNNING run to TIMEOUT. It is the manual release for a stuck lock.
func (r *Runner) Timeout(ctx context.Context, tenantID, runID string) error {
	return r.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
		return r.runs.Timeout(ctx, s, runID, r.now())
	})
}

func (r *Runner) ListRuns(ctx context.Context, tenantID, jobName string, limit int) ([]models.JobRun, error) {
	var runs []models.JobRun
	err := r.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
		var err error
		runs, err = r.runs.List(ctx, s, jobName, limit)
		return err
	})
	return runs, err
}

func (r *Runner) reclaim(ctx context.Context, tenantID, jobName string, log zerolog.Logger) {
	now := r.now()
	var n int64
	err := r.tx.WithTenant(ctx, tenantID, func(s repository.Session) error {
		var err error
		n, err = r.runs.ExpireStale(ctx, s, jobName, now.Add(-r.opts.LeaseTimeout), now)
		return err
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to reclaim stale runs")
		return
	}
	if n > 0 {
		log.Warn().Int64("reclaimed", n).Dur("lease_timeout", r.opts.LeaseTimeout).Msg("stale job runs timed out")
	}
}

func execute(ctx context.Context, job Job, tenantID string) (summary Summary, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return job.Execute(ctx, tenantID)
}
