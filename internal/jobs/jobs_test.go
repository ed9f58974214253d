package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/events"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository/memstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const tenant = "tenant-a"

type fixture struct {
	st     *memstore.Store
	audit  *audit.Writer
	events events.Publisher
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	f := &fixture{
		st:  st,
		now: time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC),
	}
	f.audit = audit.NewWriter(st.Audit(), zerolog.Nop())
	f.events = events.NewPublisher(st, st.Events(), zerolog.Nop())
	st.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) runner(jobs ...Job) *Runner {
	r := NewRunner(f.st, f.st.JobRuns(), RunnerOptions{}, zerolog.Nop(), jobs...)
	r.now = f.clock
	return r
}

func (f *fixture) daysAgo(n int) time.Time {
	return f.now.AddDate(0, 0, -n)
}

// contract stores a contract for a fresh quote of the given project.
func (f *fixture) contract(t *testing.T, projectID string, total int64, status models.ContractStatus) models.Contract {
	t.Helper()
	q := f.st.AddQuote(models.Quote{TenantID: tenant, ProjectID: projectID, TotalAmount: total})
	var c models.Contract
	err := f.st.WithTenant(context.Background(), tenant, func(s repository.Session) error {
		var err error
		c, err = f.st.Contracts().Create(context.Background(), s, models.Contract{
			QuoteID:        q.ID,
			ContractNumber: "C-1-" + q.ID[:8],
			Status:         status,
			TotalAmount:    total,
		})
		return err
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) handover(t *testing.T, contractID string, date time.Time) models.Handover {
	t.Helper()
	var h models.Handover
	err := f.st.WithTenant(context.Background(), tenant, func(s repository.Session) error {
		var err error
		h, err = f.st.Handovers().Create(context.Background(), s, models.Handover{
			ContractID:   contractID,
			HandoverType: models.HandoverTypeInstallation,
			HandoverDate: date,
		})
		return err
	})
	require.NoError(t, err)
	return h
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
