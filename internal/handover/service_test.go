package handover

import (
	"context"
	"testing"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository/memstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenant = "tenant-a"

type fixture struct {
	st  *memstore.Store
	svc *Service
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	f := &fixture{st: st, now: time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)}
	f.svc = NewService(st, st.Handovers(), st.Contracts(), audit.NewWriter(st.Audit(), zerolog.Nop()), zerolog.Nop())
	f.svc.now = func() time.Time { return f.now }
	st.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) contract(t *testing.T, status models.ContractStatus) models.Contract {
	t.Helper()
	q := f.st.AddQuote(models.Quote{TenantID: tenant, ProjectID: "project-1", TotalAmount: 1000})
	var c models.Contract
	err := f.st.WithTenant(context.Background(), tenant, func(s repository.Session) error {
		var err error
		c, err = f.st.Contracts().Create(context.Background(), s, models.Contract{
			QuoteID:        q.ID,
			ContractNumber: "C-1-" + q.ID[:8],
			Status:         status,
			TotalAmount:    1000,
		})
		return err
	})
	require.NoError(t, err)
	return c
}

func TestCreateInstallation_CompletesContract(t *testing.T) {
	for _, status := range []models.ContractStatus{
		models.ContractStatusDraft,
		models.ContractStatusSigned,
		models.ContractStatusInProgress,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			c := f.contract(t, status)
			date := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

			h, err := f.svc.CreateInstallation(context.Background(), tenant, "installer", CreateInput{
				ContractID:   c.ID,
				HandoverDate: date,
				Photos:       []string{"roof.jpg"},
			})
			require.NoError(t, err)
			assert.Equal(t, models.HandoverTypeInstallation, h.HandoverType)

			stored, ok := f.st.Contract(c.ID)
			require.True(t, ok)
			assert.Equal(t, models.ContractStatusCompleted, stored.Status)
			require.NotNil(t, stored.ActualCompletionDate)
			assert.Equal(t, date, *stored.ActualCompletionDate)

			var actions []string
			for _, a := range f.st.ListAudits(tenant) {
				actions = append(actions, a.Action)
			}
			assert.Equal(t, []string{audit.ActionHandoverCreated, audit.ActionContractStatus}, actions)
		})
	}
}

func TestCreateInstallation_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateInstallation(ctx, tenant, "", CreateInput{ContractID: "missing", HandoverDate: f.now})
	assert.True(t, domainerr.Is(err, domainerr.ContractNotFound))

	for _, status := range []models.ContractStatus{models.ContractStatusCompleted, models.ContractStatusCancelled} {
		c := f.contract(t, status)
		_, err := f.svc.CreateInstallation(ctx, tenant, "", CreateInput{ContractID: c.ID, HandoverDate: f.now})
		de, ok := domainerr.As(err)
		require.True(t, ok)
		assert.Equal(t, domainerr.InvalidContractState, de.Kind)
		assert.Equal(t, string(status), de.Current)
	}

	c := f.contract(t, models.ContractStatusSigned)
	_, err = f.svc.CreateInstallation(ctx, tenant, "", CreateInput{ContractID: c.ID})
	assert.True(t, domainerr.Is(err, domainerr.InvalidInput))
}

func TestCancel_OnceOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.contract(t, models.ContractStatusInProgress)
	h, err := f.svc.CreateInstallation(ctx, tenant, "", CreateInput{ContractID: c.ID, HandoverDate: f.now.AddDate(0, 0, -2)})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, tenant, h.ID, "ops", "wrong site")
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)
	assert.True(t, IsBlocked(cancelled))

	_, err = f.svc.Cancel(ctx, tenant, h.ID, "ops", "again")
	assert.True(t, domainerr.Is(err, domainerr.AlreadyCancelled))

	_, err = f.svc.Cancel(ctx, tenant, "missing", "ops", "")
	assert.True(t, domainerr.Is(err, domainerr.NotFound))
}

func TestCommissionStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.contract(t, models.ContractStatusInProgress)
	h, err := f.svc.CreateInstallation(ctx, tenant, "", CreateInput{ContractID: c.ID, HandoverDate: f.now.AddDate(0, 0, -10)})
	require.NoError(t, err)

	st, err := f.svc.CommissionStatus(ctx, tenant, h.ID)
	require.NoError(t, err)
	assert.True(t, st.Released)
	assert.False(t, st.Blocked)
	assert.Equal(t, CommissionReleasable, st.State)

	_, err = f.svc.Cancel(ctx, tenant, h.ID, "", "")
	require.NoError(t, err)
	st, err = f.svc.CommissionStatus(ctx, tenant, h.ID)
	require.NoError(t, err)
	assert.True(t, st.Released, "late cancellation keeps the commission")
}
