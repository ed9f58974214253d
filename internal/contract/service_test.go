package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/lehoang82vt/solar-platform-sub001/internal/events"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository/memstore"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
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
	logger := zerolog.Nop()
	svc := NewService(
		st,
		st.Contracts(),
		st.Quotes(),
		audit.NewWriter(st.Audit(), logger),
		events.NewPublisher(st, st.Events(), logger),
		logger,
	)
	f := &fixture{st: st, svc: svc, now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	svc.now = func() time.Time { return f.now }
	st.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) draft(t *testing.T, total int64, pct string) models.Contract {
	t.Helper()
	q := f.st.AddQuote(models.Quote{TenantID: tenant, ProjectID: "project-1", TotalAmount: total})
	c, err := f.svc.Create(context.Background(), tenant, "sales@example.com", CreateInput{
		QuoteID:           q.ID,
		DepositPercentage: decimal.RequireFromString(pct),
		WarrantyYears:     10,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) signBoth(t *testing.T, id string) models.Contract {
	t.Helper()
	c, err := f.svc.Sign(context.Background(), tenant, id, "sales@example.com", SignInput{Customer: true, Company: true, CompanySigner: "director"})
	require.NoError(t, err)
	return c
}

func TestCreate_FromAcceptedQuote(t *testing.T) {
	f := newFixture(t)
	c := f.draft(t, 150_000_000, "30")

	assert.Equal(t, models.ContractStatusDraft, c.Status)
	assert.Equal(t, "project-1", c.ProjectID)
	assert.EqualValues(t, 45_000_000, c.DepositAmount)
	assert.EqualValues(t, 105_000_000, c.FinalPaymentAmount)
	assert.Regexp(t, numberPattern, c.ContractNumber)

	audits := f.st.ListAudits(tenant)
	require.Len(t, audits, 1)
	assert.Equal(t, audit.ActionContractCreated, audits[0].Action)
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, tenant, "", CreateInput{QuoteID: "missing", DepositPercentage: decimal.NewFromInt(10)})
	assert.True(t, domainerr.Is(err, domainerr.QuoteNotFound))

	draftQuote := f.st.AddQuote(models.Quote{TenantID: tenant, ProjectID: "p", Status: models.QuoteStatusDraft, TotalAmount: 10})
	_, err = f.svc.Create(ctx, tenant, "", CreateInput{QuoteID: draftQuote.ID, DepositPercentage: decimal.NewFromInt(10)})
	assert.True(t, domainerr.Is(err, domainerr.QuoteNotAccepted))

	c := f.draft(t, 1000, "10")
	_, err = f.svc.Create(ctx, tenant, "", CreateInput{QuoteID: c.QuoteID, DepositPercentage: decimal.NewFromInt(10)})
	assert.True(t, domainerr.Is(err, domainerr.AlreadyExists))

	q := f.st.AddQuote(models.Quote{TenantID: tenant, ProjectID: "p", TotalAmount: 10})
	_, err = f.svc.Create(ctx, tenant, "", CreateInput{QuoteID: q.ID, DepositPercentage: decimal.NewFromInt(120)})
	assert.True(t, domainerr.Is(err, domainerr.InvalidAmount))
}

func TestSign_RequiresBothSignatures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.draft(t, 1000, "10")

	c, err := f.svc.Sign(ctx, tenant, c.ID, "", SignInput{Customer: true})
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusDraft, c.Status)
	require.NotNil(t, c.CustomerSignedAt)
	firstSignature := *c.CustomerSignedAt
	assert.Empty(t, f.st.ListEvents(tenant))

	f.now = f.now.Add(time.Hour)
	c, err = f.svc.Sign(ctx, tenant, c.ID, "", SignInput{Customer: true, Company: true, CompanySigner: "director"})
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusSigned, c.Status)
	assert.Equal(t, firstSignature, *c.CustomerSignedAt, "existing signature must not be overwritten")
	assert.Equal(t, "director", *c.CompanySignedBy)

	evts := f.st.ListEvents(tenant)
	require.Len(t, evts, 1)
	assert.Equal(t, models.EventContractSigned, evts[0].EventType)
	assert.Equal(t, c.ID, evts[0].EntityID)
}

func TestSign_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.draft(t, 1000, "10")

	_, err := f.svc.Sign(ctx, tenant, c.ID, "", SignInput{Company: true})
	assert.True(t, domainerr.Is(err, domainerr.SignerRequired))

	_, err = f.svc.Sign(ctx, tenant, "nope", "", SignInput{Customer: true})
	assert.True(t, domainerr.Is(err, domainerr.ContractNotFound))

	f.signBoth(t, c.ID)
	_, err = f.svc.Sign(ctx, tenant, c.ID, "", SignInput{Customer: true})
	de, ok := domainerr.As(err)
	require.True(t, ok)
	assert.Equal(t, domainerr.InvalidState, de.Kind)
	assert.Equal(t, string(models.ContractStatusSigned), de.Current)
}

func TestTransition_NoSkipNoReverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.draft(t, 1000, "10")

	_, err := f.svc.Transition(ctx, tenant, c.ID, "", models.ContractStatusInProgress)
	de, ok := domainerr.As(err)
	require.True(t, ok)
	assert.Equal(t, domainerr.InvalidTransition, de.Kind)
	assert.Equal(t, "DRAFT", de.Current)
	assert.Equal(t, "IN_PROGRESS", de.Requested)

	_, err = f.svc.Transition(ctx, tenant, c.ID, "", models.ContractStatusDraft)
	assert.True(t, domainerr.Is(err, domainerr.InvalidToStatus))
	_, err = f.svc.Transition(ctx, tenant, c.ID, "", models.ContractStatusSigned)
	assert.True(t, domainerr.Is(err, domainerr.InvalidToStatus))

	stored, ok := f.st.Contract(c.ID)
	require.True(t, ok)
	assert.Equal(t, models.ContractStatusDraft, stored.Status)

	f.signBoth(t, c.ID)
	_, err = f.svc.Transition(ctx, tenant, c.ID, "", models.ContractStatusCompleted)
	assert.True(t, domainerr.Is(err, domainerr.InvalidTransition))
	stored, _ = f.st.Contract(c.ID)
	assert.Equal(t, models.ContractStatusSigned, stored.Status)
}

func TestTransition_StampsDatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.draft(t, 1000, "10")
	f.signBoth(t, c.ID)

	c, err := f.svc.Transition(ctx, tenant, c.ID, "", models.ContractStatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, c.ActualStartDate)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), *c.ActualStartDate)

	f.now = f.now.AddDate(0, 1, 0)
	c, err = f.svc.Transition(ctx, tenant, c.ID, "", models.ContractStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusCompleted, c.Status)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), *c.ActualStartDate)
	assert.Equal(t, time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC), *c.ActualCompletionDate)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.draft(t, 1000, "10")

	_, err := f.svc.Cancel(ctx, tenant, c.ID, "", "   ")
	assert.True(t, domainerr.Is(err, domainerr.ReasonRequired))

	c, err = f.svc.Cancel(ctx, tenant, c.ID, "", "  customer changed their mind ")
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusCancelled, c.Status)
	assert.Equal(t, "  customer changed their mind ", *c.CancellationReason)
	require.NotNil(t, c.CancelledAt)

	_, err = f.svc.Cancel(ctx, tenant, c.ID, "", "again")
	de, ok := domainerr.As(err)
	require.True(t, ok)
	assert.Equal(t, domainerr.InvalidState, de.Kind)
	assert.Equal(t, "CANCELLED", de.Current)
}

func TestCancel_FromInProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.draft(t, 1000, "10")
	f.signBoth(t, c.ID)
	_, err := f.svc.Transition(ctx, tenant, c.ID, "", models.ContractStatusInProgress)
	require.NoError(t, err)

	c, err = f.svc.Cancel(ctx, tenant, c.ID, "", "site unsafe")
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusCancelled, c.Status)
}

func TestUpdate_LockedOutsideDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.draft(t, 1000, "10")
	notes := "bring ladder"

	c, err := f.svc.Update(ctx, tenant, c.ID, "", UpdateInput{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, *c.Notes)

	f.signBoth(t, c.ID)
	for _, status := range []models.ContractStatus{models.ContractStatusSigned, models.ContractStatusInProgress} {
		if status == models.ContractStatusInProgress {
			_, err := f.svc.Transition(ctx, tenant, c.ID, "", models.ContractStatusInProgress)
			require.NoError(t, err)
		}
		other := "changed"
		_, err = f.svc.Update(ctx, tenant, c.ID, "", UpdateInput{Notes: &other})
		de, ok := domainerr.As(err)
		require.True(t, ok)
		assert.Equal(t, domainerr.Locked, de.Kind)
		assert.Equal(t, string(status), de.Current)

		stored, _ := f.st.Contract(c.ID)
		assert.Equal(t, notes, *stored.Notes)
	}
}

func TestUpdate_RejectsInvertedDates(t *testing.T) {
	f := newFixture(t)
	c := f.draft(t, 1000, "10")
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	_, err := f.svc.Update(context.Background(), tenant, c.ID, "", UpdateInput{ExpectedStartDate: &start, ExpectedCompletionDate: &end})
	assert.True(t, domainerr.Is(err, domainerr.InvalidInput))
}

func TestAuditFailureRollsBackSign(t *testing.T) {
	f := newFixture(t)
	c := f.draft(t, 1000, "10")
	f.st.InjectFault("audit.insert", errors.New("audit store down"))

	_, err := f.svc.Sign(context.Background(), tenant, c.ID, "", SignInput{Customer: true, Company: true, CompanySigner: "director"})
	require.Error(t, err)
	_, isBusiness := domainerr.As(err)
	assert.False(t, isBusiness)

	stored, _ := f.st.Contract(c.ID)
	assert.Equal(t, models.ContractStatusDraft, stored.Status)
	assert.Nil(t, stored.CustomerSignedAt)
	assert.Empty(t, f.st.ListEvents(tenant))
}

func TestTimeline(t *testing.T) {
	f := newFixture(t)
	c := f.draft(t, 1000, "10")
	f.signBoth(t, c.ID)

	tl, err := f.svc.Timeline(context.Background(), tenant, c.ID)
	require.NoError(t, err)
	require.Len(t, tl, 3)
	assert.Equal(t, TimelineCreated, tl[0].Type)
}

func TestCrossTenantLookupIsNotFound(t *testing.T) {
	f := newFixture(t)
	c := f.draft(t, 1000, "10")

	_, err := f.svc.Get(context.Background(), "tenant-b", c.ID)
	assert.True(t, domainerr.Is(err, domainerr.ContractNotFound))
}

func TestGet_MalformedIDOnPostgresIsContractNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logger := zerolog.Nop()
	scope := repository.NewScope(db)
	svc := NewService(
		scope,
		repository.NewContractRepository(),
		repository.NewQuoteRepository(),
		audit.NewWriter(repository.NewAuditRepository(), logger),
		events.NewPublisher(scope, repository.NewEventRepository(), logger),
		logger,
	)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT set_config`).WithArgs(tenant).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM contracts WHERE id = \$1`).
		WithArgs("missing", tenant).
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "missing"`})
	mock.ExpectRollback()

	_, err = svc.Get(context.Background(), tenant, "missing")
	assert.True(t, domainerr.Is(err, domainerr.ContractNotFound), "got %v", err)
	assert.Equal(t, 404, domainerr.HTTPStatus(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
