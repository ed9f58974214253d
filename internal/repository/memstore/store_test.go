package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireIsExclusivePerTenantAndJob(t *testing.T) {
	st := New()
	ctx := context.Background()
	runs := st.JobRuns()

	var first models.JobRun
	require.NoError(t, st.WithTenant(ctx, "t1", func(s repository.Session) error {
		var err error
		first, err = runs.Acquire(ctx, s, models.JobNameCleanup, models.JobTypeCleanup, time.Now(), nil)
		return err
	}))

	err := st.WithTenant(ctx, "t1", func(s repository.Session) error {
		_, err := runs.Acquire(ctx, s, models.JobNameCleanup, models.JobTypeCleanup, time.Now(), nil)
		return err
	})
	assert.ErrorIs(t, err, repository.ErrJobBusy)

	require.NoError(t, st.WithTenant(ctx, "t2", func(s repository.Session) error {
		_, err := runs.Acquire(ctx, s, models.JobNameCleanup, models.JobTypeCleanup, time.Now(), nil)
		return err
	}))

	require.NoError(t, st.WithTenant(ctx, "t1", func(s repository.Session) error {
		return runs.Complete(ctx, s, first.ID, time.Now(), map[string]interface{}{"ok": true})
	}))
	require.NoError(t, st.WithTenant(ctx, "t1", func(s repository.Session) error {
		_, err := runs.Acquire(ctx, s, models.JobNameCleanup, models.JobTypeCleanup, time.Now(), nil)
		return err
	}))
	assert.Len(t, st.ListJobRuns("t1"), 2)
}

func TestFinalizeTwiceIsRejected(t *testing.T) {
	st := New()
	ctx := context.Background()
	runs := st.JobRuns()
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	err := st.WithTenant(ctx, "t1", func(s repository.Session) error {
		run, err := runs.Acquire(ctx, s, models.JobNameBackup, models.JobTypeBackup, started, nil)
		require.NoError(t, err)
		require.NoError(t, runs.Fail(ctx, s, run.ID, started.Add(1500*time.Millisecond), "boom"))
		assert.ErrorIs(t, runs.Complete(ctx, s, run.ID, started, nil), repository.ErrRunNotRunning)

		got, err := runs.Get(ctx, s, run.ID)
		require.NoError(t, err)
		assert.Equal(t, models.JobRunStatusFailed, got.Status)
		require.NotNil(t, got.DurationMS)
		assert.EqualValues(t, 1500, *got.DurationMS)
		return nil
	})
	require.NoError(t, err)
}

func TestFailedTransactionRollsBack(t *testing.T) {
	st := New()
	ctx := context.Background()

	err := st.WithTenant(ctx, "t1", func(s repository.Session) error {
		_, err := st.Audit().Insert(ctx, s, models.AuditEntry{Actor: "SYSTEM", Action: "x", EntityType: "project"})
		require.NoError(t, err)
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Empty(t, st.ListAudits("t1"))
}

func TestRowsAreInvisibleAcrossTenants(t *testing.T) {
	st := New()
	ctx := context.Background()
	q := st.AddQuote(models.Quote{TenantID: "t1", ProjectID: "p1", TotalAmount: 10})

	err := st.WithTenant(ctx, "t2", func(s repository.Session) error {
		_, err := st.Quotes().Get(ctx, s, q.ID)
		return err
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithTenantRequiresTenant(t *testing.T) {
	st := New()
	err := st.WithTenant(context.Background(), "", func(repository.Session) error { return nil })
	assert.ErrorIs(t, err, repository.ErrTenantRequired)
}
