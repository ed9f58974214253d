package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelForPhoneGate(t *testing.T) {
	s, mock := newMockSession(t)
	at := time.Now()

	mock.ExpectExec(`UPDATE projects`).
		WithArgs("pr-1", testTenant, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE projects`).
		WithArgs("pr-1", testTenant, at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewProjectRepository()
	changed, err := repo.CancelForPhoneGate(context.Background(), s, "pr-1", at)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.CancelForPhoneGate(context.Background(), s, "pr-1", at)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestListPhoneGateCandidates(t *testing.T) {
	s, mock := newMockSession(t)
	cutoff := time.Now().AddDate(0, 0, -7)
	created := cutoff.Add(-time.Hour)

	mock.ExpectQuery(`FROM projects`).
		WithArgs(testTenant, cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "customer_phone", "partner_id", "status", "expires_at", "cancelled_at", "created_at"}).
			AddRow("pr-1", testTenant, nil, nil, "DEMO", nil, nil, created))

	got, err := NewProjectRepository().ListPhoneGateCandidates(context.Background(), s, cutoff)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].CustomerPhone)
	assert.Nil(t, got[0].CancelledAt)
}
