package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

var invalidUUID = &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "missing"`}

func TestContractGet_MalformedIDIsNotFound(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectQuery(`FROM contracts WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs("missing", testTenant).
		WillReturnError(invalidUUID)

	_, err := NewContractRepository().Get(context.Background(), s, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractGetForUpdate_NoRowIsNotFound(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectQuery(`FROM contracts WHERE id = \$1 AND tenant_id = \$2 FOR UPDATE`).
		WithArgs("6f1c2b8e-3d4a-4f5b-9c6d-7e8f9a0b1c2d", testTenant).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewContractRepository().GetForUpdate(context.Background(), s, "6f1c2b8e-3d4a-4f5b-9c6d-7e8f9a0b1c2d")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContractGet_OtherErrorsAreWrapped(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectQuery(`FROM contracts`).
		WillReturnError(&pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"})

	_, err := NewContractRepository().Get(context.Background(), s, "6f1c2b8e-3d4a-4f5b-9c6d-7e8f9a0b1c2d")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestQuoteGet_MalformedIDIsNotFound(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectQuery(`FROM quotes`).WillReturnError(invalidUUID)

	_, err := NewQuoteRepository().Get(context.Background(), s, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandoverLookups_MalformedIDIsNotFound(t *testing.T) {
	s, mock := newMockSession(t)
	repo := NewHandoverRepository()

	mock.ExpectQuery(`FROM handovers WHERE id = \$1`).WillReturnError(invalidUUID)
	_, err := repo.Get(context.Background(), s, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(`UPDATE handovers`).WillReturnError(invalidUUID)
	_, err = repo.MarkCancelled(context.Background(), s, "missing", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackupLookups_MalformedIDIsNotFound(t *testing.T) {
	s, mock := newMockSession(t)
	repo := NewBackupRepository()

	mock.ExpectQuery(`FROM backups WHERE id = \$1`).WillReturnError(invalidUUID)
	_, err := repo.Get(context.Background(), s, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(`DELETE FROM backups`).WillReturnError(invalidUUID)
	assert.ErrorIs(t, repo.Delete(context.Background(), s, "missing"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
