package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportTable_RejectsUnknownTable(t *testing.T) {
	s, _ := newMockSession(t)

	_, err := NewBackupRepository().ExportTable(context.Background(), s, "users; DROP TABLE x")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestExportTable(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectQuery(`SELECT COALESCE\(json_agg\(t\), '\[\]'::json\) FROM "contracts" t`).
		WithArgs(testTenant).
		WillReturnRows(sqlmock.NewRows([]string{"json"}).AddRow([]byte(`[{"id":"c-1"}]`)))

	data, err := NewBackupRepository().ExportTable(context.Background(), s, "contracts")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c-1"}]`, string(data))
}

func TestCreateWorkspace_CopiesEverySnapshotTable(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectExec(`CREATE SCHEMA "restore_ws"`).WillReturnResult(sqlmock.NewResult(0, 0))
	for range SnapshotTables {
		mock.ExpectExec(`CREATE TABLE "restore_ws"\.`).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, NewBackupRepository().CreateWorkspace(context.Background(), s, "restore_ws"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreTable(t *testing.T) {
	s, mock := newMockSession(t)
	rows := json.RawMessage(`[{"id":"h-1"}]`)

	mock.ExpectExec(`INSERT INTO "restore_ws"\."handovers"`).
		WithArgs([]byte(rows), testTenant).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := NewBackupRepository().RestoreTable(context.Background(), s, "restore_ws", "handovers", rows)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDeleteBackup_NotFound(t *testing.T) {
	s, mock := newMockSession(t)

	mock.ExpectExec(`DELETE FROM backups`).WithArgs("b-1", testTenant).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewBackupRepository().Delete(context.Background(), s, "b-1"), ErrNotFound)
}
