package repository

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const testTenant = "11111111-1111-1111-1111-111111111111"

type dbSession struct {
	*sql.DB
	tenantID string
}

func (d dbSession) TenantID() string { return d.tenantID }

func newMockSession(t *testing.T) (dbSession, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return dbSession{DB: db, tenantID: testTenant}, mock
}
