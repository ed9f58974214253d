package app

import (
	"context"
	"testing"

	"github.com/lehoang82vt/solar-platform-sub001/internal/backup"
	"github.com/lehoang82vt/solar-platform-sub001/internal/config"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackupStore(t *testing.T) {
	store, err := NewBackupStore(context.Background(), config.BackupConfig{Store: config.BackupStoreMock})
	require.NoError(t, err)
	assert.IsType(t, &backup.MockStore{}, store)

	_, err = NewBackupStore(context.Background(), config.BackupConfig{Store: "ftp"})
	assert.EqualError(t, err, `unknown backup store "ftp"`)
}

func TestNewRegistersEveryJob(t *testing.T) {
	cfg := &config.Config{
		Jobs:   config.JobsConfig{DefaultCommissionRate: "5"},
		Backup: config.BackupConfig{Store: config.BackupStoreMock},
	}

	svc, err := New(context.Background(), cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{
		models.JobNameBackup,
		models.JobNameCleanup,
		models.JobNameCommission,
		models.JobNamePhoneGate,
	}, svc.Runner.Names())
}
