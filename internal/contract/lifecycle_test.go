package contract

import (
	"testing"

	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []models.ContractStatus{
	models.ContractStatusDraft,
	models.ContractStatusSigned,
	models.ContractStatusInProgress,
	models.ContractStatusCompleted,
	models.ContractStatusCancelled,
}

func TestEdgeTable(t *testing.T) {
	allowed := map[[2]models.ContractStatus]bool{
		{models.ContractStatusDraft, models.ContractStatusSigned}:         true,
		{models.ContractStatusDraft, models.ContractStatusCancelled}:      true,
		{models.ContractStatusSigned, models.ContractStatusInProgress}:    true,
		{models.ContractStatusSigned, models.ContractStatusCancelled}:     true,
		{models.ContractStatusInProgress, models.ContractStatusCompleted}: true,
		{models.ContractStatusInProgress, models.ContractStatusCancelled}: true,
	}
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			want := allowed[[2]models.ContractStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)

			err := ValidateTransition(from, to)
			if want {
				assert.NoError(t, err)
				continue
			}
			de, ok := domainerr.As(err)
			require.True(t, ok, "%s -> %s", from, to)
			assert.Equal(t, domainerr.InvalidTransition, de.Kind)
			assert.Equal(t, string(from), de.Current)
			assert.Equal(t, string(to), de.Requested)
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, to := range allStatuses {
		assert.False(t, CanTransition(models.ContractStatusCompleted, to))
		assert.False(t, CanTransition(models.ContractStatusCancelled, to))
	}
}
