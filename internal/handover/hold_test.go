package handover

import (
	"testing"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHoldEndsAt(t *testing.T) {
	h := models.Handover{HandoverDate: day(2026, 2, 25)}
	assert.Equal(t, day(2026, 3, 4), HoldEndsAt(h))
}

func TestIsReleased_Boundary(t *testing.T) {
	now := time.Date(2026, 6, 15, 13, 30, 0, 0, time.UTC)
	today := day(2026, 6, 15)

	atBoundary := models.Handover{HandoverDate: today.AddDate(0, 0, -7)}
	assert.True(t, IsReleased(atBoundary, now))
	assert.True(t, IsReleased(atBoundary, today), "released from midnight on")
	assert.False(t, IsReleased(atBoundary, today.Add(-time.Millisecond)))

	notYet := models.Handover{HandoverDate: today.AddDate(0, 0, -6)}
	assert.False(t, IsReleased(notYet, now))
	assert.Equal(t, CommissionPending, StateAt(notYet, now))
}

func TestCancellationAroundBoundary(t *testing.T) {
	h := models.Handover{HandoverDate: day(2026, 6, 1)}
	end := HoldEndsAt(h)
	later := end.AddDate(0, 1, 0)

	early := end.Add(-time.Millisecond)
	h.CancelledAt = &early
	assert.True(t, IsBlocked(h))
	assert.False(t, IsReleased(h, later))
	assert.Equal(t, CommissionBlocked, StateAt(h, later))

	late := end.Add(time.Millisecond)
	h.CancelledAt = &late
	assert.False(t, IsBlocked(h))
	assert.True(t, IsReleased(h, later))
	assert.Equal(t, CommissionReleasable, StateAt(h, later))

	exact := end
	h.CancelledAt = &exact
	assert.False(t, IsBlocked(h))
	assert.True(t, IsReleased(h, later))
}

func TestHoldIgnoresTimeOfDayAndZone(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	h := models.Handover{HandoverDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).In(loc)}
	assert.Equal(t, day(2026, 6, 8), HoldEndsAt(h))
}
