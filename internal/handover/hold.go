package handover

import (
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

// HoldDays is how long a commission waits after an installation handover.
const HoldDays = 7

type CommissionState string

const (
	// CommissionBlocked means the handover was cancelled inside the hold window.
	CommissionBlocked    CommissionState = "BLOCKED"
	CommissionPending    CommissionState = "PENDING"
	CommissionReleasable CommissionState = "RELEASABLE"
)

// HoldEndsAt is midnight UTC HoldDays after the handover date.
func HoldEndsAt(h models.Handover) time.Time {
	d := h.HandoverDate.UTC()
	return time.Date(d.Year(), d.Month(), d.Day()+HoldDays, 0, 0, 0, 0, time.UTC)
}

// IsBlocked is true when the handover was cancelled strictly before the hold ended.
func IsBlocked(h models.Handover) bool {
	return h.CancelledAt != nil && h.CancelledAt.Before(HoldEndsAt(h))
}

// IsReleased reports whether the commission is eligible at now. A cancellation on
// or after the end of the hold does not take an eligible commission back.
func IsReleased(h models.Handover, now time.Time) bool {
	end := HoldEndsAt(h)
	if h.CancelledAt != nil {
		return !h.CancelledAt.Before(end)
	}
	return !now.Before(end)
}

func StateAt(h models.Handover, now time.Time) CommissionState {
	switch {
	case IsBlocked(h):
		return CommissionBlocked
	case IsReleased(h, now):
		return CommissionReleasable
	default:
		return CommissionPending
	}
}
