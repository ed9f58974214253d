package contract

import (
	"testing"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildTimelineOrdersByTime(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	at := func(h int) *time.Time { v := base.Add(time.Duration(h) * time.Hour); return &v }
	signer := "director"
	reason := "customer withdrew"

	c := models.Contract{
		CreatedAt:          base,
		CompanySignedAt:    at(2),
		CompanySignedBy:    &signer,
		CustomerSignedAt:   at(1),
		ActualStartDate:    at(24),
		CancelledAt:        at(48),
		CancellationReason: &reason,
	}

	got := BuildTimeline(c)
	var types []TimelineEventType
	for _, e := range got {
		types = append(types, e.Type)
	}
	assert.Equal(t, []TimelineEventType{
		TimelineCreated, TimelineCustomerSigned, TimelineCompanySigned, TimelineStarted, TimelineCancelled,
	}, types)
	assert.Equal(t, "director", got[2].Actor)
	assert.Equal(t, reason, got[4].Detail)
}

func TestBuildTimelineSameDayStartFollowsSignatures(t *testing.T) {
	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	signed := time.Date(2026, 4, 1, 14, 0, 0, 0, time.UTC)
	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	c := models.Contract{
		CreatedAt:            created,
		CustomerSignedAt:     &signed,
		CompanySignedAt:      &signed,
		ActualStartDate:      &day,
		ActualCompletionDate: &day,
	}

	var types []TimelineEventType
	for _, e := range BuildTimeline(c) {
		types = append(types, e.Type)
	}
	assert.Equal(t, []TimelineEventType{
		TimelineCreated, TimelineCustomerSigned, TimelineCompanySigned, TimelineStarted, TimelineCompleted,
	}, types)
}

func TestBuildTimelineSameDayCancelAfterStart(t *testing.T) {
	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	start := time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)
	cancelled := time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)

	got := BuildTimeline(models.Contract{CreatedAt: created, ActualStartDate: &start, CancelledAt: &cancelled})
	assert.Equal(t, TimelineStarted, got[1].Type)
	assert.Equal(t, TimelineCancelled, got[2].Type)
}

func TestBuildTimelineForFreshDraft(t *testing.T) {
	got := BuildTimeline(models.Contract{CreatedAt: time.Now()})
	assert.Len(t, got, 1)
	assert.Equal(t, TimelineCreated, got[0].Type)
}
