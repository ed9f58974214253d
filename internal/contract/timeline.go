package contract

import (
	"sort"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
)

type TimelineEventType string

const (
	TimelineCreated        TimelineEventType = "created"
	TimelineCustomerSigned TimelineEventType = "customer_signed"
	TimelineCompanySigned  TimelineEventType = "company_signed"
	TimelineStarted        TimelineEventType = "started"
	TimelineCompleted      TimelineEventType = "completed"
	TimelineCancelled      TimelineEventType = "cancelled"
)

// lifecycleRank orders events of the same calendar day when one of them only
// carries a date.
var lifecycleRank = map[TimelineEventType]int{
	TimelineCreated:        0,
	TimelineCustomerSigned: 1,
	TimelineCompanySigned:  2,
	TimelineStarted:        3,
	TimelineCompleted:      4,
	TimelineCancelled:      5,
}

type TimelineEvent struct {
	Type   TimelineEventType `json:"type"`
	At     time.Time         `json:"at"`
	Actor  string            `json:"actor,omitempty"`
	Detail string            `json:"detail,omitempty"`

	dateOnly bool
}

// BuildTimeline derives the lifecycle history of c from its timestamps, oldest first.
func BuildTimeline(c models.Contract) []TimelineEvent {
	events := []TimelineEvent{{Type: TimelineCreated, At: c.CreatedAt, Actor: deref(c.CreatedBy)}}
	if c.CustomerSignedAt != nil {
		events = append(events, TimelineEvent{Type: TimelineCustomerSigned, At: *c.CustomerSignedAt})
	}
	if c.CompanySignedAt != nil {
		events = append(events, TimelineEvent{Type: TimelineCompanySigned, At: *c.CompanySignedAt, Actor: deref(c.CompanySignedBy)})
	}
	if c.ActualStartDate != nil {
		events = append(events, TimelineEvent{Type: TimelineStarted, At: *c.ActualStartDate, dateOnly: true})
	}
	if c.ActualCompletionDate != nil {
		events = append(events, TimelineEvent{Type: TimelineCompleted, At: *c.ActualCompletionDate, dateOnly: true})
	}
	if c.CancelledAt != nil {
		events = append(events, TimelineEvent{Type: TimelineCancelled, At: *c.CancelledAt, Detail: deref(c.CancellationReason)})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].before(events[j]) })
	return events
}

// before orders by time, except that a date-only event has no time of day:
// against anything on the same day it falls back to lifecycle order.
func (e TimelineEvent) before(o TimelineEvent) bool {
	if (e.dateOnly || o.dateOnly) && sameDay(e.At, o.At) {
		return lifecycleRank[e.Type] < lifecycleRank[o.Type]
	}
	return e.At.Before(o.At)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
