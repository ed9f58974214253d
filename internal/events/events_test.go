package events

import (
	"context"
	"errors"
	"testing"

	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository/memstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	got []models.DomainEvent
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, e models.DomainEvent) error {
	r.got = append(r.got, e)
	return r.err
}

func TestPublish_PersistsAndFansOut(t *testing.T) {
	st := memstore.New()
	rec := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("unreachable")}
	p := NewPublisher(st, st.Events(), zerolog.Nop(), rec, nil, failing)

	evt, err := p.Publish(context.Background(), Event{
		TenantID:   "t1",
		Type:       models.EventContractSigned,
		EntityType: "contract",
		EntityID:   "c-1",
		Payload:    map[string]interface{}{"contract_number": "C-1-abcdef01"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, evt.ID)
	require.Len(t, rec.got, 1)
	assert.Equal(t, models.EventContractSigned, rec.got[0].EventType)
	assert.Len(t, failing.got, 1)
	assert.Len(t, st.ListEvents("t1"), 1)

	recent, err := p.ListRecent(context.Background(), "t1", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestPublish_Validation(t *testing.T) {
	st := memstore.New()
	p := NewPublisher(st, st.Events(), zerolog.Nop())

	_, err := p.Publish(context.Background(), Event{TenantID: "t1"})
	assert.Error(t, err)
	_, err = p.Publish(context.Background(), Event{Type: models.EventCommissionApproved})
	assert.Error(t, err)
}

func TestPublishQuietly_SwallowsStoreFailure(t *testing.T) {
	st := memstore.New()
	st.InjectFault("events.create", errors.New("disk full"))
	p := NewPublisher(st, st.Events(), zerolog.Nop())

	PublishQuietly(context.Background(), p, zerolog.Nop(), Event{TenantID: "t1", Type: models.EventCommissionApproved})
	assert.Empty(t, st.ListEvents("t1"))
}
