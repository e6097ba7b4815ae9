package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	p1  = ProductRef{ID: "p1", SupplierID: "s1", Unit: "kg"}
	now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func newOrder(t *testing.T) *GroupOrder {
	t.Helper()
	o, err := New("g1", p1, "v1", 5, now)
	require.NoError(t, err)
	return o
}

func TestNew(t *testing.T) {
	o := newOrder(t)

	assert.Equal(t, StatusOpen, o.Status)
	assert.Equal(t, "s1", o.SupplierID)
	assert.Equal(t, "kg", o.Unit)
	assert.Equal(t, "v1", o.CreatedBy)
	assert.Equal(t, Ledger{{"v1", 5}}, o.Participants)
	assert.Nil(t, o.ClosedAt)

	evs := o.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, EventGroupOrderCreated, evs[0].Type)
	assert.Equal(t, []string{"v1"}, evs[0].Participants)

	_, err := New("g2", p1, "v1", 0, now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestLifecycleScenario(t *testing.T) {
	o := newOrder(t)

	require.NoError(t, o.Join("v1", 3, now))
	assert.Equal(t, Ledger{{"v1", 8}}, o.Participants)

	require.NoError(t, o.Join("v2", 2, now))
	assert.Equal(t, Ledger{{"v1", 8}, {"v2", 2}}, o.Participants)

	require.NoError(t, o.UpdateQuantity("v2", 10, now))
	assert.Equal(t, Ledger{{"v1", 8}, {"v2", 10}}, o.Participants)
	assert.ErrorIs(t, o.UpdateQuantity("v3", 1, now), ErrNotAParticipant)

	closeAt := now.Add(time.Hour)
	require.NoError(t, o.Close(closeAt))
	assert.Equal(t, StatusCompleted, o.Status)
	require.NotNil(t, o.ClosedAt)
	assert.Equal(t, closeAt, *o.ClosedAt)
	assert.Equal(t, int64(18), o.TotalQuantity())

	assert.ErrorIs(t, o.Join("v3", 1, now), ErrInvalidState)
	assert.ErrorIs(t, o.UpdateQuantity("v1", 1, now), ErrInvalidState)
	assert.ErrorIs(t, o.Close(now), ErrInvalidState)
	assert.ErrorIs(t, o.Cancel("v1", now), ErrInvalidState)
	assert.Equal(t, Ledger{{"v1", 8}, {"v2", 10}}, o.Participants)

	types := make([]EventType, 0)
	for _, ev := range o.DrainEvents() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{
		EventGroupOrderCreated,
		EventParticipantJoined,
		EventParticipantJoined,
		EventParticipantQuantityUpdated,
		EventGroupOrderClosed,
	}, types)
	assert.Empty(t, o.PendingEvents())
}

func TestCancel(t *testing.T) {
	o := newOrder(t)
	require.NoError(t, o.Join("v2", 1, now))

	assert.ErrorIs(t, o.Cancel("v2", now), ErrForbidden)
	assert.Equal(t, StatusOpen, o.Status)

	require.NoError(t, o.Cancel("v1", now))
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Nil(t, o.ClosedAt)
	assert.ErrorIs(t, o.Close(now), ErrInvalidState)

	evs := o.PendingEvents()
	last, ok := evs[len(evs)-1].StatusChange()
	require.True(t, ok)
	assert.Equal(t, StatusChanged{GroupOrderID: "g1", Status: StatusCancelled, Timestamp: now}, last)
}

func TestCloneIsDeep(t *testing.T) {
	o := newOrder(t)
	require.NoError(t, o.Close(now))

	c := o.Clone()
	c.Participants[0].Quantity = 100
	*c.ClosedAt = now.Add(time.Minute)

	assert.Equal(t, 5, o.Participants[0].Quantity)
	assert.Equal(t, now, *o.ClosedAt)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusOpen.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusOpen.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusOpen.CanTransitionTo(StatusOpen))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusOpen))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.False(t, Status("shipped").Valid())
}

func TestKindOf(t *testing.T) {
	o := newOrder(t)
	require.NoError(t, o.Close(now))

	err := o.Join("v2", 1, now)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.False(t, Retryable(err))
	assert.Equal(t, KindNotFound, KindOf(ErrProductNotFound))
	assert.Equal(t, KindNotFound, KindOf(ErrAggregateNotFound))
	assert.True(t, Retryable(ErrConcurrentModification))
	assert.Equal(t, KindNone, KindOf(nil))
}
