package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventbuddy/backend/internal/models"
)

func capEvent(max, free, booked int) *models.Event {
	return &models.Event{
		MaxTicketCapacity:  &max,
		FreeTicketCapacity: &free,
		BookedTicketsCount: booked,
	}
}

func TestApplyTicketDelta_BookingLifecycle(t *testing.T) {
	ev := capEvent(10, 10, 0)

	require.NoError(t, ApplyTicketDelta(ev, 8))
	assert.Equal(t, 2, *ev.FreeTicketCapacity)
	assert.Equal(t, 8, ev.BookedTicketsCount)
	assert.True(t, ev.TicketAlarm, "2 of 10 remaining is at the 20%% threshold")
	assert.False(t, ev.IsSoldOut)

	require.NoError(t, ApplyTicketDelta(ev, 2))
	assert.Equal(t, 0, *ev.FreeTicketCapacity)
	assert.Equal(t, 10, ev.BookedTicketsCount)
	assert.True(t, ev.IsSoldOut)
	assert.True(t, ev.TicketAlarm)

	err := ApplyTicketDelta(ev, 1)
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)
	assert.Equal(t, 0, *ev.FreeTicketCapacity, "failed delta must not mutate the event")
	assert.Equal(t, 10, ev.BookedTicketsCount)

	require.NoError(t, ApplyTicketDelta(ev, -10))
	assert.Equal(t, 10, *ev.FreeTicketCapacity)
	assert.Equal(t, 0, ev.BookedTicketsCount)
	assert.False(t, ev.IsSoldOut)
	assert.False(t, ev.TicketAlarm)
}

func TestApplyTicketDelta_AlarmThreshold(t *testing.T) {
	tests := []struct {
		name  string
		max   int
		free  int
		delta int
		alarm bool
	}{
		{"well above threshold", 100, 100, 50, false},
		{"just above threshold", 100, 100, 79, false},
		{"exactly at threshold", 100, 100, 80, true},
		{"below threshold", 100, 100, 90, true},
		{"small event at threshold", 5, 5, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := capEvent(tt.max, tt.free, tt.max-tt.free)
			require.NoError(t, ApplyTicketDelta(ev, tt.delta))
			assert.Equal(t, tt.alarm, ev.TicketAlarm)
		})
	}
}

func TestApplyTicketDelta_PerBookingLimit(t *testing.T) {
	limit := 4
	ev := capEvent(100, 100, 0)
	ev.MaxPerBooking = &limit

	err := ApplyTicketDelta(ev, 5)
	assert.ErrorIs(t, err, models.ErrBookingLimitExceeded)
	assert.Equal(t, 100, *ev.FreeTicketCapacity)

	require.NoError(t, ApplyTicketDelta(ev, 4))
	assert.Equal(t, 96, *ev.FreeTicketCapacity)

	// Cancellations are not bounded by the per-booking limit.
	ev.BookedTicketsCount = 10
	free := 90
	ev.FreeTicketCapacity = &free
	require.NoError(t, ApplyTicketDelta(ev, -10))
	assert.Equal(t, 100, *ev.FreeTicketCapacity)
}

func TestApplyTicketDelta_Unlimited(t *testing.T) {
	limit := 2
	ev := &models.Event{MaxPerBooking: &limit}

	// Without a capacity every positive delta is accepted and only the
	// booked count moves.
	require.NoError(t, ApplyTicketDelta(ev, 500))
	assert.Equal(t, 500, ev.BookedTicketsCount)
	assert.Nil(t, ev.FreeTicketCapacity)
	assert.False(t, ev.TicketAlarm)
	assert.False(t, ev.IsSoldOut)

	require.NoError(t, ApplyTicketDelta(ev, -500))
	assert.Equal(t, 0, ev.BookedTicketsCount)

	err := ApplyTicketDelta(ev, -1)
	assert.ErrorIs(t, err, models.ErrInventoryInvariant)
	assert.Equal(t, 0, ev.BookedTicketsCount)
}

func TestApplyTicketDelta_InvariantBounds(t *testing.T) {
	// Restoring more tickets than were ever booked would push free above max.
	ev := capEvent(10, 8, 2)
	err := ApplyTicketDelta(ev, -5)
	assert.ErrorIs(t, err, models.ErrInventoryInvariant)
	assert.Equal(t, 8, *ev.FreeTicketCapacity)
	assert.Equal(t, 2, ev.BookedTicketsCount)
}

func TestRefreshAvailability(t *testing.T) {
	ev := capEvent(10, 0, 10)
	RefreshAvailability(ev)
	assert.True(t, ev.IsSoldOut)
	assert.True(t, ev.TicketAlarm)

	free := 5
	ev.FreeTicketCapacity = &free
	RefreshAvailability(ev)
	assert.False(t, ev.IsSoldOut)
	assert.False(t, ev.TicketAlarm)

	unlimited := &models.Event{TicketAlarm: true, IsSoldOut: true}
	RefreshAvailability(unlimited)
	assert.False(t, unlimited.TicketAlarm)
	assert.False(t, unlimited.IsSoldOut)
}
