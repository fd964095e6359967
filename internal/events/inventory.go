package events

import (
	"github.com/eventbuddy/backend/internal/models"
)

// alarmThreshold is the remaining-capacity ratio at or below which the
// low-inventory warning flag is raised. 20% remaining (inclusive) triggers it.
const alarmThreshold = 0.20

// ApplyTicketDelta applies a signed ticket delta to an event's inventory:
// positive on booking, negative on cancellation. It mutates the event's
// counters and derived flags in place, or returns an error and leaves the
// event untouched. Pure computation; the caller persists the result.
//
// Events without a ticket capacity are unlimited: every delta is accepted and
// only the booked-tickets count moves.
func ApplyTicketDelta(ev *models.Event, delta int) error {
	if !ev.HasCapacity() {
		if ev.BookedTicketsCount+delta < 0 {
			return models.ErrInventoryInvariant
		}
		ev.BookedTicketsCount += delta
		return nil
	}

	free := *ev.FreeTicketCapacity
	max := *ev.MaxTicketCapacity

	if delta > 0 {
		if ev.MaxPerBooking != nil && delta > *ev.MaxPerBooking {
			return models.ErrBookingLimitExceeded
		}
		if delta > free {
			return models.ErrCapacityExceeded
		}
	}

	newFree := free - delta
	if newFree > max || newFree < 0 {
		// Cancellations are bounded by what was actually booked; landing
		// outside [0, max] means the bookings and counters disagree.
		return models.ErrInventoryInvariant
	}

	ev.FreeTicketCapacity = &newFree
	ev.BookedTicketsCount += delta
	ev.IsSoldOut = newFree == 0
	ev.TicketAlarm = float64(newFree)/float64(max) <= alarmThreshold
	return nil
}

// RefreshAvailability recomputes the derived flags from the current counters.
// Used after administrative capacity changes; booking mutations go through
// ApplyTicketDelta instead.
func RefreshAvailability(ev *models.Event) {
	if !ev.HasCapacity() || ev.FreeTicketCapacity == nil {
		ev.TicketAlarm = false
		ev.IsSoldOut = false
		return
	}
	free := *ev.FreeTicketCapacity
	max := *ev.MaxTicketCapacity
	ev.IsSoldOut = free == 0
	ev.TicketAlarm = float64(free)/float64(max) <= alarmThreshold
}
