package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking is a ticket reservation for an event. At most one booking exists
// per (user, event) pair; bookings are created and deleted, never edited.
type Booking struct {
	ID              uuid.UUID `json:"id"`
	EventID         uuid.UUID `json:"event_id"`
	UserID          uuid.UUID `json:"user_id"`
	Name            string    `json:"name"`
	NumberOfTickets int       `json:"number_of_tickets"`
	CreatedAt       time.Time `json:"created_at"`
}
