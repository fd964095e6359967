package models

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a bookable event hosted by an organization.
//
// MaxTicketCapacity is optional: a nil capacity means unlimited tickets, in
// which case FreeTicketCapacity stays nil and the derived flags stay false.
// Version increases on every inventory write and is the compare-and-swap
// token for concurrent booking mutations.
type Event struct {
	ID                 uuid.UUID  `json:"id"`
	OrganizationID     uuid.UUID  `json:"organization_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	EventDateTime      time.Time  `json:"event_date_time"`
	Location           Location   `json:"location"`
	Price              float64    `json:"price"`
	MaxTicketCapacity  *int       `json:"max_ticket_capacity,omitempty"`
	FreeTicketCapacity *int       `json:"free_ticket_capacity,omitempty"`
	BookedTicketsCount int        `json:"booked_tickets_count"`
	MaxPerBooking      *int       `json:"max_per_booking,omitempty"`
	TicketAlarm        bool       `json:"ticket_alarm"`
	IsSoldOut          bool       `json:"is_sold_out"`
	ImageID            *uuid.UUID `json:"image_id,omitempty"`
	Version            int64      `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// HasCapacity reports whether the event has a ticket limit.
func (e *Event) HasCapacity() bool {
	return e.MaxTicketCapacity != nil
}
