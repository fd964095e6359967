package models

import (
	"time"

	"github.com/google/uuid"
)

// Email log statuses.
const (
	EmailStatusPending = "pending"
	EmailStatusSent    = "sent"
	EmailStatusFailed  = "failed"
)

// EmailLog records a booking-confirmation email processed by the worker.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	BookingID      uuid.UUID  `json:"booking_id"`
	EventID        uuid.UUID  `json:"event_id"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
