package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/events"
	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/queue"
)

// maxWriteAttempts bounds optimistic-concurrency retries before surfacing the
// conflict to the caller.
const maxWriteAttempts = 3

// Store is the booking persistence the service needs. The *WithEvent methods
// are atomic per event and guarded by the event version the service read.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ExistsForUserAndEvent(ctx context.Context, userID, eventID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Booking, error)
	CreateWithEvent(ctx context.Context, b *models.Booking, e *models.Event) error
	DeleteWithEvent(ctx context.Context, bookingID uuid.UUID, e *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventStore loads the authoritative event before each mutation attempt.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// Confirmations enqueues booking-confirmation email jobs.
type Confirmations interface {
	EnqueueBookingConfirmation(ctx context.Context, p queue.BookingConfirmationPayload) error
}

// Result is a booking together with the event state it produced.
type Result struct {
	Booking *models.Booking `json:"booking"`
	Event   *models.Event   `json:"event"`
}

// Service orchestrates the booking lifecycle: validation, inventory mutation
// via the pure ticket rules, and atomic persistence with bounded retries on
// optimistic-concurrency conflicts.
type Service struct {
	store         Store
	eventStore    EventStore
	confirmations Confirmations
	logger        *zap.Logger
}

// NewService creates a booking service. confirmations may be nil.
func NewService(store Store, eventStore EventStore, confirmations Confirmations, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, eventStore: eventStore, confirmations: confirmations, logger: logger}
}

// Get returns a booking by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.store.GetByID(ctx, id)
}

// ListByUser returns the user's bookings.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Booking, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListByEvent returns an event's bookings.
func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Booking, error) {
	return s.store.ListByEvent(ctx, eventID)
}

// Create books tickets for a user. The whole read-validate-write cycle is
// retried from a fresh event read when a concurrent booking wins the version
// race; validation failures never reach the store.
func (s *Service) Create(ctx context.Context, eventID, userID uuid.UUID, tickets int, name string) (*Result, error) {
	if tickets <= 0 {
		return nil, models.NewValidation("number of tickets must be positive")
	}

	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		ev, err := s.eventStore.GetByID(ctx, eventID)
		if err != nil {
			return nil, err
		}

		booked, err := s.store.ExistsForUserAndEvent(ctx, userID, eventID)
		if err != nil {
			return nil, fmt.Errorf("duplicate check: %w", err)
		}
		if booked {
			return nil, models.ErrDuplicateBooking
		}

		if err := events.ApplyTicketDelta(ev, tickets); err != nil {
			if errors.Is(err, models.ErrInventoryInvariant) {
				s.logger.Error("inventory invariant violated on booking",
					zap.String("event_id", eventID.String()), zap.Int("tickets", tickets))
			}
			return nil, err
		}

		b := &models.Booking{
			EventID:         eventID,
			UserID:          userID,
			Name:            name,
			NumberOfTickets: tickets,
		}
		err = s.store.CreateWithEvent(ctx, b, ev)
		if err == nil {
			s.enqueueConfirmation(ctx, b)
			return &Result{Booking: b, Event: ev}, nil
		}
		if !errors.Is(err, models.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Delete cancels a booking and restores the event's inventory. When the event
// no longer exists only the booking is removed.
func (s *Service) Delete(ctx context.Context, bookingID uuid.UUID) error {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		ev, err := s.eventStore.GetByID(ctx, b.EventID)
		if err != nil {
			if models.IsNotFound(err) {
				return s.store.Delete(ctx, bookingID)
			}
			return err
		}

		if err := events.ApplyTicketDelta(ev, -b.NumberOfTickets); err != nil {
			if errors.Is(err, models.ErrInventoryInvariant) {
				s.logger.Error("inventory invariant violated on cancellation",
					zap.String("booking_id", bookingID.String()),
					zap.String("event_id", b.EventID.String()),
					zap.Int("tickets", b.NumberOfTickets))
			}
			return err
		}

		err = s.store.DeleteWithEvent(ctx, bookingID, ev)
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// DeleteAllForUser cancels every booking the user holds, restoring each
// event's inventory. Runs before the user row is removed so the counters
// never drift from the surviving bookings.
func (s *Service) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, b := range list {
		if err := s.Delete(ctx, b.ID); err != nil && !models.IsNotFound(err) {
			return fmt.Errorf("cancel booking %s: %w", b.ID, err)
		}
	}
	return nil
}

func (s *Service) enqueueConfirmation(ctx context.Context, b *models.Booking) {
	if s.confirmations == nil {
		return
	}
	p := queue.BookingConfirmationPayload{
		BookingID: b.ID,
		EventID:   b.EventID,
		UserID:    b.UserID,
	}
	if err := s.confirmations.EnqueueBookingConfirmation(ctx, p); err != nil {
		s.logger.Warn("enqueue booking confirmation failed",
			zap.String("booking_id", b.ID.String()), zap.Error(err))
	}
}
