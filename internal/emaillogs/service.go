package emaillogs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventbuddy/backend/internal/models"
	"github.com/eventbuddy/backend/pkg/queue"
)

// Store is the email log persistence the service needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.EmailLog, error)
}

// BookingStore resolves the booking behind a log entry.
type BookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// Confirmations re-enqueues confirmation jobs.
type Confirmations interface {
	EnqueueBookingConfirmation(ctx context.Context, p queue.BookingConfirmationPayload) error
}

// Service exposes the delivery log and lets admins resend confirmations.
type Service struct {
	store         Store
	bookings      BookingStore
	confirmations Confirmations
	logger        *zap.Logger
}

// NewService creates an email logs service.
func NewService(store Store, bookings BookingStore, confirmations Confirmations, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, bookings: bookings, confirmations: confirmations, logger: logger}
}

// ListByEvent returns the delivery log for an event, newest first.
func (s *Service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.EmailLog, error) {
	return s.store.ListByEvent(ctx, eventID)
}

// Resend re-enqueues the confirmation behind a log entry; the worker records
// the new attempt as its own log row. A log that does not belong to the event,
// or whose booking was cancelled in the meantime, reads as not found.
func (s *Service) Resend(ctx context.Context, eventID, logID uuid.UUID) (*models.EmailLog, error) {
	el, err := s.store.GetByID(ctx, logID)
	if err != nil {
		return nil, err
	}
	if el.EventID != eventID {
		return nil, models.NewNotFound("email log", logID)
	}
	b, err := s.bookings.GetByID(ctx, el.BookingID)
	if err != nil {
		return nil, err
	}
	p := queue.BookingConfirmationPayload{
		BookingID: b.ID,
		EventID:   el.EventID,
		UserID:    b.UserID,
	}
	if err := s.confirmations.EnqueueBookingConfirmation(ctx, p); err != nil {
		return nil, fmt.Errorf("enqueue confirmation: %w", err)
	}
	s.logger.Info("confirmation resend enqueued",
		zap.String("email_log_id", logID.String()),
		zap.String("booking_id", b.ID.String()))
	return el, nil
}
